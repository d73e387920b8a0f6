// Package convert turns extracted workbook values into XBRL facts: it
// resolves named ranges to taxonomy concepts, coerces raw cell text to
// typed values, builds dimensional contexts and units, and accumulates
// everything into a fact set plus a diagnostic trail.
package convert

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sustainix/sustainix/internal/taxonomy"
	"github.com/sustainix/sustainix/internal/xbrl"
)

// Severity orders diagnostic messages by how bad they are.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Kind classifies diagnostics so callers can react per class rather than
// parse message text.
type Kind string

const (
	KindUnmappedName               Kind = "unmapped-name"
	KindInvalidDimensionMember     Kind = "invalid-dimension-member"
	KindConflictingDimension       Kind = "conflicting-dimension"
	KindMissingPeriodConfiguration Kind = "missing-period-configuration"
	KindTypeCoercionFailure        Kind = "type-coercion-failure"
	KindConflictingFactValue       Kind = "conflicting-fact-value"
	KindInvalidUnit                Kind = "invalid-unit"
	KindUnsupportedPresentation    Kind = "unsupported-presentation"
	KindProgress                   Kind = "progress"
)

// Message is one diagnostic: what happened, how severe it is, and which
// named range (and concept, when known) it concerns.
type Message struct {
	Severity Severity       `json:"severity"`
	Kind     Kind           `json:"kind"`
	Name     string         `json:"name,omitempty"` // source named range
	Concept  taxonomy.QName `json:"-"`
	Text     string         `json:"text"`
}

func (m Message) String() string {
	if m.Name != "" {
		return fmt.Sprintf("%s: %s: %s", m.Severity, m.Name, m.Text)
	}
	return fmt.Sprintf("%s: %s", m.Severity, m.Text)
}

// Result is the outcome of one conversion run: the assembled facts, the
// diagnostic trail, and bookkeeping about which workbook names were used.
type Result struct {
	ID       uuid.UUID
	Entity   string
	Facts    *xbrl.FactSet
	Contexts []*xbrl.Context
	Units    []*xbrl.Unit
	Messages []Message

	// UnusedNames lists workbook named ranges that resolved to nothing,
	// in workbook order.
	UnusedNames []string
}

func newResult(entity string) *Result {
	return &Result{ID: uuid.New(), Entity: entity, Facts: xbrl.NewFactSet()}
}

func (r *Result) add(sev Severity, kind Kind, name, format string, args ...any) {
	r.Messages = append(r.Messages, Message{
		Severity: sev,
		Kind:     kind,
		Name:     name,
		Text:     fmt.Sprintf(format, args...),
	})
}

func (r *Result) info(kind Kind, name, format string, args ...any) {
	r.add(SeverityInfo, kind, name, format, args...)
}

func (r *Result) warn(kind Kind, name, format string, args ...any) {
	r.add(SeverityWarning, kind, name, format, args...)
}

func (r *Result) errorf(kind Kind, name, format string, args ...any) {
	r.add(SeverityError, kind, name, format, args...)
}

// errorFor records an error tied to the taxonomy concept it concerns, so
// error surfaces can link the diagnostic back to the disclosure.
func (r *Result) errorFor(kind Kind, name string, concept taxonomy.QName, format string, args ...any) {
	r.Messages = append(r.Messages, Message{
		Severity: SeverityError,
		Kind:     kind,
		Name:     name,
		Concept:  concept,
		Text:     fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (r *Result) HasErrors() bool {
	for _, m := range r.Messages {
		if m.Severity == SeverityError {
			return true
		}
	}
	return false
}

// AtLeast returns the messages with severity >= min, preserving order.
func (r *Result) AtLeast(min Severity) []Message {
	var out []Message
	for _, m := range r.Messages {
		if m.Severity >= min {
			out = append(out, m)
		}
	}
	return out
}
