package xbrl

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sustainix/sustainix/internal/taxonomy"
)

// ValueKind discriminates the typed payload of a fact value.
type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindBool
	KindDate
	KindEnum // one or more domain member QNames
)

// Value is the typed payload of a fact. Exactly one field besides Kind is
// meaningful, selected by Kind.
type Value struct {
	Kind    ValueKind
	Text    string
	Number  decimal.Decimal
	Bool    bool
	Date    time.Time
	Members []taxonomy.QName
}

// TextValue returns a text value.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// NumberValue returns a numeric value.
func NumberValue(d decimal.Decimal) Value { return Value{Kind: KindNumber, Number: d} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// DateValue returns a date value.
func DateValue(t time.Time) Value { return Value{Kind: KindDate, Date: t} }

// EnumValue returns an enumeration value over one or more domain members.
func EnumValue(members []taxonomy.QName) Value { return Value{Kind: KindEnum, Members: members} }

// Equal reports whether two values are the same. Numbers compare by
// numeric equality, not lexical form, so "1.50" and "1.5" are one value.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindText:
		return v.Text == o.Text
	case KindNumber:
		return v.Number.Equal(o.Number)
	case KindBool:
		return v.Bool == o.Bool
	case KindDate:
		return v.Date.Equal(o.Date)
	case KindEnum:
		if len(v.Members) != len(o.Members) {
			return false
		}
		for i := range v.Members {
			if v.Members[i] != o.Members[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns the lexical form written into the instance document.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return v.Number.String()
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindDate:
		return v.Date.Format(dateLayout)
	case KindEnum:
		parts := make([]string, len(v.Members))
		for i, m := range v.Members {
			parts[i] = m.String()
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// Fact is one reported value: a concept, the context it was reported in,
// an optional unit (numeric concepts only) and the typed value. SourceName
// records the named range the fact came from, for diagnostics.
type Fact struct {
	Concept    *taxonomy.Concept
	Context    *Context
	Unit       *Unit
	Value      Value
	Decimals   string // "INF" or a digit count; empty for non-numeric facts
	SourceName string
}

// Numeric reports whether the fact carries a unit.
func (f *Fact) Numeric() bool { return f.Unit != nil }
