package taxonomy

import "strings"

// QName identifies a taxonomy component by namespace prefix and local name.
// Prefixes are fixed per taxonomy document, so QName values are comparable
// and usable as map keys.
type QName struct {
	Prefix string
	Local  string
}

// ParseQName splits a "prefix:local" string into a QName.
// Returns false if the string is not a prefixed name.
func ParseQName(s string) (QName, bool) {
	prefix, local, ok := strings.Cut(s, ":")
	if !ok || prefix == "" || local == "" {
		return QName{}, false
	}
	return QName{Prefix: prefix, Local: local}, true
}

func (q QName) String() string {
	return q.Prefix + ":" + q.Local
}

// IsZero reports whether the QName is the zero value.
func (q QName) IsZero() bool {
	return q.Prefix == "" && q.Local == ""
}

// DataType is the closed set of value types a concept can carry.
// The taxonomy defines a fixed, enumerable set of types per release, so
// dispatch on DataType is exhaustive rather than lookup-driven.
type DataType int

const (
	TypeString DataType = iota
	TypeTextBlock
	TypeDecimal
	TypeMonetary
	TypePercent
	TypeBoolean
	TypeDate
	TypeEnumSingle
	TypeEnumSet
)

// String returns the wire name used in taxonomy documents.
func (d DataType) String() string {
	switch d {
	case TypeString:
		return "string"
	case TypeTextBlock:
		return "textBlock"
	case TypeDecimal:
		return "decimal"
	case TypeMonetary:
		return "monetary"
	case TypePercent:
		return "percent"
	case TypeBoolean:
		return "boolean"
	case TypeDate:
		return "date"
	case TypeEnumSingle:
		return "enumeration"
	case TypeEnumSet:
		return "enumerationSet"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether values of this type require a unit.
func (d DataType) IsNumeric() bool {
	switch d {
	case TypeDecimal, TypeMonetary, TypePercent:
		return true
	default:
		return false
	}
}

// PeriodType says whether a concept is reported at a point in time or over
// a period.
type PeriodType int

const (
	PeriodInstant PeriodType = iota
	PeriodDuration
)

func (p PeriodType) String() string {
	if p == PeriodInstant {
		return "instant"
	}
	return "duration"
}

// Concept is a standardized, typed reporting item defined by the taxonomy.
// Concepts are immutable after taxonomy load.
type Concept struct {
	Name       QName
	Type       DataType
	PeriodType PeriodType

	// UnitType names the unit-registry data type used to pick and
	// validate units for this concept (e.g. "monetary", "energy",
	// "mass"). Empty for non-numeric concepts.
	UnitType string

	// Label is the standard (human-facing) label. Documentation and
	// Guidance are optional longer label roles.
	Label         string
	Documentation string
	Guidance      string

	Abstract  bool
	Dimension bool // concept is an axis
	Typed     bool // axis takes free-form values rather than domain members
	Hypercube bool

	// EnumDomain lists the domain member concepts of an enumeration
	// concept, in taxonomy order.
	EnumDomain []QName
}

// Reportable reports whether facts may be reported against this concept.
func (c *Concept) Reportable() bool {
	return !c.Abstract && !c.Dimension && !c.Hypercube
}

// ExplicitDimension reports whether the concept is an axis whose values are
// taxonomy-defined domain members.
func (c *Concept) ExplicitDimension() bool {
	return c.Dimension && !c.Typed
}

// TypedDimension reports whether the concept is an axis with free-form values.
func (c *Concept) TypedDimension() bool {
	return c.Dimension && c.Typed
}

// Numeric reports whether facts of this concept require a unit.
func (c *Concept) Numeric() bool {
	return c.Type.IsNumeric()
}

// CleanLabel normalizes a label for lookup: em/en dashes become hyphens,
// surrounding whitespace is stripped.
func CleanLabel(label string) string {
	label = strings.ReplaceAll(label, "—", "-")
	label = strings.ReplaceAll(label, "–", "-")
	return strings.TrimSpace(label)
}

// DisplayLabel returns the label as shown to readers: cleaned, with any
// "[member]"-style role suffix removed.
func DisplayLabel(label string) string {
	return strings.TrimSpace(stripLabelSuffix(CleanLabel(label)))
}

// stripLabelSuffix removes a trailing "[member]"-style role suffix.
func stripLabelSuffix(label string) string {
	if i := strings.LastIndex(label, "["); i >= 0 {
		return strings.TrimSpace(label[:i])
	}
	return label
}
