// Package render turns a report model into the human-readable HTML
// document, with the machine-readable fact data carried alongside for
// downstream tagging.
package render

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sustainix/sustainix/internal/taxonomy"
	"github.com/sustainix/sustainix/internal/xbrl"
)

// FormatValue returns the display text for a fact: numbers with thousands
// separators, percents scaled back to percentage points, enumeration
// members by label where the taxonomy knows one.
func FormatValue(tax *taxonomy.Taxonomy, f *xbrl.Fact) string {
	switch f.Value.Kind {
	case xbrl.KindNumber:
		n := f.Value.Number
		if f.Concept.Type == taxonomy.TypePercent {
			return groupDigits(n.Mul(decimal.NewFromInt(100)).String()) + "%"
		}
		return groupDigits(n.String())
	case xbrl.KindBool:
		if f.Value.Bool {
			return "Yes"
		}
		return "No"
	case xbrl.KindEnum:
		parts := make([]string, len(f.Value.Members))
		for i, m := range f.Value.Members {
			parts[i] = m.Local
			if c, ok := tax.Concept(m); ok {
				parts[i] = taxonomy.DisplayLabel(c.Label)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return f.Value.String()
	}
}

// UnitSuffix returns the unit text appended after a numeric value, or ""
// for facts without one. Percent values carry their own sign.
func UnitSuffix(f *xbrl.Fact) string {
	if f.Unit == nil || f.Concept.Type == taxonomy.TypePercent {
		return ""
	}
	if f.Unit.Symbol != "" {
		return f.Unit.Symbol
	}
	return f.Unit.Measure.Local
}

// groupDigits inserts thousands separators into the integer part of a
// plain decimal string.
func groupDigits(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	out := intPart
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
