package convert

import (
	"fmt"
	"strings"

	"github.com/sustainix/sustainix/internal/taxonomy"
	"github.com/sustainix/sustainix/internal/xbrl"
)

// coerceValue turns raw cell text into the typed value a concept requires.
// Multi-cell ranges arrive with cell values joined by newlines; enumeration
// set concepts consume every line, everything else uses the text as one
// value.
func (b *builder) coerceValue(concept *taxonomy.Concept, raw string) (xbrl.Value, *buildError) {
	text := strings.TrimSpace(raw)

	switch concept.Type {
	case taxonomy.TypeString, taxonomy.TypeTextBlock:
		return xbrl.TextValue(text), nil

	case taxonomy.TypeDecimal, taxonomy.TypeMonetary:
		d, err := ParseDecimal(text)
		if err != nil {
			return xbrl.Value{}, &buildError{kind: KindTypeCoercionFailure, msg: err.Error()}
		}
		return xbrl.NumberValue(d), nil

	case taxonomy.TypePercent:
		d, err := ParsePercent(text)
		if err != nil {
			return xbrl.Value{}, &buildError{kind: KindTypeCoercionFailure, msg: err.Error()}
		}
		return xbrl.NumberValue(d), nil

	case taxonomy.TypeBoolean:
		v, err := ParseBool(text)
		if err != nil {
			return xbrl.Value{}, &buildError{kind: KindTypeCoercionFailure, msg: err.Error()}
		}
		return xbrl.BoolValue(v), nil

	case taxonomy.TypeDate:
		t, err := ParseDate(text)
		if err != nil {
			return xbrl.Value{}, &buildError{kind: KindTypeCoercionFailure, msg: err.Error()}
		}
		return xbrl.DateValue(t), nil

	case taxonomy.TypeEnumSingle:
		member, berr := b.enumMember(concept, text)
		if berr != nil {
			return xbrl.Value{}, berr
		}
		return xbrl.EnumValue([]taxonomy.QName{member}), nil

	case taxonomy.TypeEnumSet:
		var members []taxonomy.QName
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || isPlaceholder(line, b.defaults) {
				continue
			}
			member, berr := b.enumMember(concept, line)
			if berr != nil {
				return xbrl.Value{}, berr
			}
			members = appendMember(members, member)
		}
		if len(members) == 0 {
			return xbrl.Value{}, &buildError{kind: KindTypeCoercionFailure,
				msg: "enumeration set has no selected members"}
		}
		return xbrl.EnumValue(members), nil

	default:
		return xbrl.Value{}, &buildError{kind: KindTypeCoercionFailure,
			msg: fmt.Sprintf("unsupported data type %s", concept.Type)}
	}
}

// enumMember resolves one enumeration selection, written either as the
// member's label or its local name, and checks it against the concept's
// declared domain.
func (b *builder) enumMember(concept *taxonomy.Concept, text string) (taxonomy.QName, *buildError) {
	c, err := b.tax.ConceptForLabel(text)
	if err != nil {
		return taxonomy.QName{}, &buildError{kind: KindTypeCoercionFailure, msg: err.Error()}
	}
	if c == nil {
		c, err = b.tax.ConceptForName(text)
		if err != nil {
			return taxonomy.QName{}, &buildError{kind: KindTypeCoercionFailure, msg: err.Error()}
		}
	}
	if c == nil {
		return taxonomy.QName{}, &buildError{kind: KindTypeCoercionFailure,
			msg: fmt.Sprintf("%q does not name a member of the enumeration", text)}
	}
	for _, allowed := range concept.EnumDomain {
		if allowed == c.Name {
			return c.Name, nil
		}
	}
	return taxonomy.QName{}, &buildError{kind: KindTypeCoercionFailure,
		msg: fmt.Sprintf("%s is not in the domain of %s", c.Name, concept.Name)}
}

func appendMember(members []taxonomy.QName, m taxonomy.QName) []taxonomy.QName {
	for _, existing := range members {
		if existing == m {
			return members
		}
	}
	return append(members, m)
}

// decimalsFor returns the decimals attribute for a numeric fact.
func decimalsFor(concept *taxonomy.Concept) string {
	if !concept.Numeric() {
		return ""
	}
	return "INF"
}
