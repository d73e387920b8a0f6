// Package taxonomy provides an in-memory, read-only index of an XBRL
// taxonomy: concepts with their data types and labels, the dimensional
// model (hypercubes, axes, domain members, defaults), the presentation
// networks that drive report layout, and the unit registry.
//
// A Taxonomy is built once per taxonomy version at load time and never
// mutated afterwards, so it is safe to share across concurrent conversions.
package taxonomy

import (
	"fmt"
	"strings"
)

// Cube is the dimensional contract of one hypercube: which axes apply and
// which concepts are reported under it.
type Cube struct {
	Name     QName
	Explicit map[QName][]QName // axis -> domain members, in taxonomy order
	Typed    []QName
	Primary  []QName
}

// Taxonomy is the immutable model for one taxonomy entry point.
type Taxonomy struct {
	entryPoint string
	version    string
	namespaces map[string]string

	concepts map[QName]*Concept
	byLocal  map[string][]*Concept
	byLabel  map[string][]*Concept

	groups []Group

	cubes           map[QName]*Cube
	cubesByPrimary  map[QName][]*Cube
	domainByAxis    map[QName][]QName
	defaults        map[QName]QName // axis -> default member
	units           *UnitRegistry
}

// EntryPoint returns the schema entry point URI this taxonomy was loaded for.
func (t *Taxonomy) EntryPoint() string { return t.entryPoint }

// Version returns the taxonomy release identifier.
func (t *Taxonomy) Version() string { return t.version }

// Namespaces returns the prefix-to-namespace map of the taxonomy document.
func (t *Taxonomy) Namespaces() map[string]string {
	out := make(map[string]string, len(t.namespaces))
	for k, v := range t.namespaces {
		out[k] = v
	}
	return out
}

// Units returns the taxonomy's unit registry.
func (t *Taxonomy) Units() *UnitRegistry { return t.units }

// Groups returns the presentation networks in taxonomy document order.
func (t *Taxonomy) Groups() []Group { return t.groups }

// Concept returns the concept for a QName.
func (t *Taxonomy) Concept(name QName) (*Concept, bool) {
	c, ok := t.concepts[name]
	return c, ok
}

// ConceptCount returns the number of concepts in the taxonomy.
func (t *Taxonomy) ConceptCount() int { return len(t.concepts) }

// ConceptForName resolves a bare local name to a concept. Resolution is
// exact-match only: a name matching several concepts across namespaces is an
// error rather than a guess, since a silent mismatch would corrupt a filing.
func (t *Taxonomy) ConceptForName(local string) (*Concept, error) {
	candidates := t.byLocal[local]
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Name.String()
		}
		return nil, fmt.Errorf("ambiguous name %q: candidate concepts %s", local, strings.Join(names, ", "))
	}
}

// ConceptForLabel resolves a standard label to a concept. The raw label is
// tried first, then a cleaned variant (dashes normalized, "[member]"-style
// suffix removed, lowercased). No fuzzy matching.
func (t *Taxonomy) ConceptForLabel(label string) (*Concept, error) {
	for _, key := range labelKeys(label) {
		candidates := t.byLabel[key]
		switch len(candidates) {
		case 0:
			continue
		case 1:
			return candidates[0], nil
		default:
			names := make([]string, len(candidates))
			for i, c := range candidates {
				names[i] = c.Name.String()
			}
			return nil, fmt.Errorf("ambiguous label %q: candidate concepts %s", label, strings.Join(names, ", "))
		}
	}
	return nil, nil
}

// DomainMembers returns the domain member QNames declared for an explicit
// axis, aggregated across all hypercubes, in taxonomy order.
func (t *Taxonomy) DomainMembers(axis QName) []QName {
	return t.domainByAxis[axis]
}

// DimensionDefault returns the default member for an axis, if one is
// declared. Facts carrying the default member are written without the
// qualifier, per the XBRL dimension default rule.
func (t *Taxonomy) DimensionDefault(axis QName) (QName, bool) {
	m, ok := t.defaults[axis]
	return m, ok
}

// Cube returns the dimensional contract for a hypercube concept.
func (t *Taxonomy) Cube(name QName) (*Cube, bool) {
	c, ok := t.cubes[name]
	return c, ok
}

// AxesForConcept returns the explicit axes allowed on a reportable concept,
// aggregated across every hypercube it participates in.
func (t *Taxonomy) AxesForConcept(concept QName) []QName {
	var out []QName
	seen := make(map[QName]struct{})
	for _, cube := range t.cubesByPrimary[concept] {
		for axis := range cube.Explicit {
			if _, dup := seen[axis]; !dup {
				seen[axis] = struct{}{}
				out = append(out, axis)
			}
		}
	}
	return out
}

// TypedAxesForConcept returns the typed axes required on a reportable
// concept.
func (t *Taxonomy) TypedAxesForConcept(concept QName) []QName {
	var out []QName
	seen := make(map[QName]struct{})
	for _, cube := range t.cubesByPrimary[concept] {
		for _, axis := range cube.Typed {
			if _, dup := seen[axis]; !dup {
				seen[axis] = struct{}{}
				out = append(out, axis)
			}
		}
	}
	return out
}

// AxisForMember finds the single explicit axis, among those allowed on the
// concept, whose domain contains the member. Ambiguity (a member valid on
// two axes of the same concept) is an error.
func (t *Taxonomy) AxisForMember(concept, member QName) (QName, error) {
	var found []QName
	for _, cube := range t.cubesByPrimary[concept] {
		for axis, members := range cube.Explicit {
			for _, m := range members {
				if m == member {
					found = append(found, axis)
					break
				}
			}
		}
	}
	switch len(found) {
	case 0:
		return QName{}, nil
	case 1:
		return found[0], nil
	default:
		names := make([]string, len(found))
		for i, a := range found {
			names[i] = a.String()
		}
		return QName{}, fmt.Errorf("member %s is valid on multiple axes of %s: %s", member, concept, strings.Join(names, ", "))
	}
}

// MemberValidForAxis reports whether member is in the declared domain of
// axis.
func (t *Taxonomy) MemberValidForAxis(axis, member QName) bool {
	for _, m := range t.domainByAxis[axis] {
		if m == member {
			return true
		}
	}
	return false
}

// labelKeys returns the lookup keys tried for a label, most exact first.
func labelKeys(label string) []string {
	keys := []string{label}
	cleaned := CleanLabel(label)
	if cleaned != label {
		keys = append(keys, cleaned)
	}
	stripped := stripLabelSuffix(cleaned)
	if stripped != cleaned {
		keys = append(keys, stripped)
	}
	lower := strings.ToLower(stripped)
	if lower != stripped {
		keys = append(keys, lower)
	}
	return keys
}

// indexLabels builds the label lookup for a concept: the raw standard label
// plus its cleaned, suffix-stripped and lowercased variants.
func (t *Taxonomy) indexLabels(c *Concept) {
	if c.Label == "" {
		return
	}
	seen := make(map[string]struct{})
	for _, key := range labelKeys(c.Label) {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		t.byLabel[key] = appendUnique(t.byLabel[key], c)
	}
}

func appendUnique(list []*Concept, c *Concept) []*Concept {
	for _, existing := range list {
		if existing == c {
			return list
		}
	}
	return append(list, c)
}
