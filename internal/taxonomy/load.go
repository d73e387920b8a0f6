package taxonomy

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// document is the on-disk JSON shape of a taxonomy release, produced by a
// taxonomy-update tool from the official package. The loader turns it into
// the immutable in-memory model.
type document struct {
	EntryPoint string            `json:"entryPoint"`
	Version    string            `json:"version"`
	Namespaces map[string]string `json:"namespaces"`

	Concepts map[string]conceptDoc `json:"concepts"`

	Presentation []groupDoc `json:"presentation"`

	Dimensions dimensionsDoc `json:"dimensions"`

	Units unitsDoc `json:"units"`
}

type conceptDoc struct {
	Label         string   `json:"label"`
	Documentation string   `json:"documentation,omitempty"`
	Guidance      string   `json:"guidance,omitempty"`
	DataType      string   `json:"dataType"`
	UnitType      string   `json:"unitType,omitempty"`
	PeriodType    string   `json:"periodType"`
	Abstract      bool     `json:"abstract,omitempty"`
	Dimension     bool     `json:"dimension,omitempty"`
	Typed         bool     `json:"typed,omitempty"`
	Hypercube     bool     `json:"hypercube,omitempty"`
	EnumDomain    []string `json:"enumDomain,omitempty"`
}

type groupDoc struct {
	Role  string    `json:"role"`
	Label string    `json:"label"`
	Rows  []rowDoc  `json:"rows"`
}

// rowDoc is a [depth, qname] pair.
type rowDoc struct {
	Depth int
	Name  string
}

func (r *rowDoc) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("presentation row must be a [depth, qname] pair, got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &r.Depth); err != nil {
		return fmt.Errorf("presentation row depth: %w", err)
	}
	if err := json.Unmarshal(raw[1], &r.Name); err != nil {
		return fmt.Errorf("presentation row qname: %w", err)
	}
	return nil
}

type dimensionsDoc struct {
	Defaults map[string]string  `json:"defaults,omitempty"`
	Cubes    map[string]cubeDoc `json:"cubes"`
}

type cubeDoc struct {
	Explicit map[string][]string `json:"explicit,omitempty"`
	Typed    []string            `json:"typed,omitempty"`
	Primary  []string            `json:"primary,omitempty"`
}

type unitsDoc struct {
	Units      []unitDoc           `json:"units"`
	ForType    map[string][]string `json:"forType,omitempty"`
	Defaults   map[string]string   `json:"defaults,omitempty"`
	Currencies []string            `json:"currencies,omitempty"`
}

type unitDoc struct {
	ID      string `json:"id"`
	Measure string `json:"measure"`
	Symbol  string `json:"symbol,omitempty"`
}

// Load builds a Taxonomy from a JSON taxonomy document.
func Load(r io.Reader) (*Taxonomy, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode taxonomy document: %w", err)
	}
	return build(&doc)
}

// LoadFile builds a Taxonomy from a JSON taxonomy document on disk.
func LoadFile(path string) (*Taxonomy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open taxonomy document: %w", err)
	}
	defer f.Close()
	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func build(doc *document) (*Taxonomy, error) {
	if doc.EntryPoint == "" {
		return nil, fmt.Errorf("taxonomy document has no entry point")
	}

	t := &Taxonomy{
		entryPoint:     doc.EntryPoint,
		version:        doc.Version,
		namespaces:     doc.Namespaces,
		concepts:       make(map[QName]*Concept, len(doc.Concepts)),
		byLocal:        make(map[string][]*Concept),
		byLabel:        make(map[string][]*Concept),
		cubes:          make(map[QName]*Cube),
		cubesByPrimary: make(map[QName][]*Cube),
		domainByAxis:   make(map[QName][]QName),
		defaults:       make(map[QName]QName),
	}

	for raw, cdoc := range doc.Concepts {
		name, ok := ParseQName(raw)
		if !ok {
			return nil, fmt.Errorf("concept %q: not a prefixed name", raw)
		}
		c, err := buildConcept(name, cdoc)
		if err != nil {
			return nil, err
		}
		t.concepts[name] = c
		t.byLocal[name.Local] = append(t.byLocal[name.Local], c)
		t.indexLabels(c)
	}

	for raw, cdoc := range doc.Dimensions.Cubes {
		name, err := t.parseKnownQName(raw)
		if err != nil {
			return nil, fmt.Errorf("hypercube %q: %w", raw, err)
		}
		cube := &Cube{Name: name, Explicit: make(map[QName][]QName)}
		for rawAxis, rawMembers := range cdoc.Explicit {
			axis, err := t.parseKnownQName(rawAxis)
			if err != nil {
				return nil, fmt.Errorf("hypercube %s axis %q: %w", name, rawAxis, err)
			}
			members := make([]QName, 0, len(rawMembers))
			for _, rawMember := range rawMembers {
				member, err := t.parseKnownQName(rawMember)
				if err != nil {
					return nil, fmt.Errorf("axis %s member %q: %w", axis, rawMember, err)
				}
				members = append(members, member)
			}
			cube.Explicit[axis] = members
			t.domainByAxis[axis] = mergeMembers(t.domainByAxis[axis], members)
		}
		for _, rawAxis := range cdoc.Typed {
			axis, err := t.parseKnownQName(rawAxis)
			if err != nil {
				return nil, fmt.Errorf("hypercube %s typed axis %q: %w", name, rawAxis, err)
			}
			cube.Typed = append(cube.Typed, axis)
		}
		for _, rawPrimary := range cdoc.Primary {
			primary, err := t.parseKnownQName(rawPrimary)
			if err != nil {
				return nil, fmt.Errorf("hypercube %s primary item %q: %w", name, rawPrimary, err)
			}
			cube.Primary = append(cube.Primary, primary)
			t.cubesByPrimary[primary] = append(t.cubesByPrimary[primary], cube)
		}
		t.cubes[name] = cube
	}

	for rawAxis, rawMember := range doc.Dimensions.Defaults {
		axis, err := t.parseKnownQName(rawAxis)
		if err != nil {
			return nil, fmt.Errorf("dimension default axis %q: %w", rawAxis, err)
		}
		member, err := t.parseKnownQName(rawMember)
		if err != nil {
			return nil, fmt.Errorf("dimension default member %q: %w", rawMember, err)
		}
		t.defaults[axis] = member
	}

	for _, gdoc := range doc.Presentation {
		group := Group{Role: gdoc.Role, Label: gdoc.Label}
		for _, row := range gdoc.Rows {
			name, err := t.parseKnownQName(row.Name)
			if err != nil {
				return nil, fmt.Errorf("presentation group %q row %q: %w", gdoc.Role, row.Name, err)
			}
			group.Relationships = append(group.Relationships, Relationship{
				Depth:   row.Depth,
				Concept: t.concepts[name],
			})
		}
		group.Style = identifyStyle(group.Relationships)
		t.groups = append(t.groups, group)
	}

	units, err := buildUnits(doc.Units)
	if err != nil {
		return nil, err
	}
	t.units = units

	return t, nil
}

func buildConcept(name QName, doc conceptDoc) (*Concept, error) {
	c := &Concept{
		Name:          name,
		Label:         doc.Label,
		Documentation: doc.Documentation,
		Guidance:      doc.Guidance,
		UnitType:      doc.UnitType,
		Abstract:      doc.Abstract,
		Dimension:     doc.Dimension,
		Typed:         doc.Typed,
		Hypercube:     doc.Hypercube,
	}

	switch doc.PeriodType {
	case "instant":
		c.PeriodType = PeriodInstant
	case "duration":
		c.PeriodType = PeriodDuration
	default:
		return nil, fmt.Errorf("concept %s: unknown period type %q", name, doc.PeriodType)
	}

	switch doc.DataType {
	case "string":
		c.Type = TypeString
	case "textBlock":
		c.Type = TypeTextBlock
	case "decimal":
		c.Type = TypeDecimal
	case "monetary":
		c.Type = TypeMonetary
	case "percent":
		c.Type = TypePercent
	case "boolean":
		c.Type = TypeBoolean
	case "date":
		c.Type = TypeDate
	case "enumeration":
		c.Type = TypeEnumSingle
	case "enumerationSet":
		c.Type = TypeEnumSet
	default:
		return nil, fmt.Errorf("concept %s: unknown data type %q", name, doc.DataType)
	}

	if c.Type == TypeMonetary && c.UnitType == "" {
		c.UnitType = "monetary"
	}

	for _, raw := range doc.EnumDomain {
		member, ok := ParseQName(raw)
		if !ok {
			return nil, fmt.Errorf("concept %s: enum domain member %q is not a prefixed name", name, raw)
		}
		c.EnumDomain = append(c.EnumDomain, member)
	}

	return c, nil
}

func buildUnits(doc unitsDoc) (*UnitRegistry, error) {
	r := &UnitRegistry{
		byID:       make(map[string]UnitDef, len(doc.Units)),
		forType:    make(map[string][]string, len(doc.ForType)),
		currencies: make(map[string]struct{}, len(doc.Currencies)),
		defaults:   make(map[string]string, len(doc.Defaults)),
	}
	for _, u := range doc.Units {
		measure, ok := ParseQName(u.Measure)
		if !ok {
			return nil, fmt.Errorf("unit %q: measure %q is not a prefixed name", u.ID, u.Measure)
		}
		r.byID[u.ID] = UnitDef{ID: u.ID, Measure: measure, Symbol: u.Symbol}
	}
	for dataType, ids := range doc.ForType {
		for _, id := range ids {
			if _, ok := r.byID[id]; !ok {
				return nil, fmt.Errorf("unit registry: data type %q references unknown unit %q", dataType, id)
			}
		}
		r.forType[dataType] = ids
	}
	for dataType, id := range doc.Defaults {
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("unit registry: default for %q references unknown unit %q", dataType, id)
		}
		r.defaults[dataType] = id
	}
	for _, code := range doc.Currencies {
		r.currencies[code] = struct{}{}
	}
	return r, nil
}

// parseKnownQName parses a prefixed name and checks it refers to a loaded
// concept.
func (t *Taxonomy) parseKnownQName(raw string) (QName, error) {
	name, ok := ParseQName(raw)
	if !ok {
		return QName{}, fmt.Errorf("not a prefixed name")
	}
	if _, ok := t.concepts[name]; !ok {
		return QName{}, fmt.Errorf("unknown concept")
	}
	return name, nil
}

func mergeMembers(existing, extra []QName) []QName {
	for _, m := range extra {
		dup := false
		for _, e := range existing {
			if e == m {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, m)
		}
	}
	return existing
}
