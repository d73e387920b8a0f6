package convert

import (
	"sort"
	"strings"

	"github.com/sustainix/sustainix/internal/taxonomy"
	"github.com/sustainix/sustainix/internal/xbrl"
)

// tableColumn is one named range claimed by a table region. Its cell text
// is split into lines so the region's columns stay row-aligned.
type tableColumn struct {
	name string
	rows []string
}

func (c tableColumn) row(i int) string {
	if i >= len(c.rows) {
		return ""
	}
	return strings.TrimSpace(c.rows[i])
}

// tableRegion groups the named ranges of one hypercube table: an anchor
// range named after the hypercube, primary-item columns producing one fact
// per populated row, and dimension columns qualifying each row.
type tableRegion struct {
	name     string
	cube     *taxonomy.Cube
	primary  map[taxonomy.QName]tableColumn
	typed    map[taxonomy.QName]tableColumn // axis -> value column
	explicit map[taxonomy.QName]tableColumn // axis -> member label column
}

// collectTables finds hypercube anchor ranges and claims the ranges naming
// the cube's primary items and dimensions as that table's columns. Claimed
// names, anchors included, are excluded from standalone fact processing.
func collectTables(tax *taxonomy.Taxonomy, aliases map[string]string, names []string, values map[string]string) ([]*tableRegion, map[string]bool) {
	conceptFor := func(name string) *taxonomy.Concept {
		local := name
		if alias, ok := aliases[local]; ok {
			local = alias
		}
		c, err := tax.ConceptForName(local)
		if err != nil {
			return nil
		}
		return c
	}

	var regions []*tableRegion
	claimed := make(map[string]bool)
	for _, name := range names {
		c := conceptFor(name)
		if c == nil || !c.Hypercube {
			continue
		}
		cube, ok := tax.Cube(c.Name)
		if !ok {
			continue
		}
		regions = append(regions, &tableRegion{
			name:     name,
			cube:     cube,
			primary:  make(map[taxonomy.QName]tableColumn),
			typed:    make(map[taxonomy.QName]tableColumn),
			explicit: make(map[taxonomy.QName]tableColumn),
		})
		claimed[name] = true
	}
	if len(regions) == 0 {
		return nil, claimed
	}

	for _, name := range names {
		if claimed[name] {
			continue
		}
		c := conceptFor(name)
		if c == nil {
			continue
		}
		col := tableColumn{name: name, rows: strings.Split(values[name], "\n")}
		for _, region := range regions {
			if containsQName(region.cube.Primary, c.Name) {
				region.primary[c.Name] = col
				claimed[name] = true
				break
			}
			if containsQName(region.cube.Typed, c.Name) {
				region.typed[c.Name] = col
				claimed[name] = true
				break
			}
			if _, ok := region.cube.Explicit[c.Name]; ok {
				region.explicit[c.Name] = col
				claimed[name] = true
				break
			}
		}
	}
	return regions, claimed
}

func containsQName(list []taxonomy.QName, q taxonomy.QName) bool {
	for _, v := range list {
		if v == q {
			return true
		}
	}
	return false
}

// convertTable assembles the facts of one table region, one fact per
// populated primary-item row, qualified by the region's typed and explicit
// dimension columns at the same row. Returns false when the conversion must
// abort (contradictory data or missing period configuration).
func (b *builder) convertTable(region *tableRegion, result *Result, units *unitIndex) bool {
	explicitAxes := make([]taxonomy.QName, 0, len(region.cube.Explicit))
	for axis := range region.cube.Explicit {
		explicitAxes = append(explicitAxes, axis)
	}
	sort.Slice(explicitAxes, func(i, j int) bool {
		return explicitAxes[i].String() < explicitAxes[j].String()
	})

	for _, pq := range region.cube.Primary {
		col, ok := region.primary[pq]
		if !ok {
			result.warn(KindUnmappedName, region.name,
				"table has no column for primary item %s", pq)
			continue
		}
		concept, _ := b.tax.Concept(pq)
		if concept == nil || !concept.Reportable() {
			continue
		}
		rawUnit := units.take(col.name)

		for i := range col.rows {
			raw := col.row(i)
			if raw == "" || isPlaceholder(raw, b.defaults) {
				continue
			}

			typed, members, rowOK := b.tableQualifiers(region, explicitAxes, i, result)
			if !rowOK {
				continue
			}

			target := Target{Name: col.name, Concept: concept, Members: members}
			fact, berr := b.assemble(target, raw, rawUnit, typed)
			if berr != nil {
				result.errorFor(berr.kind, col.name, concept.Name, "row %d: %s", i+1, berr.msg)
				if berr.kind == KindMissingPeriodConfiguration || berr.kind == KindConflictingDimension {
					return false
				}
				continue
			}
			if err := result.Facts.Add(fact); err != nil {
				result.errorFor(KindConflictingFactValue, col.name, concept.Name, "row %d: %s", i+1, err.Error())
				return false
			}
		}
	}
	return true
}

// tableQualifiers reads the dimension columns of a region at one row. A
// populated fact row must carry a value for every typed dimension of the
// cube; explicit dimension cells hold member labels. rowOK is false when
// the row's fact must be skipped (the error is already recorded).
func (b *builder) tableQualifiers(region *tableRegion, explicitAxes []taxonomy.QName, i int, result *Result) (typed []xbrl.Dimension, members []*taxonomy.Concept, rowOK bool) {
	for _, axis := range region.cube.Typed {
		tcol, ok := region.typed[axis]
		v := ""
		if ok {
			v = tcol.row(i)
		}
		if v == "" || isPlaceholder(v, b.defaults) {
			result.errorFor(KindInvalidDimensionMember, region.name, axis,
				"row %d: required typed dimension %s not set", i+1, axis)
			return nil, nil, false
		}
		typed = append(typed, xbrl.Dimension{Axis: axis, Typed: true, Value: v})
	}

	for _, axis := range explicitAxes {
		ecol, ok := region.explicit[axis]
		if !ok {
			// no column means the axis default applies
			continue
		}
		label := ecol.row(i)
		if label == "" || isPlaceholder(label, b.defaults) {
			result.errorFor(KindInvalidDimensionMember, ecol.name, axis,
				"row %d: required dimension member not set", i+1)
			return nil, nil, false
		}
		member, err := b.tax.ConceptForLabel(label)
		if err != nil || member == nil {
			result.errorFor(KindInvalidDimensionMember, ecol.name, axis,
				"row %d: %q does not name a member of %s", i+1, label, axis)
			return nil, nil, false
		}
		if !b.tax.MemberValidForAxis(axis, member.Name) {
			result.errorFor(KindInvalidDimensionMember, ecol.name, axis,
				"row %d: member %s is not in the domain of %s", i+1, member.Name, axis)
			return nil, nil, false
		}
		members = append(members, member)
	}
	return typed, members, true
}
