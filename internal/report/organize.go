package report

import (
	"fmt"
	"sort"

	"github.com/sustainix/sustainix/internal/taxonomy"
	"github.com/sustainix/sustainix/internal/xbrl"
)

// Organize walks the taxonomy's presentation groups in taxonomy order and
// builds the report model from the fact set. Groups with no facts are
// suppressed silently; hybrid groups (list and table content mixed in one
// network) are not renderable and are returned as skipped.
func Organize(tax *taxonomy.Taxonomy, entity string, facts *xbrl.FactSet) (*Model, []Skipped) {
	model := &Model{Entity: entity, Taxonomy: tax.EntryPoint()}
	var skipped []Skipped

	for _, group := range tax.Groups() {
		switch group.Style {
		case taxonomy.StyleEmpty:
			continue
		case taxonomy.StyleHybrid:
			// factless hybrid groups fall under normal suppression
			if hasFacts(&group, facts) {
				skipped = append(skipped, Skipped{
					Role:   group.Role,
					Label:  group.Label,
					Reason: "group mixes list and table content and cannot be laid out",
				})
			}
			continue
		case taxonomy.StyleList:
			if section := organizeList(&group, facts); section != nil {
				model.Sections = append(model.Sections, section)
			}
		case taxonomy.StyleTable:
			if section := organizeTable(tax, &group, facts); section != nil {
				model.Sections = append(model.Sections, section)
			}
		}
	}
	return model, skipped
}

func hasFacts(group *taxonomy.Group, facts *xbrl.FactSet) bool {
	for _, concept := range group.Reportable() {
		if len(facts.ForConcept(concept.Name)) > 0 {
			return true
		}
	}
	return false
}

// organizeList maps each reportable concept to its fact rows, in
// presentation order. Concepts with nothing reported are omitted rather
// than rendered blank. Returns nil when the whole section is factless.
func organizeList(group *taxonomy.Group, facts *xbrl.FactSet) *Section {
	var rows []ListRow
	for _, concept := range group.Reportable() {
		for _, f := range facts.ForConcept(concept.Name) {
			rows = append(rows, ListRow{
				Label: taxonomy.DisplayLabel(concept.Label),
				Fact:  f,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return &Section{
		Title: group.Label,
		Role:  group.Role,
		Style: taxonomy.StyleList,
		Rows:  rows,
	}
}

// colSlice is one table column: a period, optionally narrowed to one
// member of the section's breakdown axis.
type colSlice struct {
	period    xbrl.Period
	axis      taxonomy.QName
	member    taxonomy.QName // zero means the axis default (unqualified)
	memberLbl string
}

func (s colSlice) matches(f *xbrl.Fact) bool {
	if f.Context.Period.Key() != s.period.Key() {
		return false
	}
	if s.axis.IsZero() {
		return !f.Context.Dimensioned()
	}
	m, qualified := f.Context.Member(s.axis)
	if s.member.IsZero() {
		return !qualified
	}
	return qualified && m == s.member
}

// organizeTable computes the column slices from the periods and axis
// members actually observed among the section's facts, then fills a
// rectangular grid. Rows with no fact in any column are dropped.
func organizeTable(tax *taxonomy.Taxonomy, group *taxonomy.Group, facts *xbrl.FactSet) *Section {
	concepts := group.Reportable()

	var sectionFacts []*xbrl.Fact
	for _, concept := range concepts {
		sectionFacts = append(sectionFacts, facts.ForConcept(concept.Name)...)
	}
	if len(sectionFacts) == 0 {
		return nil
	}

	periods := distinctPeriods(sectionFacts)
	slices := columnSlices(tax, group, sectionFacts, periods)

	var rowHeaders []RowHeader
	var grid [][]*xbrl.Fact
	for _, concept := range concepts {
		conceptFacts := facts.ForConcept(concept.Name)
		if len(conceptFacts) == 0 {
			continue
		}
		row := make([]*xbrl.Fact, len(slices))
		populated := false
		for i, s := range slices {
			for _, f := range conceptFacts {
				if s.matches(f) {
					row[i] = f
					populated = true
					break
				}
			}
		}
		if !populated {
			continue
		}
		rowHeaders = append(rowHeaders, rowHeader(concept, row))
		grid = append(grid, row)
	}
	if len(grid) == 0 {
		return nil
	}

	return &Section{
		Title: group.Label,
		Role:  group.Role,
		Style: taxonomy.StyleTable,
		Table: &Table{
			HeadingRows: headingRows(slices),
			RowHeaders:  rowHeaders,
			Grid:        grid,
		},
	}
}

// distinctPeriods returns the periods observed among the facts, ordered by
// end date then start date.
func distinctPeriods(facts []*xbrl.Fact) []xbrl.Period {
	seen := make(map[string]struct{})
	var periods []xbrl.Period
	for _, f := range facts {
		p := f.Context.Period
		if _, dup := seen[p.Key()]; dup {
			continue
		}
		seen[p.Key()] = struct{}{}
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		if !periods[i].End().Equal(periods[j].End()) {
			return periods[i].End().Before(periods[j].End())
		}
		return periods[i].Start().Before(periods[j].Start())
	})
	return periods
}

// columnSlices expands each period into one column per observed member of
// the section's breakdown axis, in taxonomy domain order, with an
// unqualified (axis default) column first when dimensionless facts exist.
// Sections without a breakdown axis get one column per period.
func columnSlices(tax *taxonomy.Taxonomy, group *taxonomy.Group, facts []*xbrl.Fact, periods []xbrl.Period) []colSlice {
	axis := breakdownAxis(group, facts)
	if axis == nil {
		out := make([]colSlice, len(periods))
		for i, p := range periods {
			out[i] = colSlice{period: p}
		}
		return out
	}

	hasDefault := false
	observed := make(map[taxonomy.QName]bool)
	for _, f := range facts {
		if m, ok := f.Context.Member(axis.Name); ok {
			observed[m] = true
		} else {
			hasDefault = true
		}
	}

	var out []colSlice
	for _, p := range periods {
		if hasDefault {
			lbl := "Total"
			if def, ok := tax.DimensionDefault(axis.Name); ok {
				if c, found := tax.Concept(def); found {
					lbl = taxonomy.DisplayLabel(c.Label)
				}
			}
			out = append(out, colSlice{period: p, axis: axis.Name, memberLbl: lbl})
		}
		for _, m := range tax.DomainMembers(axis.Name) {
			if !observed[m] {
				continue
			}
			lbl := m.Local
			if c, ok := tax.Concept(m); ok {
				lbl = taxonomy.DisplayLabel(c.Label)
			}
			out = append(out, colSlice{period: p, axis: axis.Name, member: m, memberLbl: lbl})
		}
	}
	return out
}

// breakdownAxis picks the axis that slices the table's columns: the first
// of the group's explicit axes that actually qualifies a section fact.
func breakdownAxis(group *taxonomy.Group, facts []*xbrl.Fact) *taxonomy.Concept {
	for _, axis := range group.ExplicitDimensions() {
		for _, f := range facts {
			if _, ok := f.Context.Member(axis.Name); ok {
				return axis
			}
		}
	}
	return nil
}

// headingRows builds the column heading block: a period row, plus a member
// row when the columns are sliced by an axis. Period cells span their
// member columns.
func headingRows(slices []colSlice) []HeaderRow {
	periodRow := HeaderRow{}
	for _, s := range slices {
		n := len(periodRow.Cells)
		if n > 0 && periodRow.Cells[n-1].Text == s.period.Label() {
			periodRow.Cells[n-1].Span++
			continue
		}
		periodRow.Cells = append(periodRow.Cells, HeaderCell{Text: s.period.Label(), Span: 1})
	}

	sliced := false
	for _, s := range slices {
		if !s.axis.IsZero() {
			sliced = true
			break
		}
	}
	if !sliced {
		return []HeaderRow{periodRow}
	}

	memberRow := HeaderRow{Cells: make([]HeaderCell, len(slices))}
	for i, s := range slices {
		memberRow.Cells[i] = HeaderCell{Text: s.memberLbl, Span: 1}
	}
	return []HeaderRow{periodRow, memberRow}
}

// rowHeader labels a grid row with the concept's label and, for numeric
// concepts, the unit symbol shared by the row's facts.
func rowHeader(concept *taxonomy.Concept, row []*xbrl.Fact) RowHeader {
	h := RowHeader{
		Label:   taxonomy.DisplayLabel(concept.Label),
		Numeric: concept.Numeric(),
	}
	if !h.Numeric {
		return h
	}
	for _, f := range row {
		if f == nil || f.Unit == nil {
			continue
		}
		symbol := f.Unit.Symbol
		if symbol == "" {
			symbol = f.Unit.Measure.Local
		}
		if h.Unit == "" {
			h.Unit = symbol
		} else if h.Unit != symbol {
			h.Unit = fmt.Sprintf("%s / %s", h.Unit, symbol)
			break
		}
	}
	return h
}
