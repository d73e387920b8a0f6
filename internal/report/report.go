// Package report organizes an assembled fact set into the ordered,
// renderer-ready report model: sections in taxonomy presentation order,
// each laid out as a flat list or as a table with heading rows and a
// rectangular, gap-tolerant grid.
package report

import (
	"github.com/sustainix/sustainix/internal/taxonomy"
	"github.com/sustainix/sustainix/internal/xbrl"
)

// Model is the final output of a conversion: the document-level metadata
// plus the ordered sections. Immutable once built.
type Model struct {
	Entity   string
	Taxonomy string // entry point the report was built against
	Sections []*Section
}

// Section is one presentation group that carried at least one fact.
// Exactly one of Rows or Table is populated, selected by Style.
type Section struct {
	Title string
	Role  string
	Style taxonomy.PresentationStyle
	Rows  []ListRow
	Table *Table
}

// ListRow is one reported disclosure in a list-style section.
type ListRow struct {
	Label string
	Fact  *xbrl.Fact
}

// HeaderCell is one cell of a table heading row, spanning one or more
// columns.
type HeaderCell struct {
	Text string
	Span int
}

// RowHeader labels one grid row.
type RowHeader struct {
	Label   string
	Numeric bool
	Unit    string // display symbol, numeric rows only
}

// Table is the layout of a table-style section. Grid is rectangular:
// every row has exactly one cell per column, absent disclosures are nil.
type Table struct {
	HeadingRows []HeaderRow
	RowHeaders  []RowHeader
	Grid        [][]*xbrl.Fact
}

// HeaderRow is one heading row of a table.
type HeaderRow struct {
	Cells []HeaderCell
}

// Skipped records a presentation group left out of the model for a reason
// worth surfacing, as opposed to plain factless suppression.
type Skipped struct {
	Role   string
	Label  string
	Reason string
}
