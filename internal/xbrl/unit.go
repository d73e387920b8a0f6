package xbrl

import (
	"strconv"

	"github.com/sustainix/sustainix/internal/taxonomy"
)

// Unit is one measurement unit as written into the instance document.
// Units are interned the same way contexts are.
type Unit struct {
	ID      string
	Measure taxonomy.QName
	Symbol  string
}

// UnitInterner hands out shared *Unit values keyed by measure. Not safe for
// concurrent use; each conversion owns one.
type UnitInterner struct {
	byMeasure map[taxonomy.QName]*Unit
	order     []*Unit
}

func NewUnitInterner() *UnitInterner {
	return &UnitInterner{byMeasure: make(map[taxonomy.QName]*Unit)}
}

// Intern returns the canonical unit for a registry definition, creating it
// on first use.
func (ui *UnitInterner) Intern(def taxonomy.UnitDef) *Unit {
	if u, ok := ui.byMeasure[def.Measure]; ok {
		return u
	}
	u := &Unit{
		ID:      "u-" + strconv.Itoa(len(ui.order)),
		Measure: def.Measure,
		Symbol:  def.Symbol,
	}
	ui.byMeasure[def.Measure] = u
	ui.order = append(ui.order, u)
	return u
}

// All returns the interned units in creation order.
func (ui *UnitInterner) All() []*Unit { return ui.order }
