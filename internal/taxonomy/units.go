package taxonomy

import "strings"

// UnitDef describes one measurement unit from the taxonomy's unit registry:
// a stable identifier (e.g. "tCO2e", "MWh", "pure"), the measure QName
// written into contexts, and a display symbol for rendering.
type UnitDef struct {
	ID      string
	Measure QName
	Symbol  string
}

// UnitRegistry is the subset of the XBRL unit registry a taxonomy release
// ships with: which units exist, which data types they are valid for, and
// how they are displayed. Immutable after load.
type UnitRegistry struct {
	byID       map[string]UnitDef
	forType    map[string][]string   // raw data type name -> unit IDs, in registry order
	currencies map[string]struct{}   // ISO 4217 codes
	defaults   map[string]string     // raw data type name -> preferred unit ID
}

// Unit returns the unit definition for an identifier. Lookup is exact, then
// case-insensitive.
func (r *UnitRegistry) Unit(id string) (UnitDef, bool) {
	if u, ok := r.byID[id]; ok {
		return u, true
	}
	for k, u := range r.byID {
		if strings.EqualFold(k, id) {
			return u, true
		}
	}
	return UnitDef{}, false
}

// UnitsForType returns the identifiers of units valid for a raw data type
// name, in registry order.
func (r *UnitRegistry) UnitsForType(dataType string) []string {
	return r.forType[dataType]
}

// Valid reports whether the unit identifier is acceptable for the data type.
// Data types absent from the registry accept any unit (the registry only
// constrains types it knows about).
func (r *UnitRegistry) Valid(dataType, unitID string) bool {
	ids, ok := r.forType[dataType]
	if !ok {
		return true
	}
	for _, id := range ids {
		if strings.EqualFold(id, unitID) {
			return true
		}
	}
	return false
}

// DefaultForType returns the preferred unit for a data type, if configured.
func (r *UnitRegistry) DefaultForType(dataType string) (UnitDef, bool) {
	id, ok := r.defaults[dataType]
	if !ok {
		return UnitDef{}, false
	}
	return r.Unit(id)
}

// ValidCurrency reports whether code is a known ISO 4217 currency code.
func (r *UnitRegistry) ValidCurrency(code string) bool {
	_, ok := r.currencies[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Symbol returns the display symbol for a unit identifier, or the identifier
// itself when no symbol is registered.
func (r *UnitRegistry) Symbol(unitID string) string {
	if u, ok := r.Unit(unitID); ok && u.Symbol != "" {
		return u.Symbol
	}
	return unitID
}
