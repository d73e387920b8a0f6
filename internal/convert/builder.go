package convert

import (
	"fmt"
	"time"

	"github.com/sustainix/sustainix/internal/taxonomy"
	"github.com/sustainix/sustainix/internal/xbrl"
)

// Config is the per-report conversion configuration: who is reporting,
// over which period, and in which currency.
type Config struct {
	Entity      string
	PeriodStart time.Time
	PeriodEnd   time.Time
	InstantDate time.Time // defaults to PeriodEnd when zero
	Currency    string
	Strict      bool // treat warnings as errors
}

// Validate checks the configuration is complete enough to convert.
func (c *Config) Validate() error {
	if c.Entity == "" {
		return fmt.Errorf("reporting entity is required")
	}
	if c.Currency == "" {
		return fmt.Errorf("report currency is required")
	}
	return nil
}

// buildError is a diagnosable failure while building a context or unit.
type buildError struct {
	kind Kind
	msg  string
}

func (e *buildError) Error() string { return e.msg }

// builder constructs interned contexts and units for facts, applying the
// report configuration and the taxonomy's dimensional rules.
type builder struct {
	tax      *taxonomy.Taxonomy
	cfg      Config
	defaults *Defaults
	contexts *xbrl.ContextInterner
	units    *xbrl.UnitInterner
}

func newBuilder(tax *taxonomy.Taxonomy, cfg Config, defaults *Defaults) *builder {
	return &builder{
		tax:      tax,
		cfg:      cfg,
		defaults: defaults,
		contexts: xbrl.NewContextInterner(),
		units:    xbrl.NewUnitInterner(),
	}
}

// period picks the reporting period matching the concept's period type.
func (b *builder) period(concept *taxonomy.Concept) (xbrl.Period, *buildError) {
	if concept.PeriodType == taxonomy.PeriodInstant {
		at := b.cfg.InstantDate
		if at.IsZero() {
			at = b.cfg.PeriodEnd
		}
		if at.IsZero() {
			return xbrl.Period{}, &buildError{kind: KindMissingPeriodConfiguration,
				msg: fmt.Sprintf("concept %s needs an instant date but none is configured", concept.Name)}
		}
		return xbrl.Instant(at), nil
	}
	if b.cfg.PeriodStart.IsZero() || b.cfg.PeriodEnd.IsZero() {
		return xbrl.Period{}, &buildError{kind: KindMissingPeriodConfiguration,
			msg: fmt.Sprintf("concept %s needs a reporting period but none is configured", concept.Name)}
	}
	return xbrl.Duration(b.cfg.PeriodStart, b.cfg.PeriodEnd), nil
}

// contextFor builds the interned context for a concept qualified by the
// given member concepts and typed dimension values. Members equal to their
// axis default are dropped; two distinct members landing on the same axis
// is a conflict.
func (b *builder) contextFor(concept *taxonomy.Concept, members []*taxonomy.Concept, typed []xbrl.Dimension) (*xbrl.Context, *buildError) {
	period, berr := b.period(concept)
	if berr != nil {
		return nil, berr
	}

	byAxis := make(map[taxonomy.QName]taxonomy.QName, len(members))
	dims := append([]xbrl.Dimension(nil), typed...)
	for _, member := range members {
		axis, err := b.tax.AxisForMember(concept.Name, member.Name)
		if err != nil {
			return nil, &buildError{kind: KindInvalidDimensionMember, msg: err.Error()}
		}
		if axis.IsZero() {
			return nil, &buildError{kind: KindInvalidDimensionMember,
				msg: fmt.Sprintf("member %s is not valid on any axis of %s", member.Name, concept.Name)}
		}
		if prev, seen := byAxis[axis]; seen {
			if prev == member.Name {
				continue
			}
			return nil, &buildError{kind: KindConflictingDimension,
				msg: fmt.Sprintf("axis %s qualified twice: %s and %s", axis, prev, member.Name)}
		}
		byAxis[axis] = member.Name

		if def, ok := b.tax.DimensionDefault(axis); ok && def == member.Name {
			// default members are implied, never written
			continue
		}
		dims = append(dims, xbrl.Dimension{Axis: axis, Member: member.Name})
	}

	return b.contexts.Intern(b.cfg.Entity, period, dims), nil
}

// unitFor resolves the unit for a numeric fact. Resolution order: the
// companion unit cell, the per-concept configured unit, the registry
// default for the concept's unit type, the first registry unit valid for
// that type. Monetary concepts always use the report currency.
func (b *builder) unitFor(concept *taxonomy.Concept, rawUnit string) (*xbrl.Unit, *buildError) {
	registry := b.tax.Units()

	if concept.Type == taxonomy.TypeMonetary {
		if !registry.ValidCurrency(b.cfg.Currency) {
			return nil, &buildError{kind: KindInvalidUnit,
				msg: fmt.Sprintf("%q is not a known currency code", b.cfg.Currency)}
		}
		def, ok := registry.Unit(b.cfg.Currency)
		if !ok {
			def = taxonomy.UnitDef{
				ID:      b.cfg.Currency,
				Measure: taxonomy.QName{Prefix: "iso4217", Local: b.cfg.Currency},
			}
		}
		return b.units.Intern(def), nil
	}

	if rawUnit != "" {
		id := b.defaults.ReplacementUnit(rawUnit)
		def, ok := registry.Unit(id)
		if !ok {
			return nil, &buildError{kind: KindInvalidUnit,
				msg: fmt.Sprintf("unknown unit %q", rawUnit)}
		}
		if !registry.Valid(concept.UnitType, def.ID) {
			return nil, &buildError{kind: KindInvalidUnit,
				msg: fmt.Sprintf("unit %q is not valid for %s", rawUnit, concept.Name)}
		}
		return b.units.Intern(def), nil
	}

	if id, ok := b.defaults.ConceptUnits[concept.Name.Local]; ok {
		if def, found := registry.Unit(id); found {
			return b.units.Intern(def), nil
		}
	}

	if def, ok := registry.DefaultForType(concept.UnitType); ok {
		return b.units.Intern(def), nil
	}

	if ids := registry.UnitsForType(concept.UnitType); len(ids) > 0 {
		if def, ok := registry.Unit(ids[0]); ok {
			return b.units.Intern(def), nil
		}
	}

	if def, ok := registry.Unit("pure"); ok {
		return b.units.Intern(def), nil
	}
	return b.units.Intern(taxonomy.UnitDef{
		ID:      "pure",
		Measure: taxonomy.QName{Prefix: "xbrli", Local: "pure"},
	}), nil
}
