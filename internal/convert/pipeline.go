package convert

import (
	"sort"
	"strings"

	"github.com/sustainix/sustainix/internal/taxonomy"
	"github.com/sustainix/sustainix/internal/xbrl"
)

// placeholders are cell values meaning "not reported". Ranges holding one
// are skipped without a diagnostic.
var placeholders = []string{"-", "#VALUE!", "#REF!", "#N/A"}

func isPlaceholder(value string, defaults *Defaults) bool {
	v := strings.TrimSpace(value)
	for _, p := range placeholders {
		if v == p {
			return true
		}
	}
	for _, p := range defaults.Placeholders {
		if v == p {
			return true
		}
	}
	return false
}

// metadata range names recognized regardless of the defaults file. Values
// found under these names override the corresponding Config fields.
const (
	nameEntity      = "reportingentityname"
	nameCurrency    = "defaultcurrency"
	namePeriodStart = "periodstartdate"
	namePeriodEnd   = "periodenddate"
	nameInstant     = "instantdate"
)

// Convert runs the full conversion: metadata extraction, name resolution,
// value coercion, context and unit construction, and fact assembly.
// values maps workbook range names to their raw cell text.
func Convert(tax *taxonomy.Taxonomy, cfg Config, defaults *Defaults, values map[string]string) *Result {
	if defaults == nil {
		defaults = &Defaults{}
	}

	// deterministic iteration regardless of workbook name order
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	reserved := append([]string{
		nameEntity, nameCurrency, namePeriodStart, namePeriodEnd, nameInstant,
	}, defaults.ReservedNames...)
	resolver := NewResolver(tax, defaults.Aliases, reserved)

	result := newResult(cfg.Entity)
	applyMetadata(&cfg, values, result)
	result.Entity = cfg.Entity

	if err := cfg.Validate(); err != nil {
		result.errorf(KindMissingPeriodConfiguration, "", "%s", err.Error())
		return result
	}

	b := newBuilder(tax, cfg, defaults)

	// Companion unit ranges are consumed while assembling their concept's
	// facts, so collect them up front.
	units := newUnitIndex()
	for _, name := range names {
		target, rerr := resolver.Resolve(name)
		if rerr == nil && target.Unit {
			if u := strings.TrimSpace(values[name]); !isPlaceholder(u, defaults) {
				units.put(name, u)
			}
		}
	}

	// Hypercube anchor ranges claim their cube's primary-item and dimension
	// ranges as table columns; claimed names skip standalone processing.
	regions, claimed := collectTables(tax, defaults.Aliases, names, values)
	for _, region := range regions {
		if !b.convertTable(region, result, units) {
			return finish(result, b)
		}
	}

	for _, name := range names {
		raw := values[name]
		if resolver.Reserved(name) || claimed[name] {
			continue
		}
		if isPlaceholder(raw, defaults) || strings.TrimSpace(raw) == "" {
			continue
		}

		target, rerr := resolver.Resolve(name)
		if rerr != nil {
			if rerr.Kind == KindInvalidDimensionMember {
				result.errorf(rerr.Kind, name, "%s", rerr.Msg)
			} else {
				result.warn(rerr.Kind, name, "%s", rerr.Msg)
			}
			if rerr.Kind == KindUnmappedName {
				result.UnusedNames = append(result.UnusedNames, name)
			}
			continue
		}
		if target.Unit {
			continue
		}

		rawUnit := ""
		if target.Concept.Numeric() {
			rawUnit = units.take(name)
		}

		fact, berr := b.assemble(target, raw, rawUnit, nil)
		if berr != nil {
			result.errorFor(berr.kind, name, target.Concept.Name, "%s", berr.msg)
			// per-item failures skip the fact but keep converting;
			// misconfiguration and contradictory inputs stop the run
			if berr.kind == KindMissingPeriodConfiguration || berr.kind == KindConflictingDimension {
				return finish(result, b)
			}
			continue
		}

		if err := result.Facts.Add(fact); err != nil {
			result.errorFor(KindConflictingFactValue, name, target.Concept.Name, "%s", err.Error())
			return finish(result, b)
		}
	}

	for _, name := range units.unconsumed() {
		result.info(KindUnmappedName, name, "unit range has no matching fact range")
	}

	if cfg.Strict {
		for i, m := range result.Messages {
			if m.Severity == SeverityWarning {
				result.Messages[i].Severity = SeverityError
			}
		}
	}

	result.info(KindProgress, "", "converted %d facts across %d contexts", result.Facts.Len(), len(b.contexts.All()))
	return finish(result, b)
}

// unitIndex tracks companion unit ranges by the fact range they belong to.
// Workbook authors are not consistent about suffix casing, so lookups are
// case-insensitive; a "Revenue_Unit" range serves a "Revenue" fact range.
type unitIndex struct {
	byName   map[string]string // lowercased range name -> unit text
	origName map[string]string // lowercased range name -> workbook name
	consumed map[string]bool
}

func newUnitIndex() *unitIndex {
	return &unitIndex{
		byName:   make(map[string]string),
		origName: make(map[string]string),
		consumed: make(map[string]bool),
	}
}

func (u *unitIndex) put(name, value string) {
	key := strings.ToLower(name)
	u.byName[key] = value
	u.origName[key] = name
}

// take returns the unit text for a fact range's companion, marking it
// consumed.
func (u *unitIndex) take(factName string) string {
	key := strings.ToLower(factName) + "_" + unitSuffix
	v, ok := u.byName[key]
	if !ok {
		return ""
	}
	u.consumed[key] = true
	return v
}

// unconsumed returns the workbook names of unit ranges no fact range ever
// claimed, sorted.
func (u *unitIndex) unconsumed() []string {
	var out []string
	for key, name := range u.origName {
		if !u.consumed[key] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// assemble builds one fact from a resolved target.
func (b *builder) assemble(target Target, raw, rawUnit string, typed []xbrl.Dimension) (*xbrl.Fact, *buildError) {
	ctx, berr := b.contextFor(target.Concept, target.Members, typed)
	if berr != nil {
		return nil, berr
	}

	value, berr := b.coerceValue(target.Concept, raw)
	if berr != nil {
		return nil, berr
	}

	var unit *xbrl.Unit
	if target.Concept.Numeric() {
		unit, berr = b.unitFor(target.Concept, rawUnit)
		if berr != nil {
			return nil, berr
		}
	}

	return &xbrl.Fact{
		Concept:    target.Concept,
		Context:    ctx,
		Unit:       unit,
		Value:      value,
		Decimals:   decimalsFor(target.Concept),
		SourceName: target.Name,
	}, nil
}

func finish(result *Result, b *builder) *Result {
	result.Contexts = b.contexts.All()
	result.Units = b.units.All()
	return result
}

// applyMetadata folds reserved metadata ranges into the configuration.
// Explicit Config fields win only when the workbook does not carry the
// range; the workbook is the reporting user's statement of record.
func applyMetadata(cfg *Config, values map[string]string, result *Result) {
	for name, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" || isPlaceholder(v, &Defaults{}) {
			continue
		}
		switch strings.ToLower(name) {
		case nameEntity:
			cfg.Entity = v
		case nameCurrency:
			cfg.Currency = strings.ToUpper(v)
		case namePeriodStart:
			t, err := ParseDate(v)
			if err != nil {
				result.errorf(KindTypeCoercionFailure, name, "%s", err.Error())
				continue
			}
			cfg.PeriodStart = t
		case namePeriodEnd:
			t, err := ParseDate(v)
			if err != nil {
				result.errorf(KindTypeCoercionFailure, name, "%s", err.Error())
				continue
			}
			cfg.PeriodEnd = t
		case nameInstant:
			t, err := ParseDate(v)
			if err != nil {
				result.errorf(KindTypeCoercionFailure, name, "%s", err.Error())
				continue
			}
			cfg.InstantDate = t
		}
	}
}
