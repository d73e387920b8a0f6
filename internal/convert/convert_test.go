package convert

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sustainix/sustainix/internal/taxonomy"
	"github.com/sustainix/sustainix/internal/xbrl"
)

const testTaxonomy = `{
	"entryPoint": "https://example.org/taxonomy/test/2026",
	"version": "2026-01",
	"namespaces": {"t": "https://example.org/taxonomy/test"},
	"concepts": {
		"t:RevenueFromSales": {
			"label": "Revenue from sales",
			"dataType": "monetary",
			"periodType": "duration"
		},
		"t:TotalEmployees": {
			"label": "Total employees",
			"dataType": "decimal",
			"unitType": "headcount",
			"periodType": "duration"
		},
		"t:ReportingDate": {
			"label": "Reporting date",
			"dataType": "date",
			"periodType": "duration"
		},
		"t:HasTransitionPlan": {
			"label": "Has a climate transition plan",
			"dataType": "boolean",
			"periodType": "duration"
		},
		"t:RenewableShare": {
			"label": "Share of renewable energy",
			"dataType": "percent",
			"periodType": "duration"
		},
		"t:TotalAssets": {
			"label": "Total assets",
			"dataType": "monetary",
			"periodType": "instant"
		},
		"t:EnergyConsumed": {
			"label": "Energy consumed",
			"dataType": "decimal",
			"unitType": "energy",
			"periodType": "duration"
		},
		"t:ReportingScope": {
			"label": "Basis of reporting",
			"dataType": "enumeration",
			"periodType": "duration",
			"enumDomain": ["t:ConsolidatedMember", "t:IndividualMember"]
		},
		"t:ConsolidatedMember": {
			"label": "Consolidated basis [member]",
			"dataType": "string",
			"periodType": "duration",
			"abstract": true
		},
		"t:IndividualMember": {
			"label": "Individual basis [member]",
			"dataType": "string",
			"periodType": "duration",
			"abstract": true
		},
		"t:CountryEmissionsTable": {
			"label": "Emissions by country [table]",
			"dataType": "string",
			"periodType": "duration",
			"abstract": true,
			"hypercube": true
		},
		"t:CountryAxis": {
			"label": "Country [axis]",
			"dataType": "string",
			"periodType": "duration",
			"abstract": true,
			"dimension": true,
			"typed": true
		},
		"t:CountryEmissions": {
			"label": "Emissions in country",
			"dataType": "decimal",
			"unitType": "energy",
			"periodType": "duration"
		},
		"t:EmployeesTable": {
			"label": "Employees by gender [table]",
			"dataType": "string",
			"periodType": "duration",
			"abstract": true,
			"hypercube": true
		},
		"t:GenderAxis": {
			"label": "Gender [axis]",
			"dataType": "string",
			"periodType": "duration",
			"abstract": true,
			"dimension": true
		},
		"t:AllGendersMember": {
			"label": "Total [member]",
			"dataType": "string",
			"periodType": "duration",
			"abstract": true
		},
		"t:FemaleMember": {
			"label": "Female [member]",
			"dataType": "string",
			"periodType": "duration",
			"abstract": true
		},
		"t:MaleMember": {
			"label": "Male [member]",
			"dataType": "string",
			"periodType": "duration",
			"abstract": true
		}
	},
	"presentation": [],
	"dimensions": {
		"defaults": {"t:GenderAxis": "t:AllGendersMember"},
		"cubes": {
			"t:CountryEmissionsTable": {
				"typed": ["t:CountryAxis"],
				"primary": ["t:CountryEmissions"]
			},
			"t:EmployeesTable": {
				"explicit": {
					"t:GenderAxis": ["t:AllGendersMember", "t:FemaleMember", "t:MaleMember"]
				},
				"primary": ["t:TotalEmployees"]
			}
		}
	},
	"units": {
		"units": [
			{"id": "EUR", "measure": "iso4217:EUR", "symbol": "€"},
			{"id": "MWh", "measure": "t:MWh", "symbol": "MWh"},
			{"id": "GJ", "measure": "t:GJ", "symbol": "GJ"},
			{"id": "employees", "measure": "t:employees", "symbol": "employees"},
			{"id": "pure", "measure": "xbrli:pure"}
		],
		"forType": {
			"monetary": ["EUR"],
			"energy": ["MWh", "GJ"],
			"headcount": ["employees"]
		},
		"defaults": {
			"energy": "MWh",
			"headcount": "employees"
		},
		"currencies": ["EUR", "USD"]
	}
}`

func testTax(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.Load(strings.NewReader(testTaxonomy))
	if err != nil {
		t.Fatalf("load test taxonomy: %v", err)
	}
	return tax
}

func testConfig() Config {
	return Config{
		Entity:      "Acme GmbH",
		PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Currency:    "EUR",
	}
}

func TestConvertMonetaryFact(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"RevenueFromSales": "125000",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	if res.Facts.Len() != 1 {
		t.Fatalf("Facts.Len() = %d, want 1", res.Facts.Len())
	}
	f := res.Facts.Facts()[0]
	if f.Concept.Name.Local != "RevenueFromSales" {
		t.Errorf("concept = %s", f.Concept.Name)
	}
	if f.Context.Period.IsInstant() {
		t.Error("period is instant, want duration")
	}
	if got := f.Context.Period.Key(); got != "d:2024-01-01/2024-12-31" {
		t.Errorf("period key = %q", got)
	}
	if f.Unit == nil || f.Unit.Measure.Local != "EUR" {
		t.Errorf("unit = %v, want EUR", f.Unit)
	}
	if !f.Value.Number.Equal(decimal.RequireFromString("125000")) {
		t.Errorf("value = %s", f.Value.Number)
	}
}

func TestConvertDimensionalSuffixes(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"TotalEmployees_FemaleMember": "12",
		"TotalEmployees_MaleMember":   "20",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	if res.Facts.Len() != 2 {
		t.Fatalf("Facts.Len() = %d, want 2", res.Facts.Len())
	}

	facts := res.Facts.Facts()
	if facts[0].Concept != facts[1].Concept {
		t.Error("facts do not share a concept")
	}
	if facts[0].Context == facts[1].Context {
		t.Error("facts with different members share a context")
	}
	axis := taxonomy.QName{Prefix: "t", Local: "GenderAxis"}
	for _, f := range facts {
		if _, ok := f.Context.Member(axis); !ok {
			t.Errorf("fact from %s has no gender qualifier", f.SourceName)
		}
	}
}

func TestConvertDefaultMemberDropped(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"TotalEmployees_AllGendersMember": "32",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	f := res.Facts.Facts()[0]
	if f.Context.Dimensioned() {
		t.Errorf("default member produced an explicit qualifier: %v", f.Context.Dimensions)
	}
}

func TestConvertConflictingFactValue(t *testing.T) {
	// Two spellings of one alias both land on RevenueFromSales with
	// different values for the identical context.
	defaults := &Defaults{Aliases: map[string]string{"Turnover": "RevenueFromSales"}}
	res := Convert(testTax(t), testConfig(), defaults, map[string]string{
		"RevenueFromSales": "125000",
		"Turnover":         "130000",
	})

	if !res.HasErrors() {
		t.Fatal("want ConflictingFactValue error")
	}
	found := false
	for _, m := range res.Messages {
		if m.Kind == KindConflictingFactValue {
			found = true
		}
	}
	if !found {
		t.Errorf("no conflicting-fact-value diagnostic: %v", res.Messages)
	}
	if res.Facts.Len() != 1 {
		t.Errorf("Facts.Len() = %d, want 1 (first value kept, run aborted)", res.Facts.Len())
	}
}

func TestConvertEqualDuplicateIsNoOp(t *testing.T) {
	defaults := &Defaults{Aliases: map[string]string{"Turnover": "RevenueFromSales"}}
	res := Convert(testTax(t), testConfig(), defaults, map[string]string{
		"RevenueFromSales": "125000",
		"Turnover":         "125000.00",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	if res.Facts.Len() != 1 {
		t.Errorf("Facts.Len() = %d, want 1", res.Facts.Len())
	}
}

func TestConvertBadDateContinues(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"ReportingDate":    "32/13/2024",
		"RevenueFromSales": "125000",
	})

	var coercion []Message
	for _, m := range res.Messages {
		if m.Kind == KindTypeCoercionFailure {
			coercion = append(coercion, m)
		}
	}
	if len(coercion) != 1 || coercion[0].Name != "ReportingDate" {
		t.Fatalf("coercion diagnostics = %v", coercion)
	}
	if res.Facts.Len() != 1 {
		t.Errorf("Facts.Len() = %d, want 1 (valid names still convert)", res.Facts.Len())
	}
}

func TestConvertUnmappedNameContinues(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"NoSuchDisclosure": "42",
		"RevenueFromSales": "125000",
	})

	if res.HasErrors() {
		t.Fatalf("unmapped name escalated to error: %v", res.AtLeast(SeverityError))
	}
	if len(res.UnusedNames) != 1 || res.UnusedNames[0] != "NoSuchDisclosure" {
		t.Errorf("UnusedNames = %v", res.UnusedNames)
	}
	if res.Facts.Len() != 1 {
		t.Errorf("Facts.Len() = %d, want 1", res.Facts.Len())
	}
}

func TestConvertStrictModeEscalates(t *testing.T) {
	cfg := testConfig()
	cfg.Strict = true
	res := Convert(testTax(t), cfg, nil, map[string]string{
		"NoSuchDisclosure": "42",
	})

	if !res.HasErrors() {
		t.Error("strict mode did not escalate the unmapped-name warning")
	}
}

func TestConvertInstantConcept(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"TotalAssets": "€1,250,000.50",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	f := res.Facts.Facts()[0]
	if !f.Context.Period.IsInstant() {
		t.Error("period is duration, want instant (falls back to period end)")
	}
	if got := f.Context.Period.End().Format("2006-01-02"); got != "2024-12-31" {
		t.Errorf("instant date = %s", got)
	}
	if !f.Value.Number.Equal(decimal.RequireFromString("1250000.50")) {
		t.Errorf("value = %s (currency symbol and separators must be stripped)", f.Value.Number)
	}
}

func TestConvertMissingPeriodIsFatal(t *testing.T) {
	cfg := testConfig()
	cfg.PeriodStart = time.Time{}
	cfg.PeriodEnd = time.Time{}
	cfg.InstantDate = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	res := Convert(testTax(t), cfg, nil, map[string]string{
		"RevenueFromSales": "125000",
	})

	found := false
	for _, m := range res.Messages {
		if m.Kind == KindMissingPeriodConfiguration && m.Severity == SeverityError {
			found = true
		}
	}
	if !found {
		t.Errorf("no missing-period diagnostic: %v", res.Messages)
	}
	if res.Facts.Len() != 0 {
		t.Errorf("Facts.Len() = %d, want 0", res.Facts.Len())
	}
}

func TestConvertCompanionUnitRange(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"EnergyConsumed":      "340",
		"EnergyConsumed_unit": "GJ",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	if res.Facts.Len() != 1 {
		t.Fatalf("Facts.Len() = %d, want 1", res.Facts.Len())
	}
	if got := res.Facts.Facts()[0].Unit.Measure.Local; got != "GJ" {
		t.Errorf("unit measure = %s, want GJ from the companion range", got)
	}
}

func TestConvertUnitDefaults(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"EnergyConsumed": "340",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	if got := res.Facts.Facts()[0].Unit.Measure.Local; got != "MWh" {
		t.Errorf("unit measure = %s, want registry default MWh", got)
	}
}

func TestConvertUnitReplacement(t *testing.T) {
	defaults := &Defaults{UnitReplacements: map[string]string{"gigajoules": "GJ"}}
	res := Convert(testTax(t), testConfig(), defaults, map[string]string{
		"EnergyConsumed":      "340",
		"EnergyConsumed_unit": "gigajoules",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	if got := res.Facts.Facts()[0].Unit.Measure.Local; got != "GJ" {
		t.Errorf("unit measure = %s, want GJ via replacement table", got)
	}
}

func TestConvertPlaceholdersSkipped(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"RevenueFromSales": "-",
		"TotalEmployees":   "#VALUE!",
		"EnergyConsumed":   "",
	})

	if len(res.AtLeast(SeverityWarning)) != 0 {
		t.Errorf("placeholders produced diagnostics: %v", res.Messages)
	}
	if res.Facts.Len() != 0 {
		t.Errorf("Facts.Len() = %d, want 0", res.Facts.Len())
	}
}

func TestConvertBooleanVocabulary(t *testing.T) {
	tests := []struct {
		raw     string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"YES", true, false},
		{"No", false, false},
		{"false", false, false},
		{"1", false, true},
		{"ja", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res := Convert(testTax(t), testConfig(), nil, map[string]string{
				"HasTransitionPlan": tt.raw,
			})
			if tt.wantErr {
				if res.Facts.Len() != 0 {
					t.Errorf("value %q accepted, want coercion failure", tt.raw)
				}
				return
			}
			if res.Facts.Len() != 1 {
				t.Fatalf("value %q rejected: %v", tt.raw, res.Messages)
			}
			if got := res.Facts.Facts()[0].Value.Bool; got != tt.want {
				t.Errorf("ParseBool(%q) fact = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestConvertPercent(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"RenewableShare": "25%",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	if got := res.Facts.Facts()[0].Value.Number; !got.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("percent value = %s, want 0.25", got)
	}
}

func TestConvertEnumeration(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"ReportingScope": "Consolidated basis",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	f := res.Facts.Facts()[0]
	if f.Value.Kind != xbrl.KindEnum || len(f.Value.Members) != 1 {
		t.Fatalf("value = %v", f.Value)
	}
	if f.Value.Members[0].Local != "ConsolidatedMember" {
		t.Errorf("member = %s", f.Value.Members[0])
	}

	// out-of-domain selection fails
	res = Convert(testTax(t), testConfig(), nil, map[string]string{
		"ReportingScope": "Female",
	})
	if res.Facts.Len() != 0 {
		t.Error("out-of-domain enumeration value accepted")
	}
}

func TestConvertMetadataRanges(t *testing.T) {
	cfg := Config{Currency: "USD", Entity: "ignored"}
	res := Convert(testTax(t), cfg, nil, map[string]string{
		"ReportingEntityName": "Acme GmbH",
		"DefaultCurrency":     "EUR",
		"PeriodStartDate":     "2024-01-01",
		"PeriodEndDate":       "2024-12-31",
		"RevenueFromSales":    "125000",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	if res.Entity != "Acme GmbH" {
		t.Errorf("entity = %q, want workbook value", res.Entity)
	}
	f := res.Facts.Facts()[0]
	if f.Context.Entity != "Acme GmbH" {
		t.Errorf("context entity = %q", f.Context.Entity)
	}
	if f.Unit.Measure.Local != "EUR" {
		t.Errorf("unit = %s, want workbook currency", f.Unit.Measure)
	}
}

func TestConvertIdempotent(t *testing.T) {
	values := map[string]string{
		"RevenueFromSales":            "125000",
		"TotalEmployees_FemaleMember": "12",
		"TotalEmployees_MaleMember":   "20",
		"EnergyConsumed":              "340",
	}

	a := Convert(testTax(t), testConfig(), nil, values)
	b := Convert(testTax(t), testConfig(), nil, values)

	if a.Facts.Len() != b.Facts.Len() {
		t.Fatalf("fact counts differ: %d vs %d", a.Facts.Len(), b.Facts.Len())
	}
	fa, fb := a.Facts.Facts(), b.Facts.Facts()
	for i := range fa {
		if fa[i].Concept.Name != fb[i].Concept.Name {
			t.Errorf("fact %d concept order differs: %s vs %s", i, fa[i].Concept.Name, fb[i].Concept.Name)
		}
		if !fa[i].Value.Equal(fb[i].Value) {
			t.Errorf("fact %d value differs", i)
		}
		if fa[i].Context.ID != fb[i].Context.ID {
			t.Errorf("fact %d context id differs: %s vs %s", i, fa[i].Context.ID, fb[i].Context.ID)
		}
	}
}

func TestConvertTableTypedDimension(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"CountryEmissionsTable": "-",
		"CountryEmissions":      "100\n200",
		"CountryAxis":           "DE\nFR",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	if res.Facts.Len() != 2 {
		t.Fatalf("Facts.Len() = %d, want 2", res.Facts.Len())
	}

	axis := taxonomy.QName{Prefix: "t", Local: "CountryAxis"}
	want := map[string]bool{"DE": false, "FR": false}
	for _, f := range res.Facts.Facts() {
		if f.Concept.Name.Local != "CountryEmissions" {
			t.Errorf("concept = %s", f.Concept.Name)
		}
		v, ok := f.Context.TypedValue(axis)
		if !ok {
			t.Fatalf("fact has no typed qualifier: %v", f.Context.Dimensions)
		}
		want[v] = true
		if f.Unit == nil || f.Unit.Measure.Local != "MWh" {
			t.Errorf("unit = %v, want default MWh", f.Unit)
		}
	}
	for v, seen := range want {
		if !seen {
			t.Errorf("no fact for country %s", v)
		}
	}
}

func TestConvertTableBlankRowsSkipped(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"CountryEmissionsTable": "-",
		"CountryEmissions":      "100\n\n200",
		"CountryAxis":           "DE\n\nFR",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	if res.Facts.Len() != 2 {
		t.Fatalf("Facts.Len() = %d, want 2", res.Facts.Len())
	}
}

func TestConvertTableMissingTypedValue(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"CountryEmissionsTable": "-",
		"CountryEmissions":      "100\n200",
		"CountryAxis":           "DE",
	})

	// first row converts, second is a per-item error
	if res.Facts.Len() != 1 {
		t.Fatalf("Facts.Len() = %d, want 1", res.Facts.Len())
	}
	errs := res.AtLeast(SeverityError)
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want exactly one", errs)
	}
	if errs[0].Kind != KindInvalidDimensionMember {
		t.Errorf("kind = %s", errs[0].Kind)
	}
	if errs[0].Concept.Local != "CountryAxis" {
		t.Errorf("message concept = %s, want the typed axis", errs[0].Concept)
	}
}

func TestConvertTableExplicitDimension(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"EmployeesTable": "-",
		"TotalEmployees": "12\n20",
		"GenderAxis":     "Female\nMale",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	if res.Facts.Len() != 2 {
		t.Fatalf("Facts.Len() = %d, want 2", res.Facts.Len())
	}

	axis := taxonomy.QName{Prefix: "t", Local: "GenderAxis"}
	members := make(map[string]bool)
	for _, f := range res.Facts.Facts() {
		m, ok := f.Context.Member(axis)
		if !ok {
			t.Fatalf("fact from %s has no gender qualifier", f.SourceName)
		}
		members[m.Local] = true
	}
	if !members["FemaleMember"] || !members["MaleMember"] {
		t.Errorf("members = %v, want FemaleMember and MaleMember", members)
	}
}

func TestConvertTableUnknownMemberLabel(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"EmployeesTable": "-",
		"TotalEmployees": "12\n20",
		"GenderAxis":     "Female\nOther",
	})

	if res.Facts.Len() != 1 {
		t.Fatalf("Facts.Len() = %d, want 1", res.Facts.Len())
	}
	errs := res.AtLeast(SeverityError)
	if len(errs) != 1 || errs[0].Kind != KindInvalidDimensionMember {
		t.Fatalf("errors = %v, want one invalid-dimension-member", errs)
	}
}

func TestConvertUnitCompanionCaseInsensitive(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"EnergyConsumed":      "340",
		"EnergyConsumed_Unit": "GJ",
	})

	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.AtLeast(SeverityError))
	}
	f := res.Facts.Facts()[0]
	if f.Unit == nil || f.Unit.Measure.Local != "GJ" {
		t.Errorf("unit = %v, want GJ from the capitalized companion range", f.Unit)
	}
	for _, m := range res.Messages {
		if m.Severity == SeverityInfo && m.Kind == KindUnmappedName {
			t.Errorf("companion unit reported as unconsumed: %v", m)
		}
	}
}

func TestConvertMessagesCarryConcept(t *testing.T) {
	res := Convert(testTax(t), testConfig(), nil, map[string]string{
		"TotalEmployees": "many",
	})

	errs := res.AtLeast(SeverityError)
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want one coercion failure", errs)
	}
	if errs[0].Kind != KindTypeCoercionFailure {
		t.Errorf("kind = %s", errs[0].Kind)
	}
	if errs[0].Concept.Local != "TotalEmployees" {
		t.Errorf("message concept = %s, want TotalEmployees", errs[0].Concept)
	}
}
