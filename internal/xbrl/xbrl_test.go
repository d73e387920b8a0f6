package xbrl

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sustainix/sustainix/internal/taxonomy"
)

var (
	periodEnd  = time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	periodFull = Duration(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), periodEnd)
)

func TestPeriodKey(t *testing.T) {
	instant := Instant(periodEnd)
	if got := instant.Key(); got != "i:2025-12-31" {
		t.Errorf("instant Key() = %q", got)
	}
	if got := periodFull.Key(); got != "d:2025-01-01/2025-12-31" {
		t.Errorf("duration Key() = %q", got)
	}
	if instant.Key() == periodFull.Key() {
		t.Error("instant and duration keys collide")
	}
}

func TestContextInterning(t *testing.T) {
	ci := NewContextInterner()

	axis := taxonomy.QName{Prefix: "esrs", Local: "ScopeAxis"}
	other := taxonomy.QName{Prefix: "esrs", Local: "SiteAxis"}
	scope1 := taxonomy.QName{Prefix: "esrs", Local: "Scope1Member"}

	dims := []Dimension{
		{Axis: other, Typed: true, Value: "Plant A"},
		{Axis: axis, Member: scope1},
	}
	a := ci.Intern("Acme", periodFull, dims)
	// same qualifiers in reverse order must intern to the same context
	b := ci.Intern("Acme", periodFull, []Dimension{
		{Axis: axis, Member: scope1},
		{Axis: other, Typed: true, Value: "Plant A"},
	})
	if a != b {
		t.Error("equal qualifier sets interned to different contexts")
	}
	if a.Dimensions[0].Axis != axis {
		t.Errorf("dimensions not sorted by axis: %v", a.Dimensions)
	}

	c := ci.Intern("Acme", periodFull, nil)
	if c == a {
		t.Error("dimensionless context interned same as dimensioned")
	}
	if c.Dimensioned() {
		t.Error("Dimensioned() = true for bare context")
	}

	d := ci.Intern("Acme", Instant(periodEnd), nil)
	if d == c {
		t.Error("instant and duration contexts interned together")
	}

	if got := len(ci.All()); got != 3 {
		t.Errorf("len(All()) = %d, want 3", got)
	}

	if m, ok := a.Member(axis); !ok || m != scope1 {
		t.Errorf("Member(%s) = %v, %v", axis, m, ok)
	}
	if v, ok := a.TypedValue(other); !ok || v != "Plant A" {
		t.Errorf("TypedValue(%s) = %q, %v", other, v, ok)
	}
}

func TestUnitInterning(t *testing.T) {
	ui := NewUnitInterner()
	eur := taxonomy.UnitDef{ID: "EUR", Measure: taxonomy.QName{Prefix: "iso4217", Local: "EUR"}, Symbol: "€"}

	a := ui.Intern(eur)
	b := ui.Intern(eur)
	if a != b {
		t.Error("same measure interned to different units")
	}
	if got := len(ui.All()); got != 1 {
		t.Errorf("len(All()) = %d, want 1", got)
	}
}

func TestValueEqual(t *testing.T) {
	m1 := taxonomy.QName{Prefix: "esrs", Local: "Scope1Member"}
	m2 := taxonomy.QName{Prefix: "esrs", Local: "Scope2Member"}

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal text", TextValue("abc"), TextValue("abc"), true},
		{"different text", TextValue("abc"), TextValue("abd"), false},
		{"numeric equality ignores lexical form", NumberValue(decimal.RequireFromString("1.50")), NumberValue(decimal.RequireFromString("1.5")), true},
		{"different numbers", NumberValue(decimal.RequireFromString("1.5")), NumberValue(decimal.RequireFromString("1.6")), false},
		{"kind mismatch", TextValue("true"), BoolValue(true), false},
		{"equal enum sets", EnumValue([]taxonomy.QName{m1, m2}), EnumValue([]taxonomy.QName{m1, m2}), true},
		{"different enum sets", EnumValue([]taxonomy.QName{m1}), EnumValue([]taxonomy.QName{m2}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFactSet(t *testing.T) {
	ci := NewContextInterner()
	ctx := ci.Intern("Acme", periodFull, nil)

	revenue := &taxonomy.Concept{
		Name: taxonomy.QName{Prefix: "esrs", Local: "Revenue"},
		Type: taxonomy.TypeMonetary,
	}

	fs := NewFactSet()
	first := &Fact{Concept: revenue, Context: ctx, Value: NumberValue(decimal.RequireFromString("1000")), SourceName: "Revenue"}
	if err := fs.Add(first); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// equal duplicate is a no-op
	dup := &Fact{Concept: revenue, Context: ctx, Value: NumberValue(decimal.RequireFromString("1000.0")), SourceName: "Revenue_copy"}
	if err := fs.Add(dup); err != nil {
		t.Fatalf("Add(duplicate) error = %v", err)
	}
	if fs.Len() != 1 {
		t.Errorf("Len() = %d after duplicate, want 1", fs.Len())
	}

	// differing duplicate is a conflict
	conflict := &Fact{Concept: revenue, Context: ctx, Value: NumberValue(decimal.RequireFromString("2000")), SourceName: "Revenue_other"}
	err := fs.Add(conflict)
	var ec *ErrConflict
	if !errors.As(err, &ec) {
		t.Fatalf("Add(conflict) error = %v, want *ErrConflict", err)
	}
	if ec.Existing != first {
		t.Error("conflict does not reference the existing fact")
	}
	if fs.Len() != 1 {
		t.Errorf("Len() = %d after conflict, want 1", fs.Len())
	}

	got, ok := fs.Lookup(revenue.Name, ctx)
	if !ok || got != first {
		t.Errorf("Lookup() = %v, %v", got, ok)
	}
}
