package xbrl

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sustainix/sustainix/internal/taxonomy"
)

// Dimension is one context qualifier: an explicit axis/member pair, or a
// typed axis with a free-form value.
type Dimension struct {
	Axis   taxonomy.QName
	Member taxonomy.QName // zero for typed dimensions
	Typed  bool
	Value  string // typed dimension value
}

func (d Dimension) key() string {
	if d.Typed {
		return d.Axis.String() + "=typed:" + d.Value
	}
	return d.Axis.String() + "=" + d.Member.String()
}

// Context pairs a reporting entity and period with a set of dimensional
// qualifiers. Contexts are interned: two facts with the same entity, period
// and dimensions share the same *Context, so identity comparison is enough
// to group facts.
type Context struct {
	ID         string
	Entity     string
	Period     Period
	Dimensions []Dimension // sorted by axis
}

// Dimensioned reports whether the context carries any qualifier.
func (c *Context) Dimensioned() bool { return len(c.Dimensions) > 0 }

// Member returns the member qualifying the given axis, if present.
func (c *Context) Member(axis taxonomy.QName) (taxonomy.QName, bool) {
	for _, d := range c.Dimensions {
		if d.Axis == axis && !d.Typed {
			return d.Member, true
		}
	}
	return taxonomy.QName{}, false
}

// TypedValue returns the value of a typed qualifier on the given axis.
func (c *Context) TypedValue(axis taxonomy.QName) (string, bool) {
	for _, d := range c.Dimensions {
		if d.Axis == axis && d.Typed {
			return d.Value, true
		}
	}
	return "", false
}

func contextKey(entity string, period Period, dims []Dimension) string {
	var b strings.Builder
	b.WriteString(entity)
	b.WriteByte('|')
	b.WriteString(period.Key())
	for _, d := range dims {
		b.WriteByte('|')
		b.WriteString(d.key())
	}
	return b.String()
}

// ContextInterner hands out shared *Context values keyed by entity, period
// and dimension set. Not safe for concurrent use; each conversion owns one.
type ContextInterner struct {
	byKey map[string]*Context
	order []*Context
}

func NewContextInterner() *ContextInterner {
	return &ContextInterner{byKey: make(map[string]*Context)}
}

// Intern returns the canonical context for the given qualifiers, creating
// it on first use. The dims slice is copied and sorted by axis; callers may
// reuse their slice.
func (ci *ContextInterner) Intern(entity string, period Period, dims []Dimension) *Context {
	sorted := make([]Dimension, len(dims))
	copy(sorted, dims)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Axis.String() < sorted[j].Axis.String()
	})

	key := contextKey(entity, period, sorted)
	if ctx, ok := ci.byKey[key]; ok {
		return ctx
	}

	ctx := &Context{
		ID:         contextID(len(ci.order)),
		Entity:     entity,
		Period:     period,
		Dimensions: sorted,
	}
	ci.byKey[key] = ctx
	ci.order = append(ci.order, ctx)
	return ctx
}

// All returns the interned contexts in creation order.
func (ci *ContextInterner) All() []*Context { return ci.order }

func contextID(n int) string {
	return "c-" + strconv.Itoa(n)
}
