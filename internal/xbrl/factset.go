package xbrl

import (
	"fmt"

	"github.com/sustainix/sustainix/internal/taxonomy"
)

type factKey struct {
	concept taxonomy.QName
	context *Context
}

// FactSet accumulates the facts of one conversion, indexed by (concept,
// context). Adding the same value twice is a no-op; adding a different
// value for an existing (concept, context) pair is a conflict the caller
// must surface.
type FactSet struct {
	facts []*Fact
	index map[factKey]*Fact
}

func NewFactSet() *FactSet {
	return &FactSet{index: make(map[factKey]*Fact)}
}

// ErrConflict is returned by Add when a (concept, context) pair already
// holds a different value.
type ErrConflict struct {
	Existing *Fact
	Incoming *Fact
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("conflicting values for %s in context %s: %q (from %s) vs %q (from %s)",
		e.Existing.Concept.Name, e.Existing.Context.ID,
		e.Existing.Value, e.Existing.SourceName,
		e.Incoming.Value, e.Incoming.SourceName)
}

// Add inserts a fact. A fact equal to one already present is dropped
// silently; a differing duplicate returns *ErrConflict and leaves the set
// unchanged.
func (fs *FactSet) Add(f *Fact) error {
	key := factKey{concept: f.Concept.Name, context: f.Context}
	if existing, ok := fs.index[key]; ok {
		if existing.Value.Equal(f.Value) && existing.Unit == f.Unit {
			return nil
		}
		return &ErrConflict{Existing: existing, Incoming: f}
	}
	fs.index[key] = f
	fs.facts = append(fs.facts, f)
	return nil
}

// Facts returns all facts in insertion order.
func (fs *FactSet) Facts() []*Fact { return fs.facts }

// Len returns the number of distinct facts.
func (fs *FactSet) Len() int { return len(fs.facts) }

// Lookup returns the fact reported for a concept in a context.
func (fs *FactSet) Lookup(concept taxonomy.QName, ctx *Context) (*Fact, bool) {
	f, ok := fs.index[factKey{concept: concept, context: ctx}]
	return f, ok
}

// ForConcept returns the facts reported for a concept, across all contexts,
// in insertion order.
func (fs *FactSet) ForConcept(concept taxonomy.QName) []*Fact {
	var out []*Fact
	for _, f := range fs.facts {
		if f.Concept.Name == concept {
			out = append(out, f)
		}
	}
	return out
}
