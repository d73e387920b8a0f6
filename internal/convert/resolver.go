package convert

import (
	"fmt"
	"strings"

	"github.com/sustainix/sustainix/internal/taxonomy"
)

// unitSuffix marks a companion named range holding the unit for a concept's
// facts rather than a fact value.
const unitSuffix = "unit"

// Target is a resolved named range: the concept facts are reported against,
// plus any dimension member qualifiers carried in the range name, or a
// marker that the range supplies a unit rather than a value.
type Target struct {
	Name    string // the workbook range name
	Concept *taxonomy.Concept
	Members []*taxonomy.Concept
	Unit    bool
}

// ResolveError distinguishes why a name failed to resolve.
type ResolveError struct {
	Kind Kind
	Name string
	Msg  string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}

// Resolver maps workbook range names to taxonomy targets. Range names
// follow an underscore grammar: the leading segment is a concept local
// name, each following segment is a dimension member local name, and a
// trailing "unit" segment marks a companion unit range.
//
// Local names can themselves contain underscores, so resolution greedily
// prefers the longest concept match: the whole name is tried as one local
// name before any split is considered.
type Resolver struct {
	tax      *taxonomy.Taxonomy
	aliases  map[string]string // workbook label workarounds, name -> local name
	reserved map[string]struct{}
}

// NewResolver builds a resolver. aliases maps known-misspelled range names
// to concept local names; reserved lists metadata range names that are not
// fact targets.
func NewResolver(tax *taxonomy.Taxonomy, aliases map[string]string, reserved []string) *Resolver {
	r := &Resolver{
		tax:      tax,
		aliases:  aliases,
		reserved: make(map[string]struct{}, len(reserved)),
	}
	for _, name := range reserved {
		r.reserved[strings.ToLower(name)] = struct{}{}
	}
	return r
}

// Reserved reports whether name is a metadata range the fact pipeline must
// skip.
func (r *Resolver) Reserved(name string) bool {
	_, ok := r.reserved[strings.ToLower(name)]
	return ok
}

// Resolve maps one range name to a target. A nil *ResolveError means the
// name resolved; Kind on the error tells the caller how to diagnose it.
func (r *Resolver) Resolve(name string) (Target, *ResolveError) {
	segments := strings.Split(name, "_")

	// longest concept prefix wins
	var concept *taxonomy.Concept
	var rest []string
	for n := len(segments); n >= 1; n-- {
		local := strings.Join(segments[:n], "_")
		if alias, ok := r.aliases[local]; ok {
			local = alias
		}
		c, err := r.tax.ConceptForName(local)
		if err != nil {
			return Target{}, &ResolveError{Kind: KindUnmappedName, Name: name, Msg: err.Error()}
		}
		if c != nil {
			concept = c
			rest = segments[n:]
			break
		}
	}
	if concept == nil {
		return Target{}, &ResolveError{Kind: KindUnmappedName, Name: name,
			Msg: "no taxonomy concept matches this named range"}
	}
	if !concept.Reportable() {
		return Target{}, &ResolveError{Kind: KindUnmappedName, Name: name,
			Msg: fmt.Sprintf("concept %s is not reportable", concept.Name)}
	}

	target := Target{Name: name, Concept: concept}
	for i := 0; i < len(rest); i++ {
		seg := rest[i]
		if strings.EqualFold(seg, unitSuffix) && i == len(rest)-1 {
			target.Unit = true
			break
		}
		member, rerr := r.resolveMember(name, concept, rest[i:])
		if rerr != nil {
			return Target{}, rerr
		}
		target.Members = append(target.Members, member.concept)
		i += member.segments - 1
	}
	return target, nil
}

type memberMatch struct {
	concept  *taxonomy.Concept
	segments int
}

// resolveMember matches the longest run of segments to a member concept.
// Member local names can themselves contain underscores, so greedy longest
// match is required here too.
func (r *Resolver) resolveMember(name string, concept *taxonomy.Concept, segments []string) (memberMatch, *ResolveError) {
	for n := len(segments); n >= 1; n-- {
		local := strings.Join(segments[:n], "_")
		if strings.EqualFold(local, unitSuffix) {
			continue
		}
		c, err := r.tax.ConceptForName(local)
		if err != nil {
			return memberMatch{}, &ResolveError{Kind: KindInvalidDimensionMember, Name: name, Msg: err.Error()}
		}
		if c == nil {
			continue
		}
		axis, err := r.tax.AxisForMember(concept.Name, c.Name)
		if err != nil {
			return memberMatch{}, &ResolveError{Kind: KindInvalidDimensionMember, Name: name, Msg: err.Error()}
		}
		if axis.IsZero() {
			return memberMatch{}, &ResolveError{Kind: KindInvalidDimensionMember, Name: name,
				Msg: fmt.Sprintf("member %s is not valid on any axis of %s", c.Name, concept.Name)}
		}
		return memberMatch{concept: c, segments: n}, nil
	}
	return memberMatch{}, &ResolveError{Kind: KindInvalidDimensionMember, Name: name,
		Msg: fmt.Sprintf("suffix %q does not name a dimension member of %s", strings.Join(segments, "_"), concept.Name)}
}
