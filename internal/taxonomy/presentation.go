package taxonomy

// PresentationStyle classifies a presentation group by how its contents are
// meant to be displayed. The set is closed: a group either has no reportable
// concepts (Empty), only dimensionless concepts (List), only concepts inside
// a hypercube (Table), or a mixture (Hybrid, which the converter rejects).
type PresentationStyle int

const (
	StyleEmpty PresentationStyle = iota
	StyleList
	StyleTable
	StyleHybrid
)

func (s PresentationStyle) String() string {
	switch s {
	case StyleEmpty:
		return "empty"
	case StyleList:
		return "list"
	case StyleTable:
		return "table"
	case StyleHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// Relationship is one row of a presentation group: a concept at a nesting
// depth. Order within a group is taxonomy-defined and must be preserved.
type Relationship struct {
	Depth   int
	Concept *Concept
}

// Group is one presentation network (ELR): an ordered run of relationships
// under a role URI, with a human-facing label and a derived display style.
type Group struct {
	Role          string
	Label         string
	Relationships []Relationship
	Style         PresentationStyle
}

// Reportable returns the reportable concepts of the group in presentation
// order.
func (g *Group) Reportable() []*Concept {
	var out []*Concept
	for _, rel := range g.Relationships {
		if rel.Concept.Reportable() {
			out = append(out, rel.Concept)
		}
	}
	return out
}

// Hypercubes returns the hypercube concepts of the group in presentation
// order.
func (g *Group) Hypercubes() []*Concept {
	var out []*Concept
	for _, rel := range g.Relationships {
		if rel.Concept.Hypercube {
			out = append(out, rel.Concept)
		}
	}
	return out
}

// ExplicitDimensions returns the explicit axis concepts of the group.
func (g *Group) ExplicitDimensions() []*Concept {
	var out []*Concept
	for _, rel := range g.Relationships {
		if rel.Concept.ExplicitDimension() {
			out = append(out, rel.Concept)
		}
	}
	return out
}

// TypedDimensions returns the typed axis concepts of the group.
func (g *Group) TypedDimensions() []*Concept {
	var out []*Concept
	for _, rel := range g.Relationships {
		if rel.Concept.TypedDimension() {
			out = append(out, rel.Concept)
		}
	}
	return out
}

// identifyStyle classifies a relationship run. Reportable concepts nested at
// or below a hypercube are table content; reportable concepts outside any
// hypercube are list content. A group with both is Hybrid.
func identifyStyle(rels []Relationship) PresentationStyle {
	hasHypercube := false
	hasReportable := false
	for _, rel := range rels {
		if rel.Concept.Hypercube {
			hasHypercube = true
		}
		if rel.Concept.Reportable() {
			hasReportable = true
		}
	}
	if !hasReportable {
		return StyleEmpty
	}
	if !hasHypercube {
		return StyleList
	}

	listStyle := false
	tableStyle := false

	// Stack of hypercube nesting depths; a relationship at depth 0 or
	// shallower than the current hypercube ends that hypercube's scope.
	inCube := []bool{false}
	cubeDepth := []int{0}
	for _, rel := range rels {
		if inCube[len(inCube)-1] && (rel.Depth == 0 || rel.Depth < cubeDepth[len(cubeDepth)-1]) {
			inCube = inCube[:len(inCube)-1]
			cubeDepth = cubeDepth[:len(cubeDepth)-1]
		}
		if rel.Concept.Hypercube {
			inCube = append(inCube, true)
			cubeDepth = append(cubeDepth, rel.Depth)
		}
		if rel.Concept.Reportable() {
			if inCube[len(inCube)-1] && rel.Depth >= cubeDepth[len(cubeDepth)-1] {
				tableStyle = true
			} else {
				listStyle = true
			}
		}
	}

	switch {
	case tableStyle && listStyle:
		return StyleHybrid
	case tableStyle:
		return StyleTable
	case listStyle:
		return StyleList
	default:
		return StyleEmpty
	}
}
