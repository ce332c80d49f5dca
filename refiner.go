package subd

// RefineTables owns the stack of topological levels and the refinements
// between them. The base level is populated externally (see the subdaux
// factory) and must satisfy the Level invariants before any refinement.
//
// Read-only methods on a fully constructed RefineTables and its levels
// are safe to invoke concurrently provided no mutating call is in flight.
type RefineTables struct {
	schemeType SchemeType
	options    Options
	isUniform  bool
	maxLevel   int

	levels      []*Level
	refinements []*Refinement
}

// NewRefineTables returns refine tables for the given scheme with an
// empty base level to be filled by an external factory.
func NewRefineTables(schemeType SchemeType, options Options) *RefineTables {
	return &RefineTables{
		schemeType: schemeType,
		options:    options,
		isUniform:  true,
		levels:     []*Level{{}},
	}
}

// SchemeType returns the subdivision scheme the tables refine with.
func (rt *RefineTables) SchemeType() SchemeType { return rt.schemeType }

// Options returns the scheme options.
func (rt *RefineTables) Options() Options { return rt.options }

// IsUniform reports whether the last refinement pass was uniform.
func (rt *RefineTables) IsUniform() bool { return rt.isUniform }

// MaxLevel returns the deepest refined level.
func (rt *RefineTables) MaxLevel() int { return rt.maxLevel }

// BaseLevel returns the mutable base level for factory population.
func (rt *RefineTables) BaseLevel() *Level { return rt.levels[0] }

// LevelCount returns the number of levels, including the base.
func (rt *RefineTables) LevelCount() int { return len(rt.levels) }

// Level returns the topology snapshot at depth i.
func (rt *RefineTables) Level(i int) *Level { return rt.levels[i] }

// RefinementCount returns the number of refinements between levels.
func (rt *RefineTables) RefinementCount() int { return len(rt.refinements) }

// Refinement returns the refinement from level i to level i+1.
func (rt *RefineTables) Refinement(i int) *Refinement { return rt.refinements[i] }

// TotalVertexCount returns the vertex count summed across all levels.
func (rt *RefineTables) TotalVertexCount() int {
	sum := 0
	for _, l := range rt.levels {
		sum += l.VertexCount()
	}
	return sum
}

// TotalEdgeCount returns the edge count summed across all levels.
func (rt *RefineTables) TotalEdgeCount() int {
	sum := 0
	for _, l := range rt.levels {
		sum += l.EdgeCount()
	}
	return sum
}

// TotalFaceCount returns the face count summed across all levels.
func (rt *RefineTables) TotalFaceCount() int {
	sum := 0
	for _, l := range rt.levels {
		sum += l.FaceCount()
	}
	return sum
}

func (rt *RefineTables) checkRefinable() {
	if rt.levels[0].VertexCount() == 0 {
		panicf("subd: base level not initialized")
	}
	if rt.levels[0].EdgeCount() == 0 {
		panicf("subd: base level topology not completed")
	}
	if len(rt.levels) > 1 {
		panicf("subd: already refined; Unrefine first")
	}
	if rt.schemeType != SchemeCatmark {
		panicf("subd: refinement supports the Catmark scheme, have %v", rt.schemeType)
	}
}

// RefineUniform refines every component of every level up to maxLevel.
// When fullTopology is false the terminal level is populated with face
// topology only. When computeMasks is set every refinement stores the
// blending weights of its child vertices.
func (rt *RefineTables) RefineUniform(maxLevel int, fullTopology, computeMasks bool) {
	rt.checkRefinable()
	if maxLevel < 1 {
		panicf("subd: uniform refinement to level %d", maxLevel)
	}
	rt.isUniform = true
	rt.maxLevel = maxLevel

	refineOptions := RefineOptions{
		Sparse:       false,
		ComputeMasks: computeMasks,
	}
	for i := 1; i <= maxLevel; i++ {
		refineOptions.FaceTopologyOnly = !fullTopology && i == maxLevel

		child := &Level{}
		refinement := NewRefinement(rt.levels[i-1], child, rt.schemeType, rt.options)
		refinement.Refine(refineOptions)

		rt.levels = append(rt.levels, child)
		rt.refinements = append(rt.refinements, refinement)
	}
}

// RefineAdaptive refines up to maxLevel, at each level selecting only the
// neighborhoods of irregular or sharp features. When the analyzer selects
// nothing the hierarchy is truncated at the current depth and refinement
// stops early; that is a normal outcome, not an error.
func (rt *RefineTables) RefineAdaptive(maxLevel int, fullTopology, computeMasks bool) {
	rt.checkRefinable()
	if maxLevel < 1 {
		panicf("subd: adaptive refinement to level %d", maxLevel)
	}
	rt.isUniform = false
	rt.maxLevel = maxLevel

	const parentTagging = true
	refineOptions := RefineOptions{
		Sparse:        true,
		ComputeMasks:  computeMasks,
		ParentTagging: parentTagging,
		ChildTagging:  true,
	}
	// Full topology is kept at every level: the next level's analyzer
	// needs complete parent adjacency.
	_ = fullTopology

	for i := 1; i <= maxLevel; i++ {
		child := &Level{}
		refinement := NewRefinement(rt.levels[i-1], child, rt.schemeType, rt.options)

		selector := NewSparseSelector(refinement)
		if i > 1 {
			selector.SetPreviousRefinement(rt.refinements[i-2])
		}
		selector.BeginSelection(parentTagging)
		catmarkFeatureAdaptiveSelector(selector)
		selector.EndSelection()

		if selector.IsSelectionEmpty() {
			rt.maxLevel = i - 1
			break
		}
		refinement.Refine(refineOptions)
		rt.levels = append(rt.levels, child)
		rt.refinements = append(rt.refinements, refinement)
	}
}

// Unrefine discards everything above the base level.
func (rt *RefineTables) Unrefine() {
	if len(rt.levels) > 0 {
		rt.levels = rt.levels[:1]
	}
	rt.refinements = rt.refinements[:0]
	rt.maxLevel = 0
}

// Clear discards all levels and refinements, including the base.
func (rt *RefineTables) Clear() {
	rt.levels = []*Level{{}}
	rt.refinements = rt.refinements[:0]
	rt.maxLevel = 0
}
