package subd

type selectorState uint8

const (
	selectorUnstarted selectorState = iota
	selectorSelecting
	selectorFinalized
)

// SparseSelector marks the subset of a refinement's parent faces to be
// refined by a sparse (feature-adaptive) subdivision step. Selection is
// monotonic: marks accumulate and are never withdrawn. The selector also
// references the previous refinement so children of unselected parent
// components, flagged incomplete there, can be skipped early.
type SparseSelector struct {
	ref   *Refinement
	prev  *Refinement
	state selectorState
	empty bool
}

// NewSparseSelector returns a selector marking faces of ref's parent level.
func NewSparseSelector(ref *Refinement) *SparseSelector {
	if ref == nil {
		panicf("subd: nil refinement for selector")
	}
	return &SparseSelector{ref: ref, empty: true}
}

// Refinement returns the refinement the selection applies to.
func (s *SparseSelector) Refinement() *Refinement { return s.ref }

// SetPreviousRefinement identifies the refinement that produced the
// parent level, or nil at the base. Must precede BeginSelection.
func (s *SparseSelector) SetPreviousRefinement(prev *Refinement) {
	if s.state != selectorUnstarted {
		panicf("subd: previous refinement assigned after selection began")
	}
	s.prev = prev
}

// BeginSelection starts the selection phase, allocating parent tags when
// parentTagging is set.
func (s *SparseSelector) BeginSelection(parentTagging bool) {
	if s.state != selectorUnstarted {
		panicf("subd: selection already begun")
	}
	s.state = selectorSelecting
	s.ref.opts.ParentTagging = parentTagging
	s.ref.parentFaceSelected = make([]bool, s.ref.parent.FaceCount())
}

// EndSelection finalizes the selection. Queries are permitted afterwards;
// further selection is forbidden.
func (s *SparseSelector) EndSelection() {
	s.mustBe(selectorSelecting)
	s.state = selectorFinalized
}

// IsSelectionEmpty reports whether nothing was selected.
func (s *SparseSelector) IsSelectionEmpty() bool { return s.empty }

// SelectFace marks face f for refinement.
func (s *SparseSelector) SelectFace(f Index) {
	s.mustBe(selectorSelecting)
	s.ref.parentFaceSelected[f] = true
	s.empty = false
}

// SelectVertexFaces marks all faces incident to vertex v.
func (s *SparseSelector) SelectVertexFaces(v Index) {
	s.mustBe(selectorSelecting)
	for _, f := range s.ref.parent.VertexFaces(v) {
		s.ref.parentFaceSelected[f] = true
		s.empty = false
	}
}

// SelectEdgeFaces marks all faces incident to edge e.
func (s *SparseSelector) SelectEdgeFaces(e Index) {
	s.mustBe(selectorSelecting)
	for _, f := range s.ref.parent.EdgeFaces(e) {
		s.ref.parentFaceSelected[f] = true
		s.empty = false
	}
}

// IsVertexIncomplete reports whether parent vertex v descended from an
// unselected neighborhood of the previous refinement, meaning its child
// adjacency was only partially generated.
func (s *SparseSelector) IsVertexIncomplete(v Index) bool {
	return s.prev != nil && s.ref.parent.VertexTagOf(v).Incomplete
}

func (s *SparseSelector) mustBe(state selectorState) {
	if s.state != state {
		panicf("subd: selector misuse: state %d, want %d", s.state, state)
	}
}
