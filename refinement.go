package subd

// RefineOptions control a single refinement step between two levels.
type RefineOptions struct {
	// Sparse refines only the faces marked through a [SparseSelector]
	// instead of every parent component.
	Sparse bool
	// ComputeMasks stores the blending weights of every generated child
	// vertex in the refinement's weight tables.
	ComputeMasks bool
	// FaceTopologyOnly skips construction of child edges and vertex
	// adjacency, populating face-vertex lists only. Terminal levels of
	// consumers that only need patch corners use this.
	FaceTopologyOnly bool
	// ParentTagging and ChildTagging enable per-component selection and
	// completeness tags used by feature-adaptive refinement.
	ParentTagging bool
	ChildTagging  bool
}

// ComponentKind identifies the parent component a child vertex
// originates from.
type ComponentKind uint8

const (
	KindFace ComponentKind = iota
	KindEdge
	KindVertex
)

func (k ComponentKind) String() string {
	switch k {
	case KindFace:
		return "Face"
	case KindEdge:
		return "Edge"
	case KindVertex:
		return "Vertex"
	}
	return "ComponentKind(" + string(rune('0'+k)) + ")"
}

type childOrigin struct {
	kind   ComponentKind
	parent Index
}

type weightRagged struct {
	offsets []int32
	values  []float32
}

func (w *weightRagged) row(i Index) []float32 {
	return w.values[w.offsets[i]:w.offsets[i+1]]
}

// Refinement is the directed relation from a parent [Level] to the child
// Level it populates. It owns the parent-to-child component maps, applies
// the Catmark topology rules to wire child adjacency, propagates
// sharpness through the crease algebra and optionally records the mask
// weights of each generated child vertex. Once [Refinement.Refine] has
// run the refinement is immutable.
type Refinement struct {
	parent *Level
	child  *Level
	scheme Scheme
	opts   RefineOptions
	done   bool

	parentFaceSelected []bool
	parentEdgeSelected []bool
	parentVertSelected []bool

	faceChildVerts []Index
	edgeChildVerts []Index
	vertChildVerts []Index
	faceChildFaces ragged
	faceChildEdges ragged
	edgeChildEdges []Index

	childOrigins []childOrigin

	hasMasks bool
	maskV    weightRagged
	maskE    weightRagged
	maskF    weightRagged
}

// NewRefinement links a fully populated parent level with an empty child
// level to be filled by [Refinement.Refine].
func NewRefinement(parent, child *Level, schemeType SchemeType, opts Options) *Refinement {
	if parent == nil || child == nil {
		panicf("subd: refinement requires parent and child levels")
	}
	if parent.VertexCount() == 0 {
		panicf("subd: refinement parent level is empty")
	}
	if child.VertexCount() != 0 {
		panicf("subd: refinement child level already populated")
	}
	child.depth = parent.depth + 1
	return &Refinement{
		parent: parent,
		child:  child,
		scheme: NewScheme(schemeType, opts),
	}
}

// Parent returns the refinement's parent level.
func (r *Refinement) Parent() *Level { return r.parent }

// Child returns the refinement's child level.
func (r *Refinement) Child() *Level { return r.child }

// FaceChildVertex returns the child vertex generated at parent face f's
// centroid, or InvalidIndex if f was not refined.
func (r *Refinement) FaceChildVertex(f Index) Index { return r.faceChildVerts[f] }

// EdgeChildVertex returns the child vertex generated at parent edge e's
// midpoint, or InvalidIndex if e was not refined.
func (r *Refinement) EdgeChildVertex(e Index) Index { return r.edgeChildVerts[e] }

// VertexChildVertex returns the child vertex descending from parent
// vertex v, or InvalidIndex if v was not refined.
func (r *Refinement) VertexChildVertex(v Index) Index { return r.vertChildVerts[v] }

// FaceChildFaces returns the child faces of parent face f, one per corner
// in corner order. Empty if f was not refined.
func (r *Refinement) FaceChildFaces(f Index) []Index { return r.faceChildFaces.row(f) }

// FaceChildEdges returns the interior child edges of parent face f; edge
// i joins the face's child vertex to the midpoint of the face's edge i.
func (r *Refinement) FaceChildEdges(f Index) []Index { return r.faceChildEdges.row(f) }

// EdgeChildEdges returns the two halves parent edge e was split into,
// ordered by the endpoint each half is adjacent to. Entries are
// InvalidIndex if e was not refined.
func (r *Refinement) EdgeChildEdges(e Index) []Index { return r.edgeChildEdges[2*e : 2*e+2] }

// ChildVertexOrigin returns the kind and index of the parent component
// child vertex cv was generated from.
func (r *Refinement) ChildVertexOrigin(cv Index) (ComponentKind, Index) {
	o := r.childOrigins[cv]
	return o.kind, o.parent
}

// IsParentFaceSelected reports whether parent face f was refined.
func (r *Refinement) IsParentFaceSelected(f Index) bool { return r.parentFaceSelected[f] }

// HasMasks reports whether mask weights were computed and stored.
func (r *Refinement) HasMasks() bool { return r.hasMasks }

// ChildVertexMask returns the stored mask of child vertex cv. The views
// alias the refinement's weight tables and must not be modified. Panics
// unless masks were computed.
func (r *Refinement) ChildVertexMask(cv Index) Mask {
	if !r.hasMasks {
		panicf("subd: refinement has no stored masks")
	}
	return Mask{V: r.maskV.row(cv), E: r.maskE.row(cv), F: r.maskF.row(cv)}
}

// Refine executes the subdivision step, populating the child level and
// the parent-to-child maps. Called exactly once per refinement.
func (r *Refinement) Refine(o RefineOptions) {
	if r.done {
		panicf("subd: refinement already executed")
	}
	r.done = true
	r.opts = o
	r.markSelection()
	r.allocateChildVertices()
	r.allocateChildFaces()
	r.populateChildFaceVertices()
	if !o.FaceTopologyOnly {
		r.allocateChildEdges()
		r.populateChildFaceEdges()
		r.populateChildEdgeVertices()
		r.populateChildEdgeFaces()
		r.populateChildVertexRelations()
	}
	r.propagateSharpness()
	if o.ChildTagging && !o.FaceTopologyOnly {
		r.tagChildVertices()
	}
	if o.ComputeMasks {
		r.computeMasks()
	}
}

// markSelection finalizes which parent components produce children: all
// of them when uniform, else the faces marked by the selector plus every
// edge and vertex incident to a marked face.
func (r *Refinement) markSelection() {
	p := r.parent
	if !r.opts.Sparse {
		r.parentFaceSelected = make([]bool, p.FaceCount())
		for i := range r.parentFaceSelected {
			r.parentFaceSelected[i] = true
		}
	} else if r.parentFaceSelected == nil {
		panicf("subd: sparse refinement without a finalized selection")
	}
	r.parentEdgeSelected = make([]bool, p.EdgeCount())
	r.parentVertSelected = make([]bool, p.VertexCount())
	for f := Index(0); int(f) < p.FaceCount(); f++ {
		if !r.parentFaceSelected[f] {
			continue
		}
		for _, e := range p.FaceEdges(f) {
			r.parentEdgeSelected[e] = true
		}
		for _, v := range p.FaceVertices(f) {
			r.parentVertSelected[v] = true
		}
	}
}

// allocateChildVertices sequences child vertices: face-origin children
// first, then edge children, then vertex children. Mask and primvar
// consumers rely on this order so face centroids are resolvable before
// the masks that reference them.
func (r *Refinement) allocateChildVertices() {
	p := r.parent
	r.faceChildVerts = make([]Index, p.FaceCount())
	r.edgeChildVerts = make([]Index, p.EdgeCount())
	r.vertChildVerts = make([]Index, p.VertexCount())
	seq := Index(0)
	for f := range r.faceChildVerts {
		r.faceChildVerts[f] = InvalidIndex
		if r.parentFaceSelected[f] {
			r.faceChildVerts[f] = seq
			r.childOrigins = append(r.childOrigins, childOrigin{kind: KindFace, parent: Index(f)})
			seq++
		}
	}
	for e := range r.edgeChildVerts {
		r.edgeChildVerts[e] = InvalidIndex
		if r.parentEdgeSelected[e] {
			r.edgeChildVerts[e] = seq
			r.childOrigins = append(r.childOrigins, childOrigin{kind: KindEdge, parent: Index(e)})
			seq++
		}
	}
	for v := range r.vertChildVerts {
		r.vertChildVerts[v] = InvalidIndex
		if r.parentVertSelected[v] {
			r.vertChildVerts[v] = seq
			r.childOrigins = append(r.childOrigins, childOrigin{kind: KindVertex, parent: Index(v)})
			seq++
		}
	}
	r.child.vertCount = int(seq)
	r.child.vertSharpness = make([]float32, seq)
	r.child.vertTags = make([]VertexTag, seq)
}

func (r *Refinement) allocateChildFaces() {
	p := r.parent
	counts := make([]int32, p.FaceCount())
	total := 0
	for f := Index(0); int(f) < p.FaceCount(); f++ {
		if r.parentFaceSelected[f] {
			n := len(p.FaceVertices(f))
			counts[f] = int32(n)
			total += n
		}
	}
	r.faceChildFaces = newRaggedFromCounts(counts)
	seq := Index(0)
	for f := Index(0); int(f) < p.FaceCount(); f++ {
		row := r.faceChildFaces.row(f)
		for i := range row {
			row[i] = seq
			seq++
		}
	}
	// Every Catmark child face is a quad, regardless of parent face size.
	r.child.faceVerts = newRaggedUniform(total, 4)
}

// populateChildFaceVertices wires each child face's corners: the corner
// vertex's child, the leading edge's midpoint child, the face centroid
// child and the trailing edge's midpoint child.
func (r *Refinement) populateChildFaceVertices() {
	p := r.parent
	for f := Index(0); int(f) < p.FaceCount(); f++ {
		if !r.parentFaceSelected[f] {
			continue
		}
		fv, fe := p.FaceVertices(f), p.FaceEdges(f)
		n := len(fv)
		for i, cf := range r.faceChildFaces.row(f) {
			prev := (i + n - 1) % n
			row := r.child.faceVerts.row(cf)
			row[0] = r.vertChildVerts[fv[i]]
			row[1] = r.edgeChildVerts[fe[i]]
			row[2] = r.faceChildVerts[f]
			row[3] = r.edgeChildVerts[fe[prev]]
		}
	}
}

// allocateChildEdges sequences child edges: parent edge halves first (two
// per selected edge, ordered by endpoint), then face-interior edges per
// selected face in corner order.
func (r *Refinement) allocateChildEdges() {
	p := r.parent
	r.edgeChildEdges = make([]Index, 2*p.EdgeCount())
	seq := Index(0)
	for e := Index(0); int(e) < p.EdgeCount(); e++ {
		if r.parentEdgeSelected[e] {
			r.edgeChildEdges[2*e] = seq
			r.edgeChildEdges[2*e+1] = seq + 1
			seq += 2
		} else {
			r.edgeChildEdges[2*e] = InvalidIndex
			r.edgeChildEdges[2*e+1] = InvalidIndex
		}
	}
	counts := make([]int32, p.FaceCount())
	for f := Index(0); int(f) < p.FaceCount(); f++ {
		if r.parentFaceSelected[f] {
			counts[f] = int32(len(p.FaceEdges(f)))
		}
	}
	r.faceChildEdges = newRaggedFromCounts(counts)
	for f := Index(0); int(f) < p.FaceCount(); f++ {
		row := r.faceChildEdges.row(f)
		for i := range row {
			row[i] = seq
			seq++
		}
	}
	r.child.edgeVerts = make([]Index, 2*int(seq))
	r.child.edgeSharpness = make([]float32, seq)
	r.child.edgeTags = make([]EdgeTag, seq)
}

func (r *Refinement) populateChildFaceEdges() {
	p := r.parent
	c := r.child
	c.faceEdges = ragged{offsets: c.faceVerts.offsets, values: make([]Index, len(c.faceVerts.values))}
	for f := Index(0); int(f) < p.FaceCount(); f++ {
		if !r.parentFaceSelected[f] {
			continue
		}
		fv, fe := p.FaceVertices(f), p.FaceEdges(f)
		n := len(fv)
		intEdges := r.faceChildEdges.row(f)
		for i, cf := range r.faceChildFaces.row(f) {
			prev := (i + n - 1) % n
			row := c.faceEdges.row(cf)
			row[0] = r.edgeHalfAtVertex(fe[i], fv[i])
			row[1] = intEdges[i]
			row[2] = intEdges[prev]
			row[3] = r.edgeHalfAtVertex(fe[prev], fv[i])
		}
	}
}

// edgeHalfAtVertex returns the child half of parent edge e adjacent to
// endpoint v.
func (r *Refinement) edgeHalfAtVertex(e, v Index) Index {
	if r.parent.EdgeVertices(e)[1] == v {
		return r.edgeChildEdges[2*e+1]
	}
	return r.edgeChildEdges[2*e]
}

func (r *Refinement) populateChildEdgeVertices() {
	p := r.parent
	c := r.child
	for e := Index(0); int(e) < p.EdgeCount(); e++ {
		if !r.parentEdgeSelected[e] {
			continue
		}
		ev := p.EdgeVertices(e)
		mid := r.edgeChildVerts[e]
		for h := 0; h < 2; h++ {
			ce := r.edgeChildEdges[2*e+int32(h)]
			c.edgeVerts[2*ce] = r.vertChildVerts[ev[h]]
			c.edgeVerts[2*ce+1] = mid
		}
	}
	for f := Index(0); int(f) < p.FaceCount(); f++ {
		if !r.parentFaceSelected[f] {
			continue
		}
		fe := p.FaceEdges(f)
		for i, ce := range r.faceChildEdges.row(f) {
			c.edgeVerts[2*ce] = r.edgeChildVerts[fe[i]]
			c.edgeVerts[2*ce+1] = r.faceChildVerts[f]
		}
	}
}

func (r *Refinement) populateChildEdgeFaces() {
	p := r.parent
	c := r.child
	counts := make([]int32, c.EdgeCount())
	for e := Index(0); int(e) < p.EdgeCount(); e++ {
		if !r.parentEdgeSelected[e] {
			continue
		}
		selFaces := int32(0)
		for _, g := range p.EdgeFaces(e) {
			if r.parentFaceSelected[g] {
				selFaces++
			}
		}
		counts[r.edgeChildEdges[2*e]] = selFaces
		counts[r.edgeChildEdges[2*e+1]] = selFaces
	}
	for f := Index(0); int(f) < p.FaceCount(); f++ {
		for _, ce := range r.faceChildEdges.row(f) {
			counts[ce] = 2
		}
	}
	c.edgeFaces = newRaggedFromCounts(counts)
	fill := make([]int32, c.EdgeCount())
	put := func(ce, cf Index) {
		c.edgeFaces.values[c.edgeFaces.offsets[ce]+fill[ce]] = cf
		fill[ce]++
	}
	for e := Index(0); int(e) < p.EdgeCount(); e++ {
		if !r.parentEdgeSelected[e] {
			continue
		}
		ev := p.EdgeVertices(e)
		for _, g := range p.EdgeFaces(e) {
			if !r.parentFaceSelected[g] {
				continue
			}
			cfV0, cfV1 := r.childFacesAcrossEdge(e, g, ev[0])
			put(r.edgeChildEdges[2*e], cfV0)
			put(r.edgeChildEdges[2*e+1], cfV1)
		}
	}
	for f := Index(0); int(f) < p.FaceCount(); f++ {
		if !r.parentFaceSelected[f] {
			continue
		}
		cfs := r.faceChildFaces.row(f)
		n := len(cfs)
		for i, ce := range r.faceChildEdges.row(f) {
			put(ce, cfs[i])
			put(ce, cfs[(i+1)%n])
		}
	}
	for ce := Index(0); int(ce) < c.EdgeCount(); ce++ {
		n := c.edgeFaces.count(ce)
		c.edgeTags[ce].Boundary = n == 1
		c.edgeTags[ce].NonManifold = n > 2
	}
}

// childFacesAcrossEdge returns the two child faces of parent face g
// adjacent to parent edge e, the first on the side of endpoint v0.
func (r *Refinement) childFacesAcrossEdge(e, g, v0 Index) (cfV0, cfV1 Index) {
	p := r.parent
	fe := p.FaceEdges(g)
	i := 0
	for j, fedge := range fe {
		if fedge == e {
			i = j
			break
		}
	}
	n := len(fe)
	cfs := r.faceChildFaces.row(g)
	cfA, cfB := cfs[i], cfs[(i+1)%n]
	if p.FaceVertices(g)[i] == v0 {
		return cfA, cfB
	}
	return cfB, cfA
}

// populateChildVertexRelations wires vertEdges and vertFaces for the
// three kinds of child vertex. Centroid and midpoint neighborhoods are
// built in rotational order directly; vertex children inherit the
// parent's ordering.
func (r *Refinement) populateChildVertexRelations() {
	p := r.parent
	c := r.child

	edgeCounts := make([]int32, c.VertexCount())
	faceCounts := make([]int32, c.VertexCount())
	for f := Index(0); int(f) < p.FaceCount(); f++ {
		cv := r.faceChildVerts[f]
		if cv == InvalidIndex {
			continue
		}
		n := int32(len(p.FaceVertices(f)))
		edgeCounts[cv], faceCounts[cv] = n, n
	}
	for e := Index(0); int(e) < p.EdgeCount(); e++ {
		cv := r.edgeChildVerts[e]
		if cv == InvalidIndex {
			continue
		}
		selFaces := int32(0)
		for _, g := range p.EdgeFaces(e) {
			if r.parentFaceSelected[g] {
				selFaces++
			}
		}
		edgeCounts[cv] = 2 + selFaces
		faceCounts[cv] = 2 * selFaces
	}
	for v := Index(0); int(v) < p.VertexCount(); v++ {
		cv := r.vertChildVerts[v]
		if cv == InvalidIndex {
			continue
		}
		for _, e := range p.VertexEdges(v) {
			if r.parentEdgeSelected[e] {
				edgeCounts[cv]++
			}
		}
		for _, g := range p.VertexFaces(v) {
			if r.parentFaceSelected[g] {
				faceCounts[cv]++
			}
		}
	}
	c.vertEdges = newRaggedFromCounts(edgeCounts)
	c.vertFaces = newRaggedFromCounts(faceCounts)

	for f := Index(0); int(f) < p.FaceCount(); f++ {
		cv := r.faceChildVerts[f]
		if cv == InvalidIndex {
			continue
		}
		copy(c.vertEdges.row(cv), r.faceChildEdges.row(f))
		copy(c.vertFaces.row(cv), r.faceChildFaces.row(f))
	}
	for e := Index(0); int(e) < p.EdgeCount(); e++ {
		cv := r.edgeChildVerts[e]
		if cv == InvalidIndex {
			continue
		}
		r.wireEdgeMidpointVertex(e, cv)
	}
	for v := Index(0); int(v) < p.VertexCount(); v++ {
		cv := r.vertChildVerts[v]
		if cv == InvalidIndex {
			continue
		}
		edges := c.vertEdges.row(cv)
		k := 0
		for _, e := range p.VertexEdges(v) {
			if r.parentEdgeSelected[e] {
				edges[k] = r.edgeHalfAtVertex(e, v)
				k++
			}
		}
		faces := c.vertFaces.row(cv)
		k = 0
		for _, g := range p.VertexFaces(v) {
			if r.parentFaceSelected[g] {
				faces[k] = r.childFaceAtCorner(g, v)
				k++
			}
		}
		c.vertTags[cv].NonManifold = p.VertexTagOf(v).NonManifold
	}
}

// wireEdgeMidpointVertex orders the midpoint child vertex's neighborhood.
// For the manifold interior and boundary cases the rotation interleaves
// the two parent edge halves with the interior edges of the incident
// faces; other configurations fall back to discovery order.
func (r *Refinement) wireEdgeMidpointVertex(e, cv Index) {
	p := r.parent
	c := r.child
	ev := p.EdgeVertices(e)
	h0 := r.edgeChildEdges[2*e]
	h1 := r.edgeChildEdges[2*e+1]

	var selected []Index
	for _, g := range p.EdgeFaces(e) {
		if r.parentFaceSelected[g] {
			selected = append(selected, g)
		}
	}
	edges := c.vertEdges.row(cv)
	faces := c.vertFaces.row(cv)
	switch len(selected) {
	case 1:
		g := selected[0]
		cfV0, cfV1 := r.childFacesAcrossEdge(e, g, ev[0])
		edges[0], edges[1], edges[2] = h0, r.interiorEdgeAt(g, e), h1
		faces[0], faces[1] = cfV0, cfV1
	case 2:
		g0, g1 := selected[0], selected[1]
		cf0V0, cf0V1 := r.childFacesAcrossEdge(e, g0, ev[0])
		cf1V0, cf1V1 := r.childFacesAcrossEdge(e, g1, ev[0])
		edges[0], edges[1], edges[2], edges[3] = h0, r.interiorEdgeAt(g0, e), h1, r.interiorEdgeAt(g1, e)
		faces[0], faces[1], faces[2], faces[3] = cf0V0, cf0V1, cf1V1, cf1V0
	default:
		edges[0], edges[1] = h0, h1
		for k, g := range selected {
			cfV0, cfV1 := r.childFacesAcrossEdge(e, g, ev[0])
			edges[2+k] = r.interiorEdgeAt(g, e)
			faces[2*k], faces[2*k+1] = cfV0, cfV1
		}
		c.vertTags[cv].NonManifold = true
	}
}

// interiorEdgeAt returns the interior child edge of face g reaching the
// midpoint of parent edge e.
func (r *Refinement) interiorEdgeAt(g, e Index) Index {
	for i, fedge := range r.parent.FaceEdges(g) {
		if fedge == e {
			return r.faceChildEdges.row(g)[i]
		}
	}
	panicf("subd: edge %d not found in face %d", e, g)
	return InvalidIndex
}

// childFaceAtCorner returns the child face of parent face g at the corner
// occupied by vertex v.
func (r *Refinement) childFaceAtCorner(g, v Index) Index {
	for i, fvert := range r.parent.FaceVertices(g) {
		if fvert == v {
			return r.faceChildFaces.row(g)[i]
		}
	}
	panicf("subd: vertex %d not found in face %d", v, g)
	return InvalidIndex
}

// propagateSharpness assigns child sharpness through the crease algebra:
// edge halves decay from their parent edge, interior edges and face or
// edge origin vertices are smooth, vertex children decay from their
// parent vertex. Never assigned ad hoc.
func (r *Refinement) propagateSharpness() {
	p := r.parent
	c := r.child
	crease := NewCrease(r.scheme.Options())
	uniform := crease.IsUniform()

	if !r.opts.FaceTopologyOnly {
		var adjBuf [maskStackValence]float32
		for e := Index(0); int(e) < p.EdgeCount(); e++ {
			if !r.parentEdgeSelected[e] {
				continue
			}
			ps := p.EdgeSharpness(e)
			ev := p.EdgeVertices(e)
			for h := 0; h < 2; h++ {
				var adjacent []float32
				if !uniform && IsSharp(ps) && !IsInfinitelySharp(ps) {
					adjacent = gatherAdjacentSharpness(p, ev[h], e, adjBuf[:0])
				}
				ce := r.edgeChildEdges[2*e+int32(h)]
				c.edgeSharpness[ce] = crease.SubdivideEdgeSharpness(ps, adjacent)
			}
		}
	}
	for v := Index(0); int(v) < p.VertexCount(); v++ {
		cv := r.vertChildVerts[v]
		if cv == InvalidIndex {
			continue
		}
		c.vertSharpness[cv] = crease.SubdivideVertexSharpness(p.VertexSharpness(v))
	}
}

// gatherAdjacentSharpness collects the sharpness of parent edges incident
// to vertex v other than edge e, for Chaikin crease subdivision.
func gatherAdjacentSharpness(l *Level, v, e Index, dst []float32) []float32 {
	for _, adj := range l.VertexEdges(v) {
		if adj != e {
			dst = append(dst, l.EdgeSharpness(adj))
		}
	}
	return dst
}

// tagChildVertices records the crease rule of every child vertex and
// marks children of partially selected parent neighborhoods incomplete.
func (r *Refinement) tagChildVertices() {
	p := r.parent
	c := r.child
	c.UpdateVertexRules(r.scheme.Options())
	if !r.opts.Sparse {
		return
	}
	for e := Index(0); int(e) < p.EdgeCount(); e++ {
		cv := r.edgeChildVerts[e]
		if cv == InvalidIndex {
			continue
		}
		for _, g := range p.EdgeFaces(e) {
			if !r.parentFaceSelected[g] {
				c.vertTags[cv].Incomplete = true
			}
		}
	}
	for v := Index(0); int(v) < p.VertexCount(); v++ {
		cv := r.vertChildVerts[v]
		if cv == InvalidIndex {
			continue
		}
		incomplete := p.VertexTagOf(v).Incomplete
		for _, g := range p.VertexFaces(v) {
			if !r.parentFaceSelected[g] {
				incomplete = true
			}
		}
		c.vertTags[cv].Incomplete = incomplete
	}
}

// computeMasks invokes the mask kernel matching each child vertex's
// origin and stores the weights in dense tables indexed by child vertex.
// Masks are computed against the parent level, which is complete even
// under sparse refinement, so incomplete children get valid masks too.
func (r *Refinement) computeMasks() {
	p := r.parent
	nc := Index(r.child.VertexCount())
	r.maskV = weightRagged{offsets: make([]int32, nc+1)}
	r.maskE = weightRagged{offsets: make([]int32, nc+1)}
	r.maskF = weightRagged{offsets: make([]int32, nc+1)}

	var mask Mask
	for cv := Index(0); cv < nc; cv++ {
		o := r.childOrigins[cv]
		switch o.kind {
		case KindFace:
			r.scheme.ComputeFaceVertexMask(faceVertexNeighborhood{l: p, f: o.parent}, &mask)
		case KindEdge:
			r.scheme.ComputeEdgeVertexMask(edgeVertexNeighborhood{l: p, e: o.parent}, &mask, RuleUnknown, RuleUnknown)
		case KindVertex:
			// The cached parent rule short-circuits the common smooth case.
			// Sharper rules are left for the kernel to determine so a
			// decaying child transitions fractionally.
			pRule := p.VertexTagOf(o.parent).Rule
			if pRule != RuleSmooth && pRule != RuleDart {
				pRule = RuleUnknown
			}
			r.scheme.ComputeVertexVertexMask(vertexVertexNeighborhood{l: p, v: o.parent}, &mask, pRule, RuleUnknown)
		}
		r.maskV.values = append(r.maskV.values, mask.V...)
		r.maskE.values = append(r.maskE.values, mask.E...)
		r.maskF.values = append(r.maskF.values, mask.F...)
		r.maskV.offsets[cv+1] = int32(len(r.maskV.values))
		r.maskE.offsets[cv+1] = int32(len(r.maskE.values))
		r.maskF.offsets[cv+1] = int32(len(r.maskF.values))
	}
	r.hasMasks = true
}

// Neighborhood adapters exposing a Level's adjacency to the mask kernels.

type faceVertexNeighborhood struct {
	l *Level
	f Index
}

func (n faceVertexNeighborhood) VertexCount() int { return len(n.l.FaceVertices(n.f)) }

type edgeVertexNeighborhood struct {
	l *Level
	e Index
}

func (n edgeVertexNeighborhood) FaceCount() int     { return len(n.l.EdgeFaces(n.e)) }
func (n edgeVertexNeighborhood) Sharpness() float32 { return n.l.EdgeSharpness(n.e) }

func (n edgeVertexNeighborhood) VertexCountPerFace(dst []int) []int {
	for _, g := range n.l.EdgeFaces(n.e) {
		dst = append(dst, len(n.l.FaceVertices(g)))
	}
	return dst
}

func (n edgeVertexNeighborhood) ChildSharpness(c Crease, dst []float32) []float32 {
	ps := n.l.EdgeSharpness(n.e)
	ev := n.l.EdgeVertices(n.e)
	var adjBuf [maskStackValence]float32
	for h := 0; h < 2; h++ {
		var adjacent []float32
		if !c.IsUniform() {
			adjacent = gatherAdjacentSharpness(n.l, ev[h], n.e, adjBuf[:0])
		}
		dst = append(dst, c.SubdivideEdgeSharpness(ps, adjacent))
	}
	return dst
}

type vertexVertexNeighborhood struct {
	l *Level
	v Index
}

func (n vertexVertexNeighborhood) EdgeCount() int     { return len(n.l.VertexEdges(n.v)) }
func (n vertexVertexNeighborhood) FaceCount() int     { return len(n.l.VertexFaces(n.v)) }
func (n vertexVertexNeighborhood) Sharpness() float32 { return n.l.VertexSharpness(n.v) }

func (n vertexVertexNeighborhood) SharpnessPerEdge(dst []float32) []float32 {
	for _, e := range n.l.VertexEdges(n.v) {
		dst = append(dst, n.l.EdgeSharpness(e))
	}
	return dst
}

func (n vertexVertexNeighborhood) ChildSharpness(c Crease) float32 {
	return c.SubdivideVertexSharpness(n.l.VertexSharpness(n.v))
}

func (n vertexVertexNeighborhood) ChildSharpnessPerEdge(c Crease, dst []float32) []float32 {
	var adjBuf [maskStackValence]float32
	for _, e := range n.l.VertexEdges(n.v) {
		var adjacent []float32
		if !c.IsUniform() {
			adjacent = gatherAdjacentSharpness(n.l, n.v, e, adjBuf[:0])
		}
		dst = append(dst, c.SubdivideEdgeSharpness(n.l.EdgeSharpness(e), adjacent))
	}
	return dst
}
