package subd

// Mask holds the weights expressing a refined vertex as an affine
// combination of components in the parent level. The three weight slices
// are parallel to the neighborhood's vertices, edges and faces; any of
// them may be empty. Face weights apply to the child vertex generated at
// the corresponding incident face's centroid, which keeps the formulas
// exact for faces of any size. The weights of a fully assigned mask sum
// to one up to floating point rounding.
type Mask struct {
	V []float32 // vertex weights
	E []float32 // edge weights
	F []float32 // face weights
}

// FaceNeighborhood describes the parent face a face-vertex (centroid)
// originates from.
type FaceNeighborhood interface {
	// VertexCount returns the number of vertices (and edges) of the face.
	VertexCount() int
}

// EdgeNeighborhood describes the parent edge an edge-vertex (midpoint)
// originates from.
type EdgeNeighborhood interface {
	// FaceCount returns the number of incident faces: 1 on a boundary,
	// 2 in a manifold interior, more when non-manifold.
	FaceCount() int
	// Sharpness returns the parent edge's sharpness.
	Sharpness() float32
	// VertexCountPerFace fills dst with the vertex count of each incident
	// face and returns it. Only consulted by the smooth-triangle option.
	VertexCountPerFace(dst []int) []int
	// ChildSharpness fills dst with the sharpness of the two child edge
	// halves, computed via crease c, and returns it.
	ChildSharpness(c Crease, dst []float32) []float32
}

// VertexNeighborhood describes the parent vertex a vertex-vertex
// originates from.
type VertexNeighborhood interface {
	// EdgeCount returns the vertex valence (number of incident edges).
	EdgeCount() int
	// FaceCount returns the number of incident faces.
	FaceCount() int
	// Sharpness returns the parent vertex's sharpness.
	Sharpness() float32
	// SharpnessPerEdge fills dst with the sharpness of each incident edge
	// in vertex-edge order and returns it.
	SharpnessPerEdge(dst []float32) []float32
	// ChildSharpness returns the subdivided sharpness of the child vertex.
	ChildSharpness(c Crease) float32
	// ChildSharpnessPerEdge fills dst with the subdivided sharpness of the
	// child half of each incident edge adjacent to this vertex.
	ChildSharpnessPerEdge(c Crease, dst []float32) []float32
}

// Scheme computes subdivision mask weights for vertices generated by
// refinement. The mask queries are given topological neighborhoods from
// which to compute the appropriate weights over neighboring components;
// the computation of subdivided sharpness values is independent of the
// scheme type and available through [Crease].
type Scheme struct {
	typ  SchemeType
	opts Options
}

// NewScheme returns a Scheme of the given type configured by opts.
// Loop masks are not implemented and panic when queried.
func NewScheme(typ SchemeType, opts Options) Scheme {
	return Scheme{typ: typ, opts: opts}
}

// Type returns the scheme's subdivision type.
func (s Scheme) Type() SchemeType { return s.typ }

// Options returns the scheme's option set.
func (s Scheme) Options() Options { return s.opts }

// Masks with valence above this spill to the heap when a transitional
// child mask must be computed alongside the caller's.
const maskStackValence = 32

// ComputeFaceVertexMask fills mask for the vertex generated at the
// centroid of face. Trivial and consistent for all schemes.
func (s Scheme) ComputeFaceVertexMask(face FaceNeighborhood, mask *Mask) {
	n := face.VertexCount()
	if n == 0 {
		panicf("subd: face-vertex mask over empty face")
	}
	mask.V = resizeWeights(mask.V, n)
	mask.E = mask.E[:0]
	mask.F = mask.F[:0]
	w := 1 / float32(n)
	for i := range mask.V {
		mask.V[i] = w
	}
}

// ComputeEdgeVertexMask fills mask for the vertex generated at the
// midpoint of edge. If known, the rules for the parent edge and the
// derived child vertex may be passed to skip sharpness inspection;
// RuleUnknown computes them from the neighborhood. Only Smooth and Crease
// are legal parent rules, with Dart additionally legal for the child;
// results are undefined otherwise.
func (s Scheme) ComputeEdgeVertexMask(edge EdgeNeighborhood, mask *Mask, parentRule, childRule Rule) {
	if s.typ == SchemeLoop {
		panicf("subd: Loop scheme masks not supported")
	}
	if s.typ == SchemeBilinear {
		s.assignCreaseMaskForEdge(edge, mask)
		return
	}
	//  Parent specified or determined Smooth yields a smooth mask
	//  immediately. Otherwise the parent is a crease; a child specified
	//  as a crease yields a crease mask immediately.
	if parentRule == RuleSmooth ||
		(parentRule == RuleUnknown && !IsSharp(edge.Sharpness())) {
		s.assignSmoothMaskForEdge(edge, mask)
		return
	}
	if childRule == RuleCrease {
		s.assignCreaseMaskForEdge(edge, mask)
		return
	}
	//  The parent is a crease and the child was either specified Smooth
	//  or not specified. Qualify an unspecified child from sharpness,
	//  again returning a crease mask if the child remains a crease.
	//
	//  Parent sharpness of one or more is always a full crease: the
	//  fractional weight for such a transition clamps to one regardless
	//  of whether the child sharpness decays to zero.
	if childRule == RuleUnknown {
		crease := NewCrease(s.opts)

		childIsCrease := false
		switch {
		case parentRule == RuleCrease:
			childIsCrease = true
		case edge.Sharpness() >= 1:
			childIsCrease = true
		case crease.IsUniform():
			// Sharpness below one decays to zero on both child halves.
			childIsCrease = false
		default:
			var buf [2]float32
			cs := edge.ChildSharpness(crease, buf[:0])
			childIsCrease = IsSharp(cs[0]) && IsSharp(cs[1])
		}
		if childIsCrease {
			s.assignCreaseMaskForEdge(edge, mask)
			return
		}
	}
	//  Crease-to-smooth transition: compute the smooth mask for the child
	//  and augment it with the transitional crease of the parent. A
	//  general mask combination is overkill here; fold the crease's 0.5
	//  vertex coefficients into the vertex weights and attenuate the face
	//  weights by the child coefficient.
	s.assignSmoothMaskForEdge(edge, mask)

	pWeight := clampf(edge.Sharpness(), 0, 1)
	cWeight := 1 - pWeight

	mask.V[0] = pWeight*0.5 + cWeight*mask.V[0]
	mask.V[1] = pWeight*0.5 + cWeight*mask.V[1]
	for i := range mask.F {
		mask.F[i] *= cWeight
	}
}

// ComputeVertexVertexMask fills mask for the child vertex of a parent
// vertex. If known, one or both rules may be passed to skip sharpness
// inspection. Passing only the parent rule implies no rule transition;
// passing RuleUnknown for both computes them from the neighborhood.
func (s Scheme) ComputeVertexVertexMask(vertex VertexNeighborhood, mask *Mask, pRule, cRule Rule) {
	if s.typ == SchemeLoop {
		panicf("subd: Loop scheme masks not supported")
	}
	if s.typ == SchemeBilinear {
		s.assignCornerMaskForVertex(vertex, mask)
		return
	}
	//  Quick assignment and return for the most common case:
	if pRule == RuleSmooth || pRule == RuleDart {
		s.assignSmoothMaskForVertex(vertex, mask)
		return
	}
	//  If unspecified, the child rule matches a specified parent rule:
	if cRule == RuleUnknown && pRule != RuleUnknown {
		cRule = pRule
	}
	valence := vertex.EdgeCount()

	//  Identify parent sharpness if the parent rule requires it and use
	//  it to compute the parent rule when unspecified:
	var pEdgeBuf [maskStackValence]float32
	var pEdgeSharpness []float32
	pVertSharpness := float32(0)

	crease := NewCrease(s.opts)

	requireParentSharpness := pRule == RuleUnknown || pRule == RuleCrease || pRule != cRule
	if requireParentSharpness {
		pVertSharpness = vertex.Sharpness()
		pEdgeSharpness = vertex.SharpnessPerEdge(pEdgeBuf[:0])

		if pRule == RuleUnknown {
			pRule = crease.DetermineVertexVertexRule(pVertSharpness, pEdgeSharpness)
		}
	}
	switch pRule {
	case RuleSmooth, RuleDart:
		s.assignSmoothMaskForVertex(vertex, mask)
		return
	case RuleCrease:
		s.assignCreaseMaskForVertex(vertex, mask, pEdgeSharpness)
	case RuleCorner:
		s.assignCornerMaskForVertex(vertex, mask)
	}
	if cRule == pRule {
		return
	}

	//  Identify child sharpness to determine the child rule and combine
	//  masks across the transition:
	var cEdgeBuf [maskStackValence]float32
	cEdgeSharpness := vertex.ChildSharpnessPerEdge(crease, cEdgeBuf[:0])
	cVertSharpness := vertex.ChildSharpness(crease)

	if cRule == RuleUnknown {
		cRule = crease.DetermineVertexVertexRule(cVertSharpness, cEdgeSharpness)
		if cRule == pRule {
			return
		}
	}

	//  Assign a local mask for the child rule and blend it with the
	//  parent mask by the fractional weight:
	var cMaskBuf [1 + 2*maskStackValence]float32
	var cMask Mask
	if valence <= maskStackValence {
		cMask = Mask{
			V: cMaskBuf[:0:1],
			E: cMaskBuf[1 : 1 : 1+valence],
			F: cMaskBuf[1+valence : 1+valence : 1+2*valence],
		}
	}

	switch cRule {
	case RuleSmooth, RuleDart:
		s.assignSmoothMaskForVertex(vertex, &cMask)
	case RuleCrease:
		s.assignCreaseMaskForVertex(vertex, &cMask, cEdgeSharpness)
	case RuleCorner:
		s.assignCornerMaskForVertex(vertex, &cMask)
	}

	pWeight := crease.ComputeFractionalWeightAtVertex(pVertSharpness, cVertSharpness, pEdgeSharpness, cEdgeSharpness)
	cWeight := 1 - pWeight

	combineVertexVertexMasks(&cMask, cWeight, pWeight, mask)
}

// combineVertexVertexMasks blends src scaled by srcCoeff into dst scaled
// by dstCoeff. Vertex-vertex masks always carry exactly one vertex weight
// while the edge and face weights are optional; the child mask (the
// source) holds a superset of the parent's weights given its reduced
// sharpness, so the remaining permutations need not be handled.
func combineVertexVertexMasks(src *Mask, srcCoeff, dstCoeff float32, dst *Mask) {
	dst.V[0] = dstCoeff*dst.V[0] + srcCoeff*src.V[0]

	if len(src.E) != 0 {
		if len(dst.E) == 0 {
			dst.E = resizeWeights(dst.E, len(src.E))
			for i := range src.E {
				dst.E[i] = srcCoeff * src.E[i]
			}
		} else {
			for i := range src.E {
				dst.E[i] = dstCoeff*dst.E[i] + srcCoeff*src.E[i]
			}
		}
	}
	if len(src.F) != 0 {
		if len(dst.F) == 0 {
			dst.F = resizeWeights(dst.F, len(src.F))
			for i := range src.F {
				dst.F[i] = srcCoeff * src.F[i]
			}
		} else {
			for i := range src.F {
				dst.F[i] = dstCoeff*dst.F[i] + srcCoeff*src.F[i]
			}
		}
	}
}

//  Crease and corner masks are common to all schemes; the smooth masks
//  below are specific to Catmark.

func (s Scheme) assignCreaseMaskForEdge(_ EdgeNeighborhood, mask *Mask) {
	mask.V = resizeWeights(mask.V, 2)
	mask.E = mask.E[:0]
	mask.F = mask.F[:0]
	mask.V[0] = 0.5
	mask.V[1] = 0.5
}

func (s Scheme) assignSmoothMaskForEdge(edge EdgeNeighborhood, mask *Mask) {
	faceCount := edge.FaceCount()

	mask.V = resizeWeights(mask.V, 2)
	mask.E = mask.E[:0]
	mask.F = resizeWeights(mask.F, faceCount)

	//  Triangular faces weight the edge differently when the
	//  smooth-triangle option is engaged:
	face0IsTri, face1IsTri := false, false
	useTriangleOption := s.opts.TriangleSub == TriangleSubSmooth
	if useTriangleOption {
		if faceCount == 2 {
			var buf [2]int
			vertsPerFace := edge.VertexCountPerFace(buf[:0])
			face0IsTri = vertsPerFace[0] == 3
			face1IsTri = vertsPerFace[1] == 3
			useTriangleOption = face0IsTri || face1IsTri
		} else {
			useTriangleOption = false
		}
	}

	if !useTriangleOption {
		mask.V[0] = 0.25
		mask.V[1] = 0.25
		fWeight := 0.5 / float32(faceCount)
		for i := range mask.F {
			mask.F[i] = fWeight
		}
	} else {
		const smoothTriEdgeWeight = float32(0.470)

		f0Weight := float32(0.25)
		if face0IsTri {
			f0Weight = smoothTriEdgeWeight
		}
		f1Weight := float32(0.25)
		if face1IsTri {
			f1Weight = smoothTriEdgeWeight
		}
		fWeight := 0.5 * (f0Weight + f1Weight)
		vWeight := 0.5 * (1 - 2*fWeight)

		mask.V[0] = vWeight
		mask.V[1] = vWeight
		mask.F[0] = fWeight
		mask.F[1] = fWeight
	}
}

func (s Scheme) assignCornerMaskForVertex(_ VertexNeighborhood, mask *Mask) {
	mask.V = resizeWeights(mask.V, 1)
	mask.E = mask.E[:0]
	mask.F = mask.F[:0]
	mask.V[0] = 1
}

// assignCreaseMaskForVertex expects exactly two sharp incident edges in
// sharpness; their far endpoints share the crease with the vertex.
func (s Scheme) assignCreaseMaskForVertex(vertex VertexNeighborhood, mask *Mask, sharpness []float32) {
	valence := vertex.EdgeCount()

	mask.V = resizeWeights(mask.V, 1)
	mask.E = resizeWeights(mask.E, valence)
	mask.F = mask.F[:0]

	mask.V[0] = 0.75
	for i := range mask.E {
		if IsSharp(sharpness[i]) {
			mask.E[i] = 0.125
		} else {
			mask.E[i] = 0
		}
	}
}

func (s Scheme) assignSmoothMaskForVertex(vertex VertexNeighborhood, mask *Mask) {
	valence := vertex.EdgeCount()
	faceCount := vertex.FaceCount()
	if valence == 0 {
		panicf("subd: vertex-vertex mask over isolated vertex")
	}

	mask.V = resizeWeights(mask.V, 1)
	mask.E = resizeWeights(mask.E, valence)
	mask.F = resizeWeights(mask.F, faceCount)

	//  Classic Catmark vertex rule: each incident edge endpoint and each
	//  incident face centroid contributes 1/n², the vertex the remainder,
	//  which is (n-2)/n in the manifold interior.
	w := 1 / float32(valence*valence)
	for i := range mask.E {
		mask.E[i] = w
	}
	for i := range mask.F {
		mask.F[i] = w
	}
	mask.V[0] = 1 - float32(valence+faceCount)*w
}

func resizeWeights(w []float32, n int) []float32 {
	if cap(w) >= n {
		return w[:n]
	}
	return make([]float32, n)
}
