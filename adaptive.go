package subd

// catmarkFeatureAdaptiveSelector selects all components of the parent
// level whose refinement is required to isolate irregular or sharp
// features for patch fitting. It assumes a freshly initialized selector
// with nothing selected; selection is additive, so a component may be
// selected by several of the policies below.
func catmarkFeatureAdaptiveSelector(selector *SparseSelector) {
	level := selector.Refinement().Parent()

	//  Faces need inspection at the base level only: non-quads introduce
	//  an extraordinary vertex in their interior, and quads with two
	//  opposite boundary edges form a B-spline boundary configuration the
	//  downstream patch types cannot represent without one isolating
	//  refinement. One level down every face is a quad and any remaining
	//  boundary pattern was already isolated.
	if level.Depth() == 0 {
		for face := Index(0); int(face) < level.FaceCount(); face++ {
			faceVerts := level.FaceVertices(face)

			if len(faceVerts) != 4 {
				selector.SelectFace(face)
				continue
			}
			faceEdges := level.FaceEdges(face)
			boundaryEdgeSum := b2i(len(level.EdgeFaces(faceEdges[0])) == 1) +
				b2i(len(level.EdgeFaces(faceEdges[1])) == 1) +
				b2i(len(level.EdgeFaces(faceEdges[2])) == 1) +
				b2i(len(level.EdgeFaces(faceEdges[3])) == 1)
			if boundaryEdgeSum > 2 || (boundaryEdgeSum == 2 &&
				len(level.EdgeFaces(faceEdges[0])) == len(level.EdgeFaces(faceEdges[2]))) {
				selector.SelectFace(face)
			}
		}
	}

	//  Vertices generated next to unselected neighborhoods of the
	//  previous level are skipped immediately.
	//
	//  Sharp vertices are complicated by the corner case: an infinitely
	//  sharp corner with a single incident face is a regular feature
	//  needing no isolation, while any other sharpness eventually decays
	//  and leaves the vertex extraordinary.
	for vert := Index(0); int(vert) < level.VertexCount(); vert++ {
		if selector.IsVertexIncomplete(vert) {
			continue
		}
		selectVertex := false

		vertSharpness := level.VertexSharpness(vert)
		if IsSharp(vertSharpness) {
			selectVertex = len(level.VertexFaces(vert)) != 1 || !IsInfinitelySharp(vertSharpness)
		} else {
			vertFaces := level.VertexFaces(vert)
			vertEdges := level.VertexEdges(vert)

			// Should be a non-manifold test; remaining cases assume manifold.
			if len(vertFaces) == len(vertEdges) {
				selectVertex = len(vertFaces) != 4
			} else {
				selectVertex = len(vertFaces) != 2
			}
		}
		if selectVertex {
			selector.SelectVertexFaces(vert)
		}
	}

	//  Only sharp edges matter here, and of those boundary edges are
	//  already regular B-spline boundaries unless an end vertex made them
	//  otherwise, which the vertex pass above detected. Rejecting
	//  boundaries this way keeps non-manifold edges selected.
	for edge := Index(0); int(edge) < level.EdgeCount(); edge++ {
		if !IsSharp(level.EdgeSharpness(edge)) || len(level.EdgeFaces(edge)) < 2 {
			continue
		}
		edgeVerts := level.EdgeVertices(edge)
		if !selector.IsVertexIncomplete(edgeVerts[0]) {
			selector.SelectVertexFaces(edgeVerts[0])
		}
		if !selector.IsVertexIncomplete(edgeVerts[1]) {
			selector.SelectVertexFaces(edgeVerts[1])
		}
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
