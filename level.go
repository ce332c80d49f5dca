package subd

import (
	"errors"
	"fmt"
)

// ragged is a compressed ragged array of index rows: row i spans
// values[offsets[i]:offsets[i+1]]. Views into it are non-owning slices.
type ragged struct {
	offsets []int32
	values  []Index
}

func newRaggedFromCounts(counts []int32) ragged {
	offsets := make([]int32, len(counts)+1)
	var total int32
	for i, c := range counts {
		offsets[i] = total
		total += c
	}
	offsets[len(counts)] = total
	return ragged{offsets: offsets, values: make([]Index, total)}
}

func newRaggedUniform(rows, perRow int) ragged {
	offsets := make([]int32, rows+1)
	for i := range offsets {
		offsets[i] = int32(i * perRow)
	}
	return ragged{offsets: offsets, values: make([]Index, rows*perRow)}
}

func (r *ragged) rows() int { return max(len(r.offsets)-1, 0) }

func (r *ragged) row(i Index) []Index {
	return r.values[r.offsets[i]:r.offsets[i+1]]
}

func (r *ragged) count(i Index) int {
	return int(r.offsets[i+1] - r.offsets[i])
}

// VertexTag carries optional per-vertex classification bits.
type VertexTag struct {
	// Rule caches the vertex's crease classification. RuleUnknown until
	// sharpness has been finalized.
	Rule Rule
	// Incomplete marks child vertices of a sparse refinement whose parent
	// neighborhood was not fully selected.
	Incomplete bool
	// NonManifold marks vertices whose neighborhood failed the manifold
	// ordering walk.
	NonManifold bool
}

// EdgeTag carries optional per-edge classification bits.
type EdgeTag struct {
	// Boundary marks edges with a single incident face.
	Boundary bool
	// NonManifold marks edges with three or more incident faces.
	NonManifold bool
}

// Level is a complete topology snapshot at one subdivision depth. All
// adjacency queries are O(1) views into compressed ragged arrays. A Level
// is mutated only while being populated, either from raw face-vertex
// topology at the base or by a [Refinement]; once fully populated it is
// immutable and safe for concurrent reads.
type Level struct {
	depth     int
	vertCount int

	faceVerts ragged
	faceEdges ragged // parallel to faceVerts: faceEdges(f)[i] joins faceVerts(f)[i] and [i+1]
	edgeVerts []Index
	edgeFaces ragged
	vertEdges ragged
	vertFaces ragged

	edgeSharpness []float32
	vertSharpness []float32

	vertTags []VertexTag
	edgeTags []EdgeTag
}

// Depth returns the subdivision depth; the base level is 0.
func (l *Level) Depth() int { return l.depth }

// FaceCount returns the number of faces in the level.
func (l *Level) FaceCount() int { return l.faceVerts.rows() }

// EdgeCount returns the number of edges in the level. Zero on terminal
// levels refined with face topology only.
func (l *Level) EdgeCount() int { return len(l.edgeVerts) / 2 }

// VertexCount returns the number of vertices in the level.
func (l *Level) VertexCount() int { return l.vertCount }

// FaceVertices returns face f's vertices in winding order. The returned
// view must not be modified.
func (l *Level) FaceVertices(f Index) []Index { return l.faceVerts.row(f) }

// FaceEdges returns face f's edges, parallel to [Level.FaceVertices]:
// edge i joins vertices i and i+1 of the face.
func (l *Level) FaceEdges(f Index) []Index { return l.faceEdges.row(f) }

// EdgeVertices returns edge e's two endpoints.
func (l *Level) EdgeVertices(e Index) []Index { return l.edgeVerts[2*e : 2*e+2] }

// EdgeFaces returns edge e's incident faces: one on a boundary, two in a
// manifold interior, more when non-manifold.
func (l *Level) EdgeFaces(e Index) []Index { return l.edgeFaces.row(e) }

// VertexEdges returns vertex v's incident edges, rotationally ordered and
// interleaved with [Level.VertexFaces] where the neighborhood is manifold.
func (l *Level) VertexEdges(v Index) []Index { return l.vertEdges.row(v) }

// VertexFaces returns vertex v's incident faces. Where the neighborhood
// is manifold face i lies between edges i and i+1 of [Level.VertexEdges].
func (l *Level) VertexFaces(v Index) []Index { return l.vertFaces.row(v) }

// EdgeSharpness returns edge e's sharpness.
func (l *Level) EdgeSharpness(e Index) float32 { return l.edgeSharpness[e] }

// VertexSharpness returns vertex v's sharpness.
func (l *Level) VertexSharpness(v Index) float32 { return l.vertSharpness[v] }

// VertexTagOf returns the classification bits of vertex v.
func (l *Level) VertexTagOf(v Index) VertexTag { return l.vertTags[v] }

// EdgeTagOf returns the classification bits of edge e.
func (l *Level) EdgeTagOf(e Index) EdgeTag { return l.edgeTags[e] }

// SetEdgeSharpness assigns sharpness to edge e. Negative values are a
// programmer error. Construction phase only.
func (l *Level) SetEdgeSharpness(e Index, s float32) {
	if s < 0 {
		panicf("subd: negative edge sharpness %f", s)
	}
	l.edgeSharpness[e] = s
}

// SetVertexSharpness assigns sharpness to vertex v. Construction phase only.
func (l *Level) SetVertexSharpness(v Index, s float32) {
	if s < 0 {
		panicf("subd: negative vertex sharpness %f", s)
	}
	l.vertSharpness[v] = s
}

// FindEdge returns the edge joining v0 and v1, or InvalidIndex.
func (l *Level) FindEdge(v0, v1 Index) Index {
	for _, e := range l.vertEdges.row(v0) {
		ev := l.EdgeVertices(e)
		if (ev[0] == v0 && ev[1] == v1) || (ev[0] == v1 && ev[1] == v0) {
			return e
		}
	}
	return InvalidIndex
}

// SetFaceVertices populates the level's face-vertex lists from raw
// topology: vertsPerFace holds each face's vertex count (at least 3) and
// vertIndices their concatenated vertex index lists. The remaining
// adjacency is derived by [Level.CompleteTopologyFromFaceVertices].
func (l *Level) SetFaceVertices(numVertices int, vertsPerFace []int32, vertIndices []Index) error {
	if numVertices <= 0 {
		return errors.New("subd: level requires at least one vertex")
	}
	var total int32
	for f, c := range vertsPerFace {
		if c < 3 {
			return fmt.Errorf("subd: face %d has %d vertices, need at least 3", f, c)
		}
		total += c
	}
	if int(total) != len(vertIndices) {
		return fmt.Errorf("subd: vertex index list length %d does not match per-face counts sum %d", len(vertIndices), total)
	}
	for i, v := range vertIndices {
		if v < 0 || int(v) >= numVertices {
			return fmt.Errorf("subd: vertex index %d out of range at position %d", v, i)
		}
	}
	l.vertCount = numVertices
	l.faceVerts = newRaggedFromCounts(vertsPerFace)
	copy(l.faceVerts.values, vertIndices)
	l.vertSharpness = make([]float32, numVertices)
	l.vertTags = make([]VertexTag, numVertices)
	return nil
}

// CompleteTopologyFromFaceVertices derives all remaining adjacency from
// the face-vertex lists: edges are deduplicated across faces, edge-face
// and vertex incidence relations are built, and vertex neighborhoods are
// rotationally ordered where manifold. Sharpness arrays are allocated
// zeroed; creases and boundary sharpening are assigned afterwards.
func (l *Level) CompleteTopologyFromFaceVertices() error {
	if l.vertCount == 0 {
		return errors.New("subd: face vertices not set")
	}
	l.buildEdges()
	l.buildEdgeFaces()
	l.buildVertexRelations()
	l.edgeSharpness = make([]float32, l.EdgeCount())
	l.edgeTags = make([]EdgeTag, l.EdgeCount())
	for e := Index(0); int(e) < l.EdgeCount(); e++ {
		n := l.edgeFaces.count(e)
		l.edgeTags[e].Boundary = n == 1
		l.edgeTags[e].NonManifold = n > 2
	}
	return nil
}

// buildEdges deduplicates edges across faces and fills edgeVerts and
// faceEdges. Endpoints are stored in order of first encounter, which is
// deterministic for a given face list.
func (l *Level) buildEdges() {
	type vertPair struct{ a, b Index }
	canon := func(a, b Index) vertPair {
		if a > b {
			a, b = b, a
		}
		return vertPair{a, b}
	}
	edgeOf := make(map[vertPair]Index, len(l.faceVerts.values))
	l.faceEdges = ragged{offsets: l.faceVerts.offsets, values: make([]Index, len(l.faceVerts.values))}
	l.edgeVerts = l.edgeVerts[:0]
	for f := Index(0); int(f) < l.FaceCount(); f++ {
		fv := l.faceVerts.row(f)
		fe := l.faceEdges.row(f)
		for i := range fv {
			v0, v1 := fv[i], fv[(i+1)%len(fv)]
			key := canon(v0, v1)
			e, ok := edgeOf[key]
			if !ok {
				e = Index(len(l.edgeVerts) / 2)
				edgeOf[key] = e
				l.edgeVerts = append(l.edgeVerts, v0, v1)
			}
			fe[i] = e
		}
	}
}

func (l *Level) buildEdgeFaces() {
	counts := make([]int32, l.EdgeCount())
	for _, e := range l.faceEdges.values {
		counts[e]++
	}
	l.edgeFaces = newRaggedFromCounts(counts)
	fill := make([]int32, l.EdgeCount())
	for f := Index(0); int(f) < l.FaceCount(); f++ {
		for _, e := range l.faceEdges.row(f) {
			l.edgeFaces.values[l.edgeFaces.offsets[e]+fill[e]] = f
			fill[e]++
		}
	}
}

// vertIncidence records one corner of a face meeting a vertex.
type vertIncidence struct {
	face   Index
	corner int32
}

// buildVertexRelations fills vertEdges and vertFaces. Manifold vertex
// neighborhoods are ordered by walking faces across shared edges so that
// face i lies between edges i and i+1; neighborhoods that fail the walk
// are stored in discovery order and tagged non-manifold.
func (l *Level) buildVertexRelations() {
	counts := make([]int32, l.vertCount)
	for _, v := range l.faceVerts.values {
		counts[v]++
	}
	incOffsets := make([]int32, l.vertCount+1)
	var total int32
	for v, c := range counts {
		incOffsets[v] = total
		total += c
	}
	incOffsets[l.vertCount] = total
	incidences := make([]vertIncidence, total)
	fill := make([]int32, l.vertCount)
	for f := Index(0); int(f) < l.FaceCount(); f++ {
		for i, v := range l.faceVerts.row(f) {
			incidences[incOffsets[v]+fill[v]] = vertIncidence{face: f, corner: int32(i)}
			fill[v]++
		}
	}

	faceCounts := make([]int32, l.vertCount)
	copy(faceCounts, counts)
	l.vertFaces = newRaggedFromCounts(faceCounts)

	// Incident edge counts are not known until walking: an interior
	// manifold vertex has as many edges as faces, a boundary vertex one
	// more. Gather per vertex into scratch and pack at the end.
	vertEdgeLists := make([][]Index, l.vertCount)
	var edgeScratch []Index

	for v := Index(0); int(v) < l.vertCount; v++ {
		inc := incidences[incOffsets[v]:incOffsets[v+1]]
		faces := l.vertFaces.row(v)
		edgeScratch = edgeScratch[:0]

		if len(inc) == 0 {
			vertEdgeLists[v] = nil
			continue
		}
		ordered := l.orderVertexIncidences(inc, faces, &edgeScratch)
		if !ordered {
			l.vertTags[v].NonManifold = true
			edgeScratch = edgeScratch[:0]
			for k, in := range inc {
				faces[k] = in.face
				fe := l.faceEdges.row(in.face)
				n := len(fe)
				eIn := fe[(int(in.corner)+n-1)%n]
				eOut := fe[in.corner]
				edgeScratch = appendUniqueIndex(edgeScratch, eIn)
				edgeScratch = appendUniqueIndex(edgeScratch, eOut)
			}
		}
		vertEdgeLists[v] = append([]Index(nil), edgeScratch...)
	}

	edgeCounts := make([]int32, l.vertCount)
	for v, edges := range vertEdgeLists {
		edgeCounts[v] = int32(len(edges))
	}
	l.vertEdges = newRaggedFromCounts(edgeCounts)
	for v, edges := range vertEdgeLists {
		copy(l.vertEdges.row(Index(v)), edges)
	}
}

// orderVertexIncidences attempts the manifold rotational walk around v,
// filling faces and appending edges to *edges. It reports failure when
// the neighborhood is non-manifold or inconsistently wound.
func (l *Level) orderVertexIncidences(inc []vertIncidence, faces []Index, edges *[]Index) bool {
	inEdge := func(k int) Index {
		fe := l.faceEdges.row(inc[k].face)
		n := len(fe)
		return fe[(int(inc[k].corner)+n-1)%n]
	}
	outEdge := func(k int) Index {
		return l.faceEdges.row(inc[k].face)[inc[k].corner]
	}
	// Any non-manifold incident edge defeats the walk.
	for k := range inc {
		if l.edgeFaces.count(inEdge(k)) > 2 || l.edgeFaces.count(outEdge(k)) > 2 {
			return false
		}
	}
	incOf := make(map[Index]int, len(inc))
	for k := range inc {
		if _, dup := incOf[inc[k].face]; dup {
			return false // face touches v at two corners
		}
		incOf[inc[k].face] = k
	}
	// Start at a face whose incoming edge is a boundary, else anywhere.
	start := 0
	boundaryStarts := 0
	for k := range inc {
		if l.edgeFaces.count(inEdge(k)) == 1 {
			start = k
			boundaryStarts++
		}
	}
	if boundaryStarts > 1 {
		return false // multiple boundary fans share the vertex
	}
	cur := start
	visited := make([]bool, len(inc))
	for k := 0; k < len(inc); k++ {
		if visited[cur] {
			return false // closed fan smaller than the full neighborhood
		}
		visited[cur] = true
		faces[k] = inc[cur].face
		*edges = append(*edges, inEdge(cur))

		out := outEdge(cur)
		ef := l.edgeFaces.row(out)
		if len(ef) == 1 {
			// Boundary terminates the walk; all faces must be consumed.
			if k != len(inc)-1 {
				return false
			}
			*edges = append(*edges, out)
			return true
		}
		next := ef[0]
		if next == inc[cur].face {
			next = ef[1]
		}
		nk, ok := incOf[next]
		if !ok {
			return false
		}
		cur = nk
	}
	// Interior: the walk must close back on the start.
	return cur == start
}

func appendUniqueIndex(s []Index, x Index) []Index {
	for _, y := range s {
		if y == x {
			return s
		}
	}
	return append(s, x)
}

// ApplyBoundarySharpness realizes the boundary interpolation option by
// sharpening boundary features: EdgeOnly and EdgeAndCorner pin boundary
// edges, EdgeAndCorner additionally pins corner vertices with a single
// incident face. The crease algebra then drives boundary rules with no
// further special casing. Base level construction only; child levels
// inherit boundary sharpness through subdivision.
func (l *Level) ApplyBoundarySharpness(opts Options) {
	if opts.Boundary == BoundaryNone {
		return
	}
	for e := Index(0); int(e) < l.EdgeCount(); e++ {
		if l.edgeFaces.count(e) == 1 {
			l.edgeSharpness[e] = SharpnessInfinite
		}
	}
	if opts.Boundary == BoundaryEdgeAndCorner {
		for v := Index(0); int(v) < l.vertCount; v++ {
			if l.vertFaces.count(v) == 1 && l.vertEdges.count(v) == 2 {
				l.vertSharpness[v] = SharpnessInfinite
			}
		}
	}
}

// UpdateVertexRules recomputes the cached crease rule tag of every vertex
// from current sharpness values. Call after all sharpness assignment.
func (l *Level) UpdateVertexRules(opts Options) {
	crease := NewCrease(opts)
	var buf [maskStackValence]float32
	for v := Index(0); int(v) < l.vertCount; v++ {
		edges := l.vertEdges.row(v)
		es := buf[:0]
		if len(edges) > len(buf) {
			es = make([]float32, 0, len(edges))
		}
		for _, e := range edges {
			es = append(es, l.edgeSharpness[e])
		}
		l.vertTags[v].Rule = crease.DetermineVertexVertexRule(l.vertSharpness[v], es)
	}
}

// ValidateTopology checks the level's structural invariants and returns a
// diagnosis of every violation found, or nil. Intended for tests and
// assertions on externally populated base levels. Levels refined with
// face topology only carry no adjacency; for those only the face-vertex
// lists and sharpness signs are checked.
func (l *Level) ValidateTopology() error {
	var errs []error
	if l.faceEdges.offsets == nil {
		for f := Index(0); int(f) < l.FaceCount(); f++ {
			for i, v := range l.faceVerts.row(f) {
				if v < 0 || int(v) >= l.vertCount {
					errs = append(errs, fmt.Errorf("face %d corner %d: vertex %d out of range", f, i, v))
				}
			}
		}
		for v := Index(0); int(v) < l.vertCount; v++ {
			if l.vertSharpness[v] < 0 {
				errs = append(errs, fmt.Errorf("vertex %d has negative sharpness", v))
			}
		}
		return errors.Join(errs...)
	}
	for f := Index(0); int(f) < l.FaceCount(); f++ {
		fv, fe := l.faceVerts.row(f), l.faceEdges.row(f)
		if len(fv) != len(fe) {
			errs = append(errs, fmt.Errorf("face %d: %d vertices but %d edges", f, len(fv), len(fe)))
			continue
		}
		for i, e := range fe {
			found := false
			for _, g := range l.edgeFaces.row(e) {
				found = found || g == f
			}
			if !found {
				errs = append(errs, fmt.Errorf("face %d edge %d (index %d) does not list the face back", f, i, e))
			}
			v0, v1 := fv[i], fv[(i+1)%len(fv)]
			ev := l.EdgeVertices(e)
			if !((ev[0] == v0 && ev[1] == v1) || (ev[0] == v1 && ev[1] == v0)) {
				errs = append(errs, fmt.Errorf("face %d edge %d joins %v, face corner expects {%d %d}", f, i, ev, v0, v1))
			}
		}
	}
	for e := Index(0); int(e) < l.EdgeCount(); e++ {
		if l.edgeFaces.count(e) < 1 {
			errs = append(errs, fmt.Errorf("edge %d has no incident face", e))
		}
		if l.edgeSharpness[e] < 0 {
			errs = append(errs, fmt.Errorf("edge %d has negative sharpness", e))
		}
	}
	for v := Index(0); int(v) < l.vertCount; v++ {
		if l.vertSharpness[v] < 0 {
			errs = append(errs, fmt.Errorf("vertex %d has negative sharpness", v))
		}
		if l.vertTags[v].NonManifold {
			continue
		}
		nf, ne := l.vertFaces.count(v), l.vertEdges.count(v)
		if nf == 0 && ne == 0 {
			continue // isolated vertex
		}
		if nf != ne && nf != ne-1 {
			errs = append(errs, fmt.Errorf("manifold vertex %d has %d faces and %d edges", v, nf, ne))
		}
	}
	return errors.Join(errs...)
}
