package subdaux

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/subd"
)

// InterpolatePositions interpolates base control positions through every
// refinement of rt, returning one position slice per level with the base
// slice at index 0. The refinements must have been run with masks.
func InterpolatePositions(rt *subd.RefineTables, base []ms3.Vec) [][]ms3.Vec {
	levels := make([][]ms3.Vec, 0, rt.LevelCount())
	levels = append(levels, base)
	for i := 0; i < rt.RefinementCount(); i++ {
		levels = append(levels, InterpolateLevel(rt.Refinement(i), levels[i]))
	}
	return levels
}

// InterpolateUVs interpolates base UV coordinates through every
// refinement of rt, one slice per level with the base at index 0.
func InterpolateUVs(rt *subd.RefineTables, base []ms2.Vec) [][]ms2.Vec {
	levels := make([][]ms2.Vec, 0, rt.LevelCount())
	levels = append(levels, base)
	for i := 0; i < rt.RefinementCount(); i++ {
		levels = append(levels, interpolateRefinement(r2{}, rt.Refinement(i), levels[i]))
	}
	return levels
}

// InterpolateLevel applies the stored masks of a single refinement to the
// parent level's positions, returning the child level's positions.
func InterpolateLevel(r *subd.Refinement, parent []ms3.Vec) []ms3.Vec {
	return interpolateRefinement(r3{}, r, parent)
}

// vecOps abstracts the two vector dimensions the interpolator supports.
type vecOps[T any] interface {
	add(a, b T) T
	scale(k float32, v T) T
}

type r3 struct{}

func (r3) add(a, b ms3.Vec) ms3.Vec           { return ms3.Add(a, b) }
func (r3) scale(k float32, v ms3.Vec) ms3.Vec { return ms3.Scale(k, v) }

type r2 struct{}

func (r2) add(a, b ms2.Vec) ms2.Vec           { return ms2.Add(a, b) }
func (r2) scale(k float32, v ms2.Vec) ms2.Vec { return ms2.Scale(k, v) }

// interpolateRefinement evaluates every child vertex's mask against the
// parent primvar values. Face weights reference parent face centroids:
// face-origin children are sequenced first, so the centroid values are
// already resolved in dst by the time edge and vertex children consume
// them. Under sparse refinement an unselected face has no centroid child
// and its centroid is averaged from the parent values directly.
func interpolateRefinement[T any, O vecOps[T]](ops O, r *subd.Refinement, src []T) []T {
	if !r.HasMasks() {
		panic("subdaux: refinement carries no masks; refine with computeMasks")
	}
	p := r.Parent()
	if len(src) != p.VertexCount() {
		panic("subdaux: primvar count does not match parent vertex count")
	}
	dst := make([]T, r.Child().VertexCount())
	centroid := func(f subd.Index) T {
		if cv := r.FaceChildVertex(f); cv != subd.InvalidIndex {
			return dst[cv]
		}
		fv := p.FaceVertices(f)
		var sum T
		for _, v := range fv {
			sum = ops.add(sum, src[v])
		}
		return ops.scale(1/float32(len(fv)), sum)
	}
	for cv := subd.Index(0); int(cv) < len(dst); cv++ {
		kind, parent := r.ChildVertexOrigin(cv)
		mask := r.ChildVertexMask(cv)
		var acc T
		switch kind {
		case subd.KindFace:
			for i, v := range p.FaceVertices(parent) {
				acc = ops.add(acc, ops.scale(mask.V[i], src[v]))
			}
		case subd.KindEdge:
			ev := p.EdgeVertices(parent)
			acc = ops.add(ops.scale(mask.V[0], src[ev[0]]), ops.scale(mask.V[1], src[ev[1]]))
			// Crease masks carry no face weights.
			for i, f := range p.EdgeFaces(parent) {
				if i >= len(mask.F) || mask.F[i] == 0 {
					continue
				}
				acc = ops.add(acc, ops.scale(mask.F[i], centroid(f)))
			}
		case subd.KindVertex:
			acc = ops.scale(mask.V[0], src[parent])
			for i, e := range p.VertexEdges(parent) {
				if i >= len(mask.E) || mask.E[i] == 0 {
					continue
				}
				acc = ops.add(acc, ops.scale(mask.E[i], src[edgeFarVertex(p, e, parent)]))
			}
			for i, f := range p.VertexFaces(parent) {
				if i >= len(mask.F) || mask.F[i] == 0 {
					continue
				}
				acc = ops.add(acc, ops.scale(mask.F[i], centroid(f)))
			}
		}
		dst[cv] = acc
	}
	return dst
}

// edgeFarVertex returns the endpoint of edge e opposite vertex v.
func edgeFarVertex(l *subd.Level, e, v subd.Index) subd.Index {
	ev := l.EdgeVertices(e)
	if ev[0] == v {
		return ev[1]
	}
	return ev[0]
}
