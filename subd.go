// Package subd implements Catmull-Clark subdivision surface refinement.
//
// Given a coarse polygonal control mesh with optional per-edge and
// per-vertex sharpness the package produces a hierarchy of refined
// topological levels together with the linear blending weights ("masks")
// that express each refined vertex as an affine combination of coarser
// mesh components. Downstream consumers apply those weights to arbitrary
// per-vertex data such as positions, UVs or colors.
//
// The entry point is [RefineTables], whose base level is filled from raw
// face-vertex topology (see the subdaux package for a descriptor-based
// factory) and then refined uniformly or adaptively around irregular and
// sharp features.
package subd

import "fmt"

// Index addresses a face, edge or vertex within a single [Level].
// Cross references between parent and child levels are held as plain
// indices rather than pointers.
type Index = int32

// InvalidIndex marks child components not generated by a sparse refinement.
const InvalidIndex Index = -1

// SchemeType selects the subdivision rule set.
type SchemeType uint8

const (
	SchemeBilinear SchemeType = iota
	SchemeCatmark
	SchemeLoop
)

func (s SchemeType) String() string {
	switch s {
	case SchemeBilinear:
		return "Bilinear"
	case SchemeCatmark:
		return "Catmark"
	case SchemeLoop:
		return "Loop"
	}
	return "SchemeType(" + string(rune('0'+s)) + ")"
}

// BoundaryInterpolation controls how vertex data behaves along mesh boundaries.
type BoundaryInterpolation uint8

const (
	// BoundaryNone leaves boundary edges and vertices smooth.
	BoundaryNone BoundaryInterpolation = iota
	// BoundaryEdgeOnly sharpens boundary edges so boundary curves
	// interpolate the control polygon.
	BoundaryEdgeOnly
	// BoundaryEdgeAndCorner additionally pins corner vertices
	// (vertices with a single incident face).
	BoundaryEdgeAndCorner
)

// FVarInterpolation controls face-varying data boundary behavior.
type FVarInterpolation uint8

const (
	FVarSmoothAll FVarInterpolation = iota
	FVarEdgeOnly
	FVarEdgeAndCorner
	FVarAlwaysSharp
	FVarNoInterp
)

// CreasingMethod selects how per-edge sharpness decays under subdivision.
type CreasingMethod uint8

const (
	// CreasingUniform decrements sharpness by one per level.
	CreasingUniform CreasingMethod = iota
	// CreasingChaikin averages neighboring crease sharpness at the child
	// edge's end vertex before decrementing.
	CreasingChaikin
)

// TriangleSubdivision selects the weighting of triangular faces under the
// Catmark scheme, which is otherwise tuned for quads.
type TriangleSubdivision uint8

const (
	TriangleSubNormal TriangleSubdivision = iota
	TriangleSubSmooth
)

// Options gathers the variable aspects of a subdivision scheme's behavior.
// Options are value-copied at construction and never aliased; the zero
// value is a valid default configuration.
type Options struct {
	Boundary     BoundaryInterpolation
	FVarBoundary FVarInterpolation
	Creasing     CreasingMethod
	TriangleSub  TriangleSubdivision
}

func panicf(msg string, args ...any) {
	panic(fmt.Sprintf(msg, args...))
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}
