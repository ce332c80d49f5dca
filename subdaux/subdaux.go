// Package subdaux implements convenience functionality for the subd
// package: a factory building refine tables from a raw topology
// descriptor, canned control meshes, and primvar interpolation helpers
// that push positions or UVs through the refinement hierarchy using the
// stored mask weights.
package subdaux

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/subd"
)

// TopologyDescriptor is the raw ingestion contract of the mesh factory:
// counts, per-face vertex counts with their concatenated index lists, and
// optional crease and corner sharpness assignments.
type TopologyDescriptor struct {
	NumVertices int
	NumFaces    int
	// VertsPerFace holds each face's vertex count; len == NumFaces and
	// every entry is at least 3.
	VertsPerFace []int32
	// VertIndices concatenates the per-face vertex index lists; total
	// length is the sum of VertsPerFace.
	VertIndices []subd.Index

	// CreaseVertIndexPairs holds flattened (v0,v1) endpoint pairs of
	// creased edges; CreaseWeights is parallel with one sharpness each.
	CreaseVertIndexPairs []subd.Index
	CreaseWeights        []float32

	// CornerVertIndices and CornerWeights assign vertex sharpness.
	CornerVertIndices []subd.Index
	CornerWeights     []float32
}

// Validate checks descriptor consistency without building anything.
func (d *TopologyDescriptor) Validate() error {
	var errs []error
	if d.NumVertices <= 0 {
		errs = append(errs, errors.New("descriptor has no vertices"))
	}
	if d.NumFaces != len(d.VertsPerFace) {
		errs = append(errs, fmt.Errorf("NumFaces %d does not match len(VertsPerFace) %d", d.NumFaces, len(d.VertsPerFace)))
	}
	var total int32
	for _, c := range d.VertsPerFace {
		total += c
	}
	if int(total) != len(d.VertIndices) {
		errs = append(errs, fmt.Errorf("len(VertIndices) %d does not match per-face counts sum %d", len(d.VertIndices), total))
	}
	if len(d.CreaseVertIndexPairs) != 2*len(d.CreaseWeights) {
		errs = append(errs, fmt.Errorf("%d crease endpoint indices for %d crease weights", len(d.CreaseVertIndexPairs), len(d.CreaseWeights)))
	}
	if len(d.CornerVertIndices) != len(d.CornerWeights) {
		errs = append(errs, fmt.Errorf("%d corner indices for %d corner weights", len(d.CornerVertIndices), len(d.CornerWeights)))
	}
	return errors.Join(errs...)
}

// NewRefineTables builds refine tables with a fully populated base level:
// edges are deduplicated, adjacency derived, descriptor sharpness
// assigned and the boundary interpolation option applied. The returned
// tables are ready for RefineUniform or RefineAdaptive.
func NewRefineTables(scheme subd.SchemeType, opts subd.Options, desc TopologyDescriptor) (*subd.RefineTables, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	rt := subd.NewRefineTables(scheme, opts)
	base := rt.BaseLevel()
	if err := base.SetFaceVertices(desc.NumVertices, desc.VertsPerFace, desc.VertIndices); err != nil {
		return nil, err
	}
	if err := base.CompleteTopologyFromFaceVertices(); err != nil {
		return nil, err
	}
	for i, w := range desc.CreaseWeights {
		v0, v1 := desc.CreaseVertIndexPairs[2*i], desc.CreaseVertIndexPairs[2*i+1]
		e := base.FindEdge(v0, v1)
		if e == subd.InvalidIndex {
			return nil, fmt.Errorf("crease %d: no edge joins vertices %d and %d", i, v0, v1)
		}
		base.SetEdgeSharpness(e, w)
	}
	for i, w := range desc.CornerWeights {
		base.SetVertexSharpness(desc.CornerVertIndices[i], w)
	}
	base.ApplyBoundarySharpness(opts)
	base.UpdateVertexRules(opts)
	if err := base.ValidateTopology(); err != nil {
		return nil, err
	}
	return rt, nil
}

// CubeMesh returns the descriptor and control positions of a unit cube:
// 8 vertices, 6 quads, closed manifold with every vertex at valence 3.
func CubeMesh() (TopologyDescriptor, []ms3.Vec) {
	desc := TopologyDescriptor{
		NumVertices:  8,
		NumFaces:     6,
		VertsPerFace: []int32{4, 4, 4, 4, 4, 4},
		VertIndices: []subd.Index{
			0, 1, 3, 2,
			2, 3, 5, 4,
			4, 5, 7, 6,
			6, 7, 1, 0,
			1, 7, 5, 3,
			6, 0, 2, 4,
		},
	}
	positions := []ms3.Vec{
		{X: -0.5, Y: -0.5, Z: 0.5},
		{X: 0.5, Y: -0.5, Z: 0.5},
		{X: -0.5, Y: 0.5, Z: 0.5},
		{X: 0.5, Y: 0.5, Z: 0.5},
		{X: -0.5, Y: 0.5, Z: -0.5},
		{X: 0.5, Y: 0.5, Z: -0.5},
		{X: -0.5, Y: -0.5, Z: -0.5},
		{X: 0.5, Y: -0.5, Z: -0.5},
	}
	return desc, positions
}

// PyramidMesh returns a five-sided pyramid: a quad base and four
// triangular sides meeting at a valence-4 apex.
func PyramidMesh() (TopologyDescriptor, []ms3.Vec) {
	desc := TopologyDescriptor{
		NumVertices:  5,
		NumFaces:     5,
		VertsPerFace: []int32{4, 3, 3, 3, 3},
		VertIndices: []subd.Index{
			0, 3, 2, 1, // base, winding down
			0, 1, 4,
			1, 2, 4,
			2, 3, 4,
			3, 0, 4,
		},
	}
	positions := []ms3.Vec{
		{X: -0.5, Y: -0.5, Z: 0},
		{X: 0.5, Y: -0.5, Z: 0},
		{X: 0.5, Y: 0.5, Z: 0},
		{X: -0.5, Y: 0.5, Z: 0},
		{X: 0, Y: 0, Z: 0.75},
	}
	return desc, positions
}

// QuadMesh returns a single open quad face.
func QuadMesh() (TopologyDescriptor, []ms3.Vec) {
	desc := TopologyDescriptor{
		NumVertices:  4,
		NumFaces:     1,
		VertsPerFace: []int32{4},
		VertIndices:  []subd.Index{0, 1, 2, 3},
	}
	positions := []ms3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}
	return desc, positions
}

// GridMesh returns an nx by ny planar grid of unit quads, a fully
// regular open mesh.
func GridMesh(nx, ny int) (TopologyDescriptor, []ms3.Vec) {
	if nx < 1 || ny < 1 {
		panic("subdaux: grid dimensions must be positive")
	}
	vx, vy := nx+1, ny+1
	desc := TopologyDescriptor{
		NumVertices:  vx * vy,
		NumFaces:     nx * ny,
		VertsPerFace: make([]int32, nx*ny),
	}
	positions := make([]ms3.Vec, 0, vx*vy)
	for j := 0; j < vy; j++ {
		for i := 0; i < vx; i++ {
			positions = append(positions, ms3.Vec{X: float32(i), Y: float32(j)})
		}
	}
	for f := range desc.VertsPerFace {
		desc.VertsPerFace[f] = 4
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a := subd.Index(j*vx + i)
			b := a + 1
			c := b + subd.Index(vx)
			d := a + subd.Index(vx)
			desc.VertIndices = append(desc.VertIndices, a, b, c, d)
		}
	}
	return desc, positions
}
