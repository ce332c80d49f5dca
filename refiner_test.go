package subd

import "testing"

func newCubeTables(t *testing.T, opts Options) *RefineTables {
	t.Helper()
	rt := NewRefineTables(SchemeCatmark, opts)
	base := rt.BaseLevel()
	if err := base.SetFaceVertices(8, cubeVertsPerFace, cubeVertIndices); err != nil {
		t.Fatal(err)
	}
	if err := base.CompleteTopologyFromFaceVertices(); err != nil {
		t.Fatal(err)
	}
	base.ApplyBoundarySharpness(opts)
	base.UpdateVertexRules(opts)
	return rt
}

func TestRefineUniformCube(t *testing.T) {
	rt := newCubeTables(t, Options{})
	rt.RefineUniform(2, true, true)

	if !rt.IsUniform() || rt.MaxLevel() != 2 || rt.LevelCount() != 3 || rt.RefinementCount() != 2 {
		t.Fatalf("hierarchy shape: uniform=%v maxLevel=%d levels=%d refinements=%d",
			rt.IsUniform(), rt.MaxLevel(), rt.LevelCount(), rt.RefinementCount())
	}
	l1, l2 := rt.Level(1), rt.Level(2)
	if l1.VertexCount() != 26 || l1.EdgeCount() != 48 || l1.FaceCount() != 24 {
		t.Errorf("level 1: %d/%d/%d verts/edges/faces", l1.VertexCount(), l1.EdgeCount(), l1.FaceCount())
	}
	if l2.VertexCount() != 24+48+26 || l2.EdgeCount() != 2*48+4*24 || l2.FaceCount() != 96 {
		t.Errorf("level 2: %d/%d/%d verts/edges/faces", l2.VertexCount(), l2.EdgeCount(), l2.FaceCount())
	}
	if got := rt.TotalVertexCount(); got != 8+26+98 {
		t.Errorf("total vertices %d, want 132", got)
	}
	if got := rt.TotalFaceCount(); got != 6+24+96 {
		t.Errorf("total faces %d, want 126", got)
	}
	if !rt.Refinement(0).HasMasks() || !rt.Refinement(1).HasMasks() {
		t.Error("refinements missing masks")
	}
	if err := l2.ValidateTopology(); err != nil {
		t.Fatal("level 2 topology invalid: ", err)
	}
}

func TestRefineUniformTerminalFaceTopology(t *testing.T) {
	rt := newCubeTables(t, Options{})
	rt.RefineUniform(2, false, false)
	if rt.Level(1).EdgeCount() == 0 {
		t.Error("intermediate level lost full topology")
	}
	if rt.Level(2).EdgeCount() != 0 {
		t.Error("terminal level has edges despite face-only request")
	}
	if rt.Level(2).FaceCount() != 96 {
		t.Errorf("terminal faces %d, want 96", rt.Level(2).FaceCount())
	}
}

func TestRefinePanics(t *testing.T) {
	mustPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s did not panic", name)
			}
		}()
		fn()
	}
	mustPanic("refining an empty base", func() {
		NewRefineTables(SchemeCatmark, Options{}).RefineUniform(1, true, false)
	})
	mustPanic("refining twice", func() {
		rt := newCubeTables(t, Options{})
		rt.RefineUniform(1, true, false)
		rt.RefineUniform(1, true, false)
	})
	mustPanic("refining to level zero", func() {
		newCubeTables(t, Options{}).RefineUniform(0, true, false)
	})
	mustPanic("refining a bilinear hierarchy", func() {
		rt := NewRefineTables(SchemeBilinear, Options{})
		base := rt.BaseLevel()
		if err := base.SetFaceVertices(8, cubeVertsPerFace, cubeVertIndices); err != nil {
			t.Fatal(err)
		}
		if err := base.CompleteTopologyFromFaceVertices(); err != nil {
			t.Fatal(err)
		}
		rt.RefineUniform(1, true, false)
	})
}

// flattenMasks concatenates every stored mask weight of each refinement,
// preserving order, so two hierarchies can be compared bit for bit.
func flattenMasks(rt *RefineTables) [][]float32 {
	out := make([][]float32, rt.RefinementCount())
	for i := range out {
		r := rt.Refinement(i)
		for cv := Index(0); int(cv) < r.Child().VertexCount(); cv++ {
			m := r.ChildVertexMask(cv)
			out[i] = append(out[i], m.V...)
			out[i] = append(out[i], m.E...)
			out[i] = append(out[i], m.F...)
		}
	}
	return out
}

// Unrefining and refining again reproduces the hierarchy exactly: same
// component counts and bit-identical mask weights, fractional crease and
// corner transitions included.
func TestUnrefineAndRefineAgain(t *testing.T) {
	opts := Options{}
	rt := newCubeTables(t, opts)
	base := rt.BaseLevel()
	base.SetEdgeSharpness(base.FindEdge(0, 1), 1.2)
	base.SetVertexSharpness(6, 1.5)
	base.UpdateVertexRules(opts)

	rt.RefineUniform(2, true, true)
	firstTotal := rt.TotalVertexCount()
	firstMasks := flattenMasks(rt)

	rt.Unrefine()
	if rt.LevelCount() != 1 || rt.RefinementCount() != 0 || rt.MaxLevel() != 0 {
		t.Fatalf("unrefined shape: levels=%d refinements=%d maxLevel=%d",
			rt.LevelCount(), rt.RefinementCount(), rt.MaxLevel())
	}
	if rt.BaseLevel().VertexCount() != 8 {
		t.Fatal("base level lost by Unrefine")
	}

	rt.RefineUniform(2, true, true)
	if rt.TotalVertexCount() != firstTotal {
		t.Errorf("re-refinement total %d, want %d", rt.TotalVertexCount(), firstTotal)
	}
	secondMasks := flattenMasks(rt)
	if len(secondMasks) != len(firstMasks) {
		t.Fatalf("re-refinement has %d mask tables, want %d", len(secondMasks), len(firstMasks))
	}
	for i := range firstMasks {
		if len(secondMasks[i]) != len(firstMasks[i]) {
			t.Fatalf("refinement %d: %d weights, want %d", i, len(secondMasks[i]), len(firstMasks[i]))
		}
		for k := range firstMasks[i] {
			if secondMasks[i][k] != firstMasks[i][k] {
				t.Fatalf("refinement %d weight %d: %v vs %v", i, k, secondMasks[i][k], firstMasks[i][k])
			}
		}
	}

	rt.Clear()
	if rt.BaseLevel().VertexCount() != 0 {
		t.Error("Clear kept the base level")
	}
}

// Vertex indices of surviving components are stable across deeper
// refinement: the level-1 snapshot is identical whether it is terminal
// or intermediate.
func TestRefinementPrefixStability(t *testing.T) {
	shallow := newCubeTables(t, Options{})
	shallow.RefineUniform(1, true, false)
	deep := newCubeTables(t, Options{})
	deep.RefineUniform(3, true, false)

	a, b := shallow.Level(1), deep.Level(1)
	if a.VertexCount() != b.VertexCount() || a.EdgeCount() != b.EdgeCount() || a.FaceCount() != b.FaceCount() {
		t.Fatal("level 1 shape differs with refinement depth")
	}
	for f := Index(0); int(f) < a.FaceCount(); f++ {
		av, bv := a.FaceVertices(f), b.FaceVertices(f)
		for i := range av {
			if av[i] != bv[i] {
				t.Fatalf("face %d corner %d differs: %d vs %d", f, i, av[i], bv[i])
			}
		}
	}
}

func TestRefineAdaptiveCube(t *testing.T) {
	rt := newCubeTables(t, Options{})
	rt.RefineAdaptive(3, true, true)

	if rt.IsUniform() {
		t.Error("adaptive hierarchy reports uniform")
	}
	if rt.LevelCount() != 4 || rt.MaxLevel() != 3 {
		t.Fatalf("adaptive shape: levels=%d maxLevel=%d", rt.LevelCount(), rt.MaxLevel())
	}
	// Every base face touches an extraordinary corner, so the first two
	// steps refine everything. At level 2 only the 8 corner descendants
	// (3 faces each) remain irregular.
	if got := rt.Level(1).FaceCount(); got != 24 {
		t.Errorf("adaptive level 1 faces %d, want 24", got)
	}
	if got := rt.Level(2).FaceCount(); got != 96 {
		t.Errorf("adaptive level 2 faces %d, want 96", got)
	}
	if got := rt.Level(3).FaceCount(); got != 96 {
		t.Errorf("adaptive level 3 faces %d, want 96 (24 selected parents)", got)
	}
	// The truncated deep level must still be valid topology.
	if err := rt.Level(3).ValidateTopology(); err != nil {
		t.Fatal("adaptive level 3 topology invalid: ", err)
	}

	// Children bordering unselected territory are tagged incomplete.
	l3 := rt.Level(3)
	incomplete := 0
	for v := Index(0); int(v) < l3.VertexCount(); v++ {
		if l3.VertexTagOf(v).Incomplete {
			incomplete++
		}
	}
	if incomplete == 0 {
		t.Error("no incomplete vertices in a partially selected level")
	}
}

// newGridTables builds an nx by ny planar grid of quads: fully regular,
// so adaptive refinement has nothing to isolate unless creases are added.
func newGridTables(t *testing.T, nx, ny int, opts Options) *RefineTables {
	t.Helper()
	vx := nx + 1
	vertsPerFace := make([]int32, nx*ny)
	var indices []Index
	for f := range vertsPerFace {
		vertsPerFace[f] = 4
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a := Index(j*vx + i)
			indices = append(indices, a, a+1, a+1+Index(vx), a+Index(vx))
		}
	}
	rt := NewRefineTables(SchemeCatmark, opts)
	base := rt.BaseLevel()
	if err := base.SetFaceVertices(vx*(ny+1), vertsPerFace, indices); err != nil {
		t.Fatal(err)
	}
	if err := base.CompleteTopologyFromFaceVertices(); err != nil {
		t.Fatal(err)
	}
	base.ApplyBoundarySharpness(opts)
	base.UpdateVertexRules(opts)
	return rt
}

// A regular grid has no feature to isolate: adaptive refinement selects
// nothing and truncates the hierarchy at the base.
func TestRefineAdaptiveRegularGridTruncates(t *testing.T) {
	rt := newGridTables(t, 4, 4, Options{Boundary: BoundaryEdgeAndCorner})
	rt.RefineAdaptive(3, true, false)
	if rt.LevelCount() != 1 || rt.MaxLevel() != 0 {
		t.Errorf("regular grid adaptive: levels=%d maxLevel=%d, want 1 and 0",
			rt.LevelCount(), rt.MaxLevel())
	}
	if rt.IsUniform() {
		t.Error("adaptive hierarchy reports uniform")
	}
}

// A finite interior crease keeps the selector busy exactly until its
// sharpness decays away, then the hierarchy truncates.
func TestRefineAdaptiveSharpEdgeDecay(t *testing.T) {
	opts := Options{Boundary: BoundaryEdgeAndCorner}
	rt := newGridTables(t, 4, 4, opts)
	base := rt.BaseLevel()
	e := base.FindEdge(12, 13) // interior edge between interior vertices
	if e == InvalidIndex {
		t.Fatal("interior edge not found")
	}
	base.SetEdgeSharpness(e, 2)
	base.UpdateVertexRules(opts)

	rt.RefineAdaptive(4, true, false)
	if rt.MaxLevel() != 2 {
		t.Errorf("adaptive maxLevel %d, want 2 (sharpness 2 decays over two levels)", rt.MaxLevel())
	}
	if rt.LevelCount() != 3 {
		t.Errorf("adaptive levels %d, want 3", rt.LevelCount())
	}
	// The first step refines only the crease neighborhood.
	if got := rt.Level(1).FaceCount(); got != 4*6 {
		t.Errorf("level 1 faces %d, want 24 (6 selected parents)", got)
	}
}
