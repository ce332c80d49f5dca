package subd

import (
	"math"
	"testing"
)

// Stub neighborhoods feeding the mask kernels directly.

type stubFace struct{ n int }

func (s stubFace) VertexCount() int { return s.n }

type stubEdge struct {
	faceCount    int
	sharpness    float32
	vertsPerFace []int
	opts         Options
}

func (s stubEdge) FaceCount() int     { return s.faceCount }
func (s stubEdge) Sharpness() float32 { return s.sharpness }

func (s stubEdge) VertexCountPerFace(dst []int) []int {
	return append(dst, s.vertsPerFace...)
}

func (s stubEdge) ChildSharpness(c Crease, dst []float32) []float32 {
	cs := c.SubdivideEdgeSharpness(s.sharpness, nil)
	return append(dst, cs, cs)
}

type stubVertex struct {
	sharpness     float32
	edgeSharpness []float32
	faceCount     int
}

func (s stubVertex) EdgeCount() int     { return len(s.edgeSharpness) }
func (s stubVertex) FaceCount() int     { return s.faceCount }
func (s stubVertex) Sharpness() float32 { return s.sharpness }

func (s stubVertex) SharpnessPerEdge(dst []float32) []float32 {
	return append(dst, s.edgeSharpness...)
}

func (s stubVertex) ChildSharpness(c Crease) float32 {
	return c.SubdivideVertexSharpness(s.sharpness)
}

func (s stubVertex) ChildSharpnessPerEdge(c Crease, dst []float32) []float32 {
	for _, es := range s.edgeSharpness {
		dst = append(dst, c.SubdivideEdgeSharpness(es, nil))
	}
	return dst
}

func maskSum(m *Mask) float32 {
	var sum float32
	for _, w := range m.V {
		sum += w
	}
	for _, w := range m.E {
		sum += w
	}
	for _, w := range m.F {
		sum += w
	}
	return sum
}

func checkMaskSum(t *testing.T, name string, m *Mask) {
	t.Helper()
	if s := maskSum(m); math.Abs(float64(s)-1) > 1e-6 {
		t.Errorf("%s: mask weights sum to %v, want 1", name, s)
	}
}

func TestFaceVertexMask(t *testing.T) {
	s := NewScheme(SchemeCatmark, Options{})
	var mask Mask
	for _, n := range []int{3, 4, 5, 7} {
		s.ComputeFaceVertexMask(stubFace{n: n}, &mask)
		if len(mask.V) != n || len(mask.E) != 0 || len(mask.F) != 0 {
			t.Fatalf("face mask n=%d: got %d/%d/%d weights", n, len(mask.V), len(mask.E), len(mask.F))
		}
		for _, w := range mask.V {
			if w != 1/float32(n) {
				t.Errorf("face mask n=%d: weight %v, want %v", n, w, 1/float32(n))
			}
		}
		checkMaskSum(t, "face mask", &mask)
	}
}

func TestEdgeVertexMaskSmooth(t *testing.T) {
	s := NewScheme(SchemeCatmark, Options{})
	var mask Mask

	s.ComputeEdgeVertexMask(stubEdge{faceCount: 2}, &mask, RuleUnknown, RuleUnknown)
	if mask.V[0] != 0.25 || mask.V[1] != 0.25 {
		t.Errorf("smooth interior edge vertex weights: got %v, want 0.25 each", mask.V)
	}
	if len(mask.F) != 2 || mask.F[0] != 0.25 || mask.F[1] != 0.25 {
		t.Errorf("smooth interior edge face weights: got %v, want 0.25 each", mask.F)
	}
	checkMaskSum(t, "smooth edge mask", &mask)

	// The centroid form over two quads expands to the classic stencil:
	// 3/8 per endpoint and 1/16 per remaining quad vertex. Each quad
	// centroid contributes a quarter of its weight to each endpoint.
	endpoint := mask.V[0] + mask.F[0]*0.25 + mask.F[1]*0.25
	if math.Abs(float64(endpoint)-3.0/8) > 1e-6 {
		t.Errorf("expanded endpoint weight %v, want 3/8", endpoint)
	}
	if other := mask.F[0] * 0.25; math.Abs(float64(other)-1.0/16) > 1e-6 {
		t.Errorf("expanded quad vertex weight %v, want 1/16", other)
	}

	// Boundary edges share the faces' weight across a single centroid.
	s.ComputeEdgeVertexMask(stubEdge{faceCount: 1}, &mask, RuleSmooth, RuleUnknown)
	if len(mask.F) != 1 || mask.F[0] != 0.5 {
		t.Errorf("smooth boundary edge face weights: got %v, want [0.5]", mask.F)
	}
	checkMaskSum(t, "smooth boundary edge mask", &mask)
}

func TestEdgeVertexMaskCrease(t *testing.T) {
	s := NewScheme(SchemeCatmark, Options{})
	var mask Mask
	s.ComputeEdgeVertexMask(stubEdge{faceCount: 2, sharpness: 3}, &mask, RuleUnknown, RuleUnknown)
	if mask.V[0] != 0.5 || mask.V[1] != 0.5 || len(mask.F) != 0 {
		t.Errorf("crease edge mask: got V=%v F=%v, want midpoint", mask.V, mask.F)
	}
	checkMaskSum(t, "crease edge mask", &mask)
}

func TestEdgeVertexMaskFractional(t *testing.T) {
	s := NewScheme(SchemeCatmark, Options{})
	var mask Mask

	// Sharpness 0.5 decays to smooth: the mask blends half crease, half
	// smooth on an interior edge.
	s.ComputeEdgeVertexMask(stubEdge{faceCount: 2, sharpness: 0.5}, &mask, RuleUnknown, RuleUnknown)
	wantV := float32(0.5*0.5 + 0.5*0.25)
	if math.Abs(float64(mask.V[0]-wantV)) > 1e-6 || math.Abs(float64(mask.V[1]-wantV)) > 1e-6 {
		t.Errorf("fractional edge vertex weights: got %v, want %v", mask.V, wantV)
	}
	wantF := float32(0.5 * 0.25)
	if math.Abs(float64(mask.F[0]-wantF)) > 1e-6 {
		t.Errorf("fractional edge face weights: got %v, want %v", mask.F, wantF)
	}
	checkMaskSum(t, "fractional edge mask", &mask)

	// Sharpness at or above one keeps the full crease even though the
	// child decays below one.
	s.ComputeEdgeVertexMask(stubEdge{faceCount: 2, sharpness: 1}, &mask, RuleUnknown, RuleUnknown)
	if mask.V[0] != 0.5 || len(mask.F) != 0 {
		t.Errorf("unit sharpness edge mask: got V=%v F=%v, want full crease", mask.V, mask.F)
	}
}

func TestEdgeVertexMaskSmoothTriangle(t *testing.T) {
	s := NewScheme(SchemeCatmark, Options{TriangleSub: TriangleSubSmooth})
	var mask Mask
	s.ComputeEdgeVertexMask(stubEdge{faceCount: 2, vertsPerFace: []int{3, 4}}, &mask, RuleSmooth, RuleUnknown)
	checkMaskSum(t, "smooth triangle edge mask", &mask)
	wantF := float32(0.5 * (0.470 + 0.25))
	if math.Abs(float64(mask.F[0]-wantF)) > 1e-6 {
		t.Errorf("smooth triangle face weight: got %v, want %v", mask.F[0], wantF)
	}

	// Two quads ignore the option.
	s.ComputeEdgeVertexMask(stubEdge{faceCount: 2, vertsPerFace: []int{4, 4}}, &mask, RuleSmooth, RuleUnknown)
	if mask.F[0] != 0.25 {
		t.Errorf("quad-quad edge with triangle option: got face weight %v, want 0.25", mask.F[0])
	}
}

func TestVertexVertexMaskSmooth(t *testing.T) {
	s := NewScheme(SchemeCatmark, Options{})
	var mask Mask

	// Regular interior vertex: w = 1/16 per edge and face, 1/2 remainder.
	s.ComputeVertexVertexMask(stubVertex{edgeSharpness: make([]float32, 4), faceCount: 4}, &mask, RuleUnknown, RuleUnknown)
	if mask.V[0] != 0.5 {
		t.Errorf("regular vertex weight: got %v, want 0.5", mask.V[0])
	}
	for i := range mask.E {
		if mask.E[i] != 1.0/16 || mask.F[i] != 1.0/16 {
			t.Errorf("regular vertex edge/face weights: got %v/%v, want 1/16", mask.E[i], mask.F[i])
		}
	}
	checkMaskSum(t, "regular vertex mask", &mask)

	// Extraordinary and boundary-count neighborhoods still sum to one.
	for _, tc := range []struct{ valence, faces int }{{3, 3}, {5, 5}, {3, 2}, {2, 1}} {
		s.ComputeVertexVertexMask(stubVertex{edgeSharpness: make([]float32, tc.valence), faceCount: tc.faces}, &mask, RuleUnknown, RuleUnknown)
		checkMaskSum(t, "smooth vertex mask", &mask)
	}
}

func TestVertexVertexMaskCreaseAndCorner(t *testing.T) {
	s := NewScheme(SchemeCatmark, Options{})
	var mask Mask

	// Crease: 3/4 vertex, 1/8 along each of the two sharp edges.
	s.ComputeVertexVertexMask(stubVertex{edgeSharpness: []float32{2, 0, 2, 0}, faceCount: 4}, &mask, RuleUnknown, RuleUnknown)
	if mask.V[0] != 0.75 {
		t.Errorf("crease vertex weight: got %v, want 0.75", mask.V[0])
	}
	if mask.E[0] != 0.125 || mask.E[1] != 0 || mask.E[2] != 0.125 || mask.E[3] != 0 {
		t.Errorf("crease edge weights: got %v", mask.E)
	}
	checkMaskSum(t, "crease vertex mask", &mask)

	// Corner: the vertex keeps its position.
	s.ComputeVertexVertexMask(stubVertex{sharpness: 4, edgeSharpness: make([]float32, 3), faceCount: 3}, &mask, RuleUnknown, RuleUnknown)
	if mask.V[0] != 1 || len(mask.E) != 0 || len(mask.F) != 0 {
		t.Errorf("corner vertex mask: got V=%v E=%v F=%v", mask.V, mask.E, mask.F)
	}
}

func TestVertexVertexMaskFractional(t *testing.T) {
	s := NewScheme(SchemeCatmark, Options{})
	var mask Mask

	// Two crease edges of sharpness 0.5 decay to smooth: the result blends
	// half the crease mask with half the smooth mask and still sums to one.
	s.ComputeVertexVertexMask(stubVertex{edgeSharpness: []float32{0.5, 0, 0.5, 0}, faceCount: 4}, &mask, RuleUnknown, RuleUnknown)
	checkMaskSum(t, "fractional vertex mask", &mask)
	wantV := float32(0.5*0.75 + 0.5*0.5)
	if math.Abs(float64(mask.V[0]-wantV)) > 1e-6 {
		t.Errorf("fractional vertex weight: got %v, want %v", mask.V[0], wantV)
	}
	// Smooth-only contributions are attenuated by the child coefficient.
	wantF := float32(0.5 * (1.0 / 16))
	if math.Abs(float64(mask.F[0]-wantF)) > 1e-6 {
		t.Errorf("fractional vertex face weight: got %v, want %v", mask.F[0], wantF)
	}
}

func TestBilinearMasks(t *testing.T) {
	s := NewScheme(SchemeBilinear, Options{})
	var mask Mask
	s.ComputeEdgeVertexMask(stubEdge{faceCount: 2}, &mask, RuleUnknown, RuleUnknown)
	if mask.V[0] != 0.5 || len(mask.F) != 0 {
		t.Errorf("bilinear edge mask: got V=%v F=%v, want midpoint", mask.V, mask.F)
	}
	s.ComputeVertexVertexMask(stubVertex{edgeSharpness: make([]float32, 4), faceCount: 4}, &mask, RuleUnknown, RuleUnknown)
	if mask.V[0] != 1 {
		t.Errorf("bilinear vertex mask: got %v, want identity", mask.V[0])
	}
}
