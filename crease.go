package subd

import "github.com/chewxy/math32"

// Rule classifies the crease neighborhood of a vertex or edge and selects
// which mask formula applies when subdividing it.
type Rule uint8

const (
	RuleUnknown Rule = iota
	RuleSmooth
	RuleDart
	RuleCrease
	RuleCorner
)

func (r Rule) String() string {
	switch r {
	case RuleUnknown:
		return "Unknown"
	case RuleSmooth:
		return "Smooth"
	case RuleDart:
		return "Dart"
	case RuleCrease:
		return "Crease"
	case RuleCorner:
		return "Corner"
	}
	return "Rule(" + string(rune('0'+r)) + ")"
}

const (
	// SharpnessSmooth is the sharpness of a smooth component.
	SharpnessSmooth float32 = 0
	// SharpnessInfinite marks a permanently sharp component. Infinite
	// sharpness does not decay under subdivision.
	SharpnessInfinite float32 = 10
)

// IsSharp reports whether sharpness s marks a creased component.
func IsSharp(s float32) bool { return s > SharpnessSmooth }

// IsInfinitelySharp reports whether sharpness s never decays.
func IsInfinitelySharp(s float32) bool { return s >= SharpnessInfinite }

// Crease implements the sharpness sub-algebra governing sharp-to-smooth
// transitions: subdividing sharpness onto child components, classifying
// vertices into a [Rule] and computing the fractional blend between parent
// and child rule masks. Crease is stateless with respect to topology and
// parameterized only by [Options].
type Crease struct {
	opts Options
}

// NewCrease returns a Crease configured by opts.
func NewCrease(opts Options) Crease { return Crease{opts: opts} }

// IsUniform reports whether the uniform creasing method is in effect.
func (c Crease) IsUniform() bool { return c.opts.Creasing == CreasingUniform }

// SubdivideVertexSharpness returns the sharpness of the child vertex of a
// parent vertex with sharpness s. Finite sharpness decays by one per
// level; infinite sharpness is preserved.
func (c Crease) SubdivideVertexSharpness(s float32) float32 {
	return decaySharpness(s)
}

// SubdivideEdgeSharpness returns the sharpness of a child edge half given
// the parent edge's sharpness and the sharpness of the other edges
// incident to the end vertex the child half is adjacent to. The adjacent
// sharpness values are only inspected by the Chaikin creasing method; nil
// is acceptable under uniform creasing.
func (c Crease) SubdivideEdgeSharpness(parent float32, adjacent []float32) float32 {
	if c.IsUniform() || !IsSharp(parent) || IsInfinitelySharp(parent) {
		return decaySharpness(parent)
	}
	// Chaikin: average the sharp neighboring crease edges at the child's
	// end vertex with triple weight on the parent edge itself.
	var sum float32
	sharpCount := 0
	for _, s := range adjacent {
		if IsSharp(s) {
			sum += s
			sharpCount++
		}
	}
	avg := float32(0)
	if sharpCount > 0 {
		avg = sum / float32(sharpCount)
	}
	return math32.Max((avg+3*parent)/4-1, SharpnessSmooth)
}

func decaySharpness(s float32) float32 {
	if IsInfinitelySharp(s) {
		return SharpnessInfinite
	}
	return math32.Max(s-1, SharpnessSmooth)
}

// DetermineVertexVertexRule classifies a vertex from its own sharpness and
// the sharpness of its incident edges.
func (c Crease) DetermineVertexVertexRule(vertSharpness float32, edgeSharpness []float32) Rule {
	if vertSharpness >= 1 {
		return RuleCorner
	}
	sharpEdges := 0
	for _, s := range edgeSharpness {
		if IsSharp(s) {
			sharpEdges++
		}
	}
	switch sharpEdges {
	case 0:
		return RuleSmooth
	case 1:
		return RuleDart
	case 2:
		return RuleCrease
	}
	return RuleCorner
}

// DetermineEdgeVertexRule classifies an edge from its sharpness.
func (c Crease) DetermineEdgeVertexRule(edgeSharpness float32) Rule {
	if IsSharp(edgeSharpness) {
		return RuleCrease
	}
	return RuleSmooth
}

// ComputeFractionalWeightAtVertex returns the blend factor in [0,1]
// controlling how much of the parent rule's mask survives into the child
// when a rule transition occurs across the subdivision step. Transitional
// components are those sharp in the parent whose child sharpness decayed
// to smooth; the weight is the average of their parent sharpness values,
// clamped. Parent vertex sharpness of one or more always yields a full
// parent mask.
func (c Crease) ComputeFractionalWeightAtVertex(pVertSharpness, cVertSharpness float32, pEdgeSharpness, cEdgeSharpness []float32) float32 {
	if pVertSharpness >= 1 {
		return 1
	}
	var sum float32
	count := 0
	if IsSharp(pVertSharpness) && !IsSharp(cVertSharpness) {
		sum += pVertSharpness
		count++
	}
	for i, ps := range pEdgeSharpness {
		if !IsSharp(ps) {
			continue
		}
		if cEdgeSharpness != nil && IsSharp(cEdgeSharpness[i]) {
			continue
		}
		sum += ps
		count++
	}
	if count == 0 {
		return 0
	}
	return clampf(sum/float32(count), 0, 1)
}
