package geo

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Default subdivision constants. An edge longer than one degree of arc is
// split into half-degree segments, at most 64 per edge.
const (
	DefaultSubdivideThreshold = 1 * s1.Degree
	DefaultSubdivideStep      = 0.5 * s1.Degree
	DefaultMaxSegments        = 64
)

// Subdivider inserts great-circle points along long ring edges so they render
// as curves on the sphere rather than chords.
//
// Step should not exceed Threshold, otherwise a second pass could split edges
// produced by the first one. Edges longer than Step*MaxSegments are split
// into MaxSegments parts and stay longer than Threshold.
type Subdivider struct {
	Threshold   s1.Angle
	Step        s1.Angle
	MaxSegments int
}

// DefaultSubdivider returns a Subdivider with the default constants.
func DefaultSubdivider() *Subdivider {
	return &Subdivider{
		Threshold:   DefaultSubdivideThreshold,
		Step:        DefaultSubdivideStep,
		MaxSegments: DefaultMaxSegments,
	}
}

// Subdivide returns a new closed ring (the last point connects to the first)
// with interpolated points inserted on every edge whose arc exceeds Threshold.
// Inserted points lie on the sphere through the edge's start point.
func (s *Subdivider) Subdivide(points []r3.Vector) []r3.Vector {
	if len(points) < 2 || s == nil {
		return append([]r3.Vector(nil), points...)
	}

	step := s.Step
	if step <= 0 {
		step = DefaultSubdivideStep
	}
	maxSegments := s.MaxSegments
	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}

	out := make([]r3.Vector, 0, len(points))
	for i, p1 := range points {
		p2 := points[(i+1)%len(points)]
		out = append(out, p1)

		r1, r2 := p1.Norm(), p2.Norm()
		if r1 == 0 || r2 == 0 {
			continue
		}

		angle := ArcAngle(p1, p2)
		if angle <= s.Threshold {
			continue
		}

		n := int(math.Ceil(float64(angle / step)))
		if n > maxSegments {
			n = maxSegments
		}

		a := s2.Point{Vector: p1.Mul(1 / r1)}
		b := s2.Point{Vector: p2.Mul(1 / r2)}
		for k := 1; k < n; k++ {
			t := float64(k) / float64(n)
			out = append(out, s2.Interpolate(t, a, b).Vector.Mul(r1))
		}
	}

	return out
}

// ArcAngle returns the angle between two vectors seen from the origin.
// The cosine is clamped to [-1, 1] before acos.
func ArcAngle(a, b r3.Vector) s1.Angle {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}

	cos := a.Dot(b) / (na * nb)
	cos = math.Max(-1, math.Min(1, cos))

	return s1.Angle(math.Acos(cos))
}
