package construct

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"navgraph"
)

// epsilon trims segment ends so links sharing an endpoint do not count as crossing.
const epsilon = 0.00001

// Segment is a straight link candidate between two sampled points.
type Segment struct {
	start     vec
	delta     vec
	magnitude float64
	unit      vec
	normal    vec
}

type vec struct{ x, y float64 }

func toVec(p navgraph.Point) vec { return vec{float64(p.X), float64(p.Y)} }

func (a vec) sub(b vec) vec       { return vec{a.x - b.x, a.y - b.y} }
func (a vec) dot(b vec) float64   { return a.x*b.x + a.y*b.y }
func (a vec) cross(b vec) float64 { return a.x*b.y - a.y*b.x }
func (a vec) length() float64     { return math.Sqrt(a.dot(a)) }

// NewSegment creates the segment from p1 to p2.
func NewSegment(p1, p2 navgraph.Point) Segment {
	start := toVec(p1)
	delta := toVec(p2).sub(start)
	mag := delta.length()
	unit := vec{}
	if mag > 0 {
		unit = vec{delta.x / mag, delta.y / mag}
	}
	return Segment{
		start:     start,
		delta:     delta,
		magnitude: mag,
		unit:      unit,
		normal:    vec{-unit.y, unit.x},
	}
}

// Length returns the segment length.
func (s Segment) Length() float64 { return s.magnitude }

// inOpenUnit reports whether t lies strictly inside the segment, away from both ends.
func inOpenUnit(t float64) bool {
	return t >= epsilon && t < 1-epsilon
}

// Intersects checks if two segments cross away from their endpoints.
// Collinear segments intersect when they overlap by more than epsilon.
func (s Segment) Intersects(other Segment) bool {
	startDelta := other.start.sub(s.start)
	det := s.delta.cross(other.delta)

	if det == 0 {
		// parallel: only collinear overlap counts
		if startDelta.cross(s.delta) != 0 || s.magnitude == 0 {
			return false
		}
		sq := s.delta.dot(s.delta)
		t0 := startDelta.dot(s.delta) / sq
		t1 := t0 + other.delta.dot(s.delta)/sq
		lo, hi := math.Min(t0, t1), math.Max(t0, t1)
		return math.Min(hi, 1)-math.Max(lo, 0) > epsilon
	}

	mu := startDelta.cross(other.delta) / det
	lambda := startDelta.cross(s.delta) / det
	return inOpenUnit(mu) && inOpenUnit(lambda)
}

// InCriticalRange checks if p projects onto the inner part of the segment
// and lies within distance of it.
func (s Segment) InCriticalRange(p navgraph.Point, distance float64) bool {
	rel := toVec(p).sub(s.start)

	along := rel.dot(s.unit)
	if along < epsilon || along >= s.magnitude-epsilon {
		return false
	}
	return math.Abs(s.normal.dot(rel)) <= distance
}

// bounds returns the axis-aligned box around the segment grown by margin.
func (s Segment) bounds(margin float64) rtreego.Rect {
	end := vec{s.start.x + s.delta.x, s.start.y + s.delta.y}
	return box(
		math.Min(s.start.x, end.x)-margin, math.Min(s.start.y, end.y)-margin,
		math.Max(s.start.x, end.x)+margin, math.Max(s.start.y, end.y)+margin,
	)
}

// box returns the rectangle spanning the given corners widened by one ulp on
// every side, so it keeps positive width where adding a small margin rounds away.
func box(minX, minY, maxX, maxY float64) rtreego.Rect {
	rect, err := rtreego.NewRectFromPoints(
		rtreego.Point{math.Nextafter(minX, math.Inf(-1)), math.Nextafter(minY, math.Inf(-1))},
		rtreego.Point{math.Nextafter(maxX, math.Inf(1)), math.Nextafter(maxY, math.Inf(1))},
	)
	if err != nil {
		panic(err)
	}
	return rect
}
