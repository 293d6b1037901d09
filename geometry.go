package navgraph

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
)

// Point is an immutable planar position.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float32) Point {
	return Point{X: x, Y: y}
}

// Distance calculates Euclidean distance between two points.
// The difference is taken in float64 so long paths accumulate without float32 drift.
func (p Point) Distance(other Point) float64 {
	dx := float64(p.X) - float64(other.X)
	dy := float64(p.Y) - float64(other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Rtree returns the point in the coordinate form used by the spatial index.
func (p Point) Rtree() rtreego.Point {
	return rtreego.Point{float64(p.X), float64(p.Y)}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}
