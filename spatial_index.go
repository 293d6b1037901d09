package navgraph

import (
	"math"

	"github.com/dhconnelly/rtreego"
)

// pointTolerance is the half-width of the box a node occupies in the index.
// Nodes are points, but the tree stores boxes with positive extent.
const pointTolerance = 1e-6

// nodeEntry wraps a node handle for R-tree storage
type nodeEntry struct {
	id   NodeID
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *nodeEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// spatialIndex answers box queries over node positions.
// Entries are only ever inserted: nodes never move and are never removed.
type spatialIndex struct {
	tree *rtreego.Rtree
}

func newSpatialIndex(minChildren, maxChildren int) *spatialIndex {
	return &spatialIndex{tree: rtreego.NewTree(2, minChildren, maxChildren)}
}

func (si *spatialIndex) insert(id NodeID, p Point) {
	si.tree.Insert(&nodeEntry{
		id:   id,
		bbox: boxAround(p, pointTolerance),
	})
}

// queryRadius returns the handles whose boxes intersect the square enclosing
// the circle around center. Candidates still need an exact distance check.
func (si *spatialIndex) queryRadius(center Point, radius float64) []NodeID {
	results := si.tree.SearchIntersect(boxAround(center, max(radius, pointTolerance)))
	ids := make([]NodeID, 0, len(results))
	for _, item := range results {
		ids = append(ids, item.(*nodeEntry).id)
	}
	return ids
}

// boxAround returns the square of half-width half around p. Each bound is
// pushed out by one more ulp: far from the origin p±half rounds back to p,
// and rtreego only matches boxes that overlap with positive width.
func boxAround(p Point, half float64) rtreego.Rect {
	c := p.Rtree()
	x, y := c[0], c[1]
	rect, err := rtreego.NewRectFromPoints(
		rtreego.Point{math.Nextafter(x-half, math.Inf(-1)), math.Nextafter(y-half, math.Inf(-1))},
		rtreego.Point{math.Nextafter(x+half, math.Inf(1)), math.Nextafter(y+half, math.Inf(1))},
	)
	if err != nil {
		// both corners are two dimensional
		panic(err)
	}
	return rect
}

func (si *spatialIndex) size() int {
	return si.tree.Size()
}
