// Package construct generates random navigation graphs that look good on
// screen: nodes keep a minimum spacing, links are bounded in length, never
// cross and never graze a third node.
//
// It only uses the public mutation API of navgraph.
package construct

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dhconnelly/rtreego"

	"navgraph"
)

// maxIterations bounds the attempts per sampling stage.
const maxIterations = 100000

// ctxCheckInterval is how many attempts run between cancellation checks.
const ctxCheckInterval = 1024

// ErrInvalidParams is returned by Build for unusable parameters.
var ErrInvalidParams = errors.New("construct: invalid parameters")

// Params controls graph generation.
type Params struct {
	Extension       float64 `json:"extension" toml:"extension"`              // coordinates range over [-Extension, Extension)
	Points          int     `json:"points" toml:"points"`                    // requested node count
	Links           int     `json:"links" toml:"links"`                      // requested edge count
	MaxLineLength   float64 `json:"maxLineLength" toml:"max_line_length"`    // links must be shorter than this
	ExclusionRadius float64 `json:"exclusionRadius" toml:"exclusion_radius"` // nodes keep 2*ExclusionRadius apart
	EdgeDistance    float64 `json:"edgeDistance" toml:"edge_distance"`       // clearance between a link and other nodes
	Seed            uint64  `json:"seed" toml:"seed"`                        // 0 picks a time based seed
}

// DefaultParams mirrors the interactive demo's settings.
func DefaultParams() Params {
	return Params{
		Extension:       1.0,
		Points:          1000,
		Links:           5000,
		MaxLineLength:   0.3,
		ExclusionRadius: 0.02,
		EdgeDistance:    0.01,
	}
}

// Validate reports the first unusable field.
func (p Params) Validate() error {
	switch {
	case p.Extension <= 0:
		return fmt.Errorf("%w: extension must be positive, got %g", ErrInvalidParams, p.Extension)
	case p.Points < 0:
		return fmt.Errorf("%w: points must not be negative, got %d", ErrInvalidParams, p.Points)
	case p.Links < 0:
		return fmt.Errorf("%w: links must not be negative, got %d", ErrInvalidParams, p.Links)
	case p.MaxLineLength <= 0:
		return fmt.Errorf("%w: max line length must be positive, got %g", ErrInvalidParams, p.MaxLineLength)
	case p.ExclusionRadius < 0:
		return fmt.Errorf("%w: exclusion radius must not be negative, got %g", ErrInvalidParams, p.ExclusionRadius)
	case p.EdgeDistance < 0:
		return fmt.Errorf("%w: edge distance must not be negative, got %g", ErrInvalidParams, p.EdgeDistance)
	}
	return nil
}

// Report summarizes one Build call.
type Report struct {
	Points        int
	Links         int
	PointAttempts int
	LinkAttempts  int
	Rejected      Rejections
	Seed          uint64
	Elapsed       time.Duration
}

// Rejections counts link candidates by the rule that discarded them.
type Rejections struct {
	NoPartner int
	Duplicate int
	Crossing  int
	Grazing   int
}

// Build samples points and links according to p and returns them as a graph.
// A nil logger falls back to log.Default().
func Build(ctx context.Context, p Params, logger *log.Logger) (*navgraph.Graph, Report, error) {
	if err := p.Validate(); err != nil {
		return nil, Report{}, err
	}
	if logger == nil {
		logger = log.Default()
	}

	startTime := time.Now()
	seed := p.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	b := &builder{
		params: p,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		points: newIndex(),
		links:  newIndex(),
		seen:   make(map[[2]int]bool),
	}
	report := Report{Seed: seed}

	logger.Info("building graph", "points", p.Points, "links", p.Links, "seed", seed)

	attempts, err := b.samplePoints(ctx)
	report.PointAttempts = attempts
	if err != nil {
		return nil, report, err
	}
	if len(b.positions) < p.Points {
		logger.Warn("fewer points than requested", "generated", len(b.positions), "requested", p.Points)
	}

	attempts, err = b.sampleLinks(ctx, &report.Rejected)
	report.LinkAttempts = attempts
	if err != nil {
		return nil, report, err
	}
	if len(b.pairs) < p.Links {
		logger.Debug("fewer links than requested", "generated", len(b.pairs), "requested", p.Links)
	}

	graph, err := b.graph()
	if err != nil {
		return nil, report, err
	}

	report.Points = graph.Len()
	report.Links = graph.EdgeCount()
	report.Elapsed = time.Since(startTime)
	logger.Info("graph built",
		"nodes", report.Points,
		"edges", report.Links,
		"crossing", report.Rejected.Crossing,
		"grazing", report.Rejected.Grazing,
		"elapsed", report.Elapsed.Round(time.Millisecond),
	)
	return graph, report, nil
}

type builder struct {
	params    Params
	rng       *rand.Rand
	positions []navgraph.Point
	pairs     [][2]int
	points    *index
	links     *index
	segments  []Segment
	seen      map[[2]int]bool
}

// samplePoints fills the point set with candidates that keep their distance
// to every accepted point.
func (b *builder) samplePoints(ctx context.Context) (int, error) {
	ext := b.params.Extension
	exclusion := 2 * b.params.ExclusionRadius
	b.positions = make([]navgraph.Point, 0, b.params.Points)

	attempts := 0
	for len(b.positions) < b.params.Points && attempts < maxIterations {
		if attempts%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return attempts, err
			}
		}
		attempts++

		candidate := navgraph.Pt(
			float32(-ext+b.rng.Float64()*2*ext),
			float32(-ext+b.rng.Float64()*2*ext),
		)

		tooClose := false
		for _, idx := range b.points.near(candidate, exclusion) {
			if candidate.Distance(b.positions[idx]) <= exclusion {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}

		b.points.insert(len(b.positions), pointBox(candidate, pointTolerance))
		b.positions = append(b.positions, candidate)
	}
	return attempts, nil
}

// sampleLinks draws random short links and keeps those that pass every rule.
func (b *builder) sampleLinks(ctx context.Context, rejected *Rejections) (int, error) {
	n := len(b.positions)
	b.pairs = make([][2]int, 0, b.params.Links)
	if n == 0 {
		return 0, nil
	}

	attempts := 0
	for len(b.pairs) < b.params.Links && attempts < maxIterations {
		if attempts%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return attempts, err
			}
		}
		attempts++

		first := b.rng.IntN(n)
		second, ok := b.partner(first)
		if !ok {
			rejected.NoPartner++
			continue
		}

		key := [2]int{min(first, second), max(first, second)}
		if b.seen[key] {
			rejected.Duplicate++
			continue
		}

		seg := NewSegment(b.positions[first], b.positions[second])
		if b.crossesExisting(seg) {
			rejected.Crossing++
			continue
		}
		if b.grazesPoint(seg) {
			rejected.Grazing++
			continue
		}

		b.seen[key] = true
		b.links.insert(len(b.segments), seg.bounds(pointTolerance))
		b.segments = append(b.segments, seg)
		b.pairs = append(b.pairs, [2]int{first, second})
	}
	return attempts, nil
}

// partner picks a random other point closer than the maximum link length.
func (b *builder) partner(first int) (int, bool) {
	origin := b.positions[first]
	maxLen := b.params.MaxLineLength

	var candidates []int
	for _, idx := range b.points.near(origin, maxLen) {
		if idx != first && origin.Distance(b.positions[idx]) < maxLen {
			candidates = append(candidates, idx)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	slices.Sort(candidates)
	return candidates[b.rng.IntN(len(candidates))], true
}

func (b *builder) crossesExisting(seg Segment) bool {
	for _, idx := range b.links.search(seg.bounds(pointTolerance)) {
		if b.segments[idx].Intersects(seg) {
			return true
		}
	}
	return false
}

func (b *builder) grazesPoint(seg Segment) bool {
	clearance := b.params.EdgeDistance
	for _, idx := range b.points.search(seg.bounds(clearance + pointTolerance)) {
		if seg.InCriticalRange(b.positions[idx], clearance) {
			return true
		}
	}
	return false
}

// graph materializes the sampled points and links through the mutation API.
func (b *builder) graph() (*navgraph.Graph, error) {
	g := navgraph.NewGraph(navgraph.WithCapacity(len(b.positions)))
	handles := make([]navgraph.NodeID, len(b.positions))
	for i, p := range b.positions {
		handles[i] = g.AddNode(p)
	}
	for _, pair := range b.pairs {
		if err := g.ConnectNodes(handles[pair[0]], handles[pair[1]]); err != nil {
			return nil, fmt.Errorf("construct: connect %d-%d: %w", pair[0], pair[1], err)
		}
	}
	return g, nil
}

// pointTolerance gives points and axis-parallel segments positive extent in the R-tree.
const pointTolerance = 1e-9

// entry wraps a sample index for R-tree storage
type entry struct {
	idx  int
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *entry) Bounds() rtreego.Rect {
	return e.bbox
}

// index is an insert-only R-tree over sample indexes.
type index struct {
	tree *rtreego.Rtree
}

func newIndex() *index {
	return &index{tree: rtreego.NewTree(2, 25, 50)}
}

func (ix *index) insert(idx int, bbox rtreego.Rect) {
	ix.tree.Insert(&entry{idx: idx, bbox: bbox})
}

func (ix *index) search(bbox rtreego.Rect) []int {
	results := ix.tree.SearchIntersect(bbox)
	out := make([]int, 0, len(results))
	for _, item := range results {
		out = append(out, item.(*entry).idx)
	}
	return out
}

// near returns candidates inside the square of half-width radius around p.
func (ix *index) near(p navgraph.Point, radius float64) []int {
	return ix.search(pointBox(p, max(radius, pointTolerance)))
}

func pointBox(p navgraph.Point, half float64) rtreego.Rect {
	x, y := float64(p.X), float64(p.Y)
	return box(x-half, y-half, x+half, y+half)
}
