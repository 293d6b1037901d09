package navgraph

import (
	"fmt"
	"math"
	"slices"
)

// NodeID is a stable handle for a node. Handles are dense, start at zero and
// are never reused within one graph.
type NodeID int

// NoNode is the parent of a node that has none.
const NoNode NodeID = -1

// Edge represents a connection from a node to a neighbor with a cost
type Edge struct {
	To   NodeID  // Handle of the neighbor
	Cost float64 // Euclidean distance, fixed at connect time
}

// Link is an undirected edge reported once, with A < B.
type Link struct {
	A, B   NodeID
	From   Point
	To     Point
	Cost   float64
	OnPath bool // both endpoints lie on the last found path
}

// NodeView is a node's position together with its last search state.
type NodeView struct {
	ID       NodeID
	Position Point
	State    SearchState
	OnPath   bool
}

type node struct {
	position Point
	edges    []Edge
	search   Annotation
}

type pairKey struct {
	lo, hi NodeID
}

func keyOf(a, b NodeID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Graph is a navigation graph over planar positions. Edges are undirected and
// weighted by the distance between their endpoints.
//
// A Graph is not safe for concurrent use. Searches write annotations onto the
// nodes, so even SearchGraph counts as a mutation.
type Graph struct {
	nodes []node
	edges map[pairKey]float64
	index *spatialIndex
}

// Options configures a new Graph.
type Options struct {
	Capacity         int // expected number of nodes
	IndexMinChildren int
	IndexMaxChildren int
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithCapacity preallocates room for n nodes.
func WithCapacity(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Capacity = n
		}
	}
}

// WithIndexFanout sets the minimum and maximum children per R-tree node.
// Values that rtreego would reject are ignored.
func WithIndexFanout(minChildren, maxChildren int) Option {
	return func(o *Options) {
		if minChildren < 1 || maxChildren < 2*minChildren {
			return
		}
		o.IndexMinChildren = minChildren
		o.IndexMaxChildren = maxChildren
	}
}

// DefaultOptions returns the options used when NewGraph is called without any.
func DefaultOptions() Options {
	return Options{
		IndexMinChildren: 25,
		IndexMaxChildren: 50,
	}
}

// NewGraph creates an empty graph.
func NewGraph(opts ...Option) *Graph {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Graph{
		nodes: make([]node, 0, cfg.Capacity),
		edges: make(map[pairKey]float64),
		index: newSpatialIndex(cfg.IndexMinChildren, cfg.IndexMaxChildren),
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

func (g *Graph) check(ids ...NodeID) error {
	for _, id := range ids {
		if !g.valid(id) {
			return fmt.Errorf("%w: %d", ErrInvalidNode, id)
		}
	}
	return nil
}

// mustNode returns the node for an id reached through internal references.
// A miss means adjacency and the node store disagree.
func (g *Graph) mustNode(id NodeID) *node {
	if !g.valid(id) {
		panic(fmt.Sprintf("navgraph: invariant violated: reference to missing node %d", id))
	}
	return &g.nodes[id]
}

// AddNode appends a node at p and returns its handle.
func (g *Graph) AddNode(p Point) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{
		position: p,
		search:   clearAnnotation(),
	})
	g.index.insert(id, p)
	return id
}

// ConnectNodes adds an undirected edge between a and b weighted by their distance.
func (g *Graph) ConnectNodes(a, b NodeID) error {
	if err := g.check(a, b); err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("%w: %d", ErrSelfLoop, a)
	}
	key := keyOf(a, b)
	if _, exists := g.edges[key]; exists {
		return fmt.Errorf("%w: %d-%d", ErrDuplicateEdge, a, b)
	}

	cost := g.nodes[a].position.Distance(g.nodes[b].position)
	g.edges[key] = cost

	// Add bidirectional edge
	g.nodes[a].edges = append(g.nodes[a].edges, Edge{To: b, Cost: cost})
	g.nodes[b].edges = append(g.nodes[b].edges, Edge{To: a, Cost: cost})
	return nil
}

// DisconnectNodes removes the edge between a and b.
func (g *Graph) DisconnectNodes(a, b NodeID) error {
	if err := g.check(a, b); err != nil {
		return err
	}
	key := keyOf(a, b)
	if _, exists := g.edges[key]; !exists {
		return fmt.Errorf("%w: %d-%d", ErrEdgeNotFound, a, b)
	}
	delete(g.edges, key)

	g.nodes[a].edges = slices.DeleteFunc(g.nodes[a].edges, func(e Edge) bool { return e.To == b })
	g.nodes[b].edges = slices.DeleteFunc(g.nodes[b].edges, func(e Edge) bool { return e.To == a })
	return nil
}

// HasEdge reports whether a and b are directly connected.
// Unknown handles are simply not connected.
func (g *Graph) HasEdge(a, b NodeID) bool {
	_, ok := g.edges[keyOf(a, b)]
	return ok
}

// Neighbors returns every node directly connected to id with the edge cost.
// The slice is a copy in connection order.
func (g *Graph) Neighbors(id NodeID) ([]Edge, error) {
	if err := g.check(id); err != nil {
		return nil, err
	}
	return slices.Clone(g.nodes[id].edges), nil
}

// Position returns the position a node was created with.
func (g *Graph) Position(id NodeID) (Point, error) {
	if err := g.check(id); err != nil {
		return Point{}, err
	}
	return g.nodes[id].position, nil
}

// NodesWithin returns, in ascending order, every node whose distance to p is
// at most radius. A negative radius matches nothing.
func (g *Graph) NodesWithin(p Point, radius float32) []NodeID {
	r := float64(radius)
	if r < 0 || math.IsNaN(r) {
		return []NodeID{}
	}

	var candidates []NodeID
	if math.IsInf(r, 1) {
		candidates = make([]NodeID, len(g.nodes))
		for i := range g.nodes {
			candidates[i] = NodeID(i)
		}
	} else {
		candidates = g.index.queryRadius(p, r)
	}

	result := make([]NodeID, 0, len(candidates))
	for _, id := range candidates {
		if g.mustNode(id).position.Distance(p) <= r {
			result = append(result, id)
		}
	}
	slices.Sort(result)
	return result
}

// FindNearestNode finds the closest node to p within radius.
// Equidistant nodes resolve to the smaller handle.
func (g *Graph) FindNearestNode(p Point, radius float32) (NodeID, bool) {
	nearest := NoNode
	minDist := math.MaxFloat64
	for _, id := range g.NodesWithin(p, radius) {
		if dist := g.nodes[id].position.Distance(p); dist < minDist {
			minDist = dist
			nearest = id
		}
	}
	return nearest, nearest != NoNode
}

// SearchState returns the state a node was left in by the most recent search.
func (g *Graph) SearchState(id NodeID) (SearchState, error) {
	if err := g.check(id); err != nil {
		return Unvisited, err
	}
	return g.nodes[id].search.State, nil
}

// Annotation returns the full search bookkeeping of a node.
func (g *Graph) Annotation(id NodeID) (Annotation, error) {
	if err := g.check(id); err != nil {
		return Annotation{}, err
	}
	return g.nodes[id].search, nil
}

// NodesWithState lists every node in handle order with its last search state.
func (g *Graph) NodesWithState() []NodeView {
	views := make([]NodeView, len(g.nodes))
	for i := range g.nodes {
		n := &g.nodes[i]
		views[i] = NodeView{
			ID:       NodeID(i),
			Position: n.position,
			State:    n.search.State,
			OnPath:   n.search.OnPath,
		}
	}
	return views
}

// Links returns every edge once, ordered by its smaller endpoint and then by
// connection order.
func (g *Graph) Links() []Link {
	links := make([]Link, 0, len(g.edges))
	for i := range g.nodes {
		from := NodeID(i)
		n := &g.nodes[i]
		for _, e := range n.edges {
			if e.To < from {
				continue
			}
			to := g.mustNode(e.To)
			links = append(links, Link{
				A:      from,
				B:      e.To,
				From:   n.position,
				To:     to.position,
				Cost:   e.Cost,
				OnPath: n.search.OnPath && to.search.OnPath,
			})
		}
	}
	return links
}
