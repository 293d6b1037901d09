package navgraph

import (
	"container/heap"
)

// SearchState is the per-node state of the most recent search.
type SearchState uint8

const (
	// Unvisited nodes were not reached.
	Unvisited SearchState = iota
	// Open nodes were discovered but not finalized.
	Open
	// Closed nodes have their shortest cost finalized.
	Closed
)

func (s SearchState) String() string {
	switch s {
	case Unvisited:
		return "unvisited"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Annotation is the bookkeeping a search leaves on a node.
// G, F and Parent are meaningful only when State is not Unvisited.
type Annotation struct {
	State  SearchState
	G      float64 // cost from the search start
	F      float64 // G plus the straight-line estimate to the goal
	Parent NodeID  // predecessor on the best known path, or NoNode
	OnPath bool    // part of the returned path
}

func clearAnnotation() Annotation {
	return Annotation{State: Unvisited, Parent: NoNode}
}

// Path is a search result from start to goal inclusive.
type Path struct {
	Nodes  []NodeID
	Points []Point
	Cost   float64
}

// Len returns the number of waypoints.
func (p Path) Len() int { return len(p.Nodes) }

// SearchStats describes the work done by one search.
type SearchStats struct {
	Expanded   int // nodes closed
	StalePops  int // superseded frontier entries discarded
	Pushes     int // frontier insertions
	ClosedSkip int // relaxations skipped because the neighbor was closed
}

// frontierItem represents a queued node in the A* search
type frontierItem struct {
	node NodeID
	g    float64
	f    float64
	seq  int // insertion order
}

// frontier implements heap.Interface ordered by f, then g, then insertion order.
// Entries are never updated in place; superseded ones are skipped on pop.
type frontier []frontierItem

func (pq frontier) Len() int { return len(pq) }

func (pq frontier) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	if pq[i].g != pq[j].g {
		return pq[i].g < pq[j].g
	}
	return pq[i].seq < pq[j].seq
}

func (pq frontier) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *frontier) Push(x any) {
	*pq = append(*pq, x.(frontierItem))
}

func (pq *frontier) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// SearchGraph computes the shortest path from start to goal using A* with the
// straight-line heuristic. It returns false when goal is not reachable; that
// is not an error. Node annotations are left in place for inspection.
func SearchGraph(g *Graph, start, goal NodeID) (Path, bool, error) {
	path, found, _, err := SearchGraphStats(g, start, goal)
	return path, found, err
}

// SearchGraphStats is SearchGraph that also reports expansion counters.
func SearchGraphStats(g *Graph, start, goal NodeID) (Path, bool, SearchStats, error) {
	var stats SearchStats
	if err := g.check(start, goal); err != nil {
		return Path{}, false, stats, err
	}

	if start == goal {
		return Path{
			Nodes:  []NodeID{start},
			Points: []Point{g.nodes[start].position},
		}, true, stats, nil
	}

	s := searcher{
		g:       g,
		goal:    goal,
		goalPos: g.nodes[goal].position,
		openSet: make(frontier, 0, 16),
		stats:   &stats,
	}
	s.reset()
	s.open(start, NoNode, 0)

	for s.openSet.Len() > 0 {
		item := heap.Pop(&s.openSet).(frontierItem)
		current := &g.nodes[item.node]

		if current.search.State == Closed || item.g > current.search.G {
			stats.StalePops++
			continue
		}

		current.search.State = Closed
		stats.Expanded++

		if item.node == goal {
			return s.reconstruct(start), true, stats, nil
		}

		for _, edge := range current.edges {
			neighbor := g.mustNode(edge.To)
			if neighbor.search.State == Closed {
				stats.ClosedSkip++
				continue
			}

			tentativeG := current.search.G + edge.Cost
			if neighbor.search.State == Unvisited || tentativeG < neighbor.search.G {
				s.open(edge.To, item.node, tentativeG)
			}
		}
	}

	// No path found
	return Path{}, false, stats, nil
}

// searcher holds the transient state of one SearchGraph call.
type searcher struct {
	g       *Graph
	goal    NodeID
	goalPos Point
	openSet frontier
	seq     int
	stats   *SearchStats
}

func (s *searcher) reset() {
	for i := range s.g.nodes {
		s.g.nodes[i].search = clearAnnotation()
	}
	heap.Init(&s.openSet)
}

// open records a better path to id through parent and queues it.
func (s *searcher) open(id, parent NodeID, g float64) {
	n := &s.g.nodes[id]
	n.search.Parent = parent
	n.search.G = g
	n.search.F = g + n.position.Distance(s.goalPos)
	n.search.State = Open

	heap.Push(&s.openSet, frontierItem{node: id, g: g, f: n.search.F, seq: s.seq})
	s.seq++
	s.stats.Pushes++
}

// reconstruct walks parent links back from the goal and marks the path.
func (s *searcher) reconstruct(start NodeID) Path {
	var ids []NodeID
	for id := s.goal; ; {
		ids = append(ids, id)
		if id == start {
			break
		}
		id = s.g.mustNode(id).search.Parent
	}

	// reverse path
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	points := make([]Point, len(ids))
	for i, id := range ids {
		n := &s.g.nodes[id]
		n.search.OnPath = true
		points[i] = n.position
	}
	return Path{
		Nodes:  ids,
		Points: points,
		Cost:   s.g.nodes[s.goal].search.G,
	}
}
