// Package navgraph implements a navigation graph for two-dimensional spaces
// and an A* search over it.
//
// Nodes are planar positions identified by dense integer handles. Edges are
// undirected and carry the Euclidean distance between their endpoints, fixed
// when the edge is created. SearchGraph finds a shortest path between two
// nodes with the straight-line distance as heuristic; because every edge
// weight is itself a straight-line distance the heuristic is consistent and
// the first path found is optimal.
//
// Each search leaves per-node annotations (state, cost, parent, path
// membership) on the graph until the next search, so a viewer can inspect
// how the search progressed:
//
//	path, found, err := navgraph.SearchGraph(g, start, goal)
//	for _, v := range g.NodesWithState() {
//	    draw(v.Position, v.State, v.OnPath)
//	}
//
// A Graph is not safe for concurrent use.
package navgraph
