package navgraph

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSearchGraph_ShortestPath verifies the direct route beats the detours.
func TestSearchGraph_ShortestPath(t *testing.T) {
	g := buildTestGraph(t)

	path, found, err := SearchGraph(g, 0, 3)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, []NodeID{0, 2, 3}, path.Nodes)
	assert.Equal(t, []Point{Pt(0, 0), Pt(1, 0), Pt(1, 1)}, path.Points)
	assert.InDelta(t, 2.0, path.Cost, 1e-9)
	assert.Equal(t, 3, path.Len())

	var total float64
	for i := 1; i < len(path.Points); i++ {
		total += path.Points[i-1].Distance(path.Points[i])
	}
	assert.InDelta(t, path.Cost, total, 1e-9)
}

// TestSearchGraph_AnnotationsAfterSuccess verifies the states left for viewers.
func TestSearchGraph_AnnotationsAfterSuccess(t *testing.T) {
	g := buildTestGraph(t)
	_, found, stats, err := SearchGraphStats(g, 0, 3)
	require.NoError(t, err)
	require.True(t, found)

	want := []SearchState{Closed, Closed, Closed, Closed, Open}
	for i, s := range want {
		got, err := g.SearchState(NodeID(i))
		require.NoError(t, err)
		assert.Equal(t, s, got, "node %d", i)
	}
	assert.Equal(t, 4, stats.Expanded)

	ann, err := g.Annotation(3)
	require.NoError(t, err)
	assert.Equal(t, NodeID(2), ann.Parent)
	assert.InDelta(t, 2.0, ann.G, 1e-9)
	assert.InDelta(t, ann.G, ann.F, 1e-9, "heuristic is zero at the goal")

	start, _ := g.Annotation(0)
	assert.Equal(t, NoNode, start.Parent)
	assert.Zero(t, start.G)

	onPath := map[NodeID]bool{}
	for _, v := range g.NodesWithState() {
		if v.OnPath {
			onPath[v.ID] = true
		}
	}
	assert.Equal(t, map[NodeID]bool{0: true, 2: true, 3: true}, onPath)

	var hinted [][2]NodeID
	for _, l := range g.Links() {
		if l.OnPath {
			hinted = append(hinted, [2]NodeID{l.A, l.B})
		}
	}
	assert.ElementsMatch(t, [][2]NodeID{{0, 2}, {2, 3}}, hinted)
}

// TestSearchGraph_Deterministic verifies repeated searches agree exactly.
func TestSearchGraph_Deterministic(t *testing.T) {
	g := buildTestGraph(t)
	first, _, err := SearchGraph(g, 0, 3)
	require.NoError(t, err)
	firstStates := g.NodesWithState()

	for i := 0; i < 10; i++ {
		again, found, err := SearchGraph(g, 0, 3)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, first, again)
		assert.Equal(t, firstStates, g.NodesWithState())
	}
}

// TestSearchGraph_TrivialPath verifies start == goal touches no annotation.
func TestSearchGraph_TrivialPath(t *testing.T) {
	g := buildTestGraph(t)
	_, _, err := SearchGraph(g, 0, 3)
	require.NoError(t, err)
	before := g.NodesWithState()

	for i := 0; i < g.Len(); i++ {
		id := NodeID(i)
		path, found, err := SearchGraph(g, id, id)
		require.NoError(t, err)
		require.True(t, found)

		pos, _ := g.Position(id)
		assert.Equal(t, []Point{pos}, path.Points)
		assert.Equal(t, []NodeID{id}, path.Nodes)
		assert.Zero(t, path.Cost)
	}
	assert.Equal(t, before, g.NodesWithState())
}

// TestSearchGraph_TrivialPathOnFreshGraph verifies nothing leaves Unvisited.
func TestSearchGraph_TrivialPathOnFreshGraph(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(Pt(2, 2))

	path, found, err := SearchGraph(g, a, a)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []Point{Pt(2, 2)}, path.Points)

	state, _ := g.SearchState(a)
	assert.Equal(t, Unvisited, state)
}

// TestSearchGraph_NoPath verifies disjoint components report absence without error.
func TestSearchGraph_NoPath(t *testing.T) {
	g := buildTestGraph(t)
	// second component
	q0 := g.AddNode(Pt(5, 5))
	q1 := g.AddNode(Pt(6, 5))
	require.NoError(t, g.ConnectNodes(q0, q1))

	path, found, err := SearchGraph(g, 0, q1)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, path.Points)

	for i := 0; i < 5; i++ {
		s, _ := g.SearchState(NodeID(i))
		assert.Equal(t, Closed, s, "whole start component is finalized")
	}
	for _, id := range []NodeID{q0, q1} {
		s, _ := g.SearchState(id)
		assert.Equal(t, Unvisited, s)
	}

	_, found, err = SearchGraph(g, q1, 3)
	require.NoError(t, err)
	assert.False(t, found)
}

// TestSearchGraph_InvalidNode verifies bad handles fail before any state changes.
func TestSearchGraph_InvalidNode(t *testing.T) {
	g := buildTestGraph(t)
	_, _, err := SearchGraph(g, 0, 3)
	require.NoError(t, err)
	before := g.NodesWithState()

	_, _, err = SearchGraph(g, 0, 9)
	assert.ErrorIs(t, err, ErrInvalidNode)
	_, _, err = SearchGraph(g, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidNode)
	_, _, err = SearchGraph(g, 9, 9)
	assert.ErrorIs(t, err, ErrInvalidNode)

	assert.Equal(t, before, g.NodesWithState())
}

// TestSearchGraph_ResetsPreviousAnnotations verifies a new search starts clean.
func TestSearchGraph_ResetsPreviousAnnotations(t *testing.T) {
	g := buildTestGraph(t)
	_, found, err := SearchGraph(g, 0, 3)
	require.NoError(t, err)
	require.True(t, found)

	// 2 -> 0 never reaches node 4
	path, found, err := SearchGraph(g, 2, 0)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []NodeID{2, 0}, path.Nodes)

	ann, _ := g.Annotation(3)
	assert.False(t, ann.OnPath, "path marks from the previous search are cleared")
	assert.Equal(t, Open, ann.State)

	ann4, _ := g.Annotation(4)
	assert.Equal(t, Unvisited, ann4.State)
}

// TestSearchGraph_StaleEntriesDiscarded builds a graph where a queued node is
// later reached more cheaply, leaving a superseded frontier entry behind.
func TestSearchGraph_StaleEntriesDiscarded(t *testing.T) {
	g := NewGraph()
	s := g.AddNode(Pt(0, 0))
	x := g.AddNode(Pt(4, 0))
	y := g.AddNode(Pt(0, 4))
	a := g.AddNode(Pt(0, 8))
	goal := g.AddNode(Pt(10, 0))

	require.NoError(t, g.ConnectNodes(s, x))
	require.NoError(t, g.ConnectNodes(s, y))
	require.NoError(t, g.ConnectNodes(x, a))
	require.NoError(t, g.ConnectNodes(y, a))

	_, found, stats, err := SearchGraphStats(g, s, goal)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Equal(t, 4, stats.Expanded)
	assert.Equal(t, 1, stats.StalePops)
	assert.Equal(t, 5, stats.Pushes)

	ann, _ := g.Annotation(a)
	assert.Equal(t, Closed, ann.State)
	assert.Equal(t, y, ann.Parent)
	assert.InDelta(t, 8.0, ann.G, 1e-9)

	goalState, _ := g.SearchState(goal)
	assert.Equal(t, Unvisited, goalState)
}

// TestSearchGraph_AfterDisconnect verifies searches follow topology changes.
func TestSearchGraph_AfterDisconnect(t *testing.T) {
	g := buildTestGraph(t)
	require.NoError(t, g.DisconnectNodes(2, 3))

	path, found, err := SearchGraph(g, 0, 3)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []NodeID{0, 1, 4, 3}, path.Nodes)
	assert.InDelta(t, 2.6928, path.Cost, 1e-3)
}

// TestFrontier_Ordering verifies f, then g, then insertion order.
func TestFrontier_Ordering(t *testing.T) {
	pq := frontier{}
	heap.Init(&pq)
	heap.Push(&pq, frontierItem{node: 1, g: 2, f: 5, seq: 0})
	heap.Push(&pq, frontierItem{node: 2, g: 1, f: 5, seq: 1})
	heap.Push(&pq, frontierItem{node: 3, g: 1, f: 5, seq: 2})
	heap.Push(&pq, frontierItem{node: 4, g: 9, f: 3, seq: 3})
	heap.Push(&pq, frontierItem{node: 5, g: 0, f: 7, seq: 4})

	var order []NodeID
	for pq.Len() > 0 {
		order = append(order, heap.Pop(&pq).(frontierItem).node)
	}
	assert.Equal(t, []NodeID{4, 2, 3, 1, 5}, order)
}

// TestSearchState_String covers the textual names used by viewers.
func TestSearchState_String(t *testing.T) {
	assert.Equal(t, "unvisited", Unvisited.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "unknown", SearchState(9).String())
}
