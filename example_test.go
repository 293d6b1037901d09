package navgraph_test

import (
	"fmt"

	"navgraph"
)

func ExampleSearchGraph() {
	g := navgraph.NewGraph()
	p0 := g.AddNode(navgraph.Pt(0, 0))
	p1 := g.AddNode(navgraph.Pt(0.5, 0.5))
	p2 := g.AddNode(navgraph.Pt(1, 0))
	p3 := g.AddNode(navgraph.Pt(1, 1))
	p4 := g.AddNode(navgraph.Pt(0.1, 0))

	_ = g.ConnectNodes(p0, p1)
	_ = g.ConnectNodes(p1, p2)
	_ = g.ConnectNodes(p0, p2)
	_ = g.ConnectNodes(p1, p4)
	_ = g.ConnectNodes(p4, p3)
	_ = g.ConnectNodes(p2, p3)

	path, found, err := navgraph.SearchGraph(g, p0, p3)
	if err != nil || !found {
		fmt.Println("no route")
		return
	}
	fmt.Println(path.Points)
	fmt.Printf("length %.1f\n", path.Cost)

	state, _ := g.SearchState(p4)
	fmt.Println("p4:", state)
	// Output:
	// [(0, 0) (1, 0) (1, 1)]
	// length 2.0
	// p4: open
}

func ExampleGraph_FindNearestNode() {
	g := navgraph.NewGraph()
	g.AddNode(navgraph.Pt(0, 0))
	g.AddNode(navgraph.Pt(1, 1))

	if id, ok := g.FindNearestNode(navgraph.Pt(0.9, 0.95), 0.2); ok {
		fmt.Println("picked", id)
	}
	fmt.Println(g.NodesWithin(navgraph.Pt(0.5, 0.5), 1))
	// Output:
	// picked 1
	// [0 1]
}
