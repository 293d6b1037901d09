package navgraph

import "errors"

// Sentinel errors returned by graph mutation, queries and search.
// Callers match them with errors.Is; returned values carry the offending handles.
var (
	// ErrInvalidNode indicates a handle that was never issued by this graph.
	ErrInvalidNode = errors.New("navgraph: invalid node")

	// ErrSelfLoop indicates an attempt to connect a node to itself.
	ErrSelfLoop = errors.New("navgraph: self-loop not allowed")

	// ErrDuplicateEdge indicates an attempt to connect an already connected pair.
	ErrDuplicateEdge = errors.New("navgraph: edge already exists")

	// ErrEdgeNotFound indicates an attempt to disconnect a pair with no edge.
	ErrEdgeNotFound = errors.New("navgraph: edge not found")
)
