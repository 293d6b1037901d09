package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"navgraph"
	"navgraph/internal/construct"
)

// BuildRequest is the body of POST /graph/build. Omitted parameters keep the
// server defaults.
type BuildRequest struct {
	construct.Params
	Force bool `json:"force,omitempty"` // Set to true to force rebuild
}

// BuildResponse reports the generated graph.
type BuildResponse struct {
	Success  bool    `json:"success"`
	NumNodes int     `json:"numNodes"`
	NumEdges int     `json:"numEdges"`
	Seed     uint64  `json:"seed"`
	Seconds  float64 `json:"seconds"`
}

// RouteRequest names the endpoints either by handle or by a point to pick from.
type RouteRequest struct {
	Start   *navgraph.Point  `json:"start,omitempty"`
	Goal    *navgraph.Point  `json:"goal,omitempty"`
	StartID *navgraph.NodeID `json:"startId,omitempty"`
	GoalID  *navgraph.NodeID `json:"goalId,omitempty"`
}

// RouteResponse carries the path found, if any.
type RouteResponse struct {
	Path     []navgraph.Point  `json:"path"`
	Nodes    []navgraph.NodeID `json:"nodes"`
	Cost     float64           `json:"cost"`
	Success  bool              `json:"success"`
	Expanded int               `json:"expanded"`
	Message  string            `json:"message,omitempty"`
}

// POST /graph/build - generate a new random graph
func (s *Server) buildGraphHandler(w http.ResponseWriter, r *http.Request) {
	req := BuildRequest{Params: s.params}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("invalid build request", "err", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if s.Graph() != nil && !req.Force {
		writeError(w, http.StatusConflict, "graph already exists; set force to rebuild")
		return
	}

	start := time.Now()
	graph, report, err := construct.Build(r.Context(), req.Params, s.logger)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, construct.ErrInvalidParams) {
			status = http.StatusBadRequest
		}
		s.logger.Error("graph build failed", "err", err)
		writeError(w, status, err.Error())
		return
	}
	if !s.installGraph(graph, req.Force) {
		writeError(w, http.StatusConflict, "graph already exists; set force to rebuild")
		return
	}

	writeJSON(w, http.StatusOK, BuildResponse{
		Success:  true,
		NumNodes: report.Points,
		NumEdges: report.Links,
		Seed:     report.Seed,
		Seconds:  time.Since(start).Seconds(),
	})
}

// GET /graph - links and nodes as GeoJSON with the last search's annotations
func (s *Server) getGraphHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	graph := s.graph
	if graph == nil {
		s.mu.RUnlock()
		writeError(w, http.StatusBadRequest, "graph not built; call /graph/build first")
		return
	}
	fc := GraphToGeoJSON(graph)
	s.mu.RUnlock()

	data, err := fc.MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

// GraphToGeoJSON converts links to LineStrings and nodes to Points.
func GraphToGeoJSON(g *navgraph.Graph) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range g.Links() {
		f := geojson.NewFeature(orb.LineString{toOrb(l.From), toOrb(l.To)})
		f.Properties["kind"] = "link"
		f.Properties["from"] = int(l.A)
		f.Properties["to"] = int(l.B)
		f.Properties["cost"] = l.Cost
		f.Properties["onPath"] = l.OnPath
		fc.Append(f)
	}
	for _, v := range g.NodesWithState() {
		f := geojson.NewFeature(toOrb(v.Position))
		f.ID = int(v.ID)
		f.Properties["kind"] = "node"
		f.Properties["state"] = v.State.String()
		f.Properties["onPath"] = v.OnPath
		fc.Append(f)
	}
	return fc
}

func toOrb(p navgraph.Point) orb.Point {
	return orb.Point{float64(p.X), float64(p.Y)}
}

// POST /route - shortest path between two handles or two picked points
func (s *Server) routeHandler(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph == nil {
		writeError(w, http.StatusBadRequest, "graph not built; call /graph/build first")
		return
	}

	start, err := s.resolve(req.StartID, req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	goal, err := s.resolve(req.GoalID, req.Goal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "goal: "+err.Error())
		return
	}

	path, found, stats, err := navgraph.SearchGraphStats(s.graph, start, goal)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := RouteResponse{
		Path:     path.Points,
		Nodes:    path.Nodes,
		Cost:     path.Cost,
		Success:  found,
		Expanded: stats.Expanded,
	}
	if !found {
		resp.Path = []navgraph.Point{}
		resp.Nodes = []navgraph.NodeID{}
		resp.Message = "no path between the selected nodes"
		s.logger.Info("no path found", "start", start, "goal", goal, "expanded", stats.Expanded)
	} else {
		s.logger.Info("path found",
			"start", start, "goal", goal,
			"waypoints", path.Len(),
			"cost", fmt.Sprintf("%.4f", path.Cost),
			"expanded", stats.Expanded,
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolve turns a handle or a picked point into a handle. Caller holds the lock.
func (s *Server) resolve(id *navgraph.NodeID, p *navgraph.Point) (navgraph.NodeID, error) {
	switch {
	case id != nil:
		if _, err := s.graph.Position(*id); err != nil {
			return navgraph.NoNode, err
		}
		return *id, nil
	case p != nil:
		picked, ok := s.graph.FindNearestNode(*p, s.pickRadius)
		if !ok {
			return navgraph.NoNode, fmt.Errorf("no node within %g of %s", s.pickRadius, *p)
		}
		return picked, nil
	default:
		return navgraph.NoNode, errors.New("missing point or node id")
	}
}

// GET /health - Health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	hasGraph := s.graph != nil
	numNodes, numEdges := 0, 0
	if hasGraph {
		numNodes = s.graph.Len()
		numEdges = s.graph.EdgeCount()
	}
	s.mu.RUnlock()

	status := "ready"
	if !hasGraph {
		status = "waiting for graph"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   status,
		"hasGraph": hasGraph,
		"numNodes": numNodes,
		"numEdges": numEdges,
	})
}
