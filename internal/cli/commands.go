package cli

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"navgraph"
	"navgraph/internal/construct"
	"navgraph/internal/server"
)

type graphResult struct {
	graph  *navgraph.Graph
	report construct.Report
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build a graph and serve it over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			ctx := cmd.Context()
			res, err := buildGraph(ctx, cfg.Graph)
			if err != nil {
				return err
			}

			srv := server.New(cfg.Graph, cfg.Server.PickRadius, loggerFromContext(ctx))
			srv.SetGraph(res.graph)
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func newRouteCmd(flags *globalFlags) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Build a graph and print the shortest path between two points",
		Example: `  navplanner route --from -0.8,-0.8 --to 0.8,0.8 --seed 7
  navplanner route --from 0,0 --to 0.5,0.5 --config navplanner.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromPt, err := parsePoint(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			toPt, err := parsePoint(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			res, err := buildGraph(ctx, cfg.Graph)
			if err != nil {
				return err
			}
			g := res.graph

			radius := float32(cfg.Server.PickRadius)
			start, ok := pickNode(g, fromPt, radius)
			if !ok {
				return errors.New("graph has no nodes")
			}
			goal, _ := pickNode(g, toPt, radius)
			logger.Debug("picked nodes", "start", start, "goal", goal)

			path, found, stats, err := navgraph.SearchGraphStats(g, start, goal)
			if err != nil {
				return err
			}
			logger.Debug("search finished", "expanded", stats.Expanded, "stale", stats.StalePops, "pushes", stats.Pushes)

			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintf(out, "no path from node %d to node %d\n", start, goal)
				return nil
			}
			fmt.Fprintf(out, "path from node %d to node %d: %d waypoints, length %.4f\n", start, goal, path.Len(), path.Cost)
			for i, id := range path.Nodes {
				p := path.Points[i]
				fmt.Fprintf(out, "  %3d: node %-5d (%.4f, %.4f)\n", i, id, p.X, p.Y)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start point as x,y")
	cmd.Flags().StringVar(&to, "to", "", "goal point as x,y")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Build a graph and print what was generated",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			res, err := buildGraph(cmd.Context(), cfg.Graph)
			if err != nil {
				return err
			}

			r := res.report
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seed:            %d\n", r.Seed)
			fmt.Fprintf(out, "nodes:           %d (requested %d, %d attempts)\n", r.Points, cfg.Graph.Points, r.PointAttempts)
			fmt.Fprintf(out, "edges:           %d (requested %d, %d attempts)\n", r.Links, cfg.Graph.Links, r.LinkAttempts)
			fmt.Fprintf(out, "rejected links:  no partner %d, duplicate %d, crossing %d, grazing %d\n",
				r.Rejected.NoPartner, r.Rejected.Duplicate, r.Rejected.Crossing, r.Rejected.Grazing)
			return nil
		},
	}
}

// parsePoint parses "x,y".
func parsePoint(s string) (navgraph.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return navgraph.Point{}, fmt.Errorf("expected x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 32)
	if err != nil {
		return navgraph.Point{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 32)
	if err != nil {
		return navgraph.Point{}, err
	}
	return navgraph.Pt(float32(x), float32(y)), nil
}

// pickNode picks the node under p, falling back to the closest node overall.
func pickNode(g *navgraph.Graph, p navgraph.Point, radius float32) (navgraph.NodeID, bool) {
	if id, ok := g.FindNearestNode(p, radius); ok {
		return id, true
	}
	return g.FindNearestNode(p, float32(math.Inf(1)))
}
