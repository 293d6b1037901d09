// Package cli implements the navplanner command-line interface.
//
// Commands:
//   - serve: build a random graph and serve it over HTTP
//   - route: build a random graph and print the shortest path between two points
//   - stats: build a random graph and print what was generated
//
// Every command accepts --config for a TOML file and --verbose for debug logs.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"navgraph/internal/config"
	"navgraph/internal/construct"
)

// globalFlags are shared by every command.
type globalFlags struct {
	verbose    bool
	configPath string
	points     int
	links      int
	seed       uint64
}

// Execute runs the CLI with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree writing results to out and logs to logOut.
func NewRootCommand(out, logOut io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "navplanner",
		Short:        "navplanner builds navigation graphs and finds shortest paths",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if flags.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(logOut, level)))
		},
	}
	root.SetOut(out)
	root.SetErr(logOut)

	pf := root.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a TOML configuration file")
	pf.IntVar(&flags.points, "points", 0, "number of nodes to generate (overrides config)")
	pf.IntVar(&flags.links, "links", 0, "number of links to generate (overrides config)")
	pf.Uint64Var(&flags.seed, "seed", 0, "random seed (overrides config, 0 = time based)")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newRouteCmd(flags))
	root.AddCommand(newStatsCmd(flags))
	return root
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		var err error
		if cfg, err = config.Load(flags.configPath); err != nil {
			return config.Config{}, err
		}
	}

	pf := cmd.Flags()
	if pf.Changed("points") {
		cfg.Graph.Points = flags.points
	}
	if pf.Changed("links") {
		cfg.Graph.Links = flags.links
	}
	if pf.Changed("seed") {
		cfg.Graph.Seed = flags.seed
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// buildGraph runs the generator with the command's logger.
func buildGraph(ctx context.Context, p construct.Params) (*graphResult, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	g, report, err := construct.Build(ctx, p, logger)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	prog.done(fmt.Sprintf("Generated %d nodes and %d edges", report.Points, report.Links))
	return &graphResult{graph: g, report: report}, nil
}
