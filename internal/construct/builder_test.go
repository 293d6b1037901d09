package construct

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navgraph"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func smallParams() Params {
	p := DefaultParams()
	p.Points = 150
	p.Links = 150
	p.Seed = 42
	return p
}

// TestBuild_RespectsLayoutRules checks spacing, link length and non-crossing.
func TestBuild_RespectsLayoutRules(t *testing.T) {
	p := smallParams()
	g, report, err := Build(context.Background(), p, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, g.Len(), report.Points)
	assert.Equal(t, g.EdgeCount(), report.Links)
	assert.LessOrEqual(t, report.Points, p.Points)
	assert.Greater(t, report.Links, 0)

	views := g.NodesWithState()
	for i := range views {
		pos := views[i].Position
		assert.LessOrEqual(t, float64(pos.X), p.Extension)
		assert.GreaterOrEqual(t, float64(pos.X), -p.Extension)
		for j := i + 1; j < len(views); j++ {
			assert.Greater(t, pos.Distance(views[j].Position), 2*p.ExclusionRadius)
		}
	}

	links := g.Links()
	for i, a := range links {
		assert.Less(t, a.Cost, p.MaxLineLength)
		sa := NewSegment(a.From, a.To)
		for _, b := range links[i+1:] {
			assert.False(t, sa.Intersects(NewSegment(b.From, b.To)), "links %d-%d and %d-%d cross", a.A, a.B, b.A, b.B)
		}
	}
}

// TestBuild_SeedIsDeterministic verifies the same seed yields the same graph.
func TestBuild_SeedIsDeterministic(t *testing.T) {
	p := smallParams()
	g1, _, err := Build(context.Background(), p, quietLogger())
	require.NoError(t, err)
	g2, _, err := Build(context.Background(), p, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, g1.NodesWithState(), g2.NodesWithState())
	assert.Equal(t, g1.Links(), g2.Links())
}

// TestBuild_GraphIsSearchable runs a search on a generated graph.
func TestBuild_GraphIsSearchable(t *testing.T) {
	g, _, err := Build(context.Background(), smallParams(), quietLogger())
	require.NoError(t, err)
	require.Greater(t, g.Len(), 1)

	links := g.Links()
	require.NotEmpty(t, links)
	path, found, err := navgraph.SearchGraph(g, links[0].A, links[0].B)
	require.NoError(t, err)
	require.True(t, found)
	assert.LessOrEqual(t, path.Cost, links[0].Cost+1e-9)
}

// TestBuild_EmptyPointSet verifies links are skipped cleanly without points.
func TestBuild_EmptyPointSet(t *testing.T) {
	p := smallParams()
	p.Points = 0
	g, report, err := Build(context.Background(), p, quietLogger())
	require.NoError(t, err)
	assert.Zero(t, g.Len())
	assert.Zero(t, report.LinkAttempts)
}

// TestBuild_InvalidParams verifies validation runs first.
func TestBuild_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"extension", func(p *Params) { p.Extension = 0 }},
		{"points", func(p *Params) { p.Points = -1 }},
		{"links", func(p *Params) { p.Links = -1 }},
		{"max line length", func(p *Params) { p.MaxLineLength = 0 }},
		{"exclusion radius", func(p *Params) { p.ExclusionRadius = -0.1 }},
		{"edge distance", func(p *Params) { p.EdgeDistance = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := smallParams()
			tt.mutate(&p)
			_, _, err := Build(context.Background(), p, quietLogger())
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

// TestBuild_Cancelled verifies a cancelled context stops sampling.
func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Build(ctx, smallParams(), quietLogger())
	assert.ErrorIs(t, err, context.Canceled)
}
