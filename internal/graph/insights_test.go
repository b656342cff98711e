package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draft-strategy-lab/internal/domain"
)

func TestClassifyNode(t *testing.T) {
	assert.Equal(t, VerdictWorks, ClassifyNode(0.06))
	assert.Equal(t, VerdictBait, ClassifyNode(-0.06))
	assert.Equal(t, VerdictFragile, ClassifyNode(0.05))
	assert.Equal(t, VerdictFragile, ClassifyNode(-0.05))
	assert.Equal(t, VerdictFragile, ClassifyNode(0))
}

func TestEdgeTrend(t *testing.T) {
	assert.Equal(t, TrendNone, EdgeTrend(domain.EdgeState{}))
	assert.Equal(t, TrendWinning, EdgeTrend(domain.EdgeState{Pheromone: 0.3, WinPheromone: 0.3}))
	assert.Equal(t, TrendLosing, EdgeTrend(domain.EdgeState{Pheromone: 0.21, LossPheromone: 0.21}))
	assert.Equal(t, TrendMixed, EdgeTrend(domain.EdgeState{Pheromone: 0.33, WinPheromone: 0.18, LossPheromone: 0.15}))
}

func TestPrimaryStrategies_OrderAndLimit(t *testing.T) {
	g := New(DefaultConfig())
	g.Deposit(pickMatch(1, true, "BOT_PRESSURE", "MID_TEMPO"), domain.ModePicks)
	g.Deposit(pickMatch(2, true, "BOT_PRESSURE"), domain.ModePicks)
	g.Deposit(pickMatch(3, false, "POKE_SIEGE"), domain.ModePicks)

	got := g.PrimaryStrategies(2)
	require.Len(t, got, 2)
	assert.Equal(t, domain.NodeBotPressure, got[0].ID)
	assert.Equal(t, VerdictWorks, got[0].Verdict)
	assert.Equal(t, domain.NodeMidTempo, got[1].ID)

	assert.Len(t, g.PrimaryStrategies(10), 3)
}

func TestPrimaryStrategies_EmptyGraph(t *testing.T) {
	g := New(DefaultConfig())
	assert.Empty(t, g.PrimaryStrategies(3))
	assert.Equal(t, "", g.CoachInsight(domain.ModePicks))
}

func TestLynchpin(t *testing.T) {
	g := New(DefaultConfig())
	_, ok := g.Lynchpin()
	assert.False(t, ok)

	// OBJECTIVE_CONTROL touches four static edges and only wins.
	for i := 1; i <= 6; i++ {
		g.Deposit(pickMatch(i, true, "OBJECTIVE_CONTROL", "MID_TEMPO", "BOT_PRESSURE", "PICK_OFF", "POKE_SIEGE"), domain.ModePicks)
	}

	lp, ok := g.Lynchpin()
	require.True(t, ok)
	assert.Equal(t, domain.NodeObjectiveControl, lp.ID)
	// degree 4 × 0.5 × (6 × 0.15) = 1.8
	assert.InDelta(t, 1.8, lp.Fragility, 1e-9)
	assert.True(t, lp.Flagged)
}

func TestBaitStrategy(t *testing.T) {
	g := New(DefaultConfig())
	g.Deposit(pickMatch(1, false, "DIVE_COMP"), domain.ModePicks)
	g.Deposit(pickMatch(2, false, "DIVE_COMP"), domain.ModePicks)
	_, ok := g.BaitStrategy()
	assert.False(t, ok, "two games is below the bait minimum")

	g.Deposit(pickMatch(3, false, "DIVE_COMP", "PICK_OFF"), domain.ModePicks)
	g.Deposit(pickMatch(4, true, "PICK_OFF"), domain.ModePicks)

	bait, ok := g.BaitStrategy()
	require.True(t, ok)
	assert.Equal(t, domain.NodeDiveComp, bait.ID)
	assert.Equal(t, 3, bait.Games)
	assert.Equal(t, 0.0, bait.WinRate)
}

func TestCoachInsight(t *testing.T) {
	g := New(DefaultConfig())
	g.Deposit(pickMatch(1, true, "BOT_PRESSURE"), domain.ModePicks)

	assert.True(t, strings.HasPrefix(g.CoachInsight(domain.ModePicks), "Team consistently builds around Bot Pressure"))
	assert.True(t, strings.HasPrefix(g.CoachInsight(domain.ModeBans), "Team fears Bot Pressure"))

	g.Deposit(pickMatch(2, true, "BOT_PRESSURE", "OBJECTIVE_CONTROL"), domain.ModePicks)
	assert.Contains(t, g.CoachInsight(domain.ModePicks), "composition depends on")
}

func TestConclude(t *testing.T) {
	g := New(DefaultConfig())
	g.Deposit(pickMatch(1, true, "MID_TEMPO", "DIVE_COMP"), domain.ModePicks)

	c := g.Conclude(domain.ModePicks)
	assert.Equal(t, domain.ModePicks, c.Mode)
	assert.Len(t, c.Primary, 2)
	require.NotNil(t, c.Lynchpin)
	assert.False(t, c.Lynchpin.Flagged)
	assert.Nil(t, c.Bait)
	assert.NotEmpty(t, c.Coach)
}
