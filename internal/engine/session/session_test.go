package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtgserver/internal/engine/catalog"
	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/effect"
	"mtgserver/internal/engine/eventlog"
	"mtgserver/internal/engine/idgen"
	"mtgserver/internal/engine/session"
)

func newTestExecutor(t *testing.T) (*session.Executor, context.Context) {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewStatic([]domain.Card{
		{ID: "forest", Name: "Forest", TypeLine: "Basic Land - Forest"},
		{ID: "bear", Name: "Grizzly Bears", TypeLine: "Creature - Bear"},
	})
	store := eventlog.NewMemoryStore()
	effects := effect.NewRegistry()
	exec, err := session.CreateGame(ctx, "g1", "standard", 20, 1, idgen.UUIDGenerator{}, cat, store, effects, nil)
	require.NoError(t, err)
	return exec, ctx
}

func TestJoinSeatsPlayerAndAssignsTurnPlayer(t *testing.T) {
	exec, ctx := newTestExecutor(t)

	require.NoError(t, exec.Join(ctx, "p1", "Alice", 7))
	require.NoError(t, exec.Join(ctx, "p2", "Bob", 7))

	g := exec.Game()
	require.Len(t, g.Players, 2)
	assert.Equal(t, "p1", g.TurnPlayerID)
	assert.Equal(t, 20, g.PlayerByID("p1").Life)
}

func TestJoinRejectsDuplicatePlayer(t *testing.T) {
	exec, ctx := newTestExecutor(t)
	require.NoError(t, exec.Join(ctx, "p1", "Alice", 7))

	err := exec.Join(ctx, "p1", "Alice Again", 7)

	assert.Error(t, err)
}

func TestImportDeckPopulatesAndShufflesLibrary(t *testing.T) {
	exec, ctx := newTestExecutor(t)
	require.NoError(t, exec.Join(ctx, "p1", "Alice", 7))

	require.NoError(t, exec.ImportDeck(ctx, "p1", []string{"Forest", "Forest", "Grizzly Bears"}))

	lib := exec.Game().Zones["p1"].Library
	assert.Len(t, lib, 3)
}

func TestImportDeckFailsOnUnknownCardName(t *testing.T) {
	exec, ctx := newTestExecutor(t)
	require.NoError(t, exec.Join(ctx, "p1", "Alice", 7))

	err := exec.ImportDeck(ctx, "p1", []string{"Nonexistent Card"})

	assert.Error(t, err)
}

func TestPlayLandMovesCardFromHandToBattlefield(t *testing.T) {
	exec, ctx := newTestExecutor(t)
	require.NoError(t, exec.Join(ctx, "p1", "Alice", 7))
	require.NoError(t, exec.Join(ctx, "p2", "Bob", 7))

	g := exec.Game()
	g.Zones["p1"].Hand = append(g.Zones["p1"].Hand, domain.CardObject{
		ID: "landcard", Card: domain.Card{ID: "forest", Name: "Forest", TypeLine: "Basic Land - Forest"}, OwnerID: "p1",
	})
	g.CurrentPhase = domain.PhasePrecombat
	g.PriorityHolder = "p1"

	require.NoError(t, exec.PlayLand(ctx, "p1", "landcard"))

	assert.Empty(t, g.Zones["p1"].Hand)
	assert.Equal(t, 1, g.LandsPlayed["p1"])

	found := false
	for _, p := range g.Battlefield {
		if p.OwnerID == "p1" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPlayLandFailsWithoutPriorLandCardInHand(t *testing.T) {
	exec, ctx := newTestExecutor(t)
	require.NoError(t, exec.Join(ctx, "p1", "Alice", 7))
	g := exec.Game()
	g.CurrentPhase = domain.PhasePrecombat
	g.PriorityHolder = "p1"

	err := exec.PlayLand(ctx, "p1", "missing-card")

	assert.Error(t, err)
}

func TestPlayLandRespectsPerTurnLimit(t *testing.T) {
	exec, ctx := newTestExecutor(t)
	require.NoError(t, exec.Join(ctx, "p1", "Alice", 7))
	g := exec.Game()
	g.CurrentPhase = domain.PhasePrecombat
	g.PriorityHolder = "p1"
	g.Zones["p1"].Hand = []domain.CardObject{
		{ID: "land1", Card: domain.Card{Name: "Forest", TypeLine: "Basic Land"}, OwnerID: "p1"},
		{ID: "land2", Card: domain.Card{Name: "Forest", TypeLine: "Basic Land"}, OwnerID: "p1"},
	}

	require.NoError(t, exec.PlayLand(ctx, "p1", "land1"))

	err := exec.PlayLand(ctx, "p1", "land2")
	assert.Error(t, err)
}

func TestConcedeMarksPlayerLost(t *testing.T) {
	exec, ctx := newTestExecutor(t)
	require.NoError(t, exec.Join(ctx, "p1", "Alice", 7))
	require.NoError(t, exec.Join(ctx, "p2", "Bob", 7))

	require.NoError(t, exec.Concede(ctx, "p1"))

	p := exec.Game().PlayerByID("p1")
	assert.True(t, p.Lost)
	assert.True(t, exec.Game().Ended)
	assert.Equal(t, []string{"p2"}, exec.Game().Winners)
}
