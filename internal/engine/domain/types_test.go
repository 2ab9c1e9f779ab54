package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mtgserver/internal/engine/domain"
)

func TestNewGameDefaults(t *testing.T) {
	g := domain.NewGame("g1", "commander", 40, 7)

	assert.Equal(t, "g1", g.ID)
	assert.Equal(t, domain.PhaseBeginning, g.CurrentPhase)
	assert.Equal(t, domain.StepUntap, g.CurrentStep)
	assert.Empty(t, g.Battlefield)
	assert.Empty(t, g.Players)
}

func TestBumpSeqIncrements(t *testing.T) {
	g := domain.NewGame("g1", "standard", 20, 1)

	assert.EqualValues(t, 1, g.BumpSeq())
	assert.EqualValues(t, 2, g.BumpSeq())
	assert.EqualValues(t, 2, g.Seq)
}

func TestPlayerByID(t *testing.T) {
	g := domain.NewGame("g1", "standard", 20, 1)
	g.Players = []domain.Player{{ID: "p1"}, {ID: "p2"}}

	found := g.PlayerByID("p2")
	if assert.NotNil(t, found) {
		assert.Equal(t, "p2", found.ID)
	}
	assert.Nil(t, g.PlayerByID("missing"))
}

func TestPlayerByIDReturnsMutableReference(t *testing.T) {
	g := domain.NewGame("g1", "standard", 20, 1)
	g.Players = []domain.Player{{ID: "p1", Life: 20}}

	p := g.PlayerByID("p1")
	p.Life = 15

	assert.Equal(t, 15, g.Players[0].Life)
}

func TestNextSeatWraps(t *testing.T) {
	g := domain.NewGame("g1", "standard", 20, 1)
	g.Players = []domain.Player{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}

	assert.Equal(t, "p2", g.NextSeat("p1"))
	assert.Equal(t, "p3", g.NextSeat("p2"))
	assert.Equal(t, "p1", g.NextSeat("p3"))
}

func TestNextSeatUnknownReturnsFirst(t *testing.T) {
	g := domain.NewGame("g1", "standard", 20, 1)
	g.Players = []domain.Player{{ID: "p1"}, {ID: "p2"}}

	assert.Equal(t, "p1", g.NextSeat("nobody"))
}

func TestStackTopEmpty(t *testing.T) {
	g := domain.NewGame("g1", "standard", 20, 1)
	assert.Nil(t, g.StackTop())
}

func TestStackTopReturnsLast(t *testing.T) {
	g := domain.NewGame("g1", "standard", 20, 1)
	g.Stack = []domain.StackItem{{ID: "bottom"}, {ID: "top"}}

	top := g.StackTop()
	if assert.NotNil(t, top) {
		assert.Equal(t, "top", top.ID)
	}
}

func TestActivePlayersExcludesLostAndSpectators(t *testing.T) {
	g := domain.NewGame("g1", "standard", 20, 1)
	g.Players = []domain.Player{
		{ID: "p1"},
		{ID: "p2", Lost: true},
		{ID: "p3", Spectator: true},
		{ID: "p4"},
	}

	active := g.ActivePlayers()
	ids := make([]string, len(active))
	for i, p := range active {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"p1", "p4"}, ids)
}

func TestManaPoolTotal(t *testing.T) {
	m := domain.ManaPool{White: 1, Blue: 2, Black: 0, Red: 3, Green: 1, Colorless: 1}
	assert.Equal(t, 8, m.Total())
}

func TestNewPermanentDefaults(t *testing.T) {
	card := domain.Card{ID: "c1", Name: "Grizzly Bears"}
	perm := domain.NewPermanent("perm1", card, "p1")

	assert.Equal(t, "p1", perm.OwnerID)
	assert.Equal(t, "p1", perm.ControllerID)
	assert.NotNil(t, perm.Counters)
	assert.False(t, perm.Tapped)
}
