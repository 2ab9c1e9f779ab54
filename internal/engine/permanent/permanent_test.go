package permanent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/idgen"
	"mtgserver/internal/engine/permanent"
)

func newGame() *domain.Game {
	g := domain.NewGame("g1", "standard", 20, 1)
	g.Players = []domain.Player{{ID: "p1"}}
	g.Zones["p1"] = &domain.PlayerZones{}
	return g
}

func TestCreatePlacesOnBattlefield(t *testing.T) {
	g := newGame()
	card := domain.Card{ID: "c1", Name: "Grizzly Bears", TypeLine: "Creature - Bear"}

	p := permanent.Create(g, idgen.Fixed("perm1"), card, "p1", permanent.CreateOptions{SummoningSick: true}, nil)

	assert.Equal(t, "perm1", p.ID)
	assert.True(t, p.EnteredThisTurn)
	assert.True(t, p.SummoningSick)
	assert.Same(t, p, g.Battlefield["perm1"])
}

func TestDestroySendsNonTokenToGraveyard(t *testing.T) {
	g := newGame()
	card := domain.Card{ID: "c1", Name: "Grizzly Bears"}
	permanent.Create(g, idgen.Fixed("perm1"), card, "p1", permanent.CreateOptions{}, nil)

	require.NoError(t, permanent.Destroy(g, "perm1"))

	_, onField := g.Battlefield["perm1"]
	assert.False(t, onField)
	require.Len(t, g.Zones["p1"].Graveyard, 1)
	assert.Equal(t, "perm1", g.Zones["p1"].Graveyard[0].ID)
}

func TestDestroyTokenDoesNotReachGraveyard(t *testing.T) {
	g := newGame()
	card := domain.Card{ID: "tok", Name: "Soldier Token"}
	permanent.Create(g, idgen.Fixed("tokperm"), card, "p1", permanent.CreateOptions{IsToken: true}, nil)

	require.NoError(t, permanent.Destroy(g, "tokperm"))

	assert.Empty(t, g.Zones["p1"].Graveyard)
}

func TestDestroyDetachesAttachments(t *testing.T) {
	g := newGame()
	host := permanent.Create(g, idgen.Fixed("host"), domain.Card{Name: "Creature"}, "p1", permanent.CreateOptions{}, nil)
	aura := permanent.Create(g, idgen.Fixed("aura"), domain.Card{Name: "Aura"}, "p1", permanent.CreateOptions{}, nil)
	require.NoError(t, permanent.Attach(g, aura.ID, host.ID))

	require.NoError(t, permanent.Destroy(g, host.ID))

	assert.Empty(t, aura.AttachedTo)
	assert.True(t, permanent.CheckAttachmentConsistency(g))
}

func TestAttachAndDetach(t *testing.T) {
	g := newGame()
	host := permanent.Create(g, idgen.Fixed("host"), domain.Card{Name: "Creature"}, "p1", permanent.CreateOptions{}, nil)
	aura := permanent.Create(g, idgen.Fixed("aura"), domain.Card{Name: "Aura"}, "p1", permanent.CreateOptions{}, nil)

	require.NoError(t, permanent.Attach(g, aura.ID, host.ID))
	assert.Equal(t, host.ID, aura.AttachedTo)
	assert.Contains(t, host.Attachments, aura.ID)
	assert.True(t, permanent.CheckAttachmentConsistency(g))

	require.NoError(t, permanent.Detach(g, aura.ID))
	assert.Empty(t, aura.AttachedTo)
	assert.NotContains(t, host.Attachments, aura.ID)
}

func TestAttachToSelfFails(t *testing.T) {
	g := newGame()
	p := permanent.Create(g, idgen.Fixed("self"), domain.Card{Name: "Weird"}, "p1", permanent.CreateOptions{}, nil)

	err := permanent.Attach(g, p.ID, p.ID)

	assert.Error(t, err)
}

func TestAttachReplacesPriorAttachment(t *testing.T) {
	g := newGame()
	host1 := permanent.Create(g, idgen.Fixed("host1"), domain.Card{Name: "Creature"}, "p1", permanent.CreateOptions{}, nil)
	host2 := permanent.Create(g, idgen.Fixed("host2"), domain.Card{Name: "Creature"}, "p1", permanent.CreateOptions{}, nil)
	aura := permanent.Create(g, idgen.Fixed("aura"), domain.Card{Name: "Aura"}, "p1", permanent.CreateOptions{}, nil)

	require.NoError(t, permanent.Attach(g, aura.ID, host1.ID))
	require.NoError(t, permanent.Attach(g, aura.ID, host2.ID))

	assert.Equal(t, host2.ID, aura.AttachedTo)
	assert.NotContains(t, host1.Attachments, aura.ID)
	assert.True(t, permanent.CheckAttachmentConsistency(g))
}

func TestSetCounterDeltaClampsAtZero(t *testing.T) {
	g := newGame()
	p := permanent.Create(g, idgen.Fixed("perm1"), domain.Card{Name: "Creature"}, "p1", permanent.CreateOptions{}, nil)

	require.NoError(t, permanent.SetCounterDelta(g, p.ID, "+1/+1", 2))
	assert.Equal(t, 2, p.Counters["+1/+1"])

	require.NoError(t, permanent.SetCounterDelta(g, p.ID, "+1/+1", -5))
	assert.Equal(t, 0, p.Counters["+1/+1"])
}

func TestSetAndClearModifier(t *testing.T) {
	g := newGame()
	p := permanent.Create(g, idgen.Fixed("perm1"), domain.Card{Name: "Creature"}, "p1", permanent.CreateOptions{}, nil)

	require.NoError(t, permanent.SetModifier(g, p.ID, domain.Modifier{ID: "m1", Description: "+2/+0"}))
	require.Len(t, p.Modifiers, 1)

	require.NoError(t, permanent.SetModifier(g, p.ID, domain.Modifier{ID: "m1", Description: "+3/+0"}))
	require.Len(t, p.Modifiers, 1)
	assert.Equal(t, "+3/+0", p.Modifiers[0].Description)

	require.NoError(t, permanent.ClearModifier(g, p.ID, "m1"))
	assert.Empty(t, p.Modifiers)
}
