package sba_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/idgen"
	"mtgserver/internal/engine/permanent"
	"mtgserver/internal/engine/sba"
)

func newGame() *domain.Game {
	g := domain.NewGame("g1", "standard", 20, 1)
	g.Players = []domain.Player{{ID: "p1", Life: 20}, {ID: "p2", Life: 20}}
	g.Zones["p1"] = &domain.PlayerZones{}
	g.Zones["p2"] = &domain.PlayerZones{}
	return g
}

func intPtr(n int) *int { return &n }

func TestCheckDestroysLethalDamageCreature(t *testing.T) {
	g := newGame()
	card := domain.Card{Name: "Grizzly Bears", TypeLine: "Creature - Bear", Toughness: intPtr(2)}
	p := permanent.Create(g, idgen.Fixed("bear"), card, "p1", permanent.CreateOptions{}, nil)
	p.DamageMarked = 2

	res := sba.Check(g)

	assert.Contains(t, res.Destroyed, "bear")
	assert.True(t, res.Mutated)
	_, onField := g.Battlefield["bear"]
	assert.False(t, onField)
}

func TestCheckSurvivesNonLethalDamage(t *testing.T) {
	g := newGame()
	card := domain.Card{Name: "Grizzly Bears", TypeLine: "Creature - Bear", Toughness: intPtr(2)}
	p := permanent.Create(g, idgen.Fixed("bear"), card, "p1", permanent.CreateOptions{}, nil)
	p.DamageMarked = 1

	res := sba.Check(g)

	assert.Empty(t, res.Destroyed)
	assert.False(t, res.Mutated)
}

func TestCheckDestroysZeroToughnessCreature(t *testing.T) {
	g := newGame()
	card := domain.Card{Name: "Shrinking Thing", TypeLine: "Creature", Toughness: intPtr(0)}
	permanent.Create(g, idgen.Fixed("shrink"), card, "p1", permanent.CreateOptions{}, nil)

	res := sba.Check(g)

	assert.Contains(t, res.Destroyed, "shrink")
}

func TestCheckDestroysUnattachedAura(t *testing.T) {
	g := newGame()
	aura := permanent.Create(g, idgen.Fixed("aura"), domain.Card{Name: "Lost Aura", TypeLine: "Enchantment - Aura"}, "p1", permanent.CreateOptions{}, nil)
	_ = aura

	res := sba.Check(g)

	assert.Contains(t, res.Destroyed, "aura")
}

func TestCheckKeepsLegallyAttachedAura(t *testing.T) {
	g := newGame()
	host := permanent.Create(g, idgen.Fixed("host"), domain.Card{Name: "Creature", TypeLine: "Creature", Toughness: intPtr(3)}, "p1", permanent.CreateOptions{}, nil)
	aura := permanent.Create(g, idgen.Fixed("aura"), domain.Card{Name: "Aura", TypeLine: "Enchantment - Aura"}, "p1", permanent.CreateOptions{}, nil)
	_ = permanent.Attach(g, aura.ID, host.ID)

	res := sba.Check(g)

	assert.NotContains(t, res.Destroyed, "aura")
}

func TestCheckMarksPlayerLostAtZeroLife(t *testing.T) {
	g := newGame()
	g.PlayerByID("p1").Life = 0

	res := sba.Check(g)

	assert.Contains(t, res.PlayersLost, "p1")
	assert.True(t, g.PlayerByID("p1").Lost)
	assert.Equal(t, "life-total-zero", g.PlayerByID("p1").LossReason)
}

func TestCheckMarksPlayerLostAtTenPoison(t *testing.T) {
	g := newGame()
	g.PlayerByID("p2").Poison = 10

	res := sba.Check(g)

	assert.Contains(t, res.PlayersLost, "p2")
}

func TestCheckIsIdempotent(t *testing.T) {
	g := newGame()
	card := domain.Card{Name: "Grizzly Bears", TypeLine: "Creature", Toughness: intPtr(2)}
	p := permanent.Create(g, idgen.Fixed("bear"), card, "p1", permanent.CreateOptions{}, nil)
	p.DamageMarked = 5

	first := sba.Check(g)
	second := sba.Check(g)

	assert.True(t, first.Mutated)
	assert.False(t, second.Mutated)
	assert.Empty(t, second.Destroyed)
}

func TestCheckLegendRuleKeepsOnlyOneCopy(t *testing.T) {
	g := newGame()
	card := domain.Card{Name: "The Lich", TypeLine: "Legendary Creature", Toughness: intPtr(5)}
	permanent.Create(g, idgen.Fixed("lich-a"), card, "p1", permanent.CreateOptions{}, nil)
	permanent.Create(g, idgen.Fixed("lich-b"), card, "p1", permanent.CreateOptions{}, nil)

	res := sba.Check(g)

	assert.Len(t, res.Destroyed, 1)
	assert.Equal(t, 1, countLegendaries(g))
}

func countLegendaries(g *domain.Game) int {
	n := 0
	for range g.Battlefield {
		n++
	}
	return n
}
