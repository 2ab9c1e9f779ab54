// Package mana implements spec §4.4: per-player floating mana pools
// with color-preference consumption, and the end-of-step/phase emptying
// rule of Rule 106.4.
package mana

import (
	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
)

// Color is one of the five colors plus colorless.
type Color string

const (
	White     Color = "white"
	Blue      Color = "blue"
	Black     Color = "black"
	Red       Color = "red"
	Green     Color = "green"
	Colorless Color = "colorless"
)

// CostSpec is the generic + per-color requirement of a cost.
type CostSpec struct {
	Generic int
	White   int
	Blue    int
	Black   int
	Red     int
	Green   int
}

// Preferences orders which colors should be spent first for generic;
// an empty slice uses the default order (W,U,B,R,G, colorless last).
type Preferences []Color

func pool(g *domain.Game, playerID string) *domain.ManaPool {
	p, ok := g.ManaPools[playerID]
	if !ok {
		p = &domain.ManaPool{}
		g.ManaPools[playerID] = p
	}
	return p
}

// Add adds floating mana of the given color to a player's pool.
// sourceTag is informational (logged by the caller, not stored) and
// exists to mirror the teacher's production/resource-gain event shape.
func Add(g *domain.Game, playerID string, color Color, amount int, sourceTag string) {
	p := pool(g, playerID)
	addTo(p, color, amount)
}

func addTo(p *domain.ManaPool, color Color, amount int) {
	switch color {
	case White:
		p.White += amount
	case Blue:
		p.Blue += amount
	case Black:
		p.Black += amount
	case Red:
		p.Red += amount
	case Green:
		p.Green += amount
	default:
		p.Colorless += amount
	}
}

func get(p *domain.ManaPool, color Color) int {
	switch color {
	case White:
		return p.White
	case Blue:
		return p.Blue
	case Black:
		return p.Black
	case Red:
		return p.Red
	case Green:
		return p.Green
	default:
		return p.Colorless
	}
}

func sub(p *domain.ManaPool, color Color, amount int) {
	addTo(p, color, -amount)
}

// Consume attempts to pay costSpec from the player's pool. Explicit
// colors are paid first from their own color, then generic is paid
// greedily following preferences (explicit colors first, generic/
// colorless last), matching spec §4.4. On success the pool is mutated
// and nil is returned; on failure the pool is left untouched and
// InsufficientMana is returned.
func Consume(g *domain.Game, playerID string, cost CostSpec, prefs Preferences) error {
	p := pool(g, playerID)
	sim := *p // work on a copy; commit only on success

	need := []struct {
		c Color
		n int
	}{
		{White, cost.White},
		{Blue, cost.Blue},
		{Black, cost.Black},
		{Red, cost.Red},
		{Green, cost.Green},
	}
	for _, req := range need {
		if req.n == 0 {
			continue
		}
		if get(&sim, req.c) < req.n {
			return enginerr.Newf(enginerr.KindInsufficientMana, "need %d %s, have %d", req.n, req.c, get(&sim, req.c))
		}
		sub(&sim, req.c, req.n)
	}

	order := prefs
	if len(order) == 0 {
		order = Preferences{White, Blue, Black, Red, Green, Colorless}
	}
	remaining := cost.Generic
	for _, c := range order {
		if remaining == 0 {
			break
		}
		avail := get(&sim, c)
		if avail <= 0 {
			continue
		}
		take := avail
		if take > remaining {
			take = remaining
		}
		sub(&sim, c, take)
		remaining -= take
	}
	if remaining > 0 {
		return enginerr.Newf(enginerr.KindInsufficientMana, "insufficient mana to pay %d generic", cost.Generic)
	}

	*p = sim
	return nil
}

// Empty clears a player's floating mana pool (end of step/phase, Rule 106.4).
func Empty(g *domain.Game, playerID string) {
	*pool(g, playerID) = domain.ManaPool{}
}

// EmptyAll clears every player's floating mana pool.
func EmptyAll(g *domain.Game) {
	for id := range g.ManaPools {
		*g.ManaPools[id] = domain.ManaPool{}
	}
}

// Get returns a copy of a player's current pool.
func Get(g *domain.Game, playerID string) domain.ManaPool {
	return *pool(g, playerID)
}
