// Package zone implements spec §4.2: draw, put-on-top/bottom, move,
// reorder, peek-top, shuffle, with card identity preservation and the
// zone invariants of spec §3 (a card has exactly one home zone; library
// order significant; face-down/linked metadata travels with the card).
package zone

import (
	"math/rand"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
)

// Name identifies a zone kind for move operations.
type Name string

const (
	Hand      Name = "hand"
	Library   Name = "library"
	Graveyard Name = "graveyard"
	Exile     Name = "exile"
	Battlefield Name = "battlefield"
	Stack     Name = "stack"
	Command   Name = "command"
)

func ensure(g *domain.Game, playerID string) *domain.PlayerZones {
	z, ok := g.Zones[playerID]
	if !ok {
		z = &domain.PlayerZones{}
		g.Zones[playerID] = z
	}
	return z
}

// Draw moves n cards from the top of player's library to their hand.
// Fail mode "empty-library": drawing from an empty library does not
// error; it marks the player for loss, to be applied by StateBasedActions.
func Draw(g *domain.Game, playerID string, n int) error {
	z := ensure(g, playerID)
	p := g.PlayerByID(playerID)
	if p == nil {
		return enginerr.NotFound("player", playerID)
	}
	for i := 0; i < n; i++ {
		if len(z.Library) == 0 {
			p.LossReason = "decked"
			return nil
		}
		card := z.Library[0]
		z.Library = z.Library[1:]
		z.Hand = append(z.Hand, card)
	}
	return nil
}

// PutOnTop inserts cards at the top (index 0) of the library.
func PutOnTop(g *domain.Game, playerID string, cards []domain.CardObject) {
	z := ensure(g, playerID)
	z.Library = append(append([]domain.CardObject{}, cards...), z.Library...)
}

// PutOnBottom appends cards to the bottom of the library.
func PutOnBottom(g *domain.Game, playerID string, cards []domain.CardObject) {
	z := ensure(g, playerID)
	z.Library = append(z.Library, cards...)
}

func zoneSlice(z *domain.PlayerZones, n Name) (*[]domain.CardObject, error) {
	switch n {
	case Hand:
		return &z.Hand, nil
	case Library:
		return &z.Library, nil
	case Graveyard:
		return &z.Graveyard, nil
	case Exile:
		return &z.Exile, nil
	default:
		return nil, enginerr.New(enginerr.KindInvalidZone, "unsupported per-player zone: "+string(n))
	}
}

// Move relocates a card object between two per-player zones, preserving
// its identity and linked metadata. It fails with InvalidZone if the
// card is not actually present in `from`; it never silently drops cards.
func Move(g *domain.Game, playerID string, from, to Name, cardID string) error {
	z := ensure(g, playerID)
	fromSlice, err := zoneSlice(z, from)
	if err != nil {
		return err
	}
	toSlice, err := zoneSlice(z, to)
	if err != nil {
		return err
	}

	idx := -1
	for i, c := range *fromSlice {
		if c.ID == cardID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return enginerr.Newf(enginerr.KindInvalidZone, "card %s not found in zone %s", cardID, from)
	}

	card := (*fromSlice)[idx]
	*fromSlice = append((*fromSlice)[:idx], (*fromSlice)[idx+1:]...)

	if to == Graveyard {
		*toSlice = append(*toSlice, card) // top = last element
	} else {
		*toSlice = append(*toSlice, card)
	}
	return nil
}

// Reorder applies permutation to the given zone: result[i] = current[permutation[i]].
func Reorder(g *domain.Game, playerID string, n Name, permutation []int) error {
	z := ensure(g, playerID)
	slice, err := zoneSlice(z, n)
	if err != nil {
		return err
	}
	if len(permutation) != len(*slice) {
		return enginerr.New(enginerr.KindInvalidRequest, "permutation length mismatch")
	}
	out := make([]domain.CardObject, len(*slice))
	for i, srcIdx := range permutation {
		if srcIdx < 0 || srcIdx >= len(*slice) {
			return enginerr.New(enginerr.KindInvalidRequest, "permutation index out of range")
		}
		out[i] = (*slice)[srcIdx]
	}
	*slice = out
	return nil
}

// PeekTop returns (without removing) the top n cards of a player's library.
func PeekTop(g *domain.Game, playerID string, n int) []domain.CardObject {
	z := ensure(g, playerID)
	if n > len(z.Library) {
		n = len(z.Library)
	}
	out := make([]domain.CardObject, n)
	copy(out, z.Library[:n])
	return out
}

// Shuffle randomizes library order using the game's deterministic RNG,
// seeded from Game.RNGSeed combined with the current sequence number so
// repeated shuffles within one game produce different, but reproducible,
// permutations under replay.
func Shuffle(g *domain.Game, playerID string) {
	z := ensure(g, playerID)
	rng := rand.New(rand.NewSource(g.RNGSeed + g.Seq))
	rng.Shuffle(len(z.Library), func(i, j int) {
		z.Library[i], z.Library[j] = z.Library[j], z.Library[i]
	})
}

// LibraryCount returns the number of cards in a player's library.
func LibraryCount(g *domain.Game, playerID string) int {
	z := ensure(g, playerID)
	return len(z.Library)
}
