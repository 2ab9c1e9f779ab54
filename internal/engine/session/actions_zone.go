package session

import (
	"context"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/eventkind"
	"mtgserver/internal/engine/payload"
	"mtgserver/internal/engine/zone"
)

// Join seats a new player. The first player to join becomes the turn
// player; seat order follows join order.
func (e *Executor) Join(ctx context.Context, playerID, displayName string, handSizeCap int) error {
	if e.game.PlayerByID(playerID) != nil {
		return enginerr.New(enginerr.KindInvalidRequest, "player already joined")
	}
	p := domain.Player{
		ID:          playerID,
		DisplayName: displayName,
		Seat:        len(e.game.Players),
		Life:        e.game.StartingLife,
		HandSizeCap: handSizeCap,
		CommanderTax: map[string]int{},
	}
	e.game.Players = append(e.game.Players, p)
	e.game.Zones[playerID] = &domain.PlayerZones{}
	e.game.ManaPools[playerID] = &domain.ManaPool{}
	e.game.LandsPlayed[playerID] = 0
	e.game.SpellsCast[playerID] = 0
	if e.game.TurnPlayerID == "" {
		e.game.TurnPlayerID = playerID
	}

	if _, err := e.appendEvent(ctx, eventkind.PlayerJoined, payload.PlayerJoined{PlayerID: playerID, DisplayName: displayName, HandSizeCap: handSizeCap}); err != nil {
		// Undo the seat assignment; join never leaves a half-seated player.
		e.game.Players = e.game.Players[:len(e.game.Players)-1]
		delete(e.game.Zones, playerID)
		delete(e.game.ManaPools, playerID)
		return err
	}
	e.notify()
	return nil
}

// ImportDeck resolves cardNames against the CardCatalog and places one
// CardObject per requested copy into playerID's library, then shuffles.
// A name the catalog cannot resolve fails the whole import; no partial
// library is left behind.
func (e *Executor) ImportDeck(ctx context.Context, playerID string, cardNames []string) error {
	p := e.game.PlayerByID(playerID)
	if p == nil {
		return enginerr.NotFound("player", playerID)
	}

	resolved, err := e.cat.BulkByName(ctx, cardNames)
	if err != nil {
		return enginerr.Newf(enginerr.KindNotFound, "resolving deck list: %v", err)
	}

	cards := make([]domain.CardObject, 0, len(cardNames))
	for _, name := range cardNames {
		card, ok := resolved[name]
		if !ok {
			return enginerr.NotFound("card", name)
		}
		cards = append(cards, domain.CardObject{ID: e.ids.NewID(), Card: card, OwnerID: playerID})
	}

	if _, err := e.appendEvent(ctx, eventkind.DeckImported, payload.DeckImported{PlayerID: playerID, Cards: cards}); err != nil {
		return err
	}

	zone.PutOnBottom(e.game, playerID, cards)
	zone.Shuffle(e.game, playerID)

	_, _ = e.appendEvent(ctx, eventkind.LibraryShuffled, payload.LibraryShuffled{PlayerID: playerID})
	e.notify()
	return nil
}

// SetCommander moves cardID from the player's library (where ImportDeck
// placed it) to the command zone, for formats that use one.
func (e *Executor) SetCommander(ctx context.Context, playerID, cardID string) error {
	p := e.game.PlayerByID(playerID)
	if p == nil {
		return enginerr.NotFound("player", playerID)
	}
	z := e.game.Zones[playerID]
	idx := -1
	for i, c := range z.Library {
		if c.ID == cardID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return enginerr.New(enginerr.KindInvalidRequest, "commander card not found in library")
	}

	if _, err := e.appendEvent(ctx, eventkind.CommanderSet, payload.CommanderSet{PlayerID: playerID, CardID: cardID}); err != nil {
		return err
	}

	card := z.Library[idx]
	z.Library = append(z.Library[:idx], z.Library[idx+1:]...)
	p.CommandZone = append(p.CommandZone, card)
	e.notify()
	return nil
}
