// Package trigger implements spec §4.9: the TriggerCollector. It
// subscribes to event kinds, enumerates battlefield
// sources whose registered abilities match, snapshots condition, and
// enqueues a TriggerRecord for the source's controller. At the next
// priority boundary, triggers are auto-placed in timestamp order when a
// player has at most one, or a trigger-order ResolutionStep is
// requested otherwise. Grounded on the teacher's
// internal/listeners/card_effects event-listener registration pattern.
package trigger

import (
	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/idgen"
)

// Event is the minimal shape TriggerCollector reacts to; it mirrors the
// kind/payload duality of domain.EventRecord but carries a typed
// permanent/player reference so definitions can match without
// re-parsing payload JSON.
type Event struct {
	Kind            string
	SourcePermanent string // permanent id that caused the event, if any
	PlayerID        string // player the event is about (e.g. who drew), if any
}

// Definition is a registered triggered ability. SourceCardName scopes
// it to permanents printed with that name; Condition does any further
// filtering (e.g. "only if this is the first card drawn this turn").
type Definition struct {
	SourceCardName string
	EventKind      string
	Condition      func(ev Event, source *domain.Permanent) bool
	EffectDescriptor string
	Mandatory      bool
	RequiresTarget bool
}

// Collector holds one game's registered trigger definitions.
type Collector struct {
	game        *domain.Game
	ids         idgen.Generator
	definitions []Definition
}

func NewCollector(game *domain.Game, ids idgen.Generator) *Collector {
	return &Collector{game: game, ids: ids}
}

func (c *Collector) Register(def Definition) {
	c.definitions = append(c.definitions, def)
}

// Observe enumerates battlefield permanents against every definition
// matching ev.Kind and enqueues a TriggerRecord per match onto the
// source's controller's pending queue.
func (c *Collector) Observe(ev Event) {
	for _, def := range c.definitions {
		if def.EventKind != ev.Kind {
			continue
		}
		for _, p := range c.game.Battlefield {
			if p.Card.Name != def.SourceCardName {
				continue
			}
			if def.Condition != nil && !def.Condition(ev, p) {
				continue
			}
			rec := domain.TriggerRecord{
				ID:               c.ids.NewID(),
				SourcePermanent:  p.ID,
				ControllerID:     p.ControllerID,
				TriggerKind:      ev.Kind,
				EffectDescriptor: def.EffectDescriptor,
				Mandatory:        def.Mandatory,
				RequiresTarget:   def.RequiresTarget,
			}
			c.game.PendingTriggers[p.ControllerID] = append(c.game.PendingTriggers[p.ControllerID], rec)
		}
	}
}

// DrainResult is what PlaceAtPriorityBoundary needs from the caller for
// a player with more than one pending trigger.
type DrainResult struct {
	PlayerID      string
	Pending       []domain.TriggerRecord
	NeedsOrdering bool
}

// PlaceAtPriorityBoundary is called once per priority boundary. For each
// player with pending triggers it either returns them pre-ordered
// (timestamp/materialization order, when count<=1 — nothing to order)
// or flags NeedsOrdering so the caller (SessionCoordinator) requests a
// trigger-order ResolutionStep. The pending queue for a player is
// cleared by the caller once its order is decided and items are pushed
// to the stack, via Clear.
func (c *Collector) PlaceAtPriorityBoundary() []DrainResult {
	var out []DrainResult
	for _, p := range c.game.Players {
		pending := c.game.PendingTriggers[p.ID]
		if len(pending) == 0 {
			continue
		}
		out = append(out, DrainResult{
			PlayerID:      p.ID,
			Pending:       pending,
			NeedsOrdering: len(pending) > 1,
		})
	}
	return out
}

// Clear removes playerID's pending trigger queue (called once its
// triggers have been placed on the stack in decided order).
func (c *Collector) Clear(playerID string) {
	delete(c.game.PendingTriggers, playerID)
}

// OrderByIDs reorders records per the ids list (as submitted via a
// trigger-order ResolutionStep): first id in the result resolves last,
// since StackEngine.Push appends to the top and items placed later
// resolve first, matching spec scenario 4 ("stack receives A first then
// B, so B resolves first").
func OrderByIDs(records []domain.TriggerRecord, orderedIDs []string) []domain.TriggerRecord {
	byID := map[string]domain.TriggerRecord{}
	for _, r := range records {
		byID[r.ID] = r
	}
	out := make([]domain.TriggerRecord, 0, len(records))
	for _, id := range orderedIDs {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
