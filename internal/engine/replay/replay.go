// Package replay implements spec §4.14: given a game's recorded event
// log, reconstruct the exact domain.Game state that produced it. Replay
// never re-validates: generated ids are captured in the event's
// payload, and shuffle order is re-derived from the game's recorded RNG
// seed and the event's seq, so Rebuild only re-applies recorded facts.
// This is also what backs Undo: rewind the log to a
// checkpoint sequence, then rebuild from scratch.
//
// Grounded on the teacher's internal/game snapshot-reconstruction tests
// (replaying a recorded list of CardAction values to reach a known
// board state), adapted here to a dedicated package since this engine's
// event log is the sole source of truth rather than a debugging aid.
package replay

import (
	"encoding/json"
	"fmt"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/eventkind"
	"mtgserver/internal/engine/mana"
	"mtgserver/internal/engine/payload"
	"mtgserver/internal/engine/permanent"
	"mtgserver/internal/engine/sba"
	"mtgserver/internal/engine/zone"

	"mtgserver/internal/engine/idgen"
)

// decode round-trips an event's stored payload (already a concrete Go
// struct for an in-memory store, or a map[string]interface{} decoded
// from jsonb for the Postgres store) into the typed shape Replay needs.
func decode(raw interface{}, out interface{}) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return json.Unmarshal(b, out)
}

// Rebuild replays records in order against a freshly constructed game
// shell and returns the resulting state. The first record must be a
// GameCreated event; every other event kind emitted by
// session.Executor must have a case below, or Rebuild errors rather
// than silently skipping it.
func Rebuild(records []domain.EventRecord) (*domain.Game, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("replay: empty event log")
	}
	if records[0].Kind != eventkind.GameCreated {
		return nil, fmt.Errorf("replay: first event must be %s, got %s", eventkind.GameCreated, records[0].Kind)
	}

	var created payload.GameCreated
	if err := decode(records[0].Payload, &created); err != nil {
		return nil, fmt.Errorf("replay: decode %s: %w", eventkind.GameCreated, err)
	}
	g := domain.NewGame(created.GameID, created.Format, created.StartingLife, created.RNGSeed)

	for _, rec := range records[1:] {
		if err := apply(g, rec); err != nil {
			return nil, fmt.Errorf("replay: seq %d (%s): %w", rec.Seq, rec.Kind, err)
		}
		g.Seq = rec.Seq
		sba.Check(g)
		checkGameEnd(g)
	}
	return g, nil
}

// checkGameEnd mirrors session.Executor.checkGameEnd: it is not itself
// logged as an event, so Rebuild must re-derive it the same way live
// play does, from the player-loss state SBA just recomputed.
func checkGameEnd(g *domain.Game) {
	if g.Ended || len(g.Players) == 0 {
		return
	}
	active := g.ActivePlayers()
	if len(active) <= 1 {
		g.Ended = true
		if len(active) == 1 {
			g.Winners = []string{active[0].ID}
		}
	}
}

func apply(g *domain.Game, rec domain.EventRecord) error {
	switch rec.Kind {
	case eventkind.PlayerJoined:
		var p payload.PlayerJoined
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		g.Players = append(g.Players, domain.Player{
			ID: p.PlayerID, DisplayName: p.DisplayName, Seat: len(g.Players),
			Life: g.StartingLife, HandSizeCap: p.HandSizeCap, CommanderTax: map[string]int{},
		})
		g.Zones[p.PlayerID] = &domain.PlayerZones{}
		g.ManaPools[p.PlayerID] = &domain.ManaPool{}
		g.LandsPlayed[p.PlayerID] = 0
		g.SpellsCast[p.PlayerID] = 0
		if g.TurnPlayerID == "" {
			g.TurnPlayerID = p.PlayerID
		}
		return nil

	case eventkind.DeckImported:
		var p payload.DeckImported
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		zone.PutOnBottom(g, p.PlayerID, p.Cards)
		return nil

	case eventkind.LibraryShuffled:
		var p payload.LibraryShuffled
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		zone.Shuffle(g, p.PlayerID)
		return nil

	case eventkind.CommanderSet:
		var p payload.CommanderSet
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		return moveToCommandZone(g, p.PlayerID, p.CardID)

	case eventkind.LandPlayed:
		var p payload.LandPlayed
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		removeFromHand(g, p.PlayerID, p.Card.ID)
		permanent.Create(g, idgen.Fixed(p.PermanentID), p.Card.Card, p.PlayerID, permanent.CreateOptions{SummoningSick: true}, nil)
		g.LandsPlayed[p.PlayerID]++
		return nil

	case eventkind.SpellCast:
		var p payload.SpellCast
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		if !removeFromHand(g, p.PlayerID, p.Card.ID) {
			// Not in hand: this was a command-zone cast (CastCommanderSpell),
			// which bumps the commander tax for next time.
			removeFromCommandZone(g, p.PlayerID, p.Card.ID)
			if pl := g.PlayerByID(p.PlayerID); pl != nil {
				pl.CommanderTax[p.Card.ID]++
			}
		}
		consumeMana(g, p.PlayerID, p.Cost)
		g.Stack = append(g.Stack, domain.StackItem{
			ID: p.StackItemID, Kind: domain.StackKindSpell, ControllerID: p.PlayerID,
			SourceCardID: p.Card.ID, Targets: p.Targets, X: p.X, EffectDescriptor: p.EffectDescriptor,
		})
		g.SpellsCast[p.PlayerID]++
		return nil

	case eventkind.AbilityActivated:
		var p payload.AbilityActivated
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		consumeMana(g, p.PlayerID, p.Cost)
		if p.TapCost {
			if perm, ok := g.Battlefield[p.PermanentID]; ok {
				perm.Tapped = true
			}
		}
		g.Stack = append(g.Stack, domain.StackItem{
			ID: p.StackItemID, Kind: domain.StackKindActivated, ControllerID: p.PlayerID,
			SourcePermanent: p.PermanentID, Targets: p.Targets, EffectDescriptor: p.EffectDescriptor,
		})
		return nil

	case eventkind.StackItemResolved:
		var p payload.StackItemResolved
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		for i, item := range g.Stack {
			if item.ID == p.StackItemID {
				g.Stack = append(g.Stack[:i], g.Stack[i+1:]...)
				break
			}
		}
		return nil

	case eventkind.ResolutionRequested, eventkind.ResolutionSubmitted:
		// The pending ResolutionStep itself is transport-session state,
		// not board state; its effects land in the events it unblocks.
		return nil

	case eventkind.PriorityPassed:
		var p payload.PriorityPassed
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		g.PriorityHolder = p.PlayerID
		return nil

	case eventkind.StepEntered:
		var p payload.StepEntered
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		g.CurrentStep = domain.Step(p.Step)
		g.CurrentPhase = domain.GamePhase(p.Phase)
		g.TurnNumber = p.Turn
		return nil

	case eventkind.TurnAdvanced:
		var p payload.TurnAdvanced
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		g.TurnPlayerID = p.TurnPlayerID
		g.TurnNumber = p.TurnNumber
		for id, perm := range g.Battlefield {
			perm.AttackedThisTurn = false
			perm.Blocked = false
			perm.BlockingIDs = nil
			perm.EnteredThisTurn = false
			g.Battlefield[id] = perm
		}
		return nil

	case eventkind.AttackersDeclared:
		var p payload.AttackersDeclared
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		for _, id := range p.Attackers {
			if perm, ok := g.Battlefield[id]; ok {
				perm.Tapped = true
				perm.AttackedThisTurn = true
				perm.AttackTargetID = p.Targets[id]
			}
		}
		return nil

	case eventkind.BlockersDeclared:
		var p payload.BlockersDeclared
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		for blockerID, attackerID := range p.Blocks {
			if blocker, ok := g.Battlefield[blockerID]; ok {
				blocker.BlockingIDs = []string{attackerID}
			}
			if attacker, ok := g.Battlefield[attackerID]; ok {
				attacker.Blocked = true
				attacker.BlockingIDs = append(attacker.BlockingIDs, blockerID)
			}
		}
		return nil

	case eventkind.CombatDamageDealt:
		var p payload.CombatDamageDealt
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		for _, a := range p.Assignments {
			if target := g.PlayerByID(a.TargetID); target != nil {
				target.Life -= a.Amount
				continue
			}
			if perm, ok := g.Battlefield[a.TargetID]; ok {
				perm.DamageMarked += a.Amount
			}
		}
		return nil

	case eventkind.PermanentTapped:
		var p payload.PermanentTapped
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		if perm, ok := g.Battlefield[p.PermanentID]; ok {
			perm.Tapped = true
		}
		return nil

	case eventkind.PermanentUntapped:
		var p payload.PermanentTapped
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		if perm, ok := g.Battlefield[p.PermanentID]; ok {
			perm.Tapped = false
		}
		return nil

	case eventkind.PermanentSacrificed:
		var p payload.PermanentSacrificed
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		_ = permanent.Destroy(g, p.PermanentID)
		return nil

	case eventkind.PlayerConceded:
		var p payload.PlayerConceded
		if err := decode(rec.Payload, &p); err != nil {
			return err
		}
		if pl := g.PlayerByID(p.PlayerID); pl != nil {
			pl.Conceded = true
			pl.Lost = true
			pl.LossReason = "conceded"
		}
		return nil

	case eventkind.UndoRequested, eventkind.UndoApplied:
		// Undo bookkeeping; the rewind itself truncates the log.
		return nil

	case eventkind.GameEnded:
		g.Ended = true
		return nil

	default:
		return fmt.Errorf("no replay handler registered for event kind %q", rec.Kind)
	}
}

func removeFromHand(g *domain.Game, playerID, cardID string) bool {
	z := g.Zones[playerID]
	if z == nil {
		return false
	}
	for i, c := range z.Hand {
		if c.ID == cardID {
			z.Hand = append(z.Hand[:i], z.Hand[i+1:]...)
			return true
		}
	}
	return false
}

func removeFromCommandZone(g *domain.Game, playerID, cardID string) bool {
	p := g.PlayerByID(playerID)
	if p == nil {
		return false
	}
	for i, c := range p.CommandZone {
		if c.ID == cardID {
			p.CommandZone = append(p.CommandZone[:i], p.CommandZone[i+1:]...)
			return true
		}
	}
	return false
}

// moveToCommandZone handles the command zone specially: zone.Move only
// understands the four per-player CardObject zones, not Player.CommandZone.
func moveToCommandZone(g *domain.Game, playerID, cardID string) error {
	z := g.Zones[playerID]
	if z == nil {
		return fmt.Errorf("no zones for player %s", playerID)
	}
	for i, c := range z.Library {
		if c.ID == cardID {
			z.Library = append(z.Library[:i], z.Library[i+1:]...)
			if p := g.PlayerByID(playerID); p != nil {
				p.CommandZone = append(p.CommandZone, c)
			}
			return nil
		}
	}
	return fmt.Errorf("card %s not found in library", cardID)
}

func consumeMana(g *domain.Game, playerID string, cost payload.CostSpec) {
	_ = mana.Consume(g, playerID, mana.CostSpec{
		Generic: cost.Generic, White: cost.White, Blue: cost.Blue,
		Black: cost.Black, Red: cost.Red, Green: cost.Green,
	}, nil)
}
