package session

import (
	"context"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/eventkind"
	"mtgserver/internal/engine/payload"
	"mtgserver/internal/engine/resolution"
	"mtgserver/internal/engine/validate"
)

// AttackerDeclaration pairs an attacking permanent with the defending
// player (or planeswalker controller) it is declared against.
type AttackerDeclaration struct {
	PermanentID string
	TargetID    string // defending player id
}

// DeclareAttackers taps each declared attacker and records its attack
// target. Vigilance is not modeled: every declared attacker taps.
func (e *Executor) DeclareAttackers(ctx context.Context, playerID string, attackers []AttackerDeclaration) error {
	if err := validate.Validate(e.game, validate.Request{Kind: validate.ActionDeclareAttackers, ActorID: playerID}, e.prohibited); err != nil {
		return err
	}

	for _, a := range attackers {
		p, ok := e.game.Battlefield[a.PermanentID]
		if !ok {
			return enginerr.NotFound("permanent", a.PermanentID)
		}
		if p.ControllerID != playerID {
			return enginerr.New(enginerr.KindNotAuthorized, "you do not control that permanent")
		}
		if p.Tapped {
			return enginerr.New(enginerr.KindIllegalPlay, "tapped creatures cannot attack")
		}
		if p.SummoningSick {
			return enginerr.New(enginerr.KindIllegalPlay, "summoning-sick creatures cannot attack")
		}
		if e.game.PlayerByID(a.TargetID) == nil {
			return enginerr.New(enginerr.KindIllegalTarget, "attack target does not exist")
		}
	}

	ids := make([]string, len(attackers))
	targets := make(map[string]string, len(attackers))
	for i, a := range attackers {
		p := e.game.Battlefield[a.PermanentID]
		p.Tapped = true
		p.AttackedThisTurn = true
		p.AttackTargetID = a.TargetID
		ids[i] = a.PermanentID
		targets[a.PermanentID] = a.TargetID
	}

	if _, err := e.appendEvent(ctx, eventkind.AttackersDeclared, payload.AttackersDeclared{PlayerID: playerID, Attackers: ids, Targets: targets}); err != nil {
		return err
	}

	e.afterMutate()
	e.priority.GiveTo(playerID)
	e.notify()
	return nil
}

// BlockDeclaration assigns one blocker to one attacker. Multiple entries
// with the same AttackerID model a multi-block.
type BlockDeclaration struct {
	BlockerID  string
	AttackerID string
}

// DeclareBlockers assigns blockers to attackers.
func (e *Executor) DeclareBlockers(ctx context.Context, playerID string, blocks []BlockDeclaration) error {
	if err := validate.Validate(e.game, validate.Request{Kind: validate.ActionDeclareBlockers, ActorID: playerID}, e.prohibited); err != nil {
		return err
	}

	for _, b := range blocks {
		blocker, ok := e.game.Battlefield[b.BlockerID]
		if !ok {
			return enginerr.NotFound("permanent", b.BlockerID)
		}
		if blocker.ControllerID != playerID {
			return enginerr.New(enginerr.KindNotAuthorized, "you do not control that permanent")
		}
		if blocker.Tapped {
			return enginerr.New(enginerr.KindIllegalPlay, "tapped creatures cannot block")
		}
		attacker, ok := e.game.Battlefield[b.AttackerID]
		if !ok || !attacker.AttackedThisTurn {
			return enginerr.New(enginerr.KindIllegalTarget, "not a declared attacker")
		}
	}

	assignments := make(map[string]string, len(blocks))
	for _, b := range blocks {
		blocker := e.game.Battlefield[b.BlockerID]
		attacker := e.game.Battlefield[b.AttackerID]
		blocker.BlockingIDs = []string{b.AttackerID}
		attacker.Blocked = true
		attacker.BlockingIDs = append(attacker.BlockingIDs, b.BlockerID)
		assignments[b.BlockerID] = b.AttackerID
	}

	if _, err := e.appendEvent(ctx, eventkind.BlockersDeclared, payload.BlockersDeclared{PlayerID: playerID, Blocks: assignments}); err != nil {
		return err
	}

	e.afterMutate()
	e.priority.GiveTo(e.game.TurnPlayerID)
	e.notify()
	return nil
}

// dealCombatDamage assigns and marks combat damage for every attacking
// and blocking creature, then runs state-based actions. An attacker
// blocked by exactly one creature assigns all its damage there
// immediately; an attacker blocked by more than one requests a
// combat-damage-assignment ResolutionStep (spec §4.11) from its
// controller to order the blockers, then assigns lethal damage to each
// in that order before any goes to the next (spec §4.12 damage
// assignment order), with a same-order default if the step times out.
func (e *Executor) dealCombatDamage(ctx context.Context) error {
	var log []payload.DamageAssignment
	var multiBlocked []*domain.Permanent

	for _, p := range e.game.Battlefield {
		if !p.AttackedThisTurn {
			continue
		}
		power := powerOf(p)
		if power <= 0 {
			continue
		}

		if !p.Blocked {
			if target := e.game.PlayerByID(p.AttackTargetID); target != nil {
				target.Life -= power
				log = append(log, payload.DamageAssignment{SourceID: p.ID, TargetID: p.AttackTargetID, Amount: power})
			}
			continue
		}

		switch len(p.BlockingIDs) {
		case 0:
			continue
		case 1:
			if blocker, ok := e.game.Battlefield[p.BlockingIDs[0]]; ok {
				blocker.DamageMarked += power
				log = append(log, payload.DamageAssignment{SourceID: p.ID, TargetID: p.BlockingIDs[0], Amount: power})
			}
		default:
			multiBlocked = append(multiBlocked, p)
		}
	}

	// Second pass: each blocker deals its damage back to the attacker it
	// is blocking (BlockingIDs on a blocker permanent always holds
	// exactly its one attacker, set by DeclareBlockers).
	for _, p := range e.game.Battlefield {
		if p.AttackedThisTurn || len(p.BlockingIDs) != 1 {
			continue
		}
		attacker, ok := e.game.Battlefield[p.BlockingIDs[0]]
		if !ok {
			continue
		}
		if power := powerOf(p); power > 0 {
			attacker.DamageMarked += power
			log = append(log, payload.DamageAssignment{SourceID: p.ID, TargetID: attacker.ID, Amount: power})
		}
	}

	if _, err := e.appendEvent(ctx, eventkind.CombatDamageDealt, payload.CombatDamageDealt{Assignments: log}); err != nil {
		return err
	}

	for _, attacker := range multiBlocked {
		e.requestCombatDamageAssignment(ctx, attacker)
	}

	e.afterMutate()
	return nil
}

// requestCombatDamageAssignment enqueues the damage-assignment-order
// ResolutionStep for one multiply-blocked attacker. Submitting it marks
// damage on the chosen blocker order and appends the corresponding
// CombatDamageDealt event.
func (e *Executor) requestCombatDamageAssignment(ctx context.Context, attacker *domain.Permanent) {
	attackerID := attacker.ID
	blockerIDs := append([]string{}, attacker.BlockingIDs...)

	candidates := make([]domain.TargetRef, len(blockerIDs))
	for i, id := range blockerIDs {
		candidates[i] = domain.TargetRef{Kind: "permanent", ID: id}
	}

	submit := func(resp resolution.Response) error {
		p, ok := e.game.Battlefield[attackerID]
		if !ok {
			return nil
		}
		assignments := assignOrderedDamage(e.game, p.ID, powerOf(p), resp.Selections)
		if _, err := e.appendEvent(ctx, eventkind.CombatDamageDealt, payload.CombatDamageDealt{Assignments: assignments}); err != nil {
			return err
		}
		return nil
	}
	validate := func(resp resolution.Response) error {
		if len(resp.Selections) != len(blockerIDs) {
			return enginerr.New(enginerr.KindInvalidRequest, "must order every declared blocker exactly once")
		}
		seen := map[string]bool{}
		for _, id := range resp.Selections {
			found := false
			for _, b := range blockerIDs {
				if b == id {
					found = true
					break
				}
			}
			if !found || seen[id] {
				return enginerr.New(enginerr.KindIllegalTarget, "selection is not a declared blocker of this attacker")
			}
			seen[id] = true
		}
		return nil
	}

	e.resolutions.Enqueue(domain.ResolutionStep{
		Kind:         domain.StepCombatDamageAssign,
		TargetPlayer: attacker.ControllerID,
		Description:  "order combat damage assignment among blockers",
		Candidates:   candidates,
		Min:          len(blockerIDs),
		Max:          len(blockerIDs),
	}, resolution.Continuation{
		Validate: validate,
		Submit:   submit,
		DefaultOnTimeout: func() resolution.Response {
			return resolution.Response{Selections: blockerIDs}
		},
	})
}

// powerOf returns a permanent's current effective power, counters included.
func powerOf(p *domain.Permanent) int {
	power := 0
	if p.Card.Power != nil {
		power = *p.Card.Power
	}
	power += p.Counters["+1/+1"]
	power -= p.Counters["-1/-1"]
	return power
}

// toughnessOf returns a permanent's current effective toughness.
func toughnessOf(p *domain.Permanent) int {
	t := 0
	if p.Card.Toughness != nil {
		t = *p.Card.Toughness
	}
	t += p.Counters["+1/+1"]
	t -= p.Counters["-1/-1"]
	return t
}

// assignOrderedDamage assigns attacker's power to blockers in order,
// giving each at least lethal damage (remaining toughness) before any
// goes to the next, with all leftover power going to the final blocker
// in order — the damage assignment order rule (spec §4.12).
func assignOrderedDamage(g *domain.Game, attackerID string, power int, order []string) []payload.DamageAssignment {
	var out []payload.DamageAssignment
	remaining := power
	for i, id := range order {
		if remaining <= 0 {
			break
		}
		blocker, ok := g.Battlefield[id]
		if !ok {
			continue
		}
		amount := remaining
		if i < len(order)-1 {
			lethal := toughnessOf(blocker) - blocker.DamageMarked
			if lethal < 0 {
				lethal = 0
			}
			if lethal < amount {
				amount = lethal
			}
		}
		if amount <= 0 {
			continue
		}
		blocker.DamageMarked += amount
		out = append(out, payload.DamageAssignment{SourceID: attackerID, TargetID: id, Amount: amount})
		remaining -= amount
	}
	return out
}
