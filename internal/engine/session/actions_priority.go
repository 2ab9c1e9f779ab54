package session

import (
	"context"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/effect"
	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/eventkind"
	"mtgserver/internal/engine/payload"
	"mtgserver/internal/engine/priority"
	"mtgserver/internal/engine/resolution"
	"mtgserver/internal/engine/turn"
	"mtgserver/internal/engine/zone"
)

// PassPriority records playerID passing. Once every active player has
// passed in succession, either the top stack item resolves (non-empty
// stack) or the step/phase advances (empty stack), per spec §4.7.
func (e *Executor) PassPriority(ctx context.Context, playerID string) error {
	outcome, err := e.priority.Pass(playerID, e.resolutions.Len(), e.stack.Len())
	if err != nil {
		return err
	}

	if _, err := e.appendEvent(ctx, eventkind.PriorityPassed, payload.PriorityPassed{PlayerID: playerID}); err != nil {
		return err
	}

	switch outcome {
	case priority.ResolveTop:
		if err := e.resolveStackTop(ctx); err != nil {
			return err
		}
	case priority.AdvanceStep:
		if err := e.advanceStep(ctx); err != nil {
			return err
		}
	}

	e.notify()
	return nil
}

// resolveStackTop drains the top stack item through its effect
// descriptor. If the descriptor suspends pending player input, a
// resolution-requested event is appended and the stack item stays on
// top, ResumeToken set, until the corresponding ResolutionStep is
// submitted (which finishes the item via finishStackItem).
func (e *Executor) resolveStackTop(ctx context.Context) error {
	top := e.stack.Peek()
	if top == nil {
		return nil
	}
	itemID := top.ID
	controllerID := top.ControllerID

	reqStep := e.requestStepFunc(controllerID, func(resolution.Response) error {
		return e.finishStackItem(ctx, itemID)
	}, nil)

	err := e.stack.ResolveTop(reqStep)
	if err == effect.ErrSuspended {
		_, aerr := e.appendEvent(ctx, eventkind.ResolutionRequested, payload.ResolutionRequested{StackItemID: itemID})
		return aerr
	}
	if err != nil {
		return err
	}
	return e.finishStackItem(ctx, itemID)
}

// finishStackItem is called once a stack item's effect has fully
// executed, whether that happened synchronously (ResolveTop returned nil
// directly, already popped) or asynchronously (a suspended effect's
// continuation ran to completion and the item is still on top).
func (e *Executor) finishStackItem(ctx context.Context, itemID string) error {
	if top := e.stack.Peek(); top != nil && top.ID == itemID {
		_ = e.stack.Cancel(itemID)
	}
	if _, err := e.appendEvent(ctx, eventkind.StackItemResolved, payload.StackItemResolved{StackItemID: itemID}); err != nil {
		return err
	}
	e.afterMutate()
	e.priority.GiveTo(e.game.TurnPlayerID)
	e.notify()
	return nil
}

// advanceStep moves to the next step (rotating the turn on Cleanup) and
// applies its turn-based actions. Steps that never grant priority
// (Untap) chain straight into the next step.
func (e *Executor) advanceStep(ctx context.Context) error {
	next, turnEnded := turn.NextStep(e.game.CurrentStep)
	if turnEnded {
		e.turn.AdvanceTurn()
		next = domain.StepUntap
	} else if next == "" {
		if e.game.CurrentPhase == domain.PhaseBeginning {
			e.game.CurrentPhase = domain.PhasePrecombat
		} else {
			e.game.CurrentPhase = domain.PhasePostcombat
		}
	}

	if err := e.turn.EnterStep(next, map[string]bool{}, false); err != nil {
		return err
	}

	if _, err := e.appendEvent(ctx, eventkind.StepEntered, payload.StepEntered{
		Step: string(next), Phase: string(e.game.CurrentPhase), Turn: e.game.TurnNumber,
	}); err != nil {
		return err
	}
	if turnEnded {
		if _, err := e.appendEvent(ctx, eventkind.TurnAdvanced, payload.TurnAdvanced{
			TurnPlayerID: e.game.TurnPlayerID, TurnNumber: e.game.TurnNumber,
		}); err != nil {
			return err
		}
	}

	if next == domain.StepCombatDamage {
		if err := e.dealCombatDamage(ctx); err != nil {
			return err
		}
	}

	if next == domain.StepCleanup {
		suspended, err := e.requestCleanupDiscard(ctx)
		if err != nil {
			return err
		}
		if suspended {
			return nil
		}
	}

	e.afterMutate()

	if !turn.GrantsPriority(next, false) {
		return e.advanceStep(ctx)
	}
	e.priority.GiveTo(e.game.TurnPlayerID)
	return nil
}

// requestCleanupDiscard enforces Cleanup's discard-to-hand-size
// turn-based action (spec §4.8). When the turn player is over their
// hand-size cap it enqueues a card-selection ResolutionStep instead of
// discarding automatically; the returned bool reports whether advanceStep
// should stop and wait for that step rather than handing out priority.
func (e *Executor) requestCleanupDiscard(ctx context.Context) (bool, error) {
	playerID := e.game.TurnPlayerID
	excess := turn.HandSizeExcess(e.game, playerID)
	if excess <= 0 {
		return false, nil
	}

	z := e.game.Zones[playerID]
	candidates := make([]domain.TargetRef, len(z.Hand))
	for i, c := range z.Hand {
		candidates[i] = domain.TargetRef{Kind: "card", ID: c.ID}
	}

	submit := func(resp resolution.Response) error {
		for _, cardID := range resp.Selections {
			if err := zone.Move(e.game, playerID, zone.Hand, zone.Graveyard, cardID); err != nil {
				return err
			}
		}
		e.afterMutate()
		if !turn.GrantsPriority(e.game.CurrentStep, false) {
			return e.advanceStep(ctx)
		}
		e.priority.GiveTo(e.game.TurnPlayerID)
		e.notify()
		return nil
	}
	validate := func(resp resolution.Response) error {
		if len(resp.Selections) != excess {
			return enginerr.Newf(enginerr.KindInvalidRequest, "must discard exactly %d card(s)", excess)
		}
		return nil
	}

	reqStep := e.requestStepFunc(playerID, submit, validate)
	reqStep(domain.ResolutionStep{
		Kind:        domain.StepCardSelection,
		Description: "discard to hand size",
		Candidates:  candidates,
		Min:         excess,
		Max:         excess,
	})

	if _, err := e.appendEvent(ctx, eventkind.ResolutionRequested, payload.ResolutionRequested{}); err != nil {
		return true, err
	}
	return true, nil
}
