package session

import (
	"context"

	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/eventkind"
	"mtgserver/internal/engine/payload"
	"mtgserver/internal/engine/permanent"
	"mtgserver/internal/engine/replay"
)

// Tap taps a permanent its controller controls outside of a cost payment
// (e.g. a format's "tap to untap" macro); costs paid as part of activating
// an ability are tapped inline by ActivateAbility instead.
func (e *Executor) Tap(ctx context.Context, playerID, permanentID string) error {
	p, ok := e.game.Battlefield[permanentID]
	if !ok {
		return enginerr.NotFound("permanent", permanentID)
	}
	if p.ControllerID != playerID {
		return enginerr.New(enginerr.KindNotAuthorized, "you do not control that permanent")
	}
	if p.Tapped {
		return enginerr.New(enginerr.KindIllegalPlay, "already tapped")
	}
	p.Tapped = true

	if _, err := e.appendEvent(ctx, eventkind.PermanentTapped, payload.PermanentTapped{PlayerID: playerID, PermanentID: permanentID}); err != nil {
		p.Tapped = false
		return err
	}
	e.afterMutate()
	e.notify()
	return nil
}

// Untap reverses Tap. The untap step itself handles the turn-based
// action of untapping a player's whole board (spec §4.5); this method
// is for single-permanent untap effects.
func (e *Executor) Untap(ctx context.Context, playerID, permanentID string) error {
	p, ok := e.game.Battlefield[permanentID]
	if !ok {
		return enginerr.NotFound("permanent", permanentID)
	}
	if p.ControllerID != playerID {
		return enginerr.New(enginerr.KindNotAuthorized, "you do not control that permanent")
	}
	if !p.Tapped {
		return nil
	}
	p.Tapped = false

	if _, err := e.appendEvent(ctx, eventkind.PermanentUntapped, payload.PermanentTapped{PlayerID: playerID, PermanentID: permanentID}); err != nil {
		p.Tapped = true
		return err
	}
	e.afterMutate()
	e.notify()
	return nil
}

// SacrificePermanent is the generic cost/effect primitive "sacrifice a
// permanent you control" (spec §4.3 Destroy, restricted to the controller).
func (e *Executor) SacrificePermanent(ctx context.Context, playerID, permanentID string) error {
	p, ok := e.game.Battlefield[permanentID]
	if !ok {
		return enginerr.NotFound("permanent", permanentID)
	}
	if p.ControllerID != playerID {
		return enginerr.New(enginerr.KindNotAuthorized, "you do not control that permanent")
	}

	if _, err := e.appendEvent(ctx, eventkind.PermanentSacrificed, payload.PermanentSacrificed{PlayerID: playerID, PermanentID: permanentID}); err != nil {
		return err
	}
	if err := permanent.Destroy(e.game, permanentID); err != nil {
		return err
	}
	e.afterMutate()
	e.notify()
	return nil
}

// Concede removes a player from the game immediately; the game-end check
// run by afterMutate ends the game if only one active player remains.
func (e *Executor) Concede(ctx context.Context, playerID string) error {
	p := e.game.PlayerByID(playerID)
	if p == nil {
		return enginerr.NotFound("player", playerID)
	}
	if p.Lost {
		return nil
	}

	if _, err := e.appendEvent(ctx, eventkind.PlayerConceded, payload.PlayerConceded{PlayerID: playerID}); err != nil {
		return err
	}
	p.Conceded = true
	p.Lost = true
	p.LossReason = "conceded"

	e.afterMutate()
	e.notify()
	return nil
}

// RequestUndo proposes rewinding the game to the proposer's last
// checkpoint (the seq of the event recorded by their most recent
// action, which is kept; everything after it is discarded). A second
// request while one is already pending replaces it — only the most
// recent proposal can be approved, matching the single-pending-vote
// shape used throughout the ResolutionQueue.
func (e *Executor) RequestUndo(ctx context.Context, proposerID string) error {
	target, ok := e.lastActionSeq[proposerID]
	if !ok {
		return enginerr.New(enginerr.KindIllegalPlay, "no prior action to undo")
	}

	if _, err := e.appendEvent(ctx, eventkind.UndoRequested, payload.UndoRequested{ProposerID: proposerID, TargetSeq: target}); err != nil {
		return err
	}

	approvals := map[string]bool{proposerID: true}
	e.pendingUndo = &undoRequest{ProposerID: proposerID, TargetSeq: target, Approvals: approvals}
	e.notify()
	return nil
}

// RespondUndo records playerID's vote on the pending undo request. Once
// every active, non-proposing player has approved, the game is rewound:
// the event log is truncated after TargetSeq and the game state is
// rebuilt from scratch via replay.Rebuild (spec §4.15).
func (e *Executor) RespondUndo(ctx context.Context, playerID string, approve bool) error {
	if e.pendingUndo == nil {
		return enginerr.New(enginerr.KindIllegalPlay, "no undo request is pending")
	}
	if !approve {
		e.pendingUndo = nil
		e.notify()
		return nil
	}

	e.pendingUndo.Approvals[playerID] = true
	for _, p := range e.game.ActivePlayers() {
		if !e.pendingUndo.Approvals[p.ID] {
			e.notify()
			return nil
		}
	}

	target := e.pendingUndo.TargetSeq
	if err := e.store.TruncateAfter(ctx, e.game.ID, target); err != nil {
		return enginerr.Newf(enginerr.KindApplyFailed, "truncate event log: %v", err)
	}

	records, err := e.store.ForwardIterate(ctx, e.game.ID)
	if err != nil {
		return enginerr.Newf(enginerr.KindApplyFailed, "reread event log: %v", err)
	}
	rebuilt, err := replay.Rebuild(records)
	if err != nil {
		return enginerr.Newf(enginerr.KindApplyFailed, "rebuild from event log: %v", err)
	}

	e.rewire(rebuilt)
	e.pendingUndo = nil

	if _, err := e.appendEvent(ctx, eventkind.UndoApplied, payload.UndoApplied{TargetSeq: target}); err != nil {
		return err
	}
	e.notify()
	return nil
}
