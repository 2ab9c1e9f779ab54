// Package resolution implements spec §4.11: the per-game ResolutionQueue,
// the interactive core that serializes player choices blocking in-flight
// action execution. ResolutionStep data lives on domain.Game (so it is
// part of the replayable/broadcastable view); the live continuation
// closures attached to each step live only in the Manager, which is
// per-game executor state (spec §5) and never persisted.
package resolution

import (
	"time"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/idgen"
)

// Response is a player's answer to a pending step.
type Response struct {
	Selections []string // target/option ids, or chosen order, depending on Kind
	Cancelled  bool
}

// Continuation is the resumption closure a primitive attaches when it
// creates a step. Submit executes atomically: applies costs, emits
// sub-events, may enqueue further steps. Rollback is invoked on Cancel
// for optional steps and undoes any speculative mutation the primitive
// made while waiting.
type Continuation struct {
	// Validate checks domain legality (selection legal, cost currently
	// payable) without mutating. Returning a non-nil error leaves the
	// step pending exactly as spec §4.11 requires.
	Validate func(resp Response) error
	// Submit performs the atomic continuation once Validate has passed.
	Submit func(resp Response) error
	// Rollback undoes speculative mutation on cancel. Nil means there is
	// nothing to roll back.
	Rollback func() error
	// Optional reports whether the owning player may cancel this step.
	Optional bool
	// DefaultOnTimeout computes the deterministic default response used
	// when a mandatory step's timeout expires (e.g. lowest-id target,
	// auto-pay if able). Nil means the step has no sensible default and
	// is dropped from the queue when its timeout expires.
	DefaultOnTimeout func() Response
}

// Manager owns one game's pending continuations. It is not safe for
// concurrent use across goroutines; the per-game cooperative executor
// (spec §5) is the only caller.
type Manager struct {
	game          *domain.Game
	ids           idgen.Generator
	continuations map[string]Continuation
}

func NewManager(game *domain.Game, ids idgen.Generator) *Manager {
	return &Manager{game: game, ids: ids, continuations: map[string]Continuation{}}
}

// Enqueue creates a step synchronously with the primitive that needs
// input and stores its continuation. Returns the step id.
func (m *Manager) Enqueue(step domain.ResolutionStep, cont Continuation) string {
	if step.ID == "" {
		step.ID = m.ids.NewID()
	}
	if step.CreatedAt.IsZero() {
		step.CreatedAt = time.Now()
	}
	step.Mandatory = !cont.Optional
	m.game.ResolutionQueue = append(m.game.ResolutionQueue, step)
	m.continuations[step.ID] = cont
	return step.ID
}

// Pending returns steps targeted at playerID, in insertion (FIFO) order,
// per the ordering guarantee of spec §4.11.
func (m *Manager) Pending(playerID string) []domain.ResolutionStep {
	var out []domain.ResolutionStep
	for _, s := range m.game.ResolutionQueue {
		if s.TargetPlayer == playerID {
			out = append(out, s)
		}
	}
	return out
}

// Len reports how many steps are pending across all players; priority
// advancement is blocked while this is non-zero (spec §4.7).
func (m *Manager) Len() int {
	return len(m.game.ResolutionQueue)
}

func (m *Manager) find(stepID string) (int, *domain.ResolutionStep) {
	for i := range m.game.ResolutionQueue {
		if m.game.ResolutionQueue[i].ID == stepID {
			return i, &m.game.ResolutionQueue[i]
		}
	}
	return -1, nil
}

func (m *Manager) remove(idx int) {
	m.game.ResolutionQueue = append(m.game.ResolutionQueue[:idx], m.game.ResolutionQueue[idx+1:]...)
}

// Submit is the coordinator's response path. It validates authorization
// (only the target player may submit; spectators never), validates
// domain legality, and on success removes the step and executes the
// continuation atomically. On any failure the step is NOT consumed: an
// error is returned and the step remains pending. Submitting the same
// step twice: the first call succeeds and removes it; the second
// returns step-not-found without mutation.
func (m *Manager) Submit(stepID, playerID string, resp Response) error {
	idx, step := m.find(stepID)
	if step == nil {
		return enginerr.New(enginerr.KindStepNotFound, "resolution step not found")
	}
	if step.TargetPlayer != playerID {
		return enginerr.New(enginerr.KindNotAuthorized, "not your resolution step")
	}

	cont, ok := m.continuations[stepID]
	if !ok {
		return enginerr.New(enginerr.KindStepNotFound, "resolution step has no continuation")
	}

	if resp.Cancelled {
		if !cont.Optional {
			return enginerr.New(enginerr.KindInvalidRequest, "mandatory steps never accept cancel")
		}
		if cont.Rollback != nil {
			if err := cont.Rollback(); err != nil {
				return enginerr.Newf(enginerr.KindApplyFailed, "rollback failed: %v", err)
			}
		}
		m.remove(idx)
		delete(m.continuations, stepID)
		return nil
	}

	if cont.Validate != nil {
		if err := cont.Validate(resp); err != nil {
			return err
		}
	}

	if err := cont.Submit(resp); err != nil {
		return enginerr.Newf(enginerr.KindApplyFailed, "continuation failed: %v", err)
	}

	m.remove(idx)
	delete(m.continuations, stepID)
	return nil
}

// Cancel is the optional-step cancel path (spec §4.11, §7: mandatory
// steps never surface cancel).
func (m *Manager) Cancel(stepID, playerID string) error {
	return m.Submit(stepID, playerID, Response{Cancelled: true})
}

// ExpireTimeouts resolves or cancels every step whose timeout has
// elapsed as of now: optional steps are cancelled (with rollback);
// mandatory steps resolve to their continuation's deterministic default.
func (m *Manager) ExpireTimeouts(now time.Time) {
	for {
		idx := -1
		for i, s := range m.game.ResolutionQueue {
			if s.Timeout > 0 && now.Sub(s.CreatedAt) >= s.Timeout {
				idx = i
				break
			}
		}
		if idx == -1 {
			return
		}
		step := m.game.ResolutionQueue[idx]
		cont := m.continuations[step.ID]
		if cont.Optional {
			_ = m.Cancel(step.ID, step.TargetPlayer)
			continue
		}
		if cont.DefaultOnTimeout != nil {
			_ = m.Submit(step.ID, step.TargetPlayer, cont.DefaultOnTimeout())
			continue
		}
		// No sensible default: drop the step rather than deadlock the
		// game forever on an unspecified mandatory choice.
		m.remove(idx)
		delete(m.continuations, step.ID)
	}
}
