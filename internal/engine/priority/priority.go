// Package priority implements spec §4.7: who holds priority, advancing
// on unanimous pass, and invoking SBAs/trigger collection between
// resolutions. Grounded on the teacher's internal/game/turn service
// (SkipTurn/AdvanceToNextPlayer), generalized from "turn rotation" to
// "priority pass" semantics.
package priority

import (
	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
)

// Manager tracks consecutive passes for one game.
type Manager struct {
	game    *domain.Game
	passed  map[string]bool
}

func NewManager(game *domain.Game) *Manager {
	return &Manager{game: game, passed: map[string]bool{}}
}

// AssignToTurnPlayer gives priority to the turn player and clears pass
// state. Called at the start of each step/phase, except Untap (no
// priority) and Cleanup (only if triggers occurred — callers gate that).
func (m *Manager) AssignToTurnPlayer() {
	m.game.PriorityHolder = m.game.TurnPlayerID
	m.resetPasses()
}

func (m *Manager) resetPasses() {
	m.passed = map[string]bool{}
}

// GiveTo assigns priority to playerID and clears pass state, used after
// any action that resolves (spec §4.7: the acting player receives
// priority back once their action has finished resolving).
func (m *Manager) GiveTo(playerID string) {
	m.game.PriorityHolder = playerID
	m.resetPasses()
}

// Holder returns the current priority holder, or "" if no one has it.
func (m *Manager) Holder() string {
	return m.game.PriorityHolder
}

// PassOutcome describes what happened after a Pass call.
type PassOutcome int

const (
	// StillWaiting means priority moved to the next player; nothing else happened.
	StillWaiting PassOutcome = iota
	// AdvanceStep means every player passed with an empty stack: the
	// step/phase should advance.
	AdvanceStep
	// ResolveTop means every player passed with a non-empty stack: the
	// top item should resolve, then priority resets to the turn player.
	ResolveTop
)

// Pass records playerID passing priority. Blocked (returns an error)
// if the game's resolution queue is non-empty: each primitive with a
// pending interactive step blocks priority advancement until the queue
// drains or the action is cancelled.
func (m *Manager) Pass(playerID string, resolutionQueueLen int, stackLen int) (PassOutcome, error) {
	if m.game.PriorityHolder != playerID {
		return StillWaiting, enginerr.New(enginerr.KindNotAuthorized, "player does not hold priority")
	}
	if resolutionQueueLen > 0 {
		return StillWaiting, enginerr.New(enginerr.KindIllegalPlay, "cannot pass priority while a resolution step is pending")
	}

	m.passed[playerID] = true

	active := m.game.ActivePlayers()
	allPassed := true
	for _, p := range active {
		if !m.passed[p.ID] {
			allPassed = false
			break
		}
	}

	if !allPassed {
		next := m.nextActive(playerID)
		m.game.PriorityHolder = next
		return StillWaiting, nil
	}

	if stackLen > 0 {
		m.resetPasses()
		m.game.PriorityHolder = m.game.TurnPlayerID
		return ResolveTop, nil
	}

	m.resetPasses()
	return AdvanceStep, nil
}

func (m *Manager) nextActive(fromID string) string {
	active := m.game.ActivePlayers()
	if len(active) == 0 {
		return ""
	}
	idx := -1
	for i, p := range active {
		if p.ID == fromID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return active[0].ID
	}
	return active[(idx+1)%len(active)].ID
}
