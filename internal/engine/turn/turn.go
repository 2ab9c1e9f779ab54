// Package turn implements spec §4.8: phases/steps, their turn-based
// actions, and turn-to-turn transitions. Grounded on the teacher's
// internal/game/turn service (turn rotation, last-active-player
// handling) generalized from Terraforming Mars' single-phase-per-
// generation model to Magic's full phase/step taxonomy — itself
// grounded on other_examples' thraizz-mage rules/events.go step names.
package turn

import (
	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/mana"
	"mtgserver/internal/engine/zone"
)

// Machine drives one game's turn/phase/step transitions.
type Machine struct {
	game *domain.Game
}

func NewMachine(game *domain.Game) *Machine {
	return &Machine{game: game}
}

// GrantsPriority reports whether players receive priority during step.
// Untap never grants priority; Cleanup only grants it when a trigger
// occurred during cleanup (callers pass triggeredThisCleanup).
func GrantsPriority(step domain.Step, triggeredThisCleanup bool) bool {
	switch step {
	case domain.StepUntap:
		return false
	case domain.StepCleanup:
		return triggeredThisCleanup
	default:
		return true
	}
}

// LoopsOnTrigger reports whether the step repeats its entry actions
// when a trigger fires during it (only Cleanup does, per spec §4.8).
func LoopsOnTrigger(step domain.Step) bool {
	return step == domain.StepCleanup
}

// EnterStep applies the turn-based actions for entering step, per
// spec §4.8 (Untap: untap controller's permanents with configured
// exceptions; Draw: draw one except on turn 1 or with skip-draw;
// Cleanup: remove marked damage and the entered-this-turn flag, empty
// mana pools; the discard to hand size is prompted by the caller, and
// no until-end-of-turn effects are tracked or ended here).
func (m *Machine) EnterStep(step domain.Step, exceptions map[string]bool, skipDraw bool) error {
	m.game.CurrentStep = step
	if phase, ok := domain.StepPhase[step]; ok {
		m.game.CurrentPhase = phase
	}

	switch step {
	case domain.StepUntap:
		for id, p := range m.game.Battlefield {
			if p.ControllerID != m.game.TurnPlayerID {
				continue
			}
			if exceptions[id] {
				continue
			}
			p.Tapped = false
			p.AttackedThisTurn = false
			p.Blocked = false
			p.BlockingIDs = nil
		}
	case domain.StepDraw:
		if m.game.TurnNumber > 1 && !skipDraw {
			if err := zone.Draw(m.game, m.game.TurnPlayerID, 1); err != nil {
				return err
			}
		}
	case domain.StepCleanup:
		// Discard-to-hand-size (spec §4.8) is an interactive
		// card-selection ResolutionStep; the SessionCoordinator wires
		// the actual prompt via HandSizeExcess once EnterStep returns,
		// since the turn machine itself has no resolution-queue access.
		for _, perm := range m.game.Battlefield {
			perm.DamageMarked = 0
			perm.EnteredThisTurn = false
		}
		mana.EmptyAll(m.game)
	}

	if step != domain.StepCleanup {
		mana.EmptyAll(m.game)
	}
	return nil
}

// HandSizeExcess returns how many cards playerID must discard to reach
// their hand-size cap (spec §4.8 Cleanup turn-based action), or 0 if
// they are at or under it.
func HandSizeExcess(g *domain.Game, playerID string) int {
	p := g.PlayerByID(playerID)
	if p == nil {
		return 0
	}
	z := g.Zones[playerID]
	if z == nil {
		return 0
	}
	excess := len(z.Hand) - p.HandSizeCap
	if excess < 0 {
		return 0
	}
	return excess
}

// NextStep computes the step following current in turn order. Returns
// ("", true) when current was the last step of the turn (Cleanup),
// signaling the caller to rotate the turn player via AdvanceTurn.
func NextStep(current domain.Step) (next domain.Step, turnEnded bool) {
	for i, s := range domain.StepOrder {
		if s == current {
			if i+1 >= len(domain.StepOrder) {
				return "", true
			}
			return domain.StepOrder[i+1], false
		}
	}
	return domain.StepUntap, false
}

// AdvanceTurn rotates the turn player, increments the turn counter, and
// resets turn-scoped counters (lands played, spells cast).
func (m *Machine) AdvanceTurn() {
	next := m.game.NextSeat(m.game.TurnPlayerID)
	m.game.TurnPlayerID = next
	m.game.TurnNumber++
	m.game.LandsPlayed[next] = 0
	m.game.SpellsCast[next] = 0
	m.game.CurrentStep = domain.StepUntap
	m.game.CurrentPhase = domain.PhaseBeginning
}
