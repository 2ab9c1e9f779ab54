// Package validate implements spec §4.12: the ActionValidator. For each
// incoming action it checks actor identity/seat, phase/step permission,
// resource availability, targeting legality, and replacement/prohibition
// effects, returning {ok} or {failure, reason}. No mutation on failure.
// Grounded on the teacher's internal/action/validator + internal/usecase/
// common/action_validator.go style of composable, read-only checks.
package validate

import (
	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/mana"
)

// ActionKind enumerates the action surface of SessionCoordinator §4.13
// that requires validation before mutation.
type ActionKind string

const (
	ActionCastSpell        ActionKind = "cast-spell"
	ActionPlayLand         ActionKind = "play-land"
	ActionActivateAbility  ActionKind = "activate-ability"
	ActionDeclareAttackers ActionKind = "declare-attackers"
	ActionDeclareBlockers  ActionKind = "declare-blockers"
	ActionTap              ActionKind = "tap"
	ActionSacrifice        ActionKind = "sacrifice-permanent"
)

// Request is the normalized shape every action validates against.
type Request struct {
	Kind         ActionKind
	ActorID      string
	SourceCardID string
	PermanentID  string
	CardName     string // for chosen-name prohibition checks
	Cost         mana.CostSpec
	Targets      []domain.TargetRef
	IsInstant    bool // sorceries require main-phase + empty stack + own priority
}

// ProhibitionChecker reports whether CardName is currently prohibited by
// a chosen-name-restriction effect (e.g. "spells named X can't be cast").
type ProhibitionChecker func(g *domain.Game, cardName string, activatedAbility bool, isManaAbility bool) bool

// Validate runs the full check pipeline and returns nil on success.
func Validate(g *domain.Game, req Request, prohibited ProhibitionChecker) error {
	p := g.PlayerByID(req.ActorID)
	if p == nil {
		return enginerr.New(enginerr.KindNotAuthorized, "unknown actor")
	}
	if p.Spectator {
		return enginerr.New(enginerr.KindNotAuthorized, "spectators cannot act")
	}
	if p.Lost || p.Conceded {
		return enginerr.New(enginerr.KindNotAuthorized, "player has left the game")
	}

	if err := checkTiming(g, req); err != nil {
		return err
	}

	if prohibited != nil && req.CardName != "" {
		isManaAbility := req.Kind == ActionActivateAbility && req.Cost == (mana.CostSpec{})
		if prohibited(g, req.CardName, req.Kind == ActionActivateAbility, isManaAbility) {
			return enginerr.New(enginerr.KindIllegalPlay, "restricted by a chosen-name effect")
		}
	}

	if err := checkResources(g, req); err != nil {
		return err
	}

	if err := checkTargets(g, req); err != nil {
		return err
	}

	return nil
}

func checkTiming(g *domain.Game, req Request) error {
	switch req.Kind {
	case ActionPlayLand:
		if g.TurnPlayerID != req.ActorID {
			return enginerr.New(enginerr.KindWrongPhase, "lands may only be played on your own turn")
		}
		if g.CurrentPhase != domain.PhasePrecombat && g.CurrentPhase != domain.PhasePostcombat {
			return enginerr.New(enginerr.KindWrongPhase, "lands may only be played during a main phase")
		}
		if len(g.Stack) != 0 {
			return enginerr.New(enginerr.KindWrongPhase, "lands may only be played with an empty stack")
		}
		if g.LandsPlayed[req.ActorID] > 0 {
			return enginerr.New(enginerr.KindIllegalPlay, "land per turn limit reached")
		}
	case ActionCastSpell:
		if !req.IsInstant {
			if g.TurnPlayerID != req.ActorID {
				return enginerr.New(enginerr.KindWrongPhase, "sorcery-speed spells may only be cast on your own turn")
			}
			if g.CurrentPhase != domain.PhasePrecombat && g.CurrentPhase != domain.PhasePostcombat {
				return enginerr.New(enginerr.KindWrongPhase, "sorcery-speed spells require a main phase")
			}
			if len(g.Stack) != 0 {
				return enginerr.New(enginerr.KindWrongPhase, "sorcery-speed spells require an empty stack")
			}
		}
		if g.PriorityHolder != req.ActorID {
			return enginerr.New(enginerr.KindWrongPhase, "actor does not hold priority")
		}
	case ActionDeclareAttackers:
		if g.CurrentStep != domain.StepDeclareAttackers {
			return enginerr.New(enginerr.KindWrongPhase, "attackers may only be declared in the declare attackers step")
		}
		if g.TurnPlayerID != req.ActorID {
			return enginerr.New(enginerr.KindWrongPhase, "only the turn player declares attackers")
		}
	case ActionDeclareBlockers:
		if g.CurrentStep != domain.StepDeclareBlockers {
			return enginerr.New(enginerr.KindWrongPhase, "blockers may only be declared in the declare blockers step")
		}
	default:
		if g.PriorityHolder != req.ActorID {
			return enginerr.New(enginerr.KindWrongPhase, "actor does not hold priority")
		}
	}
	return nil
}

func checkResources(g *domain.Game, req Request) error {
	if req.Cost == (mana.CostSpec{}) {
		return nil
	}
	pool := mana.Get(g, req.ActorID)
	available := mana.CostSpec{
		Generic: req.Cost.Generic,
		White:   req.Cost.White,
		Blue:    req.Cost.Blue,
		Black:   req.Cost.Black,
		Red:     req.Cost.Red,
		Green:   req.Cost.Green,
	}
	total := pool.White + pool.Blue + pool.Black + pool.Red + pool.Green + pool.Colorless
	needed := available.Generic + available.White + available.Blue + available.Black + available.Red + available.Green
	if total < needed {
		return enginerr.Newf(enginerr.KindInsufficientMana, "need %d mana, have %d", needed, total)
	}
	return nil
}

func checkTargets(g *domain.Game, req Request) error {
	for _, t := range req.Targets {
		switch t.Kind {
		case "permanent":
			if _, ok := g.Battlefield[t.ID]; !ok {
				return enginerr.New(enginerr.KindIllegalTarget, "target permanent does not exist")
			}
		case "player":
			if g.PlayerByID(t.ID) == nil {
				return enginerr.New(enginerr.KindIllegalTarget, "target player does not exist")
			}
		case "stack-item":
			found := false
			for _, it := range g.Stack {
				if it.ID == t.ID {
					found = true
					break
				}
			}
			if !found {
				return enginerr.New(enginerr.KindIllegalTarget, "target stack item does not exist")
			}
		default:
			return enginerr.New(enginerr.KindInvalidRequest, "unknown target kind")
		}
	}
	return nil
}
