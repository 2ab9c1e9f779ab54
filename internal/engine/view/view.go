// Package view implements the ViewProjector: a per-player filtered
// snapshot of domain.Game that hides information the viewer should not
// see (opponents' hands and libraries, face-down card identities).
// Grounded on the teacher's internal/delivery/dto response shaping,
// which strips server-only fields before broadcast.
package view

import "mtgserver/internal/engine/domain"

// HiddenCard is what an opponent's hidden card looks like from a
// viewer's perspective: identity withheld, only zone membership visible.
type HiddenCard struct {
	ID       string `json:"id"`
	FaceDown bool   `json:"faceDown"`
}

// PlayerView is one player's zones and pool as projected for a viewer.
type PlayerView struct {
	PlayerID      string           `json:"playerId"`
	Life          int              `json:"life"`
	Poison        int              `json:"poison"`
	LibraryCount  int              `json:"libraryCount"`
	Hand          []domain.CardObject `json:"hand,omitempty"`      // populated only for the viewer themself
	HiddenHand    []HiddenCard     `json:"hiddenHand,omitempty"`    // populated for everyone else
	Graveyard     []domain.CardObject `json:"graveyard"`
	Exile         []domain.CardObject `json:"exile"`
	CommandZone   []domain.CardObject `json:"commandZone"`
	ManaPool      domain.ManaPool  `json:"manaPool"`
	Lost          bool             `json:"lost"`
}

// GameView is the full authoritative-but-filtered snapshot sent to one
// viewer (spec §4: "per-player filtered snapshot hiding hidden information").
type GameView struct {
	GameID         string                   `json:"gameId"`
	Seq            int64                    `json:"seq"`
	TurnNumber     int                      `json:"turnNumber"`
	TurnPlayerID   string                   `json:"turnPlayerId"`
	CurrentPhase   domain.GamePhase         `json:"currentPhase"`
	CurrentStep    domain.Step              `json:"currentStep"`
	PriorityHolder string                   `json:"priorityHolder,omitempty"`
	Stack          []domain.StackItem       `json:"stack"`
	Battlefield    map[string]*domain.Permanent `json:"battlefield"`
	Players        map[string]PlayerView    `json:"players"`
	ResolutionStep *domain.ResolutionStep   `json:"resolutionStep,omitempty"` // the viewer's own next-pending step, if any
	Ended          bool                     `json:"ended"`
	Winners        []string                 `json:"winners,omitempty"`
}

// Project builds the GameView for viewerID. Face-down permanents (morph,
// manifest) never reveal their underlying card to non-controllers; an
// opponent's hand is reduced to count + face-down placeholders.
func Project(g *domain.Game, viewerID string) GameView {
	gv := GameView{
		GameID:         g.ID,
		Seq:            g.Seq,
		TurnNumber:     g.TurnNumber,
		TurnPlayerID:   g.TurnPlayerID,
		CurrentPhase:   g.CurrentPhase,
		CurrentStep:    g.CurrentStep,
		PriorityHolder: g.PriorityHolder,
		Stack:          g.Stack,
		Battlefield:    projectBattlefield(g, viewerID),
		Players:        map[string]PlayerView{},
		Ended:          g.Ended,
		Winners:        g.Winners,
	}

	for _, p := range g.Players {
		z := g.Zones[p.ID]
		if z == nil {
			z = &domain.PlayerZones{}
		}
		pv := PlayerView{
			PlayerID:     p.ID,
			Life:         p.Life,
			Poison:       p.Poison,
			LibraryCount: len(z.Library),
			Graveyard:    z.Graveyard,
			Exile:        z.Exile,
			CommandZone:  p.CommandZone,
			Lost:         p.Lost,
		}
		if pool := g.ManaPools[p.ID]; pool != nil {
			pv.ManaPool = *pool
		}
		if p.ID == viewerID {
			pv.Hand = z.Hand
		} else {
			hidden := make([]HiddenCard, len(z.Hand))
			for i, c := range z.Hand {
				hidden[i] = HiddenCard{ID: c.ID, FaceDown: true}
			}
			pv.HiddenHand = hidden
		}
		gv.Players[p.ID] = pv
	}

	for _, s := range g.ResolutionQueue {
		if s.TargetPlayer == viewerID {
			step := s
			gv.ResolutionStep = &step
			break
		}
	}

	return gv
}

func projectBattlefield(g *domain.Game, viewerID string) map[string]*domain.Permanent {
	out := make(map[string]*domain.Permanent, len(g.Battlefield))
	for id, p := range g.Battlefield {
		if p.Face.FaceDown && p.ControllerID != viewerID {
			redacted := *p
			redacted.Card = domain.Card{ID: p.Card.ID, Name: "", TypeLine: "", OracleText: ""}
			out[id] = &redacted
			continue
		}
		cp := *p
		out[id] = &cp
	}
	return out
}
