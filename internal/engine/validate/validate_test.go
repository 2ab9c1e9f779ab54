package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/mana"
	"mtgserver/internal/engine/validate"
)

func newGame() *domain.Game {
	g := domain.NewGame("g1", "standard", 20, 1)
	g.Players = []domain.Player{{ID: "p1"}, {ID: "p2"}}
	g.TurnPlayerID = "p1"
	g.PriorityHolder = "p1"
	g.CurrentPhase = domain.PhasePrecombat
	return g
}

func TestValidateUnknownActorRejected(t *testing.T) {
	g := newGame()

	err := validate.Validate(g, validate.Request{Kind: validate.ActionPlayLand, ActorID: "ghost"}, nil)

	assert.Error(t, err)
}

func TestValidateSpectatorRejected(t *testing.T) {
	g := newGame()
	g.PlayerByID("p1").Spectator = true

	err := validate.Validate(g, validate.Request{Kind: validate.ActionPlayLand, ActorID: "p1"}, nil)

	assert.Error(t, err)
}

func TestValidateLostPlayerRejected(t *testing.T) {
	g := newGame()
	g.PlayerByID("p1").Lost = true

	err := validate.Validate(g, validate.Request{Kind: validate.ActionPlayLand, ActorID: "p1"}, nil)

	assert.Error(t, err)
}

func TestPlayLandRequiresOwnTurn(t *testing.T) {
	g := newGame()

	err := validate.Validate(g, validate.Request{Kind: validate.ActionPlayLand, ActorID: "p2"}, nil)

	assert.Error(t, err)
}

func TestPlayLandRequiresMainPhase(t *testing.T) {
	g := newGame()
	g.CurrentPhase = domain.PhaseCombat

	err := validate.Validate(g, validate.Request{Kind: validate.ActionPlayLand, ActorID: "p1"}, nil)

	assert.Error(t, err)
}

func TestPlayLandRequiresEmptyStack(t *testing.T) {
	g := newGame()
	g.Stack = []domain.StackItem{{ID: "s1"}}

	err := validate.Validate(g, validate.Request{Kind: validate.ActionPlayLand, ActorID: "p1"}, nil)

	assert.Error(t, err)
}

func TestPlayLandRespectsPerTurnLimit(t *testing.T) {
	g := newGame()
	g.LandsPlayed["p1"] = 1

	err := validate.Validate(g, validate.Request{Kind: validate.ActionPlayLand, ActorID: "p1"}, nil)

	assert.Error(t, err)
}

func TestPlayLandSucceedsWhenLegal(t *testing.T) {
	g := newGame()

	err := validate.Validate(g, validate.Request{Kind: validate.ActionPlayLand, ActorID: "p1"}, nil)

	assert.NoError(t, err)
}

func TestCastInstantDoesNotRequireMainPhaseOrOwnTurn(t *testing.T) {
	g := newGame()
	g.TurnPlayerID = "p2"
	g.PriorityHolder = "p1"
	g.CurrentPhase = domain.PhaseCombat

	err := validate.Validate(g, validate.Request{Kind: validate.ActionCastSpell, ActorID: "p1", IsInstant: true}, nil)

	assert.NoError(t, err)
}

func TestCastSpellRequiresPriority(t *testing.T) {
	g := newGame()
	g.PriorityHolder = "p2"

	err := validate.Validate(g, validate.Request{Kind: validate.ActionCastSpell, ActorID: "p1", IsInstant: true}, nil)

	assert.Error(t, err)
}

func TestCastSorcerySpeedRequiresMainPhase(t *testing.T) {
	g := newGame()

	err := validate.Validate(g, validate.Request{Kind: validate.ActionCastSpell, ActorID: "p1", IsInstant: false}, nil)

	assert.NoError(t, err)

	g.CurrentPhase = domain.PhaseCombat
	err = validate.Validate(g, validate.Request{Kind: validate.ActionCastSpell, ActorID: "p1", IsInstant: false}, nil)
	assert.Error(t, err)
}

func TestCheckResourcesInsufficientMana(t *testing.T) {
	g := newGame()

	err := validate.Validate(g, validate.Request{
		Kind: validate.ActionCastSpell, ActorID: "p1", IsInstant: true,
		Cost: mana.CostSpec{Generic: 3},
	}, nil)

	assert.Error(t, err)
}

func TestCheckResourcesSufficientMana(t *testing.T) {
	g := newGame()
	mana.Add(g, "p1", mana.Red, 3, "")

	err := validate.Validate(g, validate.Request{
		Kind: validate.ActionCastSpell, ActorID: "p1", IsInstant: true,
		Cost: mana.CostSpec{Generic: 3},
	}, nil)

	assert.NoError(t, err)
}

func TestCheckTargetsRejectsMissingPermanent(t *testing.T) {
	g := newGame()

	err := validate.Validate(g, validate.Request{
		Kind: validate.ActionCastSpell, ActorID: "p1", IsInstant: true,
		Targets: []domain.TargetRef{{Kind: "permanent", ID: "nope"}},
	}, nil)

	assert.Error(t, err)
}

func TestCheckTargetsRejectsMissingPlayer(t *testing.T) {
	g := newGame()

	err := validate.Validate(g, validate.Request{
		Kind: validate.ActionCastSpell, ActorID: "p1", IsInstant: true,
		Targets: []domain.TargetRef{{Kind: "player", ID: "ghost"}},
	}, nil)

	assert.Error(t, err)
}

func TestProhibitionCheckerBlocksNamedSpell(t *testing.T) {
	g := newGame()
	always := func(g *domain.Game, name string, activatedAbility, isManaAbility bool) bool { return true }

	err := validate.Validate(g, validate.Request{
		Kind: validate.ActionCastSpell, ActorID: "p1", IsInstant: true, CardName: "Lightning Bolt",
	}, always)

	assert.Error(t, err)
}

func TestDeclareAttackersRequiresCorrectStepAndTurnPlayer(t *testing.T) {
	g := newGame()
	g.CurrentStep = domain.StepDeclareAttackers

	assert.NoError(t, validate.Validate(g, validate.Request{Kind: validate.ActionDeclareAttackers, ActorID: "p1"}, nil))

	err := validate.Validate(g, validate.Request{Kind: validate.ActionDeclareAttackers, ActorID: "p2"}, nil)
	assert.Error(t, err)
}
