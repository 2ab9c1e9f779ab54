package session

import (
	"context"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/eventkind"
	"mtgserver/internal/engine/idgen"
	"mtgserver/internal/engine/mana"
	"mtgserver/internal/engine/payload"
	"mtgserver/internal/engine/permanent"
	"mtgserver/internal/engine/validate"
)

func toPayloadCost(c mana.CostSpec) payload.CostSpec {
	return payload.CostSpec{Generic: c.Generic, White: c.White, Blue: c.Blue, Black: c.Black, Red: c.Red, Green: c.Green}
}

func (e *Executor) removeFromHand(playerID, cardID string) (domain.CardObject, error) {
	z := e.game.Zones[playerID]
	if z == nil {
		return domain.CardObject{}, enginerr.NotFound("player zones", playerID)
	}
	for i, c := range z.Hand {
		if c.ID == cardID {
			z.Hand = append(z.Hand[:i], z.Hand[i+1:]...)
			return c, nil
		}
	}
	return domain.CardObject{}, enginerr.New(enginerr.KindInvalidZone, "card not found in hand")
}

// PlayLand moves a land card from hand directly to the battlefield. Lands
// do not use the stack (spec §4.6: only spells and abilities do).
func (e *Executor) PlayLand(ctx context.Context, playerID, cardID string) error {
	req := validate.Request{Kind: validate.ActionPlayLand, ActorID: playerID, SourceCardID: cardID}
	if err := validate.Validate(e.game, req, e.prohibited); err != nil {
		return err
	}

	card, err := e.removeFromHand(playerID, cardID)
	if err != nil {
		return err
	}

	permID := e.ids.NewID()
	if _, err := e.appendEvent(ctx, eventkind.LandPlayed, payload.LandPlayed{PlayerID: playerID, Card: card, PermanentID: permID}); err != nil {
		z := e.game.Zones[playerID]
		z.Hand = append(z.Hand, card)
		return err
	}

	permanent.Create(e.game, idgen.Fixed(permID), card.Card, playerID, permanent.CreateOptions{SummoningSick: true}, e.replacements)
	e.game.LandsPlayed[playerID]++
	e.lastActionSeq[playerID] = e.game.Seq

	e.afterMutate()
	e.priority.GiveTo(playerID)
	e.notify()
	return nil
}

// CastSpellRequest is the normalized shape for casting a spell or
// activating a triggered/static ability's companion spell-like effect.
type CastSpellRequest struct {
	CardID           string
	EffectDescriptor string
	Targets          []domain.TargetRef
	X                int
	Cost             mana.CostSpec
	ManaPreferences  mana.Preferences
	IsInstant        bool
}

// CastSpell validates timing/resources/targets, pays the cost, moves the
// card from hand to the stack, and appends exactly one event. The spell
// does not resolve here: resolution happens when priority unwinds via
// PassPriority (spec §4.6/§4.7).
func (e *Executor) CastSpell(ctx context.Context, playerID string, req CastSpellRequest) error {
	vreq := validate.Request{
		Kind:         validate.ActionCastSpell,
		ActorID:      playerID,
		SourceCardID: req.CardID,
		Cost:         req.Cost,
		Targets:      req.Targets,
		IsInstant:    req.IsInstant,
	}
	if err := validate.Validate(e.game, vreq, e.prohibited); err != nil {
		return err
	}

	card, err := e.removeFromHand(playerID, req.CardID)
	if err != nil {
		return err
	}

	before := mana.Get(e.game, playerID)
	if err := mana.Consume(e.game, playerID, req.Cost, req.ManaPreferences); err != nil {
		z := e.game.Zones[playerID]
		z.Hand = append(z.Hand, card)
		return err
	}

	item := domain.StackItem{
		ID:               e.ids.NewID(),
		Kind:             domain.StackKindSpell,
		ControllerID:     playerID,
		SourceCardID:     card.ID,
		Targets:          req.Targets,
		X:                req.X,
		EffectDescriptor: req.EffectDescriptor,
	}
	if err := e.stack.Push(item); err != nil {
		// Refund: restore mana and hand membership, the cast never happened.
		*e.game.ManaPools[playerID] = before
		z := e.game.Zones[playerID]
		z.Hand = append(z.Hand, card)
		return err
	}

	if _, err := e.appendEvent(ctx, eventkind.SpellCast, payload.SpellCast{
		PlayerID: playerID, Card: card, StackItemID: item.ID,
		EffectDescriptor: req.EffectDescriptor, Targets: req.Targets, X: req.X,
		Cost: toPayloadCost(req.Cost),
	}); err != nil {
		_ = e.stack.Cancel(item.ID)
		*e.game.ManaPools[playerID] = before
		z := e.game.Zones[playerID]
		z.Hand = append(z.Hand, card)
		return err
	}

	e.game.SpellsCast[playerID]++
	e.lastActionSeq[playerID] = e.game.Seq

	e.afterMutate()
	e.priority.GiveTo(playerID)
	e.notify()
	return nil
}

func (e *Executor) removeFromCommandZone(playerID, cardID string) (domain.CardObject, error) {
	p := e.game.PlayerByID(playerID)
	if p == nil {
		return domain.CardObject{}, enginerr.NotFound("player", playerID)
	}
	for i, c := range p.CommandZone {
		if c.ID == cardID {
			p.CommandZone = append(p.CommandZone[:i], p.CommandZone[i+1:]...)
			return c, nil
		}
	}
	return domain.CardObject{}, enginerr.New(enginerr.KindInvalidZone, "card not found in command zone")
}

// CastCommanderSpell casts a card from the player's command zone rather
// than their hand, folding in the commander tax (spec §8 Scenario 5:
// {2} generic per previous cast of this card from the command zone)
// before paying. Otherwise follows the same validate/pay/push/log
// pipeline as CastSpell; the card returns to the command zone (rather
// than the graveyard/exile) is a replacement-effect concern handled
// elsewhere, not this primitive.
func (e *Executor) CastCommanderSpell(ctx context.Context, playerID string, req CastSpellRequest) error {
	player := e.game.PlayerByID(playerID)
	if player == nil {
		return enginerr.NotFound("player", playerID)
	}

	cost := req.Cost
	cost.Generic += 2 * player.CommanderTax[req.CardID]

	vreq := validate.Request{
		Kind:         validate.ActionCastSpell,
		ActorID:      playerID,
		SourceCardID: req.CardID,
		Cost:         cost,
		Targets:      req.Targets,
		IsInstant:    req.IsInstant,
	}
	if err := validate.Validate(e.game, vreq, e.prohibited); err != nil {
		return err
	}

	card, err := e.removeFromCommandZone(playerID, req.CardID)
	if err != nil {
		return err
	}

	if err := mana.Consume(e.game, playerID, cost, req.ManaPreferences); err != nil {
		player.CommandZone = append(player.CommandZone, card)
		return err
	}

	item := domain.StackItem{
		ID:               e.ids.NewID(),
		Kind:             domain.StackKindSpell,
		ControllerID:     playerID,
		SourceCardID:     card.ID,
		Targets:          req.Targets,
		X:                req.X,
		EffectDescriptor: req.EffectDescriptor,
	}
	if err := e.stack.Push(item); err != nil {
		player.CommandZone = append(player.CommandZone, card)
		return err
	}

	if _, err := e.appendEvent(ctx, eventkind.SpellCast, payload.SpellCast{
		PlayerID: playerID, Card: card, StackItemID: item.ID,
		EffectDescriptor: req.EffectDescriptor, Targets: req.Targets, X: req.X,
		Cost: toPayloadCost(cost),
	}); err != nil {
		_ = e.stack.Cancel(item.ID)
		player.CommandZone = append(player.CommandZone, card)
		return err
	}

	player.CommanderTax[req.CardID]++
	e.game.SpellsCast[playerID]++
	e.lastActionSeq[playerID] = e.game.Seq

	e.afterMutate()
	e.priority.GiveTo(playerID)
	e.notify()
	return nil
}

// ActivateAbilityRequest is the normalized shape for activating a
// permanent's activated ability.
type ActivateAbilityRequest struct {
	PermanentID      string
	EffectDescriptor string
	Targets          []domain.TargetRef
	Cost             mana.CostSpec
	TapCost          bool
}

// ActivateAbility validates, pays mana/tap costs, and pushes the
// ability onto the stack as a StackItem.
func (e *Executor) ActivateAbility(ctx context.Context, playerID string, req ActivateAbilityRequest) error {
	src, ok := e.game.Battlefield[req.PermanentID]
	if !ok {
		return enginerr.NotFound("permanent", req.PermanentID)
	}
	if src.ControllerID != playerID {
		return enginerr.New(enginerr.KindNotAuthorized, "you do not control that permanent")
	}

	vreq := validate.Request{
		Kind:         validate.ActionActivateAbility,
		ActorID:      playerID,
		SourceCardID: src.Card.ID,
		PermanentID:  req.PermanentID,
		CardName:     src.Card.Name,
		Cost:         req.Cost,
		Targets:      req.Targets,
	}
	if err := validate.Validate(e.game, vreq, e.prohibited); err != nil {
		return err
	}
	if req.TapCost && src.Tapped {
		return enginerr.New(enginerr.KindIllegalPlay, "permanent is already tapped")
	}

	if err := mana.Consume(e.game, playerID, req.Cost, nil); err != nil {
		return err
	}
	if req.TapCost {
		src.Tapped = true
	}

	item := domain.StackItem{
		ID:               e.ids.NewID(),
		Kind:             domain.StackKindActivated,
		ControllerID:     playerID,
		SourceCardID:     src.Card.ID,
		SourcePermanent:  req.PermanentID,
		Targets:          req.Targets,
		EffectDescriptor: req.EffectDescriptor,
	}
	if err := e.stack.Push(item); err != nil {
		if req.TapCost {
			src.Tapped = false
		}
		return err
	}

	if _, err := e.appendEvent(ctx, eventkind.AbilityActivated, payload.AbilityActivated{
		PlayerID: playerID, PermanentID: req.PermanentID, StackItemID: item.ID,
		EffectDescriptor: req.EffectDescriptor, Targets: req.Targets,
		Cost: toPayloadCost(req.Cost), TapCost: req.TapCost,
	}); err != nil {
		_ = e.stack.Cancel(item.ID)
		return err
	}

	e.lastActionSeq[playerID] = e.game.Seq
	e.afterMutate()
	e.priority.GiveTo(playerID)
	e.notify()
	return nil
}
