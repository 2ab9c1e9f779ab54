// Package permanent implements spec §4.3: create, destroy, attach,
// detach, set/clear modifier, set counter delta. Cyclic references
// (permanent <-> attachments) are modeled as id-keyed lookups against
// the battlefield map per spec §9, never as direct pointers.
package permanent

import (
	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/idgen"
	"mtgserver/internal/engine/replacement"
)

// EventPermanentEnters is the replacement.Event.Kind Create resolves
// before handing back the finished Permanent (spec §4.10, e.g. "enters
// tapped unless you pay {1}").
const EventPermanentEnters = "permanent-enters-battlefield"

// CreateOptions carries the optional initial state for Create.
type CreateOptions struct {
	Tapped        bool
	SummoningSick bool
	Counters      map[string]int
	IsToken       bool
	IsCopy        bool
}

// Create places a new Permanent object on the battlefield under
// controller. When replacements is non-nil, every registered
// permanent-enters-battlefield effect applicable to the new permanent
// is resolved (self-replacements first, then a single non-self
// candidate; among simultaneous non-self candidates the first is taken) before
// Create returns, so opts reflects only the caller's base request and
// the returned Permanent already carries any rewritten state (e.g.
// entering tapped). A nil registry skips the hook entirely, which is
// what Replay relies on: it never re-derives a choice a past
// replacement resolution already made.
func Create(g *domain.Game, ids idgen.Generator, card domain.Card, controller string, opts CreateOptions, replacements *replacement.Registry) *domain.Permanent {
	p := domain.NewPermanent(ids.NewID(), card, controller)
	p.Tapped = opts.Tapped
	p.SummoningSick = opts.SummoningSick
	p.IsToken = opts.IsToken
	p.IsCopy = opts.IsCopy
	p.EnteredThisTurn = true
	p.EnteredSeq = g.Seq
	if opts.Counters != nil {
		for k, v := range opts.Counters {
			p.Counters[k] = v
		}
	}
	g.Battlefield[p.ID] = p

	if replacements != nil {
		replacements.Resolve(replacement.Event{
			Kind:         EventPermanentEnters,
			AffectedID:   p.ID,
			AffectedType: "permanent",
		}, func(candidates []domain.ReplacementEffect) domain.ReplacementEffect {
			return candidates[0]
		})
	}
	return p
}

// Destroy moves a permanent's card to its owner's graveyard (unless a
// replacement effect intercepts the move upstream) and removes the
// battlefield object. Any attachments still referencing it are detached
// first to preserve the attach/attachedTo mutual-consistency invariant.
func Destroy(g *domain.Game, id string) error {
	p, ok := g.Battlefield[id]
	if !ok {
		return enginerr.NotFound("permanent", id)
	}

	for _, attID := range append([]string{}, p.Attachments...) {
		_ = Detach(g, attID)
	}
	if p.AttachedTo != "" {
		_ = Detach(g, p.ID)
	}

	delete(g.Battlefield, id)

	if !p.IsToken {
		co := domain.CardObject{ID: p.ID, Card: p.Card, OwnerID: p.OwnerID}
		gz := g.Zones[p.OwnerID]
		if gz == nil {
			gz = &domain.PlayerZones{}
			g.Zones[p.OwnerID] = gz
		}
		gz.Graveyard = append(gz.Graveyard, co)
	}
	return nil
}

// Attach attaches an aura/equipment permanent to a target permanent.
// Requires the target to be legal (caller has already validated via
// ActionValidator/ReplacementEffects); an invalid attach makes no
// mutation and returns an error.
func Attach(g *domain.Game, auraOrEquipmentID, targetID string) error {
	source, ok := g.Battlefield[auraOrEquipmentID]
	if !ok {
		return enginerr.NotFound("permanent", auraOrEquipmentID)
	}
	target, ok := g.Battlefield[targetID]
	if !ok {
		return enginerr.New(enginerr.KindIllegalTarget, "attach target does not exist")
	}
	if targetID == auraOrEquipmentID {
		return enginerr.New(enginerr.KindIllegalTarget, "cannot attach a permanent to itself")
	}

	// Detach from any prior target first so the mutual-consistency
	// invariant never observes two owners.
	if source.AttachedTo != "" {
		if err := Detach(g, source.ID); err != nil {
			return err
		}
	}

	source.AttachedTo = target.ID
	target.Attachments = append(target.Attachments, source.ID)
	return nil
}

// Detach removes the attachment relationship for the given permanent,
// whichever side it is invoked on.
func Detach(g *domain.Game, id string) error {
	p, ok := g.Battlefield[id]
	if !ok {
		return enginerr.NotFound("permanent", id)
	}
	if p.AttachedTo == "" {
		return nil
	}
	host, ok := g.Battlefield[p.AttachedTo]
	if ok {
		for i, a := range host.Attachments {
			if a == id {
				host.Attachments = append(host.Attachments[:i], host.Attachments[i+1:]...)
				break
			}
		}
	}
	p.AttachedTo = ""
	return nil
}

// SetModifier appends (or, if the same id already exists, replaces) a
// continuous effect modifier on a permanent.
func SetModifier(g *domain.Game, id string, m domain.Modifier) error {
	p, ok := g.Battlefield[id]
	if !ok {
		return enginerr.NotFound("permanent", id)
	}
	for i, existing := range p.Modifiers {
		if existing.ID == m.ID {
			p.Modifiers[i] = m
			return nil
		}
	}
	p.Modifiers = append(p.Modifiers, m)
	return nil
}

// ClearModifier removes a modifier by id.
func ClearModifier(g *domain.Game, id, modifierID string) error {
	p, ok := g.Battlefield[id]
	if !ok {
		return enginerr.NotFound("permanent", id)
	}
	for i, existing := range p.Modifiers {
		if existing.ID == modifierID {
			p.Modifiers = append(p.Modifiers[:i], p.Modifiers[i+1:]...)
			return nil
		}
	}
	return nil
}

// SetCounterDelta adds delta to the named counter kind, clamped to a
// non-negative floor per the Counters invariant in spec §3.
func SetCounterDelta(g *domain.Game, id, counterKind string, delta int) error {
	p, ok := g.Battlefield[id]
	if !ok {
		return enginerr.NotFound("permanent", id)
	}
	v := p.Counters[counterKind] + delta
	if v < 0 {
		v = 0
	}
	p.Counters[counterKind] = v
	return nil
}

// CheckAttachmentConsistency verifies the mutual-consistency invariant
// (spec §8): for every permanent P with AttachedTo=Q!=null, Q's
// Attachments contains P, and vice versa. Used by tests and by
// internal-inconsistency detection.
func CheckAttachmentConsistency(g *domain.Game) bool {
	for id, p := range g.Battlefield {
		if p.AttachedTo != "" {
			host, ok := g.Battlefield[p.AttachedTo]
			if !ok {
				return false
			}
			found := false
			for _, a := range host.Attachments {
				if a == id {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		for _, attID := range p.Attachments {
			att, ok := g.Battlefield[attID]
			if !ok || att.AttachedTo != id {
				return false
			}
		}
	}
	return true
}
