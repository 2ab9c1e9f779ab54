// Package sba implements spec §4.5: the idempotent state-based-actions
// checker run after every primitive and at every priority boundary.
package sba

import (
	"sort"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/permanent"
)

// Result summarizes what one Check pass did, for logging/broadcast.
type Result struct {
	Destroyed   []string // permanent ids moved to graveyard
	PlayersLost []string
	Mutated     bool
}

// Check runs one fixed-point pass of all state-based actions: lethal
// damage or 0 toughness, unattached/illegally-attached auras, legend
// rule, planeswalker loyalty, and player-loss conditions. It loops
// until no further mutation occurs, and is idempotent under
// re-invocation: a second call after a clean pass mutates nothing.
func Check(g *domain.Game) Result {
	total := Result{}
	for {
		pass := checkOnePass(g)
		total.Destroyed = append(total.Destroyed, pass.Destroyed...)
		total.PlayersLost = append(total.PlayersLost, pass.PlayersLost...)
		if !pass.Mutated {
			break
		}
		total.Mutated = true
	}
	return total
}

func checkOnePass(g *domain.Game) Result {
	res := Result{}

	// Gather ids first so destroy() mutating the map mid-range is safe
	// and the pass is deterministic regardless of map iteration order.
	ids := make([]string, 0, len(g.Battlefield))
	for id := range g.Battlefield {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	toDestroy := map[string]bool{}

	for _, id := range ids {
		p, ok := g.Battlefield[id]
		if !ok {
			continue
		}
		if isCreature(p) {
			toughness := effectiveToughness(p)
			if toughness <= 0 || p.DamageMarked >= toughness {
				toDestroy[id] = true
				continue
			}
		}
		if isAura(p) && !isLegallyAttached(g, p) {
			toDestroy[id] = true
			continue
		}
		if isPlaneswalker(p) && p.Counters["loyalty"] <= 0 {
			toDestroy[id] = true
			continue
		}
	}

	legendDupes := legendRuleVictims(g, ids)
	for _, id := range legendDupes {
		toDestroy[id] = true
	}

	for id := range toDestroy {
		if err := permanent.Destroy(g, id); err == nil {
			res.Destroyed = append(res.Destroyed, id)
			res.Mutated = true
		}
	}

	for i := range g.Players {
		p := &g.Players[i]
		if p.Lost || p.Spectator {
			continue
		}
		lost := false
		reason := ""
		switch {
		case p.Life <= 0:
			lost, reason = true, "life-total-zero"
		case p.Poison >= 10:
			lost, reason = true, "poison"
		case p.LossReason == "decked":
			lost, reason = true, "decked"
		}
		if lost {
			p.Lost = true
			p.LossReason = reason
			res.PlayersLost = append(res.PlayersLost, p.ID)
			res.Mutated = true
		}
	}

	return res
}

func isCreature(p *domain.Permanent) bool {
	return contains(p.Card.TypeLine, "Creature")
}

func isAura(p *domain.Permanent) bool {
	return contains(p.Card.TypeLine, "Aura")
}

func isPlaneswalker(p *domain.Permanent) bool {
	return contains(p.Card.TypeLine, "Planeswalker")
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	for i := 0; i+m <= n; i++ {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}

func effectiveToughness(p *domain.Permanent) int {
	base := 0
	if p.Card.Toughness != nil {
		base = *p.Card.Toughness
	}
	base += p.Counters["+1/+1"]
	base -= p.Counters["-1/-1"]
	return base
}

func isLegallyAttached(g *domain.Game, p *domain.Permanent) bool {
	if p.AttachedTo == "" {
		return false
	}
	_, ok := g.Battlefield[p.AttachedTo]
	return ok
}

// legendRuleVictims returns, per controller+name group with more than
// one instance, all but the most-recently-entered permanent's id (the
// controller's choice in real play; keeping the highest EnteredSeq is
// the deterministic default here, consistent with the ResolutionQueue
// mandatory-step timeout default of spec §4.11).
func legendRuleVictims(g *domain.Game, ids []string) []string {
	type key struct {
		controller string
		name       string
	}
	groups := map[key][]string{}
	for _, id := range ids {
		p, ok := g.Battlefield[id]
		if !ok || !contains(p.Card.TypeLine, "Legendary") {
			continue
		}
		k := key{p.ControllerID, p.Card.Name}
		groups[k] = append(groups[k], id)
	}
	var victims []string
	for _, group := range groups {
		if len(group) <= 1 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			pi, pj := g.Battlefield[group[i]], g.Battlefield[group[j]]
			if pi.EnteredSeq != pj.EnteredSeq {
				return pi.EnteredSeq < pj.EnteredSeq
			}
			return group[i] < group[j]
		})
		victims = append(victims, group[:len(group)-1]...)
	}
	return victims
}
