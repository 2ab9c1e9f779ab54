// Package replacement implements spec §4.10: the ReplacementEffects
// registry. On each rewrite-eligible event, the set of applicable
// effects is computed; when more than one non-self effect applies, a
// caller-supplied chooseFn picks one (no replacement-choice
// ResolutionStep is raised, and the affected player is not asked);
// self-replacements always precede others; some replacements cascade.
package replacement

import (
	"mtgserver/internal/engine/domain"
)

// Event is the rewrite-eligible occurrence being checked (ETB, damage,
// drawing, counters, zone change, ...).
type Event struct {
	Kind         string
	AffectedID   string // permanent or player id the event happens to
	AffectedType string // "permanent" | "player"
}

// Predicate decides whether a registered effect applies to ev.
type Predicate func(ev Event, re domain.ReplacementEffect, g *domain.Game) bool

// Rewriter performs the actual rewrite, returning the (possibly
// further-replaceable) resulting event.
type Rewriter func(ev Event, re domain.ReplacementEffect, g *domain.Game) Event

// Registry holds predicate/rewriter implementations keyed by the
// descriptor strings stored on domain.ReplacementEffect (Predicate,
// RewriteKey), so the effect data itself stays serializable while the
// Go closures implementing it live only in process state.
type Registry struct {
	game       *domain.Game
	predicates map[string]Predicate
	rewriters  map[string]Rewriter
}

func NewRegistry(game *domain.Game) *Registry {
	return &Registry{game: game, predicates: map[string]Predicate{}, rewriters: map[string]Rewriter{}}
}

func (r *Registry) RegisterPredicate(key string, p Predicate) { r.predicates[key] = p }
func (r *Registry) RegisterRewriter(key string, w Rewriter)    { r.rewriters[key] = w }

// Add registers an active replacement effect instance.
func (r *Registry) Add(re domain.ReplacementEffect) {
	r.game.Replacements = append(r.game.Replacements, re)
}

func (r *Registry) Remove(id string) {
	for i, re := range r.game.Replacements {
		if re.ID == id {
			r.game.Replacements = append(r.game.Replacements[:i], r.game.Replacements[i+1:]...)
			return
		}
	}
}

// Applicable returns every currently-registered effect whose predicate
// matches ev and whose event-kind filter matches, excluding
// already-applied self-replacements.
func (r *Registry) Applicable(ev Event) []domain.ReplacementEffect {
	var out []domain.ReplacementEffect
	for _, re := range r.game.Replacements {
		if re.EventKind != ev.Kind {
			continue
		}
		if re.SelfReplacement && re.Applied {
			continue
		}
		pred, ok := r.predicates[re.Predicate]
		if ok && !pred(ev, re, r.game) {
			continue
		}
		out = append(out, re)
	}
	return out
}

// ApplyOne rewrites ev using the chosen effect (self-replacements are
// expected to have been ordered first by the caller) and marks it
// Applied if it is a self-replacement, so it is excluded from the next
// cascade pass. Returns the rewritten event.
func (r *Registry) ApplyOne(ev Event, chosen domain.ReplacementEffect) Event {
	rewrite, ok := r.rewriters[chosen.RewriteKey]
	next := ev
	if ok {
		next = rewrite(ev, chosen, r.game)
	}
	if chosen.SelfReplacement {
		for i := range r.game.Replacements {
			if r.game.Replacements[i].ID == chosen.ID {
				r.game.Replacements[i].Applied = true
			}
		}
	}
	return next
}

// Resolve drives the full spec §4.10 pipeline for one event: self-
// replacements first, cascading until no more apply. chooseFn is
// consulted only when more than one non-self effect is simultaneously
// applicable; Resolve raises no ResolutionStep of its own, so the choice
// is whatever chooseFn returns. For single-candidate or
// self-replacement-only cases chooseFn is never called.
func (r *Registry) Resolve(ev Event, chooseFn func(candidates []domain.ReplacementEffect) domain.ReplacementEffect) Event {
	current := ev
	for {
		candidates := r.Applicable(current)
		if len(candidates) == 0 {
			return current
		}

		var selfs, others []domain.ReplacementEffect
		for _, c := range candidates {
			if c.SelfReplacement {
				selfs = append(selfs, c)
			} else {
				others = append(others, c)
			}
		}

		var chosen domain.ReplacementEffect
		switch {
		case len(selfs) > 0:
			chosen = selfs[0]
		case len(others) == 1:
			chosen = others[0]
		case len(others) > 1:
			chosen = chooseFn(others)
		default:
			return current
		}

		current = r.ApplyOne(current, chosen)
	}
}
