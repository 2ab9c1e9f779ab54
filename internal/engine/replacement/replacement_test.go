package replacement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/replacement"
)

func newGame() *domain.Game {
	return domain.NewGame("g1", "standard", 20, 1)
}

func alwaysTrue(ev replacement.Event, re domain.ReplacementEffect, g *domain.Game) bool { return true }

func TestApplicableFiltersByEventKind(t *testing.T) {
	g := newGame()
	r := replacement.NewRegistry(g)
	r.Add(domain.ReplacementEffect{ID: "re1", EventKind: "damage"})

	assert.Len(t, r.Applicable(replacement.Event{Kind: "damage"}), 1)
	assert.Empty(t, r.Applicable(replacement.Event{Kind: "draw"}))
}

func TestApplicableExcludesAppliedSelfReplacement(t *testing.T) {
	g := newGame()
	r := replacement.NewRegistry(g)
	r.Add(domain.ReplacementEffect{ID: "re1", EventKind: "damage", SelfReplacement: true, Applied: true})

	assert.Empty(t, r.Applicable(replacement.Event{Kind: "damage"}))
}

func TestApplicableRunsPredicate(t *testing.T) {
	g := newGame()
	r := replacement.NewRegistry(g)
	r.RegisterPredicate("never", func(ev replacement.Event, re domain.ReplacementEffect, g *domain.Game) bool { return false })
	r.Add(domain.ReplacementEffect{ID: "re1", EventKind: "damage", Predicate: "never"})

	assert.Empty(t, r.Applicable(replacement.Event{Kind: "damage"}))
}

func TestResolveAppliesSelfReplacementFirst(t *testing.T) {
	g := newGame()
	r := replacement.NewRegistry(g)
	r.RegisterRewriter("prevent", func(ev replacement.Event, re domain.ReplacementEffect, g *domain.Game) replacement.Event {
		ev.Kind = "prevented"
		return ev
	})
	r.Add(domain.ReplacementEffect{ID: "re1", EventKind: "damage", SelfReplacement: true, RewriteKey: "prevent"})

	result := r.Resolve(replacement.Event{Kind: "damage"}, nil)

	assert.Equal(t, "prevented", result.Kind)
	assert.True(t, g.Replacements[0].Applied)
}

func TestResolveWithSingleOtherCandidateNeedsNoChoice(t *testing.T) {
	g := newGame()
	r := replacement.NewRegistry(g)
	r.RegisterRewriter("double", func(ev replacement.Event, re domain.ReplacementEffect, g *domain.Game) replacement.Event {
		ev.Kind = "doubled"
		return ev
	})
	r.Add(domain.ReplacementEffect{ID: "re1", EventKind: "damage", RewriteKey: "double"})

	result := r.Resolve(replacement.Event{Kind: "damage"}, func([]domain.ReplacementEffect) domain.ReplacementEffect {
		t.Fatal("chooseFn should not be called for a single candidate")
		return domain.ReplacementEffect{}
	})

	assert.Equal(t, "doubled", result.Kind)
}

func TestResolveWithMultipleOthersConsultsChooseFn(t *testing.T) {
	g := newGame()
	r := replacement.NewRegistry(g)
	r.RegisterRewriter("a", func(ev replacement.Event, re domain.ReplacementEffect, g *domain.Game) replacement.Event {
		ev.Kind = "rewritten-a"
		return ev
	})
	r.Add(domain.ReplacementEffect{ID: "re1", EventKind: "damage", RewriteKey: "a"})
	r.Add(domain.ReplacementEffect{ID: "re2", EventKind: "damage", RewriteKey: "a"})

	called := false
	result := r.Resolve(replacement.Event{Kind: "damage"}, func(cands []domain.ReplacementEffect) domain.ReplacementEffect {
		called = true
		assert.Len(t, cands, 2)
		return cands[0]
	})

	assert.True(t, called)
	assert.Equal(t, "rewritten-a", result.Kind)
}

func TestResolveWithNoCandidatesReturnsEventUnchanged(t *testing.T) {
	g := newGame()
	r := replacement.NewRegistry(g)

	result := r.Resolve(replacement.Event{Kind: "damage", AffectedID: "p1"}, nil)

	assert.Equal(t, "damage", result.Kind)
	assert.Equal(t, "p1", result.AffectedID)
}

func TestRemoveDeletesReplacement(t *testing.T) {
	g := newGame()
	r := replacement.NewRegistry(g)
	r.Add(domain.ReplacementEffect{ID: "re1", EventKind: "damage"})

	r.Remove("re1")

	assert.Empty(t, g.Replacements)
}
