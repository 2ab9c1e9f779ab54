// Package effect defines the contract between the stack/trigger/
// replacement machinery and the external oracle IR executor (spec §9):
// the core accepts effect descriptors, not raw text, and refuses to
// resolve an item whose descriptor asks for an unsupported interaction
// rather than silently defaulting.
package effect

import (
	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
)

// Context is passed to a Descriptor's Execute. It is the narrow surface
// an effect needs: the game, the item/trigger that is resolving, and a
// callback to request a ResolutionStep when the effect needs player
// input mid-resolution (spec §4.6 "resumption token").
type Context struct {
	Game         *domain.Game
	ControllerID string
	SourceCardID string
	Targets      []domain.TargetRef
	X            int

	// RequestStep enqueues a ResolutionStep and suspends this effect's
	// remaining work; the returned continuation key is stored by the
	// caller (StackEngine) as the resumption token. Implementations
	// that need player input call this and return ErrSuspended.
	RequestStep func(step domain.ResolutionStep) (stepID string)
}

// ErrSuspended is returned by Execute when it has enqueued a
// ResolutionStep; the step's continuation finishes the item once the
// step is submitted.
var ErrSuspended = enginerr.New("suspended", "effect suspended pending resolution step")

// Descriptor is the interface the stack/trigger/replacement engines
// consume. A concrete implementation may be a Go closure (built-in
// rules actions like "destroy all creatures") or the luaexec sandboxed
// interpreter for data-driven card scripts.
type Descriptor interface {
	// Kind is the descriptor's registry key (e.g. "destroy-all-creatures").
	Kind() string
	// RequiredInteraction reports whether this descriptor needs a
	// ResolutionStep of the given kind before it can complete, so the
	// engine can refuse unsupported interaction up front rather than
	// defaulting silently.
	RequiredInteraction() (domain.ResolutionStepKind, bool)
	// Execute performs (or resumes) the effect.
	Execute(ctx *Context) error
}

// Registry maps descriptor keys to implementations.
type Registry struct {
	descriptors map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{descriptors: map[string]Descriptor{}}
}

func (r *Registry) Register(d Descriptor) {
	r.descriptors[d.Kind()] = d
}

func (r *Registry) Lookup(kind string) (Descriptor, bool) {
	d, ok := r.descriptors[kind]
	return d, ok
}

// SupportedInteractions enumerates the ResolutionStepKinds this core
// knows how to mediate; a descriptor requesting anything else is refused
// per spec §9.
var SupportedInteractions = map[domain.ResolutionStepKind]bool{
	domain.StepOptionChoice:       true,
	domain.StepManaPaymentChoice:  true,
	domain.StepTargetSelection:    true,
	domain.StepCardSelection:      true,
	domain.StepTriggerOrder:       true,
	domain.StepReplacementChoice:  true,
	domain.StepCombatDamageAssign: true,
	domain.StepBlockerOrder:       true,
}

// Validate refuses a descriptor that requires unsupported interaction.
func Validate(d Descriptor) error {
	if kind, needs := d.RequiredInteraction(); needs && !SupportedInteractions[kind] {
		return enginerr.Newf(enginerr.KindInvalidRequest, "descriptor %s requires unsupported interaction %s", d.Kind(), kind)
	}
	return nil
}
