// Package stack implements spec §4.6: push, resolve-top, peek, length,
// cancel. Resolution drains the top item through its effect descriptor;
// sub-events requiring player choice enqueue ResolutionSteps and the
// item's resolution is suspended (tracked via a resumption token) until
// the queue drains, then continues.
package stack

import (
	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/effect"
	"mtgserver/internal/engine/enginerr"
)

// Engine drives the LIFO stack for one game.
type Engine struct {
	game     *domain.Game
	registry *effect.Registry
}

func NewEngine(game *domain.Game, registry *effect.Registry) *Engine {
	return &Engine{game: game, registry: registry}
}

// Push places an item on top of the stack. Descriptors that require
// unsupported interaction are refused here rather than accepted and
// silently defaulted later (spec §9).
func (e *Engine) Push(item domain.StackItem) error {
	d, ok := e.registry.Lookup(item.EffectDescriptor)
	if !ok {
		return enginerr.Newf(enginerr.KindInvalidRequest, "unknown effect descriptor %s", item.EffectDescriptor)
	}
	if err := effect.Validate(d); err != nil {
		return err
	}
	e.game.Stack = append(e.game.Stack, item)
	return nil
}

// Peek returns the top item without removing it, or nil if empty.
func (e *Engine) Peek() *domain.StackItem {
	return e.game.StackTop()
}

// Len returns the current stack depth.
func (e *Engine) Len() int {
	return len(e.game.Stack)
}

// Cancel removes a not-yet-placed item during validation failure. It is
// only valid for an item that has not begun resolving (i.e. is not the
// one currently being drained by ResolveTop).
func (e *Engine) Cancel(itemID string) error {
	for i, it := range e.game.Stack {
		if it.ID == itemID {
			e.game.Stack = append(e.game.Stack[:i], e.game.Stack[i+1:]...)
			return nil
		}
	}
	return enginerr.NotFound("stack item", itemID)
}

// ResolveTop drains the top item through its effect descriptor. ctx.X
// and ctx.Targets are taken from the stack item itself. requestStep is
// supplied by the caller (SessionCoordinator) so the effect can enqueue
// a ResolutionStep via the game's resolution.Manager without this
// package importing resolution (which would create an import cycle,
// since resolution steps are themselves created by many packages).
func (e *Engine) ResolveTop(requestStep func(domain.ResolutionStep) string) error {
	top := e.game.StackTop()
	if top == nil {
		return enginerr.New(enginerr.KindInvalidRequest, "stack is empty")
	}

	d, ok := e.registry.Lookup(top.EffectDescriptor)
	if !ok {
		return enginerr.Newf(enginerr.KindInvalidRequest, "unknown effect descriptor %s", top.EffectDescriptor)
	}

	ctx := &effect.Context{
		Game:         e.game,
		ControllerID: top.ControllerID,
		SourceCardID: top.SourceCardID,
		Targets:      top.Targets,
		X:            top.X,
		RequestStep:  requestStep,
	}

	if err := d.Execute(ctx); err != nil {
		if err == effect.ErrSuspended {
			// The resumption token is the stack item's own id; the
			// continuation stored against the resolution step removes
			// the item from the stack once the step is submitted.
			top.ResumeToken = top.ID
			return err
		}
		return err
	}

	// Pop only on a clean, non-suspended completion.
	e.game.Stack = e.game.Stack[:len(e.game.Stack)-1]
	return nil
}
