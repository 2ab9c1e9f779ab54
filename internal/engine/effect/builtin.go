package effect

import "mtgserver/internal/engine/domain"

// Func adapts a plain function to Descriptor for built-in rules actions
// that need no external script (e.g. "destroy all creatures",
// "draw a card") — the common case for core-rules timing effects that
// the oracle IR executor would otherwise have to express anyway.
type Func struct {
	kind        string
	interaction domain.ResolutionStepKind
	needs       bool
	run         func(ctx *Context) error
}

func NewFunc(kind string, run func(ctx *Context) error) *Func {
	return &Func{kind: kind, run: run}
}

func (f *Func) WithInteraction(kind domain.ResolutionStepKind) *Func {
	f.interaction = kind
	f.needs = true
	return f
}

func (f *Func) Kind() string { return f.kind }

func (f *Func) RequiredInteraction() (domain.ResolutionStepKind, bool) {
	return f.interaction, f.needs
}

func (f *Func) Execute(ctx *Context) error {
	return f.run(ctx)
}
