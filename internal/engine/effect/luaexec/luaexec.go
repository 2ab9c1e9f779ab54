// Package luaexec is the reference, dev-only implementation of spec
// §9's "oracle IR executor": an effect.Descriptor backed by a sandboxed
// Lua chunk instead of a Go closure, so card behavior can be iterated on
// without a recompile. Production formats are expected to supply their
// own Descriptor set (built-in Go closures via effect.Func, or a
// hardened out-of-process executor); this package exists so the engine
// itself never hardcodes a card's rules text.
//
// Grounded on the teacher's cards/ package, which maps a card's
// behavior to a small registered Go type per card; here the same
// per-card registration happens at the Lua-chunk level instead.
package luaexec

import (
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/effect"
	"mtgserver/internal/engine/enginerr"
)

// Script holds the Lua source of one chunk bound to one descriptor kind. The
// chunk is re-executed fresh in a new *lua.LState on every Execute
// call: state does not persist across resolutions, matching the
// stack/trigger model where a descriptor's only persistent state is
// whatever it writes back onto the Game.
type Script struct {
	kind        string
	source      string
	interaction domain.ResolutionStepKind
	needsStep   bool
}

// LoadDir reads every *.lua file in dir into a Script keyed by its
// filename without extension (e.g. lightning-bolt.lua registers kind
// "lightning-bolt"). The source is neither compiled nor executed until
// Execute.
func LoadDir(dir string) ([]*Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var scripts []*Script
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
			continue
		}
		src, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		kind := strings.TrimSuffix(entry.Name(), ".lua")
		scripts = append(scripts, &Script{kind: kind, source: string(src)})
	}
	return scripts, nil
}

// WithInteraction declares the ResolutionStepKind this script's
// request_step() call will ask for, so effect.Validate can refuse it up
// front if the engine doesn't support that interaction.
func (s *Script) WithInteraction(kind domain.ResolutionStepKind) *Script {
	s.interaction = kind
	s.needsStep = true
	return s
}

func (s *Script) Kind() string { return s.kind }

func (s *Script) RequiredInteraction() (domain.ResolutionStepKind, bool) {
	return s.interaction, s.needsStep
}

// Execute runs the chunk in a fresh, sandboxed VM (no os/io libraries
// loaded) with a narrow Go API exposed as globals: life_total,
// set_life_total, tap, is_tapped, target_count, target_id. A chunk that
// calls request_step() causes Execute to return effect.ErrSuspended
// immediately after the call; the reference interpreter does not resume
// the same chunk mid-script on the step's answer, it relies on the
// format wiring a second, simpler descriptor for the "resolved" half of
// an interactive effect.
func (s *Script) Execute(ctx *effect.Context) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.fn), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			return enginerr.Newf(enginerr.KindApplyFailed, "luaexec: open %s: %v", lib.name, err)
		}
	}

	suspended := false
	bind(L, ctx, &suspended)

	if err := L.DoString(s.source); err != nil {
		return enginerr.Newf(enginerr.KindApplyFailed, "luaexec: %s: %v", s.kind, err)
	}
	if suspended {
		return effect.ErrSuspended
	}
	return nil
}

func bind(L *lua.LState, ctx *effect.Context, suspended *bool) {
	L.SetGlobal("controller_id", lua.LString(ctx.ControllerID))
	L.SetGlobal("source_card_id", lua.LString(ctx.SourceCardID))
	L.SetGlobal("x_value", lua.LNumber(ctx.X))
	L.SetGlobal("target_count", lua.LNumber(len(ctx.Targets)))

	L.SetGlobal("target_id", L.NewFunction(func(L *lua.LState) int {
		idx := L.CheckInt(1)
		if idx < 0 || idx >= len(ctx.Targets) {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(ctx.Targets[idx].ID))
		return 1
	}))

	L.SetGlobal("life_total", L.NewFunction(func(L *lua.LState) int {
		playerID := L.CheckString(1)
		p := ctx.Game.PlayerByID(playerID)
		if p == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(p.Life))
		return 1
	}))

	L.SetGlobal("set_life_total", L.NewFunction(func(L *lua.LState) int {
		playerID := L.CheckString(1)
		delta := L.CheckInt(2)
		if p := ctx.Game.PlayerByID(playerID); p != nil {
			p.Life += delta
		}
		return 0
	}))

	L.SetGlobal("is_tapped", L.NewFunction(func(L *lua.LState) int {
		permID := L.CheckString(1)
		if p, ok := ctx.Game.Battlefield[permID]; ok {
			L.Push(lua.LBool(p.Tapped))
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))

	L.SetGlobal("tap", L.NewFunction(func(L *lua.LState) int {
		permID := L.CheckString(1)
		if p, ok := ctx.Game.Battlefield[permID]; ok {
			p.Tapped = true
		}
		return 0
	}))

	L.SetGlobal("request_step", L.NewFunction(func(L *lua.LState) int {
		description := L.CheckString(1)
		stepID := ctx.RequestStep(domain.ResolutionStep{
			Kind:         domain.StepOptionChoice,
			TargetPlayer: ctx.ControllerID,
			Description:  description,
		})
		*suspended = true
		L.Push(lua.LString(stepID))
		return 1
	}))
}
