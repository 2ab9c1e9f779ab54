// Package session implements spec §4.13: the SessionCoordinator, the
// single façade wiring zone/permanent/mana/sba/stack/priority/turn/
// trigger/replacement/validate/resolution/eventlog together behind one
// action surface. Exported methods share one pipeline: validate, apply
// the change and record it as one or more events, then (via afterMutate)
// run state-based actions, place triggers and check for game end. Only
// the actions that move the game forward (casting, activating, passing
// priority, resolving) decide who holds priority next.
//
// Grounded on the teacher's internal/usecase package (one coordinator per
// concern, validated request structs, explicit event emission before
// mutation) generalized to this engine's single-threaded
// cooperative-executor-per-game model (spec §5): an Executor holds no
// lock of its own, so callers must not invoke it from more than one
// goroutine at a time; the ws Hub dispatches game actions from its
// single Run goroutine.
package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mtgserver/internal/engine/catalog"
	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/effect"
	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/eventkind"
	"mtgserver/internal/engine/eventlog"
	"mtgserver/internal/engine/idgen"
	"mtgserver/internal/engine/payload"
	"mtgserver/internal/engine/priority"
	"mtgserver/internal/engine/replacement"
	"mtgserver/internal/engine/resolution"
	"mtgserver/internal/engine/sba"
	"mtgserver/internal/engine/stack"
	"mtgserver/internal/engine/trigger"
	"mtgserver/internal/engine/turn"
	"mtgserver/internal/engine/validate"
)

// Executor owns one game's full engine wiring. Callers (transport
// handlers, the replay CLI, tests) interact with the game exclusively
// through its exported methods.
type Executor struct {
	game *domain.Game
	ids  idgen.Generator
	cat  catalog.Catalog
	log  *zap.Logger

	store        eventlog.Store
	effects      *effect.Registry
	resolutions  *resolution.Manager
	stack        *stack.Engine
	priority     *priority.Manager
	turn         *turn.Machine
	triggers     *trigger.Collector
	replacements *replacement.Registry
	prohibited   validate.ProhibitionChecker

	pendingUndo *undoRequest
	lastActionSeq map[string]int64

	onUpdate func(*domain.Game)
}

// NewExecutor wires one game's subsystems. effects should already have
// every built-in and script-backed Descriptor this game's format needs
// registered; the executor itself never registers descriptors.
func NewExecutor(game *domain.Game, ids idgen.Generator, cat catalog.Catalog, store eventlog.Store, effects *effect.Registry, log *zap.Logger) *Executor {
	return &Executor{
		game:          game,
		ids:           ids,
		cat:           cat,
		log:           log,
		store:         store,
		effects:       effects,
		resolutions:   resolution.NewManager(game, ids),
		stack:         stack.NewEngine(game, effects),
		priority:      priority.NewManager(game),
		turn:          turn.NewMachine(game),
		triggers:      trigger.NewCollector(game, ids),
		replacements:  replacement.NewRegistry(game),
		lastActionSeq: map[string]int64{},
	}
}

// CreateGame constructs a fresh game shell, wires its Executor, and
// appends the GameCreated event that anchors Replay.Rebuild (it must
// always be the first record in a game's log).
func CreateGame(ctx context.Context, id, format string, startingLife int, rngSeed int64, ids idgen.Generator, cat catalog.Catalog, store eventlog.Store, effects *effect.Registry, log *zap.Logger) (*Executor, error) {
	game := domain.NewGame(id, format, startingLife, rngSeed)
	e := NewExecutor(game, ids, cat, store, effects, log)
	if _, err := e.appendEvent(ctx, eventkind.GameCreated, payload.GameCreated{
		GameID: id, Format: format, StartingLife: startingLife, RNGSeed: rngSeed,
	}); err != nil {
		return nil, err
	}
	return e, nil
}

// rewire swaps in a freshly rebuilt game (produced by replay.Rebuild
// after an Undo rewind) and reconstructs every subsystem against it,
// preserving everything that isn't per-game derived state: ids, the
// catalog, the store, effects, the prohibition checker, and the
// onUpdate callback.
func (e *Executor) rewire(game *domain.Game) {
	e.game = game
	e.resolutions = resolution.NewManager(game, e.ids)
	e.stack = stack.NewEngine(game, e.effects)
	e.priority = priority.NewManager(game)
	e.turn = turn.NewMachine(game)
	e.triggers = trigger.NewCollector(game, e.ids)
	e.replacements = replacement.NewRegistry(game)
	e.lastActionSeq = map[string]int64{}
}

// SetProhibitionChecker installs the chosen-name-restriction hook used by
// ActionValidator; nil (the default) means no restrictions are active.
func (e *Executor) SetProhibitionChecker(p validate.ProhibitionChecker) { e.prohibited = p }

// OnUpdate registers a callback invoked after every successfully-applied
// action, once per call (not once per player): the transport layer is
// expected to project a view per connected player from the returned
// *domain.Game. Grounded on the teacher's websocket hub Broadcast step
// that runs after every usecase call completes.
func (e *Executor) OnUpdate(fn func(*domain.Game)) { e.onUpdate = fn }

// Game exposes the underlying aggregate for read-only inspection (view
// projection, diagnostics). Callers must not mutate it directly.
func (e *Executor) Game() *domain.Game { return e.game }

// TriggerCollector exposes the registration surface so format/card setup
// code can register Definitions before play begins.
func (e *Executor) TriggerCollector() *trigger.Collector { return e.triggers }

// Replacements exposes the registration surface for format/card setup.
func (e *Executor) Replacements() *replacement.Registry { return e.replacements }

// Effects exposes the descriptor registry for format/card setup.
func (e *Executor) Effects() *effect.Registry { return e.effects }

func (e *Executor) appendEvent(ctx context.Context, kind string, payload interface{}) (domain.EventRecord, error) {
	seq := e.game.BumpSeq()
	rec := domain.EventRecord{Seq: seq, Timestamp: time.Now(), Kind: kind, Payload: payload}
	if err := e.store.Append(ctx, e.game.ID, rec); err != nil {
		e.game.Seq--
		return domain.EventRecord{}, enginerr.Newf(enginerr.KindApplyFailed, "append event: %v", err)
	}
	playerID, sourcePermanent := triggerFieldsFor(kind, payload)
	e.triggers.Observe(trigger.Event{Kind: kind, SourcePermanent: sourcePermanent, PlayerID: playerID})
	return rec, nil
}

// triggerFieldsFor extracts whatever TriggerCollector.Observe needs
// (the acting player and/or source permanent) from an event's typed
// payload, so every appendEvent call materializes triggered abilities
// without each call site having to build a trigger.Event by hand.
// Event kinds with no payload fields a Definition.Condition could use
// fall through to the zero value, which still matches on EventKind
// alone.
func triggerFieldsFor(kind string, p interface{}) (playerID, sourcePermanent string) {
	switch v := p.(type) {
	case payload.PlayerJoined:
		return v.PlayerID, ""
	case payload.DeckImported:
		return v.PlayerID, ""
	case payload.LibraryShuffled:
		return v.PlayerID, ""
	case payload.CommanderSet:
		return v.PlayerID, ""
	case payload.LandPlayed:
		return v.PlayerID, v.PermanentID
	case payload.SpellCast:
		return v.PlayerID, ""
	case payload.AbilityActivated:
		return v.PlayerID, v.PermanentID
	case payload.AttackersDeclared:
		return v.PlayerID, ""
	case payload.BlockersDeclared:
		return v.PlayerID, ""
	case payload.PermanentTapped:
		return v.PlayerID, v.PermanentID
	case payload.PermanentSacrificed:
		return v.PlayerID, v.PermanentID
	case payload.PlayerConceded:
		return v.PlayerID, ""
	case payload.ResolutionSubmitted:
		return v.PlayerID, ""
	case payload.PriorityPassed:
		return v.PlayerID, ""
	default:
		return "", ""
	}
}

// requestStepFunc adapts resolution.Manager.Enqueue to the
// effect.Context.RequestStep shape the stack/trigger/replacement
// machinery needs without those packages importing resolution.
func (e *Executor) requestStepFunc(actorID string, submit func(resolution.Response) error, validate func(resolution.Response) error) func(domain.ResolutionStep) string {
	return func(step domain.ResolutionStep) string {
		if step.TargetPlayer == "" {
			step.TargetPlayer = actorID
		}
		return e.resolutions.Enqueue(step, resolution.Continuation{
			Validate: validate,
			Submit:   submit,
		})
	}
}

// afterMutate runs the common post-primitive tail: state-based actions
// to a fixed point, then trigger collection and placement at the
// resulting priority boundary. It does not itself decide who gets
// priority next; callers do that once they know whether the action
// suspended on a resolution step.
func (e *Executor) afterMutate() sba.Result {
	res := sba.Check(e.game)
	e.placeTriggers()
	e.checkGameEnd()
	return res
}

// placeTriggers drains pending triggers for every player: a player with
// exactly one pending trigger has it auto-placed on the stack in
// materialization order; a player with more than one is left pending
// until a trigger-order ResolutionStep is submitted (spec §4.9).
func (e *Executor) placeTriggers() {
	for _, drain := range e.triggers.PlaceAtPriorityBoundary() {
		if !drain.NeedsOrdering {
			e.pushTriggers(drain.PlayerID, drain.Pending)
			e.triggers.Clear(drain.PlayerID)
			continue
		}
		e.requestTriggerOrder(drain.PlayerID, drain.Pending)
	}
}

func (e *Executor) pushTriggers(playerID string, records []domain.TriggerRecord) {
	for _, r := range records {
		_ = e.stack.Push(domain.StackItem{
			ID:               r.ID,
			Kind:             domain.StackKindTriggered,
			ControllerID:     playerID,
			SourcePermanent:  r.SourcePermanent,
			EffectDescriptor: r.EffectDescriptor,
		})
	}
}

func (e *Executor) requestTriggerOrder(playerID string, records []domain.TriggerRecord) {
	ids := make([]string, len(records))
	candidates := make([]domain.TargetRef, len(records))
	for i, r := range records {
		ids[i] = r.ID
		candidates[i] = domain.TargetRef{Kind: "trigger", ID: r.ID}
	}
	e.resolutions.Enqueue(domain.ResolutionStep{
		Kind:         domain.StepTriggerOrder,
		TargetPlayer: playerID,
		Description:  "order your simultaneous triggers",
		Candidates:   candidates,
		Min:          len(ids),
		Max:          len(ids),
	}, resolution.Continuation{
		Submit: func(resp resolution.Response) error {
			ordered := trigger.OrderByIDs(records, resp.Selections)
			e.pushTriggers(playerID, ordered)
			e.triggers.Clear(playerID)
			return nil
		},
		DefaultOnTimeout: func() resolution.Response {
			return resolution.Response{Selections: ids}
		},
	})
}

func (e *Executor) checkGameEnd() {
	active := e.game.ActivePlayers()
	if e.game.Ended || len(e.game.Players) == 0 {
		return
	}
	if len(active) <= 1 {
		e.game.Ended = true
		if len(active) == 1 {
			e.game.Winners = []string{active[0].ID}
		}
	}
}

func (e *Executor) notify() {
	if e.onUpdate != nil {
		e.onUpdate(e.game)
	}
}

type undoRequest struct {
	ProposerID   string
	TargetSeq    int64
	Approvals    map[string]bool
}
