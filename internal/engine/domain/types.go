// Package domain holds the core state model of spec §3: Game, Player,
// Zone, Card, Permanent, StackItem, TriggerRecord, ReplacementEffect,
// ResolutionStep and EventRecord. Types here are plain data plus the
// small invariant-preserving methods the rest of the engine packages
// build on; orchestration lives in the sibling engine packages.
package domain

import "time"

// GamePhase is one of the five top-level turn phases.
type GamePhase string

const (
	PhaseBeginning   GamePhase = "beginning"
	PhasePrecombat   GamePhase = "precombat_main"
	PhaseCombat      GamePhase = "combat"
	PhasePostcombat  GamePhase = "postcombat_main"
	PhaseEnding      GamePhase = "ending"
)

// Step is one of the steps nested under a phase.
type Step string

const (
	StepUntap            Step = "untap"
	StepUpkeep           Step = "upkeep"
	StepDraw             Step = "draw"
	StepDeclareAttackers Step = "declare_attackers"
	StepDeclareBlockers  Step = "declare_blockers"
	StepCombatDamage     Step = "combat_damage"
	StepEndCombat        Step = "end_combat"
	StepEndStep          Step = "end_step"
	StepCleanup          Step = "cleanup"
)

// StepPhase maps every step to its containing phase.
var StepPhase = map[Step]GamePhase{
	StepUntap:            PhaseBeginning,
	StepUpkeep:           PhaseBeginning,
	StepDraw:             PhaseBeginning,
	StepDeclareAttackers: PhaseCombat,
	StepDeclareBlockers:  PhaseCombat,
	StepCombatDamage:     PhaseCombat,
	StepEndCombat:        PhaseCombat,
	StepEndStep:          PhaseEnding,
	StepCleanup:          PhaseEnding,
}

// StepOrder is the fixed traversal order of a turn. Precombat/Postcombat
// main phases have no distinct "step" of their own in this model; the
// TurnStateMachine treats the phase transition itself as the step boundary.
var StepOrder = []Step{
	StepUntap,
	StepUpkeep,
	StepDraw,
	"", // precombat main (phase-only, no named step)
	StepDeclareAttackers,
	StepDeclareBlockers,
	StepCombatDamage,
	StepEndCombat,
	"", // postcombat main (phase-only, no named step)
	StepEndStep,
	StepCleanup,
}

// Card is an immutable printing as resolved by the CardCatalog adapter.
type Card struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	TypeLine   string   `json:"typeLine"`
	OracleText string   `json:"oracleText"`
	ManaCost   string   `json:"manaCost"`
	Faces      []Card   `json:"faces,omitempty"`
	Power      *int     `json:"power,omitempty"`
	Toughness  *int     `json:"toughness,omitempty"`
	Images     []string `json:"images,omitempty"`
}

// CardObject is a physical card instance moving between zones. Identity
// is stable across zone moves (Rule 400): the same CardObject.ID persists
// from library through hand through graveyard, etc. A new Permanent is
// minted with its own id whenever the object takes the field.
type CardObject struct {
	ID           string `json:"id"`
	Card         Card   `json:"card"`
	OwnerID      string `json:"ownerId"`
	FaceDown     bool   `json:"faceDown"`
	LinkedSource string `json:"linkedSource,omitempty"`
}

// PlayerZones holds one player's private + semi-private zone contents.
type PlayerZones struct {
	Hand      []CardObject `json:"hand"`
	Library   []CardObject `json:"library"`
	Graveyard []CardObject `json:"graveyard"` // top = last element
	Exile     []CardObject `json:"exile"`
}

// Modifier is a continuous effect applied to a permanent.
type Modifier struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

// FaceState captures DFC/morph presentation.
type FaceState struct {
	Back     bool `json:"back"`
	FaceDown bool `json:"faceDown"`
}

// Permanent is a distinct battlefield object (spec §3 Permanent).
type Permanent struct {
	ID                string         `json:"id"`
	OwnerID           string         `json:"ownerId"`
	ControllerID      string         `json:"controllerId"`
	Card              Card           `json:"card"`
	Tapped            bool           `json:"tapped"`
	SummoningSick     bool           `json:"summoningSick"`
	Counters          map[string]int `json:"counters"`
	Attachments       []string       `json:"attachments"` // ids of auras/equipment attached to this permanent
	AttachedTo        string         `json:"attachedTo,omitempty"`
	Modifiers         []Modifier     `json:"modifiers"`
	Face              FaceState      `json:"face"`
	IsToken           bool           `json:"isToken"`
	IsCopy            bool           `json:"isCopy"`
	AttackedThisTurn  bool           `json:"attackedThisTurn"`
	AttackTargetID    string         `json:"attackTargetId,omitempty"` // defending player id, set when declared as attacker
	Blocked           bool           `json:"blocked"`
	BlockingIDs       []string       `json:"blockingIds,omitempty"`
	DamageMarked      int            `json:"damageMarked"`
	EnteredThisTurn   bool           `json:"enteredThisTurn"`
	EnteredSeq        int64          `json:"enteredSeq"` // game.Seq at creation time; breaks legend-rule ties by recency
}

func NewPermanent(id string, card Card, owner string) *Permanent {
	return &Permanent{
		ID:           id,
		OwnerID:      owner,
		ControllerID: owner,
		Card:         card,
		Counters:     map[string]int{},
	}
}

// StackItemKind enumerates what can occupy the stack.
type StackItemKind string

const (
	StackKindSpell      StackItemKind = "spell"
	StackKindActivated  StackItemKind = "activated-ability"
	StackKindTriggered  StackItemKind = "triggered-ability"
)

// TargetRef identifies a legal target: a permanent, a player, or a
// stack item (for counterspell-like effects).
type TargetRef struct {
	Kind string `json:"kind"` // "permanent" | "player" | "stack-item"
	ID   string `json:"id"`
}

// StackItem is an entry on the LIFO stack (spec §3 StackItem).
type StackItem struct {
	ID               string        `json:"id"`
	Kind             StackItemKind `json:"kind"`
	ControllerID     string        `json:"controllerId"`
	SourceCardID     string        `json:"sourceCardId"`
	SourcePermanent  string        `json:"sourcePermanentId,omitempty"`
	Targets          []TargetRef   `json:"targets"`
	Modes            []string      `json:"modes,omitempty"`
	X                int           `json:"x,omitempty"`
	AdditionalCosts  []string      `json:"additionalCosts,omitempty"`
	EffectDescriptor string        `json:"effectDescriptor"` // descriptor kind key into the effect registry
	ResumeToken      string        `json:"resumeToken,omitempty"`
}

// TriggerRecord is a pending triggered ability materialized by the
// TriggerCollector (spec §3 TriggerRecord).
type TriggerRecord struct {
	ID               string `json:"id"`
	SourcePermanent  string `json:"sourcePermanentId"`
	ControllerID     string `json:"controllerId"`
	TriggerKind      string `json:"triggerKind"`
	ConditionSnap    string `json:"conditionSnapshot"`
	EffectDescriptor string `json:"effectDescriptor"`
	Mandatory        bool   `json:"mandatory"`
	RequiresTarget   bool   `json:"requiresTarget"`
	FiredThisTurn    bool   `json:"firedThisTurn"`
}

// ReplacementEffect is a registered event-rewriting effect (spec §3).
type ReplacementEffect struct {
	ID               string `json:"id"`
	Source           string `json:"source"`
	EventKind        string `json:"eventKind"`
	Predicate        string `json:"predicate"`        // descriptor key evaluated against the event
	RewriteKey       string `json:"rewriteKey"`        // descriptor key that performs the rewrite
	SelfReplacement  bool   `json:"selfReplacement"`
	OwnerPlayerID    string `json:"ownerPlayerId"`
	Applied          bool   `json:"-"` // set once consumed for self-replacements that fire at most once
}

// ResolutionStepKind enumerates interactive step kinds (spec §4.11).
type ResolutionStepKind string

const (
	StepOptionChoice      ResolutionStepKind = "option-choice"
	StepManaPaymentChoice ResolutionStepKind = "mana-payment-choice"
	StepTargetSelection   ResolutionStepKind = "target-selection"
	StepCardSelection     ResolutionStepKind = "card-selection"
	StepTriggerOrder      ResolutionStepKind = "trigger-order"
	StepReplacementChoice ResolutionStepKind = "replacement-choice"
	StepCombatDamageAssign ResolutionStepKind = "combat-damage-assignment"
	StepBlockerOrder      ResolutionStepKind = "blocker-order"
)

// ResolutionStep is a pending interactive input gating action execution
// (spec §3 ResolutionStep, §4.11).
type ResolutionStep struct {
	ID           string              `json:"id"`
	Kind         ResolutionStepKind  `json:"kind"`
	TargetPlayer string              `json:"targetPlayerId"`
	Description  string              `json:"description"`
	Min          int                 `json:"min"`
	Max          int                 `json:"max"`
	Options      []string            `json:"options,omitempty"`
	Candidates   []TargetRef         `json:"candidates,omitempty"`
	ContextKey   string              `json:"contextKey"` // opaque key the creator uses to locate its resumption continuation
	Mandatory    bool                `json:"mandatory"`
	CreatedAt    time.Time           `json:"createdAt"`
	Timeout      time.Duration       `json:"timeout"`
}

// EventRecord is a single durable, replayable event (spec §3 EventRecord).
type EventRecord struct {
	Seq       int64           `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      string          `json:"kind"`
	Payload   interface{}     `json:"payload"`
}

// Player is a seat in the game (spec §3 Player).
type Player struct {
	ID            string         `json:"id"`
	DisplayName   string         `json:"displayName"`
	Seat          int            `json:"seat"`
	Life          int            `json:"life"`
	Poison        int            `json:"poison"`
	HandSizeCap   int            `json:"handSizeCap"`
	CommandZone   []CardObject   `json:"commandZone"`
	CommanderTax  map[string]int `json:"commanderTax"` // commander card id -> cumulative tax
	MulliganCount int            `json:"mulliganCount"`
	Conceded      bool           `json:"conceded"`
	Spectator     bool           `json:"spectator"`
	Lost          bool           `json:"lost"`
	LossReason    string         `json:"lossReason,omitempty"`
}

// ManaPool is a per-player floating mana ledger (spec §3/§4.4).
type ManaPool struct {
	White   int `json:"white"`
	Blue    int `json:"blue"`
	Black   int `json:"black"`
	Red     int `json:"red"`
	Green   int `json:"green"`
	Colorless int `json:"colorless"`
}

func (m ManaPool) Total() int {
	return m.White + m.Blue + m.Black + m.Red + m.Green + m.Colorless
}

// Game is the aggregate root (spec §3 Game).
type Game struct {
	ID              string                 `json:"id"`
	Format          string                 `json:"format"`
	StartingLife    int                    `json:"startingLife"`
	RNGSeed         int64                  `json:"rngSeed"`
	Seq             int64                  `json:"seq"`
	Players         []Player               `json:"players"` // ordered by seat
	TurnNumber      int                    `json:"turnNumber"`
	TurnPlayerID    string                 `json:"turnPlayerId"`
	CurrentPhase    GamePhase              `json:"currentPhase"`
	CurrentStep     Step                   `json:"currentStep"`
	PriorityHolder  string                 `json:"priorityHolder,omitempty"`
	Stack           []StackItem            `json:"stack"` // index 0 = bottom; last = top
	Battlefield     map[string]*Permanent  `json:"battlefield"`
	Zones           map[string]*PlayerZones `json:"zones"` // playerId -> zones
	ManaPools       map[string]*ManaPool   `json:"manaPools"`
	PendingTriggers map[string][]TriggerRecord `json:"pendingTriggers"` // playerId -> queue
	Replacements    []ReplacementEffect    `json:"replacements"`
	ResolutionQueue []ResolutionStep       `json:"resolutionQueue"`
	LandsPlayed     map[string]int         `json:"landsPlayed"`
	SpellsCast      map[string]int         `json:"spellsCast"`
	Ended           bool                   `json:"ended"`
	Winners         []string               `json:"winners,omitempty"`
	Quiesced        bool                   `json:"quiesced"`
}

// NewGame constructs an empty game shell; callers populate players via
// SessionCoordinator.join.
func NewGame(id, format string, startingLife int, seed int64) *Game {
	return &Game{
		ID:              id,
		Format:          format,
		StartingLife:    startingLife,
		RNGSeed:         seed,
		Battlefield:     map[string]*Permanent{},
		Zones:           map[string]*PlayerZones{},
		ManaPools:       map[string]*ManaPool{},
		PendingTriggers: map[string][]TriggerRecord{},
		LandsPlayed:     map[string]int{},
		SpellsCast:      map[string]int{},
		CurrentPhase:    PhaseBeginning,
		CurrentStep:     StepUntap,
	}
}

// BumpSeq increments and returns the new sequence number. Invariant:
// seq after event N equals N.
func (g *Game) BumpSeq() int64 {
	g.Seq++
	return g.Seq
}

// PlayerByID finds a player by id, or nil.
func (g *Game) PlayerByID(id string) *Player {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// NextSeat returns the player whose seat follows fromID in turn order.
func (g *Game) NextSeat(fromID string) string {
	if len(g.Players) == 0 {
		return ""
	}
	idx := -1
	for i, p := range g.Players {
		if p.ID == fromID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return g.Players[0].ID
	}
	return g.Players[(idx+1)%len(g.Players)].ID
}

// StackTop returns the top stack item, or nil if the stack is empty.
func (g *Game) StackTop() *StackItem {
	if len(g.Stack) == 0 {
		return nil
	}
	return &g.Stack[len(g.Stack)-1]
}

// ActivePlayers returns players who have not lost and are not spectators,
// in seat order.
func (g *Game) ActivePlayers() []Player {
	out := make([]Player, 0, len(g.Players))
	for _, p := range g.Players {
		if !p.Lost && !p.Spectator {
			out = append(out, p)
		}
	}
	return out
}
