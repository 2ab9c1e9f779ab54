package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/mana"
	"mtgserver/internal/engine/registry"
	"mtgserver/internal/engine/resolution"
	"mtgserver/internal/engine/session"
	"mtgserver/internal/engine/view"
)

func resolutionOf(p resolutionPayload) resolution.Response {
	return resolution.Response{Selections: p.Selections}
}

// HubMessage pairs an inbound Message with the connection it arrived on.
type HubMessage struct {
	Connection *Connection
	Message    Message
}

// Hub routes inbound messages to the right game's Executor and
// broadcasts the resulting per-player views back out, grounded on the
// teacher's Hub.Run select loop (internal/delivery/websocket/hub.go)
// generalized from one hub serving all Mars games to one hub serving
// all MTG games, dispatching by (gameID) into the registry instead of
// holding game state itself.
type Hub struct {
	reg *registry.Registry

	connections     map[*Connection]bool
	gameConnections map[string]map[*Connection]bool

	Register   chan *Connection
	Unregister chan *Connection
	Inbound    chan HubMessage

	mu     sync.RWMutex
	logger *zap.Logger
}

func NewHub(reg *registry.Registry, log *zap.Logger) *Hub {
	return &Hub{
		reg:             reg,
		connections:     map[*Connection]bool{},
		gameConnections: map[string]map[*Connection]bool{},
		Register:        make(chan *Connection),
		Unregister:      make(chan *Connection),
		Inbound:         make(chan HubMessage, 256),
		logger:          log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.Register:
			h.mu.Lock()
			h.connections[c] = true
			h.mu.Unlock()
		case c := <-h.Unregister:
			h.unregister(c)
		case hm := <-h.Inbound:
			h.dispatch(ctx, hm)
		}
	}
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; !ok {
		return
	}
	delete(h.connections, c)
	close(c.Send)
	if _, gameID := c.GetPlayer(); gameID != "" {
		if conns := h.gameConnections[gameID]; conns != nil {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.gameConnections, gameID)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.connections {
		close(c.Send)
		c.Conn.Close()
	}
}

func (h *Hub) joinGame(c *Connection, playerID, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.SetPlayer(playerID, gameID)
	if h.gameConnections[gameID] == nil {
		h.gameConnections[gameID] = map[*Connection]bool{}
	}
	h.gameConnections[gameID][c] = true
}

// BroadcastView projects and sends a per-player filtered GameView to
// every connection currently watching gameID. Registered as an
// Executor.OnUpdate callback when a game is created.
func (h *Hub) BroadcastView(g *domain.Game) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.gameConnections[g.ID]))
	for c := range h.gameConnections[g.ID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		pid, _ := c.GetPlayer()
		c.SendMessage(Message{Kind: KindGameView, Payload: marshal(view.Project(g, pid))})
	}
}

func marshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func (h *Hub) sendError(c *Connection, err error) {
	ee, ok := err.(*enginerr.Error)
	if !ok {
		c.SendMessage(Message{Kind: KindError, Payload: marshal(ErrorPayload{Kind: "internal", Message: err.Error()})})
		return
	}
	c.SendMessage(Message{Kind: KindError, Payload: marshal(ErrorPayload{Kind: string(ee.Kind), Message: ee.Message})})
}

type joinPayload struct {
	GameID      string `json:"gameId"`
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	HandSizeCap int    `json:"handSizeCap"`
}

type cardNamesPayload struct {
	CardNames []string `json:"cardNames"`
}

type cardIDPayload struct {
	CardID string `json:"cardId"`
}

type castSpellPayload struct {
	CardID           string             `json:"cardId"`
	EffectDescriptor string             `json:"effectDescriptor"`
	Targets          []domain.TargetRef `json:"targets"`
	X                int                `json:"x"`
	Cost             mana.CostSpec      `json:"cost"`
	IsInstant        bool               `json:"isInstant"`
}

type activateAbilityPayload struct {
	PermanentID      string             `json:"permanentId"`
	EffectDescriptor string             `json:"effectDescriptor"`
	Targets          []domain.TargetRef `json:"targets"`
	Cost             mana.CostSpec      `json:"cost"`
	TapCost          bool               `json:"tapCost"`
}

type attackersPayload struct {
	Attackers []session.AttackerDeclaration `json:"attackers"`
}

type blockersPayload struct {
	Blocks []session.BlockDeclaration `json:"blocks"`
}

type resolutionPayload struct {
	StepID     string   `json:"stepId"`
	Selections []string `json:"selections"`
}

type respondUndoPayload struct {
	Approve bool `json:"approve"`
}

// dispatch decodes and executes one inbound action. It never panics on
// a malformed payload: json.Unmarshal errors surface as KindInvalidRequest
// back to the sender, the same channel a validation failure uses.
func (h *Hub) dispatch(ctx context.Context, hm HubMessage) {
	c, msg := hm.Connection, hm.Message

	if msg.Kind == KindJoin {
		var p joinPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.sendError(c, enginerr.New(enginerr.KindInvalidRequest, err.Error()))
			return
		}
		e, err := h.reg.Find(p.GameID)
		if err != nil {
			h.sendError(c, err)
			return
		}
		if err := e.Join(ctx, p.PlayerID, p.DisplayName, p.HandSizeCap); err != nil {
			h.sendError(c, err)
			return
		}
		h.joinGame(c, p.PlayerID, p.GameID)
		return
	}

	_, gameID := c.GetPlayer()
	if gameID == "" {
		h.sendError(c, enginerr.New(enginerr.KindInvalidRequest, "join a game before sending actions"))
		return
	}
	e, err := h.reg.Find(gameID)
	if err != nil {
		h.sendError(c, err)
		return
	}
	playerID, _ := c.GetPlayer()

	if err := h.execute(ctx, e, playerID, msg); err != nil {
		h.sendError(c, err)
	}
}

func (h *Hub) execute(ctx context.Context, e *session.Executor, playerID string, msg Message) error {
	switch msg.Kind {
	case KindImportDeck:
		var p cardNamesPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return enginerr.New(enginerr.KindInvalidRequest, err.Error())
		}
		return e.ImportDeck(ctx, playerID, p.CardNames)

	case KindSetCommander:
		var p cardIDPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return enginerr.New(enginerr.KindInvalidRequest, err.Error())
		}
		return e.SetCommander(ctx, playerID, p.CardID)

	case KindPlayLand:
		var p cardIDPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return enginerr.New(enginerr.KindInvalidRequest, err.Error())
		}
		return e.PlayLand(ctx, playerID, p.CardID)

	case KindCastSpell:
		var p castSpellPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return enginerr.New(enginerr.KindInvalidRequest, err.Error())
		}
		return e.CastSpell(ctx, playerID, session.CastSpellRequest{
			CardID: p.CardID, EffectDescriptor: p.EffectDescriptor, Targets: p.Targets,
			X: p.X, Cost: p.Cost, IsInstant: p.IsInstant,
		})

	case KindCastCommanderSpell:
		var p castSpellPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return enginerr.New(enginerr.KindInvalidRequest, err.Error())
		}
		return e.CastCommanderSpell(ctx, playerID, session.CastSpellRequest{
			CardID: p.CardID, EffectDescriptor: p.EffectDescriptor, Targets: p.Targets,
			X: p.X, Cost: p.Cost, IsInstant: p.IsInstant,
		})

	case KindActivateAbility:
		var p activateAbilityPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return enginerr.New(enginerr.KindInvalidRequest, err.Error())
		}
		return e.ActivateAbility(ctx, playerID, session.ActivateAbilityRequest{
			PermanentID: p.PermanentID, EffectDescriptor: p.EffectDescriptor,
			Targets: p.Targets, Cost: p.Cost, TapCost: p.TapCost,
		})

	case KindPassPriority:
		return e.PassPriority(ctx, playerID)

	case KindDeclareAttackers:
		var p attackersPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return enginerr.New(enginerr.KindInvalidRequest, err.Error())
		}
		return e.DeclareAttackers(ctx, playerID, p.Attackers)

	case KindDeclareBlockers:
		var p blockersPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return enginerr.New(enginerr.KindInvalidRequest, err.Error())
		}
		return e.DeclareBlockers(ctx, playerID, p.Blocks)

	case KindSubmitResolution:
		var p resolutionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return enginerr.New(enginerr.KindInvalidRequest, err.Error())
		}
		return e.SubmitResolutionResponse(ctx, playerID, p.StepID, resolutionOf(p))

	case KindCancelResolution:
		var p resolutionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return enginerr.New(enginerr.KindInvalidRequest, err.Error())
		}
		return e.CancelResolutionStep(ctx, playerID, p.StepID)

	case KindConcede:
		return e.Concede(ctx, playerID)

	case KindRequestUndo:
		return e.RequestUndo(ctx, playerID)

	case KindRespondUndo:
		var p respondUndoPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return enginerr.New(enginerr.KindInvalidRequest, err.Error())
		}
		return e.RespondUndo(ctx, playerID, p.Approve)

	default:
		return enginerr.Newf(enginerr.KindInvalidRequest, "unknown message kind %q", msg.Kind)
	}
}
