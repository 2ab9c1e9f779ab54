// Package ws is the reference bidirectional event-channel transport
// (spec.md §6): an envelope of {kind, payload} carried over
// github.com/gorilla/websocket, grounded directly on the teacher's
// internal/delivery/websocket package (Hub/Connection/dto.WebSocketMessage)
// generalized from Mars project actions to this engine's action/event
// vocabulary. This adapter is a reference implementation, not part of
// the core contract: any transport that can carry the same envelope
// shape is equally valid.
package ws

import "encoding/json"

// MessageKind names an inbound action or outbound event.
type MessageKind string

const (
	KindJoin              MessageKind = "join"
	KindImportDeck        MessageKind = "import-deck"
	KindSetCommander      MessageKind = "set-commander"
	KindPlayLand          MessageKind = "play-land"
	KindCastSpell         MessageKind = "cast-spell"
	KindCastCommanderSpell MessageKind = "cast-commander-spell"
	KindActivateAbility   MessageKind = "activate-ability"
	KindPassPriority      MessageKind = "pass-priority"
	KindDeclareAttackers  MessageKind = "declare-attackers"
	KindDeclareBlockers   MessageKind = "declare-blockers"
	KindSubmitResolution  MessageKind = "submit-resolution"
	KindCancelResolution  MessageKind = "cancel-resolution"
	KindConcede           MessageKind = "concede"
	KindRequestUndo       MessageKind = "request-undo"
	KindRespondUndo       MessageKind = "respond-undo"

	KindGameView MessageKind = "game-view"
	KindError    MessageKind = "error"
)

// Message is the wire envelope carried in both directions.
type Message struct {
	Kind    MessageKind     `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload is sent back to the acting connection only, never
// broadcast, mirroring enginerr.Error being "targeted to the acting
// player only" (spec §7).
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
