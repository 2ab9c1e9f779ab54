package ws_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtgserver/internal/engine/catalog"
	"mtgserver/internal/engine/effect"
	"mtgserver/internal/engine/eventlog"
	"mtgserver/internal/engine/idgen"
	"mtgserver/internal/engine/registry"
	"mtgserver/internal/engine/session"
	"mtgserver/internal/transport/ws"
)

func newTestHub(t *testing.T) (*ws.Hub, *session.Executor) {
	t.Helper()
	reg := registry.New()
	exec, err := session.CreateGame(context.Background(), "g1", "standard", 20, 1,
		idgen.UUIDGenerator{}, catalog.NewStatic(nil), eventlog.NewMemoryStore(), effect.NewRegistry(), nil)
	require.NoError(t, err)
	require.NoError(t, reg.Create(exec))

	hub := ws.NewHub(reg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub, exec
}

func newTestConnection(hub *ws.Hub) *ws.Connection {
	return ws.NewConnection("conn-1", nil, hub, nil)
}

func rawPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func drainOne(t *testing.T, c *ws.Connection) ws.Message {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return ws.Message{}
	}
}

func TestJoinSucceedsAndSendsNoErrorMessage(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := newTestConnection(hub)

	hub.Inbound <- ws.HubMessage{Connection: conn, Message: ws.Message{
		Kind: ws.KindJoin,
		Payload: rawPayload(t, map[string]interface{}{
			"gameId": "g1", "playerId": "p1", "displayName": "Alice", "handSizeCap": 7,
		}),
	}}

	select {
	case msg := <-conn.Send:
		t.Fatalf("unexpected message after successful join: %+v", msg)
	case <-time.After(200 * time.Millisecond):
	}

	pid, gid := conn.GetPlayer()
	assert.Equal(t, "p1", pid)
	assert.Equal(t, "g1", gid)
}

func TestJoinUnknownGameSendsErrorMessage(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := newTestConnection(hub)

	hub.Inbound <- ws.HubMessage{Connection: conn, Message: ws.Message{
		Kind:    ws.KindJoin,
		Payload: rawPayload(t, map[string]interface{}{"gameId": "missing", "playerId": "p1"}),
	}}

	msg := drainOne(t, conn)
	assert.Equal(t, ws.KindError, msg.Kind)
}

func TestActionBeforeJoinSendsError(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := newTestConnection(hub)

	hub.Inbound <- ws.HubMessage{Connection: conn, Message: ws.Message{Kind: ws.KindPassPriority}}

	msg := drainOne(t, conn)
	assert.Equal(t, ws.KindError, msg.Kind)
	var payload ws.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Contains(t, payload.Message, "join a game")
}

func TestUnknownMessageKindSendsError(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := newTestConnection(hub)
	hub.Inbound <- ws.HubMessage{Connection: conn, Message: ws.Message{
		Kind:    ws.KindJoin,
		Payload: rawPayload(t, map[string]interface{}{"gameId": "g1", "playerId": "p1"}),
	}}
	select {
	case <-conn.Send:
	case <-time.After(200 * time.Millisecond):
	}

	hub.Inbound <- ws.HubMessage{Connection: conn, Message: ws.Message{Kind: ws.MessageKind("not-a-kind")}}

	msg := drainOne(t, conn)
	assert.Equal(t, ws.KindError, msg.Kind)
}

func TestBroadcastViewSendsGameViewToJoinedConnection(t *testing.T) {
	hub, exec := newTestHub(t)
	conn := newTestConnection(hub)
	hub.Inbound <- ws.HubMessage{Connection: conn, Message: ws.Message{
		Kind:    ws.KindJoin,
		Payload: rawPayload(t, map[string]interface{}{"gameId": "g1", "playerId": "p1"}),
	}}
	select {
	case <-conn.Send:
	case <-time.After(200 * time.Millisecond):
	}

	hub.BroadcastView(exec.Game())

	msg := drainOne(t, conn)
	assert.Equal(t, ws.KindGameView, msg.Kind)
}

func TestBroadcastViewSendsNothingToConnectionWatchingAnotherGame(t *testing.T) {
	hub, exec := newTestHub(t)
	conn := newTestConnection(hub)
	// conn never joins, so it is not in any game's connection set.

	hub.BroadcastView(exec.Game())

	select {
	case msg := <-conn.Send:
		t.Fatalf("unexpected broadcast to unjoined connection: %+v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}
