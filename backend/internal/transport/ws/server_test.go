package ws

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orrery/backend/internal/game"
)

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (c *testClient) read() map[string]interface{} {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)

	var msg map[string]interface{}
	require.NoError(c.t, json.Unmarshal(data, &msg))
	return msg
}

func (c *testClient) readType(msgType string) map[string]interface{} {
	c.t.Helper()
	msg := c.read()
	require.Equal(c.t, msgType, msg["type"], "message: %v", msg)
	return msg
}

func (c *testClient) send(v interface{}) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(v))
}

type recordedEvents struct {
	mu     sync.Mutex
	events []string
}

func (r *recordedEvents) LogEvent(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func newTestServer(t *testing.T, holder *game.SceneHolder) (*WSServer, *httptest.Server) {
	t.Helper()
	return newTestServerWithPing(t, holder, 0)
}

func newTestServerWithPing(t *testing.T, holder *game.SceneHolder, ping time.Duration) (*WSServer, *httptest.Server) {
	t.Helper()
	s := NewWSServer(holder, game.NewControls(holder), log.New(io.Discard, "", 0))
	s.SetPingInterval(ping)

	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	httpServer := httptest.NewServer(mux)
	t.Cleanup(func() {
		s.Close()
		httpServer.Close()
	})
	return s, httpServer
}

func dial(t *testing.T, httpServer *httptest.Server) *testClient {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

func TestWSServer_WelcomeAndScene(t *testing.T) {
	_, httpServer := newTestServer(t, game.NewSceneHolder(newMessageScene(t)))
	client := dial(t, httpServer)

	info := client.readType(MessageTypeInfo)
	assert.Contains(t, info["message"], "orrery")

	scene := client.readType(MessageTypeScene)
	assert.Len(t, scene["bodies"], 2)
	assert.Len(t, scene["orbits"], 1)
}

func TestWSServer_NoSceneYet(t *testing.T) {
	s, httpServer := newTestServer(t, game.NewSceneHolder(nil))
	client := dial(t, httpServer)

	client.readType(MessageTypeInfo)
	notice := client.readType(MessageTypeInfo)
	assert.Contains(t, notice["message"], "not loaded")
	assert.ErrorIs(t, s.BroadcastScene(), game.ErrNoScene)
}

func TestWSServer_CommandIsAcknowledged(t *testing.T) {
	scene := newMessageScene(t)
	s, httpServer := newTestServer(t, game.NewSceneHolder(scene))
	events := &recordedEvents{}
	s.SetEventRecorder(events)

	client := dial(t, httpServer)
	client.readType(MessageTypeInfo)
	client.readType(MessageTypeScene)

	client.send(CommandMessage{Type: MessageTypeCommand, Cmd: string(game.CmdToggleAnimation), ClientTime: 77})
	ack := client.readType(MessageTypeAck)
	assert.Equal(t, AckStatusOK, ack["status"])
	assert.Equal(t, float64(77), ack["client_time"])
	state, ok := ack["state"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, state["animation"])
	assert.True(t, scene.AnimationEnabled())

	client.send(CommandMessage{Type: MessageTypeCommand, Cmd: CmdSelect, Body: "Earth"})
	ack = client.readType(MessageTypeAck)
	assert.Equal(t, AckStatusOK, ack["status"])
	assert.Equal(t, "Earth", ack["state"].(map[string]interface{})["active_body"])

	client.send(CommandMessage{Type: MessageTypeCommand, Cmd: "warp"})
	ack = client.readType(MessageTypeAck)
	assert.Equal(t, AckStatusError, ack["status"])
	assert.Contains(t, ack["error"], "unknown command")

	events.mu.Lock()
	defer events.mu.Unlock()
	assert.Equal(t, []string{"cmd_toggle_animation", "cmd_select"}, events.events)
}

func TestWSServer_PingPong(t *testing.T) {
	_, httpServer := newTestServer(t, game.NewSceneHolder(newMessageScene(t)))
	client := dial(t, httpServer)
	client.readType(MessageTypeInfo)
	client.readType(MessageTypeScene)

	client.send(PingMessage{Type: MessageTypePing, ClientTime: 1234})
	pong := client.readType(MessageTypePong)
	assert.Equal(t, float64(1234), pong["client_time"])
	assert.NotZero(t, pong["server_time"])
}

func TestWSServer_BroadcastFrame(t *testing.T) {
	holder := game.NewSceneHolder(newMessageScene(t))
	s, httpServer := newTestServer(t, holder)

	clients := []*testClient{dial(t, httpServer), dial(t, httpServer)}
	for _, c := range clients {
		c.readType(MessageTypeInfo)
		c.readType(MessageTypeScene)
	}
	require.Eventually(t, func() bool { return s.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	frame, ok := game.BuildFrame(holder, nil, 9, time.Now())
	require.True(t, ok)
	require.NoError(t, s.BroadcastFrame(frame))

	for _, c := range clients {
		msg := c.readType(MessageTypeBatchUpdate)
		assert.Equal(t, float64(9), msg["tick"])
		assert.Len(t, msg["bodies"], 2)
	}

	require.NoError(t, s.BroadcastScene())
	for _, c := range clients {
		c.readType(MessageTypeScene)
	}
}

func TestWSServer_DisconnectRemovesClient(t *testing.T) {
	s, httpServer := newTestServer(t, game.NewSceneHolder(newMessageScene(t)))
	client := dial(t, httpServer)
	client.readType(MessageTypeInfo)
	client.readType(MessageTypeScene)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	client.conn.Close()
	assert.Eventually(t, func() bool { return s.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestWSServer_ServerPing(t *testing.T) {
	holder := game.NewSceneHolder(newMessageScene(t))
	_, httpServer := newTestServerWithPing(t, holder, 20*time.Millisecond)

	client := dial(t, httpServer)
	client.readType(MessageTypeInfo)
	client.readType(MessageTypeScene)
	ping := client.readType(MessageTypePing)
	assert.NotZero(t, ping["server_time"])
}

func TestNetworkSimulation_DropsEverythingAtFullLoss(t *testing.T) {
	holder := game.NewSceneHolder(newMessageScene(t))
	s, httpServer := newTestServer(t, holder)
	s.SetRandomSeed(1)

	client := dial(t, httpServer)
	client.readType(MessageTypeInfo)
	client.readType(MessageTypeScene)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	s.SetNetworkSimulation(NetworkSimulation{Enabled: true, PacketLoss: 1})
	assert.True(t, s.GetNetworkSimulation().Enabled)

	frame, _ := game.BuildFrame(holder, nil, 1, time.Now())
	require.NoError(t, s.BroadcastFrame(frame))

	require.NoError(t, client.conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := client.conn.ReadMessage()
	assert.Error(t, err)
}

func TestNetworkSimulation_DelaysMessages(t *testing.T) {
	holder := game.NewSceneHolder(newMessageScene(t))
	s, httpServer := newTestServer(t, holder)

	client := dial(t, httpServer)
	client.readType(MessageTypeInfo)
	client.readType(MessageTypeScene)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	s.SetNetworkSimulation(NetworkSimulation{Enabled: true, BaseLatency: 80 * time.Millisecond})

	start := time.Now()
	frame, _ := game.BuildFrame(holder, nil, 3, start)
	require.NoError(t, s.BroadcastFrame(frame))

	msg := client.readType(MessageTypeBatchUpdate)
	assert.Equal(t, float64(3), msg["tick"])
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}
