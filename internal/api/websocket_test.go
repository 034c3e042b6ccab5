package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iagro/supervisory/internal/canvas"
	"github.com/iagro/supervisory/internal/models"
)

func dialCanvas(t *testing.T, srv *httptest.Server, id string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/canvas/" + id
	return websocket.DefaultDialer.Dial(url, nil)
}

// readUntil reads messages until match returns true or the deadline passes
func readUntil(t *testing.T, ws *websocket.Conn, match func(WSMessage) bool) WSMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg WSMessage
		require.NoError(t, ws.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestCanvasSocket_PointerRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createCanvas(t)
	comp := ts.addComponent(t, id, models.KindTank)

	srv := httptest.NewServer(ts.e)
	defer srv.Close()

	ws, _, err := dialCanvas(t, srv, id)
	require.NoError(t, err)
	defer ws.Close()

	connected := readUntil(t, ws, func(m WSMessage) bool { return m.Type == MsgTypeConnected })
	assert.Equal(t, id, connected.ID)

	send := func(msgID string, ev canvas.PointerEvent) canvas.Scene {
		payload, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, ws.WriteJSON(WSMessage{Type: MsgTypePointer, ID: msgID, Payload: payload}))
		reply := readUntil(t, ws, func(m WSMessage) bool { return m.Type == MsgTypeScene && m.ID == msgID })
		var scene canvas.Scene
		require.NoError(t, json.Unmarshal(reply.Payload, &scene))
		return scene
	}

	send("1", canvas.PointerEvent{Type: canvas.EventDown, X: 110, Y: 105, TargetID: comp.ID})
	scene := send("2", canvas.PointerEvent{Type: canvas.EventMove, X: 150, Y: 130})
	require.Len(t, scene.Items, 1)
	assert.Equal(t, models.Point{X: 140, Y: 125}, scene.Items[0].Component.Position)

	scene = send("3", canvas.PointerEvent{Type: canvas.EventUp})
	assert.Equal(t, canvas.ModeIdle, scene.Mode)
}

func TestCanvasSocket_PingAndErrors(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createCanvas(t)

	srv := httptest.NewServer(ts.e)
	defer srv.Close()

	ws, _, err := dialCanvas(t, srv, id)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(WSMessage{Type: MsgTypePing, ID: "p"}))
	pong := readUntil(t, ws, func(m WSMessage) bool { return m.Type == MsgTypePong })
	assert.Equal(t, "p", pong.ID)

	require.NoError(t, ws.WriteJSON(WSMessage{Type: "teleport"}))
	errMsg := readUntil(t, ws, func(m WSMessage) bool { return m.Type == MsgTypeError })
	var body WSErrorResponse
	require.NoError(t, json.Unmarshal(errMsg.Payload, &body))
	assert.Equal(t, "INVALID_TYPE", body.Code)

	require.NoError(t, ws.WriteJSON(WSMessage{Type: MsgTypePointer, Payload: json.RawMessage(`{"type":"wheel"}`)}))
	errMsg = readUntil(t, ws, func(m WSMessage) bool { return m.Type == MsgTypeError })
	require.NoError(t, json.Unmarshal(errMsg.Payload, &body))
	assert.Equal(t, "INVALID_PAYLOAD", body.Code)
}

func TestCanvasSocket_UnknownSession(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.e)
	defer srv.Close()

	_, resp, err := dialCanvas(t, srv, "missing")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCanvasSocket_PushesScenes(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createCanvas(t)

	srv := httptest.NewServer(ts.e)
	defer srv.Close()

	ws, _, err := dialCanvas(t, srv, id)
	require.NoError(t, err)
	defer ws.Close()

	// one scene on connect plus at least one periodic push
	scenes := 0
	readUntil(t, ws, func(m WSMessage) bool {
		if m.Type == MsgTypeScene {
			scenes++
		}
		return scenes >= 2
	})
}
