package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iagro/supervisory/internal/canvas"
	"github.com/iagro/supervisory/internal/models"
	"github.com/iagro/supervisory/internal/session"
)

// WebSocket message types for the live canvas protocol
const (
	// Client -> Server messages
	MsgTypePointer      = "pointer"
	MsgTypeSceneRequest = "scene:get"
	MsgTypePing         = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeScene     = "scene"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingPeriod   = 30 * time.Second
	wsReadLimit    = 4096
	wsSendBuffer   = 16
	defaultPushGap = 500 * time.Millisecond
)

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocket error response
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// CanvasSocketHandler streams a canvas scene to the browser and accepts
// pointer events back
type CanvasSocketHandler struct {
	sessions     SessionManager
	variables    VariableSource
	telemetry    Telemetry
	logger       zerolog.Logger
	upgrader     websocket.Upgrader
	pushInterval time.Duration
}

// NewCanvasSocketHandler creates a websocket handler pushing a fresh scene
// every pushInterval
func NewCanvasSocketHandler(sessions SessionManager, variables VariableSource, telemetry Telemetry, logger zerolog.Logger, pushInterval time.Duration) *CanvasSocketHandler {
	if telemetry == nil {
		telemetry = nopTelemetry{}
	}
	if pushInterval <= 0 {
		pushInterval = defaultPushGap
	}
	return &CanvasSocketHandler{
		sessions:  sessions,
		variables: variables,
		telemetry: telemetry,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		pushInterval: pushInterval,
	}
}

// socketClient owns one connection. Only writePump writes to ws.
type socketClient struct {
	ws     *websocket.Conn
	canvas *session.Canvas
	send   chan WSMessage
	done   chan struct{}
}

// HandleWebSocket upgrades the connection and runs the canvas protocol
func (h *CanvasSocketHandler) HandleWebSocket(c echo.Context) error {
	cv, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return err
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &socketClient{
		ws:     ws,
		canvas: cv,
		send:   make(chan WSMessage, wsSendBuffer),
		done:   make(chan struct{}),
	}
	log := h.logger.With().Str("session_id", cv.ID()).Logger()

	h.telemetry.WebSocketOpened()
	defer h.telemetry.WebSocketClosed()
	log.Info().Msg("canvas websocket connected")

	go h.writePump(client, log)

	h.enqueue(client, WSMessage{Type: MsgTypeConnected, ID: cv.ID(), Timestamp: time.Now().UnixMilli()})
	h.enqueue(client, h.sceneMessage(cv))

	h.readPump(client, log)
	close(client.done)

	log.Info().Msg("canvas websocket disconnected")
	return nil
}

func (h *CanvasSocketHandler) readPump(client *socketClient, log zerolog.Logger) {
	ws := client.ws
	ws.SetReadLimit(wsReadLimit)
	ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(wsPongWait))

		switch msg.Type {
		case MsgTypePing:
			h.enqueue(client, WSMessage{Type: MsgTypePong, ID: msg.ID, Timestamp: time.Now().UnixMilli()})
		case MsgTypeSceneRequest:
			h.enqueue(client, h.sceneMessage(client.canvas))
		case MsgTypePointer:
			h.handlePointer(client, msg)
		default:
			h.enqueue(client, errorMessage("Unknown message type: "+msg.Type, "INVALID_TYPE"))
		}
	}
}

// handlePointer applies a pointer event and answers with the new scene
func (h *CanvasSocketHandler) handlePointer(client *socketClient, msg WSMessage) {
	var ev canvas.PointerEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		h.enqueue(client, errorMessage("Invalid pointer payload: "+err.Error(), "INVALID_PAYLOAD"))
		return
	}
	if !ev.Valid() {
		h.enqueue(client, errorMessage("Invalid pointer event type: "+string(ev.Type), "INVALID_PAYLOAD"))
		return
	}

	client.canvas.Pointer(ev)
	h.telemetry.RecordPointerEvent(string(ev.Type))

	reply := h.sceneMessage(client.canvas)
	reply.ID = msg.ID
	h.enqueue(client, reply)
}

// writePump serializes all writes and pushes periodic scenes and pings
func (h *CanvasSocketHandler) writePump(client *socketClient, log zerolog.Logger) {
	push := time.NewTicker(h.pushInterval)
	ping := time.NewTicker(wsPingPeriod)
	defer func() {
		push.Stop()
		ping.Stop()
		client.ws.Close()
	}()

	for {
		select {
		case <-client.done:
			client.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			client.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg := <-client.send:
			if err := h.write(client, msg); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}

		case <-push.C:
			// the session may have been closed or evicted meanwhile
			if _, err := h.sessions.Get(client.canvas.ID()); err != nil {
				code := "INTERNAL_ERROR"
				if errors.Is(err, models.ErrSessionNotFound) {
					code = "SESSION_NOT_FOUND"
				}
				h.write(client, errorMessage(err.Error(), code))
				return
			}
			if err := h.write(client, h.sceneMessage(client.canvas)); err != nil {
				log.Debug().Err(err).Msg("websocket push failed")
				return
			}

		case <-ping.C:
			client.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *CanvasSocketHandler) write(client *socketClient, msg WSMessage) error {
	client.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return client.ws.WriteJSON(msg)
}

// enqueue hands msg to the writer, dropping it when the writer is gone or the
// buffer is full; the next periodic push resynchronizes the client
func (h *CanvasSocketHandler) enqueue(client *socketClient, msg WSMessage) {
	select {
	case client.send <- msg:
	case <-client.done:
	default:
	}
}

func (h *CanvasSocketHandler) sceneMessage(cv *session.Canvas) WSMessage {
	return WSMessage{
		Type:      MsgTypeScene,
		Payload:   mustJSON(cv.Scene(h.variables.Snapshot())),
		Timestamp: time.Now().UnixMilli(),
	}
}

func errorMessage(message, code string) WSMessage {
	return WSMessage{
		Type:      MsgTypeError,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSErrorResponse{
			Type:    MsgTypeError,
			Message: message,
			Code:    code,
		}),
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
