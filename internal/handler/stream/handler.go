package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dhruvmehta/callguard/backend/internal/config"
	"github.com/dhruvmehta/callguard/backend/internal/model/fraud"
	"github.com/dhruvmehta/callguard/backend/internal/session"
)

const (
	readDeadline = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Evaluator abstracts the decision engine for testing.
type Evaluator interface {
	Evaluate(ctx context.Context, text string) (fraud.Result, error)
}

// Handler serves the persistent prediction channel over WebSocket.
type Handler struct {
	engine   Evaluator
	sessions *session.Store
	upgrader websocket.Upgrader
}

// New creates the stream handler. Origin checks follow the CORS
// configuration.
func New(engine Evaluator, sessions *session.Store, corsCfg config.CORSConfig) *Handler {
	allowAll := corsCfg.AllowsAll()
	allowed := make(map[string]struct{}, len(corsCfg.AllowedOrigins))
	for _, origin := range corsCfg.AllowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &Handler{
		engine:   engine,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// RegisterRoutes mounts the websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type predictMessage struct {
	Text string `json:"text"`
	ID   string `json:"id"`
}

type outboundMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[stream] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Fallback key for clients that never supply an id: scoped to this
	// connection.
	connKey := uuid.NewString()
	log.Printf("[stream] connection opened key=%s", connKey)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	go h.pingLoop(ctx, conn)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					log.Printf("[stream] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(readDeadline))

			switch msg.Event {
			case "predict":
				h.handlePredict(ctx, conn, connKey, msg.Data)
			default:
				h.sendError(conn, "unsupported event: "+msg.Event)
			}
		}
	}
}

func (h *Handler) handlePredict(ctx context.Context, conn *websocket.Conn, connKey string, raw json.RawMessage) {
	var payload predictMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(conn, "invalid predict payload")
		return
	}

	if payload.Text == "" {
		h.sendError(conn, "No input text provided")
		return
	}

	sessionKey := payload.ID
	if sessionKey == "" {
		sessionKey = connKey
	}

	text := h.sessions.Append(sessionKey, payload.Text, session.StreamPolicy)

	result, err := h.engine.Evaluate(ctx, text)
	if err != nil {
		log.Printf("[stream] scoring failed session=%s: %v", sessionKey, err)
		h.sendError(conn, "prediction failed")
		return
	}

	h.send(conn, outboundMessage{Event: "prediction", Data: result})
}

func (h *Handler) send(conn *websocket.Conn, msg outboundMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[stream] write failed: %v", err)
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, outboundMessage{
		Event: "error",
		Data:  map[string]string{"error": message},
	})
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
