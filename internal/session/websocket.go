package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/sakura-ramen/voice-agent/internal/agent"
	"github.com/sakura-ramen/voice-agent/internal/config"
)

// clientReadLimit bounds one frame from the browser. Audio chunks are
// capped well below this; the headroom covers base64 overhead.
const clientReadLimit = 4 << 20

// DialFunc opens a fresh upstream realtime session.
type DialFunc func(ctx context.Context) (Upstream, error)

// WebSocketHandler upgrades browser connections and runs one voice
// conversation per connection.
type WebSocketHandler struct {
	dial     DialFunc
	registry *agent.Registry
	cfg      *config.Config
	manager  *Manager
	log      *slog.Logger
}

// NewWebSocketHandler creates the voice websocket handler.
func NewWebSocketHandler(dial DialFunc, registry *agent.Registry, cfg *config.Config, manager *Manager, log *slog.Logger) *WebSocketHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebSocketHandler{
		dial:     dial,
		registry: registry,
		cfg:      cfg,
		manager:  manager,
		log:      log,
	}
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error("websocket accept failed", "error", err, "ip", r.RemoteAddr)
		return
	}
	ws.SetReadLimit(clientReadLimit)
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			h.log.Debug("websocket close", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	upstream, err := h.dial(ctx)
	if err != nil {
		h.log.Error("realtime connect failed", "error", err)
		h.writeJSON(ws, ServerMessage{Type: ServerTypeError, Message: "The voice service is unavailable right now. Please try again shortly."})
		return
	}

	o := NewOrchestrator(upstream, h.registry, h.cfg, h.log)
	if err := o.Initialize(); err != nil {
		h.log.Error("session initialize failed", "error", err, "session_id", o.ID())
		o.Stop()
		h.writeJSON(ws, ServerMessage{Type: ServerTypeError, Message: "The voice service is unavailable right now. Please try again shortly."})
		return
	}

	h.manager.Register(o)
	defer h.manager.Unregister(o)
	defer o.Stop()

	h.log.Info("voice session started", "session_id", o.ID(), "ip", r.RemoteAddr)
	h.writeJSON(ws, ServerMessage{Type: ServerTypeSessionStarted, SessionID: o.ID(), Agent: h.registry.Entry().Name})

	go func() {
		o.Run(ctx)
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(2)

	// Inbound pump: browser -> orchestrator.
	go func() {
		defer wg.Done()
		defer cancel()
		h.inputLoop(ctx, ws, o)
	}()

	// Outbound pump: orchestrator -> browser.
	go func() {
		defer wg.Done()
		defer cancel()
		h.outputLoop(ctx, ws, o)
	}()

	wg.Wait()
	h.log.Info("voice session ended", "session_id", o.ID())
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.cfg.IsDevelopment() {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || origin == h.cfg.FrontendURL {
		return true
	}
	h.log.Warn("websocket origin rejected", "origin", origin, "allowed", h.cfg.FrontendURL)
	return false
}

func (h *WebSocketHandler) inputLoop(ctx context.Context, ws *websocket.Conn, o *Orchestrator) {
	for {
		typ, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.log.Debug("websocket closed by client", "session_id", o.ID())
			} else if ctx.Err() == nil {
				h.log.Warn("websocket read error", "error", err, "session_id", o.ID())
			}
			return
		}

		// Binary frames are raw PCM16 with no envelope.
		if typ == websocket.MessageBinary {
			o.SendAudioBase64(base64.StdEncoding.EncodeToString(message))
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.log.Warn("malformed client message", "error", err, "session_id", o.ID())
			continue
		}

		switch msg.Type {
		case ClientTypeTextMessage:
			o.SendText(msg.Text)
		case ClientTypeAudioChunk:
			if msg.Audio != "" {
				o.SendAudioBase64(msg.Audio)
			}
		case ClientTypeEndAudio:
			// Server-side VAD owns turn boundaries; nothing to forward.
		case ClientTypeEndSession:
			h.log.Info("client ended session", "session_id", o.ID())
			return
		default:
			h.log.Warn("unknown client message type", "type", msg.Type, "session_id", o.ID())
		}
	}
}

func (h *WebSocketHandler) outputLoop(ctx context.Context, ws *websocket.Conn, o *Orchestrator) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.Done():
			return
		case msg := <-o.Output():
			if msg.Type == ServerTypeAudioChunk {
				// Split again defensively in case an oversized frame
				// slipped through.
				for _, frame := range splitAudio(msg.Audio, h.cfg.Audio.MaxFrameSize) {
					if err := ws.Write(ctx, websocket.MessageBinary, frame); err != nil {
						h.log.Debug("websocket audio write failed", "error", err, "session_id", o.ID())
						return
					}
				}
				continue
			}
			if !h.writeJSON(ws, msg) {
				return
			}
		}
	}
}

func (h *WebSocketHandler) writeJSON(ws *websocket.Conn, msg ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal server message", "error", err)
		return false
	}
	if err := ws.Write(context.Background(), websocket.MessageText, data); err != nil {
		h.log.Debug("websocket write failed", "error", err)
		return false
	}
	return true
}
