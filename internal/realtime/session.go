package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Session is one live realtime conversation. All Send* methods are safe
// for concurrent use; events are consumed through Events by a single
// reader.
type Session struct {
	conn *websocket.Conn
	log  *slog.Logger

	readCtx    context.Context
	readCancel context.CancelFunc

	eventsCh  chan eventOrError
	closeOnce sync.Once

	mu        sync.Mutex // guards writes and sessionID
	sessionID string
}

type eventOrError struct {
	event *ServerEvent
	err   error
}

func newSession(conn *websocket.Conn, log *slog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		conn:       conn,
		log:        log,
		readCtx:    ctx,
		readCancel: cancel,
		eventsCh:   make(chan eventOrError, 100),
	}
}

func generateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

// UpdateSession sends a session.update with the given configuration.
// Swapping instructions and tools mid-session is how agent handoffs work.
func (s *Session) UpdateSession(cfg *SessionConfig) error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeSessionUpdate,
		"session":  cfg,
	})
}

// AppendAudio appends raw PCM to the input audio buffer.
func (s *Session) AppendAudio(audio []byte) error {
	return s.AppendAudioBase64(base64.StdEncoding.EncodeToString(audio))
}

// AppendAudioBase64 appends already-encoded audio to the input buffer.
func (s *Session) AppendAudioBase64(audioBase64 string) error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferAppend,
		"audio":    audioBase64,
	})
}

// CommitInput commits the input audio buffer as a user turn.
func (s *Session) CommitInput() error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferCommit,
	})
}

// ClearInput discards the uncommitted input audio buffer.
func (s *Session) ClearInput() error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferClear,
	})
}

// AddUserMessage adds a user text message to the conversation.
func (s *Session) AddUserMessage(text string) error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeConversationItemCreate,
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]any{
				{"type": "input_text", "text": text},
			},
		},
	})
}

// AddFunctionCallOutput feeds a tool result back into the conversation.
func (s *Session) AddFunctionCallOutput(callID, output string) error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeConversationItemCreate,
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  output,
		},
	})
}

// CreateResponse asks the model to generate its next turn.
func (s *Session) CreateResponse() error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeResponseCreate,
	})
}

// CancelResponse cancels in-flight response generation.
func (s *Session) CancelResponse() error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeResponseCancel,
	})
}

// Events returns an iterator over server events. A non-nil error ends
// the sequence; a closed session ends it silently.
func (s *Session) Events() iter.Seq2[*ServerEvent, error] {
	return func(yield func(*ServerEvent, error) bool) {
		for item := range s.eventsCh {
			if !yield(item.event, item.err) {
				return
			}
			if item.err != nil {
				return
			}
		}
	}
}

// SessionID returns the server-assigned session ID, once known.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.readCancel()
		err = s.conn.Close(websocket.StatusNormalClosure, "session ended")
	})
	return err
}

func (s *Session) sendEvent(event map[string]any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("realtime: marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.log.Enabled(context.Background(), slog.LevelDebug) {
		s.log.Debug("sending event", "type", event["type"], "len", len(data))
	}
	return s.conn.Write(s.readCtx, websocket.MessageText, data)
}

func (s *Session) readLoop() {
	defer close(s.eventsCh)

	for {
		_, message, err := s.conn.Read(s.readCtx)
		if err != nil {
			select {
			case <-s.readCtx.Done():
			case s.eventsCh <- eventOrError{err: fmt.Errorf("realtime: read: %w", err)}:
			}
			return
		}

		event, err := parseEvent(message)
		if err != nil {
			// A single malformed frame is not fatal; log and move on.
			s.log.Warn("dropping unparseable event", "error", err)
			continue
		}

		if event.Type == EventTypeSessionCreated && event.Session != nil {
			s.mu.Lock()
			s.sessionID = event.Session.ID
			s.mu.Unlock()
		}

		select {
		case <-s.readCtx.Done():
			return
		case s.eventsCh <- eventOrError{event: event}:
		}
	}
}

func parseEvent(message []byte) (*ServerEvent, error) {
	var event ServerEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}
	event.Raw = message

	// Audio deltas carry base64 PCM in the delta field.
	if event.Type == EventTypeResponseAudioDelta && event.Delta != "" {
		decoded, err := base64.StdEncoding.DecodeString(event.Delta)
		if err != nil {
			return nil, fmt.Errorf("decode audio delta: %w", err)
		}
		event.Audio = decoded
	}

	return &event, nil
}
