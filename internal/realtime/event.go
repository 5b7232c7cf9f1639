package realtime

// Client event types (sent to the server).
const (
	EventTypeSessionUpdate = "session.update"

	EventTypeInputAudioBufferAppend = "input_audio_buffer.append"
	EventTypeInputAudioBufferCommit = "input_audio_buffer.commit"
	EventTypeInputAudioBufferClear  = "input_audio_buffer.clear"

	EventTypeConversationItemCreate = "conversation.item.create"

	EventTypeResponseCreate = "response.create"
	EventTypeResponseCancel = "response.cancel"
)

// Server event types (received from the server). Only the events the
// session layer reacts to are named; unknown types are passed through
// untouched.
const (
	EventTypeError = "error"

	EventTypeSessionCreated = "session.created"
	EventTypeSessionUpdated = "session.updated"

	EventTypeInputAudioBufferSpeechStarted = "input_audio_buffer.speech_started"
	EventTypeInputAudioBufferSpeechStopped = "input_audio_buffer.speech_stopped"

	EventTypeConversationItemInputAudioTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"

	EventTypeResponseCreated = "response.created"
	EventTypeResponseDone    = "response.done"

	EventTypeResponseAudioDelta = "response.audio.delta"
	EventTypeResponseAudioDone  = "response.audio.done"

	EventTypeResponseAudioTranscriptDelta = "response.audio_transcript.delta"
	EventTypeResponseAudioTranscriptDone  = "response.audio_transcript.done"

	EventTypeResponseFunctionCallArgumentsDone = "response.function_call_arguments.done"
)

// ServerEvent is one event from the realtime API. It is a tagged union:
// Type selects which of the remaining fields are meaningful. Decoding
// happens once, at the websocket boundary; everything downstream
// switches on Type.
type ServerEvent struct {
	Type    string `json:"type"`
	EventID string `json:"event_id,omitempty"`

	// session.created, session.updated
	Session *SessionResource `json:"session,omitempty"`

	// error
	Error *EventError `json:"error,omitempty"`

	// Transcription and item events.
	ItemID     string `json:"item_id,omitempty"`
	Transcript string `json:"transcript,omitempty"`

	// speech_started, speech_stopped
	AudioStartMs int `json:"audio_start_ms,omitempty"`
	AudioEndMs   int `json:"audio_end_ms,omitempty"`

	// *.delta events. For audio deltas this is base64 PCM; Audio holds
	// the decoded bytes, populated at parse time.
	Delta string `json:"delta,omitempty"`
	Audio []byte `json:"-"`

	// response.function_call_arguments.done
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// Raw is the original JSON message.
	Raw []byte `json:"-"`
}

// SessionResource is the session object in session.created/updated.
type SessionResource struct {
	ID    string `json:"id"`
	Model string `json:"model,omitempty"`
	Voice string `json:"voice,omitempty"`
}

// EventError is the error payload of an "error" event.
type EventError struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

func (e *EventError) String() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
