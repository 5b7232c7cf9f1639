package session

// Client message types, received over the browser websocket. Binary
// frames are raw PCM16 audio and carry no JSON envelope.
const (
	ClientTypeTextMessage = "text_message"
	ClientTypeAudioChunk  = "audio_chunk"
	ClientTypeEndAudio    = "end_audio"
	ClientTypeEndSession  = "end_session"
)

// ClientMessage is the JSON envelope for text frames from the browser.
type ClientMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Audio string `json:"audio,omitempty"` // base64 PCM16
}

// Server message types, sent to the browser.
const (
	ServerTypeSessionStarted      = "session_started"
	ServerTypeGuardrailRejection  = "guardrail_rejection"
	ServerTypeGuardrailWarning    = "guardrail_warning"
	ServerTypeUserTranscript      = "user_transcript"
	ServerTypeAssistantTranscript = "assistant_transcript"
	ServerTypeAudioChunk          = "audio_chunk"
	ServerTypeAudioComplete       = "audio_complete"
	ServerTypeAudioInterrupted    = "audio_interrupted"
	ServerTypeWarning             = "warning"
	ServerTypeError               = "error"
)

// ServerMessage is one message for the browser. Audio is non-nil only
// for audio_chunk messages, which go out as binary frames; everything
// else is JSON.
type ServerMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id,omitempty"`
	Message    string `json:"message,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Agent      string `json:"agent,omitempty"`
	Audio      []byte `json:"-"`
}
