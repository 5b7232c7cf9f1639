package realtime

// SessionConfig is the payload of a session.update event. Nil and zero
// fields are omitted so partial updates only touch what they name.
type SessionConfig struct {
	Modalities         []string                 `json:"modalities,omitempty"`
	Instructions       string                   `json:"instructions,omitempty"`
	Voice              string                   `json:"voice,omitempty"`
	InputAudioFormat   string                   `json:"input_audio_format,omitempty"`
	OutputAudioFormat  string                   `json:"output_audio_format,omitempty"`
	InputTranscription *InputAudioTranscription `json:"input_audio_transcription,omitempty"`
	TurnDetection      *TurnDetection           `json:"turn_detection,omitempty"`
	Tools              []Tool                   `json:"tools,omitempty"`
	ToolChoice         string                   `json:"tool_choice,omitempty"`
	Temperature        *float64                 `json:"temperature,omitempty"`
}

// InputAudioTranscription enables transcription of caller audio.
type InputAudioTranscription struct {
	Model string `json:"model"`
}

// TurnDetection configures server-side voice activity detection.
type TurnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
}

// Tool is a function definition advertised to the model.
type Tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}
