// Package session runs voice conversations: it bridges a browser
// websocket to a realtime model session, applies guardrails to text
// crossing in either direction, executes tool calls, and swaps agent
// personas on handoff.
package session

import (
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sakura-ramen/voice-agent/internal/agent"
	"github.com/sakura-ramen/voice-agent/internal/config"
	"github.com/sakura-ramen/voice-agent/internal/guardrail"
	"github.com/sakura-ramen/voice-agent/internal/realtime"
	"github.com/sakura-ramen/voice-agent/internal/tools"
)

// Canned replies for guardrail hits. The rejection is what the guest
// hears when their input is blocked; the replacement stands in for a
// blocked assistant transcript.
const (
	rejectionMessage   = "I cannot process that request. Please keep our conversation focused on restaurant matters."
	replacementMessage = "I apologize, but I cannot provide that information. Is there something else I can help you with?"
)

// recoverableErrorMarker identifies the truncation race the realtime
// API reports when the guest interrupts after playback already ended.
// It is noise, not a failure.
const recoverableErrorMarker = "already shorter than"

// Upstream is the slice of the realtime session the orchestrator uses.
type Upstream interface {
	UpdateSession(cfg *realtime.SessionConfig) error
	AppendAudioBase64(audioBase64 string) error
	AddUserMessage(text string) error
	AddFunctionCallOutput(callID, output string) error
	CreateResponse() error
	Events() iter.Seq2[*realtime.ServerEvent, error]
	Close() error
}

var _ Upstream = (*realtime.Session)(nil)

// Orchestrator drives one voice conversation. Inbound methods (SendText,
// SendAudio) are called from the websocket read pump; Run consumes model
// events on its own goroutine and emits ServerMessages on Output.
type Orchestrator struct {
	id       string
	upstream Upstream
	registry *agent.Registry
	cfg      *config.Config
	log      *slog.Logger

	stats guardrail.Stats

	out      chan ServerMessage
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex // guards current agent
	current *agent.Agent

	// Set when a specialist handoff inserted silence; cleared by the
	// next audio delta so we can tell when the new voice actually starts.
	handoffPending atomic.Bool

	toolWG sync.WaitGroup
}

// NewOrchestrator creates an orchestrator for one conversation. Call
// Initialize before Run.
func NewOrchestrator(upstream Upstream, registry *agent.Registry, cfg *config.Config, log *slog.Logger) *Orchestrator {
	id := "sess_" + uuid.New().String()[:12]
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		id:       id,
		upstream: upstream,
		registry: registry,
		cfg:      cfg,
		log:      log.With("session_id", id),
		out:      make(chan ServerMessage, 256),
		done:     make(chan struct{}),
		current:  registry.Entry(),
	}
}

// ID returns the locally generated session identifier.
func (o *Orchestrator) ID() string { return o.id }

// Output is the stream of messages for the browser. It is never closed;
// consumers select on Done to notice the end of the conversation.
func (o *Orchestrator) Output() <-chan ServerMessage { return o.out }

// Done is closed when the conversation has ended.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

// Initialize configures the upstream session for the entry agent.
func (o *Orchestrator) Initialize() error {
	o.mu.Lock()
	current := o.current
	o.mu.Unlock()
	return o.upstream.UpdateSession(o.sessionConfig(current))
}

func (o *Orchestrator) sessionConfig(a *agent.Agent) *realtime.SessionConfig {
	temp := o.cfg.OpenAI.Temperature
	return &realtime.SessionConfig{
		Modalities:        []string{"text", "audio"},
		Instructions:      a.Instructions,
		Voice:             o.cfg.OpenAI.Voice,
		InputAudioFormat:  "pcm16",
		OutputAudioFormat: "pcm16",
		InputTranscription: &realtime.InputAudioTranscription{
			Model: "whisper-1",
		},
		TurnDetection: &realtime.TurnDetection{
			Type:              "server_vad",
			Threshold:         o.cfg.OpenAI.VADThreshold,
			PrefixPaddingMs:   int(o.cfg.OpenAI.VADPrefixPadding.Milliseconds()),
			SilenceDurationMs: int(o.cfg.OpenAI.VADSilenceTimeout.Milliseconds()),
		},
		Tools:       wireTools(a.AllTools()),
		ToolChoice:  "auto",
		Temperature: &temp,
	}
}

func wireTools(ts []tools.Tool) []realtime.Tool {
	out := make([]realtime.Tool, 0, len(ts))
	for _, t := range ts {
		out = append(out, realtime.Tool{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return out
}

// SendText forwards one typed message to the model, unless the input
// guardrail blocks it.
func (o *Orchestrator) SendText(text string) {
	o.stats.InputsChecked.Add(1)
	if v := guardrail.CheckInput(text, o.cfg.Guardrail); v.TripwireTriggered {
		o.stats.InputsBlocked.Add(1)
		o.log.Warn("input blocked", "issue", v.Issue)
		o.emit(ServerMessage{Type: ServerTypeGuardrailRejection, Message: rejectionMessage})
		return
	}

	if err := o.upstream.AddUserMessage(text); err != nil {
		o.log.Error("send text failed", "error", err)
		return
	}
	if err := o.upstream.CreateResponse(); err != nil {
		o.log.Error("create response failed", "error", err)
	}
}

// SendAudioBase64 forwards one already-encoded audio chunk upstream.
// Audio bypasses the input guardrail; its transcript is checked once
// the model transcribes it.
func (o *Orchestrator) SendAudioBase64(audioBase64 string) {
	if err := o.upstream.AppendAudioBase64(audioBase64); err != nil {
		o.log.Error("append audio failed", "error", err)
	}
}

// Run consumes upstream events until the session ends. Done is closed
// on return.
func (o *Orchestrator) Run(ctx context.Context) {
	defer o.Stop()

	for event, err := range o.upstream.Events() {
		if err != nil {
			select {
			case <-o.done:
			default:
				o.log.Error("upstream terminated", "error", err)
				o.emit(ServerMessage{Type: ServerTypeError, Message: "The voice service connection was lost."})
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if !o.handleEvent(ctx, event) {
			return
		}
	}
}

// handleEvent translates one model event. Returns false to end the run.
func (o *Orchestrator) handleEvent(ctx context.Context, event *realtime.ServerEvent) bool {
	switch event.Type {
	case realtime.EventTypeSessionCreated:
		// The browser already got session_started at upgrade time; this
		// just confirms the upstream leg is live.
		o.log.Info("upstream session created")

	case realtime.EventTypeResponseAudioDelta:
		o.handoffPending.Store(false)
		for _, frame := range splitAudio(event.Audio, o.cfg.Audio.MaxFrameSize) {
			o.emit(ServerMessage{Type: ServerTypeAudioChunk, Audio: frame})
		}

	case realtime.EventTypeResponseAudioDone:
		o.emit(ServerMessage{Type: ServerTypeAudioComplete})

	case realtime.EventTypeInputAudioBufferSpeechStarted:
		// The guest started talking over playback; tell the browser to
		// stop the speaker immediately.
		o.emit(ServerMessage{Type: ServerTypeAudioInterrupted})

	case realtime.EventTypeConversationItemInputAudioTranscriptionCompleted:
		o.handleUserTranscript(event.Transcript)

	case realtime.EventTypeResponseAudioTranscriptDone:
		o.handleAssistantTranscript(event.Transcript)

	case realtime.EventTypeResponseFunctionCallArgumentsDone:
		o.handleFunctionCall(ctx, event)

	case realtime.EventTypeError:
		return o.handleUpstreamError(event.Error)
	}
	return true
}

func (o *Orchestrator) handleUserTranscript(transcript string) {
	if transcript == "" {
		return
	}
	o.stats.InputsChecked.Add(1)
	if v := guardrail.CheckInput(transcript, o.cfg.Guardrail); v.TripwireTriggered {
		// The audio already reached the model, so the check is advisory:
		// warn the browser but still deliver the transcript.
		o.stats.InputsBlocked.Add(1)
		o.log.Warn("user transcript flagged", "issue", v.Issue)
		o.emit(ServerMessage{Type: ServerTypeGuardrailWarning, Message: rejectionMessage})
	}
	o.emit(ServerMessage{Type: ServerTypeUserTranscript, Transcript: transcript})
}

func (o *Orchestrator) handleAssistantTranscript(transcript string) {
	if transcript == "" {
		return
	}
	o.stats.OutputsChecked.Add(1)
	if v := guardrail.CheckOutput(transcript, o.cfg.Guardrail); v.TripwireTriggered {
		// The replacement goes out as an ordinary transcript; the browser
		// does not need a separate notification.
		o.stats.OutputsBlocked.Add(1)
		o.log.Warn("assistant transcript blocked", "issue", v.Issue)
		o.emit(ServerMessage{Type: ServerTypeAssistantTranscript, Transcript: replacementMessage})
		return
	}
	o.emit(ServerMessage{Type: ServerTypeAssistantTranscript, Transcript: transcript})
}

func (o *Orchestrator) handleFunctionCall(ctx context.Context, event *realtime.ServerEvent) {
	if agent.IsHandoffTool(event.Name) {
		o.handleHandoff(event)
		return
	}

	current := o.currentAgent()
	tool := current.FindTool(event.Name)
	if tool == nil {
		o.log.Warn("unknown tool requested", "tool", event.Name, "agent", current.Name)
		o.respondToCall(event.CallID, "I'm sorry, I can't help with that directly. Let me know what else I can do for you.")
		return
	}

	args := tools.Args{}
	if event.Arguments != "" {
		if err := json.Unmarshal([]byte(event.Arguments), &args); err != nil {
			o.log.Warn("bad tool arguments", "tool", event.Name, "error", err)
			o.respondToCall(event.CallID, "I'm sorry, I didn't catch those details. Could you repeat them?")
			return
		}
	}

	// Tools touch the database; run them off the event loop so a slow
	// query cannot stall audio delivery.
	o.toolWG.Add(1)
	go func() {
		defer o.toolWG.Done()
		toolCtx, cancel := context.WithTimeout(ctx, o.cfg.ToolTimeout)
		defer cancel()

		start := time.Now()
		result := tool.Run(toolCtx, args)
		o.log.Info("tool executed", "tool", event.Name, "agent", current.Name, "duration", time.Since(start))

		o.respondToCall(event.CallID, result)
	}()
}

func (o *Orchestrator) respondToCall(callID, output string) {
	if err := o.upstream.AddFunctionCallOutput(callID, output); err != nil {
		o.log.Error("function output failed", "error", err)
		return
	}
	if err := o.upstream.CreateResponse(); err != nil {
		o.log.Error("create response failed", "error", err)
	}
}

// handleHandoff switches the active agent. Routing transfers are
// silent; specialist transfers play a short pause so the voice change
// does not land mid-word.
func (o *Orchestrator) handleHandoff(event *realtime.ServerEvent) {
	current := o.currentAgent()
	target := current.HandoffTarget(event.Name)
	if target == nil {
		// Recover via the registry in case the model addressed an agent
		// the current one has no edge to.
		for _, name := range o.registry.Names() {
			if strings.Contains(strings.ToLower(event.Name), strings.ToLower(strings.ReplaceAll(name, " ", "_"))) {
				target = o.registry.Get(name)
				break
			}
		}
	}
	if target == nil {
		o.log.Warn("handoff to unknown agent", "tool", event.Name)
		o.respondToCall(event.CallID, "I'm sorry, I can't transfer you there. How else can I help?")
		return
	}

	o.log.Info("agent handoff", "from", current.Name, "to", target.Name)
	o.setCurrentAgent(target)

	if err := o.upstream.UpdateSession(o.sessionConfig(target)); err != nil {
		o.log.Error("handoff session update failed", "error", err)
		o.emit(ServerMessage{Type: ServerTypeError, Message: "The voice service connection was lost."})
		return
	}

	if !agent.IsRouterTransfer(event.Name) {
		o.handoffPending.Store(true)
		for _, frame := range splitAudio(silenceBuffer(o.cfg.Audio.HandoffPause, o.cfg.Audio.SampleRate), o.cfg.Audio.MaxFrameSize) {
			o.emit(ServerMessage{Type: ServerTypeAudioChunk, Audio: frame})
		}
	}

	o.respondToCall(event.CallID, "Transferred to "+target.Name+". Continue the conversation naturally.")
}

// handleUpstreamError downgrades the known truncation race to a warning
// and treats everything else as fatal.
func (o *Orchestrator) handleUpstreamError(e *realtime.EventError) bool {
	msg := e.String()
	if strings.Contains(msg, recoverableErrorMarker) {
		o.log.Warn("recoverable upstream error", "error", msg)
		o.emit(ServerMessage{Type: ServerTypeWarning, Message: "A harmless audio timing glitch occurred."})
		return true
	}

	o.log.Error("upstream error", "error", msg)
	o.emit(ServerMessage{Type: ServerTypeError, Message: "The voice service reported an error. Please reconnect."})
	return false
}

func (o *Orchestrator) currentAgent() *agent.Agent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

func (o *Orchestrator) setCurrentAgent(a *agent.Agent) {
	o.mu.Lock()
	o.current = a
	o.mu.Unlock()
}

// emit queues one message for the outbound pump. It blocks when the
// buffer is full: sub-chunks of a split audio delta must arrive complete
// and in order, so dropping is not an option. A stalled browser is
// unwedged by teardown, which closes done and releases the send.
func (o *Orchestrator) emit(msg ServerMessage) {
	select {
	case <-o.done:
	case o.out <- msg:
	}
}

// Stop tears the conversation down. Idempotent; returns the guardrail
// counters for the final session log.
func (o *Orchestrator) Stop() map[string]int64 {
	o.stopOnce.Do(func() {
		close(o.done)
		if err := o.upstream.Close(); err != nil {
			o.log.Debug("upstream close", "error", err)
		}
		o.toolWG.Wait()
		o.log.Info("session ended", "guardrail", o.stats.Snapshot())
	})
	return o.stats.Snapshot()
}
