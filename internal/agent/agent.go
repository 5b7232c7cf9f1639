// Package agent defines the assistant personas and the handoff graph
// between them. An Agent is pure configuration: instructions plus the
// tools it may call. The session layer decides what a tool call means;
// this package only describes who exists and who can hand off to whom.
package agent

import (
	"fmt"
	"strings"

	"github.com/sakura-ramen/voice-agent/internal/tools"
)

// Agent is one assistant persona.
type Agent struct {
	Name         string
	Instructions string
	Tools        []tools.Tool
	Handoffs     []*Agent
}

// HandoffToolName returns the function name advertised to the model for
// transferring a conversation to this agent.
func (a *Agent) HandoffToolName() string {
	return "transfer_to_" + strings.ToLower(strings.ReplaceAll(a.Name, " ", "_"))
}

// HandoffTools returns one synthetic tool definition per handoff target.
// These carry no Run func: the session layer intercepts them instead of
// executing anything.
func (a *Agent) HandoffTools() []tools.Tool {
	out := make([]tools.Tool, 0, len(a.Handoffs))
	for _, target := range a.Handoffs {
		out = append(out, tools.Tool{
			Name:        target.HandoffToolName(),
			Description: fmt.Sprintf("Transfer the conversation to %s.", target.Name),
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		})
	}
	return out
}

// AllTools returns the agent's own tools plus its handoff tools, the
// full function list advertised in a session update.
func (a *Agent) AllTools() []tools.Tool {
	out := make([]tools.Tool, 0, len(a.Tools)+len(a.Handoffs))
	out = append(out, a.Tools...)
	out = append(out, a.HandoffTools()...)
	return out
}

// FindTool returns the agent's own tool with the given name, or nil.
// Handoff tools are not returned; they have no Run func.
func (a *Agent) FindTool(name string) *tools.Tool {
	for i := range a.Tools {
		if a.Tools[i].Name == name {
			return &a.Tools[i]
		}
	}
	return nil
}

// IsHandoffTool reports whether a function name requests an agent
// transfer. Models paraphrase tool names more often than one would
// like, so this matches by convention rather than exact lookup.
func IsHandoffTool(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "transfer") ||
		strings.Contains(lower, "handoff") ||
		strings.Contains(lower, "specialist")
}

// HandoffTarget resolves a handoff tool name against the agent's
// targets. Returns nil if no target matches.
func (a *Agent) HandoffTarget(name string) *Agent {
	lower := strings.ToLower(name)
	for _, target := range a.Handoffs {
		if lower == target.HandoffToolName() {
			return target
		}
	}
	// Fuzzy fallback: the model sometimes invents variations like
	// "transfer_to_the_reservation_specialist".
	for _, target := range a.Handoffs {
		key := strings.ToLower(strings.ReplaceAll(target.Name, " ", "_"))
		if strings.Contains(lower, key) {
			return target
		}
	}
	return nil
}

// Registry holds all agents by name.
type Registry struct {
	agents map[string]*Agent
	entry  *Agent
}

// NewRegistry builds a registry with the given entry agent. All agents
// reachable through handoffs are indexed.
func NewRegistry(entry *Agent) *Registry {
	r := &Registry{agents: make(map[string]*Agent), entry: entry}
	r.add(entry)
	return r
}

func (r *Registry) add(a *Agent) {
	if _, ok := r.agents[a.Name]; ok {
		return
	}
	r.agents[a.Name] = a
	for _, h := range a.Handoffs {
		r.add(h)
	}
}

// Entry returns the agent every session starts with.
func (r *Registry) Entry() *Agent { return r.entry }

// Get returns the agent with the given name, or nil.
func (r *Registry) Get(name string) *Agent { return r.agents[name] }

// Names returns all registered agent names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.agents))
	for name := range r.agents {
		out = append(out, name)
	}
	return out
}
