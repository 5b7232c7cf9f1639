// Package tools implements the callable operations the voice agents can
// invoke: reservation management backed by the store, and static
// restaurant facts. Every tool returns a human-readable string; failures
// are apologetic sentences, never errors, so the model can read the
// result straight back to the guest.
package tools

import (
	"context"
	"strconv"
)

// Args holds decoded tool-call arguments from the model.
type Args map[string]any

// String returns the named argument as a string, or "" if absent.
func (a Args) String(key string) string {
	if s, ok := a[key].(string); ok {
		return s
	}
	return ""
}

// Int returns the named argument as an int. JSON numbers decode as
// float64; models occasionally send numeric strings, so both are handled.
func (a Args) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Has reports whether the named argument was provided at all.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Tool is one callable capability. Parameters is a JSON Schema fragment
// advertised to the model; Run executes the call.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Run         func(ctx context.Context, args Args) string
}

func stringParam(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func intParam(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func objectSchema(required []string, props map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
