package types

import "encoding/json"

// RunAgentInput is the run request sent to the AG-UI endpoint.
// Field names are camelCase on the wire per the AG-UI protocol.
// Built fresh per chat request; never mutated after construction.
type RunAgentInput struct {
	ThreadID       string          `json:"threadId"`
	RunID          string          `json:"runId"`
	State          json.RawMessage `json:"state"` // opaque pass-through, always {}
	Messages       []RunMessage    `json:"messages"`
	Tools          []RunTool       `json:"tools"`
	Context        []ContextEntry  `json:"context"`
	ForwardedProps ForwardedProps  `json:"forwardedProps"`
}

// RunMessage is one conversation entry forwarded to the agent.
type RunMessage struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RunTool is a tool descriptor forwarded to the agent.
type RunTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ContextEntry carries a described, JSON-encoded value to the agent.
type ContextEntry struct {
	Description string `json:"description"`
	Value       string `json:"value"` // itself JSON-encoded
}

// ForwardedProps carries original request metadata through to the agent.
type ForwardedProps struct {
	OpenWebUIRequest bool           `json:"openwebui_request"`
	Model            string         `json:"model"`
	OriginalParams   OriginalParams `json:"original_params"`
}

// OriginalParams are the caller's sampling parameters as received.
type OriginalParams struct {
	Temperature *float64 `json:"temperature"`
	Stream      bool     `json:"stream"`
	MaxTokens   int      `json:"max_tokens"`
}

// RequestMetadata is the payload JSON-encoded into the run's single
// context entry.
type RequestMetadata struct {
	OriginalModel   string         `json:"original_model"`
	RequestedModel  string         `json:"requested_model"`
	UserPreferences map[string]any `json:"user_preferences"`
	Source          string         `json:"source"`
	Temperature     *float64       `json:"temperature"`
	MaxTokens       int            `json:"max_tokens"`
	Stream          bool           `json:"stream"`
}
