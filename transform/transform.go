// Package transform builds the AG-UI run request for one inbound chat
// request. Exactly one RunAgentInput is produced per chat request, with
// fresh thread/run/message identifiers each time; nothing here is
// reused across requests.
package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/config"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/ident"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/types"
)

// ErrMalformedRequest marks an inbound request the bridge rejects
// before making any network call.
var ErrMalformedRequest = errors.New("malformed chat request")

const (
	metadataDescription = "OpenWebUI request metadata"
	sourceTag           = "openwebui_pipe"

	// defaultMaxTokens applies when the caller does not set max_tokens.
	defaultMaxTokens = 4096
)

// ResolveModel maps the caller's model identifier to the name requested
// from the AG-UI endpoint. Namespaced ids ("aguimiddleware.agui-agent")
// are stripped at the first dot and resolved through the configured
// mapping, falling back to the default model.
func ResolveModel(requested string, cfg *config.Config) string {
	if requested == "" {
		return cfg.DefaultModel
	}
	mapping := cfg.ModelMapping()
	if idx := strings.Index(requested, "."); idx >= 0 {
		id := requested[idx+1:]
		if mapped, ok := mapping[id]; ok {
			return mapped
		}
		return cfg.DefaultModel
	}
	if mapped, ok := mapping[requested]; ok {
		return mapped
	}
	return requested
}

// BuildRunInput converts a chat request into the run request posted to
// the agent endpoint. It fails with ErrMalformedRequest on an empty or
// incomplete message sequence and with config.ErrConfiguration when the
// endpoint configuration is unusable.
func BuildRunInput(req types.ChatCompletionRequest, cfg *config.Config) (types.RunAgentInput, error) {
	if err := cfg.Validate(); err != nil {
		return types.RunAgentInput{}, err
	}
	if len(req.Messages) == 0 {
		return types.RunAgentInput{}, fmt.Errorf("%w: messages must not be empty", ErrMalformedRequest)
	}

	messages := make([]types.RunMessage, 0, len(req.Messages))
	for i, msg := range req.Messages {
		if msg.Role == "" || msg.Content == "" {
			return types.RunAgentInput{}, fmt.Errorf("%w: message %d lacks a role/content pair", ErrMalformedRequest, i)
		}
		messages = append(messages, types.RunMessage{
			ID:      ident.NewMessageID(),
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	tools := make([]types.RunTool, 0, len(req.Tools))
	for _, tool := range req.Tools {
		tools = append(tools, types.RunTool{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}

	maxTokens := defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	prefs := req.User
	if prefs == nil {
		prefs = map[string]any{}
	}

	resolved := ResolveModel(req.Model, cfg)

	metadata := types.RequestMetadata{
		OriginalModel:   req.Model,
		RequestedModel:  resolved,
		UserPreferences: prefs,
		Source:          sourceTag,
		Temperature:     req.Temperature,
		MaxTokens:       maxTokens,
		Stream:          req.Stream,
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return types.RunAgentInput{}, fmt.Errorf("encode request metadata: %w", err)
	}

	return types.RunAgentInput{
		ThreadID: ident.NewThreadID(cfg.ThreadPrefix),
		RunID:    ident.NewRunID(),
		// State ownership belongs to the agent endpoint; the bridge
		// always forwards an empty object.
		State:    json.RawMessage(`{}`),
		Messages: messages,
		Tools:    tools,
		Context: []types.ContextEntry{
			{Description: metadataDescription, Value: string(metadataJSON)},
		},
		ForwardedProps: types.ForwardedProps{
			OpenWebUIRequest: true,
			Model:            resolved,
			OriginalParams: types.OriginalParams{
				Temperature: req.Temperature,
				Stream:      req.Stream,
				MaxTokens:   maxTokens,
			},
		},
	}, nil
}
