// Package validate checks inbound request shapes against JSON schemas
// before any transformation or network call happens.
package validate

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/transform"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/types"
)

// chatRequestSchema is the wire contract for the chat-completion
// request surface. Messages must be present and complete; sampling
// parameters are optional.
const chatRequestSchema = `{
	"type": "object",
	"required": ["messages"],
	"properties": {
		"model": {"type": "string"},
		"messages": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["role", "content"],
				"properties": {
					"role": {"type": "string", "minLength": 1},
					"content": {"type": "string", "minLength": 1}
				}
			}
		},
		"temperature": {"type": "number"},
		"max_tokens": {"type": "integer", "minimum": 1},
		"stream": {"type": "boolean"}
	}
}`

var compiledChatSchema = gojsonschema.NewStringLoader(chatRequestSchema)

// ChatRequestBody validates the raw request document. Failures map to
// transform.ErrMalformedRequest with every schema violation listed.
func ChatRequestBody(body []byte) error {
	result, err := gojsonschema.Validate(compiledChatSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", transform.ErrMalformedRequest, err)
	}
	if result.Valid() {
		return nil
	}
	var violations []string
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return fmt.Errorf("%w: %s", transform.ErrMalformedRequest, strings.Join(violations, "; "))
}

// ToolParameters verifies that each supplied tool carries a compilable
// JSON schema for its parameters. A tool with a broken schema would be
// rejected by the agent endpoint anyway; failing here keeps the error
// local and descriptive.
func ToolParameters(tools []types.ToolDefinition) error {
	for _, tool := range tools {
		if tool.Name == "" {
			return fmt.Errorf("%w: tool with empty name", transform.ErrMalformedRequest)
		}
		if tool.Parameters == nil {
			continue
		}
		if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.Parameters)); err != nil {
			return fmt.Errorf("%w: tool %q has invalid parameter schema: %v", transform.ErrMalformedRequest, tool.Name, err)
		}
	}
	return nil
}
