package gomcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ToolHandler executes one tool invocation. Returning an error reports the
// failure to the client inside the result envelope; it never becomes a
// transport-level error.
type ToolHandler func(ctx context.Context, params CallToolParams) (CallToolResult, error)

// ResourceHandler produces the text content of one resource. Resources are
// read without arguments.
type ResourceHandler func(ctx context.Context) (string, error)

// PromptHandler renders one prompt into role-tagged messages from the
// supplied arguments.
type PromptHandler func(ctx context.Context, args map[string]string) ([]PromptMessage, error)

// ToolAnnotations carries optional client-facing hints about a tool's
// behavior. Unset hints are omitted from the serialized view.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    bool   `json:"readOnlyHint,omitempty"`
	DestructiveHint bool   `json:"destructiveHint,omitempty"`
	IdempotentHint  bool   `json:"idempotentHint,omitempty"`
	OpenWorldHint   bool   `json:"openWorldHint,omitempty"`
}

// Tool is an invokable capability, identified by name. Only the metadata
// fields ever cross the wire; the handler stays server-side.
type Tool struct {
	Name         string                 `json:"name"`
	Title        string                 `json:"title,omitempty"`
	Description  string                 `json:"description"`
	InputSchema  json.RawMessage        `json:"inputSchema,omitempty"`
	OutputSchema json.RawMessage        `json:"outputSchema,omitempty"`
	Annotations  *ToolAnnotations       `json:"annotations,omitempty"`
	Tags         []string               `json:"tags,omitempty"`
	Meta         map[string]interface{} `json:"_meta,omitempty"`
	Handler      ToolHandler            `json:"-"`
}

func (t Tool) metadata() Tool {
	t.Handler = nil
	return t
}

// Resource is a readable capability, identified by URI.
type Resource struct {
	URI         string                 `json:"uri"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	MimeType    string                 `json:"mimeType,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Annotations map[string]interface{} `json:"annotations,omitempty"`
	Meta        map[string]interface{} `json:"_meta,omitempty"`
	Handler     ResourceHandler        `json:"-"`
}

func (r Resource) metadata() Resource {
	r.Handler = nil
	return r
}

// PromptArgument describes one argument a prompt accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// PromptContent is the text payload of a prompt message.
type PromptContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// PromptMessage is one role-tagged message produced by a prompt handler.
type PromptMessage struct {
	Role    string        `json:"role"`
	Content PromptContent `json:"content"`
	Name    string        `json:"name,omitempty"`
}

// Prompt is a retrievable capability, identified by name. Declared arguments
// marked Required are checked before the handler runs.
type Prompt struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Arguments   []PromptArgument       `json:"arguments,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Meta        map[string]interface{} `json:"_meta,omitempty"`
	Handler     PromptHandler          `json:"-"`
}

func (p Prompt) metadata() Prompt {
	p.Handler = nil
	return p
}

// CallToolParams are the parameters of a tools/call request.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolResultContent is one content block of a tool result.
type ToolResultContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallToolResult is the envelope every tool invocation produces. A failed
// invocation is still a successful RPC call whose payload carries IsError.
type CallToolResult struct {
	Content []ToolResultContent `json:"content"`
	IsError bool                `json:"isError"`
}

// ReadResourceParams are the parameters of a resources/read request.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ResourceContent is one content block of a resources/read result.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ReadResourceResult is the result of a resources/read request.
type ReadResourceResult struct {
	Contents []ResourceContent `json:"contents"`
}

// GetPromptParams are the parameters of a prompts/get request.
type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// GetPromptResult is the result of a prompts/get request.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// ListToolsResult wraps the tool metadata views for tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// ListResourcesResult wraps the resource metadata views for resources/list.
type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
}

// ListPromptsResult wraps the prompt metadata views for prompts/list.
type ListPromptsResult struct {
	Prompts []Prompt `json:"prompts"`
}

func validateTool(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if tool.InputSchema != nil {
		loader := gojsonschema.NewStringLoader(string(tool.InputSchema))
		if _, err := gojsonschema.NewSchema(loader); err != nil {
			return fmt.Errorf("invalid input schema: %v", err)
		}
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}
	return nil
}

func validateResource(resource Resource) error {
	if resource.URI == "" {
		return fmt.Errorf("resource URI cannot be empty")
	}
	if resource.Handler == nil {
		return fmt.Errorf("resource handler cannot be nil")
	}
	return nil
}

func validatePrompt(prompt Prompt) error {
	if prompt.Name == "" {
		return fmt.Errorf("prompt name cannot be empty")
	}
	if prompt.Handler == nil {
		return fmt.Errorf("prompt handler cannot be nil")
	}
	for _, arg := range prompt.Arguments {
		if arg.Name == "" {
			return fmt.Errorf("prompt argument name cannot be empty")
		}
	}
	return nil
}
