package gomcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ProtocolVersion is the capability protocol revision this server speaks.
const ProtocolVersion = "2024-11-05"

// NotificationPolicy controls what the dispatcher emits for messages that
// carry no id. Strict JSON-RPC forbids any response to a notification, but
// deployed clients were built against a server that answered every frame, so
// the permissive behavior stays the default.
type NotificationPolicy int

const (
	// NotificationRespond answers every notification, including ones naming
	// unknown methods, with a synthetic success frame carrying id 0.
	NotificationRespond NotificationPolicy = iota
	// NotificationSilent produces no frame for notifications.
	NotificationSilent
)

// ServerInfo identifies the server in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolsCapability advertises tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ResourcesCapability advertises resource support.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe"`
	ListChanged bool `json:"listChanged"`
}

// PromptsCapability advertises prompt support.
type PromptsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ServerCapabilities is the capabilities block of the initialize result.
type ServerCapabilities struct {
	Tools     ToolsCapability     `json:"tools"`
	Resources ResourcesCapability `json:"resources"`
	Prompts   PromptsCapability   `json:"prompts"`
}

// InitializeResult is the fixed descriptor returned by the initialize method.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

// HandleFrame parses one raw frame and dispatches it. The returned error
// reports a frame that is not a JSON-RPC message; how to surface that is the
// transport's call. A nil response with a nil error means the frame was a
// notification that produces no reply.
func (s *Server) HandleFrame(ctx context.Context, frame []byte) (*Response, error) {
	req, err := parseRequest(frame)
	if err != nil {
		return nil, err
	}
	return s.HandleMessage(ctx, req), nil
}

// HandleMessage routes one parsed message through the method table. Both
// transports call it; neither adds routing of its own.
func (s *Server) HandleMessage(ctx context.Context, req *Request) *Response {
	ctx, span := StartSpan(ctx, "HandleMessage")
	defer span.End()
	span.SetAttributes(attribute.String("rpc.method", req.Method))

	s.startServing()

	s.logger.WithFields(map[string]interface{}{
		"method":       req.Method,
		"notification": req.IsNotification(),
	}).Debug("handling message")

	if req.IsNotification() {
		if s.notifications == NotificationSilent {
			return nil
		}
		id := json.RawMessage("0")
		return newResponse(&id, map[string]interface{}{})
	}

	start := time.Now()
	resp := s.dispatch(ctx, req)
	status := "ok"
	if resp.Error != nil {
		status = "error"
	}
	s.metrics.observeRequest(req.Method, status, time.Since(start))
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return newResponse(req.ID, s.initializeResult())

	case "ping":
		return newResponse(req.ID, map[string]interface{}{})

	case "tools/list":
		return newResponse(req.ID, s.ListTools(ctx))

	case "resources/list":
		return newResponse(req.ID, s.ListResources(ctx))

	case "prompts/list":
		return newResponse(req.ID, s.ListPrompts(ctx))

	case "tools/call":
		var params CallToolParams
		if errResp := decodeParams(req, &params); errResp != nil {
			return errResp
		}
		if params.Name == "" {
			return newErrorResponse(req.ID, ErrorCodeInvalidParams, "Invalid params", nil)
		}
		return newResponse(req.ID, s.CallTool(ctx, params))

	case "resources/read":
		var params ReadResourceParams
		if errResp := decodeParams(req, &params); errResp != nil {
			return errResp
		}
		if params.URI == "" {
			return newErrorResponse(req.ID, ErrorCodeInvalidParams, "Invalid params", nil)
		}
		result, err := s.ReadResource(ctx, params)
		if err != nil {
			return newErrorResponse(req.ID, ErrorCodeServerError, err.Error(), nil)
		}
		return newResponse(req.ID, result)

	case "prompts/get":
		var params GetPromptParams
		if errResp := decodeParams(req, &params); errResp != nil {
			return errResp
		}
		if params.Name == "" {
			return newErrorResponse(req.ID, ErrorCodeInvalidParams, "Invalid params", nil)
		}
		result, err := s.GetPrompt(ctx, params)
		if err != nil {
			return newErrorResponse(req.ID, ErrorCodeServerError, err.Error(), nil)
		}
		return newResponse(req.ID, result)

	default:
		s.logger.WithFields(map[string]interface{}{
			"method": req.Method,
		}).Warn("unknown method")
		return newErrorResponse(req.ID, ErrorCodeMethodNotFound, "Method not found", nil)
	}
}

// decodeParams fills dst from the request params. Absent or null params and
// undecodable params are distinct protocol errors with distinct messages.
func decodeParams(req *Request, dst interface{}) *Response {
	if len(req.Params) == 0 || string(req.Params) == "null" {
		return newErrorResponse(req.ID, ErrorCodeInvalidParams, "Missing params", nil)
	}
	if err := json.Unmarshal(req.Params, dst); err != nil {
		return newErrorResponse(req.ID, ErrorCodeInvalidParams, "Invalid params", nil)
	}
	return nil
}

func (s *Server) initializeResult() InitializeResult {
	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools:     ToolsCapability{ListChanged: true},
			Resources: ResourcesCapability{Subscribe: true, ListChanged: true},
			Prompts:   PromptsCapability{ListChanged: true},
		},
		ServerInfo: s.info,
	}
}

// ListTools returns the registered tool metadata sorted by name.
func (s *Server) ListTools(ctx context.Context) ListToolsResult {
	_, span := StartSpan(ctx, "ListTools")
	defer span.End()

	entries := s.tools.list()
	tools := make([]Tool, 0, len(entries))
	for _, tool := range entries {
		tools = append(tools, tool.metadata())
	}
	span.SetAttributes(attribute.Int("tools.count", len(tools)))
	return ListToolsResult{Tools: tools}
}

// ListResources returns the registered resource metadata sorted by URI.
func (s *Server) ListResources(ctx context.Context) ListResourcesResult {
	_, span := StartSpan(ctx, "ListResources")
	defer span.End()

	entries := s.resources.list()
	resources := make([]Resource, 0, len(entries))
	for _, resource := range entries {
		resources = append(resources, resource.metadata())
	}
	span.SetAttributes(attribute.Int("resources.count", len(resources)))
	return ListResourcesResult{Resources: resources}
}

// ListPrompts returns the registered prompt metadata sorted by name.
func (s *Server) ListPrompts(ctx context.Context) ListPromptsResult {
	_, span := StartSpan(ctx, "ListPrompts")
	defer span.End()

	entries := s.prompts.list()
	prompts := make([]Prompt, 0, len(entries))
	for _, prompt := range entries {
		prompts = append(prompts, prompt.metadata())
	}
	span.SetAttributes(attribute.Int("prompts.count", len(prompts)))
	return ListPromptsResult{Prompts: prompts}
}

// CallTool invokes the named tool. Failures never surface as Go errors:
// unknown tools, schema violations, handler errors, and handler panics all
// come back through the IsError envelope, so a tools/call is a successful
// RPC even when the tool fails.
func (s *Server) CallTool(ctx context.Context, params CallToolParams) CallToolResult {
	ctx, span := StartSpan(ctx, "CallTool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", params.Name))

	tool, ok := s.tools.get(params.Name)
	if !ok {
		return toolErrorResult(fmt.Sprintf("Tool not found: %s", params.Name))
	}

	args := params.Arguments
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}

	if len(tool.InputSchema) > 0 {
		result, err := gojsonschema.Validate(
			gojsonschema.NewBytesLoader(tool.InputSchema),
			gojsonschema.NewBytesLoader(args),
		)
		if err != nil {
			return toolErrorResult(fmt.Sprintf("Schema validation failed: %v", err))
		}
		if !result.Valid() {
			msgs := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				msgs = append(msgs, desc.String())
			}
			return toolErrorResult("Schema validation failed: " + strings.Join(msgs, "; "))
		}
	}

	out, err := runToolHandler(ctx, tool, CallToolParams{Name: params.Name, Arguments: args})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WithErr(err).WithFields(map[string]interface{}{
			"tool": params.Name,
		}).Error("tool execution failed")
		return toolErrorResult(err.Error())
	}
	return out
}

// runToolHandler runs the handler with panic recovery so one misbehaving
// tool cannot take down a connection.
func runToolHandler(ctx context.Context, tool Tool, params CallToolParams) (result CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", params.Name, r)
		}
	}()
	return tool.Handler(ctx, params)
}

func toolErrorResult(text string) CallToolResult {
	return CallToolResult{
		Content: []ToolResultContent{{Type: "text", Text: text}},
		IsError: true,
	}
}

// ReadResource resolves the URI and runs the resource handler. Unknown URIs
// and handler failures are returned as errors for the dispatcher to map to
// an error response.
func (s *Server) ReadResource(ctx context.Context, params ReadResourceParams) (ReadResourceResult, error) {
	ctx, span := StartSpan(ctx, "ReadResource")
	defer span.End()
	span.SetAttributes(attribute.String("resource.uri", params.URI))
	var err error
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	resource, ok := s.resources.get(params.URI)
	if !ok {
		err = fmt.Errorf("resource not found: %s", params.URI)
		return ReadResourceResult{}, err
	}

	text, herr := resource.Handler(ctx)
	if herr != nil {
		err = herr
		s.logger.WithErr(err).WithFields(map[string]interface{}{
			"uri": params.URI,
		}).Error("resource read failed")
		return ReadResourceResult{}, err
	}

	return ReadResourceResult{
		Contents: []ResourceContent{{
			URI:      resource.URI,
			MimeType: resource.MimeType,
			Text:     text,
		}},
	}, nil
}

// GetPrompt renders the named prompt with the supplied arguments. Declared
// required arguments are checked before the handler runs.
func (s *Server) GetPrompt(ctx context.Context, params GetPromptParams) (GetPromptResult, error) {
	ctx, span := StartSpan(ctx, "GetPrompt")
	defer span.End()
	span.SetAttributes(attribute.String("prompt.name", params.Name))
	var err error
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	prompt, ok := s.prompts.get(params.Name)
	if !ok {
		err = fmt.Errorf("prompt not found: %s", params.Name)
		return GetPromptResult{}, err
	}

	args := params.Arguments
	if args == nil {
		args = map[string]string{}
	}
	for _, arg := range prompt.Arguments {
		if arg.Required && args[arg.Name] == "" {
			err = fmt.Errorf("missing required argument: %s", arg.Name)
			return GetPromptResult{}, err
		}
	}

	messages, herr := prompt.Handler(ctx, args)
	if herr != nil {
		err = herr
		s.logger.WithErr(err).WithFields(map[string]interface{}{
			"prompt": params.Name,
		}).Error("prompt rendering failed")
		return GetPromptResult{}, err
	}

	return GetPromptResult{
		Description: prompt.Description,
		Messages:    messages,
	}, nil
}
