package gomcp

import (
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the protocol version tag carried by every envelope.
const JSONRPCVersion = "2.0"

// JSON-RPC 2.0 error codes used by the dispatcher. ErrorCodeInternal is
// reserved; no method handler emits it today.
const (
	ErrorCodeParse          = -32700
	ErrorCodeInvalidRequest = -32600
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternal       = -32603
	ErrorCodeServerError    = -32000
)

// Request is a single inbound JSON-RPC message. A nil ID marks a
// notification, which expects no response under the strict protocol contract
// (see NotificationPolicy for how the server actually treats them).
type Request struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

// IsNotification reports whether the message carries no id.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response is a single outbound JSON-RPC message. Exactly one of Result and
// Error is set.
type Response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id"`
	Result  interface{}      `json:"result,omitempty"`
	Error   *Error           `json:"error,omitempty"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

func newResponse(id *json.RawMessage, result interface{}) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

func newErrorResponse(id *json.RawMessage, code int, message string, data interface{}) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}

// parseRequest decodes one wire frame into a Request. The jsonrpc and method
// fields are required; a frame missing either is rejected the same way as one
// that is not JSON at all, so both transports can treat the returned error as
// "not a JSON-RPC message".
func parseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	if req.JSONRPC == "" {
		return nil, fmt.Errorf("parse request: missing jsonrpc field")
	}
	if req.Method == "" {
		return nil, fmt.Errorf("parse request: missing method field")
	}
	if req.ID != nil && string(*req.ID) == "null" {
		req.ID = nil
	}
	return &req, nil
}
