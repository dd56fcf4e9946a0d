package gomcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name             string
		frame            string
		wantErr          bool
		wantMethod       string
		wantNotification bool
	}{
		{
			name:       "request with numeric id",
			frame:      `{"jsonrpc":"2.0","id":1,"method":"ping"}`,
			wantMethod: "ping",
		},
		{
			name:       "request with string id",
			frame:      `{"jsonrpc":"2.0","id":"abc","method":"tools/list","params":{}}`,
			wantMethod: "tools/list",
		},
		{
			name:             "notification without id",
			frame:            `{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			wantMethod:       "notifications/initialized",
			wantNotification: true,
		},
		{
			name:             "null id counts as notification",
			frame:            `{"jsonrpc":"2.0","id":null,"method":"ping"}`,
			wantMethod:       "ping",
			wantNotification: true,
		},
		{
			name:    "missing jsonrpc field",
			frame:   `{"id":1,"method":"ping"}`,
			wantErr: true,
		},
		{
			name:    "missing method field",
			frame:   `{"jsonrpc":"2.0","id":1}`,
			wantErr: true,
		},
		{
			name:    "not json",
			frame:   `ping please`,
			wantErr: true,
		},
		{
			name:    "json but not an object",
			frame:   `[1,2,3]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseRequest([]byte(tt.frame))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, tt.wantNotification, req.IsNotification())
		})
	}
}

func TestResponseMarshalling(t *testing.T) {
	t.Run("success response echoes id", func(t *testing.T) {
		id := json.RawMessage(`42`)
		resp := newResponse(&id, map[string]interface{}{})

		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":42,"result":{}}`, string(data))
	})

	t.Run("error response keeps null id", func(t *testing.T) {
		resp := newErrorResponse(nil, ErrorCodeMethodNotFound, "Method not found", nil)

		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32601,"message":"Method not found"}}`, string(data))
	})

	t.Run("error response with data", func(t *testing.T) {
		id := json.RawMessage(`"req-1"`)
		resp := newErrorResponse(&id, ErrorCodeServerError, "resource not found: resource://nope", map[string]string{"uri": "resource://nope"})

		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"code":-32000`)
		assert.Contains(t, string(data), `"uri":"resource://nope"`)
	})
}

func TestErrorString(t *testing.T) {
	err := &Error{Code: ErrorCodeInvalidParams, Message: "Invalid params"}
	assert.Equal(t, "jsonrpc error -32602: Invalid params", err.Error())
}
