package gomcp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsTestFrame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

func dialTestWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/mcp/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeTestFrame(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func readTestFrame(t *testing.T, conn *websocket.Conn) wsTestFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame wsTestFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestWSRequestResponse(t *testing.T) {
	_, ts := newTestHTTPServer(t, UseServerInfo("ws-test", "0.0.1"))
	conn := dialTestWS(t, ts)

	writeTestFrame(t, conn, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	frame := readTestFrame(t, conn)

	require.Nil(t, frame.Error)
	assert.Equal(t, "1", string(frame.ID))

	var result InitializeResult
	require.NoError(t, json.Unmarshal(frame.Result, &result))
	assert.Equal(t, "2024-11-05", result.ProtocolVersion)
	assert.Equal(t, "ws-test", result.ServerInfo.Name)
}

func TestWSMalformedFrameDropped(t *testing.T) {
	_, ts := newTestHTTPServer(t)
	conn := dialTestWS(t, ts)

	// The garbage frame produces nothing; the connection must survive it.
	writeTestFrame(t, conn, `this is not json-rpc`)
	writeTestFrame(t, conn, `{"jsonrpc":"2.0","id":5,"method":"ping"}`)

	frame := readTestFrame(t, conn)
	require.Nil(t, frame.Error)
	assert.Equal(t, "5", string(frame.ID))
	assert.JSONEq(t, `{}`, string(frame.Result))
}

func TestWSResponsesInOrder(t *testing.T) {
	_, ts := newTestHTTPServer(t)
	conn := dialTestWS(t, ts)

	messages := []string{"first", "second", "third"}
	for i, msg := range messages {
		writeTestFrame(t, conn, fmt.Sprintf(
			`{"jsonrpc":"2.0","id":%d,"method":"tools/call","params":{"name":"echo","arguments":{"message":%q}}}`,
			101+i, msg))
	}

	for i, msg := range messages {
		frame := readTestFrame(t, conn)
		require.Nil(t, frame.Error)
		assert.Equal(t, fmt.Sprintf("%d", 101+i), string(frame.ID))

		var result CallToolResult
		require.NoError(t, json.Unmarshal(frame.Result, &result))
		require.Len(t, result.Content, 1)
		assert.Equal(t, msg, result.Content[0].Text)
	}
}

func TestWSNotificationHandling(t *testing.T) {
	t.Run("respond policy emits synthetic frame", func(t *testing.T) {
		_, ts := newTestHTTPServer(t)
		conn := dialTestWS(t, ts)

		writeTestFrame(t, conn, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)

		frame := readTestFrame(t, conn)
		require.Nil(t, frame.Error)
		assert.Equal(t, "0", string(frame.ID))
		assert.JSONEq(t, `{}`, string(frame.Result))
	})

	t.Run("silent policy emits no frame", func(t *testing.T) {
		_, ts := newTestHTTPServer(t, UseNotificationPolicy(NotificationSilent))
		conn := dialTestWS(t, ts)

		// The next frame on the wire must answer the ping, not the
		// notification sent before it.
		writeTestFrame(t, conn, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
		writeTestFrame(t, conn, `{"jsonrpc":"2.0","id":9,"method":"ping"}`)

		frame := readTestFrame(t, conn)
		require.Nil(t, frame.Error)
		assert.Equal(t, "9", string(frame.ID))
	})
}

func TestWSErrorResponsesStayOnWire(t *testing.T) {
	_, ts := newTestHTTPServer(t)
	conn := dialTestWS(t, ts)

	writeTestFrame(t, conn, `{"jsonrpc":"2.0","id":3,"method":"foo/bar"}`)

	frame := readTestFrame(t, conn)
	require.NotNil(t, frame.Error)
	assert.Equal(t, ErrorCodeMethodNotFound, frame.Error.Code)
	assert.Equal(t, "Method not found", frame.Error.Message)
}

func TestWSOriginRestriction(t *testing.T) {
	s := newCapabilityServer(t)
	h := NewHTTPServer(s)
	h.SetAllowedOrigins([]string{"https://good.example"})
	ts := httptest.NewServer(h.Router())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/mcp/ws"

	t.Run("allowed origin connects", func(t *testing.T) {
		header := http.Header{"Origin": []string{"https://good.example"}}
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.NoError(t, err)
		if resp != nil {
			resp.Body.Close()
		}
		conn.Close()
	})

	t.Run("other origin is refused", func(t *testing.T) {
		header := http.Header{"Origin": []string{"https://evil.example"}}
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.Error(t, err)
		if resp != nil {
			resp.Body.Close()
		}
		require.Nil(t, conn)
	})
}

func TestMakeOriginChecker(t *testing.T) {
	newRequest := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/mcp/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no allowlist accepts anything", nil, "https://anywhere.example", true},
		{"exact match", []string{"https://a.example"}, "https://a.example", true},
		{"wildcard", []string{"*"}, "https://b.example", true},
		{"mismatch", []string{"https://a.example"}, "https://b.example", false},
		{"empty origin against allowlist", []string{"https://a.example"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := makeOriginChecker(tt.allowed)
			assert.Equal(t, tt.want, check(newRequest(tt.origin)))
		})
	}
}
