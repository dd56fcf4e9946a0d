// Package gomcp exposes server-side capabilities (tools, resources, prompts)
// to remote clients over JSON-RPC 2.0, through a single-shot HTTP endpoint
// and a persistent WebSocket endpoint that share one dispatcher.
//
// Example:
//
// Register an echo tool, then serve both transports on one address.
//
//	package main
//
//	import (
//		"context"
//		"encoding/json"
//		"log"
//		"os/signal"
//		"syscall"
//
//		"github.com/J-35S/gomcp"
//	)
//
//	func main() {
//		echoTool := gomcp.Tool{
//			Name:        "echo",
//			Description: "Echo back the provided message.",
//			InputSchema: json.RawMessage(`{
//				"type": "object",
//				"properties": {
//					"message": {"type": "string"}
//				}
//			}`),
//			Handler: func(ctx context.Context, params gomcp.CallToolParams) (gomcp.CallToolResult, error) {
//				var input struct {
//					Message string `json:"message"`
//				}
//				if err := json.Unmarshal(params.Arguments, &input); err != nil {
//					return gomcp.CallToolResult{}, err
//				}
//				return gomcp.CallToolResult{
//					Content: []gomcp.ToolResultContent{
//						{Type: "text", Text: input.Message},
//					},
//				}, nil
//			},
//		}
//
//		server := gomcp.NewServer(
//			gomcp.UseServerInfo("echo-server", "0.1.0"),
//		)
//		if err := server.AddTools(echoTool); err != nil {
//			log.Fatal(err)
//		}
//
//		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//		defer stop()
//
//		httpServer := gomcp.NewHTTPServer(server)
//		if err := httpServer.Run(ctx); err != nil {
//			log.Fatal(err)
//		}
//	}
package gomcp
