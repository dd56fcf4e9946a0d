package gomcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListenAddress = "127.0.0.1:8000"
	shutdownTimeout      = 5 * time.Second
	requestTimeout       = 60 * time.Second
)

// HTTPServer mounts both transports and the operational endpoints on one chi
// router. POST /mcp is the single-shot JSON-RPC channel, GET /mcp/ws upgrades
// to the persistent channel, and the REST-style listing endpoints serve the
// same payloads the corresponding JSON-RPC list methods return.
type HTTPServer struct {
	server  *Server
	logger  Logger
	ws      *WebSocketTransport
	address string
	origins []string
}

// NewHTTPServer wraps a Server with the HTTP transport on the default
// listen address. Configure it before calling Router or Run.
func NewHTTPServer(server *Server) *HTTPServer {
	return &HTTPServer{
		server:  server,
		logger:  server.logger,
		address: defaultListenAddress,
	}
}

// SetAddress overrides the listen address.
func (h *HTTPServer) SetAddress(address string) {
	h.address = address
}

// SetAllowedOrigins restricts websocket upgrades to the given origins.
func (h *HTTPServer) SetAllowedOrigins(origins []string) {
	h.origins = origins
}

// Router builds the full route table. The websocket endpoint sits outside
// the timeout group; its connections outlive any per-request deadline.
func (h *HTTPServer) Router() http.Handler {
	if h.ws == nil {
		h.ws = NewWebSocketTransport(h.server, h.origins)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", h.handleBanner)
	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", h.server.metrics.Handler())

	r.Route("/mcp", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Post("/", h.handleRPC)
			r.Get("/tools", h.handleListTools)
			r.Get("/resources", h.handleListResources)
			r.Get("/prompts", h.handleListPrompts)
			r.Post("/call-tool", h.handleCallTool)
		})
		r.Get("/ws", h.ws.ServeHTTP)
	})

	return r
}

func (h *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.WithFields(map[string]interface{}{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  ww.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("http request")
	})
}

// handleRPC is the single-shot transport: one JSON-RPC frame per POST body.
// A body that is not a JSON-RPC message is a client-visible 422; a silent
// notification is a 204 with no body.
func (h *HTTPServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	resp, err := h.server.HandleFrame(r.Context(), body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPServer) handleBanner(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    h.server.info.Name,
		"version": h.server.info.Version,
	})
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPServer) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.server.ListTools(r.Context()))
}

func (h *HTTPServer) handleListResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.server.ListResources(r.Context()))
}

func (h *HTTPServer) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.server.ListPrompts(r.Context()))
}

// handleCallTool invokes a tool directly, outside the JSON-RPC envelope. The
// result envelope is returned as-is, so a failed tool is still HTTP 200 with
// isError set.
func (h *HTTPServer) handleCallTool(w http.ResponseWriter, r *http.Request) {
	var params CallToolParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if params.Name == "" {
		http.Error(w, "missing tool name", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.server.CallTool(r.Context(), params))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run serves until ctx is cancelled, then closes websocket connections and
// drains in-flight requests before returning.
func (h *HTTPServer) Run(ctx context.Context) error {
	handler := h.Router()

	srv := &http.Server{
		Addr:    h.address,
		Handler: handler,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	h.logger.WithFields(map[string]interface{}{
		"address": h.address,
	}).Info("starting http server")
	h.server.startServing()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		h.ws.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		h.logger.Info("http server stopped")
		return nil
	})

	return g.Wait()
}
