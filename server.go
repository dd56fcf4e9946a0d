package gomcp

import (
	"fmt"
	"sync/atomic"
)

const (
	defaultServerName    = "gomcp-server"
	defaultServerVersion = "0.1.0"
)

// ServerConfig holds the assembled configuration for a Server. Callers do
// not build it directly; they pass ServerConfigOption values to NewServer.
type ServerConfig struct {
	logger         Logger
	info           ServerInfo
	toolPolicy     DuplicatePolicy
	resourcePolicy DuplicatePolicy
	promptPolicy   DuplicatePolicy
	notifications  NotificationPolicy
	metrics        *Metrics
}

// ServerConfigOption configures a Server at construction time.
type ServerConfigOption func(*ServerConfig)

// UseLogger sets the logger for the server and its registries.
func UseLogger(logger Logger) ServerConfigOption {
	return func(c *ServerConfig) {
		c.logger = logger
	}
}

// UseServerInfo sets the name and version advertised by initialize.
func UseServerInfo(name, version string) ServerConfigOption {
	return func(c *ServerConfig) {
		c.info = ServerInfo{Name: name, Version: version}
	}
}

// UseDuplicatePolicy sets one duplicate policy for all three registries.
func UseDuplicatePolicy(policy DuplicatePolicy) ServerConfigOption {
	return func(c *ServerConfig) {
		c.toolPolicy = policy
		c.resourcePolicy = policy
		c.promptPolicy = policy
	}
}

// UseToolDuplicatePolicy sets the duplicate policy for tools only.
func UseToolDuplicatePolicy(policy DuplicatePolicy) ServerConfigOption {
	return func(c *ServerConfig) {
		c.toolPolicy = policy
	}
}

// UseResourceDuplicatePolicy sets the duplicate policy for resources only.
func UseResourceDuplicatePolicy(policy DuplicatePolicy) ServerConfigOption {
	return func(c *ServerConfig) {
		c.resourcePolicy = policy
	}
}

// UsePromptDuplicatePolicy sets the duplicate policy for prompts only.
func UsePromptDuplicatePolicy(policy DuplicatePolicy) ServerConfigOption {
	return func(c *ServerConfig) {
		c.promptPolicy = policy
	}
}

// UseNotificationPolicy sets how notifications are answered.
func UseNotificationPolicy(policy NotificationPolicy) ServerConfigOption {
	return func(c *ServerConfig) {
		c.notifications = policy
	}
}

// UseMetrics attaches a metrics provider. Without one the server records
// nothing.
func UseMetrics(m *Metrics) ServerConfigOption {
	return func(c *ServerConfig) {
		c.metrics = m
	}
}

func defaultConfig() ServerConfig {
	return ServerConfig{
		logger: NewDefaultLogger(),
		info: ServerInfo{
			Name:    defaultServerName,
			Version: defaultServerVersion,
		},
		toolPolicy:     DuplicateWarn,
		resourcePolicy: DuplicateWarn,
		promptPolicy:   DuplicateWarn,
		notifications:  NotificationRespond,
	}
}

// Server owns the three capability registries and the dispatch method table.
// Register capabilities first, then hand the server to one or both transports;
// once a message has been dispatched the registries are read-only.
type Server struct {
	logger        Logger
	info          ServerInfo
	tools         *registry[Tool]
	resources     *registry[Resource]
	prompts       *registry[Prompt]
	notifications NotificationPolicy
	metrics       *Metrics
	serving       atomic.Bool
}

// NewServer builds a Server from the given options.
func NewServer(opts ...ServerConfigOption) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		logger:        cfg.logger,
		info:          cfg.info,
		tools:         newRegistry("tool", cfg.toolPolicy, func(t Tool) string { return t.Name }, cfg.logger),
		resources:     newRegistry("resource", cfg.resourcePolicy, func(r Resource) string { return r.URI }, cfg.logger),
		prompts:       newRegistry("prompt", cfg.promptPolicy, func(p Prompt) string { return p.Name }, cfg.logger),
		notifications: cfg.notifications,
		metrics:       cfg.metrics,
	}
}

// AddTools validates and registers tools. It rejects registration once
// serving has started.
func (s *Server) AddTools(tools ...Tool) error {
	if s.serving.Load() {
		return fmt.Errorf("cannot add tools: server is already serving")
	}
	for _, tool := range tools {
		if err := validateTool(tool); err != nil {
			return fmt.Errorf("invalid tool: %v", err)
		}
		if err := s.tools.add(tool); err != nil {
			return err
		}
		s.logger.WithFields(map[string]interface{}{
			"tool": tool.Name,
		}).Debug("tool registered")
	}
	return nil
}

// AddResources validates and registers resources. An empty Name falls back
// to the URI, an empty MimeType to text/plain.
func (s *Server) AddResources(resources ...Resource) error {
	if s.serving.Load() {
		return fmt.Errorf("cannot add resources: server is already serving")
	}
	for _, resource := range resources {
		if err := validateResource(resource); err != nil {
			return fmt.Errorf("invalid resource: %v", err)
		}
		if resource.Name == "" {
			resource.Name = resource.URI
		}
		if resource.MimeType == "" {
			resource.MimeType = "text/plain"
		}
		if err := s.resources.add(resource); err != nil {
			return err
		}
		s.logger.WithFields(map[string]interface{}{
			"uri": resource.URI,
		}).Debug("resource registered")
	}
	return nil
}

// AddPrompts validates and registers prompts.
func (s *Server) AddPrompts(prompts ...Prompt) error {
	if s.serving.Load() {
		return fmt.Errorf("cannot add prompts: server is already serving")
	}
	for _, prompt := range prompts {
		if err := validatePrompt(prompt); err != nil {
			return fmt.Errorf("invalid prompt: %v", err)
		}
		if err := s.prompts.add(prompt); err != nil {
			return err
		}
		s.logger.WithFields(map[string]interface{}{
			"prompt": prompt.Name,
		}).Debug("prompt registered")
	}
	return nil
}

// startServing flips the registries into their read-only phase. Safe to call
// more than once.
func (s *Server) startServing() {
	s.serving.Store(true)
}
