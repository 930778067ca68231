package factgraph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/factgraph/factgraph/pkg/cache"
	"github.com/factgraph/factgraph/pkg/chunker"
	"github.com/factgraph/factgraph/pkg/config"
	"github.com/factgraph/factgraph/pkg/document"
	"github.com/factgraph/factgraph/pkg/extract"
	"github.com/factgraph/factgraph/pkg/graph"
	"github.com/factgraph/factgraph/pkg/nlp"
	"github.com/factgraph/factgraph/pkg/query"
)

// Client is the main entry point. It wires document processing, entity
// extraction, normalization, and the graph store into one pipeline.
type Client struct {
	cfg    *config.Config
	logger *slog.Logger

	store     graph.Store
	docs      *document.Processor
	chunker   *chunker.Chunker
	extractor extract.Extractor
	agent     *query.Agent
	cache     *cache.Cache

	extractionClient nlp.Client
	queryClient      nlp.Client

	initialized bool
}

// Option customizes client construction. Primarily used to inject
// pre-built components in tests and embedding applications.
type Option func(*Client)

// WithStore overrides the config-selected graph store.
func WithStore(store graph.Store) Option {
	return func(c *Client) { c.store = store }
}

// WithExtractionClient overrides the config-built extraction model client.
func WithExtractionClient(client nlp.Client) Option {
	return func(c *Client) { c.extractionClient = client }
}

// WithQueryClient overrides the config-built query model client.
func WithQueryClient(client nlp.Client) Option {
	return func(c *Client) { c.queryClient = client }
}

// New builds a client from configuration. Nothing touches the network
// until Initialize is called.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
		docs:   document.NewProcessor(logger),
	}

	ch, err := chunker.New(chunker.Config{
		Size:    cfg.Chunking.Size,
		Overlap: cfg.Chunking.Overlap,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}
	c.chunker = ch

	for _, opt := range opts {
		opt(c)
	}

	if c.store == nil {
		c.store = buildStore(cfg, logger)
	}
	if c.extractionClient == nil {
		c.extractionClient = buildModelClient(cfg.Extractor, cfg.Breaker, "extraction", logger)
	}
	if c.queryClient == nil {
		c.queryClient = buildModelClient(cfg.Query, cfg.Breaker, "query", logger)
	}

	c.extractor = c.buildExtractor()
	c.agent = query.NewAgent(c.queryClient, c.store, logger)

	return c, nil
}

func buildStore(cfg *config.Config, logger *slog.Logger) graph.Store {
	if cfg.Graph.Mode == graph.ProviderNeo4j {
		return graph.NewNeo4jStore(graph.Neo4jConfig{
			URI:      cfg.Graph.URI,
			Username: cfg.Graph.Username,
			Password: cfg.Graph.Password,
			Database: cfg.Graph.Database,
		}, logger)
	}
	return graph.NewMemoryStore(cfg.Graph.SnapshotPath, logger)
}

// buildModelClient returns nil when the backend is not configured. A nil
// client downgrades the dependent component rather than failing startup.
func buildModelClient(llmCfg config.LLMConfig, breakerCfg config.BreakerConfig, name string, logger *slog.Logger) nlp.Client {
	if llmCfg.APIKey == "" {
		return nil
	}

	client, err := nlp.NewClient(&nlp.Config{
		Provider:    llmCfg.Provider,
		Model:       llmCfg.Model,
		APIKey:      llmCfg.APIKey,
		BaseURL:     llmCfg.BaseURL,
		Temperature: llmCfg.Temperature,
		MaxTokens:   llmCfg.MaxTokens,
	}, logger)
	if err != nil {
		logger.Warn("failed to build model client", "name", name, "error", err)
		return nil
	}

	if breakerCfg.Enabled {
		return nlp.NewCircuitBreakerClient(client, nlp.BreakerConfig{
			MaxRequests: breakerCfg.MaxRequests,
			Interval:    breakerCfg.Interval,
			Timeout:     breakerCfg.Timeout,
			TripRatio:   breakerCfg.TripRatio,
		}, name, logger)
	}
	return client
}

func (c *Client) buildExtractor() extract.Extractor {
	var inner extract.Extractor
	if c.extractionClient != nil {
		llmExtractor, err := extract.NewLLMExtractor(c.extractionClient, c.logger)
		if err == nil {
			inner = llmExtractor
		}
	}
	if inner == nil {
		c.logger.Warn("no extraction model configured, using heuristic extraction")
		inner = extract.NewSimpleExtractor()
	}

	if !c.cfg.Cache.Enabled {
		return inner
	}
	kv, err := cache.Open(c.cfg.Cache.Dir, c.logger)
	if err != nil {
		c.logger.Warn("failed to open extraction cache, continuing uncached", "error", err)
		return inner
	}
	c.cache = kv
	return extract.NewCachedExtractor(inner, kv, c.logger)
}

// InitStatus reports per-component readiness after Initialize.
type InitStatus struct {
	GraphStore bool     `json:"graph_store"`
	Extractor  bool     `json:"extractor"`
	QueryAgent bool     `json:"query_agent"`
	Overall    bool     `json:"overall"`
	Issues     []string `json:"issues,omitempty"`
}

// Initialize connects the graph store and reports which components are
// fully operational. Only the store is required; the extractor and query
// agent degrade to fallbacks when their model backend is missing.
func (c *Client) Initialize(ctx context.Context) *InitStatus {
	status := &InitStatus{Issues: []string{}}

	if v := c.cfg.Validate(); !v.Valid {
		status.Issues = append(status.Issues, v.Issues...)
	}

	if err := c.store.Connect(ctx); err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("graph store connection failed: %v", err))
		c.logger.Error("graph store connection failed", "provider", c.store.Provider(), "error", err)
	} else {
		status.GraphStore = true
		c.logger.Info("graph store connected", "provider", c.store.Provider())
	}

	status.Extractor = c.extractionClient != nil
	status.QueryAgent = c.agent.Initialized()

	status.Overall = status.GraphStore
	c.initialized = status.Overall
	return status
}

// Initialized reports whether Initialize succeeded.
func (c *Client) Initialized() bool { return c.initialized }

// Store exposes the underlying graph store.
func (c *Client) Store() graph.Store { return c.store }

// Shutdown persists and closes everything. Safe to call once.
func (c *Client) Shutdown(ctx context.Context) error {
	var firstErr error

	if c.store != nil {
		if err := c.store.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.extractionClient != nil {
		if err := c.extractionClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.queryClient != nil {
		if err := c.queryClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	c.initialized = false
	return firstErr
}
