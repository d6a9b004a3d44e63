// Package proxy provides an HTTP front end for the request preparation
// pipeline: it builds request envelopes, forwards them to a vision model and
// records every exchange in a Merkle DAG ledger.
package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/envelope"
	"github.com/papercomputeco/lens/pkg/image"
	"github.com/papercomputeco/lens/pkg/llm"
	"github.com/papercomputeco/lens/pkg/merkle"
	"github.com/papercomputeco/lens/pkg/profile"
)

// Proxy serves the envelope, messages, ledger and MCP endpoints.
// It holds no per-request state; every request is prepared from scratch.
type Proxy struct {
	config    Config
	ledger    *merkle.Ledger
	preparer  *envelope.Preparer
	validator *image.Validator
	profiles  *profile.Store
	forwarder Forwarder
	imageRoot string
	logger    *zap.Logger
	server    *fiber.App
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithForwarder replaces the Messages API forwarder.
func WithForwarder(f Forwarder) Option {
	return func(p *Proxy) { p.forwarder = f }
}

// WithPreparer replaces the default envelope preparer.
func WithPreparer(preparer *envelope.Preparer) Option {
	return func(p *Proxy) { p.preparer = preparer }
}

// WithValidator sets the validator used by the MCP validate tool. It should
// match the one behind the preparer.
func WithValidator(v *image.Validator) Option {
	return func(p *Proxy) { p.validator = v }
}

// WithProfiles sets the agent profile store.
func WithProfiles(s *profile.Store) Option {
	return func(p *Proxy) { p.profiles = s }
}

// WithImageRoot lets requests name image files under dir. Without it,
// file images can only come from agent profiles.
func WithImageRoot(dir string) Option {
	return func(p *Proxy) { p.imageRoot = dir }
}

// WithStorer replaces the ledger storage chosen from Config.DBPath.
func WithStorer(s merkle.Storer) Option {
	return func(p *Proxy) { p.ledger = merkle.NewLedger(s, p.logger) }
}

// New creates a new Proxy.
func New(config Config, logger *zap.Logger, opts ...Option) (*Proxy, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Proxy{
		config: config,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.ledger == nil {
		var storer merkle.Storer
		if config.DBPath != "" {
			s, err := merkle.NewSQLiteStorer(config.DBPath)
			if err != nil {
				return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
			}
			storer = s
			logger.Info("using SQLite ledger", zap.String("path", config.DBPath))
		} else {
			storer = merkle.NewMemoryStorer()
			logger.Info("using in-memory ledger")
		}
		p.ledger = merkle.NewLedger(storer, logger)
	}
	if p.validator == nil {
		p.validator = image.NewValidator()
	}
	if p.preparer == nil {
		p.preparer = envelope.NewPreparer(
			image.NewEncoder(p.validator, logger),
			envelope.WithLogger(logger),
		)
	}
	if p.profiles == nil {
		p.profiles = profile.NewStore(logger)
	}
	if p.imageRoot != "" {
		root, err := resolvePath(p.imageRoot)
		if err != nil {
			return nil, fmt.Errorf("invalid image root %s: %w", p.imageRoot, err)
		}
		p.imageRoot = root
		logger.Info("request file images enabled", zap.String("root", root))
	}
	if p.forwarder == nil {
		p.forwarder = NewMessagesForwarder(config.UpstreamURL, config.MaxRetries)
	}

	p.server = fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Inline base64 images make large bodies routine
		BodyLimit: 32 * 1024 * 1024,
	})
	p.routes(p.server)

	return p, nil
}

func (p *Proxy) routes(app *fiber.App) {
	app.Use(requestID)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	app.Post("/v1/envelope", p.handleEnvelope)
	app.Post("/v1/messages", p.handleMessages)

	// Ledger inspection endpoints
	app.Get("/dag/stats", p.handleDAGStats)
	app.Get("/dag/node/:hash", p.handleGetNode)
	app.Get("/dag/history", p.handleListHistories)
	app.Get("/dag/history/:hash", p.handleGetHistory)
	app.Post("/dag/nodes", p.handlePostNodes)

	app.All("/mcp", adaptor.HTTPHandler(p.mcpHandler()))
}

// Run starts the proxy server on the given listening address
func (p *Proxy) Run() error {
	p.logger.Info("starting proxy server",
		zap.String("listen", p.config.ListenAddr),
		zap.String("upstream", p.config.UpstreamURL),
	)

	return p.server.Listen(p.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (p *Proxy) RunWithListener(ln net.Listener) error {
	p.logger.Info("starting proxy server",
		zap.String("listen", ln.Addr().String()),
		zap.String("upstream", p.config.UpstreamURL),
	)

	return p.server.Listener(ln)
}

// Close shuts down the proxy and releases resources.
func (p *Proxy) Close() error {
	if err := p.server.Shutdown(); err != nil {
		p.logger.Warn("server shutdown failed", zap.Error(err))
	}
	return p.ledger.Storer().Close()
}

func requestID(c *fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, id)
	c.Locals("request_id", id)
	return c.Next()
}

func reqID(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}

// handleEnvelope prepares an envelope and returns it without calling upstream.
func (p *Proxy) handleEnvelope(c *fiber.Ctx) error {
	var req PrepareRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		p.logger.Error("failed to parse request", zap.String("request_id", reqID(c)), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	env, err := p.prepare(c, &req)
	if err != nil {
		return p.prepareError(c, err)
	}

	return c.JSON(env)
}

// handleMessages prepares an envelope, forwards it upstream and records the
// exchange in the ledger. Recording failures are logged but do not fail the
// request.
func (p *Proxy) handleMessages(c *fiber.Ctx) error {
	startTime := time.Now()

	var req PrepareRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		p.logger.Error("failed to parse request", zap.String("request_id", reqID(c)), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	env, err := p.prepare(c, &req)
	if err != nil {
		return p.prepareError(c, err)
	}

	chatReq := &llm.ChatRequest{
		Model:           req.Model,
		MaxTokens:       req.MaxTokens,
		RequestEnvelope: *env,
		Options:         req.Options,
	}
	if chatReq.Model == "" {
		chatReq.Model = p.config.Model
	}
	if chatReq.MaxTokens <= 0 {
		chatReq.MaxTokens = p.config.MaxTokens
	}

	p.logger.Debug("forwarding request upstream",
		zap.String("request_id", reqID(c)),
		zap.String("model", chatReq.Model),
		zap.Int("message_count", len(chatReq.Messages)),
	)

	resp, err := p.forwarder.Forward(c.UserContext(), chatReq)
	if err != nil {
		p.logger.Error("failed to forward request", zap.String("request_id", reqID(c)), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}

	p.logger.Debug("received response from upstream",
		zap.String("request_id", reqID(c)),
		zap.String("model", resp.Model),
		zap.String("content_preview", truncate(resp.Text(), 100)),
		zap.Duration("duration", time.Since(startTime)),
	)

	head, err := p.ledger.Record(c.UserContext(), llm.ConversationTurn{Request: chatReq, Response: resp})
	if err != nil {
		p.logger.Error("failed to record exchange", zap.String("request_id", reqID(c)), zap.Error(err))
	} else {
		p.logger.Info("exchange recorded", zap.String("head_hash", truncate(head.Hash, 16)))
	}

	return c.JSON(resp)
}

func (p *Proxy) prepare(c *fiber.Ctx, req *PrepareRequest) (*llm.RequestEnvelope, error) {
	in, err := req.input(p.profiles, p.imageRoot)
	if err != nil {
		return nil, err
	}
	return p.preparer.Prepare(c.UserContext(), in)
}

// prepareError maps pipeline failures to responses: unknown agents are 404,
// everything else the caller sent wrong is 400.
func (p *Proxy) prepareError(c *fiber.Ctx, err error) error {
	p.logger.Warn("could not prepare envelope", zap.String("request_id", reqID(c)), zap.Error(err))

	var unknown errUnknownAgent
	if errors.As(err, &unknown) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
