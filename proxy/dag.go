package proxy

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/llm"
	"github.com/papercomputeco/lens/pkg/merkle"
)

// handleDAGStats returns statistics about the ledger.
func (p *Proxy) handleDAGStats(c *fiber.Ctx) error {
	stats, err := p.ledger.Stats(c.UserContext())
	if err != nil {
		p.logger.Error("failed to compute ledger stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list nodes"})
	}

	return c.JSON(stats)
}

// handleGetNode returns a single node by its hash.
func (p *Proxy) handleGetNode(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "hash parameter required"})
	}

	node, err := p.ledger.Storer().Get(c.UserContext(), hash)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "node not found"})
	}

	return c.JSON(node)
}

// HistoryResponse contains the conversation history for a given node.
type HistoryResponse struct {
	// Messages in chronological order (oldest first, up to and including the requested node)
	Messages []HistoryMessage `json:"messages"`
	// HeadHash is the hash of the node that was requested
	HeadHash string `json:"head_hash"`
	// Depth is the number of messages in the history
	Depth int `json:"depth"`
}

// HistoryMessage represents a message in the conversation history. Image
// blocks are counted rather than repeated.
type HistoryMessage struct {
	Hash       string   `json:"hash"`
	ParentHash *string  `json:"parent_hash,omitempty"`
	Type       string   `json:"type"`
	Role       llm.Role `json:"role"`
	Content    string   `json:"content"`
	Images     int      `json:"images,omitempty"`
	Model      string   `json:"model,omitempty"`
}

// handleListHistories returns all conversation histories (one per leaf node).
func (p *Proxy) handleListHistories(c *fiber.Ctx) error {
	ctx := c.UserContext()

	leaves, err := p.ledger.Storer().Leaves(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get leaves"})
	}

	histories := make([]HistoryResponse, 0, len(leaves))
	for _, leaf := range leaves {
		history, err := p.buildHistory(ctx, leaf.Hash)
		if err != nil {
			p.logger.Warn("failed to build history for leaf", zap.String("hash", leaf.Hash), zap.Error(err))
			continue
		}
		histories = append(histories, *history)
	}

	return c.JSON(map[string]any{
		"count":     len(histories),
		"histories": histories,
	})
}

// handleGetHistory returns the full conversation history leading up to a given node.
func (p *Proxy) handleGetHistory(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "hash parameter required"})
	}

	history, err := p.buildHistory(c.UserContext(), hash)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "node not found"})
	}

	return c.JSON(history)
}

// buildHistory constructs a HistoryResponse for the given node hash.
func (p *Proxy) buildHistory(ctx context.Context, hash string) (*HistoryResponse, error) {
	path, err := p.ledger.Storer().Descendants(ctx, hash)
	if err != nil {
		return nil, err
	}

	messages := make([]HistoryMessage, len(path))
	for i, node := range path {
		messages[i] = historyMessage(node)
	}

	return &HistoryResponse{
		Messages: messages,
		HeadHash: hash,
		Depth:    len(messages),
	}, nil
}

func historyMessage(node *merkle.Node) HistoryMessage {
	return HistoryMessage{
		Hash:       node.Hash,
		ParentHash: node.ParentHash,
		Type:       node.Bucket.Type,
		Role:       node.Bucket.Role,
		Content:    node.Bucket.Text(),
		Images:     node.Bucket.ImageCount(),
		Model:      node.Bucket.Model,
	}
}

// handlePostNodes ingests nodes pushed from another ledger. Nodes are verified
// against their hash before they are stored.
func (p *Proxy) handlePostNodes(c *fiber.Ctx) error {
	var nodes []*merkle.Node
	if err := json.Unmarshal(c.Body(), &nodes); err != nil {
		p.logger.Error("failed to parse pushed nodes", zap.String("request_id", reqID(c)), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	result, err := p.ledger.Ingest(c.UserContext(), nodes)
	if err != nil {
		p.logger.Error("failed to ingest nodes", zap.String("request_id", reqID(c)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to store nodes"})
	}

	p.logger.Info("ingested pushed nodes",
		zap.Int("new", result.New),
		zap.Int("duplicate", result.Duplicate),
		zap.Int("errors", result.Errors),
	)

	return c.JSON(result)
}
