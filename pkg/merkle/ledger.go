package merkle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/llm"
)

// Ledger records request/response pairs as chains of nodes. The system
// prompt, when present, is the root; each message links to the previous and
// the response is the head. Identical histories deduplicate, and differing
// responses branch from their common prefix.
type Ledger struct {
	storer Storer
	logger *zap.Logger
}

// NewLedger creates a Ledger over storer.
func NewLedger(storer Storer, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{storer: storer, logger: logger}
}

// Storer returns the underlying store.
func (l *Ledger) Storer() Storer {
	return l.storer
}

// Record stores a forwarded request and its response as a chain of nodes
// (system, each message, reply) and returns the head node.
func (l *Ledger) Record(ctx context.Context, turn llm.ConversationTurn) (*Node, error) {
	if turn.Request == nil {
		return nil, fmt.Errorf("nothing to record")
	}
	req, resp := turn.Request, turn.Response

	var parent *Node

	put := func(bucket Bucket) error {
		node := NewNode(bucket, parent)
		isNew, err := l.storer.Put(ctx, node)
		if err != nil {
			return err
		}
		l.logger.Debug("stored node in ledger",
			zap.String("hash", node.Hash[:16]),
			zap.String("role", string(bucket.Role)),
			zap.Bool("new", isNew),
		)
		parent = node
		return nil
	}

	if req.System != nil {
		if err := put(NewSystemBucket(req.Model, *req.System)); err != nil {
			return nil, fmt.Errorf("storing system node: %w", err)
		}
	}

	for _, msg := range req.Messages {
		if err := put(NewMessageBucket(req.Model, msg)); err != nil {
			return nil, fmt.Errorf("storing message node: %w", err)
		}
	}

	if resp != nil {
		reply := llm.Message{Role: llm.RoleAssistant, Content: resp.Content}
		if err := put(NewMessageBucket(resp.Model, reply)); err != nil {
			return nil, fmt.Errorf("storing response node: %w", err)
		}
	}

	if parent == nil {
		return nil, fmt.Errorf("nothing to record")
	}
	return parent, nil
}

// Stats summarises the shape of the DAG.
type Stats struct {
	TotalNodes int `json:"total_nodes"`
	RootCount  int `json:"root_count"`
	LeafCount  int `json:"leaf_count"`
}

// Stats counts nodes, roots and leaves.
func (l *Ledger) Stats(ctx context.Context) (*Stats, error) {
	nodes, err := l.storer.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	roots, err := l.storer.Roots(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing roots: %w", err)
	}
	leaves, err := l.storer.Leaves(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing leaves: %w", err)
	}
	return &Stats{TotalNodes: len(nodes), RootCount: len(roots), LeafCount: len(leaves)}, nil
}

// Merge copies every node of src into dst and reports how many were new and
// how many already existed.
func Merge(ctx context.Context, dst, src Storer) (added, existing int, err error) {
	nodes, err := src.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("listing source nodes: %w", err)
	}
	for _, n := range nodes {
		isNew, err := dst.Put(ctx, n)
		if err != nil {
			return added, existing, fmt.Errorf("storing node %s: %w", n.Hash, err)
		}
		if isNew {
			added++
		} else {
			existing++
		}
	}
	return added, existing, nil
}

// IngestResult counts the outcome of Ingest.
type IngestResult struct {
	New       int `json:"new"`
	Duplicate int `json:"duplicate"`
	Errors    int `json:"errors"`
}

// Ingest stores nodes received from another ledger. Nodes whose hash does not
// match their content are counted as errors and skipped.
func (l *Ledger) Ingest(ctx context.Context, nodes []*Node) (*IngestResult, error) {
	result := &IngestResult{}
	for _, n := range nodes {
		if n == nil || !n.Verify() {
			result.Errors++
			continue
		}
		isNew, err := l.storer.Put(ctx, n)
		if err != nil {
			return result, fmt.Errorf("storing node %s: %w", n.Hash, err)
		}
		if isNew {
			result.New++
		} else {
			result.Duplicate++
		}
	}
	return result, nil
}
