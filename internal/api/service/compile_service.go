package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modgraph/internal/export"
	"modgraph/internal/gen"
	"modgraph/internal/graph"

	"github.com/rs/zerolog"
)

var ErrGraphTooLarge = errors.New("graph has too many nodes")

// CompileEvent is published after every successful compilation
type CompileEvent struct {
	ProjectID   string           `json:"projectId,omitempty"`
	UserID      uint             `json:"userId,omitempty"`
	Origin      string           `json:"origin"`
	Hash        string           `json:"hash"`
	Cached      bool             `json:"cached"`
	Source      string           `json:"source"`
	Roots       []gen.RootInfo   `json:"roots"`
	Diagnostics []gen.Diagnostic `json:"diagnostics"`
	Timestamp   time.Time        `json:"timestamp"`
}

// EventPublisher delivers compile events to other instances
type EventPublisher interface {
	Publish(ctx context.Context, event CompileEvent) error
}

// CompileOutput is a compile result with its cache metadata
type CompileOutput struct {
	Hash   string `json:"hash"`
	Cached bool   `json:"cached"`
	*gen.Result
}

type CompileServiceOptions struct {
	Cache     CompileCache
	Publisher EventPublisher
	Registry  *gen.Registry
	Origin    string
	MaxNodes  int
}

type CompileService struct {
	cache     CompileCache
	publisher EventPublisher
	registry  *gen.Registry
	origin    string
	maxNodes  int
	logger    zerolog.Logger
}

func NewCompileService(logger zerolog.Logger, opts CompileServiceOptions) *CompileService {
	registry := opts.Registry
	if registry == nil {
		registry = gen.DefaultRegistry
	}
	return &CompileService{
		cache:     opts.Cache,
		publisher: opts.Publisher,
		registry:  registry,
		origin:    opts.Origin,
		maxNodes:  opts.MaxNodes,
		logger:    logger,
	}
}

// NodeTypes lists the node types the compiler has rules for
func (slf *CompileService) NodeTypes() []string {
	return slf.registry.Types()
}

// Compile validates and compiles a document. Results are cached by the hash
// of the graph, so metadata changes do not invalidate them.
func (slf *CompileService) Compile(ctx context.Context, doc *graph.Document) (*CompileOutput, error) {
	return slf.compile(ctx, "", 0, doc)
}

// CompileProject compiles a document on behalf of a project and announces the
// result to the project's subscribers.
func (slf *CompileService) CompileProject(ctx context.Context, projectID string, userID uint, doc *graph.Document) (*CompileOutput, error) {
	return slf.compile(ctx, projectID, userID, doc)
}

func (slf *CompileService) compile(ctx context.Context, projectID string, userID uint, doc *graph.Document) (*CompileOutput, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if slf.maxNodes > 0 && len(doc.Nodes) > slf.maxNodes {
		return nil, fmt.Errorf("%w: %d > %d", ErrGraphTooLarge, len(doc.Nodes), slf.maxNodes)
	}

	hash, err := HashDocument(doc, slf.registry.Types())
	if err != nil {
		return nil, err
	}

	out := &CompileOutput{Hash: hash}
	if slf.cache != nil {
		result, ok, err := slf.cache.Get(ctx, hash)
		if err != nil {
			slf.logger.Warn().Err(err).Str("hash", hash).Msg("Compile cache lookup failed")
		}
		if ok {
			out.Cached = true
			out.Result = result
		}
	}

	if out.Result == nil {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		result, err := gen.CompileDocument(doc, gen.WithLogger(slf.logger), gen.WithRegistry(slf.registry))
		if err != nil {
			return nil, err
		}
		out.Result = result
		slf.logger.Debug().
			Str("hash", hash).
			Int("nodes", len(doc.Nodes)).
			Int("roots", len(result.Roots)).
			Int("diagnostics", len(result.Diagnostics)).
			Dur("elapsed", time.Since(start)).
			Msg("Graph compiled")

		if slf.cache != nil {
			if err = slf.cache.Set(ctx, hash, result); err != nil {
				slf.logger.Warn().Err(err).Str("hash", hash).Msg("Compile cache store failed")
			}
		}
	}

	slf.publish(ctx, projectID, userID, out)
	return out, nil
}

func (slf *CompileService) publish(ctx context.Context, projectID string, userID uint, out *CompileOutput) {
	if slf.publisher == nil {
		return
	}
	event := CompileEvent{
		ProjectID:   projectID,
		UserID:      userID,
		Origin:      slf.origin,
		Hash:        out.Hash,
		Cached:      out.Cached,
		Source:      out.Source,
		Roots:       out.Roots,
		Diagnostics: out.Diagnostics,
		Timestamp:   time.Now(),
	}
	if err := slf.publisher.Publish(ctx, event); err != nil {
		slf.logger.Warn().Err(err).Str("projectId", projectID).Msg("Failed to publish compile event")
	}
}

// Export compiles a document and wraps the script with the mod header and the
// embedded project.
func (slf *CompileService) Export(ctx context.Context, doc *graph.Document) (string, *CompileOutput, error) {
	out, err := slf.Compile(ctx, doc)
	if err != nil {
		return "", nil, err
	}
	script, err := export.Wrap(out.Source, doc)
	if err != nil {
		return "", nil, err
	}
	return script, out, nil
}

// Recover extracts the project embedded in an exported script
func (slf *CompileService) Recover(script string) (*graph.Document, error) {
	return export.Recover(script)
}

// HashDocument returns the sha256 of the graph's canonical JSON. Only nodes
// and connections take part, along with the node types of the registry that
// compiles them.
func HashDocument(doc *graph.Document, nodeTypes []string) (string, error) {
	data, err := json.Marshal(struct {
		Nodes       []graph.Node       `json:"nodes"`
		Connections []graph.Connection `json:"connections"`
		NodeTypes   []string           `json:"nodeTypes"`
	}{doc.Nodes, doc.Connections, nodeTypes})
	if err != nil {
		return "", fmt.Errorf("failed to hash document: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
