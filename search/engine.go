package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/specindex/ai"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/storage"
)

// topLoggedChunks is how many result IDs a query log entry keeps.
const topLoggedChunks = 5

// Request is one retrieval request.
type Request struct {
	Query string

	// SectionNumbers restricts results to these sections (any imported version).
	SectionNumbers []string

	// PayItemCode restricts results to chunks mentioning this six-digit code.
	PayItemCode string

	// History holds prior conversation turns, oldest first.
	History []ai.Message

	// Synthesize asks for an answer narrated from the results.
	Synthesize bool

	// MaxResults overrides the engine default when positive.
	MaxResults int

	// Threshold overrides the engine default when set. Zero is a valid threshold.
	Threshold *float32
}

// Response is the result of a retrieval request.
//
// Success is true whenever retrieval itself worked; a failed synthesis leaves
// Answer empty and sets SynthesisError.
type Response struct {
	Query          string
	Chunks         []*core.ChunkMatch
	Answer         string
	SynthesisError string
	Success        bool
	Latency        time.Duration
}

// Engine embeds queries, retrieves matching chunks and optionally narrates an answer.
// It holds no per-query state and is safe for concurrent use.
type Engine struct {
	chunkRepository storage.ChunkRepository
	specRepository  storage.SpecRepository
	queryLog        storage.QueryLogRepository
	embedder        ai.Embedder
	completer       ai.Completer
	modelID         string
	config          Config
	logger          *slog.Logger
	pending         sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine) error

// WithConfig replaces the default configuration.
func WithConfig(config Config) Option {
	return func(e *Engine) error {
		if err := config.Validate(); err != nil {
			return err
		}
		e.config = config
		return nil
	}
}

// WithQueryLog records every query in repo. Logging is off by default.
func WithQueryLog(repo storage.QueryLogRepository) Option {
	return func(e *Engine) error {
		e.queryLog = repo
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a new query engine.
func NewEngine(
	chunkRepository storage.ChunkRepository,
	specRepository storage.SpecRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Engine, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if specRepository == nil {
		return nil, ErrSpecRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		chunkRepository: chunkRepository,
		specRepository:  specRepository,
		embedder:        provider.Embedder(),
		completer:       provider.Completer(),
		modelID:         provider.EmbeddingModelID(),
		config:          DefaultConfig(),
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "search")

	return e, nil
}

// Query runs a retrieval request.
func (e *Engine) Query(ctx context.Context, req *Request) (*Response, error) {
	return e.QueryWithMonitor(ctx, req, nil)
}

// QueryWithMonitor runs a retrieval request, reporting each step to monitor.
//
// Failures of the query embedding or of the similarity search are returned wrapped
// in ErrServiceUnavailable and still logged, with no results. A request that matches
// nothing succeeds with no chunks.
func (e *Engine) QueryWithMonitor(ctx context.Context, req *Request, monitor QueryMonitor) (*Response, error) {
	start := time.Now()
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if req == nil {
		return nil, ErrEmptyQuery
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	monitor.Start(query)

	// 1. Embed the query in the same space as the stored chunks
	embedding, err := e.embedQuery(ctx, query)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", query, "err", err)
		e.logFailure(query, start)
		return nil, fmt.Errorf("%w: embedding query: %w", ErrServiceUnavailable, err)
	}
	monitor.AfterEmbedding(len(embedding))

	resp := &Response{Query: query, Success: true}

	// 2. Resolve filters
	filters, resolved, err := e.resolveFilters(ctx, req)
	if err != nil {
		e.logger.Error("error resolving section filter", "sections", req.SectionNumbers, "err", err)
		e.logFailure(query, start)
		return nil, fmt.Errorf("%w: resolving sections: %w", ErrServiceUnavailable, err)
	}
	monitor.AfterFilterResolution(filters)

	// 3. Similarity search; ranking is the store's
	if resolved {
		matches, err := e.search(ctx, embedding, req, filters)
		if err != nil {
			e.logger.Error("error querying for similar chunks", "err", err)
			e.logFailure(query, start)
			return nil, fmt.Errorf("%w: similarity search: %w", ErrServiceUnavailable, err)
		}
		resp.Chunks = matches
	} else {
		e.logger.Debug("section filter matched no stored section", "sections", req.SectionNumbers)
	}
	monitor.AfterSearch(resp.Chunks)

	// 4. Optional synthesis; failure degrades to retrieval only
	if req.Synthesize && len(resp.Chunks) > 0 {
		answer, err := e.synthesize(ctx, query, req.History, resp.Chunks)
		if err != nil {
			e.logger.Warn("answer synthesis failed, returning retrieval results only", "err", err)
			resp.SynthesisError = err.Error()
			monitor.SynthesisFailed(err)
		} else {
			resp.Answer = answer
		}
	}

	resp.Latency = time.Since(start)

	// 5. Fire-and-forget analytics
	e.logQuery(resp, embedding)

	monitor.Finish(resp)
	return resp, nil
}

// Wait blocks until pending query-log writes have finished.
func (e *Engine) Wait() {
	e.pending.Wait()
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.EmbedTimeout)
	defer cancel()
	return e.embedder.EmbedText(ctx, query)
}

// resolveFilters builds the search filters. resolved is false when a section filter
// was given but names no stored section, in which case nothing can match.
func (e *Engine) resolveFilters(ctx context.Context, req *Request) (core.SearchFilters, bool, error) {
	filters := core.SearchFilters{EmbeddingModel: e.modelID}

	if code := strings.TrimSpace(req.PayItemCode); code != "" {
		filters.PayItemCodes = []string{code}
	}

	var numbers []string
	for _, n := range req.SectionNumbers {
		if n = strings.TrimSpace(n); n != "" {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return filters, true, nil
	}

	ids, err := e.specRepository.ResolveSectionIDs(ctx, numbers...)
	if err != nil {
		return filters, false, err
	}
	filters.SectionIds = ids
	return filters, len(ids) > 0, nil
}

func (e *Engine) search(ctx context.Context, embedding []float32, req *Request, filters core.SearchFilters) ([]*core.ChunkMatch, error) {
	threshold := e.config.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	k := e.config.MaxResults
	if req.MaxResults > 0 {
		k = req.MaxResults
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.SearchTimeout)
	defer cancel()
	return e.chunkRepository.Search(ctx, embedding, threshold, k, filters)
}

func (e *Engine) synthesize(ctx context.Context, query string, history []ai.Message, matches []*core.ChunkMatch) (string, error) {
	if e.completer == nil {
		return "", ErrAIProviderRequired
	}
	ctx, cancel := context.WithTimeout(ctx, e.config.CompletionTimeout)
	defer cancel()

	messages := BuildMessages(history, BuildContextBlock(matches), query, e.config.HistoryTurns)
	return e.completer.Complete(ctx, SystemPrompt, messages)
}

// logFailure records a query that could not be served.
func (e *Engine) logFailure(query string, start time.Time) {
	e.logQuery(&Response{Query: query, Latency: time.Since(start)}, nil)
}

// logQuery writes the analytics entry in the background. Failures are logged and dropped.
func (e *Engine) logQuery(resp *Response, embedding []float32) {
	if e.queryLog == nil {
		return
	}

	entry := &core.QueryLog{
		Query:       resp.Query,
		Embedding:   embedding,
		ResultCount: len(resp.Chunks),
		Answer:      resp.Answer,
		Latency:     resp.Latency,
		Timestamp:   time.Now().UTC(),
	}
	for i, match := range resp.Chunks {
		if i == topLoggedChunks {
			break
		}
		entry.TopChunkIds = append(entry.TopChunkIds, match.Chunk.Id)
	}

	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.config.LogTimeout)
		defer cancel()
		if err := e.queryLog.LogQuery(ctx, entry); err != nil {
			e.logger.Warn("error logging query", "err", err)
		}
	}()
}
