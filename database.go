// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package specindex

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/poiesic/specindex/ai"
	"github.com/poiesic/specindex/ai/openai"
	"github.com/poiesic/specindex/ingestion"
	"github.com/poiesic/specindex/loader"
	"github.com/poiesic/specindex/reembed"
	"github.com/poiesic/specindex/search"
	"github.com/poiesic/specindex/storage"
	"github.com/poiesic/specindex/storage/badger"
)

// Database ties the badger store to an AI provider and builds the pipelines that use them.
type Database struct {
	store    *badger.Store
	provider ai.AIProvider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the configuration of the OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a ready provider instead of building one from the AI config.
// The database takes ownership and closes it.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all data in memory; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the store at filePath and creates the AI provider.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	var (
		store *badger.Store
		err   error
	)
	if options.inMemory {
		store, err = badger.NewMemoryStore()
	} else {
		store, err = badger.OpenStore(filePath)
	}
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	return &Database{
		store:    store,
		provider: provider,
		logger:   options.logger.With("component", "database"),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) SpecRepository() storage.SpecRepository {
	return db.store.Spec
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.store.Chunks
}

func (db *Database) QueryLogRepository() storage.QueryLogRepository {
	return db.store.QueryLog
}

// Provider returns the AI provider used for embedding and synthesis.
func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.store.Spec, db.store.Chunks, db.provider, opts...)
}

// IngestFile loads a text or PDF manual and imports it as a new document version
// named after the file.
func (db *Database) IngestFile(ctx context.Context, path string, opts ...ingestion.Option) (*ingestion.Report, error) {
	raw, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return pipeline.Ingest(ctx, name, raw)
}

// NewQueryEngine creates a query engine. Queries are recorded in the query log
// unless disabled with logQueries.
func (db *Database) NewQueryEngine(logQueries bool, opts ...search.Option) (*search.Engine, error) {
	if logQueries {
		opts = append([]search.Option{search.WithQueryLog(db.store.QueryLog)}, opts...)
	}
	return search.NewEngine(db.store.Chunks, db.store.Spec, db.provider, opts...)
}

// NewReembedder creates a reembedder that rewrites every stored vector with the
// provider's current embedding model.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if db.provider.Embedder() == nil {
		return nil, errors.New("provider has no embedder")
	}
	return reembed.NewReembedder(db.store.Spec, db.store.Chunks, db.provider.Embedder(), db.provider.EmbeddingModelID(), config, progress)
}
