package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/specindex"
	"github.com/poiesic/specindex/config"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/ingestion"
	"github.com/poiesic/specindex/loader"
	"github.com/poiesic/specindex/search"
	"github.com/poiesic/specindex/server"
	"github.com/poiesic/specindex/storage"
	"github.com/urfave/cli/v2"
)

func openDatabase(cfg *config.Config) (*specindex.Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return specindex.NewDatabase(cfg.Database.Path, specindex.WithAIConfig(cfg.AIConfig()))
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("ingest requires exactly one file argument")
	}
	path := c.Args().First()

	cfg, err := appConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("batch-size") {
		cfg.Embedding.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("parallelism") {
		cfg.Embedding.Parallelism = c.Int("parallelism")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []ingestion.Option{ingestion.WithEmbeddingConfig(cfg.EmbeddingConfig())}
	if c.Bool("progress") {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Database.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", db.Provider().EmbeddingModelID())

	var report *ingestion.Report
	if name := c.String("name"); name != "" {
		report, err = ingestNamed(c.Context, db, path, name, opts)
	} else {
		report, err = db.IngestFile(c.Context, path, opts...)
	}
	if report != nil {
		renderReport(c.App.Writer, report)
	}
	return err
}

func ingestNamed(ctx context.Context, db *specindex.Database, path, name string, opts []ingestion.Option) (*ingestion.Report, error) {
	raw, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return nil, err
	}
	return pipeline.Ingest(ctx, name, raw)
}

func queryCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("query requires a question")
	}

	cfg, err := appConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("max-results") {
		cfg.Search.MaxResults = c.Int("max-results")
	}
	if c.IsSet("threshold") {
		cfg.Search.Threshold = float32(c.Float64("threshold"))
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewQueryEngine(cfg.Search.LogQueriesOrDefault(), search.WithConfig(cfg.SearchConfig()))
	if err != nil {
		return err
	}
	defer engine.Wait()

	var monitor search.QueryMonitor
	if c.Bool("verbose") {
		monitor = newPrintingMonitor(c.App.ErrWriter)
	}

	resp, err := engine.QueryWithMonitor(c.Context, &search.Request{
		Query:          question,
		SectionNumbers: c.StringSlice("section"),
		PayItemCode:    c.String("pay-item"),
		Synthesize:     !c.Bool("no-answer"),
	}, monitor)
	if err != nil {
		return err
	}
	renderResponse(c.App.Writer, resp)
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := appConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewQueryEngine(cfg.Search.LogQueriesOrDefault(), search.WithConfig(cfg.SearchConfig()))
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithAddr(cfg.Server.Addr)}
	if cfg.Server.RequestTimeout > 0 {
		opts = append(opts, server.WithRequestTimeout(cfg.Server.RequestTimeout))
	}
	if cfg.Search.LogQueriesOrDefault() {
		opts = append(opts, server.WithQueryLog(db.QueryLogRepository()))
	}
	srv, err := server.NewServer(engine, db.SpecRepository(), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func reembedCommand(c *cli.Context) error {
	cfg, err := appConfig(c)
	if err != nil {
		return err
	}

	reembedCfg := cfg.ReembedConfig()
	if c.IsSet("batch-size") {
		batchSize := c.Int("batch-size")
		if batchSize <= 0 {
			return fmt.Errorf("batch-size must be positive, got %d", batchSize)
		}
		reembedCfg.BatchSize = batchSize
		reembedCfg.ReportInterval = batchSize
	}
	if c.IsSet("max-retries") {
		maxRetries := c.Int("max-retries")
		if maxRetries <= 0 {
			return fmt.Errorf("max-retries must be positive, got %d", maxRetries)
		}
		reembedCfg.MaxRetries = maxRetries
	}
	if c.IsSet("retry-delay") {
		retryDelay := c.Duration("retry-delay")
		if retryDelay <= 0 {
			return fmt.Errorf("retry-delay must be positive, got %v", retryDelay)
		}
		reembedCfg.RetryDelay = retryDelay
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Database.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", db.Provider().EmbeddingModelID())

	reembedder, err := db.NewReembedder(reembedCfg, c.App.ErrWriter)
	if err != nil {
		return err
	}
	result, err := reembedder.Run(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Re-embedded %d chunks across %d documents (%d dimensions) in %s\n",
		result.Chunks, result.Documents, result.Dimensions, result.Duration)
	return nil
}

func sectionsCommand(c *cli.Context) error {
	cfg, err := appConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := db.SpecRepository()
	doc, err := selectDocument(c.Context, repo, c.Uint64("document"))
	if err != nil {
		return err
	}

	if c.NArg() == 0 {
		sections, err := repo.GetSections(c.Context, doc.Id)
		if err != nil {
			return err
		}
		renderSections(c.App.Writer, doc, sections)
		return nil
	}

	section, err := repo.GetSection(c.Context, doc.Id, c.Args().First())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("section %s not found in document %q", c.Args().First(), doc.Name)
		}
		return err
	}
	subsections, err := repo.GetSubsections(c.Context, section.Id)
	if err != nil {
		return err
	}
	renderSection(c.App.Writer, section, subsections)
	return nil
}

func queriesCommand(c *cli.Context) error {
	limit := c.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}
	cfg, err := appConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.QueryLogRepository().RecentQueries(c.Context, limit)
	if err != nil {
		return err
	}
	renderQueries(c.App.Writer, entries)
	return nil
}

// selectDocument returns the document with the given ID, or the latest import when id is zero.
func selectDocument(ctx context.Context, repo storage.SpecRepository, id uint64) (*core.Document, error) {
	var (
		doc *core.Document
		err error
	)
	if id == 0 {
		doc, err = repo.LatestDocument(ctx)
	} else {
		doc, err = repo.GetDocument(ctx, core.ID(id))
	}
	if errors.Is(err, storage.ErrNotFound) {
		if id == 0 {
			return nil, errNoDocument
		}
		return nil, fmt.Errorf("document %d not found", id)
	}
	return doc, err
}

var errNoDocument = errors.New("no document imported; run 'specindex ingest <file>' first")
