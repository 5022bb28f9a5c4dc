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


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/specindex/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "specindex",
		Usage: "Index and query highway construction specification manuals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file (defaults apply when missing)",
				Value:   "specindex.yaml",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files instead of ./.env",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Parse, chunk and embed a specification manual (text or PDF)",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Document name (defaults to the file name)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks per embedding request (overrides config)",
					},
					&cli.IntFlag{
						Name:  "parallelism",
						Usage: "Embedding requests in flight at once (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Show embedding progress on stderr",
						Value: true,
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Ask a question against the ingested specifications",
				ArgsUsage: "<question>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "section",
						Aliases: []string{"s"},
						Usage:   "Restrict results to a section number (repeatable)",
					},
					&cli.StringFlag{
						Name:    "pay-item",
						Aliases: []string{"p"},
						Usage:   "Restrict results to chunks mentioning a six-digit pay item code",
					},
					&cli.BoolFlag{
						Name:  "no-answer",
						Usage: "Return retrieved excerpts only, without answer synthesis",
					},
					&cli.IntFlag{
						Name:    "max-results",
						Aliases: []string{"k"},
						Usage:   "Maximum number of excerpts (overrides config)",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum cosine similarity (overrides config)",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print each query step",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP query API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed every stored chunk with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch (overrides config)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per embedding request (overrides config)",
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff (overrides config)",
					},
				},
			},
			{
				Name:      "sections",
				Usage:     "List the sections of a document, or show one section",
				ArgsUsage: "[section number]",
				Action:    sectionsCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:  "document",
						Usage: "Document ID (defaults to the latest import)",
					},
				},
			},
			{
				Name:   "queries",
				Usage:  "Show recently logged queries",
				Action: queriesCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of queries to show",
						Value: 20,
					},
				},
			},
		},
	}
}

func before(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	return loadConfig(c)
}

// loadConfig reads .env files and the YAML config, applies global flag overrides and
// stores the result in the app metadata.
func loadConfig(c *cli.Context) error {
	if err := config.LoadEnv(c.StringSlice("env-file")...); err != nil {
		return err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("db") {
		cfg.Database.Path = c.String("db")
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func appConfig(c *cli.Context) (*config.Config, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second
