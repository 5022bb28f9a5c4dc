package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/poiesic/specindex"
	"github.com/poiesic/specindex/ai/mock"
	"github.com/poiesic/specindex/config"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const manual = `DIVISION 600 INCIDENTAL CONSTRUCTION

SECTION 624
SHOTCRETE

624.1-DESCRIPTION: This work consists of furnishing and placing shotcrete on prepared
surfaces in accordance with these specifications.

624.6-CONSTRUCTION REQUIREMENTS: Apply shotcrete in layers not exceeding 50 mm.

PAY ITEMS:
624001 Shotcrete SQ M
`

// seedDatabase imports the manual into a database directory and closes it.
func seedDatabase(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "db")
	db, err := specindex.NewDatabase(dir, specindex.WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	_, err = pipeline.Ingest(context.Background(), "standard-specs", manual)
	require.NoError(t, err)

	err = db.QueryLogRepository().LogQuery(context.Background(), &core.QueryLog{
		Query:       "shotcrete layer thickness",
		ResultCount: 2,
		Latency:     120 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return dir
}

// runApp runs the CLI and returns what it wrote to stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"specindex"}, args...))
	return out.String(), err
}

func findCommand(app *cli.App, name string) *cli.Command {
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func TestNewApp(t *testing.T) {
	app := newApp()

	t.Run("has every command", func(t *testing.T) {
		for _, name := range []string{"ingest", "query", "serve", "reembed", "sections", "queries"} {
			assert.NotNil(t, findCommand(app, name), name)
		}
	})

	t.Run("log-level defaults to info", func(t *testing.T) {
		var levelFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "log-level" {
				levelFlag = f
			}
		}
		require.NotNil(t, levelFlag)
		assert.Equal(t, "info", levelFlag.Value)
		assert.Equal(t, []string{"l"}, levelFlag.Aliases)
	})

	t.Run("queries limit defaults to 20", func(t *testing.T) {
		cmd := findCommand(app, "queries")
		require.NotNil(t, cmd)
		var limitFlag *cli.IntFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "limit" {
				limitFlag = f
			}
		}
		require.NotNil(t, limitFlag)
		assert.Equal(t, 20, limitFlag.Value)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("db flag overrides config", func(t *testing.T) {
		app := newApp()
		app.Commands = nil
		app.Action = func(c *cli.Context) error {
			cfg, err := appConfig(c)
			require.NoError(t, err)
			assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
			return nil
		}
		require.NoError(t, app.Run([]string{"specindex", "--db", "/tmp/override.db"}))
	})

	t.Run("reads yaml config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "specindex.yaml")
		require.NoError(t, os.WriteFile(path, []byte("search:\n  max_results: 7\n"), 0o600))

		app := newApp()
		app.Commands = nil
		app.Action = func(c *cli.Context) error {
			cfg, err := appConfig(c)
			require.NoError(t, err)
			assert.Equal(t, 7, cfg.Search.MaxResults)
			return nil
		}
		require.NoError(t, app.Run([]string{"specindex", "--config", path}))
	})

	t.Run("invalid yaml fails before any command", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "specindex.yaml")
		require.NoError(t, os.WriteFile(path, []byte("search: [unclosed"), 0o600))

		_, err := runApp(t, "--config", path, "sections")
		require.Error(t, err)
	})

	t.Run("missing metadata", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Action: func(c *cli.Context) error {
				_, err := appConfig(c)
				return err
			},
		}
		err := app.Run([]string{"test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration not loaded")
	})
}

func TestArgumentValidation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	t.Run("ingest requires a file", func(t *testing.T) {
		_, err := runApp(t, "--db", dir, "ingest")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "one file argument")
	})

	t.Run("ingest rejects unsupported files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manual.docx")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
		_, err := runApp(t, "--db", dir, "ingest", "--progress=false", path)
		require.Error(t, err)
	})

	t.Run("query requires a question", func(t *testing.T) {
		_, err := runApp(t, "--db", dir, "query", "  ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a question")
	})

	t.Run("reembed rejects non-positive batch size", func(t *testing.T) {
		_, err := runApp(t, "--db", dir, "reembed", "--batch-size", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size must be positive")
	})

	t.Run("reembed rejects non-positive retry delay", func(t *testing.T) {
		_, err := runApp(t, "--db", dir, "reembed", "--retry-delay", "0s")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry-delay must be positive")
	})

	t.Run("queries rejects non-positive limit", func(t *testing.T) {
		_, err := runApp(t, "--db", dir, "queries", "--limit", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "limit must be positive")
	})
}

func TestSectionsCommand(t *testing.T) {
	dir := seedDatabase(t)

	t.Run("lists sections of the latest document", func(t *testing.T) {
		out, err := runApp(t, "--db", dir, "sections")
		require.NoError(t, err)
		assert.Contains(t, out, "standard-specs")
		assert.Contains(t, out, "Division 600")
		assert.Contains(t, out, "624  SHOTCRETE")
		assert.Contains(t, out, "(1 pay items)")
	})

	t.Run("shows one section", func(t *testing.T) {
		out, err := runApp(t, "--db", dir, "sections", "624")
		require.NoError(t, err)
		assert.Contains(t, out, "SECTION 624 SHOTCRETE")
		assert.Contains(t, out, "624.1 DESCRIPTION")
		assert.Contains(t, out, "624.6 CONSTRUCTION REQUIREMENTS")
		assert.Contains(t, out, "pay items: 624001")
	})

	t.Run("unknown section", func(t *testing.T) {
		_, err := runApp(t, "--db", dir, "sections", "999")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "section 999 not found")
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := runApp(t, "--db", dir, "sections", "--document", "42")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "document 42 not found")
	})

	t.Run("empty database", func(t *testing.T) {
		_, err := runApp(t, "--db", filepath.Join(t.TempDir(), "empty"), "sections")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errNoDocument))
	})
}

func TestQueriesCommand(t *testing.T) {
	dir := seedDatabase(t)

	out, err := runApp(t, "--db", dir, "queries")
	require.NoError(t, err)
	assert.Contains(t, out, `"shotcrete layer thickness"`)
	assert.Contains(t, out, "2 results")
	assert.Contains(t, out, "120ms")

	out, err = runApp(t, "--db", filepath.Join(t.TempDir(), "empty"), "queries")
	require.NoError(t, err)
	assert.Contains(t, out, "No queries logged.")
}

func TestRenderResponse(t *testing.T) {
	chunk := &core.ChunkWithEmbedding{
		Chunk: core.Chunk{
			SectionNumber:    "624",
			SubsectionNumber: "624.6",
			Content:          "Apply shotcrete in layers not exceeding 50 mm.",
			ChunkType:        core.ChunkTypeConstruction,
			PayItemCodes:     []string{"624001"},
		},
	}

	t.Run("answer and excerpts", func(t *testing.T) {
		var buf bytes.Buffer
		renderResponse(&buf, &search.Response{
			Query:   "shotcrete layers",
			Chunks:  []*core.ChunkMatch{{Chunk: chunk, Similarity: 0.91}},
			Answer:  "Layers may not exceed 50 mm (Section 624.6).",
			Success: true,
		})
		out := buf.String()
		assert.Contains(t, out, "Answer\nLayers may not exceed 50 mm (Section 624.6).")
		assert.Contains(t, out, "Excerpts (1)")
		assert.Contains(t, out, "[1] Subsection 624.6")
		assert.Contains(t, out, "0.910  CONSTRUCTION")
		assert.Contains(t, out, "pay items: 624001")
	})

	t.Run("synthesis failure", func(t *testing.T) {
		var buf bytes.Buffer
		renderResponse(&buf, &search.Response{
			Query:          "shotcrete",
			Chunks:         []*core.ChunkMatch{{Chunk: chunk, Similarity: 0.8}},
			SynthesisError: "context deadline exceeded",
			Success:        true,
		})
		assert.Contains(t, buf.String(), "Answer unavailable: context deadline exceeded")
		assert.NotContains(t, buf.String(), "Answer\n")
	})

	t.Run("no results", func(t *testing.T) {
		var buf bytes.Buffer
		renderResponse(&buf, &search.Response{Query: "asphalt", Success: true})
		assert.Contains(t, buf.String(), "No matching specification content found.")
	})
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short text", excerpt("short\n  text"))

	long := strings.Repeat("word ", 100)
	got := excerpt(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), excerptWidth+3)
	assert.NotContains(t, got, "wor...")
}

func TestPrintingMonitor(t *testing.T) {
	var buf bytes.Buffer
	monitor := newPrintingMonitor(&buf)

	monitor.Start("shotcrete")
	monitor.AfterEmbedding(384)
	monitor.AfterFilterResolution(core.SearchFilters{SectionIds: []core.ID{1, 2}, EmbeddingModel: "m@384"})
	monitor.AfterSearch(make([]*core.ChunkMatch, 3))
	monitor.SynthesisFailed(errors.New("timeout"))
	monitor.Finish(&search.Response{})

	out := buf.String()
	assert.Contains(t, out, `query: "shotcrete"`)
	assert.Contains(t, out, "384 dimensions")
	assert.Contains(t, out, "2 section ids")
	assert.Contains(t, out, "found 3 chunks")
	assert.Contains(t, out, "synthesis failed: timeout")
	assert.Contains(t, out, "done in")
}

func TestSetupLogger(t *testing.T) {
	newLoggerApp := func(action cli.ActionFunc) *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: action,
		}
	}
	noop := func(c *cli.Context) error { return nil }

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := newLoggerApp(noop).Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
				assert.True(t, slog.Default().Enabled(context.Background(), tc.expected))
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				err := newLoggerApp(noop).Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newLoggerApp(noop).Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		err := newLoggerApp(func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		}).Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestOpenDatabaseRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = ""
	_, err := openDatabase(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestMain(m *testing.M) {
	color.NoColor = true
	code := m.Run()
	os.Exit(code)
}
