// Copyright 2025 Evidentia Labs
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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/evidentia/grounder"
	"github.com/evidentia/grounder/ai"
	"github.com/evidentia/grounder/core"
	"github.com/evidentia/grounder/ingest"
	"github.com/evidentia/grounder/reembed"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "grounder",
		Usage: "Retrieval-augmented query engine with access-controlled hybrid search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "Load a small demonstration corpus with mixed ownership",
				Action: seedCommand,
				Flags:  append(dbFlags(), aiFlags()...),
			},
			{
				Name:      "ingest",
				Usage:     "Chunk, embed, and index a document from a file",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: append(append(dbFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:  "document-id",
						Usage: "Document identifier (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Owner user ID for the document",
					},
					&cli.StringFlag{
						Name:  "owner-email",
						Usage: "Owner email address",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the document visible to everyone",
					},
					&cli.StringSliceFlag{
						Name:  "share-with",
						Usage: "User ID or email to share the document with (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:    "group",
						Aliases: []string{"g"},
						Usage:   "Group the document is shared with (repeatable)",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk size in words",
						Value: ingest.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Overlap between adjacent chunks in words",
						Value: ingest.DefaultChunkOverlap,
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate embeddings for every stored chunk",
				Action: reembedCommand,
				Flags: append(append(dbFlags(), aiFlags()...),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Chunks per embedding batch",
						Value: reembed.DefaultConfig().BatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: reembed.DefaultConfig().ReportInterval,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Retry attempts for failed embedding calls",
						Value: reembed.DefaultConfig().MaxRetries,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for retry backoff",
						Value: reembed.DefaultConfig().RetryDelay,
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Ask a question against the indexed corpus",
				ArgsUsage: "<question>",
				Action:    queryCommand,
				Flags: append(append(dbFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID the query runs as",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "email",
						Usage: "User email, matched against per-chunk sharing lists",
					},
					&cli.StringSliceFlag{
						Name:    "group",
						Aliases: []string{"g"},
						Usage:   "Group membership (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "admin",
						Usage: "Bypass access filtering",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Search mode: semantic, text, or hybrid",
						Value: string(core.SearchModeHybrid),
					},
					&cli.IntFlag{
						Name:  "match-count",
						Usage: "Results requested from each index backend",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "no-decompose",
						Usage: "Skip question decomposition",
					},
					&cli.BoolFlag{
						Name:  "no-grade",
						Usage: "Skip relevance grading",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

func aiFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: defaults.EmbeddingHost,
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: defaults.EmbeddingModel,
		},
		&cli.IntFlag{
			Name:  "embedding-dimensions",
			Usage: "Vector dimension the embedding model emits",
			Value: defaults.EmbeddingDimensions,
		},
		&cli.StringFlag{
			Name:  "completion-host",
			Usage: "Completion service host URL",
			Value: defaults.CompletionHost,
		},
		&cli.StringFlag{
			Name:  "completion-model",
			Usage: "Completion model name",
			Value: defaults.CompletionModel,
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingDimensions(c.Int("embedding-dimensions")),
		ai.WithCompletionHost(c.String("completion-host")),
		ai.WithCompletionModel(c.String("completion-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

// demoChunk is one entry of the seed corpus.
type demoChunk struct {
	documentID string
	content    string
	metadata   core.ChunkMetadata
}

// demoCorpus mixes private, shared, group-scoped, and public chunks so
// access filtering is observable from the CLI.
var demoCorpus = []demoChunk{
	{
		documentID: "handbook",
		content:    "Refund requests are honored within 30 days of purchase with proof of payment.",
		metadata:   core.ChunkMetadata{IsPublic: true, SourceURI: "handbook/refunds.md"},
	},
	{
		documentID: "handbook",
		content:    "Support tickets escalate to the on-call engineer after two business days without response.",
		metadata:   core.ChunkMetadata{IsPublic: true, SourceURI: "handbook/support.md", ChunkIndex: 1},
	},
	{
		documentID: "eng-runbook",
		content:    "Production deployments require approval from the release manager and a green canary run.",
		metadata:   core.ChunkMetadata{GroupIDs: []string{"engineering"}, SourceURI: "runbooks/deploy.md"},
	},
	{
		documentID: "alice-notes",
		content:    "Alice's draft proposal: migrate the billing service to usage-based pricing next quarter.",
		metadata:   core.ChunkMetadata{OwnerID: "alice", OwnerEmail: "alice@example.com", SourceURI: "notes/billing.md"},
	},
	{
		documentID: "bob-notes",
		content:    "Bob's vendor shortlist for the data warehouse renewal, shared with Alice for review.",
		metadata:   core.ChunkMetadata{OwnerID: "bob", SharedWith: []string{"alice@example.com"}, SourceURI: "notes/vendors.md"},
	},
	{
		documentID: "bob-notes",
		content:    "Bob's private compensation planning spreadsheet notes.",
		metadata:   core.ChunkMetadata{OwnerID: "bob", SourceURI: "notes/comp.md", ChunkIndex: 1},
	},
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	engine, err := grounder.Open(c.String("db"), grounder.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	embedder := engine.Provider().Embedder()
	for _, entry := range demoCorpus {
		embedding, err := embedder.EmbedText(ctx, entry.content)
		if err != nil {
			return fmt.Errorf("failed to embed seed chunk: %w", err)
		}
		chunk := &core.Chunk{
			DocumentID: entry.documentID,
			Content:    entry.content,
			Embedding:  embedding,
			Metadata:   entry.metadata,
		}
		if err := engine.Store().AddChunks(ctx, chunk); err != nil {
			return fmt.Errorf("failed to store seed chunk: %w", err)
		}
	}

	count, err := engine.Store().CountChunks(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Seeded %d chunks into %s\n", count, c.String("db"))
	return nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one file argument is required")
	}
	filePath := c.Args().First()

	text, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	documentID := c.String("document-id")
	if documentID == "" {
		documentID = filepath.Base(filePath)
	}

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	engine, err := grounder.Open(c.String("db"), grounder.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	pipeline, err := ingest.NewPipeline(engine.Store(), engine.Provider().Embedder(),
		ingest.WithChunking(c.Int("chunk-size"), c.Int("chunk-overlap")))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	metadata := core.ChunkMetadata{
		OwnerID:    c.String("owner"),
		OwnerEmail: c.String("owner-email"),
		IsPublic:   c.Bool("public"),
		SharedWith: c.StringSlice("share-with"),
		GroupIDs:   c.StringSlice("group"),
		SourceURI:  filePath,
	}

	chunks, err := pipeline.IngestDocument(context.Background(), documentID, string(text), metadata)
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", filePath, err)
	}

	fmt.Fprintf(os.Stderr, "Ingested %q as %d chunks\n", documentID, len(chunks))
	return nil
}

func reembedCommand(c *cli.Context) error {
	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	engine, err := grounder.Open(c.String("db"), grounder.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	reembedder, err := reembed.NewReembedder(engine.Store(), engine.Provider().Embedder(), config, os.Stderr)
	if err != nil {
		return err
	}

	return reembedder.Run(context.Background())
}

func queryCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	engine, err := grounder.Open(c.String("db"), grounder.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	accessCtx := core.AccessContext{
		UserID:    c.String("user"),
		UserEmail: c.String("email"),
		IsAdmin:   c.Bool("admin"),
		GroupIDs:  c.StringSlice("group"),
	}

	options := core.DefaultQueryOptions()
	options.SearchMode = core.SearchMode(c.String("mode"))
	options.MatchCount = c.Int("match-count")
	options.UseDecomposition = !c.Bool("no-decompose")
	options.UseGrading = !c.Bool("no-grade")

	answer, err := engine.Query(context.Background(), question, accessCtx, options)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	if len(answer.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, citation := range answer.Citations {
			fmt.Printf("  %s %s\n", citation.Marker, citation.DocumentSource)
		}
	}
	if answer.FailedSubQueries > 0 {
		fmt.Fprintf(os.Stderr, "\nNote: %d sub-quer%s failed and %s excluded from this answer.\n",
			answer.FailedSubQueries,
			pluralSuffix(answer.FailedSubQueries, "y", "ies"),
			pluralSuffix(answer.FailedSubQueries, "was", "were"))
	}
	return nil
}

func pluralSuffix(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
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
