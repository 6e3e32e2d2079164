package main

import (
	"context"
	"os"
	"time"

	"github.com/fatih/color"

	"ragchat-be/internal/config"
	"ragchat-be/pkg/database"
	"ragchat-be/pkg/embedding"
	"ragchat-be/pkg/llm"
	"ragchat-be/pkg/llm/factory"
)

// healthcheck probes the backing services the API depends on and exits
// non-zero when any of them is unreachable.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	color.Cyan("Checking RAG chat dependencies\n")
	failed := false

	// 1. Embedding service
	color.Yellow("\n[EMBEDDING] %s", cfg.Ai.EmbeddingProvider)
	var provider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel, cfg.Ai.EmbeddingDimension, cfg.Ai.EmbeddingTimeout)
	} else {
		provider = embedding.NewServiceProvider(cfg.Ai.EmbeddingServiceURL, cfg.Ai.EmbeddingModel, cfg.Ai.EmbeddingDimension, cfg.Ai.EmbeddingTimeout)
	}

	if err := provider.Health(ctx); err != nil {
		color.Red("Unavailable: %v", err)
		failed = true
	} else {
		resp, err := provider.Generate(ctx, "healthcheck", "query")
		switch {
		case err != nil:
			color.Red("Healthy but embedding failed: %v", err)
			failed = true
		case len(resp.Embedding.Values) != provider.Dimension():
			color.Red("Dimension mismatch: got %d, want %d", len(resp.Embedding.Values), provider.Dimension())
			failed = true
		default:
			color.Green("OK model=%s dimension=%d", provider.ModelName(), provider.Dimension())
		}

		if svc, ok := provider.(*embedding.ServiceProvider); ok {
			if info, err := svc.Info(ctx); err != nil {
				color.Red("Info unavailable: %v", err)
			} else {
				color.Green("Service reports model=%s dimension=%d max_sequence_length=%d", info.Model, info.Dimension, info.MaxSequenceLength)
			}
		}
	}

	// 2. LLM
	color.Yellow("\n[LLM] %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		APIKey:   cfg.Ai.LLMAPIKey(),
		Timeout:  cfg.Ai.LLMTimeout,
	})
	if err != nil {
		color.Red("Misconfigured: %v", err)
		failed = true
	} else {
		reply, err := llmProvider.Generate(ctx, "Reply with the single word OK.", llm.WithMaxTokens(8))
		if err != nil {
			color.Red("Unavailable: %v", err)
			failed = true
		} else {
			color.Green("OK %s replied %q", llmProvider.Name(), reply)
		}
	}

	// 3. Database
	color.Yellow("\n[DATABASE] %s", cfg.Database.Driver)
	if cfg.Database.Driver == "memory" {
		color.Green("In-memory store, nothing to probe")
	} else {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
		if err != nil {
			color.Red("Connection failed: %v", err)
			failed = true
		} else {
			var version string
			if err := db.WithContext(ctx).Raw("SELECT extversion FROM pg_extension WHERE extname = 'vector'").Scan(&version).Error; err != nil || version == "" {
				color.Red("Connected, but pgvector extension is missing")
				failed = true
			} else {
				color.Green("OK pgvector %s", version)
			}
		}
	}

	if failed {
		color.Red("\nOne or more dependencies are unhealthy")
		os.Exit(1)
	}
	color.Green("\nAll dependencies healthy")
}
