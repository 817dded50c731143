package core

import (
	"context"
	"fmt"

	"github.com/ava-assistant/avamem-go/pkg/embedder"
	geminiEmbedder "github.com/ava-assistant/avamem-go/pkg/embedder/gemini"
	"github.com/ava-assistant/avamem-go/pkg/embedder/hash"
	ollamaEmbedder "github.com/ava-assistant/avamem-go/pkg/embedder/ollama"
	openaiEmbedder "github.com/ava-assistant/avamem-go/pkg/embedder/openai"
	qwenEmbedder "github.com/ava-assistant/avamem-go/pkg/embedder/qwen"
	"github.com/ava-assistant/avamem-go/pkg/llm"
	anthropicLLM "github.com/ava-assistant/avamem-go/pkg/llm/anthropic"
	deepseekLLM "github.com/ava-assistant/avamem-go/pkg/llm/deepseek"
	geminiLLM "github.com/ava-assistant/avamem-go/pkg/llm/gemini"
	ollamaLLM "github.com/ava-assistant/avamem-go/pkg/llm/ollama"
	openaiLLM "github.com/ava-assistant/avamem-go/pkg/llm/openai"
	qwenLLM "github.com/ava-assistant/avamem-go/pkg/llm/qwen"
	"github.com/ava-assistant/avamem-go/pkg/storage"
	"github.com/ava-assistant/avamem-go/pkg/storage/jsonfile"
	"github.com/ava-assistant/avamem-go/pkg/storage/sqlstore"
)

// initLLM initializes the chat provider.
func initLLM(ctx context.Context, cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		c, err := geminiLLM.NewClient(ctx, &geminiLLM.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "openai":
		c, err := openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "deepseek":
		c, err := deepseekLLM.NewClient(&deepseekLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "qwen":
		c, err := qwenLLM.NewClient(&qwenLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "ollama":
		c, err := ollamaLLM.NewClient(&ollamaLLM.Config{
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "anthropic":
		c, err := anthropicLLM.NewClient(&anthropicLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, NewMemoryError("initLLM", fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, cfg.Provider))
	}
}

// initEmbedder initializes the embedding provider.
func initEmbedder(ctx context.Context, cfg EmbedderConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		c, err := geminiEmbedder.NewClient(ctx, &geminiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "openai":
		c, err := openaiEmbedder.NewClient(&openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "qwen":
		c, err := qwenEmbedder.NewClient(&qwenEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "ollama":
		c, err := ollamaEmbedder.NewClient(&ollamaEmbedder.Config{
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "hash":
		return hash.New(cfg.Dimensions), nil
	default:
		return nil, NewMemoryError("initEmbedder", fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, cfg.Provider))
	}
}

// initBackend initializes the persistence backend.
func initBackend(ctx context.Context, cfg StoreConfig) (storage.Backend, error) {
	switch cfg.Provider {
	case "json", "":
		c, err := jsonfile.NewClient(&jsonfile.Config{Path: cfg.File})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "sqlite":
		c, err := sqlstore.NewSQLite(ctx, &sqlstore.SQLiteConfig{
			DBPath:    cfg.SQLitePath,
			TableName: cfg.Table,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "postgres":
		c, err := sqlstore.NewPostgres(ctx, &sqlstore.PostgresConfig{
			Host:      cfg.Host,
			Port:      cfg.Port,
			User:      cfg.User,
			Password:  cfg.Password,
			DBName:    cfg.Database,
			SSLMode:   cfg.SSLMode,
			TableName: cfg.Table,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "mysql":
		c, err := sqlstore.NewMySQL(ctx, &sqlstore.MySQLConfig{
			Host:      cfg.Host,
			Port:      cfg.Port,
			User:      cfg.User,
			Password:  cfg.Password,
			DBName:    cfg.Database,
			TableName: cfg.Table,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, NewMemoryError("initBackend", fmt.Errorf("%w: unknown memory provider %q", ErrInvalidConfig, cfg.Provider))
	}
}
