package bot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/kumabot/kumabot/booru"
	"github.com/kumabot/kumabot/cache"
	"github.com/kumabot/kumabot/chat"
	"github.com/kumabot/kumabot/command"
	"github.com/kumabot/kumabot/config"
	"github.com/kumabot/kumabot/store"

	"github.com/redis/go-redis/v9"
)

// Bot bundles one assembled core processor with the shared collaborators
// the hosting process also needs.
type Bot struct {
	Processor *Processor
	Store     *store.Store
	Redis     *redis.Client
}

// Prepare builds the full core from the loaded configuration: redis
// client, sqlite store, retrieval engine, command registry, default chat
// handler, and the processor over them.
func Prepare(ctx context.Context) (*Bot, error) {
	conf := config.GetConfig()

	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	dbPath := conf.Database.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(config.GetWorkspaceDir(), dbPath)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	client := booru.NewClient(booru.ClientConfig{
		BaseURL:  conf.Danbooru.BaseURL,
		Username: conf.Danbooru.Username,
		APIKey:   conf.Danbooru.APIKey,
	})
	retriever := booru.NewRetriever(client, cache.New(rdb), st, booru.RetrieverConfig{
		BaseURL: client.BaseURL(),
	})

	set := command.NewSet(retriever, st)

	var fallback command.HandlerFunc
	if conf.OpenAI.ApiKey != "" {
		chatHandler, err := chat.New(chat.Config{
			ApiKey:  conf.OpenAI.ApiKey,
			BaseURL: conf.OpenAI.BaseURL,
		}, st)
		if err != nil {
			st.Close()
			rdb.Close()
			return nil, fmt.Errorf("failed to build chat handler: %w", err)
		}
		fallback = chatHandler.Handle
	} else {
		slog.Info("[bot] no openai key configured, chat fallthrough disabled")
	}

	processor := NewProcessor(set.Registry(), ProcessorConfig{
		Fallback: fallback,
		Logs:     st,
	})

	return &Bot{
		Processor: processor,
		Store:     st,
		Redis:     rdb,
	}, nil
}

func (b *Bot) Close() {
	if err := b.Store.Close(); err != nil {
		slog.Error("[bot] failed to close store", "error", err)
	}
	if err := b.Redis.Close(); err != nil {
		slog.Error("[bot] failed to close redis", "error", err)
	}
}
