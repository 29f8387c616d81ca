package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bowerhall/willow/internal/agent"
	"github.com/bowerhall/willow/internal/alerts"
	"github.com/bowerhall/willow/internal/config"
	"github.com/bowerhall/willow/internal/dream"
	"github.com/bowerhall/willow/internal/embedder"
	"github.com/bowerhall/willow/internal/llm"
	"github.com/bowerhall/willow/internal/lock"
	"github.com/bowerhall/willow/internal/logger"
	"github.com/bowerhall/willow/internal/memory"
	"github.com/bowerhall/willow/internal/notify"
	"github.com/bowerhall/willow/internal/reminder"
	"github.com/bowerhall/willow/internal/supervisor"
	"github.com/bowerhall/willow/internal/vector"
)

func main() {
	if err := run(); err != nil {
		logger.Fatal("willow failed to start", "error", err)
	}
}

func run() error {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", "timezone", cfg.Timezone)
		location = time.UTC
	}

	store, err := memory.OpenDimensions(cfg.MemoryPath, cfg.Vector.Dimensions)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	store.SetMirrorThreshold(cfg.Vector.MirrorThreshold)
	if len(cfg.Instincts.Tags) > 0 {
		store.SetTagKeywords(cfg.Instincts.Tags)
	}

	embed, err := embedder.New(embedder.Config{
		Provider: cfg.Embedder.Provider,
		BaseURL:  cfg.Embedder.BaseURL,
		Model:    cfg.Embedder.Model,
	})
	if err != nil {
		return fmt.Errorf("embedder: %w", err)
	}

	index, err := buildIndex(cfg.Vector, store)
	if err != nil {
		return fmt.Errorf("vector index: %w", err)
	}

	store.SetEmbedder(embed)
	store.SetIndex(index)

	model, err := llm.New(cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	classifierModel, err := llm.New(cfg.Classifier)
	if err != nil {
		return fmt.Errorf("classifier llm: %w", err)
	}

	var router *vector.Router
	if embed != nil {
		router = vector.NewRouter(index, embed, cfg.Vector.MinScore)
		router.SetClassifier(vector.LLMClassifier(classifierModel, memory.Rooms()))
		router.SetTouch(func(id int64) {
			if err := store.Touch(id); err != nil {
				logger.Debug("touch failed", "id", id, "error", err)
			}
		})
	} else {
		logger.Warn("no embedder configured, semantic recall disabled")
	}

	notifier, err := notify.New(notify.Config{
		TelegramToken:  cfg.Notify.TelegramToken,
		TelegramChatID: cfg.Notify.TelegramChatID,
		DiscordToken:   cfg.Notify.DiscordToken,
		DiscordChannel: cfg.Notify.DiscordChannel,
	})
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}

	// alerts fire from inside loop cycles; a hung transport must not
	// stall the caller
	alertNotifier := notify.WithTimeout(notifier, 15*time.Second)
	alerter := alerts.New(func(message string) {
		if err := alertNotifier.Send(context.Background(), "Willow", message); err != nil {
			logger.Error("alert delivery failed", "error", err)
		}
	}, time.Hour)

	var locker lock.Trigger
	if cfg.Lock.WebhookURL != "" {
		locker = lock.NewWebhook(cfg.Lock.WebhookURL)
	}
	locker = lock.WithFallback(locker, notifier)

	sup := supervisor.New()
	sup.Add(
		agent.New(agent.Options{
			Store:    store,
			Router:   router,
			Model:    model,
			Notifier: notifier,
			Locker:   locker,
			Alerter:  alerter,
			Config:   cfg.Heartbeat,
			Triggers: cfg.Instincts.Triggers,
			Location: location,
		}),
		dream.New(store, model, alerter, cfg.Dream, location),
		reminder.New(store, model, notifier, cfg.Reminder, location),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("willow awake",
		"store", cfg.MemoryPath,
		"vector", cfg.Vector.Backend,
		"provider", cfg.LLM.Provider,
		"timezone", location.String())

	sup.Start(ctx)

	<-ctx.Done()
	logger.Info("shutting down")
	sup.Wait()

	return nil
}

func buildIndex(cfg config.VectorConfig, store *memory.Store) (vector.Index, error) {
	switch cfg.Backend {
	case "chromem":
		path := cfg.ChromemPath
		if path == "" {
			path = "willow.chromem"
		}
		return vector.NewChromemIndex(path)
	case "sqlite", "":
		return memory.NewVecIndex(store), nil
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.Backend)
	}
}
