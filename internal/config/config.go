package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bowerhall/willow/internal/llm"
	"github.com/bowerhall/willow/internal/memory"
)

func Load() (*Config, error) {
	memoryPath := os.Getenv("WILLOW_MEMORY")
	if memoryPath == "" {
		memoryPath = "willow.db"
	}

	essencePath := os.Getenv("WILLOW_ESSENCE")
	if essencePath == "" {
		essencePath = "essence"
	}

	timezone := os.Getenv("TZ")
	if timezone == "" {
		timezone = "UTC"
	}

	llmConfig, err := loadLLMConfig("LLM", "claude")
	if err != nil {
		return nil, err
	}

	// the classifier is a second, cheaper model; it defaults to the
	// main model when not configured separately
	classifierConfig, err := loadLLMConfig("CLASSIFIER", "")
	if err != nil {
		return nil, err
	}
	if classifierConfig.Provider == "" {
		classifierConfig = llmConfig
	}

	return &Config{
		MemoryPath:  memoryPath,
		EssencePath: essencePath,
		Timezone:    timezone,
		LLM:         llmConfig,
		Classifier:  classifierConfig,
		Embedder:    loadEmbedderConfig(),
		Vector:      loadVectorConfig(),
		Heartbeat:   loadHeartbeatConfig(),
		Dream:       loadDreamConfig(),
		Reminder:    loadReminderConfig(),
		Notify:      loadNotifyConfig(),
		Lock:        LockConfig{WebhookURL: os.Getenv("LOCK_WEBHOOK_URL")},
		Geo:         GeoConfig{BaseURL: os.Getenv("GEOCODER_URL")},
		Instincts:   loadInstincts(essencePath),
	}, nil
}

func loadLLMConfig(prefix, defaultProvider string) (llm.Config, error) {
	provider := os.Getenv(prefix + "_PROVIDER")
	if provider == "" {
		provider = defaultProvider
	}
	if provider == "" {
		return llm.Config{}, nil
	}

	apiKey := apiKeyFor(provider)
	if apiKey == "" && provider != "ollama" {
		return llm.Config{}, fmt.Errorf("no API key configured for provider %s", provider)
	}

	return llm.Config{
		Provider: provider,
		APIKey:   apiKey,
		Model:    os.Getenv(prefix + "_MODEL"),
		BaseURL:  os.Getenv(prefix + "_BASE_URL"),
	}, nil
}

func apiKeyFor(provider string) string {
	if provider == "claude" {
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return os.Getenv(strings.ToUpper(provider) + "_API_KEY")
}

func loadEmbedderConfig() EmbedderConfig {
	provider := os.Getenv("EMBEDDER_PROVIDER")
	if provider == "" {
		provider = "ollama"
	}

	return EmbedderConfig{
		Provider: provider,
		BaseURL:  os.Getenv("EMBEDDER_BASE_URL"),
		Model:    os.Getenv("EMBEDDER_MODEL"),
	}
}

func loadVectorConfig() VectorConfig {
	backend := os.Getenv("WILLOW_VECTOR")
	if backend == "" {
		backend = "sqlite"
	}

	dimensions := memory.VectorDimensions
	if d, err := strconv.Atoi(os.Getenv("WILLOW_VECTOR_DIM")); err == nil && d > 0 {
		dimensions = d
	}

	// score distributions differ per embedding backend, so the cutoff
	// stays configurable
	minScore := 0.35
	if s, err := strconv.ParseFloat(os.Getenv("WILLOW_VECTOR_MIN_SCORE"), 64); err == nil {
		minScore = s
	}

	threshold := 4
	if t, err := strconv.Atoi(os.Getenv("WILLOW_VECTOR_THRESHOLD")); err == nil && t > 0 {
		threshold = t
	}

	return VectorConfig{
		Backend:         backend,
		Dimensions:      dimensions,
		MinScore:        minScore,
		MirrorThreshold: threshold,
		ChromemPath:     os.Getenv("WILLOW_CHROMEM_PATH"),
	}
}

func loadHeartbeatConfig() HeartbeatConfig {
	return HeartbeatConfig{
		MinSleep:        envDuration("HEARTBEAT_MIN_SLEEP", 20*time.Minute),
		MaxSleep:        envDuration("HEARTBEAT_MAX_SLEEP", 90*time.Minute),
		FlashbackChance: envFloat("HEARTBEAT_FLASHBACK_CHANCE", 0.25),
		FlashbackBar:    envFloat("HEARTBEAT_FLASHBACK_BAR", 0.75),
		CallTimeout:     envDuration("HEARTBEAT_CALL_TIMEOUT", 60*time.Second),
	}
}

func loadDreamConfig() DreamConfig {
	hour := 3
	if h, err := strconv.Atoi(os.Getenv("DREAM_HOUR")); err == nil && h >= 0 && h <= 23 {
		hour = h
	}

	return DreamConfig{
		Hour:        hour,
		CallTimeout: envDuration("DREAM_CALL_TIMEOUT", 2*time.Minute),
	}
}

func loadReminderConfig() ReminderConfig {
	return ReminderConfig{
		PollInterval: envDuration("REMINDER_POLL_INTERVAL", 60*time.Second),
		Tolerance:    envDuration("REMINDER_TOLERANCE", 90*time.Second),
		Paraphrase:   os.Getenv("REMINDER_PARAPHRASE") != "false",
	}
}

func loadNotifyConfig() NotifyConfig {
	chatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	return NotifyConfig{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: chatID,
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordChannel: os.Getenv("DISCORD_CHANNEL_ID"),
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(name)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func envFloat(name string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(name), 64); err == nil {
		return f
	}
	return fallback
}
