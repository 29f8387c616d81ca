package config

import (
	"time"

	"github.com/bowerhall/willow/internal/llm"
)

type Config struct {
	MemoryPath  string
	EssencePath string
	Timezone    string
	LLM         llm.Config
	Classifier  llm.Config
	Embedder    EmbedderConfig
	Vector      VectorConfig
	Heartbeat   HeartbeatConfig
	Dream       DreamConfig
	Reminder    ReminderConfig
	Notify      NotifyConfig
	Lock        LockConfig
	Geo         GeoConfig
	Instincts   Instincts
}

type EmbedderConfig struct {
	Provider string
	BaseURL  string
	Model    string
}

type VectorConfig struct {
	Backend         string // "sqlite" or "chromem"
	Dimensions      int
	MinScore        float64
	MirrorThreshold int
	ChromemPath     string
}

type HeartbeatConfig struct {
	MinSleep        time.Duration
	MaxSleep        time.Duration
	FlashbackChance float64
	FlashbackBar    float64
	CallTimeout     time.Duration
}

type DreamConfig struct {
	Hour        int
	CallTimeout time.Duration
}

type ReminderConfig struct {
	PollInterval time.Duration
	Tolerance    time.Duration
	Paraphrase   bool
}

type NotifyConfig struct {
	TelegramToken  string
	TelegramChatID int64
	DiscordToken   string
	DiscordChannel string
}

type LockConfig struct {
	WebhookURL string
}

type GeoConfig struct {
	BaseURL string
}

// Instincts tunes the associative layer: the flashback trigger
// vocabulary and the tag keyword table. Loaded from the essence
// directory when present, built-in defaults otherwise.
type Instincts struct {
	Triggers []string            `yaml:"triggers"`
	Tags     map[string][]string `yaml:"tags"`
}
