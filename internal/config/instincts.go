package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bowerhall/willow/internal/logger"
)

// defaultTriggers seed the probabilistic flashback during heartbeat
// cycles. The essence file can replace them entirely.
var defaultTriggers = []string{
	"rain", "coffee", "music", "home", "the ocean",
	"night sky", "an old song", "fresh bread", "autumn", "trains",
}

func loadInstincts(essencePath string) Instincts {
	instincts := Instincts{Triggers: defaultTriggers}

	path := filepath.Join(essencePath, "instincts.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return instincts
	}

	var loaded Instincts
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		logger.Warn("instincts file unreadable, using defaults", "path", path, "error", err)
		return instincts
	}

	if len(loaded.Triggers) > 0 {
		instincts.Triggers = loaded.Triggers
	}
	instincts.Tags = loaded.Tags

	logger.Debug("instincts loaded", "path", path, "triggers", len(instincts.Triggers))
	return instincts
}
