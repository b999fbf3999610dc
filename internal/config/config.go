// Package config loads and validates application configuration.
package config

import (
	"time"

	"github.com/conclave-ai/conclave/internal/core"
)

// Config is the application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Session  SessionConfig  `mapstructure:"session"`
	Adapter  AdapterConfig  `mapstructure:"adapter"`
	Personas PersonasConfig `mapstructure:"personas"`
	Output   OutputConfig   `mapstructure:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // auto, text, json
}

// SessionConfig configures a deliberation session.
type SessionConfig struct {
	Agents       int           `mapstructure:"agents"`
	ReviewRounds int           `mapstructure:"review_rounds"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	Tools        []string      `mapstructure:"tools"`
}

// AdapterConfig selects and configures the generation backend.
type AdapterConfig struct {
	Name    string        `mapstructure:"name"` // claude, gemini
	Path    string        `mapstructure:"path"` // binary path override
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PersonasConfig locates the persona catalog.
type PersonasConfig struct {
	File string `mapstructure:"file"`
}

// OutputConfig configures artifact persistence.
type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	Enabled bool   `mapstructure:"enabled"`
}

// Normalize clamps out-of-range session parameters in place. Invalid values
// are corrected, never rejected.
func (c *Config) Normalize() {
	c.Session.Agents = core.ClampAgentCount(c.Session.Agents)
	c.Session.ReviewRounds = core.ClampReviewRounds(c.Session.ReviewRounds)
	if c.Session.Cooldown < 0 {
		c.Session.Cooldown = 0
	}
}
