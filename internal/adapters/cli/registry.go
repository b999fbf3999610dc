package cli

import (
	"fmt"
	"sort"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// factory builds a generator from a config.
type factory func(Config, *logging.Logger) core.Generator

var factories = map[string]factory{
	"claude": func(cfg Config, l *logging.Logger) core.Generator { return NewClaudeGenerator(cfg, l) },
	"gemini": func(cfg Config, l *logging.Logger) core.Generator { return NewGeminiGenerator(cfg, l) },
}

// NewGenerator builds the named generator adapter.
func NewGenerator(name string, cfg Config, logger *logging.Logger) (core.Generator, error) {
	f, ok := factories[name]
	if !ok {
		return nil, core.ErrConfig(core.CodeUnknownAdapter,
			fmt.Sprintf("unknown adapter %q (available: %v)", name, Available()))
	}
	return f(cfg, logger), nil
}

// Available returns the registered adapter names, sorted.
func Available() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
