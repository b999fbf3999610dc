// Package cli adapts external AI command-line tools to the Generator port.
// Each adapter launches the tool as a subprocess in non-interactive mode and
// translates its stream-json output into generation events.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

// Config configures a CLI generator.
type Config struct {
	Path      string        // binary path; defaults per adapter
	Model     string        // model flag value; empty uses the tool default
	Timeout   time.Duration // per-call timeout; zero means no timeout
	ExtraArgs []string      // appended verbatim to the argument list
}

// streamParser turns one line of a tool's stream-json output into events.
// Parsers are stateful per call; build a fresh one for each invocation.
type streamParser interface {
	ParseLine(line string) []core.GenerateEvent
}

// runStream launches the tool and pumps its stdout through the parser.
// Stderr is captured and attached to the error when the tool exits nonzero.
func runStream(ctx context.Context, logger *logging.Logger, name, bin string, args []string, parser streamParser, emit core.GenerateEventHandler) error {
	cmd := exec.CommandContext(ctx, bin, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("opening stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	logger.Debug("cli: starting", "adapter", name, "path", bin)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", bin, err)
	}

	scanner := bufio.NewScanner(stdout)
	// Large buffer for big single-line JSON events
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		for _, ev := range parser.ParseLine(scanner.Text()) {
			emit(ev)
		}
	}

	waitErr := cmd.Wait()
	logger.Debug("cli: finished", "adapter", name, "elapsed", time.Since(start), "error", waitErr)

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		if tail := stderrTail(stderr.String(), 500); tail != "" {
			return fmt.Errorf("%s failed: %w: %s", name, waitErr, tail)
		}
		return fmt.Errorf("%s failed: %w", name, waitErr)
	}
	return nil
}

// stderrTail returns the last maxLen bytes of captured stderr, trimmed.
func stderrTail(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		s = "..." + s[len(s)-maxLen:]
	}
	return s
}

// checkAvailable verifies the binary resolves on PATH.
func checkAvailable(bin string) error {
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("%s not found on PATH: %w", bin, err)
	}
	return nil
}
