package cli

import (
	"encoding/json"
	"strings"

	"github.com/conclave-ai/conclave/internal/core"
)

// =============================================================================
// Claude stream parser
// =============================================================================

// ClaudeStreamParser parses Claude Code CLI's stream-json output.
// Real format from `claude --print --output-format stream-json`:
//
//	{"type":"system","subtype":"init","session_id":"...","tools":["Bash","Glob",...]}
//	{"type":"assistant","message":{"content":[{"type":"tool_use","id":"...","name":"Bash","input":{...}}]}}
//	{"type":"assistant","message":{"content":[{"type":"text","text":"..."}]}}
//	{"type":"result","subtype":"success","result":"...","session_id":"..."}
//
// Assistant text events are streamed as content; the final result event is
// used only when no assistant text arrived, so content is never duplicated.
type ClaudeStreamParser struct {
	sawText bool
}

type claudeStreamEvent struct {
	Type    string         `json:"type"`
	Subtype string         `json:"subtype"`
	Message *claudeMessage `json:"message,omitempty"`
	Result  string         `json:"result,omitempty"`
}

type claudeMessage struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type  string         `json:"type"`
	Name  string         `json:"name,omitempty"`  // for tool_use
	Text  string         `json:"text,omitempty"`  // for text
	Input map[string]any `json:"input,omitempty"` // for tool_use
}

// ParseLine parses a single line of stream-json output.
func (p *ClaudeStreamParser) ParseLine(line string) []core.GenerateEvent {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "{") {
		return nil
	}

	var event claudeStreamEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return nil
	}

	var events []core.GenerateEvent

	switch event.Type {
	case "assistant":
		if event.Message == nil {
			return nil
		}
		for _, content := range event.Message.Content {
			switch content.Type {
			case "text":
				if content.Text != "" {
					p.sawText = true
					events = append(events, core.ContentEvent(content.Text))
				}
			case "tool_use":
				events = append(events, core.ToolUseEvent(content.Name, content.Input))
			}
		}

	case "result":
		if event.Subtype == "success" && event.Result != "" && !p.sawText {
			events = append(events, core.ContentEvent(event.Result))
		}
	}

	return events
}

// =============================================================================
// Gemini stream parser
// =============================================================================

// GeminiStreamParser parses Gemini CLI's stream-json output.
// Real format from `gemini --output-format stream-json`:
//
//	{"type":"init","model":"gemini-2.5-flash"}
//	{"type":"tool_use","tool_name":"read_file","args":{"path":"..."}}
//	{"type":"text","text":"..."}
//	{"type":"result","response":"..."}
type GeminiStreamParser struct {
	sawText bool
}

type geminiStreamEvent struct {
	Type     string         `json:"type"`
	ToolName string         `json:"tool_name,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
	Text     string         `json:"text,omitempty"`
	Response string         `json:"response,omitempty"`
}

// ParseLine parses a single line of stream-json output.
func (p *GeminiStreamParser) ParseLine(line string) []core.GenerateEvent {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "{") {
		return nil
	}

	var event geminiStreamEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return nil
	}

	switch event.Type {
	case "text":
		if event.Text != "" {
			p.sawText = true
			return []core.GenerateEvent{core.ContentEvent(event.Text)}
		}
	case "tool_use":
		return []core.GenerateEvent{core.ToolUseEvent(event.ToolName, event.Args)}
	case "result":
		if event.Response != "" && !p.sawText {
			return []core.GenerateEvent{core.ContentEvent(event.Response)}
		}
	}

	return nil
}
