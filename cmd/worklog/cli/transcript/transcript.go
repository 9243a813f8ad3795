// Package transcript models the claude-code JSONL session format: one JSON
// record per line, forming a conversation of user prompts, assistant
// replies, and tool traffic.
package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Record types found in session files.
const (
	TypeUser       = "user"
	TypeAssistant  = "assistant"
	TypeSystem     = "system"
	TypeSummary    = "summary"
	TypeToolUse    = "tool_use"
	TypeToolResult = "tool_result"
)

// Content block types inside assistant messages.
const (
	ContentTypeText     = "text"
	ContentTypeThinking = "thinking"
	ContentTypeToolUse  = "tool_use"
)

// Record is one line of a session file. ParentUUID forms a conversation
// tree, but consumers process records in file order (the writer appends).
type Record struct {
	Type        string          `json:"type"`
	UUID        string          `json:"uuid"`
	ParentUUID  *string         `json:"parentUuid"`
	Timestamp   string          `json:"timestamp"`
	SessionID   string          `json:"sessionId"`
	IsSidechain bool            `json:"isSidechain"`
	Message     json.RawMessage `json:"message"`
}

// Time parses the record's ISO-8601 timestamp.
// Returns the zero time if the field is absent or unparsable.
func (r Record) Time() time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, r.Timestamp); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// UserMessage is the payload of a user record. Content is either a plain
// string or an array of content blocks.
type UserMessage struct {
	Content any `json:"content"`
}

// AssistantMessage is the payload of an assistant record.
type AssistantMessage struct {
	Content AssistantContent `json:"content"`
}

// AssistantContent is a tagged variant: a bare string or an ordered block
// sequence. Exactly one representation is populated.
type AssistantContent struct {
	text   string
	blocks []ContentBlock
	isText bool
}

// UnmarshalJSON accepts both payload shapes.
func (c *AssistantContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.text = s
		c.isText = true
		c.blocks = nil
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("assistant content is neither string nor block array: %w", err)
	}
	c.blocks = blocks
	c.isText = false
	c.text = ""
	return nil
}

// IsText reports whether the content was a bare string.
func (c AssistantContent) IsText() bool { return c.isText }

// Text returns the string payload (empty for block content).
func (c AssistantContent) Text() string { return c.text }

// Blocks returns the block sequence (nil for string content).
func (c AssistantContent) Blocks() []ContentBlock { return c.blocks }

// ContentBlock is one element of an assistant block sequence.
type ContentBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Thinking string          `json:"thinking,omitempty"`
	Name     string          `json:"name,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
}

// ParseRecords parses session file content into records. Blank lines are
// skipped; a malformed line is fatal for the whole file (the store writer
// is the only party that can repair it).
func ParseRecords(content []byte) ([]Record, error) {
	var records []Record
	reader := bufio.NewReader(bytes.NewReader(content))
	lineNum := 0

	for {
		lineBytes, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read session file: %w", err)
		}

		if len(lineBytes) > 0 {
			lineNum++
			trimmed := bytes.TrimSpace(lineBytes)
			if len(trimmed) > 0 {
				var rec Record
				if jsonErr := json.Unmarshal(trimmed, &rec); jsonErr != nil {
					return nil, fmt.Errorf("malformed record at line %d: %w", lineNum, jsonErr)
				}
				records = append(records, rec)
			}
		}

		if err == io.EOF {
			break
		}
	}

	return records, nil
}

// ExtractUserText extracts the user message text from a raw record payload.
// Handles both string and block-array content. Returns empty string if the
// payload cannot be parsed or contains no text.
func ExtractUserText(message json.RawMessage) string {
	var msg UserMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return ""
	}

	if str, ok := msg.Content.(string); ok {
		return str
	}

	if arr, ok := msg.Content.([]any); ok {
		var texts []string
		for _, item := range arr {
			if m, ok := item.(map[string]any); ok {
				if m["type"] == ContentTypeText {
					if text, ok := m["text"].(string); ok {
						texts = append(texts, text)
					}
				}
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n\n")
		}
	}

	return ""
}

// ExtractAssistantText extracts the assistant text from a raw record
// payload. String content is returned as-is; block content concatenates the
// text blocks in order separated by a single blank line. Thinking and
// tool_use blocks are dropped.
func ExtractAssistantText(message json.RawMessage) string {
	var msg AssistantMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return ""
	}

	if msg.Content.IsText() {
		return msg.Content.Text()
	}

	var texts []string
	for _, block := range msg.Content.Blocks() {
		if block.Type == ContentTypeText && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	return strings.Join(texts, "\n\n")
}
