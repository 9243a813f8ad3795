// Package enrich classifies a sanitized session with an LLM judge and
// produces the structured worklog entry and context document.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jack-x/worklog/cmd/worklog/cli/normalize"
)

// MinTurns is the smallest conversation worth sending to the judge.
// Shorter sessions are rejected before any LLM call.
const MinTurns = 3

// Temperature for the judge. Low enough for stable classification, high
// enough that summaries don't collapse into boilerplate.
const Temperature = 0.3

// ErrTooFewTurns is returned when a session is below MinTurns.
var ErrTooFewTurns = errors.New("too few turns")

// Result is the judge's verdict for one session.
type Result struct {
	IsSignificant bool `json:"isSignificant"`

	// Entry is present iff IsSignificant.
	Entry *WorklogEntry `json:"entry"`

	Context ContextDoc `json:"context"`
}

// WorklogEntry is the short structured payload surfaced in downstream UIs.
type WorklogEntry struct {
	Summary  string   `json:"summary"`
	Decision string   `json:"decision"`
	Problem  string   `json:"problem"`
	Tags     []string `json:"tags"`
}

// ContextDoc is the long-form document produced for every processed session.
type ContextDoc struct {
	Title            string        `json:"title"`
	PromptsAndIntent string        `json:"promptsAndIntent"`
	KeyDecisions     []KeyDecision `json:"keyDecisions"`
	ProblemsSolved   []string      `json:"problemsSolved"`
	Insights         []string      `json:"insights"`
}

// KeyDecision is one decision with its reasoning.
type KeyDecision struct {
	Title     string `json:"title"`
	Reasoning string `json:"reasoning"`
}

// Error is an enrichment failure. It carries the raw reply text so a bad
// reply can be diagnosed from logs without re-running the judge.
type Error struct {
	Reason string
	Reply  string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("enrichment failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("enrichment failed: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Request is one text-generation call to the LLM provider.
type Request struct {
	System      string
	User        string
	Temperature float64
}

// TextGenerator abstracts the LLM transport so tests can stub it and the
// provider can be swapped without touching classification logic.
type TextGenerator interface {
	GenerateText(ctx context.Context, req Request) (string, error)
}

// Enrich sends the sanitized session to the judge and parses the verdict.
// Transport errors and malformed replies return *Error; both are
// per-session failures the caller records and moves past.
func Enrich(ctx context.Context, session normalize.Session, g TextGenerator) (*Result, error) {
	if len(session.Turns) < MinTurns {
		return nil, ErrTooFewTurns
	}

	reply, err := g.GenerateText(ctx, Request{
		System:      systemPrompt,
		User:        buildUserPrompt(session),
		Temperature: Temperature,
	})
	if err != nil {
		return nil, &Error{Reason: "LLM call failed", Err: err}
	}

	return ParseReply(reply)
}

// ParseReply parses the judge's reply into a Result. The reply must be the
// JSON object the system prompt demands, optionally wrapped in a markdown
// code fence.
func ParseReply(reply string) (*Result, error) {
	stripped := extractJSONFromMarkdown(reply)
	if strings.TrimSpace(stripped) == "" {
		return nil, &Error{Reason: "empty reply", Reply: reply}
	}

	// isSignificant must be present, not merely defaulted, so decode the
	// flag through a pointer first.
	var probe struct {
		IsSignificant *bool `json:"isSignificant"`
	}
	if err := json.Unmarshal([]byte(stripped), &probe); err != nil {
		return nil, &Error{Reason: "reply is not valid JSON", Reply: reply, Err: err}
	}
	if probe.IsSignificant == nil {
		return nil, &Error{Reason: "reply is missing isSignificant", Reply: reply}
	}

	var result Result
	if err := json.Unmarshal([]byte(stripped), &result); err != nil {
		return nil, &Error{Reason: "reply does not match schema", Reply: reply, Err: err}
	}

	if result.IsSignificant && result.Entry == nil {
		return nil, &Error{Reason: "significant session has no entry", Reply: reply}
	}

	return &result, nil
}

// extractJSONFromMarkdown attempts to extract JSON from markdown code blocks.
// If the input is not wrapped in code blocks, it returns the input unchanged.
func extractJSONFromMarkdown(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}

	return s
}
