package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jack-x/worklog/cmd/worklog/cli/normalize"
)

type fakeGenerator struct {
	reply string
	err   error
	got   Request
}

func (f *fakeGenerator) GenerateText(_ context.Context, req Request) (string, error) {
	f.got = req
	return f.reply, f.err
}

func testSession(turns int) normalize.Session {
	s := normalize.Session{
		ID:        "abc123",
		Project:   "portfolio",
		GitBranch: "worklog-caching",
		Summary:   "caching work",
		StartTime: time.Date(2025, 1, 22, 10, 0, 0, 0, time.UTC),
	}
	for i := 0; i < turns; i++ {
		role := normalize.RoleUser
		content := "add caching"
		if i%2 == 1 {
			role = normalize.RoleAssistant
			content = "done"
		}
		s.Turns = append(s.Turns, normalize.Turn{Role: role, Content: content})
	}
	return s
}

const significantReply = `{
  "isSignificant": true,
  "entry": {
    "summary": "Added caching to the worklog page",
    "decision": "Cache at the data layer",
    "problem": "Page load was slow",
    "tags": ["caching", "performance"]
  },
  "context": {
    "title": "Worklog page caching",
    "promptsAndIntent": "User asked for caching.",
    "keyDecisions": [{"title": "Data-layer cache", "reasoning": "Simplest invalidation story."}],
    "problemsSolved": ["Slow page load"],
    "insights": ["Invalidation is the hard part"]
  }
}`

func TestEnrich_TooFewTurns(t *testing.T) {
	gen := &fakeGenerator{reply: significantReply}
	_, err := Enrich(context.Background(), testSession(2), gen)

	if !errors.Is(err, ErrTooFewTurns) {
		t.Fatalf("expected ErrTooFewTurns, got %v", err)
	}
	if gen.got.User != "" {
		t.Error("no LLM call may happen below the turn threshold")
	}
}

func TestEnrich_Significant(t *testing.T) {
	gen := &fakeGenerator{reply: significantReply}
	result, err := Enrich(context.Background(), testSession(4), gen)
	if err != nil {
		t.Fatal(err)
	}

	if !result.IsSignificant {
		t.Error("expected significant")
	}
	if result.Entry == nil || result.Entry.Summary != "Added caching to the worklog page" {
		t.Errorf("entry = %+v", result.Entry)
	}
	if result.Context.Title != "Worklog page caching" {
		t.Errorf("context title = %q", result.Context.Title)
	}
	if len(result.Context.KeyDecisions) != 1 || result.Context.KeyDecisions[0].Title != "Data-layer cache" {
		t.Errorf("keyDecisions = %+v", result.Context.KeyDecisions)
	}
}

func TestEnrich_PromptContents(t *testing.T) {
	gen := &fakeGenerator{reply: significantReply}
	if _, err := Enrich(context.Background(), testSession(3), gen); err != nil {
		t.Fatal(err)
	}

	if gen.got.Temperature != 0.3 {
		t.Errorf("temperature = %v", gen.got.Temperature)
	}
	if !strings.Contains(gen.got.System, "isSignificant") {
		t.Error("system prompt must state the reply schema")
	}
	for _, want := range []string{
		"Project: portfolio",
		"Branch: worklog-caching",
		"Summary: caching work",
		"USER:\nadd caching",
		"ASSISTANT:\ndone",
	} {
		if !strings.Contains(gen.got.User, want) {
			t.Errorf("user prompt missing %q:\n%s", want, gen.got.User)
		}
	}
}

func TestEnrich_TransportError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	_, err := Enrich(context.Background(), testSession(4), gen)

	var enrichErr *Error
	if !errors.As(err, &enrichErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !strings.Contains(enrichErr.Error(), "rate limited") {
		t.Errorf("error must wrap the transport failure: %v", enrichErr)
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr string
	}{
		{"empty", "", "empty reply"},
		{"whitespace", "   \n\t ", "empty reply"},
		{"not json", "Sure! Here is my analysis of the session.", "not valid JSON"},
		{"missing isSignificant", `{"entry": null, "context": {"title": "x"}}`, "missing isSignificant"},
		{"significant without entry", `{"isSignificant": true, "entry": null, "context": {"title": "x"}}`, "no entry"},
		{"insignificant", `{"isSignificant": false, "entry": null, "context": {"title": "x"}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseReply(tt.reply)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatal(err)
				}
				if result.IsSignificant {
					t.Error("expected insignificant")
				}
				return
			}

			var enrichErr *Error
			if !errors.As(err, &enrichErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if !strings.Contains(enrichErr.Reason, tt.wantErr) {
				t.Errorf("reason = %q, want substring %q", enrichErr.Reason, tt.wantErr)
			}
			if enrichErr.Reply != tt.reply {
				t.Errorf("error must carry the original reply")
			}
		})
	}
}

func TestParseReply_MarkdownFences(t *testing.T) {
	fenced := "```json\n" + significantReply + "\n```"
	result, err := ParseReply(fenced)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsSignificant || result.Entry == nil {
		t.Errorf("fenced reply parsed wrong: %+v", result)
	}

	bare := "```\n" + significantReply + "\n```"
	if _, err := ParseReply(bare); err != nil {
		t.Fatalf("bare fence: %v", err)
	}
}
