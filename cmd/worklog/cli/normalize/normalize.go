// Package normalize reshapes raw session records into the canonical
// conversation form the rest of the pipeline operates on: an ordered list
// of non-empty user and assistant turns plus session metadata.
package normalize

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/jack-x/worklog/cmd/worklog/cli/claudecode"
	"github.com/jack-x/worklog/cmd/worklog/cli/transcript"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one user or assistant message in canonical form.
// Content is non-empty after trimming; thinking blocks, tool invocations,
// and tool results never appear.
type Turn struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// Session is the canonical form of one conversation.
type Session struct {
	ID        string
	Turns     []Turn
	Project   string
	StartTime time.Time
	EndTime   time.Time
	Summary   string
	GitBranch string
}

// Normalize converts raw records into a Session. Records are processed in
// file order; the parentUuid tree is deliberately ignored (the store writer
// appends, so file order is conversation order) and timestamps are never
// used to reorder.
func Normalize(records []transcript.Record, entry claudecode.IndexEntry) Session {
	session := Session{
		ID:        entry.SessionID,
		Project:   filepath.Base(entry.ProjectPath),
		Summary:   entry.Summary,
		GitBranch: entry.GitBranch,
	}

	for _, rec := range records {
		if rec.IsSidechain {
			continue
		}

		var turn *Turn
		switch rec.Type {
		case transcript.TypeUser:
			if content := strings.TrimSpace(transcript.ExtractUserText(rec.Message)); content != "" {
				turn = &Turn{Role: RoleUser, Content: content, Timestamp: rec.Time()}
			}
		case transcript.TypeAssistant:
			if content := strings.TrimSpace(transcript.ExtractAssistantText(rec.Message)); content != "" {
				turn = &Turn{Role: RoleAssistant, Content: content, Timestamp: rec.Time()}
			}
		default:
			// system, summary, tool_use, tool_result
		}

		if turn != nil {
			session.Turns = append(session.Turns, *turn)
		}
	}

	if len(session.Turns) > 0 {
		session.StartTime = session.Turns[0].Timestamp
		session.EndTime = session.Turns[len(session.Turns)-1].Timestamp
	}

	return session
}
