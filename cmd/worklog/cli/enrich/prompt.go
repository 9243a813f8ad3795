package enrich

import (
	"fmt"
	"strings"

	"github.com/jack-x/worklog/cmd/worklog/cli/normalize"
)

const systemPrompt = `You are a senior engineer reviewing a coding session transcript. Decide whether the session contains durable engineering work worth recording in a public worklog: a real decision, a solved problem, or a non-obvious insight. Routine Q&A, trivial edits, and abandoned sessions are not significant.

Respond with ONLY a JSON object, no prose, matching exactly this schema:

{
  "isSignificant": bool,
  "entry": null | { "summary": str, "decision": str, "problem": str, "tags": [str] },
  "context": {
    "title": str,
    "promptsAndIntent": str,
    "keyDecisions": [ { "title": str, "reasoning": str } ],
    "problemsSolved": [str],
    "insights": [str]
  }
}

Rules:
- "entry" must be a full object when isSignificant is true and null when it is false.
- "context" is always produced, even for insignificant sessions.
- "tags" are short lowercase topic labels, at most five.
- Keep "title" under ten words. Write in plain past tense.`

// buildUserPrompt renders the session for the judge: metadata first, then
// the conversation with each turn labeled by role.
func buildUserPrompt(session normalize.Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s\n", session.Project)
	if session.GitBranch != "" {
		fmt.Fprintf(&b, "Branch: %s\n", session.GitBranch)
	}
	if session.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", session.Summary)
	}
	b.WriteString("\nConversation:\n\n")

	for _, turn := range session.Turns {
		label := "USER"
		if turn.Role == normalize.RoleAssistant {
			label = "ASSISTANT"
		}
		fmt.Fprintf(&b, "%s:\n%s\n\n", label, turn.Content)
	}

	return b.String()
}
