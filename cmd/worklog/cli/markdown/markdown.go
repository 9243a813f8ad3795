// Package markdown renders an enrichment context document as the Markdown
// body published to the content store. Only summarized fields appear; raw
// conversation content never reaches the output.
package markdown

import (
	"fmt"
	"strings"

	"github.com/jack-x/worklog/cmd/worklog/cli/enrich"
)

// Source identifies the upstream session store in rendered documents.
const Source = "claude-code"

// Meta is the session metadata printed in the document header.
type Meta struct {
	Project   string
	GitBranch string
}

// Render produces the full Markdown document. Sections with empty bodies
// are omitted entirely, heading included.
func Render(doc enrich.ContextDoc, meta Meta) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Session: %s\n\n", doc.Title)
	fmt.Fprintf(&b, "**Source**: %s\n", Source)
	fmt.Fprintf(&b, "**Project**: %s\n", meta.Project)
	if meta.GitBranch != "" {
		fmt.Fprintf(&b, "**Branch**: %s\n", meta.GitBranch)
	}

	if body := strings.TrimSpace(doc.PromptsAndIntent); body != "" {
		fmt.Fprintf(&b, "\n## Prompts & Intent\n%s\n", body)
	}

	if decisions := nonEmptyDecisions(doc.KeyDecisions); len(decisions) > 0 {
		b.WriteString("\n## Key Decisions\n")
		for _, d := range decisions {
			fmt.Fprintf(&b, "### %s\n%s\n", d.Title, strings.TrimSpace(d.Reasoning))
		}
	}

	writeBullets(&b, "Problems Solved", doc.ProblemsSolved)
	writeBullets(&b, "Insights", doc.Insights)

	return b.String()
}

func nonEmptyDecisions(decisions []enrich.KeyDecision) []enrich.KeyDecision {
	var out []enrich.KeyDecision
	for _, d := range decisions {
		if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Reasoning) == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

func writeBullets(b *strings.Builder, heading string, items []string) {
	var kept []string
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return
	}

	fmt.Fprintf(b, "\n## %s\n", heading)
	for _, item := range kept {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
