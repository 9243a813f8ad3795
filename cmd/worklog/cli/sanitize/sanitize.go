// Package sanitize applies the rule-based redaction stage: it scrubs turn
// content through the redact corpus, substitutes configured literal terms,
// and drops turns or whole sessions that reference blocked projects, paths,
// or domains. It never touches the network.
package sanitize

import (
	"strings"

	"github.com/jack-x/worklog/cmd/worklog/cli/normalize"
	"github.com/jack-x/worklog/redact"
)

// Config is the immutable rule set for one batch.
type Config struct {
	// BlockedProjects drops entire sessions whose project matches, and
	// individual turns that mention a blocked project.
	BlockedProjects []string

	// BlockedPaths and BlockedDomains drop individual turns that mention
	// them.
	BlockedPaths   []string
	BlockedDomains []string

	// RedactedTerms maps literal strings to replacements, applied after
	// the regex pass and before the blocklist filter.
	RedactedTerms map[string]string
}

// Session applies the full rule set to a normalized session, in order:
// project gate, per-turn redaction, per-turn blocklist filter, empty-session
// collapse. Returns nil when the session is dropped; otherwise a new session
// with sanitized turns and metadata copied unchanged.
func Session(s normalize.Session, cfg Config) *normalize.Session {
	if projectBlocked(s.Project, cfg.BlockedProjects) {
		return nil
	}

	out := s
	out.Turns = make([]normalize.Turn, 0, len(s.Turns))

	for _, turn := range s.Turns {
		content := redact.String(turn.Content)
		content = substituteTerms(content, cfg.RedactedTerms)

		if turnBlocked(content, cfg) {
			continue
		}

		turn.Content = content
		out.Turns = append(out.Turns, turn)
	}

	if len(out.Turns) == 0 {
		return nil
	}
	return &out
}

// projectBlocked reports whether any blocked term occurs in the project
// name, case-insensitively.
func projectBlocked(project string, blocked []string) bool {
	lower := strings.ToLower(project)
	for _, b := range blocked {
		if b == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(b)) {
			return true
		}
	}
	return false
}

// turnBlocked reports whether the turn content mentions any blocked path,
// project, or domain, case-insensitively.
func turnBlocked(content string, cfg Config) bool {
	lower := strings.ToLower(content)
	for _, list := range [][]string{cfg.BlockedPaths, cfg.BlockedProjects, cfg.BlockedDomains} {
		for _, b := range list {
			if b == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(b)) {
				return true
			}
		}
	}
	return false
}

// substituteTerms applies literal term replacements.
func substituteTerms(content string, terms map[string]string) string {
	for term, replacement := range terms {
		if term == "" {
			continue
		}
		content = strings.ReplaceAll(content, term, replacement)
	}
	return content
}
