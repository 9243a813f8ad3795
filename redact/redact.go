// Package redact removes secrets, private-network URLs, and private IP
// literals from free-form text before it leaves the machine.
package redact

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Replacement literals. These are part of the published document contract:
// downstream consumers grep for them, so they must never change shape.
const (
	SecretPlaceholder = "[REDACTED]"
	URLPlaceholder    = "[REDACTED_URL]"
	IPPlaceholder     = "[REDACTED_IP]"
)

// secretPatterns is the rule corpus for secret-shaped content. Each matched
// occurrence is replaced by SecretPlaceholder. The corpus is authoritative:
// output must contain no match for any of these patterns.
var secretPatterns = []*regexp.Regexp{
	// key=value assignments for common credential names
	regexp.MustCompile(`(?i)(api_key|apikey|token|secret|password)\s*[:=]\s*\S{8,}`),
	// HTTP Authorization bearer values
	regexp.MustCompile(`Bearer\s+\S{16,}`),
	// GitHub personal access tokens
	regexp.MustCompile(`ghp_[A-Za-z0-9]{20,}`),
	// JWTs: three base64url segments, each at least 10 chars
	regexp.MustCompile(`\b[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\b`),
	// OpenAI/Anthropic-style API keys
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),
}

// localhostURLPattern matches URLs pointing at the local machine.
var localhostURLPattern = regexp.MustCompile(`https?://localhost[:/][^\s]*`)

// privateIPPatterns match RFC 1918 IPv4 literals, bare or inside URLs.
var privateIPPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b10\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
	regexp.MustCompile(`\b172\.(1[6-9]|2\d|3[01])\.\d{1,3}\.\d{1,3}\b`),
	regexp.MustCompile(`\b192\.168\.\d{1,3}\.\d{1,3}\b`),
}

var (
	gitleaksDetector     *detect.Detector
	gitleaksDetectorOnce sync.Once
)

func getDetector() *detect.Detector {
	gitleaksDetectorOnce.Do(func() {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return
		}
		gitleaksDetector = d
	})
	return gitleaksDetector
}

// region represents a byte range to redact.
type region struct{ start, end int }

// String redacts s in three passes, in order:
//  1. secrets -> SecretPlaceholder, found by the pattern corpus plus the
//     gitleaks rule set (180+ known secret formats) as a second layer
//  2. localhost URLs -> URLPlaceholder
//  3. private IPv4 literals -> IPPlaceholder
func String(s string) string {
	s = redactSecrets(s)
	s = localhostURLPattern.ReplaceAllString(s, URLPlaceholder)
	for _, re := range privateIPPatterns {
		s = re.ReplaceAllString(s, IPPlaceholder)
	}
	return s
}

// redactSecrets replaces every secret-shaped region with SecretPlaceholder.
// Overlapping findings from the corpus and gitleaks collapse into a single
// placeholder so a doubly-detected key doesn't produce two.
func redactSecrets(s string) string {
	var regions []region

	for _, re := range secretPatterns {
		for _, loc := range re.FindAllStringIndex(s, -1) {
			regions = append(regions, region{loc[0], loc[1]})
		}
	}

	if d := getDetector(); d != nil {
		for _, f := range d.DetectString(s) {
			if f.Secret == "" {
				continue
			}
			searchFrom := 0
			for {
				idx := strings.Index(s[searchFrom:], f.Secret)
				if idx < 0 {
					break
				}
				absIdx := searchFrom + idx
				regions = append(regions, region{absIdx, absIdx + len(f.Secret)})
				searchFrom = absIdx + len(f.Secret)
			}
		}
	}

	if len(regions) == 0 {
		return s
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].start < regions[j].start
	})
	merged := []region{regions[0]}
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end {
			if r.end > last.end {
				last.end = r.end
			}
		} else {
			merged = append(merged, r)
		}
	}

	var b strings.Builder
	prev := 0
	for _, r := range merged {
		b.WriteString(s[prev:r.start])
		b.WriteString(SecretPlaceholder)
		prev = r.end
	}
	b.WriteString(s[prev:])
	return b.String()
}

// Clean reports whether s contains nothing the corpus would redact.
// Useful as a cheap post-condition check in tests and callers.
func Clean(s string) bool {
	for _, re := range secretPatterns {
		if re.MatchString(s) {
			return false
		}
	}
	if localhostURLPattern.MatchString(s) {
		return false
	}
	for _, re := range privateIPPatterns {
		if re.MatchString(s) {
			return false
		}
	}
	return true
}
