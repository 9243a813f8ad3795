// Package pipeline drives one session end-to-end (read, normalize,
// sanitize, enrich, format, publish) and runs batches of sessions over a
// bounded worker pool.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jack-x/worklog/cmd/worklog/cli/claudecode"
	"github.com/jack-x/worklog/cmd/worklog/cli/enrich"
	"github.com/jack-x/worklog/cmd/worklog/cli/logging"
	"github.com/jack-x/worklog/cmd/worklog/cli/markdown"
	"github.com/jack-x/worklog/cmd/worklog/cli/memory"
	"github.com/jack-x/worklog/cmd/worklog/cli/normalize"
	"github.com/jack-x/worklog/cmd/worklog/cli/sanitize"
)

// Default per-stage deadlines. Enrichment gets the long one; file reads and
// the publish POST get the short one.
const (
	DefaultEnrichTimeout = 120 * time.Second
	DefaultIOTimeout     = 30 * time.Second
)

// DefaultWorkers bounds batch concurrency when the setting is absent.
const DefaultWorkers = 4

// Publisher sends one document to the content store.
type Publisher interface {
	Publish(ctx context.Context, doc memory.Document) error
}

// Config wires the pipeline's collaborators for one batch.
type Config struct {
	Store     *claudecode.Store
	Generator enrich.TextGenerator
	Publisher Publisher
	Sanitize  sanitize.Config

	// Workers bounds batch concurrency; zero means DefaultWorkers.
	Workers int

	// EnrichTimeout and IOTimeout override the stage deadlines; zero
	// means the defaults. IOTimeout covers the session-file read and the
	// publish POST.
	EnrichTimeout time.Duration
	IOTimeout     time.Duration
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return DefaultWorkers
}

func (c Config) enrichTimeout() time.Duration {
	if c.EnrichTimeout > 0 {
		return c.EnrichTimeout
	}
	return DefaultEnrichTimeout
}

func (c Config) ioTimeout() time.Duration {
	if c.IOTimeout > 0 {
		return c.IOTimeout
	}
	return DefaultIOTimeout
}

// ProcessResult is the outcome of one session.
type ProcessResult struct {
	SessionID     string
	Project       string
	Published     bool
	IsSignificant bool

	// Summary is the entry summary for significant sessions, otherwise
	// the context title. Empty when the session was skipped.
	Summary string

	// SkippedReason is set iff Published is false.
	SkippedReason string
}

// ProcessSession runs the full pipeline for one index entry. Failures are
// recorded in the result rather than returned; a batch never aborts because
// one session is broken.
func ProcessSession(ctx context.Context, cfg Config, entry claudecode.IndexEntry) ProcessResult {
	ctx = logging.WithSession(ctx, entry.SessionID)
	ctx = logging.WithProject(ctx, entry.ProjectPath)

	result := ProcessResult{
		SessionID: entry.SessionID,
		Project:   filepath.Base(entry.ProjectPath),
	}

	readCtx, cancel := context.WithTimeout(ctx, cfg.ioTimeout())
	records, err := cfg.Store.ReadSessionRecords(readCtx, &entry)
	cancel()
	if err != nil {
		result.SkippedReason = fmt.Sprintf("read failed: %v", err)
		logging.Warn(ctx, "session read failed", "error", err)
		return result
	}

	session := normalize.Normalize(records, entry)

	if len(session.Turns) < enrich.MinTurns {
		result.SkippedReason = "too few turns"
		return result
	}

	sanitized := sanitize.Session(session, cfg.Sanitize)
	if sanitized == nil {
		result.SkippedReason = "sanitized away"
		return result
	}
	if len(sanitized.Turns) < enrich.MinTurns {
		result.SkippedReason = "too few turns"
		return result
	}

	enrichCtx, cancel := context.WithTimeout(ctx, cfg.enrichTimeout())
	enrichment, err := enrich.Enrich(enrichCtx, *sanitized, cfg.Generator)
	cancel()
	if err != nil {
		result.SkippedReason = fmt.Sprintf("Enrichment failed: %v", err)
		logging.Warn(ctx, "enrichment failed", "error", err)
		return result
	}
	result.IsSignificant = enrichment.IsSignificant

	content := markdown.Render(enrichment.Context, markdown.Meta{
		Project:   sanitized.Project,
		GitBranch: sanitized.GitBranch,
	})

	doc := buildDocument(*sanitized, enrichment, content)

	publishCtx, cancel := context.WithTimeout(ctx, cfg.ioTimeout())
	err = cfg.Publisher.Publish(publishCtx, doc)
	cancel()
	if err != nil {
		result.SkippedReason = fmt.Sprintf("Publish failed: %v", err)
		logging.Warn(ctx, "publish failed", "error", err)
		return result
	}

	result.Published = true
	if enrichment.IsSignificant {
		result.Summary = enrichment.Entry.Summary
	} else {
		result.Summary = enrichment.Context.Title
	}
	logging.Info(ctx, "session published",
		"path", doc.Path,
		"significant", enrichment.IsSignificant)
	return result
}

// buildDocument assembles the publish payload. Every metadata value is a
// string; the store treats metadata as an opaque string map.
func buildDocument(session normalize.Session, enrichment *enrich.Result, content string) memory.Document {
	date := session.StartTime.UTC().Format("2006-01-02")

	tags := []string{"worklog", session.Project}
	meta := map[string]string{
		"source":    markdown.Source,
		"sessionId": session.ID,
		"project":   session.Project,
		"date":      date,
		"public":    "false",
		"summary":   "",
		"decision":  "",
		"problem":   "",
		"entryTags": "",
		"links":     "",
	}

	if enrichment.IsSignificant {
		entry := enrichment.Entry
		tags = append(tags, entry.Tags...)
		meta["public"] = "true"
		meta["summary"] = entry.Summary
		meta["decision"] = entry.Decision
		meta["problem"] = entry.Problem
		meta["entryTags"] = strings.Join(entry.Tags, ",")
	}

	return memory.Document{
		Path:     memory.DocumentPath(session.StartTime, session.ID),
		Content:  content,
		Tags:     tags,
		Metadata: meta,
	}
}
