// Package settings provides configuration loading for the worklog pipeline.
// Settings live in <worklog home>/settings.json with optional overrides in
// settings.local.json (not synced between machines). The pipeline packages
// treat the loaded struct as immutable for the duration of a batch.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jack-x/worklog/cmd/worklog/cli/paths"
)

// Environment variables that override credentials from the settings file.
// Secrets in env vars keep them out of the JSON on shared machines.
const (
	MemoryAPIKeyEnvVar     = "WORKLOG_MEMORY_API_KEY"
	EnrichmentAPIKeyEnvVar = "WORKLOG_ENRICHMENT_API_KEY"
)

// DefaultWorkers is the worker pool size when concurrency.workers is unset.
const DefaultWorkers = 4

// DefaultEnrichmentProvider is the only provider currently wired.
const DefaultEnrichmentProvider = "ai-gateway"

// Settings is the full configuration contract for the pipeline.
type Settings struct {
	// Memory is the remote content store the pipeline publishes to.
	Memory MemorySettings `json:"memory"`

	// SessionPaths locates the on-disk session stores to ingest.
	SessionPaths SessionPaths `json:"sessionPaths"`

	// Sanitization configures the rule-based redaction stage.
	Sanitization SanitizationSettings `json:"sanitization"`

	// Enrichment configures the LLM classification stage.
	Enrichment EnrichmentSettings `json:"enrichment"`

	// Concurrency bounds the batch worker pool.
	Concurrency ConcurrencySettings `json:"concurrency"`

	// LogLevel sets logging verbosity (debug, info, warn, error).
	// Can be overridden by the WORKLOG_LOG_LEVEL environment variable.
	LogLevel string `json:"log_level,omitempty"`

	// Telemetry controls anonymous usage analytics.
	// nil = not asked yet, true = opted in, false = opted out
	Telemetry *bool `json:"telemetry,omitempty"`
}

// MemorySettings identifies the content store endpoint.
type MemorySettings struct {
	URL    string `json:"url"`
	APIKey string `json:"apiKey"`
}

// SessionPaths holds base directories per session source.
type SessionPaths struct {
	// ClaudeCode is the base directory of the claude-code session store
	// (defaults to ~/.claude/projects).
	ClaudeCode string `json:"claudeCode"`
}

// SanitizationSettings configures the sanitizer's block rules.
type SanitizationSettings struct {
	BlockedProjects []string `json:"blockedProjects,omitempty"`
	BlockedPaths    []string `json:"blockedPaths,omitempty"`
	BlockedDomains  []string `json:"blockedDomains,omitempty"`

	// RedactedTerms maps literal strings to their replacements, applied
	// after the regex pass.
	RedactedTerms map[string]string `json:"redactedTerms,omitempty"`
}

// EnrichmentSettings configures the LLM judge.
type EnrichmentSettings struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"apiKey"`

	// BaseURL points at the gateway endpoint. Empty means the provider's
	// default endpoint.
	BaseURL string `json:"baseUrl,omitempty"`
}

// ConcurrencySettings bounds the batch runner.
type ConcurrencySettings struct {
	Workers int `json:"workers,omitempty"`
}

// Load reads settings from <worklog home>/settings.json, then applies any
// overrides from settings.local.json if it exists. Missing files yield
// defaults; credentials are overlaid from the environment last.
func Load() (*Settings, error) {
	settingsFile, err := paths.SettingsFile()
	if err != nil {
		return nil, err
	}
	localFile, err := paths.SettingsLocalFile()
	if err != nil {
		return nil, err
	}

	settings, err := loadFromFile(settingsFile)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	localData, err := os.ReadFile(localFile) //nolint:gosec // path is from paths package
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading local settings file: %w", err)
		}
	} else {
		if err := json.Unmarshal(localData, settings); err != nil {
			return nil, fmt.Errorf("merging local settings: %w", err)
		}
	}

	applyDefaults(settings)
	applyEnvOverrides(settings)

	return settings, nil
}

// loadFromFile loads settings from a specific file path.
// Returns default settings if the file doesn't exist.
func loadFromFile(filePath string) (*Settings, error) {
	settings := &Settings{}

	data, err := os.ReadFile(filePath) //nolint:gosec // path is from caller
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(settings)
			return settings, nil
		}
		return nil, fmt.Errorf("%w", err)
	}

	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}
	applyDefaults(settings)

	return settings, nil
}

func applyDefaults(settings *Settings) {
	if settings.Concurrency.Workers <= 0 {
		settings.Concurrency.Workers = DefaultWorkers
	}
	if settings.Enrichment.Provider == "" {
		settings.Enrichment.Provider = DefaultEnrichmentProvider
	}
	if settings.SessionPaths.ClaudeCode == "" {
		if base, err := paths.DefaultSessionBase(); err == nil {
			settings.SessionPaths.ClaudeCode = base
		}
	}
}

func applyEnvOverrides(settings *Settings) {
	if v := os.Getenv(MemoryAPIKeyEnvVar); v != "" {
		settings.Memory.APIKey = v
	}
	if v := os.Getenv(EnrichmentAPIKeyEnvVar); v != "" {
		settings.Enrichment.APIKey = v
	}
}

// Validate checks the invariants a batch cannot start without: content store
// endpoint and key, enrichment credentials, and a session base directory.
// A failure here is fatal to the batch before any work is dispatched.
func (s *Settings) Validate() error {
	var errs []error
	if s.Memory.URL == "" {
		errs = append(errs, errors.New("memory.url is required"))
	}
	if s.Memory.APIKey == "" {
		errs = append(errs, fmt.Errorf("memory.apiKey is required (or set %s)", MemoryAPIKeyEnvVar))
	}
	if s.Enrichment.Model == "" {
		errs = append(errs, errors.New("enrichment.model is required"))
	}
	if s.Enrichment.APIKey == "" {
		errs = append(errs, fmt.Errorf("enrichment.apiKey is required (or set %s)", EnrichmentAPIKeyEnvVar))
	}
	if s.SessionPaths.ClaudeCode == "" {
		errs = append(errs, errors.New("sessionPaths.claudeCode is required"))
	}
	return errors.Join(errs...)
}
