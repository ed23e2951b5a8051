// Package cleanup orchestrates one text cleanup end to end: it reads
// the current settings, invokes the API client, and assembles the
// result record that hosts render or insert back into the buffer.
package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mwkelly/redraft/internal/claude"
	"github.com/mwkelly/redraft/internal/config"
)

// Client is the slice of the API client this service needs.
// *claude.Client satisfies it.
type Client interface {
	Cleanup(ctx context.Context, req claude.CleanupRequest) (*claude.CleanupOutput, error)
}

// Usage mirrors the provider's token accounting for one request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Result is the complete record of one cleanup.
type Result struct {
	Original   string    `json:"original"`
	Cleaned    string    `json:"cleaned"`
	Commentary string    `json:"commentary,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Model      string    `json:"model"`
	Usage      Usage     `json:"usage"`
	DurationMs int64     `json:"duration_ms"`
}

// Service runs cleanups with the user's current settings.
type Service struct {
	client   Client
	settings func() config.Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a Service. settings is consulted on every run, so
// edits made between runs take effect without rebuilding the service.
// A nil settings func selects the defaults; a nil logger discards logs.
func NewService(client Client, settings func() config.Settings, logger *slog.Logger) *Service {
	if settings == nil {
		settings = config.DefaultSettings
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		client:   client,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Run cleans text and assembles the result record. Empty or
// whitespace-only input fails before any network traffic.
func (s *Service) Run(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("nothing to clean up: the selection is empty")
	}

	settings := s.settings()
	start := s.now()

	out, err := s.client.Cleanup(ctx, claude.CleanupRequest{
		Text:              text,
		Model:             settings.Model,
		Instruction:       settings.Instruction,
		Commentary:        settings.Commentary,
		Style:             settings.Style,
		CustomInstruction: settings.CustomInstruction,
	})
	if err != nil {
		return nil, err
	}

	model := out.Model
	if model == "" {
		model = settings.Model
	}

	result := &Result{
		Original:   text,
		Cleaned:    out.Cleaned,
		Commentary: out.Commentary,
		Timestamp:  start,
		Model:      model,
		Usage:      Usage{InputTokens: out.InputTokens, OutputTokens: out.OutputTokens},
		DurationMs: s.now().Sub(start).Milliseconds(),
	}

	s.logger.Info("cleanup finished",
		"model", result.Model,
		"chars", len(text),
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
		"duration_ms", result.DurationMs)

	return result, nil
}

// FormatInsertion renders the block a host appends after the original
// text: a separator, the cleaned text under an "AI Cleanup:" header,
// and the commentary under its own header when present.
func FormatInsertion(r *Result) string {
	var sb strings.Builder
	sb.WriteString("\n\n---\n\nAI Cleanup:\n\n")
	sb.WriteString(r.Cleaned)
	if r.Commentary != "" {
		sb.WriteString("\n\n---\n\nAI Commentary:\n\n")
		sb.WriteString(r.Commentary)
	}
	return sb.String()
}
