// Package config provides configuration types and helpers for redraft.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the host-level configuration loaded through viper.
// It controls how the CLI behaves; the cleanup behavior itself lives in
// Settings, which is persisted in the data file alongside the model cache.
type Config struct {
	Format   string `mapstructure:"format"`
	Verbose  bool   `mapstructure:"verbose"`
	DataFile string `mapstructure:"data_file"`

	// BaseURL overrides the provider endpoint, e.g. for self-hosted gateways.
	BaseURL string `mapstructure:"base_url"`

	// APIKey is an optional credential override. The credential stored in
	// Settings takes precedence; this exists so CI and one-off invocations
	// can supply a key via REDRAFT_API_KEY without touching the data file.
	APIKey string `mapstructure:"api_key"`
}

// Settings is the persisted cleanup configuration, mutated only through the
// `redraft config` surface and read by the API client (credential) and the
// orchestration service (behavior parameters).
type Settings struct {
	// APIKey is the provider credential.
	APIKey string `json:"api_key"`

	// Model is the selected model identifier.
	Model string `json:"model"`

	// Instruction is the cleanup instruction embedded in the system prompt.
	Instruction string `json:"instruction"`

	// Commentary enables the optional commentary section.
	Commentary bool `json:"commentary"`

	// Style selects the commentary voice when Commentary is enabled.
	Style CommentaryStyle `json:"style"`

	// CustomInstruction is the commentary instruction used when Style is
	// StyleCustom. Required (non-empty) in that case.
	CustomInstruction string `json:"custom_instruction"`
}

// CommentaryStyle identifies the voice used for the commentary section.
type CommentaryStyle string

const (
	// StyleConstructive points out concrete weaknesses with suggested fixes.
	StyleConstructive CommentaryStyle = "constructive"

	// StyleEncouraging highlights what works and frames issues positively.
	StyleEncouraging CommentaryStyle = "encouraging"

	// StyleAnalytical examines structure, argument, and style tradeoffs.
	StyleAnalytical CommentaryStyle = "analytical"

	// StyleBrief gives two or three sentences of high-level feedback.
	StyleBrief CommentaryStyle = "brief"

	// StyleCustom uses the user-supplied CustomInstruction verbatim.
	StyleCustom CommentaryStyle = "custom"
)

// Styles lists every valid commentary style, in display order.
func Styles() []CommentaryStyle {
	return []CommentaryStyle{
		StyleConstructive,
		StyleEncouraging,
		StyleAnalytical,
		StyleBrief,
		StyleCustom,
	}
}

// ParseStyle converts a string to a CommentaryStyle.
// Matching is case-insensitive. Unknown values are rejected.
func ParseStyle(s string) (CommentaryStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "constructive":
		return StyleConstructive, nil
	case "encouraging":
		return StyleEncouraging, nil
	case "analytical":
		return StyleAnalytical, nil
	case "brief":
		return StyleBrief, nil
	case "custom":
		return StyleCustom, nil
	default:
		return "", fmt.Errorf("unknown commentary style: %q (must be one of: constructive, encouraging, analytical, brief, custom)", s)
	}
}

// Input limits enforced before any network call.
const (
	// MaxInputChars is the hard ceiling on cleanup input length.
	MaxInputChars = 680_000

	// MaxEstimatedTokens is the soft token ceiling for a single request.
	MaxEstimatedTokens = 200_000

	// DefaultMaxOutputTokens caps the provider's response length.
	DefaultMaxOutputTokens = 4000
)

// EstimateTokens approximates the token count of text at roughly one token
// per four characters, with a 10% safety margin on top.
func EstimateTokens(text string) int {
	return len(text) / 4 * 11 / 10
}

// DefaultModel is the model used until the user selects one.
const DefaultModel = "claude-sonnet-4-5-20250929"

// DefaultInstruction is the cleanup instruction used until the user edits it.
const DefaultInstruction = "Fix grammar, spelling, and punctuation errors. " +
	"Improve clarity and flow while preserving the author's voice, meaning, and formatting."

// DefaultSettings returns the settings a fresh data file starts with.
func DefaultSettings() Settings {
	return Settings{
		Model:       DefaultModel,
		Instruction: DefaultInstruction,
		Commentary:  false,
		Style:       StyleConstructive,
	}
}

// ResolveAPIKey checks the explicitly configured key first, then falls back
// to the ANTHROPIC_API_KEY environment variable.
// Returns empty string if neither is set.
func ResolveAPIKey(configured string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

// DefaultDataFile returns the default location of the persisted data file
// (settings plus model cache), $HOME/.redraft/data.json.
func DefaultDataFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".redraft", "data.json"), nil
}
