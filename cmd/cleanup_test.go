package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwkelly/redraft/internal/config"
	"github.com/spf13/cobra"
)

// Helper to build a command carrying the cleanup flag set.
func newCleanupCommand(t *testing.T) *cobra.Command {
	t.Helper()
	c := &cobra.Command{}
	addCleanupFlags(c)
	return c
}

func TestOverriddenSettings(t *testing.T) {
	stored := config.Settings{
		Model:       "claude-sonnet-4-5-20250929",
		Instruction: "Fix the grammar.",
		Commentary:  false,
		Style:       config.StyleConstructive,
	}

	tests := []struct {
		name  string
		flags map[string]string
		want  config.Settings
	}{
		{
			name:  "no flags keeps stored settings",
			flags: map[string]string{},
			want:  stored,
		},
		{
			name:  "model override",
			flags: map[string]string{"model": "claude-opus-4-1-20250805"},
			want: config.Settings{
				Model:       "claude-opus-4-1-20250805",
				Instruction: "Fix the grammar.",
				Style:       config.StyleConstructive,
			},
		},
		{
			name:  "instruction override",
			flags: map[string]string{"instruction": "Tighten it up."},
			want: config.Settings{
				Model:       "claude-sonnet-4-5-20250929",
				Instruction: "Tighten it up.",
				Style:       config.StyleConstructive,
			},
		},
		{
			name:  "style implies commentary",
			flags: map[string]string{"style": "analytical"},
			want: config.Settings{
				Model:       "claude-sonnet-4-5-20250929",
				Instruction: "Fix the grammar.",
				Commentary:  true,
				Style:       config.StyleAnalytical,
			},
		},
		{
			name: "explicit commentary false wins over style implication",
			flags: map[string]string{
				"style":      "brief",
				"commentary": "false",
			},
			want: config.Settings{
				Model:       "claude-sonnet-4-5-20250929",
				Instruction: "Fix the grammar.",
				Commentary:  false,
				Style:       config.StyleBrief,
			},
		},
		{
			name: "custom style with instruction",
			flags: map[string]string{
				"style":              "custom",
				"custom-instruction": "Focus on rhythm.",
			},
			want: config.Settings{
				Model:             "claude-sonnet-4-5-20250929",
				Instruction:       "Fix the grammar.",
				Commentary:        true,
				Style:             config.StyleCustom,
				CustomInstruction: "Focus on rhythm.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCleanupCommand(t)
			for name, value := range tt.flags {
				if err := c.Flags().Set(name, value); err != nil {
					t.Fatalf("Set(%s) error = %v", name, err)
				}
			}

			got, err := overriddenSettings(c, stored)
			if err != nil {
				t.Fatalf("overriddenSettings() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("overriddenSettings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOverriddenSettings_RejectsUnknownStyle(t *testing.T) {
	c := newCleanupCommand(t)
	if err := c.Flags().Set("style", "sarcastic"); err != nil {
		t.Fatalf("Set(style) error = %v", err)
	}

	if _, err := overriddenSettings(c, config.DefaultSettings()); err == nil {
		t.Error("overriddenSettings() expected error for unknown style, got nil")
	}
}

func TestReadSource_Stdin(t *testing.T) {
	c := &cobra.Command{}
	c.SetIn(strings.NewReader("text from stdin"))

	got, err := readSource(c, "")
	if err != nil {
		t.Fatalf("readSource() error = %v", err)
	}
	if got != "text from stdin" {
		t.Errorf("readSource() = %q, want %q", got, "text from stdin")
	}
}

func TestReadSource_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.txt")
	if err := os.WriteFile(path, []byte("text from file"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	got, err := readSource(&cobra.Command{}, path)
	if err != nil {
		t.Fatalf("readSource() error = %v", err)
	}
	if got != "text from file" {
		t.Errorf("readSource() = %q, want %q", got, "text from file")
	}
}

func TestReadSource_MissingFile(t *testing.T) {
	_, err := readSource(&cobra.Command{}, filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Error("readSource() expected error for missing file, got nil")
	}
}

func TestAppendInsertion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.txt")
	if err := os.WriteFile(path, []byte("Original text."), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	block := "\n\n---\n\nAI Cleanup:\n\nCleaned text."
	if err := appendInsertion(path, block); err != nil {
		t.Fatalf("appendInsertion() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	want := "Original text." + block
	if string(data) != want {
		t.Errorf("file = %q, want %q", string(data), want)
	}
}

func TestAppendInsertion_MissingFile(t *testing.T) {
	err := appendInsertion(filepath.Join(t.TempDir(), "absent.txt"), "block")
	if err == nil {
		t.Error("appendInsertion() expected error for missing file, got nil")
	}
}
