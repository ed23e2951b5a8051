package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mwkelly/redraft/internal/config"
)

// Markers the model is told to wrap each reply section in. The reply
// parser locates sections by scanning for these exact strings.
const (
	MarkerCleanedStart    = "===CLEANED TEXT==="
	MarkerCleanedEnd      = "===END CLEANED TEXT==="
	MarkerCommentaryStart = "===COMMENTARY==="
	MarkerCommentaryEnd   = "===END COMMENTARY==="
)

// Options holds everything needed to assemble one system instruction.
type Options struct {
	// Instruction is the base cleanup instruction.
	// Empty selects config.DefaultInstruction.
	Instruction string

	// Commentary requests a feedback section after the cleaned text.
	Commentary bool

	// Style selects the commentary preset.
	// Ignored unless Commentary is set.
	Style config.CommentaryStyle

	// CustomInstruction is the user-authored commentary instruction.
	// Required when Style is [config.StyleCustom].
	CustomInstruction string
}

// ErrMissingField is returned by [System] when a required field for the
// requested configuration is absent from [Options].
var ErrMissingField = errors.New("prompt: missing required field")

// missingField wraps [ErrMissingField] with the specific field name.
func missingField(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

// System assembles the system instruction for one cleanup request.
//
// The result always ends with the output format contract, so the model
// is told about the section markers on every request, with or without
// commentary.
//
// Returns ErrMissingField when Options.Style is [config.StyleCustom]
// and Options.CustomInstruction is empty.
func System(opts Options) (string, error) {
	instruction := opts.Instruction
	if strings.TrimSpace(instruction) == "" {
		instruction = config.DefaultInstruction
	}

	var sb strings.Builder
	sb.WriteString(instruction)
	sb.WriteString("\n\n")

	if opts.Commentary {
		commentary, err := commentaryInstruction(opts.Style, opts.CustomInstruction)
		if err != nil {
			return "", err
		}
		sb.WriteString(commentary)
		sb.WriteString("\n\n")
	}

	sb.WriteString(outputContract(opts.Commentary))
	return sb.String(), nil
}

// outputContract renders the fixed reply-format instruction. The
// commentary section is only described when requested, so the model
// never emits commentary markers unprompted.
func outputContract(commentary bool) string {
	var sb strings.Builder
	sb.WriteString("Format your entire reply exactly as follows, with nothing before, between, or after the sections:\n\n")
	sb.WriteString(MarkerCleanedStart)
	sb.WriteString("\n<the corrected text>\n")
	sb.WriteString(MarkerCleanedEnd)
	sb.WriteString("\n")
	if commentary {
		sb.WriteString("\n")
		sb.WriteString(MarkerCommentaryStart)
		sb.WriteString("\n<your commentary>\n")
		sb.WriteString(MarkerCommentaryEnd)
		sb.WriteString("\n")
	}
	return sb.String()
}
