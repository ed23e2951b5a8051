package claude

import (
	"strings"

	"github.com/mwkelly/redraft/internal/prompt"
)

// parseReply extracts the cleaned text and optional commentary from a
// raw model reply. Section lookup is position-independent, so prose the
// model adds around the markers is tolerated. A missing or empty
// cleaned-text section is a malformed response; a missing commentary
// section is not.
func parseReply(raw string) (cleaned, commentary string, err error) {
	if strings.TrimSpace(raw) == "" {
		return "", "", &Error{
			Kind:    KindMalformedResponse,
			Message: "model reply is empty",
		}
	}

	cleaned, ok := section(raw, prompt.MarkerCleanedStart, prompt.MarkerCleanedEnd)
	if !ok {
		return "", "", &Error{
			Kind:    KindMalformedResponse,
			Message: "model reply is missing the cleaned text markers",
		}
	}
	if cleaned == "" {
		return "", "", &Error{
			Kind:    KindMalformedResponse,
			Message: "model reply has an empty cleaned text section",
		}
	}

	commentary, _ = section(raw, prompt.MarkerCommentaryStart, prompt.MarkerCommentaryEnd)
	return cleaned, commentary, nil
}

// section returns the trimmed text between the first start marker and
// the first end marker after it. ok is false when either marker is
// absent, including an end marker that only appears before the start.
func section(raw, start, end string) (text string, ok bool) {
	i := strings.Index(raw, start)
	if i < 0 {
		return "", false
	}
	rest := raw[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:j]), true
}
