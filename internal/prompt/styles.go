package prompt

import (
	"strings"

	"github.com/mwkelly/redraft/internal/config"
)

// commentaryInstruction returns the commentary guidance for the given
// style. Unknown styles fall back to the constructive preset, matching
// the default in config.DefaultSettings.
func commentaryInstruction(style config.CommentaryStyle, custom string) (string, error) {
	switch style {
	case config.StyleEncouraging:
		return encouragingCommentary, nil
	case config.StyleAnalytical:
		return analyticalCommentary, nil
	case config.StyleBrief:
		return briefCommentary, nil
	case config.StyleCustom:
		if strings.TrimSpace(custom) == "" {
			return "", missingField("CustomInstruction")
		}
		return customCommentaryPreamble + strings.TrimSpace(custom), nil
	default:
		return constructiveCommentary, nil
	}
}

// constructiveCommentary is the preset for config.StyleConstructive.
// It asks for actionable criticism of the writing.
const constructiveCommentary = `After the cleaned text, add commentary on the writing itself.

Guidelines:
1. Point out the most significant weaknesses in clarity, structure, or word choice
2. Suggest a concrete fix for each weakness you raise
3. Keep the tone direct and practical`

// encouragingCommentary is the preset for config.StyleEncouraging.
// It keeps feedback supportive without hiding real problems.
const encouragingCommentary = `After the cleaned text, add commentary on the writing itself.

Guidelines:
1. Lead with what the writing does well
2. Frame problems as opportunities to build on existing strengths
3. Keep the tone warm and supportive throughout`

// analyticalCommentary is the preset for config.StyleAnalytical.
// It asks for a neutral reading of structure and style.
const analyticalCommentary = `After the cleaned text, add commentary on the writing itself.

Guidelines:
1. Examine the structure, argument flow, and stylistic choices
2. Note where each choice helps or hurts the piece
3. Stay observational; no praise, no blame`

// briefCommentary is the preset for config.StyleBrief.
const briefCommentary = `After the cleaned text, add two or three sentences of high-level commentary on the writing. No lists, no headings, just the most useful observations.`

// customCommentaryPreamble introduces the user-authored instruction for
// config.StyleCustom. The instruction itself is appended verbatim.
const customCommentaryPreamble = `After the cleaned text, add commentary on the writing itself, following this instruction:

`
