// Package prompt assembles the system instructions sent alongside text
// cleanup requests.
//
// # Overview
//
// Every cleanup request carries a system instruction built from three
// parts: the base cleanup instruction (what to fix and what to leave
// alone), an optional commentary instruction selected by style, and the
// output format contract the reply parser depends on. Callers describe
// the request with an [Options] value and call [System] to receive the
// assembled instruction string.
//
// # Commentary styles
//
//   - [config.StyleConstructive]: point out weaknesses and suggest a
//     concrete fix for each
//   - [config.StyleEncouraging]: lead with strengths, keep the tone
//     supportive
//   - [config.StyleAnalytical]: examine structure and stylistic choices
//     neutrally
//   - [config.StyleBrief]: two or three sentences of high-level feedback
//   - [config.StyleCustom]: a user-authored instruction, passed through
//     verbatim
//
// # Output contract
//
// The instruction tells the model to wrap the corrected text between
// [MarkerCleanedStart] and [MarkerCleanedEnd], and commentary (when
// requested) between [MarkerCommentaryStart] and [MarkerCommentaryEnd].
// The reply parser locates sections by scanning for these exact strings,
// so any drift here breaks parsing.
//
// # Basic usage
//
//	system, err := prompt.System(prompt.Options{
//	    Instruction: settings.Instruction,
//	    Commentary:  settings.Commentary,
//	    Style:       settings.Style,
//	})
//	if err != nil {
//	    return err
//	}
//	// Embed system in the API request's system field.
package prompt
