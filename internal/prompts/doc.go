// Package prompts contains the model instructions AiChan sends: the
// assistant persona for final answers, the two query-writing personas,
// and the context summarizer persona, plus the user-turn prompts those
// stages build.
//
// Prompt text is Go code rather than config files because it is program
// logic: templates interpolate the date, the mode and the user's name,
// and tests pin their shape.
//
// Convention: each prompt category gets its own file with an exported
// function that accepts the dynamic parts and returns the interpolated
// prompt string.
package prompts

import "time"

// DefaultUsername is how the assistant refers to the person it talks to.
const DefaultUsername = "User"

// DateLayout renders dates as "October 16, 2026".
const DateLayout = "January 2, 2006"

func today(now time.Time) string {
	return now.Format(DateLayout)
}
