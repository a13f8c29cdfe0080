package prompts

import (
	"fmt"
	"time"
)

const queryTemplate = `Your job is to turn questions into a web search query using the context provided. Reply with nothing but the search query, without quotes. Today is %s. If the user asks a question about themselves, their name is %s.`

const deepQueryTemplate = `Your job is to turn questions into web search queries using the context provided. Reply with nothing but the search queries, without quotes, separated by commas. Each query is run on its own, so keep every query straight to the point. Always assume you know nothing about the user's question. Today is %s. If the user asks a question about themselves, their name is %s.`

// Query returns the persona that writes exactly one search query.
func Query(username string, now time.Time) string {
	return fmt.Sprintf(queryTemplate, today(now), username)
}

// DeepQuery returns the persona that writes several comma-separated
// search queries.
func DeepQuery(username string, now time.Time) string {
	return fmt.Sprintf(deepQueryTemplate, today(now), username)
}

// QueryPrompt is the user turn sent to the query writer. The context
// line is omitted when summary is empty.
func QueryPrompt(summary, question string) string {
	if summary == "" {
		return "Question: " + question
	}
	return "Context: " + summary + "\nQuestion: " + question
}
