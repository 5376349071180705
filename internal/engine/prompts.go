package engine

import "strings"

// SystemPrompt is the standing instruction the backend is primed with.
// It is passed to the backend client at startup, not per call.
const SystemPrompt = "You are an assistant that recommends movies, TV shows, games, books, and anime. " +
	"You should always provide up to 5 recommendations and avoid using markdown. " +
	"Your responses should be relatively brief. " +
	"Format: " +
	"1. Recommendation Title - short review and some reasons it's similar to what the user sent. " +
	"2. Recommendation Title - short review and some reasons it's similar to what the user sent. " +
	"... and so on."

// User-facing fixed strings.
const (
	msgChooseCategory     = "Choose a category:"
	msgSelectFromKeyboard = "Please select a category from the keyboard."
	msgApology            = "Sorry, I couldn't generate recommendations at the moment."
	msgNoRecommendations  = "No recommendations found."
)

// BuildPrompt constructs the per-call backend prompt. It always names
// the category and query; a non-empty exclusion history appends an
// instruction restating every previously shown title verbatim, which is
// the whole mechanism by which "more" yields novel results.
func BuildPrompt(category, query string, seen []string) string {
	var b strings.Builder
	b.WriteString(category)
	b.WriteString(": ")
	b.WriteString(query)
	if len(seen) > 0 {
		b.WriteString("\nYou have already recommended: ")
		b.WriteString(strings.Join(seen, "; "))
		b.WriteString(". Do not recommend any of these again; only suggest titles not in that list.")
	}
	return b.String()
}
