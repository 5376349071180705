package recs

import (
	"regexp"
	"strings"
)

// emphasisPattern matches spans wrapped in one or two markdown emphasis
// markers (*, _, **, __) and captures the bare span.
var emphasisPattern = regexp.MustCompile(`[*_]{1,2}([^*_]+)[*_]{1,2}`)

// linePattern matches "leading digits, period, whitespace, title, hyphen,
// body". Title and body are captured separately.
var linePattern = regexp.MustCompile(`^\d+\.\s+(.+?)\s+-\s+(.+)$`)

// StripEmphasis removes markdown emphasis markers from text, replacing
// each wrapped span with the bare span. Applied globally, not per-field.
func StripEmphasis(text string) string {
	return emphasisPattern.ReplaceAllString(text, "$1")
}

// Parse converts a raw backend response into recommendation items.
//
// The response is split into non-empty trimmed lines. Each line has its
// emphasis markers stripped and is then matched against linePattern: on a
// match the title and body split accordingly; otherwise the whole line
// becomes the title with an empty body. At most MaxBatchSize items are
// returned, in response order.
//
// An empty or whitespace-only response, or one that yields no items,
// produces an empty slice; the caller decides the placeholder policy.
func Parse(raw string) []Item {
	var items []Item
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = StripEmphasis(line)

		if m := linePattern.FindStringSubmatch(line); m != nil {
			items = append(items, Item{Title: m[1], Body: m[2]})
		} else {
			items = append(items, Item{Title: line})
		}

		if len(items) == MaxBatchSize {
			break
		}
	}
	return items
}

// NormalizeTitle produces the canonical form of a title used for
// exclusion-history membership checks.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
