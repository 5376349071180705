// Package recs defines the recommendation data model and the parser that
// turns raw model output into a bounded batch of recommendations.
package recs

import (
	"fmt"
	"strings"
)

// MaxBatchSize is the maximum number of recommendations in a batch.
// The backend is instructed to return at most this many, but the parser
// enforces the cap regardless of backend compliance.
const MaxBatchSize = 5

// Item is a single parsed recommendation. It only lives for the duration
// of one response-processing pass.
type Item struct {
	// Title is the recommendation title, trimmed and with markdown
	// emphasis markers stripped.
	Title string

	// Body is the remainder of the line after the "N. Title -" pattern,
	// or empty if the line did not match the pattern.
	Body string

	// Placeholder marks apology and "no recommendations" items. Placeholder
	// titles are never recorded in a session's exclusion history.
	Placeholder bool
}

// Batch is an ordered sequence of at most MaxBatchSize items, the
// externally visible result of one backend round trip. Immutable once
// produced.
type Batch struct {
	items []Item
}

// NewBatch builds a batch from items, truncating to MaxBatchSize in
// original order.
func NewBatch(items []Item) Batch {
	if len(items) > MaxBatchSize {
		items = items[:MaxBatchSize]
	}
	copied := make([]Item, len(items))
	copy(copied, items)
	return Batch{items: copied}
}

// PlaceholderBatch builds a single-item batch carrying a fixed
// user-facing message instead of real recommendations.
func PlaceholderBatch(message string) Batch {
	return Batch{items: []Item{{Title: message, Placeholder: true}}}
}

// Items returns a copy of the batch contents in response order.
func (b Batch) Items() []Item {
	items := make([]Item, len(b.items))
	copy(items, b.items)
	return items
}

// Len returns the number of items in the batch.
func (b Batch) Len() int {
	return len(b.items)
}

// IsPlaceholder reports whether the batch carries a placeholder message
// rather than parsed recommendations.
func (b Batch) IsPlaceholder() bool {
	return len(b.items) == 1 && b.items[0].Placeholder
}

// Render formats the batch as the message text shown to the user, one
// recommendation per line.
func (b Batch) Render() string {
	lines := make([]string, 0, len(b.items))
	for i, item := range b.items {
		if item.Placeholder {
			lines = append(lines, item.Title)
			continue
		}
		if item.Body == "" {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, item.Title))
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, item.Title, item.Body))
	}
	return strings.Join(lines, "\n")
}
