// Package session owns per-user conversation state for the recommendation
// flow. The store is safe for concurrent use across users; ordering of
// operations for a single user is the caller's responsibility (the event
// dispatcher serializes per chat).
package session

import (
	"fmt"

	"github.com/glebkin/recbot/internal/recs"
)

// Step is the user's current position in the conversation flow.
type Step int

const (
	// AwaitingCategory means the user has not yet picked a content category.
	AwaitingCategory Step = iota

	// AwaitingQuery means a category is selected and the user owes a
	// free-text seed query.
	AwaitingQuery

	// ReadyForMore means recommendations have been produced for the current
	// (category, query) pair and "more"/"random" are valid.
	ReadyForMore
)

// String returns a human-readable step name for logs.
func (s Step) String() string {
	switch s {
	case AwaitingCategory:
		return "awaiting_category"
	case AwaitingQuery:
		return "awaiting_query"
	case ReadyForMore:
		return "ready_for_more"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Session is one user's conversation state. Mutate it only through its
// methods; they keep the step/field invariant intact.
type Session struct {
	step     Step
	category string
	query    string

	// seen preserves insertion order and original casing so prompts can
	// restate titles verbatim; seenKeys is the normalized membership set.
	seen     []string
	seenKeys map[string]struct{}
}

// New returns a fresh session at AwaitingCategory with an empty
// exclusion history.
func New() *Session {
	return &Session{seenKeys: make(map[string]struct{})}
}

// Step returns the current flow position.
func (s *Session) Step() Step { return s.step }

// Category returns the selected category, empty before selection.
func (s *Session) Category() string { return s.category }

// Query returns the active seed query, empty before one is recorded.
func (s *Session) Query() string { return s.query }

// SelectCategory records a category choice and moves to AwaitingQuery.
// Any previous query and exclusion history are discarded.
func (s *Session) SelectCategory(category string) {
	s.category = category
	s.query = ""
	s.clearSeen()
	s.step = AwaitingQuery
}

// BeginQuery records a seed query for the current category, clears the
// exclusion history, and moves to ReadyForMore.
func (s *Session) BeginQuery(query string) {
	s.query = query
	s.clearSeen()
	s.step = ReadyForMore
}

// Reset returns the session to AwaitingCategory with all fields cleared.
// Calling it repeatedly is a no-op after the first call.
func (s *Session) Reset() {
	s.step = AwaitingCategory
	s.category = ""
	s.query = ""
	s.clearSeen()
}

// AddSeen records a shown title in the exclusion history. Re-adding a
// title whose normalized form is already present is a no-op.
func (s *Session) AddSeen(title string) {
	key := recs.NormalizeTitle(title)
	if key == "" {
		return
	}
	if _, ok := s.seenKeys[key]; ok {
		return
	}
	s.seenKeys[key] = struct{}{}
	s.seen = append(s.seen, title)
}

// Seen returns the exclusion history in insertion order, original casing
// preserved. The returned slice is a copy.
func (s *Session) Seen() []string {
	seen := make([]string, len(s.seen))
	copy(seen, s.seen)
	return seen
}

// HasSeen reports whether a title is in the exclusion history, compared
// by normalized form.
func (s *Session) HasSeen(title string) bool {
	_, ok := s.seenKeys[recs.NormalizeTitle(title)]
	return ok
}

func (s *Session) clearSeen() {
	s.seen = nil
	s.seenKeys = make(map[string]struct{})
}

// CheckInvariant verifies that category and query are both set iff the
// step is ReadyForMore. Returns a descriptive error on violation.
func (s *Session) CheckInvariant() error {
	bothSet := s.category != "" && s.query != ""
	if s.step == ReadyForMore && !bothSet {
		return fmt.Errorf("step %s requires category and query, have category=%q query=%q",
			s.step, s.category, s.query)
	}
	if s.step != ReadyForMore && bothSet {
		return fmt.Errorf("step %s must not have both category and query set", s.step)
	}
	return nil
}
