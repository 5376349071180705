package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/glebkin/recbot/internal/metrics"
	"github.com/glebkin/recbot/internal/recs"
	"github.com/glebkin/recbot/internal/session"
)

// Engine applies the conversation state machine to inbound events.
// It is safe for concurrent use across users; the caller must not
// deliver two events for the same chat concurrently (the dispatcher
// serializes per chat).
type Engine struct {
	store   session.Store
	backend Backend
	logger  *slog.Logger

	// pick selects an index in [0, n); replaced in tests for determinism.
	pick func(n int) int
}

// New creates a conversation engine. The backend must be initialized and
// reachable before the first Handle call.
func New(store session.Store, backend Backend, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   store,
		backend: backend,
		logger:  logger,
		pick:    rand.IntN,
	}
}

// Handle applies one inbound event to the user's session and returns the
// outbound replies. It never returns an error: every failure path
// degrades to a user-visible message and leaves the session in a
// well-defined state.
func (e *Engine) Handle(ctx context.Context, ev Event) []Reply {
	metrics.EventsTotal.WithLabelValues(ev.Kind.String()).Inc()

	if ev.Kind == EventReset {
		e.store.Reset(ev.ChatID)
		return []Reply{{Text: msgChooseCategory, Keyboard: KeyboardCategories}}
	}

	sess := e.store.GetOrCreate(ev.ChatID)

	var replies []Reply
	switch sess.Step() {
	case session.AwaitingCategory:
		replies = e.handleAwaitingCategory(ev, sess)
	case session.AwaitingQuery:
		replies = e.handleAwaitingQuery(ctx, ev, sess)
	case session.ReadyForMore:
		replies = e.handleReadyForMore(ctx, ev, sess)
	default:
		// Unreachable with a well-formed session; recover by resetting.
		e.logger.Error("session in unknown step, resetting",
			slog.String("event_id", ev.ID), slog.Int64("chat_id", ev.ChatID))
		e.store.Reset(ev.ChatID)
		replies = []Reply{{Text: msgChooseCategory, Keyboard: KeyboardCategories}}
	}

	if err := sess.CheckInvariant(); err != nil {
		e.logger.Error("session invariant violated after transition",
			slog.String("event_id", ev.ID),
			slog.Int64("chat_id", ev.ChatID),
			slog.Any("error", err))
	}
	return replies
}

func (e *Engine) handleAwaitingCategory(ev Event, sess *session.Session) []Reply {
	text := strings.TrimSpace(ev.Text)
	if ev.Kind != EventText || !IsCategory(text) {
		// Invalid input at this step never mutates the session.
		return []Reply{{Text: msgSelectFromKeyboard, Keyboard: KeyboardCategories}}
	}

	sess.SelectCategory(text)
	e.store.Set(ev.ChatID, sess)
	return []Reply{{Text: queryPrompt(text), Keyboard: KeyboardNone}}
}

func (e *Engine) handleAwaitingQuery(ctx context.Context, ev Event, sess *session.Session) []Reply {
	text := strings.TrimSpace(ev.Text)
	if ev.Kind != EventText || text == "" {
		return []Reply{{Text: queryPrompt(sess.Category()), Keyboard: KeyboardNone}}
	}

	sess.BeginQuery(text)
	return []Reply{e.recommend(ctx, ev, sess)}
}

func (e *Engine) handleReadyForMore(ctx context.Context, ev Event, sess *session.Session) []Reply {
	switch ev.Kind {
	case EventMore:
		return []Reply{e.recommend(ctx, ev, sess)}

	case EventRandom:
		seed := e.randomSeed(sess.Category())
		sess.BeginQuery(seed)
		return []Reply{
			{Text: fmt.Sprintf("🎲 Trying: %s", seed), Keyboard: KeyboardNone},
			e.recommend(ctx, ev, sess),
		}

	case EventText:
		// A new free-text message while recommendations are active starts
		// a fresh seed query within the same category.
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			return []Reply{{Text: queryPrompt(sess.Category()), Keyboard: KeyboardActions}}
		}
		sess.BeginQuery(text)
		return []Reply{e.recommend(ctx, ev, sess)}

	default:
		return []Reply{{Text: queryPrompt(sess.Category()), Keyboard: KeyboardActions}}
	}
}

// recommend runs one backend round trip for the session's current
// (category, query) pair: build the prompt with the exclusion history,
// generate, parse, cap, record shown titles, and persist the session
// before returning the reply.
func (e *Engine) recommend(ctx context.Context, ev Event, sess *session.Session) Reply {
	prompt := BuildPrompt(sess.Category(), sess.Query(), sess.Seen())

	start := time.Now()
	raw, err := e.backend.Generate(ctx, prompt)
	metrics.BackendLatency.Observe(time.Since(start).Seconds())

	var batch recs.Batch
	switch {
	case err != nil:
		metrics.BackendFailures.Inc()
		e.logger.Warn("backend generate failed",
			slog.String("event_id", ev.ID),
			slog.Int64("chat_id", ev.ChatID),
			slog.Any("error", err))
		batch = recs.PlaceholderBatch(msgApology)

	default:
		items := recs.Parse(raw)
		if len(items) == 0 {
			metrics.EmptyResponses.Inc()
			batch = recs.PlaceholderBatch(msgNoRecommendations)
		} else {
			batch = recs.NewBatch(items)
		}
	}

	if !batch.IsPlaceholder() {
		for _, item := range batch.Items() {
			sess.AddSeen(item.Title)
		}
		metrics.RecommendationsServed.WithLabelValues(sess.Category()).Add(float64(batch.Len()))
	}

	// Persist before returning so a queued "more" sees this exclusion
	// history. The session advances even on failure, letting the user
	// retry via "more".
	e.store.Set(ev.ChatID, sess)

	e.logger.Info("recommendation batch produced",
		slog.String("event_id", ev.ID),
		slog.Int64("chat_id", ev.ChatID),
		slog.String("category", sess.Category()),
		slog.Int("items", batch.Len()),
		slog.Bool("placeholder", batch.IsPlaceholder()))

	return Reply{Text: batch.Render(), Keyboard: KeyboardActions}
}

func (e *Engine) randomSeed(category string) string {
	seeds := randomSeeds[category]
	if len(seeds) == 0 {
		return category
	}
	return seeds[e.pick(len(seeds))]
}

func queryPrompt(category string) string {
	return fmt.Sprintf("Enter a %s title or genre:", strings.ToLower(category))
}
