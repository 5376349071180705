package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTypingInterval is how often the typing indicator is refreshed.
// Telegram drops the indicator after roughly five seconds, so the
// refresh must come sooner than that.
const DefaultTypingInterval = 4 * time.Second

// TypingManager keeps the "typing…" indicator alive for chats while a
// recommendation is in flight.
type TypingManager interface {
	// Start begins refreshing the typing indicator for a chat.
	Start(ctx context.Context, chatID int64)

	// Stop stops refreshing the typing indicator for a chat.
	Stop(chatID int64)

	// StopAll stops all active indicators.
	StopAll()
}

type typingManager struct {
	messenger Messenger
	active    map[int64]context.CancelFunc
	mu        sync.Mutex
	interval  time.Duration
	logger    *slog.Logger
}

// NewTypingManager creates a typing indicator manager with the default
// refresh interval.
func NewTypingManager(messenger Messenger, logger *slog.Logger) TypingManager {
	return NewTypingManagerWithInterval(messenger, DefaultTypingInterval, logger)
}

// NewTypingManagerWithInterval creates a typing indicator manager with a
// custom refresh interval.
func NewTypingManagerWithInterval(messenger Messenger, interval time.Duration, logger *slog.Logger) TypingManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &typingManager{
		messenger: messenger,
		active:    make(map[int64]context.CancelFunc),
		interval:  interval,
		logger:    logger,
	}
}

func (m *typingManager) Start(ctx context.Context, chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Already refreshing this chat; nothing to do.
	if _, exists := m.active[chatID]; exists {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.active[chatID] = cancel
	go m.run(runCtx, chatID)
}

func (m *typingManager) Stop(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, exists := m.active[chatID]; exists {
		cancel()
		delete(m.active, chatID)
	}
}

func (m *typingManager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for chatID, cancel := range m.active {
		cancel()
		delete(m.active, chatID)
	}
}

// run sends the indicator immediately and then on every tick until the
// context is canceled. Send failures are logged and ignored; the
// indicator is cosmetic.
func (m *typingManager) run(ctx context.Context, chatID int64) {
	if err := m.messenger.SendTyping(ctx, chatID); err != nil && ctx.Err() == nil {
		m.logger.Debug("typing indicator send failed",
			slog.Int64("chat_id", chatID), slog.Any("error", err))
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.messenger.SendTyping(ctx, chatID); err != nil && ctx.Err() == nil {
				m.logger.Debug("typing indicator send failed",
					slog.Int64("chat_id", chatID), slog.Any("error", err))
			}
		}
	}
}
