// Package bot wires the Telegram transport, the per-chat event
// dispatcher, and the conversation engine into a running service.
package bot

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/glebkin/recbot/internal/engine"
	"github.com/glebkin/recbot/internal/queue"
	"github.com/glebkin/recbot/internal/telegram"
)

// Control button labels and the commands mapped to the same symbolic
// events.
const (
	ButtonMore   = "🔄 More"
	ButtonRandom = "🎲 Random"
	ButtonMenu   = "⬅️ Menu"
)

// Bot runs the receive loop and drives the conversation engine.
type Bot struct {
	engine     *engine.Engine
	messenger  telegram.Messenger
	typing     telegram.TypingManager
	dispatcher *queue.Dispatcher
	logger     *slog.Logger
}

// New assembles a bot from its components.
func New(eng *engine.Engine, messenger telegram.Messenger, typing telegram.TypingManager, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bot{
		engine:    eng,
		messenger: messenger,
		typing:    typing,
		logger:    logger,
	}
	b.dispatcher = queue.NewDispatcher(b.process, logger)
	return b
}

// Run subscribes to incoming messages and dispatches them until ctx is
// canceled. Queued events finish processing before Run returns.
func (b *Bot) Run(ctx context.Context) error {
	messages, err := b.messenger.Subscribe(ctx)
	if err != nil {
		return err
	}
	b.dispatcher.Start(ctx)

	for msg := range messages {
		ev := toEvent(msg)
		if err := b.dispatcher.Submit(ev); err != nil {
			b.logger.Warn("dropping event, dispatcher closed",
				slog.String("event_id", ev.ID),
				slog.Int64("chat_id", ev.ChatID))
		}
	}

	b.dispatcher.Close()
	b.typing.StopAll()
	return ctx.Err()
}

// process handles one event end to end. The dispatcher guarantees it is
// never called concurrently for the same chat.
func (b *Bot) process(ctx context.Context, ev engine.Event) {
	b.typing.Start(ctx, ev.ChatID)
	defer b.typing.Stop(ev.ChatID)

	replies := b.engine.Handle(ctx, ev)

	for _, reply := range replies {
		if err := b.send(ctx, ev.ChatID, reply); err != nil {
			b.logger.Error("failed to send reply",
				slog.String("event_id", ev.ID),
				slog.Int64("chat_id", ev.ChatID),
				slog.Any("error", err))
		}
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, reply engine.Reply) error {
	switch reply.Keyboard {
	case engine.KeyboardCategories:
		return b.messenger.SendWithKeyboard(ctx, chatID, reply.Text, categoryKeyboard())
	case engine.KeyboardActions:
		return b.messenger.SendWithKeyboard(ctx, chatID, reply.Text, actionsKeyboard())
	default:
		return b.messenger.Send(ctx, chatID, reply.Text)
	}
}

// toEvent maps an incoming Telegram message to a conversation event.
// Control buttons and slash commands become symbolic event kinds.
func toEvent(msg telegram.IncomingMessage) engine.Event {
	ev := engine.Event{
		ID:     uuid.NewString(),
		ChatID: msg.ChatID,
		Kind:   engine.EventText,
		Text:   msg.Text,
	}

	switch msg.Text {
	case ButtonMore, "/more":
		ev.Kind = engine.EventMore
	case ButtonRandom, "/random":
		ev.Kind = engine.EventRandom
	case ButtonMenu, "/start", "/reset":
		ev.Kind = engine.EventReset
	}
	return ev
}

// categoryKeyboard renders one category per row, mirroring the category
// labels the engine accepts.
func categoryKeyboard() [][]string {
	var rows [][]string
	for _, c := range engine.Categories() {
		rows = append(rows, []string{c})
	}
	return rows
}

// actionsKeyboard renders the post-recommendation controls.
func actionsKeyboard() [][]string {
	return [][]string{
		{ButtonMore, ButtonRandom},
		{ButtonMenu},
	}
}
