// Package telegram implements the chat transport over the Telegram Bot
// API: a long-poll receive loop, message sending with reply keyboards,
// and typing indicators.
package telegram

import "context"

// Messenger abstracts outbound and inbound Telegram communication.
type Messenger interface {
	// Send sends a plain text message to a chat.
	Send(ctx context.Context, chatID int64, text string) error

	// SendWithKeyboard sends a text message with a reply keyboard. Each
	// inner slice is one row of button labels.
	SendWithKeyboard(ctx context.Context, chatID int64, text string, keyboard [][]string) error

	// SendTyping shows the transient "typing…" indicator in a chat.
	SendTyping(ctx context.Context, chatID int64) error

	// Subscribe returns a channel of incoming messages. The channel is
	// closed when ctx is canceled.
	Subscribe(ctx context.Context) (<-chan IncomingMessage, error)
}

// IncomingMessage is one user text message delivered by the transport.
type IncomingMessage struct {
	ChatID    int64
	MessageID int64
	Text      string
}
