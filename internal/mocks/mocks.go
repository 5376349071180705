// Package mocks provides test doubles for the backend and the Telegram
// transport, used by engine and bot tests.
package mocks

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/glebkin/recbot/internal/telegram"
)

// ScriptedResponse is one scripted backend reply.
type ScriptedResponse struct {
	// Response is the raw text to return.
	Response string

	// Err is returned instead of Response when set.
	Err error

	// PromptPattern, when non-empty, is a regex the received prompt must
	// match; a mismatch fails the call with a descriptive error.
	PromptPattern string

	// Delay simulates backend processing time.
	Delay time.Duration

	// BeforeReturn runs side effects (e.g. firing a second event) before
	// the response is returned.
	BeforeReturn func(prompt string)
}

// ScriptedBackend implements engine.Backend with an ordered script of
// responses and records every call for verification.
type ScriptedBackend struct {
	mu       sync.Mutex
	scripts  []ScriptedResponse
	index    int
	prompts  []string
	fallback string
}

// NewScriptedBackend creates a backend that replays scripts in order and
// falls back to a fixed response when the script is exhausted.
func NewScriptedBackend(fallback string) *ScriptedBackend {
	return &ScriptedBackend{fallback: fallback}
}

// AddScript appends a scripted response. Returns the backend for chaining.
func (s *ScriptedBackend) AddScript(script ScriptedResponse) *ScriptedBackend {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, script)
	return s
}

// Generate replays the next scripted response.
func (s *ScriptedBackend) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)

	if s.index >= len(s.scripts) {
		fallback := s.fallback
		s.mu.Unlock()
		return fallback, nil
	}
	script := s.scripts[s.index]
	s.index++
	s.mu.Unlock()

	if script.PromptPattern != "" {
		matched, err := regexp.MatchString(script.PromptPattern, prompt)
		if err != nil {
			return "", fmt.Errorf("invalid prompt pattern %q: %w", script.PromptPattern, err)
		}
		if !matched {
			return "", fmt.Errorf("prompt %q does not match expected pattern %q", prompt, script.PromptPattern)
		}
	}

	if script.Delay > 0 {
		select {
		case <-time.After(script.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if script.BeforeReturn != nil {
		script.BeforeReturn(prompt)
	}

	if script.Err != nil {
		return "", script.Err
	}
	return script.Response, nil
}

// Prompts returns a copy of every prompt received, in call order.
func (s *ScriptedBackend) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	prompts := make([]string, len(s.prompts))
	copy(prompts, s.prompts)
	return prompts
}

// CallCount returns how many Generate calls were made.
func (s *ScriptedBackend) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// LastPrompt returns the most recent prompt, or empty if none.
func (s *ScriptedBackend) LastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

// SentMessage records one outbound message from the mock messenger.
type SentMessage struct {
	ChatID   int64
	Text     string
	Keyboard [][]string
}

// MockMessenger implements telegram.Messenger, recording outbound
// traffic and letting tests inject inbound messages.
type MockMessenger struct {
	mu      sync.Mutex
	sent    []SentMessage
	typing  []int64
	inbound chan telegram.IncomingMessage
}

// NewMockMessenger creates a mock transport with a buffered inbound queue.
func NewMockMessenger() *MockMessenger {
	return &MockMessenger{inbound: make(chan telegram.IncomingMessage, 64)}
}

// Send records a plain text message.
func (m *MockMessenger) Send(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{ChatID: chatID, Text: text})
	return nil
}

// SendWithKeyboard records a message with its keyboard rows.
func (m *MockMessenger) SendWithKeyboard(_ context.Context, chatID int64, text string, keyboard [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return nil
}

// SendTyping records a typing indicator send.
func (m *MockMessenger) SendTyping(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing = append(m.typing, chatID)
	return nil
}

// Subscribe returns a channel fed by Deliver. The channel closes when
// ctx is canceled.
func (m *MockMessenger) Subscribe(ctx context.Context) (<-chan telegram.IncomingMessage, error) {
	out := make(chan telegram.IncomingMessage)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-m.inbound:
				if !ok {
					return
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Deliver injects an inbound message as if the user had sent it.
func (m *MockMessenger) Deliver(msg telegram.IncomingMessage) {
	m.inbound <- msg
}

// Sent returns a copy of all recorded outbound messages in send order.
func (m *MockMessenger) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	sent := make([]SentMessage, len(m.sent))
	copy(sent, m.sent)
	return sent
}

// SentCount returns the number of outbound messages recorded.
func (m *MockMessenger) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// TypingCount returns how many typing indicators were sent.
func (m *MockMessenger) TypingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.typing)
}
