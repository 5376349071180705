package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the production Bot API endpoint.
	DefaultBaseURL = "https://api.telegram.org"

	// DefaultPollTimeout is the getUpdates long-poll duration.
	DefaultPollTimeout = 30 * time.Second

	// DefaultRequestTimeout bounds non-polling API calls.
	DefaultRequestTimeout = 10 * time.Second

	// defaultSendRate is the outbound message budget. Telegram allows
	// roughly 30 messages per second across all chats.
	defaultSendRate = 30

	// pollRetryDelay is the pause before retrying a failed getUpdates.
	pollRetryDelay = time.Second
)

// Config holds Telegram client settings.
type Config struct {
	Token          string
	BaseURL        string
	PollTimeout    time.Duration
	RequestTimeout time.Duration
	SendRate       int
}

// Client talks to the Telegram Bot API and implements Messenger.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter

	pollTimeout    time.Duration
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewClient creates a Telegram Bot API client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token cannot be empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = defaultSendRate
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient:     &http.Client{},
		baseURL:        cfg.BaseURL,
		token:          cfg.Token,
		limiter:        rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendRate),
		pollTimeout:    cfg.PollTimeout,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger,
	}, nil
}

// GetMe verifies the token by fetching the bot's own identity.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var user User
	if err := c.call(ctx, "getMe", nil, &user); err != nil {
		return nil, fmt.Errorf("getMe failed: %w", err)
	}
	return &user, nil
}

// Send sends a plain text message to a chat.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	return c.sendMessage(ctx, sendMessageRequest{ChatID: chatID, Text: text})
}

// SendWithKeyboard sends a text message with a reply keyboard.
func (c *Client) SendWithKeyboard(ctx context.Context, chatID int64, text string, keyboard [][]string) error {
	return c.sendMessage(ctx, sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: newReplyKeyboard(keyboard),
	})
}

func (c *Client) sendMessage(ctx context.Context, req sendMessageRequest) error {
	if req.Text == "" {
		return fmt.Errorf("message text cannot be empty")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var sent Message
	if err := c.call(ctx, "sendMessage", req, &sent); err != nil {
		return fmt.Errorf("sendMessage failed: %w", err)
	}
	return nil
}

// SendTyping shows the "typing…" chat action. Telegram clears the
// indicator after about five seconds or when a message arrives.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var ok bool
	if err := c.call(ctx, "sendChatAction", sendChatActionRequest{ChatID: chatID, Action: "typing"}, &ok); err != nil {
		return fmt.Errorf("sendChatAction failed: %w", err)
	}
	return nil
}

// Subscribe starts the getUpdates long-poll loop and returns the channel
// of incoming text messages. Non-text updates are skipped. The channel
// is closed when ctx is canceled.
func (c *Client) Subscribe(ctx context.Context) (<-chan IncomingMessage, error) {
	out := make(chan IncomingMessage, 64)
	go c.pollLoop(ctx, out)
	return out, nil
}

func (c *Client) pollLoop(ctx context.Context, out chan<- IncomingMessage) {
	defer close(out)

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := c.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("getUpdates failed, retrying", slog.Any("error", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			msg := IncomingMessage{
				ChatID:    u.Message.Chat.ID,
				MessageID: u.Message.MessageID,
				Text:      u.Message.Text,
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Client) getUpdates(ctx context.Context, offset int64) ([]Update, error) {
	// The request context must outlive the server-side long poll.
	ctx, cancel := context.WithTimeout(ctx, c.pollTimeout+c.requestTimeout)
	defer cancel()

	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(c.pollTimeout / time.Second),
		AllowedUpdates: []string{"message"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, fmt.Errorf("getUpdates failed: %w", err)
	}
	return updates, nil
}

// call performs one Bot API method invocation and decodes the result.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	var body io.Reader
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", method, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	if params != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("%s: api error %d: %s", method, envelope.ErrorCode, envelope.Description)
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}
