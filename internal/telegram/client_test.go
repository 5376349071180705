package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Token:          "test-token",
		BaseURL:        srv.URL,
		PollTimeout:    100 * time.Millisecond,
		RequestTimeout: time.Second,
	}, nil)
	require.NoError(t, err)
	return client, srv
}

func writeResult(t *testing.T, w http.ResponseWriter, result any) {
	t.Helper()
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	resp := apiResponse{OK: true, Result: raw}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	require.Error(t, err)
}

func TestGetMe(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/getMe", r.URL.Path)
		writeResult(t, w, User{ID: 99, IsBot: true, Username: "recbot"})
	}))

	user, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(99), user.ID)
	assert.Equal(t, "recbot", user.Username)
}

func TestSendWithKeyboardShape(t *testing.T) {
	var got sendMessageRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeResult(t, w, Message{MessageID: 1})
	}))

	err := client.SendWithKeyboard(context.Background(), 5, "Choose a category:", [][]string{
		{"🎬 Movies"},
		{"🎮 Games"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), got.ChatID)
	assert.Equal(t, "Choose a category:", got.Text)
	require.NotNil(t, got.ReplyMarkup)
	require.Len(t, got.ReplyMarkup.Keyboard, 2)
	assert.Equal(t, "🎬 Movies", got.ReplyMarkup.Keyboard[0][0].Text)
	assert.True(t, got.ReplyMarkup.ResizeKeyboard)
}

func TestSendRejectsEmptyText(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for empty text")
		w.WriteHeader(http.StatusBadRequest)
	}))

	require.Error(t, client.Send(context.Background(), 5, ""))
}

func TestCallSurfacesAPIError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := apiResponse{OK: false, ErrorCode: 401, Description: "Unauthorized"}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))

	err := client.Send(context.Background(), 5, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestSubscribeDeliversMessagesAndAdvancesOffset(t *testing.T) {
	var calls atomic.Int64
	var mu sync.Mutex
	var offsets []int64

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/getUpdates" {
			writeResult(t, w, Message{MessageID: 1})
			return
		}
		var req getUpdatesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		offsets = append(offsets, req.Offset)
		mu.Unlock()

		switch calls.Add(1) {
		case 1:
			writeResult(t, w, []Update{
				{UpdateID: 10, Message: &Message{MessageID: 1, Chat: Chat{ID: 7}, Text: "hello"}},
				{UpdateID: 11}, // non-message update is skipped
				{UpdateID: 12, Message: &Message{MessageID: 2, Chat: Chat{ID: 7}, Text: "more"}},
			})
		default:
			writeResult(t, w, []Update{})
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := client.Subscribe(ctx)
	require.NoError(t, err)

	var received []IncomingMessage
	timeout := time.After(2 * time.Second)
	for len(received) < 2 {
		select {
		case msg := <-ch:
			received = append(received, msg)
		case <-timeout:
			t.Fatalf("timed out, received %d messages", len(received))
		}
	}

	assert.Equal(t, "hello", received[0].Text)
	assert.Equal(t, int64(7), received[0].ChatID)
	assert.Equal(t, "more", received[1].Text)

	// Wait for at least one follow-up poll, then check offset advanced
	// past the highest seen update ID.
	require.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, int64(0), offsets[0])
	assert.Equal(t, int64(13), offsets[1])
	mu.Unlock()

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "channel should close on cancel")
}

func TestTypingManagerRefreshesUntilStopped(t *testing.T) {
	var typingCalls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bottest-token/sendChatAction" {
			typingCalls.Add(1)
		}
		writeResult(t, w, true)
	}))

	mgr := NewTypingManagerWithInterval(client, 20*time.Millisecond, nil)
	mgr.Start(context.Background(), 7)
	mgr.Start(context.Background(), 7) // second start for same chat is a no-op

	require.Eventually(t, func() bool {
		return typingCalls.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	mgr.Stop(7)
	settled := typingCalls.Load()
	time.Sleep(100 * time.Millisecond)
	// Allow one in-flight refresh to land after Stop.
	assert.LessOrEqual(t, typingCalls.Load(), settled+1)
}
