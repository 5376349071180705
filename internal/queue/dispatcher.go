// Package queue serializes conversation events per chat. Events for the
// same chat are processed strictly in arrival order, one at a time;
// different chats run concurrently. This is what keeps two back-to-back
// "more" presses from reading the same exclusion-history snapshot.
package queue

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/glebkin/recbot/internal/engine"
)

// Handler processes one conversation event. It is invoked from a
// per-chat goroutine and never concurrently for the same chat.
type Handler func(ctx context.Context, ev engine.Event)

// chatQueue is the FIFO mailbox for a single chat.
type chatQueue struct {
	events  *list.List
	running bool
}

// Dispatcher routes events to per-chat mailboxes, each drained by a
// single goroutine.
type Dispatcher struct {
	handler Handler
	logger  *slog.Logger

	mu     sync.Mutex
	chats  map[int64]*chatQueue
	closed bool

	ctx context.Context
	wg  sync.WaitGroup
}

// NewDispatcher creates a dispatcher that feeds events to handler.
func NewDispatcher(handler Handler, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handler: handler,
		logger:  logger,
		chats:   make(map[int64]*chatQueue),
		ctx:     context.Background(),
	}
}

// Start records the context passed to handlers. Must be called before
// the first Submit.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx = ctx
}

// Submit enqueues an event for its chat, spawning a drain goroutine for
// the chat if none is running.
func (d *Dispatcher) Submit(ev engine.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("dispatcher is closed")
	}

	cq, ok := d.chats[ev.ChatID]
	if !ok {
		cq = &chatQueue{events: list.New()}
		d.chats[ev.ChatID] = cq
	}
	cq.events.PushBack(ev)

	if !cq.running {
		cq.running = true
		d.wg.Add(1)
		go d.drain(ev.ChatID, cq)
	}
	return nil
}

// drain processes the chat's mailbox until it is empty, then exits. The
// running flag is only cleared under the lock once the mailbox is
// observed empty, so no event can slip in unprocessed.
func (d *Dispatcher) drain(chatID int64, cq *chatQueue) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		front := cq.events.Front()
		if front == nil {
			cq.running = false
			d.mu.Unlock()
			return
		}
		cq.events.Remove(front)
		ctx := d.ctx
		d.mu.Unlock()

		ev, ok := front.Value.(engine.Event)
		if !ok {
			d.logger.Error("unexpected mailbox element type", slog.Int64("chat_id", chatID))
			continue
		}
		d.handler(ctx, ev)
	}
}

// Close stops accepting new events and waits for all mailboxes to
// drain. Queued events are still processed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
}

// Pending returns the number of events queued for a chat, not counting
// one currently being handled. Used by tests and stats logging.
func (d *Dispatcher) Pending(chatID int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cq, ok := d.chats[chatID]; ok {
		return cq.events.Len()
	}
	return 0
}
