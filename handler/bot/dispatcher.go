package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pandodao/gasless-wallet/core"
)

type Handler interface {
	Handle(ctx context.Context, ev *core.Event) error
}

type DispatcherConfig struct {
	// QueueLimit caps the events waiting per user; extra events are dropped.
	QueueLimit int
}

type queue struct {
	events []*core.Event
	// warned limits the busy reply to one per backlog.
	warned bool
}

// Dispatcher runs events of one user strictly in arrival order while
// different users proceed concurrently. A user's worker goroutine exits as
// soon as its queue is drained.
type Dispatcher struct {
	handler   Handler
	messenger core.Messenger
	logger    *slog.Logger
	limit     int

	mux    sync.Mutex
	queues map[string]*queue
	wg     sync.WaitGroup
}

func NewDispatcher(handler Handler, messenger core.Messenger, logger *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueLimit <= 0 {
		cfg.QueueLimit = 8
	}

	return &Dispatcher{
		handler:   handler,
		messenger: messenger,
		logger:    logger.With("handler", "dispatcher"),
		limit:     cfg.QueueLimit,
		queues:    map[string]*queue{},
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev *core.Event) {
	d.mux.Lock()
	defer d.mux.Unlock()

	q, running := d.queues[ev.UserID]
	if !running {
		q = &queue{}
		d.queues[ev.UserID] = q
	}

	if len(q.events) >= d.limit {
		d.logger.Info("event dropped", "user", ev.UserID, "kind", ev.Kind, "queued", len(q.events))
		if !q.warned {
			q.warned = true
			d.wg.Add(1)
			go d.warnBusy(ctx, ev.UserID)
		}

		return
	}

	q.events = append(q.events, ev)

	if !running {
		d.wg.Add(1)
		go d.drain(ctx, ev.UserID, q)
	}
}

func (d *Dispatcher) drain(ctx context.Context, userID string, q *queue) {
	defer d.wg.Done()

	for {
		d.mux.Lock()
		if len(q.events) == 0 {
			delete(d.queues, userID)
			d.mux.Unlock()
			return
		}

		ev := q.events[0]
		q.events = q.events[1:]
		d.mux.Unlock()

		if err := d.handler.Handle(ctx, ev); err != nil {
			d.logger.Error("handler.Handle", "user", userID, "kind", ev.Kind, "err", err)
		}
	}
}

func (d *Dispatcher) warnBusy(ctx context.Context, userID string) {
	defer d.wg.Done()

	if err := d.messenger.Send(ctx, &core.Message{UserID: userID, Text: textBusy}); err != nil {
		d.logger.Error("messenger.Send", "user", userID, "err", err)
	}
}

// Wait blocks until every queued event has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
