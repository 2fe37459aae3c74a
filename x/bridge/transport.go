package bridge

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/iov-one/accrual/errors"
)

// DeliveryHandle identifies a message accepted by a transport.
type DeliveryHandle struct {
	ID          uuid.UUID
	Destination string
}

// Transport relays opaque bytes between domains with at-least-once
// semantics. It provides no ordering, no deduplication and no way to
// cancel a message once accepted.
type Transport interface {
	Send(ctx context.Context, destination string, payload []byte) (DeliveryHandle, error)
}

// Handler consumes bytes delivered to a domain.
type Handler func(ctx context.Context, payload []byte) error

// Loopback is an in-process transport between domains living in the same
// program. Messages are queued on Send and delivered on Flush. A message
// whose handler fails stays queued and is delivered again by the next
// Flush.
type Loopback struct {
	mu        sync.Mutex
	handlers  map[string]Handler
	queue     []message
	duplicate bool
}

type message struct {
	handle  DeliveryHandle
	payload []byte
}

var _ Transport = (*Loopback)(nil)

// NewLoopback returns an empty loopback transport.
func NewLoopback() *Loopback {
	return &Loopback{handlers: make(map[string]Handler)}
}

// DeliverTwice makes every Flush hand each message to its handler twice.
// This simulates the redelivery an at-least-once transport is allowed to
// do.
func (l *Loopback) DeliverTwice(enabled bool) {
	l.mu.Lock()
	l.duplicate = enabled
	l.mu.Unlock()
}

// Register sets the handler of given domain.
func (l *Loopback) Register(domain string, h Handler) {
	l.mu.Lock()
	l.handlers[domain] = h
	l.mu.Unlock()
}

// Send queues a copy of the payload for given destination. It fails with
// ErrUnsupportedDomain if no handler is registered for the destination.
func (l *Loopback) Send(ctx context.Context, destination string, payload []byte) (DeliveryHandle, error) {
	if err := ctx.Err(); err != nil {
		return DeliveryHandle{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.handlers[destination]; !ok {
		return DeliveryHandle{}, errors.Wrapf(errors.ErrUnsupportedDomain, "no route to %q", destination)
	}
	h := DeliveryHandle{ID: uuid.New(), Destination: destination}
	l.queue = append(l.queue, message{
		handle:  h,
		payload: append([]byte(nil), payload...),
	})
	return h, nil
}

// Pending returns the number of queued messages.
func (l *Loopback) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Flush delivers all queued messages. Handlers are called without the
// transport lock held, so they may Send. Messages sent during a flush are
// delivered by the next one. All handler failures are returned together,
// failed messages stay queued. A handler returning ErrDuplicate
// acknowledges the message.
func (l *Loopback) Flush(ctx context.Context) (delivered int, err error) {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	duplicate := l.duplicate
	l.mu.Unlock()

	var failed []message
	for _, m := range batch {
		if cerr := ctx.Err(); cerr != nil {
			failed = append(failed, m)
			err = errors.Append(err, cerr)
			continue
		}
		l.mu.Lock()
		h := l.handlers[m.handle.Destination]
		l.mu.Unlock()

		times := 1
		if duplicate {
			times = 2
		}
		var herr error
		for i := 0; i < times && herr == nil; i++ {
			herr = h(ctx, m.payload)
			// The receiver already has this message.
			if errors.ErrDuplicate.Is(herr) {
				herr = nil
			}
		}
		if herr != nil {
			failed = append(failed, m)
			err = errors.Append(err, errors.Wrapf(herr, "delivery %s", m.handle.ID))
			continue
		}
		delivered++
	}

	if len(failed) > 0 {
		l.mu.Lock()
		l.queue = append(failed, l.queue...)
		l.mu.Unlock()
	}
	return delivered, err
}
