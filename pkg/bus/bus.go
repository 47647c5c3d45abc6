package bus

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrBusClosed is returned when publishing to a closed MessageBus.
var ErrBusClosed = errors.New("message bus closed")

const defaultBufferSize = 100

// MessageBus decouples room channels from whatever consumes their
// messages. Inbound carries what rooms receive, outbound what should be
// posted to them. Each direction is a bounded queue; publishers block
// while it is full.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
	done     chan struct{}
	closed   atomic.Bool
}

// Option configures a MessageBus.
type Option func(*busOptions)

type busOptions struct {
	bufferSize int
}

// WithBufferSize sets the capacity of each direction. Values below one
// keep the default.
func WithBufferSize(n int) Option {
	return func(o *busOptions) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

func NewMessageBus(opts ...Option) *MessageBus {
	o := busOptions{bufferSize: defaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &MessageBus{
		inbound:  make(chan InboundMessage, o.bufferSize),
		outbound: make(chan OutboundMessage, o.bufferSize),
		done:     make(chan struct{}),
	}
}

func (mb *MessageBus) PublishInbound(ctx context.Context, msg InboundMessage) error {
	return publish(ctx, mb, mb.inbound, msg)
}

func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	return consume(ctx, mb, mb.inbound)
}

func (mb *MessageBus) PublishOutbound(ctx context.Context, msg OutboundMessage) error {
	return publish(ctx, mb, mb.outbound, msg)
}

func (mb *MessageBus) SubscribeOutbound(ctx context.Context) (OutboundMessage, bool) {
	return consume(ctx, mb, mb.outbound)
}

// Pending reports how many messages are queued in each direction.
func (mb *MessageBus) Pending() (inbound, outbound int) {
	return len(mb.inbound), len(mb.outbound)
}

// Closed reports whether Close has been called.
func (mb *MessageBus) Closed() bool {
	return mb.closed.Load()
}

// Close wakes every blocked publisher and consumer. Queued messages are
// dropped. It is safe to call more than once.
func (mb *MessageBus) Close() {
	if mb.closed.CompareAndSwap(false, true) {
		close(mb.done)
	}
}

func publish[T any](ctx context.Context, mb *MessageBus, ch chan<- T, msg T) error {
	if mb.closed.Load() {
		return ErrBusClosed
	}
	select {
	case ch <- msg:
		return nil
	case <-mb.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func consume[T any](ctx context.Context, mb *MessageBus, ch <-chan T) (T, bool) {
	var zero T
	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-mb.done:
		return zero, false
	case <-ctx.Done():
		return zero, false
	}
}
