package channels

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tinyland-inc/gitterclaw/pkg/bus"
)

type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
	IsAllowed(senderID string) bool
}

type BaseChannel struct {
	bus       *bus.MessageBus
	running   atomic.Bool
	name      string
	allowList []string
}

func NewBaseChannel(name string, mb *bus.MessageBus, allowList []string) *BaseChannel {
	return &BaseChannel{
		bus:       mb,
		name:      name,
		allowList: allowList,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) SetRunning(running bool) {
	c.running.Store(running)
}

// IsAllowed matches senderID, in "id|username" form, against the allow
// list. Entries may be an id, a username, or "@username". An empty list
// allows everyone.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}

	idPart, userPart, _ := strings.Cut(senderID, "|")

	for _, allowed := range c.allowList {
		trimmed := strings.TrimPrefix(allowed, "@")
		if trimmed == "" {
			continue
		}
		if senderID == allowed || idPart == trimmed || (userPart != "" && userPart == trimmed) {
			return true
		}
	}

	return false
}

// HandleMessage stamps msg with the channel name and a scope key and
// publishes it inbound. Messages from senders outside the allow list are
// dropped silently.
func (c *BaseChannel) HandleMessage(ctx context.Context, msg bus.InboundMessage) error {
	if !c.IsAllowed(msg.SenderID) {
		return nil
	}

	msg.Channel = c.name
	msg.Scope = BuildScope(c.name, msg.RoomID, msg.MessageID)

	return c.bus.PublishInbound(ctx, msg)
}

// BuildScope constructs the key identifying one message across channels.
// Messages without an id get a random one.
func BuildScope(channel, roomID, messageID string) string {
	id := messageID
	if id == "" {
		id = uuid.New().String()
	}
	return channel + ":" + roomID + ":" + id
}
