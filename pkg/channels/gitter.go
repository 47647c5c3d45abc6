package channels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tinyland-inc/gitterclaw/pkg/bus"
	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
	"github.com/tinyland-inc/gitterclaw/pkg/logger"
)

var errNotRunning = errors.New("gitter channel not running")

// RoomClient is the part of *gitter.Client a GitterChannel uses.
type RoomClient interface {
	UserID() string
	FindRoom(ctx context.Context, name string) (*gitter.Room, error)
	RoomStreamByID(ctx context.Context, roomID string) (*gitter.Stream, error)
	SendMessageToRoomID(ctx context.Context, roomID, text string) (*gitter.Message, error)
}

// GitterChannel bridges one Gitter room onto the message bus. Messages
// arriving on the room's live stream are published inbound; Send posts
// to the room.
type GitterChannel struct {
	*BaseChannel

	client   RoomClient
	roomName string

	mu     sync.Mutex
	roomID string
	stream *gitter.Stream
	cancel context.CancelFunc
	done   chan struct{}
}

func NewGitterChannel(client RoomClient, roomName string, mb *bus.MessageBus, allowFrom []string) *GitterChannel {
	return &GitterChannel{
		BaseChannel: NewBaseChannel("gitter", mb, allowFrom),
		client:      client,
		roomName:    roomName,
	}
}

// RoomID returns the resolved room id, or "" before Start.
func (c *GitterChannel) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *GitterChannel) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.IsRunning() {
		return nil
	}

	// A stream the server ended leaves its context behind.
	if c.cancel != nil {
		c.cancel()
		c.cancel, c.stream = nil, nil
	}

	room, err := c.client.FindRoom(ctx, c.roomName)
	if err != nil {
		return err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := c.client.RoomStreamByID(streamCtx, room.ID)
	if err != nil {
		cancel()
		return fmt.Errorf("opening stream for %q: %w", c.roomName, err)
	}

	c.roomID = room.ID
	c.stream = stream
	c.cancel = cancel
	c.done = make(chan struct{})
	c.SetRunning(true)

	logger.InfoCF("gitter", "Channel started", map[string]any{
		"room":    c.roomName,
		"room_id": room.ID,
	})

	go c.listen(streamCtx, stream, c.done)
	return nil
}

func (c *GitterChannel) listen(ctx context.Context, stream *gitter.Stream, done chan struct{}) {
	defer close(done)
	defer c.SetRunning(false)
	defer stream.Close()

	self := c.client.UserID()
	for {
		message, err := stream.Next()
		if err != nil {
			switch {
			case ctx.Err() != nil:
			case errors.Is(err, io.EOF):
				logger.InfoCF("gitter", "Stream closed by server", map[string]any{"room": c.roomName})
			default:
				logger.ErrorCF("gitter", "Stream read failed", map[string]any{
					"room":  c.roomName,
					"error": err.Error(),
				})
			}
			return
		}

		if message.FromUser != nil && message.FromUser.ID == self {
			continue
		}

		inbound := bus.InboundMessage{
			RoomID:    stream.RoomID,
			RoomName:  c.roomName,
			MessageID: message.ID,
			SenderID:  senderID(message),
			Sender:    message.Sender(),
			Content:   message.Text,
			Sent:      message.Sent,
		}
		if err := c.HandleMessage(ctx, inbound); err != nil {
			if ctx.Err() == nil {
				logger.WarnCF("gitter", "Dropping inbound message", map[string]any{
					"room":  c.roomName,
					"error": err.Error(),
				})
			}
			if errors.Is(err, bus.ErrBusClosed) {
				return
			}
		}
	}
}

func (c *GitterChannel) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, stream, done := c.cancel, c.stream, c.done
	c.cancel, c.stream = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	stream.Close()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	logger.InfoCF("gitter", "Channel stopped", map[string]any{"room": c.roomName})
	return nil
}

// Send posts msg.Content to msg.RoomID, or to the channel's room when
// RoomID is empty.
func (c *GitterChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	roomID := msg.RoomID
	if roomID == "" {
		roomID = c.RoomID()
	}
	if roomID == "" {
		return errNotRunning
	}

	_, err := c.client.SendMessageToRoomID(ctx, roomID, msg.Content)
	return err
}

func senderID(message gitter.Message) string {
	if message.FromUser == nil {
		return ""
	}
	return message.FromUser.ID + "|" + message.FromUser.Username
}
