package gitter

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// Stream is an open streaming connection for one room. Nothing is read
// until the caller reads; the caller owns the connection and must Close
// it on every exit path.
type Stream struct {
	RoomID string

	response *http.Response
	decoder  *json.Decoder

	closeOnce sync.Once
	closeErr  error
}

// RoomStream resolves roomName and opens the room's live message stream
// against the streaming root. It does not retry or reconnect. The stream
// lives as long as ctx; cancelling ctx aborts pending reads.
func (c *Client) RoomStream(ctx context.Context, roomName string) (*Stream, error) {
	roomID, err := c.RoomIDFromName(ctx, roomName)
	if err != nil {
		return nil, err
	}
	return c.RoomStreamByID(ctx, roomID)
}

// RoomStreamByID opens the live stream of a room whose id is known.
func (c *Client) RoomStreamByID(ctx context.Context, roomID string) (*Stream, error) {
	response, err := c.transport.Stream(ctx, roomMessagesPath(roomID))
	if err != nil {
		return nil, err
	}
	return &Stream{RoomID: roomID, response: response}, nil
}

// Read reads raw bytes from the stream body, for callers doing their own
// framing. Do not mix Read with Next.
func (s *Stream) Read(p []byte) (int, error) {
	return s.response.Body.Read(p)
}

// Next decodes the next message event. The service separates events with
// whitespace heartbeats, which are skipped. Next returns io.EOF when the
// server ends the stream.
func (s *Stream) Next() (Message, error) {
	if s.decoder == nil {
		s.decoder = json.NewDecoder(s.response.Body)
	}
	var message Message
	if err := s.decoder.Decode(&message); err != nil {
		return Message{}, err
	}
	return message, nil
}

// Close releases the connection. Calls after the first return the first
// result.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.response.Body.Close()
	})
	return s.closeErr
}
