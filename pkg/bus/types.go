package bus

import "time"

// InboundMessage is a chat message received from a room.
type InboundMessage struct {
	Channel   string            `json:"channel"`
	RoomID    string            `json:"room_id"`
	RoomName  string            `json:"room_name,omitempty"`
	MessageID string            `json:"message_id,omitempty"`
	SenderID  string            `json:"sender_id"`
	Sender    string            `json:"sender"`
	Content   string            `json:"content"`
	Sent      time.Time         `json:"sent,omitzero"`
	Scope     string            `json:"scope"` // channel:room:message, unique per message
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// OutboundMessage is text to be posted to a room.
type OutboundMessage struct {
	Channel string `json:"channel"`
	RoomID  string `json:"room_id"`
	Content string `json:"content"`
}
