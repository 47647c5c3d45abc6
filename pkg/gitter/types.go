package gitter

import (
	"encoding/json"
	"time"
)

// User is a Gitter account as returned by GET user.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	URL         string `json:"url"`
	AvatarURL   string `json:"avatarUrl"`

	// Metadata is the full payload as sent by the service.
	Metadata map[string]any `json:"-"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &a.Metadata); err != nil {
		return err
	}
	*u = User(a)
	return nil
}

// Room is a chat room or channel. Only ID and Name are relied on; the
// rest of the payload is kept in Metadata.
type Room struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URI       string `json:"uri,omitempty"`
	Topic     string `json:"topic,omitempty"`
	OneToOne  bool   `json:"oneToOne,omitempty"`
	UserCount int    `json:"userCount,omitempty"`
	Unread    int    `json:"unreadItems,omitempty"`
	Mentions  int    `json:"mentions,omitempty"`

	Metadata map[string]any `json:"-"`
}

func (r *Room) UnmarshalJSON(data []byte) error {
	type alias Room
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &a.Metadata); err != nil {
		return err
	}
	*r = Room(a)
	return nil
}

// Repo is one of the user's repositories, with its room when one exists.
type Repo struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Private bool   `json:"private"`
	Exists  bool   `json:"exists"`
	Room    *Room  `json:"room,omitempty"`

	Metadata map[string]any `json:"-"`
}

func (r *Repo) UnmarshalJSON(data []byte) error {
	type alias Repo
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &a.Metadata); err != nil {
		return err
	}
	*r = Repo(a)
	return nil
}

// Message is a chat message. The library treats it as opaque apart from
// ID, which drives history pagination. The typed fields are filled best
// effort: a field with an unexpected shape is left at its zero value and
// the raw value stays in Metadata.
type Message struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	HTML     string    `json:"html,omitempty"`
	Sent     time.Time `json:"sent"`
	FromUser *User     `json:"fromUser,omitempty"`

	Metadata map[string]any `json:"-"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var metadata map[string]any
	if err := json.Unmarshal(data, &metadata); err != nil {
		return err
	}

	message := Message{Metadata: metadata}
	decodeField(fields, "id", &message.ID)
	decodeField(fields, "text", &message.Text)
	decodeField(fields, "html", &message.HTML)
	decodeField(fields, "sent", &message.Sent)
	var from User
	if decodeField(fields, "fromUser", &from) && from.Metadata != nil {
		message.FromUser = &from
	}
	*m = message
	return nil
}

// decodeField decodes fields[key] into dst and reports whether it did.
// A missing key or a value of the wrong shape leaves dst untouched.
func decodeField(fields map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// Sender returns the sender's username, or "" when the payload has none.
func (m Message) Sender() string {
	if m.FromUser == nil {
		return ""
	}
	return m.FromUser.Username
}
