package gitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tinyland-inc/gitterclaw/pkg/logger"
)

const (
	DefaultRESTURL   = "https://api.gitter.im/v1/"
	DefaultStreamURL = "https://stream.gitter.im/v1/"
	DefaultTimeout   = 30 * time.Second
	DefaultSleepTime = time.Second
	DefaultPageLimit = 100
)

// Config holds what a Client needs to reach the service.
type Config struct {
	// Token is the personal access token sent as a bearer token.
	Token string
	// RESTURL and StreamURL are the two API roots. Empty means the
	// public Gitter endpoints.
	RESTURL   string
	StreamURL string
	// Timeout bounds each REST request. Streams only use it for the
	// time to response headers.
	Timeout time.Duration
	// SleepTime is the default pause between history pages.
	SleepTime time.Duration
	// PageLimit is the default history page size.
	PageLimit int
	// BaseTransport is the RoundTripper underneath the auth layer.
	// If nil, http.DefaultTransport is used.
	BaseTransport http.RoundTripper
}

func (c Config) withDefaults() Config {
	if c.RESTURL == "" {
		c.RESTURL = DefaultRESTURL
	}
	if c.StreamURL == "" {
		c.StreamURL = DefaultStreamURL
	}
	c.RESTURL = ensureTrailingSlash(c.RESTURL)
	c.StreamURL = ensureTrailingSlash(c.StreamURL)
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.SleepTime == 0 {
		c.SleepTime = DefaultSleepTime
	}
	if c.PageLimit == 0 {
		c.PageLimit = DefaultPageLimit
	}
	return c
}

func (c Config) validate() error {
	for _, root := range []string{c.RESTURL, c.StreamURL} {
		parsed, err := url.Parse(root)
		if err != nil {
			return fmt.Errorf("gitter: invalid API URL %q: %w", root, err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("gitter: API URL %q must be absolute", root)
		}
	}
	if c.Timeout < 0 {
		return errors.New("gitter: timeout must not be negative")
	}
	if c.SleepTime < 0 {
		return errors.New("gitter: sleep time must not be negative")
	}
	if c.PageLimit < 0 {
		return errors.New("gitter: page limit must not be negative")
	}
	return nil
}

func ensureTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

// Option customizes a Client.
type Option func(*Client)

// WithClock sets the clock used by cursors created from the client.
func WithClock(clock Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// Client is an authenticated session against the Gitter API. It is
// created once per token and is immutable afterwards.
type Client struct {
	config    Config
	transport *Transport
	clock     Clock
	userID    string
	username  string
}

// NewClient validates the token by fetching the current user. If the user
// id cannot be obtained, no client is returned and the error wraps
// ErrAuthentication.
func NewClient(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("%w: token is required", ErrAuthentication)
	}
	cfg = cfg.withDefaults()

	transport, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:    cfg,
		transport: transport,
		clock:     RealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}

	users, err := c.GetUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: could not connect to Gitter with given auth token: %w", ErrAuthentication, err)
	}
	if len(users) == 0 || users[0].ID == "" {
		return nil, fmt.Errorf("%w: could not connect to Gitter with given auth token", ErrAuthentication)
	}
	c.userID = users[0].ID
	c.username = users[0].Username

	logger.InfoCF("gitter", "Authenticated", map[string]any{
		"user_id":  c.userID,
		"username": c.username,
	})

	return c, nil
}

// UserID returns the authenticated user's id.
func (c *Client) UserID() string { return c.userID }

// Username returns the authenticated user's username.
func (c *Client) Username() string { return c.username }

// Transport exposes the underlying transport for endpoints the facade
// does not cover.
func (c *Client) Transport() *Transport { return c.transport }

// GetUser returns the info for the token's user. The service answers
// with a one-element array.
func (c *Client) GetUser(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.transport.Get(ctx, "user").Decode(&users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetRooms returns the rooms the user is a member of.
func (c *Client) GetRooms(ctx context.Context) ([]Room, error) {
	var rooms []Room
	if err := c.transport.Get(ctx, c.userPath("rooms")).Decode(&rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// GetChannels returns the channels nested under the user. The service
// lists them on the same endpoint as rooms.
func (c *Client) GetChannels(ctx context.Context) ([]Room, error) {
	var channels []Room
	if err := c.transport.Get(ctx, c.userPath("rooms")).Decode(&channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// GetRepos returns the user's repos and their rooms where available.
func (c *Client) GetRepos(ctx context.Context) ([]Repo, error) {
	var repos []Repo
	if err := c.transport.Get(ctx, c.userPath("repos")).Decode(&repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// JoinRoom joins the room with the given URI (e.g. "gitterHQ/sandbox").
func (c *Client) JoinRoom(ctx context.Context, roomURI string) (*Room, error) {
	var room Room
	if err := c.transport.Post(ctx, "rooms", map[string]string{"uri": roomURI}).Decode(&room); err != nil {
		return nil, fmt.Errorf("joining %q: %w", roomURI, err)
	}
	logger.InfoCF("gitter", "Joined room", map[string]any{"room": roomURI, "room_id": room.ID})
	return &room, nil
}

// LeaveRoom removes the user from the named room and returns the
// service's response document. An unknown room name fails with
// ErrRoomNotFound before any request is made.
func (c *Client) LeaveRoom(ctx context.Context, roomName string) (json.RawMessage, error) {
	roomID, err := c.RoomIDFromName(ctx, roomName)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("rooms/%s/users/%s", url.PathEscape(roomID), url.PathEscape(c.userID))
	result := c.transport.Delete(ctx, path)
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("leaving %q: %w", roomName, err)
	}
	logger.InfoCF("gitter", "Left room", map[string]any{"room": roomName, "room_id": roomID})
	return result.Raw(), nil
}

// SendMessage posts text to the named room and returns the created message.
func (c *Client) SendMessage(ctx context.Context, roomName, text string) (*Message, error) {
	roomID, err := c.RoomIDFromName(ctx, roomName)
	if err != nil {
		return nil, err
	}
	return c.SendMessageToRoomID(ctx, roomID, text)
}

// SendMessageToRoomID posts text to a room whose id is already known.
func (c *Client) SendMessageToRoomID(ctx context.Context, roomID, text string) (*Message, error) {
	var message Message
	result := c.transport.Post(ctx, roomMessagesPath(roomID), map[string]string{"text": text})
	if err := result.Decode(&message); err != nil {
		return nil, fmt.Errorf("sending to room %s: %w", roomID, err)
	}
	return &message, nil
}

func (c *Client) userPath(resource string) string {
	return "user/" + url.PathEscape(c.userID) + "/" + resource
}

func roomMessagesPath(roomID string) string {
	return "rooms/" + url.PathEscape(roomID) + "/chatMessages"
}
