package gitter

import (
	"context"
	"iter"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/tinyland-inc/gitterclaw/pkg/logger"
)

// CursorOption customizes a Cursor.
type CursorOption func(*Cursor)

// WithSleepTime sets the pause before every page fetch after the first.
func WithSleepTime(d time.Duration) CursorOption {
	return func(c *Cursor) { c.sleepTime = d }
}

// WithPageLimit sets the page size requested from the service.
func WithPageLimit(n int) CursorOption {
	return func(c *Cursor) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithCursorClock sets the clock used for the throttle pause.
func WithCursorClock(clock Clock) CursorOption {
	return func(c *Cursor) { c.clock = clock }
}

// Cursor walks a room's message history from the present toward the
// beginning, one page at a time. Each page is yielded in the reverse of the
// order the service returned it. A page is fetched only once the previous
// one has been consumed, and the walk ends at the first page that comes
// back empty or absent.
//
// The boundary for the next page is the id of the first element of the
// page as received. The service orders a batch chronologically, so that
// is the oldest message in it, and the next request asks for messages
// before that id.
//
// A Cursor is not safe for concurrent use.
//
//	cursor, err := client.MessageCursor(ctx, "gitterHQ/sandbox")
//	if err != nil { ... }
//	for cursor.Next(ctx) {
//	    fmt.Println(cursor.Message().Text)
//	}
//	if err := cursor.Err(); err != nil { ... }
type Cursor struct {
	transport *Transport
	clock     Clock
	roomID    string
	limit     int
	sleepTime time.Duration

	beforeID string
	page     []Message
	current  Message
	pages    int
	done     bool
	err      error
	cause    error
}

// MessageCursor resolves roomName once and returns a cursor over its
// history. No page is fetched until the first call to Next.
func (c *Client) MessageCursor(ctx context.Context, roomName string, opts ...CursorOption) (*Cursor, error) {
	roomID, err := c.RoomIDFromName(ctx, roomName)
	if err != nil {
		return nil, err
	}
	return c.MessageCursorByID(roomID, opts...), nil
}

// MessageCursorByID returns a cursor over the history of a known room id.
func (c *Client) MessageCursorByID(roomID string, opts ...CursorOption) *Cursor {
	cursor := &Cursor{
		transport: c.transport,
		clock:     c.clock,
		roomID:    roomID,
		limit:     c.config.PageLimit,
		sleepTime: c.config.SleepTime,
	}
	for _, opt := range opts {
		opt(cursor)
	}
	return cursor
}

// Next advances to the next message, fetching a page when the current
// one is used up. It returns false once the history is exhausted or ctx
// is done.
func (c *Cursor) Next(ctx context.Context) bool {
	if c.done {
		return false
	}
	if len(c.page) == 0 && !c.fetch(ctx) {
		c.done = true
		c.current = Message{}
		return false
	}
	c.current = c.page[0]
	c.page = c.page[1:]
	return true
}

// Message returns the message Next advanced to.
func (c *Cursor) Message() Message {
	return c.current
}

// Err returns the context error that stopped the walk, if any. Reaching
// the end of history is not an error, nor is a page that came back with
// no data; see Cause for the latter.
func (c *Cursor) Err() error {
	return c.err
}

// Cause returns the *NoDataError of the fetch that ended the walk, or nil
// when it ended on an empty page or has not ended.
func (c *Cursor) Cause() error {
	return c.cause
}

// Pages returns how many page requests have been issued.
func (c *Cursor) Pages() int {
	return c.pages
}

// BeforeID returns the boundary that the next page request will use.
func (c *Cursor) BeforeID() string {
	return c.beforeID
}

// All returns the remaining messages as an iterator. Breaking out of the
// loop stops further fetches.
func (c *Cursor) All(ctx context.Context) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for c.Next(ctx) {
			if !yield(c.Message()) {
				return
			}
		}
	}
}

func (c *Cursor) fetch(ctx context.Context) bool {
	if c.pages > 0 {
		if err := c.clock.Sleep(ctx, c.sleepTime); err != nil {
			c.err = err
			return false
		}
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.limit))
	if c.pages > 0 {
		query.Set("beforeId", c.beforeID)
	}
	path := roomMessagesPath(c.roomID) + "?" + query.Encode()

	result := c.transport.Get(ctx, path)
	c.pages++

	var batch []Message
	if err := result.Decode(&batch); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.err = ctxErr
		}
		c.cause = err
		logger.DebugCF("gitter", "History walk ended", map[string]any{
			"room_id": c.roomID,
			"pages":   c.pages,
			"cause":   err.Error(),
		})
		return false
	}
	if len(batch) == 0 {
		logger.DebugCF("gitter", "History walk reached an empty page", map[string]any{
			"room_id": c.roomID,
			"pages":   c.pages,
		})
		return false
	}

	c.beforeID = batch[0].ID
	slices.Reverse(batch)
	c.page = batch
	return true
}
