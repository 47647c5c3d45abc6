package channels

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/gitterclaw/pkg/bus"
	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
)

type roomServer struct {
	*httptest.Server

	// endStreams makes the stream handler return after its events
	// instead of holding the connection open.
	endStreams atomic.Bool

	mu    sync.Mutex
	posts []string
}

func newRoomServer(t *testing.T, events ...string) *roomServer {
	t.Helper()
	rs := &roomServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/user", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":"me","username":"gitterclaw"}]`)
	})
	mux.HandleFunc("GET /v1/rooms", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":"abc123","name":"general"}]`)
	})
	mux.HandleFunc("GET /stream/v1/rooms/abc123/chatMessages", func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, event := range events {
			io.WriteString(w, event+"\n \n")
			flusher.Flush()
		}
		if rs.endStreams.Load() {
			return
		}
		<-r.Context().Done()
	})
	mux.HandleFunc("POST /v1/rooms/abc123/chatMessages", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		rs.mu.Lock()
		rs.posts = append(rs.posts, body.Text)
		rs.mu.Unlock()
		io.WriteString(w, `{"id":"posted","text":"`+body.Text+`"}`)
	})

	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)
	return rs
}

func (rs *roomServer) client(t *testing.T) *gitter.Client {
	return rs.clientWith(t, nil)
}

func (rs *roomServer) clientWith(t *testing.T, base http.RoundTripper) *gitter.Client {
	t.Helper()
	client, err := gitter.NewClient(context.Background(), gitter.Config{
		Token:         "token",
		RESTURL:       rs.URL + "/v1/",
		StreamURL:     rs.URL + "/stream/v1/",
		BaseTransport: base,
	})
	require.NoError(t, err)
	return client
}

func (rs *roomServer) Posts() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.posts...)
}

func consume(t *testing.T, mb *bus.MessageBus) bus.InboundMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, ok := mb.ConsumeInbound(ctx)
	require.True(t, ok, "timed out waiting for inbound message")
	return msg
}

func TestGitterChannel_PublishesStreamMessages(t *testing.T) {
	rs := newRoomServer(t,
		`{"id":"m1","text":"mine","fromUser":{"id":"me","username":"gitterclaw"}}`,
		`{"id":"m2","text":"hello","sent":"2015-06-01T12:00:00.000Z","fromUser":{"id":"u2","username":"bob"}}`,
		`{"id":"m3","text":"blocked","fromUser":{"id":"u3","username":"mallory"}}`,
		`{"id":"m4","text":"again","fromUser":{"id":"u2","username":"bob"}}`,
	)
	mb := bus.NewMessageBus()
	defer mb.Close()

	ch := NewGitterChannel(rs.client(t), "general", mb, []string{"@bob"})
	require.NoError(t, ch.Start(context.Background()))
	assert.True(t, ch.IsRunning())
	assert.Equal(t, "abc123", ch.RoomID())

	first := consume(t, mb)
	assert.Equal(t, "gitter", first.Channel)
	assert.Equal(t, "abc123", first.RoomID)
	assert.Equal(t, "general", first.RoomName)
	assert.Equal(t, "bob", first.Sender)
	assert.Equal(t, "u2|bob", first.SenderID)
	assert.Equal(t, "hello", first.Content)
	assert.Equal(t, "gitter:abc123:m2", first.Scope)
	assert.Equal(t, 2015, first.Sent.Year())

	second := consume(t, mb)
	assert.Equal(t, "m4", second.MessageID, "own and disallowed messages are skipped")

	require.NoError(t, ch.Stop(context.Background()))
	assert.False(t, ch.IsRunning())
}

// bodyCounter counts stream bodies opened and closed.
type bodyCounter struct {
	opened, closed atomic.Int32
}

func (bc *bodyCounter) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := http.DefaultTransport.RoundTrip(r)
	if err != nil || !strings.HasPrefix(r.URL.Path, "/stream/") {
		return resp, err
	}
	bc.opened.Add(1)
	resp.Body = &countedBody{ReadCloser: resp.Body, closed: &bc.closed}
	return resp, nil
}

type countedBody struct {
	io.ReadCloser
	closed *atomic.Int32
}

func (b *countedBody) Close() error {
	b.closed.Add(1)
	return b.ReadCloser.Close()
}

func TestGitterChannel_RestartAfterServerEndsStream(t *testing.T) {
	rs := newRoomServer(t, `{"id":"m1","text":"hello","fromUser":{"id":"u2","username":"bob"}}`)
	rs.endStreams.Store(true)
	counter := &bodyCounter{}
	mb := bus.NewMessageBus()
	defer mb.Close()

	ch := NewGitterChannel(rs.clientWith(t, counter), "general", mb, nil)
	require.NoError(t, ch.Start(context.Background()))
	assert.Equal(t, "m1", consume(t, mb).MessageID)

	assert.Eventually(t, func() bool { return !ch.IsRunning() }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return counter.closed.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ch.Start(context.Background()))
	assert.Equal(t, "m1", consume(t, mb).MessageID)
	require.NoError(t, ch.Stop(context.Background()))

	assert.Equal(t, int32(2), counter.opened.Load())
	assert.Equal(t, int32(2), counter.closed.Load())
}

func TestGitterChannel_StartUnknownRoom(t *testing.T) {
	rs := newRoomServer(t)
	ch := NewGitterChannel(rs.client(t), "nowhere", bus.NewMessageBus(), nil)

	err := ch.Start(context.Background())
	assert.ErrorIs(t, err, gitter.ErrRoomNotFound)
	assert.False(t, ch.IsRunning())
}

func TestGitterChannel_Send(t *testing.T) {
	rs := newRoomServer(t)
	ch := NewGitterChannel(rs.client(t), "general", bus.NewMessageBus(), nil)

	assert.ErrorIs(t, ch.Send(context.Background(), bus.OutboundMessage{Content: "early"}), errNotRunning)

	require.NoError(t, ch.Start(context.Background()))
	defer ch.Stop(context.Background())

	require.NoError(t, ch.Send(context.Background(), bus.OutboundMessage{Content: "hi"}))
	require.NoError(t, ch.Send(context.Background(), bus.OutboundMessage{RoomID: "abc123", Content: "explicit"}))
	assert.Equal(t, []string{"hi", "explicit"}, rs.Posts())
}

func TestDispatchOutbound(t *testing.T) {
	rs := newRoomServer(t)
	mb := bus.NewMessageBus()
	ch := NewGitterChannel(rs.client(t), "general", mb, nil)
	require.NoError(t, ch.Start(context.Background()))
	defer ch.Stop(context.Background())

	ctx := context.Background()
	require.NoError(t, mb.PublishOutbound(ctx, bus.OutboundMessage{Channel: "slack", Content: "elsewhere"}))
	require.NoError(t, mb.PublishOutbound(ctx, bus.OutboundMessage{Channel: "gitter", Content: "one"}))
	require.NoError(t, mb.PublishOutbound(ctx, bus.OutboundMessage{Content: "two"}))

	done := make(chan struct{})
	go func() {
		DispatchOutbound(ctx, mb, ch)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(rs.Posts()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"one", "two"}, rs.Posts())

	mb.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("DispatchOutbound did not return after Close")
	}
}

func TestBaseChannel_IsAllowed(t *testing.T) {
	open := NewBaseChannel("gitter", bus.NewMessageBus(), nil)
	assert.True(t, open.IsAllowed("u1|anyone"))

	ch := NewBaseChannel("gitter", bus.NewMessageBus(), []string{"u1", "@bob", "carol"})
	assert.True(t, ch.IsAllowed("u1|alice"))
	assert.True(t, ch.IsAllowed("u2|bob"))
	assert.True(t, ch.IsAllowed("u3|carol"))
	assert.False(t, ch.IsAllowed("u4|mallory"))
	assert.False(t, ch.IsAllowed(""))
}

func TestBuildScope(t *testing.T) {
	assert.Equal(t, "gitter:r1:m1", BuildScope("gitter", "r1", "m1"))

	a := BuildScope("gitter", "r1", "")
	b := BuildScope("gitter", "r1", "")
	assert.NotEqual(t, a, b)
	assert.Len(t, a, len("gitter:r1:")+36)
}
