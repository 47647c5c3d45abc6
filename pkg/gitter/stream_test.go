package gitter

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/gitterclaw/pkg/gitter/gittertest"
)

const streamPath = "/stream/v1/rooms/abc123/chatMessages"

func TestRoomStream_DecodesEventsAndSkipsHeartbeats(t *testing.T) {
	fake := newFake(t)
	fake.Handle(http.MethodGet, streamPath, func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		io.WriteString(w, " \n")
		flusher.Flush()
		io.WriteString(w, `{"id":"s1","text":"first","fromUser":{"username":"bob"}}`+"\n")
		io.WriteString(w, " \n \n")
		io.WriteString(w, `{"id":"s2","text":"second"}`+"\n")
		flusher.Flush()
	})
	client := testClient(t, fake)

	stream, err := client.RoomStream(context.Background(), "general")
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, "abc123", stream.RoomID)

	first, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "s1", first.ID)
	assert.Equal(t, "bob", first.Sender())

	second, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "second", second.Text)

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)

	requests := fake.Requests(http.MethodGet, streamPath)
	require.Len(t, requests, 1)
	assert.Equal(t, "Bearer "+testToken, requests[0].Header.Get("Authorization"))
	assert.Empty(t, fake.Requests(http.MethodGet, "/v1/rooms/abc123"), "stream must not hit the REST root")
}

func TestRoomStream_ReturnsBeforeAnyEvent(t *testing.T) {
	release := make(chan struct{})
	fake := newFake(t)
	fake.Handle(http.MethodGet, streamPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-release:
			io.WriteString(w, `{"id":"late"}`)
		case <-r.Context().Done():
		}
	})
	client := testClient(t, fake)

	done := make(chan *Stream, 1)
	go func() {
		stream, err := client.RoomStream(context.Background(), "general")
		assert.NoError(t, err)
		done <- stream
	}()

	var stream *Stream
	select {
	case stream = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RoomStream blocked waiting for the body")
	}
	require.NotNil(t, stream)

	close(release)
	message, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "late", message.ID)
	require.NoError(t, stream.Close())
}

func TestRoomStream_RawRead(t *testing.T) {
	fake := newFake(t)
	fake.Handle(http.MethodGet, streamPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "raw bytes")
	})
	client := testClient(t, fake)

	stream, err := client.RoomStreamByID(context.Background(), "abc123")
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", string(data))
}

func TestRoomStream_UnknownRoom(t *testing.T) {
	fake := newFake(t)
	client := testClient(t, fake)

	stream, err := client.RoomStream(context.Background(), "nowhere")
	assert.Nil(t, stream)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Empty(t, fake.Requests(http.MethodGet, "/stream/"))
}

func TestRoomStream_ErrorStatus(t *testing.T) {
	fake := newFake(t)
	fake.Handle(http.MethodGet, streamPath, func(w http.ResponseWriter, r *http.Request) {
		gittertest.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
	})
	client := testClient(t, fake)

	stream, err := client.RoomStream(context.Background(), "general")
	assert.Nil(t, stream)
	assert.True(t, IsNoData(err))
}

func TestRoomStream_CancelAbortsRead(t *testing.T) {
	fake := newFake(t)
	fake.Handle(http.MethodGet, streamPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	client := testClient(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := client.RoomStream(ctx, "general")
	require.NoError(t, err)
	defer stream.Close()

	time.AfterFunc(20*time.Millisecond, cancel)
	_, err = stream.Next()
	assert.Error(t, err)
}

func TestRoomStream_CloseTwice(t *testing.T) {
	fake := newFake(t)
	client := testClient(t, fake)

	stream, err := client.RoomStreamByID(context.Background(), "abc123")
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	assert.NoError(t, stream.Close())
}
