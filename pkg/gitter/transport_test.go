package gitter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/gitterclaw/pkg/gitter/gittertest"
)

func newTestTransport(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*Transport, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	transport, err := NewTransport(Config{
		Token:     testToken,
		RESTURL:   server.URL + "/v1/",
		StreamURL: server.URL + "/stream/v1/",
		Timeout:   timeout,
	})
	require.NoError(t, err)
	return transport, server
}

func TestTransport_UnusableBodiesAreEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace", " \n\t "},
		{"not json", "<html>oops</html>"},
		{"truncated", `{"id":"abc`},
		{"null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}, time.Second)

			result := transport.Get(context.Background(), "user")

			assert.True(t, result.Empty())
			assert.Nil(t, result.Raw())
			assert.Equal(t, http.StatusOK, result.StatusCode())
			err := result.Err()
			require.Error(t, err)
			assert.True(t, IsNoData(err))
			assert.ErrorIs(t, result.Decode(&[]User{}), ErrNoData)
		})
	}
}

func TestTransport_ValidDocuments(t *testing.T) {
	for _, body := range []string{`[]`, `{}`, `[{"id":"1"}]`, `"text"`, `0`} {
		t.Run(body, func(t *testing.T) {
			transport, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}, time.Second)

			result := transport.Get(context.Background(), "rooms")
			assert.False(t, result.Empty())
			assert.NoError(t, result.Err())
			assert.JSONEq(t, body, string(result.Raw()))
		})
	}
}

func TestTransport_DecodeShapeMismatch(t *testing.T) {
	transport, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"abc"}`)
	}, time.Second)

	var rooms []Room
	err := transport.Get(context.Background(), "rooms").Decode(&rooms)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)

	var typeErr *json.UnmarshalTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestTransport_NonSuccessStatus(t *testing.T) {
	transport, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gittertest.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}, time.Second)

	result := transport.Get(context.Background(), "user")
	assert.True(t, result.Empty())
	assert.Equal(t, http.StatusUnauthorized, result.StatusCode())

	err := result.Err()
	assert.ErrorIs(t, err, ErrNoData)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthorized", apiErr.Message)
}

func TestTransport_NonSuccessWithoutErrorBody(t *testing.T) {
	transport, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, time.Second)

	var apiErr *APIError
	require.ErrorAs(t, transport.Get(context.Background(), "user").Err(), &apiErr)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestTransport_TimeoutIsDistinguishable(t *testing.T) {
	transport, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	result := transport.Get(context.Background(), "user")
	assert.True(t, result.Empty())
	assert.Equal(t, 0, result.StatusCode())

	err := result.Err()
	assert.ErrorIs(t, err, ErrNoData)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestTransport_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	transport, err := NewTransport(Config{Token: testToken, RESTURL: url + "/v1/", StreamURL: url + "/stream/v1/"})
	require.NoError(t, err)

	err = transport.Get(context.Background(), "user").Err()
	assert.ErrorIs(t, err, ErrNoData)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestTransport_PathJoining(t *testing.T) {
	var gotPath string
	transport, server := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, `[]`)
	}, time.Second)

	transport.Get(context.Background(), "/rooms")
	assert.Equal(t, "/v1/rooms", gotPath, "leading slash must not drop the root path")

	transport.Get(context.Background(), "user/u1/rooms")
	assert.Equal(t, "/v1/user/u1/rooms", gotPath)

	assert.Equal(t, server.URL+"/stream/v1/rooms/r1/chatMessages", transport.URL(BaseStream, "/rooms/r1/chatMessages"))
	assert.Equal(t, server.URL+"/v1/rooms", transport.URL(BaseREST, "rooms"))
}

func TestTransport_RootWithoutTrailingSlash(t *testing.T) {
	transport, err := NewTransport(Config{Token: testToken, RESTURL: "https://gitter.example/api/v1"})
	require.NoError(t, err)
	assert.Equal(t, "https://gitter.example/api/v1/user", transport.URL(BaseREST, "user"))
	assert.Equal(t, DefaultStreamURL+"user", transport.URL(BaseStream, "user"))
}

func TestTransport_RejectsRelativeRoots(t *testing.T) {
	_, err := NewTransport(Config{Token: testToken, RESTURL: "api/v1/"})
	assert.Error(t, err)
}

func TestTransport_Headers(t *testing.T) {
	var header http.Header
	var body string
	transport, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		io.WriteString(w, `{"id":"m1"}`)
	}, time.Second)

	result := transport.Post(context.Background(), "rooms/r1/chatMessages", map[string]string{"text": "hi"})
	require.NoError(t, result.Err())

	assert.Equal(t, "Bearer "+testToken, header.Get("Authorization"))
	assert.Equal(t, "application/json; charset=utf-8", header.Get("Content-Type"))
	assert.Equal(t, "application/json", header.Get("Accept"))
	assert.JSONEq(t, `{"text":"hi"}`, body)
}

func TestTransport_DeleteHasNoBody(t *testing.T) {
	var method string
	var length int64
	transport, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		length = r.ContentLength
		io.WriteString(w, `{"success":true}`)
	}, time.Second)

	result := transport.Delete(context.Background(), "rooms/r1/users/u1")
	require.NoError(t, result.Err())
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, int64(0), length)
}

func TestTransport_StreamTargetsStreamRoot(t *testing.T) {
	var gotPath, gotAuth string
	transport, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `{"id":"m1"}`)
	}, time.Second)

	response, err := transport.Stream(context.Background(), "rooms/r1/chatMessages")
	require.NoError(t, err)
	defer response.Body.Close()

	assert.Equal(t, "/stream/v1/rooms/r1/chatMessages", gotPath)
	assert.Equal(t, "Bearer "+testToken, gotAuth)
}

func TestTransport_StreamNonSuccess(t *testing.T) {
	transport, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gittertest.WriteJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
	}, time.Second)

	response, err := transport.Stream(context.Background(), "rooms/r1/chatMessages")
	assert.Nil(t, response)
	require.Error(t, err)
	assert.True(t, IsNoData(err))

	var noData *NoDataError
	require.ErrorAs(t, err, &noData)
	assert.Equal(t, http.StatusForbidden, noData.StatusCode)
}
