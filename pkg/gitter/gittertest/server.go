// Package gittertest provides an in-process Gitter API for tests.
package gittertest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// Request is a recorded request. At is the server clock's time when the
// request arrived.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
	At     time.Time
}

// Server serves the REST API under /v1/ and the streaming API under
// /stream/v1/. Its state may be modified before the first request; use
// the setters afterwards.
type Server struct {
	*httptest.Server

	User  map[string]any
	Rooms []map[string]any
	Repos []map[string]any

	mu        sync.Mutex
	history   map[string][]map[string]any
	events    map[string][]string
	overrides map[string]http.HandlerFunc
	requests  []Request
	nextID    int
	now       func() time.Time
}

// NewServer starts a server with one user ("alice", id "user-1") and two
// rooms: "general" (abc123) and "random" (def456).
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		User: map[string]any{"id": "user-1", "username": "alice", "displayName": "Alice"},
		Rooms: []map[string]any{
			{"id": "abc123", "name": "general", "uri": "org/general", "userCount": 10},
			{"id": "def456", "name": "random", "uri": "org/random", "userCount": 3},
		},
		Repos: []map[string]any{
			{"id": 42, "name": "alice/tools", "uri": "alice/tools", "exists": true},
		},
		history:   make(map[string][]map[string]any),
		events:    make(map[string][]string),
		overrides: make(map[string]http.HandlerFunc),
		now:       time.Now,
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) RESTURL() string   { return s.URL + "/v1/" }
func (s *Server) StreamURL() string { return s.URL + "/stream/v1/" }

// SetHistory replaces a room's history; messages are oldest first.
func (s *Server) SetHistory(roomID string, messages []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[roomID] = messages
}

// SetStreamEvents sets the raw events a room's stream writes, each
// followed by a heartbeat, before the server ends the stream.
func (s *Server) SetStreamEvents(roomID string, events ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[roomID] = events
}

// Handle replaces the handler for one method and exact path.
func (s *Server) Handle(method, path string, handler http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" "+path] = handler
}

// SetClock sets the clock that stamps recorded requests.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Requests returns recorded requests matching method whose path starts
// with prefix.
func (s *Server) Requests(method, prefix string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// Messages builds n messages from "bob", ids m0000 upward.
func Messages(n int) []map[string]any {
	messages := make([]map[string]any, n)
	base := time.Date(2015, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := range messages {
		messages[i] = map[string]any{
			"id":       fmt.Sprintf("m%04d", i),
			"text":     fmt.Sprintf("message %d", i),
			"sent":     base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339Nano),
			"fromUser": map[string]any{"id": "user-2", "username": "bob"},
		}
	}
	return messages
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/user", func(w http.ResponseWriter, _ *http.Request) {
			WriteJSON(w, http.StatusOK, []map[string]any{s.User})
		})
		r.Get("/user/{userID}/rooms", func(w http.ResponseWriter, _ *http.Request) {
			WriteJSON(w, http.StatusOK, s.Rooms)
		})
		r.Get("/user/{userID}/repos", func(w http.ResponseWriter, _ *http.Request) {
			WriteJSON(w, http.StatusOK, s.Repos)
		})
		r.Get("/rooms", func(w http.ResponseWriter, _ *http.Request) {
			WriteJSON(w, http.StatusOK, s.Rooms)
		})
		r.Post("/rooms", s.joinRoom)
		r.Delete("/rooms/{roomID}/users/{userID}", func(w http.ResponseWriter, _ *http.Request) {
			WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
		})
		r.Get("/rooms/{roomID}/chatMessages", s.serveHistory)
		r.Post("/rooms/{roomID}/chatMessages", s.postMessage)
	})
	r.Get("/stream/v1/rooms/{roomID}/chatMessages", s.serveStream)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   string(body),
			At:     s.now(),
		})
		override := s.overrides[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		r.Body = io.NopCloser(strings.NewReader(string(body)))
		if override != nil {
			override(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URI string `json:"uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URI == "" {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "uri is required"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"id": "joined-" + req.URI, "name": req.URI, "uri": req.URI})
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("sent-%d", s.nextID)
	s.mu.Unlock()

	WriteJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"text":     req.Text,
		"sent":     time.Now().UTC().Format(time.RFC3339Nano),
		"fromUser": s.User,
	})
}

// serveHistory returns up to limit messages before beforeId, oldest first.
func (s *Server) serveHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	history := s.history[chi.URLParam(r, "roomID")]
	s.mu.Unlock()

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	end := len(history)
	if before := r.URL.Query().Get("beforeId"); before != "" {
		end = 0
		for i, m := range history {
			if m["id"] == before {
				end = i
				break
			}
		}
	}
	page := []map[string]any{}
	page = append(page, history[max(0, end-limit):end]...)
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) serveStream(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	events := s.events[chi.URLParam(r, "roomID")]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	flusher, _ := w.(http.Flusher)
	io.WriteString(w, " \n")
	for _, event := range events {
		io.WriteString(w, event+"\n \n")
	}
	if flusher != nil {
		flusher.Flush()
	}
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
