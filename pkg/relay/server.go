// Package relay fans a room's inbound messages out to local websocket
// clients and turns their frames into outbound messages for the room.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tinyland-inc/gitterclaw/pkg/bus"
	"github.com/tinyland-inc/gitterclaw/pkg/logger"
)

const (
	sendQueueSize = 64
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
)

// Frame is what a websocket client may send.
type Frame struct {
	Content string `json:"content"`
}

// Event is what every websocket client receives for an inbound message.
type Event struct {
	Type    string              `json:"type"`
	Message *bus.InboundMessage `json:"message,omitempty"`
	Client  string              `json:"client,omitempty"`
}

type conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
}

type Server struct {
	bus      *bus.MessageBus
	roomID   func() string
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*conn
}

// NewServer returns a relay publishing client frames to the room that
// roomID reports at the time the frame arrives.
func NewServer(mb *bus.MessageBus, roomID func() string) *Server {
	return &Server{
		bus:    mb,
		roomID: roomID,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[string]*conn),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	inbound, outbound := s.bus.Pending()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"room_id": s.roomID(),
		"clients": s.Clients(),
		"pending": map[string]int{"inbound": inbound, "outbound": outbound},
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCF("relay", "Upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	c := &conn{
		id:   uuid.New().String(),
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
	}
	s.register(c)

	hello, _ := json.Marshal(Event{Type: "connected", Client: c.id})
	c.send <- hello

	go s.writeLoop(c)
	s.readLoop(r.Context(), c)
}

func (s *Server) register(c *conn) {
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	logger.InfoCF("relay", "Client connected", map[string]any{"client": c.id})
}

func (s *Server) unregister(c *conn) {
	s.mu.Lock()
	if _, ok := s.clients[c.id]; ok {
		delete(s.clients, c.id)
		close(c.send)
	}
	s.mu.Unlock()
	logger.InfoCF("relay", "Client disconnected", map[string]any{"client": c.id})
}

func (s *Server) readLoop(ctx context.Context, c *conn) {
	defer s.unregister(c)

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := c.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnCF("relay", "Read failed", map[string]any{
					"client": c.id,
					"error":  err.Error(),
				})
			}
			return
		}
		if frame.Content == "" {
			continue
		}

		err := s.bus.PublishOutbound(ctx, bus.OutboundMessage{
			Channel: "gitter",
			RoomID:  s.roomID(),
			Content: frame.Content,
		})
		if err != nil {
			logger.WarnCF("relay", "Dropping client frame", map[string]any{
				"client": c.id,
				"error":  err.Error(),
			})
			if errors.Is(err, bus.ErrBusClosed) {
				return
			}
		}
	}
}

func (s *Server) writeLoop(c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast queues msg for every connected client. A client whose queue
// is full misses the message.
func (s *Server) Broadcast(msg bus.InboundMessage) {
	payload, err := json.Marshal(Event{Type: "message", Message: &msg})
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		select {
		case c.send <- payload:
		default:
			logger.WarnCF("relay", "Client queue full", map[string]any{"client": c.id})
		}
	}
}

// Run broadcasts inbound bus messages until ctx is done or the bus closes.
func (s *Server) Run(ctx context.Context) {
	for {
		msg, ok := s.bus.ConsumeInbound(ctx)
		if !ok {
			return
		}
		s.Broadcast(msg)
	}
}

// ListenAndServe serves the relay on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	logger.InfoCF("relay", "Listening", map[string]any{"addr": listener.Addr().String()})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeClients()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) closeClients() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.ws.Close()
	}
}
