// Package ws streams frame snapshots to browser clients and feeds their
// pointer input back into the event bus.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/san-kum/rigidlab/internal/events"
	"github.com/san-kum/rigidlab/internal/logger"
	"github.com/san-kum/rigidlab/internal/world"
)

const (
	DefaultPingInterval = 2 * time.Second
	writeTimeout        = time.Second
	sendBuffer          = 16
	maxMessageSize      = 4096
)

type client struct {
	w    *SafeWriter
	send chan []byte
	done chan struct{}
}

// Server fans frames out to connected clients. It implements sim.Observer,
// so OnTick runs on the simulation goroutine and must not block: frames are
// queued per client and dropped when a client falls behind.
type Server struct {
	upgrader     websocket.Upgrader
	bus          *events.Bus
	info         InfoMessage
	pingInterval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    []byte

	log *log.Logger
}

func NewServer(bus *events.Bus, scene string, timestep float64, l *log.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		bus:          bus,
		info:         InfoMessage{Type: MessageTypeInfo, Scene: scene, Timestep: timestep},
		pingInterval: DefaultPingInterval,
		clients:      make(map[*client]struct{}),
		log:          logger.OrDiscard(l).With("component", "ws"),
	}
}

func (s *Server) SetPingInterval(d time.Duration) { s.pingInterval = d }

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Handler serves the websocket endpoint at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	return mux
}

// OnTick snapshots the world and broadcasts the frame.
func (s *Server) OnTick(w *world.World, tick int) {
	s.Broadcast(w.Snapshot(tick))
}

func (s *Server) Broadcast(f world.Frame) {
	data, err := json.Marshal(FrameMessage{Type: MessageTypeFrame, Frame: f})
	if err != nil {
		s.log.Error("encode frame", "tick", f.Tick, "err", err)
		return
	}
	s.mu.Lock()
	s.last = data
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			s.log.Debug("client behind, frame dropped", "tick", f.Tick)
		}
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "err", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{
		w:    NewSafeWriter(conn),
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	if err := c.w.WriteJSON(s.info); err != nil {
		s.log.Warn("send info", "err", err)
		c.w.Close()
		return
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.last != nil {
		c.send <- s.last
	}
	s.mu.Unlock()
	s.log.Info("client connected", "remote", conn.RemoteAddr().String())

	go s.writePump(c)
	s.readPump(c, conn)

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	close(c.done)
	c.w.Close()
	s.log.Info("client disconnected", "remote", conn.RemoteAddr().String())
}

func (s *Server) readPump(c *client, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("read", "err", err)
			}
			return
		}
		e, err := ParseInput(data)
		if err != nil {
			s.log.Debug("bad input", "err", err)
			if err := s.reject(c, err); err != nil {
				s.log.Debug("write error reply", "err", err)
				return
			}
			continue
		}
		s.bus.Post(e)
	}
}

// reject tells the client why its input was dropped.
func (s *Server) reject(c *client, cause error) error {
	data, err := json.Marshal(ErrorMessage{Type: MessageTypeError, Message: cause.Error()})
	if err != nil {
		return err
	}
	return c.w.WriteWithDeadline(websocket.TextMessage, data, writeTimeout)
}

func (s *Server) writePump(c *client) {
	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.w.WriteWithDeadline(websocket.TextMessage, data, writeTimeout); err != nil {
				s.log.Debug("write", "err", err)
				return
			}
		case <-ping.C:
			if err := c.w.WriteWithDeadline(websocket.PingMessage, nil, writeTimeout); err != nil {
				return
			}
		}
	}
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
