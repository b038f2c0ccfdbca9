package observer

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"navplug.szuro.net/internal/logger"
	"navplug.szuro.net/pkg/signalk"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Stream broadcasts every accepted delta and event to websocket clients.
type Stream struct {
	baseObserver
	clients    map[*streamClient]bool
	broadcast  chan []byte
	register   chan *streamClient
	unregister chan *streamClient
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

type streamClient struct {
	stream *Stream
	conn   *websocket.Conn
	send   chan []byte
}

func NewStream(name string) *Stream {
	s := &Stream{
		baseObserver: baseObserver{name: name, observerType: "stream"},
		clients:      make(map[*streamClient]bool),
		broadcast:    make(chan []byte, sendBuffer),
		register:     make(chan *streamClient),
		unregister:   make(chan *streamClient),
		done:         make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Stream) run() {
	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			s.mu.Unlock()
			logger.Debug("Stream client registered", slog.String("target", s.name), slog.String("remote", client.conn.RemoteAddr().String()))
		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.mu.Unlock()
		case message := <-s.broadcast:
			s.mu.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					logger.Warn("Stream client too slow, dropping", slog.String("target", s.name))
					close(client.send)
					delete(s.clients, client)
				}
			}
			s.mu.Unlock()
		case <-s.done:
			s.mu.Lock()
			for client := range s.clients {
				close(client.send)
				delete(s.clients, client)
			}
			s.mu.Unlock()
			return
		}
	}
}

// ClientCount is the number of connected websocket clients.
func (s *Stream) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Websocket upgrade failed", slog.Any("error", err))
		return
	}
	client := &streamClient{stream: s, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

func (s *Stream) SaveDelta(pluginID string, d signalk.Delta) bool {
	if !s.acceptDelta(d) {
		return false
	}
	msg, err := deltaMessage(pluginID, d)
	if err != nil {
		s.failed(DELTA)
		return false
	}
	return s.publish(DELTA, msg)
}

func (s *Stream) SaveEvent(e signalk.Event) bool {
	if !s.acceptEvent(e) {
		return false
	}
	msg, err := eventMessage(e)
	if err != nil {
		s.failed(EVENT)
		return false
	}
	return s.publish(EVENT, msg)
}

func (s *Stream) publish(export string, msg []byte) bool {
	select {
	case s.broadcast <- msg:
		s.shipped(export)
		return true
	case <-s.done:
		return false
	default:
		s.failed(export)
		return false
	}
}

func (s *Stream) Cleanup() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (c *streamClient) readPump() {
	defer func() {
		select {
		case c.stream.unregister <- c:
		case <-c.stream.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("Stream client read error", slog.Any("error", err))
			}
			return
		}
	}
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
