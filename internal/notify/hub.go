// Package notify pushes analysis outcomes to browsers over WebSocket.
//
// A client connects to the hub and registers interest in a file:
//
//	{"type":"REGISTER","fileId":"..."}
//
// When that file's analysis finishes the hub sends one Message and forgets
// the registration. The connection stays open for further registrations.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/JonMunkholm/csvstats/internal/profile"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// TypeRegister is the only message type clients send.
const TypeRegister = "REGISTER"

const defaultWriteTimeout = 10 * time.Second

// Message is the outcome pushed to registered clients.
type Message struct {
	FileID    string                  `json:"fileId"`
	Success   bool                    `json:"success"`
	Analytics *profile.AnalysisResult `json:"analytics,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

type clientMessage struct {
	Type   string `json:"type"`
	FileID string `json:"fileId"`
}

// LookupFunc reports an already-available outcome for fileID. The hub calls
// it on registration so clients that register after completion still get
// their message.
type LookupFunc func(ctx context.Context, fileID string) (Message, bool)

// Options configures a Hub.
type Options struct {
	// OriginPatterns are host patterns allowed for cross-origin upgrades
	OriginPatterns []string

	WriteTimeout time.Duration

	Lookup LookupFunc
}

type client struct {
	conn *websocket.Conn
	ids  map[string]struct{}
}

// Hub tracks registrations and delivers each outcome exactly once per
// registered client.
type Hub struct {
	opts Options

	mu      sync.Mutex
	subs    map[string]map[*client]struct{}
	clients map[*client]struct{}
}

// NewHub returns an empty hub.
func NewHub(opts Options) *Hub {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	return &Hub{
		opts:    opts,
		subs:    make(map[string]map[*client]struct{}),
		clients: make(map[*client]struct{}),
	}
}

// SetLookup installs the late-registration lookup.
func (h *Hub) SetLookup(fn LookupFunc) {
	h.mu.Lock()
	h.opts.Lookup = fn
	h.mu.Unlock()
}

// ServeHTTP upgrades the request and reads registrations until the client
// disconnects. Malformed messages are logged and ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.opts.OriginPatterns,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}

	c := &client{conn: conn, ids: make(map[string]struct{})}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.drop(c)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("ignoring malformed websocket message", "error", err)
			continue
		}
		if msg.Type != TypeRegister || msg.FileID == "" {
			continue
		}
		h.register(ctx, c, msg.FileID)
	}
}

func (h *Hub) register(ctx context.Context, c *client, fileID string) {
	h.mu.Lock()
	set, ok := h.subs[fileID]
	if !ok {
		set = make(map[*client]struct{})
		h.subs[fileID] = set
	}
	set[c] = struct{}{}
	c.ids[fileID] = struct{}{}
	lookup := h.opts.Lookup
	h.mu.Unlock()

	if lookup == nil {
		return
	}
	msg, ok := lookup(ctx, fileID)
	if !ok {
		return
	}
	// Notify may have delivered in the meantime.
	if h.claim(fileID, c) {
		msg.FileID = fileID
		h.send(ctx, c, msg)
	}
}

// claim removes one registration, reporting whether it was still present.
func (h *Hub) claim(fileID string, c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[fileID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	delete(c.ids, fileID)
	if len(set) == 0 {
		delete(h.subs, fileID)
	}
	return true
}

// Notify sends msg to every client registered for fileID and forgets them.
// It returns the number of clients the message was written to.
func (h *Hub) Notify(ctx context.Context, fileID string, msg Message) int {
	h.mu.Lock()
	set := h.subs[fileID]
	delete(h.subs, fileID)
	targets := make([]*client, 0, len(set))
	for c := range set {
		delete(c.ids, fileID)
		targets = append(targets, c)
	}
	h.mu.Unlock()

	msg.FileID = fileID
	delivered := 0
	for _, c := range targets {
		if h.send(ctx, c, msg) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) send(ctx context.Context, c *client, msg Message) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.opts.WriteTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, c.conn, msg); err != nil {
		slog.Debug("websocket write failed", "file_id", msg.FileID, "error", err)
		c.conn.Close(websocket.StatusInternalError, "write failed")
		return false
	}
	return true
}

// Registered returns how many clients wait on fileID.
func (h *Hub) Registered(fileID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[fileID])
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id := range c.ids {
		if set, ok := h.subs[id]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.subs, id)
			}
		}
	}
	delete(h.clients, c)
}

// Close disconnects every client. http.Server.Shutdown does not close
// hijacked connections, so the server calls this during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}
