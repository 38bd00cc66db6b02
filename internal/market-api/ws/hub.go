package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 64
)

// client tem uma fila própria; só writePump escreve na conexão
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
}

// enqueue nunca bloqueia; com a fila cheia a mensagem é descartada
func (c *client) enqueue(b []byte) bool {
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				// derruba a leitura em HandleWS, que limpa as assinaturas
				_ = c.conn.Close()
				return
			}
		}
	}
}

// Hub mantém as conexões do feed e quem assina cada canal
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	subs map[string]map[*client]struct{}
}

func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS atende uma conexão até o cliente desconectar
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	c := newClient(conn)
	go c.writePump()
	defer func() {
		h.drop(c)
		close(c.done)
		_ = conn.Close()
	}()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			if msg.Channel != "" {
				h.subscribe(c, msg.Channel)
			}
		case "unsubscribe":
			h.unsubscribe(c, msg.Channel)
		case "ping":
			c.enqueue([]byte(`{"type":"pong"}`))
		}
	}
}

func (h *Hub) subscribe(c *client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[channel]
	if !ok {
		set = make(map[*client]struct{})
		h.subs[channel] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unsubscribe(c *client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[channel]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, channel)
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, ch)
		}
	}
}

// Subscribers retorna quantas conexões assinam channel
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Broadcast enfileira u para todos os assinantes de u.Channel sem esperar a escrita
func (h *Hub) Broadcast(u Update) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[u.Channel]))
	for c := range h.subs[u.Channel] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(u)
	if err != nil {
		h.log.Error("ws marshal update", zap.Error(err), zap.String("channel", u.Channel))
		return
	}
	for _, c := range targets {
		if !c.enqueue(b) {
			h.log.Warn("ws client queue full, update dropped", zap.String("channel", u.Channel))
		}
	}
}
