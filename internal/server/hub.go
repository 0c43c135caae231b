package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

// hub рассылает снимки состояния всем подключённым websocket-клиентам.
type hub struct {
	clients map[uuid.UUID]chan Snapshot
	mu      sync.Mutex
	log     logrus.FieldLogger
}

func newHub(log logrus.FieldLogger) *hub {
	return &hub{
		clients: make(map[uuid.UUID]chan Snapshot),
		log:     log,
	}
}

func (h *hub) subscribe() (uuid.UUID, <-chan Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New()
	ch := make(chan Snapshot, sendBuffer)
	h.clients[id] = ch
	return id, ch
}

func (h *hub) unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[id]; ok {
		close(ch)
		delete(h.clients, id)
	}
}

// broadcast не блокируется: у медленного клиента вытесняется самый старый
// снимок из очереди, последний снимок доставляется всегда.
func (h *hub) broadcast(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.clients {
		select {
		case ch <- snap:
			continue
		default:
		}

		select {
		case <-ch:
			h.log.WithField("client", id).Debug("Клиент не успевает, старый снимок вытеснен")
		default:
		}
		// Пишет в канал только broadcast под h.mu, место уже освобождено.
		ch <- snap
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// serve пишет снимки в соединение, пока клиент не отключится.
// Текущий снимок берётся после подписки, чтобы не потерять изменения между ними.
func (h *hub) serve(conn *websocket.Conn, current func() Snapshot) {
	id, updates := h.subscribe()
	defer h.unsubscribe(id)
	defer conn.Close()

	// Чтение нужно только для обработки close-фрейма.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, current()); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := h.write(conn, snap); err != nil {
				h.log.WithError(err).WithField("client", id).Debug("Websocket закрыт")
				return
			}
		}
	}
}

func (h *hub) write(conn *websocket.Conn, snap Snapshot) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(snap)
}
