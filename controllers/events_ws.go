package controller

import (
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// TaskEvent is a live notification about a task change, pushed to
// connected dashboard clients.
type TaskEvent struct {
	Type      string `json:"type"` // task_created, task_updated, task_deleted
	TaskID    uint   `json:"task_id"`
	ProjectID uint   `json:"project_id"`
	Status    string `json:"status,omitempty"`
	Progress  int    `json:"progress,omitempty"`
}

// EventHub fans task events out to websocket subscribers. Slow or dead
// subscribers are dropped rather than blocking the publisher.
type EventHub struct {
	mu      sync.Mutex
	clients map[chan TaskEvent]struct{}
	logger  *log.Logger
}

func NewEventHub(logger *log.Logger) *EventHub {
	return &EventHub{
		clients: make(map[chan TaskEvent]struct{}),
		logger:  logger,
	}
}

// Publish sends an event to every subscriber. Nil hubs are a no-op so
// controllers can run without one in tests.
func (h *EventHub) Publish(ev TaskEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			delete(h.clients, ch)
			close(ch)
		}
	}
}

func (h *EventHub) subscribe() chan TaskEvent {
	ch := make(chan TaskEvent, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(ch chan TaskEvent) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// HandleTaskEventsWS streams task events to one websocket client until
// the connection drops.
func (h *EventHub) HandleTaskEventsWS(c *websocket.Conn) {
	defer c.Close()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	for ev := range ch {
		if err := c.WriteJSON(ev); err != nil {
			h.logger.Printf("Dropping event subscriber: %v", err)
			return
		}
	}
}
