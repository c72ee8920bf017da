// Package events pushes server-sent events to connected learners.
package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/pblagro/internal/model"
	"github.com/rs/zerolog/log"
)

type Event string

const (
	EventChallengesGenerated Event = "challenges_generated"
	EventContentReleased     Event = "content_released"
)

const heartbeatInterval = 15 * time.Second

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

type Client struct {
	ID        uuid.UUID
	LearnerID string
	Channels  map[string]bool
	Outbound  chan Message
	done      chan struct{}
	closeOnce sync.Once
}

type Hub struct {
	mu            sync.RWMutex
	subscriptions map[string]map[*Client]bool
	clients       map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		subscriptions: make(map[string]map[*Client]bool),
		clients:       make(map[*Client]bool),
	}
}

func CohortChannel(cohort string) string {
	return "cohort:" + cohort
}

func (h *Hub) NewClient(learnerID string) *Client {
	c := &Client{
		ID:        uuid.New(),
		LearnerID: learnerID,
		Channels:  make(map[string]bool),
		Outbound:  make(chan Message, 16),
		done:      make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func (h *Hub) Subscribe(c *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	c.Channels[channel] = true
	subs, ok := h.subscriptions[channel]
	if !ok {
		subs = make(map[*Client]bool)
		h.subscriptions[channel] = subs
	}
	subs[c] = true
	log.Debug().Str("clientID", c.ID.String()).Str("channel", channel).Msg("SSE client subscribed")
}

// Remove unsubscribes the client from every channel and ends its stream.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	for ch := range c.Channels {
		if subs, ok := h.subscriptions[ch]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.subscriptions, ch)
			}
		}
	}
	c.Channels = make(map[string]bool)
	delete(h.clients, c)
	h.mu.Unlock()

	c.closeOnce.Do(func() { close(c.done) })
}

// Publish delivers msg to the channel's subscribers. Slow clients drop messages instead of blocking.
func (h *Hub) Publish(msg Message) {
	if msg.Channel == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.subscriptions[msg.Channel] {
		select {
		case c.Outbound <- msg:
		default:
			log.Warn().Str("clientID", c.ID.String()).Str("event", string(msg.Event)).Msg("Dropping SSE message; outbound buffer full")
		}
	}
}

func (h *Hub) ChallengesGenerated(learnerID string, created int) {
	h.Publish(Message{
		Channel: learnerID,
		Event:   EventChallengesGenerated,
		Data:    map[string]any{"created": created},
	})
}

func (h *Hub) ContentReleased(cohort string, entry *model.ScheduleEntry) {
	h.Publish(Message{
		Channel: CohortChannel(cohort),
		Event:   EventContentReleased,
		Data: map[string]any{
			"content_unit_id": entry.ContentUnitID,
			"module":          entry.Module,
			"lesson":          entry.Lesson,
			"kind":            entry.Kind,
		},
	})
}

// Close ends every open stream so the HTTP server can shut down.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Remove(c)
	}
}

// Serve streams the client's messages until the request ends or the client is removed.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, c *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-c.Outbound:
			payload, err := json.Marshal(msg)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to marshal SSE message")
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, payload)
			flusher.Flush()
		}
	}
}
