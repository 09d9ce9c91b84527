package notify

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub fans events out to websocket clients grouped by the video they
// subscribed to.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	byVideo map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	events     chan *videoEvent
}

type videoEvent struct {
	videoID string
	event   *Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byVideo:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *videoEvent, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			client.send <- &OutgoingMessage{Type: MessageTypeConnected, UserID: client.claims.UserID}
			log.Debug().Str("userId", client.claims.UserID).Msg("[WS] Client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for videoID := range client.subscriptions {
					h.removeSubscriber(videoID, client)
				}
				close(client.send)
			}
			h.mu.Unlock()
			log.Debug().Str("userId", client.claims.UserID).Msg("[WS] Client disconnected")

		case ev := <-h.events:
			h.mu.RLock()
			for client := range h.byVideo[ev.videoID] {
				select {
				case client.send <- &OutgoingMessage{Type: MessageTypeEvent, Event: ev.event}:
				default:
					// Slow consumer, drop the event rather than block the hub.
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) Subscribe(client *Client, videoID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byVideo[videoID] == nil {
		h.byVideo[videoID] = make(map[*Client]bool)
	}
	h.byVideo[videoID][client] = true
}

func (h *Hub) Unsubscribe(client *Client, videoID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeSubscriber(videoID, client)
}

// removeSubscriber requires h.mu to be held.
func (h *Hub) removeSubscriber(videoID string, client *Client) {
	if subs, ok := h.byVideo[videoID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.byVideo, videoID)
		}
	}
}

// BroadcastToVideo implements Broadcaster.
func (h *Hub) BroadcastToVideo(videoID string, event *Event) {
	select {
	case h.events <- &videoEvent{videoID: videoID, event: event}:
	default:
		log.Warn().Str("videoId", videoID).Msg("[WS] Event queue full, dropping broadcast")
	}
}
