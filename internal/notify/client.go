package notify

import (
	"time"

	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog/log"
	"github.com/videoreview/videoreview_server/internal/auth"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	claims        *auth.Claims
	send          chan *OutgoingMessage
	subscriptions map[string]bool
}

func NewClient(hub *Hub, conn *websocket.Conn, claims *auth.Claims) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		claims:        claims,
		send:          make(chan *OutgoingMessage, 64),
		subscriptions: make(map[string]bool),
	}
}

// ReadPump consumes subscribe/unsubscribe/ping messages until the
// connection drops, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg IncomingMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("[WS] Unexpected close")
			}
			return
		}

		switch msg.Type {
		case MessageTypeSubscribe:
			if msg.VideoID != "" {
				c.subscriptions[msg.VideoID] = true
				c.hub.Subscribe(c, msg.VideoID)
			}
		case MessageTypeUnsubscribe:
			if msg.VideoID != "" {
				delete(c.subscriptions, msg.VideoID)
				c.hub.Unsubscribe(c, msg.VideoID)
			}
		case MessageTypePing:
			select {
			case c.send <- &OutgoingMessage{Type: MessageTypePong}:
			default:
			}
		}
	}
}

// WritePump drains the send channel and keeps the connection alive with
// protocol pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
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
