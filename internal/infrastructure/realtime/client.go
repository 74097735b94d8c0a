package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"streamcast/internal/core/domain"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Client is one viewer connection: a read pump dispatching inbound messages
// to the hub and a write pump draining the send buffer in order.
type Client struct {
	id        domain.ConnectionID
	principal domain.Principal
	conn      *websocket.Conn
	hub       *Hub
	send      chan []byte
	limiter   *rate.Limiter
	opts      Options

	// path is the currently watched stream, guarded by hub.mu.
	path domain.StreamPath

	closeOnce sync.Once
}

// close tears the underlying connection down, which unwinds the read pump
// and with it the disconnect cleanup. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

// readPump consumes inbound messages until the connection dies for any
// reason. The deferred unregister is the guaranteed cleanup path for both
// orderly closes and abrupt network drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Infow("read error on viewer connection",
					"connection_id", c.id,
					"error", err,
				)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.hub.logger.Debugw("malformed message ignored", "connection_id", c.id, "error", err)
			continue
		}

		// Malformed or out-of-state messages are ignored, never an error
		// back to the connection
		switch env.Type {
		case MsgTypeWatchStream:
			var payload WatchStreamPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				c.hub.logger.Debugw("malformed watch payload ignored", "connection_id", c.id, "error", err)
				continue
			}
			c.hub.Watch(c, payload.StreamPath)

		case MsgTypeChatMessage:
			var payload ChatPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				c.hub.logger.Debugw("malformed chat payload ignored", "connection_id", c.id, "error", err)
				continue
			}
			c.hub.Chat(c, payload)

		default:
			c.hub.logger.Debugw("unknown message type ignored",
				"connection_id", c.id,
				"type", env.Type,
			)
		}
	}
}

// writePump drains the send buffer in enqueue order and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
