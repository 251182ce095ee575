package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ErrChannelClosed is returned by Send after Close.
var ErrChannelClosed = errors.New("channel closed")

// WSChannel adapts a websocket connection to Channel. Writes are serialized
// since gorilla connections allow only one concurrent writer.
type WSChannel struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	closed  bool
	done    chan struct{}
	once    sync.Once
}

func NewWSChannel(conn *websocket.Conn) *WSChannel {
	return &WSChannel{conn: conn, done: make(chan struct{})}
}

func (c *WSChannel) Send(ctx context.Context, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// ReadLoop blocks reading text frames and hands each to onMessage until the
// peer disconnects or the connection fails. It also keeps the connection
// alive with pings.
func (c *WSChannel) ReadLoop(onMessage func(raw []byte)) error {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.pingLoop()

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		onMessage(raw)
	}
}

func (c *WSChannel) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			if c.closed {
				c.writeMu.Unlock()
				return
			}
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close stops the keepalive and closes the underlying connection.
func (c *WSChannel) Close() error {
	var err error
	c.once.Do(func() {
		c.writeMu.Lock()
		c.closed = true
		c.writeMu.Unlock()
		close(c.done)
		err = c.conn.Close()
	})
	return err
}
