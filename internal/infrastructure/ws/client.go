package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/homelyhq/homely/internal/infrastructure/metrics"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// Must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	defaultSendBuffer    = 64
	defaultMaxFrameBytes = 65536
)

type Client struct {
	ID     string
	UserID string

	conn *connWrapper
	send chan *Envelope

	closeOnce sync.Once
	closed    chan struct{}

	// rooms this connection has joined; guarded by the Registry mutex.
	rooms map[string]struct{}
}

func NewClient(conn *websocket.Conn, id, userID string, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Client{
		ID:     id,
		UserID: userID,
		conn:   newConnWrapper(conn),
		send:   make(chan *Envelope, sendBuffer),
		closed: make(chan struct{}),
		rooms:  make(map[string]struct{}),
	}
}

// Close tears down the connection exactly once. The send channel is never
// closed: the closed signal is what stops the pumps and trySend, so a reply
// racing a disconnect is dropped instead of sent into a dead channel.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// trySend queues msg without blocking. A closed connection swallows the
// frame; a full buffer means the client is too slow and the frame is
// dropped for this client only.
func (c *Client) trySend(msg *Envelope) {
	if c.isClosed() {
		return
	}
	select {
	case c.send <- msg:
	default:
		metrics.RelayDroppedFrames.Inc()
		log.Printf("client %s buffer full, dropping frame", c.ID)
	}
}

func (c *Client) ReadPump(core *Core, maxFrameBytes int64) {
	defer func() {
		core.Unregister() <- c
		c.Close()
	}()

	if maxFrameBytes <= 0 {
		maxFrameBytes = defaultMaxFrameBytes
	}
	c.conn.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.conn.SetPongHandler(func(string) error {
		return c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read error (client %s): %v", c.ID, err)
			}
			break
		}

		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			c.trySend(NewInvalid("frame is not valid JSON"))
			continue
		}

		core.Frames() <- inboundFrame{client: c, envelope: &envelope}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error (client %s): %v", c.ID, err)
				return
			}

		case <-ticker.C:
			if err := c.conn.Ping(); err != nil {
				return
			}

		case <-c.closed:
			_ = c.conn.WriteClose()
			return
		}
	}
}
