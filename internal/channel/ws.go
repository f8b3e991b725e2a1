package channel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Process lists for busy hosts are large.
	maxMessageSize = 16 << 20

	sendQueueSize = 16

	defaultHandshakeTimeout = 10 * time.Second

	// NodeParam carries the target node in the connection address.
	NodeParam = "operateNode"
)

// WSDialer dials the agent's process websocket endpoint.
type WSDialer struct {
	// Endpoint is the websocket URL, e.g. ws://host:port/api/v2/process/ws.
	// http and https schemes are mapped to ws and wss.
	Endpoint         string
	Header           http.Header
	HandshakeTimeout time.Duration
	Logger           zerolog.Logger
}

// URL builds the connection address for node.
func (d *WSDialer) URL(node string) (string, error) {
	u, err := url.Parse(d.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", d.Endpoint)
	}
	q := u.Query()
	q.Set(NodeParam, node)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial opens a websocket to node and starts its read and write pumps.
func (d *WSDialer) Dial(ctx context.Context, node string, ev Events) (Conn, error) {
	target, err := d.URL(node)
	if err != nil {
		return nil, err
	}
	hs := d.HandshakeTimeout
	if hs <= 0 {
		hs = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: hs,
	}
	ws, resp, err := dialer.DialContext(ctx, target, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", target, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	c := newWSConn(ws, ev, d.Logger.With().Str("node", node).Logger())
	go c.writePump()
	go c.readPump()
	return c, nil
}

type wsConn struct {
	id   string
	ws   *websocket.Conn
	ev   Events
	log  zerolog.Logger
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool

	mu      sync.Mutex
	failErr error
}

func newWSConn(ws *websocket.Conn, ev Events, log zerolog.Logger) *wsConn {
	id := uuid.NewString()
	return &wsConn{
		id:   id,
		ws:   ws,
		ev:   ev,
		log:  log.With().Str("conn", id).Logger(),
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(payload []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return errSendQueueFull
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		err = c.ws.Close()
	})
	return err
}

// fail records a write side error and closes the connection. The read pump
// reports it instead of treating the close as local.
func (c *wsConn) fail(err error) {
	c.mu.Lock()
	if c.failErr == nil && !c.closed.Load() {
		c.failErr = err
	}
	c.mu.Unlock()
	_ = c.Close()
}

func (c *wsConn) failure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failErr
}

func (c *wsConn) readPump() {
	var readErr error
	defer func() {
		local := c.closed.Load()
		_ = c.Close()
		if local {
			readErr = c.failure()
		}
		if c.ev.OnClose != nil {
			c.ev.OnClose(readErr)
		}
	}()
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		mt, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Msg("peer closed connection")
			}
			readErr = err
			return
		}
		// Any frame proves liveness.
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		if c.ev.OnMessage != nil {
			c.ev.OnMessage(msg)
		}
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Warn().Err(err).Msg("write failed")
				c.fail(fmt.Errorf("write: %w", err))
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Warn().Err(err).Msg("ping failed")
				c.fail(fmt.Errorf("ping: %w", err))
				return
			}
		case <-c.done:
			return
		}
	}
}
