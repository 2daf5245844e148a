package gateway

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingEvery    = 10 * time.Second
	readDeadline = 30 * time.Second
)

func (c *Client) nextSeq() uint32 {
	return atomic.AddUint32(&c.seq, 1)
}

func (c *Client) getConn() *websocket.Conn {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

// dial с установкой pong-handler'а, дедлайнов и запуском пингов
func (c *Client) dialAndSetup(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(64 << 20)

	c.touchActivity()

	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		if sent := c.pingSentAt.Load(); sent != 0 {
			c.latency.Store(int64(time.Since(time.Unix(0, sent))))
		}
		c.touchActivity()
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
	c.startPing(conn)
	return conn, nil
}

// безопасно закрыть текущее соединение
func (c *Client) closeConn() {
	c.stopPing()

	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	if conn != nil {
		c.wmu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
			time.Now().Add(500*time.Millisecond))
		c.wmu.Unlock()
		_ = conn.Close()
	}
}

func (c *Client) touchActivity() {
	c.lastActivity.Store(time.Now().UnixNano())
}

func (c *Client) sinceLastActivity() time.Duration {
	n := c.lastActivity.Load()
	if n == 0 {
		return time.Hour
	}
	return time.Since(time.Unix(0, n))
}

func (c *Client) startPing(conn *websocket.Conn) {
	c.stopPing()
	stop := make(chan struct{})
	c.wmu.Lock()
	c.pingStop = stop
	c.wmu.Unlock()

	go func() {
		t := time.NewTicker(pingEvery)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.wmu.Lock()
				c.pingSentAt.Store(time.Now().UnixNano())
				err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
				c.wmu.Unlock()
				if err != nil {
					c.log.Debug("gateway ping failed", "error", err, "idle", c.sinceLastActivity())
				}
			case <-stop:
				return
			}
		}
	}()
}

func (c *Client) stopPing() {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.pingStop != nil {
		close(c.pingStop)
		c.pingStop = nil
	}
}
