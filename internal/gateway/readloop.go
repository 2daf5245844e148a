package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

var errConnectionLost = errors.New("connection lost")

func (c *Client) readLoop(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		c.closed.Store(true)
		c.closeConn()
		c.failPendingCallbacks(errConnectionLost)
		if c.OnDisconnected != nil {
			c.OnDisconnected()
		}
	}()

	// закрыть по отмене контекста
	go func() {
		<-ctx.Done()
		c.closeConn()
	}()

	for {
		conn := c.getConn()
		if conn != nil {
			_, data, err := conn.ReadMessage()
			if err == nil {
				c.touchActivity()
				_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
				f, uerr := UnmarshalFrame(data)
				if uerr != nil {
					c.emitError(uerr)
					continue
				}
				c.dispatch(f)
				continue
			}
			if ctx.Err() != nil || c.closed.Load() {
				return
			}
			c.emitError(err)
		}

		c.closeConn()
		c.failPendingCallbacks(errConnectionLost)

		if !c.reconnect(ctx) {
			return
		}
	}
}

// reconnect: переподключение с экспоненциальным backoff.
// false: клиент закрыт или контекст отменён.
func (c *Client) reconnect(ctx context.Context) bool {
	backoff := minBackoff
	for !c.closed.Load() {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		conn, err := c.dialAndSetup(ctx)
		if err != nil {
			c.emitError(fmt.Errorf("reconnect failed (wait %v): %w", backoff, err))
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		c.setConn(conn)
		if err := c.identify(); err != nil {
			c.emitError(fmt.Errorf("identify after reconnect: %w", err))
			c.closeConn()
			continue
		}
		c.log.Info("gateway reconnected")
		if c.OnConnected != nil {
			c.OnConnected()
		}
		return true
	}
	return false
}

func (c *Client) dispatch(f *Frame) {
	switch f.Op {
	case OpResponse:
		c.mu.Lock()
		cb, ok := c.cbs[f.Seq]
		if ok {
			delete(c.cbs, f.Seq)
		}
		c.mu.Unlock()
		if ok {
			cb(f)
		}
	case OpReady:
		r := readyFromFrame(f)
		c.self.Store(r)
		c.log.Info("gateway ready", "user", r.UserName, "user_id", r.UserID)
		if c.OnReady != nil {
			c.OnReady(r)
		}
	case OpMessageCreate:
		if c.OnMessage != nil {
			c.OnMessage(messageFromFrame(f))
		}
	case OpVoiceStateUpdate:
		if c.OnVoiceState != nil {
			c.OnVoiceState(voiceStateFromFrame(f))
		}
	default:
		c.log.Debug("gateway: unhandled op", "op", f.Op)
	}
}

func (c *Client) emitError(err error) {
	if c.OnError != nil && !c.closed.Load() {
		c.OnError(err)
	}
}

// пометить все ожидающие колбэки ошибкой при реконнекте/закрытии
func (c *Client) failPendingCallbacks(err error) {
	c.mu.Lock()
	pending := c.cbs
	c.cbs = make(map[uint32]func(*Frame) bool)
	c.mu.Unlock()

	for seq, cb := range pending {
		cb(&Frame{
			Op:   OpResponse,
			Seq:  seq,
			Data: map[string]any{"error": err.Error()},
		})
	}
}
