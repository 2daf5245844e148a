package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var ErrNotConnected = errors.New("gateway: not connected")

type Config struct {
	URL   string
	Token string
}

type Client struct {
	url   string
	token string
	log   *slog.Logger

	connMu sync.RWMutex
	conn   *websocket.Conn
	seq    uint32
	mu     sync.Mutex
	cbs    map[uint32]func(*Frame) bool
	closed atomic.Bool

	wmu          sync.Mutex    // сериализует запись в websocket
	pingStop     chan struct{} // стоп-канал ping-горутины
	lastActivity atomic.Int64  // unix nanos последнего принятого кадра
	pingSentAt   atomic.Int64
	latency      atomic.Int64
	self         atomic.Pointer[Ready]

	// "События"
	OnConnecting   func()
	OnConnected    func()
	OnReady        func(*Ready)
	OnMessage      func(*Message)
	OnVoiceState   func(*VoiceState)
	OnDisconnected func()
	OnError        func(error)
}

func New(cfg Config, log *slog.Logger) *Client {
	return &Client{
		url:   cfg.URL,
		token: cfg.Token,
		log:   log,
		cbs:   make(map[uint32]func(*Frame) bool),
	}
}

// Connect: устанавливает WebSocket, представляется и запускает readLoop.
// Отмена контекста закрывает соединение и останавливает реконнекты.
func (c *Client) Connect(ctx context.Context) error {
	if c.OnConnecting != nil {
		c.OnConnecting()
	}
	conn, err := c.dialAndSetup(ctx)
	if err != nil {
		return err
	}
	c.setConn(conn)
	c.closed.Store(false)

	if err := c.identify(); err != nil {
		c.closeConn()
		return err
	}
	if c.OnConnected != nil {
		c.OnConnected()
	}

	go c.readLoop(ctx)
	return nil
}

func (c *Client) Disconnect() {
	c.closed.Store(true)
	c.closeConn()
	if c.OnDisconnected != nil {
		c.OnDisconnected()
	}
}

func (c *Client) IsConnected() bool {
	return c.getConn() != nil && !c.closed.Load()
}

// Self: данные бота из READY (nil до первого READY).
func (c *Client) Self() *Ready {
	return c.self.Load()
}

// Latency: время последнего ping/pong; false, если замеров ещё не было.
func (c *Client) Latency() (time.Duration, bool) {
	n := c.latency.Load()
	if n == 0 {
		return 0, false
	}
	return time.Duration(n), true
}

// SendRequest: отправляет кадр, назначая ему seq.
// Если cb != nil, он будет вызван по RESPONSE с тем же seq.
func (c *Client) SendRequest(f *Frame, cb func(*Frame) bool) error {
	conn := c.getConn()
	if conn == nil {
		return ErrNotConnected
	}
	f.Seq = c.nextSeq()

	if cb != nil {
		c.mu.Lock()
		c.cbs[f.Seq] = cb
		c.mu.Unlock()
	}

	data, err := f.Marshal()
	if err != nil {
		c.dropCallback(f.Seq)
		return err
	}

	c.wmu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	werr := conn.WriteMessage(websocket.BinaryMessage, data)
	c.wmu.Unlock()

	if werr != nil {
		// сеть упала между подготовкой и записью: подчищаем cb
		c.dropCallback(f.Seq)
		return werr
	}
	return nil
}

// SendRequestAsync: отправляет кадр и ждёт RESPONSE или отмены ctx.
func (c *Client) SendRequestAsync(ctx context.Context, f *Frame) (*Frame, error) {
	respCh := make(chan *Frame, 1)

	err := c.SendRequest(f, func(resp *Frame) bool {
		respCh <- resp
		return true
	})
	if err != nil {
		return nil, err
	}
	seq := f.Seq

	select {
	case r := <-respCh:
		if rerr := r.Err(); rerr != nil {
			return nil, rerr
		}
		return r, nil
	case <-ctx.Done():
		c.dropCallback(seq)
		return nil, fmt.Errorf("waiting for %s response: %w", f.Op, ctx.Err())
	}
}

func (c *Client) dropCallback(seq uint32) {
	c.mu.Lock()
	delete(c.cbs, seq)
	c.mu.Unlock()
}

func (c *Client) identify() error {
	return c.SendRequest(&Frame{
		Op:   OpIdentify,
		Data: map[string]any{"token": c.token},
	}, nil)
}
