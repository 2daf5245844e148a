package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// fakeGateway: минимальный шлюз: принимает IDENTIFY, шлёт READY и одно
// сообщение, на каждый запрос отвечает RESPONSE.
type fakeGateway struct {
	t        *testing.T
	identity chan string
	requests chan *Frame
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	send := func(f *Frame) {
		b, err := f.Marshal()
		if err == nil {
			_ = conn.WriteMessage(websocket.BinaryMessage, b)
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		f, err := UnmarshalFrame(data)
		if err != nil {
			return
		}
		switch f.Op {
		case OpIdentify:
			g.identity <- f.str("token")
			send(&Frame{Op: OpReady, Data: map[string]any{"user_id": "bot", "user_name": "mbot"}})
			send(&Frame{Op: OpMessageCreate, Data: map[string]any{
				"id": "m1", "channel_id": "c1", "guild_id": "g1",
				"author_id": "u1", "author_name": "alice", "content": ".ping",
			}})
		default:
			g.requests <- f
			resp := &Frame{Op: OpResponse, Seq: f.Seq, Data: map[string]any{}}
			if f.str("content") == "fail" {
				resp.Data["op"] = string(f.Op)
				resp.Data["error"] = "missing permissions"
			}
			send(resp)
		}
	}
}

func newTestClient(t *testing.T) (*Client, *fakeGateway, func()) {
	g := &fakeGateway{t: t, identity: make(chan string, 1), requests: make(chan *Frame, 16)}
	srv := httptest.NewServer(g)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New(Config{URL: url, Token: "secret"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return c, g, srv.Close
}

func TestClient_Connect_Identify_And_Events(t *testing.T) {
	req := require.New(t)
	c, g, stop := newTestClient(t)
	defer stop()

	messages := make(chan *Message, 1)
	ready := make(chan *Ready, 1)
	c.OnMessage = func(m *Message) { messages <- m }
	c.OnReady = func(r *Ready) { ready <- r }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req.NoError(c.Connect(ctx))
	defer c.Disconnect()
	req.True(c.IsConnected())

	select {
	case tok := <-g.identity:
		req.Equal("secret", tok)
	case <-time.After(2 * time.Second):
		t.Fatal("no IDENTIFY")
	}

	select {
	case r := <-ready:
		req.Equal("mbot", r.UserName)
	case <-time.After(2 * time.Second):
		t.Fatal("no READY")
	}
	req.Eventually(func() bool { return c.Self() != nil }, time.Second, 10*time.Millisecond)

	select {
	case m := <-messages:
		req.Equal(".ping", m.Content)
		req.Equal("g1", m.GuildID)
	case <-time.After(2 * time.Second):
		t.Fatal("no MESSAGE_CREATE")
	}
}

func TestClient_Request_Response(t *testing.T) {
	req := require.New(t)
	c, g, stop := newTestClient(t)
	defer stop()

	ctx := context.Background()
	req.NoError(c.Connect(ctx))
	defer c.Disconnect()

	req.NoError(c.SendMessage(ctx, "c1", "hello"))
	f := <-g.requests
	req.Equal(OpSendMessage, f.Op)
	req.Equal("hello", f.str("content"))

	err := c.SendMessage(ctx, "c1", "fail")
	var rerr *ResponseError
	req.ErrorAs(err, &rerr)
	req.Equal("missing permissions", rerr.Message)

	req.NoError(c.VoiceState(ctx, "g1", true, false))
	for f = range g.requests {
		if f.Op == OpVoiceState {
			break
		}
	}
	req.True(f.boolean("self_mute"))
	req.False(f.boolean("self_deaf"))
}

func TestClient_SendRequest_Not_Connected(t *testing.T) {
	req := require.New(t)
	c := New(Config{URL: "ws://127.0.0.1:1"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req.ErrorIs(c.SendRequest(&Frame{Op: OpSendMessage}, nil), ErrNotConnected)
	_, ok := c.Latency()
	req.False(ok)
}

func TestClient_FailPendingCallbacks(t *testing.T) {
	req := require.New(t)
	c := New(Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got := make(chan *Frame, 1)
	c.cbs[7] = func(f *Frame) bool { got <- f; return true }

	c.failPendingCallbacks(errConnectionLost)

	f := <-got
	req.Equal(uint32(7), f.Seq)
	req.EqualError(f.Err(), "gateway: connection lost")
	req.Empty(c.cbs)
}
