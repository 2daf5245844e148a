package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/mbot/internal/config"
	"github.com/EgorLis/mbot/internal/gateway"
	"github.com/EgorLis/mbot/internal/logging"
	"github.com/EgorLis/mbot/internal/metrics"
	"github.com/EgorLis/mbot/internal/tts"
)

type outgoing struct {
	kind    string // say | reply | file
	channel string
	text    string
}

type fakePlatform struct {
	mu       sync.Mutex
	out      []outgoing
	voiceOps []string
	audio    []string
	latency  time.Duration
	voiceErr error
}

func (f *fakePlatform) push(o outgoing) {
	f.mu.Lock()
	f.out = append(f.out, o)
	f.mu.Unlock()
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	f.push(outgoing{kind: "say", channel: channelID, text: content})
	return nil
}

func (f *fakePlatform) Reply(_ context.Context, m *gateway.Message, content string) error {
	f.push(outgoing{kind: "reply", channel: m.ChannelID, text: content})
	return nil
}

func (f *fakePlatform) SendFile(_ context.Context, channelID, name string, _ []byte) error {
	f.push(outgoing{kind: "file", channel: channelID, text: name})
	return nil
}

func (f *fakePlatform) Self() *gateway.Ready { return &gateway.Ready{UserID: "999", UserName: "m-bot"} }

func (f *fakePlatform) Latency() (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latency, f.latency > 0
}

func (f *fakePlatform) voiceOp(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voiceOps = append(f.voiceOps, op)
	return f.voiceErr
}

func (f *fakePlatform) VoiceConnect(_ context.Context, guildID, channelID string) error {
	return f.voiceOp("connect:" + guildID + ":" + channelID)
}

func (f *fakePlatform) VoiceDisconnect(_ context.Context, guildID string) error {
	return f.voiceOp("disconnect:" + guildID)
}

func (f *fakePlatform) VoiceState(_ context.Context, guildID string, mute, deaf bool) error {
	op := "state:" + guildID
	if mute {
		op += ":mute"
	}
	if deaf {
		op += ":deaf"
	}
	return f.voiceOp(op)
}

func (f *fakePlatform) VoiceAudio(_ context.Context, guildID string, audio []byte) error {
	f.mu.Lock()
	f.audio = append(f.audio, string(audio))
	f.mu.Unlock()
	return f.voiceOp("audio:" + guildID)
}

// taken возвращает накопленные исходящие и очищает буфер.
func (f *fakePlatform) taken() []outgoing {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.out
	f.out = nil
	return out
}

func (f *fakePlatform) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.voiceOps...)
}

// fakeSpeaker "озвучивает" текст как WAV-заглушку с этим текстом.
type fakeSpeaker struct {
	mu    sync.Mutex
	said  []string
	fails bool
}

func (s *fakeSpeaker) Speak(_ context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails {
		return nil, errors.Join(tts.ErrUnavailable, errors.New("boom"))
	}
	s.said = append(s.said, text)
	return []byte("RIFF" + text), nil
}

type testEnv struct {
	bot      *Bot
	platform *fakePlatform
	speaker  *fakeSpeaker
	clock    *clockwork.FakeClock
	store    *config.Store
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	req := require.New(t)

	dir := t.TempDir()
	req.NoError(os.MkdirAll(filepath.Join(dir, "gif"), 0o755))
	req.NoError(os.WriteFile(filepath.Join(dir, "gif", "boom.gif"), []byte("GIF89a"), 0o644))

	store := config.NewStore(filepath.Join(dir, "botconfig.yaml"))
	req.NoError(store.Load())
	req.NoError(store.Update(func(c *config.BotConfig) {
		c.Owners = []string{"1"}
		c.SendRatePerSecond = 1000
		c.SendBurst = 100
	}))

	env := &testEnv{
		platform: &fakePlatform{},
		speaker:  &fakeSpeaker{},
		clock:    clockwork.NewFakeClock(),
		store:    store,
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	env.bot = New(Deps{
		Platform:  env.platform,
		Config:    store,
		Speaker:   env.speaker,
		Metrics:   env.metrics,
		Clock:     env.clock,
		Resources: dir,
		Log:       logging.Discard(),
	})
	req.NoError(env.bot.Start(context.Background()))
	t.Cleanup(env.bot.Stop)
	return env
}

// handle: синхронно: ждём завершения команды.
func (e *testEnv) handle(m *gateway.Message) []outgoing {
	e.bot.HandleMessage(m)
	e.bot.wg.Wait()
	return e.platform.taken()
}

func guildMsg(author, content string) *gateway.Message {
	return &gateway.Message{
		ID:         "m-" + author,
		ChannelID:  "10",
		GuildID:    "20",
		GuildName:  "guild",
		AuthorID:   author,
		AuthorName: "user" + author,
		Content:    content,
	}
}

func say(text string) outgoing   { return outgoing{kind: "say", channel: "10", text: text} }
func reply(text string) outgoing { return outgoing{kind: "reply", channel: "10", text: text} }
