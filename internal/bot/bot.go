package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/EgorLis/mbot/internal/config"
	"github.com/EgorLis/mbot/internal/gateway"
	"github.com/EgorLis/mbot/internal/metrics"
	"github.com/EgorLis/mbot/internal/rollcall"
	"github.com/EgorLis/mbot/internal/tts"
	"github.com/EgorLis/mbot/internal/voice"
)

// Platform: то, что боту нужно от чат-платформы (реализует gateway.Client).
type Platform interface {
	voice.Transport
	SendMessage(ctx context.Context, channelID, content string) error
	Reply(ctx context.Context, m *gateway.Message, content string) error
	SendFile(ctx context.Context, channelID, name string, data []byte) error
	Self() *gateway.Ready
	Latency() (time.Duration, bool)
}

type Deps struct {
	Platform  Platform
	Config    *config.Store
	RollCalls *rollcall.Registry // nil → новый реестр
	Speaker   tts.Speaker        // nil → голосовые команды отвечают ошибкой озвучки
	Metrics   *metrics.Metrics   // nil → метрики в отдельный реестр
	Clock     clockwork.Clock    // nil → реальные часы
	Resources string             // каталог с ресурсами (boom.gif и т.п.)
	Log       *slog.Logger
}

type Bot struct {
	platform  Platform
	gw        *gateway.Client
	cfg       *config.Store
	rollcalls *rollcall.Registry
	voice     *voice.Manager
	states    *voice.States
	speaker   tts.Speaker
	metrics   *metrics.Metrics
	clock     clockwork.Clock
	resources string
	log       *slog.Logger

	send     *rate.Limiter
	limits   *userLimiter
	names    *nameCache
	commands []*command

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(d Deps) *Bot {
	if d.RollCalls == nil {
		d.RollCalls = rollcall.NewRegistry()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(prometheus.NewRegistry())
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	cfg := d.Config.Get()

	bot := &Bot{
		platform:  d.Platform,
		cfg:       d.Config,
		rollcalls: d.RollCalls,
		voice:     voice.NewManager(d.Platform),
		states:    voice.NewStates(),
		speaker:   d.Speaker,
		metrics:   d.Metrics,
		clock:     d.Clock,
		resources: d.Resources,
		log:       d.Log,
		send:      rate.NewLimiter(rate.Limit(cfg.SendRatePerSecond), cfg.SendBurst),
		limits:    newUserLimiter(d.Clock),
		names:     newNameCache(),
	}
	bot.commands = bot.buildCommands()
	return bot
}

// AttachGateway подписывает бота на события клиента шлюза; Start его подключит.
func (bot *Bot) AttachGateway(c *gateway.Client) {
	bot.gw = c

	c.OnConnecting = func() { bot.log.Info("gateway connecting") }
	c.OnConnected = func() {
		bot.metrics.GatewayConnects.Inc()
		bot.log.Info("gateway connected")
	}
	c.OnReady = func(r *gateway.Ready) {
		bot.log.Info("connected as", "user", r.UserName, "id", r.UserID)
	}
	c.OnDisconnected = func() { bot.log.Warn("gateway disconnected") }
	c.OnError = func(err error) {
		bot.metrics.GatewayErrors.Inc()
		bot.log.Error("gateway error", "err", err)
	}
	c.OnMessage = bot.HandleMessage
	c.OnVoiceState = bot.HandleVoiceState
}

func (bot *Bot) Start(ctx context.Context) error {
	if bot == nil {
		return errors.New("бот не инициализирован")
	}
	bot.mu.Lock()
	if bot.ctx != nil {
		bot.mu.Unlock()
		return errors.New("уже запущен")
	}
	bot.ctx, bot.cancel = context.WithCancel(ctx)
	runCtx := bot.ctx
	bot.mu.Unlock()

	if bot.gw != nil {
		if err := bot.gw.Connect(runCtx); err != nil {
			bot.Stop()
			return err
		}
	}
	return nil
}

// Stop отменяет выполняющиеся команды и ждёт их завершения. Повторный вызов ничего не делает.
func (bot *Bot) Stop() {
	bot.mu.Lock()
	cancel := bot.cancel
	bot.ctx, bot.cancel = nil, nil
	bot.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	bot.wg.Wait()
	if bot.gw != nil {
		bot.gw.Disconnect()
	}
}

func (bot *Bot) RollCalls() *rollcall.Registry { return bot.rollcalls }

func (bot *Bot) HandleVoiceState(vs *gateway.VoiceState) {
	bot.states.Update(vs.GuildID, vs.UserID, vs.ChannelID)
}

// HandleMessage: точка входа для MESSAGE_CREATE. Каждая команда выполняется
// в своей горутине: отсчёт на час не должен блокировать остальных.
func (bot *Bot) HandleMessage(m *gateway.Message) {
	if m == nil || m.AuthorBot {
		return
	}
	if self := bot.platform.Self(); self != nil && m.AuthorID == self.UserID {
		return
	}
	bot.names.remember(m.AuthorID, m.AuthorName)

	cfg := bot.cfg.Get()
	body, ok := bot.stripTrigger(m.Content, cfg)
	if !ok {
		if m.InGuild() {
			bot.log.Info("message",
				"guild_id", m.GuildID, "guild", m.GuildName,
				"user_id", m.AuthorID, "user", m.AuthorName,
				"content", m.Content)
		}
		return
	}

	bot.mu.Lock()
	ctx := bot.ctx
	if ctx == nil {
		bot.mu.Unlock()
		return
	}
	bot.wg.Add(1)
	bot.mu.Unlock()

	go func() {
		defer bot.wg.Done()
		bot.dispatch(ctx, m, body, cfg)
	}()
}

// stripTrigger отрезает префикс или упоминание бота в начале сообщения.
func (bot *Bot) stripTrigger(content string, cfg config.BotConfig) (string, bool) {
	text := strings.TrimSpace(content)
	if self := bot.platform.Self(); self != nil {
		for _, mention := range []string{"<@" + self.UserID + ">", "<@!" + self.UserID + ">"} {
			if rest, ok := strings.CutPrefix(text, mention); ok {
				return strings.TrimSpace(rest), true
			}
		}
	}
	if rest, ok := strings.CutPrefix(text, cfg.Prefix); ok {
		return rest, true
	}
	return "", false
}
