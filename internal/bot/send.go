package bot

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/EgorLis/mbot/internal/gateway"
)

// ---------- отправка ----------

// say/reply не возвращают ошибку: неудачная отправка только логируется.
func (bot *Bot) say(ctx context.Context, channelID, text string) {
	if err := bot.send.Wait(ctx); err != nil {
		return
	}
	if err := bot.platform.SendMessage(ctx, channelID, text); err != nil {
		bot.metrics.SendFailures.Inc()
		bot.log.WarnContext(ctx, "error sending message", "channel", channelID, "err", err)
	}
}

func (bot *Bot) reply(ctx context.Context, m *gateway.Message, text string) {
	if err := bot.send.Wait(ctx); err != nil {
		return
	}
	if err := bot.platform.Reply(ctx, m, text); err != nil {
		bot.metrics.SendFailures.Inc()
		bot.log.WarnContext(ctx, "error sending reply", "channel", m.ChannelID, "err", err)
	}
}

func (bot *Bot) sendFile(ctx context.Context, channelID, name string, data []byte) {
	if err := bot.send.Wait(ctx); err != nil {
		return
	}
	if err := bot.platform.SendFile(ctx, channelID, name, data); err != nil {
		bot.metrics.SendFailures.Inc()
		bot.log.WarnContext(ctx, "error sending file", "channel", channelID, "file", name, "err", err)
	}
}

// ---------- лимит команд на пользователя ----------

const (
	userCommandEvery = 2 * time.Second
	userCommandBurst = 5
	userIdleTTL      = 10 * time.Minute
)

type userBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

type userLimiter struct {
	mu    sync.Mutex
	clock clockwork.Clock
	users map[string]*userBucket
}

func newUserLimiter(clock clockwork.Clock) *userLimiter {
	return &userLimiter{clock: clock, users: make(map[string]*userBucket)}
}

// delay: 0, если команду можно выполнять; иначе сколько ждать.
func (l *userLimiter) delay(userID string) time.Duration {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, b := range l.users {
		if now.Sub(b.seen) > userIdleTTL {
			delete(l.users, id)
		}
	}

	b, ok := l.users[userID]
	if !ok {
		b = &userBucket{lim: rate.NewLimiter(rate.Every(userCommandEvery), userCommandBurst)}
		l.users[userID] = b
	}
	b.seen = now

	r := b.lim.ReserveN(now, 1)
	d := r.DelayFrom(now)
	if d > 0 {
		r.CancelAt(now)
	}
	return d
}

// ---------- имена и безопасный текст ----------

// nameCache: последние известные имена авторов, для say.
type nameCache struct {
	mu    sync.RWMutex
	names map[string]string
}

func newNameCache() *nameCache {
	return &nameCache{names: make(map[string]string)}
}

func (c *nameCache) remember(userID, name string) {
	if userID == "" || name == "" {
		return
	}
	c.mu.Lock()
	c.names[userID] = name
	c.mu.Unlock()
}

func (c *nameCache) lookup(userID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.names[userID]
	return n, ok
}

var (
	reUserMention = regexp.MustCompile(`<@!?(\d+)>`)
	reRoleMention = regexp.MustCompile(`<@&\d+>`)
)

// contentSafe гасит упоминания пользователей, ролей и @everyone/@here.
// Упоминания каналов остаются.
func contentSafe(s string, nameOf func(id string) (string, bool)) string {
	s = reRoleMention.ReplaceAllString(s, "@deleted-role")
	s = reUserMention.ReplaceAllStringFunc(s, func(mention string) string {
		id := reUserMention.FindStringSubmatch(mention)[1]
		if n, ok := nameOf(id); ok {
			return "@" + n
		}
		return "@invalid-user"
	})
	s = strings.ReplaceAll(s, "@everyone", "@\u200beveryone")
	s = strings.ReplaceAll(s, "@here", "@\u200bhere")
	return s
}
