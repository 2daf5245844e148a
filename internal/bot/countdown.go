package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// за сколько от начала секунды в vtime должна начаться фраза
const spokenTick = 950 * time.Millisecond

const (
	msgSecondsInvalid = "Supplied argument for seconds must be present and an integer number above zero."
	msgSecondsLow     = "Supplied argument for seconds is two low!"
	msgSecondsHigh    = "Supplied argument for seconds is above max of %d!"
)

var errBadSeconds = errors.New("bad countdown seconds")

// parseSeconds возвращает текст для пользователя, если аргумент не подходит.
func parseSeconds(args []string, limit int) (int, string) {
	if len(args) == 0 {
		return 0, msgSecondsInvalid
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, msgSecondsInvalid
	}
	if n < 0 {
		return 0, msgSecondsLow
	}
	if n > limit {
		return 0, fmt.Sprintf(msgSecondsHigh, limit)
	}
	return n, ""
}

// clockLabel: 3725 → "1h2m5s"
func clockLabel(n int) string {
	return fmt.Sprintf("%dh%dm%ds", n/3600, n%3600/60, n%60)
}

// spokenLabel: 125 → "2m5s", 42 → "42"
func spokenLabel(n int) string {
	if n >= 60 {
		return fmt.Sprintf("%dm%ds", n/60, n%60)
	}
	return strconv.Itoa(n)
}

func (bot *Bot) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-bot.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (bot *Bot) cmdTime(ctx context.Context, c *call) error {
	n, problem := parseSeconds(c.args, c.cfg.CountdownMaxSeconds)
	if problem != "" {
		bot.say(ctx, c.msg.ChannelID, problem)
		return fmt.Errorf("%w: %s", errBadSeconds, problem)
	}

	for ; n >= 0; n-- {
		bot.say(ctx, c.msg.ChannelID, fmt.Sprintf("COUNTDOWN: %d sec(s) - (%s)", n, clockLabel(n)))
		if n == 0 {
			bot.boom(ctx, c.msg.ChannelID, c.cfg.BoomFile)
			return nil
		}
		if err := bot.sleep(ctx, time.Second); err != nil {
			return err
		}
	}
	return nil
}

func (bot *Bot) cmdVTime(ctx context.Context, c *call) error {
	n, problem := parseSeconds(c.args, c.cfg.CountdownMaxSeconds)
	if problem != "" {
		bot.say(ctx, c.msg.ChannelID, problem)
		return fmt.Errorf("%w: %s", errBadSeconds, problem)
	}
	guild := c.msg.GuildID
	if _, ok := bot.voice.Get(guild); !ok {
		bot.reply(ctx, c.msg, "Not in a voice channel")
		return nil
	}

	for ; n >= 0; n-- {
		started := bot.clock.Now()
		audio, err := bot.speak(ctx, spokenLabel(n))
		if err != nil {
			bot.reply(ctx, c.msg, "Unable to create the vocalization.")
			return err
		}
		// фраза звучит в начале следующей секунды
		if err := bot.sleep(ctx, spokenTick-bot.clock.Since(started)); err != nil {
			return err
		}
		if err := bot.voice.Play(ctx, guild, audio); err != nil {
			return fmt.Errorf("play %d: %w", n, err)
		}
	}
	return nil
}

// boom: картинка в конце отсчёта; "none" или пустое имя отключают её.
func (bot *Bot) boom(ctx context.Context, channelID, file string) {
	name := strings.TrimSpace(file)
	if name == "" || strings.EqualFold(name, "none") {
		return
	}
	path := filepath.Join(bot.resources, name)
	data, err := os.ReadFile(path)
	if err != nil {
		bot.log.WarnContext(ctx, "boom file", "path", path, "err", err)
		return
	}
	bot.sendFile(ctx, channelID, filepath.Base(path), data)
}
