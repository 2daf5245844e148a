package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/EgorLis/mbot/internal/config"
)

func (bot *Bot) cmdPing(ctx context.Context, c *call) error {
	bot.say(ctx, c.msg.ChannelID, "Pong! : )")
	return nil
}

func (bot *Bot) cmdSay(ctx context.Context, c *call) error {
	if c.rest == "" {
		return &usageError{cmd: bot.find(groupGeneral, "say")}
	}
	bot.say(ctx, c.msg.ChannelID, contentSafe(c.rest, bot.names.lookup))
	return nil
}

func (bot *Bot) cmdLatency(ctx context.Context, c *call) error {
	rtt, ok := bot.platform.Latency()
	if !ok {
		bot.reply(ctx, c.msg, "There is no latency sample yet")
		return nil
	}
	bot.reply(ctx, c.msg, fmt.Sprintf("Latency: %dms", rtt.Milliseconds()))
	return nil
}

func (bot *Bot) cmdPrefix(ctx context.Context, c *call) error {
	if len(c.args) != 1 || strings.TrimSpace(c.args[0]) == "" {
		return &usageError{cmd: bot.find(groupGeneral, "prefix")}
	}
	prefix := c.args[0]
	if err := bot.cfg.Update(func(bc *config.BotConfig) { bc.Prefix = prefix }); err != nil {
		bot.reply(ctx, c.msg, "Could not save the new prefix.")
		return fmt.Errorf("save prefix: %w", err)
	}
	bot.say(ctx, c.msg.ChannelID, fmt.Sprintf("Prefix set to `%s`", prefix))
	return nil
}

func (bot *Bot) find(group, name string) *command {
	for _, c := range bot.commands {
		if c.group == group && c.name == name {
			return c
		}
	}
	return nil
}
