package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/EgorLis/mbot/internal/config"
	"github.com/EgorLis/mbot/internal/gateway"
	"github.com/EgorLis/mbot/internal/logging"
)

const (
	groupGeneral = "General"
	groupVoice   = "Voice"
	groupRally   = "Rally"
)

// сплит с поддержкой кавычек: say "два слова"
var reArg = regexp.MustCompile(`"([^"]*)"|(\S+)`)

type command struct {
	name        string
	group       string
	description string
	usage       string // аргументы, без префикса и имени
	guildOnly   bool
	ownerOnly   bool
	run         func(ctx context.Context, c *call) error
}

// call: одно обращение к команде.
type call struct {
	msg  *gateway.Message
	args []string
	rest string // сырой текст после имени команды
	cfg  config.BotConfig
}

// usageError: неверные аргументы; диспетчер ответит подсказкой.
type usageError struct{ cmd *command }

func (e *usageError) Error() string { return "usage: " + e.cmd.name + " " + e.cmd.usage }

func (bot *Bot) buildCommands() []*command {
	return []*command{
		{name: "ping", group: groupGeneral, description: "Checks that the bot is alive.", guildOnly: true, run: bot.cmdPing},
		{name: "say", group: groupGeneral, description: "Repeats the text with mentions neutralised.", usage: "<text>", run: bot.cmdSay},
		{name: "time", group: groupGeneral, description: "Counts down the given seconds in the channel.", usage: "<seconds>", run: bot.cmdTime},
		{name: "latency", group: groupGeneral, description: "Shows the gateway heartbeat round trip.", run: bot.cmdLatency},
		{name: "prefix", group: groupGeneral, description: "Changes the command prefix.", usage: "<prefix>", ownerOnly: true, run: bot.cmdPrefix},
		{name: "help", group: groupGeneral, description: "Lists commands or describes one.", usage: "[command]", run: bot.cmdHelp},

		{name: "join", group: groupVoice, description: "Joins your voice channel.", guildOnly: true, run: bot.cmdJoin},
		{name: "leave", group: groupVoice, description: "Leaves the voice channel.", guildOnly: true, run: bot.cmdLeave},
		{name: "mute", group: groupVoice, description: "Mutes the bot.", guildOnly: true, run: bot.cmdMute},
		{name: "unmute", group: groupVoice, description: "Unmutes the bot.", guildOnly: true, run: bot.cmdUnmute},
		{name: "deafen", group: groupVoice, description: "Deafens the bot.", guildOnly: true, run: bot.cmdDeafen},
		{name: "undeafen", group: groupVoice, description: "Undeafens the bot.", guildOnly: true, run: bot.cmdUndeafen},
		{name: "vsay", group: groupVoice, description: "Speaks the text in the voice channel.", usage: "<text>", guildOnly: true, run: bot.cmdVSay},
		{name: "vtime", group: groupVoice, description: "Counts down the given seconds out loud.", usage: "<seconds>", guildOnly: true, run: bot.cmdVTime},

		{name: "start", group: groupRally, description: "Starts a roll call for N players.", usage: "<players>", guildOnly: true, run: bot.cmdRollCallStart},
		{name: "ready", group: groupRally, description: "Joins the running roll call.", guildOnly: true, run: bot.cmdRollCallReady},
		{name: "cancel", group: groupRally, description: "Cancels the running roll call.", guildOnly: true, run: bot.cmdRollCallCancel},
		{name: "status", group: groupRally, description: "Shows the running roll call.", guildOnly: true, run: bot.cmdRollCallStatus},
	}
}

// lookup: "rc start 5" → команда start группы Rally, args ["5"].
func (bot *Bot) lookup(fields []string, cfg config.BotConfig) (*command, []string, string) {
	name := bot.fold(fields[0], cfg)
	args := fields[1:]

	group := groupGeneral
	if name == bot.fold(cfg.RallyPrefix, cfg) {
		if len(args) == 0 {
			return nil, nil, cfg.RallyPrefix
		}
		group = groupRally
		name, args = bot.fold(args[0], cfg), args[1:]
	}

	cmd, ok := lo.Find(bot.commands, func(c *command) bool {
		if group == groupRally {
			return c.group == groupRally && c.name == name
		}
		return c.group != groupRally && c.name == name
	})
	if !ok {
		return nil, nil, name
	}
	return cmd, args, name
}

func (bot *Bot) fold(s string, cfg config.BotConfig) string {
	if cfg.CaseInsensitive {
		return strings.ToLower(s)
	}
	return s
}

func (bot *Bot) dispatch(ctx context.Context, m *gateway.Message, body string, cfg config.BotConfig) {
	fields := splitArgs(body)
	if len(fields) == 0 {
		return
	}
	cmd, args, name := bot.lookup(fields, cfg)
	if cmd == nil {
		bot.log.Info("could not find command", "command", name, "user", m.AuthorName)
		return
	}

	if wait := bot.limits.delay(m.AuthorID); wait > 0 {
		bot.metrics.Commands.WithLabelValues(cmd.name, "ratelimited").Inc()
		bot.say(ctx, m.ChannelID, fmt.Sprintf("Try this again in %d seconds.", int(math.Ceil(wait.Seconds()))))
		return
	}
	if cmd.guildOnly && !m.InGuild() {
		bot.say(ctx, m.ChannelID, "Groups and DMs not supported")
		return
	}
	if cmd.ownerOnly && !lo.Contains(cfg.Owners, m.AuthorID) {
		bot.metrics.Commands.WithLabelValues(cmd.name, "denied").Inc()
		bot.reply(ctx, m, "Only bot owners can do that.")
		return
	}

	ctx = logging.WithCorrelationID(ctx, logging.NewCorrelationID())
	bot.log.InfoContext(ctx, "got command", "command", cmd.name, "user", m.AuthorName, "user_id", m.AuthorID)

	start := bot.clock.Now()
	err := cmd.run(ctx, &call{msg: m, args: args, rest: restAfter(body, cmd), cfg: cfg})
	bot.metrics.CommandDuration.WithLabelValues(cmd.name).Observe(bot.clock.Since(start).Seconds())

	var ue *usageError
	switch {
	case err == nil:
		bot.metrics.Commands.WithLabelValues(cmd.name, "ok").Inc()
		bot.log.InfoContext(ctx, "finished command", "command", cmd.name)
	case errors.As(err, &ue):
		bot.metrics.Commands.WithLabelValues(cmd.name, "usage").Inc()
		prefix := cfg.Prefix
		if ue.cmd.group == groupRally {
			prefix += cfg.RallyPrefix + " "
		}
		bot.say(ctx, m.ChannelID, "usage: "+prefix+strings.TrimSpace(ue.cmd.name+" "+ue.cmd.usage))
	default:
		bot.metrics.Commands.WithLabelValues(cmd.name, "error").Inc()
		bot.log.WarnContext(ctx, "command returned error", "command", cmd.name, "err", err)
	}
}

// restAfter: текст после имени команды как есть (для say/vsay кавычки не трогаем).
func restAfter(body string, cmd *command) string {
	rest := strings.TrimSpace(body)
	skip := 1
	if cmd.group == groupRally {
		skip = 2
	}
	for range skip {
		i := strings.IndexFunc(rest, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' })
		if i < 0 {
			return ""
		}
		rest = strings.TrimSpace(rest[i:])
	}
	return rest
}

func splitArgs(s string) []string {
	var out []string
	for _, m := range reArg.FindAllStringSubmatch(s, -1) {
		if m[1] != "" {
			out = append(out, m[1])
		} else {
			out = append(out, m[2])
		}
	}
	return out
}
