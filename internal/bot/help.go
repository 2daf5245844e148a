package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/EgorLis/mbot/internal/config"
)

// максимальное расстояние Левенштейна для подсказки "Did you mean"
const maxSuggestDistance = 3

func (bot *Bot) cmdHelp(ctx context.Context, c *call) error {
	if len(c.args) == 0 {
		bot.say(ctx, c.msg.ChannelID, bot.helpIndex(c.cfg))
		return nil
	}

	cmd, _, _ := bot.lookup(c.args, c.cfg)
	if cmd != nil {
		bot.say(ctx, c.msg.ChannelID, helpFor(cmd, c.cfg))
		return nil
	}

	asked := strings.Join(c.args, " ")
	text := fmt.Sprintf("Could not find command `%s`.", asked)
	if s, ok := bot.suggest(bot.fold(asked, c.cfg), c.cfg); ok {
		text += fmt.Sprintf(" Did you mean `%s`?", s)
	}
	bot.say(ctx, c.msg.ChannelID, text)
	return nil
}

func (bot *Bot) helpIndex(cfg config.BotConfig) string {
	byGroup := lo.GroupBy(bot.commands, func(c *command) string { return c.group })

	var b strings.Builder
	for _, group := range []string{groupGeneral, groupVoice, groupRally} {
		fmt.Fprintf(&b, "**%s**", group)
		if group == groupRally {
			fmt.Fprintf(&b, " (prefix `%s`)", cfg.RallyPrefix)
		}
		b.WriteString("\n")
		for _, c := range byGroup[group] {
			fmt.Fprintf(&b, "  `%s`: %s\n", fullName(c, cfg), c.description)
		}
	}
	fmt.Fprintf(&b, "Type `%shelp <command>` for more info on a command.", cfg.Prefix)
	return b.String()
}

func helpFor(c *command, cfg config.BotConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n%s\n", fullName(c, cfg), c.description)
	fmt.Fprintf(&b, "Usage: `%s%s`\n", cfg.Prefix, strings.TrimSpace(fullName(c, cfg)+" "+c.usage))
	fmt.Fprintf(&b, "Group: %s", c.group)
	if c.guildOnly {
		b.WriteString("\nOnly in servers")
	}
	if c.ownerOnly {
		b.WriteString("\nOnly for bot owners")
	}
	return b.String()
}

func fullName(c *command, cfg config.BotConfig) string {
	if c.group == groupRally {
		return cfg.RallyPrefix + " " + c.name
	}
	return c.name
}

// suggest: ближайшее имя команды, если оно не дальше maxSuggestDistance.
func (bot *Bot) suggest(name string, cfg config.BotConfig) (string, bool) {
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range bot.commands {
		full := fullName(c, cfg)
		if d := levenshtein(name, bot.fold(full, cfg)); d < bestDist {
			best, bestDist = full, d
		}
	}
	return best, bestDist <= maxSuggestDistance
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
