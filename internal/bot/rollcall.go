package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/EgorLis/mbot/internal/rollcall"
)

func mention(userID string) string { return "<@" + userID + ">" }

func (bot *Bot) observe(op string, out rollcall.Outcome) {
	bot.metrics.RollCalls.WithLabelValues(op, out.Kind.String()).Inc()
}

func (bot *Bot) cmdRollCallStart(ctx context.Context, c *call) error {
	if len(c.args) != 1 {
		return &usageError{cmd: bot.find(groupRally, "start")}
	}
	n, err := strconv.Atoi(c.args[0])
	if err != nil {
		return &usageError{cmd: bot.find(groupRally, "start")}
	}

	g := rollcall.GroupID(c.msg.GuildID)
	out, err := bot.rollcalls.Start(g, rollcall.ParticipantID(c.msg.AuthorID), n)
	if errors.Is(err, rollcall.ErrInvalidRequestedCount) {
		bot.say(ctx, c.msg.ChannelID, "Supplied argument for players must be a positive integer.")
		return nil
	}
	if err != nil {
		return err
	}
	bot.observe("start", out)

	switch out.Kind {
	case rollcall.KindAlreadyActive:
		bot.say(ctx, c.msg.ChannelID, "A Roll-Call is currently running. You need to cancel that one first.")
	case rollcall.KindStarted:
		bot.say(ctx, c.msg.ChannelID, fmt.Sprintf(
			"@here, A Roll-Call was activated by %s!\nIt is requested that %d players join it! Be the first.",
			mention(c.msg.AuthorID), n))
	}
	return nil
}

func (bot *Bot) cmdRollCallReady(ctx context.Context, c *call) error {
	g := rollcall.GroupID(c.msg.GuildID)
	out := bot.rollcalls.Join(g, rollcall.ParticipantID(c.msg.AuthorID))
	bot.observe("join", out)

	switch out.Kind {
	case rollcall.KindNoActiveSession:
		bot.reply(ctx, c.msg, "There's no currently active Roll Call to join.")
	case rollcall.KindAlreadyJoined:
		bot.reply(ctx, c.msg, "You already joined. relax!")
	case rollcall.KindJoined:
		bot.reply(ctx, c.msg, "You're ready!!")
		if out.Completed {
			bot.say(ctx, c.msg.ChannelID, "@here, Roll Call complete!!! BURNNNNN!!!!")
		} else {
			bot.say(ctx, c.msg.ChannelID, fmt.Sprintf("@here, %d players left!", out.Remaining))
		}
	}
	return nil
}

func (bot *Bot) cmdRollCallCancel(ctx context.Context, c *call) error {
	out := bot.rollcalls.Cancel(rollcall.GroupID(c.msg.GuildID))
	bot.observe("cancel", out)

	if out.Kind == rollcall.KindCancelled {
		bot.say(ctx, c.msg.ChannelID, "@here Roll-Call cancelled. :'(")
		return nil
	}
	bot.say(ctx, c.msg.ChannelID, "There's no active Roll-Call. Start one first")
	return nil
}

func (bot *Bot) cmdRollCallStatus(ctx context.Context, c *call) error {
	snap, ok := bot.rollcalls.Status(rollcall.GroupID(c.msg.GuildID))
	if !ok {
		bot.say(ctx, c.msg.ChannelID, "There's no active Roll-Call. Start one first")
		return nil
	}
	bot.say(ctx, c.msg.ChannelID, renderStatus(snap))
	return nil
}

// renderStatus: участники по возрастанию id, чтобы вывод был стабильным.
func renderStatus(s rollcall.Snapshot) string {
	joined := slices.Clone(s.Joined)
	slices.Sort(joined)

	var b strings.Builder
	b.WriteString("**Roll Call Status**\n")
	fmt.Fprintf(&b, "*Started by:* %s\n", mention(string(s.Initiator)))
	fmt.Fprintf(&b, "*Players Requested:* %d\n", s.Requested)
	fmt.Fprintf(&b, "*Players Joined:* %d\n", len(joined))
	for _, p := range joined {
		fmt.Fprintf(&b, "%s \n", mention(string(p)))
	}
	fmt.Fprintf(&b, "*Players missing:* %d\n", s.Remaining)
	b.WriteString("@here")
	return b.String()
}
