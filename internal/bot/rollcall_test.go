package bot

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/mbot/internal/rollcall"
)

func TestRollCall_Commands_Full_Cycle(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	// Given
	req.Equal([]outgoing{reply("There's no currently active Roll Call to join.")}, env.handle(guildMsg("1", ".rc ready")))
	req.Equal([]outgoing{say("There's no active Roll-Call. Start one first")}, env.handle(guildMsg("1", ".rc status")))

	// When
	req.Equal([]outgoing{say("@here, A Roll-Call was activated by <@1>!\nIt is requested that 2 players join it! Be the first.")},
		env.handle(guildMsg("1", ".rc start 2")))
	req.Equal([]outgoing{say("A Roll-Call is currently running. You need to cancel that one first.")},
		env.handle(guildMsg("2", ".RC START 5")))

	req.Equal([]outgoing{reply("You're ready!!"), say("@here, 1 players left!")}, env.handle(guildMsg("3", ".rc ready")))
	req.Equal([]outgoing{reply("You already joined. relax!")}, env.handle(guildMsg("3", ".rc ready")))

	out := env.handle(guildMsg("2", ".rc status"))
	req.Equal([]outgoing{say("**Roll Call Status**\n*Started by:* <@1>\n*Players Requested:* 2\n*Players Joined:* 1\n<@3> \n*Players missing:* 1\n@here")}, out)

	req.Equal([]outgoing{reply("You're ready!!"), say("@here, Roll Call complete!!! BURNNNNN!!!!")}, env.handle(guildMsg("4", ".rc ready")))

	// Then
	req.False(env.bot.RollCalls().HasActive("20"))
	req.Equal(2.0, testutil.ToFloat64(env.metrics.RollCalls.WithLabelValues("join", rollcall.KindJoined.String())))
	req.Equal(1.0, testutil.ToFloat64(env.metrics.RollCalls.WithLabelValues("start", rollcall.KindAlreadyActive.String())))
}

func TestRollCall_Commands_Cancel(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	req.Equal([]outgoing{say("There's no active Roll-Call. Start one first")}, env.handle(guildMsg("1", ".rc cancel")))

	env.handle(guildMsg("1", ".rc start 3"))
	req.Equal([]outgoing{say("@here Roll-Call cancelled. :'(")}, env.handle(guildMsg("2", ".rc cancel")))
	req.False(env.bot.RollCalls().HasActive("20"))
}

func TestRollCall_Commands_Bad_Count(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	req.Equal([]outgoing{say("usage: .rc start <players>")}, env.handle(guildMsg("1", ".rc start")))
	req.Equal([]outgoing{say("usage: .rc start <players>")}, env.handle(guildMsg("1", ".rc start many")))
	req.Equal([]outgoing{say("Supplied argument for players must be a positive integer.")}, env.handle(guildMsg("1", ".rc start 0")))
	req.False(env.bot.RollCalls().HasActive("20"))
}

func TestRenderStatus_Sorted(t *testing.T) {
	got := renderStatus(rollcall.Snapshot{
		Initiator: "1",
		Requested: 5,
		Joined:    []rollcall.ParticipantID{"9", "3", "5"},
		Remaining: 2,
	})
	require.Equal(t, "**Roll Call Status**\n*Started by:* <@1>\n*Players Requested:* 5\n*Players Joined:* 3\n<@3> \n<@5> \n<@9> \n*Players missing:* 2\n@here", got)
}
