package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/EgorLis/mbot/internal/tts"
	"github.com/EgorLis/mbot/internal/voice"
)

func (bot *Bot) speak(ctx context.Context, text string) ([]byte, error) {
	if bot.speaker == nil {
		return nil, tts.ErrUnavailable
	}
	return bot.speaker.Speak(ctx, text)
}

func (bot *Bot) cmdJoin(ctx context.Context, c *call) error {
	channel, ok := bot.states.ChannelOf(c.msg.GuildID, c.msg.AuthorID)
	if !ok {
		bot.reply(ctx, c.msg, "Not in a voice channel")
		return nil
	}
	if err := bot.voice.Join(ctx, c.msg.GuildID, channel); err != nil {
		bot.say(ctx, c.msg.ChannelID, "Error joining the channel")
		return err
	}
	bot.say(ctx, c.msg.ChannelID, fmt.Sprintf("Joined <#%s>", channel))
	return nil
}

func (bot *Bot) cmdLeave(ctx context.Context, c *call) error {
	err := bot.voice.Leave(ctx, c.msg.GuildID)
	switch {
	case errors.Is(err, voice.ErrNotInVoice):
		bot.reply(ctx, c.msg, "Not in a voice channel")
		return nil
	case err != nil:
		bot.say(ctx, c.msg.ChannelID, fmt.Sprintf("Failed: %v", err))
		return err
	}
	bot.say(ctx, c.msg.ChannelID, "Left voice channel")
	return nil
}

func (bot *Bot) cmdMute(ctx context.Context, c *call) error {
	changed, err := bot.voice.SetMute(ctx, c.msg.GuildID, true)
	switch {
	case errors.Is(err, voice.ErrNotInVoice):
		bot.reply(ctx, c.msg, "Not in a voice channel")
		return nil
	case err != nil:
		return err
	case !changed:
		bot.say(ctx, c.msg.ChannelID, "Already muted")
		return nil
	}
	bot.say(ctx, c.msg.ChannelID, "Now muted")
	return nil
}

func (bot *Bot) cmdUnmute(ctx context.Context, c *call) error {
	_, err := bot.voice.SetMute(ctx, c.msg.GuildID, false)
	switch {
	case errors.Is(err, voice.ErrNotInVoice):
		bot.say(ctx, c.msg.ChannelID, "Not in a voice channel to unmute in")
		return nil
	case err != nil:
		return err
	}
	bot.say(ctx, c.msg.ChannelID, "Unmuted")
	return nil
}

func (bot *Bot) cmdDeafen(ctx context.Context, c *call) error {
	changed, err := bot.voice.SetDeaf(ctx, c.msg.GuildID, true)
	switch {
	case errors.Is(err, voice.ErrNotInVoice):
		bot.reply(ctx, c.msg, "Not in a voice channel")
		return nil
	case err != nil:
		return err
	case !changed:
		bot.say(ctx, c.msg.ChannelID, "Already deafened")
		return nil
	}
	bot.say(ctx, c.msg.ChannelID, "Deafened")
	return nil
}

func (bot *Bot) cmdUndeafen(ctx context.Context, c *call) error {
	_, err := bot.voice.SetDeaf(ctx, c.msg.GuildID, false)
	switch {
	case errors.Is(err, voice.ErrNotInVoice):
		bot.say(ctx, c.msg.ChannelID, "Not in a voice channel to undeafen in")
		return nil
	case err != nil:
		return err
	}
	bot.say(ctx, c.msg.ChannelID, "Undeafened")
	return nil
}

func (bot *Bot) cmdVSay(ctx context.Context, c *call) error {
	if c.rest == "" {
		return &usageError{cmd: bot.find(groupVoice, "vsay")}
	}
	if _, ok := bot.voice.Get(c.msg.GuildID); !ok {
		bot.reply(ctx, c.msg, "Not in a voice channel")
		return nil
	}
	audio, err := bot.speak(ctx, c.rest)
	if err != nil {
		bot.reply(ctx, c.msg, "Unable to create the vocalization.")
		return err
	}
	return bot.voice.Play(ctx, c.msg.GuildID, audio)
}
