package gateway

import (
	"context"
	"fmt"
	"time"
)

// ========================= high-level API =========================

const requestTimeout = 10 * time.Second

func (c *Client) request(ctx context.Context, op Op, data map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	_, err := c.SendRequestAsync(ctx, &Frame{Op: op, Data: data})
	return err
}

func (c *Client) SendMessage(ctx context.Context, channelID, content string) error {
	return c.request(ctx, OpSendMessage, map[string]any{
		"channel_id": channelID,
		"content":    content,
	})
}

// Reply: ответ на сообщение с упоминанием автора.
func (c *Client) Reply(ctx context.Context, m *Message, content string) error {
	return c.request(ctx, OpSendMessage, map[string]any{
		"channel_id": m.ChannelID,
		"content":    fmt.Sprintf("<@%s>: %s", m.AuthorID, content),
		"reply_to":   m.ID,
	})
}

func (c *Client) SendFile(ctx context.Context, channelID, name string, data []byte) error {
	return c.request(ctx, OpSendFile, map[string]any{
		"channel_id": channelID,
		"name":       name,
		"data":       data,
	})
}

func (c *Client) VoiceConnect(ctx context.Context, guildID, channelID string) error {
	return c.request(ctx, OpVoiceConnect, map[string]any{
		"guild_id":   guildID,
		"channel_id": channelID,
	})
}

func (c *Client) VoiceDisconnect(ctx context.Context, guildID string) error {
	return c.request(ctx, OpVoiceDisconnect, map[string]any{
		"guild_id": guildID,
	})
}

func (c *Client) VoiceState(ctx context.Context, guildID string, mute, deaf bool) error {
	return c.request(ctx, OpVoiceState, map[string]any{
		"guild_id":  guildID,
		"self_mute": mute,
		"self_deaf": deaf,
	})
}

// VoiceAudio: отправить WAV (PCM 48kHz 16bit) на воспроизведение в голосовом канале гильдии.
func (c *Client) VoiceAudio(ctx context.Context, guildID string, audio []byte) error {
	return c.request(ctx, OpVoiceAudio, map[string]any{
		"guild_id": guildID,
		"audio":    audio,
	})
}
