package gateway

// Ready: кто мы на платформе.
type Ready struct {
	UserID   string
	UserName string
}

// Message: сообщение в канале. GuildID пустой для личных сообщений и групп.
type Message struct {
	ID         string
	ChannelID  string
	GuildID    string
	GuildName  string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	Content    string
	Mentions   []string
}

func (m *Message) InGuild() bool { return m.GuildID != "" }

// VoiceState: пользователь зашёл в голосовой канал или вышел (ChannelID == "").
type VoiceState struct {
	GuildID   string
	UserID    string
	ChannelID string
}

func readyFromFrame(f *Frame) *Ready {
	return &Ready{UserID: f.str("user_id"), UserName: f.str("user_name")}
}

func messageFromFrame(f *Frame) *Message {
	return &Message{
		ID:         f.str("id"),
		ChannelID:  f.str("channel_id"),
		GuildID:    f.str("guild_id"),
		GuildName:  f.str("guild_name"),
		AuthorID:   f.str("author_id"),
		AuthorName: f.str("author_name"),
		AuthorBot:  f.boolean("author_bot"),
		Content:    f.str("content"),
		Mentions:   f.strings("mentions"),
	}
}

func voiceStateFromFrame(f *Frame) *VoiceState {
	return &VoiceState{
		GuildID:   f.str("guild_id"),
		UserID:    f.str("user_id"),
		ChannelID: f.str("channel_id"),
	}
}
