package voice

import "sync"

// States: в каком голосовом канале сейчас каждый пользователь гильдии.
type States struct {
	mu     sync.RWMutex
	guilds map[string]map[string]string // guild -> user -> channel
}

func NewStates() *States {
	return &States{guilds: make(map[string]map[string]string)}
}

// Update: пустой channelID означает, что пользователь вышел из голоса.
func (s *States) Update(guildID, userID, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.guilds[guildID]
	if channelID == "" {
		if ok {
			delete(users, userID)
			if len(users) == 0 {
				delete(s.guilds, guildID)
			}
		}
		return
	}
	if !ok {
		users = make(map[string]string)
		s.guilds[guildID] = users
	}
	users[userID] = channelID
}

func (s *States) ChannelOf(guildID, userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.guilds[guildID][userID]
	return ch, ok
}
