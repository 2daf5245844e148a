package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrNotInVoice = errors.New("voice: not in a voice channel")

// Transport: голосовые операции платформы (реализует gateway.Client).
type Transport interface {
	VoiceConnect(ctx context.Context, guildID, channelID string) error
	VoiceDisconnect(ctx context.Context, guildID string) error
	VoiceState(ctx context.Context, guildID string, mute, deaf bool) error
	VoiceAudio(ctx context.Context, guildID string, audio []byte) error
}

// Handler: подключение бота к голосовому каналу одной гильдии.
type Handler struct {
	GuildID   string
	ChannelID string
	SelfMute  bool
	SelfDeaf  bool

	playMu  *sync.Mutex
	stateMu *sync.Mutex // mute/deaf меняются по очереди, вместе с сетевым вызовом
}

type Manager struct {
	transport Transport

	mu       sync.Mutex
	handlers map[string]*Handler
}

func NewManager(t Transport) *Manager {
	return &Manager{transport: t, handlers: make(map[string]*Handler)}
}

// Join подключает бота к каналу (или переводит в другой канал).
func (m *Manager) Join(ctx context.Context, guildID, channelID string) error {
	if err := m.transport.VoiceConnect(ctx, guildID, channelID); err != nil {
		return fmt.Errorf("voice connect: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.handlers[guildID]; ok {
		h.ChannelID = channelID
		return nil
	}
	m.handlers[guildID] = &Handler{GuildID: guildID, ChannelID: channelID, playMu: &sync.Mutex{}, stateMu: &sync.Mutex{}}
	return nil
}

// Leave: ErrNotInVoice, если бот не подключён. При ошибке сети
// подключение остаётся в реестре.
func (m *Manager) Leave(ctx context.Context, guildID string) error {
	m.mu.Lock()
	_, ok := m.handlers[guildID]
	m.mu.Unlock()
	if !ok {
		return ErrNotInVoice
	}
	if err := m.transport.VoiceDisconnect(ctx, guildID); err != nil {
		return fmt.Errorf("voice disconnect: %w", err)
	}
	m.mu.Lock()
	delete(m.handlers, guildID)
	m.mu.Unlock()
	return nil
}

// Get: копия состояния подключения.
func (m *Manager) Get(guildID string) (Handler, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handlers[guildID]
	if !ok {
		return Handler{}, false
	}
	return *h, true
}

// SetMute возвращает false, если состояние уже было таким.
func (m *Manager) SetMute(ctx context.Context, guildID string, mute bool) (bool, error) {
	return m.setState(ctx, guildID, func(h *Handler) bool {
		if h.SelfMute == mute {
			return false
		}
		h.SelfMute = mute
		return true
	})
}

func (m *Manager) SetDeaf(ctx context.Context, guildID string, deaf bool) (bool, error) {
	return m.setState(ctx, guildID, func(h *Handler) bool {
		if h.SelfDeaf == deaf {
			return false
		}
		h.SelfDeaf = deaf
		return true
	})
}

func (m *Manager) setState(ctx context.Context, guildID string, apply func(*Handler) bool) (bool, error) {
	m.mu.Lock()
	h, ok := m.handlers[guildID]
	m.mu.Unlock()
	if !ok {
		return false, ErrNotInVoice
	}

	// держим stateMu весь цикл "прочитать, отправить, записать"
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	m.mu.Lock()
	next := *h
	m.mu.Unlock()
	if !apply(&next) {
		return false, nil
	}

	// сеть: вне m.mu
	if err := m.transport.VoiceState(ctx, guildID, next.SelfMute, next.SelfDeaf); err != nil {
		return false, fmt.Errorf("voice state: %w", err)
	}

	m.mu.Lock()
	h.SelfMute, h.SelfDeaf = next.SelfMute, next.SelfDeaf
	m.mu.Unlock()
	return true, nil
}

// Play воспроизводит WAV; вызовы в одной гильдии идут строго по очереди.
func (m *Manager) Play(ctx context.Context, guildID string, audio []byte) error {
	m.mu.Lock()
	h, ok := m.handlers[guildID]
	m.mu.Unlock()
	if !ok {
		return ErrNotInVoice
	}

	h.playMu.Lock()
	defer h.playMu.Unlock()
	return m.transport.VoiceAudio(ctx, guildID, audio)
}
