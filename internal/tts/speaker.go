// Package tts: синтез речи через внешние HTTP-сервисы (VoiceRSS, Azure).
// Все провайдеры отдают WAV PCM 16bit 48kHz, пригодный для голосового канала
// без пересэмплирования.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrEmptyText   = errors.New("tts: empty text")
	ErrUnavailable = errors.New("tts: provider unavailable")
)

// Speaker превращает текст в WAV.
type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

const maxAudioBytes = 16 << 20

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// readAudio проверяет статус и читает тело ответа как WAV.
func readAudio(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxAudioBytes {
		return nil, fmt.Errorf("%w: audio larger than %d bytes", ErrUnavailable, maxAudioBytes)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if len(body) < 4 || string(body[:4]) != "RIFF" {
		return nil, fmt.Errorf("%w: unexpected payload %q", ErrUnavailable, truncate(body, 64))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
