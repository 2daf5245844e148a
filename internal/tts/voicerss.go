package tts

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const voiceRSSURL = "http://api.voicerss.org/"

type VoiceRSS struct {
	http    *http.Client
	baseURL string
	key     string
}

func NewVoiceRSS(key string) *VoiceRSS {
	return &VoiceRSS{http: newHTTPClient(), baseURL: voiceRSSURL, key: key}
}

func (v *VoiceRSS) Speak(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	q := url.Values{}
	q.Set("key", v.key)
	q.Set("c", "WAV")
	q.Set("f", "48khz_16bit_stereo")
	q.Set("r", "4")
	q.Set("hl", "en-us")
	q.Set("b64", "false")
	q.Set("src", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return nil, err
	}
	// на ошибки VoiceRSS отвечает 200 и текстом "ERROR: ...": его отсеет readAudio
	return readAudio(resp)
}
