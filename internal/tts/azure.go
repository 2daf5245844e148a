package tts

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// токен Azure живёт 10 минут, обновляем заранее
const azureTokenTTL = 9 * time.Minute

type AzureConfig struct {
	TokenEndpoint   string
	TTSEndpoint     string
	SubscriptionKey string
}

type Azure struct {
	http *http.Client
	cfg  AzureConfig
	now  func() time.Time

	mu        sync.Mutex
	token     string
	tokenTill time.Time
	issuing   singleflight.Group
}

func NewAzure(cfg AzureConfig) *Azure {
	return &Azure{http: newHTTPClient(), cfg: cfg, now: time.Now}
}

func (a *Azure) Speak(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	token, err := a.issueToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("azure token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.TTSEndpoint, strings.NewReader(ssml(text)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("User-Agent", "mbot")
	req.Header.Set("X-Microsoft-OutputFormat", "riff-48khz-16bit-mono-pcm")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		a.resetToken()
	}
	return readAudio(resp)
}

// issueToken: кешированный токен; параллельные запросы делят один выпуск.
func (a *Azure) issueToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	if a.token != "" && a.now().Before(a.tokenTill) {
		token := a.token
		a.mu.Unlock()
		return token, nil
	}
	a.mu.Unlock()

	// запрос общий для всех ждущих: отмена первого не должна ронять остальных,
	// срок ограничен таймаутом http-клиента
	v, err, _ := a.issuing.Do("token", func() (any, error) {
		return a.fetchToken(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *Azure) fetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.TokenEndpoint, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.cfg.SubscriptionKey)

	resp, err := a.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("%w: token status %d", ErrUnavailable, resp.StatusCode)
	}

	token := strings.TrimSpace(string(body))
	a.mu.Lock()
	a.token = token
	a.tokenTill = a.now().Add(azureTokenTTL)
	a.mu.Unlock()
	return token, nil
}

func (a *Azure) resetToken() {
	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()
}

func ssml(text string) string {
	var esc bytes.Buffer
	_ = xml.EscapeText(&esc, []byte(text))
	return `<speak version="1.0" xmlns="https://www.w3.org/2001/10/synthesis" xml:lang="en-US">` +
		`<voice xml:lang="en-US" name="en-US-Guy24kRUS"><prosody rate="+20.00%">` +
		esc.String() +
		`</prosody></voice></speak>`
}
