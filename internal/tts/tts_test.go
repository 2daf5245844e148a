package tts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/mbot/internal/logging"
)

var wav = []byte("RIFF\x24\x00\x00\x00WAVEfmt ")

func TestVoiceRSS_Speak(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "k" || q.Get("f") != "48khz_16bit_stereo" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		if q.Get("src") == "boom" {
			_, _ = io.WriteString(w, "ERROR: The text is too long!")
			return
		}
		_, _ = w.Write(wav)
	}))
	defer srv.Close()

	v := NewVoiceRSS("k")
	v.baseURL = srv.URL + "/"

	out, err := v.Speak(context.Background(), "hello there & friends")
	req.NoError(err)
	req.Equal(wav, out)

	_, err = v.Speak(context.Background(), "boom")
	req.ErrorIs(err, ErrUnavailable)

	_, err = v.Speak(context.Background(), "   ")
	req.ErrorIs(err, ErrEmptyText)
}

func TestAzure_Speak_Caches_Token(t *testing.T) {
	req := require.New(t)
	var issued atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "sub" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		issued.Add(1)
		_, _ = io.WriteString(w, "jwt")
	})
	mux.HandleFunc("/tts", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.Header.Get("Authorization") != "Bearer jwt" ||
			r.Header.Get("X-Microsoft-OutputFormat") != "riff-48khz-16bit-mono-pcm" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !strings.Contains(string(body), "1m30s &amp; counting") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write(wav)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := NewAzure(AzureConfig{TokenEndpoint: srv.URL + "/token", TTSEndpoint: srv.URL + "/tts", SubscriptionKey: "sub"})
	now := time.Now()
	a.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		out, err := a.Speak(context.Background(), "1m30s & counting")
		req.NoError(err)
		req.Equal(wav, out)
	}
	req.Equal(int32(1), issued.Load())

	// токен протух: берём новый
	now = now.Add(10 * time.Minute)
	_, err := a.Speak(context.Background(), "1m30s & counting")
	req.NoError(err)
	req.Equal(int32(2), issued.Load())
}

func TestAzure_Concurrent_Speak_Issues_One_Token(t *testing.T) {
	req := require.New(t)
	var issued atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		issued.Add(1)
		time.Sleep(200 * time.Millisecond)
		_, _ = io.WriteString(w, "jwt")
	})
	mux.HandleFunc("/tts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(wav)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := NewAzure(AzureConfig{TokenEndpoint: srv.URL + "/token", TTSEndpoint: srv.URL + "/tts", SubscriptionKey: "sub"})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Speak(context.Background(), "go")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}
	req.Equal(int32(1), issued.Load())
}

func TestAzure_Token_Failure(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	a := NewAzure(AzureConfig{TokenEndpoint: srv.URL, TTSEndpoint: srv.URL, SubscriptionKey: "bad"})
	_, err := a.Speak(context.Background(), "hi")
	req.ErrorIs(err, ErrUnavailable)
}

type failingSpeaker struct{ calls atomic.Int32 }

func (f *failingSpeaker) Speak(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	return nil, errors.New("boom")
}

func TestGuarded_Opens_After_Failures(t *testing.T) {
	req := require.New(t)
	next := &failingSpeaker{}
	g := NewGuarded("test", next, logging.Discard())

	for i := 0; i < 3; i++ {
		_, err := g.Speak(context.Background(), "hi")
		req.EqualError(err, "boom")
	}
	req.Equal(gobreaker.StateOpen, g.State())

	_, err := g.Speak(context.Background(), "hi")
	req.ErrorIs(err, ErrUnavailable)
	req.Equal(int32(3), next.calls.Load())
}

func TestAzure_Token_Survives_First_Caller_Cancel(t *testing.T) {
	req := require.New(t)
	var issued atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		issued.Add(1)
		time.Sleep(200 * time.Millisecond)
		_, _ = io.WriteString(w, "jwt")
	}))
	defer srv.Close()

	a := NewAzure(AzureConfig{TokenEndpoint: srv.URL, TTSEndpoint: srv.URL, SubscriptionKey: "sub"})

	// Given: первый вызов уходит с коротким контекстом
	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = a.issueToken(short)
	}()
	time.Sleep(50 * time.Millisecond)

	// When: второй ждёт тот же запрос уже после отмены первого
	token, err := a.issueToken(context.Background())

	// Then
	req.NoError(err)
	req.Equal("jwt", token)
	<-firstDone
	req.Equal(int32(1), issued.Load())
}

func TestReadAudio_Too_Large(t *testing.T) {
	req := require.New(t)
	body := make([]byte, maxAudioBytes+1)
	copy(body, "RIFF")
	resp := &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body))}

	_, err := readAudio(resp)
	req.ErrorIs(err, ErrUnavailable)

	// ровно на пределе: ещё допустимо
	resp = &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body[:maxAudioBytes]))}
	got, err := readAudio(resp)
	req.NoError(err)
	req.Len(got, maxAudioBytes)
}
