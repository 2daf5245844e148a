package tts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Guarded: Speaker за circuit breaker'ом: после серии отказов провайдера
// запросы сразу получают ErrUnavailable, пока breaker не полуоткроется.
type Guarded struct {
	next Speaker
	cb   *gobreaker.CircuitBreaker
}

func NewGuarded(name string, next Speaker, log *slog.Logger) *Guarded {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			// пустой текст: ошибка пользователя, а не провайдера
			return err == nil || errors.Is(err, ErrEmptyText) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("tts circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
		},
	})
	return &Guarded{next: next, cb: cb}
}

func (g *Guarded) Speak(ctx context.Context, text string) ([]byte, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.Speak(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (g *Guarded) State() gobreaker.State {
	return g.cb.State()
}
