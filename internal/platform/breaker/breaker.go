package breaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type Config struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Breaker guards one provider. Only transient failures count against it;
// contract violations and validation errors pass through untouched.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

func New(log *logger.Logger, cfg Config) *Breaker {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "provider"
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit_breaker_state_changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !learningpath.IsTransient(err)
		},
	})
	return &Breaker{name: cfg.Name, cb: cb}
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Call runs fn through b. A nil breaker calls fn directly.
func Call[T any](b *Breaker, op string, fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, learningpath.NewError(learningpath.ClassInternal, learningpath.KindProviderUnavailable, op, b.name+" circuit open", err)
		}
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}
