package retry

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

const (
	DefaultMaxAttempts = 4
	DefaultBase        = time.Second
	DefaultFactor      = 2.0
	DefaultJitterLow   = 0.75
	DefaultJitterHigh  = 1.25
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type Policy struct {
	MaxAttempts int
	Base        time.Duration
	Factor      float64
	JitterLow   float64
	JitterHigh  float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Base:        DefaultBase,
		Factor:      DefaultFactor,
		JitterLow:   DefaultJitterLow,
		JitterHigh:  DefaultJitterHigh,
	}
}

// Invoker runs capability calls with bounded, jittered exponential backoff.
// Only errors accepted by the retryable predicate are retried.
type Invoker struct {
	log       *logger.Logger
	policy    Policy
	sleep     Sleeper
	retryable func(error) bool

	mu   sync.Mutex
	rand func() float64
}

type Option func(*Invoker)

func WithPolicy(p Policy) Option { return func(i *Invoker) { i.policy = p } }

func WithSleeper(s Sleeper) Option { return func(i *Invoker) { i.sleep = s } }

// WithJitterSource replaces the uniform [0,1) source used for jitter.
func WithJitterSource(f func() float64) Option { return func(i *Invoker) { i.rand = f } }

func WithRetryable(f func(error) bool) Option { return func(i *Invoker) { i.retryable = f } }

func New(log *logger.Logger, opts ...Option) *Invoker {
	if log == nil {
		log = logger.NewNop()
	}
	inv := &Invoker{
		log:       log.With("component", "RetryingInvoker"),
		policy:    DefaultPolicy(),
		sleep:     sleepCtx,
		retryable: learningpath.IsTransient,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())).Float64,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(inv)
		}
	}
	if inv.policy.MaxAttempts <= 0 {
		inv.policy.MaxAttempts = 1
	}
	return inv
}

// Backoff returns the jittered delay to wait after the given failed attempt
// (1-based).
func (i *Invoker) Backoff(attempt int) time.Duration {
	p := i.policy
	base := float64(p.Base) * math.Pow(p.Factor, float64(attempt-1))
	i.mu.Lock()
	u := i.rand()
	i.mu.Unlock()
	mult := p.JitterLow + u*(p.JitterHigh-p.JitterLow)
	return time.Duration(base * mult)
}

// Do calls fn until it succeeds, returns a non-retryable error, or the attempt
// budget is spent. No delay follows the final attempt.
func Do[T any](ctx context.Context, inv *Invoker, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	var lastErr error
	for attempt := 1; attempt <= inv.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !inv.retryable(err) || attempt == inv.policy.MaxAttempts {
			return zero, err
		}
		sleepFor := inv.Backoff(attempt)
		inv.log.Warn("provider_retry",
			"op", op,
			"attempt", attempt,
			"max_attempts", inv.policy.MaxAttempts,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if sErr := inv.sleep(ctx, sleepFor); sErr != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
