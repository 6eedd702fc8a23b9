package embed

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/learnpath-backend/internal/observability"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/platform/lrucache"
	"github.com/yungbote/learnpath-backend/internal/platform/retry"
)

// Provider is the raw embedding capability.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// SharedCache is an optional second tier shared between execution contexts.
type SharedCache interface {
	Key(model, text string) string
	Get(ctx context.Context, key string) ([]float64, bool, error)
	Set(ctx context.Context, key string, vec []float64) error
}

const (
	DefaultCacheSize   = 1000
	DefaultLoadTimeout = 60 * time.Second
)

// CachedEmbedder memoizes normalized query embeddings by exact text. Misses go
// to the shared tier first, then to the provider through the retry invoker.
// Concurrent misses for the same text share one provider call.
type CachedEmbedder struct {
	log      *logger.Logger
	provider Provider
	invoker  *retry.Invoker
	local    *lrucache.Cache[string, []float64]
	shared   SharedCache
	model    string
	metrics  observability.Recorder
	timeout  time.Duration
	flight   singleflight.Group
}

type Option func(*CachedEmbedder)

func WithCacheSize(n int) Option {
	return func(e *CachedEmbedder) { e.local = lrucache.New[string, []float64](n) }
}

func WithSharedCache(c SharedCache) Option { return func(e *CachedEmbedder) { e.shared = c } }

func WithInvoker(inv *retry.Invoker) Option { return func(e *CachedEmbedder) { e.invoker = inv } }

func WithMetrics(r observability.Recorder) Option { return func(e *CachedEmbedder) { e.metrics = r } }

// WithLoadTimeout bounds a shared miss load, which runs detached from any one
// caller's cancellation.
func WithLoadTimeout(d time.Duration) Option { return func(e *CachedEmbedder) { e.timeout = d } }

// WithModel namespaces shared-tier keys so vectors from different models never mix.
func WithModel(model string) Option { return func(e *CachedEmbedder) { e.model = model } }

func NewCachedEmbedder(log *logger.Logger, provider Provider, opts ...Option) *CachedEmbedder {
	if log == nil {
		log = logger.NewNop()
	}
	e := &CachedEmbedder{
		log:      log.With("component", "CachedEmbedder"),
		provider: provider,
		local:    lrucache.New[string, []float64](DefaultCacheSize),
		metrics:  observability.NopRecorder{},
		timeout:  DefaultLoadTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.invoker == nil {
		e.invoker = retry.New(log)
	}
	if e.timeout <= 0 {
		e.timeout = DefaultLoadTimeout
	}
	return e
}

// Embed returns the unit-length embedding of text. The returned slice is the
// caller's own copy.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if vec, ok := e.local.Get(text); ok {
		e.metrics.Emit(observability.MetricEmbeddingCacheHit, 1)
		e.log.Debug("embedding_cache_hit", "tier", "local")
		return clone(vec), nil
	}
	e.metrics.Emit(observability.MetricEmbeddingCacheMiss, 1)

	// The load is shared by every caller waiting on text, so it must not
	// inherit the cancellation of whichever caller started it.
	loadCtx := context.WithoutCancel(ctx)
	ch := e.flight.DoChan(text, func() (any, error) {
		if vec, ok := e.local.Peek(text); ok {
			return vec, nil
		}
		lctx, cancel := context.WithTimeout(loadCtx, e.timeout)
		defer cancel()
		vec, err := e.load(lctx, text)
		if err != nil {
			return nil, err
		}
		e.local.Set(text, vec)
		return vec, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.([]float64)), nil
	}
}

func clone(v []float64) []float64 { return append([]float64(nil), v...) }

func (e *CachedEmbedder) load(ctx context.Context, text string) ([]float64, error) {
	var key string
	if e.shared != nil {
		key = e.shared.Key(e.model, text)
		vec, ok, err := e.shared.Get(ctx, key)
		switch {
		case err != nil:
			e.log.Warn("embedding_shared_cache_get_failed", "error", err.Error())
		case ok:
			if norm, nErr := Normalize(vec); nErr == nil {
				e.log.Debug("embedding_cache_hit", "tier", "shared")
				return norm, nil
			}
		}
	}

	raw, err := retry.Do(ctx, e.invoker, "embed", func(ctx context.Context) ([]float64, error) {
		return e.provider.Embed(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	vec, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	if e.shared != nil {
		if err := e.shared.Set(ctx, key, vec); err != nil {
			e.log.Warn("embedding_shared_cache_set_failed", "error", err.Error())
		}
	}
	return vec, nil
}

func (e *CachedEmbedder) Stats() lrucache.Stats { return e.local.Stats() }
