package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

const (
	MetricEmbeddingTime       = "EmbeddingGenerationTimeMs"
	MetricVectorSearchTime    = "VectorSearchTimeMs"
	MetricOrchestrationTime   = "NovaOrchestrationTimeMs"
	MetricPersistenceTime     = "PostgresPersistenceTimeMs"
	MetricTotalTime           = "TotalGenerationTimeMs"
	MetricCoursesInPath       = "CoursesInPath"
	MetricPathsGenerated      = "PathsGeneratedCount"
	MetricPersistenceFailed   = "PostgresPersistenceFailedCount"
	MetricEmbeddingCacheHit   = "EmbeddingCacheHitCount"
	MetricEmbeddingCacheMiss  = "EmbeddingCacheMissCount"
	DefaultMetricsNamespace   = "LearnIA/Lambda/LearningPathGenerator"
	maxDatumsPerPutMetricData = 1000
)

// Recorder is what the pipeline needs from a metrics sink.
type Recorder interface {
	Emit(name string, value float64)
}

// CloudWatchAPI is the slice of the CloudWatch client used by Emitter.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

type EmitterConfig struct {
	Namespace     string
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	SendTimeout   time.Duration
	Dimensions    map[string]string
}

// Emitter buffers metric observations and ships them to CloudWatch from a
// background goroutine. Emit never blocks; a full buffer drops the datum.
// Send failures are logged and swallowed.
type Emitter struct {
	log        *logger.Logger
	api        CloudWatchAPI
	namespace  string
	dimensions []types.Dimension
	batchSize  int
	interval   time.Duration
	timeout    time.Duration
	now        func() time.Time

	queue    chan types.MetricDatum
	flushReq chan chan struct{}
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewEmitter(log *logger.Logger, api CloudWatchAPI, cfg EmitterConfig) *Emitter {
	if log == nil {
		log = logger.NewNop()
	}
	ns := strings.TrimSpace(cfg.Namespace)
	if ns == "" {
		ns = DefaultMetricsNamespace
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > maxDatumsPerPutMetricData {
		cfg.BatchSize = 20
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	dims := make([]types.Dimension, 0, len(cfg.Dimensions))
	for name, val := range cfg.Dimensions {
		dims = append(dims, types.Dimension{Name: aws.String(name), Value: aws.String(val)})
	}
	e := &Emitter{
		log:        log.With("service", "MetricsEmitter"),
		api:        api,
		namespace:  ns,
		dimensions: dims,
		batchSize:  cfg.BatchSize,
		interval:   cfg.FlushInterval,
		timeout:    cfg.SendTimeout,
		now:        time.Now,
		queue:      make(chan types.MetricDatum, cfg.BufferSize),
		flushReq:   make(chan chan struct{}),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	if api != nil {
		go e.run()
	}
	return e
}

// UnitFor picks Milliseconds for names ending in "Ms" and Count otherwise.
func UnitFor(name string) types.StandardUnit {
	if strings.HasSuffix(name, "Ms") {
		return types.StandardUnitMilliseconds
	}
	return types.StandardUnitCount
}

func (e *Emitter) Emit(name string, value float64) {
	if e == nil || e.api == nil {
		return
	}
	select {
	case <-e.quit:
		return
	default:
	}
	d := types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: e.dimensions,
		Value:      aws.Float64(value),
		Unit:       UnitFor(name),
		Timestamp:  aws.Time(e.now().UTC()),
	}
	select {
	case e.queue <- d:
	default:
		e.log.Warn("metric_dropped", "metric", name, "reason", "buffer_full")
	}
}

// Flush ships everything queued so far and waits for the send to finish or
// ctx to end.
func (e *Emitter) Flush(ctx context.Context) error {
	if e == nil || e.api == nil {
		return nil
	}
	done := make(chan struct{})
	select {
	case e.flushReq <- done:
	case <-e.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes and stops the background sender. Safe to call more than once.
func (e *Emitter) Close(ctx context.Context) error {
	if e == nil || e.api == nil {
		return nil
	}
	err := e.Flush(ctx)
	e.stopOnce.Do(func() { close(e.quit) })
	select {
	case <-e.stopped:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (e *Emitter) run() {
	defer close(e.stopped)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	pending := make([]types.MetricDatum, 0, e.batchSize)
	for {
		select {
		case d := <-e.queue:
			pending = append(pending, d)
			if len(pending) >= e.batchSize {
				pending = e.send(pending)
			}
		case <-ticker.C:
			pending = e.send(pending)
		case done := <-e.flushReq:
			pending = e.send(e.drain(pending))
			close(done)
		case <-e.quit:
			e.send(e.drain(pending))
			return
		}
	}
}

func (e *Emitter) drain(pending []types.MetricDatum) []types.MetricDatum {
	for {
		select {
		case d := <-e.queue:
			pending = append(pending, d)
		default:
			return pending
		}
	}
}

// send ships pending in batches and returns the emptied slice.
func (e *Emitter) send(pending []types.MetricDatum) []types.MetricDatum {
	for start := 0; start < len(pending); start += e.batchSize {
		end := start + e.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := append([]types.MetricDatum(nil), pending[start:end]...)
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		_, err := e.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(e.namespace),
			MetricData: batch,
		})
		cancel()
		if err != nil {
			e.log.Warn("metric_emit_failed", "namespace", e.namespace, "datums", len(batch), "error", err.Error())
		}
	}
	return pending[:0]
}

// NopRecorder discards observations.
type NopRecorder struct{}

func (NopRecorder) Emit(string, float64) {}
