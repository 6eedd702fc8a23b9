package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/observability"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type instrumentedCourseStore struct {
	provider string
	inner    CourseStore
	log      *logger.Logger
}

func instrumentCourseStore(log *logger.Logger, provider string, inner CourseStore) CourseStore {
	if inner == nil {
		return nil
	}
	return &instrumentedCourseStore{
		provider: provider,
		inner:    inner,
		log:      log.With("vector_provider", provider),
	}
}

func (s *instrumentedCourseStore) Open(ctx context.Context) error {
	start := time.Now()
	err := s.inner.Open(ctx)
	s.observe("open", err, time.Since(start))
	if err != nil {
		return classifyVectorProviderBootstrapError(s.provider, err)
	}
	return nil
}

func (s *instrumentedCourseStore) Close(ctx context.Context) error {
	return s.inner.Close(ctx)
}

func (s *instrumentedCourseStore) NearestCourses(ctx context.Context, q []float64, numCandidates int) (out []learningpath.Course, err error) {
	ctx, span := observability.StartSpan(ctx, "vectorstore.nearest",
		attribute.String("vector.provider", s.provider),
		attribute.Int("vector.num_candidates", numCandidates),
	)
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	out, err = s.inner.NearestCourses(ctx, q, numCandidates)
	s.observe("nearest_courses", err, time.Since(start))
	return out, err
}

func (s *instrumentedCourseStore) observe(operation string, err error, dur time.Duration) {
	if s == nil || s.log == nil {
		return
	}
	if err != nil {
		s.log.Warn("vector_store_operation_failed", "operation", operation, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	s.log.Debug("vector_store_operation", "operation", operation, "duration_ms", dur.Milliseconds())
}
