package pathgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/modules/pathgen/plan"
	"github.com/yungbote/learnpath-backend/internal/modules/pathgen/search"
	"github.com/yungbote/learnpath-backend/internal/observability"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/platform/retry"
)

// Embedder returns the unit-length embedding of a query.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type VectorSearcher interface {
	Search(ctx context.Context, vector []float64, limit, numCandidates int, filters learningpath.SearchFilters) (search.Result, error)
}

type PlanGenerator interface {
	Plan(ctx context.Context, req plan.Request) (learningpath.Plan, error)
}

type PathStore interface {
	Persist(ctx context.Context, userID string, meta learningpath.PathMetadata, nodes []learningpath.PathNode) (uuid.UUID, error)
}

// PersistencePolicy decides what a failed write does to the request.
type PersistencePolicy string

const (
	// PersistFail surfaces persistence failures to the caller.
	PersistFail PersistencePolicy = "fail"
	// PersistEphemeral returns the generated path with a local, non-durable id.
	PersistEphemeral PersistencePolicy = "ephemeral"
)

func ParsePersistencePolicy(raw string) PersistencePolicy {
	if PersistencePolicy(strings.ToLower(strings.TrimSpace(raw))) == PersistEphemeral {
		return PersistEphemeral
	}
	return PersistFail
}

type Config struct {
	MinCourses        int
	MaxCourses        int
	DefaultWeeks      int
	PersistencePolicy PersistencePolicy
}

func (c Config) withDefaults() Config {
	if c.MinCourses <= 0 {
		c.MinCourses = 3
	}
	if c.MaxCourses <= 0 {
		c.MaxCourses = 10
	}
	if c.DefaultWeeks <= 0 {
		c.DefaultWeeks = 12
	}
	if c.PersistencePolicy == "" {
		c.PersistencePolicy = PersistFail
	}
	return c
}

type Deps struct {
	Log      *logger.Logger
	Embedder Embedder
	Searcher VectorSearcher
	Planner  PlanGenerator
	Store    PathStore
	Metrics  observability.Recorder
	// Invoker retries transient persistence failures. Persist must be safe to
	// replay with the same path id.
	Invoker  *retry.Invoker
}

// Pipeline runs embed, search, plan, assemble and persist strictly in
// sequence; no stage starts before the previous one succeeded.
type Pipeline struct {
	log     *logger.Logger
	deps    Deps
	cfg     Config
	metrics observability.Recorder
	invoker *retry.Invoker
	now     func() time.Time
}

func NewPipeline(deps Deps, cfg Config) *Pipeline {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NopRecorder{}
	}
	invoker := deps.Invoker
	if invoker == nil {
		invoker = retry.New(log)
	}
	return &Pipeline{
		log:     log.With("service", "PathGenerator"),
		deps:    deps,
		cfg:     cfg.withDefaults(),
		metrics: metrics,
		invoker: invoker,
		now:     time.Now,
	}
}

func (p *Pipeline) Config() Config { return p.cfg }

const generateOp = "pathgen.generate"

// Generate builds, validates and stores a learning path for req.
func (p *Pipeline) Generate(ctx context.Context, userID string, req PathRequest) (_ learningpath.LearningPath, err error) {
	totalStart := p.now()
	ctx, span := observability.StartSpan(ctx, "pathgen.generate",
		attribute.Int("pathgen.num_courses", req.NumCourses),
		attribute.String("pathgen.user_level", req.UserLevel),
	)
	defer func() { observability.EndSpan(span, err) }()

	log := p.log.With("user_id", userID)
	log.Info("path_generation_started",
		"num_courses", req.NumCourses,
		"user_level", req.UserLevel,
		"query_chars", len([]rune(req.UserQuery)),
	)

	vector, err := stage(ctx, p, "pathgen.embed", observability.MetricEmbeddingTime, func(ctx context.Context) ([]float64, error) {
		return p.deps.Embedder.Embed(ctx, req.UserQuery)
	})
	if err != nil {
		return learningpath.LearningPath{}, err
	}

	limit := req.NumCourses
	numCandidates := search.NumCandidates(limit, p.cfg.MinCourses, p.cfg.MaxCourses)
	found, err := stage(ctx, p, "pathgen.search", observability.MetricVectorSearchTime, func(ctx context.Context) (search.Result, error) {
		return p.deps.Searcher.Search(ctx, vector, limit, numCandidates, req.Filters())
	})
	if err != nil {
		return learningpath.LearningPath{}, err
	}
	if len(found.Courses) < p.cfg.MinCourses {
		return learningpath.LearningPath{}, learningpath.Validation(learningpath.KindInsufficientResults, generateOp,
			"not enough relevant courses were found to build the requested path (found %d, need %d)",
			len(found.Courses), p.cfg.MinCourses)
	}

	validated, err := stage(ctx, p, "pathgen.plan", observability.MetricOrchestrationTime, func(ctx context.Context) (learningpath.Plan, error) {
		return p.deps.Planner.Plan(ctx, plan.Request{
			Goal:         req.UserQuery,
			Level:        learningpath.Level(req.UserLevel),
			HoursPerWeek: req.TimePerWeek,
			Candidates:   found.Courses,
		})
	})
	if err != nil {
		return learningpath.LearningPath{}, err
	}

	nodes, err := plan.Assemble(validated, found.Courses)
	if err != nil {
		return learningpath.LearningPath{}, err
	}
	if len(nodes) < p.cfg.MinCourses {
		return learningpath.LearningPath{}, learningpath.Contract(learningpath.KindIncompletePlan, generateOp,
			"plan placed %d distinct courses, need %d", len(nodes), p.cfg.MinCourses)
	}
	log.Info("plan_orchestration_completed", "nodes_generated", len(nodes), "relaxed_search", found.Relaxed)

	createdAt := p.now().UTC()
	weeks := validated.EstimatedWeeks
	if weeks <= 0 {
		weeks = p.cfg.DefaultWeeks
	}
	totalHours := validated.EstimatedTotalHours
	if totalHours <= 0 {
		totalHours = weeks * req.TimePerWeek
	}
	completion := createdAt.AddDate(0, 0, 7*weeks)
	meta := learningpath.PathMetadata{
		PathID:               uuid.New(),
		Name:                 validated.Name,
		Description:          validated.Description,
		Status:               learningpath.PathStatusActive,
		TargetHoursPerWeek:   req.TimePerWeek,
		EstimatedWeeks:       weeks,
		TargetCompletionDate: &completion,
		Priority:             1,
	}

	durable := true
	pathID, err := stage(ctx, p, "pathgen.persist", observability.MetricPersistenceTime, func(ctx context.Context) (uuid.UUID, error) {
		return retry.Do(ctx, p.invoker, "persist", func(ctx context.Context) (uuid.UUID, error) {
			return p.deps.Store.Persist(ctx, userID, meta, nodes)
		})
	})
	if err != nil {
		if p.cfg.PersistencePolicy != PersistEphemeral {
			return learningpath.LearningPath{}, err
		}
		log.Warn("path_persist_skipped", "path_id", meta.PathID.String(), "error", err.Error())
		p.metrics.Emit(observability.MetricPersistenceFailed, 1)
		pathID, durable = meta.PathID, false
	}

	out := learningpath.LearningPath{
		PathID:                pathID,
		UserID:                userID,
		Name:                  validated.Name,
		Description:           validated.Description,
		TargetHoursPerWeek:    req.TimePerWeek,
		Status:                learningpath.PathStatusActive,
		CreatedAt:             createdAt,
		EstimatedWeeks:        weeks,
		EstimatedTotalHours:   totalHours,
		DifficultyProgression: validated.DifficultyProgression,
		RoadmapText:           validated.RoadmapText,
		Nodes:                 nodes,
		UserQuery:             req.UserQuery,
		Durable:               durable,
	}

	total := p.now().Sub(totalStart)
	p.metrics.Emit(observability.MetricTotalTime, float64(total.Milliseconds()))
	p.metrics.Emit(observability.MetricCoursesInPath, float64(len(nodes)))
	p.metrics.Emit(observability.MetricPathsGenerated, 1)
	log.Info("path_generation_completed",
		"path_id", pathID.String(),
		"courses", len(nodes),
		"durable", durable,
		"total_time_ms", total.Milliseconds(),
	)
	return out, nil
}

// stage runs fn inside its own span and records its duration under metric.
func stage[T any](ctx context.Context, p *Pipeline, name, metric string, fn func(ctx context.Context) (T, error)) (_ T, err error) {
	ctx, span := observability.StartSpan(ctx, name)
	defer func() { observability.EndSpan(span, err) }()

	start := p.now()
	out, err := fn(ctx)
	elapsed := p.now().Sub(start)
	if err != nil {
		p.log.Error("stage_failed",
			"stage", name,
			"elapsed_ms", elapsed.Milliseconds(),
			"error_class", string(learningpath.ClassOf(err)),
			"error", err.Error(),
		)
		var zero T
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	p.metrics.Emit(metric, float64(elapsed.Milliseconds()))
	return out, nil
}
