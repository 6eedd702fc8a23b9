package search

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

// VectorSearcher returns up to numCandidates courses nearest to q, ranked by
// descending similarity and annotated with their score.
type VectorSearcher interface {
	NearestCourses(ctx context.Context, q []float64, numCandidates int) ([]learningpath.Course, error)
}

// Result is a ranked candidate set plus how it was obtained.
type Result struct {
	Courses    learningpath.CandidateSet
	Retrieved  int
	Relaxed    bool
	SearchTime time.Duration
}

type Engine struct {
	log   *logger.Logger
	store VectorSearcher
	now   func() time.Time
}

func NewEngine(log *logger.Logger, store VectorSearcher) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		log:   log.With("component", "VectorSearchEngine"),
		store: store,
		now:   time.Now,
	}
}

// Search retrieves numCandidates neighbours, applies strict filtering and,
// when that starves the result while a non-level filter is active, falls back
// to the unfiltered ranking. Level safety is not reapplied after relaxation.
// The result holds at most limit courses; fewer is not an error.
func (e *Engine) Search(ctx context.Context, vector []float64, limit, numCandidates int, filters learningpath.SearchFilters) (Result, error) {
	if limit < 1 {
		limit = 1
	}
	if numCandidates < limit {
		numCandidates = limit
	}

	start := e.now()
	ranked, err := e.store.NearestCourses(ctx, vector, numCandidates)
	if err != nil {
		e.log.Error("vector_search_failed", "error", err.Error())
		return Result{}, err
	}
	elapsed := e.now().Sub(start)

	ranked = rankByScore(ranked)
	selected, relaxed := Select(ranked, limit, filters)

	res := Result{
		Courses:    learningpath.CandidateSet(selected),
		Retrieved:  len(ranked),
		Relaxed:    relaxed,
		SearchTime: elapsed,
	}
	e.log.Info("vector_search_completed",
		"courses_found", len(res.Courses),
		"candidates_retrieved", res.Retrieved,
		"relaxed", relaxed,
		"avg_similarity_score", math.Round(res.Courses.AverageScore()*1e4)/1e4,
		"search_time_ms", elapsed.Milliseconds(),
	)
	return res, nil
}

// Select applies the strict-then-relaxed policy to an already ranked list.
func Select(ranked []learningpath.Course, limit int, filters learningpath.SearchFilters) ([]learningpath.Course, bool) {
	strict := StrictFilter(ranked, filters)
	if len(strict) < limit && filters.HasSoftFilters() {
		return truncate(ranked, limit), true
	}
	return truncate(strict, limit), false
}

// NumCandidates is the neighbour count requested from the store: ten per
// requested course, floored at minCourses and capped at maxCourses, and never
// below numCourses.
func NumCandidates(numCourses, minCourses, maxCourses int) int {
	want := numCourses
	if want < minCourses {
		want = minCourses
	}
	n := want * 10
	if maxCourses > 0 && n > maxCourses*10 {
		n = maxCourses * 10
	}
	if n < numCourses {
		n = numCourses
	}
	return n
}

func rankByScore(in []learningpath.Course) []learningpath.Course {
	out := make([]learningpath.Course, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func truncate(in []learningpath.Course, limit int) []learningpath.Course {
	if len(in) > limit {
		in = in[:limit]
	}
	out := make([]learningpath.Course, len(in))
	copy(out, in)
	return out
}
