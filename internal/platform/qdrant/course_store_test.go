package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

func TestNearestCoursesRequestShapeAndDecoding(t *testing.T) {
	var captured map[string]any
	s := newTestCourseStore(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost {
			t.Fatalf("method: want=%s got=%s", http.MethodPost, r.Method)
		}
		if r.URL.Path != "/collections/courses/points/search" {
			t.Fatalf("path: want=%q got=%q", "/collections/courses/points/search", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, []map[string]any{
			{"id": "2b0c", "score": 0.91, "payload": map[string]any{"course_id": "c-1", "title": "Python", "price": 10.0, "level": "beginner"}},
			{"id": 42, "score": 0.80, "payload": map[string]any{"title": "Django"}},
		}), nil
	})

	courses, err := s.NearestCourses(context.Background(), []float64{1, 0, 0}, 30)
	if err != nil {
		t.Fatalf("NearestCourses: %v", err)
	}
	if captured["limit"] != float64(30) {
		t.Fatalf("limit: want=30 got=%v", captured["limit"])
	}
	if captured["with_payload"] != true {
		t.Fatalf("with_payload: got=%v", captured["with_payload"])
	}
	if len(courses) != 2 {
		t.Fatalf("courses: want=2 got=%d", len(courses))
	}
	if courses[0].ID != "c-1" || courses[0].Score != 0.91 || courses[0].Level != learningpath.LevelBeginner {
		t.Fatalf("first course: %+v", courses[0])
	}
	if courses[1].ID != "42" {
		t.Fatalf("point id fallback: got=%q", courses[1].ID)
	}
}

func TestNearestCoursesRejectsDimensionMismatch(t *testing.T) {
	s := newTestCourseStore(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	_, err := s.NearestCourses(context.Background(), []float64{1, 2}, 10)
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Code != OperationErrorValidation {
		t.Fatalf("want validation OperationError, got %v", err)
	}
	if learningpath.IsTransient(err) {
		t.Fatalf("dimension mismatch must not be retried")
	}
}

func TestNearestCoursesUpstreamErrorsAreTransient(t *testing.T) {
	s := newTestCourseStore(t, func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Header:     make(http.Header),
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"status":{"error":"overloaded"}}`))),
		}, nil
	})
	if _, err := s.NearestCourses(context.Background(), []float64{1, 0, 0}, 10); !learningpath.IsTransient(err) {
		t.Fatalf("want transient got %v", err)
	}

	s = newTestCourseStore(t, func(r *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("connection refused")
	})
	if _, err := s.NearestCourses(context.Background(), []float64{1, 0, 0}, 10); !learningpath.IsTransient(err) {
		t.Fatalf("transport: want transient got %v", err)
	}
}

func TestOpenRecordsDistanceAndChecksSize(t *testing.T) {
	s := newTestCourseStore(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path == "/readyz" {
			return &http.Response{StatusCode: http.StatusOK, Header: make(http.Header), Body: io.NopCloser(bytes.NewReader(nil))}, nil
		}
		return okResponse(t, map[string]any{
			"config": map[string]any{"params": map[string]any{"vectors": map[string]any{"size": 3, "distance": "Euclid"}}},
		}), nil
	})
	s.distance = ""
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := s.normalizeScore(1); got != 0.5 {
		t.Fatalf("euclid normalization: want=0.5 got=%f", got)
	}

	s.cfg.VectorDim = 1024
	var opErr *OperationError
	if err := s.Open(context.Background()); !errors.As(err, &opErr) || opErr.Code != OperationErrorValidation {
		t.Fatalf("size mismatch: got %v", err)
	}
}

func TestParseEnvelopeStatus(t *testing.T) {
	if got := parseEnvelopeStatus(json.RawMessage(`"ok"`)); got != "" {
		t.Fatalf("ok status: got=%q", got)
	}
	if got := parseEnvelopeStatus(json.RawMessage(`{"error":"bad filter"}`)); got != "bad filter" {
		t.Fatalf("error status: got=%q", got)
	}
}

func newTestCourseStore(t *testing.T, roundTrip func(*http.Request) (*http.Response, error)) *CourseStore {
	t.Helper()
	return &CourseStore{
		log:      logger.NewNop(),
		cfg:      Config{Collection: "courses", VectorDim: 3},
		baseURL:  "http://qdrant.local",
		http:     &http.Client{Transport: roundTripFunc(roundTrip)},
		distance: "cosine",
	}
}

func okResponse(t *testing.T, result any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"result": result, "status": "ok", "time": 0.001})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
