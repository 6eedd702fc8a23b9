package app

import (
	"errors"
	"testing"

	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/platform/mongodb"
	"github.com/yungbote/learnpath-backend/internal/platform/qdrant"
)

func TestResolveCourseStoreQdrantSelected(t *testing.T) {
	orig := newQdrantCourseStore
	t.Cleanup(func() { newQdrantCourseStore = orig })

	inner := &fakeCourseStore{}
	var captured qdrant.Config
	newQdrantCourseStore = func(_ *logger.Logger, cfg qdrant.Config) (CourseStore, error) {
		captured = cfg
		return inner, nil
	}

	cs, err := resolveCourseStore(logger.NewNop(), Config{
		VectorProvider:   "qdrant",
		QdrantURL:        " http://qdrant:6333 ",
		QdrantCollection: "courses",
		QdrantVectorDim:  1024,
	})
	if err != nil {
		t.Fatalf("resolveCourseStore: %v", err)
	}
	if _, ok := cs.(*instrumentedCourseStore); !ok {
		t.Fatalf("store is not instrumented: %T", cs)
	}
	if captured.URL != "http://qdrant:6333" || captured.VectorDim != 1024 {
		t.Fatalf("qdrant config: got=%+v", captured)
	}
}

func TestResolveCourseStoreMongoNeverCallsQdrant(t *testing.T) {
	origMongo, origQdrant := newMongoCourseStore, newQdrantCourseStore
	t.Cleanup(func() {
		newMongoCourseStore = origMongo
		newQdrantCourseStore = origQdrant
	})

	mongoCalls, qdrantCalls := 0, 0
	newMongoCourseStore = func(_ *logger.Logger, cfg mongodb.Config) (CourseStore, error) {
		mongoCalls++
		if cfg.URI != "mongodb+srv://cluster" || cfg.SearchIndex != "vector_index" {
			t.Fatalf("mongodb config: got=%+v", cfg)
		}
		return &fakeCourseStore{}, nil
	}
	newQdrantCourseStore = func(*logger.Logger, qdrant.Config) (CourseStore, error) {
		qdrantCalls++
		return &fakeCourseStore{}, nil
	}

	if _, err := resolveCourseStore(logger.NewNop(), Config{
		VectorProvider: "mongodb",
		AtlasURI:       "mongodb+srv://cluster",
		AtlasIndex:     "vector_index",
	}); err != nil {
		t.Fatalf("resolveCourseStore: %v", err)
	}
	if mongoCalls != 1 || qdrantCalls != 0 {
		t.Fatalf("init calls: mongo=%d qdrant=%d", mongoCalls, qdrantCalls)
	}
}

func TestResolveCourseStoreClassifiesErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want VectorProviderBootstrapErrorCode
	}{
		{"unknown provider", Config{VectorProvider: "pinecone"}, VectorProviderBootstrapErrorInvalidProvider},
		{"missing atlas uri", Config{VectorProvider: "mongodb"}, VectorProviderBootstrapErrorMissingAtlasURI},
		{"missing qdrant url", Config{VectorProvider: "qdrant", QdrantCollection: "courses", QdrantVectorDim: 3}, VectorProviderBootstrapErrorMissingQdrantURL},
		{"invalid qdrant url", Config{VectorProvider: "qdrant", QdrantURL: "qdrant:6333", QdrantCollection: "courses", QdrantVectorDim: 3}, VectorProviderBootstrapErrorInvalidQdrantURL},
		{"invalid qdrant dim", Config{VectorProvider: "qdrant", QdrantURL: "http://qdrant:6333", QdrantCollection: "courses", QdrantVectorDim: -1}, VectorProviderBootstrapErrorInvalidQdrantVector},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolveCourseStore(logger.NewNop(), tc.cfg)
			var got *VectorProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected VectorProviderBootstrapError, got=%T (%v)", err, err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%s got=%s", tc.want, got.Code)
			}
		})
	}
}
