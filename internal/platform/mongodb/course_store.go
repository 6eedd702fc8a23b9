package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type Config struct {
	URI            string
	Database       string
	Collection     string
	SearchIndex    string
	EmbeddingPath  string
	AppName        string
	ConnectTimeout time.Duration
	SocketTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Database) == "" {
		c.Database = "learnia_db"
	}
	if strings.TrimSpace(c.Collection) == "" {
		c.Collection = "courses"
	}
	if strings.TrimSpace(c.SearchIndex) == "" {
		c.SearchIndex = "default"
	}
	if strings.TrimSpace(c.EmbeddingPath) == "" {
		c.EmbeddingPath = "embedding"
	}
	if strings.TrimSpace(c.AppName) == "" {
		c.AppName = "learning-path-generator"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.SocketTimeout <= 0 {
		c.SocketTimeout = 20 * time.Second
	}
	return c
}

var ErrMissingURI = errors.New("ATLAS_URI is required")

// aggregator is the part of *mongo.Collection used for vector search.
type aggregator interface {
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
}

// CourseStore runs Atlas $vectorSearch queries over the course collection.
type CourseStore struct {
	log *logger.Logger
	cfg Config

	mu     sync.Mutex
	client *mongo.Client
	coll   aggregator
}

func NewCourseStore(log *logger.Logger, cfg Config) (*CourseStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, ErrMissingURI
	}
	return &CourseStore{log: log.With("provider", "mongodb"), cfg: cfg}, nil
}

// Open connects and pings the cluster. Calling it again after success is a no-op.
func (s *CourseStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coll != nil {
		return nil
	}
	opts := options.Client().
		ApplyURI(s.cfg.URI).
		SetAppName(s.cfg.AppName).
		SetConnectTimeout(s.cfg.ConnectTimeout).
		SetSocketTimeout(s.cfg.SocketTimeout).
		SetServerSelectionTimeout(s.cfg.ConnectTimeout).
		SetRetryWrites(true)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongodb ping: %w", err)
	}
	s.client = client
	s.coll = client.Database(s.cfg.Database).Collection(s.cfg.Collection)
	s.log.Info("MongoDB course store ready", "database", s.cfg.Database, "collection", s.cfg.Collection, "index", s.cfg.SearchIndex)
	return nil
}

func (s *CourseStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client = nil
	s.coll = nil
	return err
}

// BuildPipeline returns the $vectorSearch + $project stages for a query.
func BuildPipeline(index, path string, q []float64, numCandidates, limit int) mongo.Pipeline {
	if limit < 1 {
		limit = 1
	}
	if numCandidates < limit {
		numCandidates = limit
	}
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "path", Value: path},
			{Key: "queryVector", Value: q},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: limit},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "title", Value: 1},
			{Key: "description", Value: 1},
			{Key: "url", Value: 1},
			{Key: "platform", Value: 1},
			{Key: "instructor", Value: 1},
			{Key: "rating", Value: 1},
			{Key: "duration", Value: 1},
			{Key: "price", Value: 1},
			{Key: "students_count", Value: 1},
			{Key: "language", Value: 1},
			{Key: "category", Value: 1},
			{Key: "level", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}

// NearestCourses returns up to numCandidates courses ranked by Atlas' vector
// search score. All candidates are returned so filtering can happen upstream.
func (s *CourseStore) NearestCourses(ctx context.Context, q []float64, numCandidates int) ([]learningpath.Course, error) {
	const op = "mongodb.vector_search"
	s.mu.Lock()
	coll := s.coll
	s.mu.Unlock()
	if coll == nil {
		return nil, learningpath.NewError(learningpath.ClassInternal, learningpath.KindProviderUnavailable, op, "course store not open", nil)
	}
	pipeline := BuildPipeline(s.cfg.SearchIndex, s.cfg.EmbeddingPath, q, numCandidates, numCandidates)
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, classify(op, err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(op, err)
	}
	out := make([]learningpath.Course, 0, len(docs))
	for _, doc := range docs {
		out = append(out, learningpath.CourseFromDocument(documentID(doc["_id"]), doc))
	}
	return out, nil
}

func documentID(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return learningpath.Internal(learningpath.KindProviderFailed, op, err)
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return learningpath.Transient(op, err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorLabel("RetryableReadError") || se.HasErrorLabel("TransientTransactionError")) {
		return learningpath.Transient(op, err)
	}
	return learningpath.Internal(learningpath.KindProviderFailed, op, err)
}
