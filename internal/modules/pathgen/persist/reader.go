package persist

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/learnpath-backend/internal/data/aggregates"
	pathrepos "github.com/yungbote/learnpath-backend/internal/data/repos/learningpath"
	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/dbctx"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

const DefaultListLimit = 50

// StoredPath is a persisted path with its course records in sequence order.
type StoredPath struct {
	Path    *learningpath.UserLearningPath   `json:"path"`
	Courses []*learningpath.CourseProgress `json:"courses"`
}

type Reader struct {
	log      *logger.Logger
	paths    pathrepos.PathRepo
	progress pathrepos.CourseProgressRepo
}

func NewReader(log *logger.Logger, paths pathrepos.PathRepo, progress pathrepos.CourseProgressRepo) *Reader {
	if log == nil {
		log = logger.NewNop()
	}
	return &Reader{log: log.With("component", "PathReader"), paths: paths, progress: progress}
}

// GetPath returns nil, nil when no path has id.
func (r *Reader) GetPath(ctx context.Context, id uuid.UUID) (*StoredPath, error) {
	dbc := dbctx.Context{Ctx: ctx}
	row, err := r.paths.GetByID(dbc, id)
	if err != nil {
		return nil, aggregates.MapError("path.get", err)
	}
	if row == nil {
		return nil, nil
	}
	courses, err := r.progress.ListByPathID(dbc, id)
	if err != nil {
		return nil, aggregates.MapError("path.get", err)
	}
	return &StoredPath{Path: row, Courses: courses}, nil
}

// ListUserPaths returns the newest paths of userID first.
func (r *Reader) ListUserPaths(ctx context.Context, userID string, limit int) ([]*learningpath.UserLearningPath, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	rows, err := r.paths.ListByUserID(dbctx.Context{Ctx: ctx}, userID, limit)
	if err != nil {
		return nil, aggregates.MapError("path.list", err)
	}
	return rows, nil
}
