package persist

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/learnpath-backend/internal/data/aggregates"
	pathrepos "github.com/yungbote/learnpath-backend/internal/data/repos/learningpath"
	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/dbctx"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

const persistOp = "path.persist"

// Persistor writes a path and its ordered course records as one transaction.
type Persistor struct {
	log      *logger.Logger
	tx       aggregates.TxRunner
	paths    pathrepos.PathRepo
	progress pathrepos.CourseProgressRepo
	now      func() time.Time
}

func NewPersistor(log *logger.Logger, tx aggregates.TxRunner, paths pathrepos.PathRepo, progress pathrepos.CourseProgressRepo) *Persistor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Persistor{
		log:      log.With("component", "PathPersistor"),
		tx:       tx,
		paths:    paths,
		progress: progress,
		now:      time.Now,
	}
}

// Persist inserts the path row and one progress row per course, numbered
// 1..N in (lane, order) order. Replaying an existing (path_id, course_id) pair
// is a no-op. Any failure rolls back both inserts.
func (p *Persistor) Persist(ctx context.Context, userID string, meta learningpath.PathMetadata, nodes []learningpath.PathNode) (uuid.UUID, error) {
	start := p.now()
	pathID := meta.PathID
	if pathID == uuid.Nil {
		pathID = uuid.New()
	}
	ordered := learningpath.SortNodes(learningpath.UniqueByCourse(learningpath.SortNodes(nodes)))
	createdAt := start.UTC()

	status := meta.Status
	if status == "" {
		status = learningpath.PathStatusActive
	}
	priority := meta.Priority
	if priority <= 0 {
		priority = 1
	}
	pathRow := &learningpath.UserLearningPath{
		PathID:               pathID,
		UserID:               userID,
		Name:                 meta.Name,
		Description:          meta.Description,
		Status:               status,
		TargetHoursPerWeek:   meta.TargetHoursPerWeek,
		TargetCompletionDate: meta.TargetCompletionDate,
		Priority:             priority,
		IsPublic:             meta.IsPublic,
		TemplateID:           meta.TemplateID,
		EstimatedWeeks:       meta.EstimatedWeeks,
		CreatedAt:            createdAt,
		UpdatedAt:            createdAt,
	}
	rows := make([]*learningpath.CourseProgress, 0, len(ordered))
	for _, n := range ordered {
		rows = append(rows, &learningpath.CourseProgress{
			ProgressID:    uuid.New(),
			UserID:        userID,
			PathID:        pathID,
			CourseID:      n.ID,
			Status:        learningpath.ProgressStatusNotStarted,
			SequenceOrder: n.SequenceOrder,
			CreatedAt:     createdAt,
		})
	}

	var (
		pathInserted bool
		inserted     int64
	)
	err := p.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		if pathInserted, err = p.paths.CreateIfAbsent(dbc, pathRow); err != nil {
			return err
		}
		inserted, err = p.progress.CreateIgnoreDuplicates(dbc, rows)
		return err
	})
	if err != nil {
		mapped := aggregates.MapError(persistOp, err)
		p.log.Error("path_persist_failed",
			"path_id", pathID.String(),
			"user_id", userID,
			"courses_count", len(rows),
			"error", err.Error(),
		)
		return uuid.Nil, mapped
	}

	p.log.Info("path_persisted",
		"path_id", pathID.String(),
		"user_id", userID,
		"courses_count", len(rows),
		"courses_inserted", inserted,
		"path_replayed", !pathInserted,
		"elapsed_ms", p.now().Sub(start).Milliseconds(),
	)
	return pathID, nil
}
