package learningpath

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	lp "github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/dbctx"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type CourseProgressRepo interface {
	// CreateIgnoreDuplicates inserts rows, skipping any whose (path_id,
	// course_id) already exists. It returns the number of rows written.
	CreateIgnoreDuplicates(dbc dbctx.Context, rows []*lp.CourseProgress) (int64, error)
	ListByPathID(dbc dbctx.Context, pathID uuid.UUID) ([]*lp.CourseProgress, error)
}

type courseProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseProgressRepo(db *gorm.DB, baseLog *logger.Logger) CourseProgressRepo {
	return &courseProgressRepo{
		db:  db,
		log: baseLog.With("repo", "CourseProgressRepo"),
	}
}

func (r *courseProgressRepo) CreateIgnoreDuplicates(dbc dbctx.Context, rows []*lp.CourseProgress) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ProgressID == uuid.Nil {
			row.ProgressID = uuid.New()
		}
		if row.Status == "" {
			row.Status = lp.ProgressStatusNotStarted
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *courseProgressRepo) ListByPathID(dbc dbctx.Context, pathID uuid.UUID) ([]*lp.CourseProgress, error) {
	var out []*lp.CourseProgress
	if pathID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("path_id = ?", pathID).
		Order("sequence_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
