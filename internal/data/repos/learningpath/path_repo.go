package learningpath

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	lp "github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/dbctx"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type PathRepo interface {
	Create(dbc dbctx.Context, row *lp.UserLearningPath) error
	// CreateIfAbsent inserts row unless its path id exists and reports
	// whether a row was written.
	CreateIfAbsent(dbc dbctx.Context, row *lp.UserLearningPath) (bool, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*lp.UserLearningPath, error)
	ListByUserID(dbc dbctx.Context, userID string, limit int) ([]*lp.UserLearningPath, error)
}

type pathRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathRepo(db *gorm.DB, baseLog *logger.Logger) PathRepo {
	return &pathRepo{
		db:  db,
		log: baseLog.With("repo", "PathRepo"),
	}
}

// Create inserts row, generating the path id and timestamps when unset.
func (r *pathRepo) Create(dbc dbctx.Context, row *lp.UserLearningPath) error {
	if row == nil {
		return nil
	}
	applyPathDefaults(row)
	return dbc.DB(r.db).Create(row).Error
}

func (r *pathRepo) CreateIfAbsent(dbc dbctx.Context, row *lp.UserLearningPath) (bool, error) {
	if row == nil {
		return false, nil
	}
	applyPathDefaults(row)
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "path_id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func applyPathDefaults(row *lp.UserLearningPath) {
	if row.PathID == uuid.Nil {
		row.PathID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	if row.Status == "" {
		row.Status = lp.PathStatusActive
	}
}

func (r *pathRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*lp.UserLearningPath, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out lp.UserLearningPath
	err := dbc.DB(r.db).Where("path_id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *pathRepo) ListByUserID(dbc dbctx.Context, userID string, limit int) ([]*lp.UserLearningPath, error) {
	var out []*lp.UserLearningPath
	if userID == "" {
		return out, nil
	}
	q := dbc.DB(r.db).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
