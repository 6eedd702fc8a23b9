package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

func SeedPath(tb testing.TB, ctx context.Context, tx *gorm.DB, userID string) *learningpath.UserLearningPath {
	tb.Helper()
	now := time.Now().UTC()
	row := &learningpath.UserLearningPath{
		PathID:             uuid.New(),
		UserID:             userID,
		Name:               "seed path",
		Status:             learningpath.PathStatusActive,
		TargetHoursPerWeek: 5,
		Priority:           1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed path: %v", err)
	}
	return row
}

func CountProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, pathID uuid.UUID) int64 {
	tb.Helper()
	var n int64
	if err := tx.WithContext(ctx).Model(&learningpath.CourseProgress{}).Where("path_id = ?", pathID).Count(&n).Error; err != nil {
		tb.Fatalf("count progress: %v", err)
	}
	return n
}

func CountPaths(tb testing.TB, ctx context.Context, tx *gorm.DB, pathID uuid.UUID) int64 {
	tb.Helper()
	var n int64
	if err := tx.WithContext(ctx).Model(&learningpath.UserLearningPath{}).Where("path_id = ?", pathID).Count(&n).Error; err != nil {
		tb.Fatalf("count paths: %v", err)
	}
	return n
}
