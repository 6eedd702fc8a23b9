package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&learningpath.UserLearningPath{},
		&learningpath.CourseProgress{},
	)
}
