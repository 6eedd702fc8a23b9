package learningpath

import (
	"time"

	"github.com/google/uuid"
)

type UserLearningPath struct {
	PathID               uuid.UUID  `gorm:"column:path_id;type:uuid;primaryKey" json:"path_id"`
	UserID               string     `gorm:"column:user_id;not null;index" json:"user_id"`
	Name                 string     `gorm:"column:name;not null" json:"name"`
	Description          string     `gorm:"column:description;type:text" json:"description,omitempty"`
	Status               string     `gorm:"column:status;not null;default:'active';index" json:"status"`
	ProgressPercentage   float64    `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`
	TargetHoursPerWeek   int        `gorm:"column:target_hours_per_week;not null;default:5" json:"target_hours_per_week"`
	TargetCompletionDate *time.Time `gorm:"column:target_completion_date" json:"target_completion_date,omitempty"`
	Priority             int        `gorm:"column:priority;not null;default:1" json:"priority"`
	IsPublic             bool       `gorm:"column:is_public;not null;default:false" json:"is_public"`
	TemplateID           *string    `gorm:"column:template_id" json:"template_id,omitempty"`
	EstimatedWeeks       int        `gorm:"column:estimated_weeks;not null;default:0" json:"estimated_weeks"`
	CreatedAt            time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (UserLearningPath) TableName() string { return "user_learning_paths" }

// CourseProgress holds at most one row per (path_id, course_id).
type CourseProgress struct {
	ProgressID         uuid.UUID         `gorm:"column:progress_id;type:uuid;primaryKey" json:"progress_id"`
	UserID             string            `gorm:"column:user_id;not null;index" json:"user_id"`
	PathID             uuid.UUID         `gorm:"column:path_id;type:uuid;not null;uniqueIndex:idx_course_progress_path_course,priority:1" json:"path_id"`
	Path               *UserLearningPath `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathID;references:PathID" json:"-"`
	CourseID           string            `gorm:"column:course_id;not null;uniqueIndex:idx_course_progress_path_course,priority:2" json:"course_id"`
	Status             string            `gorm:"column:status;not null;default:'not_started'" json:"status"`
	ProgressPercentage float64           `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`
	SequenceOrder      int               `gorm:"column:sequence_order;not null" json:"sequence_order"`
	CreatedAt          time.Time         `gorm:"column:created_at;not null" json:"created_at"`
}

func (CourseProgress) TableName() string { return "course_progress" }
