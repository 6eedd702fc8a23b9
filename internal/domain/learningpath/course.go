package learningpath

import "strings"

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Tier orders levels: beginner=0, intermediate=1, advanced=2. Unknown levels
// report ok=false.
func (l Level) Tier() (int, bool) {
	switch l {
	case LevelBeginner:
		return 0, true
	case LevelIntermediate:
		return 1, true
	case LevelAdvanced:
		return 2, true
	default:
		return 0, false
	}
}

func (l Level) Valid() bool {
	_, ok := l.Tier()
	return ok
}

func ParseLevel(raw string) (Level, bool) {
	l := Level(strings.ToLower(strings.TrimSpace(raw)))
	return l, l.Valid()
}

// Course is a read-only snapshot of a corpus document as returned by a vector
// search. Score is query-relative and never persisted.
type Course struct {
	ID            string   `json:"course_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Platform      string   `json:"platform"`
	URL           string   `json:"url"`
	Instructor    string   `json:"instructor,omitempty"`
	Rating        *float64 `json:"rating"`
	Duration      string   `json:"duration"`
	Price         *float64 `json:"price"`
	StudentsCount *int64   `json:"students_count,omitempty"`
	Language      string   `json:"language,omitempty"`
	Category      string   `json:"category,omitempty"`
	Level         Level    `json:"level,omitempty"`
	Score         float64  `json:"score"`
}

// SearchFilters are soft and hard constraints on retrieval. Zero values mean
// "no constraint".
type SearchFilters struct {
	UserLevel          Level
	MaxPrice           *float64
	Language           string
	PreferredPlatforms []string
}

// HasSoftFilters reports whether any constraint other than level is active.
func (f SearchFilters) HasSoftFilters() bool {
	return f.MaxPrice != nil || strings.TrimSpace(f.Language) != "" || len(f.PreferredPlatforms) > 0
}

// CandidateSet is ordered by descending similarity score.
type CandidateSet []Course

func (c CandidateSet) IDs() map[string]struct{} {
	out := make(map[string]struct{}, len(c))
	for _, course := range c {
		out[course.ID] = struct{}{}
	}
	return out
}

func (c CandidateSet) Index() map[string]Course {
	out := make(map[string]Course, len(c))
	for _, course := range c {
		out[course.ID] = course
	}
	return out
}

func (c CandidateSet) AverageScore() float64 {
	if len(c) == 0 {
		return 0
	}
	total := 0.0
	for _, course := range c {
		total += course.Score
	}
	return total / float64(len(c))
}
