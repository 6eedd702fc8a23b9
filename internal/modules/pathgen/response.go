package pathgen

import (
	"time"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

type CourseView struct {
	CourseID string   `json:"course_id"`
	Title    string   `json:"title"`
	Platform string   `json:"platform"`
	URL      string   `json:"url"`
	Rating   *float64 `json:"rating"`
	Duration string   `json:"duration"`
	Lane     int      `json:"lane"`
	Order    int      `json:"order"`
	Reason   string   `json:"reason"`
}

// PathResponse is the wire shape returned for a generated path.
type PathResponse struct {
	PathID                string       `json:"path_id"`
	UserID                string       `json:"user_id"`
	Name                  string       `json:"name"`
	Description           string       `json:"description"`
	Courses               []CourseView `json:"courses"`
	RoadmapText           string       `json:"roadmap_text"`
	EstimatedWeeks        int          `json:"estimated_weeks"`
	EstimatedTotalHours   int          `json:"estimated_total_hours"`
	DifficultyProgression string       `json:"difficulty_progression"`
	CreatedAt             string       `json:"created_at"`
	Status                string       `json:"status"`
	UserQuery             string       `json:"user_query"`
	Persisted             bool         `json:"persisted"`
}

func BuildResponse(p learningpath.LearningPath) PathResponse {
	nodes := learningpath.SortNodes(p.Nodes)
	courses := make([]CourseView, 0, len(nodes))
	for _, n := range nodes {
		courses = append(courses, CourseView{
			CourseID: n.ID,
			Title:    n.Title,
			Platform: n.Platform,
			URL:      n.URL,
			Rating:   n.Rating,
			Duration: n.Duration,
			Lane:     n.Lane,
			Order:    n.Order,
			Reason:   n.Reason,
		})
	}
	status := p.Status
	if status == "" {
		status = learningpath.PathStatusActive
	}
	return PathResponse{
		PathID:                p.PathID.String(),
		UserID:                p.UserID,
		Name:                  p.Name,
		Description:           p.Description,
		Courses:               courses,
		RoadmapText:           p.RoadmapText,
		EstimatedWeeks:        p.EstimatedWeeks,
		EstimatedTotalHours:   p.EstimatedTotalHours,
		DifficultyProgression: p.DifficultyProgression,
		CreatedAt:             p.CreatedAt.UTC().Format(time.RFC3339),
		Status:                status,
		UserQuery:             p.UserQuery,
		Persisted:             p.Durable,
	}
}
