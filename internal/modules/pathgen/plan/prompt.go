package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

// Request is everything the generator needs to organize a path.
type Request struct {
	Goal         string
	Level        learningpath.Level
	HoursPerWeek int
	Candidates   learningpath.CandidateSet
}

// candidateView is the fixed projection of a course shown to the model.
type candidateView struct {
	CourseID      string   `json:"course_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Platform      string   `json:"platform"`
	URL           string   `json:"url"`
	Rating        *float64 `json:"rating"`
	Duration      string   `json:"duration"`
	Price         *float64 `json:"price"`
	StudentsCount *int64   `json:"students_count"`
	Language      string   `json:"language"`
	Category      string   `json:"category"`
	Level         string   `json:"level"`
	Score         float64  `json:"score"`
}

func project(c learningpath.Course) candidateView {
	return candidateView{
		CourseID:      c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Platform:      c.Platform,
		URL:           c.URL,
		Rating:        c.Rating,
		Duration:      c.Duration,
		Price:         c.Price,
		StudentsCount: c.StudentsCount,
		Language:      c.Language,
		Category:      c.Category,
		Level:         string(c.Level),
		Score:         c.Score,
	}
}

const systemPrompt = "You are a learning path architect. You design efficient, motivating " +
	"study routes out of existing online courses and answer only with JSON."

const outputContract = `{
  "name": "descriptive title of the path",
  "description": "executive summary of the path, 50 to 100 words",
  "nodes": [
    {
      "course_id": "exact course_id from the list above",
      "title": "course title",
      "reason": "why this course belongs here and what it unlocks, at least 10 words",
      "lane": 0,
      "order": 0
    }
  ],
  "roadmap_text": "markdown roadmap covering the four stages",
  "estimated_weeks": 12,
  "estimated_total_hours": 60,
  "difficulty_progression": "beginner -> intermediate -> advanced"
}`

// BuildPrompt renders the system and user prompts for req.
func BuildPrompt(req Request) (string, string, error) {
	views := make([]candidateView, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		views = append(views, project(c))
	}
	coursesJSON, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal candidates: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "LEARNER GOAL: %s\n", strings.TrimSpace(req.Goal))
	fmt.Fprintf(&b, "CURRENT LEVEL: %s\n", req.Level)
	fmt.Fprintf(&b, "AVAILABLE TIME: %d hours per week\n\n", req.HoursPerWeek)
	b.WriteString("CANDIDATE COURSES (most relevant first):\n")
	b.Write(coursesJSON)
	b.WriteString("\n\nTASK:\n")
	b.WriteString("1. Decide the role of every course in the path.\n")
	b.WriteString("2. Place each course in one of four lanes:\n")
	b.WriteString("   - lane 0 (foundations): prerequisites and basic concepts\n")
	b.WriteString("   - lane 1 (core): the main knowledge the goal requires\n")
	b.WriteString("   - lane 2 (advanced): specialization and depth\n")
	b.WriteString("   - lane 3 (capstone): a final integrating project\n")
	b.WriteString("3. Give every course an order (integer >= 0) inside its lane and a reason of at least ")
	fmt.Fprintf(&b, "%d words, written in the language of the learner goal.\n", learningpath.MinReasonWords)
	b.WriteString("4. Write roadmap_text in markdown: the progression between stages, realistic time estimates, study advice and suggested intermediate projects.\n")
	b.WriteString("5. Estimate estimated_weeks and estimated_total_hours for the available time.\n\n")
	b.WriteString("RESPONSE FORMAT (strict JSON):\n")
	b.WriteString(outputContract)
	b.WriteString("\n\nRULES:\n")
	b.WriteString("- Return ONLY the JSON object, no prose and no markdown fences.\n")
	b.WriteString("- Use only course_id values that appear in the candidate list, copied exactly.\n")
	b.WriteString("- lane must be 0, 1, 2 or 3.\n")
	return systemPrompt, b.String(), nil
}
