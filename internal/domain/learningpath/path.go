package learningpath

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	LaneFoundations = 0
	LaneCore        = 1
	LaneAdvanced    = 2
	LaneCapstone    = 3

	MinReasonWords = 10

	PathStatusActive         = "active"
	ProgressStatusNotStarted = "not_started"
)

// PlanNode is the generator's placement of one candidate course.
type PlanNode struct {
	CourseID string `json:"course_id"`
	Title    string `json:"title,omitempty"`
	Lane     int    `json:"lane"`
	Order    int    `json:"order"`
	Reason   string `json:"reason"`
}

// Plan is a generator response that passed validation.
type Plan struct {
	Name                  string
	Description           string
	Nodes                 []PlanNode
	RoadmapText           string
	EstimatedWeeks        int
	EstimatedTotalHours   int
	DifficultyProgression string
}

// PathNode is a plan node merged with its course metadata.
type PathNode struct {
	Course
	Lane          int    `json:"lane"`
	Order         int    `json:"order"`
	Reason        string `json:"reason"`
	SequenceOrder int    `json:"sequence_order"`
}

// SortNodes orders nodes by (lane, order), keeping input order on ties, and
// assigns 1-based sequence orders.
func SortNodes(nodes []PathNode) []PathNode {
	out := make([]PathNode, len(nodes))
	copy(out, nodes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Lane != out[j].Lane {
			return out[i].Lane < out[j].Lane
		}
		return out[i].Order < out[j].Order
	})
	for i := range out {
		out[i].SequenceOrder = i + 1
	}
	return out
}

// PathMetadata is the path row content supplied to persistence.
type PathMetadata struct {
	PathID               uuid.UUID
	Name                 string
	Description          string
	Status               string
	TargetHoursPerWeek   int
	EstimatedWeeks       int
	TargetCompletionDate *time.Time
	Priority             int
	IsPublic             bool
	TemplateID           *string
}

type LearningPath struct {
	PathID                uuid.UUID
	UserID                string
	Name                  string
	Description           string
	TargetHoursPerWeek    int
	Status                string
	CreatedAt             time.Time
	EstimatedWeeks        int
	EstimatedTotalHours   int
	DifficultyProgression string
	RoadmapText           string
	Nodes                 []PathNode
	UserQuery             string
	// Durable is false when the path could not be persisted and PathID was
	// generated locally.
	Durable bool
}

// UniqueByCourse drops nodes whose course id already appeared earlier in
// nodes.
func UniqueByCourse(nodes []PathNode) []PathNode {
	seen := make(map[string]struct{}, len(nodes))
	out := make([]PathNode, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}
