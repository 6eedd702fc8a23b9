package plan

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

const validateOp = "plan.validate"

var requiredFields = []string{"name", "description", "nodes", "roadmap_text"}

// Validate checks a decoded plan document against the output contract and the
// candidate ids it may reference. Nothing from doc is trusted until it
// returns nil error.
func Validate(doc map[string]any, validIDs map[string]struct{}) (learningpath.Plan, error) {
	var missing []string
	for _, field := range requiredFields {
		if v, ok := doc[field]; !ok || v == nil {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return learningpath.Plan{}, learningpath.Contract(learningpath.KindIncompletePlan, validateOp,
			"plan is missing required fields: %s", strings.Join(missing, ", "))
	}

	name, okName := doc["name"].(string)
	description, okDesc := doc["description"].(string)
	roadmap, okRoadmap := doc["roadmap_text"].(string)
	if !okName || !okDesc || !okRoadmap {
		return learningpath.Plan{}, learningpath.Contract(learningpath.KindIncompletePlan, validateOp,
			"name, description and roadmap_text must be strings")
	}
	rawNodes, ok := doc["nodes"].([]any)
	if !ok || len(rawNodes) == 0 {
		return learningpath.Plan{}, learningpath.Contract(learningpath.KindIncompletePlan, validateOp,
			"plan must contain a non-empty list of nodes")
	}

	nodes := make([]learningpath.PlanNode, 0, len(rawNodes))
	for i, raw := range rawNodes {
		node, err := validateNode(i, raw, validIDs)
		if err != nil {
			return learningpath.Plan{}, err
		}
		nodes = append(nodes, node)
	}

	progression, _ := doc["difficulty_progression"].(string)
	return learningpath.Plan{
		Name:                  name,
		Description:           description,
		Nodes:                 nodes,
		RoadmapText:           roadmap,
		EstimatedWeeks:        PositiveInt(doc["estimated_weeks"], 0),
		EstimatedTotalHours:   PositiveInt(doc["estimated_total_hours"], 0),
		DifficultyProgression: progression,
	}, nil
}

func validateNode(i int, raw any, validIDs map[string]struct{}) (learningpath.PlanNode, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return learningpath.PlanNode{}, learningpath.Contract(learningpath.KindIncompletePlan, validateOp,
			"node %d is not an object", i)
	}

	courseID, _ := m["course_id"].(string)
	if _, known := validIDs[courseID]; courseID == "" || !known {
		return learningpath.PlanNode{}, learningpath.Contract(learningpath.KindUnknownCourseReference, validateOp,
			"node %d references unknown course_id %q", i, courseID)
	}

	lane, ok := exactInt(m["lane"])
	if !ok || lane < learningpath.LaneFoundations || lane > learningpath.LaneCapstone {
		return learningpath.PlanNode{}, learningpath.Contract(learningpath.KindInvalidLane, validateOp,
			"node %d lane must be an integer between 0 and 3", i)
	}

	order, ok := exactInt(m["order"])
	if !ok || order < 0 {
		return learningpath.PlanNode{}, learningpath.Contract(learningpath.KindInvalidOrder, validateOp,
			"node %d order must be an integer >= 0", i)
	}

	reason, _ := m["reason"].(string)
	if len(strings.Fields(reason)) < learningpath.MinReasonWords {
		return learningpath.PlanNode{}, learningpath.Contract(learningpath.KindInsufficientJustification, validateOp,
			"node %d reason must have at least %d words", i, learningpath.MinReasonWords)
	}

	title, _ := m["title"].(string)
	return learningpath.PlanNode{
		CourseID: courseID,
		Title:    strings.TrimSpace(title),
		Lane:     int(lane),
		Order:    int(order),
		Reason:   strings.TrimSpace(reason),
	}, nil
}

// exactInt accepts JSON integers only: 1 is valid, 1.0, "1" and true are not.
func exactInt(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}

// PositiveInt coerces a loosely typed numeric value, truncating toward zero,
// and returns fallback unless the result is positive.
func PositiveInt(v any, fallback int) int {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return fallback
		}
		f = parsed
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	n := int(math.Trunc(f))
	if n <= 0 {
		return fallback
	}
	return n
}
