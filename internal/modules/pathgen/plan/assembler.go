package plan

import (
	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

// Assemble merges each validated plan node with the course it references.
// Plan fields win over course fields. A course placed twice keeps its first
// placement; the result is sorted by (lane, order) with 1-based sequence orders.
func Assemble(p learningpath.Plan, candidates learningpath.CandidateSet) ([]learningpath.PathNode, error) {
	index := candidates.Index()
	nodes := make([]learningpath.PathNode, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		course, ok := index[n.CourseID]
		if !ok {
			return nil, learningpath.Contract(learningpath.KindDanglingCourseReference, "plan.assemble",
				"course %q is not in the candidate set", n.CourseID)
		}
		if n.Title != "" {
			course.Title = n.Title
		}
		nodes = append(nodes, learningpath.PathNode{
			Course: course,
			Lane:   n.Lane,
			Order:  n.Order,
			Reason: n.Reason,
		})
	}
	return learningpath.SortNodes(learningpath.UniqueByCourse(nodes)), nil
}
