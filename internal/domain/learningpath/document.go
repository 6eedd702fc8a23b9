package learningpath

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CourseFromDocument converts a loosely typed store document (BSON map, JSON
// payload) into a Course. Missing or mistyped fields are left at zero; numeric
// fields accept any integer or float representation.
func CourseFromDocument(id string, doc map[string]any) Course {
	c := Course{
		ID:          strings.TrimSpace(id),
		Title:       docString(doc, "title"),
		Description: docString(doc, "description"),
		Platform:    docString(doc, "platform"),
		URL:         docString(doc, "url"),
		Instructor:  docString(doc, "instructor"),
		Duration:    docString(doc, "duration"),
		Language:    docString(doc, "language"),
		Category:    docString(doc, "category"),
		Level:       Level(strings.ToLower(docString(doc, "level"))),
	}
	if c.ID == "" {
		c.ID = docString(doc, "course_id")
	}
	if v, ok := docFloat(doc, "rating"); ok {
		c.Rating = &v
	}
	if v, ok := docFloat(doc, "price"); ok {
		c.Price = &v
	}
	if v, ok := docFloat(doc, "students_count"); ok {
		n := int64(v)
		c.StudentsCount = &n
	}
	if v, ok := docFloat(doc, "score"); ok {
		c.Score = v
	}
	return c
}

func docString(doc map[string]any, key string) string {
	switch v := doc[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case float64, float32, int, int32, int64:
		return strings.TrimSpace(fmt.Sprint(v))
	default:
		return ""
	}
}

func docFloat(doc map[string]any, key string) (float64, bool) {
	var f float64
	switch v := doc[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
