package learningpath

import "testing"

func TestCourseFromDocumentCoercesNumbers(t *testing.T) {
	doc := map[string]any{
		"title":          " Python para principiantes ",
		"platform":       "Udemy",
		"rating":         int32(4),
		"price":          "19.99",
		"students_count": float64(1200),
		"level":          "Beginner",
		"score":          0.87,
	}
	c := CourseFromDocument("65f0a", doc)
	if c.ID != "65f0a" || c.Title != "Python para principiantes" {
		t.Fatalf("strings: %+v", c)
	}
	if c.Rating == nil || *c.Rating != 4 {
		t.Fatalf("rating: %v", c.Rating)
	}
	if c.Price == nil || *c.Price != 19.99 {
		t.Fatalf("price: %v", c.Price)
	}
	if c.StudentsCount == nil || *c.StudentsCount != 1200 {
		t.Fatalf("students: %v", c.StudentsCount)
	}
	if c.Level != LevelBeginner || c.Score != 0.87 {
		t.Fatalf("level/score: %q %f", c.Level, c.Score)
	}
}

func TestCourseFromDocumentLeavesMissingPriceNil(t *testing.T) {
	c := CourseFromDocument("", map[string]any{"course_id": "abc", "price": nil})
	if c.ID != "abc" {
		t.Fatalf("id fallback: got=%q", c.ID)
	}
	if c.Price != nil {
		t.Fatalf("price should be nil")
	}
}
