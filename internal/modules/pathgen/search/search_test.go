package search

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

func fptr(v float64) *float64 { return &v }

func course(id string, level learningpath.Level, lang, platform string, price *float64, score float64) learningpath.Course {
	return learningpath.Course{ID: id, Level: level, Language: lang, Platform: platform, Price: price, Score: score}
}

func ids(cs []learningpath.Course) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestMatches(t *testing.T) {
	cases := []struct {
		name   string
		c      learningpath.Course
		f      learningpath.SearchFilters
		expect bool
	}{
		{"beginner blocks advanced", course("a", learningpath.LevelAdvanced, "", "", nil, 0), learningpath.SearchFilters{UserLevel: learningpath.LevelBeginner}, false},
		{"beginner allows intermediate", course("a", learningpath.LevelIntermediate, "", "", nil, 0), learningpath.SearchFilters{UserLevel: learningpath.LevelBeginner}, true},
		{"intermediate allows advanced", course("a", learningpath.LevelAdvanced, "", "", nil, 0), learningpath.SearchFilters{UserLevel: learningpath.LevelIntermediate}, true},
		{"unknown course level treated as intermediate", course("a", "", "", "", nil, 0), learningpath.SearchFilters{UserLevel: learningpath.LevelBeginner}, true},
		{"language mismatch", course("a", "", "en", "", nil, 0), learningpath.SearchFilters{Language: "es"}, false},
		{"platform outside preferred", course("a", "", "", "edX", nil, 0), learningpath.SearchFilters{PreferredPlatforms: []string{"Coursera", "Udemy"}}, false},
		{"platform preferred", course("a", "", "", "Udemy", nil, 0), learningpath.SearchFilters{PreferredPlatforms: []string{"Coursera", "Udemy"}}, true},
		{"price above ceiling", course("a", "", "", "", fptr(20), 0), learningpath.SearchFilters{MaxPrice: fptr(10)}, false},
		{"free under zero ceiling", course("a", "", "", "", fptr(0), 0), learningpath.SearchFilters{MaxPrice: fptr(0)}, true},
		{"missing price passes ceiling", course("a", "", "", "", nil, 0), learningpath.SearchFilters{MaxPrice: fptr(0)}, true},
		{"no filters", course("a", learningpath.LevelAdvanced, "en", "edX", fptr(99), 0), learningpath.SearchFilters{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Matches(tc.c, tc.f); got != tc.expect {
				t.Fatalf("Matches: want=%v got=%v", tc.expect, got)
			}
		})
	}
}

func rankedCorpus() []learningpath.Course {
	return []learningpath.Course{
		course("c1", learningpath.LevelBeginner, "en", "Udemy", fptr(50), 0.95),
		course("c2", learningpath.LevelAdvanced, "es", "Coursera", nil, 0.93),
		course("c3", learningpath.LevelBeginner, "es", "Udemy", fptr(0), 0.91),
		course("c4", learningpath.LevelIntermediate, "en", "edX", fptr(10), 0.90),
		course("c5", learningpath.LevelBeginner, "en", "Coursera", fptr(5), 0.88),
		course("c6", learningpath.LevelIntermediate, "es", "Platzi", fptr(30), 0.87),
	}
}

func TestSelectWithoutFiltersMatchesUnfilteredPrefix(t *testing.T) {
	corpus := rankedCorpus()
	for limit := 1; limit <= len(corpus)+1; limit++ {
		got, relaxed := Select(corpus, limit, learningpath.SearchFilters{})
		want := corpus
		if limit < len(want) {
			want = want[:limit]
		}
		if relaxed || !reflect.DeepEqual(ids(got), ids(want)) {
			t.Fatalf("limit=%d: relaxed=%v got=%v", limit, relaxed, ids(got))
		}
	}
}

func TestSelectRelaxesWhenSoftFiltersStarve(t *testing.T) {
	corpus := rankedCorpus()
	f := learningpath.SearchFilters{UserLevel: learningpath.LevelBeginner, Language: "es"}
	got, relaxed := Select(corpus, 3, f)
	if !relaxed {
		t.Fatalf("expected relaxation")
	}
	// Level safety is not preserved: c2 is advanced.
	if want := []string{"c1", "c2", "c3"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("relaxed: want=%v got=%v", want, ids(got))
	}
}

func TestSelectKeepsStrictWhenEnough(t *testing.T) {
	f := learningpath.SearchFilters{MaxPrice: fptr(40)}
	got, relaxed := Select(rankedCorpus(), 3, f)
	if relaxed {
		t.Fatalf("unexpected relaxation")
	}
	if want := []string{"c2", "c3", "c4"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("strict: want=%v got=%v", want, ids(got))
	}
}

func TestSelectLevelOnlyNeverRelaxes(t *testing.T) {
	f := learningpath.SearchFilters{UserLevel: learningpath.LevelBeginner}
	got, relaxed := Select(rankedCorpus(), 6, f)
	if relaxed {
		t.Fatalf("level filter alone must not trigger relaxation")
	}
	if len(got) != 5 {
		t.Fatalf("want 5 strict results, got=%v", ids(got))
	}
}

func TestNumCandidates(t *testing.T) {
	cases := []struct{ num, min, max, want int }{
		{5, 3, 10, 50},
		{2, 3, 10, 30},
		{15, 3, 10, 100},
		{15, 3, 1, 15},
	}
	for _, tc := range cases {
		if got := NumCandidates(tc.num, tc.min, tc.max); got != tc.want {
			t.Fatalf("NumCandidates(%d,%d,%d): want=%d got=%d", tc.num, tc.min, tc.max, tc.want, got)
		}
	}
}

type fakeStore struct {
	courses []learningpath.Course
	err     error
	asked   int
}

func (f *fakeStore) NearestCourses(_ context.Context, _ []float64, n int) ([]learningpath.Course, error) {
	f.asked = n
	if f.err != nil {
		return nil, f.err
	}
	if len(f.courses) > n {
		return f.courses[:n], nil
	}
	return f.courses, nil
}

func TestEngineSearch(t *testing.T) {
	corpus := rankedCorpus()
	// Stores may hand back ties or slightly unordered results.
	shuffled := []learningpath.Course{corpus[3], corpus[0], corpus[5], corpus[1], corpus[4], corpus[2]}
	store := &fakeStore{courses: shuffled}
	e := NewEngine(logger.NewNop(), store)

	res, err := e.Search(context.Background(), []float64{1}, 4, 2, learningpath.SearchFilters{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if store.asked != 4 {
		t.Fatalf("numCandidates must be raised to limit: got=%d", store.asked)
	}
	if want := []string{"c1", "c2", "c4", "c6"}; !reflect.DeepEqual(ids(res.Courses), want) {
		t.Fatalf("ranking: want=%v got=%v", want, ids(res.Courses))
	}

	store.err = errors.New("boom")
	if _, err := e.Search(context.Background(), []float64{1}, 4, 40, learningpath.SearchFilters{}); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestEngineSearchReturnsFewerWithoutError(t *testing.T) {
	store := &fakeStore{courses: rankedCorpus()[:2]}
	e := NewEngine(logger.NewNop(), store)
	res, err := e.Search(context.Background(), []float64{1}, 5, 50, learningpath.SearchFilters{Language: "fr"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Courses) != 2 || !res.Relaxed {
		t.Fatalf("got=%v relaxed=%v", ids(res.Courses), res.Relaxed)
	}
	if res.Retrieved != 2 {
		t.Fatalf("retrieved: got=%d", res.Retrieved)
	}
}
