package search

import (
	"strings"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

// unknownTier is assumed for courses or requests whose level is missing or
// unrecognized.
const unknownTier = 1

func tierOf(l learningpath.Level) int {
	if t, ok := l.Tier(); ok {
		return t
	}
	return unknownTier
}

// Matches reports whether c passes every strict filter in f.
//
// Level: beginners never see advanced courses, and no request sees courses
// more than one tier above its own. Language and platform must match exactly
// when set. A course without a price always passes the price ceiling.
func Matches(c learningpath.Course, f learningpath.SearchFilters) bool {
	if f.UserLevel == learningpath.LevelBeginner && c.Level == learningpath.LevelAdvanced {
		return false
	}
	if lang := strings.TrimSpace(f.Language); lang != "" && c.Language != lang {
		return false
	}
	if len(f.PreferredPlatforms) > 0 && !containsString(f.PreferredPlatforms, c.Platform) {
		return false
	}
	if f.MaxPrice != nil && c.Price != nil && *c.Price > *f.MaxPrice {
		return false
	}
	if f.UserLevel != "" && tierOf(c.Level) > tierOf(f.UserLevel)+1 {
		return false
	}
	return true
}

// StrictFilter keeps the candidates that match f, preserving order.
func StrictFilter(candidates []learningpath.Course, f learningpath.SearchFilters) []learningpath.Course {
	out := make([]learningpath.Course, 0, len(candidates))
	for _, c := range candidates {
		if Matches(c, f) {
			out = append(out, c)
		}
	}
	return out
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
