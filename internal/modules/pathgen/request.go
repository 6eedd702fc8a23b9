package pathgen

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

// FallbackUserID is used when neither the caller identity nor the body names a
// user.
const FallbackUserID = "test-user-123"

type Preferences struct {
	MaxPrice           *float64 `json:"max_price" validate:"omitempty,gte=0"`
	Language           string   `json:"language" validate:"omitempty,oneof=es en"`
	PreferredPlatforms []string `json:"preferred_platforms" validate:"omitempty,dive,required"`
}

// PathRequest is the inbound generation request. Unknown fields are ignored.
type PathRequest struct {
	UserQuery      string       `json:"user_query" validate:"min=10,max=500"`
	UserLevel      string       `json:"user_level" validate:"oneof=beginner intermediate advanced"`
	TimePerWeek    int          `json:"time_per_week" validate:"min=1,max=40"`
	NumCourses     int          `json:"num_courses" validate:"min=3,max=15"`
	Preferences    *Preferences `json:"preferences" validate:"omitempty"`
	UserID         string       `json:"user_id,omitempty"`
	ResponseFormat string       `json:"response_format,omitempty"`
}

// Filters converts the request preferences into search filters.
func (r PathRequest) Filters() learningpath.SearchFilters {
	f := learningpath.SearchFilters{UserLevel: learningpath.Level(r.UserLevel)}
	if r.Preferences != nil {
		f.MaxPrice = r.Preferences.MaxPrice
		f.Language = r.Preferences.Language
		f.PreferredPlatforms = r.Preferences.PreferredPlatforms
	}
	return f
}

var fieldMessages = map[string]string{
	"user_query":                      "user_query must be between 10 and 500 characters",
	"user_level":                      "user_level must be beginner, intermediate or advanced",
	"time_per_week":                   "time_per_week must be an integer between 1 and 40",
	"num_courses":                     "num_courses must be an integer between 3 and 15",
	"preferences.max_price":           "preferences.max_price must be a number greater than or equal to 0",
	"preferences.language":            "preferences.language must be es or en",
	"preferences.preferred_platforms": "preferences.preferred_platforms must be a list of strings",
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

const requestOp = "pathgen.request"

// DecodeRequest parses and validates a request body. Every failure is a
// validation error whose message is safe to return to the caller.
func DecodeRequest(body []byte) (PathRequest, error) {
	var req PathRequest
	if len(bytes.TrimSpace(body)) == 0 {
		return req, learningpath.Validation(learningpath.KindInvalidRequest, requestOp, "request body is required")
	}
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if msg, ok := fieldMessages[typeErr.Field]; ok {
				return req, learningpath.Validation(learningpath.KindInvalidRequest, requestOp, "%s", msg)
			}
		}
		return req, learningpath.Validation(learningpath.KindInvalidRequest, requestOp, "request body must be valid JSON")
	}
	return req, ValidateRequest(req)
}

// ValidateRequest reports the first invalid field of req.
func ValidateRequest(req PathRequest) error {
	err := requestValidator().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		ns := verrs[0].Namespace()
		// Namespace is rooted at the struct type name.
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		if j := strings.Index(ns, "["); j >= 0 {
			ns = ns[:j]
		}
		if msg, ok := fieldMessages[ns]; ok {
			return learningpath.Validation(learningpath.KindInvalidRequest, requestOp, "%s", msg)
		}
		return learningpath.Validation(learningpath.KindInvalidRequest, requestOp, "%s is invalid", ns)
	}
	return learningpath.Validation(learningpath.KindInvalidRequest, requestOp, "invalid request")
}

// ResolveUserID picks the authenticated subject, then the body user_id, then
// FallbackUserID. The boolean reports whether the fallback was used.
func ResolveUserID(claimSubject string, req PathRequest) (string, bool) {
	if s := strings.TrimSpace(claimSubject); s != "" {
		return s, false
	}
	if s := strings.TrimSpace(req.UserID); s != "" {
		return s, false
	}
	return FallbackUserID, true
}
