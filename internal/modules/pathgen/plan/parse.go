package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

// RawPrefixLimit bounds how much unparseable output is kept for diagnostics.
const RawPrefixLimit = 5000

// StripFences removes a leading ``` (optionally tagged json) and its closing
// ``` from text.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimPrefix(text, "json")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

// OutputError keeps a bounded prefix of generator output that failed to parse.
type OutputError struct {
	Prefix string
	Err    error
}

func (e *OutputError) Error() string { return fmt.Sprintf("parse plan output: %v", e.Err) }

func (e *OutputError) Unwrap() error { return e.Err }

// Prefix returns at most limit runes of s.
func Prefix(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// ParseDocument decodes text as a JSON object, keeping numbers exact.
func ParseDocument(text string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var doc map[string]any
	err := dec.Decode(&doc)
	if err == nil && dec.More() {
		err = fmt.Errorf("trailing data after JSON object")
	}
	if err == nil && doc == nil {
		err = fmt.Errorf("plan output is null")
	}
	if err != nil {
		return nil, learningpath.NewError(
			learningpath.ClassContractViolation,
			learningpath.KindMalformedPlanOutput,
			"plan.parse",
			"generator output is not a JSON object",
			&OutputError{Prefix: Prefix(text, RawPrefixLimit), Err: err},
		)
	}
	return doc, nil
}
