package plan

import (
	"encoding/json"
	"sort"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

// EnvelopeShape is one known way a generator wraps its text output.
type EnvelopeShape string

const (
	ShapeOutputMessage EnvelopeShape = "output.message.content"
	ShapeOutputText    EnvelopeShape = "outputText"
	ShapeMessage       EnvelopeShape = "message.content"
)

type contentBlock struct {
	Text *string `json:"text"`
}

type messageBody struct {
	Content []contentBlock `json:"content"`
}

func (m *messageBody) firstText() (string, bool) {
	if m == nil || len(m.Content) == 0 || m.Content[0].Text == nil || *m.Content[0].Text == "" {
		return "", false
	}
	return *m.Content[0].Text, true
}

type envelopeParser struct {
	shape EnvelopeShape
	parse func(raw []byte) (string, bool)
}

// envelopeParsers are tried in order; the first that recognizes the payload wins.
var envelopeParsers = []envelopeParser{
	{shape: ShapeOutputMessage, parse: parseOutputMessage},
	{shape: ShapeOutputText, parse: parseOutputText},
	{shape: ShapeMessage, parse: parseMessage},
}

func parseOutputMessage(raw []byte) (string, bool) {
	var env struct {
		Output *struct {
			Message *messageBody `json:"message"`
		} `json:"output"`
	}
	if json.Unmarshal(raw, &env) != nil || env.Output == nil {
		return "", false
	}
	return env.Output.Message.firstText()
}

func parseOutputText(raw []byte) (string, bool) {
	var env struct {
		OutputText *string `json:"outputText"`
	}
	if json.Unmarshal(raw, &env) != nil || env.OutputText == nil {
		return "", false
	}
	return *env.OutputText, true
}

func parseMessage(raw []byte) (string, bool) {
	var env struct {
		Message *messageBody `json:"message"`
	}
	if json.Unmarshal(raw, &env) != nil {
		return "", false
	}
	return env.Message.firstText()
}

// ExtractText returns the generated text carried by a raw response envelope
// and the shape that matched.
func ExtractText(raw []byte) (string, EnvelopeShape, error) {
	for _, p := range envelopeParsers {
		if text, ok := p.parse(raw); ok {
			return text, p.shape, nil
		}
	}
	return "", "", learningpath.Contract(
		learningpath.KindUnrecognizedResponseShape,
		"plan.envelope",
		"unrecognized response envelope (keys: %v)", topLevelKeys(raw),
	)
}

func topLevelKeys(raw []byte) []string {
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
