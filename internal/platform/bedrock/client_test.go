package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

type fakeAPI struct {
	inputs []*bedrockruntime.InvokeModelInput
	body   []byte
	err    error
}

func (f *fakeAPI) InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func TestEmbedSendsInputTextAndChecksDimension(t *testing.T) {
	api := &fakeAPI{body: []byte(`{"embedding":[0.1,0.2,0.3],"inputTextTokenCount":4}`)}
	c := NewWithAPI(nil, api, Config{EmbeddingDim: 3}, nil)
	vec, err := c.Embed(context.Background(), "aprender python")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("len: want=3 got=%d", len(vec))
	}
	var sent map[string]string
	if err := json.Unmarshal(api.inputs[0].Body, &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if sent["inputText"] != "aprender python" {
		t.Fatalf("inputText: got=%q", sent["inputText"])
	}
	if aws.ToString(api.inputs[0].ModelId) != "amazon.titan-embed-text-v2:0" {
		t.Fatalf("model: got=%q", aws.ToString(api.inputs[0].ModelId))
	}

	c = NewWithAPI(nil, api, Config{EmbeddingDim: 1024}, nil)
	if _, err := c.Embed(context.Background(), "aprender python"); !learningpath.IsClass(err, learningpath.ClassContractViolation) {
		t.Fatalf("dimension mismatch: want contract violation got %v", err)
	}
}

func TestGenerateBuildsMessagesPayload(t *testing.T) {
	api := &fakeAPI{body: []byte(`{"output":{"message":{"content":[{"text":"{}"}]}}}`)}
	c := NewWithAPI(nil, api, Config{Temperature: 0.7}, nil)
	raw, err := c.Generate(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(raw) != string(api.body) {
		t.Fatalf("envelope must be returned untouched")
	}
	var sent generateRequest
	if err := json.Unmarshal(api.inputs[0].Body, &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if len(sent.Messages) != 2 || sent.Messages[0].Role != "system" || sent.Messages[1].Content[0].Text != "user" {
		t.Fatalf("messages: %+v", sent.Messages)
	}
	if sent.InferenceConfig.MaxTokens != 4096 || sent.InferenceConfig.TopP != 0.9 || sent.InferenceConfig.Temperature != 0.7 {
		t.Fatalf("inference config: %+v", sent.InferenceConfig)
	}
}

func TestClassifyThrottlingIsTransient(t *testing.T) {
	api := &fakeAPI{err: &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}}
	c := NewWithAPI(nil, api, Config{}, nil)
	if _, err := c.Generate(context.Background(), "s", "u"); !learningpath.IsTransient(err) {
		t.Fatalf("want transient got %v", err)
	}

	api.err = &smithy.GenericAPIError{Code: "ValidationException", Message: "bad model id"}
	_, err := c.Generate(context.Background(), "s", "u")
	if learningpath.IsTransient(err) || !learningpath.IsClass(err, learningpath.ClassInternal) {
		t.Fatalf("want internal got %v", err)
	}

	api.err = context.DeadlineExceeded
	if _, err := c.Embed(context.Background(), "x"); !learningpath.IsTransient(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("deadline: want transient wrapping cause got %v", err)
	}
}
