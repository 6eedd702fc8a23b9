package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/breaker"
	"github.com/yungbote/learnpath-backend/internal/platform/httpx"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

// API is the slice of the Bedrock runtime client used here.
type API interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type Config struct {
	Region         string
	EmbeddingModel string
	PlanModel      string
	EmbeddingDim   int
	Temperature    float64
	MaxTokens      int
	TopP           float64
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Region) == "" {
		c.Region = "us-east-2"
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		c.EmbeddingModel = "amazon.titan-embed-text-v2:0"
	}
	if strings.TrimSpace(c.PlanModel) == "" {
		c.PlanModel = "amazon.nova-lite-v1:0"
	}
	if c.EmbeddingDim <= 0 {
		c.EmbeddingDim = 1024
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
	if c.TopP <= 0 {
		c.TopP = 0.9
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 25 * time.Second
	}
	return c
}

type Client struct {
	log     *logger.Logger
	api     API
	cfg     Config
	breaker *breaker.Breaker
}

// New loads the default AWS credential chain and builds a runtime client.
// SDK-level retries are disabled; callers wrap calls in their own invoker.
func New(ctx context.Context, log *logger.Logger, cfg Config, br *breaker.Breaker) (*Client, error) {
	cfg = cfg.withDefaults()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	httpClient := awshttp.NewBuildableClient().
		WithTimeout(cfg.ConnectTimeout + cfg.ReadTimeout).
		WithDialerOptions(func(d *net.Dialer) { d.Timeout = cfg.ConnectTimeout })
	api := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		o.HTTPClient = httpClient
		o.RetryMaxAttempts = 1
	})
	return NewWithAPI(log, api, cfg, br), nil
}

func NewWithAPI(log *logger.Logger, api API, cfg Config, br *breaker.Breaker) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		log:     log.With("provider", "bedrock"),
		api:     api,
		cfg:     cfg.withDefaults(),
		breaker: br,
	}
}

type embedRequest struct {
	InputText string `json:"inputText"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the raw (unnormalized) embedding of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	const op = "bedrock.embed"
	body, err := json.Marshal(embedRequest{InputText: text})
	if err != nil {
		return nil, learningpath.Internal(learningpath.KindProviderFailed, op, err)
	}
	raw, err := c.invoke(ctx, op, c.cfg.EmbeddingModel, body)
	if err != nil {
		return nil, err
	}
	var resp embedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, learningpath.NewError(learningpath.ClassContractViolation, learningpath.KindUnrecognizedResponseShape, op, "embedding response is not JSON", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, learningpath.Contract(learningpath.KindUnrecognizedResponseShape, op, "embedding response missing 'embedding' field")
	}
	if len(resp.Embedding) != c.cfg.EmbeddingDim {
		return nil, learningpath.Contract(learningpath.KindUnrecognizedResponseShape, op, "embedding dimension mismatch want=%d got=%d", c.cfg.EmbeddingDim, len(resp.Embedding))
	}
	return resp.Embedding, nil
}

type textBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type message struct {
	Role    string      `json:"role"`
	Content []textBlock `json:"content"`
}

type inferenceConfig struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
	TopP        float64 `json:"topP"`
}

type generateRequest struct {
	Messages        []message       `json:"messages"`
	InferenceConfig inferenceConfig `json:"inferenceConfig"`
}

// Generate sends a system+user prompt pair and returns the response envelope
// untouched. Extracting the text is the caller's job.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	const op = "bedrock.generate"
	body, err := json.Marshal(generateRequest{
		Messages: []message{
			{Role: "system", Content: []textBlock{{Type: "text", Text: systemPrompt}}},
			{Role: "user", Content: []textBlock{{Type: "text", Text: userPrompt}}},
		},
		InferenceConfig: inferenceConfig{
			Temperature: c.cfg.Temperature,
			MaxTokens:   c.cfg.MaxTokens,
			TopP:        c.cfg.TopP,
		},
	})
	if err != nil {
		return nil, learningpath.Internal(learningpath.KindProviderFailed, op, err)
	}
	return c.invoke(ctx, op, c.cfg.PlanModel, body)
}

func (c *Client) invoke(ctx context.Context, op, modelID string, body []byte) ([]byte, error) {
	return breaker.Call(c.breaker, op, func() ([]byte, error) {
		out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(modelID),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        body,
		})
		if err != nil {
			return nil, classify(op, err)
		}
		if out == nil {
			return nil, learningpath.Contract(learningpath.KindUnrecognizedResponseShape, op, "empty invoke response")
		}
		return out.Body, nil
	})
}

var transientCodes = map[string]bool{
	"ThrottlingException":         true,
	"ServiceUnavailableException": true,
	"InternalServerException":     true,
	"ModelTimeoutException":       true,
	"ModelNotReadyException":      true,
	"RequestTimeout":              true,
	"RequestTimeoutException":     true,
}

// classify maps SDK errors onto transient or internal failures.
func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && transientCodes[apiErr.ErrorCode()] {
		return learningpath.Transient(op, err)
	}
	if httpx.IsRetryableError(err) {
		return learningpath.Transient(op, err)
	}
	return learningpath.Internal(learningpath.KindProviderFailed, op, err)
}
