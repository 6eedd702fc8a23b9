package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/breaker"
	"github.com/yungbote/learnpath-backend/internal/platform/httpx"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	EmbedModel  string
	Temperature *float64
	Timeout     time.Duration
}

// Client talks to an OpenAI-compatible API. It makes exactly one HTTP attempt
// per call; retries belong to the caller.
type Client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	httpClient *http.Client
	breaker    *breaker.Breaker

	temperature *float64
	// models that rejected temperature once are never sent it again
	noTempMu   sync.RWMutex
	noTempSeen map[string]bool
}

func New(log *logger.Logger, cfg Config, br *breaker.Breaker) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	embed := strings.TrimSpace(cfg.EmbedModel)
	if embed == "" {
		embed = "text-embedding-3-small"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		log:         log.With("provider", "openai"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		embedModel:  embed,
		httpClient:  &http.Client{Timeout: timeout},
		breaker:     br,
		temperature: cfg.Temperature,
		noTempSeen:  map[string]bool{},
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	const op = "openai.embed"
	input := strings.TrimSpace(text)
	if input == "" {
		input = " "
	}
	var resp embeddingsResponse
	if err := c.do(ctx, op, "/v1/embeddings", embeddingsRequest{Model: c.embedModel, Input: []string{input}}, &resp); err != nil {
		return nil, err
	}
	for _, d := range resp.Data {
		if d.Index == 0 && len(d.Embedding) > 0 {
			return d.Embedding, nil
		}
	}
	return nil, learningpath.Contract(learningpath.KindUnrecognizedResponseShape, op, "embeddings response missing index 0")
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model       string         `json:"model"`
	Input       []inputMessage `json:"input"`
	Temperature *float64       `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

// Generate runs a Responses API call and re-wraps the assistant text as an
// {"outputText": ...} envelope so it decodes like any other provider's.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	const op = "openai.generate"
	req := responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	if c.temperature != nil && !c.skipsTemperature(c.model) {
		t := *c.temperature
		req.Temperature = &t
	}

	var resp responsesResponse
	err := c.do(ctx, op, "/v1/responses", req, &resp)
	if err != nil && req.Temperature != nil && isUnsupportedTemperature(err) {
		c.noteNoTemp(c.model)
		req.Temperature = nil
		err = c.do(ctx, op, "/v1/responses", req, &resp)
	}
	if err != nil {
		return nil, err
	}
	if resp.Refusal != "" {
		return nil, learningpath.Contract(learningpath.KindUnrecognizedResponseShape, op, "model refused: %s", resp.Refusal)
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, learningpath.Contract(learningpath.KindUnrecognizedResponseShape, op, "no output_text found in response")
	}
	out, mErr := json.Marshal(map[string]string{"outputText": text})
	if mErr != nil {
		return nil, learningpath.Internal(learningpath.KindProviderFailed, op, mErr)
	}
	return out, nil
}

func (c *Client) skipsTemperature(model string) bool {
	c.noTempMu.RLock()
	defer c.noTempMu.RUnlock()
	return c.noTempSeen[strings.ToLower(model)]
}

func (c *Client) noteNoTemp(model string) {
	c.noTempMu.Lock()
	c.noTempSeen[strings.ToLower(model)] = true
	c.noTempMu.Unlock()
	c.log.Warn("openai_temperature_unsupported", "model", model)
}

func isUnsupportedTemperature(err error) bool {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, marker := range []string{"unsupported parameter", "unknown parameter", "not supported", "does not support", "unsupported_value"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) do(ctx context.Context, op, path string, body any, out any) error {
	_, err := breaker.Call(c.breaker, op, func() (struct{}, error) {
		raw, err := c.doOnce(ctx, path, body)
		if err != nil {
			if httpx.IsRetryableError(err) {
				return struct{}{}, learningpath.Transient(op, err)
			}
			return struct{}{}, learningpath.Internal(learningpath.KindProviderFailed, op, err)
		}
		if out == nil {
			return struct{}{}, nil
		}
		if uErr := json.Unmarshal(raw, out); uErr != nil {
			return struct{}{}, learningpath.NewError(learningpath.ClassContractViolation, learningpath.KindUnrecognizedResponseShape, op, "openai decode error", uErr)
		}
		return struct{}{}, nil
	})
	return err
}

func (c *Client) doOnce(ctx context.Context, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}
