package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jwalitptl/consult-api/internal/config"
	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/pkg/circuitbreaker"
	"github.com/rs/zerolog"
)

// Client delivers a MedicalPrompt to the generative service.
type Client interface {
	GenerateConsultation(ctx context.Context, prompt *model.MedicalPrompt) (*Result, error)
}

// Result is a successful generation.
type Result struct {
	Text  string
	Model string
}

// APIError is a typed failure from the generative service.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini api error %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

// IsAuth reports a terminal authentication/authorization failure.
func (e *APIError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRateLimit reports a quota/rate-limit rejection.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}

type client struct {
	cfg        config.GeminiConfig
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
	logger     *zerolog.Logger
}

func NewClient(cfg config.GeminiConfig, logger *zerolog.Logger) Client {
	return &client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "gemini",
			MaxFailures: 5,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
		}),
		logger: logger,
	}
}

// Wire types for the generateContent REST API.

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SafetySettings    []safetySetting  `json:"safetySettings"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
	Error        *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// conservativeSafetySettings blocks content at the lowest threshold on all
// four harm categories.
var conservativeSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_LOW_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_LOW_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_LOW_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_LOW_AND_ABOVE"},
}

func (c *client) GenerateConsultation(ctx context.Context, prompt *model.MedicalPrompt) (*Result, error) {
	if err := prompt.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to send invalid prompt: %w", err)
	}

	body := generateRequest{
		SystemInstruction: &content{
			Parts: []part{{Text: prompt.SystemInstruction}},
		},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt.UserPrompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
		SafetySettings: conservativeSafetySettings,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)

	var result *Result
	err = c.cb.Execute(func() error {
		var callErr error
		result, callErr = c.call(ctx, url, payload)
		return callErr
	})
	if err == circuitbreaker.ErrOpen {
		return nil, &APIError{
			StatusCode: http.StatusServiceUnavailable,
			Status:     "CIRCUIT_OPEN",
			Message:    "generative service circuit breaker is open",
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *client) call(ctx context.Context, url string, payload []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
		if decoded.Error != nil {
			apiErr.Status = decoded.Error.Status
			apiErr.Message = decoded.Error.Message
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("api_status", apiErr.Status).Msg("gemini call rejected")
		return nil, apiErr
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Status:     "EMPTY_CANDIDATE",
			Message:    "response contained no usable candidate",
		}
	}

	modelUsed := decoded.ModelVersion
	if modelUsed == "" {
		modelUsed = c.cfg.Model
	}

	return &Result{
		Text:  decoded.Candidates[0].Content.Parts[0].Text,
		Model: modelUsed,
	}, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
