package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/kode4food/renewal/pkg/log"
)

type (
	// Generator produces free text or JSON objects from an instruction and
	// a payload
	Generator interface {
		Generate(
			ctx context.Context, system, user string, temperature float64,
		) (string, error)
		GenerateJSON(ctx context.Context, system, user string) (Object, error)
	}

	// Config holds the connection settings of a Client
	Config struct {
		APIKey          string
		BaseURL         string
		Model           string
		EmbeddingModel  string
		FallbackModel   string
		Timeout         time.Duration
		RPS             float64
		Burst           int
		MaxOutputTokens int
	}

	// Client talks to the generation service over HTTP
	Client struct {
		httpClient *http.Client
		limiter    *rate.Limiter
		cfg        Config
	}

	// Task selects the embedding flavor
	Task string

	generateRequest struct {
		SystemInstruction *content         `json:"systemInstruction,omitempty"`
		Contents          []content        `json:"contents"`
		GenerationConfig  generationConfig `json:"generationConfig"`
	}

	embedRequest struct {
		Model    string  `json:"model"`
		Content  content `json:"content"`
		TaskType Task    `json:"taskType"`
	}

	content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}

	part struct {
		Text string `json:"text"`
	}

	generationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	}
)

const (
	TaskRetrievalQuery    Task = "RETRIEVAL_QUERY"
	TaskRetrievalDocument Task = "RETRIEVAL_DOCUMENT"
)

const (
	DefaultBaseURL         = "https://generativelanguage.googleapis.com"
	DefaultModel           = "gemini-2.5-flash-lite"
	DefaultEmbeddingModel  = "models/text-embedding-004"
	DefaultFallbackModel   = "models/gemini-embedding-001"
	DefaultMaxOutputTokens = 2048
	DefaultJSONTemperature = 0.3

	userAgent = "Renewal-Service/1.0"
)

var (
	ErrHTTPError     = errors.New("generation service returned HTTP error")
	ErrEmptyResponse = errors.New("generation service returned no text")
	ErrNoEmbedding   = errors.New("embedding service returned no values")
)

var _ Generator = (*Client)(nil)

// NewClient creates a Client from cfg, filling unset fields with defaults
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = DefaultFallbackModel
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := max(cfg.Burst, 1)

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		cfg:        cfg,
	}
}

// Generate returns the text produced for a system instruction and user
// payload
func (c *Client) Generate(
	ctx context.Context, system, user string, temperature float64,
) (string, error) {
	req := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: user}},
		}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	}
	if system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	url := fmt.Sprintf("%s/v1beta/%s:generateContent",
		c.cfg.BaseURL, modelPath(c.cfg.Model),
	)
	body, err := c.post(ctx, url, req)
	if err != nil {
		return "", err
	}

	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(text.String()), nil
}

// GenerateJSON generates a response and recovers a JSON object from it.
// Malformed output is returned as an error object, not an error
func (c *Client) GenerateJSON(
	ctx context.Context, system, user string,
) (Object, error) {
	text, err := c.Generate(ctx, system, user, DefaultJSONTemperature)
	if err != nil {
		return Object{}, err
	}
	return ParseJSON(text), nil
}

// EmbedQuery embeds search text, falling back to the secondary model
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return c.embedWithFallback(ctx, text, TaskRetrievalQuery)
}

// EmbedDocument embeds collection content, falling back to the secondary
// model
func (c *Client) EmbedDocument(
	ctx context.Context, text string,
) ([]float64, error) {
	return c.embedWithFallback(ctx, text, TaskRetrievalDocument)
}

func (c *Client) embedWithFallback(
	ctx context.Context, text string, task Task,
) ([]float64, error) {
	res, err := c.Embed(ctx, c.cfg.EmbeddingModel, text, task)
	if err == nil {
		return res, nil
	}
	slog.Warn("Embedding model failed, using fallback",
		slog.String("model", c.cfg.EmbeddingModel),
		slog.String("fallback", c.cfg.FallbackModel),
		log.Error(err))
	return c.Embed(ctx, c.cfg.FallbackModel, text, task)
}

// Embed maps text to a vector using the named model
func (c *Client) Embed(
	ctx context.Context, model, text string, task Task,
) ([]float64, error) {
	path := modelPath(model)
	req := embedRequest{
		Model:    path,
		Content:  content{Parts: []part{{Text: text}}},
		TaskType: task,
	}

	url := fmt.Sprintf("%s/v1beta/%s:embedContent", c.cfg.BaseURL, path)
	body, err := c.post(ctx, url, req)
	if err != nil {
		return nil, err
	}

	values := gjson.GetBytes(body, "embedding.values").Array()
	if len(values) == 0 {
		return nil, ErrNoEmbedding
	}
	res := make([]float64, len(values))
	for i, v := range values {
		res[i] = v.Float()
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, url string, req any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(body),
	)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	dur := time.Since(start)
	if err != nil {
		slog.Error("Generation request failed",
			slog.Duration("duration", dur),
			log.Error(err))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("Generation service error",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(respBody)))
		return nil, fmt.Errorf("%w: HTTP %d", ErrHTTPError, resp.StatusCode)
	}
	return respBody, nil
}

func modelPath(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}
