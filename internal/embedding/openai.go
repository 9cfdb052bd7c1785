package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/tiktoken-go/tokenizer"
)

const (
	// DefaultBaseURL targets the OpenAI embeddings endpoint; any
	// OpenAI-compatible server works (LiteLLM proxy, Ollama /v1, vLLM).
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultHTTPTimeout bounds one batch embedding request.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxInputTokens is the per-text token budget before truncation.
	DefaultMaxInputTokens = 8000
)

// ClientOptions configures an OpenAI-compatible embedding client.
type ClientOptions struct {
	BaseURL        string
	APIKey         string
	Model          string
	Dimensions     int
	MaxInputTokens int
	HTTPTimeout    time.Duration
}

// Client is an embedding Provider backed by an OpenAI-compatible REST API.
type Client struct {
	httpClient *http.Client
	codec      tokenizer.Codec
	logger     zerolog.Logger
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	maxTokens  int
}

type embedRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// NewClient creates an embedding client. The provider's lifecycle is owned by
// the caller; the dedup engine only sees the Provider interface.
func NewClient(opts ClientOptions, logger zerolog.Logger) (*Client, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("embedding model name is required")
	}
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", opts.Dimensions)
	}

	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	maxTokens := opts.MaxInputTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxInputTokens
	}

	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		codec:      codec,
		logger:     logger.With().Str("component", "embedding").Logger(),
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		dimensions: opts.Dimensions,
		maxTokens:  maxTokens,
	}, nil
}

// Dimensions returns the configured vector length.
func (c *Client) Dimensions() int { return c.dimensions }

// EmbedBatch embeds all texts in one API call, preserving input order. A
// result-count mismatch or transport failure aborts the whole batch.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input := make([]string, len(texts))
	for i, text := range texts {
		truncated, err := c.truncate(text)
		if err != nil {
			return nil, fmt.Errorf("truncate input %d: %w", i, err)
		}
		input[i] = truncated
	}

	body, err := json.Marshal(embedRequest{
		Input:          input,
		Model:          c.model,
		EncodingFormat: "float",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send embedding request to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodySnippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding API error (model=%s, status=%d): %s",
			c.model, resp.StatusCode, strings.TrimSpace(string(bodySnippet)))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode embedding response from %s: %w", c.baseURL, err)
	}

	// Sort by index to preserve input alignment
	sort.Slice(embedResp.Data, func(i, j int) bool {
		return embedResp.Data[i].Index < embedResp.Data[j].Index
	})

	if len(embedResp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d results for %d inputs (model=%s)",
			len(embedResp.Data), len(texts), c.model)
	}

	results := make([][]float32, len(embedResp.Data))
	for i, d := range embedResp.Data {
		results[i] = d.Embedding
	}

	c.logger.Debug().
		Int("texts", len(texts)).
		Dur("elapsed", time.Since(start)).
		Msg("Batch embedding complete")

	return results, nil
}

// truncate clips a text to the per-input token budget.
func (c *Client) truncate(text string) (string, error) {
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return "", err
	}
	if len(ids) <= c.maxTokens {
		return text, nil
	}
	clipped, err := c.codec.Decode(ids[:c.maxTokens])
	if err != nil {
		return "", err
	}
	return clipped, nil
}
