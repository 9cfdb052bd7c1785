// Package geocode extracts structured events from raw report text using a
// local LLM served by Ollama.
package geocode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// DefaultHTTPTimeout bounds one extraction request. Local 14B models are
// slow; a short timeout would abort most completions.
const DefaultHTTPTimeout = 120 * time.Second

// Event is one extracted, optionally geolocated event.
type Event struct {
	Summary      string   `json:"event_summary"`
	Typology     string   `json:"typologie"`
	Importance   int      `json:"strategic_importance"`
	MainLocation *string  `json:"main_location"`
	LocationType string   `json:"location_type"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Confidence   string   `json:"confidence"`
}

// Geolocated reports whether the event carries usable coordinates.
func (e *Event) Geolocated() bool {
	return e.Latitude != nil && e.Longitude != nil
}

type extraction struct {
	Events []Event `json:"events"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Format   string         `json:"format"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// Client calls a local Ollama instance to extract events from report text.
type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
	baseURL    string
	model      string
}

// NewClient creates an extraction client.
func NewClient(baseURL, model string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		logger:     logger.With().Str("component", "geocode").Logger(),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
	}
}

// Extract analyzes one report text and returns the events it describes.
// An empty slice means the text carried no extractable event.
func (c *Client) Extract(ctx context.Context, text string) ([]Event, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: buildPrompt(text)}},
		Format:   "json",
		Stream:   false,
		Options: map[string]any{
			// Deterministic, factual output
			"temperature":    0.0,
			"num_ctx":        4096,
			"top_p":          0.9,
			"repeat_penalty": 1.1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send chat request to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodySnippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama error (model=%s, status=%d): %s",
			c.model, resp.StatusCode, strings.TrimSpace(string(bodySnippet)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	var result extraction
	if err := json.Unmarshal([]byte(strings.TrimSpace(chat.Message.Content)), &result); err != nil {
		return nil, fmt.Errorf("parse extraction JSON: %w", err)
	}

	c.logger.Debug().
		Int("events", len(result.Events)).
		Int("text_len", len(text)).
		Msg("Extraction complete")
	return result.Events, nil
}

// buildPrompt wraps the report text in the extraction instructions.
func buildPrompt(text string) string {
	return `You are an OSINT analyst extracting geopolitical and military events from social media reports.

Extract only factual information, classify the event, tie the action to a real location, and rate its strategic importance.

Typology (choose exactly one):
- MIL: only if the text explicitly mentions a bombardment, missile/drone strike, or confirmed direct combat with a clear source.
- OTHER: any other event.

Strict geolocation rules:
- Never invent a precise place that is not mentioned.
- Explicitly named place (city, base): "location_type": "explicit", "confidence": "high".
- Known region without a precise place (e.g. Middle East, Northern Atlantic): pick a representative central point, "location_type": "inferred", "confidence": "medium".
- No identifiable place: "location_type": "unknown", "latitude": null, "longitude": null.
- Maritime locations (sea, gulf, canal, "over the Black Sea"): always pick a central point in the water, never on land.
- Land locations with only a country given: pick a point inside that country's borders.

Strategic importance (1-5):
1: local/minor event. 2: tactical event. 3: operational event (key infrastructure lost, front line shift). 4: strategic event (major policy change, heavy weapons delivery, regional escalation). 5: critical global event (declaration of war, nuclear strike, fall of a government).

Expected JSON format:
{"events": [{"event_summary": "concise factual description", "typologie": "MIL | OTHER", "strategic_importance": 1, "main_location": "place name or null", "location_type": "explicit | inferred | unknown", "latitude": 0.0, "longitude": 0.0, "confidence": "high | medium | low"}]}

If no reliable information is available or the report is not informative, return: {"events":[]}

Report to analyze:
` + text
}
