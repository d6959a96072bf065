package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/models"
)

// Sentiment is the classified mood of a piece of text
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Emoji string  `json:"emoji"`
}

// Generator produces AI-derived text for updates and friend summaries.
// Implementations must be safe for concurrent use.
type Generator interface {
	ClassifySentiment(ctx context.Context, content string) (*Sentiment, error)
	GenerateSummary(ctx context.Context, profile models.ProfileSnapshot, updates []models.Update) (string, error)
}

// HTTPGenerator calls an external inference endpoint. Failures are returned to
// the caller, which keeps the previous value rather than blocking the write.
type HTTPGenerator struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

func NewHTTPGenerator(endpoint, apiKey string, logger *zap.Logger) *HTTPGenerator {
	return &HTTPGenerator{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

type sentimentRequest struct {
	Task    string `json:"task"`
	Content string `json:"content"`
}

type summaryRequest struct {
	Task    string   `json:"task"`
	Name    string   `json:"name"`
	Updates []string `json:"updates"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// ClassifySentiment classifies the mood of an update's content
func (g *HTTPGenerator) ClassifySentiment(ctx context.Context, content string) (*Sentiment, error) {
	if g.endpoint == "" {
		return nil, fmt.Errorf("sentiment endpoint not configured")
	}
	var out Sentiment
	if err := g.post(ctx, sentimentRequest{Task: "sentiment", Content: content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateSummary produces a short narrative of a friend's recent updates
func (g *HTTPGenerator) GenerateSummary(ctx context.Context, profile models.ProfileSnapshot, updates []models.Update) (string, error) {
	if g.endpoint == "" {
		return "", fmt.Errorf("summary endpoint not configured")
	}
	req := summaryRequest{Task: "summary", Name: profile.Name}
	for _, u := range updates {
		req.Updates = append(req.Updates, u.Content)
	}
	var out summaryResponse
	if err := g.post(ctx, req, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

func (g *HTTPGenerator) post(ctx context.Context, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference endpoint returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
