package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/deflogis/convoy/internal/model"
)

const routePrompt = `Act as a military logistics AI component of the "Code Red" system.
Analyze a convoy movement from %q to %q with %d vehicles.
Consider: Potential civilian traffic bottlenecks, strategic risk assessment, and weather impacts.
Respond with a single JSON object with the fields routeId, riskLevel (LOW, MEDIUM or HIGH),
estimatedDuration, checkpoints (array of strings), trafficCongestion (integer 0-100),
weatherImpact and strategicNote. No prose outside the JSON object.`

// Planner produces route analyses from an OpenAI-compatible chat completions
// backend. Any backend or validation failure falls back to a canned analysis
// so route planning never blocks convoy staging.
type Planner struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     zerolog.Logger
}

func NewPlanner(baseURL, apiKey, modelName string, logger zerolog.Logger) *Planner {
	return &Planner{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      modelName,
		logger:     logger.With().Str("component", "route-planner").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Analyze requests a route analysis for the given movement. The returned
// analysis always validates; on backend failure it is the fallback analysis,
// never nil.
func (p *Planner) Analyze(ctx context.Context, start, end string, vehicleCount int) *model.RouteAnalysis {
	a, err := p.analyze(ctx, start, end, vehicleCount)
	if err != nil {
		p.logger.Error().Err(err).Str("start", start).Str("end", end).Msg("route analysis failed, using fallback")
		return fallbackAnalysis()
	}
	return a
}

func (p *Planner) analyze(ctx context.Context, start, end string, vehicleCount int) (*model.RouteAnalysis, error) {
	if p.baseURL == "" || p.apiKey == "" {
		return nil, fmt.Errorf("planner backend not configured")
	}

	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(routePrompt, start, end, vehicleCount)},
		},
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("chat API returned %d: %s", resp.StatusCode, string(body))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("chat response has no choices")
	}

	var a model.RouteAnalysis
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &a); err != nil {
		return nil, fmt.Errorf("parse analysis JSON: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// fallbackAnalysis is the cached route plan served when the AI backend is
// unreachable or returns garbage.
func fallbackAnalysis() *model.RouteAnalysis {
	return &model.RouteAnalysis{
		RouteID:           fmt.Sprintf("MOCK-ERR-%04d", 1000+rand.Intn(9000)),
		RiskLevel:         model.RiskMedium,
		EstimatedDuration: "2 Hours 15 Mins",
		Checkpoints:       []string{"Alpha Checkpoint", "Bridge crossing", "City Outskirts"},
		TrafficCongestion: 65,
		WeatherImpact:     "AI Service Failure.",
		StrategicNote:     "AI service failed, falling back to cached route plan.",
	}
}
