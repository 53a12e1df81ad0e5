package provenance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/deflogis/convoy/internal/model"
)

const pinEndpoint = "/pinning/pinJSONToIPFS"

// PinClient uploads analysis documents to a Pinata-compatible pinning
// service. It performs no retries; retry policy belongs to the caller.
type PinClient struct {
	baseURL    string
	jwt        string
	httpClient *http.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// NewPinClient creates a pinning client. An empty jwt is allowed; uploads
// then fail with an *UploadError before any request is made.
func NewPinClient(baseURL, jwt string, timeout time.Duration, logger zerolog.Logger) *PinClient {
	return &PinClient{
		baseURL:    baseURL,
		jwt:        jwt,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "pin-client").Logger(),
		now:        time.Now,
	}
}

// pinEnvelope is the JSON document sent to the pinning service.
type pinEnvelope struct {
	RouteID   string               `json:"routeId"`
	ConvoyID  string               `json:"convoyId"`
	Timestamp string               `json:"timestamp"`
	Analysis  *model.RouteAnalysis `json:"analysis"`
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// PinJSON uploads the analysis for a convoy and returns the content
// identifier assigned by the pinning service.
func (c *PinClient) PinJSON(ctx context.Context, convoyID string, analysis *model.RouteAnalysis) (string, error) {
	if c.jwt == "" {
		return "", &UploadError{Err: fmt.Errorf("pinning credential missing")}
	}

	envelope := pinEnvelope{
		RouteID:   analysis.RouteID,
		ConvoyID:  convoyID,
		Timestamp: c.now().UTC().Format(time.RFC3339),
		Analysis:  analysis,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return "", &UploadError{Err: fmt.Errorf("marshal pin envelope: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pinEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &UploadError{Err: fmt.Errorf("create pin request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UploadError{Err: fmt.Errorf("pin request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("pinning API error")
		return "", &UploadError{Status: resp.StatusCode, Body: string(body)}
	}

	var pr pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", &UploadError{Err: fmt.Errorf("decode pin response: %w", err)}
	}
	if pr.IpfsHash == "" {
		return "", &UploadError{Err: fmt.Errorf("pin response missing IpfsHash")}
	}

	return pr.IpfsHash, nil
}
