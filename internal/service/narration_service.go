package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Narrator turns a free-text scenario description into coaching
// guidance via an external language-model service. It is optional
// enrichment: the engine never depends on it to advance a client, and
// every caller must tolerate failure.
type Narrator interface {
	Narrate(ctx context.Context, scenario string) (string, error)
}

// noopNarrator is the default when no narration endpoint is configured.
type noopNarrator struct{}

// NewNoopNarrator returns a narrator that produces no guidance.
func NewNoopNarrator() Narrator {
	return noopNarrator{}
}

func (noopNarrator) Narrate(ctx context.Context, scenario string) (string, error) {
	return "", nil
}

// httpNarrator posts scenarios to a configured endpoint.
type httpNarrator struct {
	endpoint string
	client   *http.Client
}

// NewHTTPNarrator creates a narrator that calls an external HTTP service.
func NewHTTPNarrator(endpoint string, timeout time.Duration) Narrator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpNarrator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type narrationRequest struct {
	Scenario string `json:"scenario"`
}

type narrationResponse struct {
	Guidance string `json:"guidance"`
}

func (n *httpNarrator) Narrate(ctx context.Context, scenario string) (string, error) {
	body, err := json.Marshal(narrationRequest{Scenario: scenario})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("narration service returned status %d", resp.StatusCode)
	}

	var parsed narrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return parsed.Guidance, nil
}
