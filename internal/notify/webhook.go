package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"groupfit/session-engine/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

// Default lifetime of a delivery token when none is configured.
const defaultTokenTTL = 2 * time.Minute

// deliveryClaims is the payload signed into each webhook bearer token so
// the receiver can verify the delivery came from this engine.
type deliveryClaims struct {
	AlertType string `json:"alertType"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// WebhookSink posts alerts as JSON to a configured URL. Every request
// carries a short-lived HS256-signed bearer token.
type WebhookSink struct {
	url      string
	secret   []byte
	tokenTTL time.Duration
	client   *http.Client
}

// NewWebhookSink creates a webhook sink. secret signs the per-delivery
// bearer tokens and must match the receiver's verification key.
func NewWebhookSink(url, secret string, tokenTTL time.Duration) *WebhookSink {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &WebhookSink{
		url:      url,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver posts one alert. A non-2xx response is an error; the caller
// decides whether that is fatal (for the engine it never is).
func (s *WebhookSink) Deliver(ctx context.Context, alert domain.Alert) error {
	token, err := s.signToken(alert)
	if err != nil {
		return fmt.Errorf("signing delivery token: %w", err)
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering alert: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("alert sink returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *WebhookSink) signToken(alert domain.Alert) (string, error) {
	now := time.Now()
	claims := deliveryClaims{
		AlertType: string(alert.Type),
		SessionID: alert.SessionID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "session-engine",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
