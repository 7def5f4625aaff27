// Package notify delivers alerts to external operator-facing sinks.
// Delivery mechanics (push service, dashboard poller) live outside the
// engine; this package only hands alerts over the boundary.
package notify

import (
	"context"
	"log"

	"groupfit/session-engine/internal/domain"
)

// AlertSink accepts alert records for outbound delivery.
type AlertSink interface {
	Deliver(ctx context.Context, alert domain.Alert) error
}

// logSink is the default sink when no webhook is configured: alerts are
// only written to the server log (they are persisted by the repository
// regardless).
type logSink struct{}

// NewLogSink returns a sink that logs deliveries.
func NewLogSink() AlertSink {
	return logSink{}
}

func (logSink) Deliver(_ context.Context, alert domain.Alert) error {
	log.Printf("ALERT [%s] session=%s client=%s requiresAction=%t: %s",
		alert.Type, alert.SessionID.Hex(), alert.ClientID.Hex(), alert.RequiresAction, alert.Message)
	return nil
}
