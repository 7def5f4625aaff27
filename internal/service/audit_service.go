package service

import (
	"context"
	"log"
	"time"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/notify"
	"groupfit/session-engine/internal/repository"
)

// AuditService is the append-only sink for decision records and alerts.
// Both methods are fire-and-forget from the state machine's perspective:
// a failed audit write is logged and reported, but it never rolls back
// the state transition it describes. The session must keep moving even
// when the audit trail write fails.
type AuditService interface {
	RecordDecision(ctx context.Context, record *domain.DecisionRecord) error
	RaiseAlert(ctx context.Context, alert *domain.Alert) error
}

// auditService implements the AuditService interface.
type auditService struct {
	decisionRepo repository.DecisionRepository
	alertRepo    repository.AlertRepository
	sink         notify.AlertSink
	narrator     Narrator
}

// NewAuditService creates an audit service over the decision and alert
// logs, the outbound alert sink and the optional narrator.
func NewAuditService(decisionRepo repository.DecisionRepository, alertRepo repository.AlertRepository, sink notify.AlertSink, narrator Narrator) AuditService {
	if narrator == nil {
		narrator = NewNoopNarrator()
	}
	return &auditService{
		decisionRepo: decisionRepo,
		alertRepo:    alertRepo,
		sink:         sink,
		narrator:     narrator,
	}
}

// RecordDecision appends the record and, when a narrator is configured,
// fetches coaching guidance in the background. The returned error is a
// warning for the caller, never a reason to undo the transition.
func (s *auditService) RecordDecision(ctx context.Context, record *domain.DecisionRecord) error {
	if _, err := s.decisionRepo.Create(ctx, record); err != nil {
		log.Printf("ERROR: decision log write failed (trigger=%s): %v", record.Trigger, err)
		return err
	}

	// Narration is detached from the request: it must never delay or fail
	// the path that produced the decision.
	scenario := record.Scenario
	go func() {
		narrateCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		guidance, err := s.narrator.Narrate(narrateCtx, scenario)
		if err != nil {
			log.Printf("WARN: decision narration failed: %v", err)
			return
		}
		if guidance != "" {
			log.Printf("INFO: narration for %q: %s", scenario, guidance)
		}
	}()

	return nil
}

// RaiseAlert appends the alert and forwards it to the outbound sink.
// Sink delivery happens in the background; the persisted row is the
// source of truth for operators.
func (s *auditService) RaiseAlert(ctx context.Context, alert *domain.Alert) error {
	if _, err := s.alertRepo.Create(ctx, alert); err != nil {
		log.Printf("ERROR: alert write failed (type=%s): %v", alert.Type, err)
		return err
	}

	delivered := *alert
	go func() {
		deliverCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.sink.Deliver(deliverCtx, delivered); err != nil {
			log.Printf("WARN: alert delivery failed (type=%s): %v", delivered.Type, err)
		}
	}()

	return nil
}
