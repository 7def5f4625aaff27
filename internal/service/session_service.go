package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionStateNotFound = errors.New("session state not found")
	ErrProgramNotFound      = errors.New("program not found")
	ErrClientNotFound       = errors.New("client not found")
	ErrSessionNotActive     = errors.New("session is not active")
	ErrTooManyParticipants  = fmt.Errorf("session cannot exceed %d participants", domain.MaxParticipants)
	ErrNoParticipants       = errors.New("session needs at least one participant")
	ErrProgramNotForClient  = errors.New("program is not assigned to this client")
	ErrInvalidRPE           = errors.New("rpe must be between 0 and 10")

	// ErrInvalidState marks a session state whose position lies outside
	// its program's bounds. Treated as data corruption: surfaced to the
	// caller and logged loudly, never silently repaired.
	ErrInvalidState = errors.New("session state is out of program bounds")
)

// Rest extension tiers applied on reported exertion.
const (
	restExtensionHighRPE     = 30 // seconds added at RPE >= 9
	restExtensionModerateRPE = 15 // seconds added at RPE == 8
)

// Participant pairs a client with the program they follow in a session.
type Participant struct {
	ClientID  primitive.ObjectID
	ProgramID primitive.ObjectID
}

// StartSessionParams carries everything needed to open a session.
type StartSessionParams struct {
	StartTime       time.Time
	DurationMinutes int
	Coach           string
	Participants    []Participant
}

// SessionService is the session engine boundary: the state machine that
// advances clients through their programs while arbitrating the shared
// equipment pool, plus the exertion and pain intake paths.
type SessionService interface {
	StartSession(ctx context.Context, params StartSessionParams) (*domain.Session, []domain.SessionState, error)
	CompleteSession(ctx context.Context, sessionID primitive.ObjectID) error

	// Advance processes one "set completed" event for a client and
	// returns exactly one outcome. The check-then-commit sequence is
	// serialized per session, so concurrent advances within a session
	// cannot both claim the last unit of an item.
	Advance(ctx context.Context, sessionStateID primitive.ObjectID) (*domain.Outcome, error)

	// SubmitExertion records a 0-10 RPE report and returns the new rest
	// remaining after any extension.
	SubmitExertion(ctx context.Context, sessionStateID primitive.ObjectID, rpe int) (int, error)

	// ReportPain raises an operator alert and logs a decision for a
	// client-reported pain event.
	ReportPain(ctx context.Context, sessionStateID primitive.ObjectID, description string) error

	GetSessionStates(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SessionState, error)
	GetSessionAlerts(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Alert, error)
	GetRecentDecisions(ctx context.Context, limit int) ([]domain.DecisionRecord, error)
}

// sessionService implements the SessionService interface.
type sessionService struct {
	sessionRepo  repository.SessionRepository
	stateRepo    repository.SessionStateRepository
	programRepo  repository.ProgramRepository
	exerciseRepo repository.ExerciseRepository
	clientRepo   repository.ClientRepository
	decisionRepo repository.DecisionRepository
	alertRepo    repository.AlertRepository

	ledger   EquipmentLedger
	resolver SubstitutionResolver
	audit    AuditService

	// One mutex per session serializes ledger-check-then-commit.
	// Sessions never contend with each other.
	locks sync.Map // primitive.ObjectID -> *sync.Mutex
}

// NewSessionService creates the session engine.
func NewSessionService(
	sessionRepo repository.SessionRepository,
	stateRepo repository.SessionStateRepository,
	programRepo repository.ProgramRepository,
	exerciseRepo repository.ExerciseRepository,
	clientRepo repository.ClientRepository,
	decisionRepo repository.DecisionRepository,
	alertRepo repository.AlertRepository,
	ledger EquipmentLedger,
	resolver SubstitutionResolver,
	audit AuditService,
) SessionService {
	return &sessionService{
		sessionRepo:  sessionRepo,
		stateRepo:    stateRepo,
		programRepo:  programRepo,
		exerciseRepo: exerciseRepo,
		clientRepo:   clientRepo,
		decisionRepo: decisionRepo,
		alertRepo:    alertRepo,
		ledger:       ledger,
		resolver:     resolver,
		audit:        audit,
	}
}

func (s *sessionService) sessionLock(sessionID primitive.ObjectID) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// StartSession creates the session and one state row per participant.
func (s *sessionService) StartSession(ctx context.Context, params StartSessionParams) (*domain.Session, []domain.SessionState, error) {
	if len(params.Participants) == 0 {
		return nil, nil, ErrNoParticipants
	}
	if len(params.Participants) > domain.MaxParticipants {
		return nil, nil, ErrTooManyParticipants
	}

	clientIDs := make([]primitive.ObjectID, 0, len(params.Participants))
	for _, p := range params.Participants {
		if _, err := s.clientRepo.GetByID(ctx, p.ClientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, ErrClientNotFound
			}
			return nil, nil, err
		}
		program, err := s.programRepo.GetByID(ctx, p.ProgramID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, ErrProgramNotFound
			}
			return nil, nil, err
		}
		if program.ClientID != p.ClientID {
			return nil, nil, ErrProgramNotForClient
		}
		clientIDs = append(clientIDs, p.ClientID)
	}

	session := &domain.Session{
		StartTime:       params.StartTime,
		DurationMinutes: params.DurationMinutes,
		Coach:           params.Coach,
		ClientIDs:       clientIDs,
		Status:          domain.SessionActive,
	}
	sessionID, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, nil, err
	}
	session.ID = sessionID

	states := make([]domain.SessionState, 0, len(params.Participants))
	for _, p := range params.Participants {
		state := domain.SessionState{
			SessionID:            sessionID,
			ClientID:             p.ClientID,
			ProgramID:            p.ProgramID,
			CurrentExerciseIndex: 0,
			CurrentSet:           1,
			Status:               domain.StatusReady,
			EquipmentInUse:       []string{},
		}
		if _, err := s.stateRepo.Create(ctx, &state); err != nil {
			return nil, nil, err
		}
		states = append(states, state)
	}

	return session, states, nil
}

// CompleteSession marks the session completed and releases any equipment
// still held. State rows are retained for audit.
func (s *sessionService) CompleteSession(ctx context.Context, sessionID primitive.ObjectID) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.sessionRepo.UpdateStatus(ctx, sessionID, domain.SessionCompleted); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	states, err := s.stateRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	for i := range states {
		if !states[i].HoldsEquipment() {
			continue
		}
		states[i].EquipmentInUse = []string{}
		if err := s.stateRepo.Update(ctx, &states[i]); err != nil {
			return err
		}
	}
	return nil
}

// Advance is the transition function for one "set completed" event.
func (s *sessionService) Advance(ctx context.Context, sessionStateID primitive.ObjectID) (*domain.Outcome, error) {
	// First read only locates the session; the authoritative re-read
	// happens under the session lock.
	peek, err := s.stateRepo.GetByID(ctx, sessionStateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionStateNotFound
		}
		return nil, err
	}

	lock := s.sessionLock(peek.SessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.stateRepo.GetByID(ctx, sessionStateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionStateNotFound
		}
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, state.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Status != domain.SessionActive {
		return nil, ErrSessionNotActive
	}

	// Re-advancing a finished client is a no-op: same outcome, no writes.
	if state.Status == domain.StatusComplete {
		return &domain.Outcome{Kind: domain.OutcomeProgramComplete}, nil
	}

	program, err := s.programRepo.GetByID(ctx, state.ProgramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}

	if state.CurrentExerciseIndex < 0 || state.CurrentExerciseIndex >= len(program.Entries) {
		log.Printf("ERROR: session state %s index %d outside program of %d entries",
			state.ID.Hex(), state.CurrentExerciseIndex, len(program.Entries))
		return nil, ErrInvalidState
	}

	entry := program.Entries[state.CurrentExerciseIndex]
	if state.CurrentSet < 1 || state.CurrentSet > entry.Sets {
		log.Printf("ERROR: session state %s set %d outside 1..%d",
			state.ID.Hex(), state.CurrentSet, entry.Sets)
		return nil, ErrInvalidState
	}

	// Current exercise not finished: next set, rest, equipment released.
	if state.CurrentSet < entry.Sets {
		state.CurrentSet++
		state.Status = domain.StatusResting
		state.EquipmentInUse = []string{}
		state.RestRemainingSeconds = entry.RestSeconds
		state.LastRPE = nil
		if err := s.stateRepo.Update(ctx, state); err != nil {
			return nil, err
		}
		return &domain.Outcome{
			Kind:        domain.OutcomeSetAdvanced,
			NextSet:     state.CurrentSet,
			TotalSets:   entry.Sets,
			RestSeconds: entry.RestSeconds,
		}, nil
	}

	// Sets exhausted: try to move to the next exercise.
	nextIndex := state.CurrentExerciseIndex + 1

	if nextIndex >= len(program.Entries) {
		state.Status = domain.StatusComplete
		state.EquipmentInUse = []string{}
		state.RestRemainingSeconds = 0
		state.LastRPE = nil
		if err := s.stateRepo.Update(ctx, state); err != nil {
			return nil, err
		}
		return &domain.Outcome{Kind: domain.OutcomeProgramComplete}, nil
	}

	nextEntry := program.Entries[nextIndex]
	exercise, err := s.exerciseRepo.GetByID(ctx, nextEntry.ExerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	availability := AvailabilityResult{Available: true, Conflicts: []string{}}
	if !exercise.IsBodyweight() {
		availability, err = s.ledger.CheckAvailability(ctx, state.SessionID, exercise.RequiredEquipment)
		if err != nil {
			return nil, err
		}
	}

	if availability.Available {
		if err := s.commitExercise(ctx, state, nextIndex, exercise); err != nil {
			return nil, err
		}
		return &domain.Outcome{
			Kind:     domain.OutcomeExerciseAdvanced,
			Exercise: exercise,
			Sets:     nextEntry.Sets,
			Reps:     nextEntry.Reps,
		}, nil
	}

	// Equipment conflict: try an automatic substitution.
	alternative, err := s.resolver.FindAlternative(ctx, nextEntry.ExerciseID, state.SessionID)
	if err != nil {
		return nil, err
	}

	if alternative != nil {
		if err := s.commitExercise(ctx, state, nextIndex, alternative); err != nil {
			return nil, err
		}

		reason := strings.Join(availability.Conflicts, ", ") + " occupied"
		s.warnOnAuditFailure(s.audit.RecordDecision(ctx, &domain.DecisionRecord{
			SessionID:        &state.SessionID,
			ClientID:         &state.ClientID,
			Trigger:          domain.TriggerEquipmentConflict,
			Scenario:         fmt.Sprintf("%s equipment occupied", exercise.Name),
			Decision:         fmt.Sprintf("Auto-substituted: %s", alternative.Name),
			RequiresApproval: false,
			Approved:         true,
		}))
		s.warnOnAuditFailure(s.audit.RaiseAlert(ctx, &domain.Alert{
			SessionID:      state.SessionID,
			ClientID:       state.ClientID,
			Type:           domain.AlertEquipmentConflict,
			Message:        fmt.Sprintf("Auto-substituted %s with %s (equipment conflict)", exercise.Name, alternative.Name),
			RequiresAction: false,
		}))

		return &domain.Outcome{
			Kind:            domain.OutcomeSubstituted,
			Exercise:        alternative,
			Sets:            nextEntry.Sets,
			Reps:            nextEntry.Reps,
			SubstitutedFrom: exercise.Name,
			Reason:          reason,
		}, nil
	}

	// No substitute: the client waits on the same target exercise.
	// The index is deliberately not advanced; a later call retries the
	// same transition once equipment frees.
	state.Status = domain.StatusWaiting
	state.EquipmentInUse = []string{}
	if err := s.stateRepo.Update(ctx, state); err != nil {
		return nil, err
	}

	s.warnOnAuditFailure(s.audit.RaiseAlert(ctx, &domain.Alert{
		SessionID:      state.SessionID,
		ClientID:       state.ClientID,
		Type:           domain.AlertEquipmentConflict,
		Message:        fmt.Sprintf("%s equipment occupied - no alternatives available", exercise.Name),
		RequiresAction: true,
	}))

	return &domain.Outcome{
		Kind:            domain.OutcomeWaiting,
		BlockedExercise: exercise.Name,
		Conflicts:       availability.Conflicts,
	}, nil
}

// commitExercise writes the state fields shared by a plain advance and a
// substitution: new index, set one, active, holding the (possibly
// substituted) exercise's equipment.
func (s *sessionService) commitExercise(ctx context.Context, state *domain.SessionState, nextIndex int, exercise *domain.Exercise) error {
	state.CurrentExerciseIndex = nextIndex
	state.CurrentSet = 1
	state.Status = domain.StatusActive
	state.EquipmentInUse = append([]string{}, exercise.RequiredEquipment...)
	state.RestRemainingSeconds = 0
	state.LastRPE = nil
	return s.stateRepo.Update(ctx, state)
}

// warnOnAuditFailure downgrades audit errors to warnings: the transition
// they describe has already committed.
func (s *sessionService) warnOnAuditFailure(err error) {
	if err != nil {
		log.Printf("WARN: audit write failed after committed transition: %v", err)
	}
}

// SubmitExertion applies the rest-extension policy for a reported RPE.
func (s *sessionService) SubmitExertion(ctx context.Context, sessionStateID primitive.ObjectID, rpe int) (int, error) {
	if rpe < 0 || rpe > 10 {
		return 0, ErrInvalidRPE
	}

	peek, err := s.stateRepo.GetByID(ctx, sessionStateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrSessionStateNotFound
		}
		return 0, err
	}

	lock := s.sessionLock(peek.SessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.stateRepo.GetByID(ctx, sessionStateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrSessionStateNotFound
		}
		return 0, err
	}

	extension := 0
	switch {
	case rpe >= 9:
		extension = restExtensionHighRPE
	case rpe == 8:
		extension = restExtensionModerateRPE
	}

	state.LastRPE = &rpe
	state.RestRemainingSeconds += extension
	if err := s.stateRepo.Update(ctx, state); err != nil {
		return 0, err
	}

	if rpe >= 9 {
		clientName := s.clientName(ctx, state.ClientID)
		s.warnOnAuditFailure(s.audit.RaiseAlert(ctx, &domain.Alert{
			SessionID:      state.SessionID,
			ClientID:       state.ClientID,
			Type:           domain.AlertHighRPE,
			Message:        fmt.Sprintf("%s reported RPE %d - rest auto-extended", clientName, rpe),
			RequiresAction: false,
		}))
	}

	return state.RestRemainingSeconds, nil
}

// ReportPain records a client pain report: an action-required alert for
// the coach and a decision record awaiting approval.
func (s *sessionService) ReportPain(ctx context.Context, sessionStateID primitive.ObjectID, description string) error {
	state, err := s.stateRepo.GetByID(ctx, sessionStateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionStateNotFound
		}
		return err
	}

	clientName := s.clientName(ctx, state.ClientID)

	s.warnOnAuditFailure(s.audit.RaiseAlert(ctx, &domain.Alert{
		SessionID:      state.SessionID,
		ClientID:       state.ClientID,
		Type:           domain.AlertPain,
		Message:        fmt.Sprintf("%s: %s", clientName, description),
		RequiresAction: true,
	}))
	s.warnOnAuditFailure(s.audit.RecordDecision(ctx, &domain.DecisionRecord{
		SessionID:        &state.SessionID,
		ClientID:         &state.ClientID,
		Trigger:          domain.TriggerPain,
		Scenario:         fmt.Sprintf("%s reported pain: %s", clientName, description),
		Decision:         "Flagged for coach assessment",
		RequiresApproval: true,
		Approved:         false,
	}))

	return nil
}

// clientName resolves a display name, falling back to the id when the
// client row is missing.
func (s *sessionService) clientName(ctx context.Context, clientID primitive.ObjectID) string {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return clientID.Hex()
	}
	return client.Name
}

func (s *sessionService) GetSessionStates(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SessionState, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s.stateRepo.GetBySessionID(ctx, sessionID)
}

func (s *sessionService) GetSessionAlerts(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Alert, error) {
	return s.alertRepo.GetBySessionID(ctx, sessionID)
}

func (s *sessionService) GetRecentDecisions(ctx context.Context, limit int) ([]domain.DecisionRecord, error) {
	return s.decisionRepo.GetRecent(ctx, limit)
}
