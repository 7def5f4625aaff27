package repository

import (
	"context"

	"groupfit/session-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDuplicate    = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ClientRepository defines the interface for interacting with client records.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error)
	GetAll(ctx context.Context) ([]domain.Client, error)
}

// EquipmentRepository defines the interface for the facility equipment catalog.
type EquipmentRepository interface {
	Upsert(ctx context.Context, item *domain.EquipmentItem) (primitive.ObjectID, error)
	GetByName(ctx context.Context, name string) (*domain.EquipmentItem, error)
	GetAll(ctx context.Context) ([]domain.EquipmentItem, error)
}

// ExerciseRepository defines the interface for the exercise library.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	// GetByMovementPattern returns all exercises sharing a pattern,
	// ordered by id so substitution search is deterministic.
	GetByMovementPattern(ctx context.Context, pattern string) ([]domain.Exercise, error)
	GetAll(ctx context.Context) ([]domain.Exercise, error)
	SetSubstitutions(ctx context.Context, id primitive.ObjectID, substitutions []primitive.ObjectID) error
	SetDemoObjectKey(ctx context.Context, id primitive.ObjectID, objectKey string) error
}

// ProgramRepository defines the interface for client programs.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Program, error)
}

// SessionRepository defines the interface for sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error)
	GetByStatus(ctx context.Context, status domain.SessionStatus) ([]domain.Session, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.SessionStatus) error
}

// SessionStateRepository defines the interface for per-client session states.
type SessionStateRepository interface {
	Create(ctx context.Context, state *domain.SessionState) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SessionState, error)
	GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SessionState, error)
	// GetBySessionAndStatuses filters one session's states by status membership.
	GetBySessionAndStatuses(ctx context.Context, sessionID primitive.ObjectID, statuses []domain.ClientStatus) ([]domain.SessionState, error)
	Update(ctx context.Context, state *domain.SessionState) error
}

// DecisionRepository is the append-only decision log.
type DecisionRepository interface {
	Create(ctx context.Context, record *domain.DecisionRecord) (primitive.ObjectID, error)
	GetRecent(ctx context.Context, limit int) ([]domain.DecisionRecord, error)
}

// AlertRepository is the append-only alert log.
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) (primitive.ObjectID, error)
	GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Alert, error)
}
