package service

import (
	"context"
	"errors"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubstitutionResolver finds an equivalent exercise when the requested
// one cannot get its equipment. Declared substitutes are tried first in
// their priority order, then the search widens to every exercise sharing
// the movement pattern. Candidate enumeration is deterministic, so
// repeated calls under an identical ledger snapshot return the same
// exercise.
type SubstitutionResolver interface {
	// FindAlternative returns the first available alternative for the
	// exercise in the given session, or nil when none exists.
	FindAlternative(ctx context.Context, exerciseID, sessionID primitive.ObjectID) (*domain.Exercise, error)
}

// substitutionResolver implements the SubstitutionResolver interface.
type substitutionResolver struct {
	exerciseRepo repository.ExerciseRepository
	ledger       EquipmentLedger
}

// NewSubstitutionResolver creates a resolver over the exercise library
// and the session's equipment ledger.
func NewSubstitutionResolver(exerciseRepo repository.ExerciseRepository, ledger EquipmentLedger) SubstitutionResolver {
	return &substitutionResolver{
		exerciseRepo: exerciseRepo,
		ledger:       ledger,
	}
}

func (r *substitutionResolver) FindAlternative(ctx context.Context, exerciseID, sessionID primitive.ObjectID) (*domain.Exercise, error) {
	source, err := r.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	// Declared substitute list first, in priority order.
	for _, candidateID := range source.Substitutions {
		candidate, err := r.exerciseRepo.GetByID(ctx, candidateID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// A stale substitute reference shouldn't abort the search.
				continue
			}
			return nil, err
		}
		ok, err := r.candidateAvailable(ctx, sessionID, candidate)
		if err != nil {
			return nil, err
		}
		if ok {
			return candidate, nil
		}
	}

	// Widen to every other exercise sharing the movement pattern,
	// in repository order (by id).
	candidates, err := r.exerciseRepo.GetByMovementPattern(ctx, source.MovementPattern)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidate := &candidates[i]
		if candidate.ID == source.ID {
			continue
		}
		ok, err := r.candidateAvailable(ctx, sessionID, candidate)
		if err != nil {
			return nil, err
		}
		if ok {
			return candidate, nil
		}
	}

	// No candidate available; the caller places the client in waiting.
	return nil, nil
}

// candidateAvailable reports whether a candidate's equipment can be
// granted right now. Bodyweight candidates are always available.
func (r *substitutionResolver) candidateAvailable(ctx context.Context, sessionID primitive.ObjectID, candidate *domain.Exercise) (bool, error) {
	if candidate.IsBodyweight() {
		return true, nil
	}
	result, err := r.ledger.CheckAvailability(ctx, sessionID, candidate.RequiredEquipment)
	if err != nil {
		return false, err
	}
	return result.Available, nil
}
