package service

import (
	"context"
	"errors"
	"log"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AvailabilityResult is the outcome of one availability check. Conflicts
// lists every blocking item, not just the first, so callers can report
// the full picture.
type AvailabilityResult struct {
	Available bool     `json:"available"`
	Conflicts []string `json:"conflicts"`
}

// EquipmentLedger computes equipment occupancy for a session at any
// instant. It is a pure read over session states and the equipment
// catalog; occupancy is always recomputed from the authoritative rows,
// never cached.
type EquipmentLedger interface {
	// CheckAvailability reports whether every named item has a free unit
	// in the given session. An empty requirement is trivially available.
	CheckAvailability(ctx context.Context, sessionID primitive.ObjectID, requiredEquipment []string) (AvailabilityResult, error)

	// Availability returns the per-item occupancy view for dashboards.
	Availability(ctx context.Context, sessionID primitive.ObjectID) ([]domain.EquipmentAvailability, error)
}

// equipmentLedger implements the EquipmentLedger interface.
type equipmentLedger struct {
	stateRepo     repository.SessionStateRepository
	equipmentRepo repository.EquipmentRepository

	// countResting controls whether resting clients count toward
	// occupancy. The conservative default is true: equipment may still be
	// reserved or in transition during short rests.
	countResting bool
}

// NewEquipmentLedger creates a new ledger over the given repositories.
func NewEquipmentLedger(stateRepo repository.SessionStateRepository, equipmentRepo repository.EquipmentRepository, countResting bool) EquipmentLedger {
	return &equipmentLedger{
		stateRepo:     stateRepo,
		equipmentRepo: equipmentRepo,
		countResting:  countResting,
	}
}

// occupyingStatuses returns the statuses whose equipment holdings count
// toward occupancy under the configured policy.
func (l *equipmentLedger) occupyingStatuses() []domain.ClientStatus {
	if l.countResting {
		return []domain.ClientStatus{domain.StatusActive, domain.StatusResting}
	}
	return []domain.ClientStatus{domain.StatusActive}
}

// occupancy counts units of each equipment name held across the session.
func (l *equipmentLedger) occupancy(ctx context.Context, sessionID primitive.ObjectID) (map[string]int, error) {
	states, err := l.stateRepo.GetBySessionAndStatuses(ctx, sessionID, l.occupyingStatuses())
	if err != nil {
		return nil, err
	}

	inUse := make(map[string]int)
	for _, state := range states {
		for _, name := range state.EquipmentInUse {
			inUse[name]++
		}
	}
	return inUse, nil
}

// CheckAvailability checks each required item against current occupancy.
// Unknown equipment names are skipped with a diagnostic rather than
// failing the whole check; a partially seeded catalog must not block
// availability decisions.
func (l *equipmentLedger) CheckAvailability(ctx context.Context, sessionID primitive.ObjectID, requiredEquipment []string) (AvailabilityResult, error) {
	result := AvailabilityResult{Available: true, Conflicts: []string{}}
	if len(requiredEquipment) == 0 {
		return result, nil
	}

	inUse, err := l.occupancy(ctx, sessionID)
	if err != nil {
		return AvailabilityResult{}, err
	}

	for _, name := range requiredEquipment {
		item, err := l.equipmentRepo.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Printf("WARN: equipment %q not in catalog, skipping availability check", name)
				continue
			}
			return AvailabilityResult{}, err
		}

		if inUse[name] >= item.Quantity {
			result.Available = false
			result.Conflicts = append(result.Conflicts, name)
		}
	}

	return result, nil
}

// Availability returns the full occupancy view for every catalog item.
func (l *equipmentLedger) Availability(ctx context.Context, sessionID primitive.ObjectID) ([]domain.EquipmentAvailability, error) {
	items, err := l.equipmentRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	inUse, err := l.occupancy(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view := make([]domain.EquipmentAvailability, 0, len(items))
	for _, item := range items {
		used := inUse[item.Name]
		available := item.Quantity - used
		if available < 0 {
			available = 0
		}
		view = append(view, domain.EquipmentAvailability{
			Name:      item.Name,
			Total:     item.Quantity,
			InUse:     used,
			Available: available,
		})
	}
	return view, nil
}
