package service

import (
	"context"
	"testing"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/repository/memory"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ledgerFixture wires a ledger over the in-memory store with one session
// and helpers to plant state rows directly.
type ledgerFixture struct {
	store     *memory.Store
	sessionID primitive.ObjectID
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memory.NewStore()
	session := domain.Session{Status: domain.SessionActive}
	sessionID, err := store.Sessions().Create(context.Background(), &session)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &ledgerFixture{store: store, sessionID: sessionID}
}

func (f *ledgerFixture) ledger(t *testing.T, countResting bool) EquipmentLedger {
	t.Helper()
	return NewEquipmentLedger(f.store.SessionStates(), f.store.Equipment(), countResting)
}

func (f *ledgerFixture) addEquipment(t *testing.T, name string, quantity int) {
	t.Helper()
	item := domain.EquipmentItem{Name: name, Quantity: quantity}
	if _, err := f.store.Equipment().Upsert(context.Background(), &item); err != nil {
		t.Fatalf("upsert equipment: %v", err)
	}
}

func (f *ledgerFixture) addHolder(t *testing.T, status domain.ClientStatus, equipment ...string) {
	t.Helper()
	state := domain.SessionState{
		SessionID:      f.sessionID,
		ClientID:       primitive.NewObjectID(),
		ProgramID:      primitive.NewObjectID(),
		CurrentSet:     1,
		Status:         status,
		EquipmentInUse: equipment,
	}
	if _, err := f.store.SessionStates().Create(context.Background(), &state); err != nil {
		t.Fatalf("create state: %v", err)
	}
}

// TestCheckAvailabilityFree verifies that items with free units pass.
func TestCheckAvailabilityFree(t *testing.T) {
	f := newLedgerFixture(t)
	f.addEquipment(t, "Kettlebell", 2)
	f.addHolder(t, domain.StatusActive, "Kettlebell")

	result, err := f.ledger(t, true).CheckAvailability(context.Background(), f.sessionID, []string{"Kettlebell"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Available {
		t.Errorf("available = false, want true (1 of 2 in use)")
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("conflicts = %v, want empty", result.Conflicts)
	}
}

// TestCheckAvailabilityReportsAllConflicts verifies the conflict list
// covers every blocking item, not just the first.
func TestCheckAvailabilityReportsAllConflicts(t *testing.T) {
	f := newLedgerFixture(t)
	f.addEquipment(t, "Trap Bar", 1)
	f.addEquipment(t, "Bench", 1)
	f.addEquipment(t, "Kettlebell", 2)
	f.addHolder(t, domain.StatusActive, "Trap Bar", "Bench")

	result, err := f.ledger(t, true).CheckAvailability(context.Background(), f.sessionID, []string{"Trap Bar", "Bench", "Kettlebell"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Available {
		t.Errorf("available = true, want false")
	}
	if len(result.Conflicts) != 2 || result.Conflicts[0] != "Trap Bar" || result.Conflicts[1] != "Bench" {
		t.Errorf("conflicts = %v, want [Trap Bar Bench]", result.Conflicts)
	}
}

// TestCheckAvailabilityRestingPolicy verifies the configurable treatment
// of resting clients' holdings.
func TestCheckAvailabilityRestingPolicy(t *testing.T) {
	f := newLedgerFixture(t)
	f.addEquipment(t, "Bench", 1)
	f.addHolder(t, domain.StatusResting, "Bench")

	conservative, err := f.ledger(t, true).CheckAvailability(context.Background(), f.sessionID, []string{"Bench"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if conservative.Available {
		t.Errorf("countResting=true: available = true, want false")
	}

	permissive, err := f.ledger(t, false).CheckAvailability(context.Background(), f.sessionID, []string{"Bench"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !permissive.Available {
		t.Errorf("countResting=false: available = false, want true")
	}
}

// TestCheckAvailabilityIgnoresNonOccupyingStatuses verifies waiting and
// complete rows never count toward occupancy.
func TestCheckAvailabilityIgnoresNonOccupyingStatuses(t *testing.T) {
	f := newLedgerFixture(t)
	f.addEquipment(t, "Bench", 1)
	f.addHolder(t, domain.StatusWaiting, "Bench")
	f.addHolder(t, domain.StatusComplete, "Bench")

	result, err := f.ledger(t, true).CheckAvailability(context.Background(), f.sessionID, []string{"Bench"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Available {
		t.Errorf("available = false, want true")
	}
}

// TestCheckAvailabilityUnknownItemSkipped verifies an uncataloged name is
// skipped rather than failing or blocking the check.
func TestCheckAvailabilityUnknownItemSkipped(t *testing.T) {
	f := newLedgerFixture(t)
	f.addEquipment(t, "Kettlebell", 1)

	result, err := f.ledger(t, true).CheckAvailability(context.Background(), f.sessionID, []string{"Slam Ball", "Kettlebell"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Available {
		t.Errorf("available = false, want true (unknown item skipped)")
	}
}

// TestCheckAvailabilityEmptyRequirement verifies bodyweight requirements
// are trivially available.
func TestCheckAvailabilityEmptyRequirement(t *testing.T) {
	f := newLedgerFixture(t)

	result, err := f.ledger(t, true).CheckAvailability(context.Background(), f.sessionID, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Available {
		t.Errorf("available = false, want true")
	}
}

// TestAvailabilityView verifies the dashboard view's per-item counts.
func TestAvailabilityView(t *testing.T) {
	f := newLedgerFixture(t)
	f.addEquipment(t, "Bench", 1)
	f.addEquipment(t, "Kettlebell", 3)
	f.addHolder(t, domain.StatusActive, "Kettlebell", "Bench")
	f.addHolder(t, domain.StatusResting, "Kettlebell")

	view, err := f.ledger(t, true).Availability(context.Background(), f.sessionID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}

	byName := make(map[string]domain.EquipmentAvailability, len(view))
	for _, item := range view {
		byName[item.Name] = item
	}

	if got := byName["Bench"]; got.Total != 1 || got.InUse != 1 || got.Available != 0 {
		t.Errorf("Bench = %+v, want total=1 inUse=1 available=0", got)
	}
	if got := byName["Kettlebell"]; got.Total != 3 || got.InUse != 2 || got.Available != 1 {
		t.Errorf("Kettlebell = %+v, want total=3 inUse=2 available=1", got)
	}
}
