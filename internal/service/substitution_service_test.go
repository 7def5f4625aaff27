package service

import (
	"context"
	"errors"
	"testing"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/repository/memory"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// resolverFixture wires a resolver over the in-memory store with one
// session whose occupancy the tests control directly.
type resolverFixture struct {
	store     *memory.Store
	resolver  SubstitutionResolver
	sessionID primitive.ObjectID
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	store := memory.NewStore()
	session := domain.Session{Status: domain.SessionActive}
	sessionID, err := store.Sessions().Create(context.Background(), &session)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	ledger := NewEquipmentLedger(store.SessionStates(), store.Equipment(), true)
	return &resolverFixture{
		store:     store,
		resolver:  NewSubstitutionResolver(store.Exercises(), ledger),
		sessionID: sessionID,
	}
}

func (f *resolverFixture) addEquipment(t *testing.T, name string, quantity int) {
	t.Helper()
	item := domain.EquipmentItem{Name: name, Quantity: quantity}
	if _, err := f.store.Equipment().Upsert(context.Background(), &item); err != nil {
		t.Fatalf("upsert equipment: %v", err)
	}
}

func (f *resolverFixture) addExercise(t *testing.T, ex domain.Exercise) primitive.ObjectID {
	t.Helper()
	id, err := f.store.Exercises().Create(context.Background(), &ex)
	if err != nil {
		t.Fatalf("create exercise: %v", err)
	}
	return id
}

func (f *resolverFixture) occupy(t *testing.T, equipment ...string) {
	t.Helper()
	state := domain.SessionState{
		SessionID:      f.sessionID,
		ClientID:       primitive.NewObjectID(),
		ProgramID:      primitive.NewObjectID(),
		CurrentSet:     1,
		Status:         domain.StatusActive,
		EquipmentInUse: equipment,
	}
	if _, err := f.store.SessionStates().Create(context.Background(), &state); err != nil {
		t.Fatalf("create state: %v", err)
	}
}

// TestFindAlternativeDeclaredFirst verifies the declared substitute list
// wins over same-pattern candidates, in its priority order.
func TestFindAlternativeDeclaredFirst(t *testing.T) {
	f := newResolverFixture(t)
	f.addEquipment(t, "Trap Bar", 1)
	f.addEquipment(t, "Barbell", 1)
	f.addEquipment(t, "Kettlebell", 2)

	barbellRDLID := f.addExercise(t, domain.Exercise{
		Name:              "Barbell RDL",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Barbell"},
	})
	kbDeadliftID := f.addExercise(t, domain.Exercise{
		Name:              "Kettlebell Deadlift",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Kettlebell"},
	})
	trapBarID := f.addExercise(t, domain.Exercise{
		Name:              "Trap Bar Deadlift",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Trap Bar"},
		Substitutions:     []primitive.ObjectID{barbellRDLID, kbDeadliftID},
	})

	f.occupy(t, "Trap Bar")

	alt, err := f.resolver.FindAlternative(context.Background(), trapBarID, f.sessionID)
	if err != nil {
		t.Fatalf("find alternative: %v", err)
	}
	if alt == nil || alt.Name != "Barbell RDL" {
		t.Fatalf("alternative = %+v, want Barbell RDL (first declared)", alt)
	}

	// First declared choice blocked: the second one wins.
	f.occupy(t, "Barbell")
	alt, err = f.resolver.FindAlternative(context.Background(), trapBarID, f.sessionID)
	if err != nil {
		t.Fatalf("find alternative: %v", err)
	}
	if alt == nil || alt.Name != "Kettlebell Deadlift" {
		t.Fatalf("alternative = %+v, want Kettlebell Deadlift", alt)
	}
}

// TestFindAlternativeWidensToMovementPattern verifies the fallback scan
// over exercises sharing the movement pattern when nothing is declared.
func TestFindAlternativeWidensToMovementPattern(t *testing.T) {
	f := newResolverFixture(t)
	f.addEquipment(t, "Trap Bar", 1)
	f.addEquipment(t, "Kettlebell", 2)

	trapBarID := f.addExercise(t, domain.Exercise{
		Name:              "Trap Bar Deadlift",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Trap Bar"},
	})
	f.addExercise(t, domain.Exercise{
		Name:              "Kettlebell Deadlift",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Kettlebell"},
	})
	f.addExercise(t, domain.Exercise{
		Name:            "Bench Press",
		MovementPattern: "horizontal push",
	})

	f.occupy(t, "Trap Bar")

	alt, err := f.resolver.FindAlternative(context.Background(), trapBarID, f.sessionID)
	if err != nil {
		t.Fatalf("find alternative: %v", err)
	}
	if alt == nil || alt.Name != "Kettlebell Deadlift" {
		t.Fatalf("alternative = %+v, want Kettlebell Deadlift", alt)
	}
}

// TestFindAlternativeBodyweightAlwaysAvailable verifies a bodyweight
// candidate passes regardless of occupancy.
func TestFindAlternativeBodyweightAlwaysAvailable(t *testing.T) {
	f := newResolverFixture(t)
	f.addEquipment(t, "Trap Bar", 1)

	trapBarID := f.addExercise(t, domain.Exercise{
		Name:              "Trap Bar Deadlift",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Trap Bar"},
	})
	f.addExercise(t, domain.Exercise{
		Name:            "Single-leg Hip Bridge",
		MovementPattern: "hip hinge",
	})

	f.occupy(t, "Trap Bar")

	alt, err := f.resolver.FindAlternative(context.Background(), trapBarID, f.sessionID)
	if err != nil {
		t.Fatalf("find alternative: %v", err)
	}
	if alt == nil || alt.Name != "Single-leg Hip Bridge" {
		t.Fatalf("alternative = %+v, want Single-leg Hip Bridge", alt)
	}
}

// TestFindAlternativeSkipsStaleDeclaredReference verifies a dangling
// substitute id does not abort the search.
func TestFindAlternativeSkipsStaleDeclaredReference(t *testing.T) {
	f := newResolverFixture(t)
	f.addEquipment(t, "Trap Bar", 1)
	f.addEquipment(t, "Kettlebell", 2)

	kbDeadliftID := f.addExercise(t, domain.Exercise{
		Name:              "Kettlebell Deadlift",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Kettlebell"},
	})
	trapBarID := f.addExercise(t, domain.Exercise{
		Name:              "Trap Bar Deadlift",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Trap Bar"},
		Substitutions:     []primitive.ObjectID{primitive.NewObjectID(), kbDeadliftID},
	})

	f.occupy(t, "Trap Bar")

	alt, err := f.resolver.FindAlternative(context.Background(), trapBarID, f.sessionID)
	if err != nil {
		t.Fatalf("find alternative: %v", err)
	}
	if alt == nil || alt.Name != "Kettlebell Deadlift" {
		t.Fatalf("alternative = %+v, want Kettlebell Deadlift", alt)
	}
}

// TestFindAlternativeNone verifies nil is returned when every candidate
// is blocked.
func TestFindAlternativeNone(t *testing.T) {
	f := newResolverFixture(t)
	f.addEquipment(t, "Trap Bar", 1)
	f.addEquipment(t, "Kettlebell", 1)

	trapBarID := f.addExercise(t, domain.Exercise{
		Name:              "Trap Bar Deadlift",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Trap Bar"},
	})
	f.addExercise(t, domain.Exercise{
		Name:              "Kettlebell Deadlift",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Kettlebell"},
	})

	f.occupy(t, "Trap Bar", "Kettlebell")

	alt, err := f.resolver.FindAlternative(context.Background(), trapBarID, f.sessionID)
	if err != nil {
		t.Fatalf("find alternative: %v", err)
	}
	if alt != nil {
		t.Fatalf("alternative = %+v, want nil", alt)
	}
}

// TestFindAlternativeDeterministic verifies repeated calls under the same
// occupancy return the same exercise.
func TestFindAlternativeDeterministic(t *testing.T) {
	f := newResolverFixture(t)
	f.addEquipment(t, "Trap Bar", 1)
	f.addEquipment(t, "Kettlebell", 2)
	f.addEquipment(t, "Barbell", 2)

	trapBarID := f.addExercise(t, domain.Exercise{
		Name:              "Trap Bar Deadlift",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Trap Bar"},
	})
	f.addExercise(t, domain.Exercise{
		Name:              "Kettlebell Deadlift",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Kettlebell"},
	})
	f.addExercise(t, domain.Exercise{
		Name:              "Barbell RDL",
		MovementPattern:   "hip hinge",
		RequiredEquipment: []string{"Barbell"},
	})

	f.occupy(t, "Trap Bar")

	first, err := f.resolver.FindAlternative(context.Background(), trapBarID, f.sessionID)
	if err != nil {
		t.Fatalf("find alternative: %v", err)
	}
	if first == nil {
		t.Fatal("alternative = nil, want a candidate")
	}
	for i := 0; i < 5; i++ {
		again, err := f.resolver.FindAlternative(context.Background(), trapBarID, f.sessionID)
		if err != nil {
			t.Fatalf("find alternative: %v", err)
		}
		if again == nil || again.ID != first.ID {
			t.Fatalf("call %d returned %+v, want %s every time", i, again, first.Name)
		}
	}
}

// TestFindAlternativeUnknownExercise verifies the not-found error.
func TestFindAlternativeUnknownExercise(t *testing.T) {
	f := newResolverFixture(t)

	_, err := f.resolver.FindAlternative(context.Background(), primitive.NewObjectID(), f.sessionID)
	if !errors.Is(err, ErrExerciseNotFound) {
		t.Fatalf("err = %v, want ErrExerciseNotFound", err)
	}
}
