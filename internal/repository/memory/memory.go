// Package memory provides a mutex-guarded in-memory implementation of the
// repository interfaces. Useful for tests and ephemeral dev runs; it is
// also the store double that lets the engine be exercised without a
// database connection.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every record type behind one lock. Individual repository
// views share the lock, so cross-collection reads observe a consistent
// snapshot.
type Store struct {
	mu sync.RWMutex

	clients   map[primitive.ObjectID]domain.Client
	equipment map[string]domain.EquipmentItem // keyed by unique name
	exercises map[primitive.ObjectID]domain.Exercise
	programs  map[primitive.ObjectID]domain.Program
	sessions  map[primitive.ObjectID]domain.Session
	states    map[primitive.ObjectID]domain.SessionState
	decisions []domain.DecisionRecord
	alerts    []domain.Alert
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		clients:   make(map[primitive.ObjectID]domain.Client),
		equipment: make(map[string]domain.EquipmentItem),
		exercises: make(map[primitive.ObjectID]domain.Exercise),
		programs:  make(map[primitive.ObjectID]domain.Program),
		sessions:  make(map[primitive.ObjectID]domain.Session),
		states:    make(map[primitive.ObjectID]domain.SessionState),
	}
}

// Repository views. Each returns an adapter sharing the store's lock.

func (s *Store) Clients() repository.ClientRepository           { return &clientRepo{s} }
func (s *Store) Equipment() repository.EquipmentRepository      { return &equipmentRepo{s} }
func (s *Store) Exercises() repository.ExerciseRepository       { return &exerciseRepo{s} }
func (s *Store) Programs() repository.ProgramRepository         { return &programRepo{s} }
func (s *Store) Sessions() repository.SessionRepository         { return &sessionRepo{s} }
func (s *Store) SessionStates() repository.SessionStateRepository { return &stateRepo{s} }
func (s *Store) Decisions() repository.DecisionRepository       { return &decisionRepo{s} }
func (s *Store) Alerts() repository.AlertRepository             { return &alertRepo{s} }

// --- clients ---

type clientRepo struct{ s *Store }

func (r *clientRepo) Create(_ context.Context, client *domain.Client) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	client.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now
	r.s.clients[client.ID] = *client
	return client.ID, nil
}

func (r *clientRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	client, ok := r.s.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &client, nil
}

func (r *clientRepo) GetAll(_ context.Context) ([]domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	clients := make([]domain.Client, 0, len(r.s.clients))
	for _, c := range r.s.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
	return clients, nil
}

// --- equipment ---

type equipmentRepo struct{ s *Store }

func (r *equipmentRepo) Upsert(_ context.Context, item *domain.EquipmentItem) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.s.equipment[item.Name]; ok {
		existing.Quantity = item.Quantity
		existing.UpdatedAt = now
		r.s.equipment[item.Name] = existing
		item.ID = existing.ID
		return existing.ID, nil
	}

	item.ID = primitive.NewObjectID()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.s.equipment[item.Name] = *item
	return item.ID, nil
}

func (r *equipmentRepo) GetByName(_ context.Context, name string) (*domain.EquipmentItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.equipment[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (r *equipmentRepo) GetAll(_ context.Context) ([]domain.EquipmentItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := make([]domain.EquipmentItem, 0, len(r.s.equipment))
	for _, item := range r.s.equipment {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// --- exercises ---

type exerciseRepo struct{ s *Store }

func (r *exerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	r.s.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *exerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	exercise, ok := r.s.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &exercise, nil
}

func (r *exerciseRepo) GetByMovementPattern(_ context.Context, pattern string) ([]domain.Exercise, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var exercises []domain.Exercise
	for _, e := range r.s.exercises {
		if e.MovementPattern == pattern {
			exercises = append(exercises, e)
		}
	}
	// Same ordering contract as the Mongo implementation: by id.
	sort.Slice(exercises, func(i, j int) bool {
		return exercises[i].ID.Hex() < exercises[j].ID.Hex()
	})
	return exercises, nil
}

func (r *exerciseRepo) GetAll(_ context.Context) ([]domain.Exercise, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	exercises := make([]domain.Exercise, 0, len(r.s.exercises))
	for _, e := range r.s.exercises {
		exercises = append(exercises, e)
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].Name < exercises[j].Name })
	return exercises, nil
}

func (r *exerciseRepo) SetSubstitutions(_ context.Context, id primitive.ObjectID, substitutions []primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	exercise, ok := r.s.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	exercise.Substitutions = substitutions
	exercise.UpdatedAt = time.Now().UTC()
	r.s.exercises[id] = exercise
	return nil
}

func (r *exerciseRepo) SetDemoObjectKey(_ context.Context, id primitive.ObjectID, objectKey string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	exercise, ok := r.s.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	exercise.DemoObjectKey = objectKey
	exercise.UpdatedAt = time.Now().UTC()
	r.s.exercises[id] = exercise
	return nil
}

// --- programs ---

type programRepo struct{ s *Store }

func (r *programRepo) Create(_ context.Context, program *domain.Program) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	r.s.programs[program.ID] = *program
	return program.ID, nil
}

func (r *programRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	program, ok := r.s.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &program, nil
}

func (r *programRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.Program, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var programs []domain.Program
	for _, p := range r.s.programs {
		if p.ClientID == clientID {
			programs = append(programs, p)
		}
	}
	sort.Slice(programs, func(i, j int) bool {
		return programs[i].CreatedAt.After(programs[j].CreatedAt)
	})
	return programs, nil
}

// --- sessions ---

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, session *domain.Session) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = domain.SessionActive
	}
	r.s.sessions[session.ID] = *session
	return session.ID, nil
}

func (r *sessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	session, ok := r.s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (r *sessionRepo) GetByStatus(_ context.Context, status domain.SessionStatus) ([]domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var sessions []domain.Session
	for _, sess := range r.s.sessions {
		if sess.Status == status {
			sessions = append(sessions, sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions, nil
}

func (r *sessionRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.SessionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	session.Status = status
	session.UpdatedAt = time.Now().UTC()
	r.s.sessions[id] = session
	return nil
}

// --- session states ---

type stateRepo struct{ s *Store }

func (r *stateRepo) Create(_ context.Context, state *domain.SessionState) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	state.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	state.CreatedAt = now
	state.UpdatedAt = now
	if state.EquipmentInUse == nil {
		state.EquipmentInUse = []string{}
	}
	r.s.states[state.ID] = cloneState(*state)
	return state.ID, nil
}

func (r *stateRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.SessionState, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	state, ok := r.s.states[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := cloneState(state)
	return &copied, nil
}

func (r *stateRepo) GetBySessionID(_ context.Context, sessionID primitive.ObjectID) ([]domain.SessionState, error) {
	return r.filter(func(st domain.SessionState) bool {
		return st.SessionID == sessionID
	})
}

func (r *stateRepo) GetBySessionAndStatuses(_ context.Context, sessionID primitive.ObjectID, statuses []domain.ClientStatus) ([]domain.SessionState, error) {
	statusSet := make(map[domain.ClientStatus]bool, len(statuses))
	for _, st := range statuses {
		statusSet[st] = true
	}
	return r.filter(func(st domain.SessionState) bool {
		return st.SessionID == sessionID && statusSet[st.Status]
	})
}

func (r *stateRepo) filter(keep func(domain.SessionState) bool) ([]domain.SessionState, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var states []domain.SessionState
	for _, st := range r.s.states {
		if keep(st) {
			states = append(states, cloneState(st))
		}
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].ID.Hex() < states[j].ID.Hex()
	})
	return states, nil
}

func (r *stateRepo) Update(_ context.Context, state *domain.SessionState) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.states[state.ID]; !ok {
		return repository.ErrNotFound
	}
	state.UpdatedAt = time.Now().UTC()
	if state.EquipmentInUse == nil {
		state.EquipmentInUse = []string{}
	}
	r.s.states[state.ID] = cloneState(*state)
	return nil
}

// cloneState copies the slices so callers cannot mutate stored rows.
func cloneState(st domain.SessionState) domain.SessionState {
	equipment := make([]string, len(st.EquipmentInUse))
	copy(equipment, st.EquipmentInUse)
	st.EquipmentInUse = equipment
	if st.LastRPE != nil {
		rpe := *st.LastRPE
		st.LastRPE = &rpe
	}
	return st
}

// --- decisions ---

type decisionRepo struct{ s *Store }

func (r *decisionRepo) Create(_ context.Context, record *domain.DecisionRecord) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	record.ID = primitive.NewObjectID()
	record.CreatedAt = time.Now().UTC()
	if record.Trigger == "" {
		record.Trigger = domain.TriggerManual
	}
	r.s.decisions = append(r.s.decisions, *record)
	return record.ID, nil
}

func (r *decisionRepo) GetRecent(_ context.Context, limit int) ([]domain.DecisionRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	records := make([]domain.DecisionRecord, len(r.s.decisions))
	copy(records, r.s.decisions)
	// Newest first; appended in arrival order so reverse is enough.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// --- alerts ---

type alertRepo struct{ s *Store }

func (r *alertRepo) Create(_ context.Context, alert *domain.Alert) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	alert.ID = primitive.NewObjectID()
	alert.CreatedAt = time.Now().UTC()
	r.s.alerts = append(r.s.alerts, *alert)
	return alert.ID, nil
}

func (r *alertRepo) GetBySessionID(_ context.Context, sessionID primitive.ObjectID) ([]domain.Alert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var alerts []domain.Alert
	for i := len(r.s.alerts) - 1; i >= 0; i-- {
		if r.s.alerts[i].SessionID == sessionID {
			alerts = append(alerts, r.s.alerts[i])
		}
	}
	return alerts, nil
}
