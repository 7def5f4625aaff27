package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/notify"
	"groupfit/session-engine/internal/repository/memory"
	"groupfit/session-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testAPIKey = "test-api-key"

// apiFixture builds the full HTTP surface over the in-memory store.
type apiFixture struct {
	store  *memory.Store
	router *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	ledger := service.NewEquipmentLedger(store.SessionStates(), store.Equipment(), true)
	resolver := service.NewSubstitutionResolver(store.Exercises(), ledger)
	audit := service.NewAuditService(store.Decisions(), store.Alerts(), notify.NewLogSink(), service.NewNoopNarrator())
	sessionService := service.NewSessionService(
		store.Sessions(),
		store.SessionStates(),
		store.Programs(),
		store.Exercises(),
		store.Clients(),
		store.Decisions(),
		store.Alerts(),
		ledger,
		resolver,
		audit,
	)

	router := gin.New()
	SetupRoutes(router, testAPIKey, sessionService, nil, ledger, resolver)

	return &apiFixture{store: store, router: router}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// seedBasics plants one client, one bodyweight exercise and a program,
// returning the pieces needed to start a session.
func (f *apiFixture) seedBasics(t *testing.T, sets int) (clientID, programID primitive.ObjectID) {
	t.Helper()
	exercise := domain.Exercise{Name: "Air Squat", MovementPattern: "squat"}
	exerciseID, err := f.store.Exercises().Create(context.Background(), &exercise)
	if err != nil {
		t.Fatalf("create exercise: %v", err)
	}
	client := domain.Client{Name: "Alice"}
	clientID, err = f.store.Clients().Create(context.Background(), &client)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	program := domain.Program{
		ClientID: clientID,
		Name:     "bodyweight day",
		Entries: []domain.ProgramEntry{
			{ExerciseID: exerciseID, Sets: sets, Reps: 10, RestSeconds: 45},
		},
	}
	programID, err = f.store.Programs().Create(context.Background(), &program)
	if err != nil {
		t.Fatalf("create program: %v", err)
	}
	return clientID, programID
}

func (f *apiFixture) startSession(t *testing.T, clientID, programID primitive.ObjectID) (sessionID, stateID string) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/sessions", gin.H{
		"startTime":       "2026-09-01T09:00:00Z",
		"durationMinutes": 60,
		"coach":           "Sam",
		"participants": []gin.H{
			{"clientId": clientID.Hex(), "programId": programID.Hex()},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start session: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID     string                `json:"id"`
		States []domain.SessionState `json:"states"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.States) != 1 {
		t.Fatalf("states = %d, want 1", len(resp.States))
	}
	return resp.ID, resp.States[0].ID.Hex()
}

// TestAPIKeyRequired verifies the key middleware on every /api/v1 route.
func TestAPIKeyRequired(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/decisions/recent", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/decisions/recent", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: status = %d, want 403", rec.Code)
	}
}

// TestPingIsOpen verifies the health endpoint needs no key.
func TestPingIsOpen(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// TestStartSessionValidation verifies binding and ID format errors.
func TestStartSessionValidation(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/sessions", gin.H{"durationMinutes": 60})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing fields: status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/v1/sessions", gin.H{
		"startTime":       "2026-09-01T09:00:00Z",
		"durationMinutes": 60,
		"participants":    []gin.H{{"clientId": "not-an-id", "programId": primitive.NewObjectID().Hex()}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad client id: status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/v1/sessions", gin.H{
		"startTime":       "2026-09-01T09:00:00Z",
		"durationMinutes": 60,
		"participants": []gin.H{
			{"clientId": primitive.NewObjectID().Hex(), "programId": primitive.NewObjectID().Hex()},
		},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown client: status = %d, want 404", rec.Code)
	}
}

// TestAdvanceFlow drives a one-exercise program end to end through the
// HTTP surface: set advance, completion, idempotent completion.
func TestAdvanceFlow(t *testing.T) {
	f := newAPIFixture(t)
	clientID, programID := f.seedBasics(t, 2)
	_, stateID := f.startSession(t, clientID, programID)

	advancePath := fmt.Sprintf("/api/v1/states/%s/advance", stateID)

	rec := f.do(t, http.MethodPost, advancePath, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first advance: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var outcome domain.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outcome.Kind != domain.OutcomeSetAdvanced || outcome.NextSet != 2 {
		t.Fatalf("outcome = %+v, want set_advanced nextSet=2", outcome)
	}

	rec = f.do(t, http.MethodPost, advancePath, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("second advance: status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outcome.Kind != domain.OutcomeProgramComplete {
		t.Fatalf("outcome = %+v, want program_complete", outcome)
	}

	// Repeat advance after completion returns the same outcome.
	rec = f.do(t, http.MethodPost, advancePath, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat advance: status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outcome.Kind != domain.OutcomeProgramComplete {
		t.Fatalf("repeat outcome = %+v, want program_complete", outcome)
	}
}

// TestSubmitExertionEndpoint verifies RPE intake including the zero
// value, which must bind rather than read as missing.
func TestSubmitExertionEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	clientID, programID := f.seedBasics(t, 3)
	_, stateID := f.startSession(t, clientID, programID)
	path := fmt.Sprintf("/api/v1/states/%s/rpe", stateID)

	rec := f.do(t, http.MethodPost, path, gin.H{"rpe": 9})
	if rec.Code != http.StatusOK {
		t.Fatalf("rpe 9: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		RestRemainingSeconds int `json:"restRemainingSeconds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RestRemainingSeconds != 30 {
		t.Errorf("restRemainingSeconds = %d, want 30", resp.RestRemainingSeconds)
	}

	rec = f.do(t, http.MethodPost, path, gin.H{"rpe": 0})
	if rec.Code != http.StatusOK {
		t.Errorf("rpe 0: status = %d, want 200", rec.Code)
	}

	rec = f.do(t, http.MethodPost, path, gin.H{"rpe": 11})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("rpe 11: status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodPost, path, gin.H{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing rpe: status = %d, want 400", rec.Code)
	}
}

// TestReportPainEndpoint verifies the pain report lands as an alert.
func TestReportPainEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	clientID, programID := f.seedBasics(t, 3)
	sessionID, stateID := f.startSession(t, clientID, programID)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/states/%s/pain", stateID), gin.H{
		"description": "sharp pain in left knee",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/sessions/%s/alerts", sessionID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("alerts: status = %d", rec.Code)
	}
	var alerts []domain.Alert
	if err := json.Unmarshal(rec.Body.Bytes(), &alerts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Type != domain.AlertPain || !alerts[0].RequiresAction {
		t.Fatalf("alerts = %+v, want one action-required pain alert", alerts)
	}
}

// TestUnknownStateID verifies 404 mapping for missing state rows.
func TestUnknownStateID(t *testing.T) {
	f := newAPIFixture(t)

	path := fmt.Sprintf("/api/v1/states/%s/advance", primitive.NewObjectID().Hex())
	rec := f.do(t, http.MethodPost, path, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/v1/states/not-an-id/advance", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id: status = %d, want 400", rec.Code)
	}
}
