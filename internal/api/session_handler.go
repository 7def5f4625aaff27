package api

import (
	"errors"
	"net/http"
	"time"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionHandler holds the session service dependency.
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// --- DTOs ---

// ParticipantRequest pairs a client with the program they follow today.
type ParticipantRequest struct {
	ClientID  string `json:"clientId" binding:"required"`
	ProgramID string `json:"programId" binding:"required"`
}

// StartSessionRequest defines the expected JSON for opening a session.
type StartSessionRequest struct {
	StartTime       time.Time            `json:"startTime" binding:"required"`
	DurationMinutes int                  `json:"durationMinutes" binding:"required,min=1"`
	Coach           string               `json:"coach"`
	Participants    []ParticipantRequest `json:"participants" binding:"required,min=1,dive"`
}

// SessionResponse is the DTO for returning session details.
type SessionResponse struct {
	ID              string                `json:"id"`
	StartTime       time.Time             `json:"startTime"`
	DurationMinutes int                   `json:"durationMinutes"`
	Coach           string                `json:"coach,omitempty"`
	Status          string                `json:"status"`
	States          []domain.SessionState `json:"states,omitempty"`
}

// SubmitExertionRequest carries a 0-10 RPE report for the client's last set.
type SubmitExertionRequest struct {
	RPE *int `json:"rpe" binding:"required"`
}

// ReportPainRequest carries a client-reported pain event.
type ReportPainRequest struct {
	Description string `json:"description" binding:"required"`
}

// --- Handler Methods ---

// StartSession handles POST /sessions.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	params := service.StartSessionParams{
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Coach:           req.Coach,
	}
	for _, p := range req.Participants {
		clientID, err := primitive.ObjectIDFromHex(p.ClientID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid client ID format: "+p.ClientID)
			return
		}
		programID, err := primitive.ObjectIDFromHex(p.ProgramID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid program ID format: "+p.ProgramID)
			return
		}
		params.Participants = append(params.Participants, service.Participant{
			ClientID:  clientID,
			ProgramID: programID,
		})
	}

	session, states, err := h.sessionService.StartSession(c.Request.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTooManyParticipants),
			errors.Is(err, service.ErrNoParticipants):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrClientNotFound),
			errors.Is(err, service.ErrProgramNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to start session.")
		}
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		ID:              session.ID.Hex(),
		StartTime:       session.StartTime,
		DurationMinutes: session.DurationMinutes,
		Coach:           session.Coach,
		Status:          string(session.Status),
		States:          states,
	})
}

// CompleteSession handles POST /sessions/:sessionId/complete.
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	sessionID, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	if err := h.sessionService.CompleteSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			abortWithError(c, http.StatusNotFound, "Session not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to complete session.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// GetSessionStates handles GET /sessions/:sessionId/states.
func (h *SessionHandler) GetSessionStates(c *gin.Context) {
	sessionID, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	states, err := h.sessionService.GetSessionStates(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			abortWithError(c, http.StatusNotFound, "Session not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve session states.")
		}
		return
	}

	if states == nil {
		c.JSON(http.StatusOK, []domain.SessionState{})
		return
	}
	c.JSON(http.StatusOK, states)
}

// Advance handles POST /states/:stateId/advance. The response body is the
// single outcome of the advance.
func (h *SessionHandler) Advance(c *gin.Context) {
	stateID, err := primitive.ObjectIDFromHex(c.Param("stateId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid state ID format.")
		return
	}

	outcome, err := h.sessionService.Advance(c.Request.Context(), stateID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionStateNotFound):
			abortWithError(c, http.StatusNotFound, "Session state not found.")
		case errors.Is(err, service.ErrSessionNotActive):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidState):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to advance.")
		}
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// SubmitExertion handles POST /states/:stateId/rpe.
func (h *SessionHandler) SubmitExertion(c *gin.Context) {
	stateID, err := primitive.ObjectIDFromHex(c.Param("stateId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid state ID format.")
		return
	}

	var req SubmitExertionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	restRemaining, err := h.sessionService.SubmitExertion(c.Request.Context(), stateID, *req.RPE)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRPE):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSessionStateNotFound):
			abortWithError(c, http.StatusNotFound, "Session state not found.")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to record exertion.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"restRemainingSeconds": restRemaining})
}

// ReportPain handles POST /states/:stateId/pain.
func (h *SessionHandler) ReportPain(c *gin.Context) {
	stateID, err := primitive.ObjectIDFromHex(c.Param("stateId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid state ID format.")
		return
	}

	var req ReportPainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.sessionService.ReportPain(c.Request.Context(), stateID, req.Description); err != nil {
		if errors.Is(err, service.ErrSessionStateNotFound) {
			abortWithError(c, http.StatusNotFound, "Session state not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to report pain.")
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "reported"})
}
