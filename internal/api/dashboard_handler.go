package api

import (
	"errors"
	"net/http"
	"strconv"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DashboardHandler serves the coach-facing read endpoints: equipment
// availability, substitution previews, alerts and the decision feed.
type DashboardHandler struct {
	sessionService service.SessionService
	ledger         service.EquipmentLedger
	resolver       service.SubstitutionResolver
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(
	sessionService service.SessionService,
	ledger service.EquipmentLedger,
	resolver service.SubstitutionResolver,
) *DashboardHandler {
	return &DashboardHandler{
		sessionService: sessionService,
		ledger:         ledger,
		resolver:       resolver,
	}
}

// GetAvailability handles GET /sessions/:sessionId/availability.
// With ?items=Kettlebell&items=Bench it answers a point query for those
// items; without it returns the full per-item occupancy view.
func (h *DashboardHandler) GetAvailability(c *gin.Context) {
	sessionID, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	if items := c.QueryArray("items"); len(items) > 0 {
		result, err := h.ledger.CheckAvailability(c.Request.Context(), sessionID, items)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to check availability.")
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	view, err := h.ledger.Availability(c.Request.Context(), sessionID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute availability.")
		return
	}
	if view == nil {
		c.JSON(http.StatusOK, []domain.EquipmentAvailability{})
		return
	}
	c.JSON(http.StatusOK, view)
}

// PreviewAlternative handles GET /sessions/:sessionId/alternatives/:exerciseId.
// It answers "what would the engine substitute right now" without
// committing anything.
func (h *DashboardHandler) PreviewAlternative(c *gin.Context) {
	sessionID, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("exerciseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	alternative, err := h.resolver.FindAlternative(c.Request.Context(), exerciseID, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, "Exercise not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to resolve alternative.")
		}
		return
	}

	if alternative == nil {
		c.JSON(http.StatusOK, gin.H{"alternative": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alternative": alternative})
}

// GetSessionAlerts handles GET /sessions/:sessionId/alerts.
func (h *DashboardHandler) GetSessionAlerts(c *gin.Context) {
	sessionID, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	alerts, err := h.sessionService.GetSessionAlerts(c.Request.Context(), sessionID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve alerts.")
		return
	}

	if alerts == nil {
		c.JSON(http.StatusOK, []domain.Alert{})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// GetRecentDecisions handles GET /decisions/recent?limit=20.
func (h *DashboardHandler) GetRecentDecisions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			abortWithError(c, http.StatusBadRequest, "Invalid limit parameter.")
			return
		}
		limit = parsed
	}

	decisions, err := h.sessionService.GetRecentDecisions(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve decisions.")
		return
	}

	if decisions == nil {
		c.JSON(http.StatusOK, []domain.DecisionRecord{})
		return
	}
	c.JSON(http.StatusOK, decisions)
}
