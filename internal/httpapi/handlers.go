package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"voice-agent-platform/internal/analytics"
	"voice-agent-platform/internal/audit"
	"voice-agent-platform/internal/auth"
	"voice-agent-platform/internal/calls"
	"voice-agent-platform/internal/orchestrator"
	"voice-agent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Calls     calls.Repository
	Orch      *orchestrator.Service
	Analytics *analytics.Service
	Audit     *audit.Service
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Calls ---

type outboundCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
	Language    string `json:"language"`
}

// CreateOutboundCall accepts the call and returns immediately; dialing and
// conversation processing run in the background.
func (h Handlers) CreateOutboundCall(c *gin.Context) {
	if h.Orch == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "orchestrator not configured"})
		return
	}
	var req outboundCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.PhoneNumber == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "phone_number required"})
		return
	}
	if req.Message == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}

	call, err := h.Orch.CreateOutboundCall(c.Request.Context(), req.PhoneNumber, req.Message, req.Language)
	if err != nil {
		logger.FromGin(c).Error("outbound call creation failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call creation failed"})
		return
	}
	c.JSON(http.StatusAccepted, call)
}

// GetCall returns the call with its follow-up actions and tickets.
func (h Handlers) GetCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call store not configured"})
		return
	}
	id := c.Param("id")
	ctx := c.Request.Context()

	call, err := h.Calls.GetCall(ctx, id)
	if errors.Is(err, calls.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("call lookup failed", "call_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}

	actions, err := h.Calls.ListActions(ctx, id)
	if err != nil {
		logger.FromGin(c).Warn("action listing failed", "call_id", id, "err", err)
		actions = []calls.CallAction{}
	}
	tickets, err := h.Calls.ListTickets(ctx, id)
	if err != nil {
		logger.FromGin(c).Warn("ticket listing failed", "call_id", id, "err", err)
		tickets = []calls.Ticket{}
	}

	c.JSON(http.StatusOK, gin.H{"call": call, "actions": actions, "tickets": tickets})
}

// ListCalls returns recent calls, newest first.
// Query params: skip, limit, direction, status.
func (h Handlers) ListCalls(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call store not configured"})
		return
	}

	f := calls.ListFilter{
		Direction: calls.Direction(c.Query("direction")),
		Status:    calls.CallStatus(c.Query("status")),
		Offset:    intQuery(c, "skip", 0),
		Limit:     intQuery(c, "limit", 100),
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	list, err := h.Calls.ListCalls(c.Request.Context(), f)
	if err != nil {
		logger.FromGin(c).Error("call listing failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": list, "count": len(list)})
}

// --- Admin ---

// GetAnalytics returns date-ranged call aggregates.
// Query params: start_date, end_date (2006-01-02); defaults to last 30 days.
func (h Handlers) GetAnalytics(c *gin.Context) {
	if h.Analytics == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "analytics not configured"})
		return
	}
	out := h.Analytics.CallAnalytics(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	c.JSON(http.StatusOK, out)
}

// GetIntents returns the intent frequency distribution.
func (h Handlers) GetIntents(c *gin.Context) {
	if h.Analytics == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "analytics not configured"})
		return
	}
	intents := h.Analytics.IntentDistribution(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	c.JSON(http.StatusOK, gin.H{"intents": intents})
}

type simulateCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
	Language    string `json:"language"`
}

// SimulateCall runs the full inbound pipeline synchronously, treating the
// request message as the caller's transcript. Admin-only testing surface.
func (h Handlers) SimulateCall(c *gin.Context) {
	if h.Orch == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "orchestrator not configured"})
		return
	}
	var req simulateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	res, err := h.Orch.SimulateInboundCall(ctx, req.PhoneNumber, req.Message, req.Language)
	if err != nil {
		logger.FromGin(c).Error("call simulation failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "simulation failed"})
		return
	}

	if h.Audit != nil {
		uid, _ := auth.UserID(ctx)
		role, _ := auth.Role(ctx)
		if err := h.Audit.LogAdminAction(ctx, uid, role, res.CallID, "simulated inbound call"); err != nil {
			logger.FromGin(c).Warn("admin action audit failed", "err", err)
		}
	}

	c.JSON(http.StatusOK, res)
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
