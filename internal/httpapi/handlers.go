package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"outdial/internal/auth"
	"outdial/internal/callrecords"
	"outdial/internal/convo"
	"outdial/internal/dispatch"
	"outdial/internal/leads"
	"outdial/internal/queue"
	"outdial/internal/reporting"
	"outdial/internal/telephony"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth       *auth.Manager
	Queues     *queue.Service
	Dispatcher *dispatch.Dispatcher
	Records    callrecords.Repository
	Convo      *convo.Service
	Reporting  *reporting.Service
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

// --- Group calls ---

func (h Handlers) CreateGroupCall(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	var req queue.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	gc, err := h.Queues.Create(c.Request.Context(), userID, req)
	if err != nil {
		writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gc)
}

func (h Handlers) ListGroupCalls(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	f := queue.ListFilter{
		Status: queue.Status(c.Query("status")),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	if f.Status != "" && !f.Status.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}
	out, err := h.Queues.List(c.Request.Context(), userID, f)
	if err != nil {
		writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group_calls": out})
}

func (h Handlers) GetGroupCall(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	gc, err := h.Queues.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, gc)
}

func (h Handlers) StartGroupCall(c *gin.Context) {
	h.queueAction(c, h.Dispatcher.Start)
}

func (h Handlers) PauseGroupCall(c *gin.Context) {
	h.queueAction(c, h.Dispatcher.Pause)
}

func (h Handlers) ResumeGroupCall(c *gin.Context) {
	h.queueAction(c, h.Dispatcher.Resume)
}

func (h Handlers) ManualNextGroupCall(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	res, err := h.Dispatcher.TriggerManualNext(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, dispatch.ErrNoMoreLeads) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "no leads remaining"})
			return
		}
		writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

func (h Handlers) GetQueueStatus(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	qs, err := h.Queues.QueueStatus(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, qs)
}

func (h Handlers) queueAction(c *gin.Context, action func(ctx context.Context, userID, id string) (queue.GroupCall, error)) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	gc, err := action(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, gc)
}

// --- Standalone calls ---

func (h Handlers) StartCall(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	var req dispatch.StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.LeadID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "lead_id required"})
		return
	}

	rec, err := h.Dispatcher.StartLeadCall(c.Request.Context(), userID, req)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, rec)
	case errors.Is(err, telephony.ErrInvalidNumber):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid phone number"})
	case errors.Is(err, dispatch.ErrTooManyCalls):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "concurrent call limit reached"})
	case errors.Is(err, telephony.ErrTransientDial):
		// The attempt exists and is terminally failed; surface both.
		c.JSON(http.StatusBadGateway, gin.H{"error": "call placement failed", "call": rec})
	case errors.Is(err, leads.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "lead not found"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call start failed"})
	}
}

func (h Handlers) ListCalls(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	f := callrecords.ListFilter{
		GroupCallID: c.Query("group_call_id"),
		LeadID:      c.Query("lead_id"),
		Limit:       queryInt(c, "limit"),
		Offset:      queryInt(c, "offset"),
	}
	out, err := h.Records.List(c.Request.Context(), userID, f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": out})
}

// --- Conversation engine ---

// GetCallContext serves the conversation engine's read path. Routed
// outside operator auth; deployments should protect it at the edge.
func (h Handlers) GetCallContext(c *gin.Context) {
	cc, err := h.Convo.GetCallContext(c.Request.Context(), c.Param("provider_call_id"))
	if err != nil {
		if errors.Is(err, callrecords.ErrNotFound) || errors.Is(err, leads.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown call"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "context lookup failed"})
		return
	}
	c.JSON(http.StatusOK, cc)
}

// --- Reporting ---

func (h Handlers) CallsSummary(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	out, err := h.Reporting.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		UserID:      userID,
		GroupCallID: c.Query("group_call_id"),
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- helpers ---

func writeQueueError(c *gin.Context, err error) {
	switch {
	case queue.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "group call not found"})
	case errors.Is(err, queue.ErrInvalidTransition):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
	case errors.Is(err, queue.ErrNotActive):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "group call not active"})
	case errors.Is(err, queue.ErrEmptyGroup):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "group has no leads"})
	case errors.Is(err, queue.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

func queryInt(c *gin.Context, key string) int {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
