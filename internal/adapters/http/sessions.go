package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/finvue/vkyc/internal/core"
	"github.com/finvue/vkyc/internal/domain"
)

type createSessionRequest struct {
	CustomerID  string `json:"customer_id" binding:"required"`
	ServiceType string `json:"service_type" binding:"required"`
}

// createSession is the persistence collaborator's entry point: a customer
// requests a service and gets back the room id to dial the relay with.
func (api *API) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	service, err := domain.ParseServiceType(req.ServiceType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec := domain.SessionRecord{
		RoomID:      domain.NewRoomID(service),
		CustomerID:  req.CustomerID,
		ServiceType: service,
		Status:      domain.StatusRequested,
		RequestedAt: time.Now().UTC(),
	}
	if err := api.Store.Create(c.Request.Context(), rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	api.publish(c, core.Event{Type: core.EventSessionRequested, RoomID: rec.RoomID, Status: rec.Status})
	c.JSON(http.StatusCreated, rec)
}

type sessionView struct {
	domain.SessionRecord
	CustomerOnline bool `json:"customer_online"`
	AgentOnline    bool `json:"agent_online"`
}

func (api *API) view(rec domain.SessionRecord) sessionView {
	return sessionView{
		SessionRecord:  rec,
		CustomerOnline: api.Rooms.RolePresent(rec.RoomID, domain.RoleCustomer),
		AgentOnline:    api.Rooms.RolePresent(rec.RoomID, domain.RoleAgent),
	}
}

func (api *API) getSession(c *gin.Context) {
	roomID := c.Param("room_id")
	rec, err := api.Store.Get(c.Request.Context(), roomID)
	if errors.Is(err, core.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such session"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, api.view(rec))
}

// listSessions joins record rows with live role presence for dashboards.
func (api *API) listSessions(c *gin.Context) {
	recs, err := api.Store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	out := make([]sessionView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, api.view(rec))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

type claimSessionRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
}

// claimSession moves a requested session to active and records which agent
// picked it up.
func (api *API) claimSession(c *gin.Context) {
	roomID := c.Param("room_id")
	var req claimSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	status, err := api.Store.Status(ctx, roomID)
	if errors.Is(err, core.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such session"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if status != domain.StatusRequested {
		c.JSON(http.StatusConflict, gin.H{"error": "session is not requested", "status": status})
		return
	}
	if err := api.Store.SetAgent(ctx, roomID, req.AgentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if err := api.Store.SetStatus(ctx, roomID, domain.StatusActive); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "status": domain.StatusActive})
}

type decisionRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// decideSession records the decision collaborator's outcome. Approval and
// any resulting business records happen in that collaborator, not here.
func (api *API) decideSession(c *gin.Context) {
	roomID := c.Param("room_id")
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := domain.SessionStatus(req.Status)
	if status != domain.StatusCompleted && status != domain.StatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be completed or rejected"})
		return
	}
	if err := api.Store.SetStatus(c.Request.Context(), roomID, status); err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	api.publish(c, core.Event{Type: core.EventSessionDecided, RoomID: roomID, Status: status})
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "status": status})
}

func (api *API) publish(c *gin.Context, ev core.Event) {
	if api.Events == nil {
		return
	}
	ev.Timestamp = time.Now().UTC()
	if err := api.Events.Publish(c.Request.Context(), ev); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Str("event", ev.Type).Msg("event publish failed")
	}
}
