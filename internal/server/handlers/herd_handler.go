package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/vimacontrol/internal/domain/models"
	"github.com/mamadbah2/vimacontrol/internal/service/herd"
)

// SessionContextKey is where the session gate middleware stores the resolved
// session for downstream handlers.
const SessionContextKey = "session"

// Session pulls the gated session out of the gin context.
func Session(c *gin.Context) models.Session {
	return c.MustGet(SessionContextKey).(models.Session)
}

// HerdHandler exposes the herd CRUD surface for the active user.
type HerdHandler struct {
	svc    *herd.Service
	logger *zap.Logger
}

// NewHerdHandler constructs the HTTP handler adapter for herd operations.
func NewHerdHandler(svc *herd.Service, logger *zap.Logger) *HerdHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HerdHandler{svc: svc, logger: logger}
}

// List returns the herd, filtered by the optional q parameter.
func (h *HerdHandler) List(c *gin.Context) {
	cows, err := h.svc.ListCows(c.Request.Context(), Session(c).ID, c.Query("q"))
	if err != nil {
		h.renderHerdError(c, err)
		return
	}
	c.JSON(http.StatusOK, cows)
}

// Get returns one cow.
func (h *HerdHandler) Get(c *gin.Context) {
	cow, err := h.svc.GetCow(c.Request.Context(), Session(c).ID, c.Param("id"))
	if err != nil {
		h.renderHerdError(c, err)
		return
	}
	c.JSON(http.StatusOK, cow)
}

// Save upserts a cow.
func (h *HerdHandler) Save(c *gin.Context) {
	var form herd.CowForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cow, err := h.svc.SaveCow(c.Request.Context(), Session(c).ID, form)
	if err != nil {
		h.renderHerdError(c, err)
		return
	}
	c.JSON(http.StatusOK, cow)
}

// Delete removes a cow and its nested records.
func (h *HerdHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteCow(c.Request.Context(), Session(c).ID, c.Param("id")); err != nil {
		h.renderHerdError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type productionRequest struct {
	Liters float64 `json:"liters"`
}

// RecordProduction records today's milk yield for a cow.
func (h *HerdHandler) RecordProduction(c *gin.Context) {
	var req productionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cow, err := h.svc.RecordProduction(c.Request.Context(), Session(c).ID, c.Param("id"), req.Liters)
	if err != nil {
		h.renderHerdError(c, err)
		return
	}
	c.JSON(http.StatusOK, cow)
}

// DeleteProduction removes the production record for the date key given in
// the date query parameter. The "DD/MM" key contains a slash, so it cannot
// ride in a path segment.
func (h *HerdHandler) DeleteProduction(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}

	_, err := h.svc.DeleteProduction(c.Request.Context(), Session(c).ID, c.Param("id"), date)
	if err != nil {
		h.renderHerdError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveEvent upserts a management event within a cow.
func (h *HerdHandler) SaveEvent(c *gin.Context) {
	var form herd.EventForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cow, err := h.svc.SaveEvent(c.Request.Context(), Session(c).ID, c.Param("id"), form)
	if err != nil {
		h.renderHerdError(c, err)
		return
	}
	c.JSON(http.StatusOK, cow)
}

// DeleteEvent removes a management event by id.
func (h *HerdHandler) DeleteEvent(c *gin.Context) {
	_, err := h.svc.DeleteEvent(c.Request.Context(), Session(c).ID, c.Param("id"), c.Param("eventId"))
	if err != nil {
		h.renderHerdError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dashboard returns the derived herd aggregates.
func (h *HerdHandler) Dashboard(c *gin.Context) {
	stats, err := h.svc.Dashboard(c.Request.Context(), Session(c).ID)
	if err != nil {
		h.renderHerdError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Breeds serves the fixed breed catalog for form population.
func (h *HerdHandler) Breeds(c *gin.Context) {
	c.JSON(http.StatusOK, models.Breeds)
}

func (h *HerdHandler) renderHerdError(c *gin.Context, err error) {
	if errors.Is(err, herd.ErrCowNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("herd operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
