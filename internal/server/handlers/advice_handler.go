package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/vimacontrol/internal/domain/models"
	"github.com/mamadbah2/vimacontrol/internal/service/advice"
	"github.com/mamadbah2/vimacontrol/internal/service/herd"
)

// AdviceHandler exposes the veterinary assistant.
type AdviceHandler struct {
	adviceSvc *advice.Service
	herdSvc   *herd.Service
	logger    *zap.Logger
}

// NewAdviceHandler constructs the HTTP handler adapter for advice requests.
func NewAdviceHandler(adviceSvc *advice.Service, herdSvc *herd.Service, logger *zap.Logger) *AdviceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdviceHandler{adviceSvc: adviceSvc, herdSvc: herdSvc, logger: logger}
}

type adviceRequest struct {
	CowID    string `json:"cowId"`
	Question string `json:"question" binding:"required"`
}

type analysisRequest struct {
	CowID string `json:"cowId" binding:"required"`
}

// Ask forwards a question to the assistant, optionally with one animal as
// context. An unknown cow id simply drops the context rather than failing.
func (h *AdviceHandler) Ask(c *gin.Context) {
	var req adviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var cow *models.Cow
	if req.CowID != "" {
		found, err := h.herdSvc.GetCow(c.Request.Context(), Session(c).ID, req.CowID)
		if err != nil && !errors.Is(err, herd.ErrCowNotFound) {
			h.logger.Error("failed loading cow for advice context", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if err == nil {
			cow = &found
		}
	}

	answer := h.adviceSvc.RequestAdvice(c.Request.Context(), cow, req.Question)
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// AnalyzeProduction asks the assistant for tips over one cow's production
// history.
func (h *AdviceHandler) AnalyzeProduction(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cow, err := h.herdSvc.GetCow(c.Request.Context(), Session(c).ID, req.CowID)
	if err != nil {
		if errors.Is(err, herd.ErrCowNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed loading cow for analysis", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	answer := h.adviceSvc.AnalyzeProduction(c.Request.Context(), cow.Production)
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
