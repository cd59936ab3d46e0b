package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/internal/service"
	"github.com/pageza/macromeal-backend/internal/types"
)

// RecommendationHandler exposes the recommendation engine over HTTP.
type RecommendationHandler struct {
	recommendations *service.RecommendationService
	drafts          service.DraftStore
	attemptBudget   int
	logger          *zap.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler instance
func NewRecommendationHandler(recommendations *service.RecommendationService, drafts service.DraftStore, attemptBudget int, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recommendations: recommendations,
		drafts:          drafts,
		attemptBudget:   attemptBudget,
		logger:          logger,
	}
}

// RegisterRoutes registers the recommendation routes
func (h *RecommendationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/targets", h.ComputeTargets)
	router.POST("/recommendations", h.Recommend)
	router.POST("/recipes/generate", h.GenerateRecipe)
	router.GET("/generation/drafts/:id", h.GetDraft)
}

// GetDraft returns a still-persisted generation draft by ID. Drafts of
// accepted runs are deleted on acceptance, so only unfinished or failed runs
// are retrievable here.
func (h *RecommendationHandler) GetDraft(c *gin.Context) {
	if h.drafts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Draft not found"})
		return
	}

	draft, err := h.drafts.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Draft not found"})
		return
	}

	c.JSON(http.StatusOK, draft)
}

// ComputeTargets derives a nutrition target from a profile.
func (h *RecommendationHandler) ComputeTargets(c *gin.Context) {
	var profile types.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := h.recommendations.ComputeTargets(&profile)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute targets"})
		return
	}

	c.JSON(http.StatusOK, target)
}

// Recommend runs the full recommendation flow for a profile.
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req types.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.recommendations.Recommend(c.Request.Context(), &req.Profile)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		h.logger.Error("recommendation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build recommendations"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GenerateRecipe runs the bounded generation loop directly for a profile.
func (h *RecommendationHandler) GenerateRecipe(c *gin.Context) {
	var req struct {
		Profile       types.UserProfile `json:"profile" binding:"required"`
		AttemptBudget int               `json:"attempt_budget"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := h.recommendations.ComputeTargets(&req.Profile)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute targets"})
		return
	}

	budget := req.AttemptBudget
	if budget <= 0 {
		budget = h.attemptBudget
	}

	result, err := h.recommendations.GenerateValidatedRecipe(c.Request.Context(), target, req.Profile.Constraints(), budget)
	if err != nil && !errors.Is(err, service.ErrNoAdmissibleDraft) {
		h.logger.Error("generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate recipe"})
		return
	}

	c.JSON(http.StatusOK, types.GeneratedRecipe{
		Recipe:   result.Recipe,
		Status:   string(result.Status),
		Attempts: result.Attempts,
	})
}
