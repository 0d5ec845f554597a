package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/filmatch/filmatch/internal/services"
	"github.com/filmatch/filmatch/pkg/models"
)

const algorithmVersion = "content-based-v1"

type RecommendationHandler struct {
	engine *services.RecommendationService
	logger *logrus.Logger
}

func NewRecommendationHandler(engine *services.RecommendationService, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		engine: engine,
		logger: logger,
	}
}

// Initial handles POST /api/v1/recommendations: one ranked list built from
// the selected movies against the popular (plus search) candidate pool.
func (h *RecommendationHandler) Initial(c *gin.Context) {
	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "Invalid request body format",
			},
		})
		return
	}

	if len(req.SelectedMovies) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "EMPTY_PROFILE",
				"message": "selected_movies must not be empty",
			},
		})
		return
	}

	items := h.engine.InitialRecommendations(c.Request.Context(), req.SelectedMovies, req.SearchHistory, req.Limit)

	c.JSON(http.StatusOK, models.RecommendationResponse{
		Recommendations: items,
		GeneratedAt:     time.Now(),
		Algorithm:       algorithmVersion,
	})
}

// Update handles POST /api/v1/recommendations/update: folds one new
// interaction into the profile and reruns the pipeline.
func (h *RecommendationHandler) Update(c *gin.Context) {
	var req models.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "Invalid request body format",
			},
		})
		return
	}

	items := h.engine.UpdateRecommendations(c.Request.Context(), req.ProfileMovies, req.NewMovieID, req.SearchHistory, req.Limit)

	c.JSON(http.StatusOK, models.RecommendationResponse{
		Recommendations: items,
		GeneratedAt:     time.Now(),
		Algorithm:       algorithmVersion,
	})
}

// Personalized handles POST /api/v1/recommendations/personalized: one labeled
// section per supplied profile signal.
func (h *RecommendationHandler) Personalized(c *gin.Context) {
	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "Invalid request body format",
			},
		})
		return
	}

	if len(req.LikedMovies) == 0 && len(req.WatchedMovies) == 0 && len(req.RatedMovies) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "EMPTY_PROFILE",
				"message": "At least one of liked_movies, watched_movies or rated_movies is required",
			},
		})
		return
	}

	sections := h.engine.PersonalizedSections(c.Request.Context(), &req.UserProfile, req.Limit)

	c.JSON(http.StatusOK, models.PersonalizedResponse{
		Sections:    sections,
		GeneratedAt: time.Now(),
		Algorithm:   algorithmVersion,
	})
}
