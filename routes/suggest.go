package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studymate-platform/middleware"
	"studymate-platform/services"
)

// SetupSuggestionRoutes wires the cross-corpus recommendation
// endpoint.
func SetupSuggestionRoutes(router *gin.Engine, suggestions *services.SuggestionService, authMW gin.HandlerFunc) {
	group := router.Group("/suggestions")
	group.Use(authMW)

	group.GET("", func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				c.JSON(http.StatusBadRequest, gin.H{
					"error_code": "invalid_limit",
					"message":    "limit must be a positive integer",
				})
				return
			}
			limit = parsed
		}

		resp, err := suggestions.Suggest(c.Request.Context(), middleware.GetUserID(c), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "suggestion_error",
				"message":    "Failed to compute suggestions",
			})
			return
		}
		c.JSON(http.StatusOK, resp)
	})
}
