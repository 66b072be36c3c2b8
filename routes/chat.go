package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studymate-platform/middleware"
	"studymate-platform/models"
	"studymate-platform/services"
)

// SetupChatRoutes wires the RAG chat endpoints.
func SetupChatRoutes(router *gin.Engine, chat *services.ChatService, authMW gin.HandlerFunc) {
	group := router.Group("/chat")
	group.Use(authMW)

	group.POST("/send", func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_input",
				"message":    "Invalid request data",
				"details":    gin.H{"error": err.Error()},
			})
			return
		}

		resp, err := chat.Send(c.Request.Context(), middleware.GetUserID(c), req.Message)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "chat_error",
				"message":    "Failed to generate a reply",
			})
			return
		}
		c.JSON(http.StatusOK, resp)
	})

	group.GET("/history", func(c *gin.Context) {
		session, err := chat.History(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "chat_error",
				"message":    "Failed to load chat history",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"messages": session.Messages,
			"count":    len(session.Messages),
		})
	})

	group.POST("/clear", func(c *gin.Context) {
		if err := chat.Clear(c.Request.Context(), middleware.GetUserID(c)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "chat_error",
				"message":    "Failed to clear chat history",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Chat history cleared"})
	})
}
