package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"studymate-platform/internal/database"
	"studymate-platform/middleware"
	"studymate-platform/models"
	"studymate-platform/services"
)

// SetupStudyRoutes wires flashcard, quiz, and export endpoints.
func SetupStudyRoutes(router *gin.Engine, store *database.Store, export *services.ExportService, authMW gin.HandlerFunc) {
	docs := router.Group("/documents")
	docs.Use(authMW)

	docs.GET("/:id/flashcards", handleStudySet(store, models.StudyKindFlashcards))
	docs.GET("/:id/quiz", handleStudySet(store, models.StudyKindQuiz))

	docs.GET("/:id/export", func(c *gin.Context) {
		data, filename, err := export.ExportWorkbook(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error_code": "document_not_found",
					"message":    "Document not found",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "export_error",
				"message":    "Failed to export study sets",
			})
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	})
}

func handleStudySet(store *database.Store, kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := middleware.GetUserID(c)
		documentID := c.Param("id")

		doc, err := store.GetDocument(c.Request.Context(), ownerID, documentID)
		if err != nil {
			respondDocumentError(c, err)
			return
		}
		if !doc.Ready {
			c.JSON(http.StatusConflict, gin.H{
				"error_code": "document_not_ready",
				"message":    "Document is still being processed",
				"details":    gin.H{"status": doc.Status},
			})
			return
		}

		set, err := store.GetStudySet(c.Request.Context(), ownerID, documentID, kind)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error_code": "study_set_not_found",
					"message":    "No study set generated for this document yet",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "database_error",
				"message":    "Failed to load study set",
			})
			return
		}

		switch kind {
		case models.StudyKindFlashcards:
			c.JSON(http.StatusOK, gin.H{
				"document_id":  documentID,
				"flashcards":   set.Flashcards,
				"generated_at": set.GeneratedAt,
			})
		default:
			c.JSON(http.StatusOK, gin.H{
				"document_id":  documentID,
				"quiz":         set.QuizItems,
				"generated_at": set.GeneratedAt,
			})
		}
	}
}
