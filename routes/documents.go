package routes

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"studymate-platform/internal/config"
	"studymate-platform/internal/database"
	"studymate-platform/internal/logger"
	"studymate-platform/internal/objectstore"
	"studymate-platform/internal/queue"
	"studymate-platform/internal/vectorstore"
	"studymate-platform/middleware"
	"studymate-platform/models"
	"studymate-platform/services"
)

// SetupDocumentRoutes wires document upload, listing, deletion, and
// regeneration endpoints.
func SetupDocumentRoutes(router *gin.Engine, cfg *config.Config, store *database.Store, objects *objectstore.S3Store, vectors *vectorstore.Gateway, cache *services.EmbeddingCache, queueClient *asynq.Client, authMW gin.HandlerFunc) {
	docs := router.Group("/documents")
	docs.Use(authMW)

	docs.POST("", handleUpload(cfg, store, objects, queueClient))
	docs.GET("", handleList(store))
	docs.GET("/:id", handleGet(store))
	docs.DELETE("/:id", handleDelete(store, objects, vectors, cache))
	docs.POST("/:id/regenerate", handleRegenerate(store, queueClient))
}

func handleUpload(cfg *config.Config, store *database.Store, objects *objectstore.S3Store, queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := middleware.GetUserID(c)

		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "file_too_large",
				"message":    "File size exceeds maximum limit",
			})
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "no_file",
				"message":    "No file provided",
			})
			return
		}
		defer file.Close()

		if header.Size > cfg.MaxFileSize {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "file_too_large",
				"message":    "File size exceeds maximum limit",
			})
			return
		}

		contentType := header.Header.Get("Content-Type")
		if !isAllowedType(cfg.AllowedTypes, contentType, header.Filename) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_file_type",
				"message":    "Unsupported file type",
				"details":    gin.H{"content_type": contentType},
			})
			return
		}

		visibility := c.PostForm("visibility")
		if visibility != models.VisibilityPublic {
			visibility = models.VisibilityPrivate
		}

		content, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "upload_read_error",
				"message":    "Failed to read uploaded file",
			})
			return
		}

		objectKey := "uploads/" + uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
		if err := objects.Put(c.Request.Context(), objectKey, content, contentType); err != nil {
			logger.Error("failed to store uploaded object", "key", objectKey, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "storage_error",
				"message":    "Failed to store uploaded file",
			})
			return
		}

		doc := &models.Document{
			OwnerID:    ownerID,
			Name:       header.Filename,
			ObjectKey:  objectKey,
			Visibility: visibility,
		}
		docID, err := store.CreateDocument(c.Request.Context(), doc)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "database_error",
				"message":    "Failed to record document",
			})
			return
		}

		task, err := queue.NewDocumentIngestTask(ownerID, docID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "queue_error",
				"message":    "Failed to schedule document processing",
			})
			return
		}
		info, err := queueClient.Enqueue(task)
		if err != nil {
			logger.Error("failed to enqueue ingest task", "document_id", docID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "queue_error",
				"message":    "Failed to schedule document processing",
			})
			return
		}

		c.JSON(http.StatusAccepted, models.UploadResponse{
			ID:       docID,
			Name:     header.Filename,
			Status:   models.StatusPending,
			Message:  "Document accepted and queued for processing",
			TaskID:   info.ID,
			Uploaded: doc.UploadedAt.Format(time.RFC3339),
		})
	}
}

func handleList(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := store.ListDocuments(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "database_error",
				"message":    "Failed to list documents",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
	}
}

func handleGet(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := store.GetDocument(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
		if err != nil {
			respondDocumentError(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

func handleDelete(store *database.Store, objects *objectstore.S3Store, vectors *vectorstore.Gateway, cache *services.EmbeddingCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := middleware.GetUserID(c)
		documentID := c.Param("id")

		doc, err := store.GetDocument(c.Request.Context(), ownerID, documentID)
		if err != nil {
			respondDocumentError(c, err)
			return
		}

		if err := store.DeleteDocument(c.Request.Context(), ownerID, documentID); err != nil {
			respondDocumentError(c, err)
			return
		}

		// Best-effort cleanup of derived state. The metadata row is
		// gone, so orphans here are invisible to users.
		if err := vectors.Delete(c.Request.Context(), ownerID, documentID); err != nil {
			logger.Warn("failed to delete document vectors", "document_id", documentID, "error", err)
		}
		if err := objects.Delete(c.Request.Context(), doc.ObjectKey); err != nil {
			logger.Warn("failed to delete stored object", "key", doc.ObjectKey, "error", err)
		}
		cache.Invalidate(c.Request.Context(), documentID)

		c.JSON(http.StatusOK, gin.H{"message": "Document deleted", "id": documentID})
	}
}

func handleRegenerate(store *database.Store, queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := middleware.GetUserID(c)
		documentID := c.Param("id")

		doc, err := store.GetDocument(c.Request.Context(), ownerID, documentID)
		if err != nil {
			respondDocumentError(c, err)
			return
		}
		if doc.ChunkCount == 0 {
			c.JSON(http.StatusConflict, gin.H{
				"error_code": "document_not_processed",
				"message":    "Document has no extracted text to regenerate from",
			})
			return
		}

		task, err := queue.NewStudyRegenTask(ownerID, documentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "queue_error",
				"message":    "Failed to schedule regeneration",
			})
			return
		}
		info, err := queueClient.Enqueue(task)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "queue_error",
				"message":    "Failed to schedule regeneration",
			})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"message": "Regeneration scheduled",
			"task_id": info.ID,
		})
	}
}

func respondDocumentError(c *gin.Context, err error) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error_code": "document_not_found",
			"message":    "Document not found",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error_code": "database_error",
		"message":    "Failed to access document",
	})
}

func isAllowedType(allowed []string, contentType, filename string) bool {
	for _, t := range allowed {
		if t != "" && strings.Contains(contentType, strings.TrimSpace(t)) {
			return true
		}
	}
	// Fall back to the extension when the browser sent a generic type.
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".pdf" || ext == ".txt" || ext == ".png" || ext == ".jpg" || ext == ".jpeg"
}
