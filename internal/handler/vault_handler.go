package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"codexai-go/internal/config"
	"codexai-go/internal/service"
	"codexai-go/pkg/log"
	"codexai-go/pkg/storage"

	"github.com/gin-gonic/gin"
)

// VaultHandler serves the private-document endpoints.
type VaultHandler struct {
	vaultService service.VaultService
	minioCfg     config.MinIOConfig
}

// NewVaultHandler creates a new VaultHandler instance.
func NewVaultHandler(vaultService service.VaultService, minioCfg config.MinIOConfig) *VaultHandler {
	return &VaultHandler{vaultService: vaultService, minioCfg: minioCfg}
}

// UploadRequest is the vault upload payload. Content is base64-encoded.
type UploadRequest struct {
	FileName string `json:"fileName" binding:"required"`
	MimeType string `json:"mimeType" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// Upload stores an encrypted document and queues it for ingestion.
func (h *VaultHandler) Upload(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "fileName, mimeType and content are required"})
		return
	}

	doc, err := h.vaultService.Upload(c.Request.Context(), user.ID, req.FileName, req.MimeType, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"code": http.StatusUnsupportedMediaType, "message": err.Error()})
		case errors.Is(err, service.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"code": http.StatusRequestEntityTooLarge, "message": err.Error()})
		default:
			log.Errorf("Upload failed for user %d: %v", user.ID, err)
			respondError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": doc, "message": "document stored"})
}

// ListDocuments returns the caller's vault documents with their
// ingestion status.
func (h *VaultHandler) ListDocuments(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	docs, err := h.vaultService.ListDocuments(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": docs, "message": "success"})
}

// GetDownloadURL returns a short-lived presigned URL for the stored
// (still encrypted) object.
func (h *VaultHandler) GetDownloadURL(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	documentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid document id"})
		return
	}

	doc, err := h.vaultService.GetDocument(c.Request.Context(), user.ID, uint(documentID))
	if err != nil {
		if errors.Is(err, service.ErrNotDocumentOwner) {
			c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": err.Error()})
			return
		}
		respondError(c, err)
		return
	}

	url, err := storage.GetPresignedURL(h.minioCfg.BucketName, doc.ObjectKey, 15*time.Minute)
	if err != nil {
		log.Errorf("GetDownloadURL failed for document %d: %v", documentID, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": gin.H{"url": url}, "message": "success"})
}

// Delete removes a document, its stored object and its corpus chunks.
func (h *VaultHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	documentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid document id"})
		return
	}

	if err := h.vaultService.Delete(c.Request.Context(), user.ID, uint(documentID)); err != nil {
		if errors.Is(err, service.ErrNotDocumentOwner) {
			c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": err.Error()})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "document deleted"})
}

// Search runs a semantic query over the caller's own documents.
func (h *VaultHandler) Search(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "query is required"})
		return
	}

	result, err := h.vaultService.Search(c.Request.Context(), user.ID, req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": result, "message": "success"})
}
