package handler

import (
	"net/http"

	"codexai-go/internal/model"
	"codexai-go/internal/service"
	"codexai-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// KnowledgeHandler serves the public legal corpus endpoints.
type KnowledgeHandler struct {
	knowledgeService service.KnowledgeService
}

// NewKnowledgeHandler creates a new KnowledgeHandler instance.
func NewKnowledgeHandler(knowledgeService service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

// SearchRequest is the knowledge-search payload.
type SearchRequest struct {
	Query      string `json:"query" binding:"required"`
	SourceType string `json:"sourceType"`
}

// Search runs a semantic query over the public corpus.
func (h *KnowledgeHandler) Search(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "query is required"})
		return
	}

	result, err := h.knowledgeService.Search(c.Request.Context(), user.ID, req.Query, req.SourceType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": result, "message": "success"})
}

// ListSources lists registered public sources, optionally by type.
func (h *KnowledgeHandler) ListSources(c *gin.Context) {
	sources, err := h.knowledgeService.ListSources(c.Request.Context(), c.Query("sourceType"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": sources, "message": "success"})
}

// RegisterSource registers and ingests a public source. Admin only.
func (h *KnowledgeHandler) RegisterSource(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var input service.RegisterSourceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid source payload"})
		return
	}

	source, err := h.knowledgeService.RegisterSource(c.Request.Context(), user.ID, input)
	if err != nil {
		log.Warnf("RegisterSource failed for '%s': %v", input.ExternalID, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": source, "message": "source registered"})
}

// CorpusStats reports chunk counts per public source type. Admin only.
func (h *KnowledgeHandler) CorpusStats(c *gin.Context) {
	stats := gin.H{}
	for _, sourceType := range []string{model.SourceTypePublicStatute, model.SourceTypePublicCaselaw} {
		count, err := h.knowledgeService.CorpusSize(c.Request.Context(), sourceType)
		if err != nil {
			respondError(c, err)
			return
		}
		stats[sourceType] = count
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": stats, "message": "success"})
}
