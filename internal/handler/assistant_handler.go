package handler

import (
	"errors"
	"net/http"
	"strconv"

	"codexai-go/internal/rag"
	"codexai-go/internal/service"
	"codexai-go/pkg/log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondError maps domain errors onto HTTP statuses using the common
// response envelope.
func respondError(c *gin.Context, err error) {
	var vErr *rag.ValidationError
	var aErr *rag.AccessError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": vErr.Error()})
	case errors.As(err, &aErr):
		c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": aErr.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": err.Error()})
	}
}

// AssistantHandler serves the conversational assistant endpoints.
type AssistantHandler struct {
	assistantService service.AssistantService
}

// NewAssistantHandler creates a new AssistantHandler instance.
func NewAssistantHandler(assistantService service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// CreateConversationRequest is the conversation-creation payload.
type CreateConversationRequest struct {
	Title string `json:"title"`
}

// CreateConversation opens a new conversation thread.
func (h *AssistantHandler) CreateConversation(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	// The body is optional, the title defaults server-side.
	var req CreateConversationRequest
	_ = c.ShouldBindJSON(&req)

	conv, err := h.assistantService.CreateConversation(c.Request.Context(), user.ID, req.Title)
	if err != nil {
		log.Errorf("CreateConversation failed for user %d: %v", user.ID, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": conv, "message": "success"})
}

// ListConversations returns the caller's conversations.
func (h *AssistantHandler) ListConversations(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	convs, err := h.assistantService.ListConversations(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": convs, "message": "success"})
}

// GetMessages returns the messages of one of the caller's conversations.
func (h *AssistantHandler) GetMessages(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid conversation id"})
		return
	}

	messages, err := h.assistantService.GetMessages(c.Request.Context(), user.ID, uint(conversationID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": messages, "message": "success"})
}

// SendMessageRequest is the sendMessage payload.
type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// SendMessage appends a user message and generates the assistant answer.
func (h *AssistantHandler) SendMessage(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid conversation id"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "message is required"})
		return
	}

	result, err := h.assistantService.SendMessage(c.Request.Context(), user.ID, uint(conversationID), req.Message)
	if err != nil {
		log.Warnf("SendMessage failed for user %d, conversation %d: %v", user.ID, conversationID, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": result, "message": "success"})
}
