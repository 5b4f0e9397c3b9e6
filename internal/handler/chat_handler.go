package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"codexai-go/internal/service"
	"codexai-go/pkg/log"
	"codexai-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatHandler serves the streaming WebSocket chat.
type ChatHandler struct {
	chatService   service.ChatService
	userService   service.UserService
	jwtManager    *token.JWTManager
	stopToken     string
	stopTokenLock sync.Mutex
	// per-connection stop flags
	stopFlags sync.Map
}

// NewChatHandler creates a new ChatHandler instance.
func NewChatHandler(chatService service.ChatService, userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// GetStopToken issues the command token a client presents to interrupt a
// running stream.
func (h *ChatHandler) GetStopToken(c *gin.Context) {
	h.stopTokenLock.Lock()
	defer h.stopTokenLock.Unlock()
	h.stopToken = "WSS_STOP_CMD_" + token.GenerateRandomString(16)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": gin.H{"cmdToken": h.stopToken}})
}

// Handle upgrades the connection and serves the chat loop. The JWT rides
// in the path because browsers cannot set WebSocket headers.
func (h *ChatHandler) Handle(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "invalid token"})
		return
	}

	user, err := h.userService.GetProfile(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "user no longer exists"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket connection established for user %d", user.ID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("WebSocket read failed: %v", err)
			break
		}

		if h.handleStopCommand(conn, message) {
			continue
		}

		key := sessionKey(conn)
		h.stopFlags.Delete(key)
		shouldStop := func() bool {
			v, ok := h.stopFlags.Load(key)
			return ok && v.(bool)
		}

		if err := h.chatService.StreamResponse(c.Request.Context(), string(message), user, conn, shouldStop); err != nil {
			log.Errorf("streaming response failed: %v", err)
			errResp, _ := json.Marshal(map[string]string{"error": "Le service est temporairement indisponible, veuillez réessayer."})
			_ = conn.WriteMessage(websocket.TextMessage, errResp)
			break
		}
	}
}

// handleStopCommand reports whether the message was a stop command and,
// if valid, flags the connection's running stream.
func (h *ChatHandler) handleStopCommand(conn *websocket.Conn, message []byte) bool {
	if len(message) == 0 || message[0] != '{' {
		return false
	}
	var ctrl map[string]interface{}
	if err := json.Unmarshal(message, &ctrl); err != nil {
		return false
	}
	t, ok := ctrl["type"].(string)
	if !ok || t != "stop" {
		return false
	}

	tok, _ := ctrl["cmdToken"].(string)
	h.stopTokenLock.Lock()
	valid := tok != "" && tok == h.stopToken
	h.stopTokenLock.Unlock()
	if valid {
		h.stopFlags.Store(sessionKey(conn), true)
		resp, _ := json.Marshal(map[string]interface{}{
			"type":      "stop",
			"message":   "response stopped",
			"timestamp": time.Now().UnixMilli(),
		})
		_ = conn.WriteMessage(websocket.TextMessage, resp)
	}
	return true
}

func sessionKey(conn *websocket.Conn) string {
	return fmt.Sprintf("%p", conn)
}
