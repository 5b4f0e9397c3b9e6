package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"codexai-go/internal/model"
	"codexai-go/pkg/llm"
	"codexai-go/pkg/log"

	"github.com/gorilla/websocket"
)

// ErrStreamStopped signals a client-requested interruption of a stream.
var ErrStreamStopped = errors.New("stream stopped by client")

// ChatService streams grounded assistant answers over a WebSocket.
type ChatService interface {
	// StreamResponse retrieves context for the query (public corpus plus
	// the user's own vault), streams the model answer to conn and honors
	// shouldStop between chunks.
	StreamResponse(ctx context.Context, query string, user *model.User, conn llm.MessageWriter, shouldStop func() bool) error
}

type chatService struct {
	ragSvc    RagService
	llmClient llm.Client
}

// NewChatService creates a new ChatService instance.
func NewChatService(ragSvc RagService, llmClient llm.Client) ChatService {
	return &chatService{ragSvc: ragSvc, llmClient: llmClient}
}

// stopAwareWriter forwards chunks until shouldStop reports true.
type stopAwareWriter struct {
	conn       llm.MessageWriter
	shouldStop func() bool
}

func (w *stopAwareWriter) WriteMessage(messageType int, data []byte) error {
	if w.shouldStop != nil && w.shouldStop() {
		return ErrStreamStopped
	}
	return w.conn.WriteMessage(messageType, data)
}

func (s *chatService) StreamResponse(ctx context.Context, query string, user *model.User, conn llm.MessageWriter, shouldStop func() bool) error {
	messages := []llm.Message{{Role: "system", Content: systemPromptFR}}

	opts := s.ragSvc.Options()
	ragCtx, err := s.ragSvc.Search(ctx, query, "", &user.ID, opts.SearchLimit, opts.Threshold)
	if err != nil {
		log.Warnf("[ChatService] context retrieval failed for user %d: %v", user.ID, err)
	} else if ragCtx.Context != "" {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: "Contexte documentaire pertinent :\n\n" + ragCtx.Context,
		})
	}
	messages = append(messages, llm.Message{Role: "user", Content: query})

	writer := &stopAwareWriter{conn: conn, shouldStop: shouldStop}
	if err := s.llmClient.StreamChatMessages(ctx, messages, nil, writer); err != nil {
		if errors.Is(err, ErrStreamStopped) {
			log.Infof("[ChatService] stream stopped by user %d", user.ID)
			return nil
		}
		return err
	}

	completion := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"timestamp": time.Now().UnixMilli(),
	}
	b, _ := json.Marshal(completion)
	return conn.WriteMessage(websocket.TextMessage, b)
}
