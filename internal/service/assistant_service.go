package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"codexai-go/internal/model"
	"codexai-go/internal/repository"
	"codexai-go/pkg/llm"
	"codexai-go/pkg/log"
)

// systemPromptFR frames the assistant as a French legal expert. Answers
// must cite their sources and never invent them.
const systemPromptFR = `Tu es CodexAI, un assistant juridique professionnel spécialisé dans le droit français.

Tes responsabilités :
1. Répondre à des questions complexes sur le droit civil, pénal et administratif français.
2. Fournir des analyses juridiques précises et fondées sur la jurisprudence.
3. Toujours citer tes sources (articles de loi, numéros de pourvoi, etc.).
4. Utiliser un langage juridique professionnel et précis.
5. Reconnaître les limites de tes connaissances et recommander une consultation avec un avocat si nécessaire.

Important : Tu ne dois jamais inventer de sources ou de citations. Si tu n'es pas certain, dis-le clairement.`

const llmErrorFR = "Erreur lors de la génération de la réponse."

// maxMessageLength caps a single user message.
const maxMessageLength = 5000

// Citation patterns recognised in assistant answers: code articles
// ("Article 1134 du Code Civil"), case law ("Cass. civ. 1, 10 juillet
// 2007, n° 06-14.768") and statute references ("Loi n° 2016-1547").
var (
	articleCitationRe = regexp.MustCompile(`[Aa]rticle\s+\d+[\w\-]*(?:\s+(?:du|de la|des)\s+[Cc]ode(?:\s+(?:de l'|de la|du|des|de)?\s*[A-ZÀ-ÖØ-Þ][\w'À-ÿ\-]*)*)?`)
	caseCitationRe    = regexp.MustCompile(`(?i)(?:Cass\.|Cour de cassation)[^,]+,\s*\d{1,2}\s+\p{L}+\s+\d{4}(?:,\s*n°\s*[\d\-\.]+)?`)
	lawCitationRe     = regexp.MustCompile(`(?i)Loi\s+n°\s*[\d\-]+`)
)

// SendMessageResult pairs the stored user message with the generated
// assistant answer.
type SendMessageResult struct {
	UserMessage      *model.Message `json:"userMessage"`
	AssistantMessage *model.Message `json:"assistantMessage"`
}

// AssistantService drives conversational legal Q&A.
type AssistantService interface {
	CreateConversation(ctx context.Context, userID uint, title string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID uint) ([]*model.Conversation, error)
	GetMessages(ctx context.Context, userID, conversationID uint) ([]*model.Message, error)
	// SendMessage stores the user message, grounds an LLM call in the
	// public knowledge corpus and stores the answer with its extracted
	// citations.
	SendMessage(ctx context.Context, userID, conversationID uint, message string) (*SendMessageResult, error)
	// SystemMessages builds the grounded prompt prefix for a query. Used
	// by the streaming chat endpoint, which manages its own history.
	SystemMessages(ctx context.Context, query string) []llm.Message
}

type assistantService struct {
	convRepo  repository.ConversationRepository
	auditRepo repository.AuditRepository
	ragSvc    RagService
	llmClient llm.Client
}

// NewAssistantService creates a new AssistantService instance.
func NewAssistantService(
	convRepo repository.ConversationRepository,
	auditRepo repository.AuditRepository,
	ragSvc RagService,
	llmClient llm.Client,
) AssistantService {
	return &assistantService{
		convRepo:  convRepo,
		auditRepo: auditRepo,
		ragSvc:    ragSvc,
		llmClient: llmClient,
	}
}

func (s *assistantService) CreateConversation(ctx context.Context, userID uint, title string) (*model.Conversation, error) {
	if title == "" {
		title = fmt.Sprintf("Conversation du %s", time.Now().Format("02/01/2006"))
	}
	conv := &model.Conversation{
		UserID: userID,
		Title:  title,
	}
	if err := s.convRepo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	s.auditRepo.Log(ctx, userID, model.AuditAssistantQuery, &conv.ID, "assistant_conversation", map[string]interface{}{
		"event": "conversation_created",
	})
	return conv, nil
}

func (s *assistantService) ListConversations(ctx context.Context, userID uint) ([]*model.Conversation, error) {
	return s.convRepo.FindConversationsByUserID(ctx, userID)
}

func (s *assistantService) GetMessages(ctx context.Context, userID, conversationID uint) ([]*model.Message, error) {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.convRepo.FindMessagesByConversationID(ctx, conversationID)
}

func (s *assistantService) SendMessage(ctx context.Context, userID, conversationID uint, message string) (*SendMessageResult, error) {
	if message == "" {
		return nil, errors.New("message must not be empty")
	}
	if len(message) > maxMessageLength {
		return nil, fmt.Errorf("message exceeds %d characters", maxMessageLength)
	}
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	userMsg := &model.Message{
		ConversationID: conversationID,
		Role:           "user",
		Content:        message,
	}
	if err := s.convRepo.CreateMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	history, err := s.convRepo.FindMessagesByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages := s.SystemMessages(ctx, message)
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	answer, err := s.llmClient.Complete(ctx, messages, nil)
	if err != nil {
		log.Errorf("[AssistantService] LLM completion failed: %v", err)
		answer = llmErrorFR
	}

	citations := ExtractCitations(answer)
	citationsJSON, _ := json.Marshal(citations)

	assistantMsg := &model.Message{
		ConversationID: conversationID,
		Role:           "assistant",
		Content:        answer,
		Citations:      string(citationsJSON),
	}
	if err := s.convRepo.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}

	s.auditRepo.Log(ctx, userID, model.AuditAssistantQuery, &conversationID, "assistant_conversation", map[string]interface{}{
		"messageLength":  len(message),
		"responseLength": len(answer),
	})

	return &SendMessageResult{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// SystemMessages returns the system prompt, optionally followed by a
// retrieved-context message when the public corpus has relevant chunks.
func (s *assistantService) SystemMessages(ctx context.Context, query string) []llm.Message {
	messages := []llm.Message{{Role: "system", Content: systemPromptFR}}

	ragCtx, err := s.ragSvc.Search(ctx, query, "", nil, 0, s.ragSvc.Options().Threshold)
	if err != nil {
		log.Warnf("[AssistantService] context retrieval failed, answering without grounding: %v", err)
		return messages
	}
	if ragCtx.Context != "" {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: "Contexte documentaire pertinent :\n\n" + ragCtx.Context,
		})
	}
	return messages
}

func (s *assistantService) ownedConversation(ctx context.Context, userID, conversationID uint) (*model.Conversation, error) {
	conv, err := s.convRepo.FindConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, errors.New("conversation does not belong to this user")
	}
	return conv, nil
}

// ExtractCitations collects the legal references an answer mentions,
// without duplicates.
func ExtractCitations(text string) []string {
	citations := make([]string, 0)
	seen := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{articleCitationRe, caseCitationRe, lawCitationRe} {
		for _, match := range re.FindAllString(text, -1) {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			citations = append(citations, match)
		}
	}
	return citations
}
