package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studymate-platform/internal/logger"
	"studymate-platform/internal/telemetry"
	"studymate-platform/models"
)

// Completer generates a free-form reply for an assembled prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SessionStore is the slice of the metadata store chat depends on.
type SessionStore interface {
	EnsureSession(ctx context.Context, ownerID string, seed models.ChatMessage) error
	GetSession(ctx context.Context, ownerID string) (*models.ChatSession, error)
	AppendMessages(ctx context.Context, ownerID string, messages ...models.ChatMessage) error
	ResetSession(ctx context.Context, ownerID string, seed models.ChatMessage) error
}

const chatSeedMessage = "Hi! Upload your study material and ask me anything about it. I can also generate flashcards and quizzes for you."

const historyRecapLimit = 10

// ChatService answers study questions grounded in the owner's uploaded
// documents.
type ChatService struct {
	sessions  SessionStore
	assembler *ContextAssembler
	ai        Completer
	metrics   *telemetry.Metrics
}

func NewChatService(sessions SessionStore, assembler *ContextAssembler, ai Completer, metrics *telemetry.Metrics) *ChatService {
	return &ChatService{
		sessions:  sessions,
		assembler: assembler,
		ai:        ai,
		metrics:   metrics,
	}
}

func seedMessage() models.ChatMessage {
	return models.ChatMessage{
		Role:      models.RoleAssistant,
		Content:   chatSeedMessage,
		Timestamp: time.Now(),
	}
}

// Send answers a user message. The reply is grounded in retrieved
// document context when any is available, and both the user message
// and the reply are appended to the session history in one write.
func (cs *ChatService) Send(ctx context.Context, ownerID, message string) (*models.ChatResponse, error) {
	if err := cs.sessions.EnsureSession(ctx, ownerID, seedMessage()); err != nil {
		return nil, fmt.Errorf("failed to ensure chat session: %w", err)
	}

	session, err := cs.sessions.GetSession(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}

	contextBlock, err := cs.assembler.Assemble(ctx, ownerID, message, "")
	if err != nil {
		return nil, fmt.Errorf("failed to assemble context: %w", err)
	}
	grounded := contextBlock != ""

	prompt := buildStudyPrompt(contextBlock, session.Messages, message)

	reply, err := cs.ai.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	now := time.Now()
	err = cs.sessions.AppendMessages(ctx, ownerID,
		models.ChatMessage{Role: models.RoleUser, Content: message, Timestamp: now},
		models.ChatMessage{Role: models.RoleAssistant, Content: reply, Timestamp: now},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to persist chat turn: %w", err)
	}

	if cs.metrics != nil {
		cs.metrics.RecordChatMessage(grounded)
	}
	logger.Debug("chat turn completed", "owner_id", ownerID, "grounded", grounded)

	return &models.ChatResponse{
		Reply:     reply,
		Grounded:  grounded,
		Timestamp: now,
	}, nil
}

// History returns the owner's session, creating it with the seed
// greeting if it does not exist yet.
func (cs *ChatService) History(ctx context.Context, ownerID string) (*models.ChatSession, error) {
	if err := cs.sessions.EnsureSession(ctx, ownerID, seedMessage()); err != nil {
		return nil, fmt.Errorf("failed to ensure chat session: %w", err)
	}
	return cs.sessions.GetSession(ctx, ownerID)
}

// Clear resets the session back to just the seed greeting.
func (cs *ChatService) Clear(ctx context.Context, ownerID string) error {
	if err := cs.sessions.ResetSession(ctx, ownerID, seedMessage()); err != nil {
		return fmt.Errorf("failed to clear chat session: %w", err)
	}
	return nil
}

// buildStudyPrompt assembles the model prompt from retrieved document
// context, recent history, and the current question.
func buildStudyPrompt(contextBlock string, history []models.ChatMessage, currentMessage string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a study assistant helping a student learn from their uploaded materials. ")
	prompt.WriteString("Your goal is to explain concepts clearly and accurately.\n\n")

	prompt.WriteString("RESPONSE RULES:\n")
	prompt.WriteString("- ANSWER from the provided study material whenever it covers the question\n")
	prompt.WriteString("- SAY CLEARLY when the material does not cover something, then answer from general knowledge\n")
	prompt.WriteString("- KEEP explanations concise and use examples from the material\n")
	prompt.WriteString("- USE bullet points for enumerations or step-by-step explanations\n")
	prompt.WriteString("- NEVER invent citations or facts that are not in the material\n\n")

	if len(history) > 0 {
		start := 0
		if len(history) > historyRecapLimit {
			start = len(history) - historyRecapLimit
		}
		prompt.WriteString("Conversation so far:\n")
		for _, msg := range history[start:] {
			if strings.TrimSpace(msg.Content) == "" {
				continue
			}
			switch msg.Role {
			case models.RoleUser:
				prompt.WriteString(fmt.Sprintf("Student: %s\n", msg.Content))
			case models.RoleAssistant:
				prompt.WriteString(fmt.Sprintf("Assistant: %s\n", msg.Content))
			}
		}
		prompt.WriteString("\n")
	}

	if contextBlock != "" {
		prompt.WriteString("STUDY MATERIAL:\n")
		prompt.WriteString(contextBlock)
		prompt.WriteString("\n\n")
	}

	prompt.WriteString(fmt.Sprintf("Student: %s\n", strings.TrimSpace(currentMessage)))
	prompt.WriteString("Assistant:")

	return prompt.String()
}
