package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/genai"

	"github.com/FACorreiaa/go-lms-sdk/internal/api"
	"github.com/FACorreiaa/go-lms-sdk/internal/store"
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

const defaultModel = "gemini-2.0-flash"

// Generator abstracts the model call so tests can stub it.
type Generator interface {
	GenerateReply(ctx context.Context, topic, question string) (string, error)
}

// AIClient wraps the Gemini client behind the Generator interface.
type AIClient struct {
	client *genai.Client
	model  string
}

var _ Generator = (*AIClient)(nil)

// NewAIClient builds the Gemini-backed generator. Returns an error when the
// API key is not configured so the caller can leave the tutor unmounted.
func NewAIClient(ctx context.Context) (*AIClient, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GOOGLE_GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &AIClient{client: client, model: defaultModel}, nil
}

func (ai *AIClient) GenerateReply(ctx context.Context, topic, question string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a patient tutor helping a student with %q. Answer the question concisely and end with one short follow-up question.\n\nStudent: %s",
		topic, question)
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.5),
	})
	if err != nil {
		return "", fmt.Errorf("generate tutor reply: %w", err)
	}
	return result.Text(), nil
}

// TutorService appends a student question and the generated tutor reply to
// an aiTutorSessions record. The record store is the single source of truth
// for the conversation; this service only grows the messages array.
type TutorService struct {
	logger    *slog.Logger
	records   store.RecordStore
	generator Generator
}

func NewTutorService(records store.RecordStore, generator Generator, logger *slog.Logger) *TutorService {
	return &TutorService{
		logger:    logger,
		records:   records,
		generator: generator,
	}
}

// Ask records the student's question on the session, generates the tutor's
// reply and records that too. Only the session's owner may ask.
func (s *TutorService) Ask(ctx context.Context, sessionID, userID, question string) (types.Record, error) {
	l := s.logger.With(slog.String("method", "Ask"), slog.String("sessionID", sessionID))

	session, err := s.records.Read(ctx, "aiTutorSessions", sessionID)
	if err != nil {
		return nil, err
	}
	if session.String("userId") != userID {
		return nil, api.ErrUnauthenticated
	}

	reply, err := s.generator.GenerateReply(ctx, session.String("topic"), question)
	if err != nil {
		l.ErrorContext(ctx, "Tutor generation failed", slog.Any("error", err))
		return nil, err
	}

	now := time.Now().UTC().Format(types.TimestampFormat)
	exchange := []any{
		map[string]any{"role": "student", "content": question, "at": now},
		map[string]any{"role": "tutor", "content": reply, "at": now},
	}

	// The append is derived from the latest stored record on every commit
	// attempt, so a concurrent exchange on the same session is never dropped.
	updated, err := s.records.UpdateWith(ctx, "aiTutorSessions", sessionID, func(current types.Record) (types.Record, error) {
		stored, _ := current["messages"].([]any)
		messages := make([]any, 0, len(stored)+len(exchange))
		messages = append(messages, stored...)
		messages = append(messages, exchange...)
		return types.Record{"messages": messages}, nil
	})
	if err != nil {
		return nil, err
	}

	l.InfoContext(ctx, "Tutor exchange recorded", slog.Int("messages", len(updated["messages"].([]any))))
	return updated, nil
}
