package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"inbox-scout-go/internal/classifier"
	"inbox-scout-go/internal/model"
)

// chatContextSize caps how many relevant emails feed one answer.
const chatContextSize = 5

// chatBodyLimit caps how much of each email body enters the context.
const chatBodyLimit = 500

// noMatchesAnswer is returned without an inference call when the search
// finds nothing to ground an answer on.
const noMatchesAnswer = "I couldn't find any emails related to that in your inbox."

const chatPromptTemplate = `You are a helpful AI Email Assistant.
Answer the user's question based ONLY on the email context provided below.
If the answer is not in the emails, say "I don't see that information in your recent emails."
Keep your answer concise and professional.

--- EMAILS CONTEXT ---
%s
----------------------

User Question: "%s"
AI Answer:`

// RelevanceSearcher retrieves the owner's emails most relevant to a
// free-form question.
type RelevanceSearcher interface {
	Relevant(ctx context.Context, userID, query string, limit int) ([]model.EmailRecord, error)
}

// ChatService answers free-form questions about a user's inbox. It
// retrieves the most relevant indexed emails, assembles them into a
// grounding context and asks the inference endpoint to answer from that
// context only.
type ChatService struct {
	searcher RelevanceSearcher
	llm      classifier.TextGenerator
}

// NewChatService creates a new chat service
func NewChatService(searcher RelevanceSearcher, llm classifier.TextGenerator) *ChatService {
	return &ChatService{searcher: searcher, llm: llm}
}

// Chat answers one question over the caller's indexed emails. A search
// failure or inference failure fails the call; an empty search result
// short-circuits to a canned answer without touching the inference
// endpoint.
func (s *ChatService) Chat(ctx context.Context, userID, query string) (string, error) {
	records, err := s.searcher.Relevant(ctx, userID, query, chatContextSize)
	if err != nil {
		return "", fmt.Errorf("failed to search inbox context: %w", err)
	}

	if len(records) == 0 {
		logrus.Infof("No inbox context found for question %q", query)
		return noMatchesAnswer, nil
	}

	prompt := fmt.Sprintf(chatPromptTemplate, buildChatContext(records), query)

	answer, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	logrus.Infof("Answered inbox question from %d emails", len(records))
	return strings.TrimSpace(answer), nil
}

func buildChatContext(records []model.EmailRecord) string {
	var b strings.Builder
	for i, record := range records {
		date := ""
		if record.Date != nil {
			date = record.Date.Format(time.RFC3339)
		}

		body := record.Body
		if runes := []rune(body); len(runes) > chatBodyLimit {
			body = string(runes[:chatBodyLimit]) + "..."
		}

		fmt.Fprintf(&b, "[Email %d]\nFrom: %s\nSubject: %s\nDate: %s\nBody Snippet: %s\n\n",
			i+1, record.From, record.Subject, date, body)
	}
	return b.String()
}
