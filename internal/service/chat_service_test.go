package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"inbox-scout-go/internal/model"
)

type fakeSearcher struct {
	records   []model.EmailRecord
	err       error
	lastUser  string
	lastQuery string
	lastLimit int
}

func (f *fakeSearcher) Relevant(ctx context.Context, userID, query string, limit int) ([]model.EmailRecord, error) {
	f.lastUser = userID
	f.lastQuery = query
	f.lastLimit = limit
	return f.records, f.err
}

type fakeGenerator struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.response, f.err
}

func TestChatGroundsAnswerOnRelevantEmails(t *testing.T) {
	date := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	searcher := &fakeSearcher{records: []model.EmailRecord{
		{From: "recruiter@acme.com", Subject: "Interview schedule", Date: &date, Body: "Your interview is on Friday at 10am."},
		{From: "hr@acme.com", Subject: "Offer details", Body: "The offer expires next week."},
	}}
	llm := &fakeGenerator{response: "  Your interview is on Friday at 10am.  "}

	svc := NewChatService(searcher, llm)
	answer, err := svc.Chat(context.Background(), "user-a", "when is my interview?")

	assert.NoError(t, err)
	assert.Equal(t, "Your interview is on Friday at 10am.", answer)

	assert.Equal(t, "user-a", searcher.lastUser)
	assert.Equal(t, "when is my interview?", searcher.lastQuery)
	assert.Equal(t, 5, searcher.lastLimit)

	assert.Equal(t, 1, llm.calls)
	assert.Contains(t, llm.lastPrompt, "[Email 1]")
	assert.Contains(t, llm.lastPrompt, "[Email 2]")
	assert.Contains(t, llm.lastPrompt, "From: recruiter@acme.com")
	assert.Contains(t, llm.lastPrompt, "Subject: Interview schedule")
	assert.Contains(t, llm.lastPrompt, "2024-03-14T10:00:00Z")
	assert.Contains(t, llm.lastPrompt, `User Question: "when is my interview?"`)
}

func TestChatNoMatchesSkipsInference(t *testing.T) {
	searcher := &fakeSearcher{}
	llm := &fakeGenerator{response: "should not be used"}

	svc := NewChatService(searcher, llm)
	answer, err := svc.Chat(context.Background(), "user-a", "anything about taxes?")

	assert.NoError(t, err)
	assert.Equal(t, "I couldn't find any emails related to that in your inbox.", answer)
	assert.Equal(t, 0, llm.calls)
}

func TestChatTruncatesLongBodiesInContext(t *testing.T) {
	searcher := &fakeSearcher{records: []model.EmailRecord{
		{Subject: "Long thread", Body: strings.Repeat("x", 600)},
	}}
	llm := &fakeGenerator{response: "ok"}

	svc := NewChatService(searcher, llm)
	_, err := svc.Chat(context.Background(), "user-a", "what happened?")

	assert.NoError(t, err)
	assert.Contains(t, llm.lastPrompt, strings.Repeat("x", 500)+"...")
	assert.NotContains(t, llm.lastPrompt, strings.Repeat("x", 501))
}

func TestChatSearchFailureFailsCall(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("index unavailable")}
	llm := &fakeGenerator{}

	svc := NewChatService(searcher, llm)
	_, err := svc.Chat(context.Background(), "user-a", "anything new?")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "index unavailable")
	assert.Equal(t, 0, llm.calls)
}

func TestChatInferenceFailureFailsCall(t *testing.T) {
	searcher := &fakeSearcher{records: []model.EmailRecord{{Subject: "hello"}}}
	llm := &fakeGenerator{err: fmt.Errorf("endpoint down")}

	svc := NewChatService(searcher, llm)
	_, err := svc.Chat(context.Background(), "user-a", "anything new?")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint down")
}
