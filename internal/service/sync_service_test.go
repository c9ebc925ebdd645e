package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"inbox-scout-go/internal/fetcher"
	"inbox-scout-go/internal/metrics"
	"inbox-scout-go/internal/model"
)

// Prometheus collectors register globally, so one instance serves every
// test in the package.
var testMetrics = metrics.New()

type fakeConnector struct {
	raws []model.RawMessage
	err  error
}

func (f *fakeConnector) FetchRecent(ctx context.Context, params fetcher.ConnectionParams) ([]model.RawMessage, error) {
	return f.raws, f.err
}

// fakeParser turns "subject|body" payloads into records and fails on
// payloads marked bad.
type fakeParser struct{}

func (fakeParser) Parse(raw model.RawMessage) (model.EmailRecord, error) {
	payload := string(raw.Body)
	if payload == "bad" {
		return model.EmailRecord{}, fmt.Errorf("malformed message")
	}

	parts := strings.SplitN(payload, "|", 3)
	record := model.EmailRecord{Subject: parts[0]}
	if len(parts) > 1 {
		record.Body = parts[1]
	}
	if len(parts) > 2 {
		record.MessageID = parts[2]
	}
	return record, nil
}

// fakeClassifier marks subjects containing "lead" as Interested.
type fakeClassifier struct{ calls []string }

func (f *fakeClassifier) Classify(ctx context.Context, record model.EmailRecord) (model.Category, string) {
	f.calls = append(f.calls, record.Subject)
	if strings.Contains(record.Subject, "lead") {
		return model.CategoryInterested, "rule"
	}
	return model.CategoryGeneral, "rule"
}

type fakeIndexer struct {
	docs    map[string]model.EmailRecord
	order   []string
	failIDs map[string]bool
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{docs: make(map[string]model.EmailRecord), failIDs: make(map[string]bool)}
}

func (f *fakeIndexer) IndexEmail(ctx context.Context, record model.EmailRecord) error {
	if f.failIDs[record.MessageID] {
		return fmt.Errorf("index unavailable")
	}
	f.docs[record.MessageID] = record
	f.order = append(f.order, record.MessageID)
	return nil
}

type fakeNotifier struct{ notified []string }

func (f *fakeNotifier) NotifyInterested(record model.EmailRecord) {
	f.notified = append(f.notified, record.MessageID)
}

func raw(seq uint32, payload string) model.RawMessage {
	return model.RawMessage{SeqNum: seq, Body: []byte(payload)}
}

func newService(connector *fakeConnector, indexer *fakeIndexer, notifier *fakeNotifier, cls *fakeClassifier) *SyncService {
	return NewSyncService(connector, fakeParser{}, cls, indexer, notifier, testMetrics)
}

func TestSyncAccountPipeline(t *testing.T) {
	connector := &fakeConnector{raws: []model.RawMessage{
		raw(1, "hello|just text|id-1"),
		raw(2, "hot lead|call me|id-2"),
		raw(3, "newsletter|weekly|id-3"),
	}}
	indexer := newFakeIndexer()
	notifier := &fakeNotifier{}
	cls := &fakeClassifier{}

	records, err := newService(connector, indexer, notifier, cls).
		SyncAccount(context.Background(), "user-a", "acct-1", fetcher.ConnectionParams{})
	assert.NoError(t, err)
	assert.Len(t, records, 3)

	// Fetch order is preserved end to end.
	assert.Equal(t, []string{"hello", "hot lead", "newsletter"}, cls.calls)
	assert.Equal(t, []string{"id-1", "id-2", "id-3"}, indexer.order)

	// Ownership fields are attached to every record.
	for _, record := range records {
		assert.Equal(t, "user-a", record.OwnerUserID)
		assert.Equal(t, "acct-1", record.AccountID)
		assert.Equal(t, "INBOX", record.Folder)
		assert.False(t, record.IsRead)
		assert.NotEmpty(t, record.Category)
	}

	// Only the Interested record fires alerts.
	assert.Equal(t, []string{"id-2"}, notifier.notified)
	assert.Equal(t, model.CategoryInterested, indexer.docs["id-2"].Category)
}

func TestSyncAccountConnectionFailure(t *testing.T) {
	connector := &fakeConnector{err: fmt.Errorf("auth rejected")}
	indexer := newFakeIndexer()

	records, err := newService(connector, indexer, &fakeNotifier{}, &fakeClassifier{}).
		SyncAccount(context.Background(), "user-a", "acct-1", fetcher.ConnectionParams{})
	assert.Error(t, err)
	assert.Nil(t, records)
	assert.Empty(t, indexer.docs)
}

func TestSyncAccountParseFailureIsIsolated(t *testing.T) {
	connector := &fakeConnector{raws: []model.RawMessage{
		raw(1, "first||id-1"),
		raw(2, "bad"),
		raw(3, "third||id-3"),
	}}
	indexer := newFakeIndexer()

	records, err := newService(connector, indexer, &fakeNotifier{}, &fakeClassifier{}).
		SyncAccount(context.Background(), "user-a", "acct-1", fetcher.ConnectionParams{})
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, []string{"id-1", "id-3"}, indexer.order)
}

func TestSyncAccountIndexFailureIsIsolated(t *testing.T) {
	connector := &fakeConnector{raws: []model.RawMessage{
		raw(1, "first||id-1"),
		raw(2, "second||id-2"),
	}}
	indexer := newFakeIndexer()
	indexer.failIDs["id-1"] = true

	records, err := newService(connector, indexer, &fakeNotifier{}, &fakeClassifier{}).
		SyncAccount(context.Background(), "user-a", "acct-1", fetcher.ConnectionParams{})
	assert.NoError(t, err)

	// The failed write is skipped, the batch and the result are not.
	assert.Len(t, records, 2)
	assert.Equal(t, []string{"id-2"}, indexer.order)
}

func TestSyncAccountGeneratesIDsWhenHeaderAbsent(t *testing.T) {
	connector := &fakeConnector{raws: []model.RawMessage{raw(1, "no id|some body")}}
	indexer := newFakeIndexer()

	records, err := newService(connector, indexer, &fakeNotifier{}, &fakeClassifier{}).
		SyncAccount(context.Background(), "user-a", "acct-1", fetcher.ConnectionParams{})
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.NotEmpty(t, records[0].MessageID)
}

func TestSyncAccountEmptyMailbox(t *testing.T) {
	connector := &fakeConnector{raws: nil}
	indexer := newFakeIndexer()
	notifier := &fakeNotifier{}

	records, err := newService(connector, indexer, notifier, &fakeClassifier{}).
		SyncAccount(context.Background(), "user-a", "acct-1", fetcher.ConnectionParams{})
	assert.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, indexer.docs)
	assert.Empty(t, notifier.notified)
}
