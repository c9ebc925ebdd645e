package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"inbox-scout-go/internal/classifier"
	"inbox-scout-go/internal/fetcher"
	"inbox-scout-go/internal/metrics"
	"inbox-scout-go/internal/model"
)

// MailConnector fetches the recent raw messages of one mailbox.
type MailConnector interface {
	FetchRecent(ctx context.Context, params fetcher.ConnectionParams) ([]model.RawMessage, error)
}

// MessageParser normalizes one raw message.
type MessageParser interface {
	Parse(raw model.RawMessage) (model.EmailRecord, error)
}

// Classifier assigns a category to one record and reports the decision
// source. It must not return errors; failures downgrade to General.
type Classifier interface {
	Classify(ctx context.Context, record model.EmailRecord) (model.Category, string)
}

// EmailIndexer upserts one classified record.
type EmailIndexer interface {
	IndexEmail(ctx context.Context, record model.EmailRecord) error
}

// LeadNotifier dispatches best-effort alerts without blocking.
type LeadNotifier interface {
	NotifyInterested(record model.EmailRecord)
}

// SyncService runs the ingestion pipeline for one mailbox: fetch, then
// per message parse, classify, alert, index, strictly one message at a
// time in fetch order, so the shared inference endpoint never sees
// concurrent requests from a single sync.
type SyncService struct {
	connector  MailConnector
	parser     MessageParser
	classifier Classifier
	indexer    EmailIndexer
	notifier   LeadNotifier
	metrics    *metrics.Metrics
}

// NewSyncService creates a new sync service
func NewSyncService(connector MailConnector, parser MessageParser, cls Classifier, indexer EmailIndexer, notifier LeadNotifier, m *metrics.Metrics) *SyncService {
	return &SyncService{
		connector:  connector,
		parser:     parser,
		classifier: cls,
		indexer:    indexer,
		notifier:   notifier,
		metrics:    m,
	}
}

// SyncAccount pulls the recent window of one mailbox and runs every
// message through the pipeline. A connection-level failure aborts the
// whole call with no partial result; per-message parse and index
// failures are logged and skipped. Returns the classified records in
// fetch order.
func (s *SyncService) SyncAccount(ctx context.Context, userID, accountID string, params fetcher.ConnectionParams) ([]model.EmailRecord, error) {
	start := time.Now()
	s.metrics.SyncCount.Inc()

	raws, err := s.connector.FetchRecent(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("mailbox fetch failed: %w", err)
	}
	s.metrics.EmailsFetched.Add(float64(len(raws)))

	records := make([]model.EmailRecord, 0, len(raws))
	for _, raw := range raws {
		record, err := s.parser.Parse(raw)
		if err != nil {
			s.metrics.ParseFailures.Inc()
			logrus.Warnf("Dropping unparseable message %d: %v", raw.SeqNum, err)
			continue
		}

		record.OwnerUserID = userID
		record.AccountID = accountID
		record.Folder = "INBOX"
		record.IsRead = false
		if record.MessageID == "" {
			record.MessageID = uuid.NewString()
		}

		category, source := s.classifier.Classify(ctx, record)
		record.Category = category
		if source == classifier.SourceRule {
			s.metrics.RuleClassifications.Inc()
		} else {
			s.metrics.InferenceFallbacks.Inc()
		}

		// Alerts go out before the index write and are never awaited.
		if record.Category == model.CategoryInterested {
			s.notifier.NotifyInterested(record)
			s.metrics.NotificationsSent.Inc()
		}

		if err := s.indexer.IndexEmail(ctx, record); err != nil {
			s.metrics.IndexFailures.Inc()
			logrus.Errorf("Failed to index message %s: %v", record.MessageID, err)
		} else {
			s.metrics.EmailsIndexed.Inc()
		}

		records = append(records, record)
	}

	duration := time.Since(start)
	s.metrics.SyncDuration.Observe(duration.Seconds())
	logrus.Infof("Sync for account %s completed: %d records in %v", accountID, len(records), duration)

	return records, nil
}
