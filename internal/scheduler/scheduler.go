package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"inbox-scout-go/internal/config"
	"inbox-scout-go/internal/fetcher"
	"inbox-scout-go/internal/model"
)

// AccountLister yields the linked accounts to re-sync, with their
// decrypted connection parameters.
type AccountLister interface {
	ListAll() ([]model.ConnectedAccount, error)
	ConnectionParams(account *model.ConnectedAccount) (fetcher.ConnectionParams, error)
}

// Syncer runs one mailbox sync.
type Syncer interface {
	SyncAccount(ctx context.Context, userID, accountID string, params fetcher.ConnectionParams) ([]model.EmailRecord, error)
}

// Scheduler periodically re-syncs every linked account. Accounts are
// processed one at a time; they all share the same inference endpoint
// and index store.
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	config    *config.Scheduler
	accounts  AccountLister
	syncer    Syncer
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
}

// New creates a new scheduler
func New(cfg *config.Scheduler, accounts AccountLister, syncer Syncer) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		config:   cfg,
		accounts: accounts,
		syncer:   syncer,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)

	entryID, err := s.cron.AddFunc(schedule, s.syncAll)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// syncAll is the periodic cycle: every linked account, sequentially.
func (s *Scheduler) syncAll() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Info("Scheduler not running, skipping sync cycle")
		return
	}
	ctx := s.ctx
	s.mu.RUnlock()

	logrus.Info("Starting background sync cycle")
	startTime := time.Now()

	accounts, err := s.accounts.ListAll()
	if err != nil {
		logrus.Errorf("Failed to list accounts for sync cycle: %v", err)
		return
	}

	for i := range accounts {
		if ctx.Err() != nil {
			logrus.Info("Sync cycle cancelled")
			return
		}

		account := &accounts[i]
		params, err := s.accounts.ConnectionParams(account)
		if err != nil {
			logrus.Errorf("Failed to prepare connection for account %d: %v", account.ID, err)
			continue
		}

		accountID := fmt.Sprintf("%d", account.ID)
		if _, err := s.syncer.SyncAccount(ctx, account.UserID, accountID, params); err != nil {
			logrus.Errorf("Background sync failed for account %d: %v", account.ID, err)
		}
	}

	logrus.Infof("Background sync cycle completed in %v", time.Since(startTime))
}

// RunOnce runs one sync cycle immediately (for manual triggering)
func (s *Scheduler) RunOnce() error {
	logrus.Info("Running sync cycle once")
	s.syncAll()
	return nil
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	if !s.IsRunning() {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the time of the last run
func (s *Scheduler) GetLastRun() time.Time {
	if !s.IsRunning() {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Prev
}

// Wait waits for any in-flight cycle to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
