// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package supervisor

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mattermost/ledgergw/internal/metrics"
	"github.com/mattermost/ledgergw/internal/parser"
	"github.com/mattermost/ledgergw/model"
)

const (
	// DefaultBatchSize is the number of submissions confirmed per pass.
	DefaultBatchSize = 20
	// DefaultInterval is used when no positive interval is given.
	DefaultInterval = time.Minute
)

// Store is the part of the submission journal the supervisor works on.
type Store interface {
	GetUnconfirmedSubmissions(limit uint64) ([]*model.Submission, error)
	ConfirmSubmission(id, confirmedStatus string) error
}

// Ledger reads transactions back from the ledger.
type Ledger interface {
	Query(ctx context.Context, transactionID string) (string, error)
}

// ConfirmationSupervisor periodically reads journalled submissions back
// from the ledger and marks the ones that have become visible.
type ConfirmationSupervisor struct {
	store     Store
	ledger    Ledger
	parser    parser.Parser
	metrics   *metrics.Metrics
	logger    log.FieldLogger
	interval  time.Duration
	batchSize uint64

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewConfirmationSupervisor returns a ConfirmationSupervisor prepared with
// the needed metadata to operate.
func NewConfirmationSupervisor(store Store, ledger Ledger, p parser.Parser, m *metrics.Metrics, logger log.FieldLogger, interval time.Duration) *ConfirmationSupervisor {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &ConfirmationSupervisor{
		store:     store,
		ledger:    ledger,
		parser:    p,
		metrics:   m,
		logger:    logger.WithField("confirmation-supervisor", model.NewID()),
		interval:  interval,
		batchSize: DefaultBatchSize,
		stop:      make(chan struct{}),
	}
}

// Start runs the supervisor's main routine on a new goroutine every
// interval until Stop is called.
func (s *ConfirmationSupervisor) Start() {
	s.logger.Info("Confirmation supervisor started")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Supervise()
			}
		}
	}()
}

// Stop ends the main routine and waits for an in-flight pass to finish.
// It must be called at most once.
func (s *ConfirmationSupervisor) Stop() {
	close(s.stop)
	s.wg.Wait()
	s.logger.Info("Confirmation supervisor stopped")
}

// Supervise runs a single confirmation pass over the oldest unconfirmed
// submissions.
func (s *ConfirmationSupervisor) Supervise() {
	submissions, err := s.store.GetUnconfirmedSubmissions(s.batchSize)
	if err != nil {
		s.logger.WithError(err).Error("Failed to query database for unconfirmed submissions")
		return
	}

	for _, submission := range submissions {
		select {
		case <-s.stop:
			return
		default:
		}
		s.confirm(submission)
	}
}

func (s *ConfirmationSupervisor) confirm(submission *model.Submission) {
	logger := s.logger.WithFields(log.Fields{
		"submission":  submission.ID,
		"transaction": submission.TransactionID,
	})

	raw, err := s.ledger.Query(context.Background(), submission.TransactionID)
	if err != nil {
		logger.WithError(err).Warn("Failed to read submitted transaction back")
		return
	}

	record, err := s.parser.ParseQueryResult(raw)
	if err != nil {
		logger.WithError(err).Debug("Submitted transaction is not visible yet")
		return
	}

	err = s.store.ConfirmSubmission(submission.ID, record.Status)
	if err != nil {
		logger.WithError(err).Error("Failed to mark submission as confirmed")
		return
	}

	s.metrics.IncConfirmed()
	logger.Info("Submission confirmed")
}
