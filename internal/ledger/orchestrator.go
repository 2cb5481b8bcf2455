// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/retry"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mattermost/ledgergw/internal/metrics"
	"github.com/mattermost/ledgergw/model"
)

// Default chaincode functions and limits.
const (
	DefaultQueryFunction   = "getTransaction"
	DefaultSubmitFunction  = "setTransaction"
	DefaultTimeout         = 30 * time.Second
	DefaultConflictBackoff = 500 * time.Millisecond

	maxConflictBackoff = 10 * time.Second

	operationQuery  = "query"
	operationSubmit = "submit"
)

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	// QueryFunction is the chaincode function that reads a transaction.
	QueryFunction string
	// SubmitFunction is the chaincode function that writes a transaction.
	SubmitFunction string
	// SubmitQueries sends reads through Submit instead of Evaluate, so
	// that they are endorsed and ordered like writes.
	SubmitQueries bool
	// Timeout bounds every ledger call. Zero means no bound.
	Timeout time.Duration
	// ConflictRetries is how many times a submit is retried after an
	// MVCC conflict. Zero submits exactly once.
	ConflictRetries int
	// ConflictBackoff is the initial wait before a conflict retry.
	ConflictBackoff time.Duration
	// SerializeSubmits allows only one submit in flight at a time.
	SerializeSubmits bool
}

// Orchestrator owns the shared contract handle and turns API calls into
// chaincode transactions.
type Orchestrator struct {
	contract   Contract
	options    OrchestratorOptions
	metrics    *metrics.Metrics
	logger     log.FieldLogger
	submitLock sync.Mutex
}

// NewOrchestrator returns an Orchestrator invoking functions on contract.
// Empty function names fall back to the defaults.
func NewOrchestrator(contract Contract, options OrchestratorOptions, m *metrics.Metrics, logger log.FieldLogger) *Orchestrator {
	if options.QueryFunction == "" {
		options.QueryFunction = DefaultQueryFunction
	}
	if options.SubmitFunction == "" {
		options.SubmitFunction = DefaultSubmitFunction
	}
	if options.ConflictBackoff <= 0 {
		options.ConflictBackoff = DefaultConflictBackoff
	}

	return &Orchestrator{
		contract: contract,
		options:  options,
		metrics:  m,
		logger:   logger,
	}
}

// Query reads the transaction with the given ID and returns the raw
// chaincode response. The ID is passed through unvalidated.
func (o *Orchestrator) Query(ctx context.Context, transactionID string) (string, error) {
	return o.invoke(ctx, operationQuery, o.options.QueryFunction, o.options.SubmitQueries, transactionID)
}

// Submit records a new transaction on the ledger and returns the raw
// chaincode response, which embeds the transaction ID.
//
// Identical requests create distinct transactions. A conflict is retried
// only when ConflictRetries is set; otherwise the caller must resubmit.
func (o *Orchestrator) Submit(ctx context.Context, request *model.TransactionRequest) (string, error) {
	if o.options.SerializeSubmits {
		o.submitLock.Lock()
		defer o.submitLock.Unlock()
	}

	handler := retry.New(retry.Opts{
		Attempts:       o.options.ConflictRetries,
		InitialBackoff: o.options.ConflictBackoff,
		MaxBackoff:     maxConflictBackoff,
		BackoffFactor:  retry.DefaultBackoffFactor,
		RetryableCodes: conflictRetryableCodes,
	})

	for {
		response, err := o.invoke(ctx, operationSubmit, o.options.SubmitFunction, true, request.Args()...)
		if err == nil {
			return response, nil
		}

		var ledgerErr *model.LedgerError
		if !errors.As(err, &ledgerErr) || ledgerErr.Kind != model.ErrorKindConflict {
			return "", err
		}
		if ctx.Err() != nil || !handler.Required(ledgerErr.Err) {
			return "", err
		}

		o.metrics.IncConflictRetry()
		o.logger.WithError(err).Warn("Retrying submit after conflict")
	}
}

type invocationResult struct {
	payload []byte
	err     error
}

// invoke runs one chaincode function in a fresh transaction context and
// waits for it, the timeout or ctx, whichever comes first.
func (o *Orchestrator) invoke(ctx context.Context, operation, function string, submit bool, args ...string) (string, error) {
	logger := o.logger.WithFields(log.Fields{
		"operation": operation,
		"function":  function,
	})

	if o.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.options.Timeout)
		defer cancel()
	}

	start := time.Now()
	payload, err := o.call(ctx, function, submit, args)
	elapsed := time.Since(start)

	if err != nil {
		ledgerErr := classify(operation, err)
		o.metrics.ObserveTransaction(operation, string(ledgerErr.Kind), elapsed)
		logger.WithError(err).WithField("kind", ledgerErr.Kind).Error("Ledger transaction failed")
		return "", ledgerErr
	}

	o.metrics.ObserveTransaction(operation, metrics.OutcomeSuccess, elapsed)
	logger.WithField("elapsed", elapsed).Debug("Ledger transaction completed")

	return string(payload), nil
}

func (o *Orchestrator) call(ctx context.Context, function string, submit bool, args []string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "transaction not started")
	}

	txn, err := o.contract.CreateTransaction(function)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create transaction %s", function)
	}

	// The SDK call cannot be interrupted; on timeout it finishes in the
	// background and its result is dropped.
	done := make(chan invocationResult, 1)
	go func() {
		var result invocationResult
		if submit {
			result.payload, result.err = txn.Submit(args...)
		} else {
			result.payload, result.err = txn.Evaluate(args...)
		}
		done <- result
	}()

	select {
	case result := <-done:
		return result.payload, result.err
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "transaction %s did not complete", function)
	}
}
