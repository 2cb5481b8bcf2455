// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Constants defining the states of a journalled submission.
const (
	SubmissionStateFailed    = "submission-failed"
	SubmissionStateSubmitted = "submission-submitted"
	SubmissionStateConfirmed = "submission-confirmed"
)

// Submission is the journal entry written for every attempt to submit
// a transaction to the ledger.
type Submission struct {
	ID              string
	TransactionID   string
	From            string
	To              string
	Amount          string
	Status          string
	Response        string
	Error           string
	CreateAt        int64
	ConfirmAt       int64
	ConfirmedStatus string
}

// NewSubmission creates a Submission for the given request with the
// appropriate creation-time metadata.
func NewSubmission(request *TransactionRequest) *Submission {
	return &Submission{
		ID:       NewID(),
		From:     request.From,
		To:       request.To,
		Amount:   request.Amount,
		Status:   request.Status,
		CreateAt: GetMillis(),
	}
}

// State determines the state of the Submission from its metadata.
func (s *Submission) State() string {
	if s.Error != "" {
		return SubmissionStateFailed
	}

	if s.ConfirmAt == 0 {
		return SubmissionStateSubmitted
	}

	return SubmissionStateConfirmed
}

// SubmissionStatus provides a container for returning the state with the
// Submission to the client without storing a state column.
type SubmissionStatus struct {
	Submission

	State string
}

func NewSubmissionStatusFromReader(reader io.Reader) (*SubmissionStatus, error) {
	var status SubmissionStatus
	err := json.NewDecoder(reader).Decode(&status)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode submission status")
	}
	return &status, nil
}

func NewSubmissionStatusListFromReader(reader io.Reader) ([]*SubmissionStatus, error) {
	var statuses []*SubmissionStatus
	err := json.NewDecoder(reader).Decode(&statuses)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode submission status list")
	}
	return statuses, nil
}
