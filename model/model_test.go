// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRequestFromReader(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		request, err := NewTransactionRequestFromReader(bytes.NewBufferString(
			`{"from":"A","to":"B","amount":"100","status":"OK"}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "100", "OK"}, request.Args())
	})

	t.Run("missing fields are empty", func(t *testing.T) {
		request, err := NewTransactionRequestFromReader(bytes.NewBufferString(`{"from":"A"}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "", "", ""}, request.Args())
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := NewTransactionRequestFromReader(&bytes.Buffer{})
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := NewTransactionRequestFromReader(bytes.NewBufferString(`{"from":`))
		assert.Error(t, err)
	})
}

func TestLedgerError(t *testing.T) {
	cause := errors.New("MVCC_READ_CONFLICT")
	err := NewLedgerError(ErrorKindConflict, "submit", cause)

	assert.Equal(t, "submit: conflict: MVCC_READ_CONFLICT", err.Error())
	assert.Equal(t, cause, errors.Cause(err))
	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, ErrorKindConflict, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, ErrorKindConflict))
	assert.False(t, IsKind(wrapped, ErrorKindTimeout))

	assert.Equal(t, ErrorKindUnknown, KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, ErrorKindUnknown))

	assert.Equal(t, "connect: connection", NewLedgerError(ErrorKindConnection, "connect", nil).Error())
}

func TestSubmissionState(t *testing.T) {
	submission := NewSubmission(&TransactionRequest{From: "A", To: "B", Amount: "1", Status: "NEW"})
	assert.NotEmpty(t, submission.ID)
	assert.NotZero(t, submission.CreateAt)
	assert.Equal(t, "A", submission.From)
	assert.Equal(t, SubmissionStateSubmitted, submission.State())

	submission.ConfirmAt = GetMillis()
	assert.Equal(t, SubmissionStateConfirmed, submission.State())

	submission.Error = "timed out"
	assert.Equal(t, SubmissionStateFailed, submission.State())
}

func TestTransactionRecordIsEmpty(t *testing.T) {
	assert.True(t, TransactionRecord{}.IsEmpty())
	assert.False(t, TransactionRecord{Status: "OK"}.IsEmpty())
}
