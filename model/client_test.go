// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model_test

import (
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/ledgergw/internal/api"
	mock_api "github.com/mattermost/ledgergw/internal/mocks/api"
	"github.com/mattermost/ledgergw/internal/parser"
	"github.com/mattermost/ledgergw/internal/testlib"
	"github.com/mattermost/ledgergw/model"
)

func TestTransactionClient(t *testing.T) {
	logger := testlib.MakeLogger(t)
	mockController := gomock.NewController(t)
	ledger := mock_api.NewMockLedger(mockController)
	store := mock_api.NewMockStore(mockController)
	router := mux.NewRouter()
	api.Register(
		router,
		&api.Context{
			Ledger: ledger,
			Parser: parser.NewTextParser(),
			Store:  store,
			Logger: logger,
		})
	ts := httptest.NewServer(router)
	defer ts.Close()

	client := model.NewClient(ts.URL)

	t.Run("read a transaction", func(t *testing.T) {
		ledger.EXPECT().
			Query(gomock.Any(), "tx 1").
			Return(`{"status":"alice+bob+25+PENDING+1690000000"}`, nil).
			Times(1)

		response, err := client.GetTransaction("tx 1")
		require.NoError(t, err)
		assert.False(t, response.Unparseable)
		assert.Equal(t, "alice", response.Result.From)
		assert.Equal(t, "bob", response.Result.To)
		assert.Equal(t, "25", response.Result.Amount)
		assert.Equal(t, "PENDING", response.Result.Status)
		assert.Equal(t, "1690000000", response.Result.Timestamp)
	})

	t.Run("error kind survives the round trip", func(t *testing.T) {
		ledger.EXPECT().
			Query(gomock.Any(), "tx").
			Return("", model.NewLedgerError(model.ErrorKindTimeout, "evaluate", errors.New("deadline exceeded"))).
			Times(1)

		response, err := client.GetTransaction("tx")
		require.Error(t, err)
		assert.Nil(t, response)
		assert.True(t, model.IsKind(err, model.ErrorKindTimeout))
	})

	t.Run("create a transaction", func(t *testing.T) {
		request := &model.TransactionRequest{From: "A", To: "B", Amount: "100", Status: "OK"}
		ledger.EXPECT().
			Submit(gomock.Any(), request).
			Return("Transaction has been submitted, id: 123e4567-e89b-12d3-a456-426614174000", nil).
			Times(1)
		store.EXPECT().
			CreateSubmission(gomock.Any()).
			Return(nil).
			Times(1)

		response, err := client.CreateTransaction(request)
		require.NoError(t, err)
		assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", response.ID)
	})

	t.Run("conflicting transaction", func(t *testing.T) {
		ledger.EXPECT().
			Submit(gomock.Any(), gomock.Any()).
			Return("", model.NewLedgerError(model.ErrorKindConflict, "submit", errors.New("MVCC_READ_CONFLICT"))).
			Times(1)
		store.EXPECT().
			CreateSubmission(gomock.Any()).
			Return(nil).
			Times(1)

		_, err := client.CreateTransaction(&model.TransactionRequest{From: "A"})
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.ErrorKindConflict))
		assert.Contains(t, err.Error(), "MVCC_READ_CONFLICT")
	})

	t.Run("unknown submission", func(t *testing.T) {
		store.EXPECT().
			GetSubmission("bogusID").
			Return(nil, nil).
			Times(1)

		submission, err := client.GetSubmission("bogusID")
		assert.NoError(t, err)
		assert.Nil(t, submission)
	})

	t.Run("fetch a submission", func(t *testing.T) {
		submissionID := model.NewID()
		store.EXPECT().
			GetSubmission(submissionID).
			Return(&model.Submission{ID: submissionID, TransactionID: "abc"}, nil).
			Times(1)

		submission, err := client.GetSubmission(submissionID)
		require.NoError(t, err)
		assert.Equal(t, submissionID, submission.ID)
		assert.Equal(t, "abc", submission.TransactionID)
		assert.Equal(t, model.SubmissionStateSubmitted, submission.State)
	})

	t.Run("database error", func(t *testing.T) {
		store.EXPECT().
			GetSubmission("broken").
			Return(nil, errors.New("problem talking to database")).
			Times(1)

		submission, err := client.GetSubmission("broken")
		assert.Error(t, err)
		assert.Nil(t, submission)
	})

	t.Run("list submissions", func(t *testing.T) {
		store.EXPECT().
			GetSubmissions().
			Return([]*model.Submission{{ID: model.NewID()}, {ID: model.NewID()}}, nil).
			Times(1)

		submissions, err := client.GetSubmissions()
		require.NoError(t, err)
		assert.Len(t, submissions, 2)
	})
}

func TestClientUnreachable(t *testing.T) {
	ts := httptest.NewServer(mux.NewRouter())
	address := ts.URL
	ts.Close()

	client := model.NewClient(address)
	_, err := client.GetTransaction("abc")
	assert.Error(t, err)
}
