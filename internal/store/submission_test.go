// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/ledgergw/internal/testlib"
	"github.com/mattermost/ledgergw/model"
)

// makeTestSQLStore connects to the database named by LEDGERGW_DATABASE,
// skipping the test when it is unset.
func makeTestSQLStore(t *testing.T) *SQLStore {
	dsn := os.Getenv("LEDGERGW_DATABASE")
	if dsn == "" {
		t.Skip("LEDGERGW_DATABASE is not set")
	}

	sqlStore, err := New(dsn, testlib.MakeLogger(t))
	require.NoError(t, err)
	require.NoError(t, sqlStore.Migrate())
	t.Cleanup(func() {
		_, _ = sqlStore.db.Exec("DELETE FROM Submission")
		sqlStore.Close()
	})

	return sqlStore
}

func TestMigrate(t *testing.T) {
	sqlStore := makeTestSQLStore(t)

	version, err := sqlStore.GetCurrentVersion()
	require.NoError(t, err)
	assert.True(t, version.EQ(LatestVersion()))

	// Migrating again is a no-op.
	require.NoError(t, sqlStore.Migrate())
}

func TestSubmissions(t *testing.T) {
	sqlStore := makeTestSQLStore(t)

	request := &model.TransactionRequest{From: "A", To: "B", Amount: "100", Status: "OK"}

	confirmed := model.NewSubmission(request)
	confirmed.TransactionID = model.NewID()
	require.NoError(t, sqlStore.CreateSubmission(confirmed))

	failed := model.NewSubmission(request)
	failed.Error = "conflict"
	require.NoError(t, sqlStore.CreateSubmission(failed))

	pending := model.NewSubmission(request)
	pending.TransactionID = model.NewID()
	pending.CreateAt = confirmed.CreateAt + 1
	require.NoError(t, sqlStore.CreateSubmission(pending))

	t.Run("get", func(t *testing.T) {
		submission, err := sqlStore.GetSubmission(confirmed.ID)
		require.NoError(t, err)
		assert.Equal(t, confirmed, submission)

		submission, err = sqlStore.GetSubmission("unknown")
		require.NoError(t, err)
		assert.Nil(t, submission)
	})

	t.Run("list", func(t *testing.T) {
		submissions, err := sqlStore.GetSubmissions()
		require.NoError(t, err)
		assert.Len(t, submissions, 3)
	})

	t.Run("unconfirmed", func(t *testing.T) {
		submissions, err := sqlStore.GetUnconfirmedSubmissions(10)
		require.NoError(t, err)
		require.Len(t, submissions, 2)
		assert.Equal(t, confirmed.ID, submissions[0].ID)
		assert.Equal(t, pending.ID, submissions[1].ID)

		require.NoError(t, sqlStore.ConfirmSubmission(confirmed.ID, "OK"))

		submissions, err = sqlStore.GetUnconfirmedSubmissions(10)
		require.NoError(t, err)
		require.Len(t, submissions, 1)
		assert.Equal(t, pending.ID, submissions[0].ID)

		submission, err := sqlStore.GetSubmission(confirmed.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SubmissionStateConfirmed, submission.State())
		assert.Equal(t, "OK", submission.ConfirmedStatus)
	})
}
