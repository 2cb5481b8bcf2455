// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/mattermost/ledgergw/model"
)

var submissionSelect sq.SelectBuilder

// SubmissionTableName is the journal table.
var SubmissionTableName = "Submission"

func init() {
	submissionSelect = sq.
		Select(
			"ID",
			"TransactionID",
			`FromAccount AS "from"`,
			`ToAccount AS "to"`,
			"Amount",
			"Status",
			"Response",
			"Error",
			"CreateAt",
			"ConfirmAt",
			"ConfirmedStatus",
		).
		From(SubmissionTableName)
}

// GetSubmission fetches the Submission with the given ID, or nil if it
// does not exist.
func (sqlStore *SQLStore) GetSubmission(id string) (*model.Submission, error) {
	submission := new(model.Submission)

	err := sqlStore.getBuilder(sqlStore.db, submission,
		submissionSelect.Where("ID = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get submission by id")
	}

	return submission, nil
}

// GetSubmissions fetches every Submission, newest first.
func (sqlStore *SQLStore) GetSubmissions() ([]*model.Submission, error) {
	var submissions []*model.Submission

	err := sqlStore.selectBuilder(sqlStore.db, &submissions,
		submissionSelect.OrderBy("CreateAt DESC"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get submissions")
	}

	return submissions, nil
}

// GetUnconfirmedSubmissions fetches up to limit successful submissions
// with a known transaction ID that have not been read back yet, oldest
// first.
func (sqlStore *SQLStore) GetUnconfirmedSubmissions(limit uint64) ([]*model.Submission, error) {
	var submissions []*model.Submission

	err := sqlStore.selectBuilder(sqlStore.db, &submissions,
		submissionSelect.
			Where("ConfirmAt = 0").
			Where("Error = ''").
			Where("TransactionID <> ''").
			OrderBy("CreateAt ASC").
			Limit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get unconfirmed submissions")
	}

	return submissions, nil
}

// CreateSubmission saves the specified Submission to the database,
// assuming it is new.
func (sqlStore *SQLStore) CreateSubmission(submission *model.Submission) error {
	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Insert(SubmissionTableName).
		SetMap(map[string]interface{}{
			"ID":              submission.ID,
			"TransactionID":   submission.TransactionID,
			"FromAccount":     submission.From,
			"ToAccount":       submission.To,
			"Amount":          submission.Amount,
			"Status":          submission.Status,
			"Response":        submission.Response,
			"Error":           submission.Error,
			"CreateAt":        submission.CreateAt,
			"ConfirmAt":       submission.ConfirmAt,
			"ConfirmedStatus": submission.ConfirmedStatus,
		}),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create submission")
	}

	return nil
}

// ConfirmSubmission marks the Submission as read back from the ledger
// with the given status.
func (sqlStore *SQLStore) ConfirmSubmission(id, confirmedStatus string) error {
	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Update(SubmissionTableName).
		Where("ID = ?", id).
		SetMap(map[string]interface{}{
			"ConfirmAt":       model.GetMillis(),
			"ConfirmedStatus": confirmedStatus,
		}),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to confirm submission %s", id)
	}

	return nil
}
