// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"github.com/blang/semver"
)

type migration struct {
	fromVersion   semver.Version
	toVersion     semver.Version
	migrationFunc func(execer) error
}

// migrations defines the set of migrations necessary to advance the database to the latest
// expected version.
//
// Note that the canonical schema is currently obtained by applying all migrations to an empty
// database.
var migrations = []migration{
	{semver.MustParse("0.0.0"), semver.MustParse("0.1.0"),
		func(e execer) error {
			_, err := e.Exec(`
				CREATE TABLE System (
						Key    VARCHAR(64) PRIMARY KEY,
						Value  VARCHAR(1024) NULL
				);
		`)
			if err != nil {
				return err
			}

			_, err = e.Exec(`
				CREATE TABLE Submission (
						ID              TEXT PRIMARY KEY NOT NULL,
						TransactionID   TEXT,
						FromAccount     TEXT,
						ToAccount       TEXT,
						Amount          TEXT,
						Status          TEXT,
						Response        TEXT,
						Error           TEXT,
						CreateAt        BigInt,
						ConfirmAt       BigInt
				);
		`)
			return err
		},
	},
	{semver.MustParse("0.1.0"), semver.MustParse("0.2.0"),
		func(e execer) error {
			_, err := e.Exec(`
				ALTER TABLE Submission ADD COLUMN ConfirmedStatus TEXT NOT NULL DEFAULT '';

				CREATE INDEX ix_Submission_ConfirmAt ON Submission (ConfirmAt);
				CREATE INDEX ix_Submission_TransactionID ON Submission (TransactionID);
		`)
			return err
		},
	},
}
