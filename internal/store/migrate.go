// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/blang/semver"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const currentVersionKey = "CurrentVersion"

// LatestVersion returns the version the schema is at after all migrations.
func LatestVersion() semver.Version {
	return migrations[len(migrations)-1].toVersion
}

// GetCurrentVersion returns the schema version, or 0.0.0 if the schema
// has never been migrated.
func (sqlStore *SQLStore) GetCurrentVersion() (semver.Version, error) {
	exists, err := sqlStore.tableExists("system")
	if err != nil {
		return semver.Version{}, err
	}
	if !exists {
		return semver.MustParse("0.0.0"), nil
	}

	return sqlStore.getCurrentVersion(sqlStore.db)
}

func (sqlStore *SQLStore) getCurrentVersion(q sqlx.Queryer) (semver.Version, error) {
	var value string
	err := sqlStore.getBuilder(q, &value,
		sq.Select("Value").From("System").Where("Key = ?", currentVersionKey))
	if err == sql.ErrNoRows {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return semver.Version{}, errors.Wrap(err, "failed to query current version")
	}

	version, err := semver.Parse(value)
	if err != nil {
		return semver.Version{}, errors.Wrapf(err, "failed to parse current version %q", value)
	}

	return version, nil
}

func (sqlStore *SQLStore) setCurrentVersion(e execer, version semver.Version) error {
	_, err := sqlStore.exec(e,
		`INSERT INTO System (Key, Value) VALUES (?, ?) ON CONFLICT (Key) DO UPDATE SET Value = EXCLUDED.Value`,
		currentVersionKey, version.String())
	if err != nil {
		return errors.Wrapf(err, "failed to set current version to %s", version)
	}

	return nil
}

// Migrate advances the schema to the latest version, applying each
// pending migration in its own transaction.
func (sqlStore *SQLStore) Migrate() error {
	currentVersion, err := sqlStore.GetCurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if !currentVersion.EQ(migration.fromVersion) {
			continue
		}

		err = sqlStore.applyMigration(migration)
		if err != nil {
			return errors.Wrapf(err, "failed to migrate from %s to %s", migration.fromVersion, migration.toVersion)
		}

		sqlStore.logger.Infof("Schema migrated to version %s", migration.toVersion)
		currentVersion = migration.toVersion
	}

	return nil
}

func (sqlStore *SQLStore) applyMigration(m migration) error {
	tx, err := sqlStore.beginTransaction(sqlStore.db)
	if err != nil {
		return err
	}
	defer tx.RollbackUnlessCommitted()

	err = m.migrationFunc(tx)
	if err != nil {
		return err
	}

	err = sqlStore.setCurrentVersion(tx, m.toVersion)
	if err != nil {
		return err
	}

	return tx.Commit()
}
