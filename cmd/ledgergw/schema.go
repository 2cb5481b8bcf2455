package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mattermost/ledgergw/internal/store"
)

func init() {
	schemaCmd.AddCommand(schemaMigrateCmd)
	schemaCmd.AddCommand(schemaVersionCmd)
	schemaCmd.PersistentFlags().String(databaseFlag, "postgres://localhost:5432/ledgergw?sslmode=disable", "The database backing the submission journal.")
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manipulate the schema used by the submission journal.",
}

func sqlStore(command *cobra.Command) (*store.SQLStore, error) {
	database, _ := command.Flags().GetString(databaseFlag)
	if database == "" {
		return nil, errors.New("the --database flag must not be empty")
	}

	return store.New(database, logger)
}

var schemaMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the schema to the latest supported version.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true

		sqlStore, err := sqlStore(command)
		if err != nil {
			return err
		}
		defer sqlStore.Close()

		return sqlStore.Migrate()
	},
}

var schemaVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current and latest schema versions.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true

		sqlStore, err := sqlStore(command)
		if err != nil {
			return err
		}
		defer sqlStore.Close()

		current, err := sqlStore.GetCurrentVersion()
		if err != nil {
			return err
		}

		return printJSON(map[string]string{
			"current": current.String(),
			"latest":  store.LatestVersion().String(),
		})
	},
}
