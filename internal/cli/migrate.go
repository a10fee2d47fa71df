package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/unidine-backend/internal/data/db"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long:  `Run AutoMigrate for every model against the database selected by DB_DRIVER.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			dbs, err := openDatabase(log)
			if err != nil {
				return err
			}
			defer dbs.Close()

			if err := db.AutoMigrateAll(dbs.DB()); err != nil {
				return fmt.Errorf("automigrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", dbs.Driver())
			return nil
		},
	}
}
