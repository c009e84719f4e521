package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// migrateCmd prepares the schema of the selected store
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the store schema",
	Long: `Create or update the tables (postgres) or indexes (mongo) of the
selected store. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), cfg, true)
		if err != nil {
			return err
		}
		defer st.Close()
		log.Info().Str("store", cfg.StoreDriver).Msg("Migration finished")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
