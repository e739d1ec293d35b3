package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanpawarit/Chative-Retail-Assistant/commerce"
	"github.com/tanpawarit/Chative-Retail-Assistant/conversation"
	logx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the commerce and conversation tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		logx.Init(loadLogConfig())
		ctx := cmd.Context()

		pgCfg, err := loadPostgresConfig()
		if err != nil {
			return err
		}
		db, err := pgCfg.New(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := commerce.CreateTables(ctx, db); err != nil {
			return err
		}
		if err := conversation.CreateTables(ctx, db); err != nil {
			return err
		}
		log.Info().Msg("migration complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
