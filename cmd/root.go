package cmd

import (
	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/config"
)

const version = "1.0.0"

var envFile string

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Retail conversational assistant",
	Long: `assistant - a retail shopping assistant backed by a multi-agent conversation graph.

Commands:
  serve       HTTP API for chat and voice turns
  toolserver  commerce tools over MCP on stdio
  migrate     create the postgres tables
  chat        talk to the assistant from the terminal

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configx.SetEnvFile(envFile)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file")
	rootCmd.Version = version
}
