package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanpawarit/Chative-Retail-Assistant/gateway"
	logx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/logger"
)

var toolserverCmd = &cobra.Command{
	Use:   "toolserver",
	Short: "Serve the commerce tools over MCP on stdio",
	Long: `Serve the seven commerce tools over the Model Context Protocol on stdin/stdout.

serve spawns this command when ASSISTANT_TOOL_TRANSPORT=mcp. Logs go to stderr
so they never corrupt the protocol stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logx.InitStderr(loadLogConfig())

		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		a, err := newCommerce(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		srv, err := gateway.NewMCPServer(a.local, version)
		if err != nil {
			return err
		}
		log.Info().Int("tools", len(a.catalog.Specs())).Msg("tool server started on stdio")
		return server.ServeStdio(srv)
	},
}

func init() {
	rootCmd.AddCommand(toolserverCmd)
}
