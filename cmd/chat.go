package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	chatx "github.com/tanpawarit/Chative-Retail-Assistant/chat"
	logx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/logger"
)

var (
	chatChannel string
	chatUserID  string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant from the terminal",
	Long: `Start an interactive session against the full agent graph.

Type a message and press enter. "exit" or EOF ends the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logx.InitStderr(loadLogConfig())
		ctx := cmd.Context()

		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		llmCfg, err := loadLLMConfig()
		if err != nil {
			return err
		}
		a, err := newApp(ctx, cfg, llmCfg)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		sessionID := uuid.NewString()
		fmt.Fprintf(out, "%s assistant (session %s). Type \"exit\" to quit.\n", cfg.StoreName, sessionID)

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				break
			}
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			if text == "exit" || text == "quit" {
				break
			}

			reply, err := a.chat.Handle(ctx, chatx.Request{
				Message:   text,
				UserID:    chatUserID,
				SessionID: sessionID,
				Channel:   chatChannel,
			})
			if err != nil {
				fmt.Fprintln(out, "error:", chatx.Friendly(err).Message)
				continue
			}
			fmt.Fprintln(out, reply.Response)
			if reply.State.ActiveWorker != "" {
				fmt.Fprintf(out, "  [%s", reply.State.ActiveWorker)
				if reply.State.Category != "" {
					fmt.Fprintf(out, " · %s", reply.State.Category)
				}
				fmt.Fprintln(out, "]")
			}
			if reply.Hangup {
				break
			}
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatChannel, "channel", "chat", "chat or voice")
	chatCmd.Flags().StringVar(&chatUserID, "user", "", "user id (uuid)")
	rootCmd.AddCommand(chatCmd)
}
