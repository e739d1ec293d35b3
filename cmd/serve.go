package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanpawarit/Chative-Retail-Assistant/httpapi"
	logx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/logger"
	obsx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/observability"
)

var skipProbe bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat and voice HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logx.Init(loadLogConfig())

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		llmCfg, err := loadLLMConfig()
		if err != nil {
			return err
		}
		if !skipProbe {
			probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := llmCfg.Probe(probeCtx)
			cancel()
			if err != nil {
				return err
			}
		}

		tracingCfg, err := loadTracingConfig()
		if err != nil {
			return err
		}
		shutdownTracer, err := obsx.InitTracer(ctx, *tracingCfg, version)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("tracer shutdown failed")
			}
		}()

		a, err := newApp(ctx, cfg, llmCfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Warn().Err(err).Msg("close resources failed")
			}
		}()

		srv, err := httpapi.New(a.chat)
		if err != nil {
			return err
		}
		log.Info().
			Str("store", cfg.Store).
			Str("state_store", cfg.StateStore).
			Str("tool_transport", cfg.ToolTransport).
			Strs("categories", cfg.Categories().Values()).
			Msg("assistant ready")
		return srv.Run(ctx, fmt.Sprintf(":%d", cfg.Port))
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipProbe, "skip-probe", false, "do not check the LLM provider at startup")
	rootCmd.AddCommand(serveCmd)
}
