package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/pkweb/internal/oauth"
	"github.com/ziadkadry99/pkweb/internal/session"
	"github.com/ziadkadry99/pkweb/internal/web"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pkweb HTTP server",
	Long:  `Starts the pkweb web server: system profile pages, the live websocket view, the Discord login callback and the JSON API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, closeStore, err := openSessionStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		api := newAPIClient(cfg)
		sessions := session.NewManager(store, cfg.Session.CookieName, cfg.Server.SecureCookies, logger)
		exchanger := oauth.NewExchanger(cfg.OAuth, api, &http.Client{Timeout: 30 * time.Second})
		if !cfg.OAuthConfigured() {
			logger.Warn("oauth client credentials not set; Discord login will fail")
		}

		srv, err := web.New(web.Options{
			Config:    cfg,
			API:       api,
			Sessions:  sessions,
			Exchanger: exchanger,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}

		go sessions.RunJanitor(ctx, cfg.Session.IdleTTL, time.Minute)

		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown failed", zap.Error(err))
			}
		}()

		logger.Info("pkweb starting",
			zap.String("version", Version),
			zap.Int("port", cfg.Server.Port),
			zap.String("api", api.Root()),
			zap.String("session_driver", string(cfg.Session.Driver)),
		)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
