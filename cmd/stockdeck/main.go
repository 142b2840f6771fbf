package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"stockdeck/internal/auth"
	"stockdeck/internal/config"
	"stockdeck/internal/ui"
	"stockdeck/internal/util"
	"stockdeck/pkg/stockdeck"
)

var (
	flagConfig   string
	flagEmail    string
	flagPassword string
)

var rootCmd = &cobra.Command{
	Use:           "stockdeck",
	Short:         "Terminal dashboard for stock index quotes, charts and price alerts",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&flagEmail, "email", "", "sign-in email (overrides config)")
	rootCmd.Flags().StringVar(&flagPassword, "password", "", "sign-in password (overrides config)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagEmail != "" {
		cfg.Auth.Email = flagEmail
	}
	if flagPassword != "" {
		cfg.Auth.Password = flagPassword
	}

	// The TUI owns stdout, so logs go to a file.
	logger, closeLog, err := util.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer closeLog.Close()

	session := auth.NewSession(auth.NewClient(cfg.Auth.BaseURL, cfg.Auth.APIKey), logger)
	api := stockdeck.NewClient(stockdeck.ClientOpts{
		BaseURL:         cfg.API.BaseURL,
		Tokens:          session,
		RateLimitPerMin: cfg.API.RateLimitPerMin,
		Logger:          logger,
	})

	app := ui.NewApp(session, api, logger)
	prog := tea.NewProgram(app, tea.WithAltScreen())

	// Resolve the session off the UI loop. Until this lands the app
	// renders nothing, then either the login view or the dashboard.
	go func() {
		if cfg.Auth.Email != "" && cfg.Auth.Password != "" {
			if err := session.SignIn(context.Background(), cfg.Auth.Email, cfg.Auth.Password); err != nil {
				logger.Error("configured sign-in failed", "error", err)
			}
			return
		}
		session.ResolveAnonymous()
	}()

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
