package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/estimator/internal/logging"
	"github.com/fyrsmithlabs/estimator/internal/services"
	"github.com/fyrsmithlabs/estimator/internal/tui"
)

var (
	wizardCategory string
	wizardLogFile  string
)

func init() {
	wizardCmd.Flags().StringVar(&wizardCategory, "category", "", "open a category by id or dashed title")
	wizardCmd.Flags().StringVar(&wizardLogFile, "log-file", "", "write logs to this file (the terminal is owned by the wizard)")
}

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Run the interactive estimate wizard",
	Long: `Run the estimate wizard in the terminal. Choose a category, answer its
questions, then enter contact details to receive the estimate by email.

Submitting sends real email through SendGrid and creates a JobTread account,
so SendGrid and JobTread credentials must be configured.

Examples:
  # Start at the category list
  estimate wizard

  # Jump straight to a category
  estimate wizard --category home-renovations`,
	RunE: runWizard,
}

func runWizard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if wizardLogFile != "" {
		cfg.Logging.Output = wizardLogFile
		logCfg, err := logging.FromAppConfig(cfg.Logging)
		if err != nil {
			return fmt.Errorf("invalid logging configuration: %w", err)
		}
		l, err := logging.NewLogger(logCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = l.Sync() }()
		logger = l.Underlying()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	reg, closeServices, err := services.Build(ctx, cfg, logger, version)
	if err != nil {
		return err
	}
	defer func() { _ = closeServices(context.Background()) }()

	var opts []tui.Option
	if wizardCategory != "" {
		opts = append(opts, tui.WithCategory(wizardCategory))
	}

	model := tui.NewModel(reg.Sessions(), reg.Formatter(), opts...)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("wizard: %w", err)
	}
	return nil
}
