package main

import (
	"os"
	"os/signal"
	"syscall"

	"hitman/internal/env"
	"hitman/internal/logging"
	"hitman/internal/tui"
	"hitman/internal/widget"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Browse and send requests in an interactive UI",
		Args:  cobra.NoArgs,
		RunE:  runUI,
	}
}

func runUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer cancel()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	root, err := env.FindRoot(cwd)
	if err != nil {
		return err
	}

	uiLogger := zap.NewNop()
	if cfg.Logging.HasFile() {
		l, closeFn, err := logging.NewFile(cfg.Logging.File, cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer closeFn()
		uiLogger = l
	}
	logger = uiLogger

	a, err := newApp(appOptions{root: root, target: env.Target(root)})
	if err != nil {
		return err
	}
	defer a.close()

	return tui.Run(ctx, tui.Options{
		Root:    root,
		Config:  cfg,
		Client:  a.client,
		History: a.history,
		Cookies: a.jar,
		Logger:  uiLogger,
		Styles:  widget.DefaultStyles(),
	})
}
