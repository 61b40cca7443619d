// Command hitman sends HTTP requests described by template files.
//
//	hitman [NAME] [KEY=VALUE...]
//
// Without NAME, a request is picked interactively from the files below the
// current directory.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"hitman/internal/config"
	"hitman/internal/interaction"
	"hitman/internal/logging"
	"hitman/internal/resolve"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// selectPrompt marks --select given without a target.
const selectPrompt = "-"

var (
	// Global flags
	verbose    bool
	quiet      bool
	configPath string

	// Request flags
	repeat         bool
	selectTarget   string
	target         string
	nonInteractive bool
	flurrySize     int
	connections    int
	monitorDelay   int
	watchMode      bool

	cfg     *config.Config
	cfgFile string // resolved config location, empty when unknown
	logger  *zap.Logger
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hitman [NAME] [KEY=VALUE...]",
		Short: "Send HTTP requests from template files",
		Long: `hitman sends the request described by a template file, filling
{{placeholders}} from hitman.toml, the active target, the data file and
KEY=VALUE arguments. Values it cannot find are asked for interactively.

Run without NAME to pick a request from the files below the current directory.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(); err != nil {
				return err
			}
			// The UI owns the terminal and sets up its own logger.
			if cmd.Name() == "ui" {
				logger = zap.NewNop()
				return nil
			}
			var err error
			logger, err = logging.New(logging.Options{
				Verbose: verbose,
				Quiet:   quiet,
				Level:   cfg.Logging.Level,
				Format:  cfg.Logging.Format,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: runRoot,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show more output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Show no output except the returned data")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Application config file (default: user config dir)")

	flags := rootCmd.Flags()
	flags.BoolVarP(&repeat, "repeat", "r", false, "When picking requests interactively, keep asking until cancelled")
	flags.StringVarP(&selectTarget, "select", "s", "", "Select a target, or set it with --select=TARGET")
	flags.Lookup("select").NoOptDefVal = selectPrompt
	flags.StringVarP(&target, "target", "t", "", "Target to use instead of the selected one")
	flags.BoolVarP(&nonInteractive, "non-interactive", "n", false, "Do not ask questions")
	flags.IntVarP(&flurrySize, "flurry", "f", 0, "Send N identical requests in a short time")
	flags.IntVarP(&connections, "connections", "c", 0, "Concurrent connections used by --flurry (default from config)")
	flags.IntVarP(&monitorDelay, "monitor", "m", 0, "Repeat the request every SECONDS until interrupted")
	flags.BoolVarP(&watchMode, "watch", "w", false, "Re-run the request when its files change (implies --non-interactive)")

	rootCmd.AddCommand(newUICmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadConfig() error {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			cfg = config.DefaultConfig()
			cfgFile = ""
			return nil
		}
	}
	cfgFile = path
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg = loaded
	return nil
}

// validateFlags rejects flag combinations that make no sense together.
func validateFlags(cmd *cobra.Command, args []string) error {
	set := cmd.Flags().Changed
	hasName := len(args) > 0

	if set("select") {
		named := hasName && !(selectTarget == selectPrompt && len(args) == 1)
		for _, other := range []string{"repeat", "flurry", "watch", "monitor"} {
			if set(other) {
				return fmt.Errorf("--select cannot be used with --%s", other)
			}
		}
		if named {
			return errors.New("--select cannot be used with a request name")
		}
		return nil
	}

	if !hasName {
		for _, flag := range []string{"non-interactive", "flurry", "monitor", "watch"} {
			if set(flag) {
				return fmt.Errorf("--%s requires a request name", flag)
			}
		}
	}
	if set("connections") && !set("flurry") {
		return errors.New("--connections requires --flurry")
	}
	if set("flurry") && (set("watch") || set("repeat") || set("monitor")) {
		return errors.New("--flurry cannot be used with --watch, --repeat or --monitor")
	}
	if set("monitor") && set("watch") {
		return errors.New("--monitor cannot be used with --watch")
	}
	if set("flurry") && flurrySize < 1 {
		return fmt.Errorf("--flurry must be at least 1, got %d", flurrySize)
	}
	if set("connections") && connections < 1 {
		return fmt.Errorf("--connections must be at least 1, got %d", connections)
	}
	if set("monitor") && monitorDelay < 0 {
		return fmt.Errorf("--monitor must not be negative, got %d", monitorDelay)
	}
	return nil
}

// parseOptions parses KEY=VALUE arguments. Both sides are trimmed.
func parseOptions(args []string) (resolve.Overrides, error) {
	var out resolve.Overrides
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("no `=` found in `%s`", arg)
		}
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("empty key in `%s`", arg)
		}
		out = out.With(k, strings.TrimSpace(v))
	}
	return out, nil
}

func main() {
	err := newRootCmd().Execute()
	if err != nil && !errors.Is(err, interaction.ErrCanceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
