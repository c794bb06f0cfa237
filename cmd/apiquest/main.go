package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/studiowebux/apiquest/internal/cli"
	"github.com/studiowebux/apiquest/internal/config"
	"github.com/studiowebux/apiquest/internal/executor"
	"github.com/studiowebux/apiquest/internal/history"
	"github.com/studiowebux/apiquest/internal/keybinds"
	"github.com/studiowebux/apiquest/internal/logging"
	"github.com/studiowebux/apiquest/internal/store"
	"github.com/studiowebux/apiquest/internal/tui"
	"github.com/studiowebux/apiquest/internal/version"
	"github.com/studiowebux/apiquest/internal/workspace"
)

var (
	appVersion = "0.1.0"
)

var (
	flagConfigDir string
	flagDB        string
	flagTimeout   string
	flagDebug     bool

	flagOutput string
	flagSave   string
	flagFull   bool
	flagFilter string
	flagFormat string
	flagLimit  int
	flagCheck  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, cli.ErrRequestFailed) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "apiquest",
	Short: "apiquest - terminal API client",
	Long: `apiquest is a terminal API client. Requests live in groups and are stored in
a local SQLite database; every edit is saved as you type.

Run without arguments to start the interactive TUI.

Examples:
  apiquest                              # Start interactive TUI
  apiquest list                         # List groups and requests
  apiquest send users list              # Send a stored request
  apiquest send users list -o json      # Print the full response as JSON
  apiquest history users list           # Show recent responses
  apiquest export -f yaml > backup.yaml # Export every group
  apiquest import backup.yaml           # Import groups and requests`,
	Version:       appVersion,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups and their requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(_ context.Context, a *app) error {
			return cli.List(cmd.OutOrStdout(), a.store)
		})
	},
}

var sendCmd = &cobra.Command{
	Use:   "send [group] [request]",
	Short: "Send a stored request and print the response",
	Long: `Send a stored request and print the response.

Without arguments an interactive picker lists every request. Output defaults to
text on a terminal and to the raw body when piped.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return fmt.Errorf("send needs both a group and a request name")
		}
		return withStore(cmd, func(ctx context.Context, a *app) error {
			opts := cli.SendOptions{
				OutputFormat: flagOutput,
				Filter:       flagFilter,
				SavePath:     flagSave,
				ShowFull:     flagFull,
				Executor:     a.settings.ExecutorOptions(),
				History:      a.history,
			}
			if len(args) == 2 {
				opts.Group, opts.Request = args[0], args[1]
			}
			return cli.Send(ctx, cmd.OutOrStdout(), a.store, opts)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <group> <request>",
	Short: "Show the recent responses of a stored request",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(_ context.Context, a *app) error {
			return cli.History(cmd.OutOrStdout(), a.store, a.history, args[0], args[1], flagLimit)
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, optionally checking for a newer release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "apiquest %s\n", appVersion)
		if !flagCheck {
			return nil
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		update, err := version.NewChecker().Check(ctx, appVersion)
		if err != nil {
			return err
		}
		if update.Available {
			fmt.Fprintf(out, "A newer version is available: %s\n%s\n", update.Latest, update.URL)
		} else {
			fmt.Fprintln(out, "You are on the latest version")
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every group and request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(_ context.Context, a *app) error {
			return cli.Export(cmd.OutOrStdout(), a.store, flagFormat)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import groups and requests from a yaml, json or jsonc file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := cli.ReadDocument(args[0])
		if err != nil {
			return err
		}
		return withStore(cmd, func(_ context.Context, a *app) error {
			result, err := cli.Import(a.store, doc)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d group(s) and %d request(s)\n", result.Groups, result.Requests)
			for _, skipped := range result.Skipped {
				fmt.Fprintf(out, "  skipped %s (already exists)\n", skipped)
			}
			return nil
		})
	},
}

var keybindsCmd = &cobra.Command{
	Use:   "keybinds",
	Short: "Write the default keybinds file or check the current one",
}

var keybindsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default bindings to keybinds.jsonc",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfigDir(); err != nil {
			return err
		}
		if _, err := os.Stat(config.KeybindsFile); err == nil {
			return fmt.Errorf("%s already exists", config.KeybindsFile)
		}
		if err := keybinds.WriteDefaults(config.KeybindsFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", config.KeybindsFile)
		return nil
	},
}

var keybindsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate keybinds.jsonc",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfigDir(); err != nil {
			return err
		}
		registry, err := keybinds.LoadOrDefault(config.KeybindsFile)
		if err != nil {
			return err
		}
		result := keybinds.NewValidator().ValidateRegistry(registry)
		fmt.Fprint(cmd.OutOrStdout(), result.String())
		if result.HasErrors() {
			return fmt.Errorf("keybinds are invalid")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "Configuration directory (default ~/.apiquest)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagTimeout, "timeout", "", "Request timeout, e.g. 10s (overrides config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Write debug logs")

	sendCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (json/yaml/text/body)")
	sendCmd.Flags().StringVarP(&flagSave, "save", "s", "", "Save response to file")
	sendCmd.Flags().BoolVarP(&flagFull, "full", "f", false, "Show full output (status, headers, body)")
	sendCmd.Flags().StringVar(&flagFilter, "filter", "", "JMESPath expression or $(command) applied to the body")

	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 10, "Number of entries to show (0 for all)")
	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "Check for a newer release")

	exportCmd.Flags().StringVarP(&flagFormat, "format", "f", "yaml", "Output format (yaml/json)")

	keybindsCmd.AddCommand(keybindsInitCmd)
	keybindsCmd.AddCommand(keybindsCheckCmd)

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(keybindsCmd)
}

// app holds what every command needs once the configuration is loaded
type app struct {
	settings config.Settings
	logger   *log.Logger
	store    *store.Store
	history  *history.Manager
	closers  []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

func initConfigDir() error {
	if flagConfigDir == "" {
		return config.Initialize()
	}
	dir, err := config.ExpandPath(flagConfigDir)
	if err != nil {
		return err
	}
	return config.InitializeAt(dir)
}

// setup loads settings, applies flag overrides, then opens the log file and
// the database. A database that cannot be opened aborts the program.
func setup(cmd *cobra.Command) (*app, error) {
	if err := initConfigDir(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	settings, err := config.LoadSettings(config.SettingsFile)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		settings.Database = flagDB
	}
	if cmd.Flags().Changed("timeout") {
		settings.Timeout = flagTimeout
	}
	if flagDebug {
		settings.Debug = true
	}
	if _, err := settings.RequestTimeout(); err != nil {
		return nil, err
	}

	logger, logFile, err := logging.New(config.LogFile, settings.Debug)
	if err != nil {
		return nil, err
	}
	a := &app{settings: settings, logger: logger, closers: []io.Closer{logFile}}

	dbPath, err := config.ExpandPath(settings.Database)
	if err != nil {
		a.Close()
		return nil, err
	}
	st, err := store.Open(dbPath, logger)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "err", err)
		a.Close()
		return nil, err
	}
	a.store = st
	a.history = history.NewManager(st.DB(), settings.HistoryLimit)
	a.closers = append(a.closers, st)

	logger.Debug("started", "version", appVersion, "db", dbPath, "command", cmd.Name())
	return a, nil
}

func withStore(cmd *cobra.Command, fn func(context.Context, *app) error) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return fn(ctx, a)
}

func runTUI(cmd *cobra.Command) error {
	return withStore(cmd, func(ctx context.Context, a *app) error {
		registry, err := keybinds.LoadOrDefault(config.KeybindsFile)
		if err != nil {
			return err
		}
		result := keybinds.NewValidator().ValidateRegistry(registry)
		if result.HasErrors() {
			return fmt.Errorf("invalid keybinds in %s:\n%s", config.KeybindsFile, result.String())
		}
		if result.HasWarnings() {
			a.logger.Warn("keybind warnings", "details", result.String())
		}

		ws, err := workspace.New(a.store, workspace.Options{
			Runner:          executor.NewRunner(a.settings.ExecutorOptions()),
			History:         a.history,
			Logger:          a.logger,
			PasswordVisible: a.settings.PasswordVisible,
		})
		if err != nil {
			return err
		}
		return tui.Run(ctx, ws, registry, a.logger)
	})
}
