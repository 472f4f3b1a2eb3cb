package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/vodum/console/internal/api"
	"github.com/vodum/console/internal/config"
	"github.com/vodum/console/internal/logging"
	"github.com/vodum/console/internal/output"
	"github.com/vodum/console/internal/panel"
)

var (
	cfgFile string
	cfg     *config.Config
	urlFlag string

	// Global JSON output flag - inherited by all subcommands
	jsonOutput bool

	logger    = logging.Discard()
	logCloser io.Closer

	// Build information - set via -ldflags at release time
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "vodum",
	Short: "Terminal console for a VODUM media server manager",
	Long: `vodum shows the users, servers, libraries, tasks and logs of a VODUM
instance in a tabbed terminal dashboard, and exposes the same data to
scripts.

Quick Start:
  vodum                       # Open the dashboard (in a terminal)
  vodum fetch tasks           # Print the tasks panel once
  vodum watch logs --changes  # Follow the logs panel, printing only changes
  vodum run 3                 # Queue task 3`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if canSkipConfigLoading(cmd.Name()) {
			return nil
		}
		return loadConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !IsInteractive(cmd.OutOrStdout()) || !IsInteractive(os.Stdin) {
			return cmd.Help()
		}
		return runDashboard()
	},
}

// Execute runs the root command and prints any error.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		closeLog()
		output.WriteCLIError(rootCmd.OutOrStdout(), rootCmd.ErrOrStderr(), toCLIError(err), jsonOutput)
		return err
	}
	return nil
}

// loadConfig reads the config file, applies --url and opens the log.
func loadConfig() error {
	loaded, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return output.NewCLIError("could not load configuration").
			WithCause(err.Error()).
			WithCode("CONFIG_INVALID").
			WithHint(output.HintConfigInvalid)
	}
	if urlFlag != "" {
		loaded.Server.URL = urlFlag
	}
	cfg = loaded

	path := cfg.Log.Path
	if path == "" {
		path = config.DefaultLogPath()
	}
	l, closer, err := logging.Open(config.ExpandHome(path), cfg.Log.Level)
	if err != nil {
		// Logging is best effort.
		logger = logging.Discard()
		return nil
	}
	logger, logCloser = l, closer
	return nil
}

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	logger = logging.Discard()
}

// currentConfig returns the loaded config, or defaults for commands that
// skipped loading.
func currentConfig() *config.Config {
	if cfg != nil {
		return cfg
	}
	return config.Default()
}

func newClient() *api.Client {
	c := currentConfig()
	return api.NewClient(
		api.WithBaseURL(c.Server.URL),
		api.WithToken(c.Server.Token),
		api.WithTimeout(c.Server.Timeout.Std()),
	)
}

func newRegistry() (*panel.Registry, error) {
	reg, err := currentConfig().Registry()
	if err != nil {
		return nil, output.NewCLIError("invalid panel configuration").
			WithCause(err.Error()).
			WithCode("CONFIG_INVALID").
			WithHint(output.HintConfigInvalid)
	}
	return reg, nil
}

// lookupPanel resolves a panel name against the configured registry.
func lookupPanel(name string) (panel.Config, error) {
	reg, err := newRegistry()
	if err != nil {
		return panel.Config{}, err
	}
	p, ok := reg.Get(name)
	if !ok {
		return panel.Config{}, output.UnknownPanelError(name)
	}
	return p, nil
}

func goVersion() string {
	return runtime.Version()
}

func goPlatform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/vodum/config.toml)")
	rootCmd.PersistentFlags().StringVar(&urlFlag, "url", "", "VODUM base URL (overrides server.url)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(
		newDashboardCmd(),
		newFetchCmd(),
		newWatchCmd(),
		newRunCmd(),
		newActivityCmd(),
		newPanelsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
}

type versionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuiltAt   string `json:"built_at"`
	BuiltBy   string `json:"built_by"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if IsJSONOutput() {
				return output.WriteJSON(w, versionResponse{
					Version:   Version,
					Commit:    Commit,
					BuiltAt:   Date,
					BuiltBy:   BuiltBy,
					GoVersion: goVersion(),
					Platform:  goPlatform(),
				}, true)
			}

			if short {
				fmt.Fprintln(w, Version)
				return nil
			}
			fmt.Fprintf(w, "vodum version %s\n", Version)
			fmt.Fprintf(w, "  commit:    %s\n", Commit)
			fmt.Fprintf(w, "  built:     %s\n", Date)
			fmt.Fprintf(w, "  builder:   %s\n", BuiltBy)
			fmt.Fprintf(w, "  go:        %s\n", goVersion())
			fmt.Fprintf(w, "  platform:  %s\n", goPlatform())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}

// IsJSONOutput returns true if JSON output is enabled
func IsJSONOutput() bool {
	return jsonOutput
}

// GetFormatter returns a formatter writing to w in the selected format.
func GetFormatter(w io.Writer) *output.Formatter {
	format := output.FormatText
	if jsonOutput {
		format = output.FormatJSON
	}
	return output.New(output.WithFormat(format), output.WithWriter(w))
}

// canSkipConfigLoading returns true for commands that never read config.
func canSkipConfigLoading(cmdName string) bool {
	switch cmdName {
	case "version", "help", "completion", "path", "init":
		return true
	}
	return false
}
