package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vodum/console/internal/config"
	"github.com/vodum/console/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefault(cfgFile)
			if err != nil {
				if path != "" {
					return output.NewCLIError("configuration file already exists").
						WithCause(path).
						WithCode("CONFIG_EXISTS").
						WithHint("Edit it, or remove it and run 'vodum config init' again")
				}
				return err
			}
			return GetFormatter(cmd.OutOrStdout()).OutputData(
				map[string]string{"path": path},
				func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Created config file: %s\n", path)
					return err
				})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.DefaultPath()
			}
			_, statErr := os.Stat(path)
			exists := statErr == nil
			return GetFormatter(cmd.OutOrStdout()).OutputData(
				map[string]any{"path": path, "exists": exists},
				func(w io.Writer) error {
					_, err := fmt.Fprintln(w, path)
					return err
				})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Print the effective configuration: the config file merged over the
defaults, with environment overrides and --url applied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := currentConfig()
			if IsJSONOutput() {
				return output.WriteJSON(cmd.OutOrStdout(), c, true)
			}
			return config.Print(c, cmd.OutOrStdout())
		},
	})

	return cmd
}
