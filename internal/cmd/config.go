package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hoppxi/dusk/internal/manager"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const configHeader = `# dusk configuration. Changes are picked up while dusk runs.
#
# ui.initial_level    slider position at start (0-100)
# ui.apply_on_start   push the initial level to displays at start
# display.backends    backlight, ddcutil (linux), dxva2 (windows)
# overlay.backend     x11 or eww (linux), win32 (windows)
`

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the dusk config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Path()
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(path); err == nil && !force {
			reader := bufio.NewReader(cmd.InOrStdin())
			if !confirm(reader, cmd.OutOrStdout(), path+" already exists. Overwrite with defaults?") {
				return nil
			}
		}

		if err := writeConfig(path, manager.Defaults()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), cfg.Path())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := yaml.Marshal(&settings)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(d)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file without asking")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
}

func writeConfig(path string, s manager.Settings) error {
	d, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(configHeader+"\n"), d...), 0644)
}

func confirm(r *bufio.Reader, w io.Writer, message string) bool {
	fmt.Fprintf(w, "%s (y/N): ", message)
	input, _ := r.ReadString('\n')
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}
