package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/hoppxi/dusk/internal/manager"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var Version = "0.1.0"

var (
	cfgPath  string
	verbose  bool
	cfg      *manager.ConfigManager
	settings manager.Settings
)

var rootCmd = &cobra.Command{
	Use:     "dusk",
	Version: Version,
	Short:   "One slider for backlight brightness and screen dimming",
	Long: `dusk maps a single 0-100 slider onto two effects: the hardware backlight of
every attached display for the lower half, and a full-screen darkening
overlay for the upper half, so the screen can go dimmer than the hardware
allows.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = manager.NewConfig(cfgPath)
		if cmd == configInitCmd {
			// a broken file must not stop it from being replaced
			setupLogging("info")
			return nil
		}

		s, err := cfg.Load()
		if err != nil {
			return err
		}
		settings = s
		setupLogging(settings.Log.Level)
		return nil
	},
	RunE: runApp,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (default "+manager.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(displaysCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(quitCmd)
	rootCmd.AddCommand(statusCmd)
}

var logOutput sync.Once

// setupLogging sets the global level. The output writer is installed once,
// because watcher goroutines read log.Logger while config reloads call this.
func setupLogging(level string) {
	logOutput.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		if verbose {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		}
	})

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
