package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/hoppxi/dusk/pkg/operation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <level>",
	Short: "Apply a level's backlight brightness to every display once",
	Long: `Maps a 0-100 level the same way the slider does and sends the resulting
backlight brightness to every attached display. The overlay belongs to a
running dusk instance and is not touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid level %q: %w", args[0], err)
		}

		b, a := intensity.Map(level)
		d := operation.NewDispatcher(log.Logger, settings.Display.Timeout, enumerators(settings.Display, log.Logger)...)
		report := d.Apply(context.Background(), b)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "level %d: backlight %d%%, overlay alpha %d\n", intensity.Clamp(level), b, a)
		for _, name := range report.Applied {
			fmt.Fprintf(out, "  set     %s\n", name)
		}
		for _, f := range report.Failed {
			fmt.Fprintf(out, "  skipped %s: %v\n", f.Name, f.Err)
		}
		if len(report.Applied) == 0 {
			fmt.Fprintln(out, "no display accepted the change")
		}
		return nil
	},
}
