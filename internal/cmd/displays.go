package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hoppxi/dusk/pkg/operation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var displaysCmd = &cobra.Command{
	Use:   "displays",
	Short: "List the displays dusk can reach",
	RunE: func(cmd *cobra.Command, args []string) error {
		d := operation.NewDispatcher(log.Logger, settings.Display.Timeout, enumerators(settings.Display, log.Logger)...)
		infos, failures := d.Displays(context.Background())

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(infos, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		for _, info := range infos {
			level := "?"
			if info.Known {
				level = fmt.Sprintf("%d%%", info.Brightness)
			}
			fmt.Fprintf(out, "%-10s %-5s %s\n", info.Backend, level, info.Name)
		}
		for _, f := range failures {
			fmt.Fprintf(out, "%-10s error: %v\n", f.Name, f.Err)
		}
		if len(infos) == 0 {
			fmt.Fprintln(out, "no displays found")
		}
		return nil
	},
}

func init() {
	displaysCmd.Flags().Bool("json", false, "Print as JSON")
}
