package cmd

import (
	"fmt"
	"strings"

	"github.com/hoppxi/dusk/internal/manager"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func sendToRunning(command string) error {
	response, err := manager.New(log.Logger).SendIPCCommand(command)
	if err != nil {
		return fmt.Errorf("%w (is dusk running? start it with `dusk run`)", err)
	}
	fmt.Printf("Server response: %s\n", response)
	if !strings.HasPrefix(response, "OK") {
		return fmt.Errorf("dusk refused %s", command)
	}
	return nil
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Show or hide the overlay of the running instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendToRunning("TOGGLE")
	},
}

var quitCmd = &cobra.Command{
	Use:   "quit",
	Short: "Stop the running instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendToRunning("QUIT")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether dusk is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendToRunning("STATUS")
	},
}
