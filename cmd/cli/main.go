package main

import (
	"fmt"
	"os"

	"github.com/deliverydesk/internal/cli/commands"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deliverydesk-cli",
	Short: "DeliveryDesk CLI - reporting client",
	Long: `DeliveryDesk CLI talks to a running DeliveryDesk API.
It generates and downloads reports, manages scheduled reports and
triggers due runs. Set DELIVERYDESK_API_URL, DELIVERYDESK_TOKEN and
DELIVERYDESK_API_KEY to configure it.`,
}

func init() {
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewScheduleCommand())
	rootCmd.AddCommand(commands.NewRunCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
