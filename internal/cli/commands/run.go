package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/deliverydesk/internal/api/client"
	"github.com/spf13/cobra"
)

// NewRunCommand triggers a batch of due scheduled reports on the server.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run all due scheduled reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			summary, err := c.RunDue(background(cmd))
			if err != nil {
				return fmt.Errorf("failed to run scheduled reports: %v", err)
			}

			fmt.Printf("Ran %d reports: %d succeeded, %d failed\n",
				summary.ReportsRun, summary.SuccessCount, summary.ErrorCount)
			if len(summary.Results) == 0 {
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "REPORT\tSTATUS\tMESSAGE")
			for _, r := range summary.Results {
				fmt.Fprintf(w, "%d\t%s\t%s\n", r.ReportID, r.Status, r.Message)
			}
			return w.Flush()
		},
	}
}

func NewLoginCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Obtain an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			token, err := c.Login(background(cmd), args[0], password)
			if err != nil {
				return fmt.Errorf("login failed: %v", err)
			}

			fmt.Printf("export DELIVERYDESK_TOKEN=%s\n", token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.MarkFlagRequired("password")
	return cmd
}
