package commands

import (
	"fmt"
	"time"

	"github.com/deliverydesk/internal/api/client"
	"github.com/spf13/cobra"
)

func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "report",
		Short:   "One-off report commands",
		Aliases: []string{"reports", "r"},
	}

	cmd.AddCommand(newReportGenerateCommand())
	cmd.AddCommand(newReportDownloadCommand())

	return cmd
}

func newReportGenerateCommand() *cobra.Command {
	var (
		req        client.CreateReportRequest
		from       string
		to         string
		recipients string
		columns    string
	)

	cmd := &cobra.Command{
		Use:     "generate [title]",
		Short:   "Generate a report for a date range",
		Aliases: []string{"gen"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			req.Title = args[0]
			req.DateRange = client.DateRange{StartDate: from, EndDate: to}
			req.Columns = splitList(columns)
			if list := splitList(recipients); len(list) > 0 {
				req.Options = &client.ReportOptions{Recipients: list}
			}

			resp, err := c.CreateReport(background(cmd), req)
			if err != nil {
				return fmt.Errorf("failed to generate report: %v", err)
			}

			fmt.Printf("Report %d generated: %s\n", resp.ReportID, resp.FileName)
			if resp.Emailed {
				fmt.Println("Report emailed to recipients")
			}
			if resp.DeliveryError != "" {
				fmt.Printf("Warning: email delivery failed: %s\n", resp.DeliveryError)
			}
			return nil
		},
	}

	today := time.Now().Format("2006-01-02")
	cmd.Flags().StringVar(&req.DataSource, "source", "orders", "Data source (orders/deliveries/couriers/businesses/customers)")
	cmd.Flags().StringVar(&req.Format, "format", "excel", "Output format (pdf/excel/csv)")
	cmd.Flags().StringVar(&from, "from", today, "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", today, "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&recipients, "recipients", "", "Comma separated recipient emails")
	cmd.Flags().StringVar(&columns, "columns", "", "Comma separated columns")

	return cmd
}

func newReportDownloadCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download [id]",
		Short: "Download a generated report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			if output == "" {
				output = fmt.Sprintf("report-%d", id)
			}
			if err := c.DownloadReport(background(cmd), id, output); err != nil {
				return fmt.Errorf("failed to download report: %v", err)
			}

			fmt.Printf("Report saved to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	return cmd
}
