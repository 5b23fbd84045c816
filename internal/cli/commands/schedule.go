package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/deliverydesk/internal/api/client"
	"github.com/spf13/cobra"
)

func NewScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Short:   "Scheduled report commands",
		Aliases: []string{"schedules", "s"},
	}

	cmd.AddCommand(newScheduleListCommand())
	cmd.AddCommand(newScheduleCreateCommand())
	cmd.AddCommand(newScheduleToggleCommand("enable", true))
	cmd.AddCommand(newScheduleToggleCommand("disable", false))
	cmd.AddCommand(newScheduleDeleteCommand())

	return cmd
}

func newScheduleListCommand() *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List scheduled reports",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			result, err := c.ListScheduledReports(background(cmd), page, limit)
			if err != nil {
				return fmt.Errorf("failed to list scheduled reports: %v", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSOURCE\tFORMAT\tFREQUENCY\tENABLED\tNEXT RUN")

			for _, sr := range result.Items {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\t%s\n",
					sr.ID,
					sr.Name,
					sr.DataSource,
					sr.Format,
					sr.Frequency,
					sr.IsEnabled,
					sr.NextRunAt.Format(time.RFC3339),
				)
			}
			fmt.Fprintf(w, "\n%d of %d\n", len(result.Items), result.Total)

			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size (max 100)")

	return cmd
}

func newScheduleCreateCommand() *cobra.Command {
	var (
		req        client.ScheduledReportRequest
		dayOfWeek  int
		dayOfMonth int
		recipients string
		columns    string
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a scheduled report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			req.Name = args[0]
			if cmd.Flags().Changed("day-of-week") {
				req.DayOfWeek = &dayOfWeek
			}
			if cmd.Flags().Changed("day-of-month") {
				req.DayOfMonth = &dayOfMonth
			}
			req.Recipients = splitList(recipients)
			req.Columns = splitList(columns)

			sr, err := c.CreateScheduledReport(background(cmd), req)
			if err != nil {
				return fmt.Errorf("failed to create scheduled report: %v", err)
			}

			fmt.Printf("Scheduled report %d created, next run at %s\n", sr.ID, sr.NextRunAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.DataSource, "source", "orders", "Data source (orders/deliveries/couriers/businesses/customers)")
	cmd.Flags().StringVar(&req.Format, "format", "excel", "Output format (pdf/excel/csv)")
	cmd.Flags().StringVar(&req.Frequency, "frequency", "daily", "Run frequency (daily/weekly/monthly)")
	cmd.Flags().IntVar(&dayOfWeek, "day-of-week", 1, "Day of week for weekly reports (0=Sunday)")
	cmd.Flags().IntVar(&dayOfMonth, "day-of-month", 1, "Day of month for monthly reports")
	cmd.Flags().StringVar(&req.TimeOfDay, "time", "09:00", "Time of day (HH:MM)")
	cmd.Flags().StringVar(&recipients, "recipients", "", "Comma separated recipient emails")
	cmd.Flags().StringVar(&columns, "columns", "", "Comma separated columns")

	return cmd
}

func newScheduleToggleCommand(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a scheduled report",
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

			if _, err := c.SetScheduledReportEnabled(background(cmd), id, enabled); err != nil {
				return fmt.Errorf("failed to %s scheduled report: %v", use, err)
			}

			fmt.Printf("Scheduled report %d %sd\n", id, use)
			return nil
		},
	}
}

func newScheduleDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Short:   "Delete a scheduled report",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			if err := c.DeleteScheduledReport(background(cmd), id); err != nil {
				return fmt.Errorf("failed to delete scheduled report: %v", err)
			}

			fmt.Printf("Scheduled report %d deleted\n", id)
			return nil
		},
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
