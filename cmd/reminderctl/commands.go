package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bondtrack/golang_services/internal/reminder_service/app"
	"github.com/bondtrack/golang_services/internal/reminder_service/bootstrap"
	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

var upcomingDays int

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run one dispatch pass over due reminders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, false, func(ctx context.Context, c *bootstrap.Components) error {
			sum, err := c.Dispatch.ProcessPendingReminders(ctx)
			if err != nil {
				return err
			}
			printDispatchSummary(cmd.OutOrStdout(), sum)
			return nil
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <court-date-id>",
	Short: "Schedule reminders for one court date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid court date id %q: %w", args[0], err)
		}
		return withComponents(cmd, false, func(ctx context.Context, c *bootstrap.Components) error {
			cd, err := c.CourtDates.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("load court date %s: %w", id, err)
			}
			created, err := c.Scheduler.ScheduleReminders(ctx, cd)
			printReminders(cmd.OutOrStdout(), created)
			return err
		})
	},
}

var scheduleAllCmd = &cobra.Command{
	Use:   "schedule-all",
	Short: "Re-evaluate reminders for every future, not-completed court date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, false, func(ctx context.Context, c *bootstrap.Components) error {
			sum, err := c.Scheduler.ScheduleAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "court dates: %d  created: %d  failed: %d\n", sum.CourtDates, sum.Created, sum.Failed)
			if sum.Failed > 0 {
				return fmt.Errorf("%d court dates failed to schedule", sum.Failed)
			}
			return nil
		})
	},
}

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List court dates in the next N days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if upcomingDays < 0 || upcomingDays > 365 {
			return fmt.Errorf("--days must be between 0 and 365, got %d", upcomingDays)
		}
		return withComponents(cmd, false, func(ctx context.Context, c *bootstrap.Components) error {
			items, err := c.Scheduler.GetUpcomingCourtDates(ctx, upcomingDays)
			if err != nil {
				return err
			}
			printUpcoming(cmd.OutOrStdout(), items)
			return nil
		})
	},
}

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List past, not-completed court dates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, false, func(ctx context.Context, c *bootstrap.Components) error {
			items, err := c.Scheduler.GetOverdueCourtDates(ctx)
			if err != nil {
				return err
			}
			printOverdue(cmd.OutOrStdout(), items)
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the reminder database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd, true, func(ctx context.Context, c *bootstrap.Components) error {
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		})
	},
}

func init() {
	upcomingCmd.Flags().IntVar(&upcomingDays, "days", 30, "Window size in days (0-365)")
}

func printDispatchSummary(w io.Writer, sum app.DispatchSummary) {
	fmt.Fprintf(w, "due: %d  sent: %d  failed: %d  suppressed: %d\n", sum.Due, sum.Sent, sum.Failed, sum.Suppressed)
}

func printReminders(w io.Writer, rs []*domain.Reminder) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tPRIORITY\tSCHEDULED FOR\tSTATUS\tATTEMPTS")
	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", r.ID, r.Kind, r.Priority(), r.ScheduledFor.Format(time.RFC3339), r.Status(), r.Attempts)
	}
	tw.Flush()
}

func printUpcoming(w io.Writer, items []domain.UpcomingCourtDate) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COURT DATE\tCLIENT\tEXTERNAL ID\tSCHEDULED AT\tDAYS UNTIL\tLOCATION")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", it.ID, it.ClientName, it.ClientExternalID, formatAt(it.ScheduledAt), it.DaysUntil, it.Location)
	}
	tw.Flush()
}

func printOverdue(w io.Writer, items []domain.OverdueCourtDate) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COURT DATE\tCLIENT\tEXTERNAL ID\tSCHEDULED AT\tDAYS OVERDUE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", it.ID, it.ClientName, it.ClientExternalID, formatAt(it.ScheduledAt), it.DaysOverdue)
	}
	tw.Flush()
}

func formatAt(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
