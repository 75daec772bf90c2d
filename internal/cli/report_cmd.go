package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/cli/formatter"
	"github.com/alexanderramin/invoiceplan/internal/contract"
	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/spf13/cobra"
)

func newPendingCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List items waiting for the next lifecycle step",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "requests",
			Short: "Planned items still to be requested",
			RunE: func(cmd *cobra.Command, args []string) error {
				items, err := app.Plans.PendingRequests(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPending("Pending requests", items))
				return nil
			},
		},
		&cobra.Command{
			Use:   "emissions",
			Short: "Requested items waiting to be invoiced",
			RunE: func(cmd *cobra.Command, args []string) error {
				items, err := app.Plans.PendingEmissions(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPending("Pending emissions", items))
				return nil
			},
		},
	)

	return cmd
}

func newSummaryCmd(app *App) *cobra.Command {
	var (
		engagements []string
		statuses    []string
		from, to    dateFlag
		search      string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize items by engagement",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := contract.SummaryFilter{
				EngagementIDs: engagements,
				EmissionFrom:  from.Time(),
				EmissionTo:    to.Time(),
				Search:        search,
			}
			for _, s := range statuses {
				status := domain.ItemStatus(s)
				if !status.Valid() {
					return fmt.Errorf("unknown status %q", s)
				}
				filter.Statuses = append(filter.Statuses, status)
			}

			res, err := app.Plans.Summary(cmd.Context(), filter)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSummary(res))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&engagements, "engagement", nil, "Restrict to engagements")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Restrict to item statuses")
	cmd.Flags().Var(&from, "from", "Earliest emission date")
	cmd.Flags().Var(&to, "to", "Latest emission date")
	cmd.Flags().StringVar(&search, "search", "", "Match engagement, customer or description text")

	return cmd
}

// nextMonday returns t's date when it is a Monday, else the following Monday.
func nextMonday(t time.Time) time.Time {
	d := domain.DateOf(t)
	return d.AddDate(0, 0, (8-int(d.Weekday()))%7)
}

func newNotifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Customer billing notifications",
	}

	var date dateFlag
	preview := &cobra.Command{
		Use:   "preview",
		Short: "Show the notifications due on a Monday",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := nextMonday(app.now())
			if date.Time() != nil {
				day = *date.Time()
			}
			if day.Weekday() != time.Monday {
				fmt.Fprintln(cmd.ErrOrStderr(), formatter.Dim("Notifications only go out on Mondays; nothing is due on "+day.Format(domain.DateLayout)+"."))
			}
			previews, err := app.Plans.PreviewNotifications(cmd.Context(), day)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Header("Notifications for "+day.Format(domain.DateLayout)))
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPreviews(previews))
			return nil
		},
	}
	preview.Flags().Var(&date, "date", "Notification date (default: next Monday)")

	cmd.AddCommand(preview)
	return cmd
}
