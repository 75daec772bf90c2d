package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/invoiceplan/internal/cli/formatter"
	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/spf13/cobra"
)

// errAborted is returned when the user declines a confirmation.
var errAborted = errors.New("aborted")

// itemTarget holds the flags shared by every item command.
type itemTarget struct {
	planID  int64
	itemIDs []int64
}

func (t *itemTarget) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&t.planID, "plan", 0, "Plan ID")
	cmd.Flags().Int64SliceVar(&t.itemIDs, "item", nil, "Item ID (repeatable or comma-separated)")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("item")
}

func newItemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Move plan items through request, close and cancel",
	}

	cmd.AddCommand(
		newItemRequestCmd(app),
		newItemUndoCmd(app),
		newItemCloseCmd(app),
		newItemCancelCmd(app),
	)

	return cmd
}

func newItemRequestCmd(app *App) *cobra.Command {
	var (
		target      itemTarget
		ritm, coe   string
		requestDate dateFlag
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Mark planned items as requested from billing",
		RunE: func(cmd *cobra.Command, args []string) error {
			date := domain.DateOf(app.now())
			if requestDate.Time() != nil {
				date = *requestDate.Time()
			}
			updates := make([]domain.RequestUpdate, 0, len(target.itemIDs))
			for _, id := range target.itemIDs {
				updates = append(updates, domain.RequestUpdate{ItemID: id, RitmNumber: ritm, CoeResponsible: coe, RequestDate: date})
			}
			res, err := app.Plans.RequestItems(cmd.Context(), target.planID, updates)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSaveResult("Requested", res))
			return nil
		},
	}

	target.register(cmd)
	cmd.Flags().StringVar(&ritm, "ritm", "", "RITM ticket number")
	cmd.Flags().StringVar(&coe, "responsible", "", "COE responsible")
	cmd.Flags().Var(&requestDate, "date", "Request date (default today)")
	_ = cmd.MarkFlagRequired("ritm")
	_ = cmd.MarkFlagRequired("responsible")

	return cmd
}

func newItemUndoCmd(app *App) *cobra.Command {
	var target itemTarget

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Return requested items to planned",
		Long:  "Return requested items to planned. Items that are not requested are left as they are.",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Plans.UndoRequests(cmd.Context(), target.planID, target.itemIDs)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSaveResult("Undone", res))
			return nil
		},
	}

	target.register(cmd)

	return cmd
}

func newItemCloseCmd(app *App) *cobra.Command {
	var (
		target    itemTarget
		bz        string
		emittedAt dateFlag
	)

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close requested items once invoiced",
		RunE: func(cmd *cobra.Command, args []string) error {
			updates := make([]domain.CloseUpdate, 0, len(target.itemIDs))
			for _, id := range target.itemIDs {
				updates = append(updates, domain.CloseUpdate{ItemID: id, BzCode: bz, EmittedAt: emittedAt.Time()})
			}
			res, err := app.Plans.CloseItems(cmd.Context(), target.planID, updates)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSaveResult("Closed", res))
			return nil
		},
	}

	target.register(cmd)
	cmd.Flags().StringVar(&bz, "bz", "", "BZ code from the billing system")
	cmd.Flags().Var(&emittedAt, "emitted-at", "Emission date (default now)")
	_ = cmd.MarkFlagRequired("bz")

	return cmd
}

func newItemCancelCmd(app *App) *cobra.Command {
	var (
		target        itemTarget
		reason        string
		emission, due dateFlag
		yes           bool
	)

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel requested items and reissue them as planned",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to cancel without confirmation; pass --yes")
				}
				ok, err := app.confirm(fmt.Sprintf("Cancel %d item(s) of plan %d and create replacements?", len(target.itemIDs), target.planID))
				if err != nil {
					return err
				}
				if !ok {
					return errAborted
				}
			}

			requests := make([]domain.CancelRequest, 0, len(target.itemIDs))
			for _, id := range target.itemIDs {
				requests = append(requests, domain.CancelRequest{
					ItemID:                  id,
					CancelReason:            reason,
					ReplacementEmissionDate: emission.Time(),
					ReplacementDueDate:      due.Time(),
				})
			}
			res, err := app.Plans.CancelItems(cmd.Context(), target.planID, requests)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSaveResult("Canceled and reissued", res))
			return nil
		},
	}

	target.register(cmd)
	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason")
	cmd.Flags().Var(&emission, "emission", "Replacement emission date (default: the canceled item's)")
	cmd.Flags().Var(&due, "due", "Replacement due date (default: emission + payment terms)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}
