package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alexanderramin/invoiceplan/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func parsePlanID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid plan id %q", s)
	}
	return id, nil
}

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show, list and save invoice plans",
	}

	cmd.AddCommand(
		newPlanShowCmd(app),
		newPlanListCmd(app),
		newPlanSaveCmd(app),
	)

	return cmd
}

func newPlanShowCmd(app *App) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show <plan-id>",
		Short: "Show a plan and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlanID(args[0])
			if err != nil {
				return err
			}
			p, err := app.Plans.GetPlan(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asYAML {
				return writePlanFile(cmd.OutOrStdout(), p)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlan(p))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as an editable plan file")

	return cmd
}

func newPlanListCmd(app *App) *cobra.Command {
	var engagement string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans of an engagement",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := app.Plans.ListPlans(cmd.Context(), engagement)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlanList(plans))
			return nil
		},
	}

	cmd.Flags().StringVar(&engagement, "engagement", "", "Engagement ID")
	_ = cmd.MarkFlagRequired("engagement")

	return cmd
}

func newPlanSaveCmd(app *App) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or replace a plan from a YAML file",
		Long: "Create or replace a plan from a YAML file. A file without an id creates a new plan.\n" +
			"With an id, the stored plan is replaced: items and emails missing from the file are deleted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening plan file: %w", err)
				}
				defer f.Close()
				r = f
			}

			p, err := readPlanFile(r)
			if err != nil {
				return err
			}
			res, err := app.Plans.SavePlan(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSaveResult(fmt.Sprintf("Saved plan %d", p.ID), res))
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", `Plan file ("-" for stdin)`)
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
