package cli

import (
	"time"

	"github.com/alexanderramin/invoiceplan/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services and terminal hooks used by CLI commands.
type App struct {
	Plans service.InvoicePlanService

	// IsInteractive reports whether stdin is a terminal. Confirmations are
	// only asked interactively; otherwise destructive commands need --yes.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Defaults to a huh form.
	Confirm func(title string) (bool, error)
	// Now defaults to the wall clock; used for default dates.
	Now func() time.Time
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) confirm(title string) (bool, error) {
	if a.Confirm != nil {
		return a.Confirm(title)
	}
	return confirmPrompt(title)
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "invplan" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "invplan",
		Short:         "Invoice plan lifecycle for engagement billing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPlanCmd(app),
		newItemCmd(app),
		newPendingCmd(app),
		newSummaryCmd(app),
		newNotifyCmd(app),
	)

	return root
}
