package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"chatfs/internal/events"
)

func newStatusCommand(appCtx *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the provider's current readiness and index size",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := appCtx.Provider.Status()

			printStatus := color.New(color.FgGreen).SprintFunc()
			if status != events.Ready {
				printStatus = color.New(color.FgRed).SprintFunc()
			}
			fmt.Printf("status: %s\n", printStatus(status.String()))

			idx := appCtx.Provider.Index()
			if idx == nil {
				fmt.Println("index: not yet materialized")
				return nil
			}
			fmt.Printf("index: %d files, built at %s\n", idx.Len(), idx.BuiltAt.Format("2006-01-02T15:04:05Z07:00"))
			return nil
		},
	}
}
