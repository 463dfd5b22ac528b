package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newConnectCommand(appCtx *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Discover the remote index and transition to Ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.Provider.Connect(cmd.Context()); err != nil {
				return err
			}
			color.Green("connected: %s", appCtx.Provider.Status())
			return nil
		},
	}
}
