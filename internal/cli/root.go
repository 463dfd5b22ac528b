package cli

import "github.com/spf13/cobra"

// NewRootCommand builds the chatfs command tree: connect, status, read,
// write-index, inspect.
func NewRootCommand(appCtx *AppContext) *cobra.Command {
	root := &cobra.Command{
		Use:   "chatfs",
		Short: "Operate a chat-service-backed cloud file provider",
	}

	root.AddCommand(
		newConnectCommand(appCtx),
		newStatusCommand(appCtx),
		newReadCommand(appCtx),
		newWriteIndexCommand(appCtx),
		newInspectCommand(appCtx),
	)

	return root
}
