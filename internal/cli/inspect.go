package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"chatfs/internal/index"
)

func newInspectCommand(appCtx *AppContext) *cobra.Command {
	var diffAgainstLocal bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Pretty-print the current remote index, or its diff against the local path",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := appCtx.Provider.Index()
			if remote == nil {
				return fmt.Errorf("cli: no remote index yet; run connect first")
			}

			if !diffAgainstLocal {
				pretty.Println(remote.Entries())
				return nil
			}

			cfg := appCtx.Provider.Config()
			local, err := index.BuildForDirectory(cfg.LocalPath)
			if err != nil {
				return err
			}

			printDiff(index.DiffIndexes(local, remote))
			return nil
		},
	}

	cmd.Flags().BoolVar(&diffAgainstLocal, "diff", false, "diff the remote index against the configured local path instead of dumping it")
	return cmd
}

func printDiff(d index.Diff) {
	added := color.New(color.FgGreen).SprintFunc()
	deleted := color.New(color.FgRed).SprintFunc()
	modified := color.New(color.FgYellow).SprintFunc()

	for _, e := range d.Added {
		fmt.Printf("%s %s\n", added("+"), e.RelativePath)
	}
	for _, e := range d.Deleted {
		fmt.Printf("%s %s\n", deleted("-"), e.RelativePath)
	}
	for _, e := range d.Modified {
		fmt.Printf("%s %s\n", modified("~"), e.RelativePath)
	}
	if d.Empty() {
		fmt.Println("no differences")
	}
}
