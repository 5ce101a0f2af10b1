package others

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Actions defines cross-cutting system operations.
type Actions interface {
	History(cmd *cobra.Command, args []string) error
	HistoryShow(cmd *cobra.Command, args []string) error
	HistoryDelete(cmd *cobra.Command, args []string) error
	GC(cmd *cobra.Command, args []string) error
	Version(cmd *cobra.Command, args []string) error
}

// Commands builds system command set (history, gc, version, completion).
func Commands(h Actions) []*cobra.Command {
	historyCmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"runs"},
		Short:   "List past fetch, scan and refine runs",
		Args:    cobra.NoArgs,
		RunE:    h.History,
	}
	historyCmd.Flags().String("kind", "", "only show runs of this kind (fetch, scan, refine)")
	historyCmd.AddCommand(
		&cobra.Command{
			Use:   "show ID",
			Short: "Show one run as JSON (ID or unique prefix)",
			Args:  cobra.ExactArgs(1),
			RunE:  h.HistoryShow,
		},
		&cobra.Command{
			Use:     "delete ID [ID...]",
			Aliases: []string{"rm"},
			Short:   "Delete run records (artifacts are kept)",
			Args:    cobra.MinimumNArgs(1),
			RunE:    h.HistoryDelete,
		},
	)

	return []*cobra.Command{
		historyCmd,
		{
			Use:   "gc",
			Short: "Drop records of deleted artifacts and remove stale temp files",
			RunE:  h.GC,
		},
		{
			Use:   "version",
			Short: "Show version, git revision, and build timestamp",
			RunE:  h.Version,
		},
		{
			Use:       "completion [bash|zsh|fish|powershell]",
			Short:     "Generate shell completion script",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
			RunE: func(cmd *cobra.Command, args []string) error {
				root := cmd.Root()
				switch args[0] {
				case "bash":
					return root.GenBashCompletion(os.Stdout)
				case "zsh":
					return root.GenZshCompletion(os.Stdout)
				case "fish":
					return root.GenFishCompletion(os.Stdout, true)
				case "powershell":
					return root.GenPowerShellCompletionWithDesc(os.Stdout)
				default:
					return fmt.Errorf("unsupported shell: %s", args[0])
				}
			},
		},
	}
}
