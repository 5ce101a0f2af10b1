package scan

import "github.com/spf13/cobra"

// Actions defines the directory scan command.
type Actions interface {
	Scan(cmd *cobra.Command, args []string) error
}

// Commands builds the scan command set.
func Commands(h Actions) []*cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan ROOT",
		Short: "Inventory every file under a directory as JSON, XLSX and DOCX",
		Args:  cobra.ExactArgs(1),
		RunE:  h.Scan,
	}
	scanCmd.Flags().StringP("out-dir", "o", ".", "output directory for the exports")
	scanCmd.Flags().Bool("no-json", false, "skip the JSON export")
	scanCmd.Flags().Bool("no-excel", false, "skip the XLSX export (and its CSV fallback)")
	scanCmd.Flags().Bool("no-word", false, "skip the Word (.docx) report")
	scanCmd.Flags().Bool("follow-symlinks", false, "descend into symlinked directories")

	return []*cobra.Command{scanCmd}
}
