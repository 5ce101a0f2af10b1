package fetch

import "github.com/spf13/cobra"

// Actions defines the fetch-and-archive command.
type Actions interface {
	Fetch(cmd *cobra.Command, args []string) error
}

// Commands builds the fetch command set.
func Commands(h Actions) []*cobra.Command {
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download every URL of a spreadsheet column into a zip archive",
		Long: `Read a .csv or .xlsx file, take the unique non-empty values of one column
as URLs, download them one by one and pack the successful downloads into a zip
archive as image_0001.png, image_0002.png, ... Failed URLs are reported and
skipped.`,
		Args: cobra.NoArgs,
		RunE: h.Fetch,
	}
	fetchCmd.Flags().StringP("input", "i", "", "input table (.csv or .xlsx)")
	fetchCmd.Flags().StringP("column", "c", "", `URL column (default: first header containing "url")`)
	fetchCmd.Flags().StringP("out", "o", "images.zip", "output archive path")
	fetchCmd.Flags().Int("concurrency", 0, "parallel downloads (default: fetch.concurrency)")
	fetchCmd.Flags().Bool("preview", false, "print the first rows of the table and exit")
	_ = fetchCmd.MarkFlagRequired("input")

	return []*cobra.Command{fetchCmd}
}
