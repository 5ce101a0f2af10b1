package refine

import "github.com/spf13/cobra"

// Actions defines the LLM batch refine command.
type Actions interface {
	Refine(cmd *cobra.Command, args []string) error
}

// Commands builds the refine command set.
func Commands(h Actions) []*cobra.Command {
	refineCmd := &cobra.Command{
		Use:   "refine",
		Short: "Send each segment of a JSON file through a language model",
		Long: `Read a JSON array of segments, render a prompt for each segment's text,
ask the model for a JSON object and write {id, original_text, refined} records.
The API key comes from refine.api_key (env BATCHKIT_REFINE_API_KEY).`,
		Args: cobra.NoArgs,
		RunE: h.Refine,
	}
	refineCmd.Flags().StringP("input", "i", "", "input JSON array of segments")
	refineCmd.Flags().StringP("output", "o", "", "output JSON path (default: <input>_refined.json)")
	refineCmd.Flags().String("model", "", "model name (default: refine.model)")
	refineCmd.Flags().String("id-field", "", "segment ID field (default: refine.id_field)")
	refineCmd.Flags().String("text-field", "", "segment text field (default: refine.text_field)")
	refineCmd.Flags().String("prompt", "", "prompt template file (default: refine.prompt_file or built-in)")
	refineCmd.Flags().Int("concurrency", 0, "parallel model calls (default: refine.concurrency)")
	_ = refineCmd.MarkFlagRequired("input")

	return []*cobra.Command{refineCmd}
}
