package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"cortex/internal/vector"
)

var flagBatchSize int

var vectorizeCmd = &cobra.Command{
	Use:   "vectorize <path>",
	Short: "Embed every indexed entity for semantic search",
	Long: `Loads the project's indexed entities, embeds them in batches through
the configured provider, and stores the vectors. Failed batches are skipped
and counted; the run continues with the rest.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, prefix, err := resolveProject(args[0])
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		emb, err := newEmbedder()
		if err != nil {
			return err
		}
		idx, err := openVectorIndex(cmd.Context(), st, emb)
		if err != nil {
			return err
		}
		defer idx.Close()

		batchSize := cfg.BatchSize
		if flagBatchSize > 0 {
			batchSize = flagBatchSize
		}
		v := vector.NewVectorizer(st, emb, idx, batchSize, slog.Default())

		start := time.Now()
		summary, err := v.Vectorize(cmd.Context(), prefix)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(summary)
		}
		line := fmt.Sprintf("vectorized %d entities in %s",
			summary.Indexed, time.Since(start).Round(time.Millisecond))
		if summary.Failed == 0 {
			fmt.Println(successStyle.Render(line))
		} else {
			fmt.Println(warnStyle.Render(fmt.Sprintf("%s (%d failed across %d batches)",
				line, summary.Failed, summary.FailedBatches)))
		}
		return nil
	},
}

func init() {
	vectorizeCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "texts per embedding request")
	rootCmd.AddCommand(vectorizeCmd)
}
