package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"cortex/internal/vector"
)

var (
	flagTopK     int
	flagMinScore float64
	flagTypes    []string
)

var vrecallCmd = &cobra.Command{
	Use:   "vrecall <path> <query>",
	Short: "Semantic search over vectorized entities",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, prefix, err := resolveProject(args[0])
		if err != nil {
			return err
		}
		query := strings.TrimSpace(args[1])
		if query == "" {
			return fmt.Errorf("empty query")
		}
		for _, t := range flagTypes {
			if !validEntityType(t) {
				return fmt.Errorf("unknown entity type %q in --type", t)
			}
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

		topK := cfg.TopK
		if flagTopK > 0 {
			topK = flagTopK
		}
		opts := vector.SearchOptions{
			TopK:        topK,
			EntityTypes: flagTypes,
		}
		// Without --min-score every stored vector competes, including
		// negative-similarity ones.
		if cmd.Flags().Changed("min-score") {
			opts.MinScore = &flagMinScore
		}
		v := vector.NewVectorizer(st, emb, idx, cfg.BatchSize, slog.Default())
		hits, err := v.SearchText(cmd.Context(), prefix, query, opts)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(hits)
		}
		printHits(hits)
		return nil
	},
}

func init() {
	vrecallCmd.Flags().IntVar(&flagTopK, "top-k", 0, "maximum results")
	vrecallCmd.Flags().Float64Var(&flagMinScore, "min-score", 0, "minimum cosine similarity (unset means no minimum)")
	vrecallCmd.Flags().StringSliceVar(&flagTypes, "type", nil, "restrict to entity types")
	rootCmd.AddCommand(vrecallCmd)
}
