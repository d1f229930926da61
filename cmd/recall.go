package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cortex/internal/entity"
)

var flagRecallName string

var recallCmd = &cobra.Command{
	Use:   "recall <path> <type>",
	Short: "List indexed entities of one type",
	Long: `Lists indexed entities of the given type (function, class, method, or
variable), optionally narrowed to a single name with --name.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, prefix, err := resolveProject(args[0])
		if err != nil {
			return err
		}
		entityType := args[1]
		if !validEntityType(entityType) {
			return fmt.Errorf("unknown entity type %q (one of: function, class, method, variable)", entityType)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := newWriter(st).Recall(cmd.Context(), prefix, entityType, flagRecallName)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(records)
		}
		if len(records) == 0 {
			fmt.Println(dimStyle.Render("no matches"))
			return nil
		}
		for _, rec := range records {
			printEntity(rec)
		}
		return nil
	},
}

func validEntityType(t string) bool {
	for _, known := range entity.Types {
		if t == known {
			return true
		}
	}
	return false
}

func init() {
	recallCmd.Flags().StringVar(&flagRecallName, "name", "", "only entities with this exact name")
	rootCmd.AddCommand(recallCmd)
}
