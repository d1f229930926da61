package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cortex/internal/vector"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <path>",
	Short: "Remove a project's entire index",
	Args:  cobra.ExactArgs(1),
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

		removed, err := newWriter(st).Forget(cmd.Context(), prefix)
		if err != nil {
			return err
		}

		// KV-backed embeddings live under the project prefix and are gone
		// with the keys above; sqlite-backed ones need their own purge.
		if cfg.VectorBackend == "sqlite" && !flagDescribe {
			path, err := sqlitePath()
			if err != nil {
				return err
			}
			if err := vector.PurgeSQLiteProject(cmd.Context(), path, prefix); err != nil {
				return fmt.Errorf("purge vector index: %w", err)
			}
		}

		if flagJSON {
			return printJSON(map[string]any{"prefix": prefix, "removed": removed})
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("forgot %s (%d keys)", prefix, removed)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}
