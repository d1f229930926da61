package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cortex/internal/index"
	"cortex/internal/walker"
)

var rememberCmd = &cobra.Command{
	Use:   "remember <path>",
	Short: "Index a Python project from scratch",
	Long: `Walks the project tree, extracts every function, class, method, and
module variable, and stores them under the project's key prefix. Existing
data for the project is cleared first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, prefix, err := resolveProject(args[0])
		if err != nil {
			return err
		}

		files, err := walker.Walk(root)
		if err != nil {
			return fmt.Errorf("walk %s: %w", root, err)
		}
		if len(files) == 0 {
			return fmt.Errorf("no Python files found under %s", root)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		start := time.Now()
		summary, err := newWriter(st).Remember(cmd.Context(), prefix, root, sourceFiles(files))
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(summary)
		}
		printWriteSummary("remembered", summary)
		fmt.Printf("  %s in %s\n", prefix, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func sourceFiles(files []walker.FileInfo) []index.SourceFile {
	out := make([]index.SourceFile, len(files))
	for i, f := range files {
		out[i] = index.SourceFile{Path: f.Path, RelPath: f.RelPath}
	}
	return out
}

func init() {
	rootCmd.AddCommand(rememberCmd)
}
