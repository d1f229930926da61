package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"cortex/internal/index"
	"cortex/internal/walker"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh <path> [file...]",
	Short: "Re-index changed files without clearing the project",
	Long: `Re-extracts and upserts entities file by file. With explicit file
arguments only those files are refreshed; otherwise the whole tree is
re-walked. Stale entities of each refreshed file are removed, entities of
untouched files are left alone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, prefix, err := resolveProject(args[0])
		if err != nil {
			return err
		}

		var files []index.SourceFile
		if len(args) > 1 {
			files, err = resolveFileArgs(root, args[1:])
			if err != nil {
				return err
			}
		} else {
			walked, err := walker.Walk(root)
			if err != nil {
				return fmt.Errorf("walk %s: %w", root, err)
			}
			files = sourceFiles(walked)
		}
		if len(files) == 0 {
			return fmt.Errorf("nothing to refresh under %s", root)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		summary, err := newWriter(st).Refresh(cmd.Context(), prefix, root, files)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(summary)
		}
		printWriteSummary("refreshed", summary)
		return nil
	},
}

// resolveFileArgs maps explicit file arguments onto project-relative source
// files. Arguments pointing outside the root are rejected rather than leaking
// ".." segments into keys.
func resolveFileArgs(root string, args []string) ([]index.SourceFile, error) {
	files := make([]index.SourceFile, 0, len(args))
	for _, arg := range args {
		rel, err := filepath.Rel(root, absOrJoin(root, arg))
		if err != nil {
			return nil, fmt.Errorf("%s is not under %s: %w", arg, root, err)
		}
		if !filepath.IsLocal(rel) {
			return nil, fmt.Errorf("%s is not under %s", arg, root)
		}
		files = append(files, index.SourceFile{
			Path:    filepath.Join(root, rel),
			RelPath: filepath.ToSlash(rel),
		})
	}
	return files, nil
}

func absOrJoin(root, arg string) string {
	if filepath.IsAbs(arg) {
		return arg
	}
	return filepath.Join(root, arg)
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
