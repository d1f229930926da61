package cmd

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <path>",
	Short: "Show what is indexed for a project",
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

		status, err := newWriter(st).Status(cmd.Context(), prefix)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(status)
		}
		printStatus(prefix, status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
