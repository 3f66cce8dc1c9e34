package cmd

import (
	"fmt"
	"os"

	"github.com/corpdrive/server/internal/cli/pathutil"
	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a text or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		id, err := pathutil.Resolve(apiClient, args[0])
		if err != nil {
			return err
		}
		if id == "" {
			return fmt.Errorf("cannot print a folder")
		}

		if _, err := apiClient.Stream("/file/content/"+id, os.Stdout); err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
