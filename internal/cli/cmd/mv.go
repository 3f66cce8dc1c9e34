package cmd

import (
	"fmt"
	"strings"

	"github.com/corpdrive/server/internal/cli/api"
	"github.com/corpdrive/server/internal/cli/output"
	"github.com/corpdrive/server/internal/cli/pathutil"
	"github.com/spf13/cobra"
)

var mvCmd = &cobra.Command{
	Use:     "mv <path> <new-name>",
	Aliases: []string{"rename"},
	Short:   "Rename a file or folder",
	Long: `Rename a file or folder in place.

  corpdrive mv /Documents/old.pdf new.pdf
  corpdrive mv /Drafts Archive`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		id, err := pathutil.Resolve(apiClient, args[0])
		if err != nil {
			return fmt.Errorf("resolving source: %w", err)
		}
		if id == "" {
			return fmt.Errorf("cannot rename the top level")
		}

		newName := args[1]
		if strings.Contains(newName, "/") {
			return fmt.Errorf("moving between folders is not supported; give a new name without '/'")
		}

		var resp api.Response[api.Node]
		if err := apiClient.Put("/items/"+id, map[string]string{"newName": newName}, &resp); err != nil {
			return fmt.Errorf("renaming: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}

		fmt.Printf("Renamed to: %s\n", resp.Data.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mvCmd)
}
