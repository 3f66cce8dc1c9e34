package cmd

import (
	"fmt"
	"path"

	"github.com/corpdrive/server/internal/cli/api"
	"github.com/corpdrive/server/internal/cli/output"
	"github.com/corpdrive/server/internal/cli/pathutil"
	"github.com/spf13/cobra"
)

var flagParent string

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <name> [parent-path]",
	Short: "Create a folder",
	Long: `Create a folder on the server. Folder names are unique within their
parent.

  corpdrive mkdir "Board Minutes"           Create at the top level
  corpdrive mkdir Reports /Documents        Create inside a folder
  corpdrive mkdir /Documents/Reports        Same, parent taken from the path
  corpdrive mkdir Reports --parent <uuid>   Create inside a folder by ID`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		name := args[0]
		parentID := flagParent
		if parentID == "" && len(args) > 1 {
			resolved, err := pathutil.Resolve(apiClient, args[1])
			if err != nil {
				return fmt.Errorf("resolving parent: %w", err)
			}
			parentID = resolved
		}

		if parentID == "" && len(args) == 1 {
			if segments := pathutil.Split(name); len(segments) > 1 {
				resolved, err := pathutil.Resolve(apiClient, path.Dir("/"+path.Join(segments...)))
				if err != nil {
					return fmt.Errorf("resolving parent path: %w", err)
				}
				parentID = resolved
				name = segments[len(segments)-1]
			}
		}

		body := map[string]interface{}{"name": name}
		if parentID != "" {
			body["parentId"] = parentID
		}

		var resp api.Response[api.Node]
		if err := apiClient.Post("/folders", body, &resp); err != nil {
			return fmt.Errorf("creating folder: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}

		fmt.Printf("Created folder: %s (id: %s)\n", resp.Data.Name, resp.Data.ID)
		return nil
	},
}

func init() {
	mkdirCmd.Flags().StringVar(&flagParent, "parent", "", "Parent folder ID")
	rootCmd.AddCommand(mkdirCmd)
}
