package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/corpdrive/server/internal/cli/api"
	"github.com/corpdrive/server/internal/cli/output"
	"github.com/corpdrive/server/internal/cli/pathutil"
	"github.com/spf13/cobra"
)

var (
	flagPage  int
	flagLimit int
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List files and folders",
	Long: `List the top level or the contents of a folder. Folders come first.

  corpdrive ls                       List the top level
  corpdrive ls /Documents            List by path
  corpdrive ls 550e8400-...          List by folder ID
  corpdrive ls --page 2 --limit 50   Page through large folders`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		path := ""
		if len(args) > 0 {
			path = args[0]
		}

		folderID, err := pathutil.Resolve(apiClient, path)
		if err != nil {
			return err
		}

		params := url.Values{}
		if folderID != "" {
			params.Set("parentId", folderID)
		}
		if flagPage > 0 {
			params.Set("page", strconv.Itoa(flagPage))
		}
		if flagLimit > 0 {
			params.Set("limit", strconv.Itoa(flagLimit))
		}

		var resp api.Response[[]api.Node]
		if err := apiClient.Get("/browse", params, &resp); err != nil {
			return fmt.Errorf("listing folder: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}

		output.NodeTable(resp.Data)
		if p := resp.Pagination; p != nil && p.TotalPages > 1 {
			fmt.Printf("\nPage %d of %d (%d items)\n", p.Page, p.TotalPages, p.Total)
		}
		return nil
	},
}

func init() {
	lsCmd.Flags().IntVar(&flagPage, "page", 0, "Page number (enables pagination)")
	lsCmd.Flags().IntVar(&flagLimit, "limit", 0, "Items per page (enables pagination)")
	rootCmd.AddCommand(lsCmd)
}
