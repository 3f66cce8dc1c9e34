package cmd

import (
	"fmt"
	"strings"

	"github.com/corpdrive/server/internal/cli/api"
	"github.com/corpdrive/server/internal/cli/output"
	"github.com/corpdrive/server/internal/cli/pathutil"
	"github.com/spf13/cobra"
)

var flagSearchFoldersOnly bool

var searchCmd = &cobra.Command{
	Use:   "search <query> [path]",
	Short: "Search for files and folders by name",
	Long: `Search a folder and everything below it for names containing query.
Matching is case-insensitive. Without a path the whole drive is searched.

  corpdrive search invoice
  corpdrive search q3 /Reports --folders`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		start := ""
		if len(args) > 1 {
			start = args[1]
		}
		folderID, err := pathutil.Resolve(apiClient, start)
		if err != nil {
			return err
		}

		matches := searchTree(folderID, args[0])
		if matches.err != nil {
			return fmt.Errorf("searching: %w", matches.err)
		}

		if flagJSON {
			output.JSON(matches.nodes)
			return nil
		}
		output.MatchTable(matches.paths, matches.nodes)
		return nil
	},
}

type searchResult struct {
	paths []string
	nodes []api.Node
	err   error
}

func searchTree(folderID, query string) searchResult {
	var result searchResult
	needle := strings.ToLower(query)

	result.err = pathutil.Walk(apiClient, folderID, func(path string, n api.Node) error {
		if flagSearchFoldersOnly && !n.IsFolder() {
			return nil
		}
		if strings.Contains(strings.ToLower(n.Name), needle) {
			result.paths = append(result.paths, path)
			result.nodes = append(result.nodes, n)
		}
		return nil
	})
	return result
}

func init() {
	searchCmd.Flags().BoolVar(&flagSearchFoldersOnly, "folders", false, "Only match folders")
	rootCmd.AddCommand(searchCmd)
}
