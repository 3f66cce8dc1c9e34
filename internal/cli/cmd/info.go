package cmd

import (
	"fmt"

	"github.com/corpdrive/server/internal/cli/api"
	"github.com/corpdrive/server/internal/cli/output"
	"github.com/corpdrive/server/internal/cli/pathutil"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Show details for a file or folder",
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
			return fmt.Errorf("the top level has no details")
		}

		var resp api.Response[api.Node]
		if err := apiClient.Get("/items/"+id, nil, &resp); err != nil {
			return fmt.Errorf("fetching item: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}

		var chain api.Response[[]api.Node]
		if err := apiClient.Get("/items/"+id+"/path", nil, &chain); err != nil {
			chain.Data = nil
		}
		output.NodeDetail(resp.Data, chain.Data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
