package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/corpdrive/server/internal/cli/api"
	"github.com/corpdrive/server/internal/cli/pathutil"
	"github.com/spf13/cobra"
)

var flagForce bool

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete a file or folder",
	Long: `Delete a file or folder from the server.

  corpdrive rm /Documents/old-report.pdf
  corpdrive rm /Temp --force                    Skip confirmation

Deleting a folder removes everything inside it. This cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		id, err := pathutil.Resolve(apiClient, args[0])
		if err != nil {
			return err
		}
		if id == "" {
			return fmt.Errorf("cannot delete the top level")
		}

		var infoResp api.Response[api.Node]
		if err := apiClient.Get("/items/"+id, nil, &infoResp); err != nil {
			return fmt.Errorf("fetching item: %w", err)
		}
		node := infoResp.Data

		if !flagForce {
			kind := "file"
			if node.IsFolder() {
				kind = "folder (and all contents)"
			}
			fmt.Printf("Delete %s %q? This cannot be undone. [y/N] ", kind, node.Name)
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			answer = strings.TrimSpace(strings.ToLower(answer))
			if answer != "y" && answer != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := apiClient.Delete("/items/"+id, nil); err != nil {
			return fmt.Errorf("deleting: %w", err)
		}

		fmt.Printf("Deleted: %s\n", node.Name)
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Skip confirmation prompt")
	rootCmd.AddCommand(rmCmd)
}
