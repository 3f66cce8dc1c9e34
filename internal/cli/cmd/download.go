package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/corpdrive/server/internal/cli/api"
	"github.com/corpdrive/server/internal/cli/output"
	"github.com/corpdrive/server/internal/cli/pathutil"
	"github.com/spf13/cobra"
)

var flagOutput string

var downloadCmd = &cobra.Command{
	Use:   "download <remote-path> [local-dir]",
	Short: "Download a file, or a folder as a zip archive",
	Long: `Download a file, or a folder packed into a zip archive.

  corpdrive download /Documents/report.pdf          Save to the current directory
  corpdrive download /Documents/report.pdf ./out    Save into ./out
  corpdrive download /Projects                      Save Projects.zip
  corpdrive download /                              Save everything as root.zip
  corpdrive download <uuid> -o backup.zip           Choose the output file`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (overrides default naming)")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	id, err := pathutil.Resolve(apiClient, args[0])
	if err != nil {
		return err
	}

	destDir := "."
	if len(args) > 1 {
		destDir = args[1]
	}

	if id == "" {
		return saveDownload("/download/folder/root", "root.zip", destDir)
	}

	var resp api.Response[api.Node]
	if err := apiClient.Get("/items/"+id, nil, &resp); err != nil {
		return fmt.Errorf("fetching item: %w", err)
	}

	node := resp.Data
	if node.IsFolder() {
		return saveDownload("/download/folder/"+node.ID, node.Name+".zip", destDir)
	}
	return saveDownload("/download/file/"+node.ID, node.Name, destDir)
}

func saveDownload(remotePath, name, destDir string) error {
	dest := filepath.Join(destDir, name)
	if flagOutput != "" {
		dest = flagOutput
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	n, err := apiClient.DownloadToFile(remotePath, dest)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", name, err)
	}

	fmt.Printf("Downloaded %s -> %s (%s)\n", name, dest, output.FormatSize(n))
	return nil
}
