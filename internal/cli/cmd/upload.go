package cmd

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/corpdrive/server/internal/cli/api"
	"github.com/corpdrive/server/internal/cli/output"
	"github.com/corpdrive/server/internal/cli/pathutil"
	"github.com/spf13/cobra"
)

var (
	flagWorkers   int
	flagBatchSize int
)

var uploadCmd = &cobra.Command{
	Use:   "upload <path>... [--to remote-folder]",
	Short: "Upload files or a directory",
	Long: `Upload local files or a whole directory.

  corpdrive upload report.pdf                       Upload to the top level
  corpdrive upload a.pdf b.pdf --to /Documents      Upload several files to a folder
  corpdrive upload ./project --to /Documents        Upload a directory tree
  corpdrive upload report.pdf --parent <uuid>       Upload to a folder by ID

Directories are sent in batches; folders are created on the server as
needed and reused when they already exist.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

var flagUploadTo string

func init() {
	uploadCmd.Flags().StringVar(&flagUploadTo, "to", "", "Remote folder path")
	uploadCmd.Flags().StringVar(&flagParent, "parent", "", "Remote folder ID")
	uploadCmd.Flags().IntVarP(&flagWorkers, "workers", "w", 4, "Concurrent batches when uploading a directory")
	uploadCmd.Flags().IntVar(&flagBatchSize, "batch-size", 50, "Files per request when uploading a directory")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	parentID := flagParent
	if parentID == "" && flagUploadTo != "" {
		resolved, err := pathutil.Resolve(apiClient, flagUploadTo)
		if err != nil {
			return fmt.Errorf("resolving remote folder: %w", err)
		}
		parentID = resolved
	}

	var files []api.UploadFile
	for _, localPath := range args {
		info, err := os.Stat(localPath)
		if err != nil {
			return fmt.Errorf("stat %s: %w", localPath, err)
		}
		if info.IsDir() {
			if err := uploadDirectory(localPath, parentID); err != nil {
				return err
			}
			continue
		}
		files = append(files, api.UploadFile{LocalPath: localPath})
	}
	if len(files) == 0 {
		return nil
	}
	return uploadFiles(files, parentID)
}

func uploadFiles(files []api.UploadFile, parentID string) error {
	fields := map[string]string{}
	if parentID != "" {
		fields["parentId"] = parentID
	}

	var resp api.Response[[]api.Node]
	if err := apiClient.Upload("/files", files, fields, &resp); err != nil {
		return fmt.Errorf("uploading: %w", err)
	}

	if flagJSON {
		output.JSON(resp.Data)
		return nil
	}
	for _, n := range resp.Data {
		fmt.Printf("Uploaded %s (%s)\n", n.Name, output.FormatSize(n.Size))
	}
	return nil
}

// localFile is a file found below an uploaded directory. RelPath uses
// forward slashes and starts with the directory's own name.
type localFile struct {
	LocalPath string
	RelPath   string
}

func collectFiles(dirPath string) ([]localFile, error) {
	root := filepath.Clean(dirPath)
	base := filepath.Base(root)

	var files []localFile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, localFile{
			LocalPath: p,
			RelPath:   path.Join(base, filepath.ToSlash(rel)),
		})
		return nil
	})
	return files, err
}

func splitBatches(files []localFile, size int) [][]localFile {
	if size < 1 {
		size = 1
	}
	var batches [][]localFile
	for start := 0; start < len(files); start += size {
		end := start + size
		if end > len(files) {
			end = len(files)
		}
		batches = append(batches, files[start:end])
	}
	return batches
}

func uploadDirectory(dirPath, parentID string) error {
	files, err := collectFiles(dirPath)
	if err != nil {
		return fmt.Errorf("walking directory: %w", err)
	}
	if len(files) == 0 {
		fmt.Printf("Nothing to upload in %s\n", dirPath)
		return nil
	}

	batches := make(chan []localFile)
	var uploaded, failed atomic.Int64

	workers := flagWorkers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				if err := uploadBatch(batch, parentID); err != nil {
					fmt.Fprintf(os.Stderr, "  Failed batch of %d starting at %s: %v\n", len(batch), batch[0].RelPath, err)
					failed.Add(int64(len(batch)))
					continue
				}
				for _, f := range batch {
					fmt.Printf("  Uploaded: %s\n", f.RelPath)
				}
				uploaded.Add(int64(len(batch)))
			}
		}()
	}

	for _, batch := range splitBatches(files, flagBatchSize) {
		batches <- batch
	}
	close(batches)
	wg.Wait()

	fmt.Printf("\nDone: %d uploaded, %d failed\n", uploaded.Load(), failed.Load())
	if failed.Load() > 0 {
		return fmt.Errorf("%d file(s) failed to upload", failed.Load())
	}
	return nil
}

func uploadBatch(batch []localFile, parentID string) error {
	files := make([]api.UploadFile, len(batch))
	paths := make([]string, len(batch))
	for i, f := range batch {
		files[i] = api.UploadFile{LocalPath: f.LocalPath}
		paths[i] = f.RelPath
	}

	encoded, err := json.Marshal(paths)
	if err != nil {
		return err
	}
	fields := map[string]string{"paths": string(encoded)}
	if parentID != "" {
		fields["rootParentId"] = parentID
	}

	var resp api.Response[[]api.Node]
	return apiClient.Upload("/upload-folder", files, fields, &resp)
}
