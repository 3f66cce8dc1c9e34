package pathutil

import (
	"fmt"

	"github.com/corpdrive/server/internal/cli/api"
)

// WalkFunc is called for every node below the walk root with its path
// relative to that root.
type WalkFunc func(path string, n api.Node) error

// Walk visits the subtree under folderID depth first, listing one folder per
// request. An empty folderID walks the whole drive.
func Walk(client *api.Client, folderID string, fn WalkFunc) error {
	return walk(client, folderID, "", fn)
}

func walk(client *api.Client, folderID, prefix string, fn WalkFunc) error {
	children, err := listChildren(client, folderID)
	if err != nil {
		return fmt.Errorf("listing %q: %w", "/"+prefix, err)
	}
	for _, child := range children {
		path := child.Name
		if prefix != "" {
			path = prefix + "/" + child.Name
		}
		if err := fn(path, child); err != nil {
			return err
		}
		if child.IsFolder() {
			if err := walk(client, child.ID, path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
