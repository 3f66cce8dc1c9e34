package pathutil

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/corpdrive/server/internal/cli/api"
	"github.com/google/uuid"
)

// Resolve converts a path such as "/Documents/Reports" to the id of its last
// segment by walking the tree from the top level. An empty or "/" path is the
// top level and yields "". A UUID is returned unchanged.
func Resolve(client *api.Client, path string) (string, error) {
	path = strings.TrimSpace(path)

	if path == "" || path == "/" || path == "." {
		return "", nil
	}
	if isUUID(path) {
		return path, nil
	}

	parts := Split(path)
	currentID := ""

	for i, segment := range parts {
		children, err := listChildren(client, currentID)
		if err != nil {
			return "", fmt.Errorf("listing %q: %w", segment, err)
		}

		match, err := pick(children, segment, i < len(parts)-1)
		if err != nil {
			return "", err
		}
		currentID = match.ID
	}

	return currentID, nil
}

// Split breaks a remote path into its non-empty segments.
func Split(path string) []string {
	var parts []string
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment != "" && segment != "." {
			parts = append(parts, segment)
		}
	}
	return parts
}

// pick chooses the child called name. Names are case-sensitive on the
// server; a case-insensitive match is accepted only when it is unique.
// Intermediate segments must be folders.
func pick(children []api.Node, name string, wantFolder bool) (api.Node, error) {
	var exact, folded []api.Node
	for _, child := range children {
		if wantFolder && !child.IsFolder() {
			continue
		}
		switch {
		case child.Name == name:
			exact = append(exact, child)
		case strings.EqualFold(child.Name, name):
			folded = append(folded, child)
		}
	}

	candidates := exact
	if len(candidates) == 0 {
		candidates = folded
	}
	switch len(candidates) {
	case 0:
		return api.Node{}, fmt.Errorf("not found: %s", name)
	case 1:
		return candidates[0], nil
	}

	// Folders are unique among siblings, files are not.
	for _, c := range candidates {
		if c.IsFolder() && c.Name == name {
			return c, nil
		}
	}
	return api.Node{}, fmt.Errorf("%q is ambiguous (%d matches), use its id instead", name, len(candidates))
}

func listChildren(client *api.Client, parentID string) ([]api.Node, error) {
	params := url.Values{}
	if parentID != "" {
		params.Set("parentId", parentID)
	}

	var resp api.Response[[]api.Node]
	if err := client.Get("/browse", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("api error: %s", resp.Error)
	}
	return resp.Data, nil
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
