package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/corpdrive/server/internal/cli/api"
)

// Stdout is where tables and JSON are written.
var Stdout io.Writer = os.Stdout

// JSON prints v as indented JSON.
func JSON(v interface{}) {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// NodeTable prints a folder listing.
func NodeTable(nodes []api.Node) {
	if len(nodes) == 0 {
		fmt.Fprintln(Stdout, "Folder is empty.")
		return
	}

	w := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tTYPE\tMODIFIED")

	for _, n := range nodes {
		name, size, kind := n.Name, FormatSize(n.Size), shortMIME(n.MimeType)
		if n.IsFolder() {
			name += "/"
			size = "-"
			kind = "dir"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, size, kind, RelativeTime(n.UpdatedAt))
	}
	w.Flush()
}

// MatchTable prints search hits next to their paths.
func MatchTable(paths []string, nodes []api.Node) {
	if len(nodes) == 0 {
		fmt.Fprintln(Stdout, "No matches.")
		return
	}

	w := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tSIZE\tID")
	for i, n := range nodes {
		path, size := "/"+paths[i], FormatSize(n.Size)
		if n.IsFolder() {
			path += "/"
			size = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", path, size, n.ID)
	}
	w.Flush()
}

// AuditTable prints audit trail entries, newest first as served.
func AuditTable(entries []api.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(Stdout, "No activity recorded.")
		return
	}

	w := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tTARGET\tIP")
	for _, e := range entries {
		target := e.ResourceType
		if name, ok := e.Details["name"].(string); ok && name != "" {
			target += " " + name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", RelativeTime(e.CreatedAt), e.Action, target, e.IPAddress)
	}
	w.Flush()
}

// NodeDetail prints a single node and, when known, its location.
func NodeDetail(n api.Node, path []api.Node) {
	w := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", n.Name)
	fmt.Fprintf(w, "ID:\t%s\n", n.ID)
	fmt.Fprintf(w, "Type:\t%s\n", n.Type)
	if len(path) > 0 {
		fmt.Fprintf(w, "Path:\t%s\n", JoinPath(path))
	}
	if !n.IsFolder() {
		fmt.Fprintf(w, "MIME:\t%s\n", n.MimeType)
		fmt.Fprintf(w, "Size:\t%s\n", FormatSize(n.Size))
		if n.Checksum != "" {
			fmt.Fprintf(w, "Checksum:\t%s\n", n.Checksum)
		}
	}
	if n.ParentID != nil {
		fmt.Fprintf(w, "Parent ID:\t%s\n", *n.ParentID)
	}
	fmt.Fprintf(w, "Created:\t%s\n", n.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Modified:\t%s\n", n.UpdatedAt.Format(time.RFC3339))
	w.Flush()
}

// CompanyInfo prints the authenticated tenant.
func CompanyInfo(c api.Company) {
	w := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Company:\t%s\n", c.CompanyName)
	fmt.Fprintf(w, "ID:\t%s\n", c.ID)
	if !c.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Registered:\t%s\n", c.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
}

// VersionInfo prints the CLI version and, if reachable, the server's.
func VersionInfo(cliVersion string, server *api.VersionInfo) {
	w := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CLI:\t%s\n", cliVersion)
	if server != nil {
		fmt.Fprintf(w, "Server:\t%s\n", server.Version)
		fmt.Fprintf(w, "API:\t%s\n", server.APIVersion)
	} else {
		fmt.Fprintf(w, "Server:\tunreachable\n")
	}
	w.Flush()
}

// JoinPath renders a chain of nodes as /a/b/c.
func JoinPath(chain []api.Node) string {
	names := make([]string, len(chain))
	for i, n := range chain {
		names[i] = n.Name
	}
	return "/" + strings.Join(names, "/")
}

// FormatSize converts bytes to a human-readable string.
func FormatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// RelativeTime formats a timestamp relative to now (e.g. "2h ago").
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// shortMIME turns "application/pdf" into "pdf".
func shortMIME(mime string) string {
	if mime == "" {
		return "-"
	}
	parts := strings.Split(mime, "/")
	if len(parts) != 2 {
		return mime
	}
	s := parts[1]
	if idx := strings.LastIndex(s, "."); idx >= 0 {
		s = s[idx+1:]
	}
	return s
}
