package tree

import (
	"bytes"
	"sort"

	"github.com/corpdrive/server/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortNodes orders siblings the way listings are shown: folders first, then
// by name with digit runs compared numerically ("file2" before "file10").
// Equal names fall back to creation order.
func SortNodes(nodes []models.Node) {
	// Collators are not safe for concurrent use.
	col := collate.New(language.Und, collate.Numeric)

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := &nodes[i], &nodes[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		if cmp := col.CompareString(a.Name, b.Name); cmp != 0 {
			return cmp < 0
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
}
