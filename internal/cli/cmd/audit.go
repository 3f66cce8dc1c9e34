package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/corpdrive/server/internal/cli/api"
	"github.com/corpdrive/server/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	flagAuditPage  int
	flagAuditLimit int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent activity on the company drive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		params := url.Values{
			"page":  {strconv.Itoa(flagAuditPage)},
			"limit": {strconv.Itoa(flagAuditLimit)},
		}
		var resp api.Response[[]api.AuditEntry]
		if err := apiClient.Get("/audit", params, &resp); err != nil {
			return fmt.Errorf("loading audit trail: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}

		output.AuditTable(resp.Data)
		if p := resp.Pagination; p != nil && p.TotalPages > 1 {
			fmt.Printf("\nPage %d of %d (%d entries)\n", p.Page, p.TotalPages, p.Total)
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().IntVar(&flagAuditPage, "page", 1, "Page number")
	auditCmd.Flags().IntVar(&flagAuditLimit, "limit", 20, "Entries per page (max 100)")
	rootCmd.AddCommand(auditCmd)
}
