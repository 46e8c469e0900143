package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/termwiki/internal/document"
	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
	"github.com/Aman-CERP/termwiki/internal/output"
)

const defaultSearchLimit = 20

type searchResult struct {
	Query string           `json:"query"`
	Terms []*document.Term `json:"terms"`
	Total int              `json:"total"`
}

func newSearchCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find terms whose name contains a substring",
		Example: `  termwiki search 伤害
  termwiki search crit --limit 5 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(args[0])
			if query == "" {
				return wikierrors.New(wikierrors.ErrCodeQueryEmpty, "search query is empty", nil)
			}

			_, eng, err := buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			terms := eng.coordinator.Snapshot().Search(query)
			res := searchResult{Query: query, Terms: terms, Total: len(terms)}
			if limit > 0 && len(res.Terms) > limit {
				res.Terms = res.Terms[:limit]
			}
			if res.Terms == nil {
				res.Terms = []*document.Term{}
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			out := output.New(cmd.OutOrStdout())
			if res.Total == 0 {
				out.Warningf("No terms match %q", query)
				return nil
			}
			for i, t := range res.Terms {
				if i > 0 {
					out.Newline()
				}
				out.Term(t)
			}
			if res.Total > len(res.Terms) {
				out.Newline()
				out.Statusf("", "Showing %d of %d", len(res.Terms), res.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultSearchLimit, "Maximum number of terms (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
