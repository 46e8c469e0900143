package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
	"github.com/Aman-CERP/termwiki/internal/index"
	"github.com/Aman-CERP/termwiki/internal/output"
	"github.com/Aman-CERP/termwiki/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var (
		jsonOutput bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the index once and report what it holds",
		Long: `Parse every document under the docs directory, build the glossary index
in memory and print its size. Nothing is written to disk; use it to check
a docs tree before serving it.`,
		Example: `  # Check the current project
  termwiki index

  # List documents that failed to parse
  termwiki index --verbose

  # Machine-readable summary
  termwiki index --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, jsonOutput, verbose)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List documents that were skipped")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, jsonOutput, verbose bool) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	eng := p.newEngine(engineOptions{})

	docs, err := p.corpus.ListDocuments(ctx)
	if err != nil {
		return wikierrors.New(wikierrors.ErrCodeIndexFailed, "listing documents failed", err)
	}
	snap, report := eng.store.Rebuild(docs)

	info := statusInfo(p, snap)
	info.Failures = len(report.Failed)

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), !ui.UseColor(cmd.OutOrStdout()))
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	if err := renderer.Render(info); err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	out.Newline()
	if verbose {
		for _, f := range report.Failed {
			out.Warningf("%s: %s", f.Path, f.Err)
		}
	}
	out.Successf("Indexed %d documents in %s", report.Documents, report.Elapsed.Round(time.Millisecond))
	return nil
}

func statusInfo(p *project, snap *index.Snapshot) ui.StatusInfo {
	stats := snap.Stats()
	info := ui.StatusInfo{
		DocsDir:     p.corpus.Root(),
		Documents:   stats.Documents,
		TermKeys:    stats.TermKeys,
		TermEntries: stats.TermEntries,
		Formulas:    stats.Formulas,
		Scopes:      snap.Scopes,
		Version:     stats.Version,
	}
	if stats.BuiltAt > 0 {
		info.LastIndexed = time.UnixMilli(stats.BuiltAt)
	}
	return info
}
