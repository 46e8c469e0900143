package cmd

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/termwiki/internal/output"
)

// buildEngine loads the project and indexes it once.
func buildEngine(ctx context.Context) (*project, *engine, error) {
	p, err := loadProject()
	if err != nil {
		return nil, nil, err
	}
	eng := p.newEngine(engineOptions{})
	if _, err := eng.coordinator.Rebuild(ctx); err != nil {
		return nil, nil, err
	}
	return p, eng, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newResolveCmd() *cobra.Command {
	var (
		scope      string
		path       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <ref>",
		Short: "Look up a term reference",
		Long: `Resolve a reference written as name or scope/name to its definitions,
best match first. Pass --scope and --path to resolve the reference as if it
appeared in that document, so that local definitions win.

When nothing matches, names within a small edit distance are suggested.`,
		Example: `  termwiki resolve 暴击
  termwiki resolve combat/暴击伤害
  termwiki resolve 暴击 --scope combat --path combat/crit.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, eng, err := buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			res, err := eng.resolver.ResolveTerm(args[0], scope, path)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			output.New(cmd.OutOrStdout()).Resolution(args[0], res)
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "Scope of the referring document")
	cmd.Flags().StringVar(&path, "path", "", "Path of the referring document, relative to the docs root")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newSuggestCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "suggest <name>",
		Short: "List names spelled close to a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, eng, err := buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			suggestions := eng.resolver.ApproximateMatches(args[0])
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), suggestions)
			}
			out := output.New(cmd.OutOrStdout())
			if len(suggestions) == 0 {
				out.Warningf("No names close to %q", args[0])
				return nil
			}
			out.Suggestions(suggestions)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
