// Package cmd provides the CLI commands for termwiki.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
	"github.com/Aman-CERP/termwiki/internal/logging"
	"github.com/Aman-CERP/termwiki/internal/profiling"
	"github.com/Aman-CERP/termwiki/pkg/version"
)

// Persistent flags
var (
	debugMode  bool
	projectDir string
	configFile string
)

// Profiling flags
var (
	profileOpts profiling.Options
	profiler    *profiling.Session
)

var loggingCleanup func()

// NewRootCmd creates the root command for the termwiki CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "termwiki",
		Short: "Live glossary index for markdown design docs",
		Long: `termwiki indexes the glossary terms and formulas defined in a tree of
markdown documents and keeps the index current as files change.

Terms are defined inline as 【name】：definition, or by a document whose
frontmatter lists aliases. References resolve to the nearest definition:
inline in the same document first, then the same scope, then global.

Run 'termwiki serve' in your docs project to start the HTTP API, or
'termwiki serve --mcp' to expose the index to an AI assistant.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("termwiki version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.termwiki/logs/")
	cmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", "", "Project directory (default: nearest parent with .termwiki.yaml or .git)")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file to use instead of the user and project files")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging installs file logging under --debug, otherwise
// warnings and errors go to stderr. The stdio MCP server replaces either
// setup.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if profileOpts.Enabled() {
		s, err := profiling.Start(profileOpts)
		if err != nil {
			return err
		}
		profiler = s
	}

	if !debugMode {
		logging.SetupStderr("warn")
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("Debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()),
		slog.String("version", version.Version))
	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if profiler != nil {
		err := profiler.Stop()
		profiler = nil
		if err != nil {
			return fmt.Errorf("failed to write profiles: %w", err)
		}
	}

	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, wikierrors.FormatForCLI(err))
	}
	return err
}
