package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/termwiki/internal/config"
	"github.com/Aman-CERP/termwiki/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Create and inspect termwiki configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/termwiki/config.yaml)
  3. Project config (.termwiki.yaml)
  4. Environment variables (TERMWIKI_*)`,
		Example: `  # Create .termwiki.yaml in the project root
  termwiki config init

  # Show effective configuration
  termwiki config show

  # Print config file paths
  termwiki config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, user bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Long: `Write the default configuration to .termwiki.yaml in the project root, or
to the user config file with --user. An existing file is kept unless
--force is given, in which case it is backed up first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, user, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a backup is kept)")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print config file paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := projectRoot()
			if err != nil {
				return err
			}
			projectPath, _ := config.ProjectConfigPath(root)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user:    %s\nproject: %s\n", config.GetUserConfigPath(), projectPath)
			return nil
		},
	}
}

func runConfigInit(cmd *cobra.Command, user, force bool) error {
	out := output.New(cmd.OutOrStdout())

	var path string
	if user {
		path = config.GetUserConfigPath()
	} else {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		path, _ = config.ProjectConfigPath(root)
	}

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Status("💡", "Use --force to overwrite it (a backup is kept)")
			return nil
		}
		backup, err := config.BackupFile(path)
		if err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
		out.Statusf("💾", "Backup: %s", backup)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.NewConfig().WriteYAML(path); err != nil {
		return err
	}

	out.Success("Wrote default configuration")
	out.Statusf("📁", "Location: %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	root, err := projectRoot()
	if err != nil {
		return err
	}

	var (
		cfg  *config.Config
		desc string
	)
	switch source {
	case "merged":
		cfg, err = loadConfig(root)
		if err != nil {
			return err
		}
		desc = "merged (defaults + user + project + env)"
		if configFile != "" {
			desc = fmt.Sprintf("%s (+ env)", configFile)
		}
	case "user":
		path := config.GetUserConfigPath()
		if !config.UserConfigExists() {
			out.Warning("No user configuration file found")
			out.Statusf("📁", "Expected at: %s", path)
			out.Status("💡", "Run 'termwiki config init --user' to create one")
			return nil
		}
		if cfg, err = readConfigFile(path); err != nil {
			return err
		}
		desc = fmt.Sprintf("user (%s)", path)
	case "project":
		path, ok := config.ProjectConfigPath(root)
		if !ok {
			out.Warning("No project configuration file found")
			out.Statusf("📁", "Expected at: %s", path)
			out.Status("💡", "Run 'termwiki config init' to create one")
			return nil
		}
		if cfg, err = readConfigFile(path); err != nil {
			return err
		}
		desc = fmt.Sprintf("project (%s)", path)
	case "defaults":
		cfg = config.NewConfig()
		desc = "defaults (hardcoded)"
	default:
		return fmt.Errorf("invalid source: %s (use: merged, user, project, defaults)", source)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), cfg)
	}

	out.Statusf("📋", "Configuration source: %s", desc)
	out.Newline()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

// readConfigFile reads one file over the defaults, without env overrides.
func readConfigFile(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := config.NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
