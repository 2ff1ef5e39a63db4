package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	infraconfig "github.com/dokkiitech/LinkDeck-sub000/infrastructure/config"
)

type validateOptions struct {
	configPath string
	strict     bool
	showSchema bool
}

func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate an agent configuration file.

This command checks:
  - File format (YAML or JSON) and unknown fields
  - Required fields and value ranges
  - Provider, planner and builtin names
  - That the policy module compiles and the audit database opens
  - Environment variable references (in strict mode)

Examples:
  agent validate -c agent.yaml
  agent validate -c agent.yaml --strict
  agent validate --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.writeSchema("")
			}
			return a.validateConfig(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on unset environment variables")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Print the configuration JSON schema")

	return cmd
}

func (a *App) validateConfig(cmd *cobra.Command, opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	cfg, err := infraconfig.NewLoader(infraconfig.WithStrictEnv(opts.strict)).LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	built, err := infraconfig.NewBuilder(cfg, infraconfig.WithBaseDir(filepath.Dir(opts.configPath))).Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("configuration build failed: %w", err)
	}
	defer func() { _ = built.Close() }()

	_, _ = fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	_, _ = fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	_, _ = fmt.Fprintf(a.stdout, "  Version: %s\n", cfg.Version)
	if cfg.Description != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Description: %s\n", cfg.Description)
	}

	_, _ = fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(a.stdout, "  Provider: %s\n", built.Provider.Name())
	_, _ = fmt.Fprintf(a.stdout, "  Max iterations: %d\n", cfg.Agent.MaxIterations)
	_, _ = fmt.Fprintf(a.stdout, "  Capabilities: %d\n", built.Registry.Count())
	if len(built.Hooks) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Hooks (%d):\n", len(built.Hooks))
		for _, h := range built.Hooks {
			_, _ = fmt.Fprintf(a.stdout, "    - %s (%s)\n", h.Name, h.Type)
		}
	}
	if built.AuditStore != nil {
		_, _ = fmt.Fprintf(a.stdout, "  Audit store: %s\n", cfg.Hooks.Logging.Audit.SQLitePath)
	}
	return nil
}
