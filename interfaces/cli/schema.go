package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	infraconfig "github.com/dokkiitech/LinkDeck-sub000/infrastructure/config"
)

func (a *App) newExportSchemaCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export-schema",
		Short: "Export the configuration JSON schema",
		Long: `Export the JSON Schema (draft 2020-12) for agent configuration files,
for editor validation and CI checks.

Examples:
  agent export-schema
  agent export-schema -o agent.schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.writeSchema(outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")

	return cmd
}

func (a *App) writeSchema(path string) error {
	data, err := infraconfig.SchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if path == "" {
		_, _ = fmt.Fprintln(a.stdout, string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	_, _ = fmt.Fprintf(a.stdout, "Schema exported to %s\n", path)
	return nil
}
