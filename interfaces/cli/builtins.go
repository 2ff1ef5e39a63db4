package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/memory"
	"github.com/dokkiitech/LinkDeck-sub000/pack/builtin"
)

func (a *App) newBuiltinsCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "builtins",
		Short: "List builtin capabilities",
		Long: `List the builtin tools, skills and sub-agents that a configuration can
enable under tools.builtin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := memory.NewRegistry()
			if err := builtin.Register(registry, builtin.Names(), builtin.WithRoot(root)); err != nil {
				return err
			}
			return a.listCapabilities(registry)
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Directory file tools are confined to")

	return cmd
}

func (a *App) listCapabilities(r *memory.Registry) error {
	type line struct {
		kind capability.Kind
		name string
		desc string
	}
	var rows []line
	for _, t := range r.Tools() {
		rows = append(rows, line{capability.KindTool, t.Name(), t.Description()})
	}
	for _, s := range r.Skills() {
		rows = append(rows, line{capability.KindSkill, s.Name(), s.Description()})
	}
	for _, w := range r.Subworkers() {
		rows = append(rows, line{capability.KindSubworker, w.Name(), w.Description()})
	}

	_, _ = fmt.Fprintf(a.stdout, "Builtin capabilities (%d):\n", len(rows))
	for _, row := range rows {
		_, _ = fmt.Fprintf(a.stdout, "  %-10s %-16s %s\n", row.kind, row.name, row.desc)
	}
	return nil
}
