package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/security/audit"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/sqlite"
)

type auditOptions struct {
	dbPath     string
	runID      string
	limit      int
	jsonOutput bool
	prune      time.Duration
}

func (a *App) newAuditCmd() *cobra.Command {
	opts := &auditOptions{}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show persisted audit entries",
		Long: `Show audit entries written by the audit-trail hook to a sqlite database
(hooks.logging.audit.sqlite_path), newest first.

Examples:
  agent audit --db audit.db
  agent audit --db audit.db --run 2f6c... --limit 50 --json
  agent audit --db audit.db --prune 720h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.OpenAuditStore(opts.dbPath)
			if err != nil {
				return fmt.Errorf("failed to open audit store: %w", err)
			}
			defer func() { _ = store.Close() }()

			if opts.prune > 0 {
				n, err := store.Prune(cmd.Context(), opts.prune)
				if err != nil {
					return fmt.Errorf("failed to prune audit entries: %w", err)
				}
				_, _ = fmt.Fprintf(a.stdout, "Pruned %d entries older than %s\n", n, opts.prune)
				return nil
			}

			entries, err := store.List(cmd.Context(), opts.runID, opts.limit)
			if err != nil {
				return fmt.Errorf("failed to list audit entries: %w", err)
			}
			return a.printAudit(entries, opts.jsonOutput)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dbPath, "db", "", "Path to the audit database (required)")
	f.StringVar(&opts.runID, "run", "", "Only show entries of this run")
	f.IntVar(&opts.limit, "limit", 20, "Maximum entries to show (0 = all)")
	f.BoolVar(&opts.jsonOutput, "json", false, "Print entries as JSON")
	f.DurationVar(&opts.prune, "prune", 0, "Delete entries older than this age instead of listing")

	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func (a *App) printAudit(entries []audit.Entry, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []audit.Entry{}
		}
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintf(a.stdout, "No audit entries.\n")
		return nil
	}
	for _, e := range entries {
		action := "-"
		if e.Action != nil {
			action = fmt.Sprintf("%s:%s", e.Action.Kind, e.Action.Target)
		}
		_, _ = fmt.Fprintf(a.stdout, "%s  run=%s  iter=%d  %-12s %s",
			e.Timestamp.UTC().Format(time.RFC3339), shortID(e.RunID), e.Iteration, e.Stage, action)
		if e.Error != "" {
			_, _ = fmt.Fprintf(a.stdout, "  error=%q", e.Error)
		}
		_, _ = fmt.Fprintln(a.stdout)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
