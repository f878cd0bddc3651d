package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bookscan/internal/isbn"
	"bookscan/internal/recordstore"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect stored book records",
	}
	recordsCmd.AddCommand(newRecordsListCommand(ctx))
	recordsCmd.AddCommand(newRecordsShowCommand(ctx))
	return recordsCmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := withReadOnlyStore(cmd.Context(), ctx, func(store *recordstore.Store) ([]recordstore.Entry, error) {
				return store.List(cmd.Context())
			})
			if err != nil {
				return err
			}
			if asJSON {
				if entries == nil {
					entries = []recordstore.Entry{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No records stored")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Record.ISBN,
					entry.Record.Title,
					entry.Record.Author,
					entry.Record.PubDate,
					entry.Record.Publisher,
					entry.UpdatedAt.Local().Format(time.DateTime),
				})
			}
			headers := []string{"ISBN", "Title", "Author", "Published", "Publisher", "Updated"}
			fmt.Fprintln(out, renderTable(headers, rows, nil))
			fmt.Fprintf(out, "%d record(s)\n", len(entries))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newRecordsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <isbn>",
		Short: "Show one stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := isbn.Normalize(args[0])
			entry, err := withReadOnlyStore(cmd.Context(), ctx, func(store *recordstore.Store) (*recordstore.Entry, error) {
				return store.Get(cmd.Context(), key)
			})
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("no record stored for ISBN %s", key)
			}
			if asJSON {
				return writeJSON(cmd, entry)
			}

			out := cmd.OutOrStdout()
			rows := [][]string{{"isbn", entry.Record.ISBN}}
			for _, field := range entry.Record.Fields() {
				rows = append(rows, []string{field.Label, field.Value})
			}
			if entry.Source != "" {
				rows = append(rows, []string{"source", entry.Source})
			}
			rows = append(rows, []string{"updated", entry.UpdatedAt.Local().Format(time.RFC3339)})
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

// withReadOnlyStore opens the store under a shared lock for fn. A store that
// has never been written yields the zero value.
func withReadOnlyStore[T any](ctx context.Context, cc *commandContext, fn func(*recordstore.Store) (T, error)) (T, error) {
	var zero T
	cfg, err := cc.ensureConfig()
	if err != nil {
		return zero, err
	}
	store, err := recordstore.Open(ctx, recordstore.Options{
		Path:        strings.TrimSpace(cfg.Store.Path),
		LockTimeout: cfg.StoreLockTimeout(),
		ReadOnly:    true,
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zero, nil
		}
		return zero, err
	}
	result, err := fn(store)
	if closeErr := store.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return result, err
}
