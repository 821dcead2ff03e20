package cmd

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/persist"
)

// newCategoriesCmd creates the command that lists the current catalog's
// categories and their sizes.
func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories of the current catalog with row counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			current := persist.NewStore(persist.Config{
				Dir:         a.Config.Catalog.Dir,
				CurrentName: a.Config.Catalog.CurrentName,
			}, a.Logger).CurrentPath()
			c, err := persist.Load(current)
			if err != nil {
				return fmt.Errorf("no current catalog at %s, run 'catalogctl build' first: %w", current, err)
			}

			sizes := c.CategorySizes()
			names := c.CategoryNames()
			ids := make([]string, 0, len(sizes))
			for id := range sizes {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool {
				if sizes[ids[i]] != sizes[ids[j]] {
					return sizes[ids[i]] > sizes[ids[j]]
				}
				return ids[i] < ids[j]
			})

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Rows"})
			for _, id := range ids {
				t.AppendRow(table.Row{id, names[id], sizes[id]})
			}
			t.AppendFooter(table.Row{"", "total", c.Len()})
			t.Render()
			return nil
		},
	}
}
