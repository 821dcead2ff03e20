// Package report builds, renders, and persists per-cycle summaries of the
// catalog build and update runs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// CategoryCount is one category's row count in a summary.
type CategoryCount struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Rows       int    `json:"rows"`
}

// Report summarizes one engine cycle.
type Report struct {
	RunID                string          `json:"run_id"`
	Mode                 string          `json:"mode"`
	StartedAt            time.Time       `json:"started_at"`
	FinishedAt           time.Time       `json:"finished_at"`
	ShardIndex           int             `json:"shard_index"`
	TotalRows            int             `json:"total_rows"`
	Categories           int             `json:"categories"`
	CheckedRows          int             `json:"checked_rows"`
	UpdatedRows          int             `json:"updated_rows"`
	NewRows              int             `json:"new_rows"`
	TopCategories        []CategoryCount `json:"top_categories"`
	IncompleteCategories []string        `json:"incomplete_categories"`
	SnapshotPath         string          `json:"snapshot_path"`
	Uploaded             bool            `json:"uploaded"`
}

// TopCategories ranks categories by row count, largest first, ties broken by
// category id, and keeps the first n.
func TopCategories(sizes map[string]int, names map[string]string, n int) []CategoryCount {
	out := make([]CategoryCount, 0, len(sizes))
	for id, rows := range sizes {
		out = append(out, CategoryCount{CategoryID: id, Name: names[id], Rows: rows})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rows != out[j].Rows {
			return out[i].Rows > out[j].Rows
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Write persists the report as JSON under dir and returns the file path.
func Write(dir string, rep *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("report_%s.json", rep.FinishedAt.UTC().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Render prints the cycle summary as a table.
func Render(w io.Writer, rep *Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("catalog %s cycle %s", rep.Mode, rep.RunID))

	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"total products", rep.TotalRows},
		{"categories", rep.Categories},
		{"checked", rep.CheckedRows},
		{"updated", rep.UpdatedRows},
		{"new", rep.NewRows},
		{"incomplete categories", len(rep.IncompleteCategories)},
		{"duration", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Second)},
	})
	t.Render()

	if len(rep.TopCategories) == 0 {
		return
	}
	top := table.NewWriter()
	top.SetOutputMirror(w)
	top.SetStyle(table.StyleLight)
	top.SetTitle("top categories")
	top.AppendHeader(table.Row{"ID", "Name", "Rows"})
	for _, c := range rep.TopCategories {
		top.AppendRow(table.Row{c.CategoryID, c.Name, c.Rows})
	}
	top.Render()
}
