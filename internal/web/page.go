package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/sustainix/sustainix/internal/store"
	"github.com/sustainix/sustainix/internal/taxonomy"
)

// indexPage renders the landing page: an upload form and the recent
// conversion history.
func indexPage(tax *taxonomy.Taxonomy, runs []store.Run) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Sustainability report converter</title></head><body><header><h1>Sustainability report converter</h1><p class="taxonomy">%s</p></header>`,
			templ.EscapeString(tax.EntryPoint())); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<section><h2>Upload workbook</h2>`+
			`<form method="post" action="/api/upload" enctype="multipart/form-data">`+
			`<input type="file" name="workbook" accept=".xlsx" required>`+
			`<button type="submit">Convert</button></form></section>`); err != nil {
			return err
		}
		if err := runHistory(runs).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func runHistory(runs []store.Run) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(runs) == 0 {
			_, err := io.WriteString(w, `<section><h2>Recent conversions</h2><p>No conversions yet.</p></section>`)
			return err
		}
		if _, err := io.WriteString(w, `<section><h2>Recent conversions</h2><table><thead><tr>`+
			`<th>File</th><th>Entity</th><th>Facts</th><th>Status</th><th>When</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, run := range runs {
			status := "ok"
			if !run.Success {
				status = "failed"
			}
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td><td class="num">%d</td><td>%s</td><td>%s</td></tr>`,
				templ.EscapeString(run.FileName),
				templ.EscapeString(run.Entity),
				run.FactCount,
				status,
				templ.EscapeString(run.CreatedAt.Format("2006-01-02 15:04"))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table></section>`)
		return err
	})
}
