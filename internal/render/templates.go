package render

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/sustainix/sustainix/internal/convert"
	"github.com/sustainix/sustainix/internal/report"
	"github.com/sustainix/sustainix/internal/taxonomy"
	"github.com/sustainix/sustainix/internal/xbrl"
)

// Document renders the full report page: document header, then every
// section in presentation order.
func Document(tax *taxonomy.Taxonomy, model *report.Model) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`+
			templ.EscapeString(model.Entity)+` sustainability report</title></head><body class="report">`); err != nil {
			return err
		}
		if err := header(model).Render(ctx, w); err != nil {
			return err
		}
		for _, section := range model.Sections {
			if err := Section(tax, section).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func header(model *report.Model) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<header><h1>%s</h1><p class="taxonomy">%s</p></header>`,
			templ.EscapeString(model.Entity), templ.EscapeString(model.Taxonomy))
		return err
	})
}

// Section renders one section as a list or a table per its style.
func Section(tax *taxonomy.Taxonomy, s *report.Section) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section><h2>%s</h2>`, templ.EscapeString(s.Title)); err != nil {
			return err
		}
		var err error
		if s.Style == taxonomy.StyleTable {
			err = table(tax, s.Table).Render(ctx, w)
		} else {
			err = list(tax, s.Rows).Render(ctx, w)
		}
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, `</section>`)
		return err
	})
}

func list(tax *taxonomy.Taxonomy, rows []report.ListRow) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<dl class="facts">`); err != nil {
			return err
		}
		for _, row := range rows {
			if _, err := fmt.Fprintf(w, `<dt>%s</dt><dd>%s</dd>`,
				templ.EscapeString(row.Label),
				templ.EscapeString(factText(tax, row.Fact))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</dl>`)
		return err
	})
}

func table(tax *taxonomy.Taxonomy, t *report.Table) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<table><thead>`); err != nil {
			return err
		}
		for _, hr := range t.HeadingRows {
			if _, err := io.WriteString(w, `<tr><th></th>`); err != nil {
				return err
			}
			for _, cell := range hr.Cells {
				if _, err := fmt.Fprintf(w, `<th colspan="%d">%s</th>`,
					cell.Span, templ.EscapeString(cell.Text)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</tr>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</thead><tbody>`); err != nil {
			return err
		}
		for i, row := range t.Grid {
			head := t.RowHeaders[i]
			label := head.Label
			if head.Unit != "" {
				label += " (" + head.Unit + ")"
			}
			if _, err := fmt.Fprintf(w, `<tr><th scope="row">%s</th>`, templ.EscapeString(label)); err != nil {
				return err
			}
			for _, f := range row {
				cls := "text"
				text := ""
				if f != nil {
					text = FormatValue(tax, f)
					if f.Numeric() {
						cls = "num"
					}
				}
				if _, err := fmt.Fprintf(w, `<td class="%s">%s</td>`, cls, templ.EscapeString(text)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</tr>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}

// Messages renders a conversion's diagnostics at or above the given
// severity, as a flat list for the web error surface.
func Messages(msgs []convert.Message) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(msgs) == 0 {
			_, err := io.WriteString(w, `<p class="no-messages">No messages.</p>`)
			return err
		}
		if _, err := io.WriteString(w, `<ul class="messages">`); err != nil {
			return err
		}
		for _, m := range msgs {
			if _, err := fmt.Fprintf(w, `<li class="%s">%s</li>`,
				templ.EscapeString(m.Severity.String()), templ.EscapeString(m.String())); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	})
}

func factText(tax *taxonomy.Taxonomy, f *xbrl.Fact) string {
	text := FormatValue(tax, f)
	if suffix := UnitSuffix(f); suffix != "" && f.Value.Kind == xbrl.KindNumber {
		text += " " + suffix
	}
	return text
}
