package report

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode selects the table output format.
type Mode int

const (
	Text     Mode = iota // fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// Table is a thin builder over go-pretty that renders in a fixed Mode.
type Table struct {
	w    table.Writer
	mode Mode
}

// NewTable returns an empty table rendering in m.
func NewTable(m Mode) *Table {
	w := table.NewWriter()
	if m == Text {
		w.SetStyle(table.StyleLight)
	}
	return &Table{w: w, mode: m}
}

// Header sets the column headers.
func (t *Table) Header(cols ...any) {
	t.w.AppendHeader(table.Row(cols))
}

// Row appends a data row.
func (t *Table) Row(vals ...any) {
	t.w.AppendRow(table.Row(vals))
}

// Footer appends a footer row.
func (t *Table) Footer(vals ...any) {
	t.w.AppendFooter(table.Row(vals))
}

// AlignRight right-aligns the given 1-based columns.
func (t *Table) AlignRight(cols ...int) {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, n := range cols {
		cfgs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight, AlignFooter: text.AlignRight}
	}
	t.w.SetColumnConfigs(cfgs)
}

// String renders the table.
func (t *Table) String() string {
	if t.mode == Markdown {
		return t.w.RenderMarkdown()
	}
	return t.w.Render()
}
