package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/reqsift/reqsift/internal/model"
)

var (
	styleHeader  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleFailure = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// TableWriter renders records as an aligned terminal table. Rows are
// buffered until Close so column widths fit the data.
type TableWriter struct {
	w    io.Writer
	rows [][]string
}

func NewTableWriter(w io.Writer) *TableWriter {
	return &TableWriter{w: w}
}

func (t *TableWriter) Write(rec *model.Record) error {
	t.rows = append(t.rows, rec.Fields())
	return nil
}

// Close computes column widths and prints the table. Failure statuses
// (leading 4 or 5) render red, everything else green.
func (t *TableWriter) Close() error {
	widths := make([]int, len(Header))
	for i, h := range Header {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, h := range Header {
		if _, err := fmt.Fprintf(t.w, "%s  ", styleHeader.Render(pad(h, widths[i]))); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(t.w); err != nil {
		return err
	}

	for _, row := range t.rows {
		for i, cell := range row {
			padded := pad(cell, widths[i])
			switch i {
			case 0:
				padded = styleDim.Render(padded)
			case 4:
				padded = styleStatus(cell).Render(padded)
			}
			if _, err := fmt.Fprintf(t.w, "%s  ", padded); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(t.w); err != nil {
			return err
		}
	}
	return nil
}

func styleStatus(status string) lipgloss.Style {
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		return styleFailure
	}
	return styleOK
}

func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}
