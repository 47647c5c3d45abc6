package internal

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
)

var (
	senderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// FormatMessage renders one message as "[15:04] sender: text".
func FormatMessage(m gitter.Message) string {
	sender := m.Sender()
	if sender == "" {
		sender = "?"
	}
	stamp := "--:--"
	if !m.Sent.IsZero() {
		stamp = m.Sent.Local().Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%s %s %s",
		timeStyle.Render("["+stamp+"]"),
		senderStyle.Render(sender+":"),
		m.Text,
	)
}

// PrintTable writes rows under headers as a bordered table.
func PrintTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}
