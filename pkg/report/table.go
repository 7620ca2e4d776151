package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/bogdanteleaga/hear-eval-kit/pkg/split"
)

var partitionStyles = map[split.Partition]lipgloss.Style{
	split.Train: lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
	split.Valid: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	split.Test:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
}

type TableReporter struct {
	Writer io.Writer
}

func (r TableReporter) Report(report SplitReport) error {
	table := tablewriter.NewWriter(r.Writer)
	table.Header([]string{"Partition", "Count", "Fraction"})
	for _, p := range Partitions {
		table.Append([]string{
			r.render(p),
			fmt.Sprintf("%d", report.Counts[p]),
			fmt.Sprintf("%.2f", report.Fraction(p)),
		})
	}
	table.Append([]string{"total", fmt.Sprintf("%d", report.Total), "1.00"})
	table.Render()
	return nil
}

func (r TableReporter) render(p split.Partition) string {
	if !isTerminal(r.Writer) {
		return string(p)
	}
	style, ok := partitionStyles[p]
	if !ok {
		return string(p)
	}
	return style.Render(string(p))
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
