package report

import (
	"fmt"
	"io"
	"sort"
)

type MarkdownReporter struct {
	Writer io.Writer
}

func (r MarkdownReporter) Report(report SplitReport) error {
	if _, err := fmt.Fprintf(r.Writer, "# Split Report\n\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(r.Writer, "- Manifest: %s\n- Total: %d\n\n", report.ManifestName, report.Total); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(r.Writer, "| Partition | Count | Fraction |\n|---|---|---|\n"); err != nil {
		return err
	}
	for _, p := range Partitions {
		if _, err := fmt.Fprintf(r.Writer, "| %s | %d | %.2f |\n", p, report.Counts[p], report.Fraction(p)); err != nil {
			return err
		}
	}

	if len(report.Labels) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(r.Writer, "\n## Labels\n\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(r.Writer, "| Label | Train | Valid | Test |\n|---|---|---|---|\n"); err != nil {
		return err
	}

	labels := make([]string, 0, len(report.Labels))
	for label := range report.Labels {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		counts := report.Labels[label]
		if _, err := fmt.Fprintf(r.Writer, "| %s | %d | %d | %d |\n",
			label, counts[Partitions[0]], counts[Partitions[1]], counts[Partitions[2]]); err != nil {
			return err
		}
	}
	return nil
}
