package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

type CSVReporter struct {
	Writer io.Writer
}

func (r CSVReporter) Report(report SplitReport) error {
	writer := csv.NewWriter(r.Writer)
	if err := writer.Write([]string{"partition", "count", "fraction"}); err != nil {
		return err
	}
	for _, p := range Partitions {
		record := []string{
			string(p),
			strconv.Itoa(report.Counts[p]),
			strconv.FormatFloat(report.Fraction(p), 'f', 4, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
