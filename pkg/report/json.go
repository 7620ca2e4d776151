package report

import (
	"encoding/json"
	"io"
)

type JSONReporter struct {
	Writer io.Writer
	Pretty bool
}

func (r JSONReporter) Report(report SplitReport) error {
	encoder := json.NewEncoder(r.Writer)
	if r.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(report)
}
