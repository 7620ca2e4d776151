// Package report renders split summaries.
package report

import (
	"github.com/bogdanteleaga/hear-eval-kit/pkg/manifest"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/split"
)

// SplitReport summarizes how a manifest divided into partitions.
type SplitReport struct {
	ManifestName string                             `json:"manifest_name" yaml:"manifest_name"`
	Total        int                                `json:"total" yaml:"total"`
	Counts       map[split.Partition]int            `json:"counts" yaml:"counts"`
	Labels       map[string]map[split.Partition]int `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Reporter writes a split report.
type Reporter interface {
	Report(report SplitReport) error
}

const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Partitions is the fixed rendering order.
var Partitions = []split.Partition{split.Train, split.Valid, split.Test}

// Build summarizes assigned entries.
func Build(name string, entries []manifest.Entry) SplitReport {
	report := SplitReport{
		ManifestName: name,
		Total:        len(entries),
		Counts:       map[split.Partition]int{},
		Labels:       map[string]map[split.Partition]int{},
	}
	for _, entry := range entries {
		report.Counts[entry.Partition]++
		if entry.Label != "" {
			if report.Labels[entry.Label] == nil {
				report.Labels[entry.Label] = map[split.Partition]int{}
			}
			report.Labels[entry.Label][entry.Partition]++
		}
	}
	if len(report.Labels) == 0 {
		report.Labels = nil
	}
	return report
}

// Fraction returns the share of entries in a partition.
func (r SplitReport) Fraction(p split.Partition) float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Counts[p]) / float64(r.Total)
}
