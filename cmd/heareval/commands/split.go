package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bogdanteleaga/hear-eval-kit/pkg/manifest"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/report"
)

func newSplitCommand() *cobra.Command {
	var (
		manifestPath string
		validPct     int
		testPct      int
		format       string
		outputPath   string
		outDir       string
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Assign train/valid/test partitions to a manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifestPath == "" {
				return errors.New("manifest path is required")
			}
			validResolved := resolvePct(cmd, "valid-pct", validPct, appConfig.ValidPct, 10)
			testResolved := resolvePct(cmd, "test-pct", testPct, appConfig.TestPct, 10)
			formatResolved := resolveString(format, appConfig.Format)
			if formatResolved == "" {
				formatResolved = report.FormatTable
			}
			outputResolved := resolveString(outputPath, appConfig.Output)

			m := manifest.NewFileManifest(manifestPath)
			entries, err := manifest.AssignPartitions(context.Background(), m, validResolved, testResolved)
			if err != nil {
				return err
			}

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
				for partition, group := range manifest.ByPartition(entries) {
					path := filepath.Join(outDir, string(partition)+".json")
					if err := manifest.WriteJSON(path, group); err != nil {
						return err
					}
				}
			}

			writer := cmd.OutOrStdout()
			if outputResolved != "" {
				file, err := os.Create(outputResolved)
				if err != nil {
					return err
				}
				defer file.Close()
				writer = file
			}

			rep, err := buildReporter(formatResolved, writer)
			if err != nil {
				return err
			}
			return rep.Report(report.Build(m.Name(), entries))
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "path to manifest file (.json or .jsonl)")
	cmd.Flags().IntVar(&validPct, "valid-pct", 0, "validation percentage")
	cmd.Flags().IntVar(&testPct, "test-pct", 0, "testing percentage")
	cmd.Flags().StringVar(&format, "format", "", "summary format (table, json, csv, markdown)")
	cmd.Flags().StringVar(&outputPath, "output", "", "summary output file path")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for per-partition manifests")

	return cmd
}

func buildReporter(format string, writer io.Writer) (report.Reporter, error) {
	switch format {
	case report.FormatTable:
		return report.TableReporter{Writer: writer}, nil
	case report.FormatJSON:
		return report.JSONReporter{Writer: writer, Pretty: true}, nil
	case report.FormatCSV:
		return report.CSVReporter{Writer: writer}, nil
	case report.FormatMarkdown:
		return report.MarkdownReporter{Writer: writer}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
