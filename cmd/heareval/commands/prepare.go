package commands

import (
	"context"
	"errors"
	"net/url"
	"path"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bogdanteleaga/hear-eval-kit/pkg/download"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/pipeline"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/tasks"
)

func newPrepareCommand() *cobra.Command {
	var (
		name         string
		version      string
		urls         []string
		outfile      string
		manifestFile string
		workdir      string
		validPct     int
		testPct      int
		workers      int
	)

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Run the corpus preparation pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			nameResolved := resolveString(name, appConfig.Corpus.Name)
			if nameResolved == "" {
				return errors.New("corpus name is required")
			}
			urlsResolved := urls
			if len(urlsResolved) == 0 {
				urlsResolved = appConfig.Corpus.URLs
			}
			if len(urlsResolved) == 0 && appConfig.Corpus.URL != "" {
				urlsResolved = []string{appConfig.Corpus.URL}
			}
			if len(urlsResolved) == 0 {
				return errors.New("corpus url is required")
			}
			versionResolved := resolveString(version, appConfig.Corpus.Version)
			if versionResolved == "" {
				versionResolved = "v1"
			}
			manifestResolved := resolveString(manifestFile, appConfig.Corpus.ManifestFile)
			if manifestResolved == "" {
				manifestResolved = "examples.json"
			}
			workdirResolved := resolveString(workdir, appConfig.Workdir)
			if workdirResolved == "" {
				workdirResolved = "_workdir"
			}
			validResolved := resolvePct(cmd, "valid-pct", validPct, appConfig.ValidPct, 10)
			testResolved := resolvePct(cmd, "test-pct", testPct, appConfig.TestPct, 10)
			workersResolved := resolveInt(workers, appConfig.Workers, 1)

			archives, err := buildArchives(urlsResolved, resolveString(outfile, appConfig.Corpus.Outfile))
			if err != nil {
				return err
			}

			client := &download.Client{MaxRetries: 3}
			if appConfig.Download.MaxRetries > 0 {
				client.MaxRetries = appConfig.Download.MaxRetries
			}
			if appConfig.Download.BackoffMillis > 0 {
				client.Backoff = time.Duration(appConfig.Download.BackoffMillis) * time.Millisecond
			}

			var limiter download.RateLimiter
			if rate := appConfig.Download.RatePerSecond; rate > 0 {
				limiter, err = download.NewLimiter(rate, workersResolved)
				if err != nil {
					return err
				}
			}

			ws, err := pipeline.NewWorkspace(workdirResolved, nameResolved, versionResolved)
			if err != nil {
				return err
			}

			dl := &tasks.DownloadCorpus{
				Archives: archives,
				Client:   client,
				Workers:  workersResolved,
				Limiter:  limiter,
			}
			extract := &tasks.ExtractArchive{Download: dl}
			metadata := &tasks.BuildMetadata{
				Extract:       extract,
				ManifestFile:  manifestResolved,
				ValidationPct: validResolved,
				TestingPct:    testResolved,
			}
			vocab := &tasks.BuildVocabulary{Metadata: metadata}
			stage := &tasks.StagePartitions{Metadata: metadata}

			runner := pipeline.Runner{
				Workspace: ws,
				Logger:    logger,
				Workers:   workersResolved,
			}

			if err := runner.Run(context.Background(), stage, vocab); err != nil {
				return err
			}
			logger.Info("corpus prepared",
				zap.String("corpus", nameResolved),
				zap.Int("archives", len(archives)),
				zap.String("workdir", ws.Dir()))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "corpus name")
	cmd.Flags().StringVar(&version, "version", "", "corpus version")
	cmd.Flags().StringSliceVar(&urls, "url", nil, "corpus archive url (repeatable)")
	cmd.Flags().StringVar(&outfile, "outfile", "", "archive filename (single-url corpora only)")
	cmd.Flags().StringVar(&manifestFile, "manifest-file", "", "manifest path inside the archive")
	cmd.Flags().StringVar(&workdir, "workdir", "", "pipeline working directory")
	cmd.Flags().IntVar(&validPct, "valid-pct", 0, "validation percentage")
	cmd.Flags().IntVar(&testPct, "test-pct", 0, "testing percentage")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of workers per stage")

	return cmd
}

// buildArchives pairs each corpus url with an archive filename. A single
// url may carry an explicit outfile; otherwise the name comes from the url
// path.
func buildArchives(urls []string, outfile string) ([]tasks.Archive, error) {
	if outfile != "" && len(urls) > 1 {
		return nil, errors.New("outfile cannot be combined with multiple urls")
	}

	archives := make([]tasks.Archive, len(urls))
	for i, raw := range urls {
		name := outfile
		if name == "" {
			parsed, err := url.Parse(raw)
			if err != nil {
				return nil, err
			}
			name = path.Base(parsed.Path)
			if name == "." || name == "/" || name == "" {
				name = "corpus.tar.gz"
			}
		}
		archives[i] = tasks.Archive{URL: raw, Outfile: name}
	}
	return archives, nil
}
