// Package tasks provides the concrete corpus preparation tasks:
// download, extract, metadata building, label vocabulary, and
// per-partition staging.
package tasks

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/bogdanteleaga/hear-eval-kit/pkg/archive"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/download"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/manifest"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/pipeline"
)

// MetadataFile is the manifest written by BuildMetadata into its stage dir.
const MetadataFile = "metadata.jsonl"

// VocabularyFile is the label index written by BuildVocabulary.
const VocabularyFile = "vocabulary.csv"

// Archive names one corpus archive to fetch and unpack.
type Archive struct {
	URL     string
	Outfile string
}

// DownloadCorpus fetches every corpus archive into its stage directory
// through the pooled, rate-limited downloader.
type DownloadCorpus struct {
	Archives []Archive
	Client   *download.Client
	Workers  int
	Limiter  download.RateLimiter
}

// Name carries the outfiles so two download sets in one workspace get
// distinct stage directories and completion markers.
func (t *DownloadCorpus) Name() string {
	return "DownloadCorpus-" + archivesSlug(t.Archives)
}

func (t *DownloadCorpus) Requires() []pipeline.Task { return nil }

func (t *DownloadCorpus) Run(ctx context.Context, ws *pipeline.Workspace) error {
	dir, err := ws.StageDir(t)
	if err != nil {
		return err
	}
	client := t.Client
	if client == nil {
		client = &download.Client{MaxRetries: 3}
	}

	specs := make([]download.Spec, len(t.Archives))
	for i, a := range t.Archives {
		specs[i] = download.Spec{URL: a.URL, Dest: filepath.Join(dir, a.Outfile)}
	}
	return client.FetchAll(ctx, specs, t.Workers, t.Limiter)
}

// ArchivePaths locates the downloaded archives inside the workspace.
func (t *DownloadCorpus) ArchivePaths(ws *pipeline.Workspace) ([]string, error) {
	dir, err := ws.StageDir(t)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(t.Archives))
	for i, a := range t.Archives {
		paths[i] = filepath.Join(dir, a.Outfile)
	}
	return paths, nil
}

func archivesSlug(archives []Archive) string {
	names := make([]string, len(archives))
	for i, a := range archives {
		names[i] = a.Outfile
	}
	return slug.Make(strings.Join(names, " "))
}

// ExtractArchive unpacks every downloaded archive into one stage directory.
type ExtractArchive struct {
	Download *DownloadCorpus
}

func (t *ExtractArchive) Name() string {
	return "ExtractArchive-" + archivesSlug(t.Download.Archives)
}

func (t *ExtractArchive) Requires() []pipeline.Task {
	return []pipeline.Task{t.Download}
}

func (t *ExtractArchive) Run(ctx context.Context, ws *pipeline.Workspace) error {
	srcs, err := t.Download.ArchivePaths(ws)
	if err != nil {
		return err
	}
	dest, err := ws.StageDir(t)
	if err != nil {
		return err
	}
	for _, src := range srcs {
		if err := archive.Extract(ctx, src, dest); err != nil {
			return err
		}
	}
	return nil
}

// BuildMetadata reads the corpus manifest out of an extracted archive,
// slugifies filenames, and assigns partitions to entries that do not carry
// one. The result lands in its stage dir as metadata.jsonl.
type BuildMetadata struct {
	Extract       *ExtractArchive
	ManifestFile  string
	ValidationPct int
	TestingPct    int
}

func (t *BuildMetadata) Name() string { return "BuildMetadata" }

func (t *BuildMetadata) Requires() []pipeline.Task {
	return []pipeline.Task{t.Extract}
}

func (t *BuildMetadata) Run(ctx context.Context, ws *pipeline.Workspace) error {
	extractDir, err := ws.StageDir(t.Extract)
	if err != nil {
		return err
	}

	m := manifest.NewFileManifest(filepath.Join(extractDir, t.ManifestFile))
	entries, err := manifest.AssignPartitions(ctx, m, t.ValidationPct, t.TestingPct)
	if err != nil {
		return err
	}

	dir, err := ws.StageDir(t)
	if err != nil {
		return err
	}
	return manifest.WriteJSONL(filepath.Join(dir, MetadataFile), entries)
}

// MetadataPath locates the built metadata inside the workspace.
func (t *BuildMetadata) MetadataPath(ws *pipeline.Workspace) (string, error) {
	dir, err := ws.StageDir(t)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, MetadataFile), nil
}

// BuildVocabulary writes a stable label-to-index table for the corpus as
// vocabulary.csv. Labels are sorted so the same corpus always produces the
// same indices.
type BuildVocabulary struct {
	Metadata *BuildMetadata
}

func (t *BuildVocabulary) Name() string { return "BuildVocabulary" }

func (t *BuildVocabulary) Requires() []pipeline.Task {
	return []pipeline.Task{t.Metadata}
}

func (t *BuildVocabulary) Run(ctx context.Context, ws *pipeline.Workspace) error {
	metadataPath, err := t.Metadata.MetadataPath(ws)
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	entries, errs := manifest.NewFileManifest(metadataPath).Entries(ctx)
	for entry := range entries {
		if entry.Label != "" {
			seen[entry.Label] = true
		}
	}
	if err := <-errs; err != nil {
		return err
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	dir, err := ws.StageDir(t)
	if err != nil {
		return err
	}
	out, err := os.Create(filepath.Join(dir, VocabularyFile))
	if err != nil {
		return err
	}

	w := csv.NewWriter(out)
	for i, label := range labels {
		if err := w.Write([]string{strconv.Itoa(i), label}); err != nil {
			out.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// VocabularyPath locates the label table inside the workspace.
func (t *BuildVocabulary) VocabularyPath(ws *pipeline.Workspace) (string, error) {
	dir, err := ws.StageDir(t)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, VocabularyFile), nil
}

// StagePartitions copies audio into train/, valid/, and test/ directories
// per the assigned partition and writes one manifest per partition.
type StagePartitions struct {
	Metadata *BuildMetadata
}

func (t *StagePartitions) Name() string { return "StagePartitions" }

func (t *StagePartitions) Requires() []pipeline.Task {
	return []pipeline.Task{t.Metadata}
}

func (t *StagePartitions) Run(ctx context.Context, ws *pipeline.Workspace) error {
	metadataPath, err := t.Metadata.MetadataPath(ws)
	if err != nil {
		return err
	}
	extractDir, err := ws.StageDir(t.Metadata.Extract)
	if err != nil {
		return err
	}
	dir, err := ws.StageDir(t)
	if err != nil {
		return err
	}

	entries, err := manifest.AssignPartitions(ctx, manifest.NewFileManifest(metadataPath),
		t.Metadata.ValidationPct, t.Metadata.TestingPct)
	if err != nil {
		return err
	}

	for partition, group := range manifest.ByPartition(entries) {
		partitionDir := filepath.Join(dir, string(partition))
		if err := os.MkdirAll(partitionDir, 0o755); err != nil {
			return err
		}

		for i := range group {
			if err := ctx.Err(); err != nil {
				return err
			}
			src := filepath.Join(extractDir, group[i].RelPath)
			dest := filepath.Join(partitionDir, group[i].Slug)
			if err := copyFile(src, dest); err != nil {
				return fmt.Errorf("tasks: stage %s: %w", group[i].RelPath, err)
			}
			group[i].RelPath = pipeline.Rebase(dest, string(partition))
		}

		manifestPath := filepath.Join(dir, string(partition)+".json")
		if err := manifest.WriteJSON(manifestPath, group); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
