package tests

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/bogdanteleaga/hear-eval-kit/pkg/baseline"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/manifest"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/pipeline"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/report"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/split"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/tasks"
)

func TestEndToEndPreparation(t *testing.T) {
	entries := make([]manifest.Entry, 0, 40)
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i := 0; i < 40; i++ {
		relpath := fmt.Sprintf("audio/clip-%02d.wav", i)
		entries = append(entries, manifest.Entry{RelPath: relpath, Label: "tone"})
		f, err := w.Create(relpath)
		require.NoError(t, err)
		_, err = f.Write([]byte("pcm"))
		require.NoError(t, err)
	}
	manifestJSON, err := json.Marshal(entries)
	require.NoError(t, err)
	f, err := w.Create("examples.json")
	require.NoError(t, err)
	_, err = f.Write(manifestJSON)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	ws, err := pipeline.NewWorkspace(t.TempDir(), "integration-corpus", "v1")
	require.NoError(t, err)

	dl := &tasks.DownloadCorpus{Archives: []tasks.Archive{{URL: server.URL, Outfile: "corpus.zip"}}}
	extract := &tasks.ExtractArchive{Download: dl}
	metadata := &tasks.BuildMetadata{Extract: extract, ManifestFile: "examples.json", ValidationPct: 20, TestingPct: 20}
	stage := &tasks.StagePartitions{Metadata: metadata}

	runner := pipeline.Runner{Workspace: ws, Workers: 2}
	require.NoError(t, runner.Run(context.Background(), stage))

	metadataPath, err := metadata.MetadataPath(ws)
	require.NoError(t, err)
	assigned, err := manifest.AssignPartitions(context.Background(),
		manifest.NewFileManifest(metadataPath), 20, 20)
	require.NoError(t, err)
	require.Len(t, assigned, 40)

	summary := report.Build("integration-corpus", assigned)
	require.Equal(t, 40, summary.Total)
	require.Equal(t, 40,
		summary.Counts[split.Train]+summary.Counts[split.Valid]+summary.Counts[split.Test])

	// Partition assignment matches the staged directory layout.
	stageDir, err := ws.StageDir(stage)
	require.NoError(t, err)
	for _, entry := range assigned {
		require.FileExists(t, filepath.Join(stageDir, string(entry.Partition), entry.Slug))
	}
}

func TestEndToEndEmbedding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeTestWAV(t, path, 22050)

	samples, err := baseline.ReadWAV(path)
	require.NoError(t, err)
	require.Len(t, samples, 22050)

	model := baseline.NewModel()
	emb, err := model.Embed(context.Background(), samples, 11025)
	require.NoError(t, err)
	require.Len(t, emb.Timestamps, 3)
	require.Len(t, emb.Quantized[0], 20)
}

func writeTestWAV(t *testing.T, path string, frames int) {
	t.Helper()

	out, err := os.Create(path)
	require.NoError(t, err)

	encoder := wav.NewEncoder(out, baseline.SampleRate, 16, 1, 1)
	data := make([]int, frames)
	for i := range data {
		data[i] = int(10000 * math.Sin(2*math.Pi*440*float64(i)/baseline.SampleRate))
	}
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 1, SampleRate: baseline.SampleRate},
		SourceBitDepth: 16,
	}
	require.NoError(t, encoder.Write(buf))
	require.NoError(t, encoder.Close())
	require.NoError(t, out.Close())
}
