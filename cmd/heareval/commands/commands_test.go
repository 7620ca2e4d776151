package commands

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/bogdanteleaga/hear-eval-kit/pkg/manifest"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/report"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/split"
)

func TestResolvePctHonorsExplicitZero(t *testing.T) {
	cmd := &cobra.Command{}
	var pct int
	cmd.Flags().IntVar(&pct, "valid-pct", 0, "")

	// Unset flag falls through to config, then the default.
	require.Equal(t, 7, resolvePct(cmd, "valid-pct", pct, 7, 10))
	require.Equal(t, 10, resolvePct(cmd, "valid-pct", pct, 0, 10))

	// An explicit zero wins over both.
	require.NoError(t, cmd.Flags().Set("valid-pct", "0"))
	require.Equal(t, 0, resolvePct(cmd, "valid-pct", pct, 7, 10))
}

func TestSplitCommandExplicitZeroPercentages(t *testing.T) {
	dir := t.TempDir()

	entries := make([]manifest.Entry, 0, 24)
	for i := 0; i < 24; i++ {
		entries = append(entries, manifest.Entry{RelPath: fmt.Sprintf("audio/clip-%02d.wav", i)})
	}
	manifestPath := filepath.Join(dir, "corpus.json")
	require.NoError(t, manifest.WriteJSON(manifestPath, entries))

	summaryPath := filepath.Join(dir, "summary.json")
	root := NewRootCommand()
	root.SetArgs([]string{
		"split",
		"--manifest", manifestPath,
		"--valid-pct", "0",
		"--test-pct", "0",
		"--format", "json",
		"--output", summaryPath,
	})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	var summary report.SplitReport
	require.NoError(t, json.Unmarshal(data, &summary))

	// With both percentages at zero every identifier lands in train.
	require.Equal(t, 24, summary.Total)
	require.Equal(t, 24, summary.Counts[split.Train])
	require.Zero(t, summary.Counts[split.Valid])
	require.Zero(t, summary.Counts[split.Test])
}

func TestBuildArchives(t *testing.T) {
	archives, err := buildArchives([]string{"http://mirror.test/corpus/train.tar.gz"}, "")
	require.NoError(t, err)
	require.Len(t, archives, 1)
	require.Equal(t, "train.tar.gz", archives[0].Outfile)

	archives, err = buildArchives([]string{"http://mirror.test/one.zip"}, "renamed.zip")
	require.NoError(t, err)
	require.Equal(t, "renamed.zip", archives[0].Outfile)

	_, err = buildArchives([]string{"http://a.test/a.zip", "http://b.test/b.zip"}, "renamed.zip")
	require.Error(t, err)
}

func TestPrepareCommandMultipleURLs(t *testing.T) {
	entries := []manifest.Entry{
		{RelPath: "audio/one.wav", Label: "60"},
		{RelPath: "audio/two.wav", Label: "64"},
	}
	manifestJSON, err := json.Marshal(entries)
	require.NoError(t, err)

	buildZip := func(files map[string][]byte) []byte {
		var buf bytes.Buffer
		w := zip.NewWriter(&buf)
		for name, content := range files {
			f, err := w.Create(name)
			require.NoError(t, err)
			_, err = f.Write(content)
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())
		return buf.Bytes()
	}
	audioZip := buildZip(map[string][]byte{
		"audio/one.wav": []byte("pcm one"),
		"audio/two.wav": []byte("pcm two"),
	})
	metaZip := buildZip(map[string][]byte{"examples.json": manifestJSON})

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path == "/audio.zip" {
			w.Write(audioZip)
			return
		}
		w.Write(metaZip)
	}))
	defer server.Close()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "heareval.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("download:\n  rate_per_second: 100\n"), 0o644))

	root := NewRootCommand()
	root.SetArgs([]string{
		"prepare",
		"--config", configPath,
		"--name", "two-archive-corpus",
		"--workdir", filepath.Join(dir, "workdir"),
		"--url", server.URL + "/audio.zip",
		"--url", server.URL + "/meta.zip",
		"--valid-pct", "0",
		"--test-pct", "0",
		"--workers", "2",
	})
	require.NoError(t, root.Execute())
	require.Equal(t, int32(2), requests.Load())

	// Both archives merged into one corpus; zero percentages put every
	// clip under train.
	staged, err := filepath.Glob(filepath.Join(dir, "workdir",
		"two-archive-corpus-v1", "*-StagePartitions", "train", "*.wav"))
	require.NoError(t, err)
	require.Len(t, staged, 2)
}
