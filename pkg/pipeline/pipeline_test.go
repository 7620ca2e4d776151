package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTask struct {
	name     string
	requires []Task
	runs     *atomic.Int32
	fail     bool
}

func (f *fakeTask) Name() string     { return f.name }
func (f *fakeTask) Requires() []Task { return f.requires }

func (f *fakeTask) Run(ctx context.Context, ws *Workspace) error {
	if f.runs != nil {
		f.runs.Add(1)
	}
	if f.fail {
		return errors.New("boom")
	}
	dir, err := ws.StageDir(f)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "out.txt"), []byte(f.name), 0o600)
}

func TestStageNumber(t *testing.T) {
	download := &fakeTask{name: "DownloadCorpus"}
	extract := &fakeTask{name: "ExtractArchive", requires: []Task{download}}
	metadata := &fakeTask{name: "BuildMetadata", requires: []Task{extract}}
	stage := &fakeTask{name: "StagePartitions", requires: []Task{metadata, download}}

	n, err := StageNumber(download)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = StageNumber(extract)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = StageNumber(stage)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestStageNumberCycle(t *testing.T) {
	a := &fakeTask{name: "A"}
	b := &fakeTask{name: "B", requires: []Task{a}}
	a.requires = []Task{b}

	_, err := StageNumber(a)
	require.ErrorIs(t, err, ErrCycle)
}

func TestWorkspaceLayout(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "nsynth-pitch", "v2.2.3")
	require.NoError(t, err)
	require.Equal(t, "nsynth-pitch-v2.2.3", filepath.Base(ws.Dir()))

	task := &fakeTask{name: "DownloadCorpus"}
	dir, err := ws.StageDir(task)
	require.NoError(t, err)
	require.Equal(t, "00-DownloadCorpus", filepath.Base(dir))
	require.DirExists(t, dir)
}

func TestCompletionMarkers(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "corpus", "v1")
	require.NoError(t, err)

	task := &fakeTask{name: "DownloadCorpus"}
	require.False(t, ws.IsComplete(task))
	require.NoError(t, ws.MarkComplete(task))
	require.True(t, ws.IsComplete(task))
	require.FileExists(t, filepath.Join(ws.Dir(), "00-DownloadCorpus.done"))
}

func TestRunnerRunsInStageOrder(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "corpus", "v1")
	require.NoError(t, err)

	var runs atomic.Int32
	download := &fakeTask{name: "DownloadCorpus", runs: &runs}
	extract := &fakeTask{name: "ExtractArchive", requires: []Task{download}, runs: &runs}
	metadata := &fakeTask{name: "BuildMetadata", requires: []Task{extract}, runs: &runs}

	runner := Runner{Workspace: ws, Workers: 2}
	require.NoError(t, runner.Run(context.Background(), metadata))
	require.Equal(t, int32(3), runs.Load())

	for _, task := range []Task{download, extract, metadata} {
		require.True(t, ws.IsComplete(task))
	}
}

func TestRunnerSkipsCompleteTasks(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "corpus", "v1")
	require.NoError(t, err)

	var runs atomic.Int32
	download := &fakeTask{name: "DownloadCorpus", runs: &runs}
	require.NoError(t, ws.MarkComplete(download))

	runner := Runner{Workspace: ws}
	require.NoError(t, runner.Run(context.Background(), download))
	require.Equal(t, int32(0), runs.Load())
}

func TestRunnerStopsOnFailure(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "corpus", "v1")
	require.NoError(t, err)

	var runs atomic.Int32
	download := &fakeTask{name: "DownloadCorpus", fail: true}
	extract := &fakeTask{name: "ExtractArchive", requires: []Task{download}, runs: &runs}

	runner := Runner{Workspace: ws}
	require.Error(t, runner.Run(context.Background(), extract))
	require.Equal(t, int32(0), runs.Load())
	require.False(t, ws.IsComplete(download))
}

func TestRebase(t *testing.T) {
	require.Equal(t, filepath.Join("train", "a.wav"), Rebase("/data/audio/a.wav", "train"))
}
