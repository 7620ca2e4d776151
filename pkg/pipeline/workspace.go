package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is the versioned working directory for one corpus preparation
// run. Each task stages its output under `NN-<TaskName>` and marks itself
// complete by touching `NN-<TaskName>.done`, so a re-run picks up where the
// previous one stopped.
type Workspace struct {
	Root     string
	TaskName string
	Version  string
}

// NewWorkspace creates the versioned directory under root.
func NewWorkspace(root, taskName, version string) (*Workspace, error) {
	ws := &Workspace{Root: root, TaskName: taskName, Version: version}
	if err := os.MkdirAll(ws.Dir(), 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: create workspace: %w", err)
	}
	return ws, nil
}

// Dir returns the versioned working directory for this corpus.
func (w *Workspace) Dir() string {
	return filepath.Join(w.Root, fmt.Sprintf("%s-%s", w.TaskName, w.Version))
}

// StageDir returns (and creates) the staged output directory for a task.
func (w *Workspace) StageDir(task Task) (string, error) {
	stage, err := StageNumber(task)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(w.Dir(), fmt.Sprintf("%02d-%s", stage, task.Name()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("pipeline: create stage dir: %w", err)
	}
	return dir, nil
}

func (w *Workspace) markerPath(task Task) (string, error) {
	stage, err := StageNumber(task)
	if err != nil {
		return "", err
	}
	return filepath.Join(w.Dir(), fmt.Sprintf("%02d-%s.done", stage, task.Name())), nil
}

// IsComplete reports whether the task's completion marker exists.
func (w *Workspace) IsComplete(task Task) bool {
	path, err := w.markerPath(task)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// MarkComplete touches the task's completion marker.
func (w *Workspace) MarkComplete(task Task) error {
	path, err := w.markerPath(task)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pipeline: mark complete: %w", err)
	}
	return file.Close()
}

// Rebase rewrites .../name as dir/name.
func Rebase(filename, dir string) string {
	return filepath.Join(dir, filepath.Base(filename))
}
