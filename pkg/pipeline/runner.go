package pipeline

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Runner executes a task graph against a workspace. Tasks in the same stage
// are independent and run through a bounded worker pool; stages run in
// order, requirements first. Complete tasks are skipped.
type Runner struct {
	Workspace *Workspace
	Logger    *zap.Logger
	Workers   int
}

// Run executes every task reachable from the given final tasks.
func (r *Runner) Run(ctx context.Context, finals ...Task) error {
	if r.Workspace == nil {
		return errors.New("pipeline: workspace is required")
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}

	ordered, err := collect(finals)
	if err != nil {
		return err
	}

	stages := map[int][]Task{}
	maxStage := 0
	for _, task := range ordered {
		stage, err := StageNumber(task)
		if err != nil {
			return err
		}
		stages[stage] = append(stages[stage], task)
		if stage > maxStage {
			maxStage = stage
		}
	}

	for stage := 0; stage <= maxStage; stage++ {
		if err := r.runStage(ctx, logger, stages[stage], workers); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runStage(ctx context.Context, logger *zap.Logger, tasks []Task, workers int) error {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	errCh := make(chan error, len(tasks)+workers)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for task := range taskCh {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			if r.Workspace.IsComplete(task) {
				logger.Info("task already complete", zap.String("task", task.Name()))
				continue
			}

			logger.Info("running task", zap.String("task", task.Name()))
			if err := task.Run(ctx, r.Workspace); err != nil {
				errCh <- err
				return
			}
			if err := r.Workspace.MarkComplete(task); err != nil {
				errCh <- err
				return
			}
			logger.Info("task complete", zap.String("task", task.Name()))
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}
