package pipeline

import (
	"context"
	"errors"
)

// Task is a single unit of dataset preparation work. Tasks declare their
// requirements and write their working output into the stage directory the
// workspace hands them.
type Task interface {
	Name() string
	Requires() []Task
	Run(ctx context.Context, ws *Workspace) error
}

// ErrCycle is returned when the requirement graph contains a cycle.
var ErrCycle = errors.New("pipeline: requirement cycle detected")

// StageNumber sorts the task graph numerically: tasks with no requirements
// are stage 0, every other task is one past its deepest requirement. The
// stage number goes into directory and marker names so a workspace listing
// reads in execution order.
func StageNumber(task Task) (int, error) {
	memo := map[Task]int{}
	return stageNumber(task, memo, map[Task]bool{})
}

func stageNumber(task Task, memo map[Task]int, visiting map[Task]bool) (int, error) {
	if n, ok := memo[task]; ok {
		return n, nil
	}
	if visiting[task] {
		return 0, ErrCycle
	}
	visiting[task] = true
	defer delete(visiting, task)

	deepest := -1
	for _, req := range task.Requires() {
		n, err := stageNumber(req, memo, visiting)
		if err != nil {
			return 0, err
		}
		if n > deepest {
			deepest = n
		}
	}

	stage := deepest + 1
	memo[task] = stage
	return stage, nil
}

// collect walks the requirement graph and returns every reachable task,
// requirements before dependents.
func collect(tasks []Task) ([]Task, error) {
	var ordered []Task
	seen := map[Task]bool{}
	visiting := map[Task]bool{}

	var visit func(Task) error
	visit = func(task Task) error {
		if seen[task] {
			return nil
		}
		if visiting[task] {
			return ErrCycle
		}
		visiting[task] = true
		for _, req := range task.Requires() {
			if err := visit(req); err != nil {
				return err
			}
		}
		delete(visiting, task)
		seen[task] = true
		ordered = append(ordered, task)
		return nil
	}

	for _, task := range tasks {
		if err := visit(task); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
