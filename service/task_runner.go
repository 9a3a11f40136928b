package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/kecaps/lsh/domain"
)

// TaskRunnerImpl executes tasks concurrently with a bounded number of
// goroutines running at once.
type TaskRunnerImpl struct {
	mu             sync.Mutex
	maxConcurrency int
}

// NewTaskRunner creates a task runner bounded by the number of CPUs
func NewTaskRunner() domain.TaskRunner {
	return &TaskRunnerImpl{
		maxConcurrency: runtime.NumCPU(),
	}
}

// SetMaxConcurrency caps the number of tasks running at once.
// A non-positive value removes the cap.
func (t *TaskRunnerImpl) SetMaxConcurrency(max int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.maxConcurrency = max
}

// Run executes all tasks and waits for every goroutine to finish before
// returning, including after cancellation. Tasks observe cancellation
// through the context; the first failure is reported.
func (t *TaskRunnerImpl) Run(ctx context.Context, tasks []domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	t.mu.Lock()
	maxConcurrency := t.maxConcurrency
	t.mu.Unlock()

	var semaphore chan struct{}
	if maxConcurrency > 0 {
		semaphore = make(chan struct{}, maxConcurrency)
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(tasks))

	for _, task := range tasks {
		wg.Add(1)
		go func(task domain.Task) {
			defer wg.Done()

			if semaphore != nil {
				select {
				case semaphore <- struct{}{}:
					defer func() { <-semaphore }()
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := task.Execute(ctx); err != nil {
				errChan <- fmt.Errorf("task %s failed: %w", task.Name(), err)
			}
		}(task)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Wait for in-flight tasks so callers can safely read shared state.
		<-done
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	close(errChan)
	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// FuncTask adapts a plain function to the Task interface
type FuncTask struct {
	name string
	fn   func(context.Context) error
}

// NewFuncTask wraps fn as a named task
func NewFuncTask(name string, fn func(context.Context) error) *FuncTask {
	return &FuncTask{name: name, fn: fn}
}

func (t *FuncTask) Name() string { return t.name }

func (t *FuncTask) Execute(ctx context.Context) error { return t.fn(ctx) }
