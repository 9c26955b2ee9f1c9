package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is periodic background work such as syncing aircraft locations
type Task interface {
	Run(ctx context.Context) error
	Interval() time.Duration
	Name() string
}

// Scheduler runs each task once at start and then on its own interval
type Scheduler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	tasks    []Task
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func New(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		tasks:  make([]Task, 0),
	}
}

// AddTask registers a task. Tasks added after Start are not run.
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

func (s *Scheduler) Start() {
	started := 0
	for _, task := range s.tasks {
		if task.Interval() <= 0 {
			slog.Error("Skipping task with non-positive interval", "task", task.Name(), "interval", task.Interval())
			continue
		}
		s.wg.Add(1)
		go s.runTask(task)
		started++
	}
	slog.Info("Task scheduler started", "task_count", started)
}

// Stop cancels all tasks and waits for running ones to return. It is safe to
// call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		slog.Info("Stopping task scheduler")
		s.cancel()
		s.wg.Wait()
		slog.Info("Task scheduler stopped")
	})
}

func (s *Scheduler) runTask(task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval())
	defer ticker.Stop()

	s.runOnce(task)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(task)
		}
	}
}

func (s *Scheduler) runOnce(task Task) {
	if s.ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := task.Run(s.ctx); err != nil {
		slog.Error("Error running task", "task", task.Name(), "error", err)
		return
	}
	slog.Debug("Task finished", "task", task.Name(), "duration", time.Since(start))
}
