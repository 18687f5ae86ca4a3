// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tasks runs the long-lived flight tasks. Each task is a
// goroutine with a name, a priority and a stack budget carried over
// from the flight-controller sizing tables. The Go runtime ignores
// both, but the monitor reports them and operators still size new
// tasks against the same numbers.
package tasks

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Priority bands, highest first.
type Priority int

const (
	PriorityIdle Priority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Entry is a task body. It must return promptly once ctx is cancelled;
// the returned error is logged, not retried.
type Entry func(ctx context.Context, t *Task) error

// Task is the handle passed to a running entry.
type Task struct {
	name   string
	sched  *Scheduler
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *Task) Name() string { return t.name }

// WaitPeriod suspends the task until the next period boundary or until
// ctx is cancelled, whichever comes first. This is the only suspension
// point a periodic task should use; it waits on the scheduler clock
// rather than busy-polling.
func (t *Task) WaitPeriod(ctx context.Context, period time.Duration) bool {
	timer := t.sched.clk.Timer(period)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Scheduler spawns and tears down tasks. All timing goes through its
// clock so tests can substitute a mock and step periods by hand.
type Scheduler struct {
	clk     clock.Clock
	monitor *Monitor

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   map[string]*Task
	stopped bool
}

func NewScheduler(clk clock.Clock, monitor *Monitor) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clk:     clk,
		monitor: monitor,
		ctx:     ctx,
		cancel:  cancel,
		tasks:   make(map[string]*Task),
	}
}

// Clock returns the scheduler's time source.
func (s *Scheduler) Clock() clock.Clock { return s.clk }

// Spawn starts entry as a named task and registers it with the task
// monitor. Spawning a duplicate name or spawning after Stop fails.
func (s *Scheduler) Spawn(name string, prio Priority, stackBudget int, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("tasks: spawn %q: scheduler stopped", name)
	}
	if _, ok := s.tasks[name]; ok {
		return fmt.Errorf("tasks: spawn %q: task already running", name)
	}

	ctx, cancel := context.WithCancel(s.ctx)
	t := &Task{
		name:   name,
		sched:  s,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.tasks[name] = t
	s.monitor.RegisterTask(name, t, prio, stackBudget)

	go func() {
		defer close(t.done)
		if err := entry(ctx, t); err != nil && ctx.Err() == nil {
			log.Printf("tasks: %s exited: %v", name, err)
		}
	}()
	return nil
}

// Stop cancels every task and waits for all of them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.cancel()
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		<-t.done
	}
}
