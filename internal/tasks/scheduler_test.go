package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
)

func TestSpawnDuplicateName(t *testing.T) {
	sched := NewScheduler(clock.NewMock(), NewMonitor())
	defer sched.Stop()

	block := func(ctx context.Context, _ *Task) error {
		<-ctx.Done()
		return nil
	}

	test.That(t, sched.Spawn("sensors", PriorityHigh, 1540, block), test.ShouldBeNil)
	test.That(t, sched.Spawn("sensors", PriorityHigh, 1540, block), test.ShouldNotBeNil)
}

func TestSpawnAfterStop(t *testing.T) {
	sched := NewScheduler(clock.NewMock(), NewMonitor())
	sched.Stop()

	err := sched.Spawn("late", PriorityLow, 1024, func(ctx context.Context, _ *Task) error {
		return nil
	})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMonitorRegistersSpawnedTasks(t *testing.T) {
	monitor := NewMonitor()
	sched := NewScheduler(clock.NewMock(), monitor)
	defer sched.Stop()

	err := sched.Spawn("sensors", PriorityHigh, 1540, func(ctx context.Context, _ *Task) error {
		<-ctx.Done()
		return nil
	})
	test.That(t, err, test.ShouldBeNil)

	running := monitor.Running()
	test.That(t, running, test.ShouldHaveLength, 1)
	test.That(t, running[0].Name, test.ShouldEqual, "sensors")
	test.That(t, running[0].Priority, test.ShouldEqual, PriorityHigh)
	test.That(t, running[0].StackBudget, test.ShouldEqual, 1540)
}

func TestWaitPeriodCancellation(t *testing.T) {
	// A task parked in WaitPeriod must come back promptly on Stop, not
	// at the next period boundary of a clock nobody is advancing.
	mock := clock.NewMock()
	sched := NewScheduler(mock, NewMonitor())

	started := make(chan struct{})
	returned := make(chan bool, 1)
	err := sched.Spawn("parked", PriorityNormal, 1024, func(ctx context.Context, task *Task) error {
		close(started)
		returned <- task.WaitPeriod(ctx, time.Hour)
		return nil
	})
	test.That(t, err, test.ShouldBeNil)

	<-started
	sched.Stop()

	select {
	case ok := <-returned:
		test.That(t, ok, test.ShouldBeFalse)
	case <-time.After(2 * time.Second):
		t.Fatal("task did not observe cancellation")
	}
}

func TestWaitPeriodFiresOnClockAdvance(t *testing.T) {
	mock := clock.NewMock()
	sched := NewScheduler(mock, NewMonitor())
	defer sched.Stop()

	woke := make(chan bool, 1)
	err := sched.Spawn("periodic", PriorityNormal, 1024, func(ctx context.Context, task *Task) error {
		woke <- task.WaitPeriod(ctx, 20*time.Millisecond)
		<-ctx.Done()
		return nil
	})
	test.That(t, err, test.ShouldBeNil)

	// Give the task a moment to arm its timer before moving the clock.
	time.Sleep(10 * time.Millisecond)
	mock.Add(20 * time.Millisecond)

	select {
	case ok := <-woke:
		test.That(t, ok, test.ShouldBeTrue)
	case <-time.After(2 * time.Second):
		t.Fatal("task never woke from WaitPeriod")
	}
}
