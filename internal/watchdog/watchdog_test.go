package watchdog

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"github.com/relabs-tech/flight_computer/internal/alarms"
)

const window = time.Second

func TestRegisterFlagTwice(t *testing.T) {
	w := New(clock.NewMock(), alarms.NewSet(), window)
	test.That(t, w.RegisterFlag("sensors"), test.ShouldBeNil)
	test.That(t, w.RegisterFlag("sensors"), test.ShouldNotBeNil)
}

func TestTrippedOnStaleFlag(t *testing.T) {
	mock := clock.NewMock()
	w := New(mock, alarms.NewSet(), window)
	test.That(t, w.RegisterFlag("sensors"), test.ShouldBeNil)

	// Registration counts as a refresh: one full window of grace.
	mock.Add(window)
	test.That(t, w.Tripped(), test.ShouldBeFalse)

	mock.Add(time.Millisecond)
	test.That(t, w.Tripped(), test.ShouldBeTrue)

	w.UpdateFlag("sensors")
	test.That(t, w.Tripped(), test.ShouldBeFalse)
}

func TestUpdateUnregisteredFlagIgnored(t *testing.T) {
	mock := clock.NewMock()
	w := New(mock, alarms.NewSet(), window)
	test.That(t, w.RegisterFlag("sensors"), test.ShouldBeNil)

	mock.Add(window + time.Millisecond)
	w.UpdateFlag("sensrs") // typo'd id must not revive the real flag
	test.That(t, w.Tripped(), test.ShouldBeTrue)
}

func TestSupervisorRaisesAndClearsAlarm(t *testing.T) {
	mock := clock.NewMock()
	set := alarms.NewSet()
	w := New(mock, set, window)
	test.That(t, w.RegisterFlag("sensors"), test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	time.Sleep(10 * time.Millisecond) // let the supervisor arm its ticker

	// Refreshed within the window: no trip across several checks.
	for i := 0; i < 4; i++ {
		w.UpdateFlag("sensors")
		mock.Add(window / 2)
		time.Sleep(5 * time.Millisecond)
	}
	test.That(t, set.Get(alarms.Watchdog), test.ShouldEqual, alarms.OK)

	// Stop refreshing: the next checks must raise the system alarm.
	mock.Add(window / 2)
	time.Sleep(5 * time.Millisecond)
	mock.Add(window / 2)
	time.Sleep(5 * time.Millisecond)
	mock.Add(window / 2)
	time.Sleep(5 * time.Millisecond)

	test.That(t, set.Get(alarms.Watchdog), test.ShouldEqual, alarms.Critical)
}
