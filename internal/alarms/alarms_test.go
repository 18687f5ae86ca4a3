package alarms

import (
	"testing"

	"go.viam.com/test"
)

func TestAlarmLifecycle(t *testing.T) {
	set := NewSet()

	test.That(t, set.Get(Sensors), test.ShouldEqual, Uninitialized)

	set.Raise(Sensors, Error)
	test.That(t, set.Get(Sensors), test.ShouldEqual, Error)

	set.Clear(Sensors)
	test.That(t, set.Get(Sensors), test.ShouldEqual, OK)

	// Latest report wins, even at lower severity.
	set.Raise(Watchdog, Critical)
	set.Raise(Watchdog, Warning)
	test.That(t, set.Get(Watchdog), test.ShouldEqual, Warning)
}

func TestSnapshot(t *testing.T) {
	set := NewSet()
	set.Clear(Sensors)
	set.Raise(Watchdog, Critical)

	snap := set.Snapshot()
	test.That(t, snap, test.ShouldResemble, map[string]string{
		Sensors:  "OK",
		Watchdog: "Critical",
	})
}
