package gps

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"github.com/relabs-tech/flight_computer/internal/tasks"
	"github.com/relabs-tech/flight_computer/internal/uavobj"
)

const (
	rmcValid = "$GPRMC,220516,A,5133.82,N,00042.24,W,173.8,231.8,130694,004.2,W*70"
	rmcVoid  = "$GPRMC,220516,V,5133.82,N,00042.24,W,173.8,231.8,130694,004.2,W*67"
	gga      = "$GPGGA,015540.000,3150.68378,N,11711.93139,E,1,17,0.6,0051.6,M,0.0,M,,*58"
)

func runFeed(t *testing.T, store *uavobj.Store, lines ...string) {
	t.Helper()
	feed := NewFeed(strings.NewReader(strings.Join(lines, "\r\n")+"\r\n"), store)
	test.That(t, feed.Run(context.Background()), test.ShouldBeNil)
}

func TestRMCFillsHorizontalFix(t *testing.T) {
	store := uavobj.NewStore()
	runFeed(t, store, rmcValid)

	got := store.GPSPosition.Get()
	test.That(t, got.Latitude, test.ShouldAlmostEqual, 51.5636667, 1e-4)
	test.That(t, got.Longitude, test.ShouldAlmostEqual, -0.704, 1e-4)
	test.That(t, got.Groundspeed, test.ShouldAlmostEqual, 173.8*knotsToMetersPerSecond, 1e-6)
	test.That(t, got.Heading, test.ShouldAlmostEqual, 231.8, 1e-6)
	test.That(t, got.Status, test.ShouldEqual, StatusFix2D)
}

func TestGGAFillsVerticalSolution(t *testing.T) {
	store := uavobj.NewStore()
	runFeed(t, store, rmcValid, gga)

	got := store.GPSPosition.Get()
	test.That(t, got.Altitude, test.ShouldAlmostEqual, 51.6, 1e-6)
	test.That(t, got.Satellites, test.ShouldEqual, 17)
	test.That(t, got.Status, test.ShouldEqual, StatusFix3D)
	// GGA carries no speed; the RMC value must survive.
	test.That(t, got.Groundspeed, test.ShouldAlmostEqual, 173.8*knotsToMetersPerSecond, 1e-6)
}

func TestVoidFixDropsStatus(t *testing.T) {
	store := uavobj.NewStore()
	runFeed(t, store, rmcValid, rmcVoid)

	test.That(t, store.GPSPosition.Get().Status, test.ShouldEqual, StatusNoFix)
}

func TestGarbageLinesSkipped(t *testing.T) {
	store := uavobj.NewStore()
	runFeed(t, store,
		"not nmea at all",
		"$GPRMC,garbage*00",
		rmcValid,
	)

	test.That(t, store.GPSPosition.Version(), test.ShouldEqual, uint64(1))
	test.That(t, store.GPSPosition.Get().Status, test.ShouldEqual, StatusFix2D)
}

// silentPort behaves like a receiver that is attached but never sends:
// Read blocks until the port is closed.
type silentPort struct {
	closed chan struct{}
	once   sync.Once
}

func newSilentPort() *silentPort {
	return &silentPort{closed: make(chan struct{})}
}

func (p *silentPort) Read(b []byte) (int, error) {
	<-p.closed
	return 0, io.ErrClosedPipe
}

func (p *silentPort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func TestRunUnblocksOnCancel(t *testing.T) {
	port := newSilentPort()
	feed := NewFeed(port, uavobj.NewStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	// Let the feed park in the blocking read before cancelling.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		test.That(t, err, test.ShouldBeNil)
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not return after cancellation")
	}
}

func TestSchedulerStopWithSilentPort(t *testing.T) {
	sched := tasks.NewScheduler(clock.NewMock(), tasks.NewMonitor())
	feed := NewFeed(newSilentPort(), uavobj.NewStore())

	err := sched.Spawn("gps-feed", tasks.PriorityNormal, 4096, func(ctx context.Context, _ *tasks.Task) error {
		return feed.Run(ctx)
	})
	test.That(t, err, test.ShouldBeNil)
	time.Sleep(10 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		sched.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler stop blocked on the quiet gps feed")
	}
}
