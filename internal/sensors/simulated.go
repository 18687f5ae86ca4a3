// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors provides the simulated sensor suite. With no IMU,
// GPS or magnetometer attached it stands in for the real drivers:
// every period it writes one constant-but-plausible snapshot into the
// vehicle state so estimators, telemetry and fault monitoring can run
// end-to-end on the bench.
package sensors

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/flight_computer/internal/alarms"
	"github.com/relabs-tech/flight_computer/internal/tasks"
	"github.com/relabs-tech/flight_computer/internal/uavobj"
	"github.com/relabs-tech/flight_computer/internal/watchdog"
)

// Startup failure kinds surfaced to the host. There is no recovery
// path for either; the host stops bringing up modules.
var (
	ErrRegistration = errors.New("sensors: record registration failed")
	ErrTaskSpawn    = errors.New("sensors: could not spawn sensor task")
)

const (
	taskName        = "sensors"
	taskStackBudget = 1540 // bytes, carried from the flight-controller sizing table
	flagID          = "sensors"
)

// Settings holds every constant the simulated suite publishes. The
// values describe a vehicle sitting still, roughly level, at the
// origin of the local frame.
type Settings struct {
	Period time.Duration // publish cadence

	// Home location seeded once at task start.
	HomeLatitude  float64
	HomeLongitude float64
	HomeAltitude  float64
	HomeBe        [3]float64 // expected field at home, mGauss

	// Resting accelerometer output. Not exactly -9.81 on z; a small
	// fixed offset on y and a short z keep the attitude filter busy.
	AccelX, AccelY, AccelZ float64
	AccelTemperature       float64

	// Gyro base rate before bias correction, deg/s.
	GyroX, GyroY, GyroZ float64

	BaroAltitude float64

	GPSLatitude  float64
	GPSLongitude float64
	GPSAltitude  float64

	// Published magnetometer sample, mGauss. Deliberately NOT the
	// HomeBe vector: most craft get too little yaw information from
	// gravity alone, so publishing a field that averages the yaw
	// gyro toward zero gives the estimator a weak heading anchor.
	// Do not "fix" this to match HomeBe.
	MagX, MagY, MagZ float64
}

// DefaultSettings returns the stock bench values.
func DefaultSettings() Settings {
	return Settings{
		Period:        20 * time.Millisecond,
		HomeLatitude:  0,
		HomeLongitude: 0,
		HomeAltitude:  0,
		HomeBe:        [3]float64{26000, 400, 40000},
		AccelX:        0,
		AccelY:        -1,
		AccelZ:        -8,
		GyroX:         2,
		GyroY:         0,
		GyroZ:         1,
		BaroAltitude:  1,
		MagX:          400,
		MagY:          0,
		MagZ:          800,
	}
}

// Module is the simulated sensor suite. Lifecycle is strictly
// Initialize then Start; the host owns that ordering.
type Module struct {
	settings Settings
	store    *uavobj.Store
	sched    *tasks.Scheduler
	wdg      *watchdog.Watchdog
	alarms   *alarms.Set
}

func NewModule(settings Settings, store *uavobj.Store, sched *tasks.Scheduler, wdg *watchdog.Watchdog, set *alarms.Set) *Module {
	return &Module{
		settings: settings,
		store:    store,
		sched:    sched,
		wdg:      wdg,
		alarms:   set,
	}
}

// Initialize registers every record this module touches. It publishes
// nothing; consumers just need the records to exist before any task
// reads them.
func (m *Module) Initialize() error {
	names := []string{
		uavobj.NameAccels,
		uavobj.NameBaroAltitude,
		uavobj.NameGyros,
		uavobj.NameGyrosBias,
		uavobj.NameGPSPosition,
		uavobj.NameHomeLocation,
		uavobj.NameMagnetometer,
	}
	for _, name := range names {
		if err := m.store.Register(name); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrRegistration, name, err)
		}
	}
	return nil
}

// Start spawns the periodic task, registers it with the task monitor
// and arms its watchdog flag. Initialize must have succeeded first.
func (m *Module) Start() error {
	if err := m.wdg.RegisterFlag(flagID); err != nil {
		return fmt.Errorf("%w: %v", ErrTaskSpawn, err)
	}
	if err := m.sched.Spawn(taskName, tasks.PriorityHigh, taskStackBudget, m.run); err != nil {
		return fmt.Errorf("%w: %v", ErrTaskSpawn, err)
	}
	return nil
}

// run is the sensor task: seed the home location once, then publish
// one snapshot per period until cancelled.
func (m *Module) run(ctx context.Context, t *tasks.Task) error {
	// This data source is live now; stop advertising the fault a real
	// sensor failure would have left behind.
	m.alarms.Clear(alarms.Sensors)

	m.store.HomeLocation.Update(func(home *uavobj.HomeLocationData) {
		home.Latitude = m.settings.HomeLatitude
		home.Longitude = m.settings.HomeLongitude
		home.Altitude = m.settings.HomeAltitude
		home.Be = m.settings.HomeBe
		home.Set = true
	})
	log.Printf("sensors: home location seeded, entering publish loop at %v", m.settings.Period)

	for {
		// Cancellation is checked here, at the top of the cycle, so a
		// shutdown never interrupts a half-written snapshot.
		if !t.WaitPeriod(ctx, m.settings.Period) {
			return nil
		}
		m.publishCycle()
		m.wdg.UpdateFlag(flagID)
	}
}

// publishCycle writes one full snapshot. None of the store calls can
// fail once bootstrap has succeeded, so the cycle carries no error
// paths of its own.
func (m *Module) publishCycle() {
	// All fields known, so a plain Set is enough.
	m.store.Accels.Set(uavobj.AccelsData{
		X:           m.settings.AccelX,
		Y:           m.settings.AccelY,
		Z:           m.settings.AccelZ,
		Temperature: m.settings.AccelTemperature,
	})

	// Bias is read fresh every cycle: the attitude estimator refines
	// it concurrently and the published rate has to track it.
	bias := m.store.GyrosBias.Get()
	m.store.Gyros.Set(uavobj.GyrosData{
		X: m.settings.GyroX + bias.X,
		Y: m.settings.GyroY + bias.Y,
		Z: m.settings.GyroZ + bias.Z,
	})

	// Altitude only; temperature and pressure belong to whoever else
	// fills them in.
	m.store.BaroAltitude.Update(func(baro *uavobj.BaroAltitudeData) {
		baro.Altitude = m.settings.BaroAltitude
	})

	m.store.GPSPosition.Update(func(gps *uavobj.GPSPositionData) {
		gps.Latitude = m.settings.GPSLatitude
		gps.Longitude = m.settings.GPSLongitude
		gps.Altitude = m.settings.GPSAltitude
	})

	m.store.Magnetometer.Set(uavobj.MagnetometerData{
		X: m.settings.MagX,
		Y: m.settings.MagY,
		Z: m.settings.MagZ,
	})
}
