// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/flight_computer/internal/alarms"
	"github.com/relabs-tech/flight_computer/internal/config"
	"github.com/relabs-tech/flight_computer/internal/gps"
	"github.com/relabs-tech/flight_computer/internal/sensors"
	"github.com/relabs-tech/flight_computer/internal/tasks"
	"github.com/relabs-tech/flight_computer/internal/telemetry"
	"github.com/relabs-tech/flight_computer/internal/uavobj"
	"github.com/relabs-tech/flight_computer/internal/watchdog"
)

// RunSimulator wires the whole bench: state store, alarms, watchdog,
// scheduler, the simulated sensor suite, the MQTT telemetry bridge and
// (if a serial port is configured) the real GPS feed. Module order is
// fixed: every Initialize before any Start.
func RunSimulator() error {
	cfg := config.Get()

	store := uavobj.NewStore()
	alarmSet := alarms.NewSet()
	clk := clock.New()
	monitor := tasks.NewMonitor()
	sched := tasks.NewScheduler(clk, monitor)
	wdg := watchdog.New(clk, alarmSet, time.Duration(cfg.WatchdogWindow)*time.Millisecond)

	settings := sensors.DefaultSettings()
	settings.Period = time.Duration(cfg.SensorPeriod) * time.Millisecond
	if cfg.HomeOverride {
		settings.HomeLatitude = cfg.HomeLatitude
		settings.HomeLongitude = cfg.HomeLongitude
		settings.HomeAltitude = cfg.HomeAltitude
		settings.HomeBe = [3]float64{cfg.HomeBeX, cfg.HomeBeY, cfg.HomeBeZ}
	}

	module := sensors.NewModule(settings, store, sched, wdg, alarmSet)
	if err := module.Initialize(); err != nil {
		return err
	}
	if err := module.Start(); err != nil {
		return err
	}
	log.Println("simulated sensor suite started")

	// Watchdog supervisor runs outside the scheduler; it is the thing
	// watching the scheduler's tasks.
	wdgCtx, wdgCancel := context.WithCancel(context.Background())
	defer wdgCancel()
	go wdg.Run(wdgCtx)

	bridge, err := telemetry.Connect(cfg, store, alarmSet)
	if err != nil {
		return err
	}
	if err := sched.Spawn("telemetry", tasks.PriorityLow, 4096, bridge.Run); err != nil {
		return err
	}

	if cfg.GPSSerialPort != "" {
		if err := startGPSFeed(cfg, store, sched); err != nil {
			// A missing receiver should not take the bench down.
			log.Printf("gps feed disabled: %v", err)
		}
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("simulator: shutting down")
	sched.Stop()
	return nil
}

// startGPSFeed opens the configured serial port and spawns the NMEA
// feed as its own task.
func startGPSFeed(cfg *config.Config, store *uavobj.Store, sched *tasks.Scheduler) error {
	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	log.Printf("gps: serial port opened on %s at %d baud", cfg.GPSSerialPort, cfg.GPSBaudRate)

	// The feed owns the port: it closes it on shutdown to unblock the
	// pending serial read.
	feed := gps.NewFeed(port, store)
	return sched.Spawn("gps-feed", tasks.PriorityNormal, 4096, func(ctx context.Context, _ *tasks.Task) error {
		return feed.Run(ctx)
	})
}
