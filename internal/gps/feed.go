// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gps feeds real receiver data into the vehicle state. When a
// receiver is plugged into the bench its fixes overwrite the simulated
// GPSPosition values, which is exactly the concurrent-writer situation
// the store's Update combinator exists for: each side only touches the
// fields it knows.
package gps

import (
	"bufio"
	"context"
	"io"
	"log"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/flight_computer/internal/uavobj"
)

// Fix status values published into GPSPositionData.Status.
const (
	StatusNoFix = "NoFix"
	StatusFix2D = "Fix2D"
	StatusFix3D = "Fix3D"
)

const knotsToMetersPerSecond = 0.514444

// Feed reads NMEA sentences from r and applies them to the store. The
// reader is usually a serial port; tests hand it a string. If r is an
// io.Closer the feed owns it: Run closes it on the way out and, more
// importantly, on cancellation, since a silent receiver can leave the
// scanner parked in Read with no line ever arriving to observe ctx on.
type Feed struct {
	r     io.Reader
	store *uavobj.Store
}

func NewFeed(r io.Reader, store *uavobj.Store) *Feed {
	return &Feed{r: r, store: store}
}

// Run consumes sentences until ctx is cancelled or the reader ends.
// Malformed lines are skipped; a noisy receiver is normal.
func (f *Feed) Run(ctx context.Context) error {
	if c, ok := f.r.(io.Closer); ok {
		watchDone := make(chan struct{})
		defer close(watchDone)
		go func() {
			select {
			case <-ctx.Done():
				// Unblocks a Read stuck on a quiet port so the
				// scheduler's Stop never waits on this task.
				c.Close()
			case <-watchDone:
			}
		}()
		defer c.Close()
	}

	scanner := bufio.NewScanner(f.r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// partial sentences and checksum noise; not worth logging
			continue
		}

		switch sentence.DataType() {
		case nmea.TypeRMC:
			f.applyRMC(sentence.(nmea.RMC))
		case nmea.TypeGGA:
			f.applyGGA(sentence.(nmea.GGA))
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("gps: feed read error: %v", err)
		return err
	}
	return nil
}

// applyRMC fills position, speed and course. Altitude and satellite
// count come from GGA and are left alone here.
func (f *Feed) applyRMC(m nmea.RMC) {
	f.store.GPSPosition.Update(func(gps *uavobj.GPSPositionData) {
		gps.Latitude = m.Latitude
		gps.Longitude = m.Longitude
		gps.Groundspeed = m.Speed * knotsToMetersPerSecond
		gps.Heading = m.Course
		if m.Validity == nmea.ValidRMC {
			if gps.Status == "" || gps.Status == StatusNoFix {
				gps.Status = StatusFix2D
			}
		} else {
			gps.Status = StatusNoFix
		}
	})
}

// applyGGA fills the vertical solution and satellite count.
func (f *Feed) applyGGA(m nmea.GGA) {
	f.store.GPSPosition.Update(func(gps *uavobj.GPSPositionData) {
		gps.Altitude = m.Altitude
		gps.Satellites = int(m.NumSatellites)
		if m.FixQuality != nmea.Invalid {
			gps.Status = StatusFix3D
		}
	})
}
