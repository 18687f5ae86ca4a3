// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package watchdog watches task liveness. Each periodic task registers
// a flag and refreshes it once per cycle; a flag that goes stale past
// the configured window raises the system watchdog alarm, the same way
// the hardware watchdog would reset a real flight controller.
package watchdog

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/relabs-tech/flight_computer/internal/alarms"
)

type Watchdog struct {
	clk    clock.Clock
	alarms *alarms.Set
	window time.Duration

	mu    sync.Mutex
	flags map[string]time.Time // last refresh per flag
}

// New creates a watchdog that trips when any flag goes unrefreshed for
// longer than window.
func New(clk clock.Clock, set *alarms.Set, window time.Duration) *Watchdog {
	return &Watchdog{
		clk:    clk,
		alarms: set,
		window: window,
		flags:  make(map[string]time.Time),
	}
}

// RegisterFlag adds a flag to the watch list. The registration instant
// counts as the first refresh, so a task gets one full window to reach
// its first cycle.
func (w *Watchdog) RegisterFlag(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.flags[id]; ok {
		return fmt.Errorf("watchdog: flag %q already registered", id)
	}
	w.flags[id] = w.clk.Now()
	return nil
}

// UpdateFlag marks the flag alive. Unregistered flags are ignored
// rather than auto-created, so a typo in the id shows up as a trip.
func (w *Watchdog) UpdateFlag(id string) {
	w.mu.Lock()
	if _, ok := w.flags[id]; ok {
		w.flags[id] = w.clk.Now()
	}
	w.mu.Unlock()
}

// Tripped reports whether any registered flag is currently stale.
func (w *Watchdog) Tripped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.clk.Now()
	for _, last := range w.flags {
		if now.Sub(last) > w.window {
			return true
		}
	}
	return false
}

// Run supervises the flags until ctx is cancelled, checking at half the
// window so a stale flag is caught within one window of going quiet.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := w.clk.Ticker(w.window / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *Watchdog) check() {
	w.mu.Lock()
	now := w.clk.Now()
	var stale []string
	for id, last := range w.flags {
		if now.Sub(last) > w.window {
			stale = append(stale, id)
		}
	}
	w.mu.Unlock()

	if len(stale) == 0 {
		w.alarms.Clear(alarms.Watchdog)
		return
	}
	for _, id := range stale {
		log.Printf("watchdog: flag %q stale, raising system alarm", id)
	}
	w.alarms.Raise(alarms.Watchdog, alarms.Critical)
}
