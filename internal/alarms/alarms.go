// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package alarms tracks per-subsystem fault state. Producers raise an
// alarm when they lose their data source and clear it when they come
// back; monitors and the ground side read the set to decide whether the
// vehicle state can be trusted.
package alarms

import "sync"

// Severity of an alarm. OK means explicitly cleared, as opposed to
// Uninitialized which means nobody has reported yet.
type Severity int

const (
	Uninitialized Severity = iota
	OK
	Warning
	Error
	Critical
)

func (s Severity) String() string {
	switch s {
	case OK:
		return "OK"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	case Critical:
		return "Critical"
	default:
		return "Uninitialized"
	}
}

// Alarm identifiers. One per subsystem that can fault.
const (
	Sensors  = "sensors"
	Attitude = "attitude"
	GPS      = "gps"
	Watchdog = "watchdog"
)

// Set is the process-wide alarm table.
type Set struct {
	mu     sync.RWMutex
	states map[string]Severity
}

func NewSet() *Set {
	return &Set{states: make(map[string]Severity)}
}

// Raise records a fault for id. Raising at a lower severity than the
// current one still overwrites; the latest report wins.
func (s *Set) Raise(id string, sev Severity) {
	s.mu.Lock()
	s.states[id] = sev
	s.mu.Unlock()
}

// Clear marks id healthy.
func (s *Set) Clear(id string) {
	s.mu.Lock()
	s.states[id] = OK
	s.mu.Unlock()
}

// Get returns the current severity for id.
func (s *Set) Get(id string) Severity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[id]
}

// Snapshot copies the whole table, for telemetry and the web monitor.
func (s *Set) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.states))
	for id, sev := range s.states {
		out[id] = sev.String()
	}
	return out
}
