// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package uavobj is the shared vehicle-state store. Every flight task
// (sensor producers, estimators, telemetry, the web monitor) reads and
// writes the same records through it, so each record lives in a
// mutex-guarded cell with whole-record atomic access.
package uavobj

import (
	"fmt"
	"sync"
)

// Cell holds one record. Get and Set are each atomic; a bare
// get-mutate-set sequence across two calls is not, which is why Update
// exists for callers that must preserve fields they do not own.
type Cell[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
}

// Get returns a copy of the current record.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the whole record.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	c.version++
	c.mu.Unlock()
}

// Update applies fn to the record under the cell lock. Concurrent
// writers cannot slip in between the read and the write, so fields fn
// leaves alone are preserved no matter who else is publishing.
func (c *Cell[T]) Update(fn func(*T)) {
	c.mu.Lock()
	fn(&c.value)
	c.version++
	c.mu.Unlock()
}

// Version counts writes since registration. Telemetry and tests use it
// to tell "published again with the same value" from "never published".
func (c *Cell[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Store owns one cell per record type. Records are registered once at
// bootstrap and live for the process lifetime; nothing ever removes one.
type Store struct {
	Accels       Cell[AccelsData]
	Gyros        Cell[GyrosData]
	GyrosBias    Cell[GyrosBiasData]
	BaroAltitude Cell[BaroAltitudeData]
	GPSPosition  Cell[GPSPositionData]
	HomeLocation Cell[HomeLocationData]
	Magnetometer Cell[MagnetometerData]

	mu         sync.Mutex
	registered map[string]bool
}

func NewStore() *Store {
	return &Store{registered: make(map[string]bool)}
}

// Register makes a record visible to consumers under its name. Creating
// an already-registered record is a no-op, so module init order does not
// matter for records shared between producers.
func (s *Store) Register(name string) error {
	if name == "" {
		return fmt.Errorf("uavobj: register: empty record name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registered == nil {
		s.registered = make(map[string]bool)
	}
	s.registered[name] = true
	return nil
}

// Registered reports whether a record has been registered.
func (s *Store) Registered(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registered[name]
}

// Canonical record names, used for registration and as MQTT topic and
// web snapshot keys.
const (
	NameAccels       = "Accels"
	NameGyros        = "Gyros"
	NameGyrosBias    = "GyrosBias"
	NameBaroAltitude = "BaroAltitude"
	NameGPSPosition  = "GPSPosition"
	NameHomeLocation = "HomeLocation"
	NameMagnetometer = "Magnetometer"
)
