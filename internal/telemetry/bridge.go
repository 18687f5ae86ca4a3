// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry mirrors the vehicle state onto MQTT so consoles,
// loggers and ground stations can follow the bench run without linking
// against the store.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/flight_computer/internal/alarms"
	"github.com/relabs-tech/flight_computer/internal/config"
	"github.com/relabs-tech/flight_computer/internal/tasks"
	"github.com/relabs-tech/flight_computer/internal/uavobj"
)

// Bridge publishes the current record values as retained JSON messages
// at its own cadence. It reads the same cells every other task does;
// the store's atomic Get means a snapshot is never half a cycle.
type Bridge struct {
	client   mqtt.Client
	store    *uavobj.Store
	alarms   *alarms.Set
	cfg      *config.Config
	interval time.Duration
}

// Connect dials the broker and returns a bridge ready to run.
func Connect(cfg *config.Config, store *uavobj.Store, set *alarms.Set) (*Bridge, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSimulator)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: MQTT connect: %w", token.Error())
	}
	log.Printf("telemetry: connected to MQTT broker at %s", cfg.MQTTBroker)

	return &Bridge{
		client:   client,
		store:    store,
		alarms:   set,
		cfg:      cfg,
		interval: time.Duration(cfg.TelemetryInterval) * time.Millisecond,
	}, nil
}

// Run is the telemetry task body; spawn it under the scheduler.
func (b *Bridge) Run(ctx context.Context, t *tasks.Task) error {
	defer b.client.Disconnect(250)
	for {
		if !t.WaitPeriod(ctx, b.interval) {
			return nil
		}
		b.publishAll()
	}
}

func (b *Bridge) publishAll() {
	b.publish(b.cfg.TopicAccels, b.store.Accels.Get())
	b.publish(b.cfg.TopicGyros, b.store.Gyros.Get())
	b.publish(b.cfg.TopicBaroAltitude, b.store.BaroAltitude.Get())
	b.publish(b.cfg.TopicGPSPosition, b.store.GPSPosition.Get())
	b.publish(b.cfg.TopicHomeLocation, b.store.HomeLocation.Get())
	b.publish(b.cfg.TopicMagnetometer, b.store.Magnetometer.Get())
	b.publish(b.cfg.TopicAlarms, b.alarms.Snapshot())
}

func (b *Bridge) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("telemetry: marshal error (%s): %v", topic, err)
		return
	}
	if token := b.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("telemetry: publish error (%s): %v", topic, token.Error())
	}
}
