package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/flight_computer/internal/config"
	"github.com/relabs-tech/flight_computer/internal/uavobj"
)

func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to accels
	accelToken := client.Subscribe(cfg.TopicAccels, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var a uavobj.AccelsData
		if err := json.Unmarshal(msg.Payload(), &a); err != nil {
			log.Printf("console: accels unmarshal error: %v", err)
			return
		}
		fmt.Printf("[ACCEL] x=%7.2f y=%7.2f z=%7.2f temp=%5.1f\n", a.X, a.Y, a.Z, a.Temperature)
	})
	accelToken.Wait()
	if accelToken.Error() != nil {
		return accelToken.Error()
	}

	// Subscribe to gyros
	gyroToken := client.Subscribe(cfg.TopicGyros, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var g uavobj.GyrosData
		if err := json.Unmarshal(msg.Payload(), &g); err != nil {
			log.Printf("console: gyros unmarshal error: %v", err)
			return
		}
		fmt.Printf("[GYRO ] x=%7.2f y=%7.2f z=%7.2f\n", g.X, g.Y, g.Z)
	})
	gyroToken.Wait()
	if gyroToken.Error() != nil {
		return gyroToken.Error()
	}

	// Subscribe to magnetometer
	magToken := client.Subscribe(cfg.TopicMagnetometer, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m uavobj.MagnetometerData
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("console: mag unmarshal error: %v", err)
			return
		}
		fmt.Printf("[MAG  ] x=%7.1f y=%7.1f z=%7.1f\n", m.X, m.Y, m.Z)
	})
	magToken.Wait()
	if magToken.Error() != nil {
		return magToken.Error()
	}

	// Subscribe to baro
	baroToken := client.Subscribe(cfg.TopicBaroAltitude, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var b uavobj.BaroAltitudeData
		if err := json.Unmarshal(msg.Payload(), &b); err != nil {
			log.Printf("console: baro unmarshal error: %v", err)
			return
		}
		fmt.Printf("[BARO ] alt=%7.2fm temp=%5.1f°C press=%7.2fkPa\n", b.Altitude, b.Temperature, b.Pressure)
	})
	baroToken.Wait()
	if baroToken.Error() != nil {
		return baroToken.Error()
	}

	// Subscribe to GPS
	gpsToken := client.Subscribe(cfg.TopicGPSPosition, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f uavobj.GPSPositionData
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
			return
		}
		fmt.Printf("[GPS  ] lat=%.6f lon=%.6f alt=%.1fm sats=%d status=%s\n",
			f.Latitude, f.Longitude, f.Altitude, f.Satellites, f.Status)
	})
	gpsToken.Wait()
	if gpsToken.Error() != nil {
		return gpsToken.Error()
	}

	// Subscribe to alarms
	alarmToken := client.Subscribe(cfg.TopicAlarms, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var states map[string]string
		if err := json.Unmarshal(msg.Payload(), &states); err != nil {
			log.Printf("console: alarms unmarshal error: %v", err)
			return
		}
		fmt.Printf("[ALARM] %v\n", states)
	})
	alarmToken.Wait()
	if alarmToken.Error() != nil {
		return alarmToken.Error()
	}

	log.Println("console: subscribed to all flight topics")

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
