package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flight_config.txt")
	test.That(t, os.WriteFile(path, []byte(contents), 0o644), test.ShouldBeNil)
	return path
}

func TestLoadMinimal(t *testing.T) {
	path := writeConfig(t, `
# bench defaults, broker only
MQTT_BROKER=tcp://localhost:1883
`)

	cfg, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.MQTTBroker, test.ShouldEqual, "tcp://localhost:1883")
	test.That(t, cfg.SensorPeriod, test.ShouldEqual, 20)
	test.That(t, cfg.WatchdogWindow, test.ShouldEqual, 1000)
	test.That(t, cfg.TopicMagnetometer, test.ShouldEqual, "flight/mag")
	test.That(t, cfg.HomeOverride, test.ShouldBeFalse)
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
MQTT_BROKER=tcp://bench:1883
MQTT_CLIENT_ID_SIMULATOR=bench-sim
TOPIC_MAGNETOMETER=bench/mag
SENSOR_PERIOD=50
TELEMETRY_INTERVAL=200
WATCHDOG_WINDOW=2000
HOME_LATITUDE=47.39
HOME_LONGITUDE=8.54
HOME_ALTITUDE=433
HOME_BE_X=21000
HOME_BE_Y=600
HOME_BE_Z=43000
GPS_SERIAL_PORT=/dev/ttyUSB0
GPS_BAUD_RATE=115200
WEB_SERVER_PORT=9090
`)

	cfg, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.MQTTClientIDSimulator, test.ShouldEqual, "bench-sim")
	test.That(t, cfg.TopicMagnetometer, test.ShouldEqual, "bench/mag")
	test.That(t, cfg.SensorPeriod, test.ShouldEqual, 50)
	test.That(t, cfg.HomeOverride, test.ShouldBeTrue)
	test.That(t, cfg.HomeLatitude, test.ShouldEqual, 47.39)
	test.That(t, cfg.HomeBeZ, test.ShouldEqual, 43000.0)
	test.That(t, cfg.GPSSerialPort, test.ShouldEqual, "/dev/ttyUSB0")
	test.That(t, cfg.WebServerPort, test.ShouldEqual, 9090)
}

func TestLoadErrors(t *testing.T) {
	for name, contents := range map[string]string{
		"missing broker":  "SENSOR_PERIOD=20\n",
		"unknown key":     "MQTT_BROKER=tcp://localhost:1883\nBOGUS_KEY=1\n",
		"malformed line":  "MQTT_BROKER=tcp://localhost:1883\njust some text\n",
		"bad period":      "MQTT_BROKER=tcp://localhost:1883\nSENSOR_PERIOD=abc\n",
		"negative period": "MQTT_BROKER=tcp://localhost:1883\nSENSOR_PERIOD=-5\n",
		"latitude range":  "MQTT_BROKER=tcp://localhost:1883\nHOME_LATITUDE=123\n",
		"window too low":  "MQTT_BROKER=tcp://localhost:1883\nWATCHDOG_WINDOW=10\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, contents))
			test.That(t, err, test.ShouldNotBeNil)
		})
	}
}
