package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDSimulator string
	MQTTClientIDConsole   string
	MQTTClientIDWeb       string

	// Topics
	TopicAccels       string
	TopicGyros        string
	TopicBaroAltitude string
	TopicGPSPosition  string
	TopicHomeLocation string
	TopicMagnetometer string
	TopicAlarms       string

	// Timing
	SensorPeriod      int // milliseconds
	TelemetryInterval int // milliseconds
	WatchdogWindow    int // milliseconds

	// Simulated home location overrides
	HomeLatitude  float64
	HomeLongitude float64
	HomeAltitude  float64
	HomeBeX       float64
	HomeBeY       float64
	HomeBeZ       float64
	HomeOverride  bool // true once any HOME_* key is present

	// GPS feed (optional real receiver overriding the simulated fix)
	GPSSerialPort string
	GPSBaudRate   int

	// Web Server
	WebServerPort int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock for
//     initialization, read lock for Get() allows concurrent readers.
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaultConfig()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns a Config pre-filled with bench defaults so a
// minimal file only has to name the broker.
func defaultConfig() *Config {
	return &Config{
		MQTTClientIDSimulator: "flight-sim-sensors",
		MQTTClientIDConsole:   "flight-console-subscriber",
		MQTTClientIDWeb:       "flight-web-subscriber",
		TopicAccels:           "flight/accels",
		TopicGyros:            "flight/gyros",
		TopicBaroAltitude:     "flight/baro",
		TopicGPSPosition:      "flight/gps",
		TopicHomeLocation:     "flight/home",
		TopicMagnetometer:     "flight/mag",
		TopicAlarms:           "flight/alarms",
		SensorPeriod:          20,
		TelemetryInterval:     100,
		WatchdogWindow:        1000,
		GPSBaudRate:           9600,
		WebServerPort:         8080,
	}
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_SIMULATOR":
		c.MQTTClientIDSimulator = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_ACCELS":
		c.TopicAccels = value
	case "TOPIC_GYROS":
		c.TopicGyros = value
	case "TOPIC_BARO_ALTITUDE":
		c.TopicBaroAltitude = value
	case "TOPIC_GPS_POSITION":
		c.TopicGPSPosition = value
	case "TOPIC_HOME_LOCATION":
		c.TopicHomeLocation = value
	case "TOPIC_MAGNETOMETER":
		c.TopicMagnetometer = value
	case "TOPIC_ALARMS":
		c.TopicAlarms = value

	// Timing
	case "SENSOR_PERIOD":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_PERIOD %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("SENSOR_PERIOD must be positive, got %d", interval)
		}
		c.SensorPeriod = interval
	case "TELEMETRY_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TELEMETRY_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("TELEMETRY_INTERVAL must be positive, got %d", interval)
		}
		c.TelemetryInterval = interval
	case "WATCHDOG_WINDOW":
		window, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WATCHDOG_WINDOW %q: %w", value, err)
		}
		if window <= 0 {
			return fmt.Errorf("WATCHDOG_WINDOW must be positive, got %d", window)
		}
		c.WatchdogWindow = window

	// Simulated home location
	case "HOME_LATITUDE":
		lat, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid HOME_LATITUDE %q: %w", value, err)
		}
		if lat < -90 || lat > 90 {
			return fmt.Errorf("HOME_LATITUDE must be -90..90, got %g", lat)
		}
		c.HomeLatitude = lat
		c.HomeOverride = true
	case "HOME_LONGITUDE":
		lon, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid HOME_LONGITUDE %q: %w", value, err)
		}
		if lon < -180 || lon > 180 {
			return fmt.Errorf("HOME_LONGITUDE must be -180..180, got %g", lon)
		}
		c.HomeLongitude = lon
		c.HomeOverride = true
	case "HOME_ALTITUDE":
		alt, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid HOME_ALTITUDE %q: %w", value, err)
		}
		c.HomeAltitude = alt
		c.HomeOverride = true
	case "HOME_BE_X":
		be, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid HOME_BE_X %q: %w", value, err)
		}
		c.HomeBeX = be
		c.HomeOverride = true
	case "HOME_BE_Y":
		be, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid HOME_BE_Y %q: %w", value, err)
		}
		c.HomeBeY = be
		c.HomeOverride = true
	case "HOME_BE_Z":
		be, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid HOME_BE_Z %q: %w", value, err)
		}
		c.HomeBeZ = be
		c.HomeOverride = true

	// GPS feed
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.WatchdogWindow <= c.SensorPeriod {
		return fmt.Errorf("WATCHDOG_WINDOW (%dms) must exceed SENSOR_PERIOD (%dms)", c.WatchdogWindow, c.SensorPeriod)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
