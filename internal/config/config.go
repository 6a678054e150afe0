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
	// Serial
	SerialPort          string
	SerialBaudRate      int
	SerialReadTimeoutMs int
	SerialDriver        string // "bugst", "jacobsa" or "mock"
	MockSampleInterval  int    // milliseconds

	// Web viewer
	WebEnabled    bool
	WebServerPort int

	// MQTT
	MQTTEnabled         bool
	MQTTBroker          string
	MQTTClientIDViewer  string
	MQTTClientIDConsole string

	// Topics
	TopicOrientation string

	// Display
	DisplayEnabled        bool
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access; observers read config
//     from their own goroutines.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the built-in configuration: the sensor on /dev/ttyUSB0
// at 1,000,000 baud with a 1 ms read timeout, web viewer on :8080, MQTT and
// the OLED display off.
func Default() *Config {
	return &Config{
		SerialPort:          "/dev/ttyUSB0",
		SerialBaudRate:      1000000,
		SerialReadTimeoutMs: 1,
		SerialDriver:        "bugst",
		MockSampleInterval:  20,

		WebEnabled:    true,
		WebServerPort: 8080,

		MQTTEnabled:         false,
		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDViewer:  "cube-viewer",
		MQTTClientIDConsole: "cube-viewer-console",

		TopicOrientation: "cube/orientation",

		DisplayEnabled:        false,
		DisplayI2CBus:         "",
		DisplayUpdateInterval: 100,
	}
}

// Load reads the configuration file on top of Default and returns the
// result. An empty path returns the defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate
	case "SERIAL_READ_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_READ_TIMEOUT_MS %q: %w", value, err)
		}
		c.SerialReadTimeoutMs = ms
	case "SERIAL_DRIVER":
		switch value {
		case "bugst", "jacobsa", "mock":
			c.SerialDriver = value
		default:
			return fmt.Errorf("SERIAL_DRIVER must be bugst, jacobsa or mock, got %q", value)
		}
	case "MOCK_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MOCK_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.MockSampleInterval = interval

	// Web viewer
	case "WEB_ENABLED":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_ENABLED %q: %w", value, err)
		}
		c.WebEnabled = b
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// MQTT
	case "MQTT_ENABLED":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid MQTT_ENABLED %q: %w", value, err)
		}
		c.MQTTEnabled = b
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_VIEWER":
		c.MQTTClientIDViewer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value

	// Display
	case "DISPLAY_ENABLED":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = b
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.SerialDriver != "mock" && c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required")
	}
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", c.SerialBaudRate)
	}
	if c.SerialReadTimeoutMs < 0 {
		return fmt.Errorf("SERIAL_READ_TIMEOUT_MS must not be negative, got %d", c.SerialReadTimeoutMs)
	}
	if c.WebEnabled && (c.WebServerPort <= 0 || c.WebServerPort > 65535) {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	if c.MQTTEnabled {
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required when MQTT_ENABLED=true")
		}
		if c.TopicOrientation == "" {
			return fmt.Errorf("TOPIC_ORIENTATION is required when MQTT_ENABLED=true")
		}
	}
	if c.DisplayEnabled && c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval)
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
