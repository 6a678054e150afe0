package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cube_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 1000000, cfg.SerialBaudRate)
	assert.Equal(t, 1, cfg.SerialReadTimeoutMs)
	assert.Equal(t, "bugst", cfg.SerialDriver)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
# sensor on the second adapter
SERIAL_PORT = /dev/ttyACM1
SERIAL_BAUD_RATE=115200
SERIAL_DRIVER=jacobsa

MQTT_ENABLED=true
MQTT_BROKER=tcp://pi.local:1883
TOPIC_ORIENTATION=lab/cube
WEB_ENABLED=false
DISPLAY_ENABLED=1
DISPLAY_I2C_BUS=1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM1", cfg.SerialPort)
	assert.Equal(t, 115200, cfg.SerialBaudRate)
	assert.Equal(t, "jacobsa", cfg.SerialDriver)
	assert.True(t, cfg.MQTTEnabled)
	assert.Equal(t, "tcp://pi.local:1883", cfg.MQTTBroker)
	assert.Equal(t, "lab/cube", cfg.TopicOrientation)
	assert.False(t, cfg.WebEnabled)
	assert.True(t, cfg.DisplayEnabled)
	assert.Equal(t, "1", cfg.DisplayI2CBus)
	// untouched keys keep their defaults
	assert.Equal(t, 1, cfg.SerialReadTimeoutMs)
	assert.Equal(t, "cube-viewer", cfg.MQTTClientIDViewer)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"missing equals":  "SERIAL_PORT\n",
		"unknown key":     "SERIAL_PARITY=N\n",
		"bad baud":        "SERIAL_BAUD_RATE=fast\n",
		"zero baud":       "SERIAL_BAUD_RATE=0\n",
		"bad driver":      "SERIAL_DRIVER=usb\n",
		"bad bool":        "WEB_ENABLED=maybe\n",
		"empty port":      "SERIAL_PORT=\n",
		"web port range":  "WEB_SERVER_PORT=70000\n",
		"mqtt w/o broker": "MQTT_ENABLED=true\nMQTT_BROKER=\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MockDriverNeedsNoPort(t *testing.T) {
	cfg, err := Load(writeConfig(t, "SERIAL_DRIVER=mock\nSERIAL_PORT=\n"))
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.SerialDriver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorContains(t, err, "failed to open config file")
}

func TestInitGlobal_OnlyOnce(t *testing.T) {
	first := writeConfig(t, "SERIAL_PORT=/dev/first\n")
	second := writeConfig(t, "SERIAL_PORT=/dev/second\n")

	require.NoError(t, InitGlobal(first))
	require.NoError(t, InitGlobal(second))
	assert.Equal(t, "/dev/first", Get().SerialPort)
}
