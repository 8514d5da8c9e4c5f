package main

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/alepar/naq/airthings"
	"github.com/alepar/naq/airthings/exporter"
	"github.com/alepar/naq/airthings/mqtt"
)

type exportConfig struct {
	exporter exporter.Config
	mqtt     mqtt.Config
}

// flag name -> environment variable consulted when the flag is not given
var exportEnv = map[string]string{
	"mac":            "NAQ_MAC",
	"scan-duration":  "NAQ_SCAN_DURATION",
	"listen-address": "NAQ_LISTEN_ADDRESS",
	"read-interval":  "NAQ_READ_INTERVAL",
	"mqtt-broker":    "NAQ_MQTT_BROKER",
	"mqtt-topic":     "NAQ_MQTT_TOPIC",
	"mqtt-client-id": "NAQ_MQTT_CLIENT_ID",
}

func addExportFlags(f *pflag.FlagSet) {
	f.String("mac", "", "mac address of the sensor, e.g. 12:34:56:78:9A:BC")
	f.String("listen-address", ":8080", "The address to listen on for HTTP requests.")
	f.Duration("read-interval", 30*time.Second, "time interval between sensor reads")
	f.String("mqtt-broker", "", "MQTT broker to publish readings to, e.g. tcp://localhost:1883 (disabled when empty)")
	f.String("mqtt-topic", "naq", "MQTT topic prefix")
	f.String("mqtt-client-id", "naq-exporter", "MQTT client id")
}

// loadExportConfig reads the export flags, falling back to the environment for flags that were not set.
func loadExportConfig(f *pflag.FlagSet, getenv func(string) string) (exportConfig, error) {
	for name, env := range exportEnv {
		flag := f.Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}
		v := strings.TrimSpace(getenv(env))
		if v == "" {
			continue
		}
		if err := flag.Value.Set(v); err != nil {
			return exportConfig{}, errors.Wrapf(err, "invalid %s %q", env, v)
		}
	}

	macStr, _ := f.GetString("mac")
	if macStr == "" {
		return exportConfig{}, errors.New("--mac (or NAQ_MAC) is required")
	}
	addr, err := airthings.ParseMacAddress(macStr)
	if err != nil {
		return exportConfig{}, err
	}

	scan, _ := f.GetDuration("scan-duration")
	if scan <= 0 {
		return exportConfig{}, errors.Errorf("scan duration must be positive, got %v", scan)
	}
	interval, _ := f.GetDuration("read-interval")
	if interval <= 0 {
		return exportConfig{}, errors.Errorf("read interval must be positive, got %v", interval)
	}

	listen, _ := f.GetString("listen-address")
	broker, _ := f.GetString("mqtt-broker")
	topic, _ := f.GetString("mqtt-topic")
	clientID, _ := f.GetString("mqtt-client-id")

	return exportConfig{
		exporter: exporter.Config{
			Address:       addr,
			ScanDuration:  scan,
			ReadInterval:  interval,
			ListenAddress: listen,
		},
		mqtt: mqtt.Config{
			Broker:      broker,
			ClientID:    clientID,
			TopicPrefix: topic,
		},
	}, nil
}
