package waveplus

import (
	"context"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/alepar/naq/airthings"
	"github.com/alepar/naq/airthings/bluetooth"
)

// Connector checks Airthings Wave Plus sensors through the host's first Bluetooth adapter.
// Calls on one Connector are serialized so only one of them drives the radio at a time.
type Connector struct {
	manager bluetooth.Manager
	radio   *semaphore.Weighted
}

func NewConnector(manager bluetooth.Manager) *Connector {
	return &Connector{
		manager: manager,
		radio:   semaphore.NewWeighted(1),
	}
}

// CheckSensorDataByMacAddress scans for scanDuration, connects to the sensor at addr and reads it once.
// Failures are *Error values; nothing is retried.
func (c *Connector) CheckSensorDataByMacAddress(ctx context.Context, addr net.HardwareAddr, scanDuration time.Duration) (airthings.SensorMetadata, error) {
	if err := c.radio.Acquire(ctx, 1); err != nil {
		return airthings.SensorMetadata{}, newError(KindScanFailed, "wait for adapter", err)
	}
	defer c.radio.Release(1)

	logger := log.WithField("mac_address", airthings.FormatMacAddress(addr))

	adapter, err := getAdapter(ctx, c.manager)
	if err != nil {
		return airthings.SensorMetadata{}, err
	}
	defer func() {
		if err := adapter.Close(); err != nil {
			logger.Warnf("failed to close adapter %s: %s", adapter.Name(), err)
		}
	}()

	sensor, err := findDevice(ctx, adapter, addr, scanDuration)
	if err != nil {
		return airthings.SensorMetadata{}, err
	}
	if sensor == nil {
		return airthings.SensorMetadata{}, newError(KindDeviceNotFound, "scan", ErrSensorDeviceNotFound)
	}

	cln, disconnect, err := connect(ctx, sensor)
	if err != nil {
		return airthings.SensorMetadata{}, err
	}
	defer disconnect()

	sensorBytes, err := readSensorCharacteristic(cln)
	if err != nil {
		return airthings.SensorMetadata{}, err
	}

	reading, err := Decode(sensorBytes)
	if err != nil {
		return airthings.SensorMetadata{}, err
	}

	return airthings.SensorMetadata{
		MacAddress:   append(net.HardwareAddr(nil), addr...),
		SerialNumber: nil,
		Measurements: reading,
	}, nil
}
