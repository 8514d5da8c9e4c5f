package airthings

import (
	"context"
	"net"
	"time"
)

type Checker interface {

	// scans for scanDuration, then connects to the sensor with the given address and reads it once
	CheckSensorDataByMacAddress(ctx context.Context, addr net.HardwareAddr, scanDuration time.Duration) (SensorMetadata, error)
}
