package waveplus

import (
	"bytes"
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/naq/airthings/bluetooth"
)

// findDevice scans for the whole scanDuration, then looks for a peripheral advertising addr.
// A nil peripheral with a nil error means nothing matched.
func findDevice(ctx context.Context, adapter bluetooth.Adapter, addr net.HardwareAddr, scanDuration time.Duration) (bluetooth.Peripheral, error) {
	log.Debugf("scanning for %s", scanDuration)
	if err := adapter.StartScan(ctx); err != nil {
		return nil, newError(KindScanFailed, "scan", errors.Wrap(err, "failed to start scan"))
	}

	// intermittently advertising sensors need the full window, so there is no early exit on a match
	timer := time.NewTimer(scanDuration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		_ = adapter.StopScan()
		return nil, newError(KindScanFailed, "scan", errors.Wrap(ctx.Err(), "scan for devices cancelled"))
	}

	if err := adapter.StopScan(); err != nil {
		return nil, newError(KindScanFailed, "scan", errors.Wrap(err, "failed to scan for devices"))
	}

	peripherals, err := adapter.Peripherals()
	if err != nil {
		return nil, newError(KindScanFailed, "scan", errors.Wrap(err, "couldn't list discovered peripherals"))
	}
	log.Debugf("discovered %d peripherals", len(peripherals))

	for _, p := range peripherals {
		props, err := p.Properties()
		if err != nil {
			return nil, newError(KindScanFailed, "scan", errors.Wrap(err, "couldn't read peripheral properties"))
		}
		if props == nil {
			continue
		}
		if bytes.Equal(props.Address, addr) {
			log.Debugf("found device %q (rssi %d)", props.LocalName, props.RSSI)
			return p, nil
		}
	}

	return nil, nil
}
