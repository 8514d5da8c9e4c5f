package waveplus

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/alepar/naq/airthings/bluetooth"
)

// getAdapter picks the first adapter the manager enumerates.
func getAdapter(ctx context.Context, manager bluetooth.Manager) (bluetooth.Adapter, error) {
	adapters, err := manager.Adapters(ctx)
	if err != nil {
		return nil, newError(KindTransport, "list adapters", err)
	}
	if len(adapters) == 0 {
		return nil, newError(KindAdapterNotFound, "list adapters", ErrBluetoothAdapterNotFound)
	}

	log.Debugf("using adapter %s (%d available)", adapters[0].Name(), len(adapters))
	return adapters[0], nil
}
