package waveplus

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/naq/airthings/bluetooth"
)

const sensorCharacteristicUUIDStr = "b42e2a68-ade7-11e4-89d3-123b93f75cba"

var sensorCharacteristicUUID = ble.MustParse(sensorCharacteristicUUIDStr)

// connect dials the peripheral. The returned func cancels the connection and blocks until it is gone.
func connect(ctx context.Context, p bluetooth.Peripheral) (ble.Client, func(), error) {
	log.Debugf("connecting to device")
	cln, err := p.Connect(ctx)
	if err != nil {
		return nil, nil, newError(KindTransport, "connect", errors.Wrap(err, "couldn't connect to ble"))
	}

	// Normally, the connection is disconnected by us after our exploration.
	// However, it can be asynchronously disconnected by the remote peripheral.
	// So we wait(detect) the disconnection in the go routine.
	done := make(chan struct{})
	go func() {
		<-cln.Disconnected()
		log.Debugf("device disconnected")
		close(done)
	}()

	disconnect := func() {
		log.Debugf("closing connection")
		if err := cln.CancelConnection(); err != nil {
			// the link may never report the disconnection, don't wait for it
			log.Warnf("cancel connection: %s", err)
			return
		}
		<-done
	}

	return cln, disconnect, nil
}

// readSensorCharacteristic finds the sensor data characteristic on a connected peripheral and reads it.
func readSensorCharacteristic(cln ble.Client) ([]byte, error) {
	c, err := findSensorCharacteristic(cln)
	if err != nil {
		return nil, err
	}

	log.Debugf("reading characteristic")
	sensorBytes, err := cln.ReadCharacteristic(c)
	log.Debugf("finished reading characteristic")
	if err != nil {
		return nil, newError(KindTransport, "read characteristic", errors.Wrap(err, "failed to read characteristic value"))
	}

	return sensorBytes, nil
}

func findSensorCharacteristic(cln ble.Client) (*ble.Characteristic, error) {
	log.Debugf("discovering services")
	services, err := cln.DiscoverServices(nil)
	if err != nil {
		return nil, newError(KindTransport, "discover characteristics", errors.Wrap(err, "couldn't discover services"))
	}

	log.Debugf("discovering characteristics")
	for _, s := range services {
		characteristics, err := cln.DiscoverCharacteristics(nil, s)
		if err != nil {
			return nil, newError(KindTransport, "discover characteristics",
				errors.Wrapf(err, "couldn't discover characteristics of service %s", s.UUID))
		}
		for _, c := range characteristics {
			if c.UUID.Equal(sensorCharacteristicUUID) {
				return c, nil
			}
		}
	}
	log.Debugf("finished discovering characteristics")

	return nil, newError(KindCharacteristicNotFound, "discover characteristics", ErrSensorReadCharacteristicNotFound)
}
