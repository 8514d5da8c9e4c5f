// Package bluetooth abstracts the host Bluetooth stack the sensor connector talks to.
package bluetooth

import (
	"context"
	"net"

	"github.com/go-ble/ble"
)

// Manager enumerates the Bluetooth adapters available on the host.
type Manager interface {
	Adapters(ctx context.Context) ([]Adapter, error)
}

// Adapter is a host Bluetooth radio.
type Adapter interface {
	Name() string

	// StartScan starts collecting advertisements in the background and returns immediately.
	StartScan(ctx context.Context) error

	// StopScan stops a running scan and reports any error the scan ran into.
	StopScan() error

	// Peripherals returns the peripherals seen so far, in the order they were first seen.
	Peripherals() ([]Peripheral, error)

	Close() error
}

// Peripheral is a remote device discovered by an Adapter.
type Peripheral interface {
	// Properties returns nil when nothing is known about the peripheral yet.
	Properties() (*Properties, error)

	Connect(ctx context.Context) (ble.Client, error)
}

type Properties struct {
	Address   net.HardwareAddr
	LocalName string
	RSSI      int
}
