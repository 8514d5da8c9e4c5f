//go:build linux

package bluetooth

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// hciDevice is the part of *linux.Device an adapter drives.
type hciDevice interface {
	Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error
	Dial(ctx context.Context, a ble.Addr) (ble.Client, error)
	Stop() error
}

func openHCIDevice(id int) (hciDevice, error) {
	dev, err := linux.NewDevice(ble.OptDeviceID(id))
	if err != nil {
		return nil, err
	}
	return dev, nil
}

type hciManager struct {
	root string
}

// NewManager returns the host's HCI adapters, as listed in sysfs.
func NewManager() Manager {
	return &hciManager{root: sysfsBluetoothClass}
}

func (m *hciManager) Adapters(ctx context.Context) ([]Adapter, error) {
	ids, err := listHCIDevices(m.root)
	if err != nil {
		return nil, err
	}

	adapters := make([]Adapter, 0, len(ids))
	for _, id := range ids {
		adapters = append(adapters, &hciAdapter{id: id, openDevice: openHCIDevice})
	}
	return adapters, nil
}

type hciAdapter struct {
	id         int
	openDevice func(id int) (hciDevice, error)

	mu          sync.Mutex
	dev         hciDevice
	cancel      context.CancelFunc
	done        chan struct{}
	scanErr     error
	seen        map[string]*hciPeripheral
	peripherals []Peripheral
}

func (a *hciAdapter) Name() string {
	return fmt.Sprintf("hci%d", a.id)
}

// open must be called with a.mu held.
func (a *hciAdapter) open() error {
	if a.dev != nil {
		return nil
	}
	log.Debugf("opening %s", a.Name())
	dev, err := a.openDevice(a.id)
	if err != nil {
		return errors.Wrapf(err, "couldn't open %s", a.Name())
	}
	a.dev = dev
	return nil
}

func (a *hciAdapter) StartScan(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done != nil {
		return errors.Errorf("%s is already scanning", a.Name())
	}
	if err := a.open(); err != nil {
		return err
	}
	if a.seen == nil {
		a.seen = map[string]*hciPeripheral{}
	}

	scanCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel, a.done, a.scanErr = cancel, done, nil

	dev := a.dev
	go func() {
		defer close(done)
		err := dev.Scan(scanCtx, false, a.handleAdvertisement)
		switch errors.Cause(err) {
		case nil, context.Canceled, context.DeadlineExceeded:
		default:
			a.mu.Lock()
			a.scanErr = errors.Wrapf(err, "scan on %s failed", a.Name())
			a.mu.Unlock()
		}
	}()

	log.Debugf("scanning on %s", a.Name())
	return nil
}

func (a *hciAdapter) StopScan() error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if done == nil {
		return nil
	}

	// the advertisement handler takes a.mu, so wait for the scan without holding it
	cancel()
	<-done

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancel, a.done = nil, nil
	log.Debugf("stopped scanning on %s", a.Name())
	return a.scanErr
}

func (a *hciAdapter) handleAdvertisement(adv ble.Advertisement) {
	key := strings.ToLower(adv.Addr().String())

	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.seen[key]; ok {
		p.localName, p.rssi = adv.LocalName(), adv.RSSI()
		return
	}

	p := &hciPeripheral{
		adapter:   a,
		addr:      adv.Addr(),
		localName: adv.LocalName(),
		rssi:      adv.RSSI(),
	}
	a.seen[key] = p
	a.peripherals = append(a.peripherals, p)
}

func (a *hciAdapter) Peripherals() ([]Peripheral, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev == nil {
		return nil, errors.Errorf("%s was never scanned", a.Name())
	}
	return append([]Peripheral(nil), a.peripherals...), nil
}

func (a *hciAdapter) Close() error {
	if err := a.StopScan(); err != nil {
		log.Debugf("ignoring scan error on close: %s", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev == nil {
		return nil
	}
	err := a.dev.Stop()
	a.dev = nil
	return errors.Wrapf(err, "couldn't close %s", a.Name())
}

type hciPeripheral struct {
	adapter *hciAdapter

	// keeps the address type (public or random) the device advertised with, Dial needs it
	addr      ble.Addr
	localName string
	rssi      int
}

func (p *hciPeripheral) Properties() (*Properties, error) {
	p.adapter.mu.Lock()
	defer p.adapter.mu.Unlock()

	hw, err := net.ParseMAC(p.addr.String())
	if err != nil {
		return nil, errors.Wrapf(err, "unexpected peripheral address %q", p.addr.String())
	}
	return &Properties{
		Address:   hw,
		LocalName: p.localName,
		RSSI:      p.rssi,
	}, nil
}

func (p *hciPeripheral) Connect(ctx context.Context) (ble.Client, error) {
	p.adapter.mu.Lock()
	dev := p.adapter.dev
	p.adapter.mu.Unlock()

	if dev == nil {
		return nil, errors.Errorf("%s is closed", p.adapter.Name())
	}
	cln, err := dev.Dial(ctx, p.addr)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't connect to %s", p.addr)
	}
	return cln, nil
}
