package waveplus

import (
	"context"
	"net"
	"sync"

	"github.com/go-ble/ble"

	"github.com/alepar/naq/airthings/bluetooth"
)

type fakeManager struct {
	adapters []bluetooth.Adapter
	err      error
}

func (m *fakeManager) Adapters(ctx context.Context) ([]bluetooth.Adapter, error) {
	return m.adapters, m.err
}

type fakeAdapter struct {
	name        string
	peripherals []bluetooth.Peripheral

	startErr error
	stopErr  error
	listErr  error

	mu          sync.Mutex
	scanning    int
	maxScanning int
	scans       int
	closed      bool
}

func (a *fakeAdapter) Name() string {
	return a.name
}

func (a *fakeAdapter) StartScan(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.startErr != nil {
		return a.startErr
	}
	a.scans++
	a.scanning++
	if a.scanning > a.maxScanning {
		a.maxScanning = a.scanning
	}
	return nil
}

func (a *fakeAdapter) StopScan() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.scanning > 0 {
		a.scanning--
	}
	return a.stopErr
}

func (a *fakeAdapter) Peripherals() ([]bluetooth.Peripheral, error) {
	return a.peripherals, a.listErr
}

func (a *fakeAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	return nil
}

func (a *fakeAdapter) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.closed
}

type fakePeripheral struct {
	props      *bluetooth.Properties
	propsErr   error
	client     *fakeClient
	connectErr error

	mu        sync.Mutex
	connected int
}

func newFakePeripheral(addr net.HardwareAddr, client *fakeClient) *fakePeripheral {
	return &fakePeripheral{
		props:  &bluetooth.Properties{Address: addr},
		client: client,
	}
}

func (p *fakePeripheral) Properties() (*bluetooth.Properties, error) {
	return p.props, p.propsErr
}

func (p *fakePeripheral) Connect(ctx context.Context) (ble.Client, error) {
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	p.mu.Lock()
	p.connected++
	p.mu.Unlock()
	return p.client, nil
}

// fakeClient implements the parts of ble.Client a sensor check uses. Anything else panics on the nil embedded interface.
type fakeClient struct {
	ble.Client

	services    []*ble.Service
	discoverErr error
	readErr     error
	cancelErr   error
	values      map[string][]byte

	mu           sync.Mutex
	reads        int
	cancelled    bool
	disconnected chan struct{}
	once         sync.Once
}

func newFakeClient(services ...*ble.Service) *fakeClient {
	return &fakeClient{
		services:     services,
		values:       map[string][]byte{},
		disconnected: make(chan struct{}),
	}
}

func newService(uuid ble.UUID, characteristics ...ble.UUID) *ble.Service {
	s := &ble.Service{UUID: uuid}
	for _, c := range characteristics {
		s.Characteristics = append(s.Characteristics, &ble.Characteristic{UUID: c})
	}
	return s
}

func (c *fakeClient) DiscoverServices(filter []ble.UUID) ([]*ble.Service, error) {
	if c.discoverErr != nil {
		return nil, c.discoverErr
	}
	return c.services, nil
}

func (c *fakeClient) DiscoverCharacteristics(filter []ble.UUID, s *ble.Service) ([]*ble.Characteristic, error) {
	return s.Characteristics, nil
}

func (c *fakeClient) ReadCharacteristic(ch *ble.Characteristic) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads++
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.values[ch.UUID.String()], nil
}

func (c *fakeClient) CancelConnection() error {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()

	if c.cancelErr != nil {
		return c.cancelErr
	}
	c.once.Do(func() { close(c.disconnected) })
	return nil
}

func (c *fakeClient) Disconnected() <-chan struct{} {
	return c.disconnected
}

func (c *fakeClient) wasCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cancelled
}

// perCallPeripheral hands out a fresh client on every connect.
type perCallPeripheral struct {
	addr    net.HardwareAddr
	clients chan *fakeClient
}

func (p *perCallPeripheral) Properties() (*bluetooth.Properties, error) {
	return &bluetooth.Properties{Address: p.addr}, nil
}

func (p *perCallPeripheral) Connect(ctx context.Context) (ble.Client, error) {
	return <-p.clients, nil
}

var (
	sensorAddr = net.HardwareAddr{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc}
	otherAddr  = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}

	sensorServiceUUID = ble.MustParse("b42e1c08-ade7-11e4-89d3-123b93f75cba")
	batteryUUID       = ble.UUID16(0x180f)
	batteryLevelUUID  = ble.UUID16(0x2a19)
)

// newWavePlusClient returns a client exposing the sensor characteristic with the given value.
func newWavePlusClient(value []byte) *fakeClient {
	cln := newFakeClient(
		newService(batteryUUID, batteryLevelUUID),
		newService(sensorServiceUUID, sensorCharacteristicUUID),
	)
	cln.values[sensorCharacteristicUUID.String()] = value
	return cln
}
