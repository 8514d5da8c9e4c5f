package exporter

import (
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/alepar/naq/airthings"
	"github.com/alepar/naq/airthings/waveplus"
)

var sensorAddr = net.HardwareAddr{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc}

const sensorMac = "12:34:56:78:9A:BC"

type result struct {
	meta airthings.SensorMetadata
	err  error
}

type fakeChecker struct {
	mu      sync.Mutex
	results []result
	calls   int
}

func (c *fakeChecker) CheckSensorDataByMacAddress(ctx context.Context, addr net.HardwareAddr, scanDuration time.Duration) (airthings.SensorMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.results[c.calls%len(c.results)]
	c.calls++
	return r.meta, r.err
}

type fakePublisher struct {
	published []airthings.SensorMetadata
	err       error
}

func (p *fakePublisher) Publish(meta airthings.SensorMetadata) error {
	p.published = append(p.published, meta)
	return p.err
}

func newReading(radonShort, radonLong *uint32) airthings.SensorMetadata {
	return airthings.SensorMetadata{
		MacAddress: sensorAddr,
		Measurements: airthings.SensorReading{
			RelativeHumidityPercent:     50,
			RadonShortTerm:              radonShort,
			RadonLongTerm:               radonLong,
			TemperatureCelsius:          21.5,
			RelativeAtmosphericPressure: 1000,
			Co2:                         800,
			Voc:                         250,
		},
	}
}

func u32(v uint32) *uint32 {
	return &v
}

func newExporterForTesting(t *testing.T, checker airthings.Checker, publishers ...Publisher) *Exporter {
	e, err := New(Config{Address: sensorAddr, ScanDuration: time.Millisecond, ReadInterval: time.Millisecond}, checker, publishers...)
	if err != nil {
		t.Fatalf("failed to create exporter: %s", err)
	}
	return e
}

// sample returns the value of the gauge series of metric name labelled with label=value.
func sample(is *is.I, g prometheus.Gatherer, name, label, value string) (float64, bool) {
	families, err := g.Gather()
	is.NoErr(err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					if m.GetGauge() != nil {
						return m.GetGauge().GetValue(), true
					}
					return m.GetCounter().GetValue(), true
				}
			}
		}
	}
	return 0, false
}

func TestThatAReadingSetsEveryGauge(t *testing.T) {
	is := is.New(t)

	publisher := &fakePublisher{}
	e := newExporterForTesting(t, &fakeChecker{results: []result{{meta: newReading(u32(10), u32(12))}}}, publisher)

	e.ReadOnce(context.Background())

	expected := map[string]float64{
		"air_humidity":     50,
		"air_radon_short":  10,
		"air_radon_long":   12,
		"air_temperature":  21.5,
		"air_atm_pressure": 1000,
		"air_co2_level":    800,
		"air_voc_level":    250,
	}
	for name, want := range expected {
		got, ok := sample(is, e.registry, name, "mac_address", sensorMac)
		is.True(ok) // gauge should be set
		is.Equal(got, want)
	}

	is.Equal(testutil.ToFloat64(e.metrics.reads.WithLabelValues("ok", "")), float64(1))
	is.Equal(len(publisher.published), 1)
}

func TestThatAbsentRadonIsNotExported(t *testing.T) {
	is := is.New(t)

	checker := &fakeChecker{results: []result{
		{meta: newReading(u32(10), u32(12))},
		{meta: newReading(u32(11), nil)},
	}}
	e := newExporterForTesting(t, checker)

	e.ReadOnce(context.Background())
	e.ReadOnce(context.Background())

	v, ok := sample(is, e.registry, "air_radon_short", "mac_address", sensorMac)
	is.True(ok)
	is.Equal(v, float64(11))
	_, ok = sample(is, e.registry, "air_radon_long", "mac_address", sensorMac)
	is.True(!ok) // stale long term radon should be gone
}

func TestThatAFailedReadDropsTheSensorSeries(t *testing.T) {
	is := is.New(t)

	notFound := &waveplus.Error{Kind: waveplus.KindDeviceNotFound, Op: "scan", Err: waveplus.ErrSensorDeviceNotFound}
	publisher := &fakePublisher{}
	checker := &fakeChecker{results: []result{
		{meta: newReading(u32(10), u32(12))},
		{err: notFound},
	}}
	e := newExporterForTesting(t, checker, publisher)

	e.ReadOnce(context.Background())
	e.ReadOnce(context.Background())

	_, ok := sample(is, e.registry, "air_co2_level", "mac_address", sensorMac)
	is.True(!ok) // a failed read should show up as missing data
	is.Equal(testutil.ToFloat64(e.metrics.reads.WithLabelValues("error", "device_not_found")), float64(1))
	is.Equal(len(publisher.published), 1) // failures are not published
}

func TestThatPublishFailuresDoNotStopTheExporter(t *testing.T) {
	is := is.New(t)

	publisher := &fakePublisher{err: errors.New("mqtt client not connected")}
	e := newExporterForTesting(t, &fakeChecker{results: []result{{meta: newReading(nil, nil)}}}, publisher)

	e.ReadOnce(context.Background())

	_, ok := sample(is, e.registry, "air_co2_level", "mac_address", sensorMac)
	is.True(ok)
}

func TestThatRunStopsWhenTheContextIsDone(t *testing.T) {
	is := is.New(t)

	checker := &fakeChecker{results: []result{{meta: newReading(nil, nil)}}}
	e := newExporterForTesting(t, checker)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the context was done")
	}

	checker.mu.Lock()
	defer checker.mu.Unlock()
	is.True(checker.calls >= 1)
}

func TestThatHealthEndpointReturns204(t *testing.T) {
	is := is.New(t)

	e := newExporterForTesting(t, &fakeChecker{})
	ts := httptest.NewServer(e.Handler())
	defer ts.Close()

	resp, _ := testRequest(is, ts, "GET", "/health", nil)

	is.Equal(resp.StatusCode, http.StatusNoContent) // health endpoint status code not ok
}

func TestThatReadingEndpointServesTheLatestReading(t *testing.T) {
	is := is.New(t)

	e := newExporterForTesting(t, &fakeChecker{results: []result{{meta: newReading(u32(10), nil)}}})
	ts := httptest.NewServer(e.Handler())
	defer ts.Close()

	resp, _ := testRequest(is, ts, "GET", "/reading", nil)
	is.Equal(resp.StatusCode, http.StatusNoContent) // nothing read yet

	e.ReadOnce(context.Background())

	resp, body := testRequest(is, ts, "GET", "/reading", nil)
	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(resp.Header.Get("Content-Type"), "application/json")

	var reading map[string]interface{}
	is.NoErr(json.Unmarshal([]byte(body), &reading))
	is.Equal(reading["mac_address"], sensorMac)
}

func TestThatMetricsEndpointExposesSensorGauges(t *testing.T) {
	is := is.New(t)

	e := newExporterForTesting(t, &fakeChecker{results: []result{{meta: newReading(u32(10), nil)}}})
	e.ReadOnce(context.Background())

	ts := httptest.NewServer(e.Handler())
	defer ts.Close()

	resp, body := testRequest(is, ts, "GET", "/metrics", nil)
	is.Equal(resp.StatusCode, http.StatusOK)
	is.True(strings.Contains(body, `air_co2_level{mac_address="12:34:56:78:9A:BC"} 800`))
	is.True(strings.Contains(body, "naq_build_info"))
}

func testRequest(is *is.I, ts *httptest.Server, method, path string, body io.Reader) (*http.Response, string) {
	req, _ := http.NewRequest(method, ts.URL+path, body)
	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err)
	respBody, _ := ioutil.ReadAll(resp.Body)
	defer resp.Body.Close()

	return resp, string(respBody)
}
