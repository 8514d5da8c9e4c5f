// Package exporter periodically reads one sensor and exposes the readings to Prometheus.
package exporter

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/naq/airthings"
	"github.com/alepar/naq/airthings/waveplus"
)

// Publisher forwards readings somewhere else, e.g. an MQTT broker.
type Publisher interface {
	Publish(meta airthings.SensorMetadata) error
}

type Config struct {
	Address       net.HardwareAddr
	ScanDuration  time.Duration
	ReadInterval  time.Duration
	ListenAddress string
}

type Exporter struct {
	cfg        Config
	checker    airthings.Checker
	publishers []Publisher

	metrics  *metrics
	registry *prometheus.Registry

	mu     sync.RWMutex
	latest []byte
}

func New(cfg Config, checker airthings.Checker, publishers ...Publisher) (*Exporter, error) {
	registry := prometheus.NewRegistry()
	m := newMetrics()
	if err := m.register(registry); err != nil {
		return nil, errors.Wrap(err, "couldn't register sensor metrics")
	}
	if err := registry.Register(version.NewCollector("naq")); err != nil {
		return nil, errors.Wrap(err, "couldn't register version metric")
	}
	// Add Go module build info.
	if err := registry.Register(prometheus.NewBuildInfoCollector()); err != nil {
		return nil, errors.Wrap(err, "couldn't register build info metric")
	}

	return &Exporter{
		cfg:        cfg,
		checker:    checker,
		publishers: publishers,
		metrics:    m,
		registry:   registry,
	}, nil
}

func (e *Exporter) Handler() http.Handler {
	return newRouter(e.registry, e.latestReading)
}

func (e *Exporter) latestReading() ([]byte, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest, e.latest != nil
}

// Run reads the sensor every read interval until ctx is done. A failed read is not retried
// before the next interval.
func (e *Exporter) Run(ctx context.Context) {
	for {
		e.ReadOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(e.cfg.ReadInterval):
		}
	}
}

func (e *Exporter) ReadOnce(ctx context.Context) {
	mac := airthings.FormatMacAddress(e.cfg.Address)
	logger := log.WithField("mac_address", mac)

	meta, err := e.checker.CheckSensorDataByMacAddress(ctx, e.cfg.Address, e.cfg.ScanDuration)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		kind := waveplus.KindOf(err)
		logger.WithField("kind", kind).Errorf("failed to read from sensor: %s", err)
		e.metrics.forget(mac, kind.String())
		return
	}

	e.metrics.observe(meta)

	body := marshalReading(meta)
	logger.Infof("Received: %s", body)
	e.mu.Lock()
	e.latest = body
	e.mu.Unlock()

	for _, p := range e.publishers {
		if err := p.Publish(meta); err != nil {
			logger.Warnf("failed to publish reading: %s", err)
		}
	}
}

// ListenAndServe serves the exporter's HTTP endpoints until ctx is done.
func (e *Exporter) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    e.cfg.ListenAddress,
		Handler: e.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("listening on %s", e.cfg.ListenAddress)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "couldn't listen on %s", e.cfg.ListenAddress)
	}
	return nil
}
