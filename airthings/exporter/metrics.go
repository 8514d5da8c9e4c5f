package exporter

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alepar/naq/airthings"
)

type metrics struct {
	humidity    *prometheus.GaugeVec
	radonShort  *prometheus.GaugeVec
	radonLong   *prometheus.GaugeVec
	temperature *prometheus.GaugeVec
	atmPressure *prometheus.GaugeVec
	co2Level    *prometheus.GaugeVec
	vocLevel    *prometheus.GaugeVec
	reads       *prometheus.CounterVec
}

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		[]string{"mac_address"},
	)
}

func newMetrics() *metrics {
	return &metrics{
		humidity:    newGauge("air_humidity", "Humidity (units: % of relative Humidity)"),
		radonShort:  newGauge("air_radon_short", "Radon Short Term estimate (units: Bq/m3)"),
		radonLong:   newGauge("air_radon_long", "Radon Long Term estimate (units: Bq/m3)"),
		temperature: newGauge("air_temperature", "Air Temperature (units: degrees Celsius)"),
		atmPressure: newGauge("air_atm_pressure", "Atmospheric Pressure (units: mbar)"),
		co2Level:    newGauge("air_co2_level", "Air Carbon Dioxide level (units: ppm)"),
		vocLevel:    newGauge("air_voc_level", "Air Volatile Organic Compounds level (units: ppb)"),
		reads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "naq_sensor_reads_total",
				Help: "Sensor read attempts by result and failure kind",
			},
			[]string{"result", "kind"},
		),
	}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.humidity, m.radonShort, m.radonLong, m.temperature, m.atmPressure, m.co2Level, m.vocLevel, m.reads,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *metrics) gauges() []*prometheus.GaugeVec {
	return []*prometheus.GaugeVec{m.humidity, m.radonShort, m.radonLong, m.temperature, m.atmPressure, m.co2Level, m.vocLevel}
}

func (m *metrics) observe(meta airthings.SensorMetadata) {
	mac := airthings.FormatMacAddress(meta.MacAddress)
	values := meta.Measurements

	m.humidity.WithLabelValues(mac).Set(float64(values.RelativeHumidityPercent))
	setOptional(m.radonShort, mac, values.RadonShortTerm)
	setOptional(m.radonLong, mac, values.RadonLongTerm)
	m.temperature.WithLabelValues(mac).Set(float64(values.TemperatureCelsius))
	m.atmPressure.WithLabelValues(mac).Set(float64(values.RelativeAtmosphericPressure))
	m.co2Level.WithLabelValues(mac).Set(float64(values.Co2))
	m.vocLevel.WithLabelValues(mac).Set(float64(values.Voc))

	m.reads.WithLabelValues("ok", "").Inc()
}

// forget drops every series of the sensor so a failed read shows up as missing data, not stale data.
func (m *metrics) forget(mac string, kind string) {
	for _, g := range m.gauges() {
		g.DeleteLabelValues(mac)
	}
	m.reads.WithLabelValues("error", kind).Inc()
}

func setOptional(g *prometheus.GaugeVec, mac string, v *uint32) {
	if v == nil {
		g.DeleteLabelValues(mac)
		return
	}
	g.WithLabelValues(mac).Set(float64(*v))
}
