package airthings

import (
	"encoding/json"
	"net"
)

// SensorReading is a single decoded measurement set read from a sensor.
type SensorReading struct {
	// units: % of relative Humidity
	RelativeHumidityPercent float32 `json:"relative_humidity_percent"`

	// units: Bq/m3, nil when the sensor reports no data
	RadonShortTerm *uint32 `json:"radon_short_term,omitempty"`

	// units: Bq/m3, nil when the sensor reports no data
	RadonLongTerm *uint32 `json:"radon_long_term,omitempty"`

	// units: degrees Celsius
	TemperatureCelsius float32 `json:"temperature_celsius"`

	// units: mbar
	RelativeAtmosphericPressure float32 `json:"relative_atmospheric_pressure"`

	// units: ppm
	Co2 float32 `json:"co2"`

	// units: ppb
	Voc float32 `json:"voc"`
}

// SensorMetadata wraps a reading with the identity of the sensor it came from.
type SensorMetadata struct {
	MacAddress net.HardwareAddr
	// always nil, there is no known way to extract it from the device
	SerialNumber *string
	Measurements SensorReading
}

func (m SensorMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MacAddress   string        `json:"mac_address"`
		SerialNumber *string       `json:"serial_number"`
		Measurements SensorReading `json:"measurements"`
	}{
		MacAddress:   FormatMacAddress(m.MacAddress),
		SerialNumber: m.SerialNumber,
		Measurements: m.Measurements,
	})
}
