package waveplus

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/alepar/naq/airthings"
)

// payloadSize is the length of the packed record. Newer firmware appends more fields, those are ignored.
const payloadSize = 16

type rawSensorPayload struct {
	Version             uint8
	Humidity            uint8
	_                   [2]uint8
	RadonShortTerm      uint16
	RadonLongTerm       uint16
	Temperature         uint16
	AtmosphericPressure uint16
	Co2                 uint16
	Voc                 uint16
}

// Decode converts the sensor characteristic value into a reading.
func Decode(payload []byte) (airthings.SensorReading, error) {
	if len(payload) < payloadSize {
		return airthings.SensorReading{}, newError(KindMalformedPayload, "decode",
			errors.Wrapf(ErrMalformedPayload, "got %d bytes, need %d", len(payload), payloadSize))
	}

	raw := rawSensorPayload{}
	if err := binary.Read(bytes.NewReader(payload[:payloadSize]), binary.LittleEndian, &raw); err != nil {
		return airthings.SensorReading{}, newError(KindMalformedPayload, "decode",
			errors.Wrapf(ErrMalformedPayload, "%s", err))
	}

	return refineRawValues(raw), nil
}

func refineRawValues(raw rawSensorPayload) airthings.SensorReading {
	return airthings.SensorReading{
		RelativeHumidityPercent:     float32(raw.Humidity) / 2.0,
		RadonShortTerm:              parseRadon(raw.RadonShortTerm),
		RadonLongTerm:               parseRadon(raw.RadonLongTerm),
		TemperatureCelsius:          float32(raw.Temperature) / 100.0,
		RelativeAtmosphericPressure: float32(raw.AtmosphericPressure) / 50.0,
		Co2:                         float32(raw.Co2),
		Voc:                         float32(raw.Voc),
	}
}

// 0xFFFF means the radon sensor has no data yet
func parseRadon(raw uint16) *uint32 {
	if raw >= math.MaxUint16 {
		return nil
	}
	v := uint32(raw)
	return &v
}
