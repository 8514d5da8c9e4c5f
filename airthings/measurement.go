package airthings

type MeasurementKind int

const (
	RelativeHumidity MeasurementKind = iota
	RadonShortTerm
	RadonLongTerm
	TemperatureCelsius
	RelativeAtmosphericPressure
	Co2
	Voc
)

var measurementUnits = map[MeasurementKind]string{
	RelativeHumidity:            "%",
	RadonShortTerm:              "Bq/m3",
	RadonLongTerm:               "Bq/m3",
	TemperatureCelsius:          "°C",
	RelativeAtmosphericPressure: "mbar",
	Co2:                         "ppm",
	Voc:                         "ppb",
}

// Unit returns the display unit of the measurement, or "" for an unknown kind.
func (k MeasurementKind) Unit() string {
	return measurementUnits[k]
}
