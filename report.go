package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/alepar/naq/airthings"
)

// renders as e.g. 1996-12-19 16:39:57 (+0930)
const timestampLayout = "2006-01-02 15:04:05 (-0700)"

func printReport(w io.Writer, meta airthings.SensorMetadata, now time.Time) {
	serialNumber := "<unable to extract>"
	if meta.SerialNumber != nil {
		serialNumber = *meta.SerialNumber
	}

	fmt.Fprintln(w, "> Found sensor data")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "T- Timestamp: %s\n", now.Format(timestampLayout))
	fmt.Fprintf(w, "|- MAC address: %s\n", airthings.FormatMacAddress(meta.MacAddress))
	fmt.Fprintf(w, "|- Serial number: %s\n", serialNumber)
	fmt.Fprintln(w, "`- Measurements")
	printMeasurements(w, meta.Measurements)
	fmt.Fprintln(w)
}

func printMeasurements(w io.Writer, m airthings.SensorReading) {
	fmt.Fprintf(w, " |- CO2: %s %s\n", formatFloat(m.Co2), airthings.Co2.Unit())
	fmt.Fprintf(w, " |- TVOC: %s %s\n", formatFloat(m.Voc), airthings.Voc.Unit())
	if m.RadonShortTerm != nil {
		fmt.Fprintf(w, " |- Radon: %d %s\n", *m.RadonShortTerm, airthings.RadonShortTerm.Unit())
	} else {
		fmt.Fprintln(w, " |- Radon: Not available")
	}
	fmt.Fprintf(w, " |- Temperature: %s %s\n", formatFloat(m.TemperatureCelsius), airthings.TemperatureCelsius.Unit())
	fmt.Fprintf(w, " |- Humidity: %s %s\n", formatFloat(m.RelativeHumidityPercent), airthings.RelativeHumidity.Unit())
	fmt.Fprintf(w, " `- A. pressure: %s %s\n", formatFloat(m.RelativeAtmosphericPressure), airthings.RelativeAtmosphericPressure.Unit())
}

// shortest representation that round-trips the float32, so 21.5 prints as 21.5 and 50 as 50
func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
