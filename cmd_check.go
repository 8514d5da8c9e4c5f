package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alepar/naq/airthings"
	"github.com/alepar/naq/airthings/bluetooth"
	"github.com/alepar/naq/airthings/waveplus"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the sensor device",
}

var checkMacCmd = &cobra.Command{
	Use:     "mac <mac-address>",
	Short:   "Check sensor device using mac address",
	Example: "  naq check mac 12:34:56:78:9A:BC",
	Args:    cobra.ExactArgs(1),
	RunE:    runCheckMac,
}

var checkSerialCmd = &cobra.Command{
	Use:   "serial <serial-number>",
	Short: "Check sensor device using serial number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return errors.New("lookup by serial number is not supported")
	},
}

var checkJSON bool

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.AddCommand(checkMacCmd)
	checkCmd.AddCommand(checkSerialCmd)

	checkMacCmd.Flags().BoolVar(&checkJSON, "json", false, "print the result as JSON")
}

func runCheckMac(cmd *cobra.Command, args []string) error {
	addr, err := airthings.ParseMacAddress(args[0])
	if err != nil {
		log.Debug(err)
		return errors.New("Invalid mac address")
	}

	connector := waveplus.NewConnector(bluetooth.NewManager())
	return checkByMacAddress(cmd.Context(), cmd.OutOrStdout(), connector, addr, scanDuration, checkJSON)
}

func checkByMacAddress(ctx context.Context, w io.Writer, checker airthings.Checker, addr net.HardwareAddr, scanDuration time.Duration, asJSON bool) error {
	if !asJSON {
		fmt.Fprintln(w, "> Checking for sensor data. Please wait a few seconds ...")
	}

	meta, err := checker.CheckSensorDataByMacAddress(ctx, addr, scanDuration)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	printReport(w, meta, time.Now())
	return nil
}
