package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alepar/naq/airthings/bluetooth"
	"github.com/alepar/naq/airthings/exporter"
	"github.com/alepar/naq/airthings/mqtt"
	"github.com/alepar/naq/airthings/waveplus"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Periodically read a sensor and expose the readings as Prometheus metrics",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addExportFlags(exportCmd.Flags())
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadExportConfig(cmd.Flags(), os.Getenv)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var publishers []exporter.Publisher
	if cfg.mqtt.Broker != "" {
		publisher := mqtt.NewPublisher(cfg.mqtt)
		go func() {
			if err := publisher.Connect(ctx); err != nil {
				log.Errorf("mqtt connect failed: %s", err)
			}
		}()
		defer publisher.Disconnect()
		publishers = append(publishers, publisher)
	}

	connector := waveplus.NewConnector(bluetooth.NewManager())
	e, err := exporter.New(cfg.exporter, connector, publishers...)
	if err != nil {
		return err
	}

	log.WithField("mac_address", cmd.Flag("mac").Value.String()).
		Infof("exporting every %s", cfg.exporter.ReadInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.ListenAndServe(gctx)
	})
	g.Go(func() error {
		e.Run(gctx)
		return nil
	})
	return g.Wait()
}
