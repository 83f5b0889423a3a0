package main

import (
	"fmt"

	"github.com/GlitchKit/greatfet/pkg/greatfet"
	"github.com/spf13/cobra"
)

var (
	cmdInfo = &cobra.Command{
		Use:   "info",
		Short: "Print information about the attached board",
		Long:  ``,
		RunE:  runInfo,
	}
)

var infoSerial string
var infoDummy bool
var infoDebug bool

func init() {
	rootCmd.AddCommand(cmdInfo)
	cmdInfo.Flags().StringVarP(&infoSerial, "serial", "s", "", "Serial number of device, if multiple devices")
	cmdInfo.Flags().BoolVarP(&infoDummy, "dummy", "y", false, "Use an in-memory dummy board")
	cmdInfo.Flags().BoolVarP(&infoDebug, "debug", "d", false, "Debug logging")
}

func runInfo(_ *cobra.Command, _ []string) error {
	log := setupLogger(infoDebug)

	setup, err := setupBoard("", infoSerial, infoDummy, log)
	if err != nil {
		return err
	}

	device, err := greatfet.New(setup.trans, &greatfet.Config{Logger: log})
	if err != nil {
		return err
	}
	defer device.Close()

	id, err := device.BoardID()
	if err != nil {
		return err
	}
	version, err := device.FirmwareVersion()
	if err != nil {
		return err
	}
	serial, err := device.SerialNumber()
	if err != nil {
		return err
	}

	fmt.Printf("Found a %s\n", greatfet.BoardName(id))
	fmt.Printf("  Board ID: %d\n", id)
	fmt.Printf("  Firmware version: %s\n", version)
	fmt.Printf("  Part ID / serial: %s\n", serial)
	fmt.Printf("  Onboard flash: %d bytes\n", device.OnboardFlash.Size())
	return nil
}
