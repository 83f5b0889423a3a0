package main

import (
	"encoding/hex"
	"fmt"

	"github.com/GlitchKit/greatfet/pkg/greatfet/spi"
	"github.com/spf13/cobra"
)

var (
	cmdSPI = &cobra.Command{
		Use:   "spi <hex bytes>",
		Short: "Perform one raw SPI transaction",
		Long:  `Sends the given hex payload over the SPI bus and prints whatever comes back, e.g. greatfet spi 9f000000 --rxlen 4`,
		Args:  cobra.ExactArgs(1),
		RunE:  runSPI,
	}
)

var spiRxLen int
var spiSerial string
var spiConf string
var spiDummy bool
var spiDebug bool

func init() {
	rootCmd.AddCommand(cmdSPI)
	cmdSPI.Flags().IntVarP(&spiRxLen, "rxlen", "n", -1, "Bytes to receive (default: same as sent)")
	cmdSPI.Flags().StringVarP(&spiSerial, "serial", "s", "", "Serial number of device, if multiple devices")
	cmdSPI.Flags().StringVarP(&spiConf, "conf", "c", "", "Board configuration file")
	cmdSPI.Flags().BoolVarP(&spiDummy, "dummy", "y", false, "Use an in-memory dummy board")
	cmdSPI.Flags().BoolVarP(&spiDebug, "debug", "d", false, "Debug logging")
}

func runSPI(_ *cobra.Command, args []string) error {
	payload, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("invalid hex payload: %w", err)
	}

	log := setupLogger(spiDebug)

	setup, err := setupBoard(spiConf, spiSerial, spiDummy, log)
	if err != nil {
		return err
	}
	defer setup.trans.Close()

	bus, err := spi.NewBus(setup.trans, setup.spiConf)
	if err != nil {
		return err
	}

	receiveLength := spiRxLen
	if receiveLength < 0 {
		receiveLength = len(payload)
	}

	data, err := bus.TransferReceive(payload, receiveLength)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", hex.EncodeToString(data))
	return nil
}
