package main

import (
	"os"

	"github.com/GlitchKit/greatfet/pkg/greatfet/config"
	"github.com/GlitchKit/greatfet/pkg/greatfet/flash"
	"github.com/GlitchKit/greatfet/pkg/greatfet/spi"
	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
	"github.com/loopholelabs/logging"
	"github.com/loopholelabs/logging/types"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:           "greatfet",
		Short:         "GreatFET host utility.",
		Long:          ``,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func setupLogger(debug bool) types.Logger {
	if !debug {
		return nil
	}
	log := logging.New(logging.Zerolog, "greatfet", os.Stderr)
	log.SetLevel(types.TraceLevel)
	return log
}

// boardSetup is everything a subcommand needs to talk to one board.
type boardSetup struct {
	trans     transport.Transport
	flashConf *flash.Config
	spiConf   *spi.Config
}

// setupBoard opens a transport (a real board, or the in-memory dummy) and
// resolves the board's configuration file entry if one exists.
func setupBoard(confPath string, serial string, dummy bool, log types.Logger) (*boardSetup, error) {
	flashConf := flash.NewConfig().WithLogger(log)
	spiConf := spi.NewConfig().WithLogger(log)

	if confPath != "" {
		schema, err := config.ReadSchema(confPath)
		if err != nil {
			return nil, err
		}
		board := schema.FindBoard(serial)
		if board != nil {
			flashConf, err = board.FlashConfig()
			if err != nil {
				return nil, err
			}
			flashConf.WithLogger(log)
			spiConf = board.SPIConfig().WithLogger(log)
		}
	}

	var trans transport.Transport
	if dummy {
		trans = transport.NewMemory(flashConf.MaxLength)
	} else {
		usb, err := transport.OpenUSB(serial, log)
		if err != nil {
			return nil, err
		}
		trans = usb
	}

	return &boardSetup{
		trans:     trans,
		flashConf: flashConf,
		spiConf:   spiConf,
	}, nil
}
