package greatfet

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/GlitchKit/greatfet/pkg/greatfet/flash"
	"github.com/GlitchKit/greatfet/pkg/greatfet/spi"
	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
	"github.com/loopholelabs/logging/types"
)

// Board IDs reported by the firmware.
const (
	BoardIDAzalea = 0
	BoardIDRad1o  = 1
)

const (
	versionStringLength = 32
	serialNumberLength  = 20
)

/**
 * Device is a handle on one attached GreatFET board. It owns the transport
 * for its lifetime and exposes the board's peripherals.
 *
 */
type Device struct {
	logger types.Logger
	trans  transport.Transport

	// OnboardFlash programs the SPI NOR flash the board boots from.
	OnboardFlash *flash.Flash
}

type Config struct {
	Logger types.Logger
	Flash  *flash.Config
}

func NewConfig() *Config {
	return &Config{}
}

// New wraps a transport in a device handle. The transport is owned by the
// device from here on; Close the device, not the transport.
func New(t transport.Transport, conf *Config) (*Device, error) {
	if conf == nil {
		conf = NewConfig()
	}

	flashConf := conf.Flash
	if flashConf == nil {
		flashConf = flash.NewConfig().WithLogger(conf.Logger)
	}
	onboard, err := flash.New(t, flashConf)
	if err != nil {
		return nil, err
	}

	return &Device{
		logger:       conf.Logger,
		trans:        t,
		OnboardFlash: onboard,
	}, nil
}

// Transport returns the underlying vendor request transport.
func (d *Device) Transport() transport.Transport {
	return d.trans
}

// SPIBus initializes and returns the board's user-facing SPI controller.
// The first controller drives the onboard flash and is not reachable here.
func (d *Device) SPIBus(conf *spi.Config) (*spi.Bus, error) {
	if conf == nil {
		conf = spi.NewConfig().WithLogger(d.logger)
	}
	return spi.NewBus(d.trans, conf)
}

// BoardID reads the numeric board identifier.
func (d *Device) BoardID() (uint32, error) {
	data, err := d.trans.In(transport.RequestReadBoardID, 0, 0, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// BoardName maps a board identifier to its human readable name.
func BoardName(id uint32) string {
	switch id {
	case BoardIDAzalea:
		return "GreatFET One (Azalea)"
	case BoardIDRad1o:
		return "rad1o badge"
	}
	return fmt.Sprintf("unknown board (id %d)", id)
}

// FirmwareVersion reads the firmware version string.
func (d *Device) FirmwareVersion() (string, error) {
	data, err := d.trans.In(transport.RequestReadVersionString, 0, 0, versionStringLength)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}

// SerialNumber reads the part serial number programmed at the factory.
func (d *Device) SerialNumber() (string, error) {
	data, err := d.trans.In(transport.RequestReadPartIDSerial, 0, 0, serialNumberLength)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}

// LEDToggle toggles the heartbeat LED.
func (d *Device) LEDToggle() error {
	return d.trans.Out(transport.RequestLEDToggle, 0, 0, nil)
}

// Reset asks the board to reboot. The transport is unusable afterwards.
func (d *Device) Reset() error {
	if d.logger != nil {
		d.logger.Debug().Msg("resetting board")
	}
	return d.trans.Out(transport.RequestReset, 0, 0, nil)
}

func (d *Device) Close() error {
	return d.trans.Close()
}
