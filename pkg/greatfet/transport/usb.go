package transport

import (
	"errors"
	"fmt"

	"github.com/google/gousb"
	"github.com/loopholelabs/logging/types"
)

const (
	// USB identifiers assigned to GreatFET boards.
	VendorID  = 0x1d50
	ProductID = 0x60e6
)

var ErrDeviceNotFound = errors.New("no GreatFET board found")

// USB implements Transport over libusb vendor control transfers.
type USB struct {
	logger types.Logger
	ctx    *gousb.Context
	dev    *gousb.Device
}

// OpenUSB finds an attached board and claims it. If serial is non-empty only
// a board with that serial number matches. Remember to call Close().
func OpenUSB(serial string, log types.Logger) (*USB, error) {
	ctx := gousb.NewContext()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(VendorID) && desc.Product == gousb.ID(ProductID)
	})
	if err != nil {
		// OpenDevices can return matched devices alongside an error for
		// unrelated devices it failed to probe. Only fail if we got nothing.
		if len(devs) == 0 {
			ctx.Close()
			return nil, err
		}
	}

	var dev *gousb.Device
	for _, d := range devs {
		if dev != nil {
			d.Close()
			continue
		}
		if serial != "" {
			sn, err := d.SerialNumber()
			if err != nil || sn != serial {
				d.Close()
				continue
			}
		}
		dev = d
	}

	if dev == nil {
		ctx.Close()
		return nil, ErrDeviceNotFound
	}

	if log != nil {
		log.Debug().
			Str("serial", serial).
			Msg("opened GreatFET usb device")
	}

	return &USB{
		logger: log,
		ctx:    ctx,
		dev:    dev,
	}, nil
}

func (u *USB) Out(req Request, value, index uint16, data []byte) error {
	rtype := uint8(gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice)
	n, err := u.dev.Control(rtype, uint8(req), value, index, data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short vendor request out %s: sent %d of %d bytes", req, n, len(data))
	}
	return nil
}

func (u *USB) In(req Request, value, index uint16, length int) ([]byte, error) {
	buffer := make([]byte, length)
	rtype := uint8(gousb.ControlIn | gousb.ControlVendor | gousb.ControlDevice)
	n, err := u.dev.Control(rtype, uint8(req), value, index, buffer)
	if err != nil {
		return nil, err
	}
	if n != length {
		return nil, fmt.Errorf("short vendor request in %s: got %d of %d bytes", req, n, length)
	}
	return buffer, nil
}

func (u *USB) SerialNumber() (string, error) {
	return u.dev.SerialNumber()
}

func (u *USB) Close() error {
	err := u.dev.Close()
	u.ctx.Close()
	return err
}
