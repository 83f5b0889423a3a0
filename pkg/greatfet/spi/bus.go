package spi

import (
	"errors"
	"fmt"

	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
	"github.com/google/uuid"
	"github.com/loopholelabs/logging/types"
)

// ErrCapacityExceeded is returned when a reconciled transfer would not fit
// in the board's SPI buffer. No transport call has been made when it is
// returned.
var ErrCapacityExceeded = errors.New("transfer exceeds the SPI buffer size")

// DefaultBufferSize is the receive buffer size reported by current board
// firmware.
const DefaultBufferSize = 255

// Peripheral is anything that can be attached to a Bus. Attachment is
// bookkeeping only; chip select ownership stays with the caller.
type Peripheral interface {
	PeripheralName() string
}

type Config struct {
	Logger     types.Logger
	BufferSize int
}

func NewConfig() *Config {
	return &Config{
		Logger:     nil,
		BufferSize: DefaultBufferSize,
	}
}

func (c *Config) WithBufferSize(size int) *Config {
	c.BufferSize = size
	return c
}

func (c *Config) WithLogger(log types.Logger) *Config {
	c.Logger = log
	return c
}

/**
 * Bus drives one full-duplex SPI transaction per Transfer call and keeps
 * the registry of attached peripherals.
 *
 * NB: Not safe for concurrent use. Exclusive access is a caller contract.
 *
 */
type Bus struct {
	uuid       uuid.UUID
	logger     types.Logger
	trans      transport.Transport
	bufferSize int
	devices    []Peripheral
}

// NewBus initializes the board's SPI controller and returns a bus bound to
// the given transport.
func NewBus(t transport.Transport, conf *Config) (*Bus, error) {
	if conf == nil {
		conf = NewConfig()
	}
	if conf.BufferSize <= 0 {
		return nil, fmt.Errorf("invalid SPI buffer size %d", conf.BufferSize)
	}

	b := &Bus{
		uuid:       uuid.New(),
		logger:     conf.Logger,
		trans:      t,
		bufferSize: conf.BufferSize,
	}

	err := t.Out(transport.RequestSPIInit, 0, 0, nil)
	if err != nil {
		return nil, err
	}

	if b.logger != nil {
		b.logger.Debug().
			Str("uuid", b.uuid.String()).
			Int("buffer_size", b.bufferSize).
			Msg("spi bus initialized")
	}
	return b, nil
}

// BufferSize returns the maximum number of bytes one transfer can carry.
func (b *Bus) BufferSize() int {
	return b.bufferSize
}

// Attach adds a peripheral to the bus registry. No conflict detection is
// performed; two peripherals sharing a chip select is the caller's problem.
func (b *Bus) Attach(p Peripheral) {
	b.devices = append(b.devices, p)
	if b.logger != nil {
		b.logger.Debug().
			Str("uuid", b.uuid.String()).
			Str("peripheral", p.PeripheralName()).
			Int("attached", len(b.devices)).
			Msg("peripheral attached")
	}
}

// Devices returns the attached peripherals in attachment order.
func (b *Bus) Devices() []Peripheral {
	return b.devices
}

// Transfer sends data over the bus and receives the same number of bytes.
func (b *Bus) Transfer(send []byte) ([]byte, error) {
	return b.TransferReceive(send, len(send))
}

// TransferReceive sends data and receives receiveLength bytes. When
// receiveLength exceeds len(send) the transmitted payload is extended with
// zeroes so that the transaction stays symmetric on the wire. When
// receiveLength is zero nothing is read back and the returned slice is
// empty.
//
// The reconciled length is checked against the buffer size before any
// transport call: on ErrCapacityExceeded no I/O has happened.
func (b *Bus) TransferReceive(send []byte, receiveLength int) ([]byte, error) {
	if receiveLength < 0 {
		return nil, fmt.Errorf("negative receive length %d", receiveLength)
	}

	reconciled := len(send)
	if receiveLength > reconciled {
		reconciled = receiveLength
	}
	if reconciled > b.bufferSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, reconciled, b.bufferSize)
	}

	payload := send
	if reconciled > len(send) {
		payload = make([]byte, reconciled)
		copy(payload, send)
	}

	err := b.trans.Out(transport.RequestSPIWrite, 0, 0, payload)
	if err != nil {
		return nil, err
	}

	if receiveLength == 0 {
		return []byte{}, nil
	}

	received, err := b.trans.In(transport.RequestSPIRead, 0, 0, receiveLength)
	if err != nil {
		return nil, err
	}

	if b.logger != nil {
		b.logger.Debug().
			Str("uuid", b.uuid.String()).
			Int("sent", len(payload)).
			Int("received", len(received)).
			Msg("spi transfer")
	}
	return received, nil
}
