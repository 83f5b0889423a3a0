package spi

import (
	"errors"
	"testing"

	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
	"github.com/GlitchKit/greatfet/pkg/testutils"
	"github.com/stretchr/testify/assert"
)

type fakePeripheral struct {
	name string
}

func (p *fakePeripheral) PeripheralName() string {
	return p.name
}

func TestNewBusInitializes(t *testing.T) {
	trans := &testutils.RecordingTransport{}

	bus, err := NewBus(trans, nil)
	assert.NoError(t, err)
	assert.Equal(t, DefaultBufferSize, bus.BufferSize())

	inits := trans.CallsFor(transport.RequestSPIInit)
	assert.Equal(t, 1, len(inits))
}

func TestTransfer(t *testing.T) {
	trans := &testutils.RecordingTransport{
		Responses: map[transport.Request][]byte{
			transport.RequestSPIRead: {0xca, 0xfe, 0xf0},
		},
	}

	bus, err := NewBus(trans, nil)
	assert.NoError(t, err)

	data, err := bus.Transfer([]byte{1, 2, 3})
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe, 0xf0}, data)

	writes := trans.CallsFor(transport.RequestSPIWrite)
	assert.Equal(t, 1, len(writes))
	assert.Equal(t, []byte{1, 2, 3}, writes[0].Data)

	reads := trans.CallsFor(transport.RequestSPIRead)
	assert.Equal(t, 1, len(reads))
	assert.Equal(t, 3, reads[0].Length)
}

func TestTransferReceiveLongerPadsWithZeroes(t *testing.T) {
	trans := &testutils.RecordingTransport{}

	bus, err := NewBus(trans, nil)
	assert.NoError(t, err)

	send := []byte{1, 2}
	data, err := bus.TransferReceive(send, 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, len(data))

	// The transmitted payload is the send bytes extended with zeroes.
	writes := trans.CallsFor(transport.RequestSPIWrite)
	assert.Equal(t, 1, len(writes))
	assert.Equal(t, []byte{1, 2, 0, 0, 0}, writes[0].Data)

	// The caller's slice is untouched.
	assert.Equal(t, []byte{1, 2}, send)
}

func TestTransferNoReceive(t *testing.T) {
	trans := &testutils.RecordingTransport{}

	bus, err := NewBus(trans, nil)
	assert.NoError(t, err)

	data, err := bus.TransferReceive([]byte{9, 9, 9}, 0)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(data))

	// One write, and deliberately no read at all.
	assert.Equal(t, 1, len(trans.CallsFor(transport.RequestSPIWrite)))
	assert.Equal(t, 0, len(trans.CallsFor(transport.RequestSPIRead)))
}

func TestTransferCapacityExceeded(t *testing.T) {
	trans := &testutils.RecordingTransport{}

	bus, err := NewBus(trans, NewConfig().WithBufferSize(8))
	assert.NoError(t, err)

	before := len(trans.Calls())

	_, err = bus.Transfer(make([]byte, 9))
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// Receive length alone can also blow the budget.
	_, err = bus.TransferReceive([]byte{1}, 9)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// No I/O happened on either failure.
	assert.Equal(t, before, len(trans.Calls()))
}

func TestTransferTransportErrorPropagates(t *testing.T) {
	failure := errors.New("usb: device disconnected")
	trans := &testutils.RecordingTransport{
		FailAt:  2, // after spi_init
		FailErr: failure,
	}

	bus, err := NewBus(trans, nil)
	assert.NoError(t, err)

	_, err = bus.Transfer([]byte{1})
	assert.ErrorIs(t, err, failure)
}

func TestAttach(t *testing.T) {
	trans := &testutils.RecordingTransport{}

	bus, err := NewBus(trans, nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(bus.Devices()))

	first := &fakePeripheral{name: "max2837"}
	second := &fakePeripheral{name: "w25q80bv"}
	bus.Attach(first)
	bus.Attach(second)

	devices := bus.Devices()
	assert.Equal(t, 2, len(devices))
	assert.Equal(t, "max2837", devices[0].PeripheralName())
	assert.Equal(t, "w25q80bv", devices[1].PeripheralName())
}
