package greatfet

import (
	"testing"

	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
	"github.com/GlitchKit/greatfet/pkg/testutils"
	"github.com/stretchr/testify/assert"
)

func TestBoardIdentity(t *testing.T) {
	trans := &testutils.RecordingTransport{
		Responses: map[transport.Request][]byte{
			transport.RequestReadBoardID:       {0, 0, 0, 0},
			transport.RequestReadVersionString: []byte("git-v2021.2.1\x00"),
			transport.RequestReadPartIDSerial:  []byte("000057cc67e630267fff"),
		},
	}

	d, err := New(trans, nil)
	assert.NoError(t, err)

	id, err := d.BoardID()
	assert.NoError(t, err)
	assert.Equal(t, uint32(BoardIDAzalea), id)
	assert.Equal(t, "GreatFET One (Azalea)", BoardName(id))

	version, err := d.FirmwareVersion()
	assert.NoError(t, err)
	assert.Equal(t, "git-v2021.2.1", version)

	serial, err := d.SerialNumber()
	assert.NoError(t, err)
	assert.Equal(t, "000057cc67e630267fff", serial)
}

func TestReset(t *testing.T) {
	trans := &testutils.RecordingTransport{}

	d, err := New(trans, nil)
	assert.NoError(t, err)

	err = d.Reset()
	assert.NoError(t, err)
	assert.Equal(t, 1, len(trans.CallsFor(transport.RequestReset)))
}

func TestOnboardFlashRoundTrip(t *testing.T) {
	trans := transport.NewMemory(0x100000)

	d, err := New(trans, nil)
	assert.NoError(t, err)

	data := []byte("firmware image goes here")
	err = d.OnboardFlash.Write(0, data, nil)
	assert.NoError(t, err)

	back, err := d.OnboardFlash.Read(0, len(data), nil)
	assert.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestSPIBus(t *testing.T) {
	trans := transport.NewMemory(0x100000)

	d, err := New(trans, nil)
	assert.NoError(t, err)

	bus, err := d.SPIBus(nil)
	assert.NoError(t, err)

	// The memory transport loops the written payload back.
	data, err := bus.Transfer([]byte{1, 2, 3})
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}
