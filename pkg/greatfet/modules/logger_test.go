package modules

import (
	"testing"

	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
	"github.com/GlitchKit/greatfet/pkg/testutils"
	"github.com/loopholelabs/logging"
	"github.com/loopholelabs/logging/types"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	buffer := &testutils.SafeWriteBuffer{}
	log := logging.New(logging.Zerolog, "greatfet", buffer)
	log.SetLevel(types.DebugLevel)

	trans := NewLogger(transport.NewMemory(1024), "dummy", log)

	err := trans.Out(transport.RequestSPIWrite, 0, 0, []byte{1, 2, 3})
	assert.NoError(t, err)
	assert.Greater(t, buffer.Len(), 0)

	logged := buffer.Len()
	trans.Disable()
	_, err = trans.In(transport.RequestSPIRead, 0, 0, 3)
	assert.NoError(t, err)

	// Disable is logged, then nothing more.
	assert.Greater(t, buffer.Len(), logged)
	afterDisable := buffer.Len()

	err = trans.Out(transport.RequestLEDToggle, 0, 0, nil)
	assert.NoError(t, err)
	assert.Equal(t, afterDisable, buffer.Len())
}
