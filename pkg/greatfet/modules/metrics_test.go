package modules

import (
	"testing"

	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	met := NewMetrics(transport.NewMemory(1024))

	err := met.Out(transport.RequestFlashErase, 0, 0, nil)
	assert.NoError(t, err)
	err = met.Out(transport.RequestFlashWrite, 0, 0, []byte{1, 2, 3, 4})
	assert.NoError(t, err)
	_, err = met.In(transport.RequestFlashRead, 0, 0, 16)
	assert.NoError(t, err)

	snap := met.Snapshot()
	assert.Equal(t, uint64(2), snap.OutOps)
	assert.Equal(t, uint64(4), snap.OutBytes)
	assert.Equal(t, uint64(1), snap.InOps)
	assert.Equal(t, uint64(16), snap.InBytes)
	assert.Equal(t, uint64(1), snap.EraseOps)
	assert.Equal(t, uint64(1), snap.FlashWrites)
	assert.Equal(t, uint64(1), snap.FlashReads)
	assert.Equal(t, uint64(0), snap.OutErrors)

	// Unsupported request counts as an error.
	err = met.Out(transport.RequestFlashRead, 0, 0, nil)
	assert.Error(t, err)
	snap = met.Snapshot()
	assert.Equal(t, uint64(1), snap.OutErrors)

	met.ResetMetrics()
	snap = met.Snapshot()
	assert.Equal(t, uint64(0), snap.OutOps)
	assert.Equal(t, uint64(0), snap.InBytes)
}
