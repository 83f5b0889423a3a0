package benchmarks

import (
	crand "crypto/rand"
	"fmt"
	"testing"

	"github.com/GlitchKit/greatfet/pkg/greatfet/flash"
	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
	"github.com/stretchr/testify/assert"
)

const testFlashSize = 1024 * 1024

type TestConfig struct {
	readOp    bool
	chunkSize int
	length    int
	name      string
}

func BenchmarkFlash(mb *testing.B) {
	trans := transport.NewMemory(testFlashSize)

	for _, conf := range []TestConfig{
		{readOp: true, name: "read", chunkSize: 64, length: 64 * 1024},
		{readOp: true, name: "read", chunkSize: 256, length: 64 * 1024},
		{readOp: true, name: "read", chunkSize: 1024, length: 64 * 1024},

		{readOp: false, name: "write", chunkSize: 64, length: 64 * 1024},
		{readOp: false, name: "write", chunkSize: 256, length: 64 * 1024},
		{readOp: false, name: "write", chunkSize: 1024, length: 64 * 1024},
	} {
		mb.Run(fmt.Sprintf("%s-%d-%d", conf.name, conf.chunkSize, conf.length), func(b *testing.B) {
			f, err := flash.New(trans, flash.NewConfig().
				WithChunkSize(conf.chunkSize).
				WithMaxLength(testFlashSize))
			assert.NoError(b, err)

			buffer := make([]byte, conf.length)
			_, err = crand.Read(buffer)
			assert.NoError(b, err)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if conf.readOp {
					_, err = f.Read(0, conf.length, nil)
				} else {
					err = f.Write(0, buffer, nil)
				}
				assert.NoError(b, err)
			}
			b.SetBytes(int64(conf.length))
		})
	}
}
