package flash

import (
	"errors"
	"fmt"

	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
	"github.com/loopholelabs/logging/types"
)

// ErrOutOfRange is returned when address+length runs past the configured
// flash size. No transport call has been made when it is returned.
var ErrOutOfRange = errors.New("region exceeds the addressable flash size")

const (
	// MaxLength is the default safety ceiling on the addressable flash.
	MaxLength = 0x100000

	// DefaultChunkSize is the largest single flash read or write the
	// vendor request transport carries. Independent of the SPI buffer
	// size; the flash endpoint has its own limit.
	DefaultChunkSize = 256
)

// ProgressFunc is invoked synchronously after every chunk with the number
// of bytes finished so far and the total for the whole operation. The final
// call always has done == total. A nil ProgressFunc is silent.
type ProgressFunc func(done int, total int)

type Config struct {
	Logger    types.Logger
	ChunkSize int
	MaxLength int
}

func NewConfig() *Config {
	return &Config{
		Logger:    nil,
		ChunkSize: DefaultChunkSize,
		MaxLength: MaxLength,
	}
}

func (c *Config) WithChunkSize(size int) *Config {
	c.ChunkSize = size
	return c
}

func (c *Config) WithMaxLength(length int) *Config {
	c.MaxLength = length
	return c
}

func (c *Config) WithLogger(log types.Logger) *Config {
	c.Logger = log
	return c
}

/**
 * Flash programs the board's onboard SPI NOR flash through the vendor
 * request transport, splitting arbitrarily large regions into bounded
 * chunks issued strictly in sequence.
 *
 * NB: Not safe for concurrent use. Interleaving chunks from two operations
 * on the same board corrupts data; exclusivity is a caller contract.
 *
 */
type Flash struct {
	logger    types.Logger
	trans     transport.Transport
	chunkSize int
	maxLength int
}

func New(t transport.Transport, conf *Config) (*Flash, error) {
	if conf == nil {
		conf = NewConfig()
	}
	if conf.ChunkSize <= 0 {
		return nil, fmt.Errorf("invalid flash chunk size %d", conf.ChunkSize)
	}
	if conf.MaxLength <= 0 {
		return nil, fmt.Errorf("invalid flash max length %d", conf.MaxLength)
	}
	return &Flash{
		logger:    conf.Logger,
		trans:     t,
		chunkSize: conf.ChunkSize,
		maxLength: conf.MaxLength,
	}, nil
}

// Size returns the configured addressable flash size in bytes.
func (f *Flash) Size() int {
	return f.maxLength
}

// ChunkSize returns the per-transfer ceiling for flash reads and writes.
func (f *Flash) ChunkSize() int {
	return f.chunkSize
}

func (f *Flash) checkRegion(address, length int) error {
	if address < 0 || length < 0 {
		return fmt.Errorf("%w: negative address or length", ErrOutOfRange)
	}
	if address+length > f.maxLength {
		return fmt.Errorf("%w: 0x%x+0x%x > 0x%x", ErrOutOfRange, address, length, f.maxLength)
	}
	return nil
}

// Erase clears the whole flash. A single request with no partial-erase
// recovery: on error the flash is left in whatever state the erase reached.
func (f *Flash) Erase() error {
	if f.logger != nil {
		f.logger.Debug().Msg("erasing flash")
	}
	return f.trans.Out(transport.RequestFlashErase, 0, 0, nil)
}

// Read returns length bytes of flash starting at address, issuing one
// bounded transport read per chunk and reporting progress after each. The
// region is validated before any I/O. Transport errors propagate unchanged
// and abort the remaining chunks.
func (f *Flash) Read(address, length int, progress ProgressFunc) ([]byte, error) {
	err := f.checkRegion(address, length)
	if err != nil {
		return nil, err
	}

	if length == 0 {
		if progress != nil {
			progress(0, 0)
		}
		return []byte{}, nil
	}

	data := make([]byte, 0, length)
	offset := address
	remaining := length

	for remaining > 0 {
		chunk := remaining
		if chunk > f.chunkSize {
			chunk = f.chunkSize
		}

		value, index := transport.SplitAddress(uint32(offset))
		buffer, err := f.trans.In(transport.RequestFlashRead, value, index, chunk)
		if err != nil {
			return nil, err
		}

		data = append(data, buffer...)
		offset += chunk
		remaining -= chunk

		if f.logger != nil {
			f.logger.Trace().
				Int("offset", offset).
				Int("done", length-remaining).
				Int("total", length).
				Msg("flash read chunk")
		}
		if progress != nil {
			progress(length-remaining, length)
		}
	}

	return data, nil
}

// Write programs data into flash at address, erasing first. The erase is a
// single whole-flash operation; if it fails the write never starts. Each
// chunk either completes in full or the transport error propagates
// immediately, aborting the remaining chunks with the flash partially
// programmed. The last progress event emitted tells the caller how much
// made it.
func (f *Flash) Write(address int, data []byte, progress ProgressFunc) error {
	err := f.checkRegion(address, len(data))
	if err != nil {
		return err
	}

	if len(data) == 0 {
		if progress != nil {
			progress(0, 0)
		}
		return nil
	}

	err = f.Erase()
	if err != nil {
		return err
	}

	offset := address
	remaining := len(data)
	total := len(data)

	for remaining > 0 {
		chunk := remaining
		if chunk > f.chunkSize {
			chunk = f.chunkSize
		}

		value, index := transport.SplitAddress(uint32(offset))
		err = f.trans.Out(transport.RequestFlashWrite, value, index, data[total-remaining:total-remaining+chunk])
		if err != nil {
			return err
		}

		offset += chunk
		remaining -= chunk

		if f.logger != nil {
			f.logger.Trace().
				Int("offset", offset).
				Int("done", total-remaining).
				Int("total", total).
				Msg("flash write chunk")
		}
		if progress != nil {
			progress(total-remaining, total)
		}
	}

	return nil
}
