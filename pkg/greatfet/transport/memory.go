package transport

import (
	"encoding/binary"
	"fmt"
	"sync"
)

/**
 * Simple in-memory board emulation.
 *
 * Flash is a plain byte array with erase-to-0xFF semantics. The SPI
 * peripheral is a loopback: a read returns the bytes most recently written,
 * zero filled beyond them.
 *
 */
type Memory struct {
	lock    sync.Mutex
	flash   []byte
	spiLast []byte
	serial  string
	boardID uint32
	version string
}

func NewMemory(flashSize int) *Memory {
	m := &Memory{
		flash:   make([]byte, flashSize),
		serial:  "0000000000000000dead",
		boardID: 0,
		version: "git-dummy",
	}
	for i := range m.flash {
		m.flash[i] = 0xff
	}
	return m
}

func (m *Memory) Out(req Request, value, index uint16, data []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	switch req {
	case RequestSPIInit, RequestLEDToggle, RequestReset:
		return nil
	case RequestSPIWrite:
		m.spiLast = append([]byte(nil), data...)
		return nil
	case RequestFlashErase:
		for i := range m.flash {
			m.flash[i] = 0xff
		}
		return nil
	case RequestFlashWrite:
		offset := int(JoinAddress(value, index))
		if offset+len(data) > len(m.flash) {
			return fmt.Errorf("flash write beyond end: offset %d length %d", offset, len(data))
		}
		// NOR programming can only clear bits.
		for i, b := range data {
			m.flash[offset+i] &= b
		}
		return nil
	}
	return fmt.Errorf("unsupported out request %s", req)
}

func (m *Memory) In(req Request, value, index uint16, length int) ([]byte, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	switch req {
	case RequestSPIRead:
		buffer := make([]byte, length)
		copy(buffer, m.spiLast)
		return buffer, nil
	case RequestFlashRead:
		offset := int(JoinAddress(value, index))
		if offset+length > len(m.flash) {
			return nil, fmt.Errorf("flash read beyond end: offset %d length %d", offset, length)
		}
		return append([]byte(nil), m.flash[offset:offset+length]...), nil
	case RequestReadBoardID:
		buffer := make([]byte, length)
		binary.LittleEndian.PutUint32(buffer, m.boardID)
		return buffer, nil
	case RequestReadVersionString:
		buffer := make([]byte, length)
		copy(buffer, m.version)
		return buffer, nil
	case RequestReadPartIDSerial:
		buffer := make([]byte, length)
		copy(buffer, m.serial)
		return buffer, nil
	}
	return nil, fmt.Errorf("unsupported in request %s", req)
}

func (m *Memory) Close() error {
	return nil
}
