package transport

import "fmt"

// Request identifies a vendor request handled by the board firmware.
type Request uint8

const (
	RequestFlashErase        Request = 0
	RequestFlashWrite        Request = 1
	RequestFlashRead         Request = 2
	RequestReadBoardID       Request = 4
	RequestReadVersionString Request = 5
	RequestReadPartIDSerial  Request = 6
	RequestLEDToggle         Request = 8
	RequestSPIInit           Request = 11
	RequestSPIWrite          Request = 12
	RequestSPIRead           Request = 13
	RequestReset             Request = 22
)

func (r Request) String() string {
	switch r {
	case RequestFlashErase:
		return "flash_erase"
	case RequestFlashWrite:
		return "flash_write"
	case RequestFlashRead:
		return "flash_read"
	case RequestReadBoardID:
		return "read_board_id"
	case RequestReadVersionString:
		return "read_version_string"
	case RequestReadPartIDSerial:
		return "read_partid_serial"
	case RequestLEDToggle:
		return "led_toggle"
	case RequestSPIInit:
		return "spi_init"
	case RequestSPIWrite:
		return "spi_write"
	case RequestSPIRead:
		return "spi_read"
	case RequestReset:
		return "reset"
	}
	return fmt.Sprintf("request_%d", uint8(r))
}

// Transport is the blocking request/response primitive used to talk to the
// board. Every call completes or errors before the next is issued. A
// Transport is not safe for concurrent use; callers must guarantee exclusive
// access for the duration of a whole logical operation.
type Transport interface {
	// Out sends a host-to-device request with an optional payload.
	Out(req Request, value, index uint16, data []byte) error

	// In sends a device-to-host request and returns exactly length bytes.
	In(req Request, value, index uint16, length int) ([]byte, error)

	Close() error
}

// SplitAddress splits a flash byte offset across the value and index fields
// of a vendor request, high bits first.
func SplitAddress(address uint32) (value uint16, index uint16) {
	return uint16(address >> 16), uint16(address & 0xffff)
}

// JoinAddress is the inverse of SplitAddress.
func JoinAddress(value, index uint16) uint32 {
	return uint32(value)<<16 | uint32(index)
}
