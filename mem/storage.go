// Package mem provides the sparse backing store used by the memory targets on
// the downstream bus.
package mem

import (
	"errors"
	"fmt"
	"sync"
)

// Capacity units.
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
	GB uint64 = 1 << 30
)

// ErrOutOfRange is returned when an access touches bytes beyond the capacity.
var ErrOutOfRange = errors.New("accessing address beyond the storage capacity")

// A Storage keeps the data of the simulated system.
//
// The storage is managed in units, similar to pages. Units that are never
// touched by Read or Write are never allocated, so a large capacity costs
// nothing until it is used.
type Storage struct {
	sync.Mutex

	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity.
func NewStorage(capacity uint64) *Storage {
	return NewStorageWithUnitSize(capacity, 4*KB)
}

// NewStorageWithUnitSize creates a storage with a custom allocation unit.
func NewStorageWithUnitSize(capacity, unitSize uint64) *Storage {
	if unitSize == 0 {
		panic("unit size must not be 0")
	}

	return &Storage{
		unitSize: unitSize,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Capacity returns the number of bytes that can be stored.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) mustBeInRange(address, length uint64) error {
	if address >= s.capacity || length > s.capacity-address {
		return fmt.Errorf("%w: 0x%x+%d, capacity 0x%x",
			ErrOutOfRange, address, length, s.capacity)
	}

	return nil
}

func (s *Storage) unit(address uint64) []byte {
	baseAddr, _ := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return baseAddr, inUnitAddr
}

// Read returns a copy of length bytes starting at address.
func (s *Storage) Read(address, length uint64) ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	if err := s.mustBeInRange(address, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)
	offset := uint64(0)

	for offset < length {
		curr := address + offset
		unit := s.unit(curr)
		_, inUnitAddr := s.parseAddress(curr)

		n := copy(res[offset:], unit[inUnitAddr:])
		offset += uint64(n)
	}

	return res, nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	s.Lock()
	defer s.Unlock()

	length := uint64(len(data))
	if err := s.mustBeInRange(address, length); err != nil {
		return err
	}

	offset := uint64(0)

	for offset < length {
		curr := address + offset
		unit := s.unit(curr)
		_, inUnitAddr := s.parseAddress(curr)

		n := copy(unit[inUnitAddr:], data[offset:])
		offset += uint64(n)
	}

	return nil
}
