package wishbone

import (
	"encoding/binary"

	"github.com/sarchlab/axi2wb/mem"
)

// Memory is a Device backed by a storage. Words are little-endian and a write
// only updates the bytes selected by SEL.
type Memory struct {
	Storage *mem.Storage
}

// NewMemory creates a memory device with the given capacity in bytes.
func NewMemory(capacity uint64) *Memory {
	return &Memory{Storage: mem.NewStorage(capacity)}
}

// Access reads or writes the addressed word.
func (m *Memory) Access(req Request) (uint32, error) {
	addr := uint64(req.ByteAddr())

	buf, err := m.Storage.Read(addr, 4)
	if err != nil {
		return 0, err
	}

	if !req.We {
		return binary.LittleEndian.Uint32(buf), nil
	}

	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], req.DatW)

	for lane := 0; lane < 4; lane++ {
		if req.Sel&(1<<lane) != 0 {
			buf[lane] = data[lane]
		}
	}

	return 0, m.Storage.Write(addr, buf)
}

// ReadWord is a backdoor read that bypasses the bus.
func (m *Memory) ReadWord(byteAddr uint64) (uint32, error) {
	buf, err := m.Storage.Read(byteAddr, 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buf), nil
}

// WriteWord is a backdoor write that bypasses the bus.
func (m *Memory) WriteWord(byteAddr uint64, value uint32) error {
	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], value)

	return m.Storage.Write(byteAddr, data[:])
}
