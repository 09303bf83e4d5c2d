package zkvm

import (
	"encoding/binary"
	"errors"
)

// Memory layout constants. The guest address space is sparse 4 KiB pages
// allocated on first touch, with a memory-mapped I/O window at the top.
const (
	RVPageSize         = 4096
	RVPageShift        = 12
	RVMMIOBase  uint32 = 0xF0000000

	// RVMaxPages caps allocation at 64 MiB so a runaway guest cannot
	// exhaust host memory.
	RVMaxPages = 16384
)

var (
	ErrRVMemPageLimit  = errors.New("riscv: page allocation limit exceeded")
	ErrRVMemSegOverlap = errors.New("riscv: segment load would overflow")
	ErrRVMemSegEmpty   = errors.New("riscv: empty segment data")
)

// RVMemory is the sparse page-based guest memory.
type RVMemory struct {
	pages     map[uint32][]byte // page index -> 4 KiB page
	mmioRead  func(addr uint32) uint32
	mmioWrite func(addr uint32, val uint32)
	pageCount int
	maxPages  int
}

// NewRVMemory creates an empty memory.
func NewRVMemory() *RVMemory {
	return &RVMemory{
		pages:    make(map[uint32][]byte),
		maxPages: RVMaxPages,
	}
}

// SetMMIO registers handlers for accesses at RVMMIOBase and above.
func (m *RVMemory) SetMMIO(read func(uint32) uint32, write func(uint32, uint32)) {
	m.mmioRead = read
	m.mmioWrite = write
}

func isMMIO(addr uint32) bool {
	return addr >= RVMMIOBase
}

func (m *RVMemory) getPage(addr uint32) ([]byte, error) {
	idx := addr >> RVPageShift
	if page, ok := m.pages[idx]; ok {
		return page, nil
	}
	if m.pageCount >= m.maxPages {
		return nil, ErrRVMemPageLimit
	}
	page := make([]byte, RVPageSize)
	m.pages[idx] = page
	m.pageCount++
	return page, nil
}

func pageOffset(addr uint32) uint32 {
	return addr & (RVPageSize - 1)
}

// ReadByte reads one byte.
func (m *RVMemory) ReadByte(addr uint32) (byte, error) {
	if isMMIO(addr) && m.mmioRead != nil {
		return byte(m.mmioRead(addr)), nil
	}
	page, err := m.getPage(addr)
	if err != nil {
		return 0, err
	}
	return page[pageOffset(addr)], nil
}

// WriteByte writes one byte. Writes into the MMIO window without a handler
// are dropped.
func (m *RVMemory) WriteByte(addr uint32, val byte) error {
	if isMMIO(addr) {
		if m.mmioWrite != nil {
			m.mmioWrite(addr, uint32(val))
		}
		return nil
	}
	page, err := m.getPage(addr)
	if err != nil {
		return err
	}
	page[pageOffset(addr)] = val
	return nil
}

// ReadHalfword reads a 16-bit little-endian value.
func (m *RVMemory) ReadHalfword(addr uint32) (uint16, error) {
	if isMMIO(addr) && m.mmioRead != nil {
		return uint16(m.mmioRead(addr)), nil
	}
	b0, err := m.ReadByte(addr)
	if err != nil {
		return 0, err
	}
	b1, err := m.ReadByte(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(b0) | uint16(b1)<<8, nil
}

// WriteHalfword writes a 16-bit little-endian value.
func (m *RVMemory) WriteHalfword(addr uint32, val uint16) error {
	if isMMIO(addr) {
		if m.mmioWrite != nil {
			m.mmioWrite(addr, uint32(val))
		}
		return nil
	}
	if err := m.WriteByte(addr, byte(val)); err != nil {
		return err
	}
	return m.WriteByte(addr+1, byte(val>>8))
}

// ReadWord reads a 32-bit little-endian value.
func (m *RVMemory) ReadWord(addr uint32) (uint32, error) {
	if isMMIO(addr) && m.mmioRead != nil {
		return m.mmioRead(addr), nil
	}
	// Words within one page read directly; the rare page-straddling access
	// goes byte by byte.
	if off := pageOffset(addr); off <= RVPageSize-4 {
		page, err := m.getPage(addr)
		if err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint32(page[off:]), nil
	}
	var buf [4]byte
	for i := uint32(0); i < 4; i++ {
		b, err := m.ReadByte(addr + i)
		if err != nil {
			return 0, err
		}
		buf[i] = b
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteWord writes a 32-bit little-endian value.
func (m *RVMemory) WriteWord(addr uint32, val uint32) error {
	if isMMIO(addr) {
		if m.mmioWrite != nil {
			m.mmioWrite(addr, val)
		}
		return nil
	}
	if off := pageOffset(addr); off <= RVPageSize-4 {
		page, err := m.getPage(addr)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(page[off:], val)
		return nil
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], val)
	for i := uint32(0); i < 4; i++ {
		if err := m.WriteByte(addr+i, buf[i]); err != nil {
			return err
		}
	}
	return nil
}

// LoadSegment copies a contiguous byte slice into memory at base, the way a
// loader places program segments.
func (m *RVMemory) LoadSegment(base uint32, data []byte) error {
	if len(data) == 0 {
		return ErrRVMemSegEmpty
	}
	if uint64(base)+uint64(len(data)) > 1<<32 {
		return ErrRVMemSegOverlap
	}
	for i, b := range data {
		if err := m.WriteByte(base+uint32(i), b); err != nil {
			return err
		}
	}
	return nil
}

// PageCount returns the number of allocated pages.
func (m *RVMemory) PageCount() int {
	return m.pageCount
}

// Reset drops all allocated pages.
func (m *RVMemory) Reset() {
	m.pages = make(map[uint32][]byte)
	m.pageCount = 0
}
