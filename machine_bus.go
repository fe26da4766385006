// machine_bus.go - Machine bus for the BMC Engine

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

/*
machine_bus.go - Machine Bus for the BMC Engine

This module implements the memory bus that forms the backbone of the BMC
Engine's memory subsystem. It provides a unified interface for 32-bit
memory operations, including both standard memory access and memory-mapped
I/O, emulating the AHB fabric that connects the NPCM7xx peripheral blocks.

Core Features:

    Contiguous main memory allocated as a single block.
    Memory-mapped I/O via an I/O region mapping table using page masking
    and fixed page sizes, so region lookup stays O(regions-per-page).
    Little-endian read/write operations for 8, 16 and 32-bit data.
    Device registers accept only aligned 32-bit accesses: narrow or
    misaligned accesses to an I/O region are rejected at this boundary
    with a guest-error diagnostic, before any device handler runs.
    Full memory reset capability to clear the entire memory state.
    Thread-safe access implemented with a read/write mutex.

Technical Details:

    The MachineBus struct fulfils the Bus32 interface, encapsulating the
    main memory and a mapping of I/O regions.
    I/O regions are registered with a defined start and end address along
    with callback functions (onRead and onWrite) to intercept accesses.
    I/O regions may sit above the end of RAM; they have no RAM backing and
    all their state lives in the owning device.
    Once device bring-up is complete the mapping is sealed: further MapIO
    calls are rejected, so devices cannot appear mid-run.
*/

package main

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
)

const (
	DEFAULT_MEMORY_SIZE = 16 * 1024 * 1024
	PAGE_SIZE           = 0x100
	PAGE_MASK           = 0xFFFFFF00
)

type Bus32 interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, value uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
	Reset()
	GetMemory() []byte
}

// IORegion represents a memory-mapped I/O region. Accesses falling inside
// [start,end] are routed to the callbacks instead of RAM.
type IORegion struct {
	start   uint32
	end     uint32
	onRead  func(addr uint32) uint32
	onWrite func(addr uint32, value uint32)
}

// MachineBus implements Bus32 and serves as the primary memory bus.
type MachineBus struct {
	mu      sync.RWMutex
	memory  []byte
	mapping map[uint32][]IORegion

	// Sealed state to prevent I/O mapping after bring-up has finished.
	sealed atomic.Bool
}

func NewMachineBus() *MachineBus {
	return NewMachineBusSize(DEFAULT_MEMORY_SIZE)
}

func NewMachineBusSize(size uint32) *MachineBus {
	return &MachineBus{
		memory:  make([]byte, size),
		mapping: make(map[uint32][]IORegion),
	}
}

// MapIO registers an I/O region spanning [start,end] inclusive. Either
// callback may be nil for write-only or read-only regions. Returns false
// if the bus has been sealed.
func (bus *MachineBus) MapIO(start, end uint32, onRead func(uint32) uint32, onWrite func(uint32, uint32)) bool {
	if bus.sealed.Load() {
		logGuestError("bus: MapIO 0x%08x-0x%08x rejected, bus is sealed", start, end)
		return false
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	region := IORegion{start: start, end: end, onRead: onRead, onWrite: onWrite}
	for page := start & PAGE_MASK; ; page += PAGE_SIZE {
		bus.mapping[page] = append(bus.mapping[page], region)
		if page == end&PAGE_MASK || page+PAGE_SIZE < page {
			break
		}
	}
	return true
}

// Seal freezes the I/O mapping. Called once device bring-up is complete.
func (bus *MachineBus) Seal() {
	bus.sealed.Store(true)
}

// ioRegion returns the region covering addr, if any. Caller holds the lock.
func (bus *MachineBus) ioRegion(addr uint32) (IORegion, bool) {
	regions, exists := bus.mapping[addr&PAGE_MASK]
	if !exists {
		return IORegion{}, false
	}
	for _, region := range regions {
		if addr >= region.start && addr <= region.end {
			return region, true
		}
	}
	return IORegion{}, false
}

func (bus *MachineBus) Read32(addr uint32) uint32 {
	bus.mu.RLock()
	region, isIO := bus.ioRegion(addr)
	bus.mu.RUnlock()

	if isIO {
		if addr%4 != 0 {
			logGuestError("bus: misaligned 32-bit read @ 0x%08x", addr)
			return 0
		}
		if region.onRead == nil {
			return 0
		}
		return region.onRead(addr)
	}

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	if addr+4 > uint32(len(bus.memory)) || addr+4 < addr {
		return 0
	}
	return binary.LittleEndian.Uint32(bus.memory[addr : addr+4])
}

func (bus *MachineBus) Write32(addr uint32, value uint32) {
	bus.mu.RLock()
	region, isIO := bus.ioRegion(addr)
	bus.mu.RUnlock()

	if isIO {
		if addr%4 != 0 {
			logGuestError("bus: misaligned 32-bit write @ 0x%08x", addr)
			return
		}
		if region.onWrite != nil {
			region.onWrite(addr, value)
		}
		return
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if addr+4 > uint32(len(bus.memory)) || addr+4 < addr {
		return
	}
	binary.LittleEndian.PutUint32(bus.memory[addr:addr+4], value)
}

func (bus *MachineBus) Read16(addr uint32) uint16 {
	bus.mu.RLock()
	_, isIO := bus.ioRegion(addr)
	bus.mu.RUnlock()

	if isIO {
		logGuestError("bus: 16-bit read from I/O region @ 0x%08x rejected", addr)
		return 0
	}

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	if addr+2 > uint32(len(bus.memory)) || addr+2 < addr {
		return 0
	}
	return binary.LittleEndian.Uint16(bus.memory[addr : addr+2])
}

func (bus *MachineBus) Write16(addr uint32, value uint16) {
	bus.mu.RLock()
	_, isIO := bus.ioRegion(addr)
	bus.mu.RUnlock()

	if isIO {
		logGuestError("bus: 16-bit write to I/O region @ 0x%08x rejected", addr)
		return
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if addr+2 > uint32(len(bus.memory)) || addr+2 < addr {
		return
	}
	binary.LittleEndian.PutUint16(bus.memory[addr:addr+2], value)
}

func (bus *MachineBus) Read8(addr uint32) uint8 {
	bus.mu.RLock()
	_, isIO := bus.ioRegion(addr)
	bus.mu.RUnlock()

	if isIO {
		logGuestError("bus: 8-bit read from I/O region @ 0x%08x rejected", addr)
		return 0
	}

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	if addr >= uint32(len(bus.memory)) {
		return 0
	}
	return bus.memory[addr]
}

func (bus *MachineBus) Write8(addr uint32, value uint8) {
	bus.mu.RLock()
	_, isIO := bus.ioRegion(addr)
	bus.mu.RUnlock()

	if isIO {
		logGuestError("bus: 8-bit write to I/O region @ 0x%08x rejected", addr)
		return
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if addr >= uint32(len(bus.memory)) {
		return
	}
	bus.memory[addr] = value
}

// GetMemory exposes the raw RAM block for snapshotting.
func (bus *MachineBus) GetMemory() []byte {
	return bus.memory
}
