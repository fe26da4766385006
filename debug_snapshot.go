// debug_snapshot.go - Machine state snapshot for save/load

package main

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	snapshotMagic   = "BMES"
	snapshotVersion = 1
)

// TimerChannelState is the persisted state of one countdown channel.
// Running distinguishes a channel whose DeadlineNs is live (callback must
// be re-armed on restore) from a stopped one whose RemainingNs is the
// authoritative value.
type TimerChannelState struct {
	Running     bool
	DeadlineNs  int64
	RemainingNs int64
	TCSR        uint32
	TICR        uint32
}

// TimerModuleState is the persisted state of one timer module.
type TimerModuleState struct {
	Name     string
	TISR     uint32
	WTCR     uint32
	Channels [TIMERS_PER_MODULE]TimerChannelState
}

// MachineSnapshot captures everything needed to resume the board: the
// virtual clock position, RAM, and every timer module's state.
type MachineSnapshot struct {
	ClockNs int64
	Memory  []byte
	Timers  []TimerModuleState
}

// Snapshot captures the module's state. Safe at any point between bus
// accesses; never called from inside an expiration callback.
func (tm *TimerModule) Snapshot() TimerModuleState {
	state := TimerModuleState{
		Name: tm.name,
		TISR: tm.tisr,
		WTCR: tm.wtcr,
	}
	for i, ch := range tm.channels {
		state.Channels[i] = TimerChannelState{
			Running:     ch.timer != nil,
			DeadlineNs:  ch.deadlineNs,
			RemainingNs: ch.remainingNs,
			TCSR:        ch.tcsr,
			TICR:        ch.ticr,
		}
	}
	return state
}

// Restore replaces the module's state and re-arms the clock callback for
// every channel that was counting when the snapshot was taken. The virtual
// clock must already be positioned at the snapshot's time.
func (tm *TimerModule) Restore(state TimerModuleState) {
	tm.tisr = state.TISR
	tm.wtcr = state.WTCR

	for i, ch := range tm.channels {
		if ch.timer != nil {
			ch.timer.Cancel()
			ch.timer = nil
		}
		ch.deadlineNs = state.Channels[i].DeadlineNs
		ch.remainingNs = state.Channels[i].RemainingNs
		ch.tcsr = state.Channels[i].TCSR
		ch.ticr = state.Channels[i].TICR

		if state.Channels[i].Running {
			ch.timer = tm.clock.Schedule(ch.deadlineNs, ch.expired)
		}
		ch.checkInterrupt()
	}
}

// TakeSnapshot captures the whole machine.
func TakeSnapshot(m *Machine) *MachineSnapshot {
	snap := &MachineSnapshot{
		ClockNs: m.clock.Now(),
		Memory:  append([]byte(nil), m.bus.GetMemory()...),
	}
	for _, tm := range m.timers {
		snap.Timers = append(snap.Timers, tm.Snapshot())
	}
	return snap
}

// RestoreSnapshot rewinds the machine to a snapshot. The snapshot must
// come from an identically configured board.
func RestoreSnapshot(m *Machine, snap *MachineSnapshot) error {
	if len(snap.Timers) != len(m.timers) {
		return fmt.Errorf("snapshot has %d timer modules, machine has %d",
			len(snap.Timers), len(m.timers))
	}
	for i, tm := range m.timers {
		if snap.Timers[i].Name != tm.name {
			return fmt.Errorf("snapshot timer module %d is %q, machine has %q",
				i, snap.Timers[i].Name, tm.name)
		}
	}
	if uint32(len(snap.Memory)) != m.config.MemorySize {
		return fmt.Errorf("snapshot memory is %d bytes, machine has %d",
			len(snap.Memory), m.config.MemorySize)
	}

	// Drop every queued callback, position the clock, then let each module
	// re-arm its own timers.
	m.clock.Reset()
	m.clock.AdvanceTo(snap.ClockNs)
	copy(m.bus.GetMemory(), snap.Memory)
	for i, tm := range m.timers {
		tm.Restore(snap.Timers[i])
	}
	return nil
}

// SaveSnapshotToFile writes a snapshot to disk with gzip-compressed memory.
func SaveSnapshotToFile(snap *MachineSnapshot, path string) error {
	var buf bytes.Buffer

	// Magic
	buf.WriteString(snapshotMagic)

	// Version
	binary.Write(&buf, binary.LittleEndian, uint32(snapshotVersion))

	// Clock
	binary.Write(&buf, binary.LittleEndian, snap.ClockNs)

	// Timer modules
	binary.Write(&buf, binary.LittleEndian, uint32(len(snap.Timers)))
	for _, tms := range snap.Timers {
		nameBytes := []byte(tms.Name)
		buf.WriteByte(byte(len(nameBytes)))
		buf.Write(nameBytes)
		binary.Write(&buf, binary.LittleEndian, tms.TISR)
		binary.Write(&buf, binary.LittleEndian, tms.WTCR)
		for _, ch := range tms.Channels {
			running := byte(0)
			if ch.Running {
				running = 1
			}
			buf.WriteByte(running)
			binary.Write(&buf, binary.LittleEndian, ch.DeadlineNs)
			binary.Write(&buf, binary.LittleEndian, ch.RemainingNs)
			binary.Write(&buf, binary.LittleEndian, ch.TCSR)
			binary.Write(&buf, binary.LittleEndian, ch.TICR)
		}
	}

	// Memory: uncompressed length, then gzip-compressed data
	binary.Write(&buf, binary.LittleEndian, uint32(len(snap.Memory)))

	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(snap.Memory); err != nil {
		return fmt.Errorf("compressing memory: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip: %w", err)
	}
	buf.Write(compressed.Bytes())

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadSnapshotFromFile reads and decompresses a snapshot from disk.
func LoadSnapshotFromFile(path string) (*MachineSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(data)

	// Magic
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != snapshotMagic {
		return nil, fmt.Errorf("invalid snapshot magic: %q", string(magic))
	}

	// Version
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d", version)
	}

	snap := &MachineSnapshot{}

	// Clock
	if err := binary.Read(r, binary.LittleEndian, &snap.ClockNs); err != nil {
		return nil, fmt.Errorf("reading clock: %w", err)
	}

	// Timer modules
	var timerCount uint32
	if err := binary.Read(r, binary.LittleEndian, &timerCount); err != nil {
		return nil, fmt.Errorf("reading timer module count: %w", err)
	}
	for i := uint32(0); i < timerCount; i++ {
		var tms TimerModuleState

		nameLen, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading module %d name length: %w", i, err)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("reading module %d name: %w", i, err)
		}
		tms.Name = string(name)

		if err := binary.Read(r, binary.LittleEndian, &tms.TISR); err != nil {
			return nil, fmt.Errorf("reading %s TISR: %w", tms.Name, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &tms.WTCR); err != nil {
			return nil, fmt.Errorf("reading %s WTCR: %w", tms.Name, err)
		}

		for ch := range tms.Channels {
			running, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("reading %s ch%d state: %w", tms.Name, ch, err)
			}
			tms.Channels[ch].Running = running != 0
			if err := binary.Read(r, binary.LittleEndian, &tms.Channels[ch].DeadlineNs); err != nil {
				return nil, fmt.Errorf("reading %s ch%d deadline: %w", tms.Name, ch, err)
			}
			if err := binary.Read(r, binary.LittleEndian, &tms.Channels[ch].RemainingNs); err != nil {
				return nil, fmt.Errorf("reading %s ch%d remaining: %w", tms.Name, ch, err)
			}
			if err := binary.Read(r, binary.LittleEndian, &tms.Channels[ch].TCSR); err != nil {
				return nil, fmt.Errorf("reading %s ch%d TCSR: %w", tms.Name, ch, err)
			}
			if err := binary.Read(r, binary.LittleEndian, &tms.Channels[ch].TICR); err != nil {
				return nil, fmt.Errorf("reading %s ch%d TICR: %w", tms.Name, ch, err)
			}
		}

		snap.Timers = append(snap.Timers, tms)
	}

	// Memory
	var uncompressedLen uint32
	if err := binary.Read(r, binary.LittleEndian, &uncompressedLen); err != nil {
		return nil, fmt.Errorf("reading memory length: %w", err)
	}

	remaining := data[len(data)-r.Len():]
	gz, err := gzip.NewReader(bytes.NewReader(remaining))
	if err != nil {
		return nil, fmt.Errorf("opening gzip reader: %w", err)
	}
	defer gz.Close()

	snap.Memory = make([]byte, uncompressedLen)
	if _, err := io.ReadFull(gz, snap.Memory); err != nil {
		return nil, fmt.Errorf("decompressing memory: %w", err)
	}

	return snap, nil
}
