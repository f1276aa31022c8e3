package nes

import (
	"testing"

	"github.com/nespkg/nesgo/pkg/cartridge"
	"github.com/nespkg/nesgo/pkg/cartridge/mapper"
)

// newTestCartridge builds a minimal 32KB NROM cartridge with the given PRG
// ROM bytes written starting at $8000, plus a reset vector pointing at
// $8000 itself so program execution starts somewhere deterministic.
func newTestCartridge(program []uint8) *cartridge.Cartridge {
	prg := make([]uint8, 32768)
	copy(prg, program)
	prg[0x7FFC] = 0x00 // reset vector low -> $8000
	prg[0x7FFD] = 0x80 // reset vector high

	data := &mapper.CartridgeData{PRGROM: prg}
	cart := &cartridge.Cartridge{
		PRGROM:    prg,
		Mirroring: cartridge.MirroringHorizontal,
	}
	cart.Mapper = mapper.NewMapper0(data)
	return cart
}

func TestNewNESWiresEventQueue(t *testing.T) {
	n := NewNES()
	if n.Events == nil {
		t.Fatal("expected NewNES to create an event queue")
	}
	if n.Memory.Events != n.Events {
		t.Error("expected Memory to share the NES event queue")
	}
}

func TestStepExecutesOneInstructionAndTicksPPU3x(t *testing.T) {
	n := NewNES()
	// NOP ($EA) takes 2 CPU cycles.
	cart := newTestCartridge([]uint8{0xEA})
	n.LoadCartridge(cart)
	n.Reset()

	n.Step()

	if n.Cycles != 2 {
		t.Errorf("expected 2 CPU cycles consumed by a NOP, got %d", n.Cycles)
	}
	if n.PPU.Cycle != 6 {
		t.Errorf("expected PPU to advance 3 dots per CPU cycle (6 total), got %d", n.PPU.Cycle)
	}
}

func TestOAMDMAChargesScheduledStall(t *testing.T) {
	n := NewNES()
	cart := newTestCartridge([]uint8{0xEA})
	n.LoadCartridge(cart)
	n.Reset()

	n.Memory.Write(0x4014, 0x00) // trigger OAM DMA from page 0

	if n.cpuStallCycles != 0 {
		t.Fatalf("stall should not be charged until the event is drained, got %d", n.cpuStallCycles)
	}

	n.drainEvents()
	if n.cpuStallCycles != 514 {
		t.Errorf("expected 514 stall cycles charged after drain, got %d", n.cpuStallCycles)
	}
}

func TestNMIEventTriggersCPU(t *testing.T) {
	n := NewNES()
	cart := newTestCartridge([]uint8{0xEA})
	n.LoadCartridge(cart)
	n.Reset()

	n.Events.PushNMI()
	n.drainEvents()

	// NMI should be latched on the CPU; the next Step() services it instead
	// of fetching the opcode at PC, jumping to the NMI vector at $FFFA-$FFFB
	// (zero in this test cartridge) rather than falling through to $8001.
	n.Step()
	if n.CPU.PC != 0x0000 {
		t.Errorf("expected NMI to redirect PC to the NMI vector, got $%04X", n.CPU.PC)
	}
}
