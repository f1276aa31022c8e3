package nes

import (
	"github.com/nespkg/nesgo/pkg/apu"
	"github.com/nespkg/nesgo/pkg/cartridge"
	"github.com/nespkg/nesgo/pkg/cpu"
	"github.com/nespkg/nesgo/pkg/eventqueue"
	"github.com/nespkg/nesgo/pkg/input"
	"github.com/nespkg/nesgo/pkg/memory"
	"github.com/nespkg/nesgo/pkg/ppu"
)

// NES represents the Nintendo Entertainment System
type NES struct {
	CPU       *cpu.CPU
	PPU       *ppu.PPU
	APU       *apu.APU
	Memory    *memory.Memory
	Cartridge *cartridge.Cartridge
	Input     *input.Controller

	// Events carries NMI/IRQ/DMA notifications from the PPU and the bus to
	// the scheduler, which drains it ahead of every instruction fetch.
	Events *eventqueue.Queue

	// cpuStallCycles counts CPU cycles the scheduler owes to an in-flight
	// OAM DMA transfer; while non-zero the CPU does not fetch.
	cpuStallCycles int

	Cycles uint64
	Frame  uint64
}

// NewNES creates a new NES instance
func NewNES() *NES {
	nes := &NES{
		Events: eventqueue.New(),
	}

	// Initialize components
	nes.Memory = memory.New()
	nes.CPU = cpu.New(nes.Memory)
	nes.PPU = ppu.New(nes.Memory)
	nes.APU = apu.New()
	nes.Input = input.New()

	// Connect components to memory
	nes.Memory.SetPPU(nes.PPU)
	nes.Memory.SetAPU(nes.APU)
	nes.Memory.SetInput(nes.Input)
	nes.Memory.SetEventQueue(nes.Events)
	nes.PPU.SetEventQueue(nes.Events)

	return nes
}

// LoadCartridge loads a cartridge into the NES
func (n *NES) LoadCartridge(cart *cartridge.Cartridge) {
	n.Cartridge = cart
	n.Memory.SetCartridge(cart)
	n.PPU.SetCartridge(cart)
}

// Reset resets the NES to initial state
func (n *NES) Reset() {
	n.CPU.Reset()
	n.PPU.Reset()
	n.APU.Reset()
	n.Cycles = 0
	n.Frame = 0
	n.cpuStallCycles = 0
}

// drainEvents applies every queued NMI/IRQ/DMA notification to the CPU and
// the DMA stall counter. Called ahead of every CPU fetch so NMI/IRQ are
// always serviced before the next instruction, per the interrupt race rule.
func (n *NES) drainEvents() {
	for {
		e, ok := n.Events.Pop()
		if !ok {
			return
		}
		switch e.Kind {
		case eventqueue.NMI:
			n.CPU.TriggerNMI()
		case eventqueue.IRQ:
			n.CPU.TriggerIRQ()
		case eventqueue.DMA:
			n.cpuStallCycles += 514
		}
	}
}

// tick advances the PPU and APU by cpuCycles worth of CPU time: 3 PPU dots
// per CPU cycle, 1 APU step per CPU cycle.
func (n *NES) tick(cpuCycles int) {
	for i := 0; i < cpuCycles*3; i++ {
		n.PPU.Step()
	}
	for i := 0; i < cpuCycles; i++ {
		n.APU.Step()
	}
	n.Cycles += uint64(cpuCycles)
}

// Step executes one CPU instruction, or one cycle of DMA stall if a transfer
// is in flight, and advances the PPU/APU alongside it.
func (n *NES) Step() {
	n.drainEvents()

	if n.cpuStallCycles > 0 {
		n.cpuStallCycles--
		n.tick(1)
		return
	}

	cpuCycles := n.CPU.Step()
	n.tick(cpuCycles)
}

// StepFrame executes until frame is complete
func (n *NES) StepFrame() {
	stepCount := 0
	maxSteps := 50000 // Proper limit for normal NES frame processing

	for !n.PPU.FrameComplete {
		n.Step()
		stepCount++

		// Safety check to prevent infinite loops during game freezes
		if stepCount > maxSteps {
			n.PPU.FrameComplete = true
			break
		}
	}

	n.PPU.FrameComplete = false
	n.Frame = n.PPU.Frame
}

// GetInput returns the input controller
func (n *NES) GetInput() *input.Controller {
	return n.Input
}

// GetFramebuffer returns the current framebuffer from PPU
func (n *NES) GetFramebuffer() []uint8 {
	return n.PPU.GetFramebuffer()
}

// GetFrame returns the current frame number
func (n *NES) GetFrame() uint64 {
	return n.Frame
}

// GetFramebufferRaw returns the raw framebuffer as 32-bit integers
func (n *NES) GetFramebufferRaw() []uint32 {
	return n.PPU.FrameBuffer[:]
}

// GetDisplayFramebuffer returns the display framebuffer as RGBA bytes
func (n *NES) GetDisplayFramebuffer() []uint8 {
	return n.PPU.GetFramebuffer()
}

// GetDisplayFramebufferRaw returns the display framebuffer as 32-bit integers
func (n *NES) GetDisplayFramebufferRaw() []uint32 {
	return n.PPU.FrameBuffer[:]
}
