package trx24

import (
	"context"
	"sync"
	"time"

	"github.com/sigurn/crc16"
)

// The IEEE 802.15.4 FCS is CRC-16/KERMIT, sent low byte first.
var fcsTable = crc16.MakeTable(crc16.CRC16_KERMIT)

// AppendFCS returns payload followed by its frame check sequence.
func AppendFCS(payload []byte) []byte {
	fcs := crc16.Checksum(payload, fcsTable)
	out := make([]byte, 0, len(payload)+TrailerSize)
	out = append(out, payload...)
	return append(out, byte(fcs), byte(fcs>>8))
}

// fcsValid checks the last two of the first n bytes of psdu against the rest.
func fcsValid(psdu []byte, n int) bool {
	if n > len(psdu) {
		n = len(psdu)
	}
	if n < TrailerSize {
		return false
	}
	want := uint16(psdu[n-2]) | uint16(psdu[n-1])<<8
	return crc16.Checksum(psdu[:n-2], fcsTable) == want
}

// Frame is a frame as it went over the air.
type Frame struct {
	PHR  byte
	PSDU []byte // payload followed by the FCS
}

// Payload returns the PSDU without its trailer.
func (f Frame) Payload() []byte {
	if len(f.PSDU) < TrailerSize {
		return nil
	}
	return f.PSDU[:len(f.PSDU)-TrailerSize]
}

// Emulator is a register-level model of the transceiver that satisfies Bus.
// It models the state machine, PLL lock, the frame buffer, automatic FCS
// generation, FCS checking on receive and the three interrupts the driver
// uses. Interrupts are delivered synchronously through the Pin returned by IRQ,
// one handler at a time.
//
// The exported knobs must be set before the emulator is handed to a Device.
type Emulator struct {
	// LockPolls is how many TRX_STATUS reads report a transition in progress
	// after a PLL_ON command.
	LockPolls int
	// NeverLock keeps the PLL from ever locking.
	NeverLock bool
	// Unresponsive makes the transceiver ignore state commands.
	Unresponsive bool
	// Loopback feeds every completed transmission back as a reception.
	Loopback bool
	// RSSI is the 5-bit signal strength reported for receptions.
	RSSI byte

	mu        sync.Mutex
	regs      [64]byte
	status    byte
	lockPolls int
	fb        [MaxFrameSize + 1]byte
	rxPHR     byte
	rxPSDU    []byte
	pending   []Frame
	sent      []Frame

	irq   emulatorIRQ
	irqMu sync.Mutex
}

// NewEmulator returns a powered-on transceiver model that has not been reset.
func NewEmulator() *Emulator {
	return &Emulator{RSSI: 20, status: statusPOn}
}

// IRQ returns the interrupt line of the emulated transceiver.
func (e *Emulator) IRQ() Pin {
	return &e.irq
}

func (e *Emulator) ReadRegister(reg byte) (byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	reg &= 0x3F
	switch reg {
	case _TRX_STATUS:
		if e.Unresponsive {
			return statusPOn, nil
		}
		if e.status == statusPLLOn && (e.NeverLock || e.lockPolls > 0) {
			if e.lockPolls > 0 {
				e.lockPolls--
			}
			return statusInProgress, nil
		}
		return e.status, nil
	case _IRQ_STATUS:
		v := e.regs[reg]
		e.regs[reg] = 0
		return v, nil
	}
	return e.regs[reg], nil
}

func (e *Emulator) WriteRegister(reg, val byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	reg &= 0x3F
	switch reg {
	case _TRX_STATUS, _IRQ_STATUS:
		return nil
	case _TRX_STATE:
		e.regs[reg] = val
		if e.Unresponsive {
			return nil
		}
		switch val & cmdMask {
		case cmdTRXOff, cmdForceTRXOff:
			e.status = statusTRXOff
		case cmdRXOn:
			e.status = statusRXOn
		case cmdPLLOn:
			e.status = statusPLLOn
			e.lockPolls = e.LockPolls
		}
		return nil
	}
	e.regs[reg] = val
	return nil
}

func (e *Emulator) ReadFrame(p []byte) (byte, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rxPHR, copy(p, e.rxPSDU), nil
}

func (e *Emulator) WriteFrame(phr byte, psdu []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fb[0] = phr
	copy(e.fb[1:], psdu)
	return nil
}

func (e *Emulator) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.regs = [64]byte{}
	e.pending = nil
	e.lockPolls = 0
	if e.Unresponsive {
		e.status = statusPOn
	} else {
		e.status = statusTRXOff
	}
	return nil
}

// Strobe starts a transmission of the frame buffer if the PLL is locked.
func (e *Emulator) Strobe() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != statusPLLOn || e.NeverLock || e.lockPolls > 0 {
		return nil
	}
	phr := e.fb[0] & 0x7F
	psdu := make([]byte, phr)
	copy(psdu, e.fb[1:])
	if e.regs[_TRX_CTRL_1]&_TX_AUTO_CRC_ON != 0 && len(psdu) >= TrailerSize {
		fcs := crc16.Checksum(psdu[:len(psdu)-TrailerSize], fcsTable)
		psdu[len(psdu)-2] = byte(fcs)
		psdu[len(psdu)-1] = byte(fcs >> 8)
	}
	f := Frame{PHR: phr, PSDU: psdu}
	e.sent = append(e.sent, f)
	e.pending = append(e.pending, f)
	return nil
}

// CompleteTransmit finishes the oldest transmission in flight and raises
// TX_END. It returns false if nothing was in flight.
func (e *Emulator) CompleteTransmit() bool {
	e.mu.Lock()
	if len(e.pending) == 0 {
		e.mu.Unlock()
		return false
	}
	f := e.pending[0]
	e.pending = e.pending[1:]
	fire := e.raise(IRQTxEnd)
	loop := e.Loopback
	e.mu.Unlock()

	if fire {
		e.fire()
	}
	if loop {
		e.ReceiveRaw(f.PHR, f.PSDU)
	}
	return true
}

// Run completes in-flight transmissions every interval until ctx is done.
// An interval of zero or less is treated as one millisecond.
func (e *Emulator) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Millisecond
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for e.CompleteTransmit() {
			}
		}
	}
}

// Receive delivers payload as a frame with a correct FCS.
func (e *Emulator) Receive(payload []byte) bool {
	psdu := AppendFCS(payload)
	return e.ReceiveRaw(byte(len(psdu)), psdu)
}

// ReceiveRaw delivers a frame with the given length field and captured PSDU.
// The FCS is checked over the first min(phr, len(psdu)) bytes. It returns
// false when the receiver is not listening.
func (e *Emulator) ReceiveRaw(phr byte, psdu []byte) bool {
	e.mu.Lock()
	if e.Unresponsive || e.status != statusRXOn {
		e.mu.Unlock()
		return false
	}
	e.regs[_PHY_RSSI] = e.RSSI & _RSSI_MASK
	fire := e.raise(IRQRxStart)
	e.mu.Unlock()
	if fire {
		e.fire()
	}

	e.mu.Lock()
	if len(psdu) > MaxFrameSize {
		psdu = psdu[:MaxFrameSize]
	}
	e.rxPHR = phr & 0x7F
	e.rxPSDU = append(e.rxPSDU[:0], psdu...)
	if fcsValid(psdu, int(e.rxPHR)) {
		e.regs[_PHY_RSSI] |= _RX_CRC_VALID
	}
	fire = e.raise(IRQRxEnd)
	e.mu.Unlock()
	if fire {
		e.fire()
	}
	return true
}

// Transmitted returns every frame strobed since the emulator was created.
func (e *Emulator) Transmitted() []Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Frame, len(e.sent))
	copy(out, e.sent)
	return out
}

// FrameBuffer returns the length byte and payload last loaded for transmit.
func (e *Emulator) FrameBuffer() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 1 + int(e.fb[0]&0x7F)
	if n > len(e.fb) {
		n = len(e.fb)
	}
	out := make([]byte, n)
	copy(out, e.fb[:n])
	return out
}

// Channel returns the channel programmed into PHY_CC_CCA.
func (e *Emulator) Channel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int(e.regs[_PHY_CC_CCA] & _CHANNEL_MASK)
}

// IRQMask returns the IRQ_MASK register.
func (e *Emulator) IRQMask() byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.regs[_IRQ_MASK]
}

// raise latches an enabled interrupt source. Call with mu held.
func (e *Emulator) raise(bit byte) bool {
	if e.regs[_IRQ_MASK]&bit == 0 {
		return false
	}
	e.regs[_IRQ_STATUS] |= bit
	return true
}

// fire runs the IRQ handler to completion. Handlers never nest.
func (e *Emulator) fire() {
	e.irqMu.Lock()
	defer e.irqMu.Unlock()
	if h := e.irq.handler(); h != nil {
		h()
	}
}

// emulatorIRQ is the interrupt line of an Emulator.
type emulatorIRQ struct {
	mu sync.Mutex
	h  func()
}

func (p *emulatorIRQ) Out(l Level) error  { return nil }
func (p *emulatorIRQ) In(pull Pull) error { return nil }

func (p *emulatorIRQ) Watch(edge Edge, handler func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.h = handler
	return nil
}

func (p *emulatorIRQ) Unwatch() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.h = nil
	return nil
}

func (p *emulatorIRQ) handler() func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.h
}
