// Package trx24 drives the 2.4 GHz transceiver core found in the
// ATmega128RFA1 and in the SPI-attached AT86RF23x parts.
//
// The radio idles in the listening state. Received frames are validated by
// the receive-end interrupt and their payload bytes are queued in a ring
// buffer that the application drains with Available, ReadOne and ReadMany.
// Transmissions are synchronous up to the strobe; the driver returns to
// listening without waiting for the frame to leave the air.
//
// Only one Device may be open per process, matching the single physical
// transceiver.
package trx24

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrPkg               = errors.New("trx24")
	ErrConfiguration     = errors.New("transceiver did not reach TRX_OFF")
	ErrLockTimeout       = errors.New("timeout waiting for PLL lock")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrAlreadyBound      = errors.New("a transceiver is already bound")
)

// settleReads bounds the TRX_STATUS polling after the TRX_OFF command.
const settleReads = 100

type RadioConfig struct {
	// Channel is the IEEE 802.15.4 channel, 11 (2405 MHz) to 26 (2480 MHz).
	// Values outside that range fall back to 11.
	Channel int
	// BufferSize is the receive ring size in bytes. One slot is reserved,
	// so BufferSize-1 bytes can be queued.
	// Defaults to 127 if not provided.
	BufferSize int
	// LockTimeout bounds the wait for PLL lock before each transmission.
	// Zero waits forever.
	LockTimeout time.Duration
	// Logger overrides the package logger for this device.
	Logger Logger
}

type HardwareConfig struct {
	RadioConfig
	// IRQ is the transceiver interrupt line.
	// Optional. If not provided, the caller dispatches ServiceInterrupt or the
	// individual handlers itself.
	IRQ Pin
	// RxLED and TxLED are the activity indicators. Optional.
	RxLED Pin
	TxLED Pin
}

// Stats counts what the interrupt handlers would otherwise drop silently.
type Stats struct {
	FramesReceived uint32
	FramesSent     uint32
	CRCErrors      uint32
	Overflows      uint32
	DroppedBytes   uint32
}

type counters struct {
	framesReceived atomic.Uint32
	framesSent     atomic.Uint32
	crcErrors      atomic.Uint32
	overflows      atomic.Uint32
	droppedBytes   atomic.Uint32
}

type Device struct {
	config HardwareConfig
	bus    Bus
	log    Logger
	closer io.Closer

	state atomic.Uint32 // State; stored by application context only
	rssi  atomic.Uint32 // raw PHY_RSSI, stored by the receive-start handler

	rx    *ringBuffer
	stats counters

	txMu  sync.Mutex
	frame [MaxFrameSize]byte // receive-end scratch, interrupt context only

	closeOnce sync.Once
}

// clampChannel maps out-of-range channels to MinChannel.
func clampChannel(ch int) int {
	if ch < MinChannel || ch > MaxChannel {
		return MinChannel
	}
	return ch
}

// NewWithHardware binds and initializes the transceiver behind bus.
//
// The transceiver is reset with all interrupts masked and forced to TRX_OFF.
// If it does not report TRX_OFF, ErrConfiguration is returned: interrupts stay
// masked, the channel is left unprogrammed and no retry is attempted.
// Otherwise automatic FCS generation is enabled, the RX start, RX end and TX
// end interrupts are unmasked, the channel is programmed and the radio is
// left listening.
func NewWithHardware(c HardwareConfig, bus Bus) (*Device, error) {
	if bus == nil {
		return nil, fmt.Errorf("%w: bus not configured", ErrPkg)
	}
	c.Channel = clampChannel(c.Channel)
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	lg := c.Logger
	if lg == nil {
		lg = globalLogger
	}

	dev := &Device{
		config: c,
		bus:    bus,
		log:    lg,
		rx:     newRingBuffer(c.BufferSize),
	}
	if err := bind(dev); err != nil {
		return nil, err
	}
	if err := dev.begin(); err != nil {
		unbind(dev)
		return nil, err
	}
	return dev, nil
}

func (d *Device) begin() (err error) {
	d.log.Info("Initializing transceiver...")

	d.setLED(d.config.RxLED, Low)
	d.setLED(d.config.TxLED, Low)

	if err := d.bus.Reset(); err != nil {
		return fmt.Errorf("failed to reset transceiver: %w", err)
	}
	if err := d.bus.WriteRegister(_IRQ_MASK, 0); err != nil {
		return fmt.Errorf("failed to mask interrupts: %w", err)
	}

	if err := d.command(StateOff); err != nil {
		return err
	}
	d.state.Store(uint32(StateOff))

	var status byte
	for i := 0; i < settleReads; i++ {
		s, err := d.bus.ReadRegister(_TRX_STATUS)
		if err != nil {
			return fmt.Errorf("failed to read TRX_STATUS: %w", err)
		}
		status = s & statusMask
		if status == statusTRXOff {
			break
		}
	}
	if status != statusTRXOff {
		d.log.Error("Transceiver did not reach TRX_OFF (status 0x" + strconv.FormatUint(uint64(status), 16) + ")")
		return fmt.Errorf("%w: %w", ErrPkg, ErrConfiguration)
	}

	if err := d.modifyRegister(_TRX_CTRL_1, 0xFF, _TX_AUTO_CRC_ON); err != nil {
		return err
	}

	if d.config.IRQ != nil {
		if err := d.config.IRQ.In(PullDown); err != nil {
			logFailure(d.log, "configure IRQ pin", err)
		}
		// The transceiver drives IRQ high while IRQ_STATUS has pending bits.
		if err := d.config.IRQ.Watch(RisingEdge, d.ServiceInterrupt); err != nil {
			return fmt.Errorf("failed to watch IRQ pin: %w", err)
		}
		// A failed init must not leave a handler running for this Device.
		defer func() {
			if err != nil {
				d.config.IRQ.Unwatch()
			}
		}()
	}

	if err := d.bus.WriteRegister(_IRQ_MASK, irqEnabled); err != nil {
		return fmt.Errorf("failed to unmask interrupts: %w", err)
	}
	if err := d.modifyRegister(_PHY_CC_CCA, 0xE0, byte(d.config.Channel)); err != nil {
		return err
	}

	if err := d.transition(StateListening); err != nil {
		return err
	}

	d.log.Info("Transceiver listening on channel " + strconv.Itoa(d.config.Channel))
	return nil
}

func (d *Device) String() string {
	return fmt.Sprintf("TRX24(Channel=%d, State=%s, Buffered=%d, RSSI=%ddBm)",
		d.config.Channel,
		d.State(),
		d.Available(),
		d.RSSI(),
	)
}

// Close forces the transceiver off, masks its interrupts and releases the
// bus. Calling Close more than once is harmless.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.txMu.Lock()
		defer d.txMu.Unlock()

		if d.config.IRQ != nil {
			d.config.IRQ.Unwatch()
		}
		if werr := d.bus.WriteRegister(_IRQ_MASK, 0); werr != nil {
			d.log.Warn("Failed to mask interrupts on close")
		}
		if cerr := d.transition(StateOff); cerr != nil {
			d.log.Warn("Failed to switch transceiver off")
		}
		d.setLED(d.config.RxLED, Low)
		d.setLED(d.config.TxLED, Low)
		d.log.Info("Transceiver off.")

		if d.closer != nil {
			if cerr := d.closer.Close(); cerr != nil {
				d.log.Warn("Failed to close SPI port")
				err = cerr
			}
		}
		unbind(d)
	})
	return err
}

// State returns the operating state last commanded by the driver.
func (d *Device) State() State {
	return State(d.state.Load())
}

// Channel returns the programmed channel.
func (d *Device) Channel() int {
	return d.config.Channel
}

// RSSIRaw returns the PHY_RSSI register as sampled at the start of the last
// reception. It is meaningless before the first frame.
func (d *Device) RSSIRaw() byte {
	return byte(d.rssi.Load())
}

// RSSI converts RSSIRaw to dBm. -91 means below the receiver sensitivity.
func (d *Device) RSSI() int {
	v := int(d.RSSIRaw() & _RSSI_MASK)
	if v == 0 {
		return -91
	}
	return -90 + 3*(v-1)
}

// Stats returns a snapshot of the frame counters.
func (d *Device) Stats() Stats {
	return Stats{
		FramesReceived: d.stats.framesReceived.Load(),
		FramesSent:     d.stats.framesSent.Load(),
		CRCErrors:      d.stats.crcErrors.Load(),
		Overflows:      d.stats.overflows.Load(),
		DroppedBytes:   d.stats.droppedBytes.Load(),
	}
}

// --- State control ---

// transition validates and commands a state change.
func (d *Device) transition(next State) error {
	cur := d.State()
	if !cur.canTransition(next) {
		return fmt.Errorf("%w: %w: %s -> %s", ErrPkg, ErrInvalidTransition, cur, next)
	}
	if err := d.command(next); err != nil {
		return err
	}
	d.state.Store(uint32(next))
	return nil
}

func (d *Device) command(s State) error {
	if err := d.modifyRegister(_TRX_STATE, 0xE0, s.command()); err != nil {
		return fmt.Errorf("failed to enter %s: %w", s, err)
	}
	return nil
}

// modifyRegister writes (reg & keep) | set.
func (d *Device) modifyRegister(reg, keep, set byte) error {
	v, err := d.bus.ReadRegister(reg)
	if err != nil {
		return fmt.Errorf("failed to read register 0x%02X: %w", reg, err)
	}
	if err := d.bus.WriteRegister(reg, (v&keep)|set); err != nil {
		return fmt.Errorf("failed to write register 0x%02X: %w", reg, err)
	}
	return nil
}

func (d *Device) setLED(p Pin, l Level) {
	if p != nil {
		p.Out(l)
	}
}
