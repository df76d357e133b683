//go:build tinygo

package trx24

import (
	"machine"

	"tinygo.org/x/drivers"
)

// tinygoPin wraps a machine.Pin to satisfy the Pin interface.
type tinygoPin struct {
	pin   machine.Pin
	latch *irqLatch
}

func (p *tinygoPin) Out(l Level) error {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.pin.Set(bool(l))
	return nil
}

func (p *tinygoPin) In(pull Pull) error {
	var mPull machine.PinMode
	switch pull {
	case PullUp:
		mPull = machine.PinInputPullup
	case PullDown:
		mPull = machine.PinInputPulldown
	default:
		mPull = machine.PinInput
	}
	p.pin.Configure(machine.PinConfig{Mode: mPull})
	return nil
}

func (p *tinygoPin) Watch(edge Edge, handler func()) error {
	var mEdge machine.PinChange
	switch edge {
	case RisingEdge:
		mEdge = machine.PinRising
	case FallingEdge:
		mEdge = machine.PinFalling
	default:
		return nil
	}

	// The pin callback runs in the interrupt vector. It must not touch the
	// SPI bus, so it only latches the edge for the handler goroutine.
	latch := newIRQLatch(handler)
	if err := p.pin.SetInterrupt(mEdge, func(machine.Pin) {
		latch.signal()
	}); err != nil {
		latch.stop()
		return err
	}
	p.latch = latch
	return nil
}

func (p *tinygoPin) Unwatch() error {
	err := p.pin.SetInterrupt(0, nil)
	if p.latch != nil {
		p.latch.stop()
		p.latch = nil
	}
	return err
}

// selectedSPI frames every transaction with chip select.
type selectedSPI struct {
	bus drivers.SPI
	cs  machine.Pin
}

func (s *selectedSPI) Tx(w, r []byte) error {
	s.cs.Low()
	err := s.bus.Tx(w, r)
	s.cs.High()
	return err
}

// TinyGoConfig holds the pin assignment for an SPI-attached AT86RF23x.
type TinyGoConfig struct {
	RadioConfig
	CSPin    machine.Pin
	RSTPin   machine.Pin
	SLPTRPin machine.Pin
	// IRQPin is optional; pass machine.NoPin to dispatch ServiceInterrupt yourself.
	IRQPin   machine.Pin
	RxLEDPin machine.Pin
	TxLEDPin machine.Pin
}

// NewTinyGo creates a driver for TinyGo systems. spi must already be
// configured for mode 0.
func NewTinyGo(c TinyGoConfig, spi drivers.SPI) (*Device, error) {
	// Configure CS pin as output and set high (inactive)
	c.CSPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	c.CSPin.High()

	bus, err := newSPIBus(&selectedSPI{bus: spi, cs: c.CSPin}, &tinygoPin{pin: c.RSTPin}, &tinygoPin{pin: c.SLPTRPin})
	if err != nil {
		return nil, err
	}

	hw := HardwareConfig{RadioConfig: c.RadioConfig}
	if c.IRQPin != machine.NoPin {
		hw.IRQ = &tinygoPin{pin: c.IRQPin}
	}
	if c.RxLEDPin != machine.NoPin {
		hw.RxLED = &tinygoPin{pin: c.RxLEDPin}
	}
	if c.TxLEDPin != machine.NoPin {
		hw.TxLED = &tinygoPin{pin: c.TxLEDPin}
	}

	return NewWithHardware(hw, bus)
}
