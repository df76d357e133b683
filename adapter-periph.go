//go:build !tinygo

package trx24

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// realPin wraps a gpio.PinIO to satisfy the Pin interface.
type realPin struct {
	gpio.PinIO
	stopWatch chan struct{}
}

func (p *realPin) Out(l Level) error {
	if l == High {
		return p.PinIO.Out(gpio.High)
	}
	return p.PinIO.Out(gpio.Low)
}

func (p *realPin) In(pull Pull) error {
	return p.PinIO.In(toGPIOPull(pull), gpio.NoEdge)
}

func (p *realPin) Watch(edge Edge, handler func()) error {
	var pEdge gpio.Edge
	switch edge {
	case RisingEdge:
		pEdge = gpio.RisingEdge
	case FallingEdge:
		pEdge = gpio.FallingEdge
	default:
		pEdge = gpio.NoEdge
	}

	// Pulled down so the line reads low while the transceiver is in reset.
	if err := p.PinIO.In(gpio.PullDown, pEdge); err != nil {
		return err
	}

	stop := make(chan struct{})
	p.stopWatch = stop

	// The watch goroutine is the interrupt context: handlers run one at a
	// time and to completion.
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			if p.PinIO.WaitForEdge(-1) {
				select {
				case <-stop:
					return
				default:
					handler()
				}
			}
		}
	}()
	return nil
}

func (p *realPin) Unwatch() error {
	if p.stopWatch != nil {
		close(p.stopWatch)
		p.stopWatch = nil
	}
	// Disable edge detection
	return p.PinIO.In(gpio.PullDown, gpio.NoEdge)
}

func toGPIOPull(pull Pull) gpio.Pull {
	switch pull {
	case PullDown:
		return gpio.PullDown
	case PullUp:
		return gpio.PullUp
	default:
		return gpio.Float
	}
}

// Config holds the configuration for the Linux/periph.io driver of an
// SPI-attached AT86RF23x.
type Config struct {
	RadioConfig
	// RSTPin is the GPIO pin number (BCM numbering) for the active-low reset.
	// Defaults to 25 if not provided.
	RSTPin int
	// SLPTRPin is the GPIO pin number (BCM numbering) for SLP_TR.
	// Defaults to 24 if not provided.
	SLPTRPin int
	// IRQPin is the GPIO pin number (BCM numbering) for the interrupt line.
	// Defaults to 23 if not provided.
	IRQPin int
	// RxLEDPin and TxLEDPin are the GPIO pin numbers of the activity LEDs.
	// Optional.
	RxLEDPin int
	TxLEDPin int
	// SpiBusPath is the path to the SPI bus (e.g., "/dev/spidev0.0").
	// Defaults to "/dev/spidev0.0" if not provided.
	SpiBusPath string
	// SpiClockHz is the SPI clock frequency in Hz.
	// Defaults to 1000000 (1MHz) if not provided.
	SpiClockHz int
}

func openPin(n int) (*realPin, error) {
	name := fmt.Sprintf("GPIO%d", n)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to open pin %s", name)
	}
	return &realPin{PinIO: p}, nil
}

// New creates and initializes a driver for an AT86RF23x on a Linux SPI bus.
// It applies configuration defaults, opens the SPI port and GPIO pins with
// periph.io and runs the transceiver initialization.
// It returns the initialized driver or an error if hardware initialization fails.
func New(c Config) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io host: %w", err)
	}

	if c.SpiBusPath == "" {
		c.SpiBusPath = "/dev/spidev0.0"
	}
	if c.SpiClockHz == 0 {
		c.SpiClockHz = 1000000
	}
	if c.RSTPin == 0 {
		c.RSTPin = 25
	}
	if c.SLPTRPin == 0 {
		c.SLPTRPin = 24
	}
	if c.IRQPin == 0 {
		c.IRQPin = 23
	}

	p, err := spireg.Open(c.SpiBusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port: %w", err)
	}

	// The AT86RF23x samples on the rising edge with the clock idle low.
	conn, err := p.Connect(physic.Frequency(c.SpiClockHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create SPI connection: %w", err)
	}

	hw := HardwareConfig{RadioConfig: c.RadioConfig}
	pins := []struct {
		n   int
		dst *Pin
	}{
		{c.IRQPin, &hw.IRQ},
		{c.RxLEDPin, &hw.RxLED},
		{c.TxLEDPin, &hw.TxLED},
	}
	for _, pin := range pins {
		if pin.n == 0 {
			continue
		}
		rp, err := openPin(pin.n)
		if err != nil {
			p.Close()
			return nil, err
		}
		*pin.dst = rp
	}

	rst, err := openPin(c.RSTPin)
	if err != nil {
		p.Close()
		return nil, err
	}
	slpTr, err := openPin(c.SLPTRPin)
	if err != nil {
		p.Close()
		return nil, err
	}

	bus, err := newSPIBus(conn, rst, slpTr)
	if err != nil {
		p.Close()
		return nil, err
	}

	dev, err := NewWithHardware(hw, bus)
	if err != nil {
		p.Close()
		return nil, err
	}

	// Store the port closer so we can close it later
	dev.closer = p
	return dev, nil
}
