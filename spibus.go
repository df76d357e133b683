package trx24

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// AT86RF23x SPI command bytes.
const (
	_SPI_REG_READ    = 0x80
	_SPI_REG_WRITE   = 0xC0
	_SPI_FRAME_READ  = 0x20
	_SPI_FRAME_WRITE = 0x60
	_SPI_ADDR_MASK   = 0x3F

	_SPI_NOP = 0x00
)

// The SPI parts raise a single TRX_END for both directions.
const (
	spiIRQRxStart = 1 << 2
	spiIRQTrxEnd  = 1 << 3
)

// spiBus reaches an SPI-attached transceiver. It translates the single TRX_END
// interrupt of those parts into the on-chip RX_END/TX_END pair: TRX_END is a
// transmit completion while a strobe is outstanding, a reception otherwise.
type spiBus struct {
	conn  SPI
	rst   Pin
	slpTr Pin

	mu        sync.Mutex
	txPending atomic.Bool
	// command + PHY_STATUS/PHR + frame + LQI
	scratch [MaxFrameSize + 3]byte
}

func newSPIBus(conn SPI, rst, slpTr Pin) (*spiBus, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: SPI not configured", ErrPkg)
	}
	if rst == nil {
		return nil, fmt.Errorf("%w: RST pin not configured", ErrPkg)
	}
	if slpTr == nil {
		return nil, fmt.Errorf("%w: SLP_TR pin not configured", ErrPkg)
	}
	return &spiBus{conn: conn, rst: rst, slpTr: slpTr}, nil
}

func (b *spiBus) transfer(n int) ([]byte, error) {
	slice := b.scratch[:n]
	if err := b.conn.Tx(slice, slice); err != nil {
		return nil, fmt.Errorf("SPI transfer: %w", err)
	}
	return slice, nil
}

func (b *spiBus) ReadRegister(reg byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.scratch[0] = _SPI_REG_READ | (reg & _SPI_ADDR_MASK)
	b.scratch[1] = _SPI_NOP
	r, err := b.transfer(2)
	if err != nil {
		return 0, err
	}
	v := r[1]
	if reg == _IRQ_STATUS {
		v = b.fromChipIRQ(v)
	}
	return v, nil
}

func (b *spiBus) WriteRegister(reg, val byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if reg == _IRQ_MASK {
		val = toChipIRQ(val)
	}
	b.scratch[0] = _SPI_REG_WRITE | (reg & _SPI_ADDR_MASK)
	b.scratch[1] = val
	_, err := b.transfer(2)
	return err
}

func (b *spiBus) ReadFrame(p []byte) (byte, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.scratch[0] = _SPI_FRAME_READ
	for i := 1; i < len(b.scratch); i++ {
		b.scratch[i] = _SPI_NOP
	}
	// Response: PHY_STATUS, PHR, PSDU, LQI.
	r, err := b.transfer(len(b.scratch))
	if err != nil {
		return 0, 0, err
	}
	phr := r[1] & 0x7F
	n := int(phr)
	if n > len(r)-2 {
		n = len(r) - 2
	}
	n = copy(p, r[2:2+n])
	return phr, n, nil
}

func (b *spiBus) WriteFrame(phr byte, psdu []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.scratch[0] = _SPI_FRAME_WRITE
	b.scratch[1] = phr
	// The frame buffer ends after MaxFrameSize PSDU bytes.
	n := copy(b.scratch[2:2+MaxFrameSize], psdu)
	_, err := b.transfer(2 + n)
	return err
}

func (b *spiBus) Reset() error {
	b.txPending.Store(false)
	if err := b.slpTr.Out(Low); err != nil {
		return err
	}
	if err := b.rst.Out(Low); err != nil {
		return err
	}
	time.Sleep(time.Microsecond) // t10 >= 625ns
	return b.rst.Out(High)
}

func (b *spiBus) Strobe() error {
	b.txPending.Store(true)
	if err := b.slpTr.Out(High); err != nil {
		b.txPending.Store(false)
		return err
	}
	return b.slpTr.Out(Low)
}

func toChipIRQ(mask byte) byte {
	var v byte
	if mask&IRQRxStart != 0 {
		v |= spiIRQRxStart
	}
	if mask&(IRQRxEnd|IRQTxEnd) != 0 {
		v |= spiIRQTrxEnd
	}
	return v
}

func (b *spiBus) fromChipIRQ(status byte) byte {
	var v byte
	if status&spiIRQRxStart != 0 {
		v |= IRQRxStart
	}
	if status&spiIRQTrxEnd != 0 {
		if b.txPending.Swap(false) {
			v |= IRQTxEnd
		} else {
			v |= IRQRxEnd
		}
	}
	return v
}
