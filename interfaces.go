package trx24

// Level is the logic level of a control line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Pull selects the bias applied to an input line.
type Pull uint8

const (
	PullNone Pull = iota
	PullDown
	PullUp
)

// Edge selects which transition of an input line raises a callback.
type Edge uint8

const (
	NoEdge Edge = iota
	RisingEdge
	FallingEdge
)

// SPI is a full-duplex transfer on a bus whose chip select is already
// handled. The first byte of w is the transceiver command.
// tinygo.org/x/drivers.SPI and periph.io spi.Conn both satisfy it.
type SPI interface {
	// Tx sends w and reads into r. len(r) must be >= len(w).
	Tx(w, r []byte) error
}

// Pin is one of the transceiver's control lines: RST and SLP_TR are driven,
// IRQ is watched and the activity LEDs are driven.
type Pin interface {
	Out(l Level) error
	In(pull Pull) error
	// Watch calls handler on every matching edge. Calls must not overlap.
	Watch(edge Edge, handler func()) error
	Unwatch() error
}
