package trx24

// Register offsets of the transceiver core. The ATmega128RFA1 maps them at
// 0x140 + offset; the AT86RF23x exposes the same offsets over SPI.
const (
	_TRX_STATUS = 0x01
	_TRX_STATE  = 0x02
	_TRX_CTRL_1 = 0x04
	_PHY_RSSI   = 0x06
	_PHY_CC_CCA = 0x08
	_IRQ_MASK   = 0x0E
	_IRQ_STATUS = 0x0F
)

// TRX_STATUS values (bits 4:0).
const (
	statusPOn        = 0x00
	statusBusyRX     = 0x01
	statusBusyTX     = 0x02
	statusRXOn       = 0x06
	statusTRXOff     = 0x08
	statusPLLOn      = 0x09
	statusSleep      = 0x0F
	statusInProgress = 0x1F

	statusMask = 0x1F
)

// TRX_STATE commands (bits 4:0). The upper three bits are preserved on write.
const (
	cmdNOP         = 0x00
	cmdTXStart     = 0x02
	cmdForceTRXOff = 0x03
	cmdRXOn        = 0x06
	cmdTRXOff      = 0x08
	cmdPLLOn       = 0x09

	cmdMask = 0x1F
)

// Register bits.
const (
	_TX_AUTO_CRC_ON = 1 << 5 // TRX_CTRL_1
	_RX_CRC_VALID   = 1 << 7 // PHY_RSSI
	_RSSI_MASK      = 0x1F   // PHY_RSSI
	_CHANNEL_MASK   = 0x1F   // PHY_CC_CCA
)

// Interrupt bits, in the on-chip IRQ_MASK/IRQ_STATUS layout.
const (
	IRQRxStart = 1 << 2
	IRQRxEnd   = 1 << 3
	IRQTxEnd   = 1 << 6

	irqEnabled = IRQRxStart | IRQRxEnd | IRQTxEnd
)

const (
	// MaxFrameSize is the size of the hardware frame buffer.
	MaxFrameSize = 127
	// TrailerSize is the frame check sequence the hardware appends.
	TrailerSize = 2
	// MaxPayload is the largest payload that reliably leaves the radio.
	MaxPayload = MaxFrameSize - TrailerSize

	// MinChannel and MaxChannel bound the 2405-2480 MHz channel plan.
	MinChannel = 11
	MaxChannel = 26
)

// Bus is the access path to the transceiver's register file and frame
// buffer. Every Bus presents the on-chip register semantics, whatever the
// physical attachment.
type Bus interface {
	ReadRegister(reg byte) (byte, error)
	WriteRegister(reg, val byte) error
	// ReadFrame copies the captured PSDU into p. It returns the PHY length
	// field and the number of bytes copied.
	ReadFrame(p []byte) (phr byte, n int, err error)
	// WriteFrame loads the frame buffer with phr followed by psdu.
	WriteFrame(phr byte, psdu []byte) error
	// Reset pulses the transceiver reset.
	Reset() error
	// Strobe pulses SLP_TR high then low. From PLL_ON this starts a transmission.
	Strobe() error
}
