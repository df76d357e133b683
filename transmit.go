package trx24

import (
	"fmt"
	"strconv"
	"time"
)

// SendString transmits the bytes of s as one frame.
// This method is concurrent safe.
func (d *Device) SendString(s string) error {
	return d.send([]byte(s))
}

// SendByte transmits a single-byte frame.
// This method is concurrent safe.
func (d *Device) SendByte(b byte) error {
	return d.send([]byte{b})
}

// SendBuffer transmits the first n bytes of p as one frame. n larger than
// len(p) is reduced to len(p). Payloads above MaxPayload are not rejected;
// the hardware truncates or corrupts them.
// This method is concurrent safe.
func (d *Device) SendBuffer(p []byte, n int) error {
	if n > len(p) {
		n = len(p)
	}
	if n < 0 {
		n = 0
	}
	return d.send(p[:n])
}

// Write implements io.Writer by sending p as a single frame.
func (d *Device) Write(p []byte) (int, error) {
	if err := d.send(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// send moves the radio to PLL_ON, loads the frame buffer with a length byte
// of len(payload)+2 and the payload, strobes SLP_TR and goes straight back to
// listening. The TX LED is cleared later by the TX end interrupt.
func (d *Device) send(payload []byte) error {
	d.txMu.Lock()
	defer d.txMu.Unlock()

	if len(payload) > MaxPayload {
		d.log.Warn("Payload of " + strconv.Itoa(len(payload)) + " bytes exceeds " + strconv.Itoa(MaxPayload))
	}

	if err := d.transition(StateTransmitPrepare); err != nil {
		return err
	}

	if err := d.waitLock(); err != nil {
		if rerr := d.transition(StateListening); rerr != nil {
			logFailure(d.log, "return to listening", rerr)
		}
		return err
	}

	d.setLED(d.config.TxLED, High)

	err := d.bus.WriteFrame(byte(len(payload)+TrailerSize), payload)
	if err == nil {
		err = d.bus.Strobe()
	}
	if err == nil {
		d.stats.framesSent.Add(1)
	} else {
		d.setLED(d.config.TxLED, Low)
		err = fmt.Errorf("failed to send frame: %w", err)
	}

	if rerr := d.transition(StateListening); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

// waitLock spins until TRX_STATUS reports PLL_ON. With no LockTimeout
// configured it never gives up.
func (d *Device) waitLock() error {
	var deadline time.Time
	if d.config.LockTimeout > 0 {
		deadline = time.Now().Add(d.config.LockTimeout)
	}
	for {
		status, err := d.bus.ReadRegister(_TRX_STATUS)
		if err != nil {
			return fmt.Errorf("failed to read TRX_STATUS: %w", err)
		}
		if status&statusMask == statusPLLOn {
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w: %w", ErrPkg, ErrLockTimeout)
		}
	}
}
