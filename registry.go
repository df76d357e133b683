package trx24

import (
	"fmt"
	"sync/atomic"
)

// There is one transceiver per chip, so a process drives at most one Device.
// The bound Device is what free-function interrupt vectors dispatch to.
var bound atomic.Pointer[Device]

// Bound returns the Device currently bound to the transceiver, or nil.
//
// On targets where interrupt vectors are plain functions, the vector bodies
// reach the driver through it:
//
//	interrupt.New(irqTRX24RxEnd, func(interrupt.Interrupt) {
//		if d := trx24.Bound(); d != nil {
//			d.RxEndInterrupt()
//		}
//	})
func Bound() *Device {
	return bound.Load()
}

func bind(d *Device) error {
	if !bound.CompareAndSwap(nil, d) {
		return fmt.Errorf("%w: %w", ErrPkg, ErrAlreadyBound)
	}
	return nil
}

func unbind(d *Device) {
	bound.CompareAndSwap(d, nil)
}
