package main

import (
	"context"
	"time"

	"github.com/michcald/trx24"
)

// emulatorTick is how often the emulator completes transmissions.
const emulatorTick = 5 * time.Millisecond

func radioConfig() trx24.RadioConfig {
	return trx24.RadioConfig{
		Channel:     flagChannel,
		BufferSize:  flagBuffer,
		LockTimeout: flagLockTimeout,
	}
}

// openRadio binds the transceiver selected by the flags. The emulator, if
// used, runs until ctx is done.
func openRadio(ctx context.Context) (*trx24.Device, error) {
	if !flagEmulate {
		return trx24.New(trx24.Config{
			RadioConfig: radioConfig(),
			RSTPin:      flagRST,
			SLPTRPin:    flagSLPTR,
			IRQPin:      flagIRQ,
			SpiBusPath:  flagSPI,
		})
	}

	emu := trx24.NewEmulator()
	emu.Loopback = true
	dev, err := trx24.NewWithHardware(trx24.HardwareConfig{
		RadioConfig: radioConfig(),
		IRQ:         emu.IRQ(),
	}, emu)
	if err != nil {
		return nil, err
	}
	go emu.Run(ctx, emulatorTick)
	return dev, nil
}
