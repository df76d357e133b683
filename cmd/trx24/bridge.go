package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/michcald/trx24"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
)

var (
	flagPort string
	flagBaud int
)

// serialPoll bounds each serial read so cancellation is noticed.
const serialPoll = 100 * time.Millisecond

func newBridgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Relay bytes between a serial port and the radio",
		Long: `bridge forwards everything read from the serial port over the air, one
frame per read, and writes every received payload byte to the port.`,
		Args: cobra.NoArgs,
		RunE: runBridge,
	}
	cmd.Flags().StringVar(&flagPort, "port", "/dev/ttyUSB0", "Serial port device")
	cmd.Flags().IntVar(&flagBaud, "baud", 115200, "Serial baud rate")
	return cmd
}

func runBridge(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	mode := &serial.Mode{
		BaudRate: flagBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(flagPort, mode)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", flagPort, err)
	}
	defer port.Close()
	if err := port.SetReadTimeout(serialPoll); err != nil {
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	radio, err := openRadio(ctx)
	if err != nil {
		return err
	}
	defer radio.Close()

	errc := make(chan error, 1)
	go func() { errc <- serialToRadio(ctx, port, radio) }()

	if err := radioToSerial(ctx, radio, port); err != nil {
		return err
	}
	return <-errc
}

func serialToRadio(ctx context.Context, port serial.Port, radio *trx24.Device) error {
	buf := make([]byte, trx24.MaxPayload)
	for ctx.Err() == nil {
		n, err := port.Read(buf)
		if err != nil {
			return fmt.Errorf("serial read: %w", err)
		}
		if n == 0 {
			// Read timeout
			continue
		}
		if err := radio.SendBuffer(buf, n); err != nil {
			return err
		}
	}
	return nil
}

func radioToSerial(ctx context.Context, radio *trx24.Device, port serial.Port) error {
	buf := make([]byte, 128)
	for {
		n, err := radio.ReadContext(ctx, buf)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if _, err := port.Write(buf[:n]); err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
	}
}
