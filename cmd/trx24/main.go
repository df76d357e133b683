// Command trx24 drives an AT86RF23x transceiver from a Linux host: send
// frames, print what arrives, or bridge the radio to a serial port.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagChannel     int
	flagEmulate     bool
	flagSPI         string
	flagRST         int
	flagSLPTR       int
	flagIRQ         int
	flagLockTimeout time.Duration
	flagBuffer      int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trx24",
		Short: "trx24 - 2.4 GHz IEEE 802.15.4 transceiver tool",
		Long: `trx24 talks to an AT86RF23x transceiver on a Linux SPI bus.

Payload bytes are sent as single frames with a hardware FCS. Received
payloads are streamed without frame boundaries.
Use --emulate to run against an in-process transceiver that loops every
transmitted frame back to the receiver.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.IntVar(&flagChannel, "channel", 11, "IEEE 802.15.4 channel (11-26)")
	pf.BoolVar(&flagEmulate, "emulate", false, "Use the loopback emulator instead of hardware")
	pf.StringVar(&flagSPI, "spi", "/dev/spidev0.0", "SPI bus device")
	pf.IntVar(&flagRST, "rst", 25, "GPIO (BCM) wired to RST")
	pf.IntVar(&flagSLPTR, "slptr", 24, "GPIO (BCM) wired to SLP_TR")
	pf.IntVar(&flagIRQ, "irq", 23, "GPIO (BCM) wired to IRQ")
	pf.DurationVar(&flagLockTimeout, "lock-timeout", 0, "Give up on PLL lock after this long (0 waits forever)")
	pf.IntVar(&flagBuffer, "buffer", 0, "Receive buffer size in bytes (0 for the driver default)")

	rootCmd.AddCommand(newSendCmd(), newListenCmd(), newBridgeCmd())
	return rootCmd
}
