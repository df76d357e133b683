package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var flagStats bool

func newListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Copy received payload bytes to stdout until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runListen,
	}
	cmd.Flags().BoolVar(&flagStats, "stats", false, "Print receive counters on exit")
	return cmd
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	radio, err := openRadio(ctx)
	if err != nil {
		return err
	}
	defer radio.Close()

	out := cmd.OutOrStdout()
	buf := make([]byte, 128)
	for {
		n, err := radio.ReadContext(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				// Interrupted or deadline reached
				break
			}
			return err
		}
		if _, err := out.Write(buf[:n]); err != nil {
			return err
		}
	}

	if flagStats {
		s := radio.Stats()
		fmt.Fprintf(cmd.ErrOrStderr(), "frames=%d crc_errors=%d overflows=%d dropped=%d rssi=%ddBm\n",
			s.FramesReceived, s.CRCErrors, s.Overflows, s.DroppedBytes, radio.RSSI())
	}
	return nil
}
