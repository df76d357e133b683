package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagRepeat   int
	flagInterval time.Duration
)

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [text...]",
		Short: "Transmit the arguments as one frame",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSend,
	}
	cmd.Flags().IntVar(&flagRepeat, "repeat", 1, "Number of times to send the frame")
	cmd.Flags().DurationVar(&flagInterval, "interval", time.Second, "Delay between repeated frames")
	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	radio, err := openRadio(ctx)
	if err != nil {
		return err
	}
	defer radio.Close()

	msg := strings.Join(args, " ")
	for i := 0; i < flagRepeat; i++ {
		if i > 0 {
			time.Sleep(flagInterval)
		}
		if err := radio.SendString(msg); err != nil {
			return fmt.Errorf("send %d: %w", i+1, err)
		}
	}

	// Let the last frame leave the air before the transceiver is switched off.
	time.Sleep(10 * time.Millisecond)
	fmt.Fprintf(cmd.OutOrStdout(), "sent %d frame(s) on channel %d\n", flagRepeat, radio.Channel())
	return nil
}
