package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/delfinacorr/hello-tiburona/internal/events"
)

func (a *app) watchCmd() *cobra.Command {
	var natsURL string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream contract events from NATS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := natsURL
			if url == "" {
				url = a.cfg.NATSURL
			}
			if url == "" {
				return fmt.Errorf("no NATS URL: set nats_url in config, TIBURONA_NATS_URL, or --nats-url")
			}
			sub, err := events.NewNATSSubscriber(url)
			if err != nil {
				return err
			}
			defer sub.Close()

			ch, cancel, err := sub.Subscribe(events.TopicAll)
			if err != nil {
				return err
			}
			defer cancel()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case msg, ok := <-ch:
					if !ok {
						return nil
					}
					a.printf(cmd, "%s %s\n", msg.Topic, msg.Data)
				}
			}
		},
	}
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL (overrides config)")
	return cmd
}
