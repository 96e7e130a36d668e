package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simplexmq/smp-client-go/cryptoprov"
	"github.com/simplexmq/smp-client-go/wire"
)

func newRecvCommand(configFile *string) *cobra.Command {
	var queueIDHex, keyIn string
	var count int

	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Subscribe to an SMP queue and print incoming messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if queueIDHex == "" || keyIn == "" {
				return fmt.Errorf("smp-cli: --queue-id and --key are required")
			}
			queueID, err := hex.DecodeString(queueIDHex)
			if err != nil {
				return fmt.Errorf("smp-cli: decoding --queue-id: %w", err)
			}
			priv, err := cryptoprov.LoadPrivateKeyPEM(keyIn)
			if err != nil {
				return fmt.Errorf("smp-cli: loading receive key: %w", err)
			}

			cc, err := connectFirstServer(*configFile)
			if err != nil {
				return err
			}
			defer cc.Close()

			ctx := context.Background()
			if _, err := cc.client.SubscribeSMPQueue(ctx, priv, queueID); err != nil {
				return fmt.Errorf("smp-cli: subscribing: %w", err)
			}

			for i := 0; i < count; i++ {
				sm, ok, err := cc.msgQ.Dequeue(ctx)
				if err != nil {
					return fmt.Errorf("smp-cli: reading message queue: %w", err)
				}
				if !ok {
					return nil
				}
				msg, isMsg := sm.Command.(*wire.MsgCmd)
				if !isMsg {
					fmt.Printf("received non-message broker push: %s\n", sm.Command.Tag())
					continue
				}
				fmt.Printf("message %x: %s\n", msg.MsgID, msg.MsgBody)
				if _, err := cc.client.AckSMPMessage(ctx, priv, queueID); err != nil {
					return fmt.Errorf("smp-cli: acking message: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&queueIDHex, "queue-id", "", "hex-encoded recipient queue id")
	cmd.Flags().StringVar(&keyIn, "key", "", "path to the recipient private key PEM")
	cmd.Flags().IntVar(&count, "count", 1, "number of messages to receive before exiting")
	return cmd
}
