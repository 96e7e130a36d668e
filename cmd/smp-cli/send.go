package main

import (
	"context"
	"crypto/rsa"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simplexmq/smp-client-go/cryptoprov"
)

func newSendCommand(configFile *string) *cobra.Command {
	var queueIDHex, message, keyIn string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message on an SMP queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if queueIDHex == "" {
				return fmt.Errorf("smp-cli: --queue-id is required")
			}
			queueID, err := hex.DecodeString(queueIDHex)
			if err != nil {
				return fmt.Errorf("smp-cli: decoding --queue-id: %w", err)
			}

			cc, err := connectFirstServer(*configFile)
			if err != nil {
				return err
			}
			defer cc.Close()

			var sndKey *rsa.PrivateKey
			if keyIn != "" {
				sndKey, err = cryptoprov.LoadPrivateKeyPEM(keyIn)
				if err != nil {
					return fmt.Errorf("smp-cli: loading sender key: %w", err)
				}
			}

			if err := cc.client.SendSMPMessage(context.Background(), sndKey, queueID, []byte(message)); err != nil {
				return fmt.Errorf("smp-cli: sending message: %w", err)
			}
			fmt.Println("message sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&queueIDHex, "queue-id", "", "hex-encoded sender queue id")
	cmd.Flags().StringVar(&message, "message", "", "message body to send")
	cmd.Flags().StringVar(&keyIn, "key", "", "path to the sender private key PEM, if the queue is secured")
	return cmd
}
