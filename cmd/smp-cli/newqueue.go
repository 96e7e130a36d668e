package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simplexmq/smp-client-go/cryptoprov"
)

func newQueueCommand(configFile *string) *cobra.Command {
	var keyOut string

	cmd := &cobra.Command{
		Use:   "new-queue",
		Short: "Create a new SMP queue and print its identifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyOut == "" {
				return fmt.Errorf("smp-cli: --key-out is required")
			}

			cc, err := connectFirstServer(*configFile)
			if err != nil {
				return err
			}
			defer cc.Close()

			priv, err := cryptoprov.GenerateRSAKeyPair(2048)
			if err != nil {
				return fmt.Errorf("smp-cli: generating receive key: %w", err)
			}
			pub, err := cryptoprov.ExportSPKI(&priv.PublicKey)
			if err != nil {
				return fmt.Errorf("smp-cli: exporting receive public key: %w", err)
			}

			ids, err := cc.client.CreateSMPQueue(context.Background(), priv, pub)
			if err != nil {
				return fmt.Errorf("smp-cli: creating queue: %w", err)
			}

			if err := cryptoprov.SavePrivateKeyPEM(keyOut, priv); err != nil {
				return fmt.Errorf("smp-cli: saving receive key: %w", err)
			}

			fmt.Printf("recipient id: %x\n", ids.RcvID)
			fmt.Printf("sender id:    %x\n", ids.SndID)
			fmt.Printf("receive key saved to %s\n", keyOut)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyOut, "key-out", "", "path to write the new receive private key PEM")
	return cmd
}
