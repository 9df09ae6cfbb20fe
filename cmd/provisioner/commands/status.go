package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novavault/wallet-provisioner/internal/infrastructure/envfile"
	perrors "github.com/novavault/wallet-provisioner/pkg/errors"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show provisioned identifiers and their current state at Circle",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			values, err := store.Load()
			if err != nil {
				return err
			}

			walletSetID := values[envfile.KeyWalletSetID]
			walletID := values[envfile.KeyWalletID]

			if walletSetID == "" && walletID == "" {
				fmt.Printf("Nothing provisioned yet in %s; run setup first\n", store.Path())
				return nil
			}

			if err := cfg.ValidateForRegister(); err != nil {
				return perrors.Wrap(err, perrors.ErrCodeMissingCredentials, "missing credentials in "+store.Path())
			}
			client := newCircleClient()

			if err := client.HealthCheck(ctx); err != nil {
				return err
			}
			fmt.Println("Circle API reachable")

			if walletSetID != "" {
				resp, err := client.GetWalletSet(ctx, walletSetID)
				if err != nil {
					return err
				}
				fmt.Println("Wallet set:")
				fmt.Printf("  ID:      %s\n", resp.WalletSet.ID)
				fmt.Printf("  Name:    %s\n", resp.WalletSet.Name)
				fmt.Printf("  Custody: %s\n", resp.WalletSet.CustodyType)
				fmt.Printf("  Created: %s\n", resp.WalletSet.CreatedDate)
			}

			if walletID != "" {
				resp, err := client.GetWallet(ctx, walletID)
				if err != nil {
					return err
				}
				fmt.Println("Wallet:")
				fmt.Printf("  ID:         %s\n", resp.Wallet.ID)
				fmt.Printf("  Address:    %s\n", resp.Wallet.Address)
				fmt.Printf("  Blockchain: %s\n", resp.Wallet.Blockchain)
				fmt.Printf("  State:      %s\n", resp.Wallet.State)
			}

			log.Debugw("Circle client metrics", "metrics", client.GetMetrics())

			return nil
		},
	}
	return cmd
}
