package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/novavault/wallet-provisioner/internal/domain/entities"
	"github.com/novavault/wallet-provisioner/internal/domain/services/provisioning"
	"github.com/novavault/wallet-provisioner/internal/infrastructure/envfile"
	perrors "github.com/novavault/wallet-provisioner/pkg/errors"
)

func setupCmd() *cobra.Command {
	var (
		full           bool
		reuseWalletSet bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create a wallet set and the first wallet on an available testnet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if full && strings.TrimSpace(cfg.Circle.EntitySecret) == "" {
				if err := cfg.ValidateForRegister(); err != nil {
					return perrors.Wrap(err, perrors.ErrCodeMissingCredentials, "missing credentials in "+store.Path())
				}
				if _, err := runRegister(ctx); err != nil {
					return err
				}
			}

			if err := cfg.ValidateForSetup(); err != nil {
				return perrors.Wrap(err, perrors.ErrCodeMissingCredentials, "missing credentials in "+store.Path())
			}

			client := newCircleClient()
			secretSvc := newSecretService()

			pubKey, err := client.GetEntityPublicKey(ctx)
			if err != nil {
				return err
			}
			cipher, err := secretSvc.NewCipher(cfg.Circle.EntitySecret, pubKey.PublicKey)
			if err != nil {
				return err
			}

			svc := provisioning.NewService(client, cipher, log.Zap())

			walletSetID := ""
			if reuseWalletSet {
				walletSetID = cfg.Circle.WalletSetID
				if walletSetID == "" {
					walletSetID, err = store.Get(envfile.KeyWalletSetID)
					if err != nil {
						return err
					}
				}
			}

			if walletSetID == "" {
				walletSet, err := svc.CreateWalletSet(ctx, cfg.Circle.WalletSetName)
				if err != nil {
					return err
				}
				walletSetID = walletSet.ID
				fmt.Printf("Wallet set created: %s (%s)\n", walletSet.ID, walletSet.Name)
				if err := store.Set(envfile.KeyWalletSetID, walletSetID); err != nil {
					return err
				}
			} else {
				fmt.Printf("Reusing wallet set: %s\n", walletSetID)
			}

			log.WithFields(map[string]interface{}{
				"walletSetId": walletSetID,
				"candidates":  len(entities.DefaultCandidates),
			}).Infow("Provisioning wallet")

			wallet, err := svc.Provision(ctx, walletSetID, entities.DefaultCandidates)
			if err != nil {
				return err
			}

			if err := store.SetAll(map[string]string{
				envfile.KeyWalletID:         wallet.ID,
				envfile.KeyWalletAddress:    wallet.Address,
				envfile.KeyWalletBlockchain: wallet.Blockchain,
			}); err != nil {
				return err
			}

			fmt.Println("Wallet created:")
			fmt.Printf("  ID:         %s\n", wallet.ID)
			fmt.Printf("  Address:    %s\n", wallet.Address)
			fmt.Printf("  Blockchain: %s\n", wallet.Blockchain)
			fmt.Printf("  Type:       %s\n", wallet.AccountType)
			fmt.Printf("  State:      %s\n", wallet.State)
			fmt.Printf("\n%s updated with wallet details\n", store.Path())
			fmt.Println("Get testnet tokens at https://faucet.circle.com/ for the address above")
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "register a new entity secret first when none is stored")
	cmd.Flags().BoolVar(&reuseWalletSet, "reuse-wallet-set", false, "reuse the stored wallet set instead of creating a new one")
	return cmd
}
