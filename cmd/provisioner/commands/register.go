package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/novavault/wallet-provisioner/internal/infrastructure/envfile"
	perrors "github.com/novavault/wallet-provisioner/pkg/errors"
)

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Generate and register a new entity secret with Circle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateForRegister(); err != nil {
				return perrors.Wrap(err, perrors.ErrCodeMissingCredentials, "missing credentials in "+store.Path())
			}
			secret, err := runRegister(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Entity secret registered and saved to %s\n", store.Path())
			fmt.Printf("  %s=%s...\n", envfile.KeyEntitySecret, secret[:20])
			return nil
		},
	}
	return cmd
}

// runRegister generates a fresh entity secret, registers its ciphertext with
// Circle, saves the recovery file and persists the secret. Shared with
// `setup --full`.
func runRegister(ctx context.Context) (string, error) {
	client := newCircleClient()
	secretSvc := newSecretService()

	secret, err := secretSvc.GenerateSecret()
	if err != nil {
		return "", err
	}

	pubKey, err := client.GetEntityPublicKey(ctx)
	if err != nil {
		return "", err
	}

	ciphertext, err := secretSvc.Encrypt(secret, pubKey.PublicKey)
	if err != nil {
		return "", err
	}

	resp, err := client.RegisterEntitySecret(ctx, ciphertext)
	if err != nil {
		return "", err
	}

	if resp.RecoveryFile != "" {
		path, err := saveRecoveryFile(cfg.Circle.RecoveryDir, resp.RecoveryFile)
		if err != nil {
			return "", err
		}
		fmt.Printf("Recovery file saved to %s\n", path)
	}

	if err := store.Set(envfile.KeyEntitySecret, secret); err != nil {
		return "", err
	}
	cfg.Circle.EntitySecret = secret

	return secret, nil
}

// saveRecoveryFile writes the recovery file contents under dir. Losing this
// file makes a lost entity secret unrecoverable, so it is written before the
// secret is persisted anywhere else.
func saveRecoveryFile(dir, contents string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create recovery directory: %w", err)
	}
	name := fmt.Sprintf("recovery_file_%s.dat", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		return "", fmt.Errorf("failed to write recovery file: %w", err)
	}
	return path, nil
}
