package provisioning

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/novavault/wallet-provisioner/internal/domain/entities"
	perrors "github.com/novavault/wallet-provisioner/pkg/errors"
)

// WalletClient is the Circle capability the sequencer consumes.
type WalletClient interface {
	CreateWalletSet(ctx context.Context, name string, entitySecretCiphertext string) (*entities.CircleWalletSetResponse, error)
	CreateWallet(ctx context.Context, req entities.CircleWalletCreateRequest) (*entities.CircleWalletsResponse, error)
}

// CiphertextProvider mints a fresh entity secret ciphertext per mutating
// request; Circle rejects ciphertext reuse.
type CiphertextProvider interface {
	Ciphertext() (string, error)
}

// Service runs the wallet provisioning sequence: one wallet set, then one
// wallet on the first blockchain candidate that accepts creation.
type Service struct {
	client WalletClient
	cipher CiphertextProvider
	logger *zap.Logger
}

// NewService creates a new provisioning service
func NewService(client WalletClient, cipher CiphertextProvider, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		cipher: cipher,
		logger: logger,
	}
}

// CreateWalletSet creates a wallet set named namePrefix plus a random
// 4-byte hex suffix, so repeated runs stay distinguishable in the console.
func (s *Service) CreateWalletSet(ctx context.Context, namePrefix string) (*entities.CircleWalletSetData, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return nil, fmt.Errorf("failed to generate wallet set name suffix: %w", err)
	}
	name := fmt.Sprintf("%s-%s", namePrefix, hex.EncodeToString(suffix))

	ciphertext, err := s.cipher.Ciphertext()
	if err != nil {
		return nil, err
	}

	resp, err := s.client.CreateWalletSet(ctx, name, ciphertext)
	if err != nil {
		return nil, err
	}
	if resp.WalletSet.ID == "" {
		return nil, fmt.Errorf("wallet set response carried no id")
	}

	return &resp.WalletSet, nil
}

// Provision tries each candidate strictly in order and returns the first
// wallet created. Each candidate is attempted exactly once; there is no
// retry, no backoff and no parallelism, so a run can never mint duplicate
// wallets on the same set. Exhausting the list returns an *ExhaustionError
// naming every attempt.
func (s *Service) Provision(ctx context.Context, walletSetID string, candidates []entities.BlockchainCandidate) (*entities.CircleWalletData, error) {
	attempts := make([]Attempt, 0, len(candidates))

	for _, candidate := range candidates {
		s.logger.Info("Trying blockchain candidate",
			zap.String("blockchain", candidate.Blockchain),
			zap.String("accountType", string(candidate.AccountType)))

		ciphertext, err := s.cipher.Ciphertext()
		if err != nil {
			// Encryption failure is local and would fail every remaining
			// candidate the same way.
			return nil, perrors.Wrap(err, perrors.ErrCodeInternal, "entity secret encryption failed")
		}

		resp, err := s.client.CreateWallet(ctx, entities.CircleWalletCreateRequest{
			WalletSetID:            walletSetID,
			Blockchains:            []string{candidate.Blockchain},
			AccountType:            string(candidate.AccountType),
			Count:                  1,
			EntitySecretCiphertext: ciphertext,
		})
		if err != nil {
			s.logger.Warn("Blockchain candidate failed, advancing to next",
				zap.String("blockchain", candidate.Blockchain),
				zap.Error(err))
			attempts = append(attempts, Attempt{
				Candidate: candidate,
				Err: perrors.Wrap(err, perrors.ErrCodeCandidateFailed, "wallet creation failed on "+candidate.Blockchain).
					AddDetail("blockchain", candidate.Blockchain),
			})
			continue
		}

		if len(resp.Wallets) == 0 {
			s.logger.Warn("Blockchain candidate returned empty wallet list",
				zap.String("blockchain", candidate.Blockchain))
			attempts = append(attempts, Attempt{
				Candidate: candidate,
				Err: perrors.New(perrors.ErrCodeCandidateFailed, "wallet creation on "+candidate.Blockchain+" returned no wallets").
					AddDetail("blockchain", candidate.Blockchain),
			})
			continue
		}

		wallet := resp.Wallets[0]
		if wallet.Blockchain == "" {
			wallet.Blockchain = candidate.Blockchain
		}
		if wallet.AccountType == "" {
			wallet.AccountType = string(candidate.AccountType)
		}

		s.logger.Info("Wallet created",
			zap.String("walletId", wallet.ID),
			zap.String("address", wallet.Address),
			zap.String("blockchain", wallet.Blockchain),
			zap.String("state", wallet.State))

		return &wallet, nil
	}

	return nil, &ExhaustionError{Attempts: attempts}
}

// Attempt records one failed candidate attempt.
type Attempt struct {
	Candidate entities.BlockchainCandidate
	Err       error
}

// ExhaustionError reports that every candidate was attempted without
// producing a wallet. An empty candidate list exhausts immediately.
type ExhaustionError struct {
	Attempts []Attempt
}

func (e *ExhaustionError) Error() string {
	if len(e.Attempts) == 0 {
		return "could not create wallet on any blockchain: no candidates to try"
	}
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Candidate.String())
	}
	return fmt.Sprintf("could not create wallet on any blockchain; tried %s", strings.Join(names, ", "))
}
