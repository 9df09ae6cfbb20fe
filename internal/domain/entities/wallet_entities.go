package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AccountType is a Circle wallet account-type variant.
type AccountType string

const (
	AccountTypeEOA AccountType = "EOA" // externally-owned account
	AccountTypeSCA AccountType = "SCA" // smart-contract account
)

// BlockchainCandidate pairs a Circle testnet blockchain identifier with the
// account type to request on it.
type BlockchainCandidate struct {
	Blockchain  string      `json:"blockchain"`
	AccountType AccountType `json:"accountType"`
}

func (c BlockchainCandidate) String() string {
	return fmt.Sprintf("%s (%s)", c.Blockchain, c.AccountType)
}

// DefaultCandidates is the ordered list of testnet blockchains tried during
// provisioning. Order matters: the first chain that accepts wallet creation
// wins and the rest are skipped.
var DefaultCandidates = []BlockchainCandidate{
	{Blockchain: "MATIC-AMOY", AccountType: AccountTypeSCA},
	{Blockchain: "ETH-SEPOLIA", AccountType: AccountTypeEOA},
	{Blockchain: "AVAX-FUJI", AccountType: AccountTypeEOA},
	{Blockchain: "ARB-SEPOLIA", AccountType: AccountTypeEOA},
}

// === Circle API Models ===

// CircleWalletSetRequest represents Circle wallet set creation request
type CircleWalletSetRequest struct {
	IdempotencyKey         string `json:"idempotencyKey,omitempty"`
	Name                   string `json:"name"`
	EntitySecretCiphertext string `json:"entitySecretCiphertext"`
}

// CircleWalletSetResponse represents Circle wallet set response
type CircleWalletSetResponse struct {
	WalletSet CircleWalletSetData `json:"walletSet"`
}

// UnmarshalJSON normalizes Circle wallet set responses that may wrap data
func (r *CircleWalletSetResponse) UnmarshalJSON(data []byte) error {
	type alias CircleWalletSetResponse
	aux := struct {
		Data      *alias               `json:"data"`
		WalletSet *CircleWalletSetData `json:"walletSet"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch {
	case aux.Data != nil && aux.Data.WalletSet.ID != "":
		r.WalletSet = aux.Data.WalletSet
	case aux.WalletSet != nil && aux.WalletSet.ID != "":
		r.WalletSet = *aux.WalletSet
	default:
		r.WalletSet = CircleWalletSetData{}
	}

	return nil
}

// CircleWalletSetData represents Circle wallet set data
type CircleWalletSetData struct {
	ID          string    `json:"id"`
	CustodyType string    `json:"custodyType"`
	Name        string    `json:"name"`
	CreatedDate time.Time `json:"createDate"`
	UpdatedDate time.Time `json:"updateDate"`
}

// CircleWalletCreateRequest represents Circle wallet creation request
type CircleWalletCreateRequest struct {
	IdempotencyKey         string   `json:"idempotencyKey,omitempty"`
	WalletSetID            string   `json:"walletSetId"`
	Blockchains            []string `json:"blockchains"`
	AccountType            string   `json:"accountType"`
	Count                  int      `json:"count"`
	EntitySecretCiphertext string   `json:"entitySecretCiphertext"`
}

// CircleWalletsResponse represents Circle wallet creation response. Creation
// returns a list because a single request may mint wallets on several chains.
type CircleWalletsResponse struct {
	Wallets []CircleWalletData `json:"wallets"`
}

// UnmarshalJSON normalizes Circle wallet responses that may wrap data or
// return a single wallet object (GET /wallets/{id}).
func (r *CircleWalletsResponse) UnmarshalJSON(data []byte) error {
	type alias CircleWalletsResponse
	aux := struct {
		Data    *alias             `json:"data"`
		Wallets []CircleWalletData `json:"wallets"`
		Wallet  *CircleWalletData  `json:"wallet"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch {
	case aux.Data != nil && len(aux.Data.Wallets) > 0:
		r.Wallets = aux.Data.Wallets
	case len(aux.Wallets) > 0:
		r.Wallets = aux.Wallets
	case aux.Wallet != nil && aux.Wallet.ID != "":
		r.Wallets = []CircleWalletData{*aux.Wallet}
	default:
		r.Wallets = nil
	}

	return nil
}

// CircleWalletResponse represents a single-wallet lookup response
type CircleWalletResponse struct {
	Wallet CircleWalletData `json:"wallet"`
}

// UnmarshalJSON on the single-wallet response follows the same envelope rules.
func (r *CircleWalletResponse) UnmarshalJSON(data []byte) error {
	type alias CircleWalletResponse
	aux := struct {
		Data   *alias           `json:"data"`
		Wallet CircleWalletData `json:"wallet"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch {
	case aux.Data != nil && aux.Data.Wallet.ID != "":
		r.Wallet = aux.Data.Wallet
	case aux.Wallet.ID != "":
		r.Wallet = aux.Wallet
	default:
		r.Wallet = CircleWalletData{}
	}

	return nil
}

// CircleWalletData represents Circle wallet data
type CircleWalletData struct {
	ID          string    `json:"id"`
	State       string    `json:"state"`
	WalletSetID string    `json:"walletSetId"`
	CustodyType string    `json:"custodyType"`
	Address     string    `json:"address"`
	Blockchain  string    `json:"blockchain"`
	AccountType string    `json:"accountType"`
	CreatedDate time.Time `json:"createDate"`
	UpdatedDate time.Time `json:"updateDate"`
}

// CircleEntityPublicKeyResponse carries the RSA public key used to encrypt
// the entity secret.
type CircleEntityPublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

// UnmarshalJSON normalizes the optional data envelope
func (r *CircleEntityPublicKeyResponse) UnmarshalJSON(data []byte) error {
	type alias CircleEntityPublicKeyResponse
	aux := struct {
		Data      *alias `json:"data"`
		PublicKey string `json:"publicKey"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Data != nil && aux.Data.PublicKey != "" {
		r.PublicKey = aux.Data.PublicKey
	} else {
		r.PublicKey = aux.PublicKey
	}

	return nil
}

// CircleRegisterEntitySecretRequest registers an entity secret ciphertext
type CircleRegisterEntitySecretRequest struct {
	IdempotencyKey         string `json:"idempotencyKey,omitempty"`
	EntitySecretCiphertext string `json:"entitySecretCiphertext"`
}

// CircleRegisterEntitySecretResponse carries the recovery file contents
// returned on successful registration.
type CircleRegisterEntitySecretResponse struct {
	RecoveryFile string `json:"recoveryFile"`
}

// UnmarshalJSON normalizes the optional data envelope
func (r *CircleRegisterEntitySecretResponse) UnmarshalJSON(data []byte) error {
	type alias CircleRegisterEntitySecretResponse
	aux := struct {
		Data         *alias `json:"data"`
		RecoveryFile string `json:"recoveryFile"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Data != nil && aux.Data.RecoveryFile != "" {
		r.RecoveryFile = aux.Data.RecoveryFile
	} else {
		r.RecoveryFile = aux.RecoveryFile
	}

	return nil
}

// CircleErrorResponse represents Circle API error response. Code is the
// domain code from the response body; HTTPStatus is the transport status,
// which the body code does not always repeat.
type CircleErrorResponse struct {
	Code       int                `json:"code"`
	Message    string             `json:"message"`
	Errors     []CircleFieldError `json:"errors,omitempty"`
	HTTPStatus int                `json:"-"`
}

// CircleFieldError represents field-specific error
type CircleFieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements error interface
func (e CircleErrorResponse) Error() string {
	if len(e.Errors) > 0 {
		var details []string
		for _, fieldErr := range e.Errors {
			details = append(details, fmt.Sprintf("%s: %s", fieldErr.Field, fieldErr.Message))
		}
		return fmt.Sprintf("Circle API error %d: %s (%s)", e.Code, e.Message, strings.Join(details, ", "))
	}
	return fmt.Sprintf("Circle API error %d: %s", e.Code, e.Message)
}
