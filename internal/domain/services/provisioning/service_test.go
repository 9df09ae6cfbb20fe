package provisioning

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/novavault/wallet-provisioner/internal/domain/entities"
	perrors "github.com/novavault/wallet-provisioner/pkg/errors"
)

// Mock implementations for testing
type mockWalletClient struct {
	mock.Mock
}

func (m *mockWalletClient) CreateWalletSet(ctx context.Context, name string, entitySecretCiphertext string) (*entities.CircleWalletSetResponse, error) {
	args := m.Called(ctx, name, entitySecretCiphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CircleWalletSetResponse), args.Error(1)
}

func (m *mockWalletClient) CreateWallet(ctx context.Context, req entities.CircleWalletCreateRequest) (*entities.CircleWalletsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CircleWalletsResponse), args.Error(1)
}

type staticCipher struct {
	ciphertext string
	err        error
}

func (c staticCipher) Ciphertext() (string, error) {
	return c.ciphertext, c.err
}

func newTestService(t *testing.T, client *mockWalletClient) *Service {
	return NewService(client, staticCipher{ciphertext: "cipher"}, zaptest.NewLogger(t))
}

func walletsResponse(wallets ...entities.CircleWalletData) *entities.CircleWalletsResponse {
	return &entities.CircleWalletsResponse{Wallets: wallets}
}

func TestProvision_FirstCandidateSucceeds(t *testing.T) {
	client := &mockWalletClient{}
	svc := newTestService(t, client)

	wallet := entities.CircleWalletData{
		ID:         "wallet-1",
		Address:    "0xabc",
		Blockchain: "MATIC-AMOY",
		State:      "LIVE",
	}
	client.On("CreateWallet", mock.Anything, mock.MatchedBy(func(req entities.CircleWalletCreateRequest) bool {
		return req.Blockchains[0] == "MATIC-AMOY" && req.AccountType == "SCA"
	})).Return(walletsResponse(wallet), nil).Once()

	got, err := svc.Provision(context.Background(), "ws-1", entities.DefaultCandidates)

	require.NoError(t, err)
	assert.Equal(t, "wallet-1", got.ID)
	assert.Equal(t, "MATIC-AMOY", got.Blockchain)
	client.AssertNumberOfCalls(t, "CreateWallet", 1)
}

func TestProvision_FallsBackToNthCandidate(t *testing.T) {
	client := &mockWalletClient{}
	svc := newTestService(t, client)

	candidates := []entities.BlockchainCandidate{
		{Blockchain: "A", AccountType: entities.AccountTypeSCA},
		{Blockchain: "B", AccountType: entities.AccountTypeEOA},
		{Blockchain: "C", AccountType: entities.AccountTypeEOA},
	}

	wallet := entities.CircleWalletData{ID: "wallet-b", Address: "0xb", Blockchain: "B"}

	client.On("CreateWallet", mock.Anything, mock.MatchedBy(func(req entities.CircleWalletCreateRequest) bool {
		return req.Blockchains[0] == "A"
	})).Return(nil, entities.CircleErrorResponse{Code: 400, Message: "chain not enabled"}).Once()
	client.On("CreateWallet", mock.Anything, mock.MatchedBy(func(req entities.CircleWalletCreateRequest) bool {
		return req.Blockchains[0] == "B"
	})).Return(walletsResponse(wallet), nil).Once()

	got, err := svc.Provision(context.Background(), "ws-1", candidates)

	require.NoError(t, err)
	assert.Equal(t, "wallet-b", got.ID)
	assert.Equal(t, "B", got.Blockchain)
	// C must never be attempted: first success short-circuits.
	client.AssertNumberOfCalls(t, "CreateWallet", 2)
	client.AssertExpectations(t)
}

func TestProvision_ExhaustsAllCandidates(t *testing.T) {
	client := &mockWalletClient{}
	svc := newTestService(t, client)

	candidates := []entities.BlockchainCandidate{
		{Blockchain: "A", AccountType: entities.AccountTypeSCA},
		{Blockchain: "B", AccountType: entities.AccountTypeEOA},
	}

	client.On("CreateWallet", mock.Anything, mock.Anything).
		Return(nil, entities.CircleErrorResponse{Code: 400, Message: "unavailable"}).Twice()

	got, err := svc.Provision(context.Background(), "ws-1", candidates)

	require.Error(t, err)
	assert.Nil(t, got)

	var exhausted *ExhaustionError
	require.ErrorAs(t, err, &exhausted)
	assert.Len(t, exhausted.Attempts, 2)
	assert.Equal(t, "A", exhausted.Attempts[0].Candidate.Blockchain)
	assert.Equal(t, "B", exhausted.Attempts[1].Candidate.Blockchain)
	assert.True(t, strings.Contains(err.Error(), "A (SCA)"))
	assert.True(t, strings.Contains(err.Error(), "B (EOA)"))
	client.AssertNumberOfCalls(t, "CreateWallet", 2)

	for _, attempt := range exhausted.Attempts {
		assert.Equal(t, perrors.ErrCodeCandidateFailed, perrors.Classify(attempt.Err))
		var circleErr entities.CircleErrorResponse
		assert.ErrorAs(t, attempt.Err, &circleErr)
	}
}

func TestProvision_EmptyCandidateList(t *testing.T) {
	client := &mockWalletClient{}
	svc := newTestService(t, client)

	got, err := svc.Provision(context.Background(), "ws-1", nil)

	require.Error(t, err)
	assert.Nil(t, got)

	var exhausted *ExhaustionError
	require.ErrorAs(t, err, &exhausted)
	assert.Empty(t, exhausted.Attempts)
	client.AssertNumberOfCalls(t, "CreateWallet", 0)
}

func TestProvision_EmptyWalletListAdvances(t *testing.T) {
	client := &mockWalletClient{}
	svc := newTestService(t, client)

	candidates := []entities.BlockchainCandidate{
		{Blockchain: "A", AccountType: entities.AccountTypeEOA},
		{Blockchain: "B", AccountType: entities.AccountTypeEOA},
	}

	wallet := entities.CircleWalletData{ID: "wallet-b", Blockchain: "B"}

	client.On("CreateWallet", mock.Anything, mock.MatchedBy(func(req entities.CircleWalletCreateRequest) bool {
		return req.Blockchains[0] == "A"
	})).Return(walletsResponse(), nil).Once()
	client.On("CreateWallet", mock.Anything, mock.MatchedBy(func(req entities.CircleWalletCreateRequest) bool {
		return req.Blockchains[0] == "B"
	})).Return(walletsResponse(wallet), nil).Once()

	got, err := svc.Provision(context.Background(), "ws-1", candidates)

	require.NoError(t, err)
	assert.Equal(t, "wallet-b", got.ID)
	client.AssertExpectations(t)
}

func TestProvision_FillsBlockchainFromCandidate(t *testing.T) {
	client := &mockWalletClient{}
	svc := newTestService(t, client)

	candidates := []entities.BlockchainCandidate{
		{Blockchain: "ETH-SEPOLIA", AccountType: entities.AccountTypeEOA},
	}

	// Some responses omit blockchain/accountType on the wallet object.
	wallet := entities.CircleWalletData{ID: "wallet-1", Address: "0xabc"}
	client.On("CreateWallet", mock.Anything, mock.Anything).Return(walletsResponse(wallet), nil).Once()

	got, err := svc.Provision(context.Background(), "ws-1", candidates)

	require.NoError(t, err)
	assert.Equal(t, "ETH-SEPOLIA", got.Blockchain)
	assert.Equal(t, "EOA", got.AccountType)
}

func TestProvision_CipherFailureStopsRun(t *testing.T) {
	client := &mockWalletClient{}
	svc := NewService(client, staticCipher{err: assert.AnError}, zaptest.NewLogger(t))

	got, err := svc.Provision(context.Background(), "ws-1", entities.DefaultCandidates)

	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, perrors.ErrCodeInternal, perrors.Classify(err))
	client.AssertNumberOfCalls(t, "CreateWallet", 0)
}

func TestCreateWalletSet(t *testing.T) {
	client := &mockWalletClient{}
	svc := newTestService(t, client)

	client.On("CreateWalletSet", mock.Anything, mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "NovaVault-") && len(name) == len("NovaVault-")+8
	}), "cipher").Return(&entities.CircleWalletSetResponse{
		WalletSet: entities.CircleWalletSetData{ID: "ws-1", Name: "NovaVault-abcd1234"},
	}, nil).Once()

	got, err := svc.CreateWalletSet(context.Background(), "NovaVault")

	require.NoError(t, err)
	assert.Equal(t, "ws-1", got.ID)
	client.AssertExpectations(t)
}

func TestCreateWalletSet_EmptyIDRejected(t *testing.T) {
	client := &mockWalletClient{}
	svc := newTestService(t, client)

	client.On("CreateWalletSet", mock.Anything, mock.Anything, mock.Anything).
		Return(&entities.CircleWalletSetResponse{}, nil).Once()

	got, err := svc.CreateWalletSet(context.Background(), "NovaVault")

	require.Error(t, err)
	assert.Nil(t, got)
}
