package circle

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/novavault/wallet-provisioner/internal/domain/entities"
)

const (
	// Circle API URLs
	ProductionBaseURL = "https://api.circle.com"
	SandboxBaseURL    = "https://api-sandbox.circle.com"

	defaultTimeout = 30 * time.Second
)

// Config represents Circle API configuration
type Config struct {
	APIKey                  string        `json:"api_key"`
	BaseURL                 string        `json:"base_url"`
	Environment             string        `json:"environment"` // "sandbox" or "production"
	Timeout                 time.Duration `json:"timeout"`
	WalletSetsEndpoint      string        `json:"wallet_sets_endpoint"`
	WalletsEndpoint         string        `json:"wallets_endpoint"`
	EntityPublicKeyEndpoint string        `json:"entity_public_key_endpoint"`
	EntitySecretEndpoint    string        `json:"entity_secret_endpoint"`
}

// Client represents a Circle API client
type Client struct {
	config         Config
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewClient creates a new Circle API client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	if config.BaseURL == "" {
		if config.Environment == "production" {
			config.BaseURL = ProductionBaseURL
		} else {
			config.BaseURL = SandboxBaseURL
		}
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.WalletSetsEndpoint == "" {
		config.WalletSetsEndpoint = "/v1/w3s/developer/walletSets"
	}
	if config.WalletsEndpoint == "" {
		config.WalletsEndpoint = "/v1/w3s/developer/wallets"
	}
	if config.EntityPublicKeyEndpoint == "" {
		config.EntityPublicKeyEndpoint = "/v1/w3s/config/entity/publicKey"
	}
	if config.EntitySecretEndpoint == "" {
		config.EntitySecretEndpoint = "/v1/w3s/config/entity/entitySecret"
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	st := gobreaker.Settings{
		Name:        "CircleAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	circuitBreaker := gobreaker.NewCircuitBreaker(st)

	return &Client{
		config:         config,
		httpClient:     httpClient,
		circuitBreaker: circuitBreaker,
		logger:         logger,
	}
}

// GetEntityPublicKey fetches the RSA public key used to encrypt the entity
// secret for this API key's entity.
func (c *Client) GetEntityPublicKey(ctx context.Context) (*entities.CircleEntityPublicKeyResponse, error) {
	var response entities.CircleEntityPublicKeyResponse
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return &response, c.doRequest(ctx, "GET", c.config.EntityPublicKeyEndpoint, nil, &response)
	})

	if err != nil {
		c.logger.Error("Failed to fetch entity public key", zap.Error(err))
		return nil, fmt.Errorf("get entity public key failed: %w", err)
	}

	if strings.TrimSpace(response.PublicKey) == "" {
		return nil, fmt.Errorf("entity public key response was empty")
	}

	return &response, nil
}

// RegisterEntitySecret registers an entity secret ciphertext and returns the
// recovery file contents. Registration happens at most once per entity.
func (c *Client) RegisterEntitySecret(ctx context.Context, entitySecretCiphertext string) (*entities.CircleRegisterEntitySecretResponse, error) {
	if strings.TrimSpace(entitySecretCiphertext) == "" {
		return nil, fmt.Errorf("entity secret ciphertext is required for registration")
	}

	request := entities.CircleRegisterEntitySecretRequest{
		IdempotencyKey:         uuid.NewString(),
		EntitySecretCiphertext: entitySecretCiphertext,
	}

	var response entities.CircleRegisterEntitySecretResponse
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return &response, c.doRequest(ctx, "POST", c.config.EntitySecretEndpoint, request, &response)
	})

	if err != nil {
		c.logger.Error("Failed to register entity secret", zap.Error(err))
		return nil, fmt.Errorf("register entity secret failed: %w", err)
	}

	c.logger.Info("Registered entity secret successfully")

	return &response, nil
}

// CreateWalletSet creates a new wallet set
func (c *Client) CreateWalletSet(ctx context.Context, name string, entitySecretCiphertext string) (*entities.CircleWalletSetResponse, error) {
	request := entities.CircleWalletSetRequest{
		IdempotencyKey:         uuid.NewString(),
		Name:                   name,
		EntitySecretCiphertext: entitySecretCiphertext,
	}

	if strings.TrimSpace(request.EntitySecretCiphertext) == "" {
		return nil, fmt.Errorf("entity secret ciphertext is required to create a wallet set")
	}

	var response entities.CircleWalletSetResponse
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return &response, c.doRequest(ctx, "POST", c.config.WalletSetsEndpoint, request, &response)
	})

	if err != nil {
		c.logger.Error("Failed to create wallet set",
			zap.String("name", name),
			zap.Error(err))
		return nil, fmt.Errorf("create wallet set failed: %w", err)
	}

	c.logger.Info("Created wallet set successfully",
		zap.String("name", name),
		zap.String("walletSetId", response.WalletSet.ID))

	return &response, nil
}

// GetWalletSet retrieves a wallet set by ID
func (c *Client) GetWalletSet(ctx context.Context, walletSetID string) (*entities.CircleWalletSetResponse, error) {
	endpoint := fmt.Sprintf("%s/%s", c.config.WalletSetsEndpoint, walletSetID)

	var response entities.CircleWalletSetResponse
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return &response, c.doRequest(ctx, "GET", endpoint, nil, &response)
	})

	if err != nil {
		c.logger.Error("Failed to get wallet set",
			zap.String("walletSetId", walletSetID),
			zap.Error(err))
		return nil, fmt.Errorf("get wallet set failed: %w", err)
	}

	return &response, nil
}

// CreateWallet creates wallets on the requested blockchains. Exactly one
// HTTP request is issued per call; fallback across blockchains is the
// provisioning sequencer's concern, not the client's.
func (c *Client) CreateWallet(ctx context.Context, req entities.CircleWalletCreateRequest) (*entities.CircleWalletsResponse, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		req.IdempotencyKey = uuid.NewString()
	}
	if req.Count == 0 {
		req.Count = 1
	}

	var response entities.CircleWalletsResponse
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return &response, c.doRequest(ctx, "POST", c.config.WalletsEndpoint, req, &response)
	})

	if err != nil {
		c.logger.Error("Failed to create wallet",
			zap.String("walletSetId", req.WalletSetID),
			zap.Strings("blockchains", req.Blockchains),
			zap.String("accountType", req.AccountType),
			zap.Error(err))
		return nil, fmt.Errorf("create wallet failed: %w", err)
	}

	c.logger.Info("Created wallet successfully",
		zap.String("walletSetId", req.WalletSetID),
		zap.Strings("blockchains", req.Blockchains),
		zap.Int("wallets", len(response.Wallets)))

	return &response, nil
}

// GetWallet retrieves a wallet by ID
func (c *Client) GetWallet(ctx context.Context, walletID string) (*entities.CircleWalletResponse, error) {
	endpoint := fmt.Sprintf("%s/%s", c.config.WalletsEndpoint, walletID)

	var response entities.CircleWalletResponse
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return &response, c.doRequest(ctx, "GET", endpoint, nil, &response)
	})

	if err != nil {
		c.logger.Error("Failed to get wallet",
			zap.String("walletId", walletID),
			zap.Error(err))
		return nil, fmt.Errorf("get wallet failed: %w", err)
	}

	return &response, nil
}

// doRequest performs a single HTTP request
func (c *Client) doRequest(ctx context.Context, method, endpoint string, requestBody, responseBody interface{}) error {
	url := c.config.BaseURL + endpoint

	var reqBody io.Reader
	if requestBody != nil {
		jsonData, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "NovaVault-Provisioner/1.0")

	c.logger.Debug("Making Circle API request",
		zap.String("method", method),
		zap.String("url", url))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("Received Circle API response",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("statusCode", resp.StatusCode))

	if resp.StatusCode >= 400 {
		var circleErr entities.CircleErrorResponse
		if err := json.Unmarshal(body, &circleErr); err != nil {
			return fmt.Errorf("circle API error %d: %s", resp.StatusCode, string(body))
		}
		if circleErr.Code == 0 {
			circleErr.Code = resp.StatusCode
		}
		circleErr.HTTPStatus = resp.StatusCode
		return circleErr
	}

	if responseBody != nil && len(body) > 0 {
		if err := json.Unmarshal(body, responseBody); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// HealthCheck performs a health check against Circle API
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.config.BaseURL+c.config.WalletSetsEndpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("circle API health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("circle API health check failed with status %d", resp.StatusCode)
	}

	c.logger.Info("Circle API health check successful", zap.Int("statusCode", resp.StatusCode))
	return nil
}

// GetMetrics returns circuit breaker metrics for monitoring
func (c *Client) GetMetrics() map[string]interface{} {
	counts := c.circuitBreaker.Counts()
	return map[string]interface{}{
		"circuit_breaker_state": c.circuitBreaker.State().String(),
		"requests":              counts.Requests,
		"consecutive_successes": counts.ConsecutiveSuccesses,
		"consecutive_failures":  counts.ConsecutiveFailures,
		"total_successes":       counts.TotalSuccesses,
		"total_failures":        counts.TotalFailures,
	}
}
