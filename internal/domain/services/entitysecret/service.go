package entitysecret

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const secretLength = 32 // raw bytes; hex form is 64 characters

// Service handles entity secret generation and encryption for Circle API
// requests. Circle rejects ciphertext reuse, so every mutating request gets
// a freshly encrypted ciphertext of the same secret.
type Service struct {
	logger *zap.Logger
}

// NewService creates a new entity secret service
func NewService(logger *zap.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// GenerateSecret produces a new random 32-byte entity secret, hex encoded.
func (s *Service) GenerateSecret() (string, error) {
	secret := make([]byte, secretLength)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to generate entity secret: %w", err)
	}
	return hex.EncodeToString(secret), nil
}

// Encrypt encrypts the hex-encoded entity secret against the entity's RSA
// public key and returns the base64 ciphertext Circle expects.
func (s *Service) Encrypt(entitySecretHex, publicKeyPEM string) (string, error) {
	entitySecret, err := hex.DecodeString(entitySecretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode entity secret: %w", err)
	}
	if len(entitySecret) != secretLength {
		return "", fmt.Errorf("invalid entity secret length; must be %d bytes", secretLength)
	}

	pubKey, err := s.parseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return "", fmt.Errorf("failed to parse public key: %w", err)
	}

	cipher, err := s.encryptOAEP(pubKey, entitySecret)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt entity secret: %w", err)
	}

	ciphertext := base64.StdEncoding.EncodeToString(cipher)

	s.logger.Debug("Generated entity secret ciphertext",
		zap.Int("ciphertext_length", len(ciphertext)))

	return ciphertext, nil
}

// NewCipher binds the secret and public key into a Cipher that mints a fresh
// ciphertext per call.
func (s *Service) NewCipher(entitySecretHex, publicKeyPEM string) (*Cipher, error) {
	// Validate eagerly so provisioning fails before any wallet call.
	if _, err := s.Encrypt(entitySecretHex, publicKeyPEM); err != nil {
		return nil, err
	}
	return &Cipher{
		service:      s,
		entitySecret: entitySecretHex,
		publicKeyPEM: publicKeyPEM,
	}, nil
}

// Cipher produces entity secret ciphertexts for a fixed secret and key.
type Cipher struct {
	service      *Service
	entitySecret string
	publicKeyPEM string
}

// Ciphertext returns a freshly encrypted entity secret ciphertext.
func (c *Cipher) Ciphertext() (string, error) {
	return c.service.Encrypt(c.entitySecret, c.publicKeyPEM)
}

// parseRSAPublicKeyFromPEM parses an RSA public key from PEM format.
func (s *Service) parseRSAPublicKeyFromPEM(pubPEM []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pubPEM)
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("unable to parse public key DER: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("key type parsed is not RSA")
	}
	return rsaPub, nil
}

// encryptOAEP performs RSA-OAEP encryption using SHA-256.
func (s *Service) encryptOAEP(pubKey *rsa.PublicKey, message []byte) ([]byte, error) {
	random := rand.Reader
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), random, pubKey, message, nil)
	if err != nil {
		return nil, fmt.Errorf("rsa.EncryptOAEP failed: %w", err)
	}
	return ciphertext, nil
}
