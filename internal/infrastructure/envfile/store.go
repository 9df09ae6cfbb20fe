package envfile

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Keys persisted by the provisioning flow.
const (
	KeyAPIKey           = "CIRCLE_API_KEY"
	KeyEntitySecret     = "CIRCLE_ENTITY_SECRET"
	KeyWalletSetID      = "CIRCLE_WALLET_SET_ID"
	KeyWalletID         = "CIRCLE_WALLET_ID"
	KeyWalletAddress    = "CIRCLE_WALLET_ADDRESS"
	KeyWalletBlockchain = "CIRCLE_WALLET_BLOCKCHAIN"
)

// Store is a flat key=value configuration store backed by a dotenv file.
// Values written through Set survive a reload unchanged. Concurrent runs are
// not guarded against; the file is rewritten in place on every Set.
type Store struct {
	path string
}

// NewStore creates a store for the given dotenv file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads all key=value pairs. A missing file yields an empty map.
func (s *Store) Load() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", s.path, err)
	}
	return values, nil
}

// Get returns the value for key, empty when absent.
func (s *Store) Get(key string) (string, error) {
	values, err := s.Load()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

// Set upserts a single key and rewrites the file.
func (s *Store) Set(key, value string) error {
	return s.SetAll(map[string]string{key: value})
}

// SetAll upserts several keys at once and rewrites the file.
func (s *Store) SetAll(updates map[string]string) error {
	values, err := s.Load()
	if err != nil {
		return err
	}
	for k, v := range updates {
		values[k] = v
	}
	if err := godotenv.Write(values, s.path); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", s.path, err)
	}
	return nil
}
