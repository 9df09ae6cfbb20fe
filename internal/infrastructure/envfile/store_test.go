package envfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	return NewStore(filepath.Join(t.TempDir(), ".env"))
}

func TestStore_MissingFileYieldsEmpty(t *testing.T) {
	store := newTestStore(t)

	values, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, values)

	value, err := store.Get(KeyAPIKey)
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestStore_SetRoundTrips(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set(KeyWalletSetID, "ws-123"))

	value, err := store.Get(KeyWalletSetID)
	require.NoError(t, err)
	assert.Equal(t, "ws-123", value)

	// Reload through a fresh store to prove persistence.
	reloaded, err := NewStore(store.Path()).Load()
	require.NoError(t, err)
	assert.Equal(t, "ws-123", reloaded[KeyWalletSetID])
}

func TestStore_SetPreservesOtherKeys(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set(KeyAPIKey, "TEST_API_KEY:abc:def"))
	require.NoError(t, store.Set(KeyEntitySecret, "deadbeef"))
	require.NoError(t, store.Set(KeyEntitySecret, "cafebabe")) // overwrite

	values, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "TEST_API_KEY:abc:def", values[KeyAPIKey])
	assert.Equal(t, "cafebabe", values[KeyEntitySecret])
}

func TestStore_SetAll(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set(KeyWalletSetID, "ws-123"))
	require.NoError(t, store.SetAll(map[string]string{
		KeyWalletID:         "w-1",
		KeyWalletAddress:    "0xabc",
		KeyWalletBlockchain: "ETH-SEPOLIA",
	}))

	values, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "ws-123", values[KeyWalletSetID])
	assert.Equal(t, "w-1", values[KeyWalletID])
	assert.Equal(t, "0xabc", values[KeyWalletAddress])
	assert.Equal(t, "ETH-SEPOLIA", values[KeyWalletBlockchain])
}
