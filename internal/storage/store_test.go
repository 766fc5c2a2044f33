package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir(), zap.NewNop())

	store.Save(DomainCart, payload{Name: "mug", Count: 3})

	var got payload
	require.True(t, store.Load(DomainCart, &got))
	assert.Equal(t, payload{Name: "mug", Count: 3}, got)
}

func TestFileStoreSurvivesReload(t *testing.T) {
	dir := t.TempDir()

	NewFileStore(dir, zap.NewNop()).Save(DomainCart, payload{Name: "pen", Count: 1})

	// A fresh store over the same directory, like a process restart.
	var got payload
	require.True(t, NewFileStore(dir, zap.NewNop()).Load(DomainCart, &got))
	assert.Equal(t, "pen", got.Name)
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(t.TempDir(), zap.NewNop())

	var got payload
	assert.False(t, store.Load(DomainCheckout, &got))
	assert.Zero(t, got)
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, zap.NewNop())

	require.NoError(t, os.WriteFile(filepath.Join(dir, string(DomainCart)+".json"), []byte("{{{{"), 0o600))

	var got payload
	assert.False(t, store.Load(DomainCart, &got), "corrupt slot reads as empty, no panic")
}

func TestFileStoreClear(t *testing.T) {
	store := NewFileStore(t.TempDir(), zap.NewNop())
	store.Save(DomainAuthTokens, payload{Name: "x"})

	store.Clear(DomainAuthTokens)
	var got payload
	assert.False(t, store.Load(DomainAuthTokens, &got))

	// Clearing an absent slot is a no-op.
	store.Clear(DomainAuthTokens)
}

func TestFileStoreDomainsAreIndependent(t *testing.T) {
	store := NewFileStore(t.TempDir(), zap.NewNop())
	store.Save(DomainCart, payload{Name: "cart"})
	store.Save(DomainCheckout, payload{Name: "draft"})

	store.Clear(DomainCart)

	var got payload
	assert.False(t, store.Load(DomainCart, &got))
	require.True(t, store.Load(DomainCheckout, &got))
	assert.Equal(t, "draft", got.Name)
}

func TestFileStoreUnwritableDirIsSilent(t *testing.T) {
	// A path that cannot be a directory: persistence silently disabled,
	// nothing panics or errors.
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	store := NewFileStore(filepath.Join(file, "nested"), zap.NewNop())
	store.Save(DomainCart, payload{Name: "mug"})

	var got payload
	assert.False(t, store.Load(DomainCart, &got))
}

func TestMemStoreCorrupt(t *testing.T) {
	store := NewMemStore()
	store.Corrupt(DomainCart, []byte("garbage"))

	var got payload
	assert.False(t, store.Load(DomainCart, &got))
}
