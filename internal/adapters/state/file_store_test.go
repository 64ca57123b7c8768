package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/core"
)

func TestFileStoreCreatesEmptyFileOnFirstLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guard", "address-ips.json")
	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)

	history, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "address-ips.json")
	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)

	history := core.IPHistory{
		"a@inst.edu": {"203.0.113.9", "198.51.100.4"},
		"b@inst.edu": {"192.0.2.1"},
	}
	require.NoError(t, store.Save(context.Background(), history))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, history, loaded)
}

func TestFileStoreHistoryOnlyGrows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "address-ips.json")
	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)

	history, err := store.Load(context.Background())
	require.NoError(t, err)

	history.Add("a@inst.edu", "203.0.113.9")
	require.NoError(t, store.Save(context.Background(), history))

	history, err = store.Load(context.Background())
	require.NoError(t, err)
	history.Add("a@inst.edu", "203.0.113.9") // duplicate, no-op
	history.Add("a@inst.edu", "198.51.100.4")
	require.NoError(t, store.Save(context.Background(), history))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"203.0.113.9", "198.51.100.4"}, loaded["a@inst.edu"])
}
