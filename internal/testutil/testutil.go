package testutil

import (
	"flag"
	"testing"

	"github.com/perma-web/wttp/internal/keyValStore"
	"github.com/perma-web/wttp/pkg/logging"
)

var RunLong = flag.Bool("long", false, "run long/heavy tests")

func RequireLong(t *testing.T) {
	t.Helper()
	if !*RunLong {
		t.Skip("skipping long test (use -long to enable)")
	}
}

func IsLongEnabled() bool {
	return *RunLong
}

// NewKV opens a throwaway badger store under t.TempDir(), closed on
// cleanup.
func NewKV(t testing.TB) *keyValStore.KeyValStore {
	t.Helper()

	kv, err := keyValStore.NewKeyValStore(keyValStore.StoreConfig{
		Paths:            []string{t.TempDir()},
		MinimumFreeSpace: 1,
		Logger:           logging.NewTestLogger(),
	})
	if err != nil {
		t.Fatalf("NewKeyValStore failed with error: %v", err)
	}
	t.Cleanup(kv.Close)
	return kv
}
