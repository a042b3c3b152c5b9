package datapoint_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perma-web/wttp/internal/testutil"
	"github.com/perma-web/wttp/pkg/datapoint"
	"github.com/perma-web/wttp/pkg/logging"
	"github.com/perma-web/wttp/pkg/types"
)

func newTestStore(t testing.TB, royaltyRate uint64) *datapoint.Store {
	t.Helper()
	return datapoint.NewStore(testutil.NewKV(t), datapoint.StoreConfig{
		RoyaltyRate: royaltyRate,
		Logger:      logging.NewTestLogger(),
	})
}

func TestRegisterAndRead_RoundTrip(t *testing.T) {
	s := newTestStore(t, 1)
	publisher := types.AccountFromString("alice")

	data := []byte("Hello, WTTP!")
	addr, charged, err := s.Register(data, publisher, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), charged, "first registration is free")
	assert.Equal(t, s.CalculateAddress(data), addr)

	got, err := s.Read(addr)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	size, err := s.Size(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)), size)
}

func TestRegister_EmptyDataFails(t *testing.T) {
	s := newTestStore(t, 1)

	_, _, err := s.Register(nil, types.AccountFromString("alice"), 0)
	assert.Error(t, err)
}

func TestRegister_DedupRequiresRoyalty(t *testing.T) {
	s := newTestStore(t, 2)
	alice := types.AccountFromString("alice")
	bob := types.AccountFromString("bob")

	data := []byte("shared content")
	addr, _, err := s.Register(data, alice, 0)
	require.NoError(t, err)

	royalty, err := s.Royalty(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data))*2, royalty)

	// A different publisher without payment fails.
	_, _, err = s.Register(data, bob, royalty-1)
	assert.True(t, errors.Is(err, types.ErrInsufficientPayment), "got %v", err)

	// With sufficient payment the royalty is charged and credited.
	addr2, charged, err := s.Register(data, bob, royalty)
	require.NoError(t, err)
	assert.Equal(t, addr, addr2, "dedup must return the same address")
	assert.Equal(t, royalty, charged)

	balance, err := s.Balance(alice)
	require.NoError(t, err)
	assert.Equal(t, royalty, balance)
}

func TestRegister_OriginalPublisherIsFree(t *testing.T) {
	s := newTestStore(t, 5)
	alice := types.AccountFromString("alice")

	data := []byte("alice's content")
	addr, _, err := s.Register(data, alice, 0)
	require.NoError(t, err)

	addr2, charged, err := s.Register(data, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, addr, addr2)
	assert.Equal(t, uint64(0), charged)
}

func TestRead_UnknownAddress(t *testing.T) {
	s := newTestStore(t, 1)

	_, err := s.Read(types.AddressOf([]byte("never registered")))
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)
}

func TestPublisher(t *testing.T) {
	s := newTestStore(t, 1)
	alice := types.AccountFromString("alice")

	addr, _, err := s.Register([]byte("abc"), alice, 0)
	require.NoError(t, err)

	publisher, err := s.Publisher(addr)
	require.NoError(t, err)
	assert.Equal(t, alice, publisher)
}
