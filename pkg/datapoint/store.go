// Package datapoint implements the content-addressed data point store: an
// append-only arena of immutable byte blobs keyed by the SHA-512 of their
// content. Re-registering content that already exists charges a royalty
// that is credited to the original publisher.
//
// Payloads are zstd-compressed at rest; the content address is always
// computed over the uncompressed bytes, so compression never leaks into
// protocol state.
package datapoint

import (
	"bytes"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"

	"github.com/perma-web/wttp/internal/keyValStore"
	"github.com/perma-web/wttp/pkg/types"
)

// Meta is the bookkeeping stored next to each blob.
type Meta struct {
	Publisher types.Account `cbor:"1,keyasint"`
	Size      uint64        `cbor:"2,keyasint"`
	Royalty   uint64        `cbor:"3,keyasint"`
}

type StoreConfig struct {
	// RoyaltyRate is charged per byte when content that already exists is
	// re-registered by a different publisher.
	RoyaltyRate uint64
	Logger      *logrus.Logger
}

type Store struct {
	kv     *keyValStore.KeyValStore
	config StoreConfig
	log    *logrus.Logger
}

func NewStore(kv *keyValStore.KeyValStore, config StoreConfig) *Store {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	return &Store{
		kv:     kv,
		config: config,
		log:    config.Logger,
	}
}

// CalculateAddress is the pure address function: SHA-512 of the raw bytes.
func (s *Store) CalculateAddress(data []byte) types.Address {
	return types.AddressOf(data)
}

// RegisterTxn registers a data point inside the caller's transaction.
//
// First registration stores the blob and records the publisher; no royalty
// is charged. Re-registration by the original publisher is free.
// Re-registration by anyone else requires payment >= the data point's
// royalty; the royalty is credited to the original publisher's balance.
// The returned charged amount lets callers compute change.
func (s *Store) RegisterTxn(txn *badger.Txn, data []byte, publisher types.Account, payment uint64) (types.Address, uint64, error) {
	if len(data) == 0 {
		return types.Address{}, 0, fmt.Errorf("cannot register an empty data point")
	}

	addr := s.CalculateAddress(data)
	metaKey := dataPointMetaKey(addr)

	item, err := txn.Get(metaKey)
	if err == badger.ErrKeyNotFound {
		meta := Meta{
			Publisher: publisher,
			Size:      uint64(len(data)),
			Royalty:   uint64(len(data)) * s.config.RoyaltyRate,
		}
		if err := s.writeDataPoint(txn, addr, data, meta); err != nil {
			return types.Address{}, 0, err
		}
		s.log.WithFields(logrus.Fields{
			"address": addr.String(),
			"size":    meta.Size,
		}).Debug("registered new data point")
		return addr, 0, nil
	}
	if err != nil {
		return types.Address{}, 0, fmt.Errorf("error looking up data point %s: %w", addr, err)
	}

	var meta Meta
	if err := unmarshalMetaItem(item, &meta); err != nil {
		return types.Address{}, 0, err
	}

	// Existing content. The original publisher re-registers for free.
	if meta.Publisher == publisher {
		return addr, 0, nil
	}

	if payment < meta.Royalty {
		return types.Address{}, 0, fmt.Errorf(
			"data point %s requires royalty %d, got %d: %w",
			addr, meta.Royalty, payment, types.ErrInsufficientPayment)
	}

	if err := s.creditBalanceTxn(txn, meta.Publisher, meta.Royalty); err != nil {
		return types.Address{}, 0, err
	}

	return addr, meta.Royalty, nil
}

// Register is the single-call convenience wrapper around RegisterTxn.
func (s *Store) Register(data []byte, publisher types.Account, payment uint64) (types.Address, uint64, error) {
	var addr types.Address
	var charged uint64
	err := s.kv.Update(func(txn *badger.Txn) error {
		var err error
		addr, charged, err = s.RegisterTxn(txn, data, publisher, payment)
		return err
	})
	return addr, charged, err
}

func (s *Store) writeDataPoint(txn *badger.Txn, addr types.Address, data []byte, meta Meta) error {
	compressed, err := compressZstd(data)
	if err != nil {
		return fmt.Errorf("error compressing data point %s: %w", addr, err)
	}

	metaBytes, err := cbor.Marshal(meta)
	if err != nil {
		return fmt.Errorf("error encoding data point meta %s: %w", addr, err)
	}

	if err := txn.Set(dataPointKey(addr), compressed); err != nil {
		return fmt.Errorf("error writing data point %s: %w", addr, err)
	}
	if err := txn.Set(dataPointMetaKey(addr), metaBytes); err != nil {
		return fmt.Errorf("error writing data point meta %s: %w", addr, err)
	}
	return nil
}

// Read returns the raw bytes of a data point.
func (s *Store) Read(addr types.Address) ([]byte, error) {
	var data []byte
	err := s.kv.View(func(txn *badger.Txn) error {
		var err error
		data, err = s.ReadTxn(txn, addr)
		return err
	})
	return data, err
}

// ReadTxn reads a data point inside an existing transaction.
func (s *Store) ReadTxn(txn *badger.Txn, addr types.Address) ([]byte, error) {
	item, err := txn.Get(dataPointKey(addr))
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("data point %s: %w", addr, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading data point %s: %w", addr, err)
	}

	compressed, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	data, err := decompressZstd(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing data point %s: %w", addr, err)
	}
	return data, nil
}

// Size returns the uncompressed size of a data point.
func (s *Store) Size(addr types.Address) (uint64, error) {
	var size uint64
	err := s.kv.View(func(txn *badger.Txn) error {
		var err error
		size, err = s.SizeTxn(txn, addr)
		return err
	})
	return size, err
}

func (s *Store) SizeTxn(txn *badger.Txn, addr types.Address) (uint64, error) {
	meta, err := s.metaTxn(txn, addr)
	if err != nil {
		return 0, err
	}
	return meta.Size, nil
}

// Royalty returns the payment a non-original publisher must supply to
// re-register the data point.
func (s *Store) Royalty(addr types.Address) (uint64, error) {
	var royalty uint64
	err := s.kv.View(func(txn *badger.Txn) error {
		meta, err := s.metaTxn(txn, addr)
		if err != nil {
			return err
		}
		royalty = meta.Royalty
		return nil
	})
	return royalty, err
}

// Publisher returns the account that first registered the data point.
func (s *Store) Publisher(addr types.Address) (types.Account, error) {
	var publisher types.Account
	err := s.kv.View(func(txn *badger.Txn) error {
		meta, err := s.metaTxn(txn, addr)
		if err != nil {
			return err
		}
		publisher = meta.Publisher
		return nil
	})
	return publisher, err
}

func (s *Store) metaTxn(txn *badger.Txn, addr types.Address) (Meta, error) {
	item, err := txn.Get(dataPointMetaKey(addr))
	if err == badger.ErrKeyNotFound {
		return Meta{}, fmt.Errorf("data point %s: %w", addr, types.ErrNotFound)
	}
	if err != nil {
		return Meta{}, fmt.Errorf("error reading data point meta %s: %w", addr, err)
	}

	var meta Meta
	if err := unmarshalMetaItem(item, &meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

func unmarshalMetaItem(item *badger.Item, meta *Meta) error {
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	if err := cbor.Unmarshal(raw, meta); err != nil {
		return fmt.Errorf("error decoding data point meta: %w", err)
	}
	return nil
}

func dataPointKey(addr types.Address) []byte {
	return append(append([]byte{}, keyValStore.PrefixDataPoint...), addr[:]...)
}

func dataPointMetaKey(addr types.Address) []byte {
	return append(append([]byte{}, keyValStore.PrefixDataPointMeta...), addr[:]...)
}

func compressZstd(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	_, err = enc.Write(data)
	if err != nil {
		enc.Close()
		return nil, err
	}
	err = enc.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(dec)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
