// Package headers implements the content-addressed header registry.
// Identical headers dedup to the same address; headers are never edited in
// place. A policy change stores a new header and repoints the resource.
package headers

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/sirupsen/logrus"

	"github.com/perma-web/wttp/internal/keyValStore"
	"github.com/perma-web/wttp/pkg/types"
)

// encMode is CBOR in canonical form. Content addressing demands that the
// same header always encodes to the same bytes, so the default
// (non-deterministic map order) mode is not an option here.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("headers: building canonical CBOR mode: %v", err))
	}
}

type Registry struct {
	kv            *keyValStore.KeyValStore
	defaultHeader types.HeaderInfo
	log           *logrus.Logger
}

// NewRegistry builds a registry bound to the site's default header. The
// default is fixed for the site's lifetime; paths with no defined header
// resolve to it.
func NewRegistry(kv *keyValStore.KeyValStore, defaultHeader types.HeaderInfo, log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
	}
	return &Registry{
		kv:            kv,
		defaultHeader: defaultHeader,
		log:           log,
	}
}

// CanonicalEncode returns the deterministic byte form of a header, the
// input of its content address.
func CanonicalEncode(h types.HeaderInfo) ([]byte, error) {
	raw, err := encMode.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("error encoding header: %w", err)
	}
	return raw, nil
}

// AddressOf computes the content address of a header without storing it.
func AddressOf(h types.HeaderInfo) (types.Address, error) {
	raw, err := CanonicalEncode(h)
	if err != nil {
		return types.Address{}, err
	}
	return types.AddressOf(raw), nil
}

// CreateOrGetTxn stores the header if it is unseen and returns its
// address. Storing the same header twice is free and returns the same
// address both times.
func (r *Registry) CreateOrGetTxn(txn *badger.Txn, h types.HeaderInfo) (types.Address, error) {
	raw, err := CanonicalEncode(h)
	if err != nil {
		return types.Address{}, err
	}
	addr := types.AddressOf(raw)
	key := headerKey(addr)

	_, err = txn.Get(key)
	if err == nil {
		return addr, nil
	}
	if err != badger.ErrKeyNotFound {
		return types.Address{}, fmt.Errorf("error looking up header %s: %w", addr, err)
	}

	if err := txn.Set(key, raw); err != nil {
		return types.Address{}, fmt.Errorf("error storing header %s: %w", addr, err)
	}
	r.log.WithFields(logrus.Fields{
		"address": addr.String(),
	}).Debug("stored new header")
	return addr, nil
}

// CreateOrGet is the single-call wrapper around CreateOrGetTxn.
func (r *Registry) CreateOrGet(h types.HeaderInfo) (types.Address, error) {
	var addr types.Address
	err := r.kv.Update(func(txn *badger.Txn) error {
		var err error
		addr, err = r.CreateOrGetTxn(txn, h)
		return err
	})
	return addr, err
}

// GetTxn loads a stored header by address.
func (r *Registry) GetTxn(txn *badger.Txn, addr types.Address) (types.HeaderInfo, error) {
	item, err := txn.Get(headerKey(addr))
	if err == badger.ErrKeyNotFound {
		return types.HeaderInfo{}, fmt.Errorf("header %s: %w", addr, types.ErrNotFound)
	}
	if err != nil {
		return types.HeaderInfo{}, fmt.Errorf("error reading header %s: %w", addr, err)
	}

	raw, err := item.ValueCopy(nil)
	if err != nil {
		return types.HeaderInfo{}, err
	}

	var h types.HeaderInfo
	if err := cbor.Unmarshal(raw, &h); err != nil {
		return types.HeaderInfo{}, fmt.Errorf("error decoding header %s: %w", addr, err)
	}
	return h, nil
}

func (r *Registry) Get(addr types.Address) (types.HeaderInfo, error) {
	var h types.HeaderInfo
	err := r.kv.View(func(txn *badger.Txn) error {
		var err error
		h, err = r.GetTxn(txn, addr)
		return err
	})
	return h, err
}

// ResolveTxn returns the header a resource is governed by: its own header
// when the address is set, else the site default.
func (r *Registry) ResolveTxn(txn *badger.Txn, addr types.Address) (types.HeaderInfo, error) {
	if addr.IsZero() {
		return r.defaultHeader, nil
	}
	return r.GetTxn(txn, addr)
}

func (r *Registry) Resolve(addr types.Address) (types.HeaderInfo, error) {
	var h types.HeaderInfo
	err := r.kv.View(func(txn *badger.Txn) error {
		var err error
		h, err = r.ResolveTxn(txn, addr)
		return err
	})
	return h, err
}

// Default returns the site default header.
func (r *Registry) Default() types.HeaderInfo {
	return r.defaultHeader
}

func headerKey(addr types.Address) []byte {
	return append(append([]byte{}, keyValStore.PrefixHeader...), addr[:]...)
}
