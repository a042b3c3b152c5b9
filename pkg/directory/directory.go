// Package directory owns the per-path resource records: header pointer,
// content properties, chunk list and the size/version bookkeeping. All
// mutation happens inside the caller's badger transaction so a protocol
// call either commits fully or not at all.
package directory

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/sirupsen/logrus"

	"github.com/perma-web/wttp/internal/keyValStore"
	"github.com/perma-web/wttp/pkg/headers"
	"github.com/perma-web/wttp/pkg/types"
)

// DataPointStore is the slice of the data point store the directory
// consumes.
type DataPointStore interface {
	RegisterTxn(txn *badger.Txn, data []byte, publisher types.Account, payment uint64) (types.Address, uint64, error)
	SizeTxn(txn *badger.Txn, addr types.Address) (uint64, error)
	ReadTxn(txn *badger.Txn, addr types.Address) ([]byte, error)
}

// Resource is the persisted per-path record. A record survives DELETE so
// the version counter never resets for a path.
type Resource struct {
	HeaderAddress types.Address            `cbor:"1,keyasint"`
	Properties    types.ResourceProperties `cbor:"2,keyasint"`
	Size          uint64                   `cbor:"3,keyasint"`
	Version       uint64                   `cbor:"4,keyasint"`
	LastModified  int64                    `cbor:"5,keyasint"` // unix ms
	Chunks        []types.Address          `cbor:"6,keyasint"`
}

// Metadata converts the record to its read-model form.
func (r Resource) Metadata() types.ResourceMetadata {
	return types.ResourceMetadata{
		Properties:    r.Properties,
		Size:          r.Size,
		Version:       r.Version,
		LastModified:  r.LastModified,
		ChunkCount:    len(r.Chunks),
		HeaderAddress: r.HeaderAddress,
	}
}

// Exists mirrors the protocol existence rule: content or a defined header.
func (r Resource) Exists() bool {
	return r.Size > 0 || !r.HeaderAddress.IsZero()
}

// WriteMode selects the chunk-list semantics of WriteChunksTxn.
type WriteMode uint8

const (
	// Replace rebuilds the chunk list from index 0 (PUT).
	Replace WriteMode = iota
	// Append grows or patches the list under the index bound rule (PATCH).
	Append
)

// ChunkWrite is one (index, bytes) pair of a write call. Index is ignored
// in Replace mode, where list order is the chunk order.
type ChunkWrite struct {
	Index int
	Data  []byte
}

// WriteResult reports what a chunk write did.
type WriteResult struct {
	Created  bool   // the path did not exist before this call
	NoOp     bool   // empty input, nothing changed
	Charged  uint64 // royalty paid out of the supplied value
	Metadata types.ResourceMetadata
	Chunks   []types.Address
}

type Directory struct {
	kv  *keyValStore.KeyValStore
	dps DataPointStore
	reg *headers.Registry
	log *logrus.Logger
}

func NewDirectory(kv *keyValStore.KeyValStore, dps DataPointStore, reg *headers.Registry, log *logrus.Logger) *Directory {
	if log == nil {
		log = logrus.New()
	}
	return &Directory{
		kv:  kv,
		dps: dps,
		reg: reg,
		log: log,
	}
}

// GetTxn loads the record for a path. Missing paths return the zero
// record, not an error; the zero record reports Exists() == false.
func (d *Directory) GetTxn(txn *badger.Txn, path string) (Resource, error) {
	item, err := txn.Get(resourceKey(path))
	if err == badger.ErrKeyNotFound {
		return Resource{}, nil
	}
	if err != nil {
		return Resource{}, fmt.Errorf("error reading resource %q: %w", path, err)
	}

	raw, err := item.ValueCopy(nil)
	if err != nil {
		return Resource{}, err
	}

	var res Resource
	if err := cbor.Unmarshal(raw, &res); err != nil {
		return Resource{}, fmt.Errorf("error decoding resource %q: %w", path, err)
	}
	return res, nil
}

func (d *Directory) putTxn(txn *badger.Txn, path string, res Resource) error {
	raw, err := cbor.Marshal(res)
	if err != nil {
		return fmt.Errorf("error encoding resource %q: %w", path, err)
	}
	if err := txn.Set(resourceKey(path), raw); err != nil {
		return fmt.Errorf("error writing resource %q: %w", path, err)
	}
	return nil
}

// Exists reports whether a path resolves to a live resource.
func (d *Directory) Exists(path string) (bool, error) {
	var exists bool
	err := d.kv.View(func(txn *badger.Txn) error {
		res, err := d.GetTxn(txn, path)
		if err != nil {
			return err
		}
		exists = res.Exists()
		return nil
	})
	return exists, err
}

// ReadMetadata returns zeroed metadata for unknown paths rather than
// failing, so HEAD-like probes stay cheap.
func (d *Directory) ReadMetadata(path string) (types.ResourceMetadata, error) {
	var meta types.ResourceMetadata
	err := d.kv.View(func(txn *badger.Txn) error {
		res, err := d.GetTxn(txn, path)
		if err != nil {
			return err
		}
		meta = res.Metadata()
		return nil
	})
	return meta, err
}

// WriteChunksTxn applies a chunk write in the given mode.
//
// Replace: the whole chunk list is rebuilt from index 0 out of the writes
// in input order. Append: each write's index must satisfy
// index <= len(chunks) — equal appends, lower replaces in place, higher
// fails the whole call with ErrRangeNotSatisfiable.
//
// An empty write list is a success no-op with no state change. Otherwise
// version is bumped exactly once, size is recomputed from the data point
// store, and LastModified is set to now.
func (d *Directory) WriteChunksTxn(txn *badger.Txn, path string, publisher types.Account, payment uint64, writes []ChunkWrite, mode WriteMode) (WriteResult, error) {
	res, err := d.GetTxn(txn, path)
	if err != nil {
		return WriteResult{}, err
	}

	created := !res.Exists()

	if len(writes) == 0 {
		return WriteResult{
			NoOp:     true,
			Metadata: res.Metadata(),
			Chunks:   append([]types.Address{}, res.Chunks...),
		}, nil
	}

	chunks := append([]types.Address{}, res.Chunks...)
	if mode == Replace {
		chunks = chunks[:0]
	}

	// Validate every index before registering anything, so a bad write
	// cannot charge royalties for its earlier chunks.
	if mode == Append {
		working := len(chunks)
		for _, w := range writes {
			if w.Index > working {
				return WriteResult{}, fmt.Errorf(
					"chunk index %d beyond length %d: %w",
					w.Index, working, types.ErrRangeNotSatisfiable)
			}
			if w.Index == working {
				working++
			}
		}
	}

	remaining := payment
	var charged uint64
	for _, w := range writes {
		addr, cost, err := d.dps.RegisterTxn(txn, w.Data, publisher, remaining)
		if err != nil {
			return WriteResult{}, err
		}
		remaining -= cost
		charged += cost

		if mode == Replace || w.Index == len(chunks) {
			chunks = append(chunks, addr)
		} else {
			chunks[w.Index] = addr
		}
	}

	var size uint64
	for _, addr := range chunks {
		chunkSize, err := d.dps.SizeTxn(txn, addr)
		if err != nil {
			return WriteResult{}, err
		}
		size += chunkSize
	}

	res.Chunks = chunks
	res.Size = size
	res.Version++
	res.LastModified = time.Now().UnixMilli()

	if err := d.putTxn(txn, path, res); err != nil {
		return WriteResult{}, err
	}

	d.log.WithFields(logrus.Fields{
		"path":    path,
		"chunks":  len(chunks),
		"size":    size,
		"version": res.Version,
	}).Debug("wrote chunks")

	return WriteResult{
		Created:  created,
		Charged:  charged,
		Metadata: res.Metadata(),
		Chunks:   append([]types.Address{}, chunks...),
	}, nil
}

// DeleteTxn clears content, properties and the header pointer. The record
// itself is kept so the version counter keeps increasing for the path's
// whole lifetime.
func (d *Directory) DeleteTxn(txn *badger.Txn, path string) (types.ResourceMetadata, error) {
	res, err := d.GetTxn(txn, path)
	if err != nil {
		return types.ResourceMetadata{}, err
	}
	if !res.Exists() {
		return types.ResourceMetadata{}, fmt.Errorf("delete %q: %w", path, types.ErrNotFound)
	}

	res.Chunks = nil
	res.Size = 0
	res.Properties = types.ResourceProperties{}
	res.HeaderAddress = types.Address{}
	res.Version++
	res.LastModified = time.Now().UnixMilli()

	if err := d.putTxn(txn, path, res); err != nil {
		return types.ResourceMetadata{}, err
	}
	return res.Metadata(), nil
}

// DefineHeaderTxn stores (or dedups) the header and points the path at it.
func (d *Directory) DefineHeaderTxn(txn *badger.Txn, path string, h types.HeaderInfo) (types.Address, bool, error) {
	res, err := d.GetTxn(txn, path)
	if err != nil {
		return types.Address{}, false, err
	}

	created := !res.Exists()

	addr, err := d.reg.CreateOrGetTxn(txn, h)
	if err != nil {
		return types.Address{}, false, err
	}

	res.HeaderAddress = addr
	res.Version++
	res.LastModified = time.Now().UnixMilli()

	if err := d.putTxn(txn, path, res); err != nil {
		return types.Address{}, false, err
	}

	d.log.WithFields(logrus.Fields{
		"path":    path,
		"header":  addr.String(),
		"version": res.Version,
	}).Debug("defined header")

	return addr, created, nil
}

// SetPropertiesTxn updates the content properties of an existing record as
// part of a write call. It does not bump the version on its own; callers
// combine it with a chunk write.
func (d *Directory) SetPropertiesTxn(txn *badger.Txn, path string, props types.ResourceProperties) error {
	res, err := d.GetTxn(txn, path)
	if err != nil {
		return err
	}
	res.Properties = props
	return d.putTxn(txn, path, res)
}

func resourceKey(path string) []byte {
	return append(append([]byte{}, keyValStore.PrefixResource...), []byte(path)...)
}
