// Package protocol implements the nine-method dispatcher. Every call is a
// single atomic transition: mutating methods run inside one badger Update
// transaction, so any failure anywhere in the chain rolls the whole call
// back.
package protocol

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/perma-web/wttp/internal/keyValStore"
	"github.com/perma-web/wttp/pkg/access"
	"github.com/perma-web/wttp/pkg/datapoint"
	"github.com/perma-web/wttp/pkg/directory"
	"github.com/perma-web/wttp/pkg/headers"
	"github.com/perma-web/wttp/pkg/types"
)

type Dispatcher struct {
	kv   *keyValStore.KeyValStore
	dir  *directory.Directory
	dps  *datapoint.Store
	reg  *headers.Registry
	auth *access.Engine
	log  *logrus.Logger
}

func NewDispatcher(
	kv *keyValStore.KeyValStore,
	dir *directory.Directory,
	dps *datapoint.Store,
	reg *headers.Registry,
	auth *access.Engine,
	log *logrus.Logger,
) *Dispatcher {
	if log == nil {
		log = logrus.New()
	}
	return &Dispatcher{
		kv:   kv,
		dir:  dir,
		dps:  dps,
		reg:  reg,
		auth: auth,
		log:  log,
	}
}

// Range selects chunks of a resource. The zero value means "the whole
// resource"; negative bounds index from the end, -1 being the last chunk.
type Range struct {
	Start int64
	End   int64
}

// IsFull reports the whole-resource sentinel.
func (r Range) IsFull() bool {
	return r.Start == 0 && r.End == 0
}

// ChunkInfo is one entry of a LOCATE response: the chunk's content address
// and its size, in chunk order.
type ChunkInfo struct {
	Address types.Address
	Size    uint64
}

// Conditional carries the conditional-request fields of HEAD and GET.
type Conditional struct {
	IfNoneMatch     types.ETag
	IfModifiedSince int64 // unix ms, 0 means unconditional
}

// HeadResponse is the metadata view shared by HEAD, GET and LOCATE.
type HeadResponse struct {
	Status           types.StatusCode
	Header           types.HeaderInfo
	Metadata         types.ResourceMetadata
	ETag             types.ETag
	RedirectLocation string
}

// gate resolves the record and its governing header, applies the redirect
// short-circuit and the authorization check. A non-nil response means the
// call is already decided (redirect); a non-nil error carries the refusal.
func (d *Dispatcher) gate(txn *badger.Txn, path string, method types.Method, caller types.Account) (directory.Resource, types.HeaderInfo, *HeadResponse, error) {
	res, err := d.dir.GetTxn(txn, path)
	if err != nil {
		return directory.Resource{}, types.HeaderInfo{}, nil, err
	}

	header, err := d.reg.ResolveTxn(txn, res.HeaderAddress)
	if err != nil {
		return directory.Resource{}, types.HeaderInfo{}, nil, err
	}

	// A redirecting header decides the call before anything else, even on
	// paths with no content.
	if header.Redirect.Code != 0 {
		return res, header, &HeadResponse{
			Status:           types.StatusCode(header.Redirect.Code),
			Header:           header,
			Metadata:         res.Metadata(),
			RedirectLocation: header.Redirect.Location,
		}, nil
	}

	if err := d.auth.Authorize(header, method, caller); err != nil {
		return directory.Resource{}, types.HeaderInfo{}, nil, err
	}

	return res, header, nil, nil
}

// normalizeRange maps a request range onto [0, n) chunk indices.
func normalizeRange(r Range, n int64) (start, end int64, full bool, err error) {
	if r.IsFull() {
		if n == 0 {
			return 0, -1, true, nil
		}
		return 0, n - 1, true, nil
	}

	start, end = r.Start, r.End
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}

	if start < 0 || end < start || end >= n {
		return 0, 0, false, types.ErrRangeNotSatisfiable
	}
	return start, end, start == 0 && end == n-1, nil
}

func statusOf(err error) types.StatusCode {
	return types.StatusFor(err)
}
