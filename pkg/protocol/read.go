package protocol

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/perma-web/wttp/pkg/directory"
	"github.com/perma-web/wttp/pkg/types"
)

type OptionsRequest struct {
	Path   string
	Caller types.Account
}

type OptionsResponse struct {
	Status           types.StatusCode
	Allow            types.MethodBitmask
	RedirectLocation string
}

// Options reports the allowed-method bitmask of the governing header. It
// succeeds on absent paths, answering with the site default policy.
func (d *Dispatcher) Options(req OptionsRequest) (OptionsResponse, error) {
	var resp OptionsResponse
	err := d.kv.View(func(txn *badger.Txn) error {
		_, header, redirect, err := d.gate(txn, req.Path, types.MethodOptions, req.Caller)
		if err != nil {
			return err
		}
		if redirect != nil {
			resp = OptionsResponse{
				Status:           redirect.Status,
				Allow:            redirect.Header.CORS.Methods,
				RedirectLocation: redirect.RedirectLocation,
			}
			return nil
		}

		resp = OptionsResponse{
			Status: types.StatusNoContent,
			Allow:  header.CORS.Methods,
		}
		return nil
	})
	if err != nil {
		return OptionsResponse{Status: statusOf(err)}, err
	}
	return resp, nil
}

type HeadRequest struct {
	Path        string
	Caller      types.Account
	Conditional Conditional
}

// Head returns resource metadata without content. 304 when the
// conditional fields match, 404 when the path has no live resource and no
// redirecting header.
func (d *Dispatcher) Head(req HeadRequest) (HeadResponse, error) {
	var resp HeadResponse
	err := d.kv.View(func(txn *badger.Txn) error {
		var err error
		resp, _, err = d.headTxn(txn, req, types.MethodHead)
		return err
	})
	if err != nil {
		return HeadResponse{Status: statusOf(err)}, err
	}
	return resp, nil
}

// headTxn is the shared read gate of HEAD, GET and LOCATE. Each caller
// authorizes its own method; the record is handed back so the range
// readers do not re-fetch it.
func (d *Dispatcher) headTxn(txn *badger.Txn, req HeadRequest, method types.Method) (HeadResponse, directory.Resource, error) {
	res, header, redirect, err := d.gate(txn, req.Path, method, req.Caller)
	if err != nil {
		return HeadResponse{}, directory.Resource{}, err
	}
	if redirect != nil {
		return *redirect, res, nil
	}

	if !res.Exists() {
		return HeadResponse{}, directory.Resource{}, fmt.Errorf("head %q: %w", req.Path, types.ErrNotFound)
	}

	etag := directory.ETagOf(res)
	meta := res.Metadata()

	if !req.Conditional.IfNoneMatch.IsZero() && req.Conditional.IfNoneMatch == etag {
		return HeadResponse{
			Status:   types.StatusNotModified,
			Header:   header,
			Metadata: meta,
			ETag:     etag,
		}, res, nil
	}
	if req.Conditional.IfModifiedSince != 0 && req.Conditional.IfModifiedSince >= meta.LastModified {
		return HeadResponse{
			Status:   types.StatusNotModified,
			Header:   header,
			Metadata: meta,
			ETag:     etag,
		}, res, nil
	}

	return HeadResponse{
		Status:   types.StatusOK,
		Header:   header,
		Metadata: meta,
		ETag:     etag,
	}, res, nil
}

type GetRequest struct {
	Path        string
	Caller      types.Account
	Conditional Conditional
	RangeChunks Range
}

type GetResponse struct {
	Head HeadResponse
	// Range is the normalized chunk range the body covers.
	Range Range
	// Body is the concatenated payload of the chunks in range.
	Body []byte
}

// Get reads content. A full-range read answers 200, anything narrower
// 206; the authorization gate is HEAD's.
func (d *Dispatcher) Get(req GetRequest) (GetResponse, error) {
	var resp GetResponse
	err := d.kv.View(func(txn *badger.Txn) error {
		head, res, err := d.headTxn(txn, HeadRequest{
			Path:        req.Path,
			Caller:      req.Caller,
			Conditional: req.Conditional,
		}, types.MethodGet)
		if err != nil {
			return err
		}
		if head.Status != types.StatusOK {
			resp = GetResponse{Head: head}
			return nil
		}

		start, end, full, err := normalizeRange(req.RangeChunks, int64(len(res.Chunks)))
		if err != nil {
			return fmt.Errorf("get %q: %w", req.Path, err)
		}

		var body []byte
		for i := start; i <= end; i++ {
			data, err := d.dps.ReadTxn(txn, res.Chunks[i])
			if err != nil {
				return err
			}
			body = append(body, data...)
		}

		if !full {
			head.Status = types.StatusPartialContent
		}
		resp = GetResponse{
			Head:  head,
			Range: Range{Start: start, End: end},
			Body:  body,
		}
		return nil
	})
	if err != nil {
		return GetResponse{Head: HeadResponse{Status: statusOf(err)}}, err
	}
	return resp, nil
}

type LocateRequest struct {
	Path        string
	Caller      types.Account
	RangeChunks Range
}

type LocateResponse struct {
	Head HeadResponse
	// Range is the normalized chunk range the list covers.
	Range Range
	// Chunks are the content addresses (with sizes) in chunk order.
	Chunks []ChunkInfo
}

// Locate is the address-shaped sibling of Get: the same range-read gate,
// answering with chunk addresses instead of bytes.
func (d *Dispatcher) Locate(req LocateRequest) (LocateResponse, error) {
	var resp LocateResponse
	err := d.kv.View(func(txn *badger.Txn) error {
		head, res, err := d.headTxn(txn, HeadRequest{
			Path:   req.Path,
			Caller: req.Caller,
		}, types.MethodLocate)
		if err != nil {
			return err
		}
		if head.Status != types.StatusOK {
			resp = LocateResponse{Head: head}
			return nil
		}

		start, end, full, err := normalizeRange(req.RangeChunks, int64(len(res.Chunks)))
		if err != nil {
			return fmt.Errorf("locate %q: %w", req.Path, err)
		}

		chunks := make([]ChunkInfo, 0, end-start+1)
		for i := start; i <= end; i++ {
			size, err := d.dps.SizeTxn(txn, res.Chunks[i])
			if err != nil {
				return err
			}
			chunks = append(chunks, ChunkInfo{Address: res.Chunks[i], Size: size})
		}

		if !full {
			head.Status = types.StatusPartialContent
		}
		resp = LocateResponse{
			Head:   head,
			Range:  Range{Start: start, End: end},
			Chunks: chunks,
		}
		return nil
	})
	if err != nil {
		return LocateResponse{Head: HeadResponse{Status: statusOf(err)}}, err
	}
	return resp, nil
}
