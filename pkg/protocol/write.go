package protocol

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/perma-web/wttp/pkg/directory"
	"github.com/perma-web/wttp/pkg/types"
)

type PutRequest struct {
	Path       string
	Caller     types.Account
	Properties types.ResourceProperties
	// Data is the new content, one element per chunk, chunk 0 first. The
	// whole prior chunk list is replaced.
	Data [][]byte
	// Value is the payment supplied for royalties.
	Value uint64
}

type WriteResponse struct {
	Status           types.StatusCode
	Metadata         types.ResourceMetadata
	ETag             types.ETag
	Charged          uint64
	Change           uint64
	RedirectLocation string
}

// Put replaces a resource's content wholesale. Empty data is a success
// no-op (204). 201 when the call brought the resource into existence,
// else 200.
func (d *Dispatcher) Put(req PutRequest) (WriteResponse, error) {
	var resp WriteResponse
	err := d.kv.Update(func(txn *badger.Txn) error {
		res, _, redirect, err := d.gate(txn, req.Path, types.MethodPut, req.Caller)
		if err != nil {
			return err
		}
		if redirect != nil {
			resp = WriteResponse{
				Status:           redirect.Status,
				Metadata:         redirect.Metadata,
				RedirectLocation: redirect.RedirectLocation,
			}
			return nil
		}

		if len(req.Data) == 0 {
			resp = WriteResponse{
				Status:   types.StatusNoContent,
				Metadata: res.Metadata(),
				Change:   req.Value,
			}
			return nil
		}

		if err := d.dir.SetPropertiesTxn(txn, req.Path, req.Properties); err != nil {
			return err
		}

		writes := make([]directory.ChunkWrite, len(req.Data))
		for i, data := range req.Data {
			writes[i] = directory.ChunkWrite{Index: i, Data: data}
		}

		result, err := d.dir.WriteChunksTxn(txn, req.Path, req.Caller, req.Value, writes, directory.Replace)
		if err != nil {
			return err
		}

		status := types.StatusOK
		if result.Created {
			status = types.StatusCreated
		}
		resp = WriteResponse{
			Status:   status,
			Metadata: result.Metadata,
			ETag:     directory.ETag(result.Metadata, result.Chunks),
			Charged:  result.Charged,
			Change:   req.Value - result.Charged,
		}
		return nil
	})
	if err != nil {
		return WriteResponse{Status: statusOf(err)}, err
	}
	return resp, nil
}

type PatchRequest struct {
	Path   string
	Caller types.Account
	// Chunks are (index, bytes) pairs. index == current length appends,
	// index < current length replaces that chunk, anything beyond fails
	// the whole call.
	Chunks []directory.ChunkWrite
	Value  uint64
}

// Patch appends to or edits the chunk list of an existing resource. The
// partial-update success code is 206.
func (d *Dispatcher) Patch(req PatchRequest) (WriteResponse, error) {
	var resp WriteResponse
	err := d.kv.Update(func(txn *badger.Txn) error {
		res, _, redirect, err := d.gate(txn, req.Path, types.MethodPatch, req.Caller)
		if err != nil {
			return err
		}
		if redirect != nil {
			resp = WriteResponse{
				Status:           redirect.Status,
				Metadata:         redirect.Metadata,
				RedirectLocation: redirect.RedirectLocation,
			}
			return nil
		}

		if !res.Exists() {
			return fmt.Errorf("patch %q: %w", req.Path, types.ErrNotFound)
		}

		if len(req.Chunks) == 0 {
			resp = WriteResponse{
				Status:   types.StatusNoContent,
				Metadata: res.Metadata(),
				Change:   req.Value,
			}
			return nil
		}

		result, err := d.dir.WriteChunksTxn(txn, req.Path, req.Caller, req.Value, req.Chunks, directory.Append)
		if err != nil {
			return err
		}

		resp = WriteResponse{
			Status:   types.StatusPartialContent,
			Metadata: result.Metadata,
			ETag:     directory.ETag(result.Metadata, result.Chunks),
			Charged:  result.Charged,
			Change:   req.Value - result.Charged,
		}
		return nil
	})
	if err != nil {
		return WriteResponse{Status: statusOf(err)}, err
	}
	return resp, nil
}

type DeleteRequest struct {
	Path   string
	Caller types.Account
}

type DeleteResponse struct {
	Status           types.StatusCode
	Header           types.HeaderInfo // the site default; the path's header pointer is cleared
	Metadata         types.ResourceMetadata
	RedirectLocation string
}

// Delete clears a resource's content, properties and header pointer. The
// path's version counter survives so it never resets.
func (d *Dispatcher) Delete(req DeleteRequest) (DeleteResponse, error) {
	var resp DeleteResponse
	err := d.kv.Update(func(txn *badger.Txn) error {
		res, _, redirect, err := d.gate(txn, req.Path, types.MethodDelete, req.Caller)
		if err != nil {
			return err
		}
		if redirect != nil {
			resp = DeleteResponse{
				Status:           redirect.Status,
				Header:           redirect.Header,
				Metadata:         redirect.Metadata,
				RedirectLocation: redirect.RedirectLocation,
			}
			return nil
		}

		if !res.Exists() {
			return fmt.Errorf("delete %q: %w", req.Path, types.ErrNotFound)
		}

		meta, err := d.dir.DeleteTxn(txn, req.Path)
		if err != nil {
			return err
		}

		resp = DeleteResponse{
			Status:   types.StatusNoContent,
			Header:   d.reg.Default(),
			Metadata: meta,
		}
		return nil
	})
	if err != nil {
		return DeleteResponse{Status: statusOf(err)}, err
	}
	return resp, nil
}

type DefineRequest struct {
	Path   string
	Caller types.Account
	Header types.HeaderInfo
}

type DefineResponse struct {
	Status           types.StatusCode
	HeaderAddress    types.Address
	Metadata         types.ResourceMetadata
	RedirectLocation string
}

// Define attaches a header to a path, creating the resource record if
// none exists yet. Headers can precede content: a DEFINE-then-PUT and a
// PUT-then-DEFINE converge on the same record.
func (d *Dispatcher) Define(req DefineRequest) (DefineResponse, error) {
	var resp DefineResponse
	err := d.kv.Update(func(txn *badger.Txn) error {
		_, _, redirect, err := d.gate(txn, req.Path, types.MethodDefine, req.Caller)
		if err != nil {
			return err
		}
		if redirect != nil {
			resp = DefineResponse{
				Status:           redirect.Status,
				Metadata:         redirect.Metadata,
				RedirectLocation: redirect.RedirectLocation,
			}
			return nil
		}

		addr, created, err := d.dir.DefineHeaderTxn(txn, req.Path, req.Header)
		if err != nil {
			return err
		}

		res, err := d.dir.GetTxn(txn, req.Path)
		if err != nil {
			return err
		}

		status := types.StatusOK
		if created {
			status = types.StatusCreated
		}
		resp = DefineResponse{
			Status:        status,
			HeaderAddress: addr,
			Metadata:      res.Metadata(),
		}
		return nil
	})
	if err != nil {
		return DefineResponse{Status: statusOf(err)}, err
	}
	return resp, nil
}
