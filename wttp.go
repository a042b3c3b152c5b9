// Package wttp implements a content-addressable, permissioned resource
// protocol: paths resolve to versioned resources built from ordered
// content chunks, each governed by a content-addressed header that carries
// cache, per-method authorization and redirect policy. Nine request
// methods read or mutate this state under role-based access control.
package wttp

import (
	"fmt"
	"io"
	"os"

	"github.com/perma-web/wttp/internal/keyValStore"
	"github.com/perma-web/wttp/pkg/access"
	"github.com/perma-web/wttp/pkg/backup"
	"github.com/perma-web/wttp/pkg/datapoint"
	"github.com/perma-web/wttp/pkg/directory"
	"github.com/perma-web/wttp/pkg/headers"
	"github.com/perma-web/wttp/pkg/protocol"
	"github.com/perma-web/wttp/pkg/types"
)

// Site is the main protocol handle. It owns the key-value store and the
// lifecycle of the component chain behind the nine methods.
type Site struct {
	config     Config
	kv         *keyValStore.KeyValStore
	roles      access.RoleRegistry
	dataPoints *datapoint.Store
	headers    *headers.Registry
	directory  *directory.Directory
	dispatcher *protocol.Dispatcher
	backups    *backup.Manager
}

// NewSite opens (or creates) a site rooted at config.Paths[0].
func NewSite(config Config) (*Site, error) {
	config = config.withDefaults()

	if len(config.Paths) == 0 {
		return nil, fmt.Errorf("no data path configured")
	}
	if err := os.MkdirAll(config.Paths[0], 0o700); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", config.Paths[0], err)
	}

	kv, err := keyValStore.NewKeyValStore(keyValStore.StoreConfig{
		Paths:            config.Paths,
		MinimumFreeSpace: config.MinimumFreeGB,
		Logger:           config.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating KeyValStore: %w", err)
	}

	dps := datapoint.NewStore(kv, datapoint.StoreConfig{
		RoyaltyRate: config.RoyaltyRate,
		Logger:      config.Logger,
	})
	reg := headers.NewRegistry(kv, *config.DefaultHeader, config.Logger)
	dir := directory.NewDirectory(kv, dps, reg, config.Logger)
	auth := access.NewEngine(config.Roles, config.Logger)

	return &Site{
		config:     config,
		kv:         kv,
		roles:      config.Roles,
		dataPoints: dps,
		headers:    reg,
		directory:  dir,
		dispatcher: protocol.NewDispatcher(kv, dir, dps, reg, auth, config.Logger),
		backups:    backup.NewManager(kv, config.Logger),
	}, nil
}

func (s *Site) Close() {
	s.kv.Close()
}

// The nine protocol methods.

func (s *Site) Options(req protocol.OptionsRequest) (protocol.OptionsResponse, error) {
	return s.dispatcher.Options(req)
}

func (s *Site) Head(req protocol.HeadRequest) (protocol.HeadResponse, error) {
	return s.dispatcher.Head(req)
}

func (s *Site) Get(req protocol.GetRequest) (protocol.GetResponse, error) {
	return s.dispatcher.Get(req)
}

func (s *Site) Put(req protocol.PutRequest) (protocol.WriteResponse, error) {
	return s.dispatcher.Put(req)
}

func (s *Site) Patch(req protocol.PatchRequest) (protocol.WriteResponse, error) {
	return s.dispatcher.Patch(req)
}

func (s *Site) Delete(req protocol.DeleteRequest) (protocol.DeleteResponse, error) {
	return s.dispatcher.Delete(req)
}

func (s *Site) Define(req protocol.DefineRequest) (protocol.DefineResponse, error) {
	return s.dispatcher.Define(req)
}

func (s *Site) Locate(req protocol.LocateRequest) (protocol.LocateResponse, error) {
	return s.dispatcher.Locate(req)
}

// Roles exposes the role registry the site was built with. When the site
// owns an in-process registry, this is where grants happen.
func (s *Site) Roles() access.RoleRegistry {
	return s.roles
}

// DataPoints exposes the content store, for royalty previews and balance
// queries.
func (s *Site) DataPoints() *datapoint.Store {
	return s.dataPoints
}

// Headers exposes the header registry.
func (s *Site) Headers() *headers.Registry {
	return s.headers
}

// ReadMetadata is a convenience read outside the protocol surface.
func (s *Site) ReadMetadata(path string) (types.ResourceMetadata, error) {
	return s.directory.ReadMetadata(path)
}

// Backup writes the full site state to w.
func (s *Site) Backup(w io.Writer) error {
	return s.backups.Backup(w)
}

// Restore loads a backup into this (empty) site.
func (s *Site) Restore(r io.Reader) error {
	return s.backups.Restore(r)
}
