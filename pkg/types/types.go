package types

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

// Address is the content address of a data point or header: the SHA-512
// hash of its canonical byte representation.
type Address [64]byte

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero reports whether the address is unset. The zero address is never a
// valid content address because it is reserved as the "no header" marker on
// resources.
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a *Address) FromBytes(b []byte) error {
	if len(b) != 64 {
		return fmt.Errorf("invalid byte length for Address: %d", len(b))
	}
	copy(a[:], b)
	return nil
}

// AddressOf computes the content address of raw bytes.
func AddressOf(data []byte) Address {
	return sha512.Sum512(data)
}

// Account identifies a caller or publisher. Accounts are opaque to the
// protocol core; role membership and royalty balances are keyed by them.
type Account [32]byte

func (acc Account) String() string {
	return hex.EncodeToString(acc[:])
}

// AccountFromString derives a deterministic account id from a readable
// name. Meant for tooling and tests; production callers carry real ids.
func AccountFromString(name string) Account {
	h := sha512.Sum512([]byte(name))
	var acc Account
	copy(acc[:], h[:32])
	return acc
}

// Role is an opaque authorization role identifier.
type Role [32]byte

func (r Role) String() string {
	return hex.EncodeToString(r[:])
}

// PublicRole is satisfied by any caller, even one holding no roles at all.
var PublicRole = Role{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// SuperAdminRole bypasses per-method origin and method-bitmask checks.
// It does not bypass the immutable-resource check on mutation.
var SuperAdminRole = Role{}

// RoleFromString derives a role id from a readable name, for site setup
// and tests.
func RoleFromString(name string) Role {
	h := sha512.Sum512([]byte(name))
	var r Role
	copy(r[:], h[:32])
	return r
}

// ETag is a fingerprint of a resource's metadata and chunk list. It is
// always recomputed from current state, never stored.
type ETag [32]byte

func (e ETag) String() string {
	return hex.EncodeToString(e[:])
}

func (e ETag) IsZero() bool {
	return e == ETag{}
}

// ResourceProperties describe the content of a resource, mirroring the
// usual entity headers.
type ResourceProperties struct {
	MimeType string
	Charset  string
	Encoding string
	Language string
}

// ResourceMetadata is the mutable bookkeeping of a resource, as returned
// by metadata reads. A path that was never written returns the zero value.
type ResourceMetadata struct {
	Properties    ResourceProperties
	Size          uint64
	Version       uint64
	LastModified  int64 // unix timestamp in ms
	ChunkCount    int
	HeaderAddress Address
}

// Exists reports whether the resource counts as existing for protocol
// purposes: it has content or an explicitly defined header.
func (m ResourceMetadata) Exists() bool {
	return m.Size > 0 || !m.HeaderAddress.IsZero()
}
