package directory

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/perma-web/wttp/pkg/types"
)

var etagEncMode cbor.EncMode

func init() {
	var err error
	etagEncMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("directory: building canonical CBOR mode: %v", err))
	}
}

// etagInput pins down exactly which fields participate in the fingerprint.
type etagInput struct {
	Properties   types.ResourceProperties `cbor:"1,keyasint"`
	Size         uint64                   `cbor:"2,keyasint"`
	Version      uint64                   `cbor:"3,keyasint"`
	LastModified int64                    `cbor:"4,keyasint"`
	Chunks       []types.Address          `cbor:"5,keyasint"`
}

// ETag fingerprints a resource's metadata and chunk list. It is always
// recomputed from current state; nothing caches it, so it can never go
// stale.
func ETag(meta types.ResourceMetadata, chunks []types.Address) types.ETag {
	raw, err := etagEncMode.Marshal(etagInput{
		Properties:   meta.Properties,
		Size:         meta.Size,
		Version:      meta.Version,
		LastModified: meta.LastModified,
		Chunks:       chunks,
	})
	if err != nil {
		// The input is a closed struct of encodable fields; a marshal
		// failure here is a programming error.
		panic(fmt.Sprintf("directory: encoding etag input: %v", err))
	}
	return blake3.Sum256(raw)
}

// ETagOf computes the fingerprint straight from a record.
func ETagOf(res Resource) types.ETag {
	return ETag(res.Metadata(), res.Chunks)
}
