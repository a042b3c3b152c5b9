package directory_test

import (
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perma-web/wttp/internal/keyValStore"
	"github.com/perma-web/wttp/internal/testutil"
	"github.com/perma-web/wttp/pkg/datapoint"
	"github.com/perma-web/wttp/pkg/directory"
	"github.com/perma-web/wttp/pkg/headers"
	"github.com/perma-web/wttp/pkg/logging"
	"github.com/perma-web/wttp/pkg/types"
)

type fixture struct {
	kv  *keyValStore.KeyValStore
	dir *directory.Directory
}

func newFixture(t testing.TB) *fixture {
	t.Helper()

	kv := testutil.NewKV(t)
	log := logging.NewTestLogger()
	dps := datapoint.NewStore(kv, datapoint.StoreConfig{RoyaltyRate: 1, Logger: log})
	reg := headers.NewRegistry(kv, types.HeaderInfo{}, log)

	return &fixture{
		kv:  kv,
		dir: directory.NewDirectory(kv, dps, reg, log),
	}
}

func (f *fixture) writeChunks(t testing.TB, path string, writes []directory.ChunkWrite, mode directory.WriteMode) (directory.WriteResult, error) {
	t.Helper()
	var result directory.WriteResult
	err := f.kv.Update(func(txn *badger.Txn) error {
		var err error
		result, err = f.dir.WriteChunksTxn(txn, path, types.AccountFromString("publisher"), 0, writes, mode)
		return err
	})
	return result, err
}

func chunk(index int, data string) directory.ChunkWrite {
	return directory.ChunkWrite{Index: index, Data: []byte(data)}
}

func TestWriteChunks_ReplaceCreates(t *testing.T) {
	f := newFixture(t)

	result, err := f.writeChunks(t, "/hello", []directory.ChunkWrite{chunk(0, "Hello, WTTP!")}, directory.Replace)
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, uint64(12), result.Metadata.Size)
	assert.Equal(t, uint64(1), result.Metadata.Version)
	assert.Len(t, result.Chunks, 1)

	exists, err := f.dir.Exists("/hello")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWriteChunks_ReplaceDropsOldChunks(t *testing.T) {
	f := newFixture(t)

	_, err := f.writeChunks(t, "/p", []directory.ChunkWrite{chunk(0, "one"), chunk(1, "two")}, directory.Replace)
	require.NoError(t, err)

	result, err := f.writeChunks(t, "/p", []directory.ChunkWrite{chunk(0, "solo")}, directory.Replace)
	require.NoError(t, err)

	assert.False(t, result.Created)
	assert.Len(t, result.Chunks, 1)
	assert.Equal(t, uint64(4), result.Metadata.Size)
	assert.Equal(t, uint64(2), result.Metadata.Version)
}

func TestWriteChunks_AppendBound(t *testing.T) {
	f := newFixture(t)

	_, err := f.writeChunks(t, "/p", []directory.ChunkWrite{chunk(0, "first")}, directory.Replace)
	require.NoError(t, err)

	// index == length appends.
	result, err := f.writeChunks(t, "/p", []directory.ChunkWrite{chunk(1, "second")}, directory.Append)
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 2)
	assert.Equal(t, uint64(len("first")+len("second")), result.Metadata.Size)

	// index == length+1 fails and leaves the resource unchanged.
	_, err = f.writeChunks(t, "/p", []directory.ChunkWrite{chunk(3, "gap")}, directory.Append)
	assert.True(t, errors.Is(err, types.ErrRangeNotSatisfiable), "got %v", err)

	meta, err := f.dir.ReadMetadata("/p")
	require.NoError(t, err)
	assert.Equal(t, 2, meta.ChunkCount)
	assert.Equal(t, uint64(2), meta.Version)
}

func TestWriteChunks_AppendReplacesInPlace(t *testing.T) {
	f := newFixture(t)

	_, err := f.writeChunks(t, "/p", []directory.ChunkWrite{chunk(0, "aaa"), chunk(1, "bbb")}, directory.Replace)
	require.NoError(t, err)

	result, err := f.writeChunks(t, "/p", []directory.ChunkWrite{chunk(0, "cc")}, directory.Append)
	require.NoError(t, err)

	assert.Len(t, result.Chunks, 2)
	assert.Equal(t, uint64(len("cc")+len("bbb")), result.Metadata.Size)
}

func TestWriteChunks_EmptyInputIsNoOp(t *testing.T) {
	f := newFixture(t)

	_, err := f.writeChunks(t, "/p", []directory.ChunkWrite{chunk(0, "data")}, directory.Replace)
	require.NoError(t, err)

	result, err := f.writeChunks(t, "/p", nil, directory.Replace)
	require.NoError(t, err)
	assert.True(t, result.NoOp)
	assert.Equal(t, uint64(1), result.Metadata.Version, "no-op must not bump the version")
}

func TestVersion_MonotonicAcrossLifecycle(t *testing.T) {
	f := newFixture(t)
	var last uint64

	bump := func(step string, version uint64) {
		if version <= last {
			t.Fatalf("%s: version %d not greater than %d", step, version, last)
		}
		last = version
	}

	result, err := f.writeChunks(t, "/v", []directory.ChunkWrite{chunk(0, "a")}, directory.Replace)
	require.NoError(t, err)
	bump("put", result.Metadata.Version)

	result, err = f.writeChunks(t, "/v", []directory.ChunkWrite{chunk(1, "b")}, directory.Append)
	require.NoError(t, err)
	bump("patch", result.Metadata.Version)

	err = f.kv.Update(func(txn *badger.Txn) error {
		meta, err := f.dir.DeleteTxn(txn, "/v")
		if err != nil {
			return err
		}
		bump("delete", meta.Version)
		return nil
	})
	require.NoError(t, err)

	// Re-creation after delete continues the counter, it never resets.
	result, err = f.writeChunks(t, "/v", []directory.ChunkWrite{chunk(0, "c")}, directory.Replace)
	require.NoError(t, err)
	bump("re-put", result.Metadata.Version)
	assert.True(t, result.Created, "a deleted path counts as newly created")
}

func TestDelete_ClearsContentAndHeader(t *testing.T) {
	f := newFixture(t)

	_, err := f.writeChunks(t, "/d", []directory.ChunkWrite{chunk(0, "data")}, directory.Replace)
	require.NoError(t, err)

	err = f.kv.Update(func(txn *badger.Txn) error {
		_, _, err := f.dir.DefineHeaderTxn(txn, "/d", types.HeaderInfo{
			CORS: types.CORSPolicy{Methods: types.AllMethods, Origins: types.PublicOrigins()},
		})
		return err
	})
	require.NoError(t, err)

	err = f.kv.Update(func(txn *badger.Txn) error {
		_, err := f.dir.DeleteTxn(txn, "/d")
		return err
	})
	require.NoError(t, err)

	exists, err := f.dir.Exists("/d")
	require.NoError(t, err)
	assert.False(t, exists)

	meta, err := f.dir.ReadMetadata("/d")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), meta.Size)
	assert.True(t, meta.HeaderAddress.IsZero())
}

func TestDelete_Missing(t *testing.T) {
	f := newFixture(t)

	err := f.kv.Update(func(txn *badger.Txn) error {
		_, err := f.dir.DeleteTxn(txn, "/nothing")
		return err
	})
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)
}

func TestDefineHeader_BeforeContent(t *testing.T) {
	f := newFixture(t)

	var created bool
	err := f.kv.Update(func(txn *badger.Txn) error {
		var err error
		_, created, err = f.dir.DefineHeaderTxn(txn, "/new-path", types.HeaderInfo{
			CORS: types.CORSPolicy{Methods: types.AllMethods, Origins: types.PublicOrigins()},
		})
		return err
	})
	require.NoError(t, err)
	assert.True(t, created)

	exists, err := f.dir.Exists("/new-path")
	require.NoError(t, err)
	assert.True(t, exists, "a defined header makes the path exist even with size 0")

	meta, err := f.dir.ReadMetadata("/new-path")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), meta.Size)
	assert.Equal(t, uint64(1), meta.Version)
	assert.False(t, meta.HeaderAddress.IsZero())
}

func TestReadMetadata_UnknownPathIsZero(t *testing.T) {
	f := newFixture(t)

	meta, err := f.dir.ReadMetadata("/ghost")
	require.NoError(t, err)
	assert.Equal(t, types.ResourceMetadata{}, meta)
}

func TestDistinctPathStringsAreDistinctKeys(t *testing.T) {
	f := newFixture(t)

	_, err := f.writeChunks(t, "/a", []directory.ChunkWrite{chunk(0, "file")}, directory.Replace)
	require.NoError(t, err)

	exists, err := f.dir.Exists("/a/")
	require.NoError(t, err)
	assert.False(t, exists, "no normalization: /a and /a/ are different resources")
}

func TestETag_TracksState(t *testing.T) {
	f := newFixture(t)

	r1, err := f.writeChunks(t, "/e", []directory.ChunkWrite{chunk(0, "v1")}, directory.Replace)
	require.NoError(t, err)
	e1 := directory.ETag(r1.Metadata, r1.Chunks)

	// Recomputation over the same state is stable.
	assert.Equal(t, e1, directory.ETag(r1.Metadata, r1.Chunks))

	r2, err := f.writeChunks(t, "/e", []directory.ChunkWrite{chunk(0, "v2")}, directory.Replace)
	require.NoError(t, err)
	e2 := directory.ETag(r2.Metadata, r2.Chunks)

	assert.NotEqual(t, e1, e2, "etag must change when content changes")
}
