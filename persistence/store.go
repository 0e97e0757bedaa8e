package persistence

import (
	"bytes"
	"context"

	"github.com/hupe1980/vicbf/blobstore"
)

// SaveToStore encodes snap as a snapshot envelope and writes it to the
// named blob.
func SaveToStore(ctx context.Context, store blobstore.BlobStore, name string, snap *Snapshot, comp Compression) error {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, snap, comp); err != nil {
		return err
	}
	return store.Put(ctx, name, buf.Bytes())
}

// LoadFromStore reads and decodes a snapshot envelope from the named blob.
func LoadFromStore(ctx context.Context, store blobstore.BlobStore, name string) (*Snapshot, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return ReadSnapshot(bytes.NewReader(data))
}
