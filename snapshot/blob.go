package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/sharedcomp"
	"github.com/hupe1980/sharedcomp/blobstore"
)

// SaveBlob writes a snapshot of s to the blob called name. The blob only
// becomes visible once the snapshot is complete; on error the partial write
// is aborted.
func SaveBlob(ctx context.Context, bs blobstore.BlobStore, name string, s *sharedcomp.Store, opts ...Option) (Stats, error) {
	w, err := bs.Create(ctx, name)
	if err != nil {
		return Stats{}, err
	}

	stats, err := Save(ctx, w, s, opts...)
	if err != nil {
		_ = blobstore.Abort(w)
		return Stats{}, err
	}
	if err := w.Close(); err != nil {
		return Stats{}, fmt.Errorf("commit %s: %w", name, err)
	}
	return stats, nil
}

// LoadBlob loads the snapshot stored in the blob called name into dst.
func LoadBlob(ctx context.Context, bs blobstore.BlobStore, name string, dst *sharedcomp.Store, opts ...Option) (sharedcomp.Remap, error) {
	b, err := bs.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	r, err := b.ReadRange(ctx, 0, b.Size())
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s is empty", ErrCorrupt, name)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return Load(ctx, r, dst, opts...)
}
