package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalOptions configures the filesystem backend.
type LocalOptions struct {
	// Dir is the root directory; each bucket is a subdirectory.
	Dir string
}

// LocalAdapter stores objects as plain files under a root directory.
// Keys are flat file names; separators and dot segments are rejected.
type LocalAdapter struct {
	root *os.Root
}

// NewLocal opens (creating if needed) the root directory.
func NewLocal(opts LocalOptions) (*LocalAdapter, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	return &LocalAdapter{root: root}, nil
}

func objectPath(bucket, key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", ErrInvalidKey
	}
	if bucket == "" {
		return key, nil
	}
	if strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", ErrInvalidKey
	}
	return path.Join(bucket, key), nil
}

// PutObject writes to a temporary file and renames it into place.
func (l *LocalAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	name, err := objectPath(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	if bucket != "" {
		if err := l.root.Mkdir(bucket, 0o750); err != nil && !errors.Is(err, fs.ErrExist) {
			return ObjectInfo{}, err
		}
	}

	var suffix [6]byte
	//nolint:errcheck // crypto/rand.Read never fails
	_, _ = rand.Read(suffix[:])
	tmp := name + ".tmp-" + hex.EncodeToString(suffix[:])

	f, err := l.root.Create(tmp)
	if err != nil {
		return ObjectInfo{}, err
	}
	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		//nolint:errcheck // best effort cleanup
		_ = l.root.Remove(tmp)
		return ObjectInfo{}, err
	}
	if err := l.root.Rename(tmp, name); err != nil {
		//nolint:errcheck // best effort cleanup
		_ = l.root.Remove(tmp)
		return ObjectInfo{}, err
	}

	return l.StatObject(ctx, bucket, key)
}

// GetObject opens the stored file.
func (l *LocalAdapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := l.StatObject(ctx, bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	name, _ := objectPath(bucket, key)
	f, err := l.root.Open(name)
	if err != nil {
		return nil, ObjectInfo{}, mapFSError(err)
	}
	return f, info, nil
}

// StatObject returns file metadata; the content type is derived from the extension.
func (l *LocalAdapter) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	name, err := objectPath(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	st, err := l.root.Stat(name)
	if err != nil {
		return ObjectInfo{}, mapFSError(err)
	}
	if st.IsDir() {
		return ObjectInfo{}, ErrObjectNotFound
	}

	ct := mime.TypeByExtension(filepath.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        st.Size(),
		ContentType: ct,
		UpdatedAt:   st.ModTime(),
	}, nil
}

// DeleteObject removes the file if present.
func (l *LocalAdapter) DeleteObject(ctx context.Context, bucket, key string) error {
	name, err := objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Close releases the root directory handle.
func (l *LocalAdapter) Close() error {
	return l.root.Close()
}

func mapFSError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return errors.Join(ErrObjectNotFound, err)
	}
	return err
}
