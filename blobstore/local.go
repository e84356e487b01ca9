package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Local implements Store using the local file system.
type Local struct {
	root     string
	mapped   bool
	writable bool
}

// LocalOption configures a Local store.
type LocalOption func(*Local)

// WithMapped makes Open return memory-mapped blobs. Mapped blobs support
// zero-copy access via Mappable.
func WithMapped() LocalOption {
	return func(s *Local) { s.mapped = true }
}

// WithWritable makes Open return blobs that also satisfy WriterAt. Mapped
// blobs stay read-only regardless.
func WithWritable() LocalOption {
	return func(s *Local) { s.writable = true }
}

// NewLocal creates a Local store rooted at the given directory.
func NewLocal(root string, optFns ...LocalOption) *Local {
	s := &Local{root: root}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Open opens a blob for reading.
func (s *Local) Open(_ context.Context, name string) (Blob, error) {
	path := filepath.Join(s.root, name)
	if s.mapped {
		return openMapped(path)
	}

	flag := os.O_RDONLY
	if s.writable {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileBlob{f: f, size: info.Size()}, nil
}

// Put writes a blob atomically via a temp file and rename.
func (s *Local) Put(_ context.Context, name string, data []byte) error {
	path := filepath.Join(s.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// fileBlob implements Blob over an open file descriptor.
type fileBlob struct {
	f    *os.File
	size int64
}

func (b *fileBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off >= b.size {
		return 0, io.EOF
	}
	return b.f.ReadAt(p, off)
}

func (b *fileBlob) WriteAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := b.f.WriteAt(p, off)
	if end := off + int64(n); end > b.size {
		b.size = end
	}
	return n, err
}

func (b *fileBlob) Size() int64 { return b.size }

func (b *fileBlob) Close() error { return b.f.Close() }
