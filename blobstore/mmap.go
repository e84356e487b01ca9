package blobstore

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// openMapped memory-maps the file at path. The mapping is read-only and
// shared; it is the most efficient option for random-access read patterns
// over large array files.
func openMapped(path string) (Blob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		return &mappedBlob{f: f}, nil
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &mappedBlob{f: f, m: m}, nil
}

// mappedBlob implements Blob and Mappable over a memory mapping.
type mappedBlob struct {
	mu sync.Mutex
	f  *os.File
	m  mmap.MMap
}

func (b *mappedBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= int64(len(b.m)) {
		return 0, io.EOF
	}
	n := copy(p, b.m[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *mappedBlob) Size() int64 { return int64(len(b.m)) }

func (b *mappedBlob) Bytes() ([]byte, error) { return b.m, nil }

func (b *mappedBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.m != nil {
		err = b.m.Unmap()
		b.m = nil
	}
	if cerr := b.f.Close(); err == nil {
		err = cerr
	}
	return err
}
