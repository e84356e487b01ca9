package diskarray

import (
	"context"

	"github.com/hupe1980/larray/blobstore"
	"github.com/hupe1980/larray/internal/binenc"
	"github.com/hupe1980/larray/nd"
)

// Array is a file-backed N-d array. All blob access runs under the
// configured lock, so arrays backed by shared files can coordinate across
// goroutines or processes.
type Array struct {
	blob     blobstore.Blob
	lock     blobstore.Locker
	dtype    nd.DType
	shape    []int
	strides  []int
	elemSize int
	dataOff  int64
}

// ArrayOption configures an Array.
type ArrayOption func(*Array)

// WithLock sets the lock held during blob access. Defaults to no locking.
func WithLock(l blobstore.Locker) ArrayOption {
	return func(a *Array) { a.lock = l }
}

// Open opens the array stored under name.
func Open(ctx context.Context, store blobstore.Store, name string, optFns ...ArrayOption) (*Array, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	a, err := FromBlob(ctx, blob, optFns...)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	return a, nil
}

// FromBlob reads the header of an already-open blob. The Array takes
// ownership of the blob.
func FromBlob(ctx context.Context, blob blobstore.Blob, optFns ...ArrayOption) (*Array, error) {
	a := &Array{blob: blob, lock: blobstore.NoopLock{}}
	for _, fn := range optFns {
		fn(a)
	}
	a.lock = blobstore.EnsureLock(a.lock)

	release, err := a.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(ctx, blob)
	release()
	if err != nil {
		return nil, err
	}

	a.dtype = h.dtype
	a.shape = h.shape
	a.strides = nd.Strides(h.shape)
	a.dataOff = h.dataOff
	a.elemSize, err = binenc.ElemSize(h.dtype)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create serializes arr into store under name. The result can be opened with
// Open.
func Create(ctx context.Context, store blobstore.Putter, name string, arr *nd.Array) error {
	head, err := encodeHeader(arr.DType(), arr.Shape())
	if err != nil {
		return err
	}
	data, err := binenc.EncodeArray(arr)
	if err != nil {
		return err
	}
	out := make([]byte, 0, len(head)+len(data))
	out = append(out, head...)
	out = append(out, data...)
	return store.Put(ctx, name, out)
}

// Shape returns the array shape.
func (a *Array) Shape() []int {
	out := make([]int, len(a.shape))
	copy(out, a.shape)
	return out
}

// NDim returns the number of axes.
func (a *Array) NDim() int { return len(a.shape) }

// DType returns the element type.
func (a *Array) DType() nd.DType { return a.dtype }

// Close releases the underlying blob.
func (a *Array) Close() error { return a.blob.Close() }

// Read assembles the orthogonal selection given by one position list per
// axis. Positions must already be normalized to [0, extent).
func (a *Array) Read(ctx context.Context, perAxis [][]int) (*nd.Array, error) {
	outShape := make([]int, len(perAxis))
	for d, pos := range perAxis {
		outShape[d] = len(pos)
	}
	out := nd.Zeros(a.dtype, outShape...)
	if out.Size() == 0 {
		return out, nil
	}

	release, err := a.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if len(perAxis) == 0 {
		// 0-d array: single element at the data offset
		return out, a.readInto(ctx, out, 0, 0, 1)
	}

	inner := len(perAxis) - 1
	runs := contiguousRuns(perAxis[inner])

	// iterate outer coordinates, one ranged read per inner run
	pick := make([]int, inner)
	outFlat := 0
	for {
		base := 0
		for d := 0; d < inner; d++ {
			base += perAxis[d][pick[d]] * a.strides[d]
		}
		for _, run := range runs {
			srcFlat := base + run.start*a.strides[inner]
			if err := a.readInto(ctx, out, outFlat, srcFlat, run.length); err != nil {
				return nil, err
			}
			outFlat += run.length
		}

		d := inner - 1
		for d >= 0 {
			pick[d]++
			if pick[d] < len(perAxis[d]) {
				break
			}
			pick[d] = 0
			d--
		}
		if d < 0 {
			return out, nil
		}
	}
}

// run is a maximal ascending step-1 stretch of positions.
type run struct {
	start  int
	length int
}

func contiguousRuns(positions []int) []run {
	var out []run
	for _, p := range positions {
		if n := len(out); n > 0 && out[n-1].start+out[n-1].length == p {
			out[n-1].length++
			continue
		}
		out = append(out, run{start: p, length: 1})
	}
	return out
}

// readInto reads length elements starting at source element srcFlat into out
// starting at output element outFlat.
func (a *Array) readInto(ctx context.Context, out *nd.Array, outFlat, srcFlat, length int) error {
	buf := make([]byte, length*a.elemSize)
	off := a.dataOff + int64(srcFlat*a.elemSize)
	if _, err := a.blob.ReadAt(ctx, buf, off); err != nil {
		return err
	}
	for i := 0; i < length; i++ {
		if err := out.SetFlatAt(outFlat+i, binenc.Elem(buf[i*a.elemSize:], a.dtype)); err != nil {
			return err
		}
	}
	return nil
}

// WriteBasic overwrites the elements selected by contiguous per-axis runs
// with value. It requires the underlying blob to be writable.
func (a *Array) WriteBasic(ctx context.Context, perAxis [][]int, value *nd.Array) error {
	w, ok := a.blob.(blobstore.WriterAt)
	if !ok {
		return errReadOnlyBlob
	}
	if value.DType() != a.dtype {
		return errValueDType
	}

	total := 1
	for _, pos := range perAxis {
		total *= len(pos)
	}
	if value.Size() != total && value.Size() != 1 {
		return errValueShape
	}

	release, err := a.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if len(perAxis) == 0 {
		v, err := value.FlatAt(0)
		if err != nil {
			return err
		}
		return a.writeOne(ctx, w, 0, v)
	}

	pick := make([]int, len(perAxis))
	valFlat := 0
	for {
		srcFlat := 0
		for d := range perAxis {
			srcFlat += perAxis[d][pick[d]] * a.strides[d]
		}
		vi := valFlat
		if value.Size() == 1 {
			vi = 0
		}
		v, err := value.FlatAt(vi)
		if err != nil {
			return err
		}
		if err := a.writeOne(ctx, w, srcFlat, v); err != nil {
			return err
		}
		valFlat++

		d := len(perAxis) - 1
		for d >= 0 {
			pick[d]++
			if pick[d] < len(perAxis[d]) {
				break
			}
			pick[d] = 0
			d--
		}
		if d < 0 {
			return nil
		}
	}
}

func (a *Array) writeOne(ctx context.Context, w blobstore.WriterAt, srcFlat int, v any) error {
	buf := make([]byte, a.elemSize)
	binenc.PutElem(buf, a.dtype, v)
	_, err := w.WriteAt(ctx, buf, a.dataOff+int64(srcFlat*a.elemSize))
	return err
}
