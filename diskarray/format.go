package diskarray

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/larray/blobstore"
	"github.com/hupe1980/larray/internal/binenc"
	"github.com/hupe1980/larray/nd"
)

// Magic identifies the file format.
var Magic = [5]byte{'L', 'A', 'R', 'R', '1'}

// ErrBadFormat is returned when a blob is not a valid array file.
var ErrBadFormat = errors.New("not a valid array file")

const (
	dtypeBool    byte = 1
	dtypeInt64   byte = 2
	dtypeFloat64 byte = 3
	dtypeTime    byte = 4
)

func dtypeByte(dt nd.DType) (byte, error) {
	switch dt {
	case nd.Bool:
		return dtypeBool, nil
	case nd.Int64:
		return dtypeInt64, nil
	case nd.Float64:
		return dtypeFloat64, nil
	case nd.Time:
		return dtypeTime, nil
	default:
		return 0, fmt.Errorf("dtype %s has no file encoding", dt)
	}
}

func byteDType(b byte) (nd.DType, error) {
	switch b {
	case dtypeBool:
		return nd.Bool, nil
	case dtypeInt64:
		return nd.Int64, nil
	case dtypeFloat64:
		return nd.Float64, nil
	case dtypeTime:
		return nd.Time, nil
	default:
		return 0, fmt.Errorf("%w: unknown dtype byte %d", ErrBadFormat, b)
	}
}

// header is the decoded file header.
type header struct {
	dtype   nd.DType
	shape   []int
	dataOff int64
}

const fixedHeaderSize = len(Magic) + 2 // magic, dtype byte, rank byte

func encodeHeader(dt nd.DType, shape []int) ([]byte, error) {
	db, err := dtypeByte(dt)
	if err != nil {
		return nil, err
	}
	if len(shape) > 255 {
		return nil, fmt.Errorf("rank %d exceeds format limit", len(shape))
	}
	out := make([]byte, fixedHeaderSize+8*len(shape))
	copy(out, Magic[:])
	out[len(Magic)] = db
	out[len(Magic)+1] = byte(len(shape))
	for i, s := range shape {
		binary.LittleEndian.PutUint64(out[fixedHeaderSize+8*i:], uint64(s))
	}
	return out, nil
}

func readHeader(ctx context.Context, blob blobstore.Blob) (*header, error) {
	fixed := make([]byte, fixedHeaderSize)
	if _, err := blob.ReadAt(ctx, fixed, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if [5]byte(fixed[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadFormat)
	}
	dt, err := byteDType(fixed[len(Magic)])
	if err != nil {
		return nil, err
	}
	rank := int(fixed[len(Magic)+1])

	raw := make([]byte, 8*rank)
	if rank > 0 {
		if _, err := blob.ReadAt(ctx, raw, int64(fixedHeaderSize)); err != nil {
			return nil, fmt.Errorf("%w: truncated shape: %v", ErrBadFormat, err)
		}
	}
	shape := make([]int, rank)
	size := 1
	for i := range shape {
		shape[i] = int(binary.LittleEndian.Uint64(raw[8*i:]))
		if shape[i] < 0 {
			return nil, fmt.Errorf("%w: negative extent on axis %d", ErrBadFormat, i)
		}
		size *= shape[i]
	}

	h := &header{dtype: dt, shape: shape, dataOff: int64(fixedHeaderSize + 8*rank)}
	es, err := binenc.ElemSize(dt)
	if err != nil {
		return nil, err
	}
	if blob.Size() < h.dataOff+int64(size*es) {
		return nil, fmt.Errorf("%w: truncated data", ErrBadFormat)
	}
	return h, nil
}
