// Package binenc encodes fixed-width array elements as little-endian bytes.
// It is the shared element codec of the chunked and file-backed storage
// formats.
package binenc

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/larray/nd"
)

// ElemSize returns the encoded size of one element in bytes, or an error for
// element types without a fixed-width encoding.
func ElemSize(dt nd.DType) (int, error) {
	switch dt {
	case nd.Bool:
		return 1, nil
	case nd.Int64, nd.Float64, nd.Time:
		return 8, nil
	default:
		return 0, fmt.Errorf("no fixed-width encoding for dtype %s", dt)
	}
}

// EncodeArray serializes arr's elements in flat row-major order.
func EncodeArray(arr *nd.Array) ([]byte, error) {
	es, err := ElemSize(arr.DType())
	if err != nil {
		return nil, err
	}
	out := make([]byte, arr.Size()*es)
	for i := 0; i < arr.Size(); i++ {
		v, err := arr.FlatAt(i)
		if err != nil {
			return nil, err
		}
		PutElem(out[i*es:], arr.DType(), v)
	}
	return out, nil
}

// DecodeArray deserializes data into a fresh array of the given dtype and
// shape.
func DecodeArray(data []byte, dt nd.DType, shape []int) (*nd.Array, error) {
	es, err := ElemSize(dt)
	if err != nil {
		return nil, err
	}
	out := nd.Zeros(dt, shape...)
	if len(data) < out.Size()*es {
		return nil, fmt.Errorf("short data: have %d bytes, need %d", len(data), out.Size()*es)
	}
	for i := 0; i < out.Size(); i++ {
		if err := out.SetFlatAt(i, Elem(data[i*es:], dt)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PutElem writes one element at the start of p. Timestamps are stored as
// epoch nanoseconds; NaT keeps its math.MinInt64 sentinel.
func PutElem(p []byte, dt nd.DType, v any) {
	switch dt {
	case nd.Bool:
		if v.(bool) {
			p[0] = 1
		} else {
			p[0] = 0
		}
	case nd.Int64:
		binary.LittleEndian.PutUint64(p, uint64(v.(int64)))
	case nd.Float64:
		binary.LittleEndian.PutUint64(p, math.Float64bits(v.(float64)))
	case nd.Time:
		t := v.(time.Time)
		var ns int64
		if nd.IsNaT(t) {
			ns = math.MinInt64
		} else {
			ns = t.UnixNano()
		}
		binary.LittleEndian.PutUint64(p, uint64(ns))
	}
}

// Elem reads one element from the start of p.
func Elem(p []byte, dt nd.DType) any {
	switch dt {
	case nd.Bool:
		return p[0] != 0
	case nd.Int64:
		return int64(binary.LittleEndian.Uint64(p))
	case nd.Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(p))
	case nd.Time:
		ns := int64(binary.LittleEndian.Uint64(p))
		if ns == math.MinInt64 {
			return nd.NaT
		}
		return time.Unix(0, ns).UTC()
	default:
		return nil
	}
}
