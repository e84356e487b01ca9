package chunked

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses and decompresses chunk payloads.
type Codec interface {
	// Name is the codec identifier stored in metadata.
	Name() string
	// Encode compresses data into a self-describing block.
	Encode(data []byte) ([]byte, error)
	// Decode reverses Encode.
	Decode(block []byte) ([]byte, error)
}

func codecOf(name string) (Codec, error) {
	switch name {
	case "raw":
		return RawCodec{}, nil
	case "lz4":
		return LZ4Codec{}, nil
	case "zstd":
		return ZstdCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported chunk codec %q", name)
	}
}

// Block format: [UncompressedSize uint32][CompressedSize uint32][Data...].
// CompressedSize == 0 means the payload is stored uncompressed.
const blockHeaderSize = 8

func rawBlock(data []byte) []byte {
	out := make([]byte, blockHeaderSize+len(data))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], 0)
	copy(out[blockHeaderSize:], data)
	return out
}

func splitBlock(block []byte) (uncompressedSize uint32, payload []byte, compressed bool, err error) {
	if len(block) < blockHeaderSize {
		return 0, nil, false, errors.New("chunk block too small for header")
	}
	uncompressedSize = binary.LittleEndian.Uint32(block[0:])
	compressedSize := binary.LittleEndian.Uint32(block[4:])
	if compressedSize == 0 {
		if uint32(len(block)) < blockHeaderSize+uncompressedSize {
			return 0, nil, false, errors.New("chunk block data too small")
		}
		return uncompressedSize, block[blockHeaderSize : blockHeaderSize+uncompressedSize], false, nil
	}
	if uint32(len(block)) < blockHeaderSize+compressedSize {
		return 0, nil, false, errors.New("compressed chunk block data too small")
	}
	return uncompressedSize, block[blockHeaderSize : blockHeaderSize+compressedSize], true, nil
}

// RawCodec stores chunks uncompressed.
type RawCodec struct{}

func (RawCodec) Name() string { return "raw" }

func (RawCodec) Encode(data []byte) ([]byte, error) {
	return rawBlock(data), nil
}

func (RawCodec) Decode(block []byte) ([]byte, error) {
	_, payload, compressed, err := splitBlock(block)
	if err != nil {
		return nil, err
	}
	if compressed {
		return nil, errors.New("raw codec cannot decode a compressed block")
	}
	return payload, nil
}

// LZ4Codec uses LZ4 block compression: fast, good for hot data.
type LZ4Codec struct{}

func (LZ4Codec) Name() string { return "lz4" }

func (LZ4Codec) Encode(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	compressed := make([]byte, bound)
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	// Incompressible or not worth it: store uncompressed
	if n == 0 || float64(n) > float64(len(data))*0.9 {
		return rawBlock(data), nil
	}
	out := make([]byte, blockHeaderSize+n)
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(n))
	copy(out[blockHeaderSize:], compressed[:n])
	return out, nil
}

func (LZ4Codec) Decode(block []byte) ([]byte, error) {
	size, payload, compressed, err := splitBlock(block)
	if err != nil {
		return nil, err
	}
	if !compressed {
		return payload, nil
	}
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(payload, out)
	if err != nil {
		return nil, err
	}
	if uint32(n) != size {
		return nil, errors.New("decompressed chunk size mismatch")
	}
	return out, nil
}

// ZstdCodec uses zstd block compression: better ratio, good for cold data.
// Encoders and decoders are pooled.
type ZstdCodec struct{}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func (ZstdCodec) Name() string { return "zstd" }

func (ZstdCodec) Encode(data []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer zstdEncoderPool.Put(enc)

	compressed := enc.EncodeAll(data, nil)
	if float64(len(compressed)) > float64(len(data))*0.9 {
		return rawBlock(data), nil
	}
	out := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[blockHeaderSize:], compressed)
	return out, nil
}

func (ZstdCodec) Decode(block []byte) ([]byte, error) {
	size, payload, compressed, err := splitBlock(block)
	if err != nil {
		return nil, err
	}
	if !compressed {
		return payload, nil
	}
	dec := getZstdDecoder()
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(payload, make([]byte, 0, size))
	if err != nil {
		return nil, err
	}
	if uint32(len(out)) != size {
		return nil, errors.New("decompressed chunk size mismatch")
	}
	return out, nil
}
