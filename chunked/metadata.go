package chunked

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/hupe1980/larray/blobstore"
	"github.com/hupe1980/larray/nd"
)

// MetaName is the blob name holding array metadata, relative to the array
// prefix.
const MetaName = ".larray"

// FormatVersion is the current metadata format version.
const FormatVersion = 1

// Metadata describes a chunked array: its logical shape, the shape of every
// chunk, the element type and the chunk codec. It is stored as JSON under
// MetaName.
type Metadata struct {
	FormatVersion int    `json:"format_version"`
	Shape         []int  `json:"shape"`
	ChunkShape    []int  `json:"chunk_shape"`
	DType         string `json:"dtype"`
	Codec         string `json:"codec"`
}

func (m *Metadata) validate() error {
	if m.FormatVersion != FormatVersion {
		return fmt.Errorf("unsupported format version %d", m.FormatVersion)
	}
	if len(m.Shape) != len(m.ChunkShape) {
		return fmt.Errorf("shape rank %d does not match chunk rank %d", len(m.Shape), len(m.ChunkShape))
	}
	if len(m.Shape) == 0 {
		return fmt.Errorf("chunked arrays must have at least one axis")
	}
	for i, c := range m.ChunkShape {
		if c <= 0 {
			return fmt.Errorf("chunk shape must be positive, got %d on axis %d", c, i)
		}
		if m.Shape[i] < 0 {
			return fmt.Errorf("shape must be non-negative, got %d on axis %d", m.Shape[i], i)
		}
	}
	if _, err := dtypeOf(m.DType); err != nil {
		return err
	}
	if _, err := codecOf(m.Codec); err != nil {
		return err
	}
	return nil
}

// dtypeOf maps the wire name to an element type. Chunked storage is
// fixed-width only; String and Object have no stable encoding.
func dtypeOf(name string) (nd.DType, error) {
	switch name {
	case "bool":
		return nd.Bool, nil
	case "int64":
		return nd.Int64, nil
	case "float64":
		return nd.Float64, nil
	case "time":
		return nd.Time, nil
	default:
		return 0, fmt.Errorf("unsupported chunked dtype %q", name)
	}
}

func dtypeName(dt nd.DType) (string, error) {
	switch dt {
	case nd.Bool:
		return "bool", nil
	case nd.Int64:
		return "int64", nil
	case nd.Float64:
		return "float64", nil
	case nd.Time:
		return "time", nil
	default:
		return "", fmt.Errorf("unsupported chunked dtype %s", dt)
	}
}

func readMetadata(ctx context.Context, store blobstore.Store, name string) (*Metadata, error) {
	blob, err := store.Open(ctx, name+"/"+MetaName)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	raw, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, err
	}

	meta := &Metadata{}
	if err := json.Unmarshal(raw, meta); err != nil {
		return nil, fmt.Errorf("decoding array metadata: %w", err)
	}
	if err := meta.validate(); err != nil {
		return nil, err
	}
	return meta, nil
}

func writeMetadata(ctx context.Context, store blobstore.Putter, name string, meta *Metadata) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return store.Put(ctx, name+"/"+MetaName, raw)
}
