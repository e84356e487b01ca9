package indexing

// Capability is the strongest indexing style a backend natively accepts.
// Styles are ordered: any weaker style is always acceptable to a stronger
// backend.
type Capability uint8

const (
	// Basic accepts only scalars and slices.
	Basic Capability = iota
	// OuterOneVector additionally accepts an integer array or mask on at
	// most one axis.
	OuterOneVector
	// Outer accepts arrays on multiple axes, combined by outer product.
	Outer
	// Vectorized accepts zipped/broadcast fancy indexing across axes.
	Vectorized
)

func (c Capability) String() string {
	switch c {
	case Basic:
		return "basic"
	case OuterOneVector:
		return "outer-one-vector"
	case Outer:
		return "outer"
	case Vectorized:
		return "vectorized"
	default:
		return "unknown"
	}
}
