package chunked

import (
	"strconv"
	"strings"
)

// dimProjection maps selected positions along one axis onto a single chunk:
// which chunk, which in-chunk offsets, and where the results land in the
// output along that axis.
type dimProjection struct {
	chunkIX  int
	chunkSel []int
	outSel   []int
}

// projectAxis splits normalized positions along one axis into per-chunk
// projections, ordered by chunk index in first-touch order.
func projectAxis(positions []int, chunkLen int) []dimProjection {
	var out []dimProjection
	byChunk := make(map[int]int)
	for outIX, pos := range positions {
		cix := pos / chunkLen
		slot, ok := byChunk[cix]
		if !ok {
			slot = len(out)
			byChunk[cix] = slot
			out = append(out, dimProjection{chunkIX: cix})
		}
		out[slot].chunkSel = append(out[slot].chunkSel, pos%chunkLen)
		out[slot].outSel = append(out[slot].outSel, outIX)
	}
	return out
}

// chunkProjection is the full mapping for one chunk: its grid coordinates and
// the per-axis in-chunk and output selections.
type chunkProjection struct {
	coords   []int
	chunkSel [][]int
	outSel   [][]int
}

// projectChunks crosses per-axis projections into one projection per touched
// chunk.
func projectChunks(perAxis [][]dimProjection) []chunkProjection {
	total := 1
	for _, dims := range perAxis {
		total *= len(dims)
		if total == 0 {
			return nil
		}
	}

	out := make([]chunkProjection, 0, total)
	pick := make([]int, len(perAxis))
	for {
		cp := chunkProjection{
			coords:   make([]int, len(perAxis)),
			chunkSel: make([][]int, len(perAxis)),
			outSel:   make([][]int, len(perAxis)),
		}
		for d, dims := range perAxis {
			dp := dims[pick[d]]
			cp.coords[d] = dp.chunkIX
			cp.chunkSel[d] = dp.chunkSel
			cp.outSel[d] = dp.outSel
		}
		out = append(out, cp)

		// odometer over per-axis chunk slots
		d := len(pick) - 1
		for d >= 0 {
			pick[d]++
			if pick[d] < len(perAxis[d]) {
				break
			}
			pick[d] = 0
			d--
		}
		if d < 0 {
			break
		}
	}
	return out
}

// chunkKey renders grid coordinates as a storage key segment ("0.1.2").
func chunkKey(coords []int) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ".")
}

// gridShape returns the number of chunks along each axis.
func gridShape(shape, chunkShape []int) []int {
	out := make([]int, len(shape))
	for i := range shape {
		out[i] = (shape[i] + chunkShape[i] - 1) / chunkShape[i]
	}
	return out
}

// linearChunkID flattens grid coordinates for the residency bitmap.
func linearChunkID(coords, grid []int) uint32 {
	id := 0
	for i, c := range coords {
		id = id*grid[i] + c
	}
	return uint32(id)
}
