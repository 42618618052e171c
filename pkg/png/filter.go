package png

import (
	"fmt"
	"strings"
)

// FilterType is the per-scanline filter byte.
type FilterType uint8

const (
	FilterNone FilterType = iota
	FilterSub
	FilterUp
	FilterAverage
	FilterPaeth
	nFilter
)

func (f FilterType) String() string {
	switch f {
	case FilterNone:
		return "none"
	case FilterSub:
		return "sub"
	case FilterUp:
		return "up"
	case FilterAverage:
		return "average"
	case FilterPaeth:
		return "paeth"
	default:
		return fmt.Sprintf("filter(%d)", uint8(f))
	}
}

// FilterStrategy selects the filter type the encoder applies to each row.
type FilterStrategy int

const (
	// StrategyAdaptive picks, per row, the filter whose output has the
	// smallest sum of absolute signed byte values.
	StrategyAdaptive FilterStrategy = iota
	StrategyNone
	StrategySub
	StrategyUp
	StrategyAverage
	StrategyPaeth
)

func (s FilterStrategy) fixed() (FilterType, bool) {
	if s <= StrategyAdaptive || s > StrategyPaeth {
		return 0, false
	}
	return FilterType(s - StrategyNone), true
}

func (s FilterStrategy) String() string {
	if ft, ok := s.fixed(); ok {
		return ft.String()
	}
	return "adaptive"
}

// ParseFilterStrategy accepts "adaptive" or the name of a single filter type.
func ParseFilterStrategy(s string) (FilterStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "adaptive":
		return StrategyAdaptive, nil
	case "none":
		return StrategyNone, nil
	case "sub":
		return StrategySub, nil
	case "up":
		return StrategyUp, nil
	case "average", "avg":
		return StrategyAverage, nil
	case "paeth":
		return StrategyPaeth, nil
	default:
		return StrategyAdaptive, fmt.Errorf("unknown filter strategy %q", s)
	}
}

// Unfilter reconstructs raw scanlines from filtered data. Each filtered row
// is one filter type byte followed by rowLength bytes. Rows are rebuilt in
// order because every row depends on the reconstructed row above it.
func Unfilter(filtered []byte, rowLength, bytesPerPixel int) ([][]byte, error) {
	if rowLength <= 0 || bytesPerPixel <= 0 {
		return nil, FormatError("bad row geometry")
	}
	stride := rowLength + 1
	if len(filtered)%stride != 0 {
		return nil, FormatError("pixel data is not a whole number of rows")
	}

	rows := make([][]byte, len(filtered)/stride)
	// The row above the first row is all zeros.
	prev := make([]byte, rowLength)
	for y := range rows {
		line := filtered[y*stride : (y+1)*stride]
		cur := make([]byte, rowLength)
		copy(cur, line[1:])
		if !unfilterRow(line[0], cur, prev, bytesPerPixel) {
			return nil, &CorruptFilterError{Row: y, Filter: line[0]}
		}
		rows[y] = cur
		prev = cur
	}
	return rows, nil
}

func unfilterRow(ft byte, cdat, pdat []byte, bpp int) bool {
	switch FilterType(ft) {
	case FilterNone:
		// No-op.
	case FilterSub:
		for i := bpp; i < len(cdat); i++ {
			cdat[i] += cdat[i-bpp]
		}
	case FilterUp:
		for i, p := range pdat {
			cdat[i] += p
		}
	case FilterAverage:
		// The first pixel has nothing to its left.
		for i := 0; i < bpp && i < len(cdat); i++ {
			cdat[i] += pdat[i] / 2
		}
		for i := bpp; i < len(cdat); i++ {
			cdat[i] += uint8((int(cdat[i-bpp]) + int(pdat[i])) / 2)
		}
	case FilterPaeth:
		for i := 0; i < bpp && i < len(cdat); i++ {
			cdat[i] += paeth(0, pdat[i], 0)
		}
		for i := bpp; i < len(cdat); i++ {
			cdat[i] += paeth(cdat[i-bpp], pdat[i], pdat[i-bpp])
		}
	default:
		return false
	}
	return true
}

// paeth returns whichever of a (left), b (above) and c (upper left) is
// closest to a+b-c, preferring a, then b, on ties.
func paeth(a, b, c uint8) uint8 {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Filter produces the filtered form of rows, each prefixed by the filter
// type chosen for it. All rows must have the same length.
func Filter(rows [][]byte, bytesPerPixel int, strategy FilterStrategy) ([]byte, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	rowLength := len(rows[0])
	for y, row := range rows {
		if len(row) != rowLength {
			return nil, invalidImage("row %d has %d bytes, want %d", y, len(row), rowLength)
		}
	}
	out := make([]byte, 0, len(rows)*(rowLength+1))

	// candidates[ft] holds row y filtered with ft; reused across rows.
	var candidates [nFilter][]byte
	for ft := range candidates {
		candidates[ft] = make([]byte, rowLength)
	}
	prev := make([]byte, rowLength)

	fixed, isFixed := strategy.fixed()
	for _, cur := range rows {
		best := fixed
		if isFixed {
			filterRow(fixed, candidates[fixed], cur, prev, bytesPerPixel)
		} else {
			bestSum := -1
			for ft := FilterNone; ft < nFilter; ft++ {
				filterRow(ft, candidates[ft], cur, prev, bytesPerPixel)
				sum := signedSum(candidates[ft])
				if bestSum < 0 || sum < bestSum {
					bestSum = sum
					best = ft
				}
			}
		}
		out = append(out, byte(best))
		out = append(out, candidates[best]...)
		prev = cur
	}
	return out, nil
}

func filterRow(ft FilterType, dst, cur, prev []byte, bpp int) {
	n := len(cur)
	switch ft {
	case FilterNone:
		copy(dst, cur)
	case FilterSub:
		for x := 0; x < n; x++ {
			var left byte
			if x >= bpp {
				left = cur[x-bpp]
			}
			dst[x] = cur[x] - left
		}
	case FilterUp:
		for x := 0; x < n; x++ {
			dst[x] = cur[x] - prev[x]
		}
	case FilterAverage:
		for x := 0; x < n; x++ {
			var left byte
			if x >= bpp {
				left = cur[x-bpp]
			}
			dst[x] = cur[x] - uint8((int(left)+int(prev[x]))/2)
		}
	case FilterPaeth:
		for x := 0; x < n; x++ {
			var left, upLeft byte
			if x >= bpp {
				left = cur[x-bpp]
				upLeft = prev[x-bpp]
			}
			dst[x] = cur[x] - paeth(left, prev[x], upLeft)
		}
	}
}

func signedSum(b []byte) int {
	sum := 0
	for _, v := range b {
		sum += abs(int(int8(v)))
	}
	return sum
}
