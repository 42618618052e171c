package png

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnfilterSingleRow(t *testing.T) {
	// bpp 1, two bytes per row so x=1 has a left neighbour a=raw(0).
	cases := []struct {
		name     string
		filtered []byte
		want     []byte
	}{
		{"none", []byte{0, 10, 5}, []byte{10, 5}},
		{"sub", []byte{1, 10, 5}, []byte{10, 15}},
		{"sub wraps", []byte{1, 200, 100}, []byte{200, 44}},
		{"up on first row", []byte{2, 10, 5}, []byte{10, 5}},
		{"average", []byte{3, 10, 5}, []byte{10, 10}},
		{"paeth on first row", []byte{4, 10, 5}, []byte{10, 15}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := Unfilter(tc.filtered, 2, 1)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tc.want, rows[0])
		})
	}
}

func TestUnfilterUsesPreviousRow(t *testing.T) {
	filtered := []byte{
		0, 10, 20,
		2, 1, 2, // up: b + f
		3, 4, 6, // average: floor((a+b)/2) + f
		4, 1, 1, // paeth
	}
	rows, err := Unfilter(filtered, 2, 1)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []byte{10, 20}, rows[0])
	assert.Equal(t, []byte{11, 22}, rows[1])
	// x=0: a=0, b=11 -> 5+4=9; x=1: a=9, b=22 -> 15+6=21.
	assert.Equal(t, []byte{9, 21}, rows[2])
	// x=0: a=0,b=9,c=0 -> p=9, picks b=9 -> 10.
	// x=1: a=10,b=21,c=9 -> p=22, pa=12 pb=1 pc=13, picks b=21 -> 22.
	assert.Equal(t, []byte{10, 22}, rows[3])
}

func TestPaethTieBreak(t *testing.T) {
	cases := []struct {
		name    string
		a, b, c uint8
		want    uint8
	}{
		// p=7: every distance is zero.
		{"all equal picks a", 7, 7, 7, 7},
		// p=3: pa=1, pb=2, pc=1.
		{"a beats c", 2, 5, 4, 2},
		// p=3: pa=2, pb=1, pc=1.
		{"b beats c", 5, 2, 4, 2},
		// p=15: pa=5, pb=5, pc=0.
		{"c closest", 10, 20, 15, 15},
		// p=10: pa=0.
		{"a closest", 10, 20, 20, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, paeth(tc.a, tc.b, tc.c))
		})
	}
}

func TestPaethTieFavoursLeftInRow(t *testing.T) {
	// Second row, x=1 with a=b=c=50: predictor ties on all three, a wins.
	filtered := []byte{
		0, 50, 50,
		4, 0, 3,
	}
	rows, err := Unfilter(filtered, 2, 1)
	require.NoError(t, err)
	// x=0: a=0, b=50, c=0 -> p=50, picks b -> 50. x=1: a=b=c=50 -> 53.
	assert.Equal(t, []byte{50, 53}, rows[1])
}

func TestUnfilterBadFilterType(t *testing.T) {
	filtered := []byte{0, 1, 2, 5, 3, 4}
	_, err := Unfilter(filtered, 2, 1)
	require.Error(t, err)

	var cfe *CorruptFilterError
	require.True(t, errors.As(err, &cfe))
	assert.Equal(t, 1, cfe.Row)
	assert.Equal(t, byte(5), cfe.Filter)
	assert.True(t, IsCorrupt(err))
}

func TestUnfilterRaggedInput(t *testing.T) {
	_, err := Unfilter([]byte{0, 1, 2, 0}, 2, 1)
	var fe FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestFilterRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	rows := make([][]byte, 9)
	for y := range rows {
		rows[y] = make([]byte, 4*7)
		for x := range rows[y] {
			// Gradient plus a little noise.
			rows[y][x] = byte(x*3 + y*5 + rng.Intn(4))
		}
	}

	strategies := []FilterStrategy{
		StrategyAdaptive, StrategyNone, StrategySub, StrategyUp, StrategyAverage, StrategyPaeth,
	}
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			filtered, err := Filter(rows, 4, s)
			require.NoError(t, err)
			require.Len(t, filtered, len(rows)*(4*7+1))
			if ft, ok := s.fixed(); ok {
				for y := range rows {
					assert.Equal(t, byte(ft), filtered[y*(4*7+1)])
				}
			}
			got, err := Unfilter(filtered, 4*7, 4)
			require.NoError(t, err)
			assert.Equal(t, rows, got)
		})
	}
}

func TestFilterRaggedRows(t *testing.T) {
	rows := [][]byte{make([]byte, 8), make([]byte, 12)}
	_, err := Filter(rows, 4, StrategyAdaptive)
	var iie *InvalidImageError
	assert.True(t, errors.As(err, &iie), "got %v", err)

	out, err := Filter(nil, 4, StrategyNone)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParseFilterStrategy(t *testing.T) {
	s, err := ParseFilterStrategy("Paeth")
	require.NoError(t, err)
	assert.Equal(t, StrategyPaeth, s)

	s, err = ParseFilterStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyAdaptive, s)

	_, err = ParseFilterStrategy("zigzag")
	assert.Error(t, err)
}
