package pricemap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPiecewiseKnownValues(t *testing.T) {
	m, err := NewPiecewise(10, 200, 550)
	require.NoError(t, err)

	assert.InDelta(t, 10, m.Price(0), 1e-9)
	assert.InDelta(t, 200, m.Price(70), 1e-9)
	assert.InDelta(t, 550, m.Price(100), 1e-9)
	assert.InDelta(t, math.Sqrt(10*200), m.Price(35), 1e-9)
	assert.InDelta(t, 375, m.Price(85), 1e-9)
}

func TestLogLinearBoundaries(t *testing.T) {
	m, err := NewLogLinear(20, 2500)
	require.NoError(t, err)

	assert.InDelta(t, 20, m.Price(0), 1e-9)
	assert.InDelta(t, 2500, m.Price(100), 1e-9)
	assert.InDelta(t, math.Sqrt(20*2500), m.Price(50), 1e-9)
}

func TestMappingsAreMonotonic(t *testing.T) {
	pw, err := NewPiecewise(20, 1000, 2500)
	require.NoError(t, err)
	ll, err := NewLogLinear(10, 550)
	require.NoError(t, err)

	for _, m := range []Mapping{pw, ll} {
		prev := m.Price(0)
		for p := 0.25; p <= 100; p += 0.25 {
			cur := m.Price(p)
			if cur < prev {
				t.Fatalf("%s: price(%.2f)=%g below price(%.2f)=%g", m.Mode(), p, cur, p-0.25, prev)
			}
			prev = cur
		}
	}
}

func TestEdgesUseSameFormulaAsPrice(t *testing.T) {
	m, err := NewPiecewise(10, 200, 550)
	require.NoError(t, err)

	e := m.Edges(4)
	require.Len(t, e, 5)
	for i, want := range []float64{0, 25, 50, 75, 100} {
		assert.Equal(t, m.Price(want), e[i], "edge %d", i)
	}
}

func TestConstructionErrors(t *testing.T) {
	tests := []struct {
		name          string
		min, mid, max float64
		want          error
	}{
		{"zero min", 0, 10, 100, ErrInvalidRange},
		{"negative min", -5, 10, 100, ErrInvalidRange},
		{"max below min", 50, 50, 10, ErrInvalidRange},
		{"mid above max", 10, 600, 550, ErrInvalidMidpoint},
		{"mid below min", 10, 5, 550, ErrInvalidMidpoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPiecewise(tt.min, tt.mid, tt.max)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewLogLinear(0, 10)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestDatasetLogRange(t *testing.T) {
	m := NewDatasetLog([]float64{9, 99, 999})
	lo, hi := m.Bounds()
	assert.InDelta(t, 1, lo, 1e-12)
	assert.InDelta(t, 3, hi, 1e-12)

	assert.InDelta(t, 99, m.Price(2), 1e-9)

	e := m.Edges(2)
	require.Len(t, e, 3)
	assert.InDelta(t, 9, e[0], 1e-9)
	assert.InDelta(t, 99, e[1], 1e-9)
	assert.InDelta(t, 999, e[2], 1e-9)
}

func TestDatasetLogIsMonotonicOverItsRange(t *testing.T) {
	values := []float64{3, 12, 250, 1800}
	m := NewDatasetLog(values)
	lo, hi := m.Bounds()
	require.Less(t, lo, hi)

	assert.Equal(t, 3.0, m.Price(lo))
	assert.Equal(t, 1800.0, m.Price(hi))

	const steps = 400
	prev := m.Price(lo)
	for i := 1; i <= steps; i++ {
		x := lo + (hi-lo)*float64(i)/steps
		cur := m.Price(x)
		if cur < prev {
			t.Fatalf("price(%g)=%g below previous %g", x, cur, prev)
		}
		if cur < 3 || cur > 1800 {
			t.Fatalf("price(%g)=%g outside the data range", x, cur)
		}
		prev = cur
	}

	e := m.Edges(50)
	for i := 1; i < len(e); i++ {
		if e[i] < e[i-1] {
			t.Fatalf("edge %d (%g) below edge %d (%g)", i, e[i], i-1, e[i-1])
		}
	}
}

func TestDatasetLogEmpty(t *testing.T) {
	m := NewDatasetLog(nil)
	lo, hi := m.Bounds()
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("datasetlog")
	require.NoError(t, err)
	assert.Equal(t, ModeDatasetLog, mode)

	_, err = ParseMode("cubic")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
