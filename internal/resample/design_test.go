package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesignFilterIsSymmetricAndOddLength(t *testing.T) {
	for _, window := range []Window{WindowHann, WindowKaiser} {
		t.Run(window.String(), func(t *testing.T) {
			taps, err := DesignFilter(FilterSpec{Up: 3, Down: 2, Aperture: 12, Window: window})
			require.NoError(t, err)
			require.Equal(t, 1, len(taps)%2, "filter length must be odd")
			for i := range taps {
				assert.Equal(t, taps[len(taps)-1-i], taps[i], "tap %d", i)
			}
		})
	}
}

func TestDesignFilterPhaseGain(t *testing.T) {
	tests := []struct {
		name     string
		up, down int
	}{
		{"upsample 2/1", 2, 1},
		{"upsample 4/1", 4, 1},
		{"downsample 1/2", 1, 2},
		{"rational 3/2", 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taps, err := DesignFilter(FilterSpec{Up: tt.up, Down: tt.down, Aperture: 16})
			require.NoError(t, err)

			// Each polyphase subset sums to 1/phases, so a resizer that
			// multiplies the taps by its up factor gets unit DC gain on
			// every output phase.
			phases := tt.up * tt.down
			if tt.up < tt.down {
				phases /= tt.up
			} else {
				phases /= tt.down
			}
			for p := 0; p < phases; p++ {
				sum := 0.0
				for i := p; i < len(taps); i += phases {
					sum += float64(taps[i])
				}
				assert.InDelta(t, 1.0/float64(phases), sum, 1e-3, "phase %d", p)
			}
		})
	}
}

func TestDesignFilterRejectsBadSpecs(t *testing.T) {
	_, err := DesignFilter(FilterSpec{Up: 0, Down: 1, Aperture: 8})
	assert.Error(t, err)
	_, err = DesignFilter(FilterSpec{Up: 1, Down: 1, Aperture: 0})
	assert.Error(t, err)
	_, err = DesignFilter(FilterSpec{Up: 1, Down: 1, Aperture: 8, Cut: -0.5})
	assert.Error(t, err)
}

func TestOuterFactorSeparableRoundTrip(t *testing.T) {
	yTaps := []float32{0.1, 0.8, 0.1}
	xTaps := []float32{0.25, 0.5, 0.25, 0.1, -0.05}
	fil := Outer(yTaps, xTaps)
	require.Len(t, fil, len(yTaps)*len(xTaps))

	y2, x2, err := FactorSeparable(fil, len(yTaps), len(xTaps))
	require.NoError(t, err)

	// The individual factors are only determined up to a scale, but their
	// outer product must reproduce the filter.
	again := Outer(y2, x2)
	for i := range fil {
		assert.InDelta(t, fil[i], again[i], 1e-5, "coefficient %d", i)
	}
}

func TestFactorSeparableFromDesignedFilters(t *testing.T) {
	yTaps, err := DesignFilter(FilterSpec{Up: 2, Down: 1, Aperture: 8})
	require.NoError(t, err)
	xTaps, err := DesignFilter(FilterSpec{Up: 1, Down: 2, Aperture: 8})
	require.NoError(t, err)

	fil := Outer(yTaps, xTaps)
	y2, x2, err := FactorSeparable(fil, len(yTaps), len(xTaps))
	require.NoError(t, err)

	again := Outer(y2, x2)
	for i := range fil {
		assert.InDelta(t, fil[i], again[i], 1e-5)
	}
}

func TestFactorSeparableRejectsNonSeparable(t *testing.T) {
	fil := []float32{
		1, 0,
		0, 1,
	}
	_, _, err := FactorSeparable(fil, 2, 2)
	assert.Error(t, err)

	_, _, err = FactorSeparable([]float32{1, 2, 3}, 2, 2)
	assert.Error(t, err, "dimension mismatch must be rejected")
}

func TestCachedDesignReusesTaps(t *testing.T) {
	spec := FilterSpec{Up: 3, Down: 1, Aperture: 10}
	first, err := CachedDesign(spec)
	require.NoError(t, err)
	second, err := CachedDesign(spec)
	require.NoError(t, err)
	assert.Same(t, &first[0], &second[0], "repeat design must come from the cache")

	direct, err := DesignFilter(spec)
	require.NoError(t, err)
	assert.Equal(t, direct, first)
}

func TestResponse(t *testing.T) {
	// A unit-DC low-pass: full gain at DC, strong rejection at Nyquist.
	taps := []float32{0.25, 0.5, 0.25}
	mags := Response(taps, 64)
	require.Len(t, mags, 33)
	assert.InDelta(t, 1.0, mags[0], 1e-6)
	assert.InDelta(t, 0.0, mags[len(mags)-1], 1e-6)

	// Too small n is raised to the filter length.
	long, err := DesignFilter(FilterSpec{Up: 2, Down: 1, Aperture: 16})
	require.NoError(t, err)
	short := Response(long, 1)
	assert.GreaterOrEqual(t, len(short), len(long)/2)
}
