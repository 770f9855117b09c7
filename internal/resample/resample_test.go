package resample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSignal returns a deterministic non-trivial sample sequence.
func testSignal(n int) []float32 {
	src := make([]float32, n)
	for i := range src {
		src[i] = float32(100.0*math.Sin(float64(i)*0.37) + float64(i%7))
	}
	return src
}

// naiveResample applies the resampling definition directly: for every
// output sample, visit every input sample and accumulate those whose tap
// index lands inside the filter.
func naiveResample(src, taps []float32, up, down int) []float32 {
	outLen := OutputLen(len(src), up, down)
	offset := (len(taps) - 1) / 2
	dst := make([]float32, outLen)
	for xOut := 0; xOut < outLen; xOut++ {
		var acc float32
		for xIn := range src {
			tap := xOut*down - xIn*up + offset
			if tap >= 0 && tap < len(taps) {
				acc += taps[tap] * src[xIn]
			}
		}
		dst[xOut] = acc
	}
	return dst
}

func TestOutputLen(t *testing.T) {
	tests := []struct {
		inLen, up, down, want int
	}{
		{100, 1, 1, 100},
		{100, 2, 1, 200},
		{100, 1, 2, 50},
		{101, 1, 2, 51},
		{5, 3, 2, 8},
		{7, 2, 3, 5},
		{1, 1, 4, 1}, // never shrinks below one sample
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputLen(tt.inLen, tt.up, tt.down),
			"OutputLen(%d, %d, %d)", tt.inLen, tt.up, tt.down)
	}
}

func TestResampleIdentity(t *testing.T) {
	src := testSignal(64)
	dst, err := Resample(src, []float32{1.0}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, src, dst)
}

func TestResampleMatchesDirectConvolution(t *testing.T) {
	src := testSignal(50)
	tests := []struct {
		name     string
		up, down int
	}{
		{"unity", 1, 1},
		{"upsample 2/1", 2, 1},
		{"downsample 1/2", 1, 2},
		{"rational 3/2", 3, 2},
		{"rational 2/3", 2, 3},
		{"rational 5/4", 5, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taps, err := DesignFilter(FilterSpec{Up: tt.up, Down: tt.down, Aperture: 8})
			require.NoError(t, err)

			got, err := Resample(src, taps, tt.up, tt.down)
			require.NoError(t, err)

			want := naiveResample(src, taps, tt.up, tt.down)
			require.Len(t, got, len(want))
			for i := range want {
				assert.InDelta(t, want[i], got[i], 1e-4, "sample %d", i)
			}
		})
	}
}

func TestEdgeTapsAreSkippedWithoutRenormalizing(t *testing.T) {
	src := []float32{1, 1, 1, 1, 1, 1}
	taps := []float32{0.25, 0.5, 0.25}

	dst, err := Resample(src, taps, 1, 1)
	require.NoError(t, err)
	require.Len(t, dst, len(src))

	// Interior samples see the full filter; at the frame edges the taps
	// reaching outside the input simply do not contribute.
	assert.InDelta(t, 0.75, float64(dst[0]), 1e-6)
	assert.InDelta(t, 0.75, float64(dst[len(dst)-1]), 1e-6)
	for i := 1; i < len(dst)-1; i++ {
		assert.InDelta(t, 1.0, float64(dst[i]), 1e-6, "sample %d", i)
	}
}

func TestResampleRejectsBadArguments(t *testing.T) {
	src := testSignal(8)
	_, err := Resample(src, []float32{1}, 0, 1)
	assert.Error(t, err)
	_, err = Resample(src, []float32{1}, 1, 0)
	assert.Error(t, err)
	_, err = Resample(src, nil, 1, 1)
	assert.Error(t, err)
	_, err = Resample(nil, []float32{1}, 1, 1)
	assert.Error(t, err)
}

func TestResampleAxisXMatchesPerRowResample(t *testing.T) {
	const height, width, planes = 3, 20, 2
	src := testSignal(height * width * planes)
	taps, err := DesignFilter(FilterSpec{Up: 2, Down: 1, Aperture: 6})
	require.NoError(t, err)

	dst, outWidth, err := ResampleAxisX(src, height, width, planes, taps, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, OutputLen(width, 2, 1), outWidth)
	require.Len(t, dst, height*outWidth*planes)

	// Each row and plane must match an independent 1-D resample.
	for y := 0; y < height; y++ {
		for p := 0; p < planes; p++ {
			row := make([]float32, width)
			for x := 0; x < width; x++ {
				row[x] = src[(y*width+x)*planes+p]
			}
			want, err := Resample(row, taps, 2, 1)
			require.NoError(t, err)
			for x := 0; x < outWidth; x++ {
				assert.InDelta(t, want[x], dst[(y*outWidth+x)*planes+p], 1e-5,
					"row %d plane %d sample %d", y, p, x)
			}
		}
	}
}

func TestResampleAxisYMatchesPerColumnResample(t *testing.T) {
	const height, width, planes = 20, 3, 1
	src := testSignal(height * width * planes)
	taps, err := DesignFilter(FilterSpec{Up: 1, Down: 2, Aperture: 6})
	require.NoError(t, err)

	dst, outHeight, err := ResampleAxisY(src, height, width, planes, taps, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, OutputLen(height, 1, 2), outHeight)

	for x := 0; x < width; x++ {
		col := make([]float32, height)
		for y := 0; y < height; y++ {
			col[y] = src[y*width+x]
		}
		want, err := Resample(col, taps, 1, 2)
		require.NoError(t, err)
		for y := 0; y < outHeight; y++ {
			assert.InDelta(t, want[y], dst[y*width+x], 1e-5, "column %d sample %d", x, y)
		}
	}
}

func TestResampleImageSkipsUnityAxes(t *testing.T) {
	const height, width, planes = 4, 5, 1
	src := testSignal(height * width * planes)

	data, outHeight, outWidth, err := ResampleImage(src, height, width, planes,
		nil, 1, 1, nil, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, height, outHeight)
	assert.Equal(t, width, outWidth)
	assert.Equal(t, src, data)
}

func TestResampleImageSeparablePasses(t *testing.T) {
	const height, width, planes = 10, 12, 1
	src := testSignal(height * width * planes)
	xTaps, err := DesignFilter(FilterSpec{Up: 2, Down: 1, Aperture: 6})
	require.NoError(t, err)
	yTaps, err := DesignFilter(FilterSpec{Up: 1, Down: 2, Aperture: 6})
	require.NoError(t, err)

	data, outHeight, outWidth, err := ResampleImage(src, height, width, planes,
		xTaps, 2, 1, yTaps, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, OutputLen(height, 1, 2), outHeight)
	assert.Equal(t, OutputLen(width, 2, 1), outWidth)

	// Same result as running the two axis passes by hand.
	mid, w, err := ResampleAxisX(src, height, width, planes, xTaps, 2, 1)
	require.NoError(t, err)
	want, h, err := ResampleAxisY(mid, height, w, planes, yTaps, 1, 2)
	require.NoError(t, err)
	require.Equal(t, h, outHeight)
	assert.Equal(t, want, data)
}
