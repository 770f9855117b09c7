// Package resample implements polyphase rational resampling of picture data.
// It is a pure function library: filters are designed (or supplied by the
// caller) as flat float32 tap arrays and applied along one axis at a time,
// so a 2-D resize is two separable passes and multi-plane data is resampled
// identically per plane.
//
// For output position xOut, the contributing input samples xIn are those
// whose filter tap index
//
//	(xOut*down) - (xIn*up) + offset
//
// falls inside the filter, where offset = (len(taps)-1)/2 centres a
// symmetric filter. Iterating input positions inside that support visits
// exactly the taps of the matching phase (stride up), never the
// phase-mismatched ones, which is what makes the polyphase structure cheap.
//
// Taps landing outside the input bounds are skipped without renormalizing
// the remaining taps, so frame edges keep the original system's behaviour.
// Filters are expected pre-normalized by the caller; DesignFilter output
// multiplied by up gives unit DC gain per phase.
package resample

import (
	"github.com/jlammi/framix/internal/errors"
)

// OutputLen returns the number of output samples produced when resampling
// inLen samples by up/down: floor((inLen*up + down/2) / down), minimum 1.
func OutputLen(inLen, up, down int) int {
	n := (inLen*up + down/2) / down
	if n < 1 {
		return 1
	}
	return n
}

// Resample resamples a 1-D sequence by the rational factor up/down using
// the supplied filter taps. The output has OutputLen(len(src), up, down)
// samples.
func Resample(src, taps []float32, up, down int) ([]float32, error) {
	if err := validateArgs(len(src), taps, up, down); err != nil {
		return nil, err
	}

	outLen := OutputLen(len(src), up, down)
	dst := make([]float32, outLen)

	if up == 1 && down == 1 {
		if len(taps) == 1 && taps[0] == 1.0 {
			copy(dst, src)
			return dst, nil
		}
		rescaleLine(dst, 0, 1, outLen, src, 0, 1, len(src), taps)
		return dst, nil
	}

	resampleLine(dst, 0, 1, outLen, src, 0, 1, len(src), taps, up, down)
	return dst, nil
}

// ResampleAxisX resamples every row of a [height][width][planes] sample
// array by up/down, returning the new data and its width.
func ResampleAxisX(src []float32, height, width, planes int, taps []float32, up, down int) ([]float32, int, error) {
	if err := validateArgs(width, taps, up, down); err != nil {
		return nil, 0, err
	}

	outWidth := OutputLen(width, up, down)
	dst := make([]float32, height*outWidth*planes)

	pure := up == 1 && down == 1
	if pure && len(taps) == 1 && taps[0] == 1.0 {
		copy(dst, src)
		return dst, outWidth, nil
	}

	for y := 0; y < height; y++ {
		for p := 0; p < planes; p++ {
			srcOff := y*width*planes + p
			dstOff := y*outWidth*planes + p
			if pure {
				rescaleLine(dst, dstOff, planes, outWidth, src, srcOff, planes, width, taps)
			} else {
				resampleLine(dst, dstOff, planes, outWidth, src, srcOff, planes, width, taps, up, down)
			}
		}
	}
	return dst, outWidth, nil
}

// ResampleAxisY resamples every column of a [height][width][planes] sample
// array by up/down, returning the new data and its height.
func ResampleAxisY(src []float32, height, width, planes int, taps []float32, up, down int) ([]float32, int, error) {
	if err := validateArgs(height, taps, up, down); err != nil {
		return nil, 0, err
	}

	outHeight := OutputLen(height, up, down)
	dst := make([]float32, outHeight*width*planes)

	pure := up == 1 && down == 1
	if pure && len(taps) == 1 && taps[0] == 1.0 {
		copy(dst, src)
		return dst, outHeight, nil
	}

	rowStride := width * planes
	for x := 0; x < width; x++ {
		for p := 0; p < planes; p++ {
			off := x*planes + p
			if pure {
				rescaleLine(dst, off, rowStride, outHeight, src, off, rowStride, height, taps)
			} else {
				resampleLine(dst, off, rowStride, outHeight, src, off, rowStride, height, taps, up, down)
			}
		}
	}
	return dst, outHeight, nil
}

// ResampleImage applies a separable 2-D resize: horizontal pass with
// xTaps/xUp/xDown, then vertical pass with yTaps/yUp/yDown. Either axis may
// pass nil taps with up == down == 1 to skip that pass. It returns the
// resized data and its height and width.
func ResampleImage(src []float32, height, width, planes int,
	xTaps []float32, xUp, xDown int,
	yTaps []float32, yUp, yDown int) ([]float32, int, int, error) {

	data := src
	outWidth := width
	outHeight := height
	var err error

	if xTaps != nil || xUp != 1 || xDown != 1 {
		data, outWidth, err = ResampleAxisX(data, height, width, planes, xTaps, xUp, xDown)
		if err != nil {
			return nil, 0, 0, err
		}
	}
	if yTaps != nil || yUp != 1 || yDown != 1 {
		data, outHeight, err = ResampleAxisY(data, outHeight, outWidth, planes, yTaps, yUp, yDown)
		if err != nil {
			return nil, 0, 0, err
		}
	}
	return data, outHeight, outWidth, nil
}

// resampleLine is the polyphase kernel along one axis. Both sides use
// explicit strides so the same loop serves rows, columns and interleaved
// planes.
func resampleLine(dst []float32, dstOff, dstStride, outLen int,
	src []float32, srcOff, srcStride, inLen int,
	taps []float32, up, down int) {

	fLen := len(taps)
	offset := (fLen - 1) / 2

	for xOut := 0; xOut < outLen; xOut++ {
		base := xOut*down + offset

		// Input positions whose tap index lands inside the filter
		xInMin := ceilDiv(base-fLen+1, up)
		xInMax := floorDiv(base, up)
		if xInMin < 0 {
			xInMin = 0
		}
		if xInMax > inLen-1 {
			xInMax = inLen - 1
		}

		var acc float32
		tapIdx := base - xInMin*up
		for xIn := xInMin; xIn <= xInMax; xIn++ {
			acc += taps[tapIdx] * src[srcOff+xIn*srcStride]
			tapIdx -= up
		}
		dst[dstOff+xOut*dstStride] = acc
	}
}

// rescaleLine is the 1/1 ratio special case: a plain centred convolution
// with no phase bookkeeping.
func rescaleLine(dst []float32, dstOff, dstStride, outLen int,
	src []float32, srcOff, srcStride, inLen int, taps []float32) {

	fLen := len(taps)
	offset := (fLen - 1) / 2

	for xOut := 0; xOut < outLen; xOut++ {
		xInMin := xOut + offset - fLen + 1
		xInMax := xOut + offset
		if xInMin < 0 {
			xInMin = 0
		}
		if xInMax > inLen-1 {
			xInMax = inLen - 1
		}

		var acc float32
		tapIdx := xOut + offset - xInMin
		for xIn := xInMin; xIn <= xInMax; xIn++ {
			acc += taps[tapIdx] * src[srcOff+xIn*srcStride]
			tapIdx--
		}
		dst[dstOff+xOut*dstStride] = acc
	}
}

func validateArgs(inLen int, taps []float32, up, down int) error {
	switch {
	case up < 1:
		return invalidArg("up factor must be at least 1, got %d", up)
	case down < 1:
		return invalidArg("down factor must be at least 1, got %d", down)
	case len(taps) < 1:
		return invalidArg("filter must have at least one tap")
	case inLen < 1:
		return invalidArg("input must have at least one sample")
	}
	return nil
}

func invalidArg(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("resample").
		Category(errors.CategoryValidation).
		Build()
}

// floorDiv returns floor(a/b) for positive b.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// ceilDiv returns ceil(a/b) for positive b.
func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
