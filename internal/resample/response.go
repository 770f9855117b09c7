// response.go: frequency response of a designed filter, for the filterdump
// command and the chart sink.
package resample

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Response returns the magnitude of the filter's frequency response at
// n/2+1 evenly spaced frequencies from DC to Nyquist, by zero-padding the
// taps to n points. n is raised to the filter length when smaller.
func Response(taps []float32, n int) []float64 {
	if n < len(taps) {
		n = len(taps)
	}
	padded := make([]float64, n)
	for i, t := range taps {
		padded[i] = float64(t)
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, padded)

	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplx.Abs(c)
	}
	return mags
}
