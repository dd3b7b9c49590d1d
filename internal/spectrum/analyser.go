package spectrum

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Analyser reproduces the behaviour of a browser analyser node: a Blackman
// windowed FFT whose magnitudes are smoothed over time and mapped from a
// decibel range onto bytes.
type Analyser struct {
	size      int
	smoothing float64
	minDB     float64
	maxDB     float64

	fft      *fourier.FFT
	window   []float64
	windowed []float64
	coeffs   []complex128
	smoothed []float64
}

// NewAnalyser allocates every buffer the analyser will ever use. size must be
// a power of two.
func NewAnalyser(size int, smoothing, minDB, maxDB float64) *Analyser {
	a := &Analyser{
		size:      size,
		smoothing: smoothing,
		minDB:     minDB,
		maxDB:     maxDB,
		fft:       fourier.NewFFT(size),
		window:    blackman(size),
		windowed:  make([]float64, size),
		coeffs:    make([]complex128, size/2+1),
		smoothed:  make([]float64, size/2),
	}
	return a
}

// Size returns the time-domain window length.
func (a *Analyser) Size() int { return a.size }

// BinCount returns the number of frequency bins (half the window).
func (a *Analyser) BinCount() int { return a.size / 2 }

// Process analyses one window of mono samples (len Size) and writes byte
// frequency data (len BinCount) and byte time-domain data (len Size).
func (a *Analyser) Process(samples []float64, freq, wave []uint8) {
	for i, v := range samples {
		wave[i] = clampByte(math.Floor(128 * (1 + v)))
	}

	floats.MulTo(a.windowed, samples, a.window)
	a.fft.Coefficients(a.coeffs, a.windowed)

	scale := 1 / float64(a.size)
	tau := a.smoothing
	rangeScale := 255 / (a.maxDB - a.minDB)
	for k := range a.smoothed {
		c := a.coeffs[k]
		mag := math.Hypot(real(c), imag(c)) * scale
		s := tau*a.smoothed[k] + (1-tau)*mag
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		a.smoothed[k] = s

		if s <= 0 {
			freq[k] = 0
			continue
		}
		db := 20 * math.Log10(s)
		freq[k] = clampByte(math.Floor(rangeScale * (db - a.minDB)))
	}
}

// Reset clears the smoothing history.
func (a *Analyser) Reset() {
	clear(a.smoothed)
}

func blackman(n int) []float64 {
	const alpha = 0.16
	a0 := (1 - alpha) / 2
	a1 := 0.5
	a2 := alpha / 2
	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
