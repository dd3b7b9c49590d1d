package spectrum

import "fmt"

// SampleReader provides the newest mono samples of the playback pipeline.
// It returns how many real samples were available; the rest of dst is zeroed.
type SampleReader interface {
	ReadLatest(dst []float64) int
}

// Band identifies a fixed fractional range of the frequency bins.
type Band int

const (
	Bass Band = iota
	Mid
	Treble
)

func (b Band) String() string {
	switch b {
	case Bass:
		return "bass"
	case Mid:
		return "mid"
	case Treble:
		return "treble"
	default:
		return fmt.Sprintf("band(%d)", int(b))
	}
}

// BandRange returns the half-open bin range [start, end) of band for a
// snapshot of n bins: bass [0, 5%), mid [5%, 25%), treble [25%, 100%).
func BandRange(band Band, n int) (start, end int) {
	lowMid := n * 5 / 100
	midHigh := n * 25 / 100
	switch band {
	case Bass:
		return 0, lowMid
	case Mid:
		return lowMid, midHigh
	case Treble:
		return midHigh, n
	default:
		return 0, 0
	}
}

// Options configures a Source.
type Options struct {
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
	BeatRatio   float64
	BeatFloor   float64
	HistorySize int
	BassBins    int
}

// DefaultOptions mirrors the stock analyser configuration.
func DefaultOptions() Options {
	return Options{
		FFTSize:     2048,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,
		BeatRatio:   1.3,
		BeatFloor:   100,
		HistorySize: 10,
		BassBins:    10,
	}
}

// Source owns the analysis snapshots and the beat history.
type Source struct {
	reader   SampleReader
	analyser *Analyser
	samples  []float64
	freq     []uint8
	wave     []uint8
	beat     *BeatState
	bassBins int

	bass   float64
	isBeat bool
}

// NewSource allocates all snapshots. reader may be nil, in which case every
// update yields silence.
func NewSource(reader SampleReader, opts Options) *Source {
	def := DefaultOptions()
	if opts.FFTSize <= 0 {
		opts.FFTSize = def.FFTSize
	}
	if opts.MaxDecibels <= opts.MinDecibels {
		opts.MinDecibels, opts.MaxDecibels = def.MinDecibels, def.MaxDecibels
	}
	if opts.BeatRatio <= 0 {
		opts.BeatRatio = def.BeatRatio
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = def.HistorySize
	}
	analyser := NewAnalyser(opts.FFTSize, opts.Smoothing, opts.MinDecibels, opts.MaxDecibels)
	bassBins := opts.BassBins
	if bassBins <= 0 {
		bassBins = def.BassBins
	}
	bassBins = min(bassBins, analyser.BinCount())
	return &Source{
		reader:   reader,
		analyser: analyser,
		samples:  make([]float64, analyser.Size()),
		freq:     make([]uint8, analyser.BinCount()),
		wave:     make([]uint8, analyser.Size()),
		beat:     NewBeatState(opts.HistorySize, opts.BeatRatio, opts.BeatFloor),
		bassBins: bassBins,
	}
}

// Update refreshes the snapshots from the newest audio and recomputes the
// beat flag. Call it exactly once per analysis tick; a second call before
// the audio advances records the same bass energy twice.
func (s *Source) Update() {
	available := 0
	if s.reader != nil {
		available = s.reader.ReadLatest(s.samples)
	}
	if available == 0 {
		clear(s.freq)
		clear(s.wave)
	} else {
		s.analyser.Process(s.samples, s.freq, s.wave)
	}

	s.bass = meanBytes(s.freq[:s.bassBins])
	s.isBeat = s.beat.Observe(s.bass)
}

// FrequencyData returns the live frequency snapshot. Do not modify it.
func (s *Source) FrequencyData() []uint8 { return s.freq }

// WaveformData returns the live time-domain snapshot. Do not modify it.
func (s *Source) WaveformData() []uint8 { return s.wave }

// IsBeat reports the beat flag computed by the last Update.
func (s *Source) IsBeat() bool { return s.isBeat }

// BassEnergy returns the low-bin energy used for beat detection.
func (s *Source) BassEnergy() float64 { return s.bass }

// History exposes the beat history for inspection.
func (s *Source) History() *BeatState { return s.beat }

// AverageFrequency returns the mean over all bins.
func (s *Source) AverageFrequency() float64 {
	return meanBytes(s.freq)
}

// BandEnergy returns the mean of the bins in band, in [0, 255].
func (s *Source) BandEnergy(band Band) float64 {
	start, end := BandRange(band, len(s.freq))
	return meanBytes(s.freq[start:end])
}

// PeakFrequency returns the centre frequency in Hz of the loudest bin.
func (s *Source) PeakFrequency(sampleRate int) float64 {
	peak, idx := uint8(0), 0
	for i, v := range s.freq {
		if v > peak {
			peak, idx = v, i
		}
	}
	return float64(idx) * float64(sampleRate) / 2 / float64(len(s.freq))
}

func meanBytes(values []uint8) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += int(v)
	}
	return float64(sum) / float64(len(values))
}
