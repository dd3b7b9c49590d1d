package scene

import (
	"image"

	"golang.org/x/image/draw"
)

// PostSettings are the per-frame post-processing parameters.
type PostSettings struct {
	BloomStrength  float64
	BloomRadius    float64 // 0..1
	BloomThreshold float64 // luminance 0..1
	Grain          float64 // 0..1
}

// PostProcessor applies bloom and film grain to rendered frames. Bloom is
// computed at quarter resolution. Grain is deterministic for a given seed
// and frame number.
type PostProcessor struct {
	Seed uint64

	small   *image.RGBA
	scratch *image.RGBA
	blurBuf []float64
	full    *image.RGBA
	frame   uint64
}

// NewPostProcessor returns a processor seeded for grain.
func NewPostProcessor(seed uint64) *PostProcessor {
	return &PostProcessor{Seed: seed}
}

// Apply processes img in place.
func (p *PostProcessor) Apply(img *image.RGBA, s PostSettings) {
	p.frame++
	if s.BloomStrength > 0 {
		p.bloom(img, s)
	}
	if s.Grain > 0 {
		p.grain(img, s.Grain)
	}
}

func (p *PostProcessor) bloom(img *image.RGBA, s PostSettings) {
	b := img.Bounds()
	sw, sh := max(b.Dx()/4, 1), max(b.Dy()/4, 1)
	p.small = ensureRGBA(p.small, sw, sh)
	p.scratch = ensureRGBA(p.scratch, sw, sh)
	p.full = ensureRGBA(p.full, b.Dx(), b.Dy())

	draw.ApproxBiLinear.Scale(p.small, p.small.Bounds(), img, b, draw.Src, nil)

	threshold := s.BloomThreshold * 255
	pix := p.small.Pix
	for i := 0; i < len(pix); i += 4 {
		lum := 0.2126*float64(pix[i]) + 0.7152*float64(pix[i+1]) + 0.0722*float64(pix[i+2])
		if lum < threshold {
			pix[i], pix[i+1], pix[i+2] = 0, 0, 0
		}
	}

	radius := 1 + int(s.BloomRadius*8)
	p.boxBlur(p.small, p.scratch, radius, true)
	p.boxBlur(p.scratch, p.small, radius, false)

	draw.BiLinear.Scale(p.full, p.full.Bounds(), p.small, p.small.Bounds(), draw.Src, nil)
	dst, glow := img.Pix, p.full.Pix
	for i := 0; i < len(dst) && i < len(glow); i += 4 {
		for k := 0; k < 3; k++ {
			dst[i+k] = clampByte(float64(dst[i+k]) + float64(glow[i+k])*s.BloomStrength)
		}
	}
}

// boxBlur writes a one-dimensional box blur of src into dst.
func (p *PostProcessor) boxBlur(src, dst *image.RGBA, radius int, horizontal bool) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	n := w
	lines := h
	if !horizontal {
		n, lines = h, w
	}
	if cap(p.blurBuf) < n*3 {
		p.blurBuf = make([]float64, n*3)
	}
	buf := p.blurBuf[:n*3]
	offset := func(line, i int) int {
		if horizontal {
			return src.PixOffset(i, line)
		}
		return src.PixOffset(line, i)
	}
	for line := 0; line < lines; line++ {
		for i := 0; i < n; i++ {
			o := offset(line, i)
			buf[i*3], buf[i*3+1], buf[i*3+2] = float64(src.Pix[o]), float64(src.Pix[o+1]), float64(src.Pix[o+2])
		}
		for i := 0; i < n; i++ {
			var sum [3]float64
			count := 0
			for j := max(0, i-radius); j <= min(n-1, i+radius); j++ {
				sum[0] += buf[j*3]
				sum[1] += buf[j*3+1]
				sum[2] += buf[j*3+2]
				count++
			}
			o := offset(line, i)
			dst.Pix[o] = clampByte(sum[0] / float64(count))
			dst.Pix[o+1] = clampByte(sum[1] / float64(count))
			dst.Pix[o+2] = clampByte(sum[2] / float64(count))
			dst.Pix[o+3] = 255
		}
	}
}

func (p *PostProcessor) grain(img *image.RGBA, amount float64) {
	state := p.Seed ^ (p.frame * 0x9E3779B97F4A7C15)
	scale := amount * 48
	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		state = splitmix(state)
		n := (float64(state>>11)/(1<<53) - 0.5) * scale
		for k := 0; k < 3; k++ {
			pix[i+k] = clampByte(float64(pix[i+k]) + n)
		}
	}
}

func splitmix(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

func ensureRGBA(img *image.RGBA, w, h int) *image.RGBA {
	if img != nil && img.Rect.Dx() == w && img.Rect.Dy() == h {
		return img
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}
