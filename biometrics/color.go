package biometrics

import "math"

const (
	coarseBins = 8
	fineBins   = 16

	colorFeatureLen = 3*coarseBins + 3*fineBins + 6
)

// ColorFeatures captures the color distribution of the frame: RGB histograms
// at two resolutions plus HSV summary statistics.
type ColorFeatures struct {
	HistCoarse [3][coarseBins]float64 // normalized per-channel, 8 bins
	HistFine   [3][fineBins]float64   // normalized per-channel, 16 bins
	HSVMean    [3]float64
	HSVStd     [3]float64
}

func (c *ColorFeatures) floats() []float64 {
	out := make([]float64, 0, colorFeatureLen)
	for ch := range 3 {
		out = append(out, c.HistCoarse[ch][:]...)
	}
	for ch := range 3 {
		out = append(out, c.HistFine[ch][:]...)
	}
	out = append(out, c.HSVMean[:]...)
	out = append(out, c.HSVStd[:]...)
	return out
}

func colorFeatures(f *frame) ColorFeatures {
	var cf ColorFeatures
	n := CanonicalSize * CanonicalSize
	channels := [3][]float64{f.r, f.g, f.b}

	for ch, vals := range channels {
		for _, v := range vals {
			coarse := int(v) * coarseBins / 256
			fine := int(v) * fineBins / 256
			cf.HistCoarse[ch][coarse]++
			cf.HistFine[ch][fine]++
		}
		for i := range cf.HistCoarse[ch] {
			cf.HistCoarse[ch][i] = safeDiv(cf.HistCoarse[ch][i], float64(n))
		}
		for i := range cf.HistFine[ch] {
			cf.HistFine[ch][i] = safeDiv(cf.HistFine[ch][i], float64(n))
		}
	}

	// HSV decomposition computed from raw RGB, accumulated in fixed pixel order
	var sum, sumSq [3]float64
	for i := range n {
		h, s, v := rgbToHSV(f.r[i], f.g[i], f.b[i])
		for ch, c := range [3]float64{h, s, v} {
			sum[ch] += c
			sumSq[ch] += c * c
		}
	}
	for ch := range 3 {
		mean := sum[ch] / float64(n)
		cf.HSVMean[ch] = mean
		variance := sumSq[ch]/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		cf.HSVStd[ch] = math.Sqrt(variance)
	}
	return cf
}

// rgbToHSV converts 0..255 channel values to h in [0,360), s and v in [0,1].
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	r, g, b = r/255, g/255, b/255
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v = max
	d := max - min
	if max > 0 {
		s = d / max
	}
	if d == 0 {
		return 0, s, v
	}
	switch max {
	case r:
		h = 60 * math.Mod((g-b)/d, 6)
	case g:
		h = 60 * ((b-r)/d + 2)
	default:
		h = 60 * ((r-g)/d + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}
