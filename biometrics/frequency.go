package biometrics

import "math"

const (
	dctBlockSize = 8
	dctBlocks    = 5 // four corners + center
	dctCoeffs    = 16

	frequencyFeatureLen = dctBlocks*dctCoeffs + 2
)

// FrequencyFeatures captures frequency-domain structure: the leading zig-zag
// DCT coefficients of five fixed 8x8 blocks plus row/column spectral
// variances.
type FrequencyFeatures struct {
	DCT         [dctBlocks][dctCoeffs]float64
	RowSpectral float64
	ColSpectral float64
}

func (fr *FrequencyFeatures) floats() []float64 {
	out := make([]float64, 0, frequencyFeatureLen)
	for b := range dctBlocks {
		out = append(out, fr.DCT[b][:]...)
	}
	out = append(out, fr.RowSpectral, fr.ColSpectral)
	return out
}

// dctBlockOrigins are the top-left corners of the sampled blocks: the four
// corners and the center of the canonical frame.
var dctBlockOrigins = [dctBlocks][2]int{
	{0, 0},
	{CanonicalSize - dctBlockSize, 0},
	{0, CanonicalSize - dctBlockSize},
	{CanonicalSize - dctBlockSize, CanonicalSize - dctBlockSize},
	{CanonicalSize/2 - dctBlockSize/2, CanonicalSize/2 - dctBlockSize/2},
}

func frequencyFeatures(f *frame) FrequencyFeatures {
	var fr FrequencyFeatures
	for b, origin := range dctBlockOrigins {
		coeffs := blockDCT(f, origin[0], origin[1])
		fr.DCT[b] = zigzagLeading(coeffs)
	}
	fr.RowSpectral, fr.ColSpectral = spectralVariance(f)
	return fr
}

// blockDCT computes the 2D DCT-II of one 8x8 block.
func blockDCT(f *frame, ox, oy int) [dctBlockSize][dctBlockSize]float64 {
	var out [dctBlockSize][dctBlockSize]float64
	for u := range dctBlockSize {
		for v := range dctBlockSize {
			var sum float64
			for y := range dctBlockSize {
				for x := range dctBlockSize {
					sum += f.at(ox+x, oy+y) *
						math.Cos(math.Pi*float64(u)*(2*float64(x)+1)/(2*dctBlockSize)) *
						math.Cos(math.Pi*float64(v)*(2*float64(y)+1)/(2*dctBlockSize))
				}
			}
			cu, cv := 1.0, 1.0
			if u == 0 {
				cu = math.Sqrt2 / 2
			}
			if v == 0 {
				cv = math.Sqrt2 / 2
			}
			out[u][v] = sum * cu * cv / (dctBlockSize / 2)
		}
	}
	return out
}

// zigzagOrder is the standard JPEG zig-zag scan of an 8x8 block, truncated to
// the first dctCoeffs entries.
var zigzagOrder = [dctCoeffs][2]int{
	{0, 0}, {0, 1}, {1, 0}, {2, 0}, {1, 1}, {0, 2}, {0, 3}, {1, 2},
	{2, 1}, {3, 0}, {4, 0}, {3, 1}, {2, 2}, {1, 3}, {0, 4}, {0, 5},
}

func zigzagLeading(block [dctBlockSize][dctBlockSize]float64) [dctCoeffs]float64 {
	var out [dctCoeffs]float64
	for i, uv := range zigzagOrder {
		out[i] = block[uv[0]][uv[1]]
	}
	return out
}

// spectralVariance computes the variance of the first differences of the row
// and column mean intensities, a cheap proxy for energy outside DC.
func spectralVariance(f *frame) (rowVar, colVar float64) {
	rowMeans := make([]float64, CanonicalSize)
	colMeans := make([]float64, CanonicalSize)
	for y := range CanonicalSize {
		var sum float64
		for x := range CanonicalSize {
			sum += f.at(x, y)
		}
		rowMeans[y] = sum / CanonicalSize
	}
	for x := range CanonicalSize {
		var sum float64
		for y := range CanonicalSize {
			sum += f.at(x, y)
		}
		colMeans[x] = sum / CanonicalSize
	}
	return diffVariance(rowMeans), diffVariance(colMeans)
}

func diffVariance(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	n := float64(len(vals) - 1)
	var sum float64
	for i := 1; i < len(vals); i++ {
		sum += vals[i] - vals[i-1]
	}
	mean := sum / n
	var acc float64
	for i := 1; i < len(vals); i++ {
		d := (vals[i] - vals[i-1]) - mean
		acc += d * d
	}
	return acc / n
}
