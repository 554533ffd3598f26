package biometrics

import "math"

const (
	lbpBins     = 256
	glcmLevels  = 32
	gaborAngles = 8

	textureFeatureLen = 2*lbpBins + 3 + gaborAngles
)

// TextureFeatures captures micro-texture: local binary pattern histograms at
// two radii, a gray-level co-occurrence triple and a small bank of oriented
// filter responses.
type TextureFeatures struct {
	LBPRadius1 [lbpBins]float64
	LBPRadius2 [lbpBins]float64
	// co-occurrence matrix statistics at offset (1,0)
	Contrast    float64
	Homogeneity float64
	Energy      float64
	// mean absolute response of 8 oriented difference filters
	Gabor [gaborAngles]float64
}

func (t *TextureFeatures) floats() []float64 {
	out := make([]float64, 0, textureFeatureLen)
	out = append(out, t.LBPRadius1[:]...)
	out = append(out, t.LBPRadius2[:]...)
	out = append(out, t.Contrast, t.Homogeneity, t.Energy)
	out = append(out, t.Gabor[:]...)
	return out
}

func textureFeatures(f *frame) TextureFeatures {
	var tf TextureFeatures
	tf.LBPRadius1 = lbpHistogram(f, 1)
	tf.LBPRadius2 = lbpHistogram(f, 2)
	tf.Contrast, tf.Homogeneity, tf.Energy = coOccurrence(f)
	tf.Gabor = orientedResponses(f)
	return tf
}

// lbpOffsets is the fixed 8-neighbor sampling order (clockwise from the
// top-left), scaled by the radius.
var lbpOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0},
}

func lbpHistogram(f *frame, radius int) [lbpBins]float64 {
	var hist [lbpBins]float64
	var count float64
	for y := radius; y < CanonicalSize-radius; y++ {
		for x := radius; x < CanonicalSize-radius; x++ {
			center := f.at(x, y)
			code := 0
			for bit, off := range lbpOffsets {
				if f.at(x+off[0]*radius, y+off[1]*radius) >= center {
					code |= 1 << bit
				}
			}
			hist[code]++
			count++
		}
	}
	for i := range hist {
		hist[i] = safeDiv(hist[i], count)
	}
	return hist
}

// coOccurrence computes contrast, homogeneity and energy of the gray-level
// co-occurrence matrix at offset (1,0), with intensities quantized to 32
// levels.
func coOccurrence(f *frame) (contrast, homogeneity, energy float64) {
	var glcm [glcmLevels][glcmLevels]float64
	var count float64
	for y := range CanonicalSize {
		for x := range CanonicalSize - 1 {
			a := quantize(f.at(x, y))
			b := quantize(f.at(x+1, y))
			glcm[a][b]++
			count++
		}
	}
	for i := range glcmLevels {
		for j := range glcmLevels {
			p := safeDiv(glcm[i][j], count)
			d := float64(i - j)
			contrast += p * d * d
			homogeneity += p / (1 + math.Abs(d))
			energy += p * p
		}
	}
	return contrast, homogeneity, energy
}

func quantize(v float64) int {
	q := int(v) * glcmLevels / 256
	if q >= glcmLevels {
		q = glcmLevels - 1
	}
	return q
}

// orientedResponses approximates a Gabor filter bank with 8 oriented
// antisymmetric difference filters at radius 2. The mean absolute response
// per orientation is retained.
func orientedResponses(f *frame) [gaborAngles]float64 {
	var resp [gaborAngles]float64
	const radius = 2.0
	var off [gaborAngles][2]int
	for a := range gaborAngles {
		angle := math.Pi * float64(a) / gaborAngles
		off[a][0] = int(math.Round(radius * math.Cos(angle)))
		off[a][1] = int(math.Round(radius * math.Sin(angle)))
	}
	const margin = 2
	var count float64
	for y := margin; y < CanonicalSize-margin; y++ {
		for x := margin; x < CanonicalSize-margin; x++ {
			for a := range gaborAngles {
				dx, dy := off[a][0], off[a][1]
				resp[a] += math.Abs(f.at(x+dx, y+dy) - f.at(x-dx, y-dy))
			}
			count++
		}
	}
	for a := range resp {
		resp[a] = safeDiv(resp[a], count)
	}
	return resp
}
