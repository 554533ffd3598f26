package biometrics

import "math"

const (
	edgeGrid       = 16
	edgeFeatureLen = edgeGrid*edgeGrid + 3

	// highEdgeThreshold is the single high threshold of the simplified
	// Canny-style edge ratio. Sobel magnitudes on 8-bit input range up to
	// ~1443 (255*4*sqrt2), so 100 marks a clearly visible edge.
	highEdgeThreshold = 100.0
)

// EdgeFeatures captures edge structure: mean Sobel magnitude per cell of a
// 16x16 grid, global magnitude statistics and the high-threshold edge ratio.
type EdgeFeatures struct {
	GridMagnitude [edgeGrid * edgeGrid]float64
	Mean          float64
	Max           float64
	EdgeRatio     float64
}

func (e *EdgeFeatures) floats() []float64 {
	out := make([]float64, 0, edgeFeatureLen)
	out = append(out, e.GridMagnitude[:]...)
	out = append(out, e.Mean, e.Max, e.EdgeRatio)
	return out
}

func edgeFeatures(f *frame) EdgeFeatures {
	var ef EdgeFeatures
	mag := sobelMagnitude(f)

	cell := CanonicalSize / edgeGrid
	var total float64
	var above int
	for _, m := range mag {
		total += m
		if m > ef.Max {
			ef.Max = m
		}
		if m > highEdgeThreshold {
			above++
		}
	}
	n := float64(len(mag))
	ef.Mean = safeDiv(total, n)
	ef.EdgeRatio = safeDiv(float64(above), n)

	for gy := range edgeGrid {
		for gx := range edgeGrid {
			var sum float64
			for y := gy * cell; y < (gy+1)*cell; y++ {
				for x := gx * cell; x < (gx+1)*cell; x++ {
					sum += mag[y*CanonicalSize+x]
				}
			}
			ef.GridMagnitude[gy*edgeGrid+gx] = safeDiv(sum, float64(cell*cell))
		}
	}
	return ef
}

// sobelMagnitude computes the Sobel gradient magnitude on the grayscale
// plane. Border pixels are left at zero.
func sobelMagnitude(f *frame) []float64 {
	mag := make([]float64, CanonicalSize*CanonicalSize)
	for y := 1; y < CanonicalSize-1; y++ {
		for x := 1; x < CanonicalSize-1; x++ {
			gx := -f.at(x-1, y-1) + f.at(x+1, y-1) +
				-2*f.at(x-1, y) + 2*f.at(x+1, y) +
				-f.at(x-1, y+1) + f.at(x+1, y+1)
			gy := -f.at(x-1, y-1) - 2*f.at(x, y-1) - f.at(x+1, y-1) +
				f.at(x-1, y+1) + 2*f.at(x, y+1) + f.at(x+1, y+1)
			mag[y*CanonicalSize+x] = math.Sqrt(gx*gx + gy*gy)
		}
	}
	return mag
}
