package biometrics

import "math"

const (
	hogBins       = 9 // unsigned orientation, 20 degrees per bin
	hogRegionGrid = 4

	gradientFeatureLen = hogBins + hogRegionGrid*hogRegionGrid + 2
)

// GradientFeatures is a histogram-of-oriented-gradients descriptor: a global
// normalized 9-bin orientation histogram, mean gradient magnitude per 4x4
// region and global magnitude statistics.
type GradientFeatures struct {
	Orientation [hogBins]float64
	RegionMean  [hogRegionGrid * hogRegionGrid]float64
	MagMean     float64
	MagStd      float64
}

func (g *GradientFeatures) floats() []float64 {
	out := make([]float64, 0, gradientFeatureLen)
	out = append(out, g.Orientation[:]...)
	out = append(out, g.RegionMean[:]...)
	out = append(out, g.MagMean, g.MagStd)
	return out
}

func gradientFeatures(f *frame) GradientFeatures {
	var gf GradientFeatures
	region := CanonicalSize / hogRegionGrid

	var magSum, magSqSum, orientTotal float64
	var count float64
	var regionSum [hogRegionGrid * hogRegionGrid]float64
	var regionCount [hogRegionGrid * hogRegionGrid]float64

	for y := 1; y < CanonicalSize-1; y++ {
		for x := 1; x < CanonicalSize-1; x++ {
			gx := f.at(x+1, y) - f.at(x-1, y)
			gy := f.at(x, y+1) - f.at(x, y-1)
			mag := math.Sqrt(gx*gx + gy*gy)

			magSum += mag
			magSqSum += mag * mag
			count++

			ri := (y/region)*hogRegionGrid + x/region
			regionSum[ri] += mag
			regionCount[ri]++

			if mag > 0 {
				// unsigned orientation in [0,180)
				angle := math.Atan2(gy, gx) * 180 / math.Pi
				if angle < 0 {
					angle += 180
				}
				if angle >= 180 {
					angle -= 180
				}
				bin := int(angle / (180 / hogBins))
				if bin >= hogBins {
					bin = hogBins - 1
				}
				gf.Orientation[bin] += mag
				orientTotal += mag
			}
		}
	}

	for i := range gf.Orientation {
		gf.Orientation[i] = safeDiv(gf.Orientation[i], orientTotal)
	}
	for i := range regionSum {
		gf.RegionMean[i] = safeDiv(regionSum[i], regionCount[i])
	}
	gf.MagMean = safeDiv(magSum, count)
	variance := safeDiv(magSqSum, count) - gf.MagMean*gf.MagMean
	if variance < 0 {
		variance = 0
	}
	gf.MagStd = math.Sqrt(variance)
	return gf
}
