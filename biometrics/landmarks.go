package biometrics

import "math"

// LandmarkCount is the fixed number of landmark points per frame; estimators
// that find fewer points leave the remainder zero-padded.
const LandmarkCount = 32

const (
	fixedRegionPoints = 10
	cornerPoints      = 12
	symmetryPoints    = 10
)

// Landmark is one estimated facial keypoint with coordinates normalized to
// [0,1] and a unitless confidence in [0,1]. Landmarks only enrich the
// fingerprint; they are never used for geometric verification.
type Landmark struct {
	X, Y       float64
	Confidence float64
}

// LandmarkSet is the fixed-length ordered concatenation of the three
// estimator outputs.
type LandmarkSet struct {
	Points [LandmarkCount]Landmark
}

// Floats returns the landmark values flattened in (x, y, confidence) order.
func (l *LandmarkSet) Floats() []float64 {
	out := make([]float64, 0, LandmarkCount*3)
	for _, p := range l.Points {
		out = append(out, p.X, p.Y, p.Confidence)
	}
	return out
}

// estimateLandmarks runs the face-region-weighting pass followed by the
// three independent estimators, concatenated in fixed order.
func estimateLandmarks(f *frame) LandmarkSet {
	var ls LandmarkSet
	cx, cy := weightedCentroid(f)

	i := 0
	for _, p := range fixedRegionLandmarks(f, cx, cy) {
		ls.Points[i] = p
		i++
	}
	for _, p := range cornerLandmarks(f) {
		ls.Points[i] = p
		i++
	}
	for _, p := range symmetryLandmarks(f) {
		ls.Points[i] = p
		i++
	}
	return ls
}

// weightedCentroid computes the intensity-weighted centroid over the central
// half of the frame, where the face region is expected after letterboxing.
func weightedCentroid(f *frame) (cx, cy float64) {
	lo := CanonicalSize / 4
	hi := 3 * CanonicalSize / 4
	var m00, m10, m01 float64
	for y := lo; y < hi; y++ {
		for x := lo; x < hi; x++ {
			v := f.at(x, y)
			m00 += v
			m10 += float64(x) * v
			m01 += float64(y) * v
		}
	}
	if m00 == 0 {
		return CanonicalSize / 2, CanonicalSize / 2
	}
	return m10 / m00, m01 / m00
}

// fixedRegionOffsets places sample points at canonical facial positions
// relative to the weighted centroid, as fractions of the frame size:
// eyes, brows, nose tip, nostrils, mouth corners and chin.
var fixedRegionOffsets = [fixedRegionPoints][2]float64{
	// eyes, then brows
	{-0.12, -0.10}, {0.12, -0.10},
	{-0.14, -0.16}, {0.14, -0.16},
	// nose tip and nostrils
	{0.00, 0.02},
	{-0.05, 0.05}, {0.05, 0.05},
	// mouth corners and chin
	{-0.10, 0.14}, {0.10, 0.14},
	{0.00, 0.24},
}

func fixedRegionLandmarks(f *frame, cx, cy float64) [fixedRegionPoints]Landmark {
	var out [fixedRegionPoints]Landmark
	for i, off := range fixedRegionOffsets {
		x := clampCoord(cx + off[0]*CanonicalSize)
		y := clampCoord(cy + off[1]*CanonicalSize)
		// mean intensity of a 5x5 patch as confidence
		var sum, count float64
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				px, py := int(x)+dx, int(y)+dy
				if px >= 0 && px < CanonicalSize && py >= 0 && py < CanonicalSize {
					sum += f.at(px, py)
					count++
				}
			}
		}
		out[i] = Landmark{
			X:          x / CanonicalSize,
			Y:          y / CanonicalSize,
			Confidence: safeDiv(sum, count*255),
		}
	}
	return out
}

// cornerLandmarks finds the strongest gradient local maxima with a minimum
// separation, scanning in fixed row-major order so ties resolve
// deterministically.
func cornerLandmarks(f *frame) [cornerPoints]Landmark {
	var out [cornerPoints]Landmark
	mag := sobelMagnitude(f)

	const minSeparation = 32
	type corner struct {
		x, y int
		m    float64
	}
	var picked []corner
	for range cornerPoints {
		best := corner{m: -1}
		for y := 1; y < CanonicalSize-1; y++ {
		scan:
			for x := 1; x < CanonicalSize-1; x++ {
				m := mag[y*CanonicalSize+x]
				if m <= best.m || m <= highEdgeThreshold {
					continue
				}
				// local maximum over the 8-neighborhood
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if (dx != 0 || dy != 0) && mag[(y+dy)*CanonicalSize+x+dx] > m {
							continue scan
						}
					}
				}
				for _, p := range picked {
					if abs(p.x-x) < minSeparation && abs(p.y-y) < minSeparation {
						continue scan
					}
				}
				best = corner{x, y, m}
			}
		}
		if best.m < 0 {
			break // fewer corners than slots, leave the rest zero padded
		}
		picked = append(picked, best)
	}

	var maxMag float64
	for _, p := range picked {
		if p.m > maxMag {
			maxMag = p.m
		}
	}
	for i, p := range picked {
		out[i] = Landmark{
			X:          float64(p.x) / CanonicalSize,
			Y:          float64(p.y) / CanonicalSize,
			Confidence: safeDiv(p.m, maxMag),
		}
	}
	return out
}

// symmetryLandmarks searches for the vertical axis minimizing left/right
// intensity asymmetry and the horizontal axis minimizing top/bottom
// asymmetry, then emits five evenly spaced points along each axis.
func symmetryLandmarks(f *frame) [symmetryPoints]Landmark {
	var out [symmetryPoints]Landmark
	vx, vConf := symmetryAxis(f, true)
	hy, hConf := symmetryAxis(f, false)
	for i := range symmetryPoints / 2 {
		frac := float64(i+1) / (symmetryPoints/2 + 1)
		out[i] = Landmark{X: vx, Y: frac, Confidence: vConf}
		out[symmetryPoints/2+i] = Landmark{X: frac, Y: hy, Confidence: hConf}
	}
	return out
}

// symmetryAxis scans candidate axes across the central half of the frame and
// returns the normalized position with minimal mirror asymmetry plus a
// confidence derived from how pronounced the minimum is.
func symmetryAxis(f *frame, vertical bool) (pos, confidence float64) {
	lo := CanonicalSize / 4
	hi := 3 * CanonicalSize / 4
	const span = CanonicalSize / 4

	bestAxis := CanonicalSize / 2
	bestScore := math.MaxFloat64
	var worstScore float64
	for axis := lo; axis < hi; axis++ {
		var diff, count float64
		for d := 1; d <= span; d++ {
			a, b := axis-d, axis+d
			if a < 0 || b >= CanonicalSize {
				break
			}
			for t := 0; t < CanonicalSize; t += 4 {
				if vertical {
					diff += math.Abs(f.at(a, t) - f.at(b, t))
				} else {
					diff += math.Abs(f.at(t, a) - f.at(t, b))
				}
				count++
			}
		}
		score := safeDiv(diff, count)
		if score < bestScore {
			bestScore = score
			bestAxis = axis
		}
		if score > worstScore {
			worstScore = score
		}
	}
	confidence = safeDiv(worstScore-bestScore, worstScore)
	return float64(bestAxis) / CanonicalSize, confidence
}

func clampCoord(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > CanonicalSize-1 {
		return CanonicalSize - 1
	}
	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
